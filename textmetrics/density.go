package textmetrics

import (
	"regexp"
	"sort"
	"strings"
)

// Defaults applied by KeywordDensity when the corresponding option is unset.
const (
	DefaultExcludeWords = "a, an, the, and, or, but, in, on, at"
	DefaultMinLength    = 3
)

var wordToken = regexp.MustCompile(`\w+`)

// DensityOptions tunes KeywordDensity. Zero values select the defaults.
type DensityOptions struct {
	// ExcludeWords is a comma-separated stop-word list.
	ExcludeWords string
	// MinLength is the shortest token reported as a keyword.
	MinLength int
}

// KeywordStat is the occurrence count and density of one keyword.
type KeywordStat struct {
	Keyword string  `json:"keyword"`
	Count   int     `json:"count"`
	Density float64 `json:"density"`
}

// KeywordReport is the result of KeywordDensity.
type KeywordReport struct {
	TotalWords int           `json:"totalWords"`
	Keywords   []KeywordStat `json:"keywords"`
}

// KeywordDensity tokenizes text into runs of word characters and reports how
// often each retained token occurs.
//
// TotalWords counts every token, including stop words and short tokens, and
// densities are computed against that unfiltered total, so the densities of
// the reported keywords generally sum to less than 100. Keywords are ordered
// by count, highest first; equal counts keep first-occurrence order.
func KeywordDensity(text string, opts DensityOptions) KeywordReport {
	excludeList := opts.ExcludeWords
	if excludeList == "" {
		excludeList = DefaultExcludeWords
	}
	minLength := opts.MinLength
	if minLength <= 0 {
		minLength = DefaultMinLength
	}

	tokens := Tokenize(text)
	excluded := ParseExcludeWords(excludeList)

	counts := newOrderedCounts()
	for _, token := range tokens {
		if len(token) < minLength {
			continue
		}
		if _, skip := excluded[token]; skip {
			continue
		}
		counts.increment(token)
	}

	total := len(tokens)
	keywords := make([]KeywordStat, 0, counts.len())
	counts.each(func(token string, count int) {
		keywords = append(keywords, KeywordStat{
			Keyword: token,
			Count:   count,
			Density: float64(count) / float64(total) * 100,
		})
	})

	sort.SliceStable(keywords, func(i, j int) bool {
		return keywords[i].Count > keywords[j].Count
	})

	return KeywordReport{
		TotalWords: total,
		Keywords:   keywords,
	}
}

// Tokenize lower-cases text and returns its runs of ASCII letters, digits
// and underscores in order of appearance.
func Tokenize(text string) []string {
	return wordToken.FindAllString(strings.ToLower(text), -1)
}

// ParseExcludeWords turns a comma-separated list into a lookup set of
// trimmed, lower-cased words.
func ParseExcludeWords(list string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, word := range strings.Split(strings.ToLower(list), ",") {
		set[strings.TrimSpace(word)] = struct{}{}
	}
	return set
}
