package textmetrics

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestMetricsProperties(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("characters = non-space + whitespace", prop.ForAll(
		func(s string) bool {
			whitespace := 0
			for _, r := range s {
				if IsSpace(r) {
					whitespace++
				}
			}
			m := Analyze(s)
			return m.Characters == m.CharactersNoSpaces+whitespace &&
				m.Characters == utf8.RuneCountInString(s)
		},
		gen.AnyString(),
	))

	properties.Property("reading time is ceil(words/225)", prop.ForAll(
		func(words int) bool {
			got := ReadingMinutes(words)
			return got*ReadingWordsPerMinute >= words &&
				(got == 0 || (got-1)*ReadingWordsPerMinute < words)
		},
		gen.IntRange(0, 100000),
	))

	properties.Property("joined words are counted", prop.ForAll(
		func(words []string) bool {
			var nonEmpty []string
			for _, w := range words {
				if w != "" {
					nonEmpty = append(nonEmpty, w)
				}
			}
			return CountWords(strings.Join(nonEmpty, "  ")) == len(nonEmpty)
		},
		gen.SliceOf(gen.AlphaString()),
	))

	properties.Property("keyword densities sum to at most 100", prop.ForAll(
		func(text string) bool {
			report := KeywordDensity(text, DensityOptions{})
			sum := 0.0
			for _, kw := range report.Keywords {
				sum += kw.Density
			}
			return sum <= 100.0000001
		},
		gen.AnyString(),
	))

	properties.TestingRun(t)
}
