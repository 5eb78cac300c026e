// Package plagiarism produces the originality report for the
// plagiarism-checker tool.
package plagiarism

import (
	"context"
	"math/rand/v2"
)

// Source is one web page that matched part of the text.
type Source struct {
	URL             string `json:"url"`
	MatchPercentage int    `json:"matchPercentage"`
	MatchedText     string `json:"matchedText"`
}

// Report is the checker result.
type Report struct {
	OriginalityScore int      `json:"originalityScore"`
	MatchedSources   []Source `json:"matchedSources"`
}

// Sample source URLs reported by RandomChecker.
const (
	PrimarySourceURL   = "https://example.com/article-about-seo"
	SecondarySourceURL = "https://another-site.com/similar-content"
)

// IntNer is satisfied by *rand.Rand.
type IntNer interface {
	IntN(n int) int
}

type globalRand struct{}

func (globalRand) IntN(n int) int { return rand.IntN(n) }

// RandomChecker is a placeholder detector: it reports a random score
// between 60 and 99 and two fixed sources quoting the first and second
// 50-character windows of the text.
type RandomChecker struct {
	rng IntNer
}

// NewRandomChecker returns a checker. A nil rng uses the global source.
func NewRandomChecker(rng IntNer) *RandomChecker {
	if rng == nil {
		rng = globalRand{}
	}
	return &RandomChecker{rng: rng}
}

// Check builds a report for text.
func (c *RandomChecker) Check(ctx context.Context, text string) (*Report, error) {
	return &Report{
		OriginalityScore: c.rng.IntN(40) + 60,
		MatchedSources: []Source{
			{
				URL:             PrimarySourceURL,
				MatchPercentage: c.rng.IntN(20) + 1,
				MatchedText:     excerpt(text, 0, 50) + "...",
			},
			{
				URL:             SecondarySourceURL,
				MatchPercentage: c.rng.IntN(15) + 1,
				MatchedText:     excerpt(text, 50, 100) + "...",
			},
		},
	}, nil
}

// excerpt returns runes [start, end) of s, clamped to its length.
func excerpt(s string, start, end int) string {
	r := []rune(s)
	if start > len(r) {
		start = len(r)
	}
	if end > len(r) {
		end = len(r)
	}
	return string(r[start:end])
}
