// Package textmetrics computes counts and keyword statistics for a block of text.
//
// Every function in this package is pure: the result depends only on the
// arguments, nothing is cached and no state is shared between calls, so the
// functions are safe for concurrent use.
package textmetrics

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// ReadingWordsPerMinute is the average reading speed used for reading-time estimates.
const ReadingWordsPerMinute = 225

var (
	sentenceTerminators = regexp.MustCompile(`[.!?]+`)
	paragraphBreaks     = regexp.MustCompile(`\n+`)
)

// Metrics holds the counts derived from a single input string.
type Metrics struct {
	Characters         int `json:"characters"`
	CharactersNoSpaces int `json:"charactersNoSpaces"`
	Words              int `json:"words"`
	Sentences          int `json:"sentences"`
	Paragraphs         int `json:"paragraphs"`
	ReadingTime        int `json:"readingTime"`
}

// Analyze computes Metrics for text. Characters are counted as runes.
func Analyze(text string) Metrics {
	m := Metrics{
		Characters:         utf8.RuneCountInString(text),
		CharactersNoSpaces: CountNonSpace(text),
	}

	if isBlank(text) {
		return m
	}

	m.Words = CountWords(text)
	m.Sentences = CountSentences(text)
	m.Paragraphs = CountParagraphs(text)
	m.ReadingTime = ReadingMinutes(m.Words)
	return m
}

// IsSpace reports whether r is whitespace in the sense of the \s class of
// JavaScript regular expressions. That set differs from unicode.IsSpace in
// two runes: U+0085 is not whitespace and U+FEFF is.
func IsSpace(r rune) bool {
	if r == '\uFEFF' {
		return true
	}
	return r != '\u0085' && unicode.IsSpace(r)
}

func isBlank(s string) bool {
	return strings.TrimFunc(s, IsSpace) == ""
}

// CountNonSpace returns the number of runes in text that are not whitespace.
func CountNonSpace(text string) int {
	n := 0
	for _, r := range text {
		if !IsSpace(r) {
			n++
		}
	}
	return n
}

// CountWords returns the number of maximal runs of non-whitespace runes.
func CountWords(text string) int {
	return len(strings.FieldsFunc(text, IsSpace))
}

// CountSentences splits text on runs of '.', '!' and '?' and counts the
// non-empty segments. A whitespace-only tail after the last terminator
// still counts as a segment.
func CountSentences(text string) int {
	if isBlank(text) {
		return 0
	}
	n := 0
	for _, segment := range sentenceTerminators.Split(text, -1) {
		if segment != "" {
			n++
		}
	}
	return n
}

// CountParagraphs splits text on runs of newlines and counts the segments
// that contain something other than whitespace.
func CountParagraphs(text string) int {
	if isBlank(text) {
		return 0
	}
	n := 0
	for _, segment := range paragraphBreaks.Split(text, -1) {
		if !isBlank(segment) {
			n++
		}
	}
	return n
}

// ReadingMinutes returns ceil(words / ReadingWordsPerMinute).
func ReadingMinutes(words int) int {
	if words <= 0 {
		return 0
	}
	return (words + ReadingWordsPerMinute - 1) / ReadingWordsPerMinute
}
