// Package textcase converts text between letter-case styles.
package textcase

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Mode selects a case conversion.
type Mode string

// Supported modes. The string values are the ones accepted over the wire.
const (
	Upper       Mode = "uppercase"
	Lower       Mode = "lowercase"
	Title       Mode = "titlecase"
	Sentence    Mode = "sentencecase"
	Alternating Mode = "altercase"
	Inverse     Mode = "inversecase"
)

// sentenceStart matches the first word character of the text, or of any
// run following '.', '!' or '?' and optional whitespace.
var sentenceStart = regexp.MustCompile(`^[\s\v\p{Z}\x{FEFF}]*\w|[.!?][\s\v\p{Z}\x{FEFF}]*\w`)

// Convert applies mode to text. Unknown modes return text unchanged.
func Convert(text string, mode Mode) string {
	switch mode {
	case Upper:
		return strings.ToUpper(text)
	case Lower:
		return strings.ToLower(text)
	case Title:
		return TitleCase(text)
	case Sentence:
		return SentenceCase(text)
	case Alternating:
		return AlternatingCase(text)
	case Inverse:
		return InverseCase(text)
	default:
		return text
	}
}

// TitleCase lower-cases text and upper-cases the first character of every
// segment between single spaces. Tabs and newlines are not separators, and
// consecutive spaces produce empty segments that pass through untouched.
func TitleCase(text string) string {
	segments := strings.Split(strings.ToLower(text), " ")
	for i, seg := range segments {
		r, size := utf8.DecodeRuneInString(seg)
		if size == 0 {
			continue
		}
		segments[i] = string(unicode.ToUpper(r)) + seg[size:]
	}
	return strings.Join(segments, " ")
}

// SentenceCase lower-cases text, then upper-cases the first word character
// of the text and the first word character after each run of sentence
// punctuation.
func SentenceCase(text string) string {
	return sentenceStart.ReplaceAllStringFunc(strings.ToLower(text), strings.ToUpper)
}

// AlternatingCase upper-cases characters at even positions and lower-cases
// the rest. Every character, whitespace and punctuation included, advances
// the position.
func AlternatingCase(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	i := 0
	for _, r := range text {
		if i%2 == 0 {
			b.WriteRune(unicode.ToUpper(r))
		} else {
			b.WriteRune(unicode.ToLower(r))
		}
		i++
	}
	return b.String()
}

// InverseCase flips the case of every character: a character that is
// unchanged by upper-casing is lower-cased, anything else is upper-cased.
func InverseCase(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		if unicode.ToUpper(r) == r {
			b.WriteRune(unicode.ToLower(r))
		} else {
			b.WriteRune(unicode.ToUpper(r))
		}
	}
	return b.String()
}
