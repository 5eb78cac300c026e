package textmetrics

import (
	"testing"
)

func TestAnalyze(t *testing.T) {
	tests := []struct {
		name string
		text string
		want Metrics
	}{
		{
			name: "empty",
			text: "",
			want: Metrics{},
		},
		{
			name: "whitespace only",
			text: "   \n\t ",
			want: Metrics{Characters: 6},
		},
		{
			name: "two sentences",
			text: "Hi. Bye!",
			want: Metrics{
				Characters:         8,
				CharactersNoSpaces: 7,
				Words:              2,
				Sentences:          2,
				Paragraphs:         1,
				ReadingTime:        1,
			},
		},
		{
			name: "paragraphs separated by blank lines",
			text: "First line.\n\n\nSecond line.\n   \nThird",
			want: Metrics{
				Characters:         36,
				CharactersNoSpaces: 26,
				Words:              5,
				Sentences:          3,
				Paragraphs:         3,
				ReadingTime:        1,
			},
		},
		{
			name: "multibyte characters count once",
			text: "héllo wörld",
			want: Metrics{
				Characters:         11,
				CharactersNoSpaces: 10,
				Words:              2,
				Sentences:          1,
				Paragraphs:         1,
				ReadingTime:        1,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Analyze(tt.text)
			if got != tt.want {
				t.Errorf("Analyze(%q) = %+v, want %+v", tt.text, got, tt.want)
			}
		})
	}
}

func TestCountWords(t *testing.T) {
	tests := []struct {
		text string
		want int
	}{
		{"", 0},
		{"   ", 0},
		{"a b  c", 3},
		{"\tone\ntwo ", 2},
		{"hyphen-ated words", 2},
		{"one\u00a0two\u3000three", 3},
		{"bom\ufeffsplit", 2},
		{"nel\u0085joined", 1},
		{"\v\ufeff", 0},
	}

	for _, tt := range tests {
		if got := CountWords(tt.text); got != tt.want {
			t.Errorf("CountWords(%q) = %d, want %d", tt.text, got, tt.want)
		}
	}
}

func TestCountSentences(t *testing.T) {
	tests := []struct {
		text string
		want int
	}{
		{"", 0},
		{"   ", 0},
		{"Hi. Bye!", 2},
		{"Wait... what?!", 2},
		{"No terminator", 1},
		// the space after the final period is a non-empty segment
		{"One. ", 2},
		{"...", 0},
	}

	for _, tt := range tests {
		if got := CountSentences(tt.text); got != tt.want {
			t.Errorf("CountSentences(%q) = %d, want %d", tt.text, got, tt.want)
		}
	}
}

func TestCountParagraphs(t *testing.T) {
	tests := []struct {
		text string
		want int
	}{
		{"", 0},
		{"single", 1},
		{"a\nb", 2},
		{"a\n\n\nb", 2},
		{"\n\na\n \n", 1},
	}

	for _, tt := range tests {
		if got := CountParagraphs(tt.text); got != tt.want {
			t.Errorf("CountParagraphs(%q) = %d, want %d", tt.text, got, tt.want)
		}
	}
}

func TestReadingMinutes(t *testing.T) {
	tests := []struct {
		words int
		want  int
	}{
		{0, 0},
		{1, 1},
		{225, 1},
		{226, 2},
		{450, 2},
		{451, 3},
	}

	for _, tt := range tests {
		if got := ReadingMinutes(tt.words); got != tt.want {
			t.Errorf("ReadingMinutes(%d) = %d, want %d", tt.words, got, tt.want)
		}
	}
}

func TestIsSpace(t *testing.T) {
	for _, r := range []rune{' ', '\t', '\n', '\v', '\f', '\r', '\u00a0', '\u1680', '\u2000', '\u200a', '\u2028', '\u2029', '\u202f', '\u205f', '\u3000', '\ufeff'} {
		if !IsSpace(r) {
			t.Errorf("IsSpace(%U) = false, want true", r)
		}
	}
	for _, r := range []rune{'a', '_', '\u0085', '\u180e', '\u200b'} {
		if IsSpace(r) {
			t.Errorf("IsSpace(%U) = true, want false", r)
		}
	}
}

func TestAnalyze_JavaScriptWhitespace(t *testing.T) {
	m := Analyze("\ufeff\u0085")
	want := Metrics{Characters: 2, CharactersNoSpaces: 1, Words: 1, Sentences: 1, Paragraphs: 1, ReadingTime: 1}
	if m != want {
		t.Errorf("Analyze() = %+v, want %+v", m, want)
	}
}
