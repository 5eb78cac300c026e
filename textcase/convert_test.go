package textcase

import (
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestConvert(t *testing.T) {
	tests := []struct {
		name string
		text string
		mode Mode
		want string
	}{
		{"upper", "Hello World", Upper, "HELLO WORLD"},
		{"lower", "Hello World", Lower, "hello world"},
		{"title", "hELLO wORLD", Title, "Hello World"},
		{"title double space", "a  b", Title, "A  B"},
		{"title ignores tabs and newlines", "one\ttwo\nthree four", Title, "One\ttwo\nthree Four"},
		{"title leading space", " lead", Title, " Lead"},
		{"sentence", "hello world. this is IT! ok?  yes", Sentence, "Hello world. This is it! Ok?  Yes"},
		{"sentence leading whitespace", "  first. second", Sentence, "  First. Second"},
		{"sentence punctuation run", "wait...what", Sentence, "Wait...What"},
		{"sentence no space after period", "a.b", Sentence, "A.B"},
		{"sentence vertical tab", "a.\vb\u2028c. \ufeffd", Sentence, "A.\vB\u2028c. \ufeffD"},
		{"alternating", "abcd", Alternating, "AbCd"},
		{"alternating counts spaces", "a bc", Alternating, "A Bc"},
		{"inverse", "AbC1", Inverse, "aBc1"},
		{"inverse punctuation", "Hi, There!", Inverse, "hI, tHERE!"},
		{"unknown mode", "MiXeD", Mode("snakecase"), "MiXeD"},
		{"empty mode", "MiXeD", Mode(""), "MiXeD"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Convert(tt.text, tt.mode); got != tt.want {
				t.Errorf("Convert(%q, %q) = %q, want %q", tt.text, tt.mode, got, tt.want)
			}
		})
	}
}

func TestConvertProperties(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("lowercase(uppercase(s)) == lowercase(s) for ASCII", prop.ForAll(
		func(s string) bool {
			return Convert(Convert(s, Upper), Lower) == Convert(s, Lower)
		},
		gen.AnyString().Map(func(s string) string {
			return strings.Map(func(r rune) rune {
				if r > 127 {
					return 'x'
				}
				return r
			}, s)
		}),
	))

	properties.Property("inverse twice is identity for ASCII letters", prop.ForAll(
		func(s string) bool {
			return InverseCase(InverseCase(s)) == s
		},
		gen.AlphaString(),
	))

	properties.Property("alternating preserves rune count", prop.ForAll(
		func(s string) bool {
			return len([]rune(AlternatingCase(s))) == len([]rune(s))
		},
		gen.AnyString(),
	))

	properties.TestingRun(t)
}
