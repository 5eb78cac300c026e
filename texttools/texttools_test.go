package texttools

import "testing"

func TestCombine(t *testing.T) {
	tests := []struct {
		name  string
		words []string
		want  string
	}{
		{"three words", []string{"a", "b", "c"}, "a b c"},
		{"single", []string{"solo"}, "solo"},
		{"empty slice", []string{}, ""},
		{"nil", nil, ""},
		{"blanks are kept", []string{"a", "", " b "}, "a   b "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Combine(tt.words); got != tt.want {
				t.Errorf("Combine(%q) = %q, want %q", tt.words, got, tt.want)
			}
		})
	}
}

func TestMD5Hex(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"", "d41d8cd98f00b204e9800998ecf8427e"},
		{"hello", "5d41402abc4b2a76b9719d911017c592"},
		{"The quick brown fox jumps over the lazy dog", "9e107d9d372bb6826bd81d3542a419d6"},
	}

	for _, tt := range tests {
		if got := MD5Hex(tt.text); got != tt.want {
			t.Errorf("MD5Hex(%q) = %q, want %q", tt.text, got, tt.want)
		}
	}
}
