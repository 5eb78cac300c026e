// Package texttools holds small string utilities that need no parsing.
package texttools

import (
	"crypto/md5"
	"encoding/hex"
	"strings"
)

// Combine joins words with a single space. Blank entries are kept; callers
// that want them dropped must filter first.
func Combine(words []string) string {
	return strings.Join(words, " ")
}

// MD5Hex returns the lowercase hex MD5 digest of the UTF-8 bytes of text.
func MD5Hex(text string) string {
	sum := md5.Sum([]byte(text))
	return hex.EncodeToString(sum[:])
}
