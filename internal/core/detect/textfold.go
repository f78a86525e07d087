package detect

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// foldText canonicalizes text before lexical comparison: NFKC so width and
// compatibility variants collapse, then lowercase. Detectors compare folded
// forms only; the originals survive on the findings for evidence display.
func foldText(s string) string {
	return strings.ToLower(norm.NFKC.String(s))
}

// tokenize splits folded text into words, stripping punctuation
func tokenize(s string) []string {
	return strings.FieldsFunc(foldText(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}

// snippet returns a short caption excerpt for evidence payloads
func snippet(s string, max int) string {
	s = strings.TrimSpace(s)
	if len(s) <= max {
		return s
	}
	// back off to a rune boundary so the cut never splits a multi-byte rune
	for max > 0 && !utf8.RuneStart(s[max]) {
		max--
	}
	cut := s[:max]
	if i := strings.LastIndexByte(cut, ' '); i > max/2 {
		cut = cut[:i]
	}
	return cut + "…"
}
