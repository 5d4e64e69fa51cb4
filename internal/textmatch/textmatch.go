// Package textmatch holds the string-normalization and similarity primitives
// shared by the classifier, the response cache, the response banks and the
// learning store. All matching in this service goes through Normalize so that
// Vietnamese input with and without diacritics hits the same triggers.
package textmatch

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Normalize lowercases the input, strips combining marks (NFD decomposition,
// drop Mn runes) and trims surrounding whitespace. "Hỗ Trợ" → "ho tro".
func Normalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	out, _, err := transform.String(stripMarks, s)
	if err != nil {
		// Mark stripping is best effort; matching still works on the
		// lowercased original.
		return s
	}
	// Vietnamese đ does not decompose into a base letter plus a mark.
	return strings.ReplaceAll(out, "đ", "d")
}

// Tokens normalizes the input and splits it into whitespace-delimited words.
func Tokens(s string) []string {
	return strings.Fields(Normalize(s))
}

// TokenSet returns the set of distinct normalized words in s.
func TokenSet(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, t := range Tokens(s) {
		set[t] = struct{}{}
	}
	return set
}

// Jaccard computes word-set similarity between two strings: the size of the
// intersection of their token sets divided by the size of the union. Two
// empty strings are identical (1); one empty string never matches (0).
func Jaccard(a, b string) float64 {
	as, bs := TokenSet(a), TokenSet(b)
	if len(as) == 0 && len(bs) == 0 {
		return 1
	}
	if len(as) == 0 || len(bs) == 0 {
		return 0
	}
	inter := 0
	for t := range as {
		if _, ok := bs[t]; ok {
			inter++
		}
	}
	union := len(as) + len(bs) - inter
	return float64(inter) / float64(union)
}

// Overlap returns the fraction of b's distinct words that also occur in a.
// Used by the response banks to score candidate trigger phrases against the
// visitor's question.
func Overlap(a, b string) float64 {
	bs := TokenSet(b)
	if len(bs) == 0 {
		return 0
	}
	as := TokenSet(a)
	matched := 0
	for t := range bs {
		if _, ok := as[t]; ok {
			matched++
		}
	}
	return float64(matched) / float64(len(bs))
}
