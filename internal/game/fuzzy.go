package game

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var diacriticStripper = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// NormalizeAnswer lowercases, strips diacritics and drops everything
// that is not ASCII alphanumeric, so "Beyoncé!" and "beyonce" compare
// equal.
func NormalizeAnswer(s string) string {
	s = strings.ToLower(s)
	if stripped, _, err := transform.String(diacriticStripper, s); err == nil {
		s = stripped
	}
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// FuzzyMatch reports whether input is close enough to target to count
// as a correct free-text answer. After normalization an edit distance
// of up to 20% of the target length is tolerated, capped at 2 edits.
// Short targets effectively require an exact match.
func FuzzyMatch(input, target string) bool {
	a := NormalizeAnswer(input)
	b := NormalizeAnswer(target)
	if a == b {
		return true
	}
	maxDistance := len(b) / 5
	if maxDistance > 2 {
		maxDistance = 2
	}
	return levenshtein(a, b) <= maxDistance
}

func levenshtein(a, b string) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}
	prev := make([]int, len(a)+1)
	curr := make([]int, len(a)+1)
	for j := 0; j <= len(a); j++ {
		prev[j] = j
	}
	for i := 1; i <= len(b); i++ {
		curr[0] = i
		for j := 1; j <= len(a); j++ {
			cost := 1
			if b[i-1] == a[j-1] {
				cost = 0
			}
			curr[j] = min3(prev[j-1]+cost, curr[j-1]+1, prev[j]+1)
		}
		prev, curr = curr, prev
	}
	return prev[len(a)]
}

func min3(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}
