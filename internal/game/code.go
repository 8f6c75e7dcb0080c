package game

import "math/rand"

// Alphabet for join codes. Ambiguous glyphs (0/O, 1/I) are left out so
// codes survive being read aloud or scribbled on a napkin.
const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// CodeLength is the number of characters in a room join code.
const CodeLength = 5

const maxCodeAttempts = 1000

// NewCode generates a join code that is not currently taken. taken
// reports whether a candidate code is already in use.
func NewCode(taken func(string) bool) (string, error) {
	for i := 0; i < maxCodeAttempts; i++ {
		code := randomCode(CodeLength)
		if !taken(code) {
			return code, nil
		}
	}
	return "", ErrCodeSpaceExhausted
}

func randomCode(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = codeAlphabet[rand.Intn(len(codeAlphabet))]
	}
	return string(b)
}
