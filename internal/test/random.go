package test

import (
	"math/rand/v2"
	"strings"
)

const loginAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// RandomASCIIString returns a pseudo-random alphanumeric string with length
// in [minLen, maxLen].
func RandomASCIIString(minLen, maxLen int) string {
	if minLen <= 0 {
		minLen = 1
	}
	if maxLen < minLen {
		maxLen = minLen
	}
	length := minLen + rand.IntN(maxLen-minLen+1)

	var b strings.Builder
	b.Grow(length)
	for range length {
		b.WriteByte(loginAlphabet[rand.IntN(len(loginAlphabet))])
	}
	return b.String()
}

// RandomEventID returns a provider-shaped event id such as evt_3fK9...
func RandomEventID() string {
	return "evt_" + RandomASCIIString(24, 24)
}
