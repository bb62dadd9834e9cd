package util

import (
	"math/rand/v2"
	"strings"
)

// RandomLetters is the alphabet used for generated field values.
const RandomLetters = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789 "

// StringSource produces a string of exactly n characters.
type StringSource interface {
	String(n int) (string, error)
}

// StringSourceFunc adapts a function to StringSource.
type StringSourceFunc func(n int) (string, error)

func (f StringSourceFunc) String(n int) (string, error) {
	return f(n)
}

type randomSource struct{}

// RandomString draws from RandomLetters. Safe for concurrent use.
var RandomString StringSource = randomSource{}

func (randomSource) String(n int) (string, error) {
	if n <= 0 {
		return "", nil
	}
	var b strings.Builder
	b.Grow(n)
	for i := 0; i < n; i++ {
		b.WriteByte(RandomLetters[rand.IntN(len(RandomLetters))])
	}
	return b.String(), nil
}
