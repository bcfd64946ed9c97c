package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleaners(t *testing.T) {
	assert.Equal(t, "Mary Wanjiku", CleanName("  Mary \t  Wanjiku "))
	assert.Equal(t, "admin@karen.org", CleanString(" Admin@Karen.org ", true))
	assert.Equal(t, "+254716402525", CleanPhone(" +254 716-402-525 "))
	assert.Equal(t, "0716402525", CleanPhone("(0716) 402 525+"))
	assert.Equal(t, "", CleanPhone("n/a"))
}

func TestNormalizeKenyanPhone(t *testing.T) {
	tests := map[string]string{
		"0716 402 525":   "254716402525",
		"+254716402525":  "254716402525",
		"254-716-402525": "254716402525",
		"716402525":      "716402525",
	}
	for in, want := range tests {
		assert.Equal(t, want, NormalizeKenyanPhone(in), in)
	}
}
