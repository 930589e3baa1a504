package utils

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateOrderNumber(t *testing.T) {
	now := time.Date(2026, 6, 15, 10, 30, 0, 0, time.UTC)

	number, err := GenerateOrderNumber(now)
	require.NoError(t, err)

	assert.Regexp(t, regexp.MustCompile(`^ORD-20260615-[A-HJ-KM-NP-Z2-9]{12}$`), number)
}

func TestGenerateOrderNumberUniqueness(t *testing.T) {
	now := time.Now()
	seen := make(map[string]bool)

	for i := 0; i < 1000; i++ {
		number, err := GenerateOrderNumber(now)
		require.NoError(t, err)
		assert.False(t, seen[number], "duplicate order number %s", number)
		seen[number] = true
	}
}

func TestGenerateOrderNumberExcludesAmbiguousCharacters(t *testing.T) {
	now := time.Now()

	for i := 0; i < 100; i++ {
		number, err := GenerateOrderNumber(now)
		require.NoError(t, err)

		suffix := number[len(number)-12:]
		assert.NotContains(t, suffix, "0")
		assert.NotContains(t, suffix, "1")
		assert.NotContains(t, suffix, "I")
		assert.NotContains(t, suffix, "L")
		assert.NotContains(t, suffix, "O")
	}
}
