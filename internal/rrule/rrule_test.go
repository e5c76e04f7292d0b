package rrule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWeeklyNextAfter(t *testing.T) {
	t.Parallel()
	// Wednesday.
	start := time.Date(2024, time.January, 31, 9, 0, 0, 0, time.UTC)
	rule, err := Weekly(start, time.Monday, time.Wednesday)
	require.NoError(t, err)

	got, ok := NextAfter(rule, start)
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, time.February, 5, 9, 0, 0, 0, time.UTC), got, "an occurrence at after itself is skipped")

	got, ok = NextAfter(rule, got)
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, time.February, 7, 9, 0, 0, 0, time.UTC), got)
}

func TestWeeklyNeedsDays(t *testing.T) {
	t.Parallel()
	_, err := Weekly(time.Now())
	assert.Error(t, err)
}
