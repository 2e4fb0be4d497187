package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextOptionsExpiration(t *testing.T) {
	tests := []struct {
		today string
		want  string
	}{
		{"2025-01-02", "2025-01-17"}, // before expiration week
		{"2025-01-10", "2025-02-21"}, // first day of expiration week
		{"2025-01-20", "2025-02-21"}, // after third Friday
		{"2025-12-15", "2026-01-16"}, // year rollover
	}

	for _, tt := range tests {
		today, err := time.Parse(DateLayout, tt.today)
		require.NoError(t, err)
		assert.Equal(t, tt.want, NextOptionsExpiration(today), "today=%s", tt.today)
	}
}

func TestYearsToExpiration(t *testing.T) {
	now := time.Date(2025, 3, 1, 15, 30, 0, 0, time.UTC)

	years, err := YearsToExpiration("2026-03-01", now)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, years, 1e-12)

	years, err = YearsToExpiration("2025-03-31", now)
	require.NoError(t, err)
	assert.InDelta(t, 30.0/365.0, years, 1e-12)

	years, err = YearsToExpiration("2025-03-01", now)
	require.NoError(t, err)
	assert.Equal(t, 0.0, years)

	years, err = YearsToExpiration("2025-02-01", now)
	require.NoError(t, err)
	assert.Less(t, years, 0.0)

	_, err = YearsToExpiration("03/01/2026", now)
	assert.Error(t, err)
}
