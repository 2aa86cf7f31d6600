package product

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDaysLeft(t *testing.T) {
	now := time.Date(2025, 6, 10, 15, 30, 0, 0, time.UTC)

	tests := []struct {
		name   string
		expiry time.Time
		want   int
	}{
		{"expires today", time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC), 0},
		{"expires tomorrow", time.Date(2025, 6, 11, 0, 0, 0, 0, time.UTC), 1},
		{"expired yesterday", time.Date(2025, 6, 9, 0, 0, 0, 0, time.UTC), -1},
		{"three days out", time.Date(2025, 6, 13, 0, 0, 0, 0, time.UTC), 3},
		{"long expired", time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC), -40},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, DaysLeft(tt.expiry, now))
		})
	}
}

func TestDaysLeftIgnoresTimeOfDay(t *testing.T) {
	expiry := time.Date(2025, 6, 11, 23, 59, 0, 0, time.UTC)

	// The same calendar day must yield the same days-left figure no
	// matter what time the check runs.
	morning := time.Date(2025, 6, 10, 0, 1, 0, 0, time.UTC)
	evening := time.Date(2025, 6, 10, 23, 59, 0, 0, time.UTC)

	require.Equal(t, DaysLeft(expiry, morning), DaysLeft(expiry, evening))
	require.Equal(t, 1, DaysLeft(expiry, morning))
}
