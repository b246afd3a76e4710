package services

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCalculateReward(t *testing.T) {
	tests := []struct {
		tier   string
		streak int
		want   float64
	}{
		{"learning", 0, 0.25},
		{"learning", 7, 0.38},
		{"verified", 0, 0.38},
		{"verified", 7, 0.56},
		{"elite", 30, 1.25},
		{"master", 30, 1.88},
		{"restricted", 1, 0.13},
		{"unknown", 2, 0.30},
		{"master", 14, 1.50},
	}

	for _, tt := range tests {
		require.Equal(t, tt.want, CalculateReward(0.25, tt.tier, tt.streak), "%s/%d", tt.tier, tt.streak)
	}
}

func TestStreakMultiplierBoundaries(t *testing.T) {
	require.Equal(t, 1.0, StreakMultiplier(1))
	require.Equal(t, 1.2, StreakMultiplier(2))
	require.Equal(t, 1.2, StreakMultiplier(6))
	require.Equal(t, 1.5, StreakMultiplier(7))
	require.Equal(t, 2.0, StreakMultiplier(14))
	require.Equal(t, 2.0, StreakMultiplier(29))
	require.Equal(t, 2.5, StreakMultiplier(30))
}
