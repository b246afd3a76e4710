package main

import (
	"testing"

	"wavesight/internal/models"

	"github.com/stretchr/testify/require"
)

func TestParseProfileRow(t *testing.T) {
	profile, err := parseProfileRow([]string{"6f1c1f2e-7a65-4d0e-9a3c-2b1c5d1e0f10", " surfer ", "Elite", "12"})
	require.NoError(t, err)
	require.Equal(t, "surfer", profile.Username)
	require.Equal(t, models.TierElite, profile.Tier)
	require.Equal(t, 12, profile.CurrentStreak)

	cases := [][]string{
		{"not-a-uuid", "a", "learning", "0"},
		{"6f1c1f2e-7a65-4d0e-9a3c-2b1c5d1e0f10", "a", "legend", "0"},
		{"6f1c1f2e-7a65-4d0e-9a3c-2b1c5d1e0f10", "a", "learning", "-1"},
	}
	for _, row := range cases {
		_, err := parseProfileRow(row)
		require.Error(t, err, row)
	}
}
