package main

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRequiredEnvs(t *testing.T) {
	require.Equal(t, []string{"DB_DSN"}, requiredEnvs)
	require.NotContains(t, requiredEnvs, "JWT_SECRET")
}
