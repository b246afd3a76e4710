package services_test

import (
	"testing"
	"time"

	"wavesight/internal/models"
	"wavesight/internal/services"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestAuthenticationRoundTrip(t *testing.T) {
	auth, err := services.NewAuthentication("secret")
	require.NoError(t, err)

	user := &models.UserFromAuth{ID: uuid.New(), Email: "a@wavesight.app", Role: models.RoleServiceRole}
	token, err := auth.CreateToken(user, time.Minute)
	require.NoError(t, err)

	got, err := auth.Validate(token)
	require.NoError(t, err)
	require.Equal(t, user, got)

	other, err := services.NewAuthentication("other")
	require.NoError(t, err)
	_, err = other.Validate(token)
	require.Error(t, err)

	expired, err := auth.CreateToken(user, -time.Minute)
	require.NoError(t, err)
	_, err = auth.Validate(expired)
	require.Error(t, err)

	_, err = services.NewAuthentication("")
	require.Error(t, err)
}

func TestPolicyFromEnv(t *testing.T) {
	policy, err := services.PolicyFromEnv(map[string]string{
		services.CONFIG_APPROVAL_THRESHOLD:      "5",
		services.CONFIG_VALIDATION_REWARD:       "0.2",
		services.CONFIG_AUTO_REJECT_AFTER_HOURS: "12",
	})
	require.NoError(t, err)
	require.Equal(t, 5, policy.ApprovalThreshold)
	require.Equal(t, 3, policy.RejectionThreshold)
	require.Equal(t, 0.2, policy.ValidationReward)
	require.Equal(t, 12*time.Hour, policy.AutoRejectAfter)

	require.Zero(t, policy.ApprovalBonus)

	policy, err = services.PolicyFromEnv(map[string]string{services.CONFIG_APPROVAL_BONUS: "0.50"})
	require.NoError(t, err)
	require.Equal(t, 0.5, policy.ApprovalBonus)

	_, err = services.PolicyFromEnv(map[string]string{services.CONFIG_APPROVAL_THRESHOLD: "x"})
	require.Error(t, err)

	_, err = services.PolicyFromEnv(map[string]string{services.CONFIG_HOURLY_VALIDATION_LIMIT: "0"})
	require.Error(t, err)
}
