package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"wavesight/internal/models"
	"wavesight/internal/services"
	"wavesight/internal/testutil"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

type apiFixture struct {
	*testutil.Env
	router http.Handler
	auth   *services.Authentication
}

func newAPIFixture(t *testing.T) *apiFixture {
	env := testutil.New(t, nil)
	router, err := New(&Config{
		Container:  env.Container,
		Mode:       "production",
		Origins:    []string{"*"},
		Registerer: prometheus.NewRegistry(),
	})
	require.NoError(t, err)

	return &apiFixture{env, router, testutil.Invoke[*services.Authentication](t, env)}
}

func (f *apiFixture) token(t *testing.T, id uuid.UUID, role string) string {
	token, err := f.auth.CreateToken(&models.UserFromAuth{ID: id, Role: role}, time.Hour)
	require.NoError(t, err)
	return token
}

func (f *apiFixture) do(t *testing.T, method, path, token string, body any) (int, map[string]any) {
	t.Helper()

	var payload bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&payload).Encode(body))
	}
	req := httptest.NewRequest(method, path, &payload)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	out := map[string]any{}
	if rec.Body.Len() > 0 {
		//nolint:errcheck
		json.Unmarshal(rec.Body.Bytes(), &out)
	}
	return rec.Code, out
}

func (f *apiFixture) submission(t *testing.T, owner uuid.UUID) *models.Submission {
	serviceSubmission := testutil.Invoke[*services.ServiceSubmission](t, f.Env)
	submission, _, err := serviceSubmission.CreateSubmission(context.Background(), owner, services.CreateSubmissionInput{Description: "trend"})
	require.NoError(t, err)
	return submission
}

func TestCastTrendVoteUnauthenticated(t *testing.T) {
	f := newAPIFixture(t)

	code, body := f.do(t, http.MethodPost, "/api/v1/rpc/cast_trend_vote", "", map[string]string{
		"trend_id":  uuid.NewString(),
		"vote_type": "verify",
	})
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, false, body["success"])
	require.Equal(t, "Not authenticated. Please log in.", body["error"])
}

func TestCastTrendVote(t *testing.T) {
	f := newAPIFixture(t)

	owner := f.Profile(models.TierLearning, 0)
	voter := f.Profile(models.TierLearning, 0)
	submission := f.submission(t, owner.ID)

	code, body := f.do(t, http.MethodPost, "/api/v1/rpc/cast_trend_vote", f.token(t, voter.ID, "authenticated"), map[string]string{
		"trend_id":  submission.ID.String(),
		"vote_type": "verify",
	})
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, true, body["success"])
	require.NotEmpty(t, body["id"])

	code, body = f.do(t, http.MethodPost, "/api/v1/rpc/cast_trend_vote", f.token(t, voter.ID, "authenticated"), map[string]string{
		"trend_id":  submission.ID.String(),
		"vote_type": "verify",
	})
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, false, body["success"])
	require.Equal(t, services.ErrDuplicateVote.Error(), body["error"])

	code, body = f.do(t, http.MethodPost, "/api/v1/rpc/check_rate_limit", f.token(t, voter.ID, ""), nil)
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, true, body["can_validate"])
	require.EqualValues(t, 19, body["validations_remaining_hour"])
	require.EqualValues(t, 99, body["validations_remaining_today"])
}

func TestVoteTrend(t *testing.T) {
	f := newAPIFixture(t)

	owner := f.Profile(models.TierLearning, 0)
	user := f.Profile(models.TierLearning, 0)
	trend := f.submission(t, owner.ID)

	code, body := f.do(t, http.MethodPost, "/api/v1/vote-trend", f.token(t, user.ID, ""), map[string]any{
		"trend_id":   trend.ID.String(),
		"vote_type":  "wave",
		"vote_value": 2,
		"user_id":    user.ID.String(),
	})
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, true, body["success"])
	require.EqualValues(t, 10, body["xp_earned"])
	require.EqualValues(t, 2, body["heat_score"])
	require.EqualValues(t, 1, body["wave_votes"])

	code, _ = f.do(t, http.MethodPost, "/api/v1/vote-trend", f.token(t, user.ID, ""), map[string]any{
		"trend_id":  trend.ID.String(),
		"vote_type": "wave",
		"user_id":   owner.ID.String(),
	})
	require.Equal(t, http.StatusForbidden, code)

	code, body = f.do(t, http.MethodGet, "/api/v1/vote-trend?trend_id="+trend.ID.String()+"&user_id="+user.ID.String(), "", nil)
	require.Equal(t, http.StatusOK, code)
	require.EqualValues(t, 2, body["heat_score"])
	require.Equal(t, "wave", body["user_vote"])

	code, _ = f.do(t, http.MethodPost, "/api/v1/vote-trend", "", map[string]any{
		"trend_id":  trend.ID.String(),
		"vote_type": "wave",
	})
	require.Equal(t, http.StatusUnauthorized, code)
}

func TestForceRejectRequiresServiceRole(t *testing.T) {
	f := newAPIFixture(t)
	ctx := context.Background()

	owner := f.Profile(models.TierLearning, 0)
	submission := f.submission(t, owner.ID)
	path := "/api/v1/admin/submissions/" + submission.ID.String() + "/force-reject"

	code, _ := f.do(t, http.MethodPost, path, f.token(t, owner.ID, "authenticated"), nil)
	require.Equal(t, http.StatusForbidden, code)

	stored, err := f.Store.FindSubmission(ctx, submission.ID)
	require.NoError(t, err)
	require.Equal(t, models.SubmissionStatusSubmitted, stored.Status)

	code, _ = f.do(t, http.MethodPost, path, f.token(t, uuid.New(), models.RoleServiceRole), nil)
	require.Equal(t, http.StatusOK, code)

	stored, err = f.Store.FindSubmission(ctx, submission.ID)
	require.NoError(t, err)
	require.Equal(t, models.SubmissionStatusRejected, stored.Status)
}

func TestVoteLockBackendDown(t *testing.T) {
	f := newAPIFixture(t)

	owner := f.Profile(models.TierLearning, 0)
	voter := f.Profile(models.TierLearning, 0)
	submission := f.submission(t, owner.ID)

	f.Redis.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/submissions/"+submission.ID.String()+"/votes", bytes.NewBufferString(`{"decision":"approve"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+f.token(t, voter.ID, ""))
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	require.Equal(t, "1", rec.Header().Get("Retry-After"))

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "database-query", body["code"])

	code, rpc := f.do(t, http.MethodPost, "/api/v1/rpc/cast_trend_vote", f.token(t, voter.ID, ""), map[string]string{
		"trend_id":  submission.ID.String(),
		"vote_type": "verify",
	})
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, false, rpc["success"])
	require.NotEqual(t, services.ErrDuplicateVote.Error(), rpc["error"])
}
