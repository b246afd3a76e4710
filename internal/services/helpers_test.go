package services_test

import (
	"context"
	"testing"

	"wavesight/internal/models"
	"wavesight/internal/services"
	"wavesight/internal/testutil"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	*testutil.Env
	submissions *services.ServiceSubmission
	validations *services.ServiceValidation
	consensus   *services.ServiceConsensus
	earnings    *services.ServiceEarnings
	rateLimit   *services.ServiceRateLimit
	heat        *services.ServiceHeat
	reconcile   *services.ServiceReconcile
}

func newFixture(t *testing.T, policy *services.Policy) *fixture {
	env := testutil.New(t, policy)
	return &fixture{
		Env:         env,
		submissions: testutil.Invoke[*services.ServiceSubmission](t, env),
		validations: testutil.Invoke[*services.ServiceValidation](t, env),
		consensus:   testutil.Invoke[*services.ServiceConsensus](t, env),
		earnings:    testutil.Invoke[*services.ServiceEarnings](t, env),
		rateLimit:   testutil.Invoke[*services.ServiceRateLimit](t, env),
		heat:        testutil.Invoke[*services.ServiceHeat](t, env),
		reconcile:   testutil.Invoke[*services.ServiceReconcile](t, env),
	}
}

func (f *fixture) submit(t *testing.T, owner uuid.UUID) *models.Submission {
	t.Helper()
	submission, _, err := f.submissions.CreateSubmission(context.Background(), owner, services.CreateSubmissionInput{
		Category:    "meme",
		Description: "dancing cat filter",
		Evidence: &models.Evidence{
			URL:      "https://www.tiktok.com/@cat/video/1",
			Platform: "tiktok",
			Views:    120000,
			Hashtags: []string{"cat", "dance"},
		},
		ViralityPrediction: 70,
		QualityScore:       60,
	})
	require.NoError(t, err)
	return submission
}

func (f *fixture) vote(t *testing.T, voter, submission uuid.UUID, decision string) *models.VoteResult {
	t.Helper()
	result, err := f.validations.CastVote(context.Background(), voter, submission, decision)
	require.NoError(t, err)
	return result
}

func (f *fixture) earning(t *testing.T, reference string) *models.Earning {
	t.Helper()
	earning, err := f.Store.FindEarningByReference(context.Background(), reference)
	require.NoError(t, err)
	return earning
}

func (f *fixture) voters(n int) []uuid.UUID {
	ids := make([]uuid.UUID, n)
	for i := range ids {
		ids[i] = f.Profile(models.TierLearning, 0).ID
	}
	return ids
}
