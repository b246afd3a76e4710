package datastore_test

import (
	"context"
	"database/sql"
	"os"
	"sync"
	"testing"
	"time"

	"wavesight/internal/datastore"
	"wavesight/internal/interfaces"
	"wavesight/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
)

// newPostgresStore connects to DB_DSN_TEST and creates the schema. Tests are
// skipped when it is not set.
func newPostgresStore(t *testing.T) *datastore.Store {
	dsn := os.Getenv("DB_DSN_TEST")
	if dsn == "" {
		t.Skip("DB_DSN_TEST not set")
	}

	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())
	t.Cleanup(func() {
		//nolint:errcheck
		db.Close()
	})

	ctx := context.Background()
	steps := []func(context.Context, *bun.DB) error{
		datastore.CreateTableConfig,
		datastore.CreateTableUserProfile,
		datastore.CreateTableSubmission,
		datastore.CreateTableValidation,
		datastore.CreateTableEarning,
		datastore.CreateTableRateLimit,
		datastore.CreateTableHeatVote,
		datastore.CreateViewTrendStatus,
	}
	for _, step := range steps {
		require.NoError(t, step(ctx, db))
	}

	return datastore.NewStore(db, nil)
}

func insertSubmission(t *testing.T, store *datastore.Store) *models.Submission {
	now := time.Now().UTC()
	submission := &models.Submission{
		ID:          uuid.New(),
		OwnerID:     uuid.New(),
		Category:    "other",
		Description: "integration",
		Status:      models.SubmissionStatusSubmitted,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	require.NoError(t, store.InsertSubmission(context.Background(), submission))
	return submission
}

func validation(submissionID, validatorID uuid.UUID, decision string) *models.Validation {
	return &models.Validation{
		ID:           uuid.New(),
		SubmissionID: submissionID,
		ValidatorID:  validatorID,
		Decision:     decision,
		CreatedAt:    time.Now().UTC(),
	}
}

func TestInsertValidationOncePerPair(t *testing.T) {
	store := newPostgresStore(t)
	ctx := context.Background()
	submission := insertSubmission(t, store)
	voter := uuid.New()

	inserted, err := store.InsertValidation(ctx, validation(submission.ID, voter, models.DecisionApprove))
	require.NoError(t, err)
	require.True(t, inserted)

	inserted, err = store.InsertValidation(ctx, validation(submission.ID, voter, models.DecisionReject))
	require.NoError(t, err)
	require.False(t, inserted)

	inserted, err = store.InsertValidation(ctx, validation(submission.ID, uuid.New(), models.DecisionReject))
	require.NoError(t, err)
	require.True(t, inserted)

	approve, reject, err := store.CountValidations(ctx, submission.ID)
	require.NoError(t, err)
	require.Equal(t, 1, approve)
	require.Equal(t, 1, reject)

	_, err = store.InsertValidation(ctx, validation(uuid.New(), voter, models.DecisionApprove))
	require.ErrorIs(t, err, interfaces.ErrForeignKey)
}

func TestIncrementTallyReturnsRow(t *testing.T) {
	store := newPostgresStore(t)
	ctx := context.Background()
	submission := insertSubmission(t, store)

	var updated *models.Submission
	err := store.RunInTx(ctx, func(ctx context.Context, repo interfaces.Repository) error {
		if _, err := repo.LockSubmission(ctx, submission.ID); err != nil {
			return err
		}
		if _, err := repo.IncrementTally(ctx, submission.ID, models.DecisionApprove, time.Now()); err != nil {
			return err
		}
		var err error
		updated, err = repo.IncrementTally(ctx, submission.ID, models.DecisionReject, time.Now())
		return err
	})
	require.NoError(t, err)
	require.Equal(t, submission.ID, updated.ID)
	require.Equal(t, 1, updated.ApproveCount)
	require.Equal(t, 1, updated.RejectCount)
	require.Equal(t, 2, updated.ValidationCount)

	_, err = store.LockSubmission(ctx, uuid.New())
	require.ErrorIs(t, err, sql.ErrNoRows)
}

func TestLockSubmissionSerializesWriters(t *testing.T) {
	store := newPostgresStore(t)
	ctx := context.Background()
	submission := insertSubmission(t, store)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = store.RunInTx(ctx, func(ctx context.Context, repo interfaces.Repository) error {
				locked, err := repo.LockSubmission(ctx, submission.ID)
				if err != nil {
					return err
				}
				time.Sleep(50 * time.Millisecond)
				_, err = repo.SetTallies(ctx, submission.ID, locked.ApproveCount+1, 0, time.Now())
				return err
			})
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}

	stored, err := store.FindSubmission(ctx, submission.ID)
	require.NoError(t, err)
	require.Equal(t, 2, stored.ApproveCount)
}
