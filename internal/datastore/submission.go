package datastore

import (
	"context"
	"time"

	"wavesight/internal/models"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

func CreateTableSubmission(ctx context.Context, db *bun.DB) error {
	_, err := db.NewCreateTable().Model((*models.Submission)(nil)).IfNotExists().Exec(ctx)
	if err != nil {
		return err
	}

	_, err = db.NewCreateIndex().Model((*models.Submission)(nil)).Index("index_trend_submission_status_created_at").IfNotExists().Column("status", "created_at").Exec(ctx)
	if err != nil {
		return err
	}

	_, err = db.NewCreateIndex().Model((*models.Submission)(nil)).Index("index_trend_submission_owner_id").IfNotExists().Column("owner_id").Exec(ctx)
	if err != nil {
		return err
	}

	_, err = db.NewRaw(`
		alter table "trend_submission"
			add if not exists validation_count int not null default 0;
		alter table "trend_submission"
			add if not exists finalized_at timestamptz;
		alter table "trend_submission"
			alter column approve_count set default 0;
		alter table "trend_submission"
			alter column reject_count set default 0;`).Exec(ctx)
	if err != nil {
		return err
	}

	return nil
}

func InsertSubmission(ctx context.Context, db bun.IDB, submission *models.Submission) error {
	_, err := db.NewInsert().Model(submission).Exec(ctx)
	return err
}

func FindSubmissionByID(ctx context.Context, db bun.IDB, id uuid.UUID) (*models.Submission, error) {
	var submission models.Submission
	err := db.NewSelect().Model(&submission).Where("s.id = ?", id).Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &submission, nil
}

func FindSubmissionForUpdate(ctx context.Context, db bun.IDB, id uuid.UUID) (*models.Submission, error) {
	var submission models.Submission
	err := db.NewSelect().Model(&submission).Where("s.id = ?", id).For("UPDATE").Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &submission, nil
}

// IncrementSubmissionTally bumps the counter matching decision in one
// statement and returns the row as written.
func IncrementSubmissionTally(ctx context.Context, db bun.IDB, id uuid.UUID, decision string, at time.Time) (*models.Submission, error) {
	column := "reject_count"
	if decision == models.DecisionApprove {
		column = "approve_count"
	}

	var submission models.Submission
	_, err := db.NewUpdate().Model(&submission).
		Set("? = ? + 1", bun.Ident(column), bun.Ident(column)).
		Set("validation_count = validation_count + 1").
		Set("updated_at = ?", at).
		Where("s.id = ?", id).
		Returning("*").
		Exec(ctx)
	if err != nil {
		return nil, err
	}
	return &submission, nil
}

func SetSubmissionTallies(ctx context.Context, db bun.IDB, id uuid.UUID, approve, reject int, at time.Time) (*models.Submission, error) {
	var submission models.Submission
	_, err := db.NewUpdate().Model(&submission).
		Set("approve_count = ?", approve).
		Set("reject_count = ?", reject).
		Set("validation_count = ?", approve+reject).
		Set("updated_at = ?", at).
		Where("s.id = ?", id).
		Returning("*").
		Exec(ctx)
	if err != nil {
		return nil, err
	}
	return &submission, nil
}

func TransitionSubmissionStatus(ctx context.Context, db bun.IDB, id uuid.UUID, from []string, to string, at time.Time) (bool, error) {
	q := db.NewUpdate().Model((*models.Submission)(nil)).
		Set("status = ?", to).
		Set("updated_at = ?", at).
		Where("s.id = ?", id).
		Where("s.status IN (?)", bun.In(from))
	if !models.IsOpenStatus(to) {
		q = q.Set("finalized_at = ?", at)
	}

	res, err := q.Exec(ctx)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// GetEligibleSubmissions lists open submissions the voter neither owns nor
// has voted on, newest first. The anti-join runs in the same statement.
func GetEligibleSubmissions(ctx context.Context, db bun.IDB, voterID uuid.UUID, statuses []string, limit int) ([]*models.Submission, error) {
	var submissions []*models.Submission
	err := db.NewSelect().Model(&submissions).
		Where("s.status IN (?)", bun.In(statuses)).
		Where("s.owner_id != ?", voterID).
		Where("NOT EXISTS (SELECT 1 FROM trend_validation AS v WHERE v.submission_id = s.id AND v.validator_id = ?)", voterID).
		Order("s.created_at DESC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return submissions, nil
}

func GetSubmissionsByOwner(ctx context.Context, db bun.IDB, ownerID uuid.UUID, limit int) ([]*models.Submission, error) {
	var submissions []*models.Submission
	err := db.NewSelect().Model(&submissions).
		Where("s.owner_id = ?", ownerID).
		Order("s.created_at DESC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return submissions, nil
}

// GetStaleSubmissions lists open submissions without a single vote created before createdBefore.
func GetStaleSubmissions(ctx context.Context, db bun.IDB, statuses []string, createdBefore time.Time, limit int) ([]*models.Submission, error) {
	var submissions []*models.Submission
	err := db.NewSelect().Model(&submissions).
		Where("s.status IN (?)", bun.In(statuses)).
		Where("s.validation_count = 0").
		Where("s.created_at < ?", createdBefore).
		Order("s.created_at ASC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return submissions, nil
}

func CreateViewTrendStatus(ctx context.Context, db *bun.DB) error {
	_, err := db.NewRaw(`
		create or replace view trend_status_view as
			select status,
				count(*) as submissions,
				coalesce(sum(approve_count), 0) as approvals,
				coalesce(sum(reject_count), 0) as rejections
			from trend_submission
			group by status;`).Exec(ctx)
	return err
}

func GetStatusSummary(ctx context.Context, db bun.IDB) ([]*models.StatusSummary, error) {
	var rows []*models.StatusSummary
	err := db.NewSelect().TableExpr("trend_status_view").
		Column("status", "submissions", "approvals", "rejections").
		Order("status ASC").
		Scan(ctx, &rows)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// GetTallyMismatches compares the denormalized counters with the ledger.
func GetTallyMismatches(ctx context.Context, db bun.IDB, limit int) ([]*models.TallyMismatch, error) {
	var rows []*models.TallyMismatch
	err := db.NewRaw(`
		select s.id as submission_id, s.approve_count, s.reject_count,
			coalesce(l.approves, 0) as ledger_approve_count,
			coalesce(l.rejects, 0) as ledger_reject_count
		from trend_submission as s
		left join (
			select submission_id,
				count(*) filter (where decision = ?) as approves,
				count(*) filter (where decision = ?) as rejects
			from trend_validation
			group by submission_id
		) as l on l.submission_id = s.id
		where s.approve_count != coalesce(l.approves, 0)
			or s.reject_count != coalesce(l.rejects, 0)
		order by s.updated_at desc
		limit ?`, models.DecisionApprove, models.DecisionReject, limit).Scan(ctx, &rows)
	if err != nil {
		return nil, err
	}
	return rows, nil
}
