package datastore

import (
	"context"

	"wavesight/internal/models"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

func CreateTableValidation(ctx context.Context, db *bun.DB) error {
	_, err := db.NewCreateTable().Model((*models.Validation)(nil)).IfNotExists().
		ForeignKey(`("submission_id") REFERENCES "trend_submission" ("id") ON DELETE CASCADE`).
		Exec(ctx)
	if err != nil {
		return err
	}

	_, err = db.NewCreateIndex().Model((*models.Validation)(nil)).Index("index_trend_validation_submission_validator").IfNotExists().Unique().Column("submission_id", "validator_id").Exec(ctx)
	if err != nil {
		return err
	}

	_, err = db.NewCreateIndex().Model((*models.Validation)(nil)).Index("index_trend_validation_validator_id").IfNotExists().Column("validator_id").Exec(ctx)
	if err != nil {
		return err
	}

	return nil
}

// InsertValidation reports whether the row was written; a second vote for
// the same pair is absorbed by the unique index.
func InsertValidation(ctx context.Context, db bun.IDB, validation *models.Validation) (bool, error) {
	res, err := db.NewInsert().Model(validation).
		On("CONFLICT (submission_id, validator_id) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func FindValidation(ctx context.Context, db bun.IDB, submissionID, validatorID uuid.UUID) (*models.Validation, error) {
	var validation models.Validation
	err := db.NewSelect().Model(&validation).
		Where("v.submission_id = ?", submissionID).
		Where("v.validator_id = ?", validatorID).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &validation, nil
}

func CountValidations(ctx context.Context, db bun.IDB, submissionID uuid.UUID) (int, int, error) {
	var approve, reject int
	err := db.NewSelect().Model((*models.Validation)(nil)).
		ColumnExpr("count(*) filter (where v.decision = ?)", models.DecisionApprove).
		ColumnExpr("count(*) filter (where v.decision = ?)", models.DecisionReject).
		Where("v.submission_id = ?", submissionID).
		Scan(ctx, &approve, &reject)
	if err != nil {
		return 0, 0, err
	}
	return approve, reject, nil
}

// GetUnrewardedValidations lists votes that have no validation reward in the earnings ledger.
func GetUnrewardedValidations(ctx context.Context, db bun.IDB, limit int) ([]*models.Validation, error) {
	var validations []*models.Validation
	err := db.NewSelect().Model(&validations).
		Where("NOT EXISTS (SELECT 1 FROM earning AS e WHERE e.reference_key = 'validation:' || v.submission_id || ':' || v.validator_id)").
		Order("v.created_at DESC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return validations, nil
}
