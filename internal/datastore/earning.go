package datastore

import (
	"context"

	"wavesight/internal/models"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

func CreateTableEarning(ctx context.Context, db *bun.DB) error {
	_, err := db.NewCreateTable().Model((*models.Earning)(nil)).IfNotExists().Exec(ctx)
	if err != nil {
		return err
	}

	_, err = db.NewCreateIndex().Model((*models.Earning)(nil)).Index("index_earning_reference_key").IfNotExists().Unique().Column("reference_key").Exec(ctx)
	if err != nil {
		return err
	}

	_, err = db.NewCreateIndex().Model((*models.Earning)(nil)).Index("index_earning_user_id").IfNotExists().Column("user_id", "created_at").Exec(ctx)
	if err != nil {
		return err
	}

	_, err = db.NewCreateIndex().Model((*models.Earning)(nil)).Index("index_earning_submission_id").IfNotExists().Column("submission_id").Exec(ctx)
	if err != nil {
		return err
	}

	return nil
}

// InsertEarning is idempotent on reference_key.
func InsertEarning(ctx context.Context, db bun.IDB, earning *models.Earning) (bool, error) {
	res, err := db.NewInsert().Model(earning).
		On("CONFLICT (reference_key) DO NOTHING").
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

func FindEarningByReference(ctx context.Context, db bun.IDB, referenceKey string) (*models.Earning, error) {
	var earning models.Earning
	err := db.NewSelect().Model(&earning).Where("e.reference_key = ?", referenceKey).Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &earning, nil
}

func UpdateEarningStatus(ctx context.Context, db bun.IDB, earning *models.Earning, from []string) (bool, error) {
	res, err := db.NewUpdate().Model(earning).
		Column("status", "amount", "breakdown", "updated_at").
		WherePK().
		Where("e.status IN (?)", bun.In(from)).
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

func GetEarningsByUser(ctx context.Context, db bun.IDB, userID uuid.UUID, limit int) ([]*models.Earning, error) {
	var earnings []*models.Earning
	err := db.NewSelect().Model(&earnings).
		Where("e.user_id = ?", userID).
		Order("e.created_at DESC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return earnings, nil
}

func SumEarningsByStatus(ctx context.Context, db bun.IDB, userID uuid.UUID) ([]*models.EarningStatusTotal, error) {
	var totals []*models.EarningStatusTotal
	err := db.NewSelect().Model((*models.Earning)(nil)).
		ColumnExpr("e.status AS status").
		ColumnExpr("coalesce(sum(e.amount), 0) AS total").
		ColumnExpr("count(*) AS count").
		Where("e.user_id = ?", userID).
		Group("e.status").
		Scan(ctx, &totals)
	if err != nil {
		return nil, err
	}
	return totals, nil
}
