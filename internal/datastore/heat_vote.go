package datastore

import (
	"context"

	"wavesight/internal/models"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

func CreateTableHeatVote(ctx context.Context, db *bun.DB) error {
	_, err := db.NewCreateTable().Model((*models.HeatVote)(nil)).IfNotExists().
		ForeignKey(`("trend_id") REFERENCES "trend_submission" ("id") ON DELETE CASCADE`).
		Exec(ctx)
	if err != nil {
		return err
	}

	_, err = db.NewCreateIndex().Model((*models.HeatVote)(nil)).Index("index_trend_heat_vote_trend_user").IfNotExists().Unique().Column("trend_id", "user_id").Exec(ctx)
	if err != nil {
		return err
	}

	return nil
}

func InsertHeatVote(ctx context.Context, db bun.IDB, vote *models.HeatVote) (bool, error) {
	res, err := db.NewInsert().Model(vote).
		On("CONFLICT (trend_id, user_id) DO NOTHING").
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

func UpdateHeatVote(ctx context.Context, db bun.IDB, vote *models.HeatVote) error {
	_, err := db.NewUpdate().Model(vote).
		Column("vote_type", "vote_value", "updated_at").
		Where("hv.trend_id = ?", vote.TrendID).
		Where("hv.user_id = ?", vote.UserID).
		Exec(ctx)
	return err
}

func FindHeatVote(ctx context.Context, db bun.IDB, trendID, userID uuid.UUID) (*models.HeatVote, error) {
	var vote models.HeatVote
	err := db.NewSelect().Model(&vote).
		Where("hv.trend_id = ?", trendID).
		Where("hv.user_id = ?", userID).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &vote, nil
}

func GetHeatDistribution(ctx context.Context, db bun.IDB, trendID uuid.UUID) ([]*models.HeatVoteCount, error) {
	var counts []*models.HeatVoteCount
	err := db.NewSelect().Model((*models.HeatVote)(nil)).
		ColumnExpr("hv.vote_type AS vote_type").
		ColumnExpr("count(*) AS count").
		Where("hv.trend_id = ?", trendID).
		Group("hv.vote_type").
		Scan(ctx, &counts)
	if err != nil {
		return nil, err
	}
	return counts, nil
}
