package datastore

import (
	"context"
	"time"

	"wavesight/internal/models"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

func CreateTableRateLimit(ctx context.Context, db *bun.DB) error {
	_, err := db.NewCreateTable().Model((*models.RateLimitCounter)(nil)).IfNotExists().Exec(ctx)
	if err != nil {
		return err
	}
	return nil
}

// FindOrCreateRateLimitForUpdate creates the counter on first use and locks it
// so increments by concurrent votes of the same user serialize.
func FindOrCreateRateLimitForUpdate(ctx context.Context, db bun.IDB, userID uuid.UUID, now time.Time) (*models.RateLimitCounter, error) {
	_, err := db.NewInsert().Model(&models.RateLimitCounter{
		UserID:          userID,
		HourWindowStart: now,
		DayWindowStart:  now,
		UpdatedAt:       now,
	}).On("CONFLICT (user_id) DO NOTHING").Exec(ctx)
	if err != nil {
		return nil, err
	}

	var counter models.RateLimitCounter
	err = db.NewSelect().Model(&counter).Where("rl.user_id = ?", userID).For("UPDATE").Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &counter, nil
}

func FindRateLimit(ctx context.Context, db bun.IDB, userID uuid.UUID) (*models.RateLimitCounter, error) {
	var counter models.RateLimitCounter
	err := db.NewSelect().Model(&counter).Where("rl.user_id = ?", userID).Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &counter, nil
}

func SaveRateLimit(ctx context.Context, db bun.IDB, counter *models.RateLimitCounter) error {
	_, err := db.NewUpdate().Model(counter).
		Column("hourly_count", "daily_count", "hour_window_start", "day_window_start", "last_validation_at", "updated_at").
		WherePK().
		Exec(ctx)
	return err
}
