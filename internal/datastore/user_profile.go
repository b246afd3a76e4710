package datastore

import (
	"context"

	"wavesight/internal/models"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// CreateTableUserProfile only creates the table when the profile service has
// not done so already, so local databases can be seeded.
func CreateTableUserProfile(ctx context.Context, db *bun.DB) error {
	_, err := db.NewCreateTable().Model((*models.UserProfile)(nil)).IfNotExists().Exec(ctx)
	if err != nil {
		return err
	}

	_, err = db.NewRaw(`
		alter table "user_profile"
			add if not exists performance_tier varchar default 'learning';
		alter table "user_profile"
			add if not exists current_streak int default 0;`).Exec(ctx)
	if err != nil {
		return err
	}

	return nil
}

func FindUserProfileByID(ctx context.Context, db bun.IDB, userID uuid.UUID) (*models.UserProfile, error) {
	var profile models.UserProfile
	err := db.NewSelect().Model(&profile).Where("id = ?", userID).Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

func InsertUserProfile(ctx context.Context, db bun.IDB, profile *models.UserProfile) error {
	_, err := db.NewInsert().Model(profile).On("CONFLICT (id) DO NOTHING").Exec(ctx)
	return err
}
