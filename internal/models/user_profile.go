package models

import (
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

const (
	TierRestricted = "restricted"
	TierLearning   = "learning"
	TierVerified   = "verified"
	TierElite      = "elite"
	TierMaster     = "master"
)

// UserProfile is maintained by the profile service; this module only reads it.
type UserProfile struct {
	bun.BaseModel   `bun:"table:user_profile,alias:p"`
	ID              uuid.UUID `bun:"id,pk,type:uuid" json:"id"`
	Username        string    `bun:"username" json:"username"`
	Tier            string    `bun:"performance_tier" json:"performance_tier"`
	CurrentStreak   int       `bun:"current_streak" json:"current_streak"`
	AccuracyScore   float64   `bun:"accuracy_score" json:"accuracy_score"`
	ValidationScore float64   `bun:"validation_score" json:"validation_score"`
}

const RoleServiceRole = "service_role"

// UserFromAuth only use in middleware
type UserFromAuth struct {
	ID    uuid.UUID `json:"id"`
	Email string    `json:"email"`
	Role  string    `json:"role"`
}
