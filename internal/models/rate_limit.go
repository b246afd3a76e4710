package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type RateLimitCounter struct {
	bun.BaseModel    `bun:"table:validation_rate_limit,alias:rl"`
	UserID           uuid.UUID  `bun:"user_id,pk,type:uuid" json:"user_id"`
	HourlyCount      int        `bun:"hourly_count,notnull" json:"hourly_count"`
	DailyCount       int        `bun:"daily_count,notnull" json:"daily_count"`
	HourWindowStart  time.Time  `bun:"hour_window_start,notnull" json:"hour_window_start"`
	DayWindowStart   time.Time  `bun:"day_window_start,notnull" json:"day_window_start"`
	LastValidationAt *time.Time `bun:"last_validation_at" json:"last_validation_at"`
	UpdatedAt        time.Time  `bun:"updated_at,notnull,default:current_timestamp" json:"updated_at"`
}

type RateLimitStatus struct {
	CanValidate     bool      `json:"can_validate"`
	HourlyRemaining int       `json:"validations_remaining_hour"`
	DailyRemaining  int       `json:"validations_remaining_today"`
	ResetTime       time.Time `json:"reset_time"`
}
