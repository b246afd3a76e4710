package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

const (
	EarningTypeSubmissionReward = "submission_reward"
	EarningTypeValidationReward = "validation_reward"
	EarningTypeBonus            = "bonus"

	EarningStatusPending              = "pending"
	EarningStatusAwaitingVerification = "awaiting_verification"
	EarningStatusApproved             = "approved"
	EarningStatusRejected             = "rejected"
	EarningStatusPaid                 = "paid"
)

// OpenEarningStatuses are the statuses a submission reward can be finalized from.
var OpenEarningStatuses = []string{
	EarningStatusPending,
	EarningStatusAwaitingVerification,
}

type Earning struct {
	bun.BaseModel `bun:"table:earning,alias:e"`
	ID            uuid.UUID         `bun:"id,pk,type:uuid" json:"id"`
	UserID        uuid.UUID         `bun:"user_id,type:uuid,notnull" json:"user_id"`
	Amount        float64           `bun:"amount,type:numeric(10,2),notnull" json:"amount"`
	Type          string            `bun:"type,notnull" json:"type"`
	Status        string            `bun:"status,notnull" json:"status"`
	SubmissionID  *uuid.UUID        `bun:"submission_id,type:uuid" json:"submission_id"`
	ReferenceKey  string            `bun:"reference_key,notnull" json:"reference_key"`
	Breakdown     *EarningBreakdown `bun:"breakdown,type:jsonb" json:"breakdown"`
	CreatedAt     time.Time         `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt     time.Time         `bun:"updated_at,notnull,default:current_timestamp" json:"updated_at"`
}

// EarningBreakdown keeps how an amount was computed.
type EarningBreakdown struct {
	BaseAmount       float64  `json:"base_amount"`
	Tier             string   `json:"tier,omitempty"`
	TierMultiplier   float64  `json:"tier_multiplier,omitempty"`
	StreakDays       int      `json:"streak_days"`
	StreakMultiplier float64  `json:"streak_multiplier,omitempty"`
	Capped           bool     `json:"capped"`
	OriginalAmount   *float64 `json:"original_amount,omitempty"`
	Outcome          string   `json:"outcome,omitempty"`
}

type EarningsSummary struct {
	UserID   uuid.UUID          `json:"user_id"`
	Totals   map[string]float64 `json:"totals"`
	Counts   map[string]int     `json:"counts"`
	Payable  float64            `json:"payable"`
	OnHold   float64            `json:"on_hold"`
	Lifetime float64            `json:"lifetime"`
}

// EarningStatusTotal is one (status, sum, count) aggregate row.
type EarningStatusTotal struct {
	Status string  `bun:"status"`
	Total  float64 `bun:"total"`
	Count  int     `bun:"count"`
}

func SubmissionRewardKey(submissionID uuid.UUID) string {
	return fmt.Sprintf("submission:%s", submissionID)
}

func ValidationRewardKey(submissionID, validatorID uuid.UUID) string {
	return fmt.Sprintf("validation:%s:%s", submissionID, validatorID)
}

func ApprovalBonusKey(submissionID uuid.UUID) string {
	return fmt.Sprintf("bonus:%s", submissionID)
}
