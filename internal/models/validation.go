package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

const (
	DecisionApprove = "approve"
	DecisionReject  = "reject"
)

type Validation struct {
	bun.BaseModel `bun:"table:trend_validation,alias:v"`
	ID            uuid.UUID `bun:"id,pk,type:uuid" json:"id"`
	SubmissionID  uuid.UUID `bun:"submission_id,type:uuid,notnull" json:"submission_id"`
	ValidatorID   uuid.UUID `bun:"validator_id,type:uuid,notnull" json:"validator_id"`
	Decision      string    `bun:"decision,notnull" json:"decision"`
	CreatedAt     time.Time `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
}

// ParseDecision normalizes the vote spellings clients send. ok is false for anything else.
func ParseDecision(raw string) (string, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "approve", "approved", "verify", "valid", "true", "yes":
		return DecisionApprove, true
	case "reject", "rejected", "invalid", "false", "no":
		return DecisionReject, true
	}
	return "", false
}

type VoteResult struct {
	ValidationID    uuid.UUID `json:"id"`
	SubmissionID    uuid.UUID `json:"submission_id"`
	Decision        string    `json:"decision"`
	Status          string    `json:"status"`
	ApproveCount    int       `json:"approve_count"`
	RejectCount     int       `json:"reject_count"`
	ValidationCount int       `json:"validation_count"`
	Reward          float64   `json:"reward"`
	StatusChanged   bool      `json:"status_changed"`
}
