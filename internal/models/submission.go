package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

const (
	SubmissionStatusPending    = "pending" // legacy synonym of submitted
	SubmissionStatusSubmitted  = "submitted"
	SubmissionStatusValidating = "validating"
	SubmissionStatusApproved   = "approved"
	SubmissionStatusRejected   = "rejected"

	CategoryOther = "other"
)

// OpenSubmissionStatuses are the statuses that still accept votes.
var OpenSubmissionStatuses = []string{
	SubmissionStatusPending,
	SubmissionStatusSubmitted,
	SubmissionStatusValidating,
}

type Submission struct {
	bun.BaseModel      `bun:"table:trend_submission,alias:s"`
	ID                 uuid.UUID  `bun:"id,pk,type:uuid" json:"id"`
	OwnerID            uuid.UUID  `bun:"owner_id,type:uuid,notnull" json:"owner_id"`
	Category           string     `bun:"category,notnull" json:"category"`
	Description        string     `bun:"description,notnull" json:"description"`
	Evidence           *Evidence  `bun:"evidence,type:jsonb" json:"evidence"`
	QualityScore       float64    `bun:"quality_score" json:"quality_score"`
	ViralityPrediction float64    `bun:"virality_prediction" json:"virality_prediction"`
	Status             string     `bun:"status,notnull" json:"status"`
	ApproveCount       int        `bun:"approve_count,notnull" json:"approve_count"`
	RejectCount        int        `bun:"reject_count,notnull" json:"reject_count"`
	ValidationCount    int        `bun:"validation_count,notnull" json:"validation_count"`
	CreatedAt          time.Time  `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt          time.Time  `bun:"updated_at,notnull,default:current_timestamp" json:"updated_at"`
	FinalizedAt        *time.Time `bun:"finalized_at" json:"finalized_at"`
}

// Evidence is the free-form proof attached to a submission.
type Evidence struct {
	URL           string   `json:"url,omitempty"`
	Platform      string   `json:"platform,omitempty"`
	CreatorHandle string   `json:"creator_handle,omitempty"`
	Caption       string   `json:"caption,omitempty"`
	ScreenshotURL string   `json:"screenshot_url,omitempty"`
	Views         int64    `json:"views,omitempty"`
	Likes         int64    `json:"likes,omitempty"`
	Comments      int64    `json:"comments,omitempty"`
	Shares        int64    `json:"shares,omitempty"`
	Hashtags      []string `json:"hashtags,omitempty"`
}

func (s *Submission) IsOpen() bool {
	return IsOpenStatus(s.Status)
}

func IsOpenStatus(status string) bool {
	for _, v := range OpenSubmissionStatuses {
		if v == status {
			return true
		}
	}
	return false
}

// StatusSummary is one row of trend_status_view.
type StatusSummary struct {
	Status      string `bun:"status" json:"status"`
	Submissions int    `bun:"submissions" json:"submissions"`
	Approvals   int    `bun:"approvals" json:"approvals"`
	Rejections  int    `bun:"rejections" json:"rejections"`
}

// TallyMismatch is a submission whose counters disagree with the validation ledger.
type TallyMismatch struct {
	SubmissionID       uuid.UUID `bun:"submission_id" json:"submission_id"`
	ApproveCount       int       `bun:"approve_count" json:"approve_count"`
	RejectCount        int       `bun:"reject_count" json:"reject_count"`
	LedgerApproveCount int       `bun:"ledger_approve_count" json:"ledger_approve_count"`
	LedgerRejectCount  int       `bun:"ledger_reject_count" json:"ledger_reject_count"`
}
