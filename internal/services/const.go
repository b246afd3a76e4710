package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	CONFIG_APPROVAL_THRESHOLD      = "APPROVAL_THRESHOLD"
	CONFIG_REJECTION_THRESHOLD     = "REJECTION_THRESHOLD"
	CONFIG_HOURLY_VALIDATION_LIMIT = "HOURLY_VALIDATION_LIMIT"
	CONFIG_DAILY_VALIDATION_LIMIT  = "DAILY_VALIDATION_LIMIT"
	CONFIG_SUBMISSION_BASE_REWARD  = "SUBMISSION_BASE_REWARD"
	CONFIG_VALIDATION_REWARD       = "VALIDATION_REWARD"
	CONFIG_APPROVAL_BONUS          = "APPROVAL_BONUS"
	CONFIG_MAX_SUBMISSION_REWARD   = "MAX_SUBMISSION_REWARD"
	CONFIG_AUTO_REJECT_AFTER_HOURS = "AUTO_REJECT_AFTER_HOURS"
	CONFIG_VOTE_BURST_PER_MINUTE   = "VOTE_BURST_PER_MINUTE"
	CONFIG_CRONJOB_AUTO_REJECT     = "CRONJOB_AUTO_REJECT"
	CONFIG_CRONJOB_RECONCILE       = "CRONJOB_RECONCILE"

	DEFAULT_APPROVAL_THRESHOLD      = 3
	DEFAULT_REJECTION_THRESHOLD     = 3
	DEFAULT_HOURLY_VALIDATION_LIMIT = 20
	DEFAULT_DAILY_VALIDATION_LIMIT  = 100
	DEFAULT_SUBMISSION_BASE_REWARD  = 0.25
	DEFAULT_VALIDATION_REWARD       = 0.10
	DEFAULT_APPROVAL_BONUS          = 0
	DEFAULT_MAX_SUBMISSION_REWARD   = 3.00
	DEFAULT_AUTO_REJECT_AFTER_HOURS = 48
	DEFAULT_VOTE_BURST_PER_MINUTE   = 30

	DEFAULT_CRONJOB_AUTO_REJECT = "@every 10m"
	DEFAULT_CRONJOB_RECONCILE   = "@hourly"

	ELIGIBLE_DEFAULT_LIMIT = 10
	ELIGIBLE_MAX_LIMIT     = 50
	LIST_DEFAULT_LIMIT     = 20
	LIST_MAX_LIMIT         = 100

	AUTO_REJECT_BATCH_SIZE = 100
	RECONCILE_BATCH_SIZE   = 200

	HEAT_VOTE_XP = 10

	MAX_DESCRIPTION_LENGTH = 2000

	RATE_WINDOW_HOUR = time.Hour
	RATE_WINDOW_DAY  = 24 * time.Hour

	STORAGE_TIMEOUT = 10 * time.Second

	CACHE_TTL_15_SECONDS = 15 * time.Second
	CACHE_TTL_5_MINS     = 5 * time.Minute
)

func LockKeyUserVote(submissionID, voterID uuid.UUID) string {
	return fmt.Sprintf("lock:user-vote:%s:%s", submissionID, voterID)
}

func LockKeyUserHeatVote(trendID, userID uuid.UUID) string {
	return fmt.Sprintf("lock:user-heat-vote:%s:%s", trendID, userID)
}

func LockKeyAutoReject() string {
	return "lock:auto-reject"
}

func LockKeyReconcile() string {
	return "lock:reconcile"
}

// db
func DBKeyUserProfile(userID uuid.UUID) string {
	return fmt.Sprintf("user_profile:%s", userID)
}

func DBKeyConfig(key string) string {
	return fmt.Sprintf("config:%s", strings.ToLower(key))
}

func DBKeyConfigs() string {
	return "config:all"
}

func DBKeyStatusSummary() string {
	return "trend:status_summary"
}

func LimitKeyUserVote(userID uuid.UUID) string {
	return fmt.Sprintf("limit:user-vote:%s", userID)
}

func LimitKeyUserHeatVote(userID uuid.UUID) string {
	return fmt.Sprintf("limit:user-heat-vote:%s", userID)
}
