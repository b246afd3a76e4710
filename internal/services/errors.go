package services

import (
	"errors"
	"fmt"
	"time"

	"wavesight/internal/interfaces"

	"github.com/go-redsync/redsync/v4"
)

var (
	ErrValidation        = errors.New("invalid input")
	ErrForeignKey        = interfaces.ErrForeignKey
	ErrSelfVote          = errors.New("you cannot validate your own submission")
	ErrDuplicateVote     = errors.New("you have already voted on this submission")
	ErrAlreadyFinalized  = errors.New("this submission has already been finalized")
	ErrRateLimitExceeded = errors.New("validation rate limit exceeded")
	ErrNotAuthenticated  = errors.New("Not authenticated. Please log in.")
	ErrForbidden         = errors.New("insufficient privileges")
	ErrTransientStorage  = interfaces.ErrTransient

	ErrUserVoteLock   = errors.New("vote already in progress")
	ErrAutoRejectLock = errors.New("auto reject sweep locked")
	ErrReconcileLock  = errors.New("reconcile report locked")
)

func validationErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func foreignKeyErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrForeignKey, fmt.Sprintf(format, args...))
}

// voteLockError maps a failed TryLock on a per-user vote lock. A held lock
// means the same vote is in flight; any other failure is the lock backend and
// the caller may retry.
func voteLockError(err error) error {
	var taken *redsync.ErrTaken
	if errors.As(err, &taken) || errors.Is(err, redsync.ErrFailed) {
		return fmt.Errorf("%w: %w", ErrDuplicateVote, ErrUserVoteLock)
	}
	return fmt.Errorf("%w: vote lock: %w", ErrTransientStorage, err)
}

// RateLimitError reports which window is exhausted and when voting opens again.
// errors.Is(err, ErrRateLimitExceeded) holds for it.
type RateLimitError struct {
	Window          string
	ResetTime       time.Time
	RetryAfter      time.Duration
	HourlyRemaining int
	DailyRemaining  int
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("%s: %s limit reached, try again in %s", ErrRateLimitExceeded, e.Window, e.RetryAfter.Round(time.Second))
}

func (e *RateLimitError) Is(target error) bool {
	return target == ErrRateLimitExceeded
}
