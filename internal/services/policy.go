package services

import (
	"fmt"
	"strconv"
	"time"
)

// Policy holds the tunable numbers of the validation protocol.
type Policy struct {
	ApprovalThreshold     int
	RejectionThreshold    int
	HourlyValidationLimit int
	DailyValidationLimit  int
	SubmissionBaseReward  float64
	ValidationReward      float64
	ApprovalBonus         float64
	MaxSubmissionReward   float64 // 0 disables the cap
	AutoRejectAfter       time.Duration
	VoteBurstPerMinute    int
}

func DefaultPolicy() Policy {
	return Policy{
		ApprovalThreshold:     DEFAULT_APPROVAL_THRESHOLD,
		RejectionThreshold:    DEFAULT_REJECTION_THRESHOLD,
		HourlyValidationLimit: DEFAULT_HOURLY_VALIDATION_LIMIT,
		DailyValidationLimit:  DEFAULT_DAILY_VALIDATION_LIMIT,
		SubmissionBaseReward:  DEFAULT_SUBMISSION_BASE_REWARD,
		ValidationReward:      DEFAULT_VALIDATION_REWARD,
		ApprovalBonus:         DEFAULT_APPROVAL_BONUS,
		MaxSubmissionReward:   DEFAULT_MAX_SUBMISSION_REWARD,
		AutoRejectAfter:       DEFAULT_AUTO_REJECT_AFTER_HOURS * time.Hour,
		VoteBurstPerMinute:    DEFAULT_VOTE_BURST_PER_MINUTE,
	}
}

// PolicyFromEnv layers the values present in vs over the defaults.
func PolicyFromEnv(vs map[string]string) (Policy, error) {
	p := DefaultPolicy()
	if err := p.apply(vs); err != nil {
		return p, err
	}
	return p, p.Validate()
}

func (p *Policy) apply(vs map[string]string) error {
	ints := map[string]*int{
		CONFIG_APPROVAL_THRESHOLD:      &p.ApprovalThreshold,
		CONFIG_REJECTION_THRESHOLD:     &p.RejectionThreshold,
		CONFIG_HOURLY_VALIDATION_LIMIT: &p.HourlyValidationLimit,
		CONFIG_DAILY_VALIDATION_LIMIT:  &p.DailyValidationLimit,
		CONFIG_VOTE_BURST_PER_MINUTE:   &p.VoteBurstPerMinute,
	}
	for key, dst := range ints {
		raw, ok := vs[key]
		if !ok || raw == "" {
			continue
		}
		v, err := strconv.Atoi(raw)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*dst = v
	}

	floats := map[string]*float64{
		CONFIG_SUBMISSION_BASE_REWARD: &p.SubmissionBaseReward,
		CONFIG_VALIDATION_REWARD:      &p.ValidationReward,
		CONFIG_APPROVAL_BONUS:         &p.ApprovalBonus,
		CONFIG_MAX_SUBMISSION_REWARD:  &p.MaxSubmissionReward,
	}
	for key, dst := range floats {
		raw, ok := vs[key]
		if !ok || raw == "" {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*dst = v
	}

	if raw, ok := vs[CONFIG_AUTO_REJECT_AFTER_HOURS]; ok && raw != "" {
		hours, err := strconv.Atoi(raw)
		if err != nil {
			return fmt.Errorf("%s: %w", CONFIG_AUTO_REJECT_AFTER_HOURS, err)
		}
		p.AutoRejectAfter = time.Duration(hours) * time.Hour
	}

	return nil
}

func (p Policy) Validate() error {
	switch {
	case p.ApprovalThreshold < 1 || p.RejectionThreshold < 1:
		return fmt.Errorf("thresholds must be positive")
	case p.HourlyValidationLimit < 1 || p.DailyValidationLimit < 1:
		return fmt.Errorf("validation limits must be positive")
	case p.SubmissionBaseReward < 0 || p.ValidationReward < 0 || p.ApprovalBonus < 0 || p.MaxSubmissionReward < 0:
		return fmt.Errorf("reward amounts must not be negative")
	case p.AutoRejectAfter <= 0:
		return fmt.Errorf("auto reject window must be positive")
	case p.VoteBurstPerMinute < 1:
		return fmt.Errorf("vote burst limit must be positive")
	}
	return nil
}
