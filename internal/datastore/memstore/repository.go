package memstore

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"wavesight/internal/interfaces"
	"wavesight/internal/models"
	"wavesight/internal/pkg"

	"github.com/google/uuid"
)

func (v *view) FindProfile(ctx context.Context, userID uuid.UUID) (*models.UserProfile, error) {
	st, done := v.begin()
	defer done()

	p, ok := st.profiles[userID]
	if !ok {
		return notFound[models.UserProfile]()
	}
	return &p, nil
}

func (v *view) ListConfigs(ctx context.Context) ([]*models.Config, error) {
	st, done := v.begin()
	defer done()

	out := make([]*models.Config, 0, len(st.configs))
	for _, c := range st.configs {
		c := c
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (v *view) FindConfig(ctx context.Context, key string) (*models.Config, error) {
	st, done := v.begin()
	defer done()

	c, ok := st.configs[key]
	if !ok {
		return notFound[models.Config]()
	}
	return &c, nil
}

func (v *view) InsertSubmission(ctx context.Context, submission *models.Submission) error {
	st, done := v.begin()
	defer done()

	if _, ok := st.submissions[submission.ID]; ok {
		return fmt.Errorf("%w: submission %s", interfaces.ErrConflict, submission.ID)
	}
	st.submissions[submission.ID] = *submission
	return nil
}

func (v *view) FindSubmission(ctx context.Context, id uuid.UUID) (*models.Submission, error) {
	st, done := v.begin()
	defer done()

	s, ok := st.submissions[id]
	if !ok {
		return notFound[models.Submission]()
	}
	return &s, nil
}

// LockSubmission is FindSubmission; the store mutex already serializes transactions.
func (v *view) LockSubmission(ctx context.Context, id uuid.UUID) (*models.Submission, error) {
	return v.FindSubmission(ctx, id)
}

func (v *view) IncrementTally(ctx context.Context, id uuid.UUID, decision string, at time.Time) (*models.Submission, error) {
	st, done := v.begin()
	defer done()

	s, ok := st.submissions[id]
	if !ok {
		return notFound[models.Submission]()
	}
	if decision == models.DecisionApprove {
		s.ApproveCount++
	} else {
		s.RejectCount++
	}
	s.ValidationCount++
	s.UpdatedAt = at
	st.submissions[id] = s
	return &s, nil
}

func (v *view) SetTallies(ctx context.Context, id uuid.UUID, approve, reject int, at time.Time) (*models.Submission, error) {
	st, done := v.begin()
	defer done()

	s, ok := st.submissions[id]
	if !ok {
		return notFound[models.Submission]()
	}
	s.ApproveCount = approve
	s.RejectCount = reject
	s.ValidationCount = approve + reject
	s.UpdatedAt = at
	st.submissions[id] = s
	return &s, nil
}

func (v *view) TransitionStatus(ctx context.Context, id uuid.UUID, from []string, to string, at time.Time) (bool, error) {
	st, done := v.begin()
	defer done()

	s, ok := st.submissions[id]
	if !ok || !contains(from, s.Status) {
		return false, nil
	}
	s.Status = to
	s.UpdatedAt = at
	if !models.IsOpenStatus(to) {
		finalizedAt := at
		s.FinalizedAt = &finalizedAt
	}
	st.submissions[id] = s
	return true, nil
}

func (v *view) ListEligibleSubmissions(ctx context.Context, voterID uuid.UUID, statuses []string, limit int) ([]*models.Submission, error) {
	st, done := v.begin()
	defer done()

	var out []*models.Submission
	for id, s := range st.submissions {
		if !contains(statuses, s.Status) || s.OwnerID == voterID {
			continue
		}
		if _, voted := st.validations[pairKey{id, voterID}]; voted {
			continue
		}
		s := s
		out = append(out, &s)
	}
	sortNewestFirst(out)
	return capLimit(out, limit), nil
}

func (v *view) ListSubmissionsByOwner(ctx context.Context, ownerID uuid.UUID, limit int) ([]*models.Submission, error) {
	st, done := v.begin()
	defer done()

	var out []*models.Submission
	for _, s := range st.submissions {
		if s.OwnerID != ownerID {
			continue
		}
		s := s
		out = append(out, &s)
	}
	sortNewestFirst(out)
	return capLimit(out, limit), nil
}

func (v *view) ListStaleSubmissions(ctx context.Context, statuses []string, createdBefore time.Time, limit int) ([]*models.Submission, error) {
	st, done := v.begin()
	defer done()

	var out []*models.Submission
	for _, s := range st.submissions {
		if !contains(statuses, s.Status) || s.ValidationCount != 0 || !s.CreatedAt.Before(createdBefore) {
			continue
		}
		s := s
		out = append(out, &s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return capLimit(out, limit), nil
}

func (v *view) InsertValidation(ctx context.Context, validation *models.Validation) (bool, error) {
	st, done := v.begin()
	defer done()

	if _, ok := st.submissions[validation.SubmissionID]; !ok {
		return false, fmt.Errorf("%w: submission %s", interfaces.ErrForeignKey, validation.SubmissionID)
	}
	key := pairKey{validation.SubmissionID, validation.ValidatorID}
	if _, ok := st.validations[key]; ok {
		return false, nil
	}
	st.validations[key] = *validation
	return true, nil
}

func (v *view) FindValidation(ctx context.Context, submissionID, validatorID uuid.UUID) (*models.Validation, error) {
	st, done := v.begin()
	defer done()

	val, ok := st.validations[pairKey{submissionID, validatorID}]
	if !ok {
		return notFound[models.Validation]()
	}
	return &val, nil
}

func (v *view) CountValidations(ctx context.Context, submissionID uuid.UUID) (int, int, error) {
	st, done := v.begin()
	defer done()

	approve, reject := 0, 0
	for key, val := range st.validations {
		if key.a != submissionID {
			continue
		}
		if val.Decision == models.DecisionApprove {
			approve++
		} else {
			reject++
		}
	}
	return approve, reject, nil
}

func (v *view) InsertEarning(ctx context.Context, earning *models.Earning) (bool, error) {
	st, done := v.begin()
	defer done()

	if _, ok := st.earnings[earning.ReferenceKey]; ok {
		return false, nil
	}
	st.earnings[earning.ReferenceKey] = *earning
	return true, nil
}

func (v *view) FindEarningByReference(ctx context.Context, referenceKey string) (*models.Earning, error) {
	st, done := v.begin()
	defer done()

	e, ok := st.earnings[referenceKey]
	if !ok {
		return notFound[models.Earning]()
	}
	return &e, nil
}

func (v *view) UpdateEarningStatus(ctx context.Context, earning *models.Earning, from []string) (bool, error) {
	st, done := v.begin()
	defer done()

	current, ok := st.earnings[earning.ReferenceKey]
	if !ok || current.ID != earning.ID || !contains(from, current.Status) {
		return false, nil
	}
	current.Status = earning.Status
	current.Amount = earning.Amount
	current.Breakdown = earning.Breakdown
	current.UpdatedAt = earning.UpdatedAt
	st.earnings[earning.ReferenceKey] = current
	return true, nil
}

func (v *view) ListEarnings(ctx context.Context, userID uuid.UUID, limit int) ([]*models.Earning, error) {
	st, done := v.begin()
	defer done()

	var out []*models.Earning
	for _, e := range st.earnings {
		if e.UserID != userID {
			continue
		}
		e := e
		out = append(out, &e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ReferenceKey < out[j].ReferenceKey
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return capLimit(out, limit), nil
}

func (v *view) SumEarnings(ctx context.Context, userID uuid.UUID) ([]*models.EarningStatusTotal, error) {
	st, done := v.begin()
	defer done()

	byStatus := map[string]*models.EarningStatusTotal{}
	for _, e := range st.earnings {
		if e.UserID != userID {
			continue
		}
		total, ok := byStatus[e.Status]
		if !ok {
			total = &models.EarningStatusTotal{Status: e.Status}
			byStatus[e.Status] = total
		}
		total.Total = pkg.Round2(total.Total + e.Amount)
		total.Count++
	}

	out := make([]*models.EarningStatusTotal, 0, len(byStatus))
	for _, t := range byStatus {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Status < out[j].Status })
	return out, nil
}

func (v *view) LockRateLimit(ctx context.Context, userID uuid.UUID, now time.Time) (*models.RateLimitCounter, error) {
	st, done := v.begin()
	defer done()

	c, ok := st.rateLimits[userID]
	if !ok {
		c = models.RateLimitCounter{
			UserID:          userID,
			HourWindowStart: now,
			DayWindowStart:  now,
			UpdatedAt:       now,
		}
		st.rateLimits[userID] = c
	}
	return &c, nil
}

func (v *view) FindRateLimit(ctx context.Context, userID uuid.UUID) (*models.RateLimitCounter, error) {
	st, done := v.begin()
	defer done()

	c, ok := st.rateLimits[userID]
	if !ok {
		return notFound[models.RateLimitCounter]()
	}
	return &c, nil
}

func (v *view) SaveRateLimit(ctx context.Context, counter *models.RateLimitCounter) error {
	st, done := v.begin()
	defer done()

	st.rateLimits[counter.UserID] = *counter
	return nil
}

func (v *view) InsertHeatVote(ctx context.Context, vote *models.HeatVote) (bool, error) {
	st, done := v.begin()
	defer done()

	if _, ok := st.submissions[vote.TrendID]; !ok {
		return false, fmt.Errorf("%w: trend %s", interfaces.ErrForeignKey, vote.TrendID)
	}
	key := pairKey{vote.TrendID, vote.UserID}
	if _, ok := st.heatVotes[key]; ok {
		return false, nil
	}
	st.heatVotes[key] = *vote
	return true, nil
}

func (v *view) UpdateHeatVote(ctx context.Context, vote *models.HeatVote) error {
	st, done := v.begin()
	defer done()

	key := pairKey{vote.TrendID, vote.UserID}
	current, ok := st.heatVotes[key]
	if !ok {
		return nil
	}
	current.VoteType = vote.VoteType
	current.VoteValue = vote.VoteValue
	current.UpdatedAt = vote.UpdatedAt
	st.heatVotes[key] = current
	return nil
}

func (v *view) FindHeatVote(ctx context.Context, trendID, userID uuid.UUID) (*models.HeatVote, error) {
	st, done := v.begin()
	defer done()

	hv, ok := st.heatVotes[pairKey{trendID, userID}]
	if !ok {
		return notFound[models.HeatVote]()
	}
	return &hv, nil
}

func (v *view) HeatDistribution(ctx context.Context, trendID uuid.UUID) ([]*models.HeatVoteCount, error) {
	st, done := v.begin()
	defer done()

	counts := map[string]int{}
	for key, hv := range st.heatVotes {
		if key.a == trendID {
			counts[hv.VoteType]++
		}
	}

	out := make([]*models.HeatVoteCount, 0, len(counts))
	for voteType, count := range counts {
		out = append(out, &models.HeatVoteCount{VoteType: voteType, Count: count})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].VoteType < out[j].VoteType })
	return out, nil
}

func (v *view) StatusSummary(ctx context.Context) ([]*models.StatusSummary, error) {
	st, done := v.begin()
	defer done()

	byStatus := map[string]*models.StatusSummary{}
	for _, s := range st.submissions {
		row, ok := byStatus[s.Status]
		if !ok {
			row = &models.StatusSummary{Status: s.Status}
			byStatus[s.Status] = row
		}
		row.Submissions++
		row.Approvals += s.ApproveCount
		row.Rejections += s.RejectCount
	}

	out := make([]*models.StatusSummary, 0, len(byStatus))
	for _, row := range byStatus {
		out = append(out, row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Status < out[j].Status })
	return out, nil
}

func (v *view) ListTallyMismatches(ctx context.Context, limit int) ([]*models.TallyMismatch, error) {
	st, done := v.begin()
	defer done()

	type tally struct{ approve, reject int }
	ledger := map[uuid.UUID]tally{}
	for key, val := range st.validations {
		t := ledger[key.a]
		if val.Decision == models.DecisionApprove {
			t.approve++
		} else {
			t.reject++
		}
		ledger[key.a] = t
	}

	var out []*models.TallyMismatch
	for id, s := range st.submissions {
		t := ledger[id]
		if s.ApproveCount == t.approve && s.RejectCount == t.reject {
			continue
		}
		out = append(out, &models.TallyMismatch{
			SubmissionID:       id,
			ApproveCount:       s.ApproveCount,
			RejectCount:        s.RejectCount,
			LedgerApproveCount: t.approve,
			LedgerRejectCount:  t.reject,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SubmissionID.String() < out[j].SubmissionID.String() })
	return capLimit(out, limit), nil
}

func (v *view) ListUnrewardedValidations(ctx context.Context, limit int) ([]*models.Validation, error) {
	st, done := v.begin()
	defer done()

	var out []*models.Validation
	for _, val := range st.validations {
		if _, ok := st.earnings[models.ValidationRewardKey(val.SubmissionID, val.ValidatorID)]; ok {
			continue
		}
		val := val
		out = append(out, &val)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return capLimit(out, limit), nil
}

func contains(values []string, v string) bool {
	for _, s := range values {
		if strings.EqualFold(s, v) {
			return true
		}
	}
	return false
}

func sortNewestFirst(items []*models.Submission) {
	sort.Slice(items, func(i, j int) bool {
		if items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].ID.String() > items[j].ID.String()
		}
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
}
