// Package memstore is an in-process interfaces.Store used by tests and by the
// api binary when started with --store=memory.
package memstore

import (
	"context"
	"database/sql"
	"sort"
	"sync"

	"wavesight/internal/interfaces"
	"wavesight/internal/models"

	"github.com/google/uuid"
)

var _ interfaces.Store = (*Store)(nil)

type pairKey struct {
	a uuid.UUID
	b uuid.UUID
}

type state struct {
	profiles    map[uuid.UUID]models.UserProfile
	configs     map[string]models.Config
	submissions map[uuid.UUID]models.Submission
	validations map[pairKey]models.Validation
	earnings    map[string]models.Earning
	rateLimits  map[uuid.UUID]models.RateLimitCounter
	heatVotes   map[pairKey]models.HeatVote
}

func newState() *state {
	return &state{
		profiles:    map[uuid.UUID]models.UserProfile{},
		configs:     map[string]models.Config{},
		submissions: map[uuid.UUID]models.Submission{},
		validations: map[pairKey]models.Validation{},
		earnings:    map[string]models.Earning{},
		rateLimits:  map[uuid.UUID]models.RateLimitCounter{},
		heatVotes:   map[pairKey]models.HeatVote{},
	}
}

// clone copies the maps. Stored values are never mutated in place, so
// copying the structs is enough.
func (s *state) clone() *state {
	c := newState()
	for k, v := range s.profiles {
		c.profiles[k] = v
	}
	for k, v := range s.configs {
		c.configs[k] = v
	}
	for k, v := range s.submissions {
		c.submissions[k] = v
	}
	for k, v := range s.validations {
		c.validations[k] = v
	}
	for k, v := range s.earnings {
		c.earnings[k] = v
	}
	for k, v := range s.rateLimits {
		c.rateLimits[k] = v
	}
	for k, v := range s.heatVotes {
		c.heatVotes[k] = v
	}
	return c
}

// Store serializes transactions on txMu. A transaction works on a copy of the
// state that replaces it on commit; reads outside a transaction only hold mu,
// so they may run while a transaction is open and see the last committed state.
// Writes outside RunInTx are meant for seeding and are lost if a transaction
// commits concurrently.
type Store struct {
	*view
	txMu sync.Mutex
	mu   sync.Mutex
	data *state
}

func New() *Store {
	s := &Store{data: newState()}
	s.view = &view{store: s}
	return s
}

func (s *Store) RunInTx(ctx context.Context, fn func(ctx context.Context, repo interfaces.Repository) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	tx := s.data.clone()
	s.mu.Unlock()

	if err := fn(ctx, &view{store: s, tx: tx}); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	s.data = tx
	s.mu.Unlock()
	return nil
}

// PutProfile seeds a user profile.
func (s *Store) PutProfile(profile *models.UserProfile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.profiles[profile.ID] = *profile
}

// PutConfig seeds a runtime config override.
func (s *Store) PutConfig(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.configs[key] = models.Config{Key: key, Value: value}
}

// Validations returns every stored vote, for assertions.
func (s *Store) Validations() []*models.Validation {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*models.Validation, 0, len(s.data.validations))
	for _, v := range s.data.validations {
		v := v
		out = append(out, &v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

// Earnings returns every stored ledger entry, for assertions.
func (s *Store) Earnings() []*models.Earning {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*models.Earning, 0, len(s.data.earnings))
	for _, v := range s.data.earnings {
		v := v
		out = append(out, &v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ReferenceKey < out[j].ReferenceKey })
	return out
}

// DeleteEarning removes a ledger entry to simulate a partially applied vote.
func (s *Store) DeleteEarning(referenceKey string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data.earnings, referenceKey)
}

// view is the Repository over either the committed state or a transaction copy.
type view struct {
	store *Store
	tx    *state
}

func (v *view) begin() (*state, func()) {
	if v.tx != nil {
		return v.tx, func() {}
	}
	v.store.mu.Lock()
	return v.store.data, v.store.mu.Unlock
}

func notFound[T any]() (*T, error) {
	return nil, sql.ErrNoRows
}

func capLimit[T any](items []T, limit int) []T {
	if limit > 0 && len(items) > limit {
		return items[:limit]
	}
	return items
}
