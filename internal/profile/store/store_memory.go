package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"signup/internal/profile/models"
	"signup/internal/profile/rules"
	"signup/pkg/domain"
	dErrors "signup/pkg/domain-errors"
	"signup/pkg/platform/sentinel"
)

// InMemory is a map-backed profile store that enforces the same unique
// indexes and schema as the Postgres store. All checks and the write happen
// under one lock, so racing inserts of the same username see exactly one
// winner.
type InMemory struct {
	mu         sync.RWMutex
	byID       map[domain.ProfileID]*models.Profile
	byUsername map[string]domain.ProfileID
	byEmail    map[string]domain.ProfileID
}

// NewInMemory constructs an empty store.
func NewInMemory() *InMemory {
	return &InMemory{
		byID:       make(map[domain.ProfileID]*models.Profile),
		byUsername: make(map[string]domain.ProfileID),
		byEmail:    make(map[string]domain.ProfileID),
	}
}

func (s *InMemory) Insert(_ context.Context, p *models.Profile) error {
	if p == nil {
		return fmt.Errorf("insert profile: %w", sentinel.ErrInvalidState)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkLocked(p, nil); err != nil {
		return err
	}
	s.putLocked(p)
	return nil
}

// InsertMany stores every profile or none of them.
func (s *InMemory) InsertMany(_ context.Context, profiles []*models.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	pending := make(map[string]string, len(profiles)*2)
	for _, p := range profiles {
		if p == nil {
			return fmt.Errorf("insert profiles: %w", sentinel.ErrInvalidState)
		}
		if err := s.checkLocked(p, pending); err != nil {
			return err
		}
		pending[IndexUsername+":"+p.Username] = p.Username
		pending[IndexEmail+":"+p.Email] = p.Email
	}
	for _, p := range profiles {
		s.putLocked(p)
	}
	return nil
}

func (s *InMemory) FindByUsername(_ context.Context, username string) (*models.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byUsername[username]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return clone(s.byID[id]), nil
}

func (s *InMemory) FindByEmail(_ context.Context, email string) (*models.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byEmail[email]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return clone(s.byID[id]), nil
}

// List returns all profiles oldest first.
func (s *InMemory) List(_ context.Context) ([]*models.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.Profile, 0, len(s.byID))
	for _, p := range s.byID {
		out = append(out, clone(p))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].Username < out[j].Username
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (s *InMemory) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID), nil
}

// DeleteAll removes every profile and reports how many were removed.
func (s *InMemory) DeleteAll(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := len(s.byID)
	s.byID = make(map[domain.ProfileID]*models.Profile)
	s.byUsername = make(map[string]domain.ProfileID)
	s.byEmail = make(map[string]domain.ProfileID)
	return n, nil
}

// Health always succeeds for the in-memory store.
func (s *InMemory) Health(context.Context) error {
	return nil
}

func (s *InMemory) checkLocked(p *models.Profile, pending map[string]string) error {
	if err := p.CheckInvariants(); err != nil {
		field := ""
		if fields := dErrors.FieldsOf(err); len(fields) > 0 {
			field = fields[0].Field
		}
		return &SchemaError{Field: field, Err: err}
	}
	if _, exists := s.byID[p.ID]; exists {
		return fmt.Errorf("insert profile %s: %w", p.ID, sentinel.ErrConflict)
	}
	if _, taken := s.byUsername[p.Username]; taken || pending[IndexUsername+":"+p.Username] != "" {
		return &DuplicateKeyError{Index: IndexUsername, Field: rules.FieldUsername, Value: p.Username}
	}
	if _, taken := s.byEmail[p.Email]; taken || pending[IndexEmail+":"+p.Email] != "" {
		return &DuplicateKeyError{Index: IndexEmail, Field: rules.FieldEmail, Value: p.Email}
	}
	return nil
}

func (s *InMemory) putLocked(p *models.Profile) {
	stored := clone(p)
	s.byID[stored.ID] = stored
	s.byUsername[stored.Username] = stored.ID
	s.byEmail[stored.Email] = stored.ID
}

func clone(p *models.Profile) *models.Profile {
	if p == nil {
		return nil
	}
	c := *p
	return &c
}
