// Package memory provides the in-memory settings store.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"employee-compass/internal/admin"
	"employee-compass/pkg/platform/sentinel"
)

// Store keeps settings in memory behind a single mutex.
type Store struct {
	mu          sync.RWMutex
	thresholds  admin.Thresholds
	departments map[string]admin.Department
	now         func() time.Time
}

// Option configures the Store.
type Option func(*Store)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// New creates a settings store seeded with the default thresholds.
func New(opts ...Option) *Store {
	s := &Store{
		thresholds:  admin.DefaultThresholds,
		departments: make(map[string]admin.Department),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Thresholds returns the current band layout.
func (s *Store) Thresholds(_ context.Context) (admin.Thresholds, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.thresholds, nil
}

// SetThresholds replaces the band layout.
func (s *Store) SetThresholds(_ context.Context, t admin.Thresholds) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.thresholds = t
	return nil
}

// Departments lists all departments sorted by name.
func (s *Store) Departments(_ context.Context) ([]admin.Department, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]admin.Department, 0, len(s.departments))
	for _, d := range s.departments {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// AddDepartment creates a department. Names are case-insensitively unique.
func (s *Store) AddDepartment(_ context.Context, name string) (admin.Department, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := strings.ToLower(name)
	if _, exists := s.departments[key]; exists {
		return admin.Department{}, sentinel.ErrConflict
	}
	dept := admin.Department{Name: name, CreatedAt: s.now()}
	s.departments[key] = dept
	return dept, nil
}

// RemoveDepartment deletes a department by name.
func (s *Store) RemoveDepartment(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := strings.ToLower(name)
	if _, exists := s.departments[key]; !exists {
		return sentinel.ErrNotFound
	}
	delete(s.departments, key)
	return nil
}
