// Package memory provides the in-memory grant store.
package memory

import (
	"context"
	"sort"
	"sync"

	"employee-compass/internal/rbac"
	id "employee-compass/pkg/domain"
)

// Store holds role grants per identity.
type Store struct {
	mu     sync.RWMutex
	grants map[id.UserID][]rbac.Grant
}

// New creates an empty grant store.
func New() *Store {
	return &Store{grants: make(map[id.UserID][]rbac.Grant)}
}

// Grants returns all grants for the identity. Unknown identities return an
// empty set, not an error - the resolver treats that as the fail-safe
// default role.
func (s *Store) Grants(_ context.Context, userID id.UserID) ([]rbac.Grant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]rbac.Grant{}, s.grants[userID]...), nil
}

// Add records a grant. Duplicate grants are legal; resolution collapses them.
func (s *Store) Add(_ context.Context, grant rbac.Grant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.grants[grant.UserID] = append(s.grants[grant.UserID], grant)
	return nil
}

// Remove deletes every grant of the given role for the identity and reports
// how many were removed.
func (s *Store) Remove(_ context.Context, userID id.UserID, role rbac.Role) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.grants[userID][:0]
	removed := 0
	for _, g := range s.grants[userID] {
		if g.Role == role {
			removed++
			continue
		}
		kept = append(kept, g)
	}
	if len(kept) == 0 {
		delete(s.grants, userID)
	} else {
		s.grants[userID] = kept
	}
	return removed, nil
}

// ListUsers returns every identity that holds at least one grant, in stable
// order for the admin surface.
func (s *Store) ListUsers(_ context.Context) ([]rbac.UserRoles, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]rbac.UserRoles, 0, len(s.grants))
	for userID, grants := range s.grants {
		out = append(out, rbac.UserRoles{
			UserID:    userID,
			Effective: rbac.Resolve(grants),
			Grants:    append([]rbac.Grant{}, grants...),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].UserID.String() < out[j].UserID.String()
	})
	return out, nil
}
