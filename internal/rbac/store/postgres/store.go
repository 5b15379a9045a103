// Package postgres stores role grants in a user_roles table. This is the
// grants-table shape; a denormalized profile.role column can always be
// represented as a single grant per user.
package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"employee-compass/internal/rbac"
	id "employee-compass/pkg/domain"
)

// Store is the Postgres-backed grant store.
type Store struct {
	db *sql.DB
}

// New creates a Postgres grant store.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Grants returns all grants for the identity, oldest first.
func (s *Store) Grants(ctx context.Context, userID id.UserID) ([]rbac.Grant, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT user_id, role, granted_at
		FROM user_roles
		WHERE user_id = $1
		ORDER BY granted_at
	`, userID.String())
	if err != nil {
		return nil, fmt.Errorf("query user roles: %w", err)
	}
	defer rows.Close()
	return scanGrants(rows)
}

// Add records a grant.
func (s *Store) Add(ctx context.Context, grant rbac.Grant) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO user_roles (user_id, role, granted_at)
		VALUES ($1, $2, $3)
	`, grant.UserID.String(), string(grant.Role), grant.GrantedAt)
	if err != nil {
		return fmt.Errorf("insert user role: %w", err)
	}
	return nil
}

// Remove deletes every grant of the given role for the identity.
func (s *Store) Remove(ctx context.Context, userID id.UserID, role rbac.Role) (int, error) {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM user_roles WHERE user_id = $1 AND role = $2
	`, userID.String(), string(role))
	if err != nil {
		return 0, fmt.Errorf("delete user role: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return int(n), nil
}

// ListUsers returns every identity holding at least one grant.
func (s *Store) ListUsers(ctx context.Context) ([]rbac.UserRoles, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT user_id, role, granted_at
		FROM user_roles
		ORDER BY user_id, granted_at
	`)
	if err != nil {
		return nil, fmt.Errorf("query user roles: %w", err)
	}
	defer rows.Close()

	grants, err := scanGrants(rows)
	if err != nil {
		return nil, err
	}

	var out []rbac.UserRoles
	for _, g := range grants {
		if len(out) == 0 || out[len(out)-1].UserID != g.UserID {
			out = append(out, rbac.UserRoles{UserID: g.UserID})
		}
		last := &out[len(out)-1]
		last.Grants = append(last.Grants, g)
	}
	for i := range out {
		out[i].Effective = rbac.Resolve(out[i].Grants)
	}
	return out, nil
}

func scanGrants(rows *sql.Rows) ([]rbac.Grant, error) {
	var out []rbac.Grant
	for rows.Next() {
		var (
			grant rbac.Grant
			user  string
			role  string
		)
		if err := rows.Scan(&user, &role, &grant.GrantedAt); err != nil {
			return nil, fmt.Errorf("scan user role: %w", err)
		}
		userID, err := id.ParseUserID(user)
		if err != nil {
			return nil, fmt.Errorf("parse user id: %w", err)
		}
		grant.UserID = userID
		grant.Role = rbac.Role(role)
		out = append(out, grant)
	}
	return out, rows.Err()
}
