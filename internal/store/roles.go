// ABOUTME: Role names and grant methods for authorization
// ABOUTME: Roles are seeded at schema creation and attached to users via user_roles

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// RoleName represents a role that can be granted to a user
type RoleName string

const (
	RoleUser  RoleName = "USER"
	RoleAdmin RoleName = "ADMIN"
)

// ValidRoleNames lists all roles seeded into a new database
var ValidRoleNames = []RoleName{
	RoleUser,
	RoleAdmin,
}

// GrantRole attaches a role to a user. Granting a role the user already has
// succeeds silently. Returns ErrRoleNotFound for a role that was never seeded.
func (q *sqlQueries) GrantRole(ctx context.Context, userID string, role RoleName) error {
	var roleID int64
	err := q.db.QueryRowContext(ctx, `SELECT id FROM roles WHERE name = ?`, string(role)).Scan(&roleID)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrRoleNotFound
	}
	if err != nil {
		return fmt.Errorf("looking up role: %w", err)
	}

	_, err = q.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO user_roles (user_id, role_id) VALUES (?, ?)`,
		userID, roleID,
	)
	if err != nil {
		return fmt.Errorf("granting role: %w", err)
	}

	q.logger.Debug("granted role", "user_id", userID, "role", role)
	return nil
}

// ListUserRoles returns the role names attached to a user, sorted. Returns an
// empty slice for a user with no roles.
func (q *sqlQueries) ListUserRoles(ctx context.Context, userID string) ([]RoleName, error) {
	query := `
		SELECT r.name FROM roles r
		JOIN user_roles ur ON ur.role_id = r.id
		WHERE ur.user_id = ?
		ORDER BY r.name
	`

	rows, err := q.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("listing roles: %w", err)
	}
	defer rows.Close()

	roles := []RoleName{}
	for rows.Next() {
		var role string
		if err := rows.Scan(&role); err != nil {
			return nil, fmt.Errorf("scanning role: %w", err)
		}
		roles = append(roles, RoleName(role))
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating roles: %w", err)
	}

	return roles, nil
}
