// ABOUTME: User store methods for registration, principal lookup, and listing
// ABOUTME: Emails and usernames are normalized before every read and write

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const userColumns = `id, email, username, password_hash, created_at`

// CreateUser inserts a new user. Returns ErrDuplicateUser if the email or
// username is already registered.
func (q *sqlQueries) CreateUser(ctx context.Context, user *User) error {
	user.Email = NormalizeEmail(user.Email)
	user.Username = NormalizeUsername(user.Username)

	query := `
		INSERT INTO users (id, email, username, password_hash, created_at)
		VALUES (?, ?, ?, ?, ?)
	`

	_, err := q.db.ExecContext(ctx, query,
		user.ID,
		user.Email,
		user.Username,
		user.PasswordHash,
		user.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		if isConstraintViolation(err) {
			return ErrDuplicateUser
		}
		return fmt.Errorf("inserting user: %w", err)
	}

	q.logger.Info("created user", "id", user.ID, "username", user.Username)
	return nil
}

// GetUser retrieves a user by ID.
// Returns ErrNotFound if the user doesn't exist.
func (q *sqlQueries) GetUser(ctx context.Context, id string) (*User, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	return scanUser(row)
}

// GetUserByEmail retrieves a user by email.
// Returns ErrNotFound if the user doesn't exist.
func (q *sqlQueries) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, NormalizeEmail(email))
	return scanUser(row)
}

// GetUserByUsername retrieves a user by username.
// Returns ErrNotFound if the user doesn't exist.
func (q *sqlQueries) GetUserByUsername(ctx context.Context, username string) (*User, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE username = ?`, NormalizeUsername(username))
	return scanUser(row)
}

// UserExistsByEmail reports whether an email is registered.
func (q *sqlQueries) UserExistsByEmail(ctx context.Context, email string) (bool, error) {
	return q.exists(ctx, `SELECT COUNT(*) FROM users WHERE email = ?`, NormalizeEmail(email))
}

// UserExistsByUsername reports whether a username is registered.
func (q *sqlQueries) UserExistsByUsername(ctx context.Context, username string) (bool, error) {
	return q.exists(ctx, `SELECT COUNT(*) FROM users WHERE username = ?`, NormalizeUsername(username))
}

// ListUsers returns a page of users ordered by email, each with its roles.
func (q *sqlQueries) ListUsers(ctx context.Context, page Page) ([]*User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY email LIMIT ? OFFSET ?`

	rows, err := q.db.QueryContext(ctx, query, page.limit(), page.rowOffset())
	if err != nil {
		return nil, fmt.Errorf("querying users: %w", err)
	}

	users := []*User{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("iterating users: %w", err)
	}
	rows.Close()

	// Roles are loaded after the user cursor is closed; the pool holds a
	// single connection.
	for _, user := range users {
		user.Roles, err = q.ListUserRoles(ctx, user.ID)
		if err != nil {
			return nil, err
		}
	}

	return users, nil
}

func (q *sqlQueries) exists(ctx context.Context, query string, args ...any) (bool, error) {
	var count int
	if err := q.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return false, fmt.Errorf("checking existence: %w", err)
	}
	return count > 0, nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*User, error) {
	var user User
	var createdAtStr string

	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.Username,
		&user.PasswordHash,
		&createdAtStr,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning user: %w", err)
	}

	user.CreatedAt, err = time.Parse(time.RFC3339, createdAtStr)
	if err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}

	return &user, nil
}
