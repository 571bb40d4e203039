// ABOUTME: Store interfaces and data types for taskgate persistence
// ABOUTME: Defines User, Task, Role structs and the Queries/Store interfaces

package store

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"
)

// ErrNotFound is returned when a requested entity does not exist
var ErrNotFound = errors.New("not found")

// ErrDuplicateUser is returned when an email or username is already registered
var ErrDuplicateUser = errors.New("user already exists")

// ErrDuplicateTitle is returned when a task title is already in use
var ErrDuplicateTitle = errors.New("task title already exists")

// ErrRoleNotFound is returned when granting a role that was never seeded
var ErrRoleNotFound = errors.New("role not found")

// ErrInvalidPage is returned by Page.Validate
var ErrInvalidPage = errors.New("invalid page")

// DateLayout is the calendar-date format used for task due dates.
const DateLayout = "2006-01-02"

// User is a registered account. Email is the principal identifier carried
// in tokens; Username is what other users see and reassign tasks to.
type User struct {
	ID           string
	Email        string
	Username     string
	PasswordHash string // bcrypt
	CreatedAt    time.Time
	Roles        []RoleName // populated by ListUsers only
}

// Task is a unit of work owned by exactly one user. Title is globally unique
// and is the key clients use to address a task.
type Task struct {
	ID          string
	Title       string
	Description string
	DueDate     time.Time // date only, UTC midnight
	OwnerID     string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Page selects a slice of an ordered listing. Offset is a page index, not a
// row count: page 2 of size 20 starts at row 40.
type Page struct {
	Offset int
	Limit  int
}

// DefaultPageLimit applies when Page.Limit is zero.
const DefaultPageLimit = 20

// MaxPageLimit bounds Page.Limit.
const MaxPageLimit = 100

// MaxPageOffset bounds Page.Offset so the row offset fits in an int.
const MaxPageOffset = math.MaxInt / MaxPageLimit

// Validate rejects page indexes outside 0..MaxPageOffset and limits outside
// 1..MaxPageLimit. A zero Limit means DefaultPageLimit.
func (p Page) Validate() error {
	if p.Offset < 0 || p.Offset > MaxPageOffset {
		return fmt.Errorf("%w: offset must be between 0 and %d", ErrInvalidPage, MaxPageOffset)
	}
	if p.Limit < 0 || p.Limit > MaxPageLimit {
		return fmt.Errorf("%w: limit must be between 1 and %d", ErrInvalidPage, MaxPageLimit)
	}
	return nil
}

func (p Page) limit() int {
	if p.Limit <= 0 {
		return DefaultPageLimit
	}
	if p.Limit > MaxPageLimit {
		return MaxPageLimit
	}
	return p.Limit
}

func (p Page) rowOffset() int {
	switch {
	case p.Offset < 0:
		return 0
	case p.Offset > MaxPageOffset:
		return MaxPageOffset * MaxPageLimit
	}
	return p.Offset * p.limit()
}

// UserStore holds account records.
type UserStore interface {
	CreateUser(ctx context.Context, user *User) error
	GetUser(ctx context.Context, id string) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	GetUserByUsername(ctx context.Context, username string) (*User, error)
	UserExistsByEmail(ctx context.Context, email string) (bool, error)
	UserExistsByUsername(ctx context.Context, username string) (bool, error)
	ListUsers(ctx context.Context, page Page) ([]*User, error)
}

// RoleStore holds role grants.
type RoleStore interface {
	GrantRole(ctx context.Context, userID string, role RoleName) error
	ListUserRoles(ctx context.Context, userID string) ([]RoleName, error)
}

// TaskStore holds tasks.
type TaskStore interface {
	CreateTask(ctx context.Context, task *Task) error
	GetTaskByTitle(ctx context.Context, title string) (*Task, error)
	TaskExistsByTitle(ctx context.Context, title string) (bool, error)
	UpdateTask(ctx context.Context, task *Task) error
	DeleteTask(ctx context.Context, id string) error
	ListTasksByOwner(ctx context.Context, ownerID string, page Page) ([]*Task, error)
}

// Queries is everything that can run either directly or inside a transaction.
type Queries interface {
	UserStore
	RoleStore
	TaskStore
}

// Store is the persistence layer. WithTx runs fn atomically: every read and
// write fn makes through q is committed together or not at all, and no other
// transaction interleaves with it.
type Store interface {
	Queries
	WithTx(ctx context.Context, fn func(q Queries) error) error
	Ping(ctx context.Context) error
	Close() error
}

// NormalizeEmail folds an email to the form used for storage and lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(norm.NFC.String(strings.TrimSpace(email)))
}

// NormalizeUsername folds a username to the form used for storage and lookup.
// Usernames stay case-sensitive.
func NormalizeUsername(username string) string {
	return norm.NFC.String(strings.TrimSpace(username))
}

// NormalizeTitle folds a task title to the form used for storage and lookup.
func NormalizeTitle(title string) string {
	return norm.NFC.String(strings.TrimSpace(title))
}
