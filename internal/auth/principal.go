// ABOUTME: Principal type and resolution from a verified token subject
// ABOUTME: Loads the user and role grants from the store fresh on every call

package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/2389/taskgate/internal/apperr"
	"github.com/2389/taskgate/internal/store"
)

// Principal is the authenticated identity for one request.
type Principal struct {
	UserID         string
	Identifier     string // email, the token subject
	Username       string
	CredentialHash string // not used after resolution
	Authorities    []string
}

// PrincipalResolver maps a verified subject to a Principal.
type PrincipalResolver interface {
	Resolve(ctx context.Context, subject string) (*Principal, error)
}

// principalStore is the subset of store.Queries the resolver reads.
type principalStore interface {
	GetUserByEmail(ctx context.Context, email string) (*store.User, error)
	ListUserRoles(ctx context.Context, userID string) ([]store.RoleName, error)
}

// StoreResolver resolves principals against the user store.
type StoreResolver struct {
	users principalStore
}

// NewStoreResolver creates a resolver backed by users.
func NewStoreResolver(users principalStore) *StoreResolver {
	return &StoreResolver{users: users}
}

// Resolve returns apperr.UnknownPrincipal when no user has the subject email.
func (r *StoreResolver) Resolve(ctx context.Context, subject string) (*Principal, error) {
	user, err := r.users.GetUserByEmail(ctx, subject)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.UnknownPrincipal(subject)
	}
	if err != nil {
		return nil, fmt.Errorf("looking up principal: %w", err)
	}

	roles, err := r.users.ListUserRoles(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("loading authorities: %w", err)
	}

	authorities := make([]string, len(roles))
	for i, rn := range roles {
		authorities[i] = string(rn)
	}

	return &Principal{
		UserID:         user.ID,
		Identifier:     user.Email,
		Username:       user.Username,
		CredentialHash: user.PasswordHash,
		Authorities:    authorities,
	}, nil
}
