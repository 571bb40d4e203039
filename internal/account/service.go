// ABOUTME: Account service for registration, login and the user directory
// ABOUTME: Registration runs in one transaction; login issues a bearer token

package account

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/2389/taskgate/internal/apperr"
	"github.com/2389/taskgate/internal/auth"
	"github.com/2389/taskgate/internal/store"
)

// DefaultTokenTTL applies when Service is built with a zero ttl.
const DefaultTokenTTL = 24 * time.Hour

// RegisterRequest is the input to Register.
type RegisterRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginRequest is the input to Login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Service handles account lifecycle.
type Service struct {
	store    store.Store
	hasher   PasswordHasher
	codec    auth.TokenCodec
	tokenTTL time.Duration
	logger   *slog.Logger
}

// NewService creates an account service. A nil hasher means bcrypt at the
// default cost.
func NewService(s store.Store, hasher PasswordHasher, codec auth.TokenCodec, tokenTTL time.Duration, logger *slog.Logger) *Service {
	if hasher == nil {
		hasher = NewBcryptHasher()
	}
	if tokenTTL <= 0 {
		tokenTTL = DefaultTokenTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:    s,
		hasher:   hasher,
		codec:    codec,
		tokenTTL: tokenTTL,
		logger:   logger.With("component", "account"),
	}
}

func validateRegister(req RegisterRequest) error {
	switch {
	case req.Email == "":
		return apperr.InvalidInput("email is required")
	case !strings.Contains(req.Email, "@"):
		return apperr.InvalidInput("email is not valid")
	case req.Username == "":
		return apperr.InvalidInput("username is required")
	case req.Password == "":
		return apperr.InvalidInput("password is required")
	}
	return nil
}

// Register creates a user with the USER role. An email or username already
// in use fails with DuplicateUser; any other store failure is RegistrationFailed.
func (s *Service) Register(ctx context.Context, req RegisterRequest) error {
	req.Email = store.NormalizeEmail(req.Email)
	req.Username = store.NormalizeUsername(req.Username)
	if err := validateRegister(req); err != nil {
		return err
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return apperr.RegistrationFailed(fmt.Errorf("hashing password: %w", err))
	}

	user := &store.User{
		ID:           uuid.New().String(),
		Email:        req.Email,
		Username:     req.Username,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}

	err = s.store.WithTx(ctx, func(q store.Queries) error {
		taken, err := q.UserExistsByEmail(ctx, user.Email)
		if err != nil {
			return err
		}
		if !taken {
			taken, err = q.UserExistsByUsername(ctx, user.Username)
			if err != nil {
				return err
			}
		}
		if taken {
			return apperr.DuplicateUser("This user already exist")
		}

		if err := q.CreateUser(ctx, user); err != nil {
			return err
		}
		return q.GrantRole(ctx, user.ID, store.RoleUser)
	})

	switch {
	case err == nil:
		s.logger.Info("user registered", "user_id", user.ID, "username", user.Username)
		return nil
	case errors.Is(err, apperr.ErrDuplicateUser):
		s.logger.Warn("registration rejected", "reason", "duplicate", "username", user.Username)
		return err
	case errors.Is(err, store.ErrDuplicateUser):
		s.logger.Warn("registration rejected", "reason", "duplicate", "username", user.Username)
		return apperr.DuplicateUser("This user already exist")
	default:
		s.logger.Error("registration failed", "error", err)
		return apperr.RegistrationFailed(err)
	}
}

// Login checks the credentials and returns a signed token whose subject is
// the user's email.
func (s *Service) Login(ctx context.Context, req LoginRequest) (string, error) {
	email := store.NormalizeEmail(req.Email)
	if email == "" || req.Password == "" {
		return "", apperr.InvalidInput("email and password are required")
	}

	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			_ = s.hasher.Compare(dummyHash, req.Password)
			return "", apperr.Unauthorized("Invalid email or password")
		}
		return "", apperr.Internal("login failed", err)
	}

	if err := s.hasher.Compare(user.PasswordHash, req.Password); err != nil {
		s.logger.Info("login rejected", "user_id", user.ID)
		return "", apperr.Unauthorized("Invalid email or password")
	}

	token, err := s.codec.Issue(user.Email, s.tokenTTL)
	if err != nil {
		return "", apperr.Internal("issuing token", err)
	}
	s.logger.Info("user logged in", "user_id", user.ID)
	return token, nil
}

// ListUsers returns one page of users with their roles, ordered by email.
func (s *Service) ListUsers(ctx context.Context, page store.Page) ([]*store.User, error) {
	if err := page.Validate(); err != nil {
		return nil, apperr.InvalidInput(err.Error())
	}
	users, err := s.store.ListUsers(ctx, page)
	if err != nil {
		return nil, apperr.Internal("listing users", err)
	}
	return users, nil
}
