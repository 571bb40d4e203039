// ABOUTME: Tests for the ownership guard
// ABOUTME: Covers owner, non-owner, missing task, missing actor, and dangling owner

package tasks

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/taskgate/internal/apperr"
	"github.com/2389/taskgate/internal/store"
)

func addUser(t *testing.T, s store.Queries, id, email, username string) {
	t.Helper()
	require.NoError(t, s.CreateUser(context.Background(), &store.User{
		ID:           id,
		Email:        email,
		Username:     username,
		PasswordHash: "$2a$10$hash",
		CreatedAt:    time.Now().UTC(),
	}))
}

func addTask(t *testing.T, s store.Queries, id, title, ownerID string) {
	t.Helper()
	now := time.Now().UTC()
	require.NoError(t, s.CreateTask(context.Background(), &store.Task{
		ID:          id,
		Title:       title,
		Description: "desc",
		DueDate:     time.Date(2026, 12, 24, 0, 0, 0, 0, time.UTC),
		OwnerID:     ownerID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}))
}

func guardFixture(t *testing.T) *store.MockStore {
	t.Helper()
	s := store.NewMockStore()
	addUser(t, s, "alice-id", "alice@example.com", "alice")
	addUser(t, s, "bob-id", "bob@example.com", "bob")
	addTask(t, s, "t-1", "groceries", "alice-id")
	return s
}

func TestOwnershipGuard_Owner(t *testing.T) {
	s := guardFixture(t)

	task, err := NewOwnershipGuard(nil).AuthorizeForMutation(context.Background(), s, "groceries", "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, "t-1", task.ID)
}

func TestOwnershipGuard_NonOwner(t *testing.T) {
	s := guardFixture(t)

	_, err := NewOwnershipGuard(nil).AuthorizeForMutation(context.Background(), s, "groceries", "bob@example.com")
	assert.ErrorIs(t, err, apperr.ErrPermissionDenied)
	assert.Equal(t, "You do not have permission to change task", apperr.PublicMessage(err))
}

func TestOwnershipGuard_MissingTask(t *testing.T) {
	s := guardFixture(t)

	_, err := NewOwnershipGuard(nil).AuthorizeForMutation(context.Background(), s, "nope", "alice@example.com")
	assert.ErrorIs(t, err, apperr.ErrResourceNotFound)
}

func TestOwnershipGuard_UnknownActor(t *testing.T) {
	s := guardFixture(t)

	_, err := NewOwnershipGuard(nil).AuthorizeForMutation(context.Background(), s, "groceries", "ghost@example.com")
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)
}

func TestOwnershipGuard_DanglingOwnerFailsSafe(t *testing.T) {
	s := store.NewMockStore()
	addUser(t, s, "alice-id", "alice@example.com", "alice")
	addTask(t, s, "t-1", "orphan", "deleted-user-id")

	_, err := NewOwnershipGuard(nil).AuthorizeForMutation(context.Background(), s, "orphan", "alice@example.com")
	assert.ErrorIs(t, err, apperr.ErrPermissionDenied)
}

func TestOwnershipGuard_SeesTransferImmediately(t *testing.T) {
	s := guardFixture(t)
	ctx := context.Background()
	guard := NewOwnershipGuard(nil)

	_, err := guard.AuthorizeForMutation(ctx, s, "groceries", "alice@example.com")
	require.NoError(t, err)

	task, err := s.GetTaskByTitle(ctx, "groceries")
	require.NoError(t, err)
	task.OwnerID = "bob-id"
	require.NoError(t, s.UpdateTask(ctx, task))

	_, err = guard.AuthorizeForMutation(ctx, s, "groceries", "alice@example.com")
	assert.ErrorIs(t, err, apperr.ErrPermissionDenied)
	_, err = guard.AuthorizeForMutation(ctx, s, "groceries", "bob@example.com")
	assert.NoError(t, err)
}
