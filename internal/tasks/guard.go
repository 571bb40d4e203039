// ABOUTME: Ownership guard authorizing task mutations against the current owner
// ABOUTME: Runs inside the caller's transaction and is never cached

package tasks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/2389/taskgate/internal/apperr"
	"github.com/2389/taskgate/internal/store"
)

// OwnershipGuard decides whether the acting user may mutate a task.
type OwnershipGuard struct {
	logger *slog.Logger
}

// NewOwnershipGuard creates a guard.
func NewOwnershipGuard(logger *slog.Logger) *OwnershipGuard {
	if logger == nil {
		logger = slog.Default()
	}
	return &OwnershipGuard{logger: logger.With("component", "ownership_guard")}
}

// AuthorizeForMutation returns the task titled title if actingEmail owns it.
// q should be the transaction the caller will write through, so that the
// check and the write see the same owner.
//
// Failures, in check order:
//   - acting user missing: Unauthorized
//   - task missing: ResourceNotFound
//   - owner is someone else, or the owner row is gone: PermissionDenied
func (g *OwnershipGuard) AuthorizeForMutation(ctx context.Context, q store.Queries, title, actingEmail string) (*store.Task, error) {
	actor, err := actingUser(ctx, q, actingEmail)
	if err != nil {
		return nil, err
	}

	task, err := q.GetTaskByTitle(ctx, title)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.ResourceNotFound(fmt.Sprintf("Task with title '%s' not found", title))
	}
	if err != nil {
		return nil, fmt.Errorf("loading task: %w", err)
	}

	owner, err := q.GetUser(ctx, task.OwnerID)
	if errors.Is(err, store.ErrNotFound) {
		g.logger.Warn("task owner does not resolve", "task_id", task.ID, "owner_id", task.OwnerID)
		return nil, apperr.PermissionDenied("You do not have permission to change task")
	}
	if err != nil {
		return nil, fmt.Errorf("loading task owner: %w", err)
	}

	if owner.ID != actor.ID {
		g.logger.Warn("mutation denied", "task_id", task.ID, "actor_id", actor.ID)
		return nil, apperr.PermissionDenied("You do not have permission to change task")
	}
	return task, nil
}

// actingUser loads the user behind the request's principal.
func actingUser(ctx context.Context, q store.Queries, email string) (*store.User, error) {
	user, err := q.GetUserByEmail(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.Unauthorized(fmt.Sprintf("User with email '%s' not found", email))
	}
	if err != nil {
		return nil, fmt.Errorf("loading acting user: %w", err)
	}
	return user, nil
}
