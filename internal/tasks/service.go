// ABOUTME: Task service implementing create, delete, listing and edits
// ABOUTME: Every mutation runs in one store transaction behind the ownership guard

package tasks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/2389/taskgate/internal/apperr"
	"github.com/2389/taskgate/internal/store"
)

// NewTask is the input to Create.
type NewTask struct {
	Title       string
	Description string
	DueDate     time.Time
}

// ParseDate parses a yyyy-MM-dd due date.
func ParseDate(s string) (time.Time, error) {
	d, err := time.Parse(store.DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, apperr.InvalidInput(fmt.Sprintf("date '%s' must be in the format yyyy-MM-dd", s))
	}
	return d, nil
}

// Service manages tasks on behalf of an authenticated user, identified by
// email throughout.
type Service struct {
	store  store.Store
	guard  *OwnershipGuard
	now    func() time.Time
	logger *slog.Logger
}

// NewService creates a task service.
func NewService(s store.Store, guard *OwnershipGuard, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if guard == nil {
		guard = NewOwnershipGuard(logger)
	}
	return &Service{
		store:  s,
		guard:  guard,
		now:    time.Now,
		logger: logger.With("component", "tasks"),
	}
}

func requireText(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return apperr.InvalidInput(field + " is required")
	}
	return nil
}

// Create adds a task owned by actingEmail.
func (s *Service) Create(ctx context.Context, actingEmail string, in NewTask) error {
	in.Title = store.NormalizeTitle(in.Title)
	if err := requireText("title", in.Title); err != nil {
		return err
	}
	if err := requireText("description", in.Description); err != nil {
		return err
	}
	if in.DueDate.IsZero() {
		return apperr.InvalidInput("date is required")
	}

	now := s.now().UTC()
	task := &store.Task{
		ID:          uuid.New().String(),
		Title:       in.Title,
		Description: in.Description,
		DueDate:     in.DueDate,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err := s.store.WithTx(ctx, func(q store.Queries) error {
		taken, err := q.TaskExistsByTitle(ctx, task.Title)
		if err != nil {
			return err
		}
		if taken {
			return apperr.DuplicateTitle(task.Title)
		}

		owner, err := actingUser(ctx, q, actingEmail)
		if err != nil {
			return err
		}
		task.OwnerID = owner.ID
		return q.CreateTask(ctx, task)
	})
	if err != nil {
		return s.fail("create", task.Title, err)
	}

	s.logger.Info("task created", "task_id", task.ID, "title", task.Title, "owner_id", task.OwnerID)
	return nil
}

// Delete removes a task owned by actingEmail.
func (s *Service) Delete(ctx context.Context, actingEmail, title string) error {
	err := s.store.WithTx(ctx, func(q store.Queries) error {
		task, err := s.guard.AuthorizeForMutation(ctx, q, title, actingEmail)
		if err != nil {
			return err
		}
		return q.DeleteTask(ctx, task.ID)
	})
	if err != nil {
		return s.fail("delete", title, err)
	}

	s.logger.Info("task deleted", "title", title)
	return nil
}

// ListMine returns one page of the tasks owned by actingEmail, ordered by title.
func (s *Service) ListMine(ctx context.Context, actingEmail string, page store.Page) ([]*store.Task, error) {
	if err := page.Validate(); err != nil {
		return nil, apperr.InvalidInput(err.Error())
	}

	owner, err := actingUser(ctx, s.store, actingEmail)
	if err != nil {
		return nil, s.fail("list", "", err)
	}
	tasks, err := s.store.ListTasksByOwner(ctx, owner.ID, page)
	if err != nil {
		return nil, s.fail("list", "", err)
	}
	return tasks, nil
}

// EditTitle renames a task. A taken newTitle fails with DuplicateTitle
// before ownership is checked.
func (s *Service) EditTitle(ctx context.Context, actingEmail, title, newTitle string) error {
	newTitle = store.NormalizeTitle(newTitle)
	if err := requireText("newTitle", newTitle); err != nil {
		return err
	}

	return s.mutate(ctx, "edit title", title, func(q store.Queries) error {
		taken, err := q.TaskExistsByTitle(ctx, newTitle)
		if err != nil {
			return err
		}
		if taken {
			return apperr.DuplicateTitle(newTitle)
		}

		task, err := s.guard.AuthorizeForMutation(ctx, q, title, actingEmail)
		if err != nil {
			return err
		}
		task.Title = newTitle
		err = s.save(ctx, q, task)
		if errors.Is(err, store.ErrDuplicateTitle) {
			return apperr.DuplicateTitle(newTitle)
		}
		return err
	})
}

// EditDescription replaces a task's description.
func (s *Service) EditDescription(ctx context.Context, actingEmail, title, newDescription string) error {
	if err := requireText("newDescription", newDescription); err != nil {
		return err
	}

	return s.mutate(ctx, "edit description", title, func(q store.Queries) error {
		task, err := s.guard.AuthorizeForMutation(ctx, q, title, actingEmail)
		if err != nil {
			return err
		}
		task.Description = newDescription
		return s.save(ctx, q, task)
	})
}

// EditDate moves a task's due date.
func (s *Service) EditDate(ctx context.Context, actingEmail, title string, newDate time.Time) error {
	if newDate.IsZero() {
		return apperr.InvalidInput("date is required")
	}

	return s.mutate(ctx, "edit date", title, func(q store.Queries) error {
		task, err := s.guard.AuthorizeForMutation(ctx, q, title, actingEmail)
		if err != nil {
			return err
		}
		task.DueDate = newDate
		return s.save(ctx, q, task)
	})
}

// EditOwner hands a task to the user named newUsername. An unknown target
// fails with TargetNotFound and leaves the task as it was.
func (s *Service) EditOwner(ctx context.Context, actingEmail, title, newUsername string) error {
	if err := requireText("newUser", newUsername); err != nil {
		return err
	}

	return s.mutate(ctx, "edit owner", title, func(q store.Queries) error {
		task, err := s.guard.AuthorizeForMutation(ctx, q, title, actingEmail)
		if err != nil {
			return err
		}

		target, err := q.GetUserByUsername(ctx, newUsername)
		if errors.Is(err, store.ErrNotFound) {
			return apperr.TargetNotFound(fmt.Sprintf("User '%s' does not exist", newUsername))
		}
		if err != nil {
			return fmt.Errorf("loading target user: %w", err)
		}

		task.OwnerID = target.ID
		return s.save(ctx, q, task)
	})
}

func (s *Service) mutate(ctx context.Context, op, title string, fn func(q store.Queries) error) error {
	if err := s.store.WithTx(ctx, fn); err != nil {
		return s.fail(op, title, err)
	}
	s.logger.Info("task updated", "op", op, "title", title)
	return nil
}

func (s *Service) save(ctx context.Context, q store.Queries, task *store.Task) error {
	task.UpdatedAt = s.now().UTC()
	return q.UpdateTask(ctx, task)
}

// fail translates store sentinels and logs. apperr values pass through.
func (s *Service) fail(op, title string, err error) error {
	var appErr *apperr.Error
	switch {
	case errors.As(err, &appErr):
		s.logger.Info("task operation refused", "op", op, "title", title, "kind", appErr.Kind.String())
		return err
	case errors.Is(err, store.ErrDuplicateTitle):
		return apperr.DuplicateTitle(title)
	case errors.Is(err, store.ErrNotFound):
		return apperr.ResourceNotFound(fmt.Sprintf("Task with title '%s' not found", title))
	default:
		s.logger.Error("task operation failed", "op", op, "title", title, "error", err)
		return apperr.Internal(op+" failed", err)
	}
}
