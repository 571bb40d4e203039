// ABOUTME: Tests for task store operations
// ABOUTME: Covers create, title uniqueness, update, delete, and owner listing

package store

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedOwners(t *testing.T, s *SQLiteStore) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, s.CreateUser(ctx, newUser("alice-id", "alice@example.com", "alice")))
	require.NoError(t, s.CreateUser(ctx, newUser("bob-id", "bob@example.com", "bob")))
}

func TestTaskStore_CreateAndGet(t *testing.T) {
	store := setupTestStore(t)
	seedOwners(t, store)
	ctx := context.Background()

	task := newTask("t-1", "Buy milk", "alice-id")
	require.NoError(t, store.CreateTask(ctx, task))

	got, err := store.GetTaskByTitle(ctx, "Buy milk")
	require.NoError(t, err)
	assert.Equal(t, "t-1", got.ID)
	assert.Equal(t, "alice-id", got.OwnerID)
	assert.Equal(t, task.Description, got.Description)
	assert.True(t, task.DueDate.Equal(got.DueDate))
}

func TestTaskStore_DuplicateTitle(t *testing.T) {
	store := setupTestStore(t)
	seedOwners(t, store)
	ctx := context.Background()

	require.NoError(t, store.CreateTask(ctx, newTask("t-1", "Buy milk", "alice-id")))

	err := store.CreateTask(ctx, newTask("t-2", "Buy milk", "bob-id"))
	assert.ErrorIs(t, err, ErrDuplicateTitle)

	exists, err := store.TaskExistsByTitle(ctx, "Buy milk")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestTaskStore_Update(t *testing.T) {
	store := setupTestStore(t)
	seedOwners(t, store)
	ctx := context.Background()

	task := newTask("t-1", "Buy milk", "alice-id")
	require.NoError(t, store.CreateTask(ctx, task))

	task.Title = "Buy oat milk"
	task.OwnerID = "bob-id"
	task.DueDate = time.Date(2027, 1, 15, 0, 0, 0, 0, time.UTC)
	task.UpdatedAt = time.Now().UTC().Truncate(time.Second)
	require.NoError(t, store.UpdateTask(ctx, task))

	_, err := store.GetTaskByTitle(ctx, "Buy milk")
	assert.ErrorIs(t, err, ErrNotFound)

	got, err := store.GetTaskByTitle(ctx, "Buy oat milk")
	require.NoError(t, err)
	assert.Equal(t, "bob-id", got.OwnerID)
	assert.Equal(t, "2027-01-15", got.DueDate.Format(DateLayout))
}

func TestTaskStore_Update_TitleCollision(t *testing.T) {
	store := setupTestStore(t)
	seedOwners(t, store)
	ctx := context.Background()

	require.NoError(t, store.CreateTask(ctx, newTask("t-1", "Buy milk", "alice-id")))
	require.NoError(t, store.CreateTask(ctx, newTask("t-2", "Walk dog", "alice-id")))

	task, err := store.GetTaskByTitle(ctx, "Walk dog")
	require.NoError(t, err)
	task.Title = "Buy milk"

	assert.ErrorIs(t, store.UpdateTask(ctx, task), ErrDuplicateTitle)
}

func TestTaskStore_Update_Missing(t *testing.T) {
	store := setupTestStore(t)
	seedOwners(t, store)

	err := store.UpdateTask(context.Background(), newTask("missing", "Nothing", "alice-id"))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTaskStore_Delete(t *testing.T) {
	store := setupTestStore(t)
	seedOwners(t, store)
	ctx := context.Background()

	require.NoError(t, store.CreateTask(ctx, newTask("t-1", "Buy milk", "alice-id")))
	require.NoError(t, store.DeleteTask(ctx, "t-1"))

	_, err := store.GetTaskByTitle(ctx, "Buy milk")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, store.DeleteTask(ctx, "t-1"), ErrNotFound)
}

func TestTaskStore_ListTasksByOwner(t *testing.T) {
	store := setupTestStore(t)
	seedOwners(t, store)
	ctx := context.Background()

	for _, title := range []string{"c-task", "a-task", "b-task"} {
		require.NoError(t, store.CreateTask(ctx, newTask("alice-"+title, title, "alice-id")))
	}
	require.NoError(t, store.CreateTask(ctx, newTask("bob-1", "bob-task", "bob-id")))

	tasks, err := store.ListTasksByOwner(ctx, "alice-id", Page{})
	require.NoError(t, err)
	require.Len(t, tasks, 3)
	assert.Equal(t, "a-task", tasks[0].Title)
	assert.Equal(t, "b-task", tasks[1].Title)
	assert.Equal(t, "c-task", tasks[2].Title)

	second, err := store.ListTasksByOwner(ctx, "alice-id", Page{Offset: 1, Limit: 2})
	require.NoError(t, err)
	require.Len(t, second, 1)
	assert.Equal(t, "c-task", second[0].Title)
}

func TestTaskStore_ConcurrentCreateSameTitle(t *testing.T) {
	store := setupTestStore(t)
	seedOwners(t, store)
	ctx := context.Background()

	const workers = 8
	var wg sync.WaitGroup
	errs := make([]error, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = store.WithTx(ctx, func(q Queries) error {
				exists, err := q.TaskExistsByTitle(ctx, "shared")
				if err != nil {
					return err
				}
				if exists {
					return ErrDuplicateTitle
				}
				return q.CreateTask(ctx, newTask(fmt.Sprintf("t-%d", i), "shared", "alice-id"))
			})
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, ErrDuplicateTitle)
	}
	assert.Equal(t, 1, succeeded)
}
