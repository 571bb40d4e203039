// ABOUTME: Mock Store implementation for testing
// ABOUTME: Allows tests to run without SQLite; WithTx holds the lock and rolls back on error

package store

import (
	"context"
	"sort"
	"sync"
)

// MockStore is an in-memory Store implementation for testing.
type MockStore struct {
	mu   sync.Mutex
	data *memData

	// PingErr is returned from Ping when set.
	PingErr error
}

type memData struct {
	users  map[string]*User              // keyed by user ID
	tasks  map[string]*Task              // keyed by task ID
	grants map[string]map[RoleName]bool // keyed by user ID
}

// Ensure MockStore implements Store.
var _ Store = (*MockStore)(nil)

// NewMockStore creates a new MockStore.
func NewMockStore() *MockStore {
	return &MockStore{
		data: &memData{
			users:  make(map[string]*User),
			tasks:  make(map[string]*Task),
			grants: make(map[string]map[RoleName]bool),
		},
	}
}

func (d *memData) clone() *memData {
	c := &memData{
		users:  make(map[string]*User, len(d.users)),
		tasks:  make(map[string]*Task, len(d.tasks)),
		grants: make(map[string]map[RoleName]bool, len(d.grants)),
	}
	for id, u := range d.users {
		cp := *u
		c.users[id] = &cp
	}
	for id, t := range d.tasks {
		cp := *t
		c.tasks[id] = &cp
	}
	for id, roles := range d.grants {
		set := make(map[RoleName]bool, len(roles))
		for r := range roles {
			set[r] = true
		}
		c.grants[id] = set
	}
	return c
}

// WithTx runs fn with exclusive access. Changes made by fn are discarded if
// it returns an error.
func (m *MockStore) WithTx(ctx context.Context, fn func(q Queries) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	snapshot := m.data.clone()
	if err := fn(&memQueries{d: m.data}); err != nil {
		m.data = snapshot
		return err
	}
	return nil
}

// Ping returns PingErr.
func (m *MockStore) Ping(ctx context.Context) error {
	return m.PingErr
}

// Close is a no-op.
func (m *MockStore) Close() error {
	return nil
}

func (m *MockStore) locked() (*memQueries, func()) {
	m.mu.Lock()
	return &memQueries{d: m.data}, m.mu.Unlock
}

func (m *MockStore) CreateUser(ctx context.Context, user *User) error {
	q, unlock := m.locked()
	defer unlock()
	return q.CreateUser(ctx, user)
}

func (m *MockStore) GetUser(ctx context.Context, id string) (*User, error) {
	q, unlock := m.locked()
	defer unlock()
	return q.GetUser(ctx, id)
}

func (m *MockStore) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	q, unlock := m.locked()
	defer unlock()
	return q.GetUserByEmail(ctx, email)
}

func (m *MockStore) GetUserByUsername(ctx context.Context, username string) (*User, error) {
	q, unlock := m.locked()
	defer unlock()
	return q.GetUserByUsername(ctx, username)
}

func (m *MockStore) UserExistsByEmail(ctx context.Context, email string) (bool, error) {
	q, unlock := m.locked()
	defer unlock()
	return q.UserExistsByEmail(ctx, email)
}

func (m *MockStore) UserExistsByUsername(ctx context.Context, username string) (bool, error) {
	q, unlock := m.locked()
	defer unlock()
	return q.UserExistsByUsername(ctx, username)
}

func (m *MockStore) ListUsers(ctx context.Context, page Page) ([]*User, error) {
	q, unlock := m.locked()
	defer unlock()
	return q.ListUsers(ctx, page)
}

func (m *MockStore) GrantRole(ctx context.Context, userID string, role RoleName) error {
	q, unlock := m.locked()
	defer unlock()
	return q.GrantRole(ctx, userID, role)
}

func (m *MockStore) ListUserRoles(ctx context.Context, userID string) ([]RoleName, error) {
	q, unlock := m.locked()
	defer unlock()
	return q.ListUserRoles(ctx, userID)
}

func (m *MockStore) CreateTask(ctx context.Context, task *Task) error {
	q, unlock := m.locked()
	defer unlock()
	return q.CreateTask(ctx, task)
}

func (m *MockStore) GetTaskByTitle(ctx context.Context, title string) (*Task, error) {
	q, unlock := m.locked()
	defer unlock()
	return q.GetTaskByTitle(ctx, title)
}

func (m *MockStore) TaskExistsByTitle(ctx context.Context, title string) (bool, error) {
	q, unlock := m.locked()
	defer unlock()
	return q.TaskExistsByTitle(ctx, title)
}

func (m *MockStore) UpdateTask(ctx context.Context, task *Task) error {
	q, unlock := m.locked()
	defer unlock()
	return q.UpdateTask(ctx, task)
}

func (m *MockStore) DeleteTask(ctx context.Context, id string) error {
	q, unlock := m.locked()
	defer unlock()
	return q.DeleteTask(ctx, id)
}

func (m *MockStore) ListTasksByOwner(ctx context.Context, ownerID string, page Page) ([]*Task, error) {
	q, unlock := m.locked()
	defer unlock()
	return q.ListTasksByOwner(ctx, ownerID, page)
}

// memQueries implements Queries over memData. Callers hold MockStore.mu.
type memQueries struct {
	d *memData
}

func (q *memQueries) CreateUser(ctx context.Context, user *User) error {
	user.Email = NormalizeEmail(user.Email)
	user.Username = NormalizeUsername(user.Username)
	for _, u := range q.d.users {
		if u.Email == user.Email || u.Username == user.Username || u.ID == user.ID {
			return ErrDuplicateUser
		}
	}
	cp := *user
	cp.Roles = nil
	q.d.users[cp.ID] = &cp
	return nil
}

func (q *memQueries) GetUser(ctx context.Context, id string) (*User, error) {
	u, ok := q.d.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (q *memQueries) findUser(match func(*User) bool) (*User, error) {
	for _, u := range q.d.users {
		if match(u) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (q *memQueries) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	email = NormalizeEmail(email)
	return q.findUser(func(u *User) bool { return u.Email == email })
}

func (q *memQueries) GetUserByUsername(ctx context.Context, username string) (*User, error) {
	username = NormalizeUsername(username)
	return q.findUser(func(u *User) bool { return u.Username == username })
}

func (q *memQueries) UserExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, err := q.GetUserByEmail(ctx, email)
	return err == nil, nil
}

func (q *memQueries) UserExistsByUsername(ctx context.Context, username string) (bool, error) {
	_, err := q.GetUserByUsername(ctx, username)
	return err == nil, nil
}

func (q *memQueries) ListUsers(ctx context.Context, page Page) ([]*User, error) {
	all := make([]*User, 0, len(q.d.users))
	for _, u := range q.d.users {
		cp := *u
		cp.Roles, _ = q.ListUserRoles(ctx, u.ID)
		all = append(all, &cp)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Email < all[j].Email })
	return paginate(all, page), nil
}

func (q *memQueries) GrantRole(ctx context.Context, userID string, role RoleName) error {
	valid := false
	for _, r := range ValidRoleNames {
		if r == role {
			valid = true
		}
	}
	if !valid {
		return ErrRoleNotFound
	}
	if q.d.grants[userID] == nil {
		q.d.grants[userID] = make(map[RoleName]bool)
	}
	q.d.grants[userID][role] = true
	return nil
}

func (q *memQueries) ListUserRoles(ctx context.Context, userID string) ([]RoleName, error) {
	roles := []RoleName{}
	for r := range q.d.grants[userID] {
		roles = append(roles, r)
	}
	sort.Slice(roles, func(i, j int) bool { return roles[i] < roles[j] })
	return roles, nil
}

func (q *memQueries) CreateTask(ctx context.Context, task *Task) error {
	task.Title = NormalizeTitle(task.Title)
	for _, t := range q.d.tasks {
		if t.Title == task.Title || t.ID == task.ID {
			return ErrDuplicateTitle
		}
	}
	cp := *task
	q.d.tasks[cp.ID] = &cp
	return nil
}

func (q *memQueries) GetTaskByTitle(ctx context.Context, title string) (*Task, error) {
	title = NormalizeTitle(title)
	for _, t := range q.d.tasks {
		if t.Title == title {
			cp := *t
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (q *memQueries) TaskExistsByTitle(ctx context.Context, title string) (bool, error) {
	_, err := q.GetTaskByTitle(ctx, title)
	return err == nil, nil
}

func (q *memQueries) UpdateTask(ctx context.Context, task *Task) error {
	if _, ok := q.d.tasks[task.ID]; !ok {
		return ErrNotFound
	}
	task.Title = NormalizeTitle(task.Title)
	for _, t := range q.d.tasks {
		if t.ID != task.ID && t.Title == task.Title {
			return ErrDuplicateTitle
		}
	}
	cp := *task
	q.d.tasks[cp.ID] = &cp
	return nil
}

func (q *memQueries) DeleteTask(ctx context.Context, id string) error {
	if _, ok := q.d.tasks[id]; !ok {
		return ErrNotFound
	}
	delete(q.d.tasks, id)
	return nil
}

func (q *memQueries) ListTasksByOwner(ctx context.Context, ownerID string, page Page) ([]*Task, error) {
	owned := []*Task{}
	for _, t := range q.d.tasks {
		if t.OwnerID == ownerID {
			cp := *t
			owned = append(owned, &cp)
		}
	}
	sort.Slice(owned, func(i, j int) bool { return owned[i].Title < owned[j].Title })
	return paginate(owned, page), nil
}

func paginate[T any](items []T, page Page) []T {
	start := page.rowOffset()
	if start >= len(items) {
		return []T{}
	}
	end := start + page.limit()
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}
