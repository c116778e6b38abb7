package service

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskflow-api/internal/domain"
	"github.com/phrazzld/taskflow-api/internal/store"
	"github.com/stretchr/testify/mock"
	"golang.org/x/crypto/bcrypt"
)

// callLog records store writes across fakes so tests can assert ordering.
type callLog struct {
	mu    sync.Mutex
	calls []string
}

func (l *callLog) add(call string) {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, call)
}

// passthroughTx runs fn without a transaction. Fakes ignore the nil *sql.Tx.
type passthroughTx struct {
	runs int
}

func (p *passthroughTx) RunInTx(ctx context.Context, fn store.TxFn) error {
	p.runs++
	return fn(ctx, nil)
}

func copyTask(t *domain.Task) *domain.Task {
	c := *t
	return &c
}

type memTasks struct {
	mu    sync.Mutex
	order []uuid.UUID
	rows  map[uuid.UUID]*domain.Task
	log   *callLog

	createErr error
	listErr   error
}

func newMemTasks(log *callLog) *memTasks {
	return &memTasks{rows: make(map[uuid.UUID]*domain.Task), log: log}
}

func (m *memTasks) put(t *domain.Task) *domain.Task {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[t.ID]; !ok {
		m.order = append(m.order, t.ID)
	}
	m.rows[t.ID] = copyTask(t)
	return t
}

func (m *memTasks) filter(keep func(*domain.Task) bool) ([]*domain.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	out := []*domain.Task{}
	for _, id := range m.order {
		if t, ok := m.rows[id]; ok && keep(t) {
			out = append(out, copyTask(t))
		}
	}
	return out, nil
}

func (m *memTasks) Create(_ context.Context, task *domain.Task) error {
	if m.createErr != nil {
		return m.createErr
	}
	if err := task.Validate(); err != nil {
		return err
	}
	m.log.add("tasks.Create")
	m.put(task)
	return nil
}

func (m *memTasks) GetByID(_ context.Context, id uuid.UUID) (*domain.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.rows[id]
	if !ok {
		return nil, store.ErrTaskNotFound
	}
	return copyTask(t), nil
}

func (m *memTasks) GetByTitleAndCategory(_ context.Context, title string, categoryID *uuid.UUID) (*domain.Task, error) {
	found, _ := m.filter(func(t *domain.Task) bool {
		return t.Title == title && t.SameCategory(categoryID)
	})
	if len(found) == 0 {
		return nil, store.ErrTaskNotFound
	}
	return found[0], nil
}

func (m *memTasks) ListByUser(_ context.Context, userID uuid.UUID) ([]*domain.Task, error) {
	return m.filter(func(t *domain.Task) bool { return t.InvolvesUser(userID) })
}

func (m *memTasks) ListByCategory(_ context.Context, categoryID uuid.UUID) ([]*domain.Task, error) {
	return m.filter(func(t *domain.Task) bool { return t.CategoryID != nil && *t.CategoryID == categoryID })
}

func (m *memTasks) ListByStatus(_ context.Context, status domain.TaskStatus) ([]*domain.Task, error) {
	return m.filter(func(t *domain.Task) bool { return t.Status == status })
}

func (m *memTasks) ListByAssignee(_ context.Context, userID uuid.UUID) ([]*domain.Task, error) {
	return m.filter(func(t *domain.Task) bool { return t.AssignedUserID == userID })
}

func (m *memTasks) ListByCreator(_ context.Context, userID uuid.UUID) ([]*domain.Task, error) {
	return m.filter(func(t *domain.Task) bool { return t.CreatedByID == userID })
}

func (m *memTasks) Update(_ context.Context, task *domain.Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[task.ID]; !ok {
		return store.ErrTaskNotFound
	}
	m.rows[task.ID] = copyTask(task)
	return nil
}

func (m *memTasks) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[id]; !ok {
		return store.ErrTaskNotFound
	}
	m.log.add("tasks.Delete")
	delete(m.rows, id)
	return nil
}

func (m *memTasks) WithTx(*sql.Tx) store.TaskStore { return m }

type memCollabs struct {
	mu   sync.Mutex
	rows []*domain.TaskCollaboration
	log  *callLog

	createErr error
	lookups   int
}

func newMemCollabs(log *callLog) *memCollabs {
	return &memCollabs{log: log}
}

func (m *memCollabs) grant(taskID, userID uuid.UUID, role domain.Role) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows = append(m.rows, &domain.TaskCollaboration{
		ID: uuid.New(), TaskID: taskID, UserID: userID, Role: role, CreatedAt: time.Now().UTC(),
	})
}

func (m *memCollabs) Create(_ context.Context, c *domain.TaskCollaboration) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.rows {
		if r.TaskID == c.TaskID && r.UserID == c.UserID {
			return store.ErrCollaborationExists
		}
	}
	m.log.add("collabs.Create")
	cp := *c
	m.rows = append(m.rows, &cp)
	return nil
}

func (m *memCollabs) GetByTaskAndUser(_ context.Context, taskID, userID uuid.UUID) (*domain.TaskCollaboration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lookups++
	for _, r := range m.rows {
		if r.TaskID == taskID && r.UserID == userID {
			cp := *r
			return &cp, nil
		}
	}
	return nil, store.ErrCollaborationNotFound
}

func (m *memCollabs) ListByTask(_ context.Context, taskID uuid.UUID) ([]*domain.TaskCollaboration, error) {
	return m.filter(func(r *domain.TaskCollaboration) bool { return r.TaskID == taskID }), nil
}

func (m *memCollabs) ListByUser(_ context.Context, userID uuid.UUID) ([]*domain.TaskCollaboration, error) {
	return m.filter(func(r *domain.TaskCollaboration) bool { return r.UserID == userID }), nil
}

func (m *memCollabs) filter(keep func(*domain.TaskCollaboration) bool) []*domain.TaskCollaboration {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*domain.TaskCollaboration{}
	for _, r := range m.rows {
		if keep(r) {
			cp := *r
			out = append(out, &cp)
		}
	}
	return out
}

func (m *memCollabs) remove(keep func(*domain.TaskCollaboration) bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.rows[:0]
	for _, r := range m.rows {
		if keep(r) {
			kept = append(kept, r)
		}
	}
	m.rows = kept
}

func (m *memCollabs) Delete(_ context.Context, taskID, userID uuid.UUID) error {
	m.log.add("collabs.Delete")
	m.remove(func(r *domain.TaskCollaboration) bool { return r.TaskID != taskID || r.UserID != userID })
	return nil
}

func (m *memCollabs) DeleteByTask(_ context.Context, taskID uuid.UUID) error {
	m.log.add("collabs.DeleteByTask")
	m.remove(func(r *domain.TaskCollaboration) bool { return r.TaskID != taskID })
	return nil
}

func (m *memCollabs) WithTx(*sql.Tx) store.CollaborationStore { return m }

type memCategories struct {
	mu   sync.Mutex
	rows map[uuid.UUID]*domain.Category

	lookups int
}

func newMemCategories() *memCategories {
	return &memCategories{rows: make(map[uuid.UUID]*domain.Category)}
}

func (m *memCategories) Create(_ context.Context, c *domain.Category) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.rows {
		if r.UserID == c.UserID && r.Name == c.Name {
			return store.ErrCategoryNameExists
		}
	}
	cp := *c
	m.rows[c.ID] = &cp
	return nil
}

func (m *memCategories) GetByID(_ context.Context, id uuid.UUID) (*domain.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lookups++
	r, ok := m.rows[id]
	if !ok {
		return nil, store.ErrCategoryNotFound
	}
	cp := *r
	return &cp, nil
}

func (m *memCategories) GetByNameAndUser(_ context.Context, name string, userID uuid.UUID) (*domain.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.rows {
		if r.UserID == userID && r.Name == name {
			cp := *r
			return &cp, nil
		}
	}
	return nil, store.ErrCategoryNotFound
}

func (m *memCategories) ListByUser(_ context.Context, userID uuid.UUID) ([]*domain.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*domain.Category{}
	for _, r := range m.rows {
		if r.UserID == userID {
			cp := *r
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memCategories) Update(_ context.Context, c *domain.Category) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[c.ID]; !ok {
		return store.ErrCategoryNotFound
	}
	cp := *c
	m.rows[c.ID] = &cp
	return nil
}

func (m *memCategories) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[id]; !ok {
		return store.ErrCategoryNotFound
	}
	delete(m.rows, id)
	return nil
}

func (m *memCategories) WithTx(*sql.Tx) store.CategoryStore { return m }

type memUsers struct {
	mu    sync.Mutex
	order []uuid.UUID
	rows  map[uuid.UUID]*domain.User

	// inUse marks users still referenced by tasks.
	inUse map[uuid.UUID]bool
}

func newMemUsers() *memUsers {
	return &memUsers{rows: make(map[uuid.UUID]*domain.User), inUse: make(map[uuid.UUID]bool)}
}

func (m *memUsers) hash(u *domain.User) error {
	if u.Password == "" {
		return nil
	}
	h, err := bcrypt.GenerateFromPassword([]byte(u.Password), bcrypt.MinCost)
	if err != nil {
		return err
	}
	u.HashedPassword = string(h)
	u.Password = ""
	return nil
}

func (m *memUsers) Create(_ context.Context, u *domain.User) error {
	if err := u.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.rows {
		if r.Email == u.Email {
			return store.ErrEmailExists
		}
	}
	if err := m.hash(u); err != nil {
		return err
	}
	cp := *u
	m.rows[u.ID] = &cp
	m.order = append(m.order, u.ID)
	return nil
}

func (m *memUsers) GetByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rows[id]
	if !ok {
		return nil, store.ErrUserNotFound
	}
	cp := *r
	return &cp, nil
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.rows {
		if r.Email == email {
			cp := *r
			return &cp, nil
		}
	}
	return nil, store.ErrUserNotFound
}

func (m *memUsers) List(_ context.Context) ([]*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*domain.User{}
	for _, id := range m.order {
		if r, ok := m.rows[id]; ok {
			cp := *r
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memUsers) Update(_ context.Context, u *domain.User) error {
	if err := u.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[u.ID]; !ok {
		return store.ErrUserNotFound
	}
	for _, r := range m.rows {
		if r.ID != u.ID && r.Email == u.Email {
			return store.ErrEmailExists
		}
	}
	if err := m.hash(u); err != nil {
		return err
	}
	cp := *u
	m.rows[u.ID] = &cp
	return nil
}

func (m *memUsers) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[id]; !ok {
		return store.ErrUserNotFound
	}
	if m.inUse[id] {
		return fmt.Errorf("%w: tasks_created_by_id_fkey", store.ErrInvalidEntity)
	}
	delete(m.rows, id)
	return nil
}

func (m *memUsers) WithTx(*sql.Tx) store.UserStore { return m }

// MockCollaborationStore is a testify mock used where tests assert on the
// exact store calls.
type MockCollaborationStore struct {
	mock.Mock
}

func (m *MockCollaborationStore) Create(ctx context.Context, c *domain.TaskCollaboration) error {
	return m.Called(ctx, c).Error(0)
}

func (m *MockCollaborationStore) GetByTaskAndUser(
	ctx context.Context,
	taskID, userID uuid.UUID,
) (*domain.TaskCollaboration, error) {
	args := m.Called(ctx, taskID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TaskCollaboration), args.Error(1)
}

func (m *MockCollaborationStore) ListByTask(ctx context.Context, taskID uuid.UUID) ([]*domain.TaskCollaboration, error) {
	args := m.Called(ctx, taskID)
	return args.Get(0).([]*domain.TaskCollaboration), args.Error(1)
}

func (m *MockCollaborationStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.TaskCollaboration, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]*domain.TaskCollaboration), args.Error(1)
}

func (m *MockCollaborationStore) Delete(ctx context.Context, taskID, userID uuid.UUID) error {
	return m.Called(ctx, taskID, userID).Error(0)
}

func (m *MockCollaborationStore) DeleteByTask(ctx context.Context, taskID uuid.UUID) error {
	return m.Called(ctx, taskID).Error(0)
}

func (m *MockCollaborationStore) WithTx(*sql.Tx) store.CollaborationStore { return m }

// fixture wires every service against shared in-memory stores.
type fixture struct {
	log        *callLog
	tasks      *memTasks
	collabs    *memCollabs
	categories *memCategories
	users      *memUsers
	tx         *passthroughTx

	resolver        PermissionResolver
	taskService     TaskService
	collabService   CollaborationService
	categoryService CategoryService
}

func newFixture() *fixture {
	f := &fixture{
		log:        &callLog{},
		categories: newMemCategories(),
		users:      newMemUsers(),
		tx:         &passthroughTx{},
	}
	f.tasks = newMemTasks(f.log)
	f.collabs = newMemCollabs(f.log)

	var err error
	if f.resolver, err = NewPermissionResolver(f.collabs, nil); err != nil {
		panic(err)
	}
	if f.taskService, err = NewTaskService(f.tasks, f.collabs, f.resolver, f.tx, nil); err != nil {
		panic(err)
	}
	if f.collabService, err = NewCollaborationService(f.tasks, f.collabs, f.resolver, nil); err != nil {
		panic(err)
	}
	if f.categoryService, err = NewCategoryService(f.categories, nil); err != nil {
		panic(err)
	}
	return f
}

// seedTask stores a task directly, bypassing the service.
func (f *fixture) seedTask(title string, categoryID *uuid.UUID, creator, assignee uuid.UUID) *domain.Task {
	t, err := domain.NewTask(title, nil, domain.TaskPriorityMedium, nil, categoryID, assignee, creator)
	if err != nil {
		panic(err)
	}
	return f.tasks.put(t)
}
