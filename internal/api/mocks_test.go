package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/phrazzld/taskflow-api/internal/api/shared"
	"github.com/phrazzld/taskflow-api/internal/domain"
	"github.com/phrazzld/taskflow-api/internal/service"
	"github.com/phrazzld/taskflow-api/internal/service/auth"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockTaskService struct{ mock.Mock }

func (m *mockTaskService) Create(ctx context.Context, input service.CreateTaskInput) (*domain.Task, error) {
	args := m.Called(ctx, input)
	task, _ := args.Get(0).(*domain.Task)
	return task, args.Error(1)
}

func (m *mockTaskService) GetByID(ctx context.Context, id, userID uuid.UUID) (*domain.Task, error) {
	args := m.Called(ctx, id, userID)
	task, _ := args.Get(0).(*domain.Task)
	return task, args.Error(1)
}

func (m *mockTaskService) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Task, error) {
	return m.list(m.Called(ctx, userID))
}

func (m *mockTaskService) ListByCategory(ctx context.Context, categoryID, userID uuid.UUID) ([]*domain.Task, error) {
	return m.list(m.Called(ctx, categoryID, userID))
}

func (m *mockTaskService) ListByStatus(ctx context.Context, status string, userID uuid.UUID) ([]*domain.Task, error) {
	return m.list(m.Called(ctx, status, userID))
}

func (m *mockTaskService) ListAssigned(ctx context.Context, userID uuid.UUID) ([]*domain.Task, error) {
	return m.list(m.Called(ctx, userID))
}

func (m *mockTaskService) Update(ctx context.Context, id uuid.UUID, patch domain.TaskPatch, userID uuid.UUID) (*domain.Task, error) {
	args := m.Called(ctx, id, patch, userID)
	task, _ := args.Get(0).(*domain.Task)
	return task, args.Error(1)
}

func (m *mockTaskService) Delete(ctx context.Context, id, userID uuid.UUID) error {
	return m.Called(ctx, id, userID).Error(0)
}

func (m *mockTaskService) list(args mock.Arguments) ([]*domain.Task, error) {
	tasks, _ := args.Get(0).([]*domain.Task)
	return tasks, args.Error(1)
}

type mockCollaborationService struct{ mock.Mock }

func (m *mockCollaborationService) AddCollaborator(ctx context.Context, input service.AddCollaboratorInput, actingUserID uuid.UUID) (*domain.TaskCollaboration, error) {
	args := m.Called(ctx, input, actingUserID)
	c, _ := args.Get(0).(*domain.TaskCollaboration)
	return c, args.Error(1)
}

func (m *mockCollaborationService) ListForTask(ctx context.Context, taskID, actingUserID uuid.UUID) ([]*domain.TaskCollaboration, error) {
	args := m.Called(ctx, taskID, actingUserID)
	rows, _ := args.Get(0).([]*domain.TaskCollaboration)
	return rows, args.Error(1)
}

func (m *mockCollaborationService) ListForUser(ctx context.Context, userID uuid.UUID) ([]*domain.TaskCollaboration, error) {
	args := m.Called(ctx, userID)
	rows, _ := args.Get(0).([]*domain.TaskCollaboration)
	return rows, args.Error(1)
}

func (m *mockCollaborationService) RemoveCollaborator(ctx context.Context, taskID, targetUserID, actingUserID uuid.UUID) error {
	return m.Called(ctx, taskID, targetUserID, actingUserID).Error(0)
}

func (m *mockCollaborationService) CheckPermission(ctx context.Context, taskID, userID uuid.UUID) (*domain.Role, error) {
	args := m.Called(ctx, taskID, userID)
	role, _ := args.Get(0).(*domain.Role)
	return role, args.Error(1)
}

type mockCategoryService struct{ mock.Mock }

func (m *mockCategoryService) Create(ctx context.Context, input service.CreateCategoryInput) (*domain.Category, error) {
	args := m.Called(ctx, input)
	c, _ := args.Get(0).(*domain.Category)
	return c, args.Error(1)
}

func (m *mockCategoryService) GetByID(ctx context.Context, id, userID uuid.UUID) (*domain.Category, error) {
	args := m.Called(ctx, id, userID)
	c, _ := args.Get(0).(*domain.Category)
	return c, args.Error(1)
}

func (m *mockCategoryService) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Category, error) {
	args := m.Called(ctx, userID)
	c, _ := args.Get(0).([]*domain.Category)
	return c, args.Error(1)
}

func (m *mockCategoryService) Update(ctx context.Context, id uuid.UUID, patch domain.CategoryPatch, userID uuid.UUID) (*domain.Category, error) {
	args := m.Called(ctx, id, patch, userID)
	c, _ := args.Get(0).(*domain.Category)
	return c, args.Error(1)
}

func (m *mockCategoryService) Delete(ctx context.Context, id, userID uuid.UUID) error {
	return m.Called(ctx, id, userID).Error(0)
}

type mockReportService struct{ mock.Mock }

func (m *mockReportService) GetUserReport(ctx context.Context, userID uuid.UUID) (*service.UserReport, error) {
	args := m.Called(ctx, userID)
	report, _ := args.Get(0).(*service.UserReport)
	return report, args.Error(1)
}

func (m *mockReportService) GetTeamReport(ctx context.Context, userIDs []uuid.UUID) ([]service.TeamMemberReport, error) {
	args := m.Called(ctx, userIDs)
	report, _ := args.Get(0).([]service.TeamMemberReport)
	return report, args.Error(1)
}

func (m *mockReportService) GetCompletedTasksInPeriod(ctx context.Context, userID uuid.UUID, start, end time.Time) (int, error) {
	args := m.Called(ctx, userID, start, end)
	return args.Int(0), args.Error(1)
}

type mockUserService struct{ mock.Mock }

func (m *mockUserService) Register(ctx context.Context, name, email, password string) (*domain.User, error) {
	args := m.Called(ctx, name, email, password)
	u, _ := args.Get(0).(*domain.User)
	return u, args.Error(1)
}

func (m *mockUserService) Authenticate(ctx context.Context, email, password string) (*service.AuthResult, error) {
	args := m.Called(ctx, email, password)
	res, _ := args.Get(0).(*service.AuthResult)
	return res, args.Error(1)
}

func (m *mockUserService) RefreshTokens(ctx context.Context, refreshToken string) (*service.AuthResult, error) {
	args := m.Called(ctx, refreshToken)
	res, _ := args.Get(0).(*service.AuthResult)
	return res, args.Error(1)
}

func (m *mockUserService) Logout(ctx context.Context, claims *auth.Claims) error {
	return m.Called(ctx, claims).Error(0)
}

func (m *mockUserService) GetUser(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	args := m.Called(ctx, userID)
	u, _ := args.Get(0).(*domain.User)
	return u, args.Error(1)
}

func (m *mockUserService) ListUsers(ctx context.Context) ([]*domain.User, error) {
	args := m.Called(ctx)
	u, _ := args.Get(0).([]*domain.User)
	return u, args.Error(1)
}

func (m *mockUserService) UpdateProfile(ctx context.Context, userID uuid.UUID, update service.ProfileUpdate) (*domain.User, error) {
	args := m.Called(ctx, userID, update)
	u, _ := args.Get(0).(*domain.User)
	return u, args.Error(1)
}

func (m *mockUserService) DeleteUser(ctx context.Context, userID uuid.UUID) error {
	return m.Called(ctx, userID).Error(0)
}

// apiCall describes one request against a single mounted route.
type apiCall struct {
	method  string
	pattern string // chi route pattern, e.g. "/tasks/{id}"
	path    string
	body    any // marshaled to JSON unless it is a string
	userID  uuid.UUID
	handler http.HandlerFunc
}

// serve mounts the handler on a chi router and executes the request. A
// non-nil userID is placed on the context the way the auth middleware does.
func serve(t *testing.T, c apiCall) *httptest.ResponseRecorder {
	t.Helper()

	var body io.Reader
	switch b := c.body.(type) {
	case nil:
	case string:
		body = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		body = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(c.method, c.path, body)
	if c.userID != uuid.Nil {
		req = req.WithContext(shared.WithClaims(req.Context(), &auth.Claims{UserID: c.userID, ID: "test-jti"}))
	}

	router := chi.NewRouter()
	router.Method(c.method, c.pattern, c.handler)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

// errorBody decodes an error response.
func errorBody(t *testing.T, rec *httptest.ResponseRecorder) shared.ErrorResponse {
	t.Helper()
	var resp shared.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}
