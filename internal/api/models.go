package api

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskflow-api/internal/domain"
	"github.com/phrazzld/taskflow-api/internal/service"
)

// RegisterRequest is the payload for POST /users/register.
type RegisterRequest struct {
	Name     string `json:"name"     validate:"required,max=100"`
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// LoginRequest is the payload for POST /users/login.
type LoginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RefreshTokenRequest is the payload for POST /users/refresh.
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// UpdateProfileRequest is the payload for PUT /users/profile.
type UpdateProfileRequest struct {
	Name     *string `json:"name"     validate:"omitempty,max=100"`
	Email    *string `json:"email"    validate:"omitempty,email"`
	Password *string `json:"password" validate:"omitempty,min=8,max=72"`
}

// AuthResponse is returned by login, register and refresh.
type AuthResponse struct {
	User         *domain.User `json:"user"`
	AccessToken  string       `json:"access_token,omitempty"`
	RefreshToken string       `json:"refresh_token,omitempty"`
	// ExpiresAt is the RFC 3339 expiry of the access token.
	ExpiresAt string `json:"expires_at,omitempty"`
}

// CreateTaskRequest is the payload for POST /tasks. AssignedUserID
// defaults to the caller.
type CreateTaskRequest struct {
	Title          string     `json:"title"            validate:"required,max=255"`
	Description    *string    `json:"description"`
	Priority       string     `json:"priority"         validate:"omitempty,oneof=LOW MEDIUM HIGH low medium high"`
	DueDate        *time.Time `json:"due_date"`
	CategoryID     *uuid.UUID `json:"category_id"`
	AssignedUserID *uuid.UUID `json:"assigned_user_id"`
}

func (req CreateTaskRequest) toInput(userID uuid.UUID) service.CreateTaskInput {
	input := service.CreateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		Priority:    domain.TaskPriority(strings.ToUpper(req.Priority)),
		DueDate:     req.DueDate,
		CategoryID:  req.CategoryID,
		CreatedByID: userID,
	}
	if req.AssignedUserID != nil {
		input.AssignedUserID = *req.AssignedUserID
	}
	return input
}

// UpdateTaskRequest is the payload for PUT /tasks/{id}. Omitted fields are
// left unchanged.
type UpdateTaskRequest struct {
	Title          *string    `json:"title"            validate:"omitempty,max=255"`
	Description    *string    `json:"description"`
	Status         *string    `json:"status"`
	Priority       *string    `json:"priority"         validate:"omitempty,oneof=LOW MEDIUM HIGH low medium high"`
	DueDate        *time.Time `json:"due_date"`
	CategoryID     *uuid.UUID `json:"category_id"`
	AssignedUserID *uuid.UUID `json:"assigned_user_id"`
}

func (req UpdateTaskRequest) toPatch() (domain.TaskPatch, error) {
	patch := domain.TaskPatch{
		Title:          req.Title,
		Description:    req.Description,
		DueDate:        req.DueDate,
		CategoryID:     req.CategoryID,
		AssignedUserID: req.AssignedUserID,
	}
	if req.Status != nil {
		status, err := domain.ParseTaskStatus(*req.Status)
		if err != nil {
			return domain.TaskPatch{}, err
		}
		patch.Status = &status
	}
	if req.Priority != nil {
		priority := domain.TaskPriority(strings.ToUpper(*req.Priority))
		patch.Priority = &priority
	}
	return patch, nil
}

// CategoryRequest is the payload for POST /categories.
type CategoryRequest struct {
	Name        string  `json:"name"        validate:"required,max=100"`
	Description *string `json:"description"`
	Color       *string `json:"color"       validate:"omitempty,max=20"`
}

// UpdateCategoryRequest is the payload for PUT /categories/{id}.
type UpdateCategoryRequest struct {
	Name        *string `json:"name"        validate:"omitempty,max=100"`
	Description *string `json:"description"`
	Color       *string `json:"color"       validate:"omitempty,max=20"`
}

// AddCollaboratorRequest is the payload for POST /collaborations.
type AddCollaboratorRequest struct {
	TaskID uuid.UUID `json:"task_id" validate:"required"`
	UserID uuid.UUID `json:"user_id" validate:"required"`
	Role   string    `json:"role"    validate:"required"`
}

// PermissionResponse is returned by GET /collaborations/permission/{taskId}.
// Role is null when the caller has no access or the task does not exist.
type PermissionResponse struct {
	TaskID uuid.UUID    `json:"task_id"`
	Role   *domain.Role `json:"role"`
}

// TeamReportRequest is the payload for POST /reports/team.
type TeamReportRequest struct {
	UserIDs []uuid.UUID `json:"user_ids" validate:"required"`
}

// CompletedTasksResponse is returned by GET /reports/completed-tasks.
type CompletedTasksResponse struct {
	UserID uuid.UUID `json:"user_id"`
	Start  time.Time `json:"start"`
	End    time.Time `json:"end"`
	Count  int       `json:"count"`
}

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
}
