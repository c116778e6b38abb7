package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// TaskStatus is the lifecycle state of a task.
type TaskStatus string

// Possible task status values
const (
	TaskStatusTodo       TaskStatus = "TODO"
	TaskStatusInProgress TaskStatus = "IN_PROGRESS"
	TaskStatusCompleted  TaskStatus = "COMPLETED"
)

// AllTaskStatuses lists every status in a stable order.
var AllTaskStatuses = []TaskStatus{TaskStatusTodo, TaskStatusInProgress, TaskStatusCompleted}

// TaskPriority ranks how urgent a task is.
type TaskPriority string

// Possible task priority values
const (
	TaskPriorityLow    TaskPriority = "LOW"
	TaskPriorityMedium TaskPriority = "MEDIUM"
	TaskPriorityHigh   TaskPriority = "HIGH"
)

// MaxTaskTitleLength bounds task titles.
const MaxTaskTitleLength = 255

// Validation errors for Task
var (
	ErrEmptyTaskID          = validationError("task ID cannot be empty")
	ErrEmptyTaskTitle       = validationError("task title cannot be empty")
	ErrTaskTitleTooLong     = validationError("task title must be at most 255 characters long")
	ErrInvalidTaskStatus    = validationError("invalid task status")
	ErrInvalidTaskPriority  = validationError("invalid task priority")
	ErrEmptyTaskCreatorID   = validationError("task creator ID cannot be empty")
	ErrEmptyTaskAssigneeID  = validationError("task assignee ID cannot be empty")
	ErrEmptyTaskCategoryRef = validationError("task category ID cannot be the nil UUID")
)

// Task is a unit of work created by one user and assigned to another
// (possibly the same) user. CategoryID may reference a category that has
// since been deleted.
type Task struct {
	ID             uuid.UUID    `json:"id"`
	Title          string       `json:"title"`
	Description    *string      `json:"description,omitempty"`
	Status         TaskStatus   `json:"status"`
	Priority       TaskPriority `json:"priority"`
	DueDate        *time.Time   `json:"due_date,omitempty"`
	CategoryID     *uuid.UUID   `json:"category_id,omitempty"`
	AssignedUserID uuid.UUID    `json:"assigned_user_id"`
	CreatedByID    uuid.UUID    `json:"created_by_id"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
}

// NewTask builds a task in the TODO state. A zero priority defaults to MEDIUM.
func NewTask(
	title string,
	description *string,
	priority TaskPriority,
	dueDate *time.Time,
	categoryID *uuid.UUID,
	assignedUserID, createdByID uuid.UUID,
) (*Task, error) {
	if priority == "" {
		priority = TaskPriorityMedium
	}

	now := time.Now().UTC()
	task := &Task{
		ID:             uuid.New(),
		Title:          strings.TrimSpace(title),
		Description:    description,
		Status:         TaskStatusTodo,
		Priority:       priority,
		DueDate:        utcPtr(dueDate),
		CategoryID:     categoryID,
		AssignedUserID: assignedUserID,
		CreatedByID:    createdByID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := task.Validate(); err != nil {
		return nil, err
	}

	return task, nil
}

// Validate checks if the Task has valid data.
func (t *Task) Validate() error {
	if t.ID == uuid.Nil {
		return ErrEmptyTaskID
	}
	if t.Title == "" {
		return ErrEmptyTaskTitle
	}
	if len(t.Title) > MaxTaskTitleLength {
		return ErrTaskTitleTooLong
	}
	if !t.Status.Valid() {
		return ErrInvalidTaskStatus
	}
	if !t.Priority.Valid() {
		return ErrInvalidTaskPriority
	}
	if t.CreatedByID == uuid.Nil {
		return ErrEmptyTaskCreatorID
	}
	if t.AssignedUserID == uuid.Nil {
		return ErrEmptyTaskAssigneeID
	}
	if t.CategoryID != nil && *t.CategoryID == uuid.Nil {
		return ErrEmptyTaskCategoryRef
	}
	return nil
}

// IsOverdue reports whether the task has a due date strictly before now
// and is not completed.
func (t *Task) IsOverdue(now time.Time) bool {
	return t.DueDate != nil && t.DueDate.Before(now) && t.Status != TaskStatusCompleted
}

// InvolvesUser reports whether the user created or is assigned the task.
func (t *Task) InvolvesUser(userID uuid.UUID) bool {
	return t.CreatedByID == userID || t.AssignedUserID == userID
}

// SameCategory reports whether the task lives in the given category scope.
// A nil category is its own scope.
func (t *Task) SameCategory(categoryID *uuid.UUID) bool {
	if t.CategoryID == nil || categoryID == nil {
		return t.CategoryID == nil && categoryID == nil
	}
	return *t.CategoryID == *categoryID
}

// TaskPatch carries a partial update. Nil fields are left unchanged.
type TaskPatch struct {
	Title          *string
	Description    *string
	Status         *TaskStatus
	Priority       *TaskPriority
	DueDate        *time.Time
	CategoryID     *uuid.UUID
	AssignedUserID *uuid.UUID
}

// Apply copies the set fields onto the task, bumps UpdatedAt and re-validates.
func (t *Task) Apply(p TaskPatch) error {
	if p.Title != nil {
		t.Title = strings.TrimSpace(*p.Title)
	}
	if p.Description != nil {
		t.Description = p.Description
	}
	if p.Status != nil {
		t.Status = *p.Status
	}
	if p.Priority != nil {
		t.Priority = *p.Priority
	}
	if p.DueDate != nil {
		t.DueDate = utcPtr(p.DueDate)
	}
	if p.CategoryID != nil {
		t.CategoryID = p.CategoryID
	}
	if p.AssignedUserID != nil {
		t.AssignedUserID = *p.AssignedUserID
	}
	t.UpdatedAt = time.Now().UTC()
	return t.Validate()
}

// Valid reports whether s is a known status.
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusTodo, TaskStatusInProgress, TaskStatusCompleted:
		return true
	default:
		return false
	}
}

// ParseTaskStatus converts a string into a TaskStatus.
func ParseTaskStatus(s string) (TaskStatus, error) {
	status := TaskStatus(strings.ToUpper(strings.TrimSpace(s)))
	if !status.Valid() {
		return "", ErrInvalidTaskStatus
	}
	return status, nil
}

// Valid reports whether p is a known priority.
func (p TaskPriority) Valid() bool {
	switch p {
	case TaskPriorityLow, TaskPriorityMedium, TaskPriorityHigh:
		return true
	default:
		return false
	}
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
