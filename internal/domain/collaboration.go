package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Role is the permission level a user holds on a task.
// The ordering is OWNER > COLLABORATOR > VIEWER > NONE.
type Role string

// Possible role values. RoleNone is never stored.
const (
	RoleOwner        Role = "OWNER"
	RoleCollaborator Role = "COLLABORATOR"
	RoleViewer       Role = "VIEWER"
	RoleNone         Role = "NONE"
)

// Validation errors for TaskCollaboration
var (
	ErrEmptyCollaborationID     = validationError("collaboration ID cannot be empty")
	ErrEmptyCollaborationTaskID = validationError("collaboration task ID cannot be empty")
	ErrEmptyCollaborationUserID = validationError("collaboration user ID cannot be empty")
	ErrInvalidRole              = validationError("invalid collaboration role")
)

// TaskCollaboration grants a user a role on a task. There is at most one
// row per (task, user).
type TaskCollaboration struct {
	ID        uuid.UUID `json:"id"`
	TaskID    uuid.UUID `json:"task_id"`
	UserID    uuid.UUID `json:"user_id"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// NewTaskCollaboration creates a collaboration row.
func NewTaskCollaboration(taskID, userID uuid.UUID, role Role) (*TaskCollaboration, error) {
	c := &TaskCollaboration{
		ID:        uuid.New(),
		TaskID:    taskID,
		UserID:    userID,
		Role:      role,
		CreatedAt: time.Now().UTC(),
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate checks if the TaskCollaboration has valid data.
func (c *TaskCollaboration) Validate() error {
	if c.ID == uuid.Nil {
		return ErrEmptyCollaborationID
	}
	if c.TaskID == uuid.Nil {
		return ErrEmptyCollaborationTaskID
	}
	if c.UserID == uuid.Nil {
		return ErrEmptyCollaborationUserID
	}
	if !c.Role.Assignable() {
		return ErrInvalidRole
	}
	return nil
}

// Assignable reports whether the role can be stored on a collaboration row.
func (r Role) Assignable() bool {
	switch r {
	case RoleOwner, RoleCollaborator, RoleViewer:
		return true
	default:
		return false
	}
}

// ParseRole converts a string into an assignable Role.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToUpper(strings.TrimSpace(s)))
	if !r.Assignable() {
		return "", ErrInvalidRole
	}
	return r, nil
}

// CanRead reports whether the role grants read access.
func (r Role) CanRead() bool {
	return r.Assignable()
}

// CanWrite reports whether the role grants update access.
func (r Role) CanWrite() bool {
	return r == RoleOwner || r == RoleCollaborator
}

// CanDelete reports whether the role grants delete access.
func (r Role) CanDelete() bool {
	return r == RoleOwner
}

// ResolveRole computes a user's role on a task. The first matching rule wins:
// the creator is OWNER, the assignee is COLLABORATOR, otherwise the role on
// collab is used verbatim. collab must be the row for (task, user) or nil.
func ResolveRole(task *Task, userID uuid.UUID, collab *TaskCollaboration) Role {
	switch {
	case task.CreatedByID == userID:
		return RoleOwner
	case task.AssignedUserID == userID:
		return RoleCollaborator
	case collab != nil && collab.TaskID == task.ID && collab.UserID == userID:
		return collab.Role
	default:
		return RoleNone
	}
}

// NeedsCollaborationLookup reports whether ResolveRole depends on a
// collaboration row, i.e. the user is neither creator nor assignee.
func NeedsCollaborationLookup(task *Task, userID uuid.UUID) bool {
	return !task.InvolvesUser(userID)
}
