package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/phrazzld/taskflow-api/internal/domain"
)

// TaskStore defines the interface for task persistence. All list methods
// return tasks ordered by created_at descending and an empty slice, never
// nil, when nothing matches.
type TaskStore interface {
	// Create inserts a task.
	Create(ctx context.Context, task *domain.Task) error

	// GetByID returns the task or ErrTaskNotFound.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error)

	// GetByTitleAndCategory finds a task with exactly this title in the given
	// category scope. A nil categoryID matches tasks without a category.
	// Returns ErrTaskNotFound when there is none.
	GetByTitleAndCategory(ctx context.Context, title string, categoryID *uuid.UUID) (*domain.Task, error)

	// ListByUser returns tasks the user created or is assigned.
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Task, error)

	// ListByCategory returns every task referencing the category.
	ListByCategory(ctx context.Context, categoryID uuid.UUID) ([]*domain.Task, error)

	// ListByStatus returns every task in the given status.
	ListByStatus(ctx context.Context, status domain.TaskStatus) ([]*domain.Task, error)

	// ListByAssignee returns tasks assigned to the user.
	ListByAssignee(ctx context.Context, userID uuid.UUID) ([]*domain.Task, error)

	// ListByCreator returns tasks created by the user.
	ListByCreator(ctx context.Context, userID uuid.UUID) ([]*domain.Task, error)

	// Update persists every mutable field. Returns ErrTaskNotFound if absent.
	Update(ctx context.Context, task *domain.Task) error

	// Delete removes the task. Returns ErrTaskNotFound if absent.
	Delete(ctx context.Context, id uuid.UUID) error

	// WithTx returns a TaskStore bound to tx.
	WithTx(tx *sql.Tx) TaskStore
}
