package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/phrazzld/taskflow-api/internal/domain"
)

// CollaborationStore defines the interface for task collaboration rows.
type CollaborationStore interface {
	// Create inserts a row. Returns ErrCollaborationExists when a row for
	// the same (task, user) pair already exists.
	Create(ctx context.Context, collab *domain.TaskCollaboration) error

	// GetByTaskAndUser returns the row for the pair or ErrCollaborationNotFound.
	GetByTaskAndUser(ctx context.Context, taskID, userID uuid.UUID) (*domain.TaskCollaboration, error)

	// ListByTask returns every row for the task.
	ListByTask(ctx context.Context, taskID uuid.UUID) ([]*domain.TaskCollaboration, error)

	// ListByUser returns every row held by the user.
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.TaskCollaboration, error)

	// Delete removes the row for the pair. Deleting a missing row is not an error.
	Delete(ctx context.Context, taskID, userID uuid.UUID) error

	// DeleteByTask removes every row for the task.
	DeleteByTask(ctx context.Context, taskID uuid.UUID) error

	// WithTx returns a CollaborationStore bound to tx.
	WithTx(tx *sql.Tx) CollaborationStore
}
