package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/phrazzld/taskflow-api/internal/domain"
)

// CategoryStore defines the interface for category persistence.
type CategoryStore interface {
	// Create inserts a category. Returns ErrCategoryNameExists when the
	// owner already has a category with that name.
	Create(ctx context.Context, category *domain.Category) error

	// GetByID returns the category or ErrCategoryNotFound.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Category, error)

	// GetByNameAndUser returns the owner's category with exactly that name,
	// or ErrCategoryNotFound.
	GetByNameAndUser(ctx context.Context, name string, userID uuid.UUID) (*domain.Category, error)

	// ListByUser returns the owner's categories ordered by name.
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Category, error)

	// Update persists name, description and color.
	Update(ctx context.Context, category *domain.Category) error

	// Delete removes the category. Tasks referencing it are left untouched.
	Delete(ctx context.Context, id uuid.UUID) error

	// WithTx returns a CategoryStore bound to tx.
	WithTx(tx *sql.Tx) CategoryStore
}
