package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/phrazzld/taskflow-api/internal/domain"
	"github.com/phrazzld/taskflow-api/internal/platform/logger"
	"github.com/phrazzld/taskflow-api/internal/store"
)

// CreateCategoryInput carries the fields of a new category.
type CreateCategoryInput struct {
	Name        string
	Description *string
	Color       *string
	UserID      uuid.UUID
}

// CategoryService provides owner-scoped category operations. Category names
// are unique per owner, compared exactly.
type CategoryService interface {
	Create(ctx context.Context, input CreateCategoryInput) (*domain.Category, error)
	GetByID(ctx context.Context, id, userID uuid.UUID) (*domain.Category, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Category, error)
	Update(ctx context.Context, id uuid.UUID, patch domain.CategoryPatch, userID uuid.UUID) (*domain.Category, error)

	// Delete leaves tasks that reference the category untouched.
	Delete(ctx context.Context, id, userID uuid.UUID) error
}

type categoryServiceImpl struct {
	categories store.CategoryStore
	logger     *slog.Logger
}

// NewCategoryService creates a CategoryService.
func NewCategoryService(categories store.CategoryStore, logger *slog.Logger) (CategoryService, error) {
	if categories == nil {
		return nil, newDependencyError("category_service", "category store")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &categoryServiceImpl{
		categories: categories,
		logger:     logger.With(slog.String("component", "category_service")),
	}, nil
}

func (s *categoryServiceImpl) Create(ctx context.Context, input CreateCategoryInput) (*domain.Category, error) {
	category, err := domain.NewCategory(input.Name, input.Description, input.Color, input.UserID)
	if err != nil {
		return nil, wrapError("category_service", "create_category", "invalid category", err)
	}

	if err := s.ensureNameAvailable(ctx, category.Name, input.UserID, uuid.Nil); err != nil {
		return nil, err
	}

	if err := s.categories.Create(ctx, category); err != nil {
		return nil, s.saveFailed(ctx, "create_category", category.ID, err)
	}

	logger.FromContextOrDefault(ctx, s.logger).Info("category created",
		slog.String("category_id", category.ID.String()),
		slog.String("user_id", input.UserID.String()))
	return category, nil
}

func (s *categoryServiceImpl) GetByID(ctx context.Context, id, userID uuid.UUID) (*domain.Category, error) {
	return s.loadOwned(ctx, id, userID)
}

func (s *categoryServiceImpl) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Category, error) {
	categories, err := s.categories.ListByUser(ctx, userID)
	if err != nil {
		return nil, wrapError("category_service", "list_categories", "failed to list categories", err)
	}
	return categories, nil
}

func (s *categoryServiceImpl) Update(
	ctx context.Context,
	id uuid.UUID,
	patch domain.CategoryPatch,
	userID uuid.UUID,
) (*domain.Category, error) {
	category, err := s.loadOwned(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name != category.Name {
			if err := s.ensureNameAvailable(ctx, name, userID, category.ID); err != nil {
				return nil, err
			}
		}
	}

	if err := category.Apply(patch); err != nil {
		return nil, wrapError("category_service", "update_category", "invalid category update", err)
	}

	if err := s.categories.Update(ctx, category); err != nil {
		return nil, s.saveFailed(ctx, "update_category", id, err)
	}
	return category, nil
}

func (s *categoryServiceImpl) Delete(ctx context.Context, id, userID uuid.UUID) error {
	if _, err := s.loadOwned(ctx, id, userID); err != nil {
		return err
	}

	if err := s.categories.Delete(ctx, id); err != nil {
		if errors.Is(err, store.ErrCategoryNotFound) {
			return ErrCategoryNotFound
		}
		return wrapError("category_service", "delete_category", "failed to delete category", err)
	}

	logger.FromContextOrDefault(ctx, s.logger).Info("category deleted",
		slog.String("category_id", id.String()),
		slog.String("user_id", userID.String()))
	return nil
}

// loadOwned fetches the category and checks that userID owns it.
func (s *categoryServiceImpl) loadOwned(ctx context.Context, id, userID uuid.UUID) (*domain.Category, error) {
	category, err := s.categories.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrCategoryNotFound) {
			return nil, ErrCategoryNotFound
		}
		return nil, wrapError("category_service", "get_category", "failed to load category", err)
	}
	if category.UserID != userID {
		return nil, ErrCategoryAccessDenied
	}
	return category, nil
}

func (s *categoryServiceImpl) ensureNameAvailable(ctx context.Context, name string, userID, self uuid.UUID) error {
	existing, err := s.categories.GetByNameAndUser(ctx, name, userID)
	switch {
	case errors.Is(err, store.ErrCategoryNotFound):
		return nil
	case err != nil:
		return wrapError("category_service", "check_name", "failed to check category name", err)
	case existing.ID != self:
		return ErrDuplicateCategoryName
	}
	return nil
}

func (s *categoryServiceImpl) saveFailed(ctx context.Context, op string, id uuid.UUID, err error) error {
	switch {
	case errors.Is(err, store.ErrCategoryNameExists):
		return ErrDuplicateCategoryName
	case errors.Is(err, store.ErrCategoryNotFound):
		return ErrCategoryNotFound
	}
	logger.FromContextOrDefault(ctx, s.logger).Error("failed to save category",
		slog.String("error", err.Error()),
		slog.String("operation", op),
		slog.String("category_id", id.String()))
	return wrapError("category_service", op, "failed to save category", err)
}
