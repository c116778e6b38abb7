package service

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskflow-api/internal/domain"
	"github.com/phrazzld/taskflow-api/internal/platform/logger"
	"github.com/phrazzld/taskflow-api/internal/store"
)

// CreateTaskInput carries the caller-controlled fields of a new task.
// Status is not part of it: new tasks always start as TODO.
type CreateTaskInput struct {
	Title          string
	Description    *string
	Priority       domain.TaskPriority
	DueDate        *time.Time
	CategoryID     *uuid.UUID
	AssignedUserID uuid.UUID // zero means the creator
	CreatedByID    uuid.UUID
}

// TaskService provides permission-gated task operations.
type TaskService interface {
	// Create stores a new TODO task and the creator's OWNER collaboration row.
	Create(ctx context.Context, input CreateTaskInput) (*domain.Task, error)

	// GetByID returns the task if the user holds any role on it.
	GetByID(ctx context.Context, id, userID uuid.UUID) (*domain.Task, error)

	// ListByUser returns tasks the user created or is assigned.
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Task, error)

	// ListByCategory returns the category's tasks visible to the user.
	ListByCategory(ctx context.Context, categoryID, userID uuid.UUID) ([]*domain.Task, error)

	// ListByStatus returns the tasks with status visible to the user.
	ListByStatus(ctx context.Context, status string, userID uuid.UUID) ([]*domain.Task, error)

	// ListAssigned returns tasks assigned to the user.
	ListAssigned(ctx context.Context, userID uuid.UUID) ([]*domain.Task, error)

	// Update applies patch if the user is OWNER or COLLABORATOR.
	Update(ctx context.Context, id uuid.UUID, patch domain.TaskPatch, userID uuid.UUID) (*domain.Task, error)

	// Delete removes the task and all of its collaboration rows. OWNER only.
	Delete(ctx context.Context, id, userID uuid.UUID) error
}

type taskServiceImpl struct {
	tasks    store.TaskStore
	collabs  store.CollaborationStore
	resolver PermissionResolver
	tx       store.Transactor
	logger   *slog.Logger
}

// NewTaskService creates a TaskService.
// It returns an error if any of the required dependencies are nil.
func NewTaskService(
	tasks store.TaskStore,
	collabs store.CollaborationStore,
	resolver PermissionResolver,
	tx store.Transactor,
	logger *slog.Logger,
) (TaskService, error) {
	switch {
	case tasks == nil:
		return nil, newDependencyError("task_service", "task store")
	case collabs == nil:
		return nil, newDependencyError("task_service", "collaboration store")
	case resolver == nil:
		return nil, newDependencyError("task_service", "permission resolver")
	case tx == nil:
		return nil, newDependencyError("task_service", "transactor")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &taskServiceImpl{
		tasks:    tasks,
		collabs:  collabs,
		resolver: resolver,
		tx:       tx,
		logger:   logger.With(slog.String("component", "task_service")),
	}, nil
}

func (s *taskServiceImpl) Create(ctx context.Context, input CreateTaskInput) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	assignee := input.AssignedUserID
	if assignee == uuid.Nil {
		assignee = input.CreatedByID
	}

	task, err := domain.NewTask(
		input.Title,
		input.Description,
		input.Priority,
		input.DueDate,
		input.CategoryID,
		assignee,
		input.CreatedByID,
	)
	if err != nil {
		return nil, wrapError("task_service", "create_task", "invalid task", err)
	}

	err = s.tx.RunInTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		tasks := s.tasks.WithTx(tx)

		if err := s.ensureTitleAvailable(ctx, tasks, task.Title, task.CategoryID, uuid.Nil); err != nil {
			return err
		}
		if err := tasks.Create(ctx, task); err != nil {
			return err
		}

		owner, err := domain.NewTaskCollaboration(task.ID, task.CreatedByID, domain.RoleOwner)
		if err != nil {
			return err
		}
		return s.collabs.WithTx(tx).Create(ctx, owner)
	})
	if err != nil {
		if !isExpected(err) {
			log.Error("failed to create task",
				slog.String("error", err.Error()),
				slog.String("user_id", input.CreatedByID.String()))
		}
		return nil, wrapError("task_service", "create_task", "failed to create task", err)
	}

	log.Info("task created",
		slog.String("task_id", task.ID.String()),
		slog.String("user_id", task.CreatedByID.String()))
	return task, nil
}

func (s *taskServiceImpl) GetByID(ctx context.Context, id, userID uuid.UUID) (*domain.Task, error) {
	task, err := s.load(ctx, s.tasks, id)
	if err != nil {
		return nil, err
	}

	role, err := s.resolver.Resolve(ctx, task, userID)
	if err != nil {
		return nil, err
	}
	if !role.CanRead() {
		return nil, ErrTaskAccessDenied
	}
	return task, nil
}

func (s *taskServiceImpl) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Task, error) {
	tasks, err := s.tasks.ListByUser(ctx, userID)
	if err != nil {
		return nil, s.listFailed(ctx, "list_by_user", userID, err)
	}
	return tasks, nil
}

func (s *taskServiceImpl) ListByCategory(ctx context.Context, categoryID, userID uuid.UUID) ([]*domain.Task, error) {
	candidates, err := s.tasks.ListByCategory(ctx, categoryID)
	if err != nil {
		return nil, s.listFailed(ctx, "list_by_category", userID, err)
	}
	return s.visibleTo(ctx, candidates, userID)
}

func (s *taskServiceImpl) ListByStatus(ctx context.Context, status string, userID uuid.UUID) ([]*domain.Task, error) {
	parsed, err := domain.ParseTaskStatus(status)
	if err != nil {
		return nil, ErrInvalidStatus
	}

	candidates, err := s.tasks.ListByStatus(ctx, parsed)
	if err != nil {
		return nil, s.listFailed(ctx, "list_by_status", userID, err)
	}
	return s.visibleTo(ctx, candidates, userID)
}

func (s *taskServiceImpl) ListAssigned(ctx context.Context, userID uuid.UUID) ([]*domain.Task, error) {
	tasks, err := s.tasks.ListByAssignee(ctx, userID)
	if err != nil {
		return nil, s.listFailed(ctx, "list_assigned", userID, err)
	}
	return tasks, nil
}

func (s *taskServiceImpl) Update(
	ctx context.Context,
	id uuid.UUID,
	patch domain.TaskPatch,
	userID uuid.UUID,
) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	task, err := s.load(ctx, s.tasks, id)
	if err != nil {
		return nil, err
	}

	role, err := s.resolver.Resolve(ctx, task, userID)
	if err != nil {
		return nil, err
	}
	if !role.CanWrite() {
		return nil, ErrTaskEditDenied
	}

	// The title is checked against the category the task is in now, not the
	// one the patch may move it to.
	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		if err := s.ensureTitleAvailable(ctx, s.tasks, title, task.CategoryID, task.ID); err != nil {
			return nil, wrapError("task_service", "update_task", "failed to check title", err)
		}
	}

	if err := task.Apply(patch); err != nil {
		return nil, wrapError("task_service", "update_task", "invalid task update", err)
	}

	if err := s.tasks.Update(ctx, task); err != nil {
		if errors.Is(err, store.ErrTaskNotFound) {
			return nil, ErrTaskNotFound
		}
		log.Error("failed to update task",
			slog.String("error", err.Error()),
			slog.String("task_id", id.String()))
		return nil, wrapError("task_service", "update_task", "failed to save task", err)
	}

	log.Debug("task updated", slog.String("task_id", id.String()), slog.String("role", string(role)))
	return task, nil
}

func (s *taskServiceImpl) Delete(ctx context.Context, id, userID uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	task, err := s.load(ctx, s.tasks, id)
	if err != nil {
		return err
	}

	role, err := s.resolver.Resolve(ctx, task, userID)
	if err != nil {
		return err
	}
	if !role.CanDelete() {
		return ErrTaskDeleteDenied
	}

	// Collaboration rows go first so a retried delete never leaves orphans.
	err = s.tx.RunInTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if err := s.collabs.WithTx(tx).DeleteByTask(ctx, id); err != nil {
			return err
		}
		return s.tasks.WithTx(tx).Delete(ctx, id)
	})
	if err != nil {
		if errors.Is(err, store.ErrTaskNotFound) {
			return ErrTaskNotFound
		}
		log.Error("failed to delete task",
			slog.String("error", err.Error()),
			slog.String("task_id", id.String()))
		return wrapError("task_service", "delete_task", "failed to delete task", err)
	}

	log.Info("task deleted", slog.String("task_id", id.String()), slog.String("user_id", userID.String()))
	return nil
}

// load fetches a task and translates the store's not-found error.
func (s *taskServiceImpl) load(ctx context.Context, tasks store.TaskStore, id uuid.UUID) (*domain.Task, error) {
	task, err := tasks.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrTaskNotFound) {
			return nil, ErrTaskNotFound
		}
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to load task",
			slog.String("error", err.Error()),
			slog.String("task_id", id.String()))
		return nil, wrapError("task_service", "get_task", "failed to load task", err)
	}
	return task, nil
}

// ensureTitleAvailable fails with ErrDuplicateTitle when a task other than
// self already uses title in the category scope.
func (s *taskServiceImpl) ensureTitleAvailable(
	ctx context.Context,
	tasks store.TaskStore,
	title string,
	categoryID *uuid.UUID,
	self uuid.UUID,
) error {
	existing, err := tasks.GetByTitleAndCategory(ctx, title, categoryID)
	switch {
	case errors.Is(err, store.ErrTaskNotFound):
		return nil
	case err != nil:
		return err
	case existing.ID != self:
		return ErrDuplicateTitle
	}
	return nil
}

// visibleTo keeps the tasks on which userID resolves to a role other than
// NONE. The resolver only queries collaboration rows for tasks the user
// neither created nor is assigned.
func (s *taskServiceImpl) visibleTo(ctx context.Context, candidates []*domain.Task, userID uuid.UUID) ([]*domain.Task, error) {
	visible := make([]*domain.Task, 0, len(candidates))
	for _, task := range candidates {
		role, err := s.resolver.Resolve(ctx, task, userID)
		if err != nil {
			return nil, err
		}
		if role.CanRead() {
			visible = append(visible, task)
		}
	}
	return visible, nil
}

func (s *taskServiceImpl) listFailed(ctx context.Context, op string, userID uuid.UUID, err error) error {
	logger.FromContextOrDefault(ctx, s.logger).Error("failed to list tasks",
		slog.String("error", err.Error()),
		slog.String("operation", op),
		slog.String("user_id", userID.String()))
	return wrapError("task_service", op, "failed to list tasks", err)
}

func newDependencyError(component, dependency string) error {
	return &ServiceError{
		Component: component,
		Operation: "create_service",
		Message:   dependency + " cannot be nil",
	}
}
