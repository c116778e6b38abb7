package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/taskflow-api/internal/domain"
	"github.com/phrazzld/taskflow-api/internal/platform/logger"
	"github.com/phrazzld/taskflow-api/internal/store"
)

// AddCollaboratorInput describes a grant.
type AddCollaboratorInput struct {
	TaskID uuid.UUID
	UserID uuid.UUID
	Role   domain.Role
}

// CollaborationService grants, revokes and inspects collaboration roles.
//
// It checks ownership on its own rather than through TaskService. The gate
// for managing collaborators is narrower than the resolver: the creator or
// an OWNER row holder qualifies, the assignee alone does not.
type CollaborationService interface {
	AddCollaborator(ctx context.Context, input AddCollaboratorInput, actingUserID uuid.UUID) (*domain.TaskCollaboration, error)
	ListForTask(ctx context.Context, taskID, actingUserID uuid.UUID) ([]*domain.TaskCollaboration, error)
	ListForUser(ctx context.Context, userID uuid.UUID) ([]*domain.TaskCollaboration, error)
	RemoveCollaborator(ctx context.Context, taskID, targetUserID, actingUserID uuid.UUID) error

	// CheckPermission returns nil when the task does not exist or the user
	// has no role on it.
	CheckPermission(ctx context.Context, taskID, userID uuid.UUID) (*domain.Role, error)
}

type collaborationServiceImpl struct {
	tasks    store.TaskStore
	collabs  store.CollaborationStore
	resolver PermissionResolver
	logger   *slog.Logger
}

// NewCollaborationService creates a CollaborationService.
func NewCollaborationService(
	tasks store.TaskStore,
	collabs store.CollaborationStore,
	resolver PermissionResolver,
	logger *slog.Logger,
) (CollaborationService, error) {
	switch {
	case tasks == nil:
		return nil, newDependencyError("collaboration_service", "task store")
	case collabs == nil:
		return nil, newDependencyError("collaboration_service", "collaboration store")
	case resolver == nil:
		return nil, newDependencyError("collaboration_service", "permission resolver")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &collaborationServiceImpl{
		tasks:    tasks,
		collabs:  collabs,
		resolver: resolver,
		logger:   logger.With(slog.String("component", "collaboration_service")),
	}, nil
}

func (s *collaborationServiceImpl) AddCollaborator(
	ctx context.Context,
	input AddCollaboratorInput,
	actingUserID uuid.UUID,
) (*domain.TaskCollaboration, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if !input.Role.Assignable() {
		return nil, ErrInvalidRole
	}

	task, err := s.loadTask(ctx, input.TaskID)
	if err != nil {
		return nil, err
	}
	if err := s.requireManager(ctx, task, actingUserID); err != nil {
		return nil, err
	}

	_, err = s.collabs.GetByTaskAndUser(ctx, task.ID, input.UserID)
	switch {
	case err == nil:
		return nil, ErrCollaboratorExists
	case !errors.Is(err, store.ErrCollaborationNotFound):
		return nil, wrapError("collaboration_service", "add_collaborator", "failed to check existing grant", err)
	}

	collab, err := domain.NewTaskCollaboration(task.ID, input.UserID, input.Role)
	if err != nil {
		return nil, wrapError("collaboration_service", "add_collaborator", "invalid collaboration", err)
	}

	if err := s.collabs.Create(ctx, collab); err != nil {
		// A concurrent grant for the same pair loses on the unique key.
		if errors.Is(err, store.ErrCollaborationExists) {
			return nil, ErrCollaboratorExists
		}
		log.Error("failed to create collaboration",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID.String()),
			slog.String("user_id", input.UserID.String()))
		return nil, wrapError("collaboration_service", "add_collaborator", "failed to save collaboration", err)
	}

	log.Info("collaborator added",
		slog.String("task_id", task.ID.String()),
		slog.String("user_id", input.UserID.String()),
		slog.String("role", string(collab.Role)))
	return collab, nil
}

func (s *collaborationServiceImpl) ListForTask(
	ctx context.Context,
	taskID, actingUserID uuid.UUID,
) ([]*domain.TaskCollaboration, error) {
	task, err := s.loadTask(ctx, taskID)
	if err != nil {
		return nil, err
	}

	if !task.InvolvesUser(actingUserID) {
		_, err := s.collabs.GetByTaskAndUser(ctx, taskID, actingUserID)
		switch {
		case errors.Is(err, store.ErrCollaborationNotFound):
			return nil, ErrCollaboratorListDenied
		case err != nil:
			return nil, wrapError("collaboration_service", "list_for_task", "failed to check access", err)
		}
	}

	rows, err := s.collabs.ListByTask(ctx, taskID)
	if err != nil {
		return nil, wrapError("collaboration_service", "list_for_task", "failed to list collaborations", err)
	}
	return rows, nil
}

func (s *collaborationServiceImpl) ListForUser(ctx context.Context, userID uuid.UUID) ([]*domain.TaskCollaboration, error) {
	rows, err := s.collabs.ListByUser(ctx, userID)
	if err != nil {
		return nil, wrapError("collaboration_service", "list_for_user", "failed to list collaborations", err)
	}
	return rows, nil
}

func (s *collaborationServiceImpl) RemoveCollaborator(
	ctx context.Context,
	taskID, targetUserID, actingUserID uuid.UUID,
) error {
	task, err := s.loadTask(ctx, taskID)
	if err != nil {
		return err
	}
	if err := s.requireManager(ctx, task, actingUserID); err != nil {
		return err
	}

	if err := s.collabs.Delete(ctx, taskID, targetUserID); err != nil {
		return wrapError("collaboration_service", "remove_collaborator", "failed to delete collaboration", err)
	}

	logger.FromContextOrDefault(ctx, s.logger).Info("collaborator removed",
		slog.String("task_id", taskID.String()),
		slog.String("user_id", targetUserID.String()))
	return nil
}

func (s *collaborationServiceImpl) CheckPermission(ctx context.Context, taskID, userID uuid.UUID) (*domain.Role, error) {
	task, err := s.loadTask(ctx, taskID)
	if errors.Is(err, ErrTaskNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	role, err := s.resolver.Resolve(ctx, task, userID)
	if err != nil {
		return nil, err
	}
	if role == domain.RoleNone {
		return nil, nil
	}
	return &role, nil
}

func (s *collaborationServiceImpl) loadTask(ctx context.Context, taskID uuid.UUID) (*domain.Task, error) {
	task, err := s.tasks.GetByID(ctx, taskID)
	if err != nil {
		if errors.Is(err, store.ErrTaskNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, wrapError("collaboration_service", "get_task", "failed to load task", err)
	}
	return task, nil
}

// requireManager allows the creator and holders of an OWNER row.
func (s *collaborationServiceImpl) requireManager(ctx context.Context, task *domain.Task, userID uuid.UUID) error {
	if task.CreatedByID == userID {
		return nil
	}

	row, err := s.collabs.GetByTaskAndUser(ctx, task.ID, userID)
	switch {
	case errors.Is(err, store.ErrCollaborationNotFound):
		return ErrCollaboratorsDenied
	case err != nil:
		return wrapError("collaboration_service", "check_owner", "failed to look up collaboration", err)
	case row.Role != domain.RoleOwner:
		return ErrCollaboratorsDenied
	}
	return nil
}
