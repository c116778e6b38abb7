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

// PermissionResolver computes a user's role on a task.
type PermissionResolver interface {
	// Resolve returns OWNER for the creator, COLLABORATOR for the assignee,
	// the stored role for a collaboration row holder, and NONE otherwise.
	// The collaboration store is only consulted in the last case.
	Resolve(ctx context.Context, task *domain.Task, userID uuid.UUID) (domain.Role, error)
}

type permissionResolver struct {
	collabs store.CollaborationStore
	logger  *slog.Logger
}

// NewPermissionResolver creates a PermissionResolver backed by collabs.
func NewPermissionResolver(collabs store.CollaborationStore, logger *slog.Logger) (PermissionResolver, error) {
	if collabs == nil {
		return nil, newDependencyError("permission_resolver", "collaboration store")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &permissionResolver{
		collabs: collabs,
		logger:  logger.With(slog.String("component", "permission_resolver")),
	}, nil
}

// Resolve implements PermissionResolver.
func (r *permissionResolver) Resolve(ctx context.Context, task *domain.Task, userID uuid.UUID) (domain.Role, error) {
	if task == nil {
		return domain.RoleNone, ErrNilTask
	}
	if !domain.NeedsCollaborationLookup(task, userID) {
		return domain.ResolveRole(task, userID, nil), nil
	}

	row, err := r.collabs.GetByTaskAndUser(ctx, task.ID, userID)
	switch {
	case errors.Is(err, store.ErrCollaborationNotFound):
		return domain.RoleNone, nil
	case err != nil:
		logger.FromContextOrDefault(ctx, r.logger).Error("failed to look up collaboration",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID.String()),
			slog.String("user_id", userID.String()))
		return domain.RoleNone, wrapError("permission_resolver", "resolve", "failed to look up collaboration", err)
	}

	return domain.ResolveRole(task, userID, row), nil
}
