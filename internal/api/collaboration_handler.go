package api

import (
	"log/slog"
	"net/http"

	"github.com/phrazzld/taskflow-api/internal/api/shared"
	"github.com/phrazzld/taskflow-api/internal/domain"
	"github.com/phrazzld/taskflow-api/internal/platform/logger"
	"github.com/phrazzld/taskflow-api/internal/service"
)

// CollaborationHandler serves collaborator management and permission checks.
type CollaborationHandler struct {
	collabs service.CollaborationService
	logger  *slog.Logger
}

// NewCollaborationHandler creates a CollaborationHandler.
func NewCollaborationHandler(collabs service.CollaborationService, logger *slog.Logger) *CollaborationHandler {
	if collabs == nil {
		// ALLOW-PANIC: constructor enforcing required dependency
		panic("collaboration service cannot be nil for CollaborationHandler")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CollaborationHandler{
		collabs: collabs,
		logger:  logger.With(slog.String("component", "collaboration_handler")),
	}
}

// AddCollaborator handles POST /collaborations.
func (h *CollaborationHandler) AddCollaborator(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	var req AddCollaboratorRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	role, err := domain.ParseRole(req.Role)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	collab, err := h.collabs.AddCollaborator(r.Context(), service.AddCollaboratorInput{
		TaskID: req.TaskID,
		UserID: req.UserID,
		Role:   role,
	}, userID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to add collaborator")
		return
	}

	logger.FromContextOrDefault(r.Context(), h.logger).Info("collaborator added",
		slog.String("task_id", collab.TaskID.String()),
		slog.String("collaborator_id", collab.UserID.String()),
		slog.String("role", string(collab.Role)))
	shared.RespondWithJSON(w, r, http.StatusCreated, collab)
}

// ListMyCollaborations handles GET /collaborations/user.
func (h *CollaborationHandler) ListMyCollaborations(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	h.respondList(w, r)(h.collabs.ListForUser(r.Context(), userID))
}

// ListTaskCollaborators handles GET /collaborations/task/{taskId}.
func (h *CollaborationHandler) ListTaskCollaborators(w http.ResponseWriter, r *http.Request) {
	userID, taskID, ok := handleUserIDAndPathUUID(w, r, "taskId")
	if !ok {
		return
	}
	h.respondList(w, r)(h.collabs.ListForTask(r.Context(), taskID, userID))
}

// RemoveCollaborator handles DELETE /collaborations/task/{taskId}/user/{userId}.
func (h *CollaborationHandler) RemoveCollaborator(w http.ResponseWriter, r *http.Request) {
	actingID, taskID, ok := handleUserIDAndPathUUID(w, r, "taskId")
	if !ok {
		return
	}
	targetID, err := getPathUUID(r, "userId")
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid userId")
		return
	}

	if err := h.collabs.RemoveCollaborator(r.Context(), taskID, targetID, actingID); err != nil {
		HandleAPIError(w, r, err, "Failed to remove collaborator")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CheckPermission handles GET /collaborations/permission/{taskId}.
func (h *CollaborationHandler) CheckPermission(w http.ResponseWriter, r *http.Request) {
	userID, taskID, ok := handleUserIDAndPathUUID(w, r, "taskId")
	if !ok {
		return
	}
	role, err := h.collabs.CheckPermission(r.Context(), taskID, userID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to check permission")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, PermissionResponse{TaskID: taskID, Role: role})
}

func (h *CollaborationHandler) respondList(w http.ResponseWriter, r *http.Request) func([]*domain.TaskCollaboration, error) {
	return func(rows []*domain.TaskCollaboration, err error) {
		if err != nil {
			HandleAPIError(w, r, err, "Failed to list collaborations")
			return
		}
		if rows == nil {
			rows = []*domain.TaskCollaboration{}
		}
		shared.RespondWithJSON(w, r, http.StatusOK, rows)
	}
}
