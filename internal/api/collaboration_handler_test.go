package api

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/phrazzld/taskflow-api/internal/domain"
	"github.com/phrazzld/taskflow-api/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestCollaborationHandler_AddCollaborator(t *testing.T) {
	t.Parallel()
	owner, target, taskID := uuid.New(), uuid.New(), uuid.New()

	t.Run("role is case insensitive", func(t *testing.T) {
		collabs := &mockCollaborationService{}
		row, err := domain.NewTaskCollaboration(taskID, target, domain.RoleViewer)
		require.NoError(t, err)
		collabs.On("AddCollaborator", mock.Anything, service.AddCollaboratorInput{
			TaskID: taskID, UserID: target, Role: domain.RoleViewer,
		}, owner).Return(row, nil)

		rec := serve(t, apiCall{
			method: http.MethodPost, pattern: "/collaborations", path: "/collaborations",
			body:   map[string]any{"task_id": taskID, "user_id": target, "role": "viewer"},
			userID: owner, handler: NewCollaborationHandler(collabs, nil).AddCollaborator,
		})
		assert.Equal(t, http.StatusCreated, rec.Code)
		collabs.AssertExpectations(t)
	})

	t.Run("unknown role", func(t *testing.T) {
		collabs := &mockCollaborationService{}
		rec := serve(t, apiCall{
			method: http.MethodPost, pattern: "/collaborations", path: "/collaborations",
			body:   map[string]any{"task_id": taskID, "user_id": target, "role": "ADMIN"},
			userID: owner, handler: NewCollaborationHandler(collabs, nil).AddCollaborator,
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		collabs.AssertNotCalled(t, "AddCollaborator", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("service outcomes", func(t *testing.T) {
		for err, status := range map[error]int{
			service.ErrCollaboratorsDenied: http.StatusForbidden,
			service.ErrCollaboratorExists:  http.StatusConflict,
			service.ErrTaskNotFound:        http.StatusNotFound,
		} {
			collabs := &mockCollaborationService{}
			collabs.On("AddCollaborator", mock.Anything, mock.Anything, owner).Return(nil, err)
			rec := serve(t, apiCall{
				method: http.MethodPost, pattern: "/collaborations", path: "/collaborations",
				body:   map[string]any{"task_id": taskID, "user_id": target, "role": "OWNER"},
				userID: owner, handler: NewCollaborationHandler(collabs, nil).AddCollaborator,
			})
			assert.Equal(t, status, rec.Code, err.Error())
		}
	})
}

func TestCollaborationHandler_RemoveAndList(t *testing.T) {
	t.Parallel()
	owner, target, taskID := uuid.New(), uuid.New(), uuid.New()

	collabs := &mockCollaborationService{}
	collabs.On("RemoveCollaborator", mock.Anything, taskID, target, owner).Return(nil)
	collabs.On("ListForTask", mock.Anything, taskID, owner).Return(nil, nil)
	collabs.On("ListForUser", mock.Anything, owner).Return([]*domain.TaskCollaboration{}, nil)
	h := NewCollaborationHandler(collabs, nil)

	rec := serve(t, apiCall{
		method:  http.MethodDelete,
		pattern: "/collaborations/task/{taskId}/user/{userId}",
		path:    "/collaborations/task/" + taskID.String() + "/user/" + target.String(),
		userID:  owner, handler: h.RemoveCollaborator,
	})
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = serve(t, apiCall{
		method:  http.MethodDelete,
		pattern: "/collaborations/task/{taskId}/user/{userId}",
		path:    "/collaborations/task/" + taskID.String() + "/user/nope",
		userID:  owner, handler: h.RemoveCollaborator,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(t, apiCall{
		method: http.MethodGet, pattern: "/collaborations/task/{taskId}",
		path:   "/collaborations/task/" + taskID.String(),
		userID: owner, handler: h.ListTaskCollaborators,
	})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	rec = serve(t, apiCall{
		method: http.MethodGet, pattern: "/collaborations/user", path: "/collaborations/user",
		userID: owner, handler: h.ListMyCollaborations,
	})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCollaborationHandler_CheckPermission(t *testing.T) {
	t.Parallel()
	userID, taskID, hidden := uuid.New(), uuid.New(), uuid.New()
	owner := domain.RoleOwner

	collabs := &mockCollaborationService{}
	collabs.On("CheckPermission", mock.Anything, taskID, userID).Return(&owner, nil)
	collabs.On("CheckPermission", mock.Anything, hidden, userID).Return(nil, nil)
	h := NewCollaborationHandler(collabs, nil)

	rec := serve(t, apiCall{
		method: http.MethodGet, pattern: "/collaborations/permission/{taskId}",
		path:   "/collaborations/permission/" + taskID.String(),
		userID: userID, handler: h.CheckPermission,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	var resp PermissionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.Role)
	assert.Equal(t, domain.RoleOwner, *resp.Role)

	rec = serve(t, apiCall{
		method: http.MethodGet, pattern: "/collaborations/permission/{taskId}",
		path:   "/collaborations/permission/" + hidden.String(),
		userID: userID, handler: h.CheckPermission,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"task_id":"`+hidden.String()+`","role":null}`, rec.Body.String())
}
