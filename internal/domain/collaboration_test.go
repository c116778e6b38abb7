package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveRole(t *testing.T) {
	t.Parallel()

	creator, assignee, other := uuid.New(), uuid.New(), uuid.New()
	task := &Task{ID: uuid.New(), CreatedByID: creator, AssignedUserID: assignee}

	viewerRow := &TaskCollaboration{ID: uuid.New(), TaskID: task.ID, UserID: other, Role: RoleViewer}
	ownerRowForAssignee := &TaskCollaboration{ID: uuid.New(), TaskID: task.ID, UserID: assignee, Role: RoleOwner}
	viewerRowForCreator := &TaskCollaboration{ID: uuid.New(), TaskID: task.ID, UserID: creator, Role: RoleViewer}
	foreignRow := &TaskCollaboration{ID: uuid.New(), TaskID: uuid.New(), UserID: other, Role: RoleOwner}

	tests := []struct {
		name   string
		user   uuid.UUID
		collab *TaskCollaboration
		want   Role
	}{
		{"creator is owner", creator, nil, RoleOwner},
		{"creator wins over collaboration row", creator, viewerRowForCreator, RoleOwner},
		{"assignee is collaborator", assignee, nil, RoleCollaborator},
		{"assignee ignores higher collaboration row", assignee, ownerRowForAssignee, RoleCollaborator},
		{"collaboration row used verbatim", other, viewerRow, RoleViewer},
		{"row for another task ignored", other, foreignRow, RoleNone},
		{"stranger has none", other, nil, RoleNone},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ResolveRole(task, tc.user, tc.collab))
		})
	}

	t.Run("self assigned creator is owner", func(t *testing.T) {
		self := &Task{ID: uuid.New(), CreatedByID: creator, AssignedUserID: creator}
		assert.Equal(t, RoleOwner, ResolveRole(self, creator, nil))
	})
}

func TestRoleCapabilities(t *testing.T) {
	t.Parallel()

	tests := []struct {
		role                  Role
		read, write, deleteOK bool
	}{
		{RoleOwner, true, true, true},
		{RoleCollaborator, true, true, false},
		{RoleViewer, true, false, false},
		{RoleNone, false, false, false},
	}
	for _, tc := range tests {
		t.Run(string(tc.role), func(t *testing.T) {
			assert.Equal(t, tc.read, tc.role.CanRead())
			assert.Equal(t, tc.write, tc.role.CanWrite())
			assert.Equal(t, tc.deleteOK, tc.role.CanDelete())
		})
	}
}

func TestNewTaskCollaboration(t *testing.T) {
	t.Parallel()

	taskID, userID := uuid.New(), uuid.New()
	c, err := NewTaskCollaboration(taskID, userID, RoleViewer)
	require.NoError(t, err)
	assert.Equal(t, taskID, c.TaskID)
	assert.Equal(t, userID, c.UserID)
	assert.Equal(t, RoleViewer, c.Role)

	_, err = NewTaskCollaboration(taskID, userID, RoleNone)
	assert.ErrorIs(t, err, ErrInvalidRole)

	_, err = NewTaskCollaboration(uuid.Nil, userID, RoleViewer)
	assert.ErrorIs(t, err, ErrEmptyCollaborationTaskID)
}

func TestParseRole(t *testing.T) {
	t.Parallel()

	r, err := ParseRole("viewer")
	require.NoError(t, err)
	assert.Equal(t, RoleViewer, r)

	_, err = ParseRole("none")
	assert.ErrorIs(t, err, ErrInvalidRole)
}
