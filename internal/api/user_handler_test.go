package api

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/phrazzld/taskflow-api/internal/config"
	"github.com/phrazzld/taskflow-api/internal/domain"
	"github.com/phrazzld/taskflow-api/internal/service"
	"github.com/phrazzld/taskflow-api/internal/service/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var testAuthConfig = &config.AuthConfig{TokenLifetimeMinutes: 60, RefreshTokenLifetimeMinutes: 10080}

func newUserHandler(users service.UserService) *UserHandler {
	h := NewUserHandler(users, testAuthConfig, nil)
	h.timeFunc = func() time.Time { return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC) }
	return h
}

func sampleUser(t *testing.T) *domain.User {
	t.Helper()
	u, err := domain.NewUser("Ada", "ada@example.com", "correct-horse")
	require.NoError(t, err)
	u.Password = ""
	return u
}

func TestUserHandler_Register(t *testing.T) {
	t.Parallel()

	t.Run("created", func(t *testing.T) {
		users := &mockUserService{}
		user := sampleUser(t)
		users.On("Register", mock.Anything, "Ada", "ada@example.com", "correct-horse").Return(user, nil)

		rec := serve(t, apiCall{
			method: http.MethodPost, pattern: "/users/register", path: "/users/register",
			body:    RegisterRequest{Name: "Ada", Email: "ada@example.com", Password: "correct-horse"},
			handler: newUserHandler(users).Register,
		})

		require.Equal(t, http.StatusCreated, rec.Code)
		assert.NotContains(t, rec.Body.String(), "password")
		assert.Contains(t, rec.Body.String(), user.ID.String())
	})

	t.Run("email taken", func(t *testing.T) {
		users := &mockUserService{}
		users.On("Register", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil, service.ErrEmailTaken)

		rec := serve(t, apiCall{
			method: http.MethodPost, pattern: "/users/register", path: "/users/register",
			body:    RegisterRequest{Name: "Ada", Email: "ada@example.com", Password: "correct-horse"},
			handler: newUserHandler(users).Register,
		})
		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Equal(t, "Email already exists", errorBody(t, rec).Error)
	})

	t.Run("short password", func(t *testing.T) {
		users := &mockUserService{}
		rec := serve(t, apiCall{
			method: http.MethodPost, pattern: "/users/register", path: "/users/register",
			body:    RegisterRequest{Name: "Ada", Email: "ada@example.com", Password: "short"},
			handler: newUserHandler(users).Register,
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "Invalid password: too short", errorBody(t, rec).Error)
	})
}

func TestUserHandler_Login(t *testing.T) {
	t.Parallel()

	t.Run("issues tokens", func(t *testing.T) {
		users := &mockUserService{}
		user := sampleUser(t)
		users.On("Authenticate", mock.Anything, "ada@example.com", "correct-horse").Return(&service.AuthResult{
			User: user, AccessToken: "access", RefreshToken: "refresh",
		}, nil)

		rec := serve(t, apiCall{
			method: http.MethodPost, pattern: "/users/login", path: "/users/login",
			body:    LoginRequest{Email: "ada@example.com", Password: "correct-horse"},
			handler: newUserHandler(users).Login,
		})

		require.Equal(t, http.StatusOK, rec.Code)
		var resp AuthResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "access", resp.AccessToken)
		assert.Equal(t, "refresh", resp.RefreshToken)
		assert.Equal(t, "2024-06-01T13:00:00Z", resp.ExpiresAt)
		assert.Equal(t, user.ID, resp.User.ID)
	})

	t.Run("bad credentials", func(t *testing.T) {
		users := &mockUserService{}
		users.On("Authenticate", mock.Anything, mock.Anything, mock.Anything).Return(nil, service.ErrInvalidCredentials)

		rec := serve(t, apiCall{
			method: http.MethodPost, pattern: "/users/login", path: "/users/login",
			body:    LoginRequest{Email: "ada@example.com", Password: "nope"},
			handler: newUserHandler(users).Login,
		})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "Invalid credentials", errorBody(t, rec).Error)
	})
}

func TestUserHandler_RefreshToken(t *testing.T) {
	t.Parallel()

	users := &mockUserService{}
	users.On("RefreshTokens", mock.Anything, "spent").Return(nil, auth.ErrRevokedToken)
	users.On("RefreshTokens", mock.Anything, "fresh").Return(&service.AuthResult{
		User: sampleUser(t), AccessToken: "a2", RefreshToken: "r2",
	}, nil)
	h := newUserHandler(users)

	rec := serve(t, apiCall{
		method: http.MethodPost, pattern: "/users/refresh", path: "/users/refresh",
		body: RefreshTokenRequest{RefreshToken: "fresh"}, handler: h.RefreshToken,
	})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = serve(t, apiCall{
		method: http.MethodPost, pattern: "/users/refresh", path: "/users/refresh",
		body: RefreshTokenRequest{RefreshToken: "spent"}, handler: h.RefreshToken,
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Token revoked", errorBody(t, rec).Error)
}

func TestUserHandler_Profile(t *testing.T) {
	t.Parallel()
	user := sampleUser(t)

	users := &mockUserService{}
	users.On("GetUser", mock.Anything, user.ID).Return(user, nil)
	users.On("UpdateProfile", mock.Anything, user.ID, mock.MatchedBy(func(u service.ProfileUpdate) bool {
		return u.Name != nil && *u.Name == "Ada L." && u.Email == nil && u.Password == nil
	})).Return(user, nil)
	users.On("DeleteUser", mock.Anything, user.ID).Return(service.ErrUserInUse)
	users.On("Logout", mock.Anything, mock.MatchedBy(func(c *auth.Claims) bool {
		return c.UserID == user.ID && c.ID == "test-jti"
	})).Return(nil)
	h := newUserHandler(users)

	rec := serve(t, apiCall{method: http.MethodGet, pattern: "/users/profile", path: "/users/profile",
		userID: user.ID, handler: h.GetProfile})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = serve(t, apiCall{method: http.MethodPut, pattern: "/users/profile", path: "/users/profile",
		body: map[string]any{"name": "Ada L."}, userID: user.ID, handler: h.UpdateProfile})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = serve(t, apiCall{method: http.MethodDelete, pattern: "/users/profile", path: "/users/profile",
		userID: user.ID, handler: h.DeleteProfile})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = serve(t, apiCall{method: http.MethodPost, pattern: "/users/logout", path: "/users/logout",
		userID: user.ID, handler: h.Logout})
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = serve(t, apiCall{method: http.MethodGet, pattern: "/users/profile", path: "/users/profile",
		handler: h.GetProfile})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	users.AssertExpectations(t)
}
