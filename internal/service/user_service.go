package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/phrazzld/taskflow-api/internal/domain"
	"github.com/phrazzld/taskflow-api/internal/platform/logger"
	"github.com/phrazzld/taskflow-api/internal/service/auth"
	"github.com/phrazzld/taskflow-api/internal/store"
)

// AuthResult is returned by a successful login or token refresh.
type AuthResult struct {
	User         *domain.User
	AccessToken  string
	RefreshToken string
}

// ProfileUpdate carries a partial profile change. Nil fields are left unchanged.
type ProfileUpdate struct {
	Name     *string
	Email    *string
	Password *string
}

// UserService provides registration, authentication and profile operations.
type UserService interface {
	Register(ctx context.Context, name, email, password string) (*domain.User, error)

	// Authenticate returns ErrInvalidCredentials for an unknown email and a
	// wrong password alike.
	Authenticate(ctx context.Context, email, password string) (*AuthResult, error)

	// RefreshTokens exchanges a refresh token for a new token pair and
	// revokes the one presented.
	RefreshTokens(ctx context.Context, refreshToken string) (*AuthResult, error)

	// Logout revokes the access token described by claims.
	Logout(ctx context.Context, claims *auth.Claims) error

	GetUser(ctx context.Context, userID uuid.UUID) (*domain.User, error)
	ListUsers(ctx context.Context) ([]*domain.User, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, update ProfileUpdate) (*domain.User, error)
	DeleteUser(ctx context.Context, userID uuid.UUID) error
}

type userServiceImpl struct {
	users    store.UserStore
	jwt      auth.JWTService
	verifier auth.PasswordVerifier
	revoker  auth.TokenRevoker
	logger   *slog.Logger
}

// NewUserService creates a UserService.
func NewUserService(
	users store.UserStore,
	jwt auth.JWTService,
	verifier auth.PasswordVerifier,
	revoker auth.TokenRevoker,
	logger *slog.Logger,
) (UserService, error) {
	switch {
	case users == nil:
		return nil, newDependencyError("user_service", "user store")
	case jwt == nil:
		return nil, newDependencyError("user_service", "jwt service")
	case verifier == nil:
		return nil, newDependencyError("user_service", "password verifier")
	case revoker == nil:
		return nil, newDependencyError("user_service", "token revoker")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &userServiceImpl{
		users:    users,
		jwt:      jwt,
		verifier: verifier,
		revoker:  revoker,
		logger:   logger.With(slog.String("component", "user_service")),
	}, nil
}

func (s *userServiceImpl) Register(ctx context.Context, name, email, password string) (*domain.User, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	user, err := domain.NewUser(name, email, password)
	if err != nil {
		return nil, wrapError("user_service", "register", "invalid user", err)
	}

	_, err = s.users.GetByEmail(ctx, user.Email)
	switch {
	case err == nil:
		return nil, ErrEmailTaken
	case !errors.Is(err, store.ErrUserNotFound):
		return nil, wrapError("user_service", "register", "failed to check email", err)
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, store.ErrEmailExists) {
			return nil, ErrEmailTaken
		}
		log.Error("failed to create user",
			slog.String("error", err.Error()),
			slog.String("user_id", user.ID.String()))
		return nil, wrapError("user_service", "register", "failed to save user", err)
	}

	log.Info("user registered", slog.String("user_id", user.ID.String()))
	return user, nil
}

func (s *userServiceImpl) Authenticate(ctx context.Context, email, password string) (*AuthResult, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	user, err := s.users.GetByEmail(ctx, domain.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			log.Debug("login attempt for unknown email")
			return nil, ErrInvalidCredentials
		}
		return nil, wrapError("user_service", "authenticate", "failed to load user", err)
	}

	if err := s.verifier.Compare(user.HashedPassword, password); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			log.Debug("login attempt with wrong password", slog.String("user_id", user.ID.String()))
			return nil, ErrInvalidCredentials
		}
		return nil, wrapError("user_service", "authenticate", "failed to verify password", err)
	}

	return s.issue(ctx, user)
}

func (s *userServiceImpl) RefreshTokens(ctx context.Context, refreshToken string) (*AuthResult, error) {
	claims, err := s.jwt.ValidateRefreshToken(ctx, refreshToken)
	if err != nil {
		return nil, err
	}

	revoked, err := s.revoker.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, wrapError("user_service", "refresh_tokens", "failed to check revocation", err)
	}
	if revoked {
		return nil, auth.ErrRevokedToken
	}

	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return nil, auth.ErrInvalidRefreshToken
		}
		return nil, wrapError("user_service", "refresh_tokens", "failed to load user", err)
	}

	// Refresh tokens are single use.
	if err := s.revoker.Revoke(ctx, claims); err != nil {
		return nil, wrapError("user_service", "refresh_tokens", "failed to revoke refresh token", err)
	}

	return s.issue(ctx, user)
}

func (s *userServiceImpl) Logout(ctx context.Context, claims *auth.Claims) error {
	if err := s.revoker.Revoke(ctx, claims); err != nil {
		if errors.Is(err, auth.ErrInvalidToken) {
			return err
		}
		return wrapError("user_service", "logout", "failed to revoke token", err)
	}
	return nil
}

func (s *userServiceImpl) GetUser(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, wrapError("user_service", "get_user", "failed to load user", err)
	}
	return user, nil
}

func (s *userServiceImpl) ListUsers(ctx context.Context) ([]*domain.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, wrapError("user_service", "list_users", "failed to list users", err)
	}
	return users, nil
}

func (s *userServiceImpl) UpdateProfile(ctx context.Context, userID uuid.UUID, update ProfileUpdate) (*domain.User, error) {
	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	if update.Name != nil {
		user.Name = strings.TrimSpace(*update.Name)
	}
	if update.Email != nil {
		email := domain.NormalizeEmail(*update.Email)
		if email != user.Email {
			existing, err := s.users.GetByEmail(ctx, email)
			switch {
			case err == nil && existing.ID != user.ID:
				return nil, ErrEmailTaken
			case err != nil && !errors.Is(err, store.ErrUserNotFound):
				return nil, wrapError("user_service", "update_profile", "failed to check email", err)
			}
		}
		user.Email = email
	}
	if update.Password != nil {
		user.Password = *update.Password
	}

	if err := s.users.Update(ctx, user); err != nil {
		switch {
		case errors.Is(err, store.ErrEmailExists):
			return nil, ErrEmailTaken
		case errors.Is(err, store.ErrUserNotFound):
			return nil, ErrUserNotFound
		}
		return nil, wrapError("user_service", "update_profile", "failed to save user", err)
	}

	logger.FromContextOrDefault(ctx, s.logger).Info("profile updated", slog.String("user_id", userID.String()))
	return user, nil
}

func (s *userServiceImpl) DeleteUser(ctx context.Context, userID uuid.UUID) error {
	if err := s.users.Delete(ctx, userID); err != nil {
		switch {
		case errors.Is(err, store.ErrUserNotFound):
			return ErrUserNotFound
		case errors.Is(err, store.ErrInvalidEntity):
			// Tasks still reference the user as creator or assignee.
			return ErrUserInUse
		}
		return wrapError("user_service", "delete_user", "failed to delete user", err)
	}

	logger.FromContextOrDefault(ctx, s.logger).Info("user deleted", slog.String("user_id", userID.String()))
	return nil
}

func (s *userServiceImpl) issue(ctx context.Context, user *domain.User) (*AuthResult, error) {
	access, err := s.jwt.GenerateToken(ctx, user.ID)
	if err != nil {
		return nil, wrapError("user_service", "issue_tokens", "failed to generate access token", err)
	}
	refresh, err := s.jwt.GenerateRefreshToken(ctx, user.ID)
	if err != nil {
		return nil, wrapError("user_service", "issue_tokens", "failed to generate refresh token", err)
	}
	return &AuthResult{User: user, AccessToken: access, RefreshToken: refresh}, nil
}
