package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/phrazzld/taskflow-api/internal/domain"
	"github.com/phrazzld/taskflow-api/internal/platform/logger"
	"github.com/phrazzld/taskflow-api/internal/store"
)

// TokenRevoker tracks tokens invalidated before their natural expiry.
type TokenRevoker interface {
	// Revoke blacklists the token identified by claims until it expires.
	Revoke(ctx context.Context, claims *Claims) error

	// IsRevoked reports whether the token id has been revoked.
	IsRevoked(ctx context.Context, tokenID string) (bool, error)

	// PurgeExpired drops revocations for tokens that have expired anyway.
	PurgeExpired(ctx context.Context) (int64, error)
}

type storeRevoker struct {
	tokens   store.RevokedTokenStore
	timeFunc func() time.Time
	logger   *slog.Logger
}

// NewTokenRevoker creates a TokenRevoker backed by tokens.
func NewTokenRevoker(tokens store.RevokedTokenStore, logger *slog.Logger) (TokenRevoker, error) {
	if tokens == nil {
		return nil, errors.New("revoked token store cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &storeRevoker{
		tokens:   tokens,
		timeFunc: time.Now,
		logger:   logger.With(slog.String("component", "token_revoker")),
	}, nil
}

func (r *storeRevoker) Revoke(ctx context.Context, claims *Claims) error {
	if claims == nil || claims.ID == "" {
		return ErrInvalidToken
	}

	err := r.tokens.Revoke(ctx, &domain.RevokedToken{
		TokenID:   claims.ID,
		UserID:    claims.UserID,
		ExpiresAt: claims.ExpiresAt,
		CreatedAt: r.timeFunc().UTC(),
	})
	if err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}

	logger.FromContextOrDefault(ctx, r.logger).Info("token revoked",
		slog.String("user_id", claims.UserID.String()),
		slog.String("token_id", claims.ID))
	return nil
}

func (r *storeRevoker) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	revoked, err := r.tokens.IsRevoked(ctx, tokenID)
	if err != nil {
		return false, fmt.Errorf("failed to check token revocation: %w", err)
	}
	return revoked, nil
}

func (r *storeRevoker) PurgeExpired(ctx context.Context) (int64, error) {
	n, err := r.tokens.DeleteExpired(ctx, r.timeFunc().UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to purge revoked tokens: %w", err)
	}
	if n > 0 {
		logger.FromContextOrDefault(ctx, r.logger).Info("purged expired revocations", slog.Int64("count", n))
	}
	return n, nil
}
