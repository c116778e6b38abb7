package store

import (
	"context"
	"time"

	"github.com/phrazzld/taskflow-api/internal/domain"
)

// RevokedTokenStore persists the ids of tokens invalidated by logout.
type RevokedTokenStore interface {
	// Revoke records the token. Revoking the same id twice is not an error.
	Revoke(ctx context.Context, token *domain.RevokedToken) error

	// IsRevoked reports whether the id is revoked and not yet expired.
	IsRevoked(ctx context.Context, tokenID string) (bool, error)

	// DeleteExpired removes rows whose expiry is before the cutoff and
	// returns how many were removed.
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}
