package postgres

import (
	"context"
	"log/slog"
	"time"

	"github.com/phrazzld/taskflow-api/internal/domain"
	"github.com/phrazzld/taskflow-api/internal/platform/logger"
	"github.com/phrazzld/taskflow-api/internal/store"
)

// PostgresRevokedTokenStore implements store.RevokedTokenStore on PostgreSQL.
type PostgresRevokedTokenStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresRevokedTokenStore creates a new PostgreSQL implementation of the RevokedTokenStore interface.
func NewPostgresRevokedTokenStore(db store.DBTX, logger *slog.Logger) *PostgresRevokedTokenStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresRevokedTokenStore{
		db:     db,
		logger: logger.With(slog.String("component", "revoked_token_store")),
	}
}

var _ store.RevokedTokenStore = (*PostgresRevokedTokenStore)(nil)

// Revoke implements store.RevokedTokenStore.Revoke
func (s *PostgresRevokedTokenStore) Revoke(ctx context.Context, t *domain.RevokedToken) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	createdAt := t.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO revoked_tokens (token_id, user_id, expires_at, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (token_id) DO NOTHING
	`, t.TokenID, t.UserID, t.ExpiresAt.UTC(), createdAt)
	if err != nil {
		log.Error("failed to revoke token",
			slog.String("error", err.Error()),
			slog.String("user_id", t.UserID.String()))
		return MapError(err)
	}

	log.Info("token revoked",
		slog.String("user_id", t.UserID.String()),
		slog.Time("expires_at", t.ExpiresAt))
	return nil
}

// IsRevoked implements store.RevokedTokenStore.IsRevoked
func (s *PostgresRevokedTokenStore) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var revoked bool
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM revoked_tokens WHERE token_id = $1 AND expires_at > NOW()
		)
	`, tokenID).Scan(&revoked)
	if err != nil {
		log.Error("failed to check token revocation", slog.String("error", err.Error()))
		return false, MapError(err)
	}
	return revoked, nil
}

// DeleteExpired implements store.RevokedTokenStore.DeleteExpired
func (s *PostgresRevokedTokenStore) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx, `DELETE FROM revoked_tokens WHERE expires_at < $1`, before.UTC())
	if err != nil {
		log.Error("failed to purge expired tokens", slog.String("error", err.Error()))
		return 0, MapError(err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	log.Debug("purged expired revoked tokens", slog.Int64("count", n))
	return n, nil
}
