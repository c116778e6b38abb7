package postgres

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/taskflow-api/internal/domain"
	"github.com/phrazzld/taskflow-api/internal/platform/logger"
	"github.com/phrazzld/taskflow-api/internal/store"
)

// PostgresCollaborationStore implements store.CollaborationStore on PostgreSQL.
// The (task_id, user_id) unique constraint backs the one-row-per-pair rule.
type PostgresCollaborationStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresCollaborationStore creates a new PostgreSQL implementation of the CollaborationStore interface.
func NewPostgresCollaborationStore(db store.DBTX, logger *slog.Logger) *PostgresCollaborationStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresCollaborationStore{
		db:     db,
		logger: logger.With(slog.String("component", "collaboration_store")),
	}
}

var _ store.CollaborationStore = (*PostgresCollaborationStore)(nil)

// WithTx implements store.CollaborationStore.WithTx
func (s *PostgresCollaborationStore) WithTx(tx *sql.Tx) store.CollaborationStore {
	return &PostgresCollaborationStore{db: tx, logger: s.logger}
}

const collaborationColumns = `id, task_id, user_id, role, created_at`

// Create implements store.CollaborationStore.Create
func (s *PostgresCollaborationStore) Create(ctx context.Context, c *domain.TaskCollaboration) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := c.Validate(); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO task_collaborations (`+collaborationColumns+`)
		VALUES ($1, $2, $3, $4, $5)
	`, c.ID, c.TaskID, c.UserID, string(c.Role), c.CreatedAt)
	if err != nil {
		if IsUniqueViolation(err) {
			log.Debug("collaboration already exists",
				slog.String("task_id", c.TaskID.String()),
				slog.String("user_id", c.UserID.String()))
			return MapUniqueViolation(err, store.ErrCollaborationExists)
		}
		log.Error("failed to create collaboration",
			slog.String("error", err.Error()),
			slog.String("task_id", c.TaskID.String()),
			slog.String("user_id", c.UserID.String()))
		return MapError(err)
	}

	log.Info("collaboration created",
		slog.String("task_id", c.TaskID.String()),
		slog.String("user_id", c.UserID.String()),
		slog.String("role", string(c.Role)))
	return nil
}

// GetByTaskAndUser implements store.CollaborationStore.GetByTaskAndUser
func (s *PostgresCollaborationStore) GetByTaskAndUser(
	ctx context.Context,
	taskID, userID uuid.UUID,
) (*domain.TaskCollaboration, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	c, err := scanCollaboration(s.db.QueryRowContext(ctx, `
		SELECT `+collaborationColumns+`
		FROM task_collaborations
		WHERE task_id = $1 AND user_id = $2
	`, taskID, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrCollaborationNotFound
		}
		log.Error("failed to get collaboration",
			slog.String("error", err.Error()),
			slog.String("task_id", taskID.String()),
			slog.String("user_id", userID.String()))
		return nil, MapError(err)
	}
	return c, nil
}

// ListByTask implements store.CollaborationStore.ListByTask
func (s *PostgresCollaborationStore) ListByTask(ctx context.Context, taskID uuid.UUID) ([]*domain.TaskCollaboration, error) {
	return s.list(ctx, `WHERE task_id = $1`, taskID)
}

// ListByUser implements store.CollaborationStore.ListByUser
func (s *PostgresCollaborationStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.TaskCollaboration, error) {
	return s.list(ctx, `WHERE user_id = $1`, userID)
}

func (s *PostgresCollaborationStore) list(ctx context.Context, where string, id uuid.UUID) ([]*domain.TaskCollaboration, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+collaborationColumns+` FROM task_collaborations `+where+` ORDER BY created_at`, id)
	if err != nil {
		log.Error("failed to query collaborations", slog.String("error", err.Error()))
		return nil, MapError(err)
	}
	defer closeRows(rows, log)

	collabs := []*domain.TaskCollaboration{}
	for rows.Next() {
		c, err := scanCollaboration(rows)
		if err != nil {
			log.Error("failed to scan collaboration row", slog.String("error", err.Error()))
			return nil, err
		}
		collabs = append(collabs, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return collabs, nil
}

// Delete implements store.CollaborationStore.Delete
func (s *PostgresCollaborationStore) Delete(ctx context.Context, taskID, userID uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx,
		`DELETE FROM task_collaborations WHERE task_id = $1 AND user_id = $2`, taskID, userID)
	if err != nil {
		log.Error("failed to delete collaboration",
			slog.String("error", err.Error()),
			slog.String("task_id", taskID.String()),
			slog.String("user_id", userID.String()))
		return MapError(err)
	}

	n, _ := result.RowsAffected()
	log.Info("collaboration removed",
		slog.String("task_id", taskID.String()),
		slog.String("user_id", userID.String()),
		slog.Int64("rows", n))
	return nil
}

// DeleteByTask implements store.CollaborationStore.DeleteByTask
func (s *PostgresCollaborationStore) DeleteByTask(ctx context.Context, taskID uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx, `DELETE FROM task_collaborations WHERE task_id = $1`, taskID)
	if err != nil {
		log.Error("failed to delete task collaborations",
			slog.String("error", err.Error()),
			slog.String("task_id", taskID.String()))
		return MapError(err)
	}

	n, _ := result.RowsAffected()
	log.Debug("task collaborations removed",
		slog.String("task_id", taskID.String()),
		slog.Int64("rows", n))
	return nil
}

func scanCollaboration(row rowScanner) (*domain.TaskCollaboration, error) {
	var (
		c    domain.TaskCollaboration
		role string
	)
	if err := row.Scan(&c.ID, &c.TaskID, &c.UserID, &role, &c.CreatedAt); err != nil {
		return nil, err
	}
	c.Role = domain.Role(role)
	return &c, nil
}
