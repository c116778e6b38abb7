package scheduler

import (
	"context"
	"fmt"
)

// TokenCleanupJobName identifies the revoked token purge.
const TokenCleanupJobName = "revoked_token_cleanup"

// Purger removes expired revocation records.
type Purger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

// TokenCleanupJob returns a Job that purges revocations of expired tokens.
func TokenCleanupJob(p Purger) Job {
	return func(ctx context.Context) error {
		if _, err := p.PurgeExpired(ctx); err != nil {
			return fmt.Errorf("token cleanup: %w", err)
		}
		return nil
	}
}
