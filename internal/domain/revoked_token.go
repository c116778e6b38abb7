package domain

import (
	"time"

	"github.com/google/uuid"
)

// RevokedToken records a JWT id that must no longer be accepted. The row is
// only meaningful until ExpiresAt, after which the token is invalid anyway.
type RevokedToken struct {
	TokenID   string
	UserID    uuid.UUID
	ExpiresAt time.Time
	CreatedAt time.Time
}
