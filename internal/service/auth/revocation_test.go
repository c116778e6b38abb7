package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskflow-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func bcryptHash(password string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	return string(h), err
}

type memRevokedTokens struct {
	rows map[string]*domain.RevokedToken
	err  error
}

func newMemRevokedTokens() *memRevokedTokens {
	return &memRevokedTokens{rows: make(map[string]*domain.RevokedToken)}
}

func (m *memRevokedTokens) Revoke(_ context.Context, token *domain.RevokedToken) error {
	if m.err != nil {
		return m.err
	}
	if _, ok := m.rows[token.TokenID]; !ok {
		m.rows[token.TokenID] = token
	}
	return nil
}

func (m *memRevokedTokens) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	_, ok := m.rows[tokenID]
	return ok, nil
}

func (m *memRevokedTokens) DeleteExpired(_ context.Context, before time.Time) (int64, error) {
	var n int64
	for id, row := range m.rows {
		if row.ExpiresAt.Before(before) {
			delete(m.rows, id)
			n++
		}
	}
	return n, nil
}

func TestTokenRevoker(t *testing.T) {
	t.Parallel()

	_, err := NewTokenRevoker(nil, nil)
	require.Error(t, err)

	tokens := newMemRevokedTokens()
	revoker, err := NewTokenRevoker(tokens, nil)
	require.NoError(t, err)
	ctx := context.Background()

	claims := &Claims{
		UserID:    uuid.New(),
		ID:        "jti-1",
		ExpiresAt: time.Now().Add(-time.Minute),
	}

	revoked, err := revoker.IsRevoked(ctx, claims.ID)
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, revoker.Revoke(ctx, claims))
	require.NoError(t, revoker.Revoke(ctx, claims), "revoking twice is allowed")

	revoked, err = revoker.IsRevoked(ctx, claims.ID)
	require.NoError(t, err)
	assert.True(t, revoked)

	live := &Claims{UserID: claims.UserID, ID: "jti-2", ExpiresAt: time.Now().Add(time.Hour)}
	require.NoError(t, revoker.Revoke(ctx, live))

	n, err := revoker.PurgeExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Contains(t, tokens.rows, "jti-2")

	assert.ErrorIs(t, revoker.Revoke(ctx, &Claims{}), ErrInvalidToken)
	assert.ErrorIs(t, revoker.Revoke(ctx, nil), ErrInvalidToken)
}

func TestTokenRevoker_WrapsStoreErrors(t *testing.T) {
	t.Parallel()

	boom := errors.New("connection refused")
	tokens := newMemRevokedTokens()
	tokens.err = boom

	revoker, err := NewTokenRevoker(tokens, nil)
	require.NoError(t, err)

	_, err = revoker.IsRevoked(context.Background(), "jti")
	assert.ErrorIs(t, err, boom)

	err = revoker.Revoke(context.Background(), &Claims{ID: "jti", ExpiresAt: time.Now()})
	assert.ErrorIs(t, err, boom)
}
