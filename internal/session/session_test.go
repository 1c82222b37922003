package session

import (
	"context"
	"testing"
	"time"

	"github.com/99designs/keyring"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/storefront/internal/credential"
	"github.com/nhle/storefront/internal/store"
)

func newManager(t *testing.T) *Manager {
	t.Helper()
	device, err := store.NewDeviceStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = device.Close() })
	return NewManager(device, credential.New(keyring.NewArrayKeyring(nil)))
}

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "7",
		ExpiresAt: jwt.NewNumericDate(exp),
	})
	s, err := tok.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return s
}

func TestManagerSaveRestoreClear(t *testing.T) {
	ctx := context.Background()
	m := newManager(t)
	now := time.Now()

	_, err := m.Restore(ctx)
	assert.ErrorIs(t, err, ErrNoSession)
	assert.False(t, m.IsLoggedIn(ctx, now))

	want := Session{UserID: 7, Token: "opaque", Name: "Awa Diallo", Email: "awa@example.com"}
	require.NoError(t, m.Save(ctx, want))

	got, err := m.Restore(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.True(t, m.IsLoggedIn(ctx, now))

	require.NoError(t, m.Clear(ctx))
	_, err = m.Restore(ctx)
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestSaveRejectsAnonymousSession(t *testing.T) {
	assert.Error(t, newManager(t).Save(context.Background(), Session{Token: "x"}))
}

func TestExpired(t *testing.T) {
	now := time.Now()

	assert.False(t, Session{}.Expired(now))
	assert.False(t, Session{Token: "not-a-jwt"}.Expired(now))
	assert.False(t, Session{Token: signedToken(t, now.Add(time.Hour))}.Expired(now))
	assert.True(t, Session{Token: signedToken(t, now.Add(-time.Hour))}.Expired(now))
}

func TestIsLoggedInFalseForExpiredToken(t *testing.T) {
	ctx := context.Background()
	m := newManager(t)
	now := time.Now()

	require.NoError(t, m.Save(ctx, Session{UserID: 7, Token: signedToken(t, now.Add(-time.Minute))}))
	assert.False(t, m.IsLoggedIn(ctx, now))
}
