package session

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/nhle/storefront/internal/credential"
	"github.com/nhle/storefront/internal/store"
)

const tokenKey = "userToken"

// ErrNoSession is returned by Restore when nobody is signed in.
var ErrNoSession = errors.New("session: not signed in")

// Session identifies the signed-in user. It is built once at login or
// startup and handed to every gateway.
type Session struct {
	UserID int64
	Token  string
	Name   string
	Email  string
}

// Valid reports whether the session names a user.
func (s Session) Valid() bool {
	return s.UserID > 0
}

// Expired reports whether the token is a JWT whose exp claim is before now.
// Opaque tokens never expire client-side.
func (s Session) Expired(now time.Time) bool {
	if s.Token == "" {
		return false
	}
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(s.Token, &claims); err != nil {
		return false
	}
	return claims.ExpiresAt != nil && claims.ExpiresAt.Before(now)
}

// Secrets stores the token.
type Secrets interface {
	Get(key string) (string, error)
	Set(key, value string) error
	Delete(key string) error
}

// Manager persists the session: the token in Secrets, the rest in device
// storage.
type Manager struct {
	device  store.KV
	secrets Secrets
}

func NewManager(device store.KV, secrets Secrets) *Manager {
	return &Manager{device: device, secrets: secrets}
}

// Restore rebuilds the last saved session.
func (m *Manager) Restore(ctx context.Context) (Session, error) {
	raw, err := m.device.Get(ctx, store.KeyUserID)
	if errors.Is(err, store.ErrNotFound) {
		return Session{}, ErrNoSession
	}
	if err != nil {
		return Session{}, err
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return Session{}, fmt.Errorf("stored user id %q is invalid", raw)
	}

	s := Session{UserID: id}
	s.Name, _ = m.optional(ctx, store.KeyUserName)
	s.Email, _ = m.optional(ctx, store.KeyUserEmail)

	token, err := m.secrets.Get(tokenKey)
	if err != nil && !errors.Is(err, credential.ErrNotFound) {
		return Session{}, err
	}
	s.Token = token
	return s, nil
}

func (m *Manager) optional(ctx context.Context, key string) (string, error) {
	v, err := m.device.Get(ctx, key)
	if errors.Is(err, store.ErrNotFound) {
		return "", nil
	}
	return v, err
}

// Save persists s. An empty token removes any stored one.
func (m *Manager) Save(ctx context.Context, s Session) error {
	if !s.Valid() {
		return errors.New("session: user id required")
	}
	if err := m.device.Set(ctx, store.KeyUserID, strconv.FormatInt(s.UserID, 10)); err != nil {
		return err
	}
	if err := m.device.Set(ctx, store.KeyUserName, s.Name); err != nil {
		return err
	}
	if err := m.device.Set(ctx, store.KeyUserEmail, s.Email); err != nil {
		return err
	}
	if s.Token == "" {
		return m.secrets.Delete(tokenKey)
	}
	return m.secrets.Set(tokenKey, s.Token)
}

// Clear forgets the session.
func (m *Manager) Clear(ctx context.Context) error {
	if err := m.device.Remove(ctx, store.KeyUserID, store.KeyUserName, store.KeyUserEmail); err != nil {
		return err
	}
	return m.secrets.Delete(tokenKey)
}

// IsLoggedIn reports whether a non-expired session is stored.
func (m *Manager) IsLoggedIn(ctx context.Context, now time.Time) bool {
	s, err := m.Restore(ctx)
	return err == nil && !s.Expired(now)
}
