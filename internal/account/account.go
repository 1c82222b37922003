// Package account signs users in and out and reads their profile and
// installment credit.
package account

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/nhle/storefront/internal/api"
	"github.com/nhle/storefront/internal/model"
	"github.com/nhle/storefront/internal/session"
	"github.com/nhle/storefront/internal/validation"
)

// LoginRequest is the body of POST /users/login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RegisterRequest is the body of POST /users/register.
type RegisterRequest struct {
	FirstName   string `json:"firstName" validate:"notblank"`
	LastName    string `json:"lastName" validate:"notblank"`
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"password"`
	PhoneNumber string `json:"phoneNumber,omitempty" validate:"omitempty,min=8,max=20"`
}

// Service talks to the user endpoints and keeps the stored session in step.
type Service struct {
	client   *api.Client
	sessions *session.Manager
	logger   *zap.Logger
}

func NewService(c *api.Client, sessions *session.Manager, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{client: c, sessions: sessions, logger: logger}
}

// Login authenticates and persists the resulting session.
func (s *Service) Login(ctx context.Context, email, password string) (session.Session, error) {
	req := LoginRequest{Email: strings.TrimSpace(email), Password: password}
	if err := checkRequest(req); err != nil {
		return session.Session{}, err
	}

	var out userDTO
	if err := s.client.Post(ctx, "/users/login", req, &out); err != nil {
		s.logger.Warn("login failed", zap.String("email", req.Email), zap.Error(err))
		return session.Session{}, fmt.Errorf("login: %w", err)
	}

	u := out.toModel()
	sess := session.Session{UserID: u.ID, Token: out.Token, Name: u.FullName(), Email: u.Email}
	if err := s.sessions.Save(ctx, sess); err != nil {
		return session.Session{}, fmt.Errorf("saving session: %w", err)
	}
	s.logger.Info("signed in", zap.Int64("user_id", u.ID))
	return sess, nil
}

// Register creates an account. It does not sign the user in.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (model.User, error) {
	req.Email = strings.TrimSpace(req.Email)
	if err := checkRequest(req); err != nil {
		return model.User{}, err
	}
	var out userDTO
	if err := s.client.Post(ctx, "/users/register", req, &out); err != nil {
		return model.User{}, fmt.Errorf("register: %w", err)
	}
	return out.toModel(), nil
}

// Profile returns userID's account (zero means the session user).
func (s *Service) Profile(ctx context.Context, sess session.Session, userID int64) (model.User, error) {
	id, err := resolveUser(sess, userID)
	if err != nil {
		return model.User{}, err
	}
	var out userDTO
	if err := s.client.WithToken(sess.Token).Get(ctx, fmt.Sprintf("/users/%d", id), nil, &out); err != nil {
		return model.User{}, fmt.Errorf("loading profile: %w", err)
	}
	return out.toModel(), nil
}

// CreditInfo returns the installment credit position of userID (zero means
// the session user).
func (s *Service) CreditInfo(ctx context.Context, sess session.Session, userID int64) (model.CreditInfo, error) {
	id, err := resolveUser(sess, userID)
	if err != nil {
		return model.CreditInfo{}, err
	}
	var out creditDTO
	if err := s.client.WithToken(sess.Token).Get(ctx, fmt.Sprintf("/users/%d/credit-info", id), nil, &out); err != nil {
		return model.CreditInfo{}, fmt.Errorf("loading credit info: %w", err)
	}
	return out.toModel(), nil
}

// Logout forgets the stored session.
func (s *Service) Logout(ctx context.Context) error {
	if err := s.sessions.Clear(ctx); err != nil {
		return fmt.Errorf("clearing session: %w", err)
	}
	s.logger.Info("signed out")
	return nil
}

func resolveUser(sess session.Session, userID int64) (int64, error) {
	if userID > 0 {
		return userID, nil
	}
	if sess.Valid() {
		return sess.UserID, nil
	}
	return 0, api.NewValidationError("user id required")
}

func checkRequest(v any) error {
	err := validation.Struct(v)
	if err == nil {
		return nil
	}
	fields := validation.FieldErrors(err)
	if len(fields) == 0 {
		return err
	}
	msgs := make([]string, 0, len(fields))
	for _, fe := range fields {
		msgs = append(msgs, fieldMessage(fe.Field(), fe.Tag()))
	}
	return api.NewValidationError("%s", strings.Join(msgs, "; "))
}

func fieldMessage(field, tag string) string {
	switch tag {
	case "required", "notblank":
		return field + " is required"
	case "email":
		return field + " must be a valid email address"
	case "password":
		return field + " must be at least 6 characters with a letter and a digit"
	}
	return field + " is invalid"
}
