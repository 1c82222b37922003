// Package cart keeps the session cart. Line items are held locally and only
// the aggregate total is pushed to the server.
package cart

import (
	"context"
	"fmt"

	"github.com/nhle/storefront/internal/api"
	"github.com/nhle/storefront/internal/model"
	"github.com/nhle/storefront/internal/session"
)

// Service is the remote cart API.
type Service struct {
	client *api.Client
	userID int64
}

// NewService binds c to the session's bearer token and user.
func NewService(c *api.Client, sess session.Session) *Service {
	return &Service{client: c.WithToken(sess.Token), userID: sess.UserID}
}

func (s *Service) path(userID int64) (string, error) {
	if userID <= 0 {
		userID = s.userID
	}
	if userID <= 0 {
		return "", api.NewValidationError("user id required")
	}
	return fmt.Sprintf("/users/%d/cart", userID), nil
}

// Get returns the server-side cart of userID (zero means the session user).
func (s *Service) Get(ctx context.Context, userID int64) (model.Cart, error) {
	p, err := s.path(userID)
	if err != nil {
		return model.Cart{}, err
	}
	var out model.Cart
	if err := s.client.Get(ctx, p, nil, &out); err != nil {
		return model.Cart{}, fmt.Errorf("loading cart: %w", err)
	}
	return out, nil
}

// Update replaces the cart total. Negative totals are rejected before any
// request.
func (s *Service) Update(ctx context.Context, userID, total int64) (model.Cart, error) {
	if total < 0 {
		return model.Cart{}, api.NewValidationError("cart total cannot be negative")
	}
	p, err := s.path(userID)
	if err != nil {
		return model.Cart{}, err
	}
	var out model.Cart
	body := map[string]int64{"totalAmount": total}
	if err := s.client.Put(ctx, p, nil, body, &out); err != nil {
		return model.Cart{}, fmt.Errorf("updating cart: %w", err)
	}
	return out, nil
}

// Clear sets the cart total to zero.
func (s *Service) Clear(ctx context.Context, userID int64) error {
	p, err := s.path(userID)
	if err != nil {
		return err
	}
	if err := s.client.Delete(ctx, p, nil, nil); err != nil {
		return fmt.Errorf("clearing cart: %w", err)
	}
	return nil
}
