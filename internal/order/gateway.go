package order

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/nhle/storefront/internal/api"
	"github.com/nhle/storefront/internal/model"
	"github.com/nhle/storefront/internal/session"
)

// DeliveryConfirmation is the optional feedback sent with confirm-delivery.
type DeliveryConfirmation struct {
	Rating *int   `json:"rating,omitempty"`
	Review string `json:"review,omitempty"`
}

// ReturnRequest asks to send one item of a delivered order back.
type ReturnRequest struct {
	ItemID      int64  `json:"itemId" validate:"required"`
	Reason      string `json:"reason" validate:"notblank"`
	Description string `json:"description,omitempty"`
}

// Gateway is the remote order API.
type Gateway interface {
	ListUserOrders(ctx context.Context, userID int64, page, limit int) (model.OrderPage, error)
	Get(ctx context.Context, orderID int64) (model.Order, error)
	Create(ctx context.Context, draft Draft) (model.Order, error)
	Cancel(ctx context.Context, orderID int64, reason string) error
	ConfirmDelivery(ctx context.Context, orderID int64, c DeliveryConfirmation) error
	Tracking(ctx context.Context, orderID int64) (model.TrackingInfo, error)
	RequestReturn(ctx context.Context, orderID int64, r ReturnRequest) error
}

// HTTPGateway implements Gateway over the REST API.
type HTTPGateway struct {
	client *api.Client
}

// NewHTTPGateway binds c to the session's bearer token.
func NewHTTPGateway(c *api.Client, sess session.Session) *HTTPGateway {
	return &HTTPGateway{client: c.WithToken(sess.Token)}
}

func (g *HTTPGateway) ListUserOrders(ctx context.Context, userID int64, page, limit int) (model.OrderPage, error) {
	q := url.Values{
		"page":  {strconv.Itoa(page)},
		"limit": {strconv.Itoa(limit)},
	}
	var out orderPageDTO
	if err := g.client.Get(ctx, fmt.Sprintf("/users/%d/orders", userID), q, &out); err != nil {
		return model.OrderPage{}, err
	}
	return out.toModel(), nil
}

func (g *HTTPGateway) Get(ctx context.Context, orderID int64) (model.Order, error) {
	var out orderDTO
	if err := g.client.Get(ctx, fmt.Sprintf("/orders/%d", orderID), nil, &out); err != nil {
		return model.Order{}, err
	}
	return out.toModel(), nil
}

func (g *HTTPGateway) Create(ctx context.Context, draft Draft) (model.Order, error) {
	var out orderDTO
	if err := g.client.Post(ctx, "/orders", draft, &out); err != nil {
		return model.Order{}, err
	}
	return out.toModel(), nil
}

func (g *HTTPGateway) Cancel(ctx context.Context, orderID int64, reason string) error {
	body := map[string]string{"reason": reason}
	return g.client.Put(ctx, fmt.Sprintf("/orders/%d/cancel", orderID), nil, body, nil)
}

func (g *HTTPGateway) ConfirmDelivery(ctx context.Context, orderID int64, c DeliveryConfirmation) error {
	return g.client.Put(ctx, fmt.Sprintf("/orders/%d/confirm-delivery", orderID), nil, c, nil)
}

func (g *HTTPGateway) Tracking(ctx context.Context, orderID int64) (model.TrackingInfo, error) {
	var out model.TrackingInfo
	if err := g.client.Get(ctx, fmt.Sprintf("/orders/%d/tracking", orderID), nil, &out); err != nil {
		return model.TrackingInfo{}, err
	}
	return out, nil
}

func (g *HTTPGateway) RequestReturn(ctx context.Context, orderID int64, r ReturnRequest) error {
	return g.client.Post(ctx, fmt.Sprintf("/orders/%d/returns", orderID), r, nil)
}
