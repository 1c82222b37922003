package notification

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/nhle/storefront/internal/api"
	"github.com/nhle/storefront/internal/model"
	"github.com/nhle/storefront/internal/session"
)

// Gateway is the remote notification API. Every call is scoped to a user.
type Gateway interface {
	List(ctx context.Context, userID int64) ([]model.Notification, error)
	ListUnread(ctx context.Context, userID int64) ([]model.Notification, error)
	ListRead(ctx context.Context, userID int64) ([]model.Notification, error)
	ListByType(ctx context.Context, userID int64, t model.NotificationType) ([]model.Notification, error)
	ListByPriority(ctx context.Context, userID int64, p model.Priority) ([]model.Notification, error)
	ListRecent(ctx context.Context, userID int64) ([]model.Notification, error)
	ListHighPriorityUnread(ctx context.Context, userID int64) ([]model.Notification, error)
	Get(ctx context.Context, id int64) (model.Notification, error)
	UnreadCount(ctx context.Context, userID int64) (int, error)
	HasUnread(ctx context.Context, userID int64) (bool, error)
	MarkAsRead(ctx context.Context, id, userID int64) error
	MarkAllAsRead(ctx context.Context, userID int64) error
	Delete(ctx context.Context, id, userID int64) error
	DeleteAllRead(ctx context.Context, userID int64) error
}

// HTTPGateway implements Gateway over the REST API.
type HTTPGateway struct {
	client *api.Client
}

// NewHTTPGateway binds c to the session's bearer token.
func NewHTTPGateway(c *api.Client, sess session.Session) *HTTPGateway {
	return &HTTPGateway{client: c.WithToken(sess.Token)}
}

func userPath(userID int64, suffix string) string {
	return fmt.Sprintf("/notifications/user/%d%s", userID, suffix)
}

func userQuery(userID int64) url.Values {
	return url.Values{"userId": {strconv.FormatInt(userID, 10)}}
}

func (g *HTTPGateway) list(ctx context.Context, path string) ([]model.Notification, error) {
	var out []notificationDTO
	if err := g.client.Get(ctx, path, nil, &out); err != nil {
		return nil, err
	}
	return toModels(out), nil
}

func (g *HTTPGateway) List(ctx context.Context, userID int64) ([]model.Notification, error) {
	return g.list(ctx, userPath(userID, ""))
}

func (g *HTTPGateway) ListUnread(ctx context.Context, userID int64) ([]model.Notification, error) {
	return g.list(ctx, userPath(userID, "/unread"))
}

func (g *HTTPGateway) ListRead(ctx context.Context, userID int64) ([]model.Notification, error) {
	return g.list(ctx, userPath(userID, "/read"))
}

func (g *HTTPGateway) ListByType(ctx context.Context, userID int64, t model.NotificationType) ([]model.Notification, error) {
	return g.list(ctx, userPath(userID, "/type/"+url.PathEscape(string(t))))
}

func (g *HTTPGateway) ListByPriority(ctx context.Context, userID int64, p model.Priority) ([]model.Notification, error) {
	return g.list(ctx, userPath(userID, "/priority/"+url.PathEscape(string(p))))
}

func (g *HTTPGateway) ListRecent(ctx context.Context, userID int64) ([]model.Notification, error) {
	return g.list(ctx, userPath(userID, "/recent"))
}

func (g *HTTPGateway) ListHighPriorityUnread(ctx context.Context, userID int64) ([]model.Notification, error) {
	return g.list(ctx, userPath(userID, "/high-priority-unread"))
}

func (g *HTTPGateway) Get(ctx context.Context, id int64) (model.Notification, error) {
	var out notificationDTO
	if err := g.client.Get(ctx, fmt.Sprintf("/notifications/%d", id), nil, &out); err != nil {
		return model.Notification{}, err
	}
	return out.toModel(), nil
}

func (g *HTTPGateway) UnreadCount(ctx context.Context, userID int64) (int, error) {
	var out unreadCountDTO
	if err := g.client.Get(ctx, userPath(userID, "/unread/count"), nil, &out); err != nil {
		return 0, err
	}
	return out.UnreadCount, nil
}

func (g *HTTPGateway) HasUnread(ctx context.Context, userID int64) (bool, error) {
	var out hasUnreadDTO
	if err := g.client.Get(ctx, userPath(userID, "/has-unread"), nil, &out); err != nil {
		return false, err
	}
	return out.HasUnread, nil
}

func (g *HTTPGateway) MarkAsRead(ctx context.Context, id, userID int64) error {
	return g.client.Put(ctx, fmt.Sprintf("/notifications/%d/read", id), userQuery(userID), nil, nil)
}

func (g *HTTPGateway) MarkAllAsRead(ctx context.Context, userID int64) error {
	return g.client.Put(ctx, userPath(userID, "/mark-all-read"), nil, nil, nil)
}

func (g *HTTPGateway) Delete(ctx context.Context, id, userID int64) error {
	return g.client.Delete(ctx, fmt.Sprintf("/notifications/%d", id), userQuery(userID), nil)
}

func (g *HTTPGateway) DeleteAllRead(ctx context.Context, userID int64) error {
	return g.client.Delete(ctx, userPath(userID, "/read"), nil, nil)
}
