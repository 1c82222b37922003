package notification

import (
	"github.com/nhle/storefront/internal/model"
)

// notificationDTO is the backend wire shape.
type notificationDTO struct {
	ID              int64  `json:"id"`
	UserID          int64  `json:"userId"`
	Title           string `json:"title"`
	Message         string `json:"message"`
	SentDate        string `json:"sentDate"`
	IsRead          *bool  `json:"isRead"`
	Type            string `json:"type"`
	Priority        string `json:"priority"`
	ActionURL       string `json:"actionUrl"`
	ImageURL        string `json:"imageUrl"`
	RelatedEntityID *int64 `json:"relatedEntityId"`
}

type unreadCountDTO struct {
	UnreadCount int `json:"unreadCount"`
}

type hasUnreadDTO struct {
	HasUnread bool `json:"hasUnread"`
}

// toModel converts d into a decorated domain notification. An unparsable
// sentDate leaves the timestamp zero.
func (d notificationDTO) toModel() model.Notification {
	ts, _ := model.ParseServerTime(d.SentDate)

	n := model.Notification{
		ID:        d.ID,
		UserID:    d.UserID,
		Type:      model.NotificationType(d.Type),
		Title:     d.Title,
		Message:   d.Message,
		Priority:  model.Priority(d.Priority),
		Timestamp: ts,
		IsRead:    d.IsRead != nil && *d.IsRead,
		ActionURL: d.ActionURL,
		ImageURL:  d.ImageURL,
	}
	if d.RelatedEntityID != nil {
		n.RelatedEntityID = *d.RelatedEntityID
	}
	return Decorate(n)
}

func toModels(in []notificationDTO) []model.Notification {
	out := make([]model.Notification, 0, len(in))
	for _, d := range in {
		out = append(out, d.toModel())
	}
	return out
}
