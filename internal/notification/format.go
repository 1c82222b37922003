package notification

import (
	"fmt"
	"time"

	"github.com/nhle/storefront/internal/model"
)

type typeStyle struct {
	entity model.EntityKind
	icon   string
	color  string
}

var typeStyles = map[model.NotificationType]typeStyle{
	model.NotificationOrder:        {model.EntityOrder, "📦", "#10b981"},
	model.NotificationPayment:      {model.EntityPayment, "💳", "#f59e0b"},
	model.NotificationDelivery:     {model.EntityOrder, "🚚", "#3b82f6"},
	model.NotificationPromotion:    {model.EntityProduct, "🎉", "#8b5cf6"},
	model.NotificationAccount:      {model.EntityUser, "👤", "#6b7280"},
	model.NotificationSecurity:     {model.EntityUser, "🔐", "#ef4444"},
	model.NotificationSystem:       {model.EntityUser, "⚙️", "#64748b"},
	model.NotificationInstallation: {model.EntityOrder, "🔧", "#f97316"},
	model.NotificationSupport:      {model.EntityUser, "💬", "#06b6d4"},
	model.NotificationCredit:       {model.EntityUser, "💰", "#84cc16"},
}

var defaultStyle = typeStyle{model.EntityUser, "🔔", "#6b7280"}

func styleFor(t model.NotificationType) typeStyle {
	if s, ok := typeStyles[t]; ok {
		return s
	}
	return defaultStyle
}

// EntityFor maps a notification type to the kind of record it refers to.
func EntityFor(t model.NotificationType) model.EntityKind { return styleFor(t).entity }

// IconFor returns the display glyph of a notification type.
func IconFor(t model.NotificationType) string { return styleFor(t).icon }

// ColorFor returns the hex accent color of a notification type.
func ColorFor(t model.NotificationType) string { return styleFor(t).color }

// Decorate fills the derived fields of n from its type.
func Decorate(n model.Notification) model.Notification {
	s := styleFor(n.Type)
	n.RelatedEntity = s.entity
	n.Icon = s.icon
	n.Color = s.color
	if n.Priority == "" {
		n.Priority = model.PriorityMedium
	}
	return n
}

// RelativeTime renders t relative to now: "just now", "12 min ago",
// "3h ago", "yesterday", or the date.
func RelativeTime(t, now time.Time) string {
	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%d min ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	case d < 48*time.Hour:
		return "yesterday"
	}
	return t.Format("02/01/2006")
}
