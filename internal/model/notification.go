package model

import "time"

// NotificationType is the backend category of a notification.
type NotificationType string

const (
	NotificationOrder        NotificationType = "ORDER"
	NotificationPayment      NotificationType = "PAYMENT"
	NotificationDelivery     NotificationType = "DELIVERY"
	NotificationPromotion    NotificationType = "PROMOTION"
	NotificationAccount      NotificationType = "ACCOUNT"
	NotificationSecurity     NotificationType = "SECURITY"
	NotificationSystem       NotificationType = "SYSTEM"
	NotificationInstallation NotificationType = "INSTALLATION"
	NotificationSupport      NotificationType = "SUPPORT"
	NotificationCredit       NotificationType = "CREDIT"
)

// NotificationTypes lists every known type in display order.
var NotificationTypes = []NotificationType{
	NotificationOrder, NotificationPayment, NotificationDelivery,
	NotificationPromotion, NotificationAccount, NotificationSecurity,
	NotificationSystem, NotificationInstallation, NotificationSupport,
	NotificationCredit,
}

// Priority of a notification.
type Priority string

const (
	PriorityHigh   Priority = "HIGH"
	PriorityMedium Priority = "MEDIUM"
	PriorityLow    Priority = "LOW"
)

// EntityKind is the kind of record a notification refers to.
type EntityKind string

const (
	EntityOrder   EntityKind = "ORDER"
	EntityPayment EntityKind = "PAYMENT"
	EntityProduct EntityKind = "PRODUCT"
	EntityUser    EntityKind = "USER"
)

// Notification represents an alert addressed to one user.
type Notification struct {
	// ID is the server-assigned identifier.
	ID int64 `json:"id"`

	// UserID is the owner of the notification.
	UserID int64 `json:"userId"`

	Type     NotificationType `json:"type"`
	Title    string           `json:"title"`
	Message  string           `json:"message"`
	Priority Priority         `json:"priority"`

	// Timestamp is the server's sentDate.
	Timestamp time.Time `json:"timestamp"`

	// IsRead only ever moves from false to true.
	IsRead bool `json:"isRead"`

	ActionURL string `json:"actionUrl,omitempty"`
	ImageURL  string `json:"imageUrl,omitempty"`

	// RelatedEntity is derived from Type.
	RelatedEntity EntityKind `json:"relatedEntity"`

	// RelatedEntityID is the referenced record's id when the backend sends
	// one, zero otherwise.
	RelatedEntityID int64 `json:"relatedEntityId,omitempty"`

	// Icon and Color are derived from Type.
	Icon  string `json:"icon"`
	Color string `json:"color"`
}

// HasRelatedEntity reports whether the backend supplied a referenced id.
func (n Notification) HasRelatedEntity() bool {
	return n.RelatedEntityID != 0
}
