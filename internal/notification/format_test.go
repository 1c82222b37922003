package notification

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/nhle/storefront/internal/model"
)

func TestDecorate(t *testing.T) {
	cases := []struct {
		typ    model.NotificationType
		entity model.EntityKind
		icon   string
		color  string
	}{
		{model.NotificationOrder, model.EntityOrder, "📦", "#10b981"},
		{model.NotificationPayment, model.EntityPayment, "💳", "#f59e0b"},
		{model.NotificationDelivery, model.EntityOrder, "🚚", "#3b82f6"},
		{model.NotificationPromotion, model.EntityProduct, "🎉", "#8b5cf6"},
		{model.NotificationSecurity, model.EntityUser, "🔐", "#ef4444"},
		{model.NotificationInstallation, model.EntityOrder, "🔧", "#f97316"},
		{model.NotificationCredit, model.EntityUser, "💰", "#84cc16"},
		{"SOMETHING_NEW", model.EntityUser, "🔔", "#6b7280"},
	}

	for _, tc := range cases {
		t.Run(string(tc.typ), func(t *testing.T) {
			n := Decorate(model.Notification{ID: 5, Type: tc.typ})
			assert.Equal(t, tc.entity, n.RelatedEntity)
			assert.Equal(t, tc.icon, n.Icon)
			assert.Equal(t, tc.color, n.Color)
			assert.Equal(t, model.PriorityMedium, n.Priority)
			assert.Zero(t, n.RelatedEntityID)
		})
	}
}

func TestDTOConversion(t *testing.T) {
	read := true
	orderID := int64(88)
	n := notificationDTO{
		ID:              4,
		UserID:          7,
		Type:            "DELIVERY",
		SentDate:        "2025-03-10T09:15:00.123456",
		IsRead:          &read,
		Priority:        "HIGH",
		RelatedEntityID: &orderID,
	}.toModel()

	assert.True(t, n.IsRead)
	assert.Equal(t, model.PriorityHigh, n.Priority)
	assert.EqualValues(t, 88, n.RelatedEntityID)
	assert.True(t, n.HasRelatedEntity())
	assert.Equal(t, "🚚", n.Icon)
	assert.Equal(t, 9, n.Timestamp.Hour())
	assert.Equal(t, 15, n.Timestamp.Minute())

	bare := notificationDTO{ID: 5, Type: "ORDER"}.toModel()
	assert.False(t, bare.IsRead)
	assert.True(t, bare.Timestamp.IsZero())
	assert.False(t, bare.HasRelatedEntity())
}

func TestRelativeTime(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, "just now", RelativeTime(now.Add(-10*time.Second), now))
	assert.Equal(t, "12 min ago", RelativeTime(now.Add(-12*time.Minute), now))
	assert.Equal(t, "3h ago", RelativeTime(now.Add(-3*time.Hour), now))
	assert.Equal(t, "yesterday", RelativeTime(now.Add(-30*time.Hour), now))
	assert.Equal(t, "07/03/2025", RelativeTime(now.Add(-72*time.Hour), now))
}

func TestFilterNextCycles(t *testing.T) {
	f := FilterAll
	seen := map[Filter]bool{}
	for range Filters {
		seen[f] = true
		f = f.Next()
	}
	assert.Equal(t, FilterAll, f)
	assert.Len(t, seen, len(Filters))
	assert.Equal(t, FilterAll, Filter("nope").Next())
}

func TestApplyPartitionsAll(t *testing.T) {
	items := sample()
	all := Apply(items, FilterAll, fixedNow)
	unread := Apply(items, FilterUnread, fixedNow)
	read := Apply(items, FilterRead, fixedNow)

	assert.Len(t, all, len(unread)+len(read))
	seen := map[int64]int{}
	for _, n := range append(unread, read...) {
		seen[n.ID]++
	}
	for _, n := range all {
		assert.Equal(t, 1, seen[n.ID])
	}
}
