package app

import (
	"context"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/storefront/internal/api"
	"github.com/nhle/storefront/internal/cart"
	"github.com/nhle/storefront/internal/notification"
	"github.com/nhle/storefront/internal/order"
	"github.com/nhle/storefront/internal/session"
	"github.com/nhle/storefront/internal/store"
	"github.com/nhle/storefront/internal/testutil"
	"github.com/nhle/storefront/internal/testutil/fakeapi"
	"github.com/nhle/storefront/internal/ui/cartview"
	"github.com/nhle/storefront/internal/ui/confirm"
	"github.com/nhle/storefront/internal/ui/notifications"
	"github.com/nhle/storefront/internal/ui/orders"
)

const testUser int64 = 7

type harness struct {
	srv    *fakeapi.Server
	deps   Deps
	device *store.DeviceStore
}

func newHarness(t *testing.T) harness {
	t.Helper()
	srv := fakeapi.New(t)
	client := api.NewClient(api.Options{BaseURL: srv.BaseURL(), Timeout: time.Second, RetryBackoff: time.Millisecond})
	sess := session.Session{UserID: testUser, Token: "tok", Name: "Awa Kone"}
	device := testutil.NewTestDeviceStore(t)
	formatter := order.NewFormatter("fr", "XOF")

	deps := Deps{
		Session:       sess,
		Notifications: notification.NewStore(notification.NewHTTPGateway(client, sess), sess),
		Orders:        order.NewLifecycle(order.NewHTTPGateway(client, sess), sess, order.Options{Formatter: formatter}),
		Cart:          cart.New(),
		CartService:   cart.NewService(client, sess),
		Formatter:     formatter,
		CartConfig:    cartview.Config{TaxRate: order.DefaultTaxRate},
		Device:        device,
	}
	t.Cleanup(deps.Notifications.Close)
	t.Cleanup(deps.Orders.Close)
	return harness{srv: srv, deps: deps, device: device}
}

func keyMsg(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	out, ok := next.(Model)
	require.True(t, ok)
	return out, cmd
}

func ready(t *testing.T, m Model) Model {
	t.Helper()
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 120, Height: 40})
	return m
}

func TestViewSwitching(t *testing.T) {
	h := newHarness(t)
	m := ready(t, New(h.deps))
	assert.Equal(t, ViewNotifications, m.currentView)

	m, _ = update(t, m, keyMsg("2"))
	assert.Equal(t, ViewOrders, m.currentView)
	m, _ = update(t, m, keyMsg("3"))
	assert.Equal(t, ViewCart, m.currentView)

	m, _ = update(t, m, keyMsg("?"))
	assert.Equal(t, ViewHelp, m.currentView)
	assert.Equal(t, 2, m.activeTab())
	m, _ = update(t, m, keyMsg("?"))
	assert.Equal(t, ViewCart, m.currentView)

	assert.Contains(t, m.View(), "3 Cart")
}

func TestDeleteNotificationGoesThroughConfirmation(t *testing.T) {
	h := newHarness(t)
	h.srv.AddNotification(fakeapi.Notification{UserID: testUser, Title: "Votre commande est expédiée", Type: "DELIVERY"})
	h.srv.AddNotification(fakeapi.Notification{UserID: testUser, Title: "Promo", Type: "PROMOTION", IsRead: true})

	require.NoError(t, h.deps.Notifications.Load(context.Background(), 0, notification.LoadOptions{}))
	m := ready(t, New(h.deps))
	m, _ = update(t, m, notifications.SnapshotMsg{Snapshot: h.deps.Notifications.Snapshot()})

	_, cmd := update(t, m, keyMsg("d"))
	require.NotNil(t, cmd)
	ask, ok := cmd().(confirm.AskMsg)
	require.True(t, ok)
	assert.Equal(t, confirm.KindDeleteNotification, ask.Request.Kind)

	m, _ = update(t, m, ask)
	assert.Equal(t, ViewConfirm, m.currentView)

	// Keys belong to the form while it is open.
	m, _ = update(t, m, keyMsg("2"))
	assert.Equal(t, ViewConfirm, m.currentView)

	m, cmd = update(t, m, confirm.DoneMsg{Request: ask.Request, Confirmed: true})
	assert.Equal(t, ViewNotifications, m.currentView)
	require.NotNil(t, cmd)
	done, ok := cmd().(notifications.ActionDoneMsg)
	require.True(t, ok)
	assert.True(t, done.Result.Success)

	left := h.srv.Notifications(testUser)
	require.Len(t, left, 1)
	assert.NotEqual(t, ask.Request.ID, left[0].ID)
	assert.Len(t, h.deps.Notifications.Notifications(), 1)
}

func TestDeclinedConfirmationDoesNothing(t *testing.T) {
	h := newHarness(t)
	h.srv.AddNotification(fakeapi.Notification{UserID: testUser, Title: "x", IsRead: true})
	require.NoError(t, h.deps.Notifications.Load(context.Background(), 0, notification.LoadOptions{}))

	m := ready(t, New(h.deps))
	req := confirm.Request{Kind: confirm.KindDeleteAllRead}
	m, _ = update(t, m, confirm.AskMsg{Request: req})
	_, cmd := update(t, m, confirm.DoneMsg{Request: req})
	assert.Nil(t, cmd)
	assert.Len(t, h.srv.Notifications(testUser), 1)
}

func TestTrackAndReorder(t *testing.T) {
	h := newHarness(t)
	h.srv.AddOrder(fakeapi.Order{UserID: testUser, Status: "SHIPPED", TotalAmount: 3000,
		Items: []fakeapi.OrderItem{{ProductID: 4, ProductName: "Écouteurs", Price: 1500, Quantity: 2}}})
	require.NoError(t, h.deps.Orders.LoadOrders(context.Background(), 0))
	o := h.deps.Orders.Orders()[0]

	m := ready(t, New(h.deps))
	m, _ = update(t, m, keyMsg("2"))
	m, _ = update(t, m, orders.SnapshotMsg{Snapshot: h.deps.Orders.Snapshot()})

	m, cmd := update(t, m, orders.TrackMsg{Order: o})
	assert.Equal(t, ViewTracking, m.currentView)
	require.NotNil(t, cmd)
	m, _ = update(t, m, cmd())
	assert.Contains(t, m.View(), "Expédiée")

	m, cmd = update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	require.NotNil(t, cmd)
	m, _ = update(t, m, cmd())
	assert.Equal(t, ViewOrders, m.currentView)

	m, cmd = update(t, m, orders.ReorderMsg{Order: o})
	assert.Equal(t, ViewCart, m.currentView)
	require.NotNil(t, cmd)
	synced, ok := cmd().(cartview.SyncedMsg)
	require.True(t, ok)
	require.NoError(t, synced.Err)
	assert.EqualValues(t, 3000, h.srv.CartTotal(testUser))
	assert.Equal(t, 2, h.deps.Cart.Count())
}

func TestQuitPersistsFilterAndClosesStores(t *testing.T) {
	h := newHarness(t)
	h.deps.Notifications.SetFilter(notification.FilterUnread)
	m := ready(t, New(h.deps))

	_, cmd := update(t, m, keyMsg("q"))
	require.NotNil(t, cmd)
	_, isQuit := cmd().(tea.QuitMsg)
	assert.True(t, isQuit)

	assert.Equal(t, notification.StateClosed, h.deps.Notifications.State())
	assert.Equal(t, order.StateClosed, h.deps.Orders.State())

	saved, err := h.device.Get(context.Background(), store.KeyNotificationFilter)
	require.NoError(t, err)
	assert.Equal(t, string(notification.FilterUnread), saved)
}
