package order

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/nhle/storefront/internal/api"
	"github.com/nhle/storefront/internal/model"
	"github.com/nhle/storefront/internal/session"
	"github.com/nhle/storefront/internal/testutil/fakeapi"
)

const testUser int64 = 7

const (
	routeList    = "GET /users/{userId}/orders"
	routeCancel  = "PUT /orders/{id}/cancel"
	routeConfirm = "PUT /orders/{id}/confirm-delivery"
)

func newTestLifecycle(t *testing.T, srv *fakeapi.Server) *Lifecycle {
	t.Helper()
	client := api.NewClient(api.Options{BaseURL: srv.BaseURL(), Timeout: time.Second, RetryBackoff: time.Millisecond})
	sess := session.Session{UserID: testUser, Token: "tok"}
	l := NewLifecycle(NewHTTPGateway(client, sess), sess, Options{
		PageSize:  10,
		Formatter: NewFormatter("fr", "XOF"),
		Logger:    zaptest.NewLogger(t),
	})
	t.Cleanup(l.Close)
	return l
}

func TestLoadOrders(t *testing.T) {
	srv := fakeapi.New(t)
	srv.AddOrder(fakeapi.Order{UserID: testUser, Status: "PENDING", TotalAmount: 150000.00, OrderDate: "2025-03-09T14:30:00",
		Items: []fakeapi.OrderItem{{ProductID: 3, ProductName: "Smartphone", Price: 150000, Quantity: 1}}})
	srv.AddOrder(fakeapi.Order{UserID: testUser, OrderNumber: "ORD-77", Status: "SHIPPED", TotalAmount: 99999.6})
	srv.AddOrder(fakeapi.Order{UserID: testUser + 1, Status: "PENDING"})

	l := newTestLifecycle(t, srv)
	require.NoError(t, l.LoadOrders(context.Background(), 0))

	orders := l.Orders()
	require.Len(t, orders, 2)
	assert.Equal(t, StateReady, l.State())

	byStatus := map[model.OrderStatus]DisplayOrder{}
	for _, o := range orders {
		byStatus[o.Status] = o
	}
	pending := byStatus[model.OrderPending]
	assert.True(t, pending.CanCancel)
	assert.Equal(t, "En attente", pending.StatusLabel)
	assert.Equal(t, "09/03/2025", pending.Date)
	assert.EqualValues(t, 150000, pending.Total)
	require.Len(t, pending.Items, 1)
	assert.Equal(t, "Smartphone", pending.Items[0].Name)

	shipped := byStatus[model.OrderShipped]
	assert.Equal(t, "ORD-77", shipped.OrderNumber)
	assert.EqualValues(t, 100000, shipped.Total)
	assert.True(t, shipped.CanTrack)

	assert.Len(t, l.Filtered(FilterShipped), 1)
	snap := l.Snapshot()
	assert.Equal(t, 1, snap.CurrentPage)
	assert.Equal(t, 1, snap.TotalPages)
}

func TestLoadOrdersFailureIsRetryable(t *testing.T) {
	srv := fakeapi.New(t)
	srv.AddOrder(fakeapi.Order{UserID: testUser})
	l := newTestLifecycle(t, srv)

	srv.FailNext(routeList, http.StatusServiceUnavailable, "")
	err := l.LoadOrders(context.Background(), 0)
	require.Error(t, err)
	assert.Equal(t, StateErrored, l.State())
	assert.Equal(t, api.ErrorTypeServer, l.Err().Type)
	assert.Empty(t, l.Orders())

	require.NoError(t, l.LoadOrders(context.Background(), 0))
	assert.Nil(t, l.Err())
	assert.Len(t, l.Orders(), 1)
}

func TestCancelOrderRequiresReason(t *testing.T) {
	srv := fakeapi.New(t)
	id := srv.AddOrder(fakeapi.Order{UserID: testUser})
	l := newTestLifecycle(t, srv)

	err := l.CancelOrder(context.Background(), id, "   ")
	require.Error(t, err)
	assert.Equal(t, api.ErrorTypeValidation, api.TypeOf(err))
	assert.Equal(t, "reason required", api.Describe(err).Message)
	assert.Zero(t, srv.Calls(routeCancel))
}

func TestCancelOrderResyncs(t *testing.T) {
	srv := fakeapi.New(t)
	id := srv.AddOrder(fakeapi.Order{UserID: testUser, Status: "CONFIRMED"})
	l := newTestLifecycle(t, srv)
	ctx := context.Background()

	require.NoError(t, l.LoadOrders(ctx, 0))
	require.NoError(t, l.CancelOrder(ctx, id, "changed my mind"))

	o, ok := srv.Order(id)
	require.True(t, ok)
	assert.Equal(t, "CANCELLED", o.Status)
	assert.Equal(t, "changed my mind", o.CancelReason)

	got, ok := l.Find(id)
	require.True(t, ok)
	assert.Equal(t, model.OrderCancelled, got.Status)
	assert.False(t, got.CanCancel)
	assert.Equal(t, 2, srv.Calls(routeList))
}

func TestCancelOrderServerRejection(t *testing.T) {
	srv := fakeapi.New(t)
	id := srv.AddOrder(fakeapi.Order{UserID: testUser, Status: "SHIPPED"})
	l := newTestLifecycle(t, srv)

	err := l.CancelOrder(context.Background(), id, "too slow")
	require.Error(t, err)
	assert.Contains(t, api.Describe(err).Message, "cannot be cancelled")
	assert.Zero(t, srv.Calls(routeList))
}

func TestConfirmDelivery(t *testing.T) {
	srv := fakeapi.New(t)
	id := srv.AddOrder(fakeapi.Order{UserID: testUser, Status: "DELIVERED"})
	l := newTestLifecycle(t, srv)
	ctx := context.Background()

	bad := 6
	err := l.ConfirmDelivery(ctx, id, DeliveryConfirmation{Rating: &bad})
	assert.Equal(t, api.ErrorTypeValidation, api.TypeOf(err))
	assert.Zero(t, srv.Calls(routeConfirm))

	rating := 5
	require.NoError(t, l.ConfirmDelivery(ctx, id, DeliveryConfirmation{Rating: &rating, Review: " great "}))
	o, _ := srv.Order(id)
	require.NotNil(t, o.Rating)
	assert.Equal(t, 5, *o.Rating)
	assert.Equal(t, "great", o.Review)
	assert.Equal(t, 1, srv.Calls(routeList))

	pending := srv.AddOrder(fakeapi.Order{UserID: testUser, Status: "PENDING"})
	assert.Error(t, l.ConfirmDelivery(ctx, pending, DeliveryConfirmation{}))
}

func TestTrackOrder(t *testing.T) {
	srv := fakeapi.New(t)
	id := srv.AddOrder(fakeapi.Order{UserID: testUser, Status: "IN_TRANSIT"})
	srv.SetTracking(fakeapi.Tracking{
		OrderID:           id,
		OrderNumber:       "ORD-1",
		CurrentStatus:     "IN_TRANSIT",
		StatusCode:        "IN_TRANSIT",
		TrackingNumber:    "TRK-ABC123",
		EstimatedDelivery: "14/03/2025",
		History: []fakeapi.TrackingEvent{
			{Date: "09/03/2025 10:00", Description: "Order confirmed"},
			{Date: "10/03/2025 08:30", Description: "Handed to carrier"},
		},
	})
	l := newTestLifecycle(t, srv)

	info, err := l.TrackOrder(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "En transit", info.CurrentStatus)
	assert.Equal(t, model.OrderInTransit, info.StatusCode)
	assert.Equal(t, "TRK-ABC123", info.TrackingNumber)
	assert.Len(t, info.History, 2)
	assert.Empty(t, l.Orders())

	_, err = l.TrackOrder(context.Background(), 123456)
	assert.Error(t, err)
}

func TestPlaceOrderAndReturn(t *testing.T) {
	srv := fakeapi.New(t)
	l := newTestLifecycle(t, srv)
	ctx := context.Background()

	_, err := l.PlaceOrder(ctx, Draft{ShippingAddress: "x", PaymentMethod: "y"})
	assert.Equal(t, api.ErrorTypeValidation, api.TypeOf(err))

	placed, err := l.PlaceOrder(ctx, Draft{
		Items:           []model.OrderItem{{ProductID: 1, Price: 1000, Quantity: 2}},
		ShippingAddress: "Plateau, Abidjan",
		PaymentMethod:   "CARD",
		TotalAmount:     2860,
	})
	require.NoError(t, err)
	assert.Equal(t, model.OrderPending, placed.Status)
	assert.EqualValues(t, testUser, placed.UserID)
	require.Len(t, l.Orders(), 1)

	err = l.RequestReturn(ctx, placed.ID, ReturnRequest{ItemID: 1, Reason: "broken"})
	assert.Equal(t, api.ErrorTypeValidation, api.TypeOf(err))

	srv.SetOrderStatus(placed.ID, "DELIVERED")
	require.NoError(t, l.LoadOrders(ctx, 0))
	require.NoError(t, l.RequestReturn(ctx, placed.ID, ReturnRequest{ItemID: 1, Reason: "broken"}))
	got, _ := l.Find(placed.ID)
	assert.Equal(t, model.OrderReturned, got.Status)
}

func TestCloseAbortsAndFreezes(t *testing.T) {
	srv := fakeapi.New(t)
	srv.AddOrder(fakeapi.Order{UserID: testUser})
	release := srv.Gate(routeList)
	defer release()

	l := newTestLifecycle(t, srv)
	done := make(chan error, 1)
	go func() { done <- l.LoadOrders(context.Background(), 0) }()

	require.Eventually(t, func() bool { return l.State() == StateLoading }, time.Second, 5*time.Millisecond)
	l.Close()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, ErrClosed)
	case <-time.After(2 * time.Second):
		t.Fatal("load was not aborted by Close")
	}
	assert.ErrorIs(t, l.CancelOrder(context.Background(), 1, "x"), ErrClosed)
	assert.Empty(t, l.Orders())
}

func TestRequestReturnValidatesBeforeCalling(t *testing.T) {
	srv := fakeapi.New(t)
	id := srv.AddOrder(fakeapi.Order{UserID: testUser, Status: "DELIVERED"})
	l := newTestLifecycle(t, srv)
	ctx := context.Background()
	require.NoError(t, l.LoadOrders(ctx, 0))

	cases := []struct {
		name string
		req  ReturnRequest
		msg  string
	}{
		{"missing item", ReturnRequest{Reason: "broken"}, "item id required"},
		{"blank reason", ReturnRequest{ItemID: 1, Reason: "   "}, "reason required"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := l.RequestReturn(ctx, id, tc.req)
			require.Error(t, err)
			assert.Equal(t, api.ErrorTypeValidation, api.TypeOf(err))
			assert.Contains(t, err.Error(), tc.msg)
		})
	}
	assert.Equal(t, 0, srv.Calls("POST /orders/{id}/returns"))
	o, _ := srv.Order(id)
	assert.Equal(t, "DELIVERED", o.Status)
}

// listGateway answers ListUserOrders through a hook; every other call is a
// no-op.
type listGateway struct {
	mu     sync.Mutex
	calls  int
	onList func(call int) (model.OrderPage, error)
}

func (g *listGateway) ListUserOrders(_ context.Context, _ int64, _, _ int) (model.OrderPage, error) {
	g.mu.Lock()
	g.calls++
	call, fn := g.calls, g.onList
	g.mu.Unlock()
	return fn(call)
}

func (g *listGateway) Get(context.Context, int64) (model.Order, error) { return model.Order{}, nil }
func (g *listGateway) Create(context.Context, Draft) (model.Order, error) {
	return model.Order{}, nil
}
func (g *listGateway) Cancel(context.Context, int64, string) error { return nil }
func (g *listGateway) ConfirmDelivery(context.Context, int64, DeliveryConfirmation) error {
	return nil
}
func (g *listGateway) Tracking(context.Context, int64) (model.TrackingInfo, error) {
	return model.TrackingInfo{}, nil
}
func (g *listGateway) RequestReturn(context.Context, int64, ReturnRequest) error { return nil }

func TestLoadOrdersLastRequestWins(t *testing.T) {
	firstStarted := make(chan struct{})
	releaseFirst := make(chan struct{})
	gw := &listGateway{onList: func(call int) (model.OrderPage, error) {
		if call == 1 {
			close(firstStarted)
			<-releaseFirst
			return model.OrderPage{Orders: []model.Order{{ID: 1, Status: model.OrderPending}}, CurrentPage: 1}, nil
		}
		return model.OrderPage{Orders: []model.Order{{ID: 2, Status: model.OrderShipped}}, CurrentPage: 1}, nil
	}}
	sess := session.Session{UserID: testUser}
	l := NewLifecycle(gw, sess, Options{Logger: zaptest.NewLogger(t)})
	t.Cleanup(l.Close)

	first := make(chan error, 1)
	go func() { first <- l.LoadOrders(context.Background(), 0) }()
	<-firstStarted

	require.NoError(t, l.LoadOrders(context.Background(), 0))
	close(releaseFirst)
	require.NoError(t, <-first)

	got := l.Orders()
	require.Len(t, got, 1)
	assert.EqualValues(t, 2, got[0].ID)
	assert.Equal(t, StateReady, l.State())
}

func TestActionKeepsCurrentPage(t *testing.T) {
	srv := fakeapi.New(t)
	for range 12 {
		srv.AddOrder(fakeapi.Order{UserID: testUser})
	}
	l := newTestLifecycle(t, srv)
	ctx := context.Background()

	require.NoError(t, l.LoadPage(ctx, 0, 2))
	page := l.Orders()
	require.Len(t, page, 2)

	require.NoError(t, l.CancelOrder(ctx, page[0].ID, "changed my mind"))
	snap := l.Snapshot()
	assert.Equal(t, 2, snap.CurrentPage)
	require.Len(t, snap.Orders, 2)
	got, ok := l.Find(page[0].ID)
	require.True(t, ok)
	assert.Equal(t, model.OrderCancelled, got.Status)
}
