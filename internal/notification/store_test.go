package notification

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/nhle/storefront/internal/api"
	"github.com/nhle/storefront/internal/model"
	"github.com/nhle/storefront/internal/session"
)

const testUser int64 = 7

type stubGateway struct {
	mu        sync.Mutex
	items     []model.Notification
	listErr   error
	actionErr error
	listCalls int
	onList    func(ctx context.Context, call int) ([]model.Notification, error)
	unread    int
	unreadErr error
}

func (g *stubGateway) List(ctx context.Context, userID int64) ([]model.Notification, error) {
	g.mu.Lock()
	g.listCalls++
	call := g.listCalls
	hook := g.onList
	items := append([]model.Notification(nil), g.items...)
	err := g.listErr
	g.mu.Unlock()

	if hook != nil {
		return hook(ctx, call)
	}
	return items, err
}

func (g *stubGateway) filtered(read bool) []model.Notification {
	g.mu.Lock()
	defer g.mu.Unlock()
	var out []model.Notification
	for _, n := range g.items {
		if n.IsRead == read {
			out = append(out, n)
		}
	}
	return out
}

func (g *stubGateway) ListUnread(ctx context.Context, userID int64) ([]model.Notification, error) {
	return g.filtered(false), nil
}

func (g *stubGateway) ListRead(ctx context.Context, userID int64) ([]model.Notification, error) {
	return g.filtered(true), nil
}

func (g *stubGateway) ListByType(context.Context, int64, model.NotificationType) ([]model.Notification, error) {
	return nil, nil
}

func (g *stubGateway) ListByPriority(context.Context, int64, model.Priority) ([]model.Notification, error) {
	return nil, nil
}

func (g *stubGateway) ListRecent(context.Context, int64) ([]model.Notification, error) {
	return nil, nil
}

func (g *stubGateway) ListHighPriorityUnread(context.Context, int64) ([]model.Notification, error) {
	return nil, nil
}

func (g *stubGateway) Get(context.Context, int64) (model.Notification, error) {
	return model.Notification{}, nil
}

func (g *stubGateway) UnreadCount(context.Context, int64) (int, error) {
	return g.unread, g.unreadErr
}

func (g *stubGateway) HasUnread(context.Context, int64) (bool, error) {
	return g.unread > 0, g.unreadErr
}

func (g *stubGateway) MarkAsRead(context.Context, int64, int64) error { return g.actionErr }
func (g *stubGateway) MarkAllAsRead(context.Context, int64) error     { return g.actionErr }
func (g *stubGateway) Delete(context.Context, int64, int64) error     { return g.actionErr }
func (g *stubGateway) DeleteAllRead(context.Context, int64) error     { return g.actionErr }

func (g *stubGateway) calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.listCalls
}

func (g *stubGateway) setOnList(f func(context.Context, int) ([]model.Notification, error)) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.onList = f
}

var fixedNow = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

func sample() []model.Notification {
	return []model.Notification{
		Decorate(model.Notification{ID: 1, Type: model.NotificationOrder, Priority: model.PriorityHigh, Timestamp: fixedNow.Add(-time.Hour)}),
		Decorate(model.Notification{ID: 2, Type: model.NotificationPayment, Priority: model.PriorityLow, Timestamp: fixedNow.Add(-30 * time.Hour)}),
		Decorate(model.Notification{ID: 3, Type: model.NotificationPromotion, IsRead: true, Timestamp: fixedNow.Add(-2 * time.Hour)}),
	}
}

func newTestStore(t *testing.T, gw Gateway, opts ...Option) *Store {
	t.Helper()
	opts = append([]Option{WithLogger(zaptest.NewLogger(t)), WithClock(func() time.Time { return fixedNow })}, opts...)
	s := NewStore(gw, session.Session{UserID: testUser}, opts...)
	t.Cleanup(s.Close)
	return s
}

func assertUnreadInvariant(t *testing.T, s *Store) {
	t.Helper()
	assert.Equal(t, countUnread(s.Notifications()), s.UnreadCount())
}

func TestLoadComputesUnreadCount(t *testing.T) {
	s := newTestStore(t, &stubGateway{items: sample()})
	assert.Equal(t, StateIdle, s.State())

	require.NoError(t, s.Load(context.Background(), 0, LoadOptions{ShowLoading: true}))

	assert.Equal(t, StateReady, s.State())
	assert.Len(t, s.Notifications(), 3)
	assert.Equal(t, 2, s.UnreadCount())
	assert.Nil(t, s.Err())
	assertUnreadInvariant(t, s)
}

func TestLoadFailureKeepsCollection(t *testing.T) {
	gw := &stubGateway{items: sample()}
	s := newTestStore(t, gw)
	require.NoError(t, s.Load(context.Background(), testUser, LoadOptions{}))

	gw.listErr = &api.Error{Type: api.ErrorTypeServer, Status: 500, Message: "boom"}
	err := s.Refresh(context.Background(), testUser)
	require.Error(t, err)

	assert.Equal(t, StateErrored, s.State())
	require.NotNil(t, s.Err())
	assert.Equal(t, api.ErrorTypeServer, s.Err().Type)
	assert.Len(t, s.Notifications(), 3)
	assert.Equal(t, 2, s.UnreadCount())

	s.ClearError()
	assert.Nil(t, s.Err())

	gw.listErr = nil
	require.NoError(t, s.Retry(context.Background()))
	assert.Equal(t, StateReady, s.State())
}

func TestMarkAsReadIsIdempotent(t *testing.T) {
	s := newTestStore(t, &stubGateway{items: sample()})
	require.NoError(t, s.Load(context.Background(), 0, LoadOptions{}))

	for range 2 {
		res := s.MarkAsRead(context.Background(), 1, 0)
		assert.True(t, res.Success)
		assert.Nil(t, res.Error)
	}

	assert.Equal(t, 1, s.UnreadCount())
	for _, n := range s.Notifications() {
		if n.ID == 1 {
			assert.True(t, n.IsRead)
		}
	}
	assertUnreadInvariant(t, s)

	// Already-read and unknown ids never push the count below zero.
	s.MarkAsRead(context.Background(), 2, 0)
	s.MarkAsRead(context.Background(), 2, 0)
	s.MarkAsRead(context.Background(), 99, 0)
	assert.Equal(t, 0, s.UnreadCount())
}

func TestFailedActionLeavesStateUnchanged(t *testing.T) {
	gw := &stubGateway{items: sample()}
	s := newTestStore(t, gw)
	require.NoError(t, s.Load(context.Background(), 0, LoadOptions{}))

	gw.actionErr = &api.Error{Type: api.ErrorTypeAuth, Status: 401, Message: "Unauthorized"}

	res := s.MarkAsRead(context.Background(), 1, 0)
	assert.False(t, res.Success)
	require.NotNil(t, res.Error)
	assert.Equal(t, api.ErrorTypeAuth, res.Error.Type)

	assert.False(t, s.MarkAllAsRead(context.Background(), 0).Success)
	assert.False(t, s.DeleteNotification(context.Background(), 1, 0).Success)
	assert.False(t, s.DeleteAllRead(context.Background(), 0).Success)

	assert.Equal(t, sample(), s.Notifications())
	assert.Equal(t, 2, s.UnreadCount())
	assert.NotNil(t, s.Err())
}

func TestMarkAllAsRead(t *testing.T) {
	s := newTestStore(t, &stubGateway{items: sample()})
	require.NoError(t, s.Load(context.Background(), 0, LoadOptions{}))

	require.True(t, s.MarkAllAsRead(context.Background(), 0).Success)

	assert.Equal(t, 0, s.UnreadCount())
	for _, n := range s.Notifications() {
		assert.True(t, n.IsRead)
	}
}

func TestDeleteNotificationAccounting(t *testing.T) {
	s := newTestStore(t, &stubGateway{items: sample()})
	require.NoError(t, s.Load(context.Background(), 0, LoadOptions{}))

	// read entry: count unchanged
	require.True(t, s.DeleteNotification(context.Background(), 3, 0).Success)
	assert.Len(t, s.Notifications(), 2)
	assert.Equal(t, 2, s.UnreadCount())

	// unread entry: count drops by one
	require.True(t, s.DeleteNotification(context.Background(), 1, 0).Success)
	remaining := s.Notifications()
	require.Len(t, remaining, 1)
	assert.EqualValues(t, 2, remaining[0].ID)
	assert.Equal(t, 1, s.UnreadCount())

	// unknown id: nothing removed
	require.True(t, s.DeleteNotification(context.Background(), 42, 0).Success)
	assert.Len(t, s.Notifications(), 1)
	assertUnreadInvariant(t, s)
}

func TestDeleteAllRead(t *testing.T) {
	s := newTestStore(t, &stubGateway{items: sample()})
	require.NoError(t, s.Load(context.Background(), 0, LoadOptions{}))

	require.True(t, s.DeleteAllRead(context.Background(), 0).Success)
	for _, n := range s.Notifications() {
		assert.False(t, n.IsRead)
	}
	assert.Len(t, s.Notifications(), 2)
	assertUnreadInvariant(t, s)
}

func TestFilteredAndStats(t *testing.T) {
	s := newTestStore(t, &stubGateway{items: sample()})
	require.NoError(t, s.Load(context.Background(), 0, LoadOptions{}))

	ids := func(items []model.Notification) []int64 {
		var out []int64
		for _, n := range items {
			out = append(out, n.ID)
		}
		return out
	}

	cases := []struct {
		filter Filter
		want   []int64
	}{
		{FilterAll, []int64{1, 2, 3}},
		{FilterUnread, []int64{1, 2}},
		{FilterRead, []int64{3}},
		{FilterHighPriority, []int64{1}},
		{FilterRecent, []int64{1, 3}},
	}
	for _, tc := range cases {
		s.SetFilter(tc.filter)
		assert.Equal(t, tc.filter, s.Filter())
		assert.Equal(t, tc.want, ids(s.Filtered()), "filter %s", tc.filter)
	}

	// Unknown filters leave the current one in place.
	s.SetFilter(FilterUnread)
	s.SetFilter("BOGUS")
	assert.Equal(t, FilterUnread, s.Filter())

	assert.Equal(t, Stats{Total: 3, Unread: 2, Read: 1, HighPriority: 1, Recent: 2}, s.Stats())
}

func TestLoadFiltered(t *testing.T) {
	gw := &stubGateway{items: sample(), unread: 1}
	s := newTestStore(t, gw)
	require.NoError(t, s.Load(context.Background(), 0, LoadOptions{}))

	require.NoError(t, s.LoadFiltered(context.Background(), 0, FilterRead))
	assert.Equal(t, FilterRead, s.Filter())
	assert.Len(t, s.Notifications(), 1)
	// The subset holds no unread entries; the count still covers the mailbox.
	assert.Equal(t, 2, s.UnreadCount())
	assert.Equal(t, 2, s.Snapshot().UnreadCount)

	assert.Equal(t, 1, s.UnreadCountFromAPI(context.Background(), 0))
	assert.Equal(t, 1, s.UnreadCount())

	err := s.LoadFiltered(context.Background(), 0, FilterRecent)
	require.Error(t, err)
	assert.Equal(t, api.ErrorTypeValidation, api.TypeOf(err))
}

func TestRefreshKeepsDataWhileInFlight(t *testing.T) {
	gw := &stubGateway{items: sample()}
	s := newTestStore(t, gw)
	require.NoError(t, s.Load(context.Background(), 0, LoadOptions{}))

	release := make(chan struct{})
	gw.setOnList(func(ctx context.Context, _ int) ([]model.Notification, error) {
		<-release
		return sample()[:1], nil
	})

	done := make(chan error, 1)
	go func() { done <- s.Refresh(context.Background(), 0) }()

	require.Eventually(t, func() bool { return s.State() == StateRefreshing }, time.Second, 5*time.Millisecond)
	assert.Len(t, s.Notifications(), 3)

	close(release)
	require.NoError(t, <-done)
	assert.Equal(t, StateReady, s.State())
	assert.Len(t, s.Notifications(), 1)
}

func TestLastRequestWins(t *testing.T) {
	gw := &stubGateway{}
	s := newTestStore(t, gw)

	firstStarted := make(chan struct{})
	releaseFirst := make(chan struct{})
	gw.setOnList(func(ctx context.Context, call int) ([]model.Notification, error) {
		if call == 1 {
			close(firstStarted)
			<-releaseFirst
			return sample(), nil
		}
		return sample()[2:], nil
	})

	first := make(chan error, 1)
	go func() { first <- s.Load(context.Background(), 0, LoadOptions{ShowLoading: true}) }()
	<-firstStarted

	require.NoError(t, s.Refresh(context.Background(), 0))
	close(releaseFirst)
	require.NoError(t, <-first)

	got := s.Notifications()
	require.Len(t, got, 1)
	assert.EqualValues(t, 3, got[0].ID)
	assert.Equal(t, 0, s.UnreadCount())
	assert.Equal(t, StateReady, s.State())
}

func TestCloseAbortsInFlightLoad(t *testing.T) {
	gw := &stubGateway{}
	s := NewStore(gw, session.Session{UserID: testUser})

	started := make(chan struct{})
	gw.setOnList(func(ctx context.Context, _ int) ([]model.Notification, error) {
		close(started)
		<-ctx.Done()
		return nil, ctx.Err()
	})

	done := make(chan error, 1)
	go func() { done <- s.Load(context.Background(), 0, LoadOptions{ShowLoading: true}) }()
	<-started

	s.Close()
	assert.ErrorIs(t, <-done, ErrClosed)
	assert.Equal(t, StateClosed, s.State())
	assert.ErrorIs(t, s.Load(context.Background(), 0, LoadOptions{}), ErrClosed)
	assert.Empty(t, s.Notifications())

	// drain: the channel is closed after Close
	for range s.Updates() {
	}
	s.Close()
}

func TestCallerCancellationRestoresState(t *testing.T) {
	gw := &stubGateway{items: sample()}
	s := newTestStore(t, gw)
	require.NoError(t, s.Load(context.Background(), 0, LoadOptions{}))

	gw.setOnList(func(ctx context.Context, _ int) ([]model.Notification, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	require.Error(t, s.Load(ctx, 0, LoadOptions{ShowLoading: true}))

	assert.Equal(t, StateReady, s.State())
	assert.Nil(t, s.Err())
}

func TestUserRequired(t *testing.T) {
	s := NewStore(&stubGateway{}, session.Session{})
	defer s.Close()

	res := s.MarkAsRead(context.Background(), 1, 0)
	assert.False(t, res.Success)
	assert.Equal(t, api.ErrorTypeValidation, res.Error.Type)

	err := s.Load(context.Background(), 0, LoadOptions{})
	assert.Equal(t, api.ErrorTypeValidation, api.TypeOf(err))
	assert.Nil(t, s.StartPolling(0))
}

func TestServerUnreadQueries(t *testing.T) {
	gw := &stubGateway{unread: 4}
	s := newTestStore(t, gw)

	assert.True(t, s.CheckUnread(context.Background(), 0))
	assert.Equal(t, 4, s.UnreadCountFromAPI(context.Background(), 0))
	assert.Equal(t, 4, s.UnreadCount())

	gw.unreadErr = errors.New("offline")
	assert.False(t, s.CheckUnread(context.Background(), 0))
	assert.Equal(t, 0, s.UnreadCountFromAPI(context.Background(), 0))
	assert.Equal(t, 4, s.UnreadCount())
}

func TestPollingLoadsAfterIntervalNotBefore(t *testing.T) {
	gw := &stubGateway{items: sample()}
	s := newTestStore(t, gw, WithPolling(true, 150*time.Millisecond))

	p := s.StartPolling(0)
	require.NotNil(t, p)
	assert.Same(t, p, s.StartPolling(0))
	assert.True(t, s.Snapshot().Polling)

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 0, gw.calls())

	require.Eventually(t, func() bool { return gw.calls() >= 1 }, time.Second, 10*time.Millisecond)
	require.Eventually(t, func() bool { return s.UnreadCount() == 2 }, time.Second, 10*time.Millisecond)
	// silent loads never show the loading state
	assert.NotEqual(t, StateLoading, s.State())

	s.StopPolling()
	assert.False(t, s.Snapshot().Polling)
}

func TestStopPollingBeforeIntervalPreventsLoad(t *testing.T) {
	gw := &stubGateway{items: sample()}
	s := newTestStore(t, gw, WithPolling(true, 100*time.Millisecond))

	p := s.StartPolling(0)
	require.NotNil(t, p)
	time.Sleep(20 * time.Millisecond)
	s.StopPolling()

	select {
	case <-p.Done():
	default:
		t.Fatal("poller still running after StopPolling")
	}

	time.Sleep(250 * time.Millisecond)
	assert.Equal(t, 0, gw.calls())
}

func TestPollingDisabled(t *testing.T) {
	s := newTestStore(t, &stubGateway{})
	assert.Nil(t, s.StartPolling(0))
}

func TestCloseStopsPolling(t *testing.T) {
	gw := &stubGateway{items: sample()}
	s := NewStore(gw, session.Session{UserID: testUser}, WithPolling(true, 20*time.Millisecond))

	p := s.StartPolling(0)
	require.NotNil(t, p)
	s.Close()

	select {
	case <-p.Done():
	case <-time.After(time.Second):
		t.Fatal("poller survived Close")
	}
	calls := gw.calls()
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, calls, gw.calls())
}

func TestUpdatesCarryLatestSnapshot(t *testing.T) {
	s := newTestStore(t, &stubGateway{items: sample()})
	require.NoError(t, s.Load(context.Background(), 0, LoadOptions{ShowLoading: true}))

	var last Snapshot
	for {
		select {
		case snap := <-s.Updates():
			last = snap
			continue
		default:
		}
		break
	}
	assert.Equal(t, StateReady, last.State)
	assert.Equal(t, 2, last.UnreadCount)
	assert.Len(t, last.Filtered, 3)
	assert.False(t, last.Loading())
}
