package notification

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/nhle/storefront/internal/api"
	"github.com/nhle/storefront/internal/model"
	"github.com/nhle/storefront/internal/session"
	"github.com/nhle/storefront/internal/telemetry"
)

// State is the load state of a Store.
type State int

const (
	StateIdle State = iota
	StateLoading
	StateRefreshing
	StateReady
	StateErrored
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateRefreshing:
		return "refreshing"
	case StateReady:
		return "ready"
	case StateErrored:
		return "errored"
	case StateClosed:
		return "closed"
	}
	return "unknown"
}

// ErrClosed is returned by loads issued after Close.
var ErrClosed = errors.New("notification: store closed")

// DefaultPollInterval is used when polling is enabled without an interval.
const DefaultPollInterval = 30 * time.Second

// Result is the outcome of a store action.
type Result struct {
	Success bool
	Error   *api.ErrorInfo
}

// LoadOptions controls Load.
type LoadOptions struct {
	// ShowLoading moves the store to StateLoading while the request is in
	// flight. Polling loads are silent.
	ShowLoading bool
}

// Snapshot is a consistent copy of the store state.
type Snapshot struct {
	Notifications []model.Notification
	Filtered      []model.Notification
	State         State
	Error         *api.ErrorInfo
	UnreadCount   int
	Filter        Filter
	Stats         Stats
	Polling       bool
}

// Loading reports whether a blocking load is in flight.
func (s Snapshot) Loading() bool { return s.State == StateLoading }

// Refreshing reports whether a refresh is in flight.
func (s Snapshot) Refreshing() bool { return s.State == StateRefreshing }

// Option configures a Store.
type Option func(*Store)

func WithLogger(l *zap.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// WithClock replaces time.Now for the RECENT window.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithPolling enables StartPolling. A non-positive interval means
// DefaultPollInterval.
func WithPolling(enabled bool, interval time.Duration) Option {
	return func(s *Store) {
		s.pollEnabled = enabled
		if interval > 0 {
			s.pollInterval = interval
		}
	}
}

// WithFilter sets the initial client-side filter.
func WithFilter(f Filter) Option {
	return func(s *Store) {
		if f.Valid() {
			s.filter = f
		}
	}
}

// Store owns one user's notifications for the lifetime of a screen. All
// remote mutations are reflected locally only after the server confirms
// them. Overlapping loads resolve last-request-wins. After Close nothing
// mutates the store and in-flight requests are aborted.
type Store struct {
	gw     Gateway
	sess   session.Session
	logger *zap.Logger
	now    func() time.Time

	pollEnabled  bool
	pollInterval time.Duration

	ctx    context.Context
	cancel context.CancelFunc

	mu            sync.Mutex
	notifications []model.Notification
	unread        int
	filter        Filter
	state         State
	err           *api.ErrorInfo
	seq           uint64
	poll          *Poller
	updates       chan Snapshot
}

// NewStore creates a store for the session's user.
func NewStore(gw Gateway, sess session.Session, opts ...Option) *Store {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Store{
		gw:           gw,
		sess:         sess,
		logger:       zap.NewNop(),
		now:          time.Now,
		pollInterval: DefaultPollInterval,
		ctx:          ctx,
		cancel:       cancel,
		filter:       FilterAll,
		updates:      make(chan Snapshot, 16),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// resolveUser falls back to the session user when userID is zero.
func (s *Store) resolveUser(userID int64) (int64, error) {
	if userID > 0 {
		return userID, nil
	}
	if s.sess.UserID > 0 {
		return s.sess.UserID, nil
	}
	return 0, api.NewValidationError("user id required")
}

// bind derives a context that is cancelled by either ctx or Close.
func (s *Store) bind(ctx context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(s.ctx, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}

// Load fetches the full collection of userID (zero means the session user)
// and replaces the local one.
func (s *Store) Load(ctx context.Context, userID int64, opts LoadOptions) error {
	next := s.currentState()
	if opts.ShowLoading {
		next = StateLoading
	}
	return s.fetch(ctx, userID, next, s.gw.List, nil)
}

// Refresh is Load that reports StateRefreshing and keeps the current
// collection visible while in flight.
func (s *Store) Refresh(ctx context.Context, userID int64) error {
	return s.fetch(ctx, userID, StateRefreshing, s.gw.List, nil)
}

// Retry reloads the session user's notifications with the loading indicator.
func (s *Store) Retry(ctx context.Context) error {
	return s.Load(ctx, 0, LoadOptions{ShowLoading: true})
}

// LoadFiltered replaces the collection with a server-filtered subset. Only
// ALL, UNREAD and READ are served remotely. The unread count is left as is
// because the subset does not describe the whole mailbox, so after a READ
// load UnreadCount can exceed the unread entries held locally. Call
// UnreadCountFromAPI to resynchronize it with the server.
func (s *Store) LoadFiltered(ctx context.Context, userID int64, f Filter) error {
	var list func(context.Context, int64) ([]model.Notification, error)
	switch f {
	case FilterAll:
		list = s.gw.List
	case FilterUnread:
		list = s.gw.ListUnread
	case FilterRead:
		list = s.gw.ListRead
	default:
		err := api.NewValidationError("filter %s is not served remotely", f)
		s.setError(err)
		return err
	}
	return s.fetch(ctx, userID, StateLoading, list, &f)
}

func (s *Store) currentState() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Store) fetch(
	ctx context.Context,
	userID int64,
	next State,
	list func(context.Context, int64) ([]model.Notification, error),
	filter *Filter,
) error {
	uid, err := s.resolveUser(userID)
	if err != nil {
		s.setError(err)
		return err
	}

	s.mu.Lock()
	if s.state == StateClosed {
		s.mu.Unlock()
		return ErrClosed
	}
	s.seq++
	seq := s.seq
	prev := s.state
	s.state = next
	s.publishLocked()
	s.mu.Unlock()

	callCtx, cancel := s.bind(ctx)
	defer cancel()
	items, err := list(callCtx, uid)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateClosed {
		return ErrClosed
	}
	if seq != s.seq {
		s.logger.Debug("discarding superseded notification load", zap.Uint64("seq", seq), zap.Uint64("latest", s.seq))
		return nil
	}

	if err != nil {
		if ctx.Err() != nil {
			// The caller gave up; this is not a failure to surface.
			s.state = prev
			s.publishLocked()
			return err
		}
		s.err = api.Describe(err)
		s.state = StateErrored
		s.logger.Warn("loading notifications failed", zap.Int64("user_id", uid), zap.Error(err))
		s.publishLocked()
		return err
	}

	s.notifications = items
	if filter != nil {
		s.filter = *filter
	} else {
		s.unread = countUnread(items)
	}
	s.err = nil
	s.state = StateReady
	s.publishLocked()
	return nil
}

func (s *Store) setError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateClosed {
		return
	}
	s.err = api.Describe(err)
	s.publishLocked()
}

func (s *Store) fail(err error) Result {
	s.setError(err)
	return Result{Error: api.Describe(err)}
}

// act runs a remote mutation and, on success, applies local under the lock.
func (s *Store) act(ctx context.Context, call func(context.Context) error, local func()) Result {
	callCtx, cancel := s.bind(ctx)
	defer cancel()

	if err := call(callCtx); err != nil {
		s.logger.Warn("notification action failed", zap.Error(err))
		return s.fail(err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateClosed {
		return Result{Success: true}
	}
	local()
	s.publishLocked()
	return Result{Success: true}
}

// MarkAsRead marks one notification read. Repeating it is harmless: the
// count only drops when a locally unread entry flips.
func (s *Store) MarkAsRead(ctx context.Context, id, userID int64) Result {
	uid, err := s.resolveUser(userID)
	if err != nil {
		return s.fail(err)
	}
	return s.act(ctx,
		func(ctx context.Context) error { return s.gw.MarkAsRead(ctx, id, uid) },
		func() {
			for i := range s.notifications {
				if s.notifications[i].ID == id && !s.notifications[i].IsRead {
					s.notifications[i].IsRead = true
					s.unread = max(0, s.unread-1)
				}
			}
		},
	)
}

// MarkAllAsRead marks every notification read.
func (s *Store) MarkAllAsRead(ctx context.Context, userID int64) Result {
	uid, err := s.resolveUser(userID)
	if err != nil {
		return s.fail(err)
	}
	return s.act(ctx,
		func(ctx context.Context) error { return s.gw.MarkAllAsRead(ctx, uid) },
		func() {
			for i := range s.notifications {
				s.notifications[i].IsRead = true
			}
			s.unread = 0
		},
	)
}

// DeleteNotification removes one notification.
func (s *Store) DeleteNotification(ctx context.Context, id, userID int64) Result {
	uid, err := s.resolveUser(userID)
	if err != nil {
		return s.fail(err)
	}
	return s.act(ctx,
		func(ctx context.Context) error { return s.gw.Delete(ctx, id, uid) },
		func() {
			for i, n := range s.notifications {
				if n.ID != id {
					continue
				}
				s.notifications = append(s.notifications[:i:i], s.notifications[i+1:]...)
				if !n.IsRead {
					s.unread = max(0, s.unread-1)
				}
				return
			}
		},
	)
}

// DeleteAllRead removes every read notification.
func (s *Store) DeleteAllRead(ctx context.Context, userID int64) Result {
	uid, err := s.resolveUser(userID)
	if err != nil {
		return s.fail(err)
	}
	return s.act(ctx,
		func(ctx context.Context) error { return s.gw.DeleteAllRead(ctx, uid) },
		func() {
			kept := make([]model.Notification, 0, len(s.notifications))
			for _, n := range s.notifications {
				if !n.IsRead {
					kept = append(kept, n)
				}
			}
			s.notifications = kept
		},
	)
}

// CheckUnread asks the server whether anything is unread. Failures are
// logged and read as false.
func (s *Store) CheckUnread(ctx context.Context, userID int64) bool {
	uid, err := s.resolveUser(userID)
	if err != nil {
		return false
	}
	ctx, cancel := s.bind(ctx)
	defer cancel()

	has, err := s.gw.HasUnread(ctx, uid)
	if err != nil {
		s.logger.Warn("checking unread notifications failed", zap.Error(err))
		return false
	}
	return has
}

// UnreadCountFromAPI fetches the server's unread count and adopts it.
// Failures are logged and return zero without touching local state.
func (s *Store) UnreadCountFromAPI(ctx context.Context, userID int64) int {
	uid, err := s.resolveUser(userID)
	if err != nil {
		return 0
	}
	ctx, cancel := s.bind(ctx)
	defer cancel()

	count, err := s.gw.UnreadCount(ctx, uid)
	if err != nil {
		s.logger.Warn("fetching unread count failed", zap.Error(err))
		return 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateClosed {
		s.unread = count
		s.publishLocked()
	}
	return count
}

// Filtered projects the collection through the current filter.
func (s *Store) Filtered() []model.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Apply(s.notifications, s.filter, s.now())
}

// Stats aggregates the collection. It is recomputed on every call.
func (s *Store) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ComputeStats(s.notifications, s.now())
}

// SetFilter changes the client-side filter. Unknown filters are ignored.
func (s *Store) SetFilter(f Filter) {
	if !f.Valid() {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filter = f
	s.publishLocked()
}

func (s *Store) Filter() Filter {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filter
}

// Notifications returns a copy of the collection.
func (s *Store) Notifications() []model.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Apply(s.notifications, FilterAll, s.now())
}

func (s *Store) UnreadCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.unread
}

func (s *Store) State() State {
	return s.currentState()
}

// Err returns the last surfaced error, or nil.
func (s *Store) Err() *api.ErrorInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// ClearError dismisses the surfaced error.
func (s *Store) ClearError() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = nil
	s.publishLocked()
}

// StartPolling silently reloads userID's notifications every poll interval.
// It returns nil when polling is disabled or the store is closed, and the
// running poller when one is already started.
func (s *Store) StartPolling(userID int64) *Poller {
	uid, err := s.resolveUser(userID)
	if err != nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.pollEnabled || s.state == StateClosed {
		return nil
	}
	if s.poll != nil {
		return s.poll
	}

	s.poll = newPoller(s.ctx, s.pollInterval, func(ctx context.Context) {
		if err := s.Load(ctx, uid, LoadOptions{}); err != nil {
			telemetry.NotificationPollsTotal.WithLabelValues("error").Inc()
			s.logger.Debug("notification poll failed", zap.Error(err))
			return
		}
		telemetry.NotificationPollsTotal.WithLabelValues("ok").Inc()
	})
	s.publishLocked()
	return s.poll
}

// StopPolling stops the poller, aborting a poll in flight.
func (s *Store) StopPolling() {
	s.mu.Lock()
	p := s.poll
	s.poll = nil
	if p != nil && s.state != StateClosed {
		s.publishLocked()
	}
	s.mu.Unlock()

	if p != nil {
		p.Stop()
	}
}

// Snapshot returns a consistent copy of the store state.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Updates delivers a Snapshot after every change. Slow readers only miss
// intermediate snapshots. The channel is closed by Close.
func (s *Store) Updates() <-chan Snapshot {
	return s.updates
}

// Close stops polling, aborts in-flight requests and freezes the store.
func (s *Store) Close() {
	s.mu.Lock()
	if s.state == StateClosed {
		s.mu.Unlock()
		return
	}
	s.state = StateClosed
	p := s.poll
	s.poll = nil
	close(s.updates)
	s.mu.Unlock()

	s.cancel()
	if p != nil {
		p.Stop()
	}
}

func (s *Store) snapshotLocked() Snapshot {
	now := s.now()
	return Snapshot{
		Notifications: Apply(s.notifications, FilterAll, now),
		Filtered:      Apply(s.notifications, s.filter, now),
		State:         s.state,
		Error:         s.err,
		UnreadCount:   s.unread,
		Filter:        s.filter,
		Stats:         ComputeStats(s.notifications, now),
		Polling:       s.poll != nil,
	}
}

// publishLocked must be called with s.mu held and the store open.
func (s *Store) publishLocked() {
	if s.state == StateClosed {
		return
	}
	telemetry.UnreadNotifications.Set(float64(s.unread))

	snap := s.snapshotLocked()
	select {
	case s.updates <- snap:
		return
	default:
	}
	// Full: drop the oldest so the newest state is always delivered.
	select {
	case <-s.updates:
	default:
	}
	select {
	case s.updates <- snap:
	default:
	}
}
