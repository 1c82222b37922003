package order

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/nhle/storefront/internal/api"
	"github.com/nhle/storefront/internal/model"
	"github.com/nhle/storefront/internal/session"
	"github.com/nhle/storefront/internal/validation"
)

// State is the load state of a Lifecycle.
type State int

const (
	StateIdle State = iota
	StateLoading
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
	case StateReady:
		return "ready"
	case StateErrored:
		return "errored"
	case StateClosed:
		return "closed"
	}
	return "unknown"
}

// ErrClosed is returned by calls issued after Close.
var ErrClosed = errors.New("order: lifecycle closed")

// Snapshot is a consistent copy of the lifecycle state.
type Snapshot struct {
	Orders      []DisplayOrder
	State       State
	Error       *api.ErrorInfo
	CurrentPage int
	TotalPages  int
	HasNext     bool
}

// Options configures a Lifecycle.
type Options struct {
	PageSize  int
	Formatter *Formatter
	Logger    *zap.Logger
}

// Lifecycle owns the order list of one screen and mediates the actions the
// server allows on each order. Transitions are server-authoritative: every
// successful action is followed by a reload.
type Lifecycle struct {
	gw       Gateway
	sess     session.Session
	format   *Formatter
	logger   *zap.Logger
	pageSize int

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	orders  []DisplayOrder
	page    model.OrderPage
	state   State
	err     *api.ErrorInfo
	seq     uint64
	updates chan Snapshot
}

// NewLifecycle creates a lifecycle for the session's user.
func NewLifecycle(gw Gateway, sess session.Session, opts Options) *Lifecycle {
	ctx, cancel := context.WithCancel(context.Background())
	l := &Lifecycle{
		gw:       gw,
		sess:     sess,
		format:   opts.Formatter,
		logger:   opts.Logger,
		pageSize: opts.PageSize,
		ctx:      ctx,
		cancel:   cancel,
		updates:  make(chan Snapshot, 16),
	}
	if l.format == nil {
		l.format = NewFormatter("fr", "XOF")
	}
	if l.logger == nil {
		l.logger = zap.NewNop()
	}
	if l.pageSize <= 0 {
		l.pageSize = 10
	}
	return l
}

func (l *Lifecycle) resolveUser(userID int64) (int64, error) {
	if userID > 0 {
		return userID, nil
	}
	if l.sess.UserID > 0 {
		return l.sess.UserID, nil
	}
	return 0, api.NewValidationError("user id required")
}

func (l *Lifecycle) bind(ctx context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(l.ctx, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}

// LoadOrders fetches the first page of userID's orders (zero means the
// session user) and replaces the list. A failure keeps the previous list
// and surfaces a retryable error.
func (l *Lifecycle) LoadOrders(ctx context.Context, userID int64) error {
	return l.loadPage(ctx, userID, 1)
}

// LoadPage is LoadOrders for a given 1-based page.
func (l *Lifecycle) LoadPage(ctx context.Context, userID int64, page int) error {
	return l.loadPage(ctx, userID, max(page, 1))
}

func (l *Lifecycle) loadPage(ctx context.Context, userID int64, page int) error {
	uid, err := l.resolveUser(userID)
	if err != nil {
		return err
	}

	l.mu.Lock()
	if l.state == StateClosed {
		l.mu.Unlock()
		return ErrClosed
	}
	l.seq++
	seq := l.seq
	prev := l.state
	l.state = StateLoading
	l.publishLocked()
	l.mu.Unlock()

	callCtx, cancel := l.bind(ctx)
	defer cancel()
	result, err := l.gw.ListUserOrders(callCtx, uid, page, l.pageSize)

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.state == StateClosed {
		return ErrClosed
	}
	if seq != l.seq {
		return nil
	}
	if err != nil {
		if ctx.Err() != nil {
			l.state = prev
			l.publishLocked()
			return err
		}
		l.err = api.Describe(err)
		l.state = StateErrored
		l.logger.Warn("loading orders failed", zap.Int64("user_id", uid), zap.Error(err))
		l.publishLocked()
		return err
	}

	orders := make([]DisplayOrder, 0, len(result.Orders))
	for _, o := range result.Orders {
		orders = append(orders, l.format.Display(o))
	}
	l.orders = orders
	l.page = result
	l.err = nil
	l.state = StateReady
	l.publishLocked()
	return nil
}

// Orders returns the loaded orders.
func (l *Lifecycle) Orders() []DisplayOrder {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]DisplayOrder(nil), l.orders...)
}

// Filtered returns the loaded orders matching f.
func (l *Lifecycle) Filtered(f StatusFilter) []DisplayOrder {
	l.mu.Lock()
	defer l.mu.Unlock()
	return FilterByStatus(l.orders, f)
}

func (l *Lifecycle) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Err returns the last surfaced error, or nil.
func (l *Lifecycle) Err() *api.ErrorInfo {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.err
}

// ClearError dismisses the surfaced error.
func (l *Lifecycle) ClearError() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.err = nil
	l.publishLocked()
}

// Find returns the loaded order with id.
func (l *Lifecycle) Find(id int64) (DisplayOrder, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, o := range l.orders {
		if o.ID == id {
			return o, true
		}
	}
	return DisplayOrder{}, false
}

// resync reloads the current page after a confirmed transition. Its failure
// is surfaced through state, not returned.
func (l *Lifecycle) resync(ctx context.Context) {
	l.mu.Lock()
	page := max(l.page.CurrentPage, 1)
	l.mu.Unlock()
	if err := l.loadPage(ctx, 0, page); err != nil && !errors.Is(err, ErrClosed) {
		l.logger.Debug("resync after order action failed", zap.Error(err))
	}
}

func (l *Lifecycle) call(ctx context.Context, fn func(context.Context) error) error {
	if l.State() == StateClosed {
		return ErrClosed
	}
	callCtx, cancel := l.bind(ctx)
	defer cancel()
	return fn(callCtx)
}

// CancelOrder asks the server to cancel an order. A blank reason fails with
// a validation error before any request.
func (l *Lifecycle) CancelOrder(ctx context.Context, orderID int64, reason string) error {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return api.NewValidationError("reason required")
	}
	err := l.call(ctx, func(ctx context.Context) error { return l.gw.Cancel(ctx, orderID, reason) })
	if err != nil {
		l.logger.Warn("cancelling order failed", zap.Int64("order_id", orderID), zap.Error(err))
		return err
	}
	l.logger.Info("order cancelled", zap.Int64("order_id", orderID))
	l.resync(ctx)
	return nil
}

// ConfirmDelivery acknowledges receipt, optionally with a 1..5 rating and a
// review.
func (l *Lifecycle) ConfirmDelivery(ctx context.Context, orderID int64, c DeliveryConfirmation) error {
	if c.Rating != nil && (*c.Rating < 1 || *c.Rating > 5) {
		return api.NewValidationError("rating must be between 1 and 5")
	}
	c.Review = strings.TrimSpace(c.Review)
	err := l.call(ctx, func(ctx context.Context) error { return l.gw.ConfirmDelivery(ctx, orderID, c) })
	if err != nil {
		l.logger.Warn("confirming delivery failed", zap.Int64("order_id", orderID), zap.Error(err))
		return err
	}
	l.resync(ctx)
	return nil
}

// TrackOrder fetches a tracking snapshot. The order list is not touched.
func (l *Lifecycle) TrackOrder(ctx context.Context, orderID int64) (model.TrackingInfo, error) {
	var info model.TrackingInfo
	err := l.call(ctx, func(ctx context.Context) error {
		var err error
		info, err = l.gw.Tracking(ctx, orderID)
		return err
	})
	if err != nil {
		return model.TrackingInfo{}, err
	}
	if info.CurrentStatus == "" || info.CurrentStatus == string(info.StatusCode) {
		info.CurrentStatus = l.format.StatusLabel(info.StatusCode)
	}
	return info, nil
}

// RequestReturn asks to send an item of a delivered order back.
func (l *Lifecycle) RequestReturn(ctx context.Context, orderID int64, r ReturnRequest) error {
	if o, ok := l.Find(orderID); ok && !o.IsDelivered {
		return api.NewValidationError("only delivered orders can be returned")
	}
	if err := validation.Struct(r); err != nil {
		return returnError(err)
	}
	if err := l.call(ctx, func(ctx context.Context) error { return l.gw.RequestReturn(ctx, orderID, r) }); err != nil {
		return err
	}
	l.resync(ctx)
	return nil
}

func returnError(err error) error {
	fieldErrs := validation.FieldErrors(err)
	if fieldErrs == nil {
		return api.NewValidationError("%s", err.Error())
	}
	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		switch fe.Field() {
		case "itemId":
			msgs = append(msgs, "item id required")
		case "reason":
			msgs = append(msgs, "reason required")
		default:
			msgs = append(msgs, fmt.Sprintf("%s is invalid", fe.Field()))
		}
	}
	return api.NewValidationError("%s", strings.Join(msgs, "; "))
}

// PlaceOrder validates and submits a draft for the session user.
func (l *Lifecycle) PlaceOrder(ctx context.Context, d Draft) (model.Order, error) {
	if d.UserID == 0 {
		d.UserID = l.sess.UserID
	}
	if v := ValidateOrder(d); !v.IsValid {
		return model.Order{}, api.NewValidationError("%s", strings.Join(v.Errors, "; "))
	}
	var placed model.Order
	err := l.call(ctx, func(ctx context.Context) error {
		var err error
		placed, err = l.gw.Create(ctx, d)
		return err
	})
	if err != nil {
		return model.Order{}, err
	}
	l.resync(ctx)
	return placed, nil
}

// Snapshot returns a consistent copy of the lifecycle state.
func (l *Lifecycle) Snapshot() Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.snapshotLocked()
}

// Updates delivers a Snapshot after every change and is closed by Close.
func (l *Lifecycle) Updates() <-chan Snapshot {
	return l.updates
}

// Close aborts in-flight requests and freezes the lifecycle.
func (l *Lifecycle) Close() {
	l.mu.Lock()
	if l.state == StateClosed {
		l.mu.Unlock()
		return
	}
	l.state = StateClosed
	close(l.updates)
	l.mu.Unlock()
	l.cancel()
}

func (l *Lifecycle) snapshotLocked() Snapshot {
	return Snapshot{
		Orders:      append([]DisplayOrder(nil), l.orders...),
		State:       l.state,
		Error:       l.err,
		CurrentPage: l.page.CurrentPage,
		TotalPages:  l.page.TotalPages,
		HasNext:     l.page.HasNext,
	}
}

func (l *Lifecycle) publishLocked() {
	if l.state == StateClosed {
		return
	}
	snap := l.snapshotLocked()
	select {
	case l.updates <- snap:
		return
	default:
	}
	select {
	case <-l.updates:
	default:
	}
	select {
	case l.updates <- snap:
	default:
	}
}
