package app

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/nhle/storefront/internal/cart"
	"github.com/nhle/storefront/internal/keys"
	"github.com/nhle/storefront/internal/notification"
	"github.com/nhle/storefront/internal/order"
	"github.com/nhle/storefront/internal/session"
	"github.com/nhle/storefront/internal/store"
	"github.com/nhle/storefront/internal/ui"
	"github.com/nhle/storefront/internal/ui/cartview"
	"github.com/nhle/storefront/internal/ui/confirm"
	helpview "github.com/nhle/storefront/internal/ui/help"
	"github.com/nhle/storefront/internal/ui/notifications"
	"github.com/nhle/storefront/internal/ui/orders"
	"github.com/nhle/storefront/internal/ui/tracking"
)

// ViewState represents the current active view in the application.
type ViewState int

const (
	ViewNotifications ViewState = iota
	ViewOrders
	ViewCart
	ViewTracking
	ViewHelp
	ViewConfirm
)

var tabs = []string{"1 Notifications", "2 Orders", "3 Cart"}

// Deps are the long-lived services the UI drives. The caller owns them and
// must Close the stores after the program exits.
type Deps struct {
	Session       session.Session
	Notifications *notification.Store
	Orders        *order.Lifecycle
	Cart          *cart.Cart
	CartService   *cart.Service
	Formatter     *order.Formatter
	CartConfig    cartview.Config
	Device        store.KV
	Logger        *zap.Logger
}

// Model is the root Bubble Tea model that routes between views.
type Model struct {
	deps          Deps
	keys          *keys.KeyMap
	layout        ui.Layout
	currentView   ViewState
	previousView  ViewState
	notifications notifications.Model
	orders        orders.Model
	tracking      tracking.Model
	cart          cartview.Model
	confirm       confirm.Model
	help          helpview.Model
	ready         bool
}

// New creates the root model over deps.
func New(deps Deps) Model {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	k := keys.DefaultKeyMap()
	return Model{
		deps:          deps,
		keys:          k,
		notifications: notifications.New(deps.Notifications, k, 80, 20),
		orders:        orders.New(deps.Orders, k, 80, 20),
		tracking:      tracking.New(deps.Orders, k, 80, 20),
		cart:          cartview.New(deps.Cart, deps.CartService, deps.Orders, deps.Formatter, deps.CartConfig, k, 80, 20),
		confirm:       confirm.New(80, 20),
		help:          helpview.New(k, 80, 20),
	}
}

// Init loads every view and starts notification polling when enabled.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.notifications.Init(),
		m.orders.Init(),
		m.cart.Init(),
		m.startPolling(),
	)
}

func (m Model) startPolling() tea.Cmd {
	s, logger := m.deps.Notifications, m.deps.Logger
	return func() tea.Msg {
		if p := s.StartPolling(0); p != nil {
			logger.Info("notification polling started", zap.Duration("interval", p.Interval()))
		}
		return nil
	}
}

// Shutdown stops polling, remembers the notification filter and closes the
// stores. It is safe to call more than once.
func (m Model) Shutdown() {
	s := m.deps.Notifications
	if m.deps.Device != nil && s.State() != notification.StateClosed {
		ctx := context.Background()
		if err := m.deps.Device.Set(ctx, store.KeyNotificationFilter, string(s.Filter())); err != nil {
			m.deps.Logger.Warn("saving notification filter failed", zap.Error(err))
		}
	}
	s.StopPolling()
	s.Close()
	m.deps.Orders.Close()
}

// Update handles messages and dispatches to the active view.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout = ui.NewLayout(msg.Width, msg.Height)
		m.ready = true
		w, h := msg.Width, m.layout.ContentHeight()
		m.notifications.SetSize(w, h)
		m.orders.SetSize(w, h)
		m.tracking.SetSize(w, h)
		m.cart.SetSize(w, h)
		m.confirm.SetSize(w, h)
		m.help.SetSize(w, h)
		// huh forms need the size too.
		return m.updateActiveView(msg)

	// Background results go to their owning view whatever is on screen.
	case notifications.SnapshotMsg, notifications.ActionDoneMsg, spinner.TickMsg:
		m.notifications, cmd = m.notifications.Update(msg)
		return m, cmd

	case orders.SnapshotMsg, orders.ActionDoneMsg:
		m.orders, cmd = m.orders.Update(msg)
		return m, cmd

	case tracking.LoadedMsg:
		m.tracking, cmd = m.tracking.Update(msg)
		return m, cmd

	case cartview.SyncedMsg, cartview.PlacedMsg:
		m.cart, cmd = m.cart.Update(msg)
		return m, cmd

	case orders.TrackMsg:
		m.previousView = m.currentView
		m.currentView = ViewTracking
		return m, m.tracking.Open(msg.Order)

	case tracking.BackMsg:
		m.currentView = ViewOrders
		return m, nil

	case orders.ReorderMsg:
		m.currentView = ViewCart
		return m, m.cart.AddItems(msg.Order.Items)

	case confirm.AskMsg:
		m.previousView = m.currentView
		m.currentView = ViewConfirm
		return m, m.confirm.Start(msg.Request)

	case confirm.DoneMsg:
		m.currentView = m.previousView
		switch msg.Request.Kind {
		case confirm.KindDeleteNotification, confirm.KindDeleteAllRead:
			return m, m.notifications.Confirmed(msg)
		case confirm.KindCancelOrder, confirm.KindConfirmDelivery:
			return m, m.orders.Confirmed(msg)
		case confirm.KindPlaceOrder:
			return m, m.cart.Confirmed(msg)
		}
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.Shutdown()
			return m, tea.Quit
		}
		// The form owns every other key while it is open.
		if m.currentView == ViewConfirm {
			break
		}

		switch {
		case key.Matches(msg, m.keys.Quit):
			m.Shutdown()
			return m, tea.Quit

		case key.Matches(msg, m.keys.Help):
			if m.currentView == ViewHelp {
				m.currentView = m.previousView
				return m, nil
			}
			m.previousView = m.currentView
			m.currentView = ViewHelp
			return m, nil

		case key.Matches(msg, m.keys.Back) && m.currentView == ViewHelp:
			m.currentView = m.previousView
			return m, nil

		case key.Matches(msg, m.keys.Notifications):
			m.currentView = ViewNotifications
			return m, nil

		case key.Matches(msg, m.keys.Orders):
			m.currentView = ViewOrders
			return m, nil

		case key.Matches(msg, m.keys.Cart):
			m.currentView = ViewCart
			return m, nil
		}
	}

	return m.updateActiveView(msg)
}

// updateActiveView dispatches the message to the currently active view.
func (m Model) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch m.currentView {
	case ViewNotifications:
		m.notifications, cmd = m.notifications.Update(msg)
	case ViewOrders:
		m.orders, cmd = m.orders.Update(msg)
	case ViewTracking:
		m.tracking, cmd = m.tracking.Update(msg)
	case ViewCart:
		m.cart, cmd = m.cart.Update(msg)
	case ViewConfirm:
		m.confirm, cmd = m.confirm.Update(msg)
	}

	return m, cmd
}

// View renders the full terminal UI using the layout manager.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	header := m.layout.RenderHeader(m.tabLabels(), m.activeTab(), m.status())
	statusBar := m.layout.RenderStatusBar(m.keyHints())
	return m.layout.RenderWithFrame(header, m.renderContent(), statusBar)
}

func (m Model) tabLabels() []string {
	labels := make([]string, len(tabs))
	copy(labels, tabs)
	if n := m.notifications.UnreadCount(); n > 0 {
		labels[0] = fmt.Sprintf("%s (%d)", tabs[0], n)
	}
	if n := m.deps.Cart.Count(); n > 0 {
		labels[2] = fmt.Sprintf("%s (%d)", tabs[2], n)
	}
	return labels
}

func (m Model) activeTab() int {
	v := m.currentView
	if v == ViewHelp || v == ViewConfirm {
		v = m.previousView
	}
	switch v {
	case ViewOrders, ViewTracking:
		return 1
	case ViewCart:
		return 2
	}
	return 0
}

// status shows the signed-in user and what the active list is doing.
func (m Model) status() string {
	var detail string
	switch m.activeTab() {
	case 0:
		detail = m.notifications.Status()
	case 1:
		detail = m.orders.Status()
	}
	who := m.deps.Session.Name
	if who == "" {
		who = m.deps.Session.Email
	}
	if detail == "" {
		return who
	}
	return detail + " · " + who
}

// renderContent returns the rendered string for the current active view.
func (m Model) renderContent() string {
	switch m.currentView {
	case ViewNotifications:
		return m.notifications.View()
	case ViewOrders:
		return m.orders.View()
	case ViewTracking:
		return m.tracking.View()
	case ViewCart:
		return m.cart.View()
	case ViewHelp:
		return m.help.View()
	case ViewConfirm:
		return m.confirm.View()
	default:
		return ""
	}
}

// keyHints returns keyboard shortcut hints for the status bar.
func (m Model) keyHints() string {
	switch m.currentView {
	case ViewHelp:
		return "? close help | esc back"
	case ViewConfirm:
		return "enter submit | esc cancel"
	case ViewTracking:
		return "esc back | r refresh | j/k scroll"
	case ViewNotifications:
		return "tab filter | m read | M all read | d delete | D delete read | r refresh | ? help | q quit"
	case ViewOrders:
		return "tab status | c cancel | v confirm | t track | a buy again | r refresh | ? help | q quit"
	case ViewCart:
		return "+/- quantity | p place order | x clear | r refresh | ? help | q quit"
	default:
		return m.help.ShortView()
	}
}
