package orders

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/storefront/internal/api"
	"github.com/nhle/storefront/internal/keys"
	"github.com/nhle/storefront/internal/order"
	"github.com/nhle/storefront/internal/theme"
	"github.com/nhle/storefront/internal/ui/confirm"
)

// SnapshotMsg carries a lifecycle change to the view.
type SnapshotMsg struct {
	Snapshot order.Snapshot
}

// ActionDoneMsg reports the outcome of an order action.
type ActionDoneMsg struct {
	Action string
	Err    error
}

// TrackMsg asks the root model to open tracking for an order.
type TrackMsg struct {
	Order order.DisplayOrder
}

// ReorderMsg asks the root model to put an order's items in the cart.
type ReorderMsg struct {
	Order order.DisplayOrder
}

// WaitForSnapshot blocks until the lifecycle publishes a change.
func WaitForSnapshot(l *order.Lifecycle) tea.Cmd {
	return func() tea.Msg {
		snap, ok := <-l.Updates()
		if !ok {
			return nil
		}
		return SnapshotMsg{Snapshot: snap}
	}
}

// Model is the orders list view.
type Model struct {
	lifecycle *order.Lifecycle
	keys      *keys.KeyMap
	list      list.Model
	snap      order.Snapshot
	filter    order.StatusFilter
	flash     string
	actionErr string
	width     int
	height    int
}

func New(l *order.Lifecycle, k *keys.KeyMap, width, height int) Model {
	lm := list.New([]list.Item{}, ItemDelegate{}, width, height)
	lm.SetShowTitle(false)
	lm.SetShowStatusBar(false)
	lm.SetShowHelp(false)
	lm.SetFilteringEnabled(false)

	m := Model{lifecycle: l, keys: k, list: lm, filter: order.FilterAll, snap: l.Snapshot()}
	m.SetSize(width, height)
	return m
}

// Init loads the orders and subscribes to lifecycle changes.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.load(1), WaitForSnapshot(m.lifecycle))
}

func (m Model) load(page int) tea.Cmd {
	l := m.lifecycle
	return func() tea.Msg {
		_ = l.LoadPage(context.Background(), 0, page)
		return nil
	}
}

// Update handles messages for the orders view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case SnapshotMsg:
		m.snap = msg.Snapshot
		m.refreshItems()
		return m, WaitForSnapshot(m.lifecycle)

	case ActionDoneMsg:
		m.flash, m.actionErr = "", ""
		if msg.Err != nil {
			m.actionErr = api.Describe(msg.Err).Message
		} else {
			m.flash = msg.Action
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKeys(msg)
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m *Model) refreshItems() {
	orders := order.FilterByStatus(m.snap.Orders, m.filter)
	items := make([]list.Item, len(orders))
	for i, o := range orders {
		items[i] = Item{O: o}
	}
	m.list.SetItems(items)
}

func (m Model) selected() (order.DisplayOrder, bool) {
	it, ok := m.list.SelectedItem().(Item)
	return it.O, ok
}

func (m Model) handleKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.CycleFilter):
		m.filter = m.filter.Next()
		m.refreshItems()
		m.list.Select(0)
		return m, nil

	case key.Matches(msg, m.keys.Refresh), key.Matches(msg, m.keys.Retry):
		m.flash, m.actionErr = "", ""
		m.lifecycle.ClearError()
		return m, m.load(max(m.snap.CurrentPage, 1))

	case key.Matches(msg, m.keys.NextPage):
		if m.snap.HasNext {
			return m, m.load(m.snap.CurrentPage + 1)
		}
		return m, nil

	case key.Matches(msg, m.keys.PrevPage):
		if m.snap.CurrentPage > 1 {
			return m, m.load(m.snap.CurrentPage - 1)
		}
		return m, nil
	}

	o, ok := m.selected()
	if !ok {
		var cmd tea.Cmd
		m.list, cmd = m.list.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.Cancel):
		if !o.CanCancel {
			m.actionErr = fmt.Sprintf("%s can no longer be cancelled (%s)", o.OrderNumber, o.StatusLabel)
			return m, nil
		}
		return m, confirm.Ask(confirm.Request{
			Kind:        confirm.KindCancelOrder,
			ID:          o.ID,
			Title:       "Cancel order " + o.OrderNumber + "?",
			Description: o.FormattedTotal,
			AskReason:   true,
		})

	case key.Matches(msg, m.keys.Confirm):
		if !o.IsDelivered {
			m.actionErr = fmt.Sprintf("%s has not been delivered yet", o.OrderNumber)
			return m, nil
		}
		return m, confirm.Ask(confirm.Request{
			Kind:      confirm.KindConfirmDelivery,
			ID:        o.ID,
			Title:     "Confirm delivery of " + o.OrderNumber + "?",
			AskReview: true,
		})

	case key.Matches(msg, m.keys.Track), key.Matches(msg, m.keys.Select):
		return m, func() tea.Msg { return TrackMsg{Order: o} }

	case key.Matches(msg, m.keys.Reorder):
		return m, func() tea.Msg { return ReorderMsg{Order: o} }
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// Confirmed runs a cancel or delivery confirmation the user agreed to.
func (m Model) Confirmed(done confirm.DoneMsg) tea.Cmd {
	if !done.Confirmed {
		return nil
	}
	l := m.lifecycle
	id := done.Request.ID
	switch done.Request.Kind {
	case confirm.KindCancelOrder:
		reason := done.Reason
		return func() tea.Msg {
			err := l.CancelOrder(context.Background(), id, reason)
			return ActionDoneMsg{Action: "Order cancelled", Err: err}
		}
	case confirm.KindConfirmDelivery:
		c := order.DeliveryConfirmation{Review: done.Review}
		if done.Rating > 0 {
			rating := done.Rating
			c.Rating = &rating
		}
		return func() tea.Msg {
			err := l.ConfirmDelivery(context.Background(), id, c)
			return ActionDoneMsg{Action: "Delivery confirmed, thank you!", Err: err}
		}
	}
	return nil
}

// Status summarizes the lifecycle state for the header.
func (m Model) Status() string {
	if m.snap.State == order.StateLoading {
		return "loading orders"
	}
	if m.snap.TotalPages > 1 {
		return fmt.Sprintf("page %d/%d", m.snap.CurrentPage, m.snap.TotalPages)
	}
	return ""
}

// View renders the orders view.
func (m Model) View() string {
	parts := []string{m.renderTabs()}
	switch {
	case m.snap.Error != nil:
		parts = append(parts, theme.ErrorBannerStyle.Render(m.snap.Error.Message+"  (R to retry)"))
	case m.actionErr != "":
		parts = append(parts, theme.ErrorBannerStyle.Render(m.actionErr))
	case m.flash != "":
		parts = append(parts, theme.SuccessStyle.Render(m.flash))
	default:
		parts = append(parts, "")
	}

	if len(m.list.Items()) == 0 {
		style := lipgloss.NewStyle().
			Width(m.width).
			Height(max(m.list.Height(), 3)).
			Align(lipgloss.Center, lipgloss.Center).
			Foreground(theme.ColorGray)
		msg := "No orders yet."
		if m.snap.State == order.StateLoading {
			msg = "Loading orders..."
		} else if m.filter != order.FilterAll {
			msg = "No orders with this status."
		}
		parts = append(parts, style.Render(msg))
	} else {
		parts = append(parts, m.list.View())
	}
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m Model) renderTabs() string {
	tabs := make([]string, 0, len(order.StatusFilters))
	for _, f := range order.StatusFilters {
		label := "all"
		if f != order.FilterAll {
			label = string(f)
		}
		if f == m.filter {
			tabs = append(tabs, theme.HeaderStyle.Render(label))
		} else {
			tabs = append(tabs, theme.InactiveTabStyle.Render(label))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

// SetSize updates the list dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.list.SetSize(width, max(height-2, 1))
}
