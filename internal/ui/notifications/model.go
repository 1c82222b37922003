package notifications

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/storefront/internal/keys"
	"github.com/nhle/storefront/internal/model"
	"github.com/nhle/storefront/internal/notification"
	"github.com/nhle/storefront/internal/theme"
	"github.com/nhle/storefront/internal/ui/confirm"
)

// SnapshotMsg carries a store change to the view.
type SnapshotMsg struct {
	Snapshot notification.Snapshot
}

// ActionDoneMsg reports the result of a store action.
type ActionDoneMsg struct {
	Action string
	Result notification.Result
}

// WaitForSnapshot blocks until the store publishes a change. It yields nil
// once the store is closed.
func WaitForSnapshot(s *notification.Store) tea.Cmd {
	return func() tea.Msg {
		snap, ok := <-s.Updates()
		if !ok {
			return nil
		}
		return SnapshotMsg{Snapshot: snap}
	}
}

// Model is the notifications list view.
type Model struct {
	store   *notification.Store
	keys    *keys.KeyMap
	list    list.Model
	spinner spinner.Model
	snap    notification.Snapshot
	flash   string
	now     func() time.Time
	width   int
	height  int
}

// New creates the view over s.
func New(s *notification.Store, k *keys.KeyMap, width, height int) Model {
	now := time.Now
	l := list.New([]list.Item{}, ItemDelegate{now: now}, width, height)
	l.SetShowTitle(false)
	l.SetShowStatusBar(false)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	m := Model{store: s, keys: k, list: l, spinner: sp, now: now, snap: s.Snapshot()}
	m.SetSize(width, height)
	return m
}

// Init loads the notifications and subscribes to store changes.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.load(), WaitForSnapshot(m.store), m.spinner.Tick)
}

func (m Model) load() tea.Cmd {
	s := m.store
	return func() tea.Msg {
		_ = s.Load(context.Background(), 0, notification.LoadOptions{ShowLoading: true})
		return nil
	}
}

// Update handles messages for the notifications view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case SnapshotMsg:
		m.apply(msg.Snapshot)
		return m, WaitForSnapshot(m.store)

	case ActionDoneMsg:
		m.flash = ""
		if msg.Result.Success {
			m.flash = msg.Action
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKeys(msg)
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m *Model) apply(snap notification.Snapshot) {
	m.snap = snap
	items := make([]list.Item, len(snap.Filtered))
	for i, n := range snap.Filtered {
		items[i] = Item{N: n}
	}
	m.list.SetItems(items)
}

func (m Model) selected() (model.Notification, bool) {
	it, ok := m.list.SelectedItem().(Item)
	return it.N, ok
}

func (m Model) handleKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	s := m.store
	switch {
	case key.Matches(msg, m.keys.CycleFilter):
		s.SetFilter(m.snap.Filter.Next())
		m.list.Select(0)
		return m, nil

	case key.Matches(msg, m.keys.Refresh):
		m.flash = ""
		return m, func() tea.Msg {
			_ = s.Refresh(context.Background(), 0)
			return nil
		}

	case key.Matches(msg, m.keys.Retry):
		s.ClearError()
		return m, func() tea.Msg {
			_ = s.Retry(context.Background())
			return nil
		}

	case key.Matches(msg, m.keys.MarkRead), key.Matches(msg, m.keys.Select):
		n, ok := m.selected()
		if !ok || n.IsRead {
			return m, nil
		}
		return m, m.act("Marked as read", func(ctx context.Context) notification.Result {
			return s.MarkAsRead(ctx, n.ID, 0)
		})

	case key.Matches(msg, m.keys.MarkAllRead):
		if m.snap.UnreadCount == 0 {
			return m, nil
		}
		return m, m.act("All notifications marked as read", func(ctx context.Context) notification.Result {
			return s.MarkAllAsRead(ctx, 0)
		})

	case key.Matches(msg, m.keys.Delete):
		n, ok := m.selected()
		if !ok {
			return m, nil
		}
		return m, confirm.Ask(confirm.Request{
			Kind:        confirm.KindDeleteNotification,
			ID:          n.ID,
			Title:       "Delete notification?",
			Description: n.Title,
		})

	case key.Matches(msg, m.keys.DeleteAllRead):
		if m.snap.Stats.Read == 0 {
			return m, nil
		}
		return m, confirm.Ask(confirm.Request{
			Kind:        confirm.KindDeleteAllRead,
			Title:       "Delete all read notifications?",
			Description: fmt.Sprintf("%d notifications will be removed.", m.snap.Stats.Read),
		})
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// Confirmed runs a delete the user agreed to.
func (m Model) Confirmed(done confirm.DoneMsg) tea.Cmd {
	if !done.Confirmed {
		return nil
	}
	s := m.store
	switch done.Request.Kind {
	case confirm.KindDeleteNotification:
		id := done.Request.ID
		return m.act("Notification deleted", func(ctx context.Context) notification.Result {
			return s.DeleteNotification(ctx, id, 0)
		})
	case confirm.KindDeleteAllRead:
		return m.act("Read notifications deleted", func(ctx context.Context) notification.Result {
			return s.DeleteAllRead(ctx, 0)
		})
	}
	return nil
}

func (m Model) act(label string, fn func(context.Context) notification.Result) tea.Cmd {
	return func() tea.Msg {
		return ActionDoneMsg{Action: label, Result: fn(context.Background())}
	}
}

// UnreadCount is the unread badge value.
func (m Model) UnreadCount() int {
	return m.snap.UnreadCount
}

// Status summarizes the store state for the header.
func (m Model) Status() string {
	switch {
	case m.snap.Loading():
		return m.spinner.View() + " loading"
	case m.snap.Refreshing():
		return m.spinner.View() + " refreshing"
	case m.snap.Polling:
		return "live"
	}
	return ""
}

// View renders the notifications view.
func (m Model) View() string {
	parts := []string{m.renderTabs(), m.renderStats()}
	if e := m.snap.Error; e != nil {
		parts = append(parts, theme.ErrorBannerStyle.Render(e.Message+"  (R to retry)"))
	} else if m.flash != "" {
		parts = append(parts, theme.SuccessStyle.Render(m.flash))
	}

	if len(m.list.Items()) == 0 {
		parts = append(parts, m.renderEmptyState())
	} else {
		parts = append(parts, m.list.View())
	}
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m Model) renderTabs() string {
	tabs := make([]string, 0, len(notification.Filters))
	for _, f := range notification.Filters {
		label := strings.ReplaceAll(strings.ToLower(string(f)), "_", " ")
		if f == m.snap.Filter {
			tabs = append(tabs, theme.HeaderStyle.Render(label))
		} else {
			tabs = append(tabs, theme.InactiveTabStyle.Render(label))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

func (m Model) renderStats() string {
	st := m.snap.Stats
	return theme.HelpStyle.Render(fmt.Sprintf(
		"%d total · %d unread · %d high priority · %d in the last 24h",
		st.Total, st.Unread, st.HighPriority, st.Recent,
	))
}

func (m Model) renderEmptyState() string {
	style := lipgloss.NewStyle().
		Width(m.width).
		Height(max(m.list.Height(), 3)).
		Align(lipgloss.Center, lipgloss.Center).
		Foreground(theme.ColorGray)

	if m.snap.Loading() {
		return style.Render("Loading notifications...")
	}
	if m.snap.Filter != notification.FilterAll {
		return style.Render("No notifications match this filter.\nPress tab to change it.")
	}
	return style.Render("You have no notifications.")
}

// SetSize updates the list dimensions. Four lines are kept for tabs, stats
// and the banner.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.list.SetSize(width, max(height-4, 1))
}
