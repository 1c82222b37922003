package tracking

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/storefront/internal/api"
	"github.com/nhle/storefront/internal/keys"
	"github.com/nhle/storefront/internal/model"
	"github.com/nhle/storefront/internal/order"
	"github.com/nhle/storefront/internal/theme"
)

// BackMsg signals the parent to navigate back to the orders list.
type BackMsg struct{}

// LoadedMsg carries a tracking snapshot or the error fetching it.
type LoadedMsg struct {
	OrderID int64
	Info    model.TrackingInfo
	Err     error
}

// Model is the order tracking detail view.
type Model struct {
	lifecycle *order.Lifecycle
	keys      *keys.KeyMap
	viewport  viewport.Model
	current   order.DisplayOrder
	info      *model.TrackingInfo
	err       *api.ErrorInfo
	loading   bool
	width     int
	height    int
}

func New(l *order.Lifecycle, k *keys.KeyMap, width, height int) Model {
	vp := viewport.New(width, height)
	return Model{lifecycle: l, keys: k, viewport: vp, width: width, height: height}
}

// Open starts loading tracking for o.
func (m *Model) Open(o order.DisplayOrder) tea.Cmd {
	m.current = o
	m.info = nil
	m.err = nil
	m.loading = true
	m.viewport.SetContent("")
	return m.fetch()
}

func (m Model) fetch() tea.Cmd {
	l := m.lifecycle
	id := m.current.ID
	return func() tea.Msg {
		info, err := l.TrackOrder(context.Background(), id)
		return LoadedMsg{OrderID: id, Info: info, Err: err}
	}
}

// Update handles messages for the tracking view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case LoadedMsg:
		if msg.OrderID != m.current.ID {
			return m, nil
		}
		m.loading = false
		if msg.Err != nil {
			m.err = api.Describe(msg.Err)
			return m, nil
		}
		m.info = &msg.Info
		m.viewport.SetContent(m.renderContent())
		m.viewport.GotoTop()
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Back):
			return m, func() tea.Msg { return BackMsg{} }
		case key.Matches(msg, m.keys.Refresh), key.Matches(msg, m.keys.Retry):
			m.loading = true
			m.err = nil
			return m, m.fetch()
		}
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// View renders the tracking view.
func (m Model) View() string {
	center := lipgloss.NewStyle().
		Width(m.width).
		Height(m.height).
		Align(lipgloss.Center, lipgloss.Center)

	switch {
	case m.loading:
		return center.Foreground(theme.ColorGray).Render("Loading tracking for " + m.current.OrderNumber + "...")
	case m.err != nil:
		return center.Render(theme.ErrorBannerStyle.Render(m.err.Message) + "\n\n" +
			theme.HelpStyle.Render("R to retry · esc to go back"))
	case m.info == nil:
		return center.Foreground(theme.ColorGray).Render("No order selected")
	}
	return m.viewport.View()
}

func (m Model) renderContent() string {
	info := m.info
	label := lipgloss.NewStyle().Foreground(theme.ColorGray).Width(20)
	var b strings.Builder

	number := info.OrderNumber
	if number == "" {
		number = m.current.OrderNumber
	}
	b.WriteString(theme.HeaderStyle.Render("Order " + number))
	b.WriteString("\n\n")

	row := func(k, v string) {
		if v == "" {
			return
		}
		b.WriteString(label.Render(k) + v + "\n")
	}
	row("Status", theme.StatusStyle(info.StatusCode).Render(info.CurrentStatus))
	row("Tracking number", info.TrackingNumber)
	row("Estimated delivery", info.EstimatedDelivery)
	row("Total", m.current.FormattedTotal)

	if len(m.current.Items) > 0 {
		b.WriteString("\n" + lipgloss.NewStyle().Bold(true).Render("Items") + "\n")
		for _, it := range m.current.Items {
			fmt.Fprintf(&b, "  %d × %s\n", it.Quantity, it.Name)
		}
	}

	b.WriteString("\n" + lipgloss.NewStyle().Bold(true).Render("History") + "\n")
	if len(info.History) == 0 {
		b.WriteString(theme.HelpStyle.Render("  No tracking events yet.") + "\n")
	}
	for i, ev := range info.History {
		bullet := "○"
		if i == len(info.History)-1 {
			bullet = "●"
		}
		fmt.Fprintf(&b, "  %s %s  %s\n", bullet, theme.HelpStyle.Render(ev.Date), ev.Description)
	}

	return theme.PanelStyle.Width(max(m.width-4, 20)).Render(b.String())
}

// SetSize updates the viewport dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height
	if m.info != nil {
		m.viewport.SetContent(m.renderContent())
	}
}
