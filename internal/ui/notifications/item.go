package notifications

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/storefront/internal/model"
	"github.com/nhle/storefront/internal/notification"
	"github.com/nhle/storefront/internal/theme"
)

// Item wraps a notification for bubbles/list.
type Item struct {
	N model.Notification
}

func (i Item) FilterValue() string { return i.N.Title }

// ItemDelegate draws a notification on two lines: title then message.
type ItemDelegate struct {
	now func() time.Time
}

func (d ItemDelegate) Height() int  { return 2 }
func (d ItemDelegate) Spacing() int { return 1 }

func (d ItemDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }

func (d ItemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	it, ok := item.(Item)
	if !ok {
		return
	}
	n := it.N

	marker := " "
	titleStyle := theme.ReadStyle
	if !n.IsRead {
		marker = "•"
		titleStyle = theme.UnreadStyle
	}

	icon := theme.AccentStyle(n.Color).Render(fmt.Sprintf("[%s]", n.Icon))
	when := theme.HelpStyle.Render(notification.RelativeTime(n.Timestamp, d.now()))
	prio := ""
	if n.Priority == model.PriorityHigh {
		prio = " " + theme.PriorityStyle(n.Priority).Render("!")
	}

	width := max(m.Width()-4, 10)
	title := fmt.Sprintf("%s %s %s%s  %s", marker, icon, titleStyle.Render(truncate(n.Title, width/2)), prio, when)
	body := "    " + theme.ReadStyle.Render(truncate(firstLine(n.Message), width-4))

	block := lipgloss.JoinVertical(lipgloss.Left, title, body)
	if index == m.Index() {
		fmt.Fprint(w, theme.SelectedItemStyle.Render(block))
		return
	}
	fmt.Fprint(w, theme.ListItemStyle.Render(block))
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

func truncate(s string, n int) string {
	r := []rune(s)
	if n <= 1 || len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
