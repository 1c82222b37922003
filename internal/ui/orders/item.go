package orders

import (
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/storefront/internal/order"
	"github.com/nhle/storefront/internal/theme"
)

// Item wraps a display order for bubbles/list.
type Item struct {
	O order.DisplayOrder
}

func (i Item) FilterValue() string { return i.O.OrderNumber }

type ItemDelegate struct{}

func (d ItemDelegate) Height() int  { return 1 }
func (d ItemDelegate) Spacing() int { return 0 }

func (d ItemDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }

func (d ItemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	it, ok := item.(Item)
	if !ok {
		return
	}
	o := it.O

	status := theme.StatusStyle(o.Status).Width(16).Render(o.StatusLabel)
	articles := "article"
	if o.ItemCount > 1 {
		articles = "articles"
	}
	line := fmt.Sprintf("%-12s %s %-10s %3d %-8s %s",
		o.OrderNumber, status, o.Date, o.ItemCount, articles, o.FormattedTotal)

	if index == m.Index() {
		fmt.Fprint(w, theme.SelectedItemStyle.Render(line))
		return
	}
	fmt.Fprint(w, theme.ListItemStyle.Render(line))
}
