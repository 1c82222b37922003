package cartview

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/storefront/internal/api"
	"github.com/nhle/storefront/internal/cart"
	"github.com/nhle/storefront/internal/keys"
	"github.com/nhle/storefront/internal/model"
	"github.com/nhle/storefront/internal/order"
	"github.com/nhle/storefront/internal/theme"
	"github.com/nhle/storefront/internal/ui/confirm"
)

// SyncedMsg carries the server cart after a read or update.
type SyncedMsg struct {
	Cart model.Cart
	Err  error
}

// PlacedMsg reports a checkout.
type PlacedMsg struct {
	Order model.Order
	Err   error
}

// Config holds the pricing rules of the cart view.
type Config struct {
	FreeShippingThreshold int64
	ShippingFee           int64
	TaxRate               float64
}

// Model is the cart summary view.
type Model struct {
	cart      *cart.Cart
	svc       *cart.Service
	lifecycle *order.Lifecycle
	format    *order.Formatter
	cfg       Config
	keys      *keys.KeyMap
	bar       progress.Model
	cursor    int
	server    *model.Cart
	flash     string
	err       *api.ErrorInfo
	width     int
	height    int
}

func New(c *cart.Cart, svc *cart.Service, l *order.Lifecycle, f *order.Formatter, cfg Config, k *keys.KeyMap, width, height int) Model {
	bar := progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage())
	m := Model{cart: c, svc: svc, lifecycle: l, format: f, cfg: cfg, keys: k, bar: bar}
	m.SetSize(width, height)
	return m
}

// Init reads the server-side cart total.
func (m Model) Init() tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		c, err := svc.Get(context.Background(), 0)
		return SyncedMsg{Cart: c, Err: err}
	}
}

func (m Model) sync() tea.Cmd {
	c, svc := m.cart, m.svc
	return func() tea.Msg {
		out, err := c.Sync(context.Background(), svc)
		return SyncedMsg{Cart: out, Err: err}
	}
}

// AddItems puts the items of an earlier order in the cart and pushes the new
// total.
func (m *Model) AddItems(items []model.OrderItem) tea.Cmd {
	added := 0
	for _, it := range items {
		err := m.cart.Add(model.CartItem{ProductID: it.ProductID, Name: it.Name, Price: it.Price, Quantity: it.Quantity})
		if err == nil {
			added++
		}
	}
	if added == 0 {
		m.flash = "Nothing to add"
		return nil
	}
	m.flash = fmt.Sprintf("%d line(s) added to the cart", added)
	return m.sync()
}

// Update handles messages for the cart view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case SyncedMsg:
		if msg.Err != nil {
			m.err = api.Describe(msg.Err)
			return m, nil
		}
		m.err = nil
		c := msg.Cart
		m.server = &c
		return m, nil

	case PlacedMsg:
		if msg.Err != nil {
			m.err = api.Describe(msg.Err)
			return m, nil
		}
		m.err = nil
		m.cursor = 0
		m.flash = "Order " + msg.Order.OrderNumber + " placed"
		return m, m.sync()

	case tea.KeyMsg:
		return m.handleKeys(msg)
	}
	return m, nil
}

func (m Model) handleKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	items := m.cart.Items()
	switch {
	case key.Matches(msg, m.keys.Down):
		m.cursor = min(m.cursor+1, max(len(items)-1, 0))
	case key.Matches(msg, m.keys.Up):
		m.cursor = max(m.cursor-1, 0)

	case key.Matches(msg, m.keys.Increase), key.Matches(msg, m.keys.Decrease):
		if m.cursor >= len(items) {
			return m, nil
		}
		it := items[m.cursor]
		delta := 1
		if key.Matches(msg, m.keys.Decrease) {
			delta = -1
		}
		m.cart.SetQuantity(it.ProductID, it.Quantity+delta)
		m.cursor = min(m.cursor, max(len(m.cart.Items())-1, 0))
		m.flash = ""
		return m, m.sync()

	case key.Matches(msg, m.keys.Checkout):
		c, svc := m.cart, m.svc
		m.cursor = 0
		m.flash = "Cart cleared"
		return m, func() tea.Msg {
			if err := c.Checkout(context.Background(), svc); err != nil {
				return SyncedMsg{Err: err}
			}
			return SyncedMsg{Cart: model.Cart{}}
		}

	case key.Matches(msg, m.keys.Refresh):
		return m, m.Init()

	case key.Matches(msg, m.keys.PlaceOrder):
		if len(items) == 0 {
			m.flash = "Your cart is empty"
			return m, nil
		}
		totals := m.totals(items)
		return m, confirm.Ask(confirm.Request{
			Kind:        confirm.KindPlaceOrder,
			Title:       "Place order?",
			Description: "Total " + m.format.FormatPrice(totals.Total.Round(0).IntPart()),
			AskCheckout: true,
		})
	}
	return m, nil
}

// Confirmed places the order the user agreed to and empties the cart.
func (m Model) Confirmed(done confirm.DoneMsg) tea.Cmd {
	if !done.Confirmed || done.Request.Kind != confirm.KindPlaceOrder {
		return nil
	}
	items := m.cart.Items()
	totals := m.totals(items)
	draft := order.Draft{
		Items:           toOrderItems(items),
		ShippingAddress: done.Address,
		PaymentMethod:   done.Payment,
		TotalAmount:     totals.Total.Round(0).IntPart(),
	}
	c, svc, l := m.cart, m.svc, m.lifecycle
	return func() tea.Msg {
		ctx := context.Background()
		placed, err := l.PlaceOrder(ctx, draft)
		if err != nil {
			return PlacedMsg{Err: err}
		}
		if err := c.Checkout(ctx, svc); err != nil {
			return PlacedMsg{Order: placed, Err: err}
		}
		return PlacedMsg{Order: placed}
	}
}

func (m Model) shipping(items []model.CartItem) model.ShippingInfo {
	var total int64
	for _, it := range items {
		total += it.Price * int64(it.Quantity)
	}
	return cart.Shipping(total, m.cfg.FreeShippingThreshold, m.cfg.ShippingFee)
}

func (m Model) totals(items []model.CartItem) order.Totals {
	ship := m.shipping(items)
	return order.CalculateOrderTotal(toOrderItems(items), ship.ShippingFee, m.cfg.TaxRate)
}

func toOrderItems(items []model.CartItem) []model.OrderItem {
	out := make([]model.OrderItem, len(items))
	for i, it := range items {
		out[i] = model.OrderItem{ProductID: it.ProductID, Name: it.Name, Price: it.Price, Quantity: it.Quantity}
	}
	return out
}

// View renders the cart view.
func (m Model) View() string {
	var b strings.Builder
	items := m.cart.Items()

	if m.err != nil {
		b.WriteString(theme.ErrorBannerStyle.Render(m.err.Message) + "\n")
	} else if m.flash != "" {
		b.WriteString(theme.SuccessStyle.Render(m.flash) + "\n")
	}

	if len(items) == 0 {
		b.WriteString("\n" + theme.HelpStyle.Render("Your cart is empty. Press a on an order to buy its items again.") + "\n")
	}
	for i, it := range items {
		line := fmt.Sprintf("%-32s %3d × %14s = %s",
			truncate(it.Name, 32), it.Quantity, m.format.FormatPrice(it.Price),
			m.format.FormatPrice(it.Price*int64(it.Quantity)))
		if i == m.cursor {
			b.WriteString(theme.SelectedItemStyle.Render(line) + "\n")
		} else {
			b.WriteString(theme.ListItemStyle.Render(line) + "\n")
		}
	}

	ship := m.shipping(items)
	totals := m.totals(items)
	label := lipgloss.NewStyle().Foreground(theme.ColorGray).Width(18)
	price := func(d int64) string { return m.format.FormatPrice(d) }

	b.WriteString("\n")
	b.WriteString(label.Render("Subtotal") + price(totals.Subtotal.Round(0).IntPart()) + "\n")
	b.WriteString(label.Render("VAT") + price(totals.Tax.Round(0).IntPart()) + "\n")
	fee := price(ship.ShippingFee)
	if ship.IsFree {
		fee = theme.SuccessStyle.Render("free")
	}
	b.WriteString(label.Render("Shipping") + fee + "\n")
	b.WriteString(label.Render("Total") + lipgloss.NewStyle().Bold(true).Render(price(totals.Total.Round(0).IntPart())) + "\n\n")

	if !ship.IsFree {
		b.WriteString(theme.HelpStyle.Render(fmt.Sprintf("Add %s more for free shipping", price(ship.Remaining))) + "\n")
	}
	b.WriteString(m.bar.ViewAs(ship.Progress/100) + "\n")

	if m.server != nil {
		b.WriteString("\n" + theme.HelpStyle.Render("Saved cart total: "+price(m.server.TotalAmount)) + "\n")
	}

	return lipgloss.NewStyle().Padding(1, 2).Render(b.String())
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

// SetSize updates the view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.bar.Width = min(max(width-8, 10), 60)
}
