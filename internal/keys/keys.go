package keys

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the global keybindings for the application.
type KeyMap struct {
	// Navigation
	Down key.Binding
	Up   key.Binding

	// Selection
	Select key.Binding

	// Back / Quit
	Back key.Binding
	Quit key.Binding

	// Views
	Notifications key.Binding
	Orders        key.Binding
	Cart          key.Binding

	Help key.Binding

	// Refresh and error recovery
	Refresh key.Binding
	Retry   key.Binding

	// Cycles the list filter of the current view
	CycleFilter key.Binding

	// Notification actions
	MarkRead      key.Binding
	MarkAllRead   key.Binding
	Delete        key.Binding
	DeleteAllRead key.Binding

	// Order actions
	Cancel   key.Binding
	Confirm  key.Binding
	Track    key.Binding
	Reorder  key.Binding
	NextPage key.Binding
	PrevPage key.Binding

	// Cart actions
	Increase   key.Binding
	Decrease   key.Binding
	Checkout   key.Binding
	PlaceOrder key.Binding
}

// DefaultKeyMap returns the default set of keybindings.
func DefaultKeyMap() *KeyMap {
	return &KeyMap{
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/↓", "down"),
		),
		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/↑", "up"),
		),
		Select: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "open"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		Notifications: key.NewBinding(
			key.WithKeys("1"),
			key.WithHelp("1", "notifications"),
		),
		Orders: key.NewBinding(
			key.WithKeys("2"),
			key.WithHelp("2", "orders"),
		),
		Cart: key.NewBinding(
			key.WithKeys("3"),
			key.WithHelp("3", "cart"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "toggle help"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh"),
		),
		Retry: key.NewBinding(
			key.WithKeys("R"),
			key.WithHelp("R", "retry"),
		),
		CycleFilter: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "cycle filter"),
		),
		MarkRead: key.NewBinding(
			key.WithKeys("m"),
			key.WithHelp("m", "mark read"),
		),
		MarkAllRead: key.NewBinding(
			key.WithKeys("M"),
			key.WithHelp("M", "mark all read"),
		),
		Delete: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "delete"),
		),
		DeleteAllRead: key.NewBinding(
			key.WithKeys("D"),
			key.WithHelp("D", "delete all read"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "cancel order"),
		),
		Confirm: key.NewBinding(
			key.WithKeys("v"),
			key.WithHelp("v", "confirm delivery"),
		),
		Track: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", "track"),
		),
		Reorder: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "add items to cart"),
		),
		NextPage: key.NewBinding(
			key.WithKeys("right", "l"),
			key.WithHelp("→/l", "next page"),
		),
		PrevPage: key.NewBinding(
			key.WithKeys("left", "h"),
			key.WithHelp("←/h", "previous page"),
		),
		Increase: key.NewBinding(
			key.WithKeys("+", "="),
			key.WithHelp("+", "add one"),
		),
		Decrease: key.NewBinding(
			key.WithKeys("-"),
			key.WithHelp("-", "remove one"),
		),
		Checkout: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "clear cart"),
		),
		PlaceOrder: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "place order"),
		),
	}
}

// ShortHelp returns the most essential keybindings for the compact help view.
func (k *KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{
		k.Up, k.Down, k.CycleFilter, k.Refresh,
		k.Notifications, k.Orders, k.Cart, k.Help, k.Quit,
	}
}

// FullHelp returns all keybindings grouped by category for the expanded
// help view.
func (k *KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Select, k.Back, k.Quit},
		{k.Notifications, k.Orders, k.Cart, k.Help, k.Refresh, k.Retry},
		{k.CycleFilter, k.MarkRead, k.MarkAllRead, k.Delete, k.DeleteAllRead},
		{k.Cancel, k.Confirm, k.Track, k.Reorder, k.PrevPage, k.NextPage},
		{k.Increase, k.Decrease, k.Checkout, k.PlaceOrder},
	}
}
