package confirm

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/storefront/internal/theme"
)

// Kind names the action awaiting confirmation.
type Kind int

const (
	KindDeleteNotification Kind = iota
	KindDeleteAllRead
	KindCancelOrder
	KindConfirmDelivery
	KindPlaceOrder
)

// Request describes what to ask.
type Request struct {
	Kind        Kind
	ID          int64
	Title       string
	Description string

	// AskReason adds a required free-text reason.
	AskReason bool
	// AskReview adds an optional rating and review.
	AskReview bool
	// AskCheckout adds shipping address and payment method.
	AskCheckout bool
}

// AskMsg asks the root model to open the form for Request.
type AskMsg struct {
	Request Request
}

// Ask returns a command emitting AskMsg.
func Ask(r Request) tea.Cmd {
	return func() tea.Msg { return AskMsg{Request: r} }
}

// DoneMsg is dispatched when the form is submitted or aborted.
type DoneMsg struct {
	Request   Request
	Confirmed bool
	Reason    string
	Rating    int
	Review    string
	Address   string
	Payment   string
}

// PaymentMethods offered at checkout.
var PaymentMethods = []string{"WAVE", "ORANGE_MONEY", "MTN_MONEY", "CARD", "CASH_ON_DELIVERY"}

// formBindings lives on the heap so huh's Value pointers stay valid across
// model copies.
type formBindings struct {
	confirmed bool
	reason    string
	rating    int
	review    string
	address   string
	payment   string
}

// Model is the confirmation form.
type Model struct {
	form   *huh.Form
	fb     *formBindings
	req    Request
	width  int
	height int
}

func New(width, height int) Model {
	return Model{fb: &formBindings{}, width: width, height: height}
}

// Start resets the bindings and builds the form for r.
func (m *Model) Start(r Request) tea.Cmd {
	m.req = r
	*m.fb = formBindings{payment: PaymentMethods[0]}
	m.form = m.build()
	return m.form.Init()
}

// Update handles messages for the form.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil {
		return m, nil
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateCompleted:
		done := DoneMsg{
			Request:   m.req,
			Confirmed: m.fb.confirmed,
			Reason:    strings.TrimSpace(m.fb.reason),
			Rating:    m.fb.rating,
			Review:    strings.TrimSpace(m.fb.review),
			Address:   strings.TrimSpace(m.fb.address),
			Payment:   m.fb.payment,
		}
		m.form = nil
		return m, func() tea.Msg { return done }
	case huh.StateAborted:
		req := m.req
		m.form = nil
		return m, func() tea.Msg { return DoneMsg{Request: req} }
	}
	return m, cmd
}

// View renders the form.
func (m Model) View() string {
	if m.form == nil {
		return ""
	}
	title := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1).
		Render(m.req.Title)

	return lipgloss.NewStyle().
		Padding(1, 2).
		Render(title + "\n" + m.form.View())
}

// SetSize updates the form dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m *Model) build() *huh.Form {
	var fields []huh.Field

	if m.req.AskReason {
		fields = append(fields, huh.NewText().
			Title("Reason").
			Placeholder("Why do you want to cancel?").
			Value(&m.fb.reason).
			Validate(required("reason")))
	}
	if m.req.AskReview {
		fields = append(fields,
			huh.NewSelect[int]().
				Title("Rating").
				Options(
					huh.NewOption("No rating", 0),
					huh.NewOption("★★★★★", 5),
					huh.NewOption("★★★★", 4),
					huh.NewOption("★★★", 3),
					huh.NewOption("★★", 2),
					huh.NewOption("★", 1),
				).
				Value(&m.fb.rating),
			huh.NewText().
				Title("Review").
				Placeholder("Optional").
				Value(&m.fb.review),
		)
	}
	if m.req.AskCheckout {
		opts := make([]huh.Option[string], len(PaymentMethods))
		for i, p := range PaymentMethods {
			opts[i] = huh.NewOption(strings.ReplaceAll(p, "_", " "), p)
		}
		fields = append(fields,
			huh.NewInput().
				Title("Shipping address").
				Value(&m.fb.address).
				Validate(required("shipping address")),
			huh.NewSelect[string]().
				Title("Payment method").
				Options(opts...).
				Value(&m.fb.payment),
		)
	}

	fields = append(fields, huh.NewConfirm().
		Title(m.req.Title).
		Description(m.req.Description).
		Affirmative("Yes").
		Negative("No").
		Value(&m.fb.confirmed))

	return huh.NewForm(huh.NewGroup(fields...)).
		WithWidth(m.formWidth()).
		WithShowHelp(true)
}

func (m Model) formWidth() int {
	return min(max(m.width-4, 40), 100)
}

func required(field string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", field)
		}
		return nil
	}
}
