package order

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/nhle/storefront/internal/model"
)

var supported = []language.Tag{language.French, language.English}

var matcher = language.NewMatcher(supported)

var statusLabels = map[language.Tag]map[model.OrderStatus]string{
	language.French: {
		model.OrderPending:   "En attente",
		model.OrderConfirmed: "Confirmée",
		model.OrderPreparing: "En préparation",
		model.OrderShipped:   "Expédiée",
		model.OrderInTransit: "En transit",
		model.OrderDelivered: "Livrée",
		model.OrderCancelled: "Annulée",
		model.OrderReturned:  "Retournée",
	},
	language.English: {
		model.OrderPending:   "Pending",
		model.OrderConfirmed: "Confirmed",
		model.OrderPreparing: "Preparing",
		model.OrderShipped:   "Shipped",
		model.OrderInTransit: "In transit",
		model.OrderDelivered: "Delivered",
		model.OrderCancelled: "Cancelled",
		model.OrderReturned:  "Returned",
	},
}

var statusColors = map[model.OrderStatus]string{
	model.OrderPending:   "#ff9500",
	model.OrderConfirmed: "#007bff",
	model.OrderPreparing: "#6f42c1",
	model.OrderShipped:   "#17a2b8",
	model.OrderInTransit: "#ffc107",
	model.OrderDelivered: "#28a745",
	model.OrderCancelled: "#dc3545",
	model.OrderReturned:  "#6c757d",
}

const defaultStatusColor = "#6c757d"

// StatusColor returns the hex accent color of a status.
func StatusColor(s model.OrderStatus) string {
	if c, ok := statusColors[s]; ok {
		return c
	}
	return defaultStatusColor
}

// DisplayOrder is an order prepared for rendering.
type DisplayOrder struct {
	ID          int64
	OrderNumber string
	OrderDate   time.Time
	Date        string

	// Status stays canonical; StatusLabel is localized.
	Status      model.OrderStatus
	StatusLabel string
	StatusColor string

	Items          []model.OrderItem
	ItemCount      int
	Total          int64
	FormattedTotal string

	CanCancel   bool
	CanTrack    bool
	IsDelivered bool
}

// Formatter localizes labels, dates and amounts.
type Formatter struct {
	tag      language.Tag
	printer  *message.Printer
	currency string
}

// NewFormatter picks the closest supported locale to locale. Unknown
// locales fall back to French.
func NewFormatter(locale, currency string) *Formatter {
	tag := language.French
	if want, err := language.Parse(locale); err == nil {
		_, idx, conf := matcher.Match(want)
		if conf != language.No {
			tag = supported[idx]
		}
	}
	if currency == "" {
		currency = "XOF"
	}
	return &Formatter{
		tag:      tag,
		printer:  message.NewPrinter(tag),
		currency: strings.ToUpper(currency),
	}
}

// Locale returns the matched locale.
func (f *Formatter) Locale() language.Tag { return f.tag }

// StatusLabel translates a status. Unknown statuses are shown verbatim.
func (f *Formatter) StatusLabel(s model.OrderStatus) string {
	if l, ok := statusLabels[f.tag][s]; ok {
		return l
	}
	return string(s)
}

// FormatPrice renders an integer amount with locale grouping, e.g.
// "2 860 F CFA".
func (f *Formatter) FormatPrice(amount int64) string {
	n := f.printer.Sprintf("%d", amount)
	if f.currency == "XOF" {
		return n + " F CFA"
	}
	return fmt.Sprintf("%s %s", n, f.currency)
}

// FormatDate renders a calendar date in locale order.
func (f *Formatter) FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	if f.tag == language.English {
		return t.Format("01/02/2006")
	}
	return t.Format("02/01/2006")
}

// Display converts an order into its view model.
func (f *Formatter) Display(o model.Order) DisplayOrder {
	number := o.OrderNumber
	if number == "" {
		number = fmt.Sprintf("CMD-%d", o.ID)
	}
	items := o.Items
	if items == nil {
		items = []model.OrderItem{}
	}
	return DisplayOrder{
		ID:             o.ID,
		OrderNumber:    number,
		OrderDate:      o.OrderDate,
		Date:           f.FormatDate(o.OrderDate),
		Status:         o.Status,
		StatusLabel:    f.StatusLabel(o.Status),
		StatusColor:    StatusColor(o.Status),
		Items:          items,
		ItemCount:      len(items),
		Total:          o.TotalAmount,
		FormattedTotal: f.FormatPrice(o.TotalAmount),
		CanCancel:      o.Status.CanCancel(),
		CanTrack:       o.Status.CanTrack(),
		IsDelivered:    o.Status.IsDelivered(),
	}
}
