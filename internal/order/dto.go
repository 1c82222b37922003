package order

import (
	"github.com/shopspring/decimal"

	"github.com/nhle/storefront/internal/model"
)

type orderItemDTO struct {
	ProductID   int64           `json:"productId"`
	ProductName string          `json:"productName"`
	Name        string          `json:"name"`
	Price       decimal.Decimal `json:"price"`
	Quantity    int             `json:"quantity"`
}

// orderDTO is the backend wire shape. Amounts arrive as JSON numbers with
// optional fraction digits.
type orderDTO struct {
	ID            int64           `json:"id"`
	OrderNumber   string          `json:"orderNumber"`
	OrderDate     string          `json:"orderDate"`
	TotalAmount   decimal.Decimal `json:"totalAmount"`
	Status        string          `json:"status"`
	PaymentStatus string          `json:"paymentStatus"`
	UserID        int64           `json:"userId"`
	Items         []orderItemDTO  `json:"items"`
	DeliveryDate  string          `json:"deliveryDate"`
}

type orderPageDTO struct {
	Orders        []orderDTO `json:"orders"`
	CurrentPage   int        `json:"currentPage"`
	TotalPages    int        `json:"totalPages"`
	TotalElements int        `json:"totalElements"`
	HasNext       bool       `json:"hasNext"`
	HasPrevious   bool       `json:"hasPrevious"`
}

// units rounds a money amount to integer currency units.
func units(d decimal.Decimal) int64 {
	return d.Round(0).IntPart()
}

func (d orderDTO) toModel() model.Order {
	o := model.Order{
		ID:            d.ID,
		OrderNumber:   d.OrderNumber,
		Status:        model.OrderStatus(d.Status),
		PaymentStatus: d.PaymentStatus,
		TotalAmount:   units(d.TotalAmount),
		UserID:        d.UserID,
		Items:         make([]model.OrderItem, 0, len(d.Items)),
	}
	o.OrderDate, _ = model.ParseServerTime(d.OrderDate)
	if t, err := model.ParseServerTime(d.DeliveryDate); err == nil && !t.IsZero() {
		o.DeliveryDate = &t
	}
	for _, it := range d.Items {
		name := it.Name
		if name == "" {
			name = it.ProductName
		}
		o.Items = append(o.Items, model.OrderItem{
			ProductID: it.ProductID,
			Name:      name,
			Price:     units(it.Price),
			Quantity:  it.Quantity,
		})
	}
	return o
}

func (p orderPageDTO) toModel() model.OrderPage {
	page := model.OrderPage{
		Orders:        make([]model.Order, 0, len(p.Orders)),
		CurrentPage:   p.CurrentPage,
		TotalPages:    p.TotalPages,
		TotalElements: p.TotalElements,
		HasNext:       p.HasNext,
		HasPrevious:   p.HasPrevious,
	}
	for _, o := range p.Orders {
		page.Orders = append(page.Orders, o.toModel())
	}
	return page
}
