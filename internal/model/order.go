package model

import "time"

// OrderStatus is the canonical, server-authoritative order state.
type OrderStatus string

const (
	OrderPending   OrderStatus = "PENDING"
	OrderConfirmed OrderStatus = "CONFIRMED"
	OrderPreparing OrderStatus = "PREPARING"
	OrderShipped   OrderStatus = "SHIPPED"
	OrderInTransit OrderStatus = "IN_TRANSIT"
	OrderDelivered OrderStatus = "DELIVERED"
	OrderCancelled OrderStatus = "CANCELLED"
	OrderReturned  OrderStatus = "RETURNED"
)

// CanCancel reports whether the client may request cancellation.
func (s OrderStatus) CanCancel() bool {
	return s == OrderPending || s == OrderConfirmed
}

// CanTrack reports whether the order is in carrier hands.
func (s OrderStatus) CanTrack() bool {
	return s == OrderShipped || s == OrderInTransit
}

// IsDelivered reports whether the order reached the customer.
func (s OrderStatus) IsDelivered() bool {
	return s == OrderDelivered
}

// OrderItem is one line of an order. Prices are integer currency units.
type OrderItem struct {
	ProductID int64  `json:"productId" validate:"required"`
	Name      string `json:"name,omitempty"`
	Price     int64  `json:"price" validate:"gt=0"`
	Quantity  int    `json:"quantity" validate:"gt=0"`
}

// Order is a placed order as returned by the backend.
type Order struct {
	ID            int64       `json:"id"`
	OrderNumber   string      `json:"orderNumber"`
	OrderDate     time.Time   `json:"orderDate"`
	Status        OrderStatus `json:"status"`
	PaymentStatus string      `json:"paymentStatus,omitempty"`
	Items         []OrderItem `json:"items"`
	TotalAmount   int64       `json:"totalAmount"`
	DeliveryDate  *time.Time  `json:"deliveryDate,omitempty"`
	UserID        int64       `json:"userId"`
}

// OrderPage is one page of a user's orders.
type OrderPage struct {
	Orders        []Order
	CurrentPage   int
	TotalPages    int
	TotalElements int
	HasNext       bool
	HasPrevious   bool
}

// TrackingEvent is one entry of a tracking history.
type TrackingEvent struct {
	Date        string `json:"date"`
	Description string `json:"description"`
}

// TrackingInfo is a point-in-time tracking snapshot of an order.
type TrackingInfo struct {
	OrderID           int64           `json:"orderId"`
	OrderNumber       string          `json:"orderNumber"`
	CurrentStatus     string          `json:"currentStatus"`
	StatusCode        OrderStatus     `json:"statusCode"`
	TrackingNumber    string          `json:"trackingNumber,omitempty"`
	EstimatedDelivery string          `json:"estimatedDelivery,omitempty"`
	History           []TrackingEvent `json:"history"`
}
