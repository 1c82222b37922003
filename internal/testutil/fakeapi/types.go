package fakeapi

// Wire shapes as the storefront backend serializes them.

type Notification struct {
	ID              int64  `json:"id"`
	UserID          int64  `json:"userId"`
	Title           string `json:"title"`
	Message         string `json:"message"`
	SentDate        string `json:"sentDate"`
	IsRead          bool   `json:"isRead"`
	Type            string `json:"type"`
	Priority        string `json:"priority,omitempty"`
	ActionURL       string `json:"actionUrl,omitempty"`
	ImageURL        string `json:"imageUrl,omitempty"`
	RelatedEntityID *int64 `json:"relatedEntityId,omitempty"`
}

type OrderItem struct {
	ProductID   int64  `json:"productId"`
	ProductName string `json:"productName"`
	Price       int64  `json:"price"`
	Quantity    int    `json:"quantity"`
}

type Order struct {
	ID            int64       `json:"id"`
	OrderNumber   string      `json:"orderNumber,omitempty"`
	OrderDate     string      `json:"orderDate"`
	TotalAmount   float64     `json:"totalAmount"`
	Status        string      `json:"status"`
	PaymentStatus string      `json:"paymentStatus,omitempty"`
	UserID        int64       `json:"userId"`
	Items         []OrderItem `json:"items,omitempty"`
	DeliveryDate  string      `json:"deliveryDate,omitempty"`

	// Set by cancel and confirm-delivery.
	CancelReason string `json:"-"`
	Rating       *int   `json:"-"`
	Review       string `json:"-"`
}

type TrackingEvent struct {
	Date        string `json:"date"`
	Description string `json:"description"`
}

type Tracking struct {
	OrderID           int64           `json:"orderId"`
	OrderNumber       string          `json:"orderNumber"`
	CurrentStatus     string          `json:"currentStatus"`
	StatusCode        string          `json:"statusCode"`
	TrackingNumber    string          `json:"trackingNumber,omitempty"`
	EstimatedDelivery string          `json:"estimatedDelivery,omitempty"`
	History           []TrackingEvent `json:"history"`
}

type User struct {
	ID              int64  `json:"id"`
	FirstName       string `json:"firstName"`
	LastName        string `json:"lastName"`
	Email           string `json:"email"`
	PhoneNumber     string `json:"phoneNumber,omitempty"`
	DateCreated     string `json:"dateCreated,omitempty"`
	IsActive        bool   `json:"isActive"`
	PurchasingPower int64  `json:"purchasingPower"`
	RemainingToPay  int64  `json:"remainingToPay"`
	Role            string `json:"role,omitempty"`
	Token           string `json:"token,omitempty"`
}

type errorBody struct {
	Message string `json:"message"`
}
