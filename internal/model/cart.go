package model

// Cart is the server-side aggregate of a user's cart. Line items live only
// on the client.
type Cart struct {
	UserID      int64 `json:"userId"`
	TotalAmount int64 `json:"totalAmount"`
}

// CartItem is a locally held cart line.
type CartItem struct {
	ProductID int64  `json:"productId"`
	Name      string `json:"name"`
	Price     int64  `json:"price"`
	Quantity  int    `json:"quantity"`
}

// ShippingInfo describes the shipping fee for a cart total.
type ShippingInfo struct {
	IsFree      bool
	Remaining   int64
	Threshold   int64
	ShippingFee int64
	FinalTotal  int64
	// Progress toward the free shipping threshold, 0..100.
	Progress float64
}
