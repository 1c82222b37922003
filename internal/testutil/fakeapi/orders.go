package fakeapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"slices"
	"strconv"
	"time"
)

// AddOrder stores o and returns its id.
func (s *Server) AddOrder(o Order) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	if o.ID == 0 {
		o.ID = s.newID()
	}
	if o.OrderDate == "" {
		o.OrderDate = time.Now().Format(sentDateLayout)
	}
	if o.Status == "" {
		o.Status = "PENDING"
	}
	s.orders[o.ID] = &o
	return o.ID
}

// Order returns the server-side copy of an order.
func (s *Server) Order(id int64) (Order, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return Order{}, false
	}
	return *o, true
}

// SetOrderStatus moves an order, as the back office would.
func (s *Server) SetOrderStatus(id int64, status string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if o, ok := s.orders[id]; ok {
		o.Status = status
	}
}

// SetTracking sets the tracking snapshot served for an order.
func (s *Server) SetTracking(t Tracking) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tracking[t.OrderID] = t
}

func (s *Server) listOrders(w http.ResponseWriter, r *http.Request) {
	userID, err := int64Param(r, "userId")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	page = max(page, 1)
	if limit <= 0 {
		limit = 10
	}

	s.mu.Lock()
	all := []Order{}
	for _, o := range s.orders {
		if o.UserID == userID {
			all = append(all, *o)
		}
	}
	s.mu.Unlock()

	slices.SortFunc(all, func(a, b Order) int { return int(b.ID - a.ID) })

	total := len(all)
	totalPages := (total + limit - 1) / limit
	start := min((page-1)*limit, total)
	end := min(start+limit, total)

	writeJSON(w, http.StatusOK, map[string]any{
		"orders":        all[start:end],
		"currentPage":   page,
		"totalPages":    totalPages,
		"totalElements": total,
		"hasNext":       page < totalPages,
		"hasPrevious":   page > 1,
	})
}

func (s *Server) getOrder(w http.ResponseWriter, r *http.Request) {
	id, err := int64Param(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	o, ok := s.Order(id)
	if !ok {
		writeError(w, http.StatusNotFound, "Order not found")
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (s *Server) createOrder(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID          int64       `json:"userId"`
		Items           []OrderItem `json:"items"`
		ShippingAddress string      `json:"shippingAddress"`
		PaymentMethod   string      `json:"paymentMethod"`
		TotalAmount     float64     `json:"totalAmount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if len(req.Items) == 0 {
		writeError(w, http.StatusBadRequest, "Order must contain items")
		return
	}

	s.mu.Lock()
	id := s.newID()
	o := &Order{
		ID:            id,
		OrderNumber:   fmt.Sprintf("ORD-%d", id),
		OrderDate:     time.Now().Format(sentDateLayout),
		TotalAmount:   req.TotalAmount,
		Status:        "PENDING",
		PaymentStatus: "PENDING",
		UserID:        req.UserID,
		Items:         req.Items,
	}
	s.orders[id] = o
	out := *o
	s.mu.Unlock()

	writeJSON(w, http.StatusCreated, out)
}

func (s *Server) cancelOrder(w http.ResponseWriter, r *http.Request) {
	id, err := int64Param(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var req struct {
		Reason string `json:"reason"`
	}
	_ = json.NewDecoder(r.Body).Decode(&req)

	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		writeError(w, http.StatusNotFound, "Order not found")
		return
	}
	if o.Status != "PENDING" && o.Status != "CONFIRMED" {
		writeError(w, http.StatusBadRequest, "Order cannot be cancelled in status "+o.Status)
		return
	}
	o.Status = "CANCELLED"
	o.CancelReason = req.Reason
	writeJSON(w, http.StatusOK, o)
}

func (s *Server) confirmDelivery(w http.ResponseWriter, r *http.Request) {
	id, err := int64Param(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var req struct {
		Rating *int   `json:"rating"`
		Review string `json:"review"`
	}
	_ = json.NewDecoder(r.Body).Decode(&req)

	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		writeError(w, http.StatusNotFound, "Order not found")
		return
	}
	if o.Status != "DELIVERED" {
		writeError(w, http.StatusBadRequest, "Only delivered orders can be confirmed")
		return
	}
	o.Rating = req.Rating
	o.Review = req.Review
	writeJSON(w, http.StatusOK, map[string]any{"message": "Delivery confirmed", "orderId": o.ID})
}

func (s *Server) getTracking(w http.ResponseWriter, r *http.Request) {
	id, err := int64Param(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.tracking[id]; ok {
		writeJSON(w, http.StatusOK, t)
		return
	}
	o, ok := s.orders[id]
	if !ok {
		writeError(w, http.StatusNotFound, "Order not found")
		return
	}
	writeJSON(w, http.StatusOK, Tracking{
		OrderID:       o.ID,
		OrderNumber:   o.OrderNumber,
		CurrentStatus: o.Status,
		StatusCode:    o.Status,
		History:       []TrackingEvent{},
	})
}

func (s *Server) requestReturn(w http.ResponseWriter, r *http.Request) {
	id, err := int64Param(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var req struct {
		ItemID int64  `json:"itemId"`
		Reason string `json:"reason"`
	}
	_ = json.NewDecoder(r.Body).Decode(&req)

	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		writeError(w, http.StatusNotFound, "Order not found")
		return
	}
	if o.Status != "DELIVERED" {
		writeError(w, http.StatusBadRequest, "Only delivered orders can be returned")
		return
	}
	o.Status = "RETURNED"
	writeJSON(w, http.StatusCreated, map[string]any{"orderId": o.ID, "itemId": req.ItemID, "status": "REQUESTED"})
}
