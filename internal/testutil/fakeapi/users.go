package fakeapi

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"
)

// AddUser registers u with password and returns its id.
func (s *Server) AddUser(u User, password string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	if u.ID == 0 {
		u.ID = s.newID()
	}
	if u.DateCreated == "" {
		u.DateCreated = time.Now().Format(sentDateLayout)
	}
	u.IsActive = true
	s.users[u.ID] = &u
	s.passwords[strings.ToLower(u.Email)] = password
	return u.ID
}

// CartTotal returns the server-side cart total of userID.
func (s *Server) CartTotal(userID int64) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.carts[userID]
}

// userByEmail must be called with s.mu held.
func (s *Server) userByEmail(email string) *User {
	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			return u
		}
	}
	return nil
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.userByEmail(req.Email)
	if u == nil || s.passwords[strings.ToLower(req.Email)] != req.Password {
		writeError(w, http.StatusBadRequest, "Invalid email or password")
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		User
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	s.mu.Lock()
	exists := s.userByEmail(req.Email) != nil
	s.mu.Unlock()
	if exists {
		writeError(w, http.StatusBadRequest, "Email already in use")
		return
	}

	u := req.User
	u.ID = 0
	u.Role = "CUSTOMER"
	id := s.AddUser(u, req.Password)

	s.mu.Lock()
	out := *s.users[id]
	s.mu.Unlock()
	writeJSON(w, http.StatusCreated, out)
}

func (s *Server) getUser(w http.ResponseWriter, r *http.Request) {
	id, err := int64Param(r, "userId")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (s *Server) creditInfo(w http.ResponseWriter, r *http.Request) {
	id, err := int64Param(r, "userId")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"userId":          u.ID,
		"fullName":        strings.TrimSpace(u.FirstName + " " + u.LastName),
		"purchasingPower": u.PurchasingPower,
		"remainingToPay":  u.RemainingToPay,
		"availableCredit": u.PurchasingPower - u.RemainingToPay,
	})
}

func (s *Server) getCart(w http.ResponseWriter, r *http.Request) {
	userID, err := int64Param(r, "userId")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.mu.Lock()
	total := s.carts[userID]
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"userId": userID, "totalAmount": total})
}

func (s *Server) updateCart(w http.ResponseWriter, r *http.Request) {
	userID, err := int64Param(r, "userId")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var req struct {
		TotalAmount int64 `json:"totalAmount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	s.mu.Lock()
	s.carts[userID] = req.TotalAmount
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"userId": userID, "totalAmount": req.TotalAmount})
}

func (s *Server) clearCart(w http.ResponseWriter, r *http.Request) {
	userID, err := int64Param(r, "userId")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.mu.Lock()
	s.carts[userID] = 0
	s.mu.Unlock()
	w.WriteHeader(http.StatusNoContent)
}
