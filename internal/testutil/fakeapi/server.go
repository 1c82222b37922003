// Package fakeapi is an in-memory storefront backend for tests.
package fakeapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

const sentDateLayout = "2006-01-02T15:04:05"

type failure struct {
	status  int
	message string
}

// Server serves the storefront REST API under /api.
type Server struct {
	*httptest.Server

	mu            sync.Mutex
	nextID        int64
	notifications map[int64]*Notification
	orders        map[int64]*Order
	tracking      map[int64]Tracking
	carts         map[int64]int64
	users         map[int64]*User
	passwords     map[string]string
	calls         map[string]int
	failures      map[string][]failure
	delays        map[string]time.Duration
	gates         map[string]chan struct{}
}

// New starts a server that is closed when the test completes.
func New(t *testing.T) *Server {
	t.Helper()

	s := &Server{
		nextID:        1000,
		notifications: make(map[int64]*Notification),
		orders:        make(map[int64]*Order),
		tracking:      make(map[int64]Tracking),
		carts:         make(map[int64]int64),
		users:         make(map[int64]*User),
		passwords:     make(map[string]string),
		calls:         make(map[string]int),
		failures:      make(map[string][]failure),
		delays:        make(map[string]time.Duration),
		gates:         make(map[string]chan struct{}),
	}
	s.Server = httptest.NewServer(s.routes())
	t.Cleanup(s.Close)
	return s
}

// BaseURL is the API root to configure clients with.
func (s *Server) BaseURL() string {
	return s.URL + "/api"
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		s.handle(r, http.MethodGet, "/notifications/{id}", s.getNotification)
		s.handle(r, http.MethodPut, "/notifications/{id}/read", s.markRead)
		s.handle(r, http.MethodDelete, "/notifications/{id}", s.deleteNotification)
		s.handle(r, http.MethodGet, "/notifications/user/{userId}", s.listNotifications(nil))
		s.handle(r, http.MethodGet, "/notifications/user/{userId}/unread", s.listNotifications(func(n *Notification, _ *http.Request) bool { return !n.IsRead }))
		s.handle(r, http.MethodGet, "/notifications/user/{userId}/read", s.listNotifications(func(n *Notification, _ *http.Request) bool { return n.IsRead }))
		s.handle(r, http.MethodGet, "/notifications/user/{userId}/type/{type}", s.listNotifications(func(n *Notification, r *http.Request) bool { return n.Type == chi.URLParam(r, "type") }))
		s.handle(r, http.MethodGet, "/notifications/user/{userId}/priority/{priority}", s.listNotifications(func(n *Notification, r *http.Request) bool { return n.Priority == chi.URLParam(r, "priority") }))
		s.handle(r, http.MethodGet, "/notifications/user/{userId}/recent", s.listNotifications(isRecent))
		s.handle(r, http.MethodGet, "/notifications/user/{userId}/high-priority-unread", s.listNotifications(func(n *Notification, _ *http.Request) bool { return !n.IsRead && n.Priority == "HIGH" }))
		s.handle(r, http.MethodGet, "/notifications/user/{userId}/unread/count", s.unreadCount)
		s.handle(r, http.MethodGet, "/notifications/user/{userId}/has-unread", s.hasUnread)
		s.handle(r, http.MethodPut, "/notifications/user/{userId}/mark-all-read", s.markAllRead)
		s.handle(r, http.MethodDelete, "/notifications/user/{userId}/read", s.deleteAllRead)

		s.handle(r, http.MethodGet, "/users/{userId}/orders", s.listOrders)
		s.handle(r, http.MethodPost, "/orders", s.createOrder)
		s.handle(r, http.MethodGet, "/orders/{id}", s.getOrder)
		s.handle(r, http.MethodPut, "/orders/{id}/cancel", s.cancelOrder)
		s.handle(r, http.MethodPut, "/orders/{id}/confirm-delivery", s.confirmDelivery)
		s.handle(r, http.MethodGet, "/orders/{id}/tracking", s.getTracking)
		s.handle(r, http.MethodPost, "/orders/{id}/returns", s.requestReturn)

		s.handle(r, http.MethodGet, "/users/{userId}/cart", s.getCart)
		s.handle(r, http.MethodPut, "/users/{userId}/cart", s.updateCart)
		s.handle(r, http.MethodDelete, "/users/{userId}/cart", s.clearCart)

		s.handle(r, http.MethodPost, "/users/login", s.login)
		s.handle(r, http.MethodPost, "/users/register", s.register)
		s.handle(r, http.MethodGet, "/users/{userId}", s.getUser)
		s.handle(r, http.MethodGet, "/users/{userId}/credit-info", s.creditInfo)
	})

	return r
}

// Route keys look like "GET /notifications/user/{userId}".
func (s *Server) handle(r chi.Router, method, pattern string, h http.HandlerFunc) {
	key := method + " " + pattern
	r.Method(method, pattern, http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		s.mu.Lock()
		s.calls[key]++
		var fail *failure
		if queue := s.failures[key]; len(queue) > 0 {
			fail = &queue[0]
			s.failures[key] = queue[1:]
		}
		delay := s.delays[key]
		gate := s.gates[key]
		s.mu.Unlock()

		if gate != nil {
			select {
			case <-gate:
			case <-req.Context().Done():
				return
			}
		}
		if delay > 0 {
			select {
			case <-time.After(delay):
			case <-req.Context().Done():
				return
			}
		}
		if fail != nil {
			writeError(w, fail.status, fail.message)
			return
		}
		h(w, req)
	}))
}

// FailNext makes the next request on route answer with status and message.
// Calls queue up.
func (s *Server) FailNext(route string, status int, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[route] = append(s.failures[route], failure{status: status, message: message})
}

// Delay holds every request on route for d before answering.
func (s *Server) Delay(route string, d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delays[route] = d
}

// Gate holds requests on route until the returned func is called.
func (s *Server) Gate(route string) (release func()) {
	ch := make(chan struct{})
	s.mu.Lock()
	s.gates[route] = ch
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.gates, route)
			s.mu.Unlock()
			close(ch)
		})
	}
}

// Calls returns how many requests reached route.
func (s *Server) Calls(route string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[route]
}

func (s *Server) newID() int64 {
	s.nextID++
	return s.nextID
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	if message == "" {
		w.WriteHeader(status)
		return
	}
	writeJSON(w, status, errorBody{Message: message})
}

func int64Param(r *http.Request, name string) (int64, error) {
	v, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s", name)
	}
	return v, nil
}

func int64Query(r *http.Request, name string) (int64, error) {
	v, err := strconv.ParseInt(r.URL.Query().Get(name), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s", name)
	}
	return v, nil
}
