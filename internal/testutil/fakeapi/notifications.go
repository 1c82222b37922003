package fakeapi

import (
	"net/http"
	"slices"
	"strings"
	"time"
)

// AddNotification stores n and returns its id. A zero ID is assigned, an
// empty SentDate becomes now and an empty Priority becomes MEDIUM.
func (s *Server) AddNotification(n Notification) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	if n.ID == 0 {
		n.ID = s.newID()
	}
	if n.SentDate == "" {
		n.SentDate = time.Now().Format(sentDateLayout)
	}
	if n.Priority == "" {
		n.Priority = "MEDIUM"
	}
	s.notifications[n.ID] = &n
	return n.ID
}

// Notifications returns the server-side notifications of userID ordered by id.
func (s *Server) Notifications(userID int64) []Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.userNotifications(userID, nil, nil)
}

func (s *Server) userNotifications(userID int64, keep func(*Notification, *http.Request) bool, r *http.Request) []Notification {
	out := []Notification{}
	for _, n := range s.notifications {
		if n.UserID != userID {
			continue
		}
		if keep != nil && !keep(n, r) {
			continue
		}
		out = append(out, *n)
	}
	slices.SortFunc(out, func(a, b Notification) int {
		// newest first, as the backend orders by sentDate desc
		if c := strings.Compare(b.SentDate, a.SentDate); c != 0 {
			return c
		}
		return int(b.ID - a.ID)
	})
	return out
}

func isRecent(n *Notification, _ *http.Request) bool {
	t, err := time.ParseInLocation(sentDateLayout, n.SentDate, time.Local)
	return err == nil && time.Since(t) <= 24*time.Hour
}

func (s *Server) listNotifications(keep func(*Notification, *http.Request) bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := int64Param(r, "userId")
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.mu.Lock()
		out := s.userNotifications(userID, keep, r)
		s.mu.Unlock()
		writeJSON(w, http.StatusOK, out)
	}
}

func (s *Server) getNotification(w http.ResponseWriter, r *http.Request) {
	id, err := int64Param(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.notifications[id]
	if !ok {
		writeError(w, http.StatusNotFound, "Notification not found")
		return
	}
	writeJSON(w, http.StatusOK, n)
}

// ownedNotification resolves {id} and ?userId. Callers hold s.mu.
func (s *Server) ownedNotification(w http.ResponseWriter, r *http.Request) *Notification {
	id, err := int64Param(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return nil
	}
	userID, err := int64Query(r, "userId")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return nil
	}
	n, ok := s.notifications[id]
	if !ok || n.UserID != userID {
		writeError(w, http.StatusNotFound, "Notification not found")
		return nil
	}
	return n
}

func (s *Server) markRead(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := s.ownedNotification(w, r)
	if n == nil {
		return
	}
	n.IsRead = true
	writeJSON(w, http.StatusOK, n)
}

func (s *Server) deleteNotification(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := s.ownedNotification(w, r)
	if n == nil {
		return
	}
	delete(s.notifications, n.ID)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) unreadCount(w http.ResponseWriter, r *http.Request) {
	userID, err := int64Param(r, "userId")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.mu.Lock()
	count := len(s.userNotifications(userID, func(n *Notification, _ *http.Request) bool { return !n.IsRead }, r))
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]int{"unreadCount": count})
}

func (s *Server) hasUnread(w http.ResponseWriter, r *http.Request) {
	userID, err := int64Param(r, "userId")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.mu.Lock()
	count := len(s.userNotifications(userID, func(n *Notification, _ *http.Request) bool { return !n.IsRead }, r))
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]bool{"hasUnread": count > 0})
}

func (s *Server) markAllRead(w http.ResponseWriter, r *http.Request) {
	userID, err := int64Param(r, "userId")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.mu.Lock()
	for _, n := range s.notifications {
		if n.UserID == userID {
			n.IsRead = true
		}
	}
	s.mu.Unlock()
	w.WriteHeader(http.StatusOK)
}

func (s *Server) deleteAllRead(w http.ResponseWriter, r *http.Request) {
	userID, err := int64Param(r, "userId")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.mu.Lock()
	for id, n := range s.notifications {
		if n.UserID == userID && n.IsRead {
			delete(s.notifications, id)
		}
	}
	s.mu.Unlock()
	w.WriteHeader(http.StatusNoContent)
}
