package notification

import (
	"time"

	"github.com/nhle/storefront/internal/model"
)

// Filter is a client-side projection of the loaded notifications.
type Filter string

const (
	FilterAll          Filter = "ALL"
	FilterUnread       Filter = "UNREAD"
	FilterRead         Filter = "READ"
	FilterHighPriority Filter = "HIGH_PRIORITY"
	FilterRecent       Filter = "RECENT"
)

// Filters lists every filter in cycling order.
var Filters = []Filter{FilterAll, FilterUnread, FilterRead, FilterHighPriority, FilterRecent}

// Next returns the filter after f in Filters, wrapping around.
func (f Filter) Next() Filter {
	for i, c := range Filters {
		if c == f {
			return Filters[(i+1)%len(Filters)]
		}
	}
	return FilterAll
}

// Valid reports whether f is a known filter.
func (f Filter) Valid() bool {
	for _, c := range Filters {
		if c == f {
			return true
		}
	}
	return false
}

// recentWindow is how far back RECENT reaches.
const recentWindow = 24 * time.Hour

func isRecent(n model.Notification, now time.Time) bool {
	return !n.Timestamp.Before(now.Add(-recentWindow))
}

// Apply returns the notifications matching f in their original order. An
// unknown filter behaves as ALL.
func Apply(items []model.Notification, f Filter, now time.Time) []model.Notification {
	var keep func(model.Notification) bool
	switch f {
	case FilterUnread:
		keep = func(n model.Notification) bool { return !n.IsRead }
	case FilterRead:
		keep = func(n model.Notification) bool { return n.IsRead }
	case FilterHighPriority:
		keep = func(n model.Notification) bool { return n.Priority == model.PriorityHigh }
	case FilterRecent:
		keep = func(n model.Notification) bool { return isRecent(n, now) }
	default:
		out := make([]model.Notification, len(items))
		copy(out, items)
		return out
	}

	out := make([]model.Notification, 0, len(items))
	for _, n := range items {
		if keep(n) {
			out = append(out, n)
		}
	}
	return out
}

// Stats aggregates a notification collection.
type Stats struct {
	Total        int
	Unread       int
	Read         int
	HighPriority int
	Recent       int
}

// ComputeStats aggregates items as of now.
func ComputeStats(items []model.Notification, now time.Time) Stats {
	var s Stats
	s.Total = len(items)
	for _, n := range items {
		if !n.IsRead {
			s.Unread++
		}
		if n.Priority == model.PriorityHigh {
			s.HighPriority++
		}
		if isRecent(n, now) {
			s.Recent++
		}
	}
	s.Read = s.Total - s.Unread
	return s
}

func countUnread(items []model.Notification) int {
	c := 0
	for _, n := range items {
		if !n.IsRead {
			c++
		}
	}
	return c
}
