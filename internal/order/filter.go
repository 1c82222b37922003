package order

import "github.com/nhle/storefront/internal/model"

// StatusFilter selects orders by canonical status.
type StatusFilter string

const (
	FilterAll       StatusFilter = "ALL"
	FilterPending   StatusFilter = StatusFilter(model.OrderPending)
	FilterConfirmed StatusFilter = StatusFilter(model.OrderConfirmed)
	FilterShipped   StatusFilter = StatusFilter(model.OrderShipped)
	FilterDelivered StatusFilter = StatusFilter(model.OrderDelivered)
	FilterCancelled StatusFilter = StatusFilter(model.OrderCancelled)
)

// StatusFilters lists the filter tabs in display order.
var StatusFilters = []StatusFilter{
	FilterAll, FilterPending, FilterConfirmed, FilterShipped, FilterDelivered, FilterCancelled,
}

// Next returns the tab after f, wrapping around.
func (f StatusFilter) Next() StatusFilter {
	for i, c := range StatusFilters {
		if c == f {
			return StatusFilters[(i+1)%len(StatusFilters)]
		}
	}
	return FilterAll
}

// FilterByStatus keeps orders whose canonical status equals f. ALL keeps
// everything. The localized label never takes part.
func FilterByStatus(orders []DisplayOrder, f StatusFilter) []DisplayOrder {
	out := make([]DisplayOrder, 0, len(orders))
	for _, o := range orders {
		if f == FilterAll || o.Status == model.OrderStatus(f) {
			out = append(out, o)
		}
	}
	return out
}
