package cart

import (
	"context"
	"slices"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/nhle/storefront/internal/api"
	"github.com/nhle/storefront/internal/model"
)

const (
	DefaultFreeShippingThreshold int64 = 50000
	DefaultShippingFee           int64 = 5000
)

// Cart is the locally held list of cart lines. It is safe for concurrent use.
type Cart struct {
	mu    sync.Mutex
	items []model.CartItem
}

func New() *Cart {
	return &Cart{}
}

// Add puts item in the cart, merging quantities with an existing line for the
// same product.
func (c *Cart) Add(item model.CartItem) error {
	if item.ProductID <= 0 {
		return api.NewValidationError("missing product id")
	}
	if item.Quantity <= 0 || item.Price <= 0 {
		return api.NewValidationError("invalid cart line for product %d", item.ProductID)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if i := c.indexLocked(item.ProductID); i >= 0 {
		c.items[i].Quantity += item.Quantity
		return nil
	}
	c.items = append(c.items, item)
	return nil
}

// SetQuantity changes a line's quantity. A quantity of zero or less removes
// the line.
func (c *Cart) SetQuantity(productID int64, quantity int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	i := c.indexLocked(productID)
	if i < 0 {
		return false
	}
	if quantity <= 0 {
		c.items = slices.Delete(c.items, i, i+1)
		return true
	}
	c.items[i].Quantity = quantity
	return true
}

// Remove drops the line for productID and reports whether it existed.
func (c *Cart) Remove(productID int64) bool {
	return c.SetQuantity(productID, 0)
}

func (c *Cart) Items() []model.CartItem {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.items)
}

// Count is the number of units across all lines.
func (c *Cart) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, it := range c.items {
		n += it.Quantity
	}
	return n
}

// Total is the sum of price times quantity.
func (c *Cart) Total() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	total := decimal.Zero
	for _, it := range c.items {
		total = total.Add(decimal.NewFromInt(it.Price).Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	return total.IntPart()
}

func (c *Cart) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = nil
}

// Sync pushes the local total to the server.
func (c *Cart) Sync(ctx context.Context, svc *Service) (model.Cart, error) {
	return svc.Update(ctx, 0, c.Total())
}

// Checkout clears the cart on the server, then locally.
func (c *Cart) Checkout(ctx context.Context, svc *Service) error {
	if err := svc.Clear(ctx, 0); err != nil {
		return err
	}
	c.Reset()
	return nil
}

func (c *Cart) indexLocked(productID int64) int {
	return slices.IndexFunc(c.items, func(it model.CartItem) bool { return it.ProductID == productID })
}

// Shipping computes the shipping fee for total. A threshold or fee of zero
// falls back to the defaults.
func Shipping(total, threshold, fee int64) model.ShippingInfo {
	if threshold <= 0 {
		threshold = DefaultFreeShippingThreshold
	}
	if fee <= 0 {
		fee = DefaultShippingFee
	}

	free := total >= threshold
	if free {
		fee = 0
	}
	progress := decimal.NewFromInt(total).Mul(decimal.NewFromInt(100)).Div(decimal.NewFromInt(threshold))
	progress = decimal.Min(progress, decimal.NewFromInt(100))

	return model.ShippingInfo{
		IsFree:      free,
		Remaining:   max(threshold-total, 0),
		Threshold:   threshold,
		ShippingFee: fee,
		FinalTotal:  total + fee,
		Progress:    progress.InexactFloat64(),
	}
}
