package order

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/nhle/storefront/internal/model"
)

func TestCalculateOrderTotal(t *testing.T) {
	got := CalculateOrderTotal([]model.OrderItem{{ProductID: 1, Price: 1000, Quantity: 2}}, 500, DefaultTaxRate)

	assert.True(t, got.Subtotal.Equal(decimal.NewFromInt(2000)), got.Subtotal.String())
	assert.True(t, got.Tax.Equal(decimal.NewFromInt(360)), got.Tax.String())
	assert.True(t, got.ShippingFee.Equal(decimal.NewFromInt(500)))
	assert.True(t, got.Total.Equal(decimal.NewFromInt(2860)), got.Total.String())
}

func TestCalculateOrderTotalKeepsFractionalTax(t *testing.T) {
	got := CalculateOrderTotal([]model.OrderItem{
		{Price: 333, Quantity: 1},
		{Price: 100, Quantity: 3},
	}, 0, 0.18)

	assert.Equal(t, "633", got.Subtotal.String())
	assert.Equal(t, "113.94", got.Tax.String())
	assert.Equal(t, "746.94", got.Total.String())
}

func TestCalculateOrderTotalEmpty(t *testing.T) {
	got := CalculateOrderTotal(nil, 5000, DefaultTaxRate)
	assert.True(t, got.Subtotal.IsZero())
	assert.True(t, got.Total.Equal(decimal.NewFromInt(5000)))
}

func TestValidateOrderMissingItems(t *testing.T) {
	v := ValidateOrder(Draft{ShippingAddress: "x", PaymentMethod: "y"})

	assert.False(t, v.IsValid)
	assert.Equal(t, []string{"order must contain at least one item"}, v.Errors)
}

func TestValidateOrderAccumulatesEveryViolation(t *testing.T) {
	v := ValidateOrder(Draft{
		Items: []model.OrderItem{
			{ProductID: 1, Price: 100, Quantity: 1},
			{Price: 0, Quantity: 0},
		},
		ShippingAddress: "  ",
	})

	assert.False(t, v.IsValid)
	assert.Equal(t, []string{
		"shipping address is required",
		"payment method is required",
		"item 2: missing product id",
		"item 2: invalid price",
		"item 2: invalid quantity",
	}, v.Errors)
}

func TestValidateOrderValid(t *testing.T) {
	v := ValidateOrder(Draft{
		Items:           []model.OrderItem{{ProductID: 1, Price: 100, Quantity: 1}},
		ShippingAddress: "Cocody, Abidjan",
		PaymentMethod:   "MOBILE_MONEY",
	})
	assert.True(t, v.IsValid)
	assert.Empty(t, v.Errors)
}
