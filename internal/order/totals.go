package order

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/nhle/storefront/internal/model"
	"github.com/nhle/storefront/internal/validation"
)

// DefaultTaxRate is the VAT applied when none is configured.
const DefaultTaxRate = 0.18

// Totals is the price breakdown of an order. Amounts are currency units;
// Tax keeps its fractional part.
type Totals struct {
	Subtotal    decimal.Decimal
	Tax         decimal.Decimal
	ShippingFee decimal.Decimal
	Total       decimal.Decimal
}

// CalculateOrderTotal returns subtotal = Σ price×quantity, tax =
// subtotal×taxRate and total = subtotal+tax+shippingFee.
func CalculateOrderTotal(items []model.OrderItem, shippingFee int64, taxRate float64) Totals {
	subtotal := decimal.Zero
	for _, it := range items {
		subtotal = subtotal.Add(decimal.NewFromInt(it.Price).Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	tax := subtotal.Mul(decimal.NewFromFloat(taxRate))
	fee := decimal.NewFromInt(shippingFee)
	return Totals{
		Subtotal:    subtotal,
		Tax:         tax,
		ShippingFee: fee,
		Total:       subtotal.Add(tax).Add(fee),
	}
}

// Draft is an order about to be placed.
type Draft struct {
	UserID          int64             `json:"userId"`
	Items           []model.OrderItem `json:"items" validate:"min=1,dive"`
	ShippingAddress string            `json:"shippingAddress" validate:"notblank"`
	PaymentMethod   string            `json:"paymentMethod" validate:"notblank"`
	TotalAmount     int64             `json:"totalAmount"`
}

// Validation is the outcome of ValidateOrder.
type Validation struct {
	IsValid bool
	Errors  []string
}

var itemIndex = regexp.MustCompile(`items\[(\d+)\]`)

// ValidateOrder checks a draft and reports every violation, not just the
// first.
func ValidateOrder(d Draft) Validation {
	err := validation.Struct(d)
	if err == nil {
		return Validation{IsValid: true}
	}

	fieldErrs := validation.FieldErrors(err)
	if fieldErrs == nil {
		return Validation{Errors: []string{err.Error()}}
	}

	var general, perItem []string
	for _, fe := range fieldErrs {
		if m := itemIndex.FindStringSubmatch(fe.Namespace()); m != nil {
			idx, _ := strconv.Atoi(m[1])
			perItem = append(perItem, itemMessage(idx+1, fe.Field()))
			continue
		}
		switch fe.Field() {
		case "items":
			general = append(general, "order must contain at least one item")
		case "shippingAddress":
			general = append(general, "shipping address is required")
		case "paymentMethod":
			general = append(general, "payment method is required")
		default:
			general = append(general, fmt.Sprintf("%s is invalid", fe.Field()))
		}
	}
	return Validation{Errors: append(general, perItem...)}
}

func itemMessage(n int, field string) string {
	switch field {
	case "productId":
		return fmt.Sprintf("item %d: missing product id", n)
	case "quantity":
		return fmt.Sprintf("item %d: invalid quantity", n)
	case "price":
		return fmt.Sprintf("item %d: invalid price", n)
	}
	return fmt.Sprintf("item %d: %s is invalid", n, field)
}
