package account

import (
	"github.com/shopspring/decimal"

	"github.com/nhle/storefront/internal/model"
)

type userDTO struct {
	ID              int64           `json:"id"`
	FirstName       string          `json:"firstName"`
	LastName        string          `json:"lastName"`
	Email           string          `json:"email"`
	PhoneNumber     string          `json:"phoneNumber"`
	DateCreated     string          `json:"dateCreated"`
	IsActive        bool            `json:"isActive"`
	PurchasingPower decimal.Decimal `json:"purchasingPower"`
	RemainingToPay  decimal.Decimal `json:"remainingToPay"`
	Role            string          `json:"role"`
	Token           string          `json:"token"`
}

func (d userDTO) toModel() model.User {
	created, _ := model.ParseServerTime(d.DateCreated)
	return model.User{
		ID:              d.ID,
		FirstName:       d.FirstName,
		LastName:        d.LastName,
		Email:           d.Email,
		PhoneNumber:     d.PhoneNumber,
		DateCreated:     created,
		IsActive:        d.IsActive,
		PurchasingPower: d.PurchasingPower.Round(0).IntPart(),
		RemainingToPay:  d.RemainingToPay.Round(0).IntPart(),
		Role:            d.Role,
	}
}

type creditDTO struct {
	UserID          int64           `json:"userId"`
	FullName        string          `json:"fullName"`
	PurchasingPower decimal.Decimal `json:"purchasingPower"`
	RemainingToPay  decimal.Decimal `json:"remainingToPay"`
	AvailableCredit decimal.Decimal `json:"availableCredit"`
}

func (d creditDTO) toModel() model.CreditInfo {
	pct := 0
	if d.PurchasingPower.IsPositive() {
		pct = int(d.AvailableCredit.Mul(decimal.NewFromInt(100)).Div(d.PurchasingPower).Round(0).IntPart())
	}
	return model.CreditInfo{
		UserID:           d.UserID,
		FullName:         d.FullName,
		PurchasingPower:  d.PurchasingPower.Round(0).IntPart(),
		RemainingToPay:   d.RemainingToPay.Round(0).IntPart(),
		AvailableCredit:  d.AvailableCredit.Round(0).IntPart(),
		CreditPercentage: pct,
	}
}
