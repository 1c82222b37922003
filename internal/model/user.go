package model

import "time"

// User is a storefront customer account.
type User struct {
	ID              int64     `json:"id"`
	FirstName       string    `json:"firstName"`
	LastName        string    `json:"lastName"`
	Email           string    `json:"email"`
	PhoneNumber     string    `json:"phoneNumber,omitempty"`
	DateCreated     time.Time `json:"dateCreated"`
	IsActive        bool      `json:"isActive"`
	PurchasingPower int64     `json:"purchasingPower"`
	RemainingToPay  int64     `json:"remainingToPay"`
	Role            string    `json:"role,omitempty"`
}

// FullName joins first and last name.
func (u User) FullName() string {
	switch {
	case u.FirstName == "":
		return u.LastName
	case u.LastName == "":
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// CreditInfo is the installment credit position of a user.
type CreditInfo struct {
	UserID           int64  `json:"userId"`
	FullName         string `json:"fullName"`
	PurchasingPower  int64  `json:"purchasingPower"`
	RemainingToPay   int64  `json:"remainingToPay"`
	AvailableCredit  int64  `json:"availableCredit"`
	CreditPercentage int    `json:"creditPercentage"`
}
