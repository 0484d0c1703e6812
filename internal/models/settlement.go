package models

import "github.com/shopspring/decimal"

// Settlement represents a payment between users to clear debts.
// Settlements are append-only: recorded once, never edited.
type Settlement struct {
	// ID is the unique identifier for the settlement (UUID format).
	ID string

	// GroupID is the group this settlement belongs to; may be empty.
	GroupID string

	// FromUserID is the user who paid (debtor settling up).
	FromUserID string

	// ToUserID is the user who received payment (creditor being paid).
	ToUserID string

	// Amount is the payment amount, always positive.
	Amount decimal.Decimal

	// Currency is a label only, matching the expense currency convention.
	Currency string

	// CreatedAt is the Unix timestamp when the settlement was recorded.
	CreatedAt int64

	// CreatedBy is the user ID who recorded this settlement.
	CreatedBy string

	// Note is an optional description.
	Note string
}
