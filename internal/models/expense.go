package models

import (
	"github.com/shopspring/decimal"

	"github.com/divvyhq/divvy/internal/split"
)

// Expense represents money paid by one user on behalf of several.
// The shares are computed and validated by the split engine before the
// expense is persisted; they are never recomputed or edited afterwards.
type Expense struct {
	// ID is the unique identifier for the expense (UUID format).
	ID string

	// GroupID is the owning group; empty for one-off expenses between
	// users who don't share a group.
	GroupID string

	// Description is a human-readable label (e.g., "Dinner at Luigi's").
	Description string

	// Amount is the total paid.
	Amount decimal.Decimal

	// Currency is a label only (default "USD"). Divvy does not convert
	// between currencies or net debts across them.
	Currency string

	// PaidBy is the user ID of the payer.
	PaidBy string

	// SplitKind records how the shares were derived.
	SplitKind split.Kind

	// Shares is the validated per-participant breakdown. Invariant: the
	// share amounts sum to Amount within the settlement epsilon (exactly,
	// for equal and percentage splits).
	Shares []split.Share

	// Notes is an optional free-form field.
	Notes string

	// CreatedAt / UpdatedAt are Unix timestamps.
	CreatedAt int64
	UpdatedAt int64
}

// InvolvesUser reports whether the user is the payer or holds a share.
func (e *Expense) InvolvesUser(userID string) bool {
	if e.PaidBy == userID {
		return true
	}
	for _, s := range e.Shares {
		if s.UserID == userID {
			return true
		}
	}
	return false
}
