// Package split computes and validates per-participant shares of an expense.
// The three split kinds are a closed set; Compute dispatches on the kind
// rather than leaving the strategy open for extension.
package split

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/divvyhq/divvy/internal/money"
)

// Kind selects how an expense total is divided among participants.
type Kind string

const (
	// Equal divides the total evenly; the last participant absorbs the
	// rounding remainder so the shares sum to the total exactly.
	Equal Kind = "equal"
	// Exact uses caller-supplied amounts, one per participant.
	Exact Kind = "exact"
	// Percentage uses caller-supplied percentages summing to 100.
	Percentage Kind = "percentage"
)

// ErrInvalidSplit is the sentinel for all split validation failures. A
// failed split never reaches the ledger.
var ErrInvalidSplit = errors.New("invalid split")

// Share is one participant's portion of an expense. Percentage is only
// populated for percentage splits.
type Share struct {
	UserID     string
	Amount     decimal.Decimal
	Percentage decimal.Decimal
}

var hundred = decimal.NewFromInt(100)

// ParseKind converts a wire string into a Kind.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case Equal, Exact, Percentage:
		return Kind(s), nil
	default:
		return "", fmt.Errorf("%w: unknown split kind %q", ErrInvalidSplit, s)
	}
}

// Compute produces the share list for the given kind. For Equal, inputs is
// ignored; for Exact it holds one amount per participant; for Percentage
// one percentage per participant. Shares are returned in participant order.
func Compute(kind Kind, total decimal.Decimal, participants []string, inputs []decimal.Decimal) ([]Share, error) {
	if err := checkTotal(total); err != nil {
		return nil, err
	}
	if len(participants) == 0 {
		return nil, fmt.Errorf("%w: at least one participant required", ErrInvalidSplit)
	}

	switch kind {
	case Equal:
		return computeEqual(total, participants), nil
	case Exact:
		return computeExact(total, participants, inputs)
	case Percentage:
		return computePercentage(total, participants, inputs)
	default:
		return nil, fmt.Errorf("%w: unknown split kind %q", ErrInvalidSplit, kind)
	}
}

// Validate re-checks an existing share list against the total. Used when
// shares arrive from storage or from a caller rather than from Compute.
func Validate(kind Kind, total decimal.Decimal, shares []Share) error {
	if err := checkTotal(total); err != nil {
		return err
	}
	if len(shares) == 0 {
		return fmt.Errorf("%w: share list cannot be empty", ErrInvalidSplit)
	}

	sum := decimal.Zero
	pctSum := decimal.Zero
	for _, s := range shares {
		if s.Amount.IsNegative() {
			return fmt.Errorf("%w: negative amount %s for user %s", ErrInvalidSplit, money.Format(s.Amount), s.UserID)
		}
		if kind == Percentage {
			if s.Percentage.IsNegative() || s.Percentage.GreaterThan(hundred) {
				return fmt.Errorf("%w: percentage %s for user %s out of range [0,100]", ErrInvalidSplit, s.Percentage.String(), s.UserID)
			}
			pctSum = pctSum.Add(s.Percentage)
		}
		sum = sum.Add(s.Amount)
	}

	if kind == Percentage && !money.WithinEpsilon(pctSum, hundred) {
		return fmt.Errorf("%w: percentages sum to %s, want 100", ErrInvalidSplit, pctSum.String())
	}
	if !money.WithinEpsilon(sum, total) {
		return fmt.Errorf("%w: shares sum to %s, total is %s (off by %s)",
			ErrInvalidSplit, money.Format(sum), money.Format(total), money.Format(sum.Sub(total).Abs()))
	}
	return nil
}

func checkTotal(total decimal.Decimal) error {
	if !total.IsPositive() {
		return fmt.Errorf("%w: total must be positive, got %s", ErrInvalidSplit, money.Format(total))
	}
	return nil
}

// computeEqual gives the first N-1 participants round2(total/N) and the
// last participant whatever remains. The asymmetry is deliberate: it is
// what keeps the sum equal to the total to the cent.
func computeEqual(total decimal.Decimal, participants []string) []Share {
	n := len(participants)
	each := money.Round2(total.Div(decimal.NewFromInt(int64(n))))

	shares := make([]Share, n)
	distributed := decimal.Zero
	for i, userID := range participants[:n-1] {
		shares[i] = Share{UserID: userID, Amount: each}
		distributed = distributed.Add(each)
	}
	shares[n-1] = Share{
		UserID: participants[n-1],
		Amount: reclaimDeficit(shares[:n-1], total.Sub(distributed)),
	}
	return shares
}

// reclaimDeficit returns the remainder owed to the last participant. On a
// sub-cent total, rounding the first N-1 shares can overshoot and drive the
// remainder negative; cents are moved back out of the later shares until it
// is non-negative. Each rounded share overshoots by less than a cent, so
// the earlier shares always hold enough to cover the deficit.
func reclaimDeficit(allocated []Share, remainder decimal.Decimal) decimal.Decimal {
	for i := len(allocated) - 1; i >= 0 && remainder.IsNegative(); i-- {
		give := decimal.Min(allocated[i].Amount, remainder.Neg())
		allocated[i].Amount = allocated[i].Amount.Sub(give)
		remainder = remainder.Add(give)
	}
	return money.Round2(remainder)
}

// computeExact trusts the caller's amounts once they validate; no
// redistribution is performed.
func computeExact(total decimal.Decimal, participants []string, amounts []decimal.Decimal) ([]Share, error) {
	if len(amounts) != len(participants) {
		return nil, fmt.Errorf("%w: %d amounts for %d participants", ErrInvalidSplit, len(amounts), len(participants))
	}

	sum := decimal.Zero
	shares := make([]Share, len(participants))
	for i, userID := range participants {
		if amounts[i].IsNegative() {
			return nil, fmt.Errorf("%w: negative amount %s for user %s", ErrInvalidSplit, money.Format(amounts[i]), userID)
		}
		shares[i] = Share{UserID: userID, Amount: amounts[i]}
		sum = sum.Add(amounts[i])
	}

	if !money.WithinEpsilon(sum, total) {
		return nil, fmt.Errorf("%w: amounts sum to %s, total is %s (off by %s)",
			ErrInvalidSplit, money.Format(sum), money.Format(total), money.Format(sum.Sub(total).Abs()))
	}
	return shares, nil
}

// computePercentage mirrors computeEqual's remainder handling: the last
// participant absorbs whatever rounding the first N-1 shares produced.
func computePercentage(total decimal.Decimal, participants []string, percentages []decimal.Decimal) ([]Share, error) {
	if len(percentages) != len(participants) {
		return nil, fmt.Errorf("%w: %d percentages for %d participants", ErrInvalidSplit, len(percentages), len(participants))
	}

	pctSum := decimal.Zero
	for i, pct := range percentages {
		if pct.IsNegative() || pct.GreaterThan(hundred) {
			return nil, fmt.Errorf("%w: percentage %s for user %s out of range [0,100]", ErrInvalidSplit, pct.String(), participants[i])
		}
		pctSum = pctSum.Add(pct)
	}
	if !money.WithinEpsilon(pctSum, hundred) {
		return nil, fmt.Errorf("%w: percentages sum to %s, want 100", ErrInvalidSplit, pctSum.String())
	}

	n := len(participants)
	shares := make([]Share, n)
	distributed := decimal.Zero
	for i := 0; i < n-1; i++ {
		amount := money.Round2(total.Mul(percentages[i]).Div(hundred))
		shares[i] = Share{UserID: participants[i], Amount: amount, Percentage: percentages[i]}
		distributed = distributed.Add(amount)
	}
	shares[n-1] = Share{
		UserID:     participants[n-1],
		Amount:     reclaimDeficit(shares[:n-1], total.Sub(distributed)),
		Percentage: percentages[n-1],
	}
	return shares, nil
}
