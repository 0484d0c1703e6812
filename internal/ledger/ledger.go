// Package ledger tracks pairwise net obligations between users and reduces
// them to a minimal set of settling payments.
//
// The ledger is an in-memory structure. The service layer rebuilds it from
// stored expenses and settlements on startup; it is never persisted itself.
package ledger

import (
	"errors"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/divvyhq/divvy/internal/money"
	"github.com/divvyhq/divvy/internal/split"
)

// ErrLedgerInvariant signals internal corruption: the ledger's symmetry
// invariant no longer holds. It is not recoverable by the caller.
var ErrLedgerInvariant = errors.New("ledger invariant violation")

// ErrInvalidSettlement is the sentinel for settlement validation failures.
var ErrInvalidSettlement = errors.New("invalid settlement")

// Ledger holds, per user, the signed net balance with every counterpart.
// bal(A,B) > 0 means B owes A. The structural invariant bal(A,B) == -bal(B,A)
// holds for every stored pair, and entries below the settlement epsilon are
// removed rather than stored as zero.
//
// One mutex guards the whole structure; every mutation is a single locked
// step, so apply/reverse/settle are atomic with respect to each other and
// to snapshot reads.
type Ledger struct {
	mu       sync.RWMutex
	balances map[string]map[string]decimal.Decimal
}

// New creates an empty ledger.
func New() *Ledger {
	return &Ledger{balances: make(map[string]map[string]decimal.Decimal)}
}

// ApplyShares records an expense: for every share (p, amt) with p != payer,
// p now owes the payer amt more. The payer's own share is skipped.
func (l *Ledger) ApplyShares(payerID string, shares []split.Share) {
	l.applyDeltas(payerID, shares, false)
}

// ReverseShares is the exact algebraic inverse of ApplyShares, used when an
// expense is retracted. Applying then reversing the same shares restores
// every balance to its prior value.
func (l *Ledger) ReverseShares(payerID string, shares []split.Share) {
	l.applyDeltas(payerID, shares, true)
}

func (l *Ledger) applyDeltas(payerID string, shares []split.Share, negate bool) {
	// Build the delta list before touching the maps so a mutation is all
	// or nothing.
	type delta struct {
		userID string
		amount decimal.Decimal
	}
	deltas := make([]delta, 0, len(shares))
	for _, s := range shares {
		if s.UserID == payerID {
			continue // self-debt is meaningless
		}
		amt := s.Amount
		if negate {
			amt = amt.Neg()
		}
		deltas = append(deltas, delta{userID: s.UserID, amount: amt})
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	for _, d := range deltas {
		l.adjust(payerID, d.userID, d.amount)
	}
}

// Settle records a direct payment from one user to another: it reduces what
// fromID owes toID by amount. Overpayment flips the sign, meaning the payer
// is now owed the difference. The amount is not required to match the
// outstanding balance.
func (l *Ledger) Settle(fromID, toID string, amount decimal.Decimal) error {
	if err := CheckSettlement(fromID, toID, amount); err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.adjust(fromID, toID, amount)
	return nil
}

// CheckSettlement validates a settlement without recording it. Settle runs
// the same checks; callers that persist the settlement before applying it
// can validate up front so the later Settle cannot fail.
func CheckSettlement(fromID, toID string, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return fmt.Errorf("%w: amount must be positive, got %s", ErrInvalidSettlement, money.Format(amount))
	}
	if fromID == toID {
		return fmt.Errorf("%w: %s cannot settle with themselves", ErrInvalidSettlement, fromID)
	}
	return nil
}

// BalanceBetween returns bal(A,B): positive means B owes A. Users with no
// recorded relationship have a zero balance; absence is not an error.
func (l *Ledger) BalanceBetween(a, b string) decimal.Decimal {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.balances[a][b]
}

// NetBalances returns each user's net balance: the sum of their signed
// balances with every counterpart. Positive = net creditor. The map is a
// snapshot taken under the read lock; concurrent updates after the call
// returns are not reflected.
func (l *Ledger) NetBalances(userIDs []string) map[string]decimal.Decimal {
	l.mu.RLock()
	defer l.mu.RUnlock()

	nets := make(map[string]decimal.Decimal, len(userIDs))
	for _, id := range userIDs {
		net := decimal.Zero
		for _, bal := range l.balances[id] {
			net = net.Add(bal)
		}
		nets[id] = net
	}
	return nets
}

// NetBalancesAmong returns each user's net balance counting only the other
// users in the set. Balances with outsiders are excluded, so by symmetry
// the returned nets always sum to zero. This is the right view for a group:
// a member's debts elsewhere do not belong in the group's accounts.
func (l *Ledger) NetBalancesAmong(userIDs []string) map[string]decimal.Decimal {
	members := make(map[string]struct{}, len(userIDs))
	for _, id := range userIDs {
		members[id] = struct{}{}
	}

	l.mu.RLock()
	defer l.mu.RUnlock()

	nets := make(map[string]decimal.Decimal, len(userIDs))
	for _, id := range userIDs {
		net := decimal.Zero
		for counterpart, bal := range l.balances[id] {
			if _, ok := members[counterpart]; ok {
				net = net.Add(bal)
			}
		}
		nets[id] = net
	}
	return nets
}

// BalancesFor returns a copy of a user's per-counterpart balance map.
func (l *Ledger) BalancesFor(userID string) map[string]decimal.Decimal {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make(map[string]decimal.Decimal, len(l.balances[userID]))
	for id, bal := range l.balances[userID] {
		out[id] = bal
	}
	return out
}

// adjust shifts bal(a,b) by amount and bal(b,a) by -amount, pruning entries
// that land within the settlement epsilon. Callers must hold the write lock.
func (l *Ledger) adjust(a, b string, amount decimal.Decimal) {
	l.set(a, b, l.balances[a][b].Add(amount))
	l.set(b, a, l.balances[b][a].Sub(amount))
}

func (l *Ledger) set(a, b string, bal decimal.Decimal) {
	if money.IsSettled(bal) {
		if m, ok := l.balances[a]; ok {
			delete(m, b)
			if len(m) == 0 {
				delete(l.balances, a)
			}
		}
		return
	}
	m, ok := l.balances[a]
	if !ok {
		m = make(map[string]decimal.Decimal)
		l.balances[a] = m
	}
	m[b] = bal
}
