package ledger

import (
	"container/heap"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/divvyhq/divvy/internal/money"
)

// Transaction is a proposed settling payment: fromID pays toID amount.
// Simplify only proposes transactions; applying one is an explicit Settle
// call by the caller.
type Transaction struct {
	FromUserID string
	ToUserID   string
	Amount     decimal.Decimal
}

// Simplify reduces the debts among the given users to a minimal list of
// settling payments with the same net effect per user. Only balances
// between members of the set are considered; a participant's debts with
// outsiders are left untouched. It greedily matches the largest creditor
// with the largest debtor until every net balance is within the settlement
// epsilon of zero.
//
// The result does not reproduce the original pairwise balances; it is a
// smaller transaction set that zeroes every participant's net position.
// Ties between equal amounts are broken by user ID so repeated calls on an
// unchanged ledger return identical output.
func (l *Ledger) Simplify(userIDs []string) ([]Transaction, error) {
	nets := l.NetBalancesAmong(userIDs)

	creditors := &partyHeap{}
	debtors := &partyHeap{}
	for _, id := range userIDs {
		net := nets[id]
		switch {
		case net.GreaterThan(money.Epsilon):
			creditors.parties = append(creditors.parties, party{userID: id, amount: net})
		case net.Neg().GreaterThan(money.Epsilon):
			debtors.parties = append(debtors.parties, party{userID: id, amount: net.Neg()})
		}
	}
	heap.Init(creditors)
	heap.Init(debtors)

	var txns []Transaction
	for creditors.Len() > 0 && debtors.Len() > 0 {
		creditor := heap.Pop(creditors).(party)
		debtor := heap.Pop(debtors).(party)

		settle := decimal.Min(creditor.amount, debtor.amount)
		txns = append(txns, Transaction{
			FromUserID: debtor.userID,
			ToUserID:   creditor.userID,
			Amount:     money.Round2(settle),
		})

		// Push the unrounded remainders back so rounding error cannot
		// compound across iterations.
		if rem := creditor.amount.Sub(settle); rem.GreaterThan(money.Epsilon) {
			heap.Push(creditors, party{userID: creditor.userID, amount: rem})
		}
		if rem := debtor.amount.Sub(settle); rem.GreaterThan(money.Epsilon) {
			heap.Push(debtors, party{userID: debtor.userID, amount: rem})
		}
	}

	// Total credits equal total debits by ledger symmetry, so both heaps
	// must exhaust together. A leftover means upstream corruption.
	if creditors.Len() > 0 || debtors.Len() > 0 {
		return nil, fmt.Errorf("%w: %d creditors and %d debtors left after matching",
			ErrLedgerInvariant, creditors.Len(), debtors.Len())
	}
	return txns, nil
}

// party pairs a user with an outstanding (always positive) amount.
type party struct {
	userID string
	amount decimal.Decimal
}

// partyHeap is a max-heap on amount with user ID as the deterministic
// secondary key.
type partyHeap struct {
	parties []party
}

func (h *partyHeap) Len() int { return len(h.parties) }

func (h *partyHeap) Less(i, j int) bool {
	a, b := h.parties[i], h.parties[j]
	if !a.amount.Equal(b.amount) {
		return a.amount.GreaterThan(b.amount)
	}
	return a.userID < b.userID
}

func (h *partyHeap) Swap(i, j int) {
	h.parties[i], h.parties[j] = h.parties[j], h.parties[i]
}

func (h *partyHeap) Push(x any) {
	h.parties = append(h.parties, x.(party))
}

func (h *partyHeap) Pop() any {
	old := h.parties
	n := len(old)
	p := old[n-1]
	h.parties = old[:n-1]
	return p
}
