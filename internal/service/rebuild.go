package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/divvyhq/divvy/internal/ledger"
	"github.com/divvyhq/divvy/internal/split"
	"github.com/divvyhq/divvy/internal/storage"
)

// RebuildLedger replays every stored expense and settlement in creation
// order into a fresh ledger. The ledger itself is never persisted; it is
// derived state, reconstructed here on every startup.
func RebuildLedger(ctx context.Context, store storage.Store) (*ledger.Ledger, error) {
	l := ledger.New()

	expenses, err := store.ListExpenses(ctx)
	if err != nil {
		return nil, fmt.Errorf("rebuild ledger: %w", err)
	}
	for _, e := range expenses {
		// Stored shares were validated on creation; re-check them so a
		// corrupted row cannot poison the ledger silently.
		if err := split.Validate(e.SplitKind, e.Amount, e.Shares); err != nil {
			return nil, fmt.Errorf("rebuild ledger: expense %s: %w", e.ID, err)
		}
		l.ApplyShares(e.PaidBy, e.Shares)
	}

	settlements, err := store.ListSettlements(ctx)
	if err != nil {
		return nil, fmt.Errorf("rebuild ledger: %w", err)
	}
	for _, st := range settlements {
		if err := l.Settle(st.FromUserID, st.ToUserID, st.Amount); err != nil {
			return nil, fmt.Errorf("rebuild ledger: settlement %s: %w", st.ID, err)
		}
	}

	slog.Info("Ledger rebuilt", "expenses", len(expenses), "settlements", len(settlements))
	return l, nil
}
