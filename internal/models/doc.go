// Package models defines the core domain models for Divvy.
//
// # Models
//
//   - User: registered account, referenced everywhere else by ID
//   - Group: reusable participant list that owns expenses and settlements
//   - Expense: money paid by one user and split among participants
//   - Settlement: a direct payment between two users to clear debt
//   - Activity: feed entry recorded when expenses or settlements change
//
// # Design principles
//
//  1. Models only store data; split math lives in internal/split and
//     balance bookkeeping in internal/ledger.
//  2. Relationships use ID strings, never pointers, to avoid cycles.
//  3. Monetary fields are shopspring decimals; float64 never represents
//     money anywhere in the system.
//  4. Expense shares are immutable once the ledger has consumed them:
//     editing an expense means reversing the old shares and applying the
//     new ones, never mutating shares in place.
package models
