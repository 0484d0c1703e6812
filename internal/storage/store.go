// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"

	"github.com/divvyhq/divvy/internal/models"
)

// ErrNotFound is wrapped by every lookup that misses so callers can match
// with errors.Is regardless of backend.
var ErrNotFound = errors.New("not found")

// Store defines the interface for Divvy's persistence operations.
// This abstraction allows swapping storage backends (SQLite, PostgreSQL,
// etc.) without changing the service layer.
//
// The in-memory balance ledger is deliberately absent here: it is derived
// state, rebuilt from expenses and settlements at startup.
type Store interface {
	// CreateUser persists a new user. Fails if the email is taken.
	CreateUser(ctx context.Context, user *models.User) error

	// GetUserByEmail retrieves a user by email. Returns (nil, nil) when
	// no such user exists.
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)

	// GetUserByID retrieves a user by ID. Returns (nil, nil) when no such
	// user exists.
	GetUserByID(ctx context.Context, id string) (*models.User, error)

	// GetUsersByIDs retrieves multiple users keyed by ID; missing users
	// are omitted from the result.
	GetUsersByIDs(ctx context.Context, ids []string) (map[string]*models.User, error)

	// CreateGroup persists a new group, populating ID and CreatedAt.
	CreateGroup(ctx context.Context, group *models.Group) error

	// GetGroup retrieves a group with its member list.
	GetGroup(ctx context.Context, groupID string) (*models.Group, error)

	// AddGroupMembers adds the given user IDs to a group, skipping any
	// that are already members.
	AddGroupMembers(ctx context.Context, groupID string, userIDs []string) error

	// ListGroupsForUser retrieves every group the user belongs to.
	ListGroupsForUser(ctx context.Context, userID string) ([]*models.Group, error)

	// CreateExpense persists an expense with its shares, populating ID
	// and CreatedAt.
	CreateExpense(ctx context.Context, expense *models.Expense) error

	// GetExpense retrieves an expense including its ordered shares.
	GetExpense(ctx context.Context, expenseID string) (*models.Expense, error)

	// DeleteExpense removes an expense and its shares.
	DeleteExpense(ctx context.Context, expenseID string) error

	// ListExpensesByGroup retrieves a group's expenses, newest first.
	ListExpensesByGroup(ctx context.Context, groupID string) ([]*models.Expense, error)

	// ListExpenses retrieves every expense in creation order. Used to
	// rebuild the ledger at startup.
	ListExpenses(ctx context.Context) ([]*models.Expense, error)

	// CreateSettlement persists a settlement, populating ID and CreatedAt.
	CreateSettlement(ctx context.Context, settlement *models.Settlement) error

	// GetSettlement retrieves a settlement by ID.
	GetSettlement(ctx context.Context, settlementID string) (*models.Settlement, error)

	// ListSettlementsByGroup retrieves a group's settlements, newest first.
	ListSettlementsByGroup(ctx context.Context, groupID string) ([]*models.Settlement, error)

	// ListSettlements retrieves every settlement in creation order. Used
	// to rebuild the ledger at startup.
	ListSettlements(ctx context.Context) ([]*models.Settlement, error)

	// CreateActivity appends an activity feed entry.
	CreateActivity(ctx context.Context, activity *models.Activity) error

	// ListActivitiesByGroup retrieves a group's feed, newest first.
	ListActivitiesByGroup(ctx context.Context, groupID string, limit int) ([]*models.Activity, error)

	// Close releases any resources held by the store.
	Close() error
}
