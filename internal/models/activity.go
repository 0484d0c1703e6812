package models

// ActivityType classifies feed entries.
type ActivityType string

const (
	ActivityExpenseAdded    ActivityType = "expense_added"
	ActivityExpenseDeleted  ActivityType = "expense_deleted"
	ActivitySettlementAdded ActivityType = "settlement_added"
	ActivityGroupCreated    ActivityType = "group_created"
	ActivityMembersAdded    ActivityType = "members_added"
)

// Activity is a single entry in a group's activity feed. Entries are
// append-only and written as a side effect of expense/settlement changes;
// a failed feed write never fails the operation that produced it.
type Activity struct {
	// ID is the unique identifier for the activity (UUID format).
	ID string

	// Type classifies what happened.
	Type ActivityType

	// ActorID is the user who performed the action.
	ActorID string

	// GroupID is the group the activity belongs to; may be empty.
	GroupID string

	// Description is a rendered, human-readable summary.
	Description string

	// CreatedAt is the Unix timestamp when the activity occurred.
	CreatedAt int64
}
