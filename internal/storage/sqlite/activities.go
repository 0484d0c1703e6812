package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/divvyhq/divvy/internal/models"
)

// CreateActivity appends an entry to the activity feed.
func (s *SQLiteStore) CreateActivity(ctx context.Context, activity *models.Activity) error {
	if activity.ID == "" {
		activity.ID = uuid.New().String()
	}
	if activity.CreatedAt == 0 {
		activity.CreatedAt = time.Now().Unix()
	}

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO activities (id, type, actor_id, group_id, description, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		activity.ID, string(activity.Type), activity.ActorID, nullable(activity.GroupID),
		activity.Description, activity.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert activity: %w", err)
	}

	return nil
}

// ListActivitiesByGroup retrieves a group's feed, newest first.
// limit <= 0 means no limit.
func (s *SQLiteStore) ListActivitiesByGroup(ctx context.Context, groupID string, limit int) ([]*models.Activity, error) {
	query := `SELECT id, type, actor_id, group_id, description, created_at
		 FROM activities WHERE group_id = ? ORDER BY created_at DESC, id`
	args := []interface{}{groupID}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list activities: %w", err)
	}
	defer rows.Close()

	var activities []*models.Activity
	for rows.Next() {
		activity := &models.Activity{}
		var typ string
		if err := rows.Scan(&activity.ID, &typ, &activity.ActorID, &activity.GroupID,
			&activity.Description, &activity.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan activity: %w", err)
		}
		activity.Type = models.ActivityType(typ)
		activities = append(activities, activity)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate activities: %w", err)
	}

	return activities, nil
}
