package database

import (
	"context"
	"encoding/json"
	"fmt"

	"booking-offer-api/internal/models"
)

// AppendActivity writes one audit record. The log is append-only.
func (db *DB) AppendActivity(ctx context.Context, entry models.ActivityLogEntry) error {
	details := []byte("{}")
	if len(entry.Details) > 0 {
		var err error
		if details, err = json.Marshal(entry.Details); err != nil {
			return fmt.Errorf("failed to encode activity details: %w", err)
		}
	}

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO activity_log (id, entity_type, entity_id, action, actor_id, details, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		entry.ID,
		entry.EntityType,
		entry.EntityID,
		entry.Action,
		entry.ActorID,
		string(details),
		formatTime(entry.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to append activity: %w", err)
	}

	return nil
}

// ListActivity returns the audit trail of one entity, oldest first. It backs the
// admin timeline; the offer engine itself never reads the log.
func (db *DB) ListActivity(ctx context.Context, entityType, entityID string) ([]models.ActivityLogEntry, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, entity_type, entity_id, action, actor_id, details, created_at
		FROM activity_log
		WHERE entity_type = ? AND entity_id = ?
		ORDER BY created_at ASC, rowid ASC`,
		entityType, entityID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query activity: %w", err)
	}
	defer rows.Close()

	entries := []models.ActivityLogEntry{}
	for rows.Next() {
		var e models.ActivityLogEntry
		var details, createdAt string
		if err := rows.Scan(&e.ID, &e.EntityType, &e.EntityID, &e.Action, &e.ActorID, &details, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan activity: %w", err)
		}
		if err := json.Unmarshal([]byte(details), &e.Details); err != nil {
			return nil, fmt.Errorf("failed to decode activity details: %w", err)
		}
		if e.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating activity: %w", err)
	}

	return entries, nil
}
