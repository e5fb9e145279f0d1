package store

import (
	"context"
	"fmt"
)

// Alias binds a user-chosen display name to an existing sensor id.
type Alias struct {
	ID               int64
	EntryID          string
	OriginalSensorID string
	Name             string
}

// UpsertAlias inserts or updates an alias keyed on its display name. When
// the name already exists the owning entry and original sensor binding are
// overwritten (last writer wins).
func (s *Store) UpsertAlias(ctx context.Context, entryID, originalSensorID, name string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE custom_sensors SET entry_id = ?, original_sensor_id = ?
		WHERE custom_sensor_name = ?`,
		entryID, originalSensorID, name,
	)
	if err != nil {
		return fmt.Errorf("update alias: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("alias rows affected: %w", err)
	}
	if affected > 0 {
		return nil
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO custom_sensors (entry_id, original_sensor_id, custom_sensor_name)
		VALUES (?, ?, ?)`,
		entryID, originalSensorID, name,
	)
	if err != nil {
		return fmt.Errorf("insert alias: %w", err)
	}

	return nil
}

// Aliases returns all aliases owned by the given entry id.
func (s *Store) Aliases(ctx context.Context, entryID string) ([]Alias, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, entry_id, original_sensor_id, custom_sensor_name
		FROM custom_sensors WHERE entry_id = ? ORDER BY id`, entryID)
	if err != nil {
		return nil, fmt.Errorf("query aliases: %w", err)
	}
	defer rows.Close()

	var aliases []Alias
	for rows.Next() {
		var a Alias
		if err := rows.Scan(&a.ID, &a.EntryID, &a.OriginalSensorID, &a.Name); err != nil {
			return nil, fmt.Errorf("scan alias: %w", err)
		}
		aliases = append(aliases, a)
	}

	return aliases, rows.Err()
}

// RemoveAliasByName deletes the alias with the given display name.
func (s *Store) RemoveAliasByName(ctx context.Context, name string) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM custom_sensors WHERE custom_sensor_name = ?`, name); err != nil {
		return fmt.Errorf("delete alias: %w", err)
	}
	return nil
}
