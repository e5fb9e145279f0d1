package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Setting keys persisted by the wizard's top-contracts configuration step.
const (
	SettingTopEnergyType   = "conf_top_energy_type"
	SettingTopSegment      = "conf_top_segment"
	SettingTopContractType = "conf_top_contract_type"
	SettingTopLimit        = "conf_top_contracts_limit"
)

// Setting returns the stored value for key, or fallback when the key has
// never been set.
func (s *Store) Setting(ctx context.Context, key, fallback string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return fallback, nil
	}
	if err != nil {
		return "", fmt.Errorf("query setting %s: %w", key, err)
	}
	return value, nil
}

// SetSetting stores or replaces a setting value.
func (s *Store) SetSetting(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value,
	)
	if err != nil {
		return fmt.Errorf("set setting %s: %w", key, err)
	}
	return nil
}
