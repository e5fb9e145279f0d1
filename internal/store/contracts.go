package store

import (
	"context"
	"fmt"

	"github.com/wonny/sectrack/internal/identifier"
)

// Contract is one persisted facet combination the user wants tracked.
// Month and Year are empty for contract types that are not time-bound;
// SensorID is empty until the first materialization back-fills it.
type Contract struct {
	ID             int64
	EntryID        string
	EnergyType     string
	ContractType   string
	Segment        string
	Supplier       string
	ContractName   string
	PriceComponent string
	Month          string
	Year           string
	SensorID       string
}

// AddContract inserts a contract row. A duplicate facet tuple is treated as
// already tracked and is not an error.
func (s *Store) AddContract(ctx context.Context, c Contract) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO contracts (entry_id, energy_type, contract_type, segment,
			supplier, contract_name, price_component, month, year, sensor_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.EntryID, c.EnergyType, c.ContractType, c.Segment,
		c.Supplier, c.ContractName, c.PriceComponent, c.Month, c.Year, c.SensorID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil
		}
		return fmt.Errorf("insert contract: %w", err)
	}

	return nil
}

// Contracts returns all contracts owned by the given entry id.
func (s *Store) Contracts(ctx context.Context, entryID string) ([]Contract, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, entry_id, energy_type, contract_type, segment,
			supplier, contract_name, price_component, month, year, sensor_id
		FROM contracts WHERE entry_id = ? ORDER BY id`, entryID)
	if err != nil {
		return nil, fmt.Errorf("query contracts: %w", err)
	}
	defer rows.Close()

	var contracts []Contract
	for rows.Next() {
		var c Contract
		if err := rows.Scan(
			&c.ID, &c.EntryID, &c.EnergyType, &c.ContractType, &c.Segment,
			&c.Supplier, &c.ContractName, &c.PriceComponent, &c.Month, &c.Year, &c.SensorID,
		); err != nil {
			return nil, fmt.Errorf("scan contract: %w", err)
		}
		contracts = append(contracts, c)
	}

	return contracts, rows.Err()
}

// SetContractSensorID back-fills the sensor id for the contract matching the
// facet tuple. Any numeric duplicate suffix (`_2`, `_3`) is trimmed first so
// the canonical id is recorded even if the registry deduplicated the live
// entity id.
func (s *Store) SetContractSensorID(ctx context.Context, c Contract, sensorID string) error {
	clean := identifier.StripSuffix(sensorID)

	_, err := s.db.ExecContext(ctx, `
		UPDATE contracts SET sensor_id = ?
		WHERE energy_type = ? AND contract_type = ? AND segment = ?
			AND supplier = ? AND contract_name = ? AND price_component = ?
			AND month = ? AND year = ?`,
		clean,
		c.EnergyType, c.ContractType, c.Segment,
		c.Supplier, c.ContractName, c.PriceComponent, c.Month, c.Year,
	)
	if err != nil {
		return fmt.Errorf("update sensor id: %w", err)
	}

	return nil
}

// RemoveContractBySensorID deletes the contract row with the given sensor id
// and cascades to any alias mirroring it.
func (s *Store) RemoveContractBySensorID(ctx context.Context, sensorID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM contracts WHERE sensor_id = ?`, sensorID); err != nil {
		return fmt.Errorf("delete contract: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM custom_sensors WHERE original_sensor_id = ?`, sensorID); err != nil {
		return fmt.Errorf("delete related aliases: %w", err)
	}

	return tx.Commit()
}
