package store

import (
	"context"
	"fmt"
)

// TopContract is one ranked row in the cheapest-contracts table. Rank is
// 1-based and unique; the table is wholly owned by the best-contracts job.
type TopContract struct {
	ID             int64
	Rank           int
	EntryID        string
	EnergyType     string
	ContractType   string
	Segment        string
	Supplier       string
	ContractName   string
	PriceComponent string
	Month          string
	Year           string
}

// ClearTopContracts empties the top-contracts table.
func (s *Store) ClearTopContracts(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM top_contracts`); err != nil {
		return fmt.Errorf("clear top contracts: %w", err)
	}
	return nil
}

// UpsertTopContract writes one ranked row, replacing whatever previously
// held that rank.
func (s *Store) UpsertTopContract(ctx context.Context, rank int, tc TopContract) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE top_contracts SET entry_id = ?, energy_type = ?, contract_type = ?,
			segment = ?, supplier = ?, contract_name = ?, price_component = ?,
			month = ?, year = ?
		WHERE ranking = ?`,
		tc.EntryID, tc.EnergyType, tc.ContractType,
		tc.Segment, tc.Supplier, tc.ContractName, tc.PriceComponent,
		tc.Month, tc.Year,
		rank,
	)
	if err != nil {
		return fmt.Errorf("update top contract: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("top contract rows affected: %w", err)
	}
	if affected > 0 {
		return nil
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO top_contracts (entry_id, energy_type, contract_type, segment,
			supplier, contract_name, price_component, month, year, ranking)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		tc.EntryID, tc.EnergyType, tc.ContractType, tc.Segment,
		tc.Supplier, tc.ContractName, tc.PriceComponent, tc.Month, tc.Year,
		rank,
	)
	if err != nil {
		return fmt.Errorf("insert top contract: %w", err)
	}

	return nil
}

// TopContracts returns the ranked rows for the given entry id in rank order.
func (s *Store) TopContracts(ctx context.Context, entryID string) ([]TopContract, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, ranking, entry_id, energy_type, contract_type, segment,
			supplier, contract_name, price_component, month, year
		FROM top_contracts WHERE entry_id = ? ORDER BY ranking`, entryID)
	if err != nil {
		return nil, fmt.Errorf("query top contracts: %w", err)
	}
	defer rows.Close()

	var contracts []TopContract
	for rows.Next() {
		var tc TopContract
		if err := rows.Scan(
			&tc.ID, &tc.Rank, &tc.EntryID, &tc.EnergyType, &tc.ContractType,
			&tc.Segment, &tc.Supplier, &tc.ContractName, &tc.PriceComponent,
			&tc.Month, &tc.Year,
		); err != nil {
			return nil, fmt.Errorf("scan top contract: %w", err)
		}
		contracts = append(contracts, tc)
	}

	return contracts, rows.Err()
}
