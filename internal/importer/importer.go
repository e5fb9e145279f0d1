// Package importer decodes the packed bulk-import format and persists the
// contracts and aliases it carries.
package importer

import (
	"context"
	"fmt"
	"strings"

	"github.com/wonny/sectrack/internal/identifier"
	"github.com/wonny/sectrack/internal/store"
	"github.com/wonny/sectrack/pkg/logger"
)

// Entry is one contract in a bulk import payload. ID packs the contract
// fields with `-_-` between fields and `--` standing in for spaces inside
// a field.
type Entry struct {
	ID    string `json:"id"`
	Alias string `json:"alias"`
}

// Payload is the bulk import wire format.
type Payload struct {
	Contracts []Entry `json:"contracts"`
}

// Importer persists bulk-import entries for one entry id.
type Importer struct {
	store   *store.Store
	logger  *logger.Logger
	entryID string
}

// New creates an importer.
func New(st *store.Store, log *logger.Logger, entryID string) *Importer {
	return &Importer{store: st, logger: log, entryID: entryID}
}

// Import persists a batch. Malformed entries are skipped with a warning;
// the rest of the batch still imports.
func (i *Importer) Import(ctx context.Context, entries []Entry) (imported, skipped int) {
	for _, entry := range entries {
		if err := i.importEntry(ctx, entry); err != nil {
			i.logger.WithError(err).WithField("id", entry.ID).Warn("Skipping import entry")
			skipped++
			continue
		}
		imported++
	}
	return imported, skipped
}

// importEntry decodes and persists one packed contract. Field order is
// supplier, contract, contract type, price component, energy type, segment,
// then optionally month and year.
func (i *Importer) importEntry(ctx context.Context, entry Entry) error {
	params := strings.Split(entry.ID, "-_-")
	for n := range params {
		params[n] = strings.ReplaceAll(params[n], "--", " ")
	}

	if len(params) != 6 && len(params) != 8 {
		return fmt.Errorf("expected 6 or 8 fields, got %d", len(params))
	}

	c := store.Contract{
		EntryID:        i.entryID,
		Supplier:       params[0],
		ContractName:   params[1],
		ContractType:   params[2],
		PriceComponent: params[3],
		EnergyType:     params[4],
		Segment:        params[5],
	}
	if len(params) == 8 {
		c.Month, c.Year = params[6], params[7]
	}

	if err := i.store.AddContract(ctx, c); err != nil {
		return err
	}

	nameParts := []string{params[0], params[1], params[4], params[2], params[3], params[5]}
	if len(params) == 8 {
		nameParts = append(nameParts, params[6], params[7])
	}
	sensorID := identifier.SensorPrefix + identifier.Format(strings.Join(nameParts, " "))

	if entry.Alias == "" {
		return nil
	}
	return i.store.UpsertAlias(ctx, i.entryID, sensorID, entry.Alias)
}
