// Package jobs holds the scheduled work: the best-contracts refresh and
// store maintenance.
package jobs

import (
	"context"
	"fmt"
	"strconv"

	"github.com/wonny/sectrack/internal/pricing"
	"github.com/wonny/sectrack/internal/store"
	"github.com/wonny/sectrack/pkg/logger"
)

// DefaultTopLimit is the number of ranked rows when no limit is configured.
const DefaultTopLimit = 5

// Filter narrows the best-contracts query. The zero value of a facet field
// or the literal "All" means the facet is not filtered.
type Filter struct {
	EnergyType   string
	Segment      string
	ContractType string
	Limit        int
}

// BestContractsJob refreshes the ranked cheapest-contracts table from the
// pricing API. Without an explicit filter it runs with the filter the
// wizard persisted in settings.
type BestContractsJob struct {
	store   *store.Store
	api     pricing.API
	logger  *logger.Logger
	entryID string
	zipCode string
}

// NewBestContractsJob creates the job.
func NewBestContractsJob(st *store.Store, api pricing.API, log *logger.Logger, entryID, zipCode string) *BestContractsJob {
	return &BestContractsJob{
		store:   st,
		api:     api,
		logger:  log,
		entryID: entryID,
		zipCode: zipCode,
	}
}

// Name returns the job name.
func (j *BestContractsJob) Name() string {
	return "best_contracts"
}

// Schedule returns the cron schedule (daily at 06:10).
func (j *BestContractsJob) Schedule() string {
	return "0 10 6 * * *"
}

// Run refreshes the table with the stored filter.
func (j *BestContractsJob) Run(ctx context.Context) error {
	filter, err := j.storedFilter(ctx)
	if err != nil {
		return err
	}
	return j.RunWithFilter(ctx, filter)
}

// RunWithFilter refreshes the table with an explicit filter. The table is
// emptied up front, so a failed query leaves it empty rather than stale.
func (j *BestContractsJob) RunWithFilter(ctx context.Context, filter Filter) error {
	limit := filter.Limit
	if limit <= 0 {
		limit = DefaultTopLimit
	}

	if err := j.store.ClearTopContracts(ctx); err != nil {
		return err
	}

	components, err := j.api.PriceComponents(ctx, pricing.Facets{
		EnergyType:   facetValue(filter.EnergyType),
		Segment:      facetValue(filter.Segment),
		ContractType: facetValue(filter.ContractType),
		Bottom:       limit,
		ZipCode:      j.zipCode,
		ShowPrices:   true,
	})
	if err != nil {
		return fmt.Errorf("query best contracts: %w", err)
	}

	// Response order is the API's price ranking; write it out 1-based.
	for i, pc := range components {
		err := j.store.UpsertTopContract(ctx, i+1, store.TopContract{
			EntryID:        j.entryID,
			EnergyType:     pc.EnergyType,
			ContractType:   pc.ContractType,
			Segment:        pc.Segment,
			Supplier:       pc.Supplier,
			ContractName:   pc.Product,
			PriceComponent: pc.Component,
		})
		if err != nil {
			return err
		}
	}

	j.logger.WithField("contracts", len(components)).Info("Top contracts refreshed")
	return nil
}

// storedFilter reads the wizard-persisted filter from settings.
func (j *BestContractsJob) storedFilter(ctx context.Context) (Filter, error) {
	var filter Filter
	var err error

	if filter.EnergyType, err = j.store.Setting(ctx, store.SettingTopEnergyType, "All"); err != nil {
		return filter, err
	}
	if filter.Segment, err = j.store.Setting(ctx, store.SettingTopSegment, "All"); err != nil {
		return filter, err
	}
	if filter.ContractType, err = j.store.Setting(ctx, store.SettingTopContractType, "All"); err != nil {
		return filter, err
	}

	limit, err := j.store.Setting(ctx, store.SettingTopLimit, strconv.Itoa(DefaultTopLimit))
	if err != nil {
		return filter, err
	}
	filter.Limit, err = strconv.Atoi(limit)
	if err != nil {
		return filter, fmt.Errorf("invalid top contracts limit %q: %w", limit, err)
	}

	return filter, nil
}

// facetValue maps the "All" placeholder to an unset facet.
func facetValue(v string) string {
	if v == "All" {
		return ""
	}
	return v
}
