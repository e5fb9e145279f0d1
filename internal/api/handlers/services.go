package handlers

import (
	"context"
	"io"
	"net/http"

	"github.com/wonny/sectrack/internal/importer"
	"github.com/wonny/sectrack/internal/jobs"
	"github.com/wonny/sectrack/internal/store"
	"github.com/wonny/sectrack/pkg/logger"
)

// ReloadFunc re-materializes the sensors after the store changed.
type ReloadFunc func(ctx context.Context) error

// ServiceHandler exposes the one-shot services: bulk contract import and
// the best-contracts refresh.
type ServiceHandler struct {
	store    *store.Store
	importer *importer.Importer
	best     *jobs.BestContractsJob
	reload   ReloadFunc
	logger   *logger.Logger
	entryID  string
}

// NewServiceHandler creates a service handler.
func NewServiceHandler(st *store.Store, imp *importer.Importer, best *jobs.BestContractsJob, reload ReloadFunc, log *logger.Logger, entryID string) *ServiceHandler {
	return &ServiceHandler{
		store:    st,
		importer: imp,
		best:     best,
		reload:   reload,
		logger:   log,
		entryID:  entryID,
	}
}

// GenerateContractsResponse reports the batch outcome.
type GenerateContractsResponse struct {
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
}

// GenerateContracts bulk-imports contracts with aliases. Malformed entries
// are skipped; the rest of the batch still imports.
// POST /api/services/generate_contracts
func (h *ServiceHandler) GenerateContracts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req importer.Payload
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	imported, skipped := h.importer.Import(ctx, req.Contracts)

	if imported > 0 {
		if err := h.reload(ctx); err != nil {
			h.logger.WithError(err).Error("Sensor reload failed after import")
			respondError(w, http.StatusInternalServerError, "Import succeeded but sensor reload failed")
			return
		}
	}

	respondJSON(w, http.StatusOK, GenerateContractsResponse{
		Imported: imported,
		Skipped:  skipped,
	})
}

// BestContractsRequest optionally overrides the stored filter.
type BestContractsRequest struct {
	EnergyType   string `json:"energy_type"`
	Segment      string `json:"segment"`
	ContractType string `json:"contract_type"`
	Limit        int    `json:"limit"`
}

// BestContracts triggers a best-contracts refresh, with the stored filter
// or a request-supplied override.
// POST /api/services/best_contracts
func (h *ServiceHandler) BestContracts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req BestContractsRequest
	err := decodeJSON(r, &req)
	switch {
	case err == io.EOF:
		err = h.best.Run(ctx)
	case err != nil:
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	default:
		err = h.best.RunWithFilter(ctx, jobs.Filter{
			EnergyType:   req.EnergyType,
			Segment:      req.Segment,
			ContractType: req.ContractType,
			Limit:        req.Limit,
		})
	}

	if err != nil {
		h.logger.WithError(err).Error("Best contracts refresh failed")
		respondError(w, http.StatusBadGateway, "Best contracts refresh failed")
		return
	}

	top, err := h.store.TopContracts(ctx, h.entryID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to read top contracts")
		return
	}

	respondJSON(w, http.StatusOK, top)
}
