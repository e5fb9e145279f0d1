package handlers

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/wonny/sectrack/internal/wizard"
	"github.com/wonny/sectrack/pkg/logger"
)

// FlowHandler exposes the configuration wizard over HTTP. Each flow lives
// server-side; clients hold only its id and post form input against it.
type FlowHandler struct {
	manager *wizard.Manager
	newFlow func() *wizard.Flow
	logger  *logger.Logger
}

// NewFlowHandler creates a flow handler. newFlow builds a fresh wizard flow
// per created flow.
func NewFlowHandler(manager *wizard.Manager, newFlow func() *wizard.Flow, log *logger.Logger) *FlowHandler {
	return &FlowHandler{
		manager: manager,
		newFlow: newFlow,
		logger:  log,
	}
}

// FlowResponse is the wire shape of a flow's current position.
type FlowResponse struct {
	FlowID      string         `json:"flow_id"`
	Form        *wizard.Form   `json:"form,omitempty"`
	Result      *wizard.Result `json:"result,omitempty"`
	AbortReason string         `json:"abort_reason,omitempty"`
}

// Create starts a new wizard flow and returns its first form.
// POST /api/flows
func (h *FlowHandler) Create(w http.ResponseWriter, r *http.Request) {
	flow := h.newFlow()
	id := h.manager.Add(flow)

	form, err := flow.Current(r.Context())
	if err != nil {
		h.respondFlowError(w, id, flow, err)
		return
	}

	respondJSON(w, http.StatusCreated, FlowResponse{FlowID: id, Form: form})
}

// Get returns the flow's current form.
// GET /api/flows/{id}
func (h *FlowHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	flow, err := h.manager.Get(id)
	if err != nil {
		respondError(w, http.StatusNotFound, "Flow not found")
		return
	}

	if flow.Done() {
		respondJSON(w, http.StatusOK, FlowResponse{
			FlowID:      id,
			Result:      flow.Result(),
			AbortReason: flow.AbortReason(),
		})
		return
	}

	form, err := flow.Current(r.Context())
	if err != nil {
		h.respondFlowError(w, id, flow, err)
		return
	}

	respondJSON(w, http.StatusOK, FlowResponse{FlowID: id, Form: form})
}

// Submit posts input against the flow's current form and advances it.
// POST /api/flows/{id}/input
func (h *FlowHandler) Submit(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	flow, err := h.manager.Get(id)
	if err != nil {
		respondError(w, http.StatusNotFound, "Flow not found")
		return
	}

	var input map[string]string
	if err := decodeJSON(r, &input); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	form, result, err := flow.Submit(r.Context(), input)
	if err != nil {
		h.respondFlowError(w, id, flow, err)
		return
	}

	if result != nil {
		h.manager.Remove(id)
		respondJSON(w, http.StatusOK, FlowResponse{FlowID: id, Result: result})
		return
	}

	respondJSON(w, http.StatusOK, FlowResponse{FlowID: id, Form: form})
}

// respondFlowError distinguishes a terminated flow from bad input. Aborts
// come back as a regular response carrying the reason; validation errors
// are a 400 and leave the flow where it was.
func (h *FlowHandler) respondFlowError(w http.ResponseWriter, id string, flow *wizard.Flow, err error) {
	var abort *wizard.AbortError
	if errors.As(err, &abort) {
		h.manager.Remove(id)
		respondJSON(w, http.StatusOK, FlowResponse{FlowID: id, AbortReason: abort.Reason})
		return
	}

	respondError(w, http.StatusBadRequest, err.Error())
}
