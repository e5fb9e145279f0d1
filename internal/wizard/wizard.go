// Package wizard drives the multi-step configuration flow that narrows the
// pricing API's cartesian product of options down to a single tracked
// contract, and the smaller management sub-flows (aliases, removals,
// top-contracts filter).
package wizard

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/wonny/sectrack/internal/pricing"
	"github.com/wonny/sectrack/internal/store"
	"github.com/wonny/sectrack/pkg/logger"
)

// Step identifies the flow's current form.
type Step string

const (
	StepInit           Step = "init"
	StepSelection      Step = "selection"
	StepTimeSelection  Step = "time_selection"
	StepSupplier       Step = "supplier_selection"
	StepContract       Step = "contract_selection"
	StepPriceComponent Step = "price_component_selection"
	StepAssignAlias    Step = "assign_custom_name"
	StepRemoveContract Step = "remove_contract"
	StepRemoveAlias    Step = "remove_custom_sensor"
	StepTopConfig      Step = "configure_top_contracts"
	StepDone           Step = "done"
)

// Initial menu actions.
const (
	ActionAddContract    = "add_contract"
	ActionAssignAlias    = "assign_alias"
	ActionRemoveContract = "remove_contract"
	ActionRemoveAlias    = "remove_alias"
	ActionConfigureTop   = "configure_top_contracts"
)

// Abort reasons surfaced to the user.
const (
	AbortAuthFailed        = "api_auth_failed"
	AbortDataError         = "api_data_error"
	AbortNoSuppliers       = "no_suppliers_found"
	AbortNoContracts       = "no_contracts_found"
	AbortNoPriceComponents = "no_price_components_found"
)

// AbortError terminates a flow with a named reason the UI can translate.
type AbortError struct {
	Reason string
}

func (e *AbortError) Error() string {
	return "flow aborted: " + e.Reason
}

// Result is the terminal outcome of a successful flow.
type Result struct {
	Title string `json:"title"`
}

// ReloadFunc triggers a re-materialization of the sensors after the store
// changed.
type ReloadFunc func(ctx context.Context) error

// Years selectable for time-bound (Vast) contracts.
var years = []string{"2022", "2023", "2024"}

// selection is the transient in-flow state. Nothing here is persisted
// before the terminal step.
type selection struct {
	energyType   string
	contractType string
	segment      string
	year         string
	month        string
	supplier     string
	contract     string
}

// Flow is one wizard instance. Steps are strictly sequential within a flow;
// distinct flows are independent.
type Flow struct {
	store   *store.Store
	api     pricing.API
	logger  *logger.Logger
	entryID string
	reload  ReloadFunc

	step          Step
	form          *Form
	sel           selection
	authenticated bool
	result        *Result
	abortReason   string
}

// New creates a flow positioned at the initial menu.
func New(st *store.Store, api pricing.API, log *logger.Logger, entryID string, reload ReloadFunc) *Flow {
	return &Flow{
		store:   st,
		api:     api,
		logger:  log,
		entryID: entryID,
		reload:  reload,
		step:    StepInit,
	}
}

// Step returns the flow's current step.
func (f *Flow) Step() Step {
	return f.step
}

// Result returns the terminal result, nil while the flow is in progress.
func (f *Flow) Result() *Result {
	return f.result
}

// AbortReason returns the abort reason for a flow that terminated
// unsuccessfully, empty otherwise.
func (f *Flow) AbortReason() string {
	return f.abortReason
}

// Done reports whether the flow reached a terminal state.
func (f *Flow) Done() bool {
	return f.step == StepDone
}

// Current returns the form for the flow's current step, building it (and
// querying the pricing API where the step requires it) if not yet built.
func (f *Flow) Current(ctx context.Context) (*Form, error) {
	if f.step == StepDone {
		return nil, fmt.Errorf("flow already finished")
	}
	if f.form != nil {
		return f.form, nil
	}

	form, err := f.buildForm(ctx)
	if err != nil {
		return nil, f.maybeAbort(err)
	}

	f.form = form
	return form, nil
}

// Submit validates the input against the current form and advances the
// flow. It returns the next form, or a result when the flow terminated.
// An *AbortError terminates the flow with a named reason.
func (f *Flow) Submit(ctx context.Context, input map[string]string) (*Form, *Result, error) {
	form, err := f.Current(ctx)
	if err != nil {
		return nil, nil, err
	}

	if err := form.validate(input); err != nil {
		return nil, nil, err
	}

	next, err := f.handle(ctx, input)
	if err != nil {
		return nil, nil, f.maybeAbort(err)
	}

	f.step = next
	f.form = nil

	if f.step == StepDone {
		return nil, f.result, nil
	}

	nextForm, err := f.Current(ctx)
	if err != nil {
		return nil, nil, err
	}
	return nextForm, nil, nil
}

// maybeAbort marks the flow terminated when err is an abort, and passes the
// error through either way.
func (f *Flow) maybeAbort(err error) error {
	var abort *AbortError
	if errors.As(err, &abort) {
		f.step = StepDone
		f.abortReason = abort.Reason
		f.logger.WithField("reason", abort.Reason).Warn("Flow aborted")
	}
	return err
}

// buildForm constructs the form for the current step.
func (f *Flow) buildForm(ctx context.Context) (*Form, error) {
	switch f.step {
	case StepInit:
		return initForm(), nil
	case StepSelection:
		return selectionForm(), nil
	case StepTimeSelection:
		return timeSelectionForm(), nil
	case StepSupplier:
		return f.supplierForm(ctx)
	case StepContract:
		return f.contractForm(ctx)
	case StepPriceComponent:
		return f.priceComponentForm(ctx)
	case StepAssignAlias:
		return f.assignAliasForm(ctx)
	case StepRemoveContract:
		return f.removeContractForm(ctx)
	case StepRemoveAlias:
		return f.removeAliasForm(ctx)
	case StepTopConfig:
		return topConfigForm(), nil
	default:
		return nil, fmt.Errorf("no form for step %s", f.step)
	}
}

// handle applies validated input for the current step and returns the next
// step.
func (f *Flow) handle(ctx context.Context, input map[string]string) (Step, error) {
	switch f.step {
	case StepInit:
		return f.handleInit(input)
	case StepSelection:
		return f.handleSelection(input)
	case StepTimeSelection:
		return f.handleTimeSelection(input)
	case StepSupplier:
		f.sel.supplier = input["selected_supplier"]
		return StepContract, nil
	case StepContract:
		f.sel.contract = input["selected_contract"]
		return StepPriceComponent, nil
	case StepPriceComponent:
		return f.handlePriceComponent(ctx, input)
	case StepAssignAlias:
		return f.handleAssignAlias(ctx, input)
	case StepRemoveContract:
		return f.handleRemoveContract(ctx, input)
	case StepRemoveAlias:
		return f.handleRemoveAlias(ctx, input)
	case StepTopConfig:
		return f.handleTopConfig(ctx, input)
	default:
		return f.step, fmt.Errorf("cannot submit at step %s", f.step)
	}
}

func (f *Flow) handleInit(input map[string]string) (Step, error) {
	switch input["action"] {
	case ActionAddContract:
		return StepSelection, nil
	case ActionAssignAlias:
		return StepAssignAlias, nil
	case ActionRemoveContract:
		return StepRemoveContract, nil
	case ActionRemoveAlias:
		return StepRemoveAlias, nil
	case ActionConfigureTop:
		return StepTopConfig, nil
	default:
		return f.step, fmt.Errorf("unknown action %q", input["action"])
	}
}

// queryComponents runs a facet-filtered lookup, authenticating first on the
// flow's first query. Auth failure and query failure map to their abort
// reasons here; empty results are the caller's concern.
func (f *Flow) queryComponents(ctx context.Context, facets pricing.Facets) ([]pricing.PriceComponent, error) {
	if !f.authenticated {
		if err := f.api.Authenticate(ctx); err != nil {
			f.logger.WithError(err).Error("API authentication failed")
			return nil, &AbortError{Reason: AbortAuthFailed}
		}
		f.authenticated = true
	}

	components, err := f.api.PriceComponents(ctx, facets)
	if err != nil {
		f.logger.WithError(err).Error("Price component query failed")
		return nil, &AbortError{Reason: AbortDataError}
	}

	return components, nil
}

// distinct collects the unique non-empty values produced by pick, sorted
// for stable form rendering. Set semantics; the ordering is presentation
// only.
func distinct(components []pricing.PriceComponent, pick func(pricing.PriceComponent) string) []string {
	seen := make(map[string]bool)
	var values []string
	for _, pc := range components {
		v := pick(pc)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		values = append(values, v)
	}
	sort.Strings(values)
	return values
}
