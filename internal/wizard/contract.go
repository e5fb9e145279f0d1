package wizard

import (
	"context"

	"github.com/wonny/sectrack/internal/pricing"
	"github.com/wonny/sectrack/internal/store"
)

// The add-contract path: facet selection, optional time selection for Vast
// contracts, then three progressively-filtered selection steps that each
// query the pricing API.

func initForm() *Form {
	return &Form{
		Step: StepInit,
		Fields: []Field{
			selectField("action", []string{
				ActionAddContract,
				ActionAssignAlias,
				ActionRemoveContract,
				ActionRemoveAlias,
				ActionConfigureTop,
			}),
		},
	}
}

func selectionForm() *Form {
	return &Form{
		Step: StepSelection,
		Fields: []Field{
			selectField("energy_type", pricing.EnergyTypes),
			selectField("vast_variabel_dynamisch", pricing.ContractTypes),
			selectField("segment", pricing.Segments),
		},
	}
}

func timeSelectionForm() *Form {
	return &Form{
		Step: StepTimeSelection,
		Fields: []Field{
			selectField("jaar", years),
			selectField("maand", pricing.MonthNames),
		},
	}
}

func (f *Flow) handleSelection(input map[string]string) (Step, error) {
	f.sel.energyType = input["energy_type"]
	f.sel.contractType = input["vast_variabel_dynamisch"]
	f.sel.segment = input["segment"]

	// Only fixed contracts are time-bound.
	if f.sel.contractType == "Vast" {
		return StepTimeSelection, nil
	}
	return StepSupplier, nil
}

func (f *Flow) handleTimeSelection(input map[string]string) (Step, error) {
	f.sel.year = input["jaar"]
	f.sel.month = input["maand"]
	return StepSupplier, nil
}

// facets returns the filter accumulated so far.
func (f *Flow) facets() pricing.Facets {
	return pricing.Facets{
		EnergyType:   f.sel.energyType,
		ContractType: f.sel.contractType,
		Segment:      f.sel.segment,
		Year:         f.sel.year,
		Month:        f.sel.month,
		Supplier:     f.sel.supplier,
		Product:      f.sel.contract,
	}
}

func (f *Flow) supplierForm(ctx context.Context) (*Form, error) {
	components, err := f.queryComponents(ctx, f.facets())
	if err != nil {
		return nil, err
	}

	suppliers := distinct(components, func(pc pricing.PriceComponent) string {
		return pc.Supplier
	})
	if len(suppliers) == 0 {
		f.logger.Warn("No suppliers found with the selected filters")
		return nil, &AbortError{Reason: AbortNoSuppliers}
	}

	return &Form{
		Step:   StepSupplier,
		Fields: []Field{selectField("selected_supplier", suppliers)},
	}, nil
}

func (f *Flow) contractForm(ctx context.Context) (*Form, error) {
	components, err := f.queryComponents(ctx, f.facets())
	if err != nil {
		return nil, err
	}

	contracts := distinct(components, func(pc pricing.PriceComponent) string {
		return pc.Product
	})
	if len(contracts) == 0 {
		f.logger.Warn("No contracts found for the selected supplier")
		return nil, &AbortError{Reason: AbortNoContracts}
	}

	return &Form{
		Step:   StepContract,
		Fields: []Field{selectField("selected_contract", contracts)},
	}, nil
}

func (f *Flow) priceComponentForm(ctx context.Context) (*Form, error) {
	components, err := f.queryComponents(ctx, f.facets())
	if err != nil {
		return nil, err
	}

	priceComponents := distinct(components, func(pc pricing.PriceComponent) string {
		return pc.Component
	})
	if len(priceComponents) == 0 {
		f.logger.Warn("No price components found for the selected contract")
		return nil, &AbortError{Reason: AbortNoPriceComponents}
	}

	return &Form{
		Step:   StepPriceComponent,
		Fields: []Field{selectField("selected_price_component", priceComponents)},
	}, nil
}

// handlePriceComponent is the terminal step of the add-contract path: the
// only point where the flow touches the store.
func (f *Flow) handlePriceComponent(ctx context.Context, input map[string]string) (Step, error) {
	err := f.store.AddContract(ctx, store.Contract{
		EntryID:        f.entryID,
		EnergyType:     f.sel.energyType,
		ContractType:   f.sel.contractType,
		Segment:        f.sel.segment,
		Supplier:       f.sel.supplier,
		ContractName:   f.sel.contract,
		PriceComponent: input["selected_price_component"],
		Month:          f.sel.month,
		Year:           f.sel.year,
	})
	if err != nil {
		return f.step, err
	}

	if err := f.reload(ctx); err != nil {
		return f.step, err
	}

	f.result = &Result{Title: "Contract Added"}
	return StepDone, nil
}
