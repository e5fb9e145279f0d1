package wizard

import (
	"context"
	"fmt"
	"strconv"

	"github.com/wonny/sectrack/internal/identifier"
	"github.com/wonny/sectrack/internal/pricing"
	"github.com/wonny/sectrack/internal/store"
)

// The single-step management sub-flows: alias assignment, contract and
// alias removal, and the top-contracts filter configuration.

// trackedSensorIDs lists the sensor ids of materialized contracts with
// human labels for the selection field.
func (f *Flow) trackedSensorIDs(ctx context.Context) ([]string, map[string]string, error) {
	contracts, err := f.store.Contracts(ctx, f.entryID)
	if err != nil {
		return nil, nil, err
	}

	var ids []string
	labels := make(map[string]string)
	for _, c := range contracts {
		if c.SensorID == "" {
			// Not materialized yet, nothing to point an alias at.
			continue
		}
		ids = append(ids, c.SensorID)
		labels[c.SensorID] = identifier.Label(c.SensorID)
	}

	return ids, labels, nil
}

func (f *Flow) assignAliasForm(ctx context.Context) (*Form, error) {
	ids, labels, err := f.trackedSensorIDs(ctx)
	if err != nil {
		return nil, err
	}

	sensorField := selectField("sensor_id", ids)
	sensorField.Labels = labels

	return &Form{
		Step: StepAssignAlias,
		Fields: []Field{
			sensorField,
			{Name: "custom_sensor_name", Type: FieldText, Required: true},
			{Name: "use_prefix", Type: FieldBool, Default: "true"},
			{Name: "prefix", Type: FieldText, Default: "sec_"},
		},
	}, nil
}

func (f *Flow) handleAssignAlias(ctx context.Context, input map[string]string) (Step, error) {
	name := input["custom_sensor_name"]
	if usePrefix, _ := strconv.ParseBool(input["use_prefix"]); usePrefix {
		name = input["prefix"] + name
	}

	if err := f.store.UpsertAlias(ctx, f.entryID, input["sensor_id"], name); err != nil {
		return f.step, err
	}

	if err := f.reload(ctx); err != nil {
		return f.step, err
	}

	f.result = &Result{Title: fmt.Sprintf(
		"Created sensor.%s, sensor.%s_afname, sensor.%s_injectie", name, name, name)}
	return StepDone, nil
}

func (f *Flow) removeContractForm(ctx context.Context) (*Form, error) {
	ids, labels, err := f.trackedSensorIDs(ctx)
	if err != nil {
		return nil, err
	}

	sensorField := selectField("sensor_id", ids)
	sensorField.Labels = labels

	return &Form{
		Step:   StepRemoveContract,
		Fields: []Field{sensorField},
	}, nil
}

func (f *Flow) handleRemoveContract(ctx context.Context, input map[string]string) (Step, error) {
	if err := f.store.RemoveContractBySensorID(ctx, input["sensor_id"]); err != nil {
		return f.step, err
	}

	if err := f.reload(ctx); err != nil {
		return f.step, err
	}

	f.result = &Result{Title: "Removed contract"}
	return StepDone, nil
}

func (f *Flow) removeAliasForm(ctx context.Context) (*Form, error) {
	aliases, err := f.store.Aliases(ctx, f.entryID)
	if err != nil {
		return nil, err
	}

	var names []string
	labels := make(map[string]string)
	for _, a := range aliases {
		names = append(names, a.Name)
		labels[a.Name] = identifier.Label(a.Name)
	}

	nameField := selectField("sensor_name", names)
	nameField.Labels = labels

	return &Form{
		Step:   StepRemoveAlias,
		Fields: []Field{nameField},
	}, nil
}

func (f *Flow) handleRemoveAlias(ctx context.Context, input map[string]string) (Step, error) {
	if err := f.store.RemoveAliasByName(ctx, input["sensor_name"]); err != nil {
		return f.step, err
	}

	if err := f.reload(ctx); err != nil {
		return f.step, err
	}

	f.result = &Result{Title: "Removed custom sensor"}
	return StepDone, nil
}

func topConfigForm() *Form {
	withAll := func(options []string) []string {
		return append(append([]string{}, options...), "All")
	}

	energyField := selectField("conf_top_energy_type", withAll(pricing.EnergyTypes))
	energyField.Default = "All"
	segmentField := selectField("conf_top_segment", withAll(pricing.Segments))
	segmentField.Default = "All"
	typeField := selectField("conf_top_contract_type", withAll(pricing.ContractTypes))
	typeField.Default = "All"

	return &Form{
		Step: StepTopConfig,
		Fields: []Field{
			energyField,
			segmentField,
			typeField,
			{Name: "conf_top_contracts_limit", Type: FieldInt, Default: "5"},
		},
	}
}

// handleTopConfig persists the top-contracts filter as settings. It does
// not run the best-contracts job; that is triggered separately.
func (f *Flow) handleTopConfig(ctx context.Context, input map[string]string) (Step, error) {
	settings := map[string]string{
		store.SettingTopEnergyType:   input["conf_top_energy_type"],
		store.SettingTopSegment:      input["conf_top_segment"],
		store.SettingTopContractType: input["conf_top_contract_type"],
		store.SettingTopLimit:        input["conf_top_contracts_limit"],
	}

	for key, value := range settings {
		if err := f.store.SetSetting(ctx, key, value); err != nil {
			return f.step, err
		}
	}

	if err := f.reload(ctx); err != nil {
		return f.step, err
	}

	f.result = &Result{Title: "Top Contracts Configured"}
	return StepDone, nil
}
