package sensor

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/sectrack/internal/entity"
	"github.com/wonny/sectrack/internal/pricing"
	"github.com/wonny/sectrack/internal/store"
	"github.com/wonny/sectrack/pkg/logger"
)

type fakeAPI struct {
	mu         sync.Mutex
	components []pricing.PriceComponent
	err        error
	constants  map[string]any
}

func (f *fakeAPI) Authenticate(ctx context.Context) error { return nil }

func (f *fakeAPI) PriceComponents(ctx context.Context, facets pricing.Facets) ([]pricing.PriceComponent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.components, f.err
}

func (f *fakeAPI) Constants(ctx context.Context, zip string) (map[string]any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.constants == nil {
		return map[string]any{"postcode": zip}, nil
	}
	return f.constants, nil
}

func (f *fakeAPI) set(components []pricing.PriceComponent, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.components = components
	f.err = err
}

func testLogger() *logger.Logger {
	return logger.NewWriter(io.Discard, "error")
}

func at(hour, minute int) time.Time {
	return time.Date(2025, time.March, 5, hour, minute, 0, 0, time.Local)
}

func TestUpdateInterval(t *testing.T) {
	tests := []struct {
		name string
		now  time.Time
		want time.Duration
	}{
		{"midday window start", at(12, 0), 10 * time.Minute},
		{"midday window end", at(13, 59), 10 * time.Minute},
		{"morning aligns to hour", at(11, 15), 45 * time.Minute},
		{"afternoon aligns to hour", at(14, 10), 50 * time.Minute},
		{"on the hour waits a full hour", at(10, 0), time.Hour},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, UpdateInterval(tt.now))
		})
	}
}

func TestContractSensor_EntityID(t *testing.T) {
	c := store.Contract{
		Supplier: "Engie -- Flex+ @Home", ContractName: "Basic",
		EnergyType: "Gas", ContractType: "Dynamisch",
		PriceComponent: "Energiekost", Segment: "Woning",
	}

	s := NewContractSensor(c, &fakeAPI{}, entity.NewRegistry(), testLogger(), "2000")
	assert.Equal(t,
		"sensor.sec_engie_flex_plus_ahome_basic_gas_dynamisch_energiekost_woning",
		s.EntityID())
	assert.Equal(t, "SEC: Engie -- Flex+ @Home, Basic, Energiekost, Gas, Dynamisch", s.Name())

	c.Month, c.Year = "January", "2024"
	s = NewContractSensor(c, &fakeAPI{}, entity.NewRegistry(), testLogger(), "2000")
	assert.Equal(t,
		"sensor.sec_engie_flex_plus_ahome_basic_gas_dynamisch_energiekost_woning_january_2024",
		s.EntityID())
}

func TestContractSensor_RefreshKeepsStateOnFailure(t *testing.T) {
	api := &fakeAPI{}
	api.set([]pricing.PriceComponent{{
		Supplier: "Engie", Product: "Flex",
		Raw: map[string]any{"prijs": 0.12},
	}}, nil)

	reg := entity.NewRegistry()
	c := store.Contract{
		Supplier: "Engie", ContractName: "Flex", EnergyType: "Gas",
		ContractType: "Dynamisch", PriceComponent: "Energiekost", Segment: "Woning",
	}
	s := NewContractSensor(c, api, reg, testLogger(), "2000")

	ctx := context.Background()
	s.refresh(ctx)

	st, ok := reg.Get(s.EntityID())
	require.True(t, ok)
	assert.Equal(t, "Engie: Flex", st.Value)
	assert.Equal(t, 0.12, st.Attributes["prijs"])
	assert.Equal(t, "mdi:currency-eur", st.Attributes["icon"])

	// A failed poll and an empty poll both leave the last state in place.
	api.set(nil, errors.New("boom"))
	s.refresh(ctx)
	api.set(nil, nil)
	s.refresh(ctx)

	st, ok = reg.Get(s.EntityID())
	require.True(t, ok)
	assert.Equal(t, "Engie: Flex", st.Value)
	assert.Equal(t, 0.12, st.Attributes["prijs"])
}

func TestAliasSensor_FullMirrorsSource(t *testing.T) {
	reg := entity.NewRegistry()
	reg.Set("sensor.sec_src", "Engie: Flex", map[string]any{"prijs": 0.12})

	s := NewAliasSensor("sec_dagprijs", "sensor.sec_src", KindFull, reg)
	s.Start(context.Background())
	defer s.Stop()

	assert.Equal(t, "sensor.sec_dagprijs", s.EntityID())

	st, ok := reg.Get("sensor.sec_dagprijs")
	require.True(t, ok, "initial snapshot published on start")
	assert.Equal(t, "Engie: Flex", st.Value)
	assert.Equal(t, 0.12, st.Attributes["prijs"])

	// Follows subsequent source updates.
	reg.Set("sensor.sec_src", "Engie: Flex v2", nil)
	st, _ = reg.Get("sensor.sec_dagprijs")
	assert.Equal(t, "Engie: Flex v2", st.Value)

	// And stops following after Stop.
	s.Stop()
	reg.Set("sensor.sec_src", "Engie: Flex v3", nil)
	st, _ = reg.Get("sensor.sec_dagprijs")
	assert.Equal(t, "Engie: Flex v2", st.Value)
}

func TestAliasSensor_PriceExtraction(t *testing.T) {
	tests := []struct {
		name       string
		kind       Kind
		attributes map[string]any
		wantID     string
		wantState  string
	}{
		{
			name: "draw price",
			kind: KindDraw,
			attributes: map[string]any{
				"prices_afname": map[string]any{"current_price": 0.123},
			},
			wantID:    "sensor.sec_dagprijs_afname",
			wantState: "0.123",
		},
		{
			name: "feed-in price",
			kind: KindFeedIn,
			attributes: map[string]any{
				"prices_injectie": map[string]any{"current_price": 0.045},
			},
			wantID:    "sensor.sec_dagprijs_injectie",
			wantState: "0.045",
		},
		{
			name:       "missing price map defaults to zero",
			kind:       KindDraw,
			attributes: map[string]any{},
			wantID:     "sensor.sec_dagprijs_afname",
			wantState:  "0",
		},
		{
			name: "missing current price defaults to zero",
			kind: KindFeedIn,
			attributes: map[string]any{
				"prices_injectie": map[string]any{},
			},
			wantID:    "sensor.sec_dagprijs_injectie",
			wantState: "0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := entity.NewRegistry()
			reg.Set("sensor.sec_src", "x", tt.attributes)

			s := NewAliasSensor("sec_dagprijs", "sensor.sec_src", tt.kind, reg)
			s.Start(context.Background())
			defer s.Stop()

			require.Equal(t, tt.wantID, s.EntityID())
			st, ok := reg.Get(tt.wantID)
			require.True(t, ok)
			assert.Equal(t, tt.wantState, st.Value)
			assert.Equal(t, "€/kWh", st.Attributes["unit_of_measurement"])
			assert.Equal(t, "monetary", st.Attributes["device_class"])
		})
	}
}

func TestConstantSensor_PublishesConstants(t *testing.T) {
	api := &fakeAPI{constants: map[string]any{"postcode": "2000", "nettarief": 0.05}}
	reg := entity.NewRegistry()

	s := NewConstantSensor(api, reg, testLogger(), "2000")
	s.Start(context.Background())
	defer s.Stop()

	st, ok := reg.Get(ConstantEntityID)
	require.True(t, ok)
	assert.Equal(t, "2000", st.Value)
	assert.Equal(t, 0.05, st.Attributes["nettarief"])
}

func TestMaterializer_Reload(t *testing.T) {
	st, err := store.New(filepath.Join(t.TempDir(), "sec.db"))
	require.NoError(t, err)
	defer st.Close()

	ctx := context.Background()
	c := store.Contract{
		EntryID: "entry-a", EnergyType: "Gas", ContractType: "Dynamisch",
		Segment: "Woning", Supplier: "Engie", ContractName: "Flex",
		PriceComponent: "Energiekost",
	}
	require.NoError(t, st.AddContract(ctx, c))

	wantID := "sensor.sec_engie_flex_gas_dynamisch_energiekost_woning"
	require.NoError(t, st.UpsertAlias(ctx, "entry-a", wantID, "sec_dagprijs"))

	api := &fakeAPI{}
	api.set([]pricing.PriceComponent{{Supplier: "Engie", Product: "Flex"}}, nil)
	reg := entity.NewRegistry()

	m := NewMaterializer(st, api, reg, testLogger(), "entry-a", "2000")
	require.NoError(t, m.Reload(ctx))
	defer m.Stop()

	// Contract sensor id is written back before the sensor starts.
	contracts, err := st.Contracts(ctx, "entry-a")
	require.NoError(t, err)
	require.Len(t, contracts, 1)
	assert.Equal(t, wantID, contracts[0].SensorID)

	// 1 contract + 3 alias variants + constants.
	assert.Len(t, m.ActiveIDs(), 5)
	assert.Contains(t, m.ActiveIDs(), "sensor.sec_dagprijs")
	assert.Contains(t, m.ActiveIDs(), "sensor.sec_dagprijs_afname")
	assert.Contains(t, m.ActiveIDs(), "sensor.sec_dagprijs_injectie")
	assert.Contains(t, m.ActiveIDs(), ConstantEntityID)

	// The contract sensor's first poll lands asynchronously.
	require.Eventually(t, func() bool {
		state, ok := reg.Get(wantID)
		return ok && state.Value == "Engie: Flex"
	}, 2*time.Second, 10*time.Millisecond)

	// Reload is idempotent: same sensor set, no duplicates.
	require.NoError(t, m.Reload(ctx))
	assert.Len(t, m.ActiveIDs(), 5)

	m.Stop()
	assert.Empty(t, m.ActiveIDs())
	_, ok := reg.Get(wantID)
	assert.False(t, ok, "registry entries cleared on stop")
}

func TestMaterializer_ReloadSkipsCollidingContractIDs(t *testing.T) {
	st, err := store.New(filepath.Join(t.TempDir(), "sec.db"))
	require.NoError(t, err)
	defer st.Close()

	ctx := context.Background()
	base := store.Contract{
		EntryID: "entry-a", EnergyType: "Gas", ContractType: "Dynamisch",
		Segment: "Woning", Supplier: "Engie", PriceComponent: "Energiekost",
	}
	first, second := base, base
	first.ContractName = "Flex"
	second.ContractName = "Flex!"
	require.NoError(t, st.AddContract(ctx, first))
	require.NoError(t, st.AddContract(ctx, second))

	api := &fakeAPI{}
	api.set([]pricing.PriceComponent{{Supplier: "Engie", Product: "Flex"}}, nil)
	reg := entity.NewRegistry()

	m := NewMaterializer(st, api, reg, testLogger(), "entry-a", "2000")
	require.NoError(t, m.Reload(ctx))
	defer m.Stop()

	// Both names normalize to the same entity id; only one sensor runs.
	wantID := "sensor.sec_engie_flex_gas_dynamisch_energiekost_woning"
	assert.Len(t, m.ActiveIDs(), 2)
	assert.Contains(t, m.ActiveIDs(), wantID)
	assert.Contains(t, m.ActiveIDs(), ConstantEntityID)

	// Only the first row is bound to the sensor id.
	contracts, err := st.Contracts(ctx, "entry-a")
	require.NoError(t, err)
	require.Len(t, contracts, 2)
	assert.Equal(t, wantID, contracts[0].SensorID)
	assert.Empty(t, contracts[1].SensorID)

	m.Stop()
	assert.Empty(t, m.ActiveIDs())
	_, ok := reg.Get(wantID)
	assert.False(t, ok, "the surviving sensor is stopped and cleared")
}
