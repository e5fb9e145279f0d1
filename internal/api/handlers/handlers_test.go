package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/sectrack/internal/entity"
	"github.com/wonny/sectrack/internal/importer"
	"github.com/wonny/sectrack/internal/jobs"
	"github.com/wonny/sectrack/internal/pricing"
	"github.com/wonny/sectrack/internal/store"
	"github.com/wonny/sectrack/internal/wizard"
	"github.com/wonny/sectrack/pkg/logger"
)

type fakeAPI struct {
	components []pricing.PriceComponent
	err        error
	authErr    error
}

func (f *fakeAPI) Authenticate(ctx context.Context) error { return f.authErr }

func (f *fakeAPI) PriceComponents(ctx context.Context, facets pricing.Facets) ([]pricing.PriceComponent, error) {
	return f.components, f.err
}

func (f *fakeAPI) Constants(ctx context.Context, zip string) (map[string]any, error) {
	return nil, nil
}

func testLogger() *logger.Logger {
	return logger.NewWriter(io.Discard, "error")
}

func newStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.New(filepath.Join(t.TempDir(), "sec.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func postJSON(t *testing.T, handler http.HandlerFunc, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	buf, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, target, bytes.NewReader(buf))
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func TestServiceHandler_GenerateContracts(t *testing.T) {
	st := newStore(t)
	var reloads int
	imp := importer.New(st, testLogger(), "entry-a")
	h := NewServiceHandler(st, imp, nil, func(ctx context.Context) error {
		reloads++
		return nil
	}, testLogger(), "entry-a")

	rec := postJSON(t, h.GenerateContracts, "/api/services/generate_contracts", importer.Payload{
		Contracts: []importer.Entry{
			{ID: "Engie-_-Flex--Home-_-Dynamisch-_-Energiekost-_-Elektriciteit-_-Woning", Alias: "dagprijs"},
			{ID: "Engie-_-Fix-_-Vast-_-Energiekost-_-Gas-_-Woning-_-March-_-2024", Alias: "vastprijs"},
			{ID: "too-_-few-_-fields"},
		},
	})

	require.Equal(t, http.StatusOK, rec.Code)
	var resp GenerateContractsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Imported)
	assert.Equal(t, 1, resp.Skipped)
	assert.Equal(t, 1, reloads)

	ctx := context.Background()
	contracts, err := st.Contracts(ctx, "entry-a")
	require.NoError(t, err)
	require.Len(t, contracts, 2)

	// `--` unpacks to a space inside a field.
	assert.Equal(t, "Flex Home", contracts[0].ContractName)
	assert.Equal(t, "Elektriciteit", contracts[0].EnergyType)
	assert.Equal(t, "Dynamisch", contracts[0].ContractType)
	assert.Empty(t, contracts[0].Month)
	assert.Equal(t, "March", contracts[1].Month)
	assert.Equal(t, "2024", contracts[1].Year)

	aliases, err := st.Aliases(ctx, "entry-a")
	require.NoError(t, err)
	require.Len(t, aliases, 2)
	assert.Equal(t, "dagprijs", aliases[0].Name)
	assert.Equal(t,
		"sensor.sec_engie_flex_home_elektriciteit_dynamisch_energiekost_woning",
		aliases[0].OriginalSensorID)
}

func TestServiceHandler_GenerateContractsBadBody(t *testing.T) {
	st := newStore(t)
	h := NewServiceHandler(st, importer.New(st, testLogger(), "entry-a"), nil,
		func(ctx context.Context) error { return nil }, testLogger(), "entry-a")

	req := httptest.NewRequest(http.MethodPost, "/api/services/generate_contracts", bytes.NewBufferString("{"))
	rec := httptest.NewRecorder()
	h.GenerateContracts(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServiceHandler_BestContracts(t *testing.T) {
	st := newStore(t)
	api := &fakeAPI{components: []pricing.PriceComponent{
		{Supplier: "Cheap", Product: "P", Component: "Energiekost",
			EnergyType: "Gas", ContractType: "Dynamisch", Segment: "Woning"},
	}}
	best := jobs.NewBestContractsJob(st, api, testLogger(), "entry-a", "2000")
	h := NewServiceHandler(st, importer.New(st, testLogger(), "entry-a"), best,
		func(ctx context.Context) error { return nil }, testLogger(), "entry-a")

	rec := postJSON(t, h.BestContracts, "/api/services/best_contracts", BestContractsRequest{
		EnergyType: "Gas", Limit: 1,
	})

	require.Equal(t, http.StatusOK, rec.Code)
	var top []store.TopContract
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &top))
	require.Len(t, top, 1)
	assert.Equal(t, 1, top[0].Rank)
	assert.Equal(t, "Cheap", top[0].Supplier)
}

func TestServiceHandler_BestContractsUpstreamFailure(t *testing.T) {
	st := newStore(t)
	api := &fakeAPI{err: errors.New("boom")}
	best := jobs.NewBestContractsJob(st, api, testLogger(), "entry-a", "2000")
	h := NewServiceHandler(st, importer.New(st, testLogger(), "entry-a"), best,
		func(ctx context.Context) error { return nil }, testLogger(), "entry-a")

	rec := postJSON(t, h.BestContracts, "/api/services/best_contracts", BestContractsRequest{Limit: 1})
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func flowRouter(t *testing.T, api pricing.API) (*mux.Router, *store.Store) {
	t.Helper()
	st := newStore(t)
	manager := wizard.NewManager(time.Minute)
	h := NewFlowHandler(manager, func() *wizard.Flow {
		return wizard.New(st, api, testLogger(), "entry-a", func(ctx context.Context) error { return nil })
	}, testLogger())

	r := mux.NewRouter()
	r.HandleFunc("/api/flows", h.Create).Methods("POST")
	r.HandleFunc("/api/flows/{id}", h.Get).Methods("GET")
	r.HandleFunc("/api/flows/{id}/input", h.Submit).Methods("POST")
	return r, st
}

func serveJSON(t *testing.T, r http.Handler, method, target string, body any) (*httptest.ResponseRecorder, FlowResponse) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(buf)
	}

	req := httptest.NewRequest(method, target, reader)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	var resp FlowResponse
	if rec.Code < 400 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	}
	return rec, resp
}

func TestFlowHandler_Stepping(t *testing.T) {
	api := &fakeAPI{components: []pricing.PriceComponent{
		{Supplier: "Engie", Product: "Flex", Component: "Energiekost"},
	}}
	r, st := flowRouter(t, api)

	rec, resp := serveJSON(t, r, http.MethodPost, "/api/flows", nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	require.NotEmpty(t, resp.FlowID)
	require.NotNil(t, resp.Form)
	assert.Equal(t, wizard.StepInit, resp.Form.Step)

	flowURL := "/api/flows/" + resp.FlowID

	rec, resp = serveJSON(t, r, http.MethodGet, flowURL, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, wizard.StepInit, resp.Form.Step)

	rec, resp = serveJSON(t, r, http.MethodPost, flowURL+"/input",
		map[string]string{"action": wizard.ActionAddContract})
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, resp.Form)
	assert.Equal(t, wizard.StepSelection, resp.Form.Step)

	// Invalid choices are a client error and leave the flow in place.
	rec, _ = serveJSON(t, r, http.MethodPost, flowURL+"/input",
		map[string]string{"energy_type": "Plutonium", "vast_variabel_dynamisch": "Dynamisch", "segment": "Woning"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, resp = serveJSON(t, r, http.MethodPost, flowURL+"/input",
		map[string]string{"energy_type": "Gas", "vast_variabel_dynamisch": "Dynamisch", "segment": "Woning"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, wizard.StepSupplier, resp.Form.Step)

	serveJSON(t, r, http.MethodPost, flowURL+"/input", map[string]string{"selected_supplier": "Engie"})
	serveJSON(t, r, http.MethodPost, flowURL+"/input", map[string]string{"selected_contract": "Flex"})
	rec, resp = serveJSON(t, r, http.MethodPost, flowURL+"/input",
		map[string]string{"selected_price_component": "Energiekost"})
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, resp.Result)
	assert.Equal(t, "Contract Added", resp.Result.Title)

	contracts, err := st.Contracts(context.Background(), "entry-a")
	require.NoError(t, err)
	assert.Len(t, contracts, 1)

	// Finished flows are dropped from the manager.
	rec, _ = serveJSON(t, r, http.MethodGet, flowURL, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestFlowHandler_AbortReasonSurfaced(t *testing.T) {
	api := &fakeAPI{authErr: errors.New("401")}
	r, _ := flowRouter(t, api)

	_, resp := serveJSON(t, r, http.MethodPost, "/api/flows", nil)
	flowURL := "/api/flows/" + resp.FlowID

	serveJSON(t, r, http.MethodPost, flowURL+"/input",
		map[string]string{"action": wizard.ActionAddContract})
	rec, resp := serveJSON(t, r, http.MethodPost, flowURL+"/input",
		map[string]string{"energy_type": "Gas", "vast_variabel_dynamisch": "Dynamisch", "segment": "Woning"})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "api_auth_failed", resp.AbortReason)
	assert.Nil(t, resp.Form)
}

func TestFlowHandler_UnknownFlow(t *testing.T) {
	r, _ := flowRouter(t, &fakeAPI{})

	rec, _ := serveJSON(t, r, http.MethodGet, "/api/flows/nope", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStateHandler_Entities(t *testing.T) {
	reg := entity.NewRegistry()
	reg.Set("sensor.sec_a", "1", map[string]any{"prijs": 0.1})
	h := NewStateHandler(newStore(t), reg, testLogger(), "entry-a")

	r := mux.NewRouter()
	r.HandleFunc("/api/entities", h.GetEntities).Methods("GET")
	r.HandleFunc("/api/entities/{id}", h.GetEntity).Methods("GET")

	req := httptest.NewRequest(http.MethodGet, "/api/entities", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var entities []EntityResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entities))
	require.Len(t, entities, 1)
	assert.Equal(t, "sensor.sec_a", entities[0].EntityID)
	assert.Equal(t, "1", entities[0].Value)

	req = httptest.NewRequest(http.MethodGet, "/api/entities/sensor.sec_missing", nil)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStreamHandler_ForwardsStateChanges(t *testing.T) {
	reg := entity.NewRegistry()
	h := NewStreamHandler(reg.Bus(), testLogger())

	srv := httptest.NewServer(http.HandlerFunc(h.Stream))
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+srv.URL[len("http"):], nil)
	require.NoError(t, err)
	defer conn.Close()

	// Give the server a moment to register the subscription.
	require.Eventually(t, func() bool {
		reg.Set("sensor.sec_a", "Engie: Flex", nil)

		conn.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
		var ev entity.Event
		if err := conn.ReadJSON(&ev); err != nil {
			return false
		}
		return ev.EntityID == "sensor.sec_a" && ev.New.Value == "Engie: Flex"
	}, 2*time.Second, 50*time.Millisecond)
}
