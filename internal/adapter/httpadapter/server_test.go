package httpadapter_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/flood-resilience-service/internal/adapter/httpadapter"
	"github.com/couchcryptid/flood-resilience-service/internal/catalog"
	"github.com/couchcryptid/flood-resilience-service/internal/domain"
)

type mockSimulator struct {
	readyErr error
	calls    int
	got      domain.BuildingDesign
}

func (m *mockSimulator) CheckReadiness(_ context.Context) error { return m.readyErr }

func (m *mockSimulator) Run(_ context.Context, design domain.BuildingDesign) domain.SimulationResult {
	m.calls++
	m.got = design
	return domain.SimulationResult{
		ID:                      "sim-1",
		BuildingDesign:          design,
		OverallResilienceScore:  42,
		AdaptiveRecommendations: []string{"Install a sump pump"},
		Timestamp:               time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
	}
}

type mockPublisher struct {
	published []domain.SimulationResult
	err       error
}

func (m *mockPublisher) Publish(_ context.Context, result domain.SimulationResult) error {
	m.published = append(m.published, result)
	return m.err
}

type staticReference struct{}

func (staticReference) Snapshot() catalog.Snapshot {
	return catalog.Snapshot{CostData: []catalog.CostItem{{Name: "Sump Pump"}}}
}

const validBody = `{
	"foundationType": "Pilings",
	"elevationHeight": 14,
	"materials": ["Stainless Steel Connectors"],
	"floodMitigationFeatures": ["Flood Vents"],
	"unknownField": true
}`

func newTestServer(sim *mockSimulator, pub httpadapter.ResultPublisher) *httpadapter.Server {
	return httpadapter.NewServer(":0", sim, staticReference{}, pub, slog.Default())
}

func postSimulation(srv http.Handler, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/simulations", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	srv.ServeHTTP(rec, req)
	return rec
}

func TestBannerReturnsWorkingFine(t *testing.T) {
	srv := newTestServer(&mockSimulator{}, nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Working Fine", rec.Body.String())
}

func TestHealthzReturns200(t *testing.T) {
	srv := newTestServer(&mockSimulator{}, nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
}

func TestReadyzReturns200WhenReady(t *testing.T) {
	srv := newTestServer(&mockSimulator{}, nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ready", body["status"])
}

func TestReadyzReturns503WhenNotReady(t *testing.T) {
	srv := newTestServer(&mockSimulator{readyErr: fmt.Errorf("reference data is not loaded")}, nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "not ready", body["status"])
	assert.Equal(t, "reference data is not loaded", body["error"])
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(&mockSimulator{}, nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestReferenceReturnsSnapshot(t *testing.T) {
	srv := newTestServer(&mockSimulator{}, nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/reference", nil))

	assert.Equal(t, http.StatusOK, rec.Code)

	var snap catalog.Snapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	require.Len(t, snap.CostData, 1)
	assert.Equal(t, "Sump Pump", snap.CostData[0].Name)
}

func TestSimulateSuccess(t *testing.T) {
	sim := &mockSimulator{}
	pub := &mockPublisher{}
	srv := newTestServer(sim, pub)

	rec := postSimulation(srv, validBody)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var result domain.SimulationResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, "sim-1", result.ID)
	assert.Equal(t, 42, result.OverallResilienceScore)

	assert.Equal(t, domain.BuildingDesign{
		FoundationType:     "Pilings",
		ElevationHeight:    14,
		Materials:          []string{"Stainless Steel Connectors"},
		MitigationFeatures: []string{"Flood Vents"},
	}, sim.got)

	require.Len(t, pub.published, 1)
	assert.Equal(t, "sim-1", pub.published[0].ID)
}

func TestSimulateZeroElevationIsValid(t *testing.T) {
	sim := &mockSimulator{}
	srv := newTestServer(sim, nil)

	rec := postSimulation(srv, `{"foundationType":"Slab","elevationHeight":0,"materials":["a"],"floodMitigationFeatures":["b"]}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, sim.calls)
	assert.Zero(t, sim.got.ElevationHeight)
}

func TestSimulatePublishFailureStillSucceeds(t *testing.T) {
	sim := &mockSimulator{}
	pub := &mockPublisher{err: errors.New("broker unavailable")}
	srv := newTestServer(sim, pub)

	rec := postSimulation(srv, validBody)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, pub.published, 1)
}

func TestSimulateValidation(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"malformed json", `{"foundationType":`, "Request body must be a JSON object."},
		{"missing foundation", `{"elevationHeight":4,"materials":["a"],"floodMitigationFeatures":["b"]}`, "Foundation type is required and must be a string."},
		{"foundation not string", `{"foundationType":7,"elevationHeight":4,"materials":["a"],"floodMitigationFeatures":["b"]}`, "Foundation type is required and must be a string."},
		{"missing elevation", `{"foundationType":"Slab","materials":["a"],"floodMitigationFeatures":["b"]}`, "Elevation height is required and must be a valid number."},
		{"elevation string", `{"foundationType":"Slab","elevationHeight":"4","materials":["a"],"floodMitigationFeatures":["b"]}`, "Elevation height is required and must be a valid number."},
		{"elevation null", `{"foundationType":"Slab","elevationHeight":null,"materials":["a"],"floodMitigationFeatures":["b"]}`, "Elevation height is required and must be a valid number."},
		{"empty materials", `{"foundationType":"Slab","elevationHeight":4,"materials":[],"floodMitigationFeatures":["b"]}`, "Materials must be an array and cannot be empty."},
		{"materials not array", `{"foundationType":"Slab","elevationHeight":4,"materials":"a","floodMitigationFeatures":["b"]}`, "Materials must be an array and cannot be empty."},
		{"missing features", `{"foundationType":"Slab","elevationHeight":4,"materials":["a"]}`, "Flood mitigation features must be an array and cannot be empty."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sim := &mockSimulator{}
			pub := &mockPublisher{}
			srv := newTestServer(sim, pub)

			rec := postSimulation(srv, tt.body)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			var body map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.want, body["message"])
			assert.Zero(t, sim.calls)
			assert.Empty(t, pub.published)
		})
	}
}

func TestSimulateRejectsWrongMethod(t *testing.T) {
	srv := newTestServer(&mockSimulator{}, nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/simulations", nil))

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestCORSHeaders(t *testing.T) {
	srv := newTestServer(&mockSimulator{}, nil)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/simulations", strings.NewReader(validBody))
	req.Header.Set("Origin", "http://localhost:3000")
	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodOptions, "/api/simulations", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
