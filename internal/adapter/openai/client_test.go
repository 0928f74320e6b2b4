package openai

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/flood-resilience-service/internal/domain"
	"github.com/couchcryptid/flood-resilience-service/internal/observability"
)

const (
	testAPIKey        = "sk-test-key"
	testScenario      = "Intermediate-High"
	contentTypeJSON   = "application/json"
	headerContentType = "Content-Type"
)

func testMetrics() *observability.Metrics {
	return observability.NewMetricsForTesting()
}

func testClient(baseURL string) *Client {
	return &Client{
		apiKey:     testAPIKey,
		baseURL:    baseURL,
		model:      DefaultModel,
		httpClient: &http.Client{Timeout: 5 * time.Second},
		backoff:    time.Millisecond,
		metrics:    testMetrics(),
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func testDesign() domain.BuildingDesign {
	return domain.BuildingDesign{
		FoundationType:     "Raised Slab",
		ElevationHeight:    4.5,
		Materials:          []string{"Standard Drywall"},
		MitigationFeatures: []string{"Flood Vents"},
	}
}

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, c.Write(&m))
	return m.GetCounter().GetValue()
}

func writeCompletion(t *testing.T, w http.ResponseWriter, content string) {
	t.Helper()
	resp := map[string]any{
		"choices": []map[string]any{{
			"message":       map[string]string{"role": "assistant", "content": content},
			"finish_reason": "stop",
		}},
	}
	w.Header().Set(headerContentType, contentTypeJSON)
	require.NoError(t, json.NewEncoder(w).Encode(resp))
}

func TestClient_Generate_Success(t *testing.T) {
	timeline := []domain.TimelineEntry{
		{Year: 2025, ProjectedFloodLevelFeet: 0.7, ResilienceScore: 55},
		{Year: 2055, ProjectedFloodLevelFeet: 3, ResilienceScore: 35, FloodDepthInches: 0},
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer "+testAPIKey, r.Header.Get("Authorization"))
		assert.Equal(t, contentTypeJSON, r.Header.Get(headerContentType))

		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, DefaultModel, req.Model)
		assert.Equal(t, 500, req.MaxTokens)
		assert.InDelta(t, 0.7, req.Temperature, 1e-9)
		require.Len(t, req.Messages, 2)
		assert.Equal(t, "system", req.Messages[0].Role)
		assert.Contains(t, req.Messages[1].Content, "Foundation Type: Raised Slab")
		assert.Contains(t, req.Messages[1].Content, "By 2055: Resilience Score: 35%")
		assert.Contains(t, req.Messages[1].Content, "'Intermediate-High' climate scenario")

		writeCompletion(t, w, "Here are my recommendations:\n- Elevate the HVAC unit\n\n* Install a sump pump\n1. Add flood vents\nThanks!")
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	recs, err := c.Generate(context.Background(), testDesign(), timeline, 2055, testScenario)
	require.NoError(t, err)

	assert.Equal(t, []string{"- Elevate the HVAC unit", "* Install a sump pump", "1. Add flood vents"}, recs)
}

func TestClient_Generate_PlainLinesWithoutBullets(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeCompletion(t, w, "Raise the home\n\nInstall backflow valves\n")
	}))
	defer srv.Close()

	recs, err := testClient(srv.URL).Generate(context.Background(), testDesign(), nil, 2055, testScenario)
	require.NoError(t, err)
	assert.Equal(t, []string{"Raise the home", "Install backflow valves"}, recs)
}

func TestClient_Generate_NoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set(headerContentType, contentTypeJSON)
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).Generate(context.Background(), testDesign(), nil, 2055, testScenario)
	require.ErrorIs(t, err, ErrNoCompletion)
}

func TestClient_Generate_APIError(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"Incorrect API key provided"}}`))
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).Generate(context.Background(), testDesign(), nil, 2055, testScenario)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
	assert.Equal(t, int32(1), calls.Load(), "client errors are not retried")
}

func TestClient_Generate_RetriesRateLimit(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		writeCompletion(t, w, "- Install a sump pump")
	}))
	defer srv.Close()

	recs, err := testClient(srv.URL).Generate(context.Background(), testDesign(), nil, 2055, testScenario)
	require.NoError(t, err)
	assert.Equal(t, []string{"- Install a sump pump"}, recs)
	assert.Equal(t, int32(2), calls.Load())
}

func TestClient_Generate_GivesUpAfterRetries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).Generate(context.Background(), testDesign(), nil, 2055, testScenario)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max retries exceeded")
	assert.Equal(t, int32(maxRetries+1), calls.Load())
}

func TestClient_Generate_ContextDeadline(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := testClient(srv.URL).Generate(ctx, testDesign(), nil, 2055, testScenario)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestClient_Generate_NoAPIKey(t *testing.T) {
	c := NewClient("", "", "", time.Second, slog.Default(), testMetrics())
	_, err := c.Generate(context.Background(), testDesign(), nil, 2055, testScenario)
	require.ErrorIs(t, err, ErrGeneratorDisabled)
}

func TestNewClient_Defaults(t *testing.T) {
	c := NewClient(testAPIKey, "", "", 3*time.Second, slog.Default(), testMetrics())
	assert.Equal(t, DefaultBaseURL, c.baseURL)
	assert.Equal(t, DefaultModel, c.model)
	assert.Equal(t, 3*time.Second, c.httpClient.Timeout)

	c = NewClient(testAPIKey, "http://localhost:8000/v1/", "local", time.Second, slog.Default(), testMetrics())
	assert.Equal(t, "http://localhost:8000/v1", c.baseURL)
	assert.Equal(t, "local", c.model)
}

func TestBuildPrompt_EmptyListsShowNA(t *testing.T) {
	prompt := buildPrompt(domain.BuildingDesign{FoundationType: "Crawlspace"}, nil, 2070, "Intermediate")
	assert.Contains(t, prompt, "Materials (relevant to flood zone): N/A")
	assert.Contains(t, prompt, "Flood Mitigation Features: N/A")
	assert.Contains(t, prompt, "through 2070")
}

func TestIsBullet(t *testing.T) {
	tests := map[string]bool{
		"- item":       true,
		"* item":       true,
		"• item":       true,
		"1. item":      true,
		"10) item":     true,
		"2055 outlook": false,
		"Item":         false,
		"1":            false,
	}
	for line, want := range tests {
		assert.Equal(t, want, isBullet(line), line)
	}
}
