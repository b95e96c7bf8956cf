package http

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apierrors "ecomlytics/internal/errors"
	"ecomlytics/internal/services"
	"ecomlytics/pkg/contracts/domain"
)

type stubService struct {
	lastRequest services.Request
	result      *services.Result
	analyzeErr  error
	reloadErr   error
	version     string
}

func (s *stubService) Analyze(ctx context.Context, req services.Request) (*services.Result, error) {
	s.lastRequest = req
	if s.analyzeErr != nil {
		return nil, s.analyzeErr
	}
	return s.result, nil
}

func (s *stubService) Reload(ctx context.Context) (string, error) {
	if s.reloadErr != nil {
		return "", s.reloadErr
	}
	return s.version, nil
}

func (s *stubService) DataVersion() string { return s.version }

type stubReports struct {
	written int
	err     error
}

func (s *stubReports) WriteAll(res *services.Result) error {
	if s.err != nil {
		return s.err
	}
	s.written++
	return nil
}

func newTestHandler(svc *stubService, reports *stubReports) *AnalysisHandler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewAnalysisHandler(svc, reports, logger, apierrors.NewErrorHandler(logger, false))
}

func stubResult() *services.Result {
	window := domain.Window{
		Start: time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2023, 7, 1, 0, 0, 0, 0, time.UTC).Add(-time.Nanosecond),
	}
	return &services.Result{
		GeneratedAt: time.Now().UTC(),
		DataVersion: "v-test",
		Window:      window,
		Metrics:     domain.NewMetricSet(window),
	}
}

// analysisBody builds a complete request body and applies overrides on top.
// An override of nil removes the key, so tests can drop a required field.
func analysisBody(t *testing.T, overrides map[string]any) string {
	t.Helper()
	body := map[string]any{
		"year":             2023,
		"month":            6,
		"top_n":            10,
		"delivery_buckets": []float64{3, 7},
		"promoters":        map[string]int{"min": 4, "max": 5},
		"detractors":       map[string]int{"min": 1, "max": 2},
		"health": map[string]any{
			"weights": map[string]float64{"average_review_score": 0.5, "nps_estimate": 0.5},
			"bounds": map[string]any{
				"average_review_score": map[string]float64{"min": 1, "max": 5},
				"nps_estimate":         map[string]float64{"min": -100, "max": 100},
			},
		},
	}
	for key, value := range overrides {
		if value == nil {
			delete(body, key)
			continue
		}
		body[key] = value
	}
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	return string(raw)
}

func postJSON(t *testing.T, handler http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestRunAnalysis(t *testing.T) {
	svc := &stubService{result: stubResult(), version: "v-test"}
	handler := newTestHandler(svc, &stubReports{})

	rec := postJSON(t, handler.Routes(), "/analysis", analysisBody(t, map[string]any{
		"with_compare": true,
		"granularity":  "week",
		"top_n":        5,
	}))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.True(t, svc.lastRequest.WithCompare)
	assert.Equal(t, 5, int(svc.lastRequest.TopN))
	assert.Equal(t, []float64{3, 7}, svc.lastRequest.Buckets.Boundaries)
	require.NotNil(t, svc.lastRequest.Health)
	require.NoError(t, svc.lastRequest.Window.Validate())

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "v-test", body["data_version"])
}

func TestRunAnalysis_DateRange(t *testing.T) {
	svc := &stubService{result: stubResult()}
	handler := newTestHandler(svc, &stubReports{})

	rec := postJSON(t, handler.Routes(), "/analysis", analysisBody(t, map[string]any{
		"year":  nil,
		"month": nil,
		"start": "2023-06-01",
		"end":   "2023-06-30",
	}))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	window, err := svc.lastRequest.Window.Normalize()
	require.NoError(t, err)
	assert.Equal(t, time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC), window.Start)
	// the whole end day is included
	assert.True(t, window.Contains(time.Date(2023, 6, 30, 23, 0, 0, 0, time.UTC)))
}

func TestRunAnalysis_BadRequests(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		overrides map[string]any
	}{
		{name: "not json", body: `{"year":`},
		{name: "no window", overrides: map[string]any{"year": nil, "month": nil}},
		{name: "bad month", overrides: map[string]any{"month": 13}},
		{name: "bad granularity", overrides: map[string]any{"granularity": "quarter"}},
		{name: "bad date format", overrides: map[string]any{
			"year": nil, "month": nil, "start": "06/01/2023", "end": "06/30/2023",
		}},
		{name: "missing top n", overrides: map[string]any{"top_n": nil}},
		{name: "missing delivery buckets", overrides: map[string]any{"delivery_buckets": nil}},
		{name: "missing promoters", overrides: map[string]any{"promoters": nil}},
		{name: "missing detractors", overrides: map[string]any{"detractors": nil}},
		{name: "missing health", overrides: map[string]any{"health": nil}},
		{name: "compare without granularity", overrides: map[string]any{"with_compare": true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := tt.body
			if body == "" {
				body = analysisBody(t, tt.overrides)
			}
			handler := newTestHandler(&stubService{result: stubResult()}, &stubReports{})
			rec := postJSON(t, handler.Routes(), "/analysis", body)

			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
			assert.Contains(t, rec.Header().Get("Content-Type"), "application/problem+json")
		})
	}
}

func TestRunAnalysis_ServiceErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"config error", apierrors.NewConfigError("bad spec", nil), http.StatusBadRequest},
		{"load error", apierrors.NewLoadError("orders missing", nil), http.StatusUnprocessableEntity},
		{"not found", apierrors.NewNotFoundError("raw dataset"), http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := newTestHandler(&stubService{analyzeErr: tt.err}, &stubReports{})
			rec := postJSON(t, handler.Routes(), "/analysis", analysisBody(t, nil))

			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestGenerateReports(t *testing.T) {
	reports := &stubReports{}
	handler := newTestHandler(&stubService{result: stubResult()}, reports)

	rec := postJSON(t, handler.Routes(), "/reports", analysisBody(t, nil))

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, 1, reports.written)
}

func TestGenerateReports_WriteFailure(t *testing.T) {
	reports := &stubReports{err: apierrors.NewStorageError("disk full", nil)}
	handler := newTestHandler(&stubService{result: stubResult()}, reports)

	rec := postJSON(t, handler.Routes(), "/reports", analysisBody(t, nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestReloadData(t *testing.T) {
	handler := newTestHandler(&stubService{version: "v2"}, &stubReports{})

	rec := postJSON(t, handler.Routes(), "/reload", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "v2")
}

func TestHealthHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("not ready before first load", func(t *testing.T) {
		handler := NewHealthHandler(&stubService{}, logger)
		rec := httptest.NewRecorder()
		handler.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})

	t.Run("ready with data version", func(t *testing.T) {
		handler := NewHealthHandler(&stubService{version: "v1"}, logger)
		rec := httptest.NewRecorder()
		handler.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "v1")
	})

	t.Run("liveness", func(t *testing.T) {
		handler := NewHealthHandler(&stubService{}, logger)
		rec := httptest.NewRecorder()
		handler.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}
