package app

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	calchttp "github.com/clinicbooks/clinicbooks/internal/calc/http"
	"github.com/clinicbooks/clinicbooks/internal/observability"
	"github.com/clinicbooks/clinicbooks/jobs"
)

type pingerFunc func(context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

func testRouter(t *testing.T, logs io.Writer, ready map[string]Pinger) http.Handler {
	t.Helper()
	logger := slog.New(slog.NewJSONHandler(logs, nil))
	return NewRouter(RouterParams{
		Logger:      logger,
		Config:      &Config{AppRequestTimeout: 0, RateLimitPerMinute: 1000},
		CalcHandler: calchttp.NewHandler(logger, nil, nil),
		JobHandler:  jobs.NewHandler(nil, logger),
		Metrics:     observability.NewMetrics(),
		Readiness:   ready,
	})
}

func TestRouterHealthAndSecurityHeaders(t *testing.T) {
	router := testRouter(t, io.Discard, nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rr.Body.String())
	assert.Equal(t, "DENY", rr.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", rr.Header().Get("X-Content-Type-Options"))
}

func TestRouterReadiness(t *testing.T) {
	router := testRouter(t, io.Discard, map[string]Pinger{
		"postgres": pingerFunc(func(context.Context) error { return nil }),
		"redis":    pingerFunc(func(context.Context) error { return errors.New("refused") }),
	})
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	assert.JSONEq(t, `{"postgres":"up","redis":"down"}`, rr.Body.String())
}

func TestRouterMountsHandlersAndMetrics(t *testing.T) {
	logs := new(bytes.Buffer)
	router := testRouter(t, logs, nil)

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/calc/expense", strings.NewReader(`{"amount":110,"gstPercent":10}`))
	router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/jobs/health", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "clinicbooks_http_requests_total")

	line, err := logs.ReadBytes('\n')
	require.NoError(t, err)
	var entry map[string]any
	require.NoError(t, json.Unmarshal(line, &entry))
	assert.Equal(t, "http request", entry["msg"])
	assert.Equal(t, "/api/calc/expense", entry["path"])
	assert.Equal(t, float64(http.StatusOK), entry["status"])
}
