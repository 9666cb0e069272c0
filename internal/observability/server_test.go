// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Curio Contributors

package observability

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/curioweb/curio/internal/logging"
	"github.com/curioweb/curio/pkg/errutil"
)

func newTestServer(ready ReadinessChecker) (*Server, *Metrics) {
	reg := NewRegistry()
	m := NewMetrics(reg)
	return NewServer("127.0.0.1:0", reg, ready, logging.Discard()), m
}

func get(t *testing.T, h http.Handler, path string) (int, string) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec.Code, rec.Body.String()
}

func TestServer_MetricsExposition(t *testing.T) {
	s, m := newTestServer(nil)
	m.ObserveRequest("/items", http.MethodGet, 200, 20*time.Millisecond)
	m.RecordLogin(OutcomeSuccess)
	m.RecordSignup(OutcomeRejected)
	m.SessionsReaped(3)

	code, body := get(t, s.Handler(), "/metrics")
	require.Equal(t, http.StatusOK, code)

	for _, want := range []string{
		"go_goroutines",
		"process_",
		`curio_http_requests_total{code="200",method="GET",route="/items"} 1`,
		"curio_http_request_duration_seconds_bucket",
		`curio_logins_total{outcome="success"} 1`,
		`curio_signups_total{outcome="rejected"} 1`,
		"curio_sessions_reaped_total 3",
	} {
		assert.Contains(t, body, want)
	}
}

func TestServer_Probes(t *testing.T) {
	var ready atomic.Bool
	s, _ := newTestServer(ready.Load)

	code, body := get(t, s.Handler(), "/healthz/liveness")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok\n", body)

	code, body = get(t, s.Handler(), "/healthz/readiness")
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "not ready\n", body)

	ready.Store(true)
	code, _ = get(t, s.Handler(), "/healthz/readiness")
	assert.Equal(t, http.StatusOK, code)
}

func TestServer_ReadinessWithNilChecker(t *testing.T) {
	s, _ := newTestServer(nil)
	code, _ := get(t, s.Handler(), "/healthz/readiness")
	assert.Equal(t, http.StatusOK, code)
}

func TestServer_StartServesAndStops(t *testing.T) {
	s, _ := newTestServer(nil)

	errCh, err := s.Start()
	require.NoError(t, err)
	require.NotEmpty(t, s.Addr())

	resp, err := http.Get("http://" + s.Addr() + "/healthz/liveness")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	assert.Equal(t, "ok\n", string(body))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, s.Stop(ctx))

	select {
	case serveErr, ok := <-errCh:
		assert.False(t, ok, "channel should close without an error, got %v", serveErr)
	case <-time.After(5 * time.Second):
		t.Fatal("error channel was not closed after Stop")
	}

	// A second stop is a no-op.
	require.NoError(t, s.Stop(ctx))
}

func TestServer_DoubleStartFails(t *testing.T) {
	s, _ := newTestServer(nil)
	_, err := s.Start()
	require.NoError(t, err)
	defer func() { _ = s.Stop(context.Background()) }()

	_, err = s.Start()
	errutil.AssertErrorCode(t, err, "OBSERVABILITY_ALREADY_RUNNING")
}

func TestServer_ListenFailure(t *testing.T) {
	reg := NewRegistry()
	s := NewServer("256.0.0.1:bad", reg, nil, logging.Discard())
	_, err := s.Start()
	errutil.AssertErrorCode(t, err, "OBSERVABILITY_LISTEN_FAILED")

	// The failed start left the server restartable.
	assert.False(t, s.running.Load())
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveRequest("/", "GET", 200, time.Millisecond)
		m.RecordLogin(OutcomeError)
		m.RecordSignup(OutcomeSuccess)
		m.SessionsReaped(1)
	})
}

func TestMetrics_SessionsReapedIgnoresZero(t *testing.T) {
	m := NewMetrics(NewRegistry())
	m.SessionsReaped(0)
	m.SessionsReaped(-2)
	m.SessionsReaped(4)
	assert.InDelta(t, 4.0, testutil.ToFloat64(m.SessionsReapedTotal), 0)
}
