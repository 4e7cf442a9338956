package api

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/compose-network/spi-annotator/server/api/middleware"
)

type fixedSource struct{ lines, replies uint64 }

func (f fixedSource) Processed() uint64 { return f.lines }
func (f fixedSource) Replies() uint64   { return f.replies }

func newTestServer(t *testing.T) *Server {
	t.Helper()

	log := zerolog.New(io.Discard)
	reg := prometheus.NewRegistry()
	c := prometheus.NewCounter(prometheus.CounterOpts{Name: "annotator_test_total", Help: "test"})
	reg.MustRegister(c)
	c.Add(3)

	s := NewServer(DefaultConfig(), log)
	s.Use(middleware.Recover(log))
	s.Use(middleware.RequestID())
	s.Use(middleware.Logger(log))
	RegisterMonitoring(s, Identity{
		SessionID: "session",
		Analyzer:  "sc16is7xx",
		Layout:    "enrichable",
		Started:   time.Now(),
	}, fixedSource{lines: 7, replies: 5}, reg)
	return s
}

func TestHealthz(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(newTestServer(t).Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get(middleware.RequestIDHeader))

	var st Status
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&st))
	assert.Equal(t, "ok", st.Status)
	assert.Equal(t, "enrichable", st.Layout)
	assert.Equal(t, "sc16is7xx", st.Analyzer)
	assert.Equal(t, uint64(7), st.Lines)
	assert.Equal(t, uint64(5), st.Replies)
}

func TestMetricsEndpoint(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(newTestServer(t).Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "annotator_test_total 3")
}

func TestNotFound(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(newTestServer(t).Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/nope")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	var body map[string]map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "not_found", body["error"]["code"])
}

func TestMetricsOmittedWithoutGatherer(t *testing.T) {
	t.Parallel()

	s := NewServer(DefaultConfig(), zerolog.New(io.Discard))
	RegisterMonitoring(s, Identity{Started: time.Now()}, fixedSource{}, nil)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestEnableCompression(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)
	s.EnableCompression()

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	require.Equal(t, "gzip", rec.Header().Get("Content-Encoding"))
	zr, err := gzip.NewReader(rec.Body)
	require.NoError(t, err)
	var st Status
	require.NoError(t, json.NewDecoder(zr).Decode(&st))
	assert.Equal(t, uint64(7), st.Lines)
}

func TestStart_ShutsDownOnCancel(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.ListenAddr = "127.0.0.1:0"
	s := NewServer(cfg, zerolog.New(io.Discard))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Start(ctx) }()

	require.Eventually(t, func() bool { return s.Addr() != cfg.ListenAddr }, time.Second, 10*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
