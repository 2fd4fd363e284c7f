package server

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mfs-exporter/pkg/config"
	"github.com/mfs-exporter/pkg/metrics"
)

func newTestServer(t *testing.T) (*Server, *metrics.Store) {
	t.Helper()
	store := metrics.NewStore()
	cfg := config.NewDefaultConfig().Server
	cfg.Host = "127.0.0.1"
	cfg.Port = 0
	return NewHTTPServer(cfg, metrics.NewRegistry(store, false), store), store
}

func publish(t *testing.T, store *metrics.Store, samples ...metrics.Sample) {
	t.Helper()
	snap, err := metrics.NewSnapshot(samples, time.Now())
	require.NoError(t, err)
	store.Replace(snap)
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestMetricsBeforeFirstSnapshot(t *testing.T) {
	s, _ := newTestServer(t)

	rec := get(t, s.Handler(), "/metrics")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "no successful MooseFS collection")
}

func TestMetricsServesSnapshot(t *testing.T) {
	s, store := newTestServer(t)
	publish(t, store,
		metrics.NewGauge("moosefs_chunks", "Number of chunks.", 5000),
		metrics.NewGauge("moosefs_chunkserver_chunks", "Number of chunks per chunkserver.", 100, "ip", "10.0.0.1", "server_id", "1"),
		metrics.NewGauge("moosefs_chunkserver_chunks", "Number of chunks per chunkserver.", 200, "ip", "10.0.0.2", "server_id", "2"),
	)

	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	exp := `
# HELP moosefs_chunks Number of chunks.
# TYPE moosefs_chunks gauge
moosefs_chunks 5000
# HELP moosefs_chunkserver_chunks Number of chunks per chunkserver.
# TYPE moosefs_chunkserver_chunks gauge
moosefs_chunkserver_chunks{ip="10.0.0.1",server_id="1"} 100
moosefs_chunkserver_chunks{ip="10.0.0.2",server_id="2"} 200
`
	require.NoError(t, testutil.ScrapeAndCompare(ts.URL+"/metrics", strings.NewReader(exp),
		"moosefs_chunks", "moosefs_chunkserver_chunks"))
}

func TestMetricsStaleSnapshotStillServed(t *testing.T) {
	s, store := newTestServer(t)
	snap, err := metrics.NewSnapshot([]metrics.Sample{metrics.NewGauge("moosefs_files", "files", 1)}, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	store.Replace(snap)

	rec := get(t, s.Handler(), "/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "moosefs_files 1")
}

func TestHealthAndIndex(t *testing.T) {
	s, _ := newTestServer(t)

	rec := get(t, s.Handler(), "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())

	rec = get(t, s.Handler(), "/")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), `href="/metrics"`)
	assert.Contains(t, rec.Body.String(), "never")

	assert.Equal(t, http.StatusNotFound, get(t, s.Handler(), "/nope").Code)
}

func TestStartAndShutdown(t *testing.T) {
	s, store := newTestServer(t)
	publish(t, store, metrics.NewGauge("moosefs_files", "files", 3))

	require.NoError(t, s.Start())
	assert.ElementsMatch(t, []string{"/", "/metrics", "/health"}, s.mux.Routes())

	resp, err := http.Get("http://" + s.Addr() + "/metrics")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, resp.Body.Close())
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "moosefs_files 3")

	require.NoError(t, s.Shutdown())
	_, err = http.Get("http://" + s.Addr() + "/health")
	assert.Error(t, err)
}

func TestStartBindError(t *testing.T) {
	first, _ := newTestServer(t)
	require.NoError(t, first.Start())
	defer func() { _ = first.Shutdown() }()

	cfg := config.NewDefaultConfig().Server
	store := metrics.NewStore()
	second := NewHTTPServer(cfg, metrics.NewRegistry(store, false), store)
	second.server.Addr = first.Addr()
	assert.Error(t, second.Start())
}
