package dashboard_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/aretw0/tendril/internal/dashboard"
	"github.com/aretw0/tendril/internal/logging"
	"github.com/aretw0/tendril/pkg/adapters/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const outputKey = "vm-stats"

func newServer(t *testing.T) (*memory.Store, http.Handler) {
	t.Helper()
	store := memory.NewStore()
	srv := dashboard.NewServer(store, outputKey, logging.NewNop())
	return store, srv.Router()
}

func get(t *testing.T, router http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestAPIMetrics_NoData(t *testing.T) {
	_, router := newServer(t)

	rec := get(t, router, "/api/metrics")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp dashboard.MetricsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Available)
	assert.Equal(t, outputKey, resp.Key)
	assert.Nil(t, resp.Metrics)
}

func TestAPIMetrics_GarbagePayloadIsNoData(t *testing.T) {
	store, router := newServer(t)
	require.NoError(t, store.Set(context.Background(), outputKey, []byte(`not json`)))

	rec := get(t, router, "/api/metrics")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp dashboard.MetricsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Available)
}

func TestAPIMetrics_SummarizesPayload(t *testing.T) {
	store, router := newServer(t)
	payload := `{
		"percent-network-egress": 100.0,
		"percent-memory-cache": 71.5,
		"avg-util-cpu0-60sec": 25.45,
		"avg-util-cpu1-60sec": 25.89,
		"custom-metric": "opaque"
	}`
	require.NoError(t, store.Set(context.Background(), outputKey, []byte(payload)))

	rec := get(t, router, "/api/metrics")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp dashboard.MetricsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Available)
	require.NotNil(t, resp.Summary)
	require.NotNil(t, resp.Summary.NetworkEgressPercent)
	assert.Equal(t, 100.0, *resp.Summary.NetworkEgressPercent)
	require.NotNil(t, resp.Summary.MemoryCachePercent)
	assert.Equal(t, 71.5, *resp.Summary.MemoryCachePercent)
	require.Len(t, resp.Summary.CPUs, 2)
	assert.Equal(t, 0, resp.Summary.CPUs[0].Index)
	assert.Equal(t, 25.45, resp.Summary.CPUs[0].Percent)
	assert.Equal(t, "opaque", resp.Metrics["custom-metric"])
}

func TestIndex_RendersNoDataState(t *testing.T) {
	_, router := newServer(t)

	rec := get(t, router, "/")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "No data yet")
}

func TestIndex_RendersMetrics(t *testing.T) {
	store, router := newServer(t)
	require.NoError(t, store.Set(context.Background(), outputKey,
		[]byte(`{"avg-util-cpu3-60sec": 1.12}`)))

	rec := get(t, router, "/")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "CPU 3")
	assert.Contains(t, body, "avg-util-cpu3-60sec")
}

func TestHealthz(t *testing.T) {
	_, router := newServer(t)

	rec := get(t, router, "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestPrometheusExposition(t *testing.T) {
	_, router := newServer(t)

	// Generate a little traffic first.
	get(t, router, "/api/metrics")

	rec := get(t, router, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, "tendril_dashboard_requests_total"), "missing request counter")
	assert.True(t, strings.Contains(body, "tendril_dashboard_data_present"), "missing data gauge")
}
