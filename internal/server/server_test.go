package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/systmms/fnconsole/internal/catalog"
	"github.com/systmms/fnconsole/internal/metrics"
	"github.com/systmms/fnconsole/internal/resources"
	"github.com/systmms/fnconsole/pkg/recordstore"
	"github.com/systmms/fnconsole/tests/fakes"
)

type testEnv struct {
	store *fakes.FakeRecordStore
	opts  Options
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	cat, err := catalog.Default()
	require.NoError(t, err)

	reg := prometheus.NewRegistry()
	rec := metrics.NewRecorder(reg)
	store := fakes.NewFakeRecordStore().
		WithRecord("apper_function", recordstore.Record{"Id": int64(1), "Name": "resize-image", "is_active": true}).
		WithRecord("secret", recordstore.Record{"Id": int64(5), "Name": "STRIPE_KEY", "value": "sk_live_abcdef123"})

	clientOpts := resources.Options{Metrics: rec}
	return &testEnv{
		store: store,
		opts: Options{
			Catalog:   cat,
			Functions: resources.NewFunctionClient(store, "", clientOpts),
			Secrets:   resources.NewSecretClient(store, "", clientOpts),
			Gatherer:  reg,
		},
	}
}

func (env *testEnv) get(t *testing.T, path string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	New(env.opts).ServeHTTP(rec, req)

	var body map[string]any
	if rec.Header().Get("Content-Type") == "application/json" || json.Valid(rec.Body.Bytes()) {
		_ = json.Unmarshal(rec.Body.Bytes(), &body)
	}
	return rec, body
}

func TestHealth(t *testing.T) {
	t.Parallel()

	rec, body := newTestEnv(t).get(t, "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", body["status"])
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))
}

func TestDocsRoutes(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)

	tests := []struct {
		name     string
		path     string
		wantCode int
		check    func(t *testing.T, body map[string]any)
	}{
		{
			name:     "index",
			path:     "/api/docs",
			wantCode: http.StatusOK,
			check: func(t *testing.T, body map[string]any) {
				data := body["data"].(map[string]any)
				assert.Equal(t, []any{"functions", "secrets"}, data["categories"])
				assert.Len(t, data["topics"], 3)
			},
		},
		{
			name:     "category",
			path:     "/api/docs/secrets",
			wantCode: http.StatusOK,
			check: func(t *testing.T, body map[string]any) {
				assert.Len(t, body["data"], 5)
			},
		},
		{
			name:     "unknown_category",
			path:     "/api/docs/webhooks",
			wantCode: http.StatusNotFound,
			check: func(t *testing.T, body map[string]any) {
				assert.Equal(t, []any{"Unknown category"}, body["messages"])
			},
		},
		{
			name:     "search",
			path:     "/api/docs/search?q=DELETE",
			wantCode: http.StatusOK,
			check: func(t *testing.T, body map[string]any) {
				assert.Len(t, body["data"], 2)
			},
		},
		{
			name:     "endpoint_with_highlighting",
			path:     "/api/docs/endpoints/list-functions",
			wantCode: http.StatusOK,
			check: func(t *testing.T, body map[string]any) {
				data := body["data"].(map[string]any)
				assert.Equal(t, "GET", data["method"])
				examples := data["highlightedExamples"].(map[string]any)
				assert.Contains(t, examples["curl"], `<span class="token function">curl</span>`)
				responses := data["highlightedResponses"].(map[string]any)
				assert.Contains(t, responses["success"], `<span class="token property">`)
			},
		},
		{
			name:     "endpoint_not_found",
			path:     "/api/docs/endpoints/nope",
			wantCode: http.StatusNotFound,
			check: func(t *testing.T, body map[string]any) {
				assert.Equal(t, []any{"Endpoint not found"}, body["messages"])
			},
		},
		{
			name:     "topic",
			path:     "/api/docs/topics/authentication",
			wantCode: http.StatusOK,
			check: func(t *testing.T, body map[string]any) {
				assert.Equal(t, "Authentication", body["data"].(map[string]any)["title"])
			},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rec, body := env.get(t, tt.path)
			assert.Equal(t, tt.wantCode, rec.Code)
			tt.check(t, body)
		})
	}
}

func TestListFunctions(t *testing.T) {
	t.Parallel()

	rec, body := newTestEnv(t).get(t, "/api/functions")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["success"])
	items := body["data"].([]any)
	require.Len(t, items, 1)
	assert.Equal(t, "resize-image", items[0].(map[string]any)["Name"])
}

func TestSecretsAreMasked(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)

	rec, body := env.get(t, "/api/secrets")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "sk_live_abcdef123")
	item := body["data"].([]any)[0].(map[string]any)
	assert.Equal(t, "sk*************23", item["value"])

	rec, body = env.get(t, "/api/secrets/5")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "sk_live_abcdef123")
	assert.Equal(t, "sk*************23", body["data"].(map[string]any)["value"])
}

func TestResourceFailures(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.store.WithError(fakes.OpFetch, errors.New("connection refused"))

	rec, body := env.get(t, "/api/functions")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, []any{}, body["data"])
	assert.Equal(t, []any{"Failed to load functions"}, body["messages"])

	rec, body = env.get(t, "/api/secrets/99")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Nil(t, body["data"])
	assert.Equal(t, []any{"Record not found"}, body["messages"])

	rec, body = env.get(t, "/api/functions/99")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Nil(t, body["data"])

	env.store.WithError(fakes.OpGet, errors.New("connection reset"))
	rec, body = env.get(t, "/api/functions/1")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Nil(t, body["data"])
	assert.Equal(t, []any{"Failed to load function"}, body["messages"])

	rec, _ = env.get(t, "/api/functions/abc")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUnconfiguredBackend(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.opts.Functions = nil
	env.opts.Secrets = nil

	rec, body := env.get(t, "/api/secrets")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, []any{"Record store is not configured"}, body["messages"])

	rec, _ = env.get(t, "/api/docs/functions")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.get(t, "/api/functions")

	rec, _ := env.get(t, "/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `fnctl_record_operations_total{collection="apper_function",operation="fetch",outcome="success"} 1`)
}
