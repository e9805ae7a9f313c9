package httpserver

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/nitro-legacy/inventory-tooling/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, reader *MockRegistryReader) *Server {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv, err := New(&api.HTTPServerConfig{
		ListenAddr: "127.0.0.1:0",
		Log:        log,
	}, NewHandler(reader, log))
	require.NoError(t, err)
	return srv
}

func get(t *testing.T, srv *Server, path string) (int, string) {
	t.Helper()
	rr := httptest.NewRecorder()
	srv.srv.Handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
	body, err := io.ReadAll(rr.Body)
	require.NoError(t, err)
	return rr.Code, string(body)
}

func TestServer_HealthAndDrain(t *testing.T) {
	srv := newTestServer(t, new(MockRegistryReader))

	code, body := get(t, srv, "/livez")
	assert.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"status":"alive"}`, body)

	code, _ = get(t, srv, "/readyz")
	assert.Equal(t, http.StatusOK, code)

	_, body = get(t, srv, "/drain")
	assert.JSONEq(t, `{"status":"draining"}`, body)
	_, body = get(t, srv, "/drain")
	assert.JSONEq(t, `{"status":"already draining"}`, body)

	code, body = get(t, srv, "/readyz")
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.JSONEq(t, `{"status":"not ready"}`, body)

	_, body = get(t, srv, "/undrain")
	assert.JSONEq(t, `{"status":"ready"}`, body)
	_, body = get(t, srv, "/undrain")
	assert.JSONEq(t, `{"status":"already ready"}`, body)

	code, _ = get(t, srv, "/readyz")
	assert.Equal(t, http.StatusOK, code)
}

func TestServer_Routes(t *testing.T) {
	srv := newTestServer(t, new(MockRegistryReader))
	authority := randomAuthority(t)

	code, _ := get(t, srv, "/api/v1/registry/"+authority.String()+"/address")
	assert.Equal(t, http.StatusOK, code)

	code, _ = get(t, srv, "/api/v1/registry/"+authority.String()+"/slots/9")
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = get(t, srv, "/debug/pprof/")
	assert.Equal(t, http.StatusNotFound, code)

	families, err := srv.metricsSrv.Gatherer().Gather()
	require.NoError(t, err)
	found := false
	for _, mf := range families {
		if mf.GetName() == "nitro_inventory_http_requests_total" {
			found = true
			assert.Len(t, mf.GetMetric(), 2)
		}
	}
	assert.True(t, found)
}
