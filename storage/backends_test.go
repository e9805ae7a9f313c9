package storage

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nitro-legacy/inventory-tooling/interfaces"
)

func TestFileBackend(t *testing.T) {
	dir := t.TempDir()
	backend, err := NewFileBackend(dir, discardLogger())
	require.NoError(t, err)
	ctx := context.Background()

	assert.True(t, backend.Available(ctx))
	assert.Equal(t, "file://"+dir, backend.LocationURI())

	_, err = backend.Fetch(ctx, "missing.json")
	assert.ErrorIs(t, err, interfaces.ErrContentNotFound)

	key := "artifacts/contracts/NitroLegacyInventory.sol/NitroLegacyInventory.json"
	require.NoError(t, backend.Store(ctx, key, []byte("{}")))

	onDisk, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(key)))
	require.NoError(t, err)
	assert.Equal(t, []byte("{}"), onDisk)

	data, err := backend.Fetch(ctx, "/"+key)
	require.NoError(t, err)
	assert.Equal(t, []byte("{}"), data)

	for _, bad := range []string{"", "/", "../outside", "a/../../b"} {
		_, err := backend.Fetch(ctx, bad)
		assert.ErrorIs(t, err, interfaces.ErrInvalidKey, bad)
	}
}

// fakeVault serves the KV v2 and health endpoints the backend uses.
type fakeVault struct {
	mu      sync.Mutex
	secrets map[string]string
	token   string
}

func (f *fakeVault) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path == "/v1/sys/health" {
		_ = json.NewEncoder(w).Encode(map[string]any{"initialized": true, "sealed": false, "standby": false})
		return
	}
	if r.Header.Get("X-Vault-Token") != f.token {
		w.WriteHeader(http.StatusForbidden)
		_ = json.NewEncoder(w).Encode(map[string]any{"errors": []string{"permission denied"}})
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/v1/")
	f.mu.Lock()
	defer f.mu.Unlock()

	switch r.Method {
	case http.MethodGet:
		content, ok := f.secrets[path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			_ = json.NewEncoder(w).Encode(map[string]any{"errors": []string{}})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": map[string]any{
				"data":     map[string]any{"content": content},
				"metadata": map[string]any{"version": 1},
			},
		})
	case http.MethodPut, http.MethodPost:
		var body struct {
			Data struct {
				Content string `json:"content"`
			} `json:"data"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		f.secrets[path] = body.Data.Content
		_ = json.NewEncoder(w).Encode(map[string]any{"data": map[string]any{"version": 1}})
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func TestVaultBackend(t *testing.T) {
	vault := &fakeVault{secrets: map[string]string{}, token: "test-token"}
	srv := httptest.NewServer(vault)
	defer srv.Close()

	backend, err := NewVaultBackend(srv.URL, "secret", "inventory", "test-token", discardLogger())
	require.NoError(t, err)
	ctx := context.Background()

	assert.True(t, backend.Available(ctx))

	_, err = backend.Fetch(ctx, "keys/deployer")
	assert.ErrorIs(t, err, interfaces.ErrContentNotFound)

	require.NoError(t, backend.Store(ctx, "keys/deployer", []byte("0xabc")))
	vault.mu.Lock()
	assert.Equal(t, "0xabc", vault.secrets["secret/data/inventory/keys/deployer"])
	vault.mu.Unlock()

	data, err := backend.Fetch(ctx, "keys/deployer")
	require.NoError(t, err)
	assert.Equal(t, []byte("0xabc"), data)

	unauthorized, err := NewVaultBackend(srv.URL, "secret", "inventory", "wrong", discardLogger())
	require.NoError(t, err)
	_, err = unauthorized.Fetch(ctx, "keys/deployer")
	assert.ErrorIs(t, err, interfaces.ErrBackendUnavailable)
}

func TestGitHubBackend(t *testing.T) {
	artifact := []byte(`{"contractName":"NitroLegacyInventory"}`)
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/nitro/contracts", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	})
	mux.HandleFunc("/repos/nitro/contracts/contents/build/NitroLegacyInventory.json", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "v1.0.0", r.URL.Query().Get("ref"))
		_ = json.NewEncoder(w).Encode(gitHubContent{
			Type:     "file",
			Encoding: "base64",
			Content:  base64.StdEncoding.EncodeToString(artifact),
		})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	backend := NewGitHubBackend("nitro", "contracts", "build", "v1.0.0", "", discardLogger()).WithAPIBase(srv.URL)
	ctx := context.Background()

	assert.True(t, backend.Available(ctx))
	assert.Equal(t, "github://nitro/contracts/build?ref=v1.0.0", backend.LocationURI())

	data, err := backend.Fetch(ctx, "NitroLegacyInventory.json")
	require.NoError(t, err)
	assert.Equal(t, artifact, data)

	_, err = backend.Fetch(ctx, "Missing.json")
	assert.ErrorIs(t, err, interfaces.ErrContentNotFound)

	assert.ErrorIs(t, backend.Store(ctx, "x", nil), interfaces.ErrReadOnlyBackend)
}

func TestStorageBackendFactory(t *testing.T) {
	factory := NewStorageBackendFactory(discardLogger())
	dir := t.TempDir()

	tests := []struct {
		uri      string
		wantName string
		wantErr  error
	}{
		{uri: "file://" + dir, wantName: "file-" + filepath.Base(dir)},
		{uri: "s3://artifacts/inventory?region=eu-west-1", wantName: "s3-artifacts"},
		{uri: "minio://minio.local:9000/artifacts/build?tls=false", wantName: "minio-artifacts"},
		{uri: "ipfs://localhost:5001/ipfs/bafyroot", wantName: "ipfs-localhost-5001"},
		{uri: "ipfs://localhost/?timeout=5s", wantName: "ipfs-localhost-5001"},
		{uri: "vault://token@vault.local:8200/secret/inventory?tls=false", wantName: "vault-secret-inventory"},
		{uri: "github://nitro/contracts/build?ref=main", wantName: "github-nitro-contracts"},
		{uri: "ftp://example.com/x", wantErr: interfaces.ErrInvalidLocationURI},
		{uri: "s3:///no-bucket", wantErr: interfaces.ErrInvalidLocationURI},
		{uri: "minio://minio.local:9000", wantErr: interfaces.ErrInvalidLocationURI},
		{uri: "vault://vault.local:8200", wantErr: interfaces.ErrInvalidLocationURI},
		{uri: "github://nitro", wantErr: interfaces.ErrInvalidLocationURI},
		{uri: "ipfs://localhost/?timeout=soon", wantErr: interfaces.ErrInvalidLocationURI},
	}

	for _, tt := range tests {
		t.Run(tt.uri, func(t *testing.T) {
			backend, err := factory.BackendFor(interfaces.StorageBackendLocation(tt.uri))
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantName, backend.Name())
		})
	}

	readOnly, err := factory.BackendFor("minio://minio.local:9000/artifacts?tls=false")
	require.NoError(t, err)
	assert.ErrorIs(t, readOnly.Store(context.Background(), "a.json", []byte("{}")), interfaces.ErrReadOnlyBackend)
	assert.Equal(t, "minio://minio.local:9000/artifacts/?tls=false", readOnly.LocationURI())

	multi, err := factory.CreateMultiBackend([]interfaces.StorageBackendLocation{
		"ftp://bad",
		interfaces.StorageBackendLocation("file://" + dir),
	})
	require.NoError(t, err)
	assert.Equal(t, "multi-storage", multi.Name())

	_, err = factory.CreateMultiBackend([]interfaces.StorageBackendLocation{"ftp://bad"})
	assert.ErrorIs(t, err, interfaces.ErrInvalidLocationURI)
}
