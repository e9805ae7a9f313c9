package storage

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/vault/api"

	"github.com/nitro-legacy/inventory-tooling/interfaces"
)

// VaultBackend implements a storage backend on a HashiCorp Vault KV v2
// engine. Values are stored under the "content" field of each secret,
// which is where deployer keys are expected to live.
type VaultBackend struct {
	client      *api.Client
	mountPath   string
	dataPath    string
	log         *slog.Logger
	locationURI string
}

// NewVaultBackend creates a new Vault storage backend with token authentication.
//
// Parameters:
//   - address: Vault server address (e.g. https://vault.example.com:8200)
//   - mountPath: KV v2 mount path (e.g. "secret")
//   - dataPath: Path within the mount (e.g. "inventory")
//   - token: Vault token; when empty the VAULT_TOKEN environment variable is used
//   - log: Structured logger for operational insights
func NewVaultBackend(address, mountPath, dataPath, token string, log *slog.Logger) (*VaultBackend, error) {
	config := api.DefaultConfig()
	config.Address = address
	config.HttpClient = &http.Client{Timeout: 30 * time.Second}

	client, err := api.NewClient(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create Vault client: %w", err)
	}
	if token != "" {
		client.SetToken(token)
	}

	mountPath = strings.Trim(mountPath, "/")
	dataPath = strings.Trim(dataPath, "/")

	return &VaultBackend{
		client:      client,
		mountPath:   mountPath,
		dataPath:    dataPath,
		log:         log,
		locationURI: fmt.Sprintf("vault://%s/%s/%s", strings.TrimPrefix(strings.TrimPrefix(address, "https://"), "http://"), mountPath, dataPath),
	}, nil
}

// Fetch reads the secret stored under key using the KV v2 API.
func (b *VaultBackend) Fetch(ctx context.Context, key string) ([]byte, error) {
	start := time.Now()
	path, err := b.secretPath(key)
	if err != nil {
		return nil, err
	}

	secret, err := b.client.Logical().ReadWithContext(ctx, path)
	if err != nil {
		b.log.Error("Failed to read from Vault",
			slog.String("path", path),
			"err", err)
		return nil, fmt.Errorf("%w: %v", interfaces.ErrBackendUnavailable, err)
	}

	if secret == nil || secret.Data == nil {
		b.log.Debug("Content not found in Vault", slog.String("path", path))
		return nil, interfaces.ErrContentNotFound
	}

	// KV v2 nests the payload under "data"
	data, ok := secret.Data["data"].(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("invalid data format in Vault response at %s", path)
	}

	content, ok := data["content"].(string)
	if !ok {
		return nil, fmt.Errorf("content key not found in Vault data at %s", path)
	}

	b.log.Debug("Fetched content from Vault",
		slog.String("path", path),
		slog.Duration("duration", time.Since(start)))

	return []byte(content), nil
}

// Store writes data under key as a new secret version.
func (b *VaultBackend) Store(ctx context.Context, key string, data []byte) error {
	start := time.Now()
	path, err := b.secretPath(key)
	if err != nil {
		return err
	}

	secretData := map[string]interface{}{
		"data": map[string]interface{}{
			"content": string(data),
		},
	}

	if _, err := b.client.Logical().WriteWithContext(ctx, path, secretData); err != nil {
		b.log.Error("Failed to write to Vault",
			slog.String("path", path),
			"err", err)
		return fmt.Errorf("%w: %v", interfaces.ErrBackendUnavailable, err)
	}

	b.log.Info("Stored content in Vault",
		slog.String("path", path),
		slog.Duration("duration", time.Since(start)))

	return nil
}

// Available checks that Vault is initialized and unsealed.
func (b *VaultBackend) Available(ctx context.Context) bool {
	healthCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	health, err := b.client.Sys().HealthWithContext(healthCtx)
	if err != nil {
		b.log.Debug("Vault health check failed", "err", err)
		return false
	}

	if !health.Initialized || health.Sealed {
		b.log.Debug("Vault is not available",
			slog.Bool("initialized", health.Initialized),
			slog.Bool("sealed", health.Sealed))
		return false
	}

	return true
}

// Name returns a unique identifier for this storage backend.
func (b *VaultBackend) Name() string {
	return fmt.Sprintf("vault-%s-%s", b.mountPath, b.dataPath)
}

// LocationURI returns the URI that identifies this storage backend.
func (b *VaultBackend) LocationURI() string {
	return b.locationURI
}

func (b *VaultBackend) secretPath(key string) (string, error) {
	cleaned, err := interfaces.CleanKey(key)
	if err != nil {
		return "", err
	}
	if b.dataPath == "" {
		return fmt.Sprintf("%s/data/%s", b.mountPath, cleaned), nil
	}
	return fmt.Sprintf("%s/data/%s/%s", b.mountPath, b.dataPath, cleaned), nil
}
