package storage

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/nitro-legacy/inventory-tooling/interfaces"
)

// StorageBackendFactory creates storage backends from URI strings and manages
// multi-backend configurations for redundant storage.
type StorageBackendFactory struct {
	log *slog.Logger
}

// NewStorageBackendFactory creates a new factory instance that can create storage backends.
func NewStorageBackendFactory(logger *slog.Logger) *StorageBackendFactory {
	if logger == nil {
		logger = slog.Default()
	}
	return &StorageBackendFactory{log: logger}
}

// BackendFor creates a storage backend from a location URI.
// The URI format should be [scheme]://[auth@]host[:port][/path][?params]
//
// Supported schemes:
//   - file:// - Local filesystem storage
//   - s3:// - Amazon S3 or compatible object storage
//   - ipfs:// - IPFS node HTTP API
//   - vault:// - HashiCorp Vault KV v2
//   - github:// - Read-only repository contents
func (sf *StorageBackendFactory) BackendFor(location interfaces.StorageBackendLocation) (interfaces.StorageBackend, error) {
	u, err := location.Parse()
	if err != nil {
		return nil, err
	}

	switch strings.ToLower(u.Scheme) {
	case "file":
		return sf.createFileBackend(u)
	case "s3":
		return sf.createS3Backend(u)
	case "minio":
		return sf.createMinIOBackend(u)
	case "ipfs":
		return sf.createIPFSBackend(u)
	case "vault":
		return sf.createVaultBackend(u)
	case "github":
		return sf.createGitHubBackend(u)
	default:
		return nil, fmt.Errorf("%w: unsupported backend scheme %s", interfaces.ErrInvalidLocationURI, u.Scheme)
	}
}

// CreateMultiBackend creates a multi-storage backend from a list of location URIs.
// Invalid URIs are logged and skipped. Returns an error if no valid backends
// could be created from the provided URIs.
func (sf *StorageBackendFactory) CreateMultiBackend(locations []interfaces.StorageBackendLocation) (interfaces.StorageBackend, error) {
	backends := make([]interfaces.StorageBackend, 0, len(locations))

	for _, location := range locations {
		backend, err := sf.BackendFor(location)
		if err != nil {
			sf.log.Warn("Failed to create storage backend",
				"err", err,
				slog.String("locationURI", string(location)))
			continue
		}
		backends = append(backends, backend)
	}

	if len(backends) == 0 {
		return nil, fmt.Errorf("%w: no valid storage backends created", interfaces.ErrInvalidLocationURI)
	}

	return NewMultiStorageBackend(backends, sf.log), nil
}

// createFileBackend creates a file system storage backend.
// URI format: file:///absolute/path/ or file://./relative/path/
func (sf *StorageBackendFactory) createFileBackend(u *url.URL) (interfaces.StorageBackend, error) {
	sf.log.Debug("Creating file backend", slog.String("uri", u.String()))

	path := u.Path
	if u.Host != "" {
		path = u.Host + "/" + strings.TrimPrefix(path, "/")
	}

	if path == "" {
		return nil, fmt.Errorf("%w: empty path in file URI: %s", interfaces.ErrInvalidLocationURI, u.String())
	}

	return NewFileBackend(path, sf.log)
}

// createS3Backend creates an S3 or S3-compatible storage backend.
// URI format: s3://[ACCESS_KEY:SECRET_KEY@]bucket-name/path/?region=us-west-2&endpoint=http://localhost:9000
// Without embedded credentials AWS_ACCESS_KEY_ID and AWS_SECRET_ACCESS_KEY are used when set.
func (sf *StorageBackendFactory) createS3Backend(u *url.URL) (interfaces.StorageBackend, error) {
	sf.log.Debug("Creating S3 backend", slog.String("uri", redact(u)))

	if u.Host == "" {
		return nil, fmt.Errorf("%w: missing bucket in %s", interfaces.ErrInvalidLocationURI, redact(u))
	}

	query := u.Query()
	region := query.Get("region")
	if region == "" {
		region = "us-east-1"
	}

	var accessKey, secretKey string
	if u.User != nil {
		accessKey = u.User.Username()
		secretKey, _ = u.User.Password()
	} else {
		accessKey = os.Getenv("AWS_ACCESS_KEY_ID")
		secretKey = os.Getenv("AWS_SECRET_ACCESS_KEY")
	}
	if accessKey == "" {
		sf.log.Debug("No credentials provided, S3 backend is read-only")
	}

	return NewS3Backend(u.Host, u.Path, region, query.Get("endpoint"), accessKey, secretKey, sf.log)
}

// createMinIOBackend creates a backend on a self-hosted S3-compatible server.
// URI format: minio://[ACCESS_KEY:SECRET_KEY@]host:9000/bucket[/prefix]?tls=false
func (sf *StorageBackendFactory) createMinIOBackend(u *url.URL) (interfaces.StorageBackend, error) {
	sf.log.Debug("Creating MinIO backend", slog.String("uri", redact(u)))

	parts := strings.SplitN(strings.Trim(u.Path, "/"), "/", 2)
	if u.Host == "" || parts[0] == "" {
		return nil, fmt.Errorf("%w: expected minio://host:port/<bucket>[/prefix]", interfaces.ErrInvalidLocationURI)
	}
	var prefix string
	if len(parts) == 2 {
		prefix = parts[1]
	}

	var accessKey, secretKey string
	if u.User != nil {
		accessKey = u.User.Username()
		secretKey, _ = u.User.Password()
	}

	return NewMinIOBackend(u.Host, parts[0], prefix, accessKey, secretKey, u.Query().Get("tls") != "false", sf.log)
}

// createIPFSBackend creates an IPFS storage backend.
// URI format: ipfs://host:port/ipfs/<root-cid>?timeout=30s
func (sf *StorageBackendFactory) createIPFSBackend(u *url.URL) (interfaces.StorageBackend, error) {
	sf.log.Debug("Creating IPFS backend", slog.String("uri", u.String()))

	host := u.Hostname()
	if host == "" {
		host = "localhost"
	}
	port := u.Port()
	if port == "" {
		port = "5001" // Default IPFS API port
	}

	timeout := 30 * time.Second
	if raw := u.Query().Get("timeout"); raw != "" {
		parsed, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid timeout %q", interfaces.ErrInvalidLocationURI, raw)
		}
		timeout = parsed
	}

	return NewIPFSBackend(host, port, u.Path, timeout, sf.log)
}

// createVaultBackend creates a Vault KV v2 storage backend.
// URI format: vault://[token@]vault.example.com:8200/<mount>/<path>?tls=false
func (sf *StorageBackendFactory) createVaultBackend(u *url.URL) (interfaces.StorageBackend, error) {
	sf.log.Debug("Creating Vault backend", slog.String("uri", redact(u)))

	parts := strings.SplitN(strings.Trim(u.Path, "/"), "/", 2)
	if u.Host == "" || parts[0] == "" {
		return nil, fmt.Errorf("%w: expected vault://host:port/<mount>[/path]", interfaces.ErrInvalidLocationURI)
	}
	mount := parts[0]
	var dataPath string
	if len(parts) == 2 {
		dataPath = parts[1]
	}

	scheme := "https"
	if u.Query().Get("tls") == "false" {
		scheme = "http"
	}

	var token string
	if u.User != nil {
		token = u.User.Username()
	}

	return NewVaultBackend(fmt.Sprintf("%s://%s", scheme, u.Host), mount, dataPath, token, sf.log)
}

// createGitHubBackend creates a read-only GitHub storage backend.
// URI format: github://owner/repo[/dir]?ref=main
// GITHUB_TOKEN is sent when set.
func (sf *StorageBackendFactory) createGitHubBackend(u *url.URL) (interfaces.StorageBackend, error) {
	sf.log.Debug("Creating GitHub backend", slog.String("uri", u.String()))

	parts := strings.SplitN(strings.Trim(u.Path, "/"), "/", 2)
	if u.Host == "" || parts[0] == "" {
		return nil, fmt.Errorf("%w: expected github://owner/repo", interfaces.ErrInvalidLocationURI)
	}
	var dir string
	if len(parts) == 2 {
		dir = parts[1]
	}

	return NewGitHubBackend(u.Host, parts[0], dir, u.Query().Get("ref"), os.Getenv("GITHUB_TOKEN"), sf.log), nil
}

// redact hides embedded credentials before a URI is logged.
func redact(u *url.URL) string {
	if u.User == nil {
		return u.String()
	}
	c := *u
	c.User = url.User("***")
	return c.String()
}
