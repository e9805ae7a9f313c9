package interfaces

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"path"
	"strings"
)

var (
	// ErrContentNotFound is returned when a key does not exist in the storage backend.
	ErrContentNotFound = errors.New("content not found")

	// ErrBackendUnavailable is returned when a storage backend is not accessible.
	ErrBackendUnavailable = errors.New("storage backend unavailable")

	// ErrReadOnlyBackend is returned by Store on backends that only serve content.
	ErrReadOnlyBackend = errors.New("storage backend is read-only")

	// ErrInvalidLocationURI is returned when a storage location URI is malformed or unsupported.
	// URIs must follow the format: [scheme]://[auth@]host[:port][/path][?params]
	ErrInvalidLocationURI = errors.New("invalid storage location URI")

	// ErrInvalidKey is returned for keys that are empty or escape the backend root.
	ErrInvalidKey = errors.New("invalid storage key")
)

// StorageBackend stores opaque blobs (contract artifacts, deployer keys)
// under slash-separated keys.
type StorageBackend interface {
	// Fetch retrieves the data stored under key.
	Fetch(ctx context.Context, key string) ([]byte, error)

	// Store saves data under key, replacing any previous value.
	Store(ctx context.Context, key string, data []byte) error

	// Available checks if backend is accessible.
	Available(ctx context.Context) bool

	// Name returns identifier for logging.
	Name() string

	// LocationURI returns URI identifying this backend.
	LocationURI() string
}

// StorageBackendLocation is a storage backend URI, e.g. file:///var/lib/artifacts
// or s3://bucket/prefix?region=eu-west-1.
type StorageBackendLocation string

// Parse validates the location and returns its parsed form.
func (loc StorageBackendLocation) Parse() (*url.URL, error) {
	u, err := url.Parse(string(loc))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidLocationURI, err)
	}
	switch strings.ToLower(u.Scheme) {
	case "file", "s3", "minio", "ipfs", "vault", "github":
	default:
		return nil, fmt.Errorf("%w: unsupported scheme %q", ErrInvalidLocationURI, u.Scheme)
	}
	return u, nil
}

// CleanKey normalizes a storage key and rejects keys that would escape the
// backend root.
func CleanKey(key string) (string, error) {
	if key == "" {
		return "", ErrInvalidKey
	}
	cleaned := path.Clean("/" + key)
	if cleaned == "/" || strings.Contains(key, "..") {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return strings.TrimPrefix(cleaned, "/"), nil
}

// StorageBackendFactory creates storage backends.
type StorageBackendFactory interface {
	// BackendFor creates backend from URI.
	// Supports file://, s3://, minio://, ipfs://, vault://, github://
	BackendFor(location StorageBackendLocation) (StorageBackend, error)

	// CreateMultiBackend creates aggregated storage backend.
	CreateMultiBackend(locations []StorageBackendLocation) (StorageBackend, error)
}
