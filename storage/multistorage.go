package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/nitro-legacy/inventory-tooling/interfaces"
)

// MultiStorageBackend implements interfaces.StorageBackend using multiple backends with fallback.
// Fetch returns the first hit in backend order; Store writes to every available backend.
type MultiStorageBackend struct {
	backends []interfaces.StorageBackend
	log      *slog.Logger
}

// NewMultiStorageBackend creates a new multi-storage backend with fallback
func NewMultiStorageBackend(backends []interfaces.StorageBackend, logger *slog.Logger) *MultiStorageBackend {
	if logger == nil {
		logger = slog.Default()
	}

	return &MultiStorageBackend{
		backends: backends,
		log:      logger,
	}
}

// Fetch tries each available backend in order. When no backend has the key
// the error wraps ErrContentNotFound.
func (m *MultiStorageBackend) Fetch(ctx context.Context, key string) ([]byte, error) {
	start := time.Now()
	var errs []error

	for _, backend := range m.backends {
		if !backend.Available(ctx) {
			m.log.Debug("Backend unavailable",
				slog.String("backend_name", backend.Name()),
				slog.String("key", key))
			continue
		}

		data, err := backend.Fetch(ctx, key)
		if err == nil {
			m.log.Debug("Fetched content",
				slog.String("backend_name", backend.Name()),
				slog.String("key", key),
				slog.Duration("duration", time.Since(start)))
			return data, nil
		}

		errs = append(errs, fmt.Errorf("%s: %w", backend.Name(), err))
		m.log.Debug("Failed to fetch from backend",
			slog.String("backend_name", backend.Name()),
			slog.String("key", key),
			"err", err)
	}

	if len(errs) == 0 {
		return nil, fmt.Errorf("%w: no backend available for %s", interfaces.ErrBackendUnavailable, key)
	}
	return nil, fmt.Errorf("all backends failed to fetch %s: %w", key, errors.Join(errs...))
}

// Store saves data to all available backends. It succeeds when at least
// one backend accepted the write.
func (m *MultiStorageBackend) Store(ctx context.Context, key string, data []byte) error {
	start := time.Now()
	var stored int
	var errs []error

	for _, backend := range m.backends {
		if !backend.Available(ctx) {
			m.log.Debug("Backend unavailable", slog.String("backend_name", backend.Name()))
			continue
		}

		if err := backend.Store(ctx, key, data); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", backend.Name(), err))
			m.log.Debug("Failed to store to backend",
				slog.String("backend_name", backend.Name()),
				"err", err)
			continue
		}
		stored++
	}

	if stored == 0 {
		m.log.Error("All backends failed to store data",
			slog.String("key", key),
			slog.Int("failed_backends", len(errs)),
			slog.Duration("duration", time.Since(start)))
		if len(errs) == 0 {
			return interfaces.ErrBackendUnavailable
		}
		return fmt.Errorf("all backends failed to store %s: %w", key, errors.Join(errs...))
	}

	m.log.Info("Stored content",
		slog.String("key", key),
		slog.Int("backends", stored),
		slog.Duration("duration", time.Since(start)))
	return nil
}

// Available checks if any backend is available
func (m *MultiStorageBackend) Available(ctx context.Context) bool {
	for _, backend := range m.backends {
		if backend.Available(ctx) {
			return true
		}
	}
	return false
}

// Name returns the name of this backend
func (m *MultiStorageBackend) Name() string {
	return "multi-storage"
}

// LocationURI combines the locations of all backends.
func (m *MultiStorageBackend) LocationURI() string {
	locations := make([]string, 0, len(m.backends))
	for _, backend := range m.backends {
		locations = append(locations, backend.LocationURI())
	}
	return "multi:[" + strings.Join(locations, ",") + "]"
}
