package api

import (
	"log/slog"
	"time"
)

// HTTPServerConfig configures the registry API server and its metrics listener.
type HTTPServerConfig struct {
	// API listener, e.g. "127.0.0.1:8080".
	ListenAddr string
	// Prometheus listener. Metrics are not served when empty.
	MetricsAddr string
	// Mounts net/http/pprof under /debug.
	EnablePprof bool

	Log *slog.Logger

	// How long /drain keeps reporting not-ready before the drain is
	// considered complete.
	DrainDuration time.Duration
	// Upper bound on waiting for in-flight requests at shutdown.
	GracefulShutdownDuration time.Duration

	// http.Server timeouts.
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// Deadline of each registry lookup against the Solana node; zero
	// leaves lookups bounded only by the client connection.
	RequestTimeout time.Duration
}
