package httpserver

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/flashbots/go-utils/httplogger"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/nitro-legacy/inventory-tooling/api"
	"github.com/nitro-legacy/inventory-tooling/common"
	"github.com/nitro-legacy/inventory-tooling/metrics"
	"go.uber.org/atomic"
)

// Server serves the registry API and the operational endpoints.
type Server struct {
	cfg     *api.HTTPServerConfig
	isReady atomic.Bool
	log     *slog.Logger

	srv        *http.Server
	metricsSrv *metrics.MetricsServer
	handler    *Handler
}

func New(cfg *api.HTTPServerConfig, handler *Handler) (srv *Server, err error) {
	metricsSrv, err := metrics.New(common.PackageName, cfg.MetricsAddr)
	if err != nil {
		return nil, err
	}

	handler.SetRequestTimeout(cfg.RequestTimeout)
	handler.SetMetrics(metricsSrv.Registry)

	srv = &Server{cfg: cfg, log: cfg.Log, metricsSrv: metricsSrv, handler: handler}
	srv.isReady.Store(true)
	srv.srv = &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      srv.router(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	return srv, nil
}

// Handler returns the API router, for embedding in another server or tests.
func (srv *Server) Handler() http.Handler {
	return srv.srv.Handler
}

func (srv *Server) router() http.Handler {
	mux := chi.NewRouter()

	mux.Group(func(r chi.Router) {
		r.Use(srv.httpLogger, srv.metricsSrv.HTTP.Middleware)
		r.Get("/api/v1/registry/{authority}", srv.handler.HandleRegistry)
		r.Get("/api/v1/registry/{authority}/address", srv.handler.HandleRegistryAddress)
		r.Get("/api/v1/registry/{authority}/slots/{class}", srv.handler.HandleClassSlots)
	})

	mux.Group(func(r chi.Router) {
		r.Use(srv.httpLogger)
		r.Get("/livez", srv.handleLivez)
		r.Get("/readyz", srv.handleReadyz)
		r.Get("/drain", srv.handleDrain)
		r.Get("/undrain", srv.handleUndrain)
	})

	if srv.cfg.EnablePprof {
		srv.log.Info("Mounting pprof under /debug")
		mux.Mount("/debug", middleware.Profiler())
	}
	return mux
}

func (srv *Server) httpLogger(next http.Handler) http.Handler {
	return httplogger.LoggingMiddlewareSlog(srv.log, next)
}

func writeStatus(w http.ResponseWriter, code int, status string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write([]byte(`{"status":"` + status + `"}`))
}

func (srv *Server) handleLivez(w http.ResponseWriter, r *http.Request) {
	writeStatus(w, http.StatusOK, "alive")
}

func (srv *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	if srv.isReady.Load() {
		writeStatus(w, http.StatusOK, "ready")
		return
	}
	writeStatus(w, http.StatusServiceUnavailable, "not ready")
}

// handleDrain flips /readyz to 503 so load balancers stop routing here
// before the process is stopped.
func (srv *Server) handleDrain(w http.ResponseWriter, r *http.Request) {
	if wasReady := srv.isReady.Swap(false); !wasReady {
		writeStatus(w, http.StatusOK, "already draining")
		return
	}
	srv.log.Info("Draining", "drainDuration", srv.cfg.DrainDuration)
	time.AfterFunc(srv.cfg.DrainDuration, func() {
		srv.log.Info("Drain period completed")
	})
	writeStatus(w, http.StatusOK, "draining")
}

func (srv *Server) handleUndrain(w http.ResponseWriter, r *http.Request) {
	if wasReady := srv.isReady.Swap(true); wasReady {
		writeStatus(w, http.StatusOK, "already ready")
		return
	}
	srv.log.Info("Undrained, accepting traffic again")
	writeStatus(w, http.StatusOK, "ready")
}

// RunInBackground starts the API listener and, when configured, the metrics
// listener. Listener failures are logged.
func (srv *Server) RunInBackground() {
	if srv.cfg.MetricsAddr != "" {
		go srv.serve("metrics", srv.cfg.MetricsAddr, srv.metricsSrv.ListenAndServe)
	}
	go srv.serve("api", srv.cfg.ListenAddr, srv.srv.ListenAndServe)
}

func (srv *Server) serve(name, addr string, listen func() error) {
	srv.log.Info("Starting listener", "listener", name, "listenAddress", addr)
	if err := listen(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		srv.log.Error("Listener failed", "listener", name, "err", err)
	}
}

// Shutdown stops both listeners, waiting up to GracefulShutdownDuration
// for each.
func (srv *Server) Shutdown() {
	srv.stop("api", srv.srv.Shutdown)
	if srv.cfg.MetricsAddr != "" {
		srv.stop("metrics", srv.metricsSrv.Shutdown)
	}
}

func (srv *Server) stop(name string, shutdown func(context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), srv.cfg.GracefulShutdownDuration)
	defer cancel()
	if err := shutdown(ctx); err != nil {
		srv.log.Error("Graceful shutdown failed", "listener", name, "err", err)
		return
	}
	srv.log.Info("Listener stopped", "listener", name)
}
