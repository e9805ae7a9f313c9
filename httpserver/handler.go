package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/nitro-legacy/inventory-tooling/api"
	"github.com/nitro-legacy/inventory-tooling/inventory"
	"github.com/nitro-legacy/inventory-tooling/metrics"
	"github.com/nitro-legacy/inventory-tooling/solana"
)

// RegistryReader resolves and loads inventory registries.
// Implemented by *inventory.Reader.
type RegistryReader interface {
	// ProgramID returns the inventory program the reader targets.
	ProgramID() solana.PublicKey

	// RegistryAddress derives the registry PDA and bump of an authority.
	RegistryAddress(authority solana.PublicKey) (solana.PublicKey, uint8, error)

	// FetchRegistry loads and decodes the registry of an authority.
	// Returns inventory.ErrRegistryNotFound when it was never initialized.
	FetchRegistry(ctx context.Context, authority solana.PublicKey) (*inventory.InventoryRegistry, error)
}

var _ RegistryReader = (*inventory.Reader)(nil)

// Handler serves the read-only registry endpoints.
type Handler struct {
	reader  RegistryReader
	log     *slog.Logger
	timeout time.Duration
	lookups *metrics.RegistryMetrics
}

// NewHandler creates a Handler reading registries through reader.
func NewHandler(reader RegistryReader, log *slog.Logger) *Handler {
	return &Handler{
		reader: reader,
		log:    log,
	}
}

// SetRequestTimeout bounds every registry fetch. Zero means no bound.
func (h *Handler) SetRequestTimeout(d time.Duration) {
	h.timeout = d
}

// SetMetrics enables lookup metrics.
func (h *Handler) SetMetrics(m *metrics.RegistryMetrics) {
	h.lookups = m
}

// HandleRegistryAddress derives the registry PDA of the authority in the path.
// No RPC call is made.
func (h *Handler) HandleRegistryAddress(w http.ResponseWriter, r *http.Request) {
	authority, ok := h.authorityParam(w, r)
	if !ok {
		return
	}

	addr, bump, err := h.reader.RegistryAddress(authority)
	if err != nil {
		h.log.Error("Failed to derive registry address", "err", err, "authority", authority)
		writeError(w, http.StatusInternalServerError, "failed to derive registry address")
		return
	}

	h.writeJSON(w, &api.RegistryAddressResponse{
		Authority: authority,
		ProgramID: h.reader.ProgramID(),
		Address:   addr,
		Bump:      bump,
	})
}

// HandleRegistry returns the decoded registry account of an authority.
func (h *Handler) HandleRegistry(w http.ResponseWriter, r *http.Request) {
	authority, ok := h.authorityParam(w, r)
	if !ok {
		return
	}

	addr, registry, ok := h.fetch(w, r, authority)
	if !ok {
		return
	}

	h.writeJSON(w, &api.RegistryResponse{Address: addr, Registry: registry})
}

// HandleClassSlots returns the slot assignments of one class.
func (h *Handler) HandleClassSlots(w http.ResponseWriter, r *http.Request) {
	authority, ok := h.authorityParam(w, r)
	if !ok {
		return
	}

	class, err := strconv.ParseUint(r.PathValue("class"), 10, 8)
	if err == nil {
		_, err = inventory.SlotPosition(uint8(class), 0)
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid class index")
		return
	}

	addr, registry, ok := h.fetch(w, r, authority)
	if !ok {
		return
	}

	slots, err := registry.ClassSlots(uint8(class))
	if err != nil {
		h.log.Error("Malformed registry", "err", err, "address", addr)
		writeError(w, http.StatusInternalServerError, "malformed registry account")
		return
	}

	h.writeJSON(w, &api.ClassSlotsResponse{Address: addr, Class: uint8(class), Slots: slots})
}

func (h *Handler) authorityParam(w http.ResponseWriter, r *http.Request) (solana.PublicKey, bool) {
	raw := r.PathValue("authority")
	if raw == "" {
		writeError(w, http.StatusBadRequest, "missing authority in URL")
		return solana.PublicKey{}, false
	}
	authority, err := solana.PublicKeyFromBase58(raw)
	if err != nil {
		h.log.Debug("Invalid authority", "err", err, "authority", raw)
		writeError(w, http.StatusBadRequest, "invalid authority public key")
		return solana.PublicKey{}, false
	}
	return authority, true
}

func (h *Handler) fetch(w http.ResponseWriter, r *http.Request, authority solana.PublicKey) (solana.PublicKey, *inventory.InventoryRegistry, bool) {
	addr, _, err := h.reader.RegistryAddress(authority)
	if err != nil {
		h.log.Error("Failed to derive registry address", "err", err, "authority", authority)
		writeError(w, http.StatusInternalServerError, "failed to derive registry address")
		return addr, nil, false
	}

	ctx := r.Context()
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	start := time.Now()
	registry, err := h.reader.FetchRegistry(ctx, authority)
	switch {
	case errors.Is(err, inventory.ErrRegistryNotFound):
		h.observe(metrics.LookupNotFound, start)
		writeError(w, http.StatusNotFound, "registry not initialized")
		return addr, nil, false
	case err != nil:
		h.observe(metrics.LookupError, start)
		h.log.Error("Failed to fetch registry", "err", err, "address", addr)
		writeError(w, http.StatusBadGateway, "failed to fetch registry")
		return addr, nil, false
	}
	h.observe(metrics.LookupFound, start)
	return addr, registry, true
}

func (h *Handler) observe(result string, start time.Time) {
	if h.lookups != nil {
		h.lookups.Observe(result, time.Since(start))
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Error("Failed to encode response", "err", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(&api.ErrorResponse{Error: msg})
}
