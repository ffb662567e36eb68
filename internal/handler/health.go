package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/eternal-ai/api/internal/database"
	"github.com/eternal-ai/api/internal/model"
)

const readyTimeout = 3 * time.Second

// HealthHandler serves liveness, readiness and provider status
type HealthHandler struct {
	store     database.Store
	providers map[string]bool
	started   time.Time
}

// NewHealthHandler creates a new health handler. providers maps an upstream
// name to whether it was configured at startup.
func NewHealthHandler(store database.Store, providers map[string]bool) *HealthHandler {
	return &HealthHandler{
		store:     store,
		providers: providers,
		started:   time.Now(),
	}
}

// Live handles GET /health
func (h *HealthHandler) Live(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"uptime": time.Since(h.started).Round(time.Second).String(),
	})
}

// Ready handles GET /health/ready
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	if err := h.store.Ping(ctx); err != nil {
		slog.Warn("readiness check failed", "error", err)
		WriteError(w, model.NewUnavailableError("database is not reachable"))
		return
	}

	WriteJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// Providers handles GET /health/providers
func (h *HealthHandler) Providers(w http.ResponseWriter, r *http.Request) {
	WriteData(w, http.StatusOK, h.providers, nil)
}

// RegisterRoutes registers the public health routes
func (h *HealthHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", h.Live)
	mux.HandleFunc("GET /health/ready", h.Ready)
	mux.HandleFunc("GET /health/providers", h.Providers)
}
