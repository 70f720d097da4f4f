package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/sakif/wellness-directory/internal/apperror"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler reports storage reachability and whether admin access is
// configured. It never reveals anything about the secret itself.
type HealthHandler struct {
	store           Pinger
	adminConfigured bool
}

func NewHealthHandler(store Pinger, adminConfigured bool) *HealthHandler {
	return &HealthHandler{store: store, adminConfigured: adminConfigured}
}

type healthResponse struct {
	Status          string `json:"status"`
	Storage         string `json:"storage"`
	AdminConfigured bool   `json:"adminConfigured"`
}

// HandleHealth handles GET /healthz.
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	resp := healthResponse{Status: "ok", Storage: "ok", AdminConfigured: h.adminConfigured}
	if err := h.store.Ping(ctx); err != nil {
		resp.Status = "degraded"
		resp.Storage = "unavailable"
		if errors.Is(err, apperror.ErrMisconfigured) {
			resp.Storage = "disabled"
		}
	}
	writeJSON(w, http.StatusOK, resp)
}
