package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

type Pinger interface {
	Health(ctx context.Context) error
}

type HealthHandler struct {
	store Pinger
}

// NewHealthHandler takes the document store to ping; nil skips the check.
func NewHealthHandler(store Pinger) *HealthHandler {
	return &HealthHandler{store: store}
}

func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	if h.store != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := h.store.Health(ctx); err != nil {
			slog.Warn("healthcheck failed", "error", err)
			writeSuccess(w, http.StatusServiceUnavailable, "UNAVAILABLE", "Document store unreachable")
			return
		}
	}

	writeSuccess(w, http.StatusOK, "OK", "Health check passed")
}
