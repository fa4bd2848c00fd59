package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// Pinger is anything whose liveness the health check should confirm.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthResponse is the body of GET /api/health.
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

// HealthHandler reports whether the server and its database are up.
type HealthHandler struct {
	db     Pinger
	logger *slog.Logger
}

func NewHealthHandler(db Pinger, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{db: db, logger: logger}
}

// HTTP: GET /api/health
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	now := time.Now().UTC().Format(time.RFC3339)

	if h.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.db.Ping(ctx); err != nil {
			h.logger.Error("health check: database unreachable", slog.String("error", err.Error()))
			writeJSON(w, http.StatusServiceUnavailable, HealthResponse{Status: "unhealthy", Timestamp: now})
			return
		}
	}

	writeJSON(w, http.StatusOK, HealthResponse{Status: "healthy", Timestamp: now})
}
