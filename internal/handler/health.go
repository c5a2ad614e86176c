package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/sakif/todo-api/internal/repository"
)

// HealthHandler serves /health with a store check.
type HealthHandler struct {
	store repository.Pinger
}

// NewHealthHandler creates a health handler for store.
func NewHealthHandler(store repository.Pinger) *HealthHandler {
	return &HealthHandler{store: store}
}

type healthResponse struct {
	Status  string            `json:"status"`
	Checks  map[string]string `json:"checks,omitempty"`
	Message string            `json:"message,omitempty"`
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	if err := h.store.Ping(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, healthResponse{
			Status:  "unhealthy",
			Checks:  map[string]string{"store": "down: " + err.Error()},
			Message: "one or more checks failed",
		})
		return
	}

	writeJSON(w, http.StatusOK, healthResponse{
		Status: "ok",
		Checks: map[string]string{"store": "ok"},
	})
}
