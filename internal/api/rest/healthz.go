package rest

import (
	"net/http"
)

// Healthz handles GET /healthz - liveness probe (process is alive)
func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
