package rest

import (
	"net/http"

	"github.com/surya-murugan-ai/agentOps-sub003/internal/llm/adapter"
)

// GetAPIStatus handles GET /api/system/api-status. It reports the tracked
// health of each configured reasoning provider from observed call outcomes,
// keyed by provider name; no probe call is made.
func (h *Handler) GetAPIStatus(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]adapter.ProviderStatus{
		h.provider.Name(): h.provider.Status(),
	})
}
