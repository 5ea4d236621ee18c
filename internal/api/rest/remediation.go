package rest

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/surya-murugan-ai/agentOps-sub003/internal/models"
	"github.com/surya-murugan-ai/agentOps-sub003/internal/pkg/logger"
	"github.com/surya-murugan-ai/agentOps-sub003/internal/remediation"
	"github.com/surya-murugan-ai/agentOps-sub003/internal/repository"
)

// remediationView decorates an action with its display-only confidence label.
type remediationView struct {
	*models.RemediationAction
	ConfidenceLabel string `json:"confidence_label"`
}

func viewOf(action *models.RemediationAction) remediationView {
	return remediationView{RemediationAction: action, ConfidenceLabel: action.ConfidenceLabel()}
}

// ListRemediationActions handles GET /api/remediation-actions
func (h *Handler) ListRemediationActions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var (
		actions []*models.RemediationAction
		err     error
	)
	if status := r.URL.Query().Get("status"); status != "" {
		actions, err = h.repo.ListRemediationsByStatus(ctx, models.RemediationStatus(status))
	} else {
		actions, err = h.repo.ListRemediations(ctx)
	}
	if err != nil {
		h.logger.Error("list remediation actions failed", zap.Error(err))
		respondErrorWithCode(w, http.StatusInternalServerError, ErrCodeInternalError,
			"failed to list remediation actions", logger.FromContext(ctx))
		return
	}

	views := make([]remediationView, 0, len(actions))
	for _, action := range actions {
		views = append(views, viewOf(action))
	}
	respondJSON(w, http.StatusOK, views)
}

// ApproveRemediationAction handles POST /api/remediation-actions/{id}/approve
func (h *Handler) ApproveRemediationAction(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	ctx := r.Context()

	var req struct {
		UserID string `json:"userId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondErrorWithCode(w, http.StatusBadRequest, ErrCodeInvalidRequest,
			"invalid request body", logger.FromContext(ctx))
		return
	}
	if req.UserID == "" {
		respondErrorWithCode(w, http.StatusBadRequest, ErrCodeInvalidRequest,
			"userId is required", logger.FromContext(ctx))
		return
	}

	action, err := h.engine.Approve(ctx, id, req.UserID)
	if err != nil {
		h.respondTransitionError(w, r, id, err)
		return
	}
	respondJSON(w, http.StatusOK, viewOf(action))
}

// RejectRemediationAction handles POST /api/remediation-actions/{id}/reject
func (h *Handler) RejectRemediationAction(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	ctx := r.Context()

	action, err := h.engine.Reject(ctx, id)
	if err != nil {
		h.respondTransitionError(w, r, id, err)
		return
	}
	respondJSON(w, http.StatusOK, viewOf(action))
}

// respondTransitionError maps approval-engine failures to status codes. A
// conflict response carries the authoritative current status so callers can
// refresh their view.
func (h *Handler) respondTransitionError(w http.ResponseWriter, r *http.Request, id string, err error) {
	reqID := logger.FromContext(r.Context())

	var transErr *remediation.TransitionError
	switch {
	case errors.Is(err, repository.ErrNotFound):
		respondErrorWithCode(w, http.StatusNotFound, ErrCodeNotFound,
			"remediation action not found", reqID)
	case errors.As(err, &transErr):
		respondStructuredError(w, http.StatusConflict, ErrCodeConflict,
			"action is not in a state that allows this transition", reqID,
			map[string]string{"current_status": string(transErr.Current)})
	default:
		h.logger.Error("remediation transition failed", zap.String("action_id", id), zap.Error(err))
		respondErrorWithCode(w, http.StatusInternalServerError, ErrCodeInternalError,
			"failed to update remediation action", reqID)
	}
}
