package rest

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/surya-murugan-ai/agentOps-sub003/internal/chat"
	"github.com/surya-murugan-ai/agentOps-sub003/internal/pkg/logger"
)

// CreateChatSession handles POST /api/chat/session
func (h *Handler) CreateChatSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID string `json:"userId"`
	}
	// Body is optional; an anonymous session is fine.
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		respondErrorWithCode(w, http.StatusBadRequest, ErrCodeInvalidRequest,
			"invalid request body", logger.FromContext(r.Context()))
		return
	}

	sessionID := h.sessions.CreateSession(req.UserID)
	respondJSON(w, http.StatusCreated, map[string]string{"sessionId": sessionID})
}

// PostChatMessage handles POST /api/chat/session/{id}/message
func (h *Handler) PostChatMessage(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	ctx := r.Context()

	var req struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Text == "" {
		respondErrorWithCode(w, http.StatusBadRequest, ErrCodeInvalidRequest,
			"text is required", logger.FromContext(ctx))
		return
	}

	reply, err := h.sessions.ProcessMessage(ctx, id, req.Text)
	if err != nil {
		if errors.Is(err, chat.ErrSessionNotFound) {
			respondErrorWithCode(w, http.StatusNotFound, ErrCodeNotFound,
				"session not found", logger.FromContext(ctx))
			return
		}
		h.logger.Error("chat message failed", zap.String("session_id", id), zap.Error(err))
		respondErrorWithCode(w, http.StatusInternalServerError, ErrCodeInternalError,
			"failed to process message", logger.FromContext(ctx))
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"reply": reply})
}

// GetChatMessages handles GET /api/chat/session/{id}/messages
func (h *Handler) GetChatMessages(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	messages, err := h.sessions.GetMessages(id)
	if err != nil {
		respondErrorWithCode(w, http.StatusNotFound, ErrCodeNotFound,
			"session not found", logger.FromContext(r.Context()))
		return
	}
	respondJSON(w, http.StatusOK, messages)
}

// DeleteChatSession handles DELETE /api/chat/session/{id}
func (h *Handler) DeleteChatSession(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	if err := h.sessions.DeleteSession(id); err != nil {
		respondErrorWithCode(w, http.StatusNotFound, ErrCodeNotFound,
			"session not found", logger.FromContext(r.Context()))
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "session closed"})
}
