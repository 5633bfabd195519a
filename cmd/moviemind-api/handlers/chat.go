// Package handlers provides HTTP handlers for the MovieMind API.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/moviemind-ai/moviemind/internal/chat"
	"github.com/moviemind-ai/moviemind/internal/observability"
)

// ChatHandler handles conversational requests.
type ChatHandler struct {
	logger    *observability.Logger
	assistant *chat.Assistant
	sessions  *chat.SessionStore
}

// NewChatHandler creates a chat handler.
func NewChatHandler(logger *observability.Logger, assistant *chat.Assistant, sessions *chat.SessionStore) *ChatHandler {
	return &ChatHandler{
		logger:    logger.WithComponent("chat-handler"),
		assistant: assistant,
		sessions:  sessions,
	}
}

// ChatRequestDTO represents the API request for one chat turn.
type ChatRequestDTO struct {
	SessionID string `json:"sessionId,omitempty"`
	Input     string `json:"input"`
}

// ChatResponseDTO represents the API response.
type ChatResponseDTO struct {
	SessionID string `json:"sessionId"`
	Message   string `json:"message"`
}

// Chat handles POST /api/v1/chat.
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Input == "" {
		writeError(w, http.StatusBadRequest, "input is required")
		return
	}

	session := h.sessions.GetOrCreate(req.SessionID)
	reply, err := session.Respond(r.Context(), h.assistant, req.Input)
	if err != nil {
		h.logger.Error().Err(err).Str("session_id", session.ID).Msg("Chat turn failed")
		writeError(w, http.StatusInternalServerError, "chat turn failed")
		return
	}

	writeJSON(w, http.StatusOK, ChatResponseDTO{
		SessionID: session.ID,
		Message:   reply,
	})
}

// ResetSession handles DELETE /api/v1/chat/{sessionId}.
func (h *ChatHandler) ResetSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionId")
	if sessionID == "" {
		writeError(w, http.StatusBadRequest, "session id is required")
		return
	}
	h.sessions.Delete(sessionID)
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
