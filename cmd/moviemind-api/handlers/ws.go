package handlers

import (
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/moviemind-ai/moviemind/internal/chat"
	"github.com/moviemind-ai/moviemind/internal/observability"
)

// WSHandler serves a streaming chat connection. Each connection gets its own
// session; the session and its history are dropped on disconnect.
type WSHandler struct {
	logger    *observability.Logger
	assistant *chat.Assistant
	sessions  *chat.SessionStore
	upgrader  websocket.Upgrader
}

// NewWSHandler creates a websocket chat handler.
func NewWSHandler(logger *observability.Logger, assistant *chat.Assistant, sessions *chat.SessionStore) *WSHandler {
	return &WSHandler{
		logger:    logger.WithComponent("ws-handler"),
		assistant: assistant,
		sessions:  sessions,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type wsMessage struct {
	Input string `json:"input"`
}

type wsReply struct {
	SessionID string `json:"sessionId"`
	Message   string `json:"message"`
	Error     string `json:"error,omitempty"`
}

// Chat handles GET /api/v1/chat/ws.
func (h *WSHandler) Chat(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn().Err(err).Msg("Websocket upgrade failed")
		return
	}
	defer conn.Close()

	session := h.sessions.GetOrCreate("")
	defer h.sessions.Delete(session.ID)

	log := h.logger.WithSession(session.ID)
	log.Info().Msg("Websocket chat connected")

	for {
		var msg wsMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn().Err(err).Msg("Websocket read failed")
			}
			break
		}
		if msg.Input == "" {
			continue
		}

		reply, err := session.Respond(r.Context(), h.assistant, msg.Input)
		out := wsReply{SessionID: session.ID, Message: reply}
		if err != nil {
			log.Error().Err(err).Msg("Chat turn failed")
			out = wsReply{SessionID: session.ID, Error: "chat turn failed"}
		}
		if err := conn.WriteJSON(out); err != nil {
			log.Warn().Err(err).Msg("Websocket write failed")
			break
		}
	}

	log.Info().Msg("Websocket chat disconnected")
}
