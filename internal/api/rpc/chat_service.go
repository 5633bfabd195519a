// Package rpc provides the Connect chat service.
package rpc

import (
	"context"
	"errors"
	"net/http"

	"connectrpc.com/connect"

	"github.com/moviemind-ai/moviemind/internal/chat"
	"github.com/moviemind-ai/moviemind/internal/observability"
)

// ChatProcedure is the Connect route for the chat endpoint.
const ChatProcedure = "/moviemind.v1.ChatService/Chat"

// ChatRequest is the Connect request message.
type ChatRequest struct {
	SessionID string `json:"session_id,omitempty"`
	Input     string `json:"input"`
}

// ChatResponse is the Connect response message.
type ChatResponse struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

// ChatService exposes the assistant over Connect.
type ChatService struct {
	logger    *observability.Logger
	assistant *chat.Assistant
	sessions  *chat.SessionStore
}

// NewChatService creates a chat service.
func NewChatService(logger *observability.Logger, assistant *chat.Assistant, sessions *chat.SessionStore) *ChatService {
	return &ChatService{
		logger:    logger.WithComponent("rpc"),
		assistant: assistant,
		sessions:  sessions,
	}
}

// Chat handles one conversational turn. A request without a session ID starts
// a new conversation; the assigned ID comes back in the response.
func (s *ChatService) Chat(ctx context.Context, req *connect.Request[ChatRequest]) (*connect.Response[ChatResponse], error) {
	if req.Msg.Input == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("input is required"))
	}

	session := s.sessions.GetOrCreate(req.Msg.SessionID)
	reply, err := session.Respond(ctx, s.assistant, req.Msg.Input)
	if err != nil {
		s.logger.Error().Err(err).Str("session_id", session.ID).Msg("Chat turn failed")
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	return connect.NewResponse(&ChatResponse{
		SessionID: session.ID,
		Message:   reply,
	}), nil
}

// Handler returns the route and handler to mount on an HTTP mux.
func (s *ChatService) Handler() (string, http.Handler) {
	return ChatProcedure, connect.NewUnaryHandler(ChatProcedure, s.Chat)
}
