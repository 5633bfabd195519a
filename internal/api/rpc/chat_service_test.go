package rpc

import (
	"context"
	"testing"

	"connectrpc.com/connect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moviemind-ai/moviemind/internal/cache"
	"github.com/moviemind-ai/moviemind/internal/chat"
	"github.com/moviemind-ai/moviemind/internal/embedding"
	"github.com/moviemind-ai/moviemind/internal/llm"
	"github.com/moviemind-ai/moviemind/internal/observability"
	"github.com/moviemind-ai/moviemind/internal/retrieval"
	"github.com/moviemind-ai/moviemind/internal/storage"
)

func newTestService(t *testing.T, model llm.ChatModel) *ChatService {
	t.Helper()

	db, err := storage.Open(storage.OpenOptions{Dialect: storage.DialectSQLite, DSN: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	db.SetMaxOpenConns(1)
	require.NoError(t, storage.EnsureSchema(context.Background(), db, storage.DialectSQLite))

	repo := storage.NewMovieRepository(db, storage.DialectSQLite)
	builder := retrieval.NewQueryBuilder(storage.DialectSQLite, 10, 50)
	embedder := embedding.NewMockEmbedder(8)
	index, err := retrieval.NewFlatIndex(embedder.Dimension())
	require.NoError(t, err)
	retriever := retrieval.NewRetriever(repo, builder, index, embedder, cache.NewMemoryClient(10), observability.Nop(), retrieval.RetrieverConfig{})

	assistant := chat.NewAssistant(model, retriever, observability.Nop(), chat.AssistantConfig{})
	return NewChatService(observability.Nop(), assistant, chat.NewSessionStore(5))
}

func TestChat_AssignsSessionAndReplies(t *testing.T) {
	model := llm.NewScriptedModel(
		llm.TextCompletion("Hello there."),
		llm.TextCompletion("Still here."),
	)
	svc := newTestService(t, model)

	resp, err := svc.Chat(context.Background(), connect.NewRequest(&ChatRequest{Input: "hi"}))
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Msg.SessionID)
	assert.Equal(t, "Hello there.", resp.Msg.Message)

	// Reusing the session ID continues the same conversation.
	resp2, err := svc.Chat(context.Background(), connect.NewRequest(&ChatRequest{
		SessionID: resp.Msg.SessionID,
		Input:     "again",
	}))
	require.NoError(t, err)
	assert.Equal(t, resp.Msg.SessionID, resp2.Msg.SessionID)

	session, ok := svc.sessions.Get(resp.Msg.SessionID)
	require.True(t, ok)
	assert.Equal(t, 2, session.History.Len())
}

func TestChat_RejectsEmptyInput(t *testing.T) {
	svc := newTestService(t, llm.NewScriptedModel())

	_, err := svc.Chat(context.Background(), connect.NewRequest(&ChatRequest{}))
	require.Error(t, err)
	assert.Equal(t, connect.CodeInvalidArgument, connect.CodeOf(err))
}
