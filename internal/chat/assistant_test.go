package chat

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moviemind-ai/moviemind/internal/embedding"
	"github.com/moviemind-ai/moviemind/internal/llm"
	"github.com/moviemind-ai/moviemind/internal/observability"
	"github.com/moviemind-ai/moviemind/internal/retrieval"
	"github.com/moviemind-ai/moviemind/internal/storage"
)

func newTestRetriever(t *testing.T, seed bool) *retrieval.Retriever {
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

	if seed {
		release := time.Date(2010, time.July, 16, 0, 0, 0, 0, time.UTC)
		movies := []storage.Movie{
			{ID: 1, Title: "Inception", Overview: "Dream heist thriller.", ReleaseDate: &release, Popularity: 83, VoteAverage: 8.4, OriginalLanguage: "en"},
		}
		_, err := repo.UpsertBatch(context.Background(), movies)
		require.NoError(t, err)

		vectors, err := embedder.Embed(context.Background(), []string{"Inception Dream heist thriller."})
		require.NoError(t, err)
		require.NoError(t, index.AddVectors(context.Background(), vectors, []int64{1}))
	}

	return retrieval.NewRetriever(repo, builder, index, embedder, nil, observability.Nop(), retrieval.RetrieverConfig{})
}

func newTestAssistant(t *testing.T, model llm.ChatModel, seed bool) *Assistant {
	t.Helper()
	return NewAssistant(model, newTestRetriever(t, seed), observability.Nop(), AssistantConfig{})
}

func TestRespond_DirectAnswer(t *testing.T) {
	model := llm.NewScriptedModel(llm.TextCompletion("Christopher Nolan directed Inception."))
	a := newTestAssistant(t, model, true)
	history := NewHistory(5)

	reply, err := a.Respond(context.Background(), history, "Who directed Inception?")
	require.NoError(t, err)
	assert.Equal(t, "Christopher Nolan directed Inception.", reply)

	turns := history.Turns()
	require.Len(t, turns, 1)
	assert.Equal(t, "Who directed Inception?", turns[0].User)
	assert.Equal(t, reply, turns[0].Bot)
}

func TestRespond_DirectAnswerTrimmed(t *testing.T) {
	model := llm.NewScriptedModel(llm.TextCompletion("\n  Nolan directed it.  \n"))
	a := newTestAssistant(t, model, true)
	history := NewHistory(5)

	reply, err := a.Respond(context.Background(), history, "Who directed Inception?")
	require.NoError(t, err)
	assert.Equal(t, "Nolan directed it.", reply)
	assert.Equal(t, "Nolan directed it.", history.Turns()[0].Bot)
}

func TestRespond_RetrievalToolCall(t *testing.T) {
	model := llm.NewScriptedModel(llm.ToolCompletion(ToolName, `{"release_date": 2010}`))
	a := newTestAssistant(t, model, true)
	history := NewHistory(5)

	reply, err := a.Respond(context.Background(), history, "What came out in 2010?")
	require.NoError(t, err)
	assert.Contains(t, reply, "Inception")
	assert.Contains(t, reply, "July 16, 2010")
	assert.Contains(t, reply, "rating: 8.4")
	assert.Equal(t, 1, history.Len())
}

func TestRespond_FilteredOrderedToolCall(t *testing.T) {
	model := llm.NewScriptedModel(llm.ToolCompletion(ToolName,
		`{"adult": true, "release_date": "2021", "order_by": "popularity", "order_direction": "desc", "limit": 3}`))

	db, err := storage.Open(storage.OpenOptions{Dialect: storage.DialectSQLite, DSN: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	db.SetMaxOpenConns(1)
	require.NoError(t, storage.EnsureSchema(context.Background(), db, storage.DialectSQLite))

	in2021 := time.Date(2021, time.March, 5, 0, 0, 0, 0, time.UTC)
	in2019 := time.Date(2019, time.March, 5, 0, 0, 0, 0, time.UTC)
	repo := storage.NewMovieRepository(db, storage.DialectSQLite)
	_, err = repo.UpsertBatch(context.Background(), []storage.Movie{
		{ID: 1, Title: "Night Circuit", ReleaseDate: &in2021, Popularity: 40, Adult: true},
		{ID: 2, Title: "Crimson Hour", ReleaseDate: &in2021, Popularity: 90, Adult: true},
		{ID: 3, Title: "Velvet Static", ReleaseDate: &in2021, Popularity: 70, Adult: true},
		{ID: 4, Title: "Paper Moons", ReleaseDate: &in2021, Popularity: 95, Adult: false},
		{ID: 5, Title: "Last Ember", ReleaseDate: &in2019, Popularity: 99, Adult: true},
		{ID: 6, Title: "Glass Orchard", ReleaseDate: &in2021, Popularity: 60, Adult: true},
	})
	require.NoError(t, err)

	builder := retrieval.NewQueryBuilder(storage.DialectSQLite, 10, 50)
	embedder := embedding.NewMockEmbedder(8)
	index, err := retrieval.NewFlatIndex(8)
	require.NoError(t, err)
	retriever := retrieval.NewRetriever(repo, builder, index, embedder, nil, observability.Nop(), retrieval.RetrieverConfig{})
	a := NewAssistant(model, retriever, observability.Nop(), AssistantConfig{})

	reply, err := a.Respond(context.Background(), NewHistory(5), "top adult movies from 2021?")
	require.NoError(t, err)

	// Four adult 2021 entries match; limit 3, most popular first.
	assert.Equal(t, 3, strings.Count(reply, "popularity:"))
	first := strings.Index(reply, "Crimson Hour")
	second := strings.Index(reply, "Velvet Static")
	third := strings.Index(reply, "Glass Orchard")
	require.True(t, first >= 0 && second >= 0 && third >= 0, reply)
	assert.Less(t, first, second)
	assert.Less(t, second, third)
	assert.NotContains(t, reply, "Paper Moons")
	assert.NotContains(t, reply, "Last Ember")
	assert.NotContains(t, reply, "Night Circuit")
}

func TestRespond_MalformedToolCallDegradesToApology(t *testing.T) {
	tests := []struct {
		name string
		call llm.Completion
	}{
		{"unknown tool", llm.ToolCompletion("delete_all_movies", `{}`)},
		{"invalid json", llm.ToolCompletion(ToolName, `{"title":`)},
		{"unknown column", llm.ToolCompletion(ToolName, `{"budget": 100}`)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			model := llm.NewScriptedModel(tt.call)
			a := newTestAssistant(t, model, true)
			history := NewHistory(5)

			reply, err := a.Respond(context.Background(), history, "find me something")
			require.NoError(t, err)
			assert.Equal(t, apologyReply, reply)
			// The degraded exchange still lands in history.
			assert.Equal(t, 1, history.Len())
		})
	}
}

func TestRespond_NoMatches(t *testing.T) {
	model := llm.NewScriptedModel(llm.ToolCompletion(ToolName, `{"title": "Zardoz"}`))
	a := newTestAssistant(t, model, true)

	reply, err := a.Respond(context.Background(), NewHistory(5), "any Zardoz movies?")
	require.NoError(t, err)
	assert.Equal(t, noMatchesReply, reply)
}

func TestRespond_CatalogUnavailable(t *testing.T) {
	model := llm.NewScriptedModel(llm.ToolCompletion(ToolName, `{"title": "Inception"}`))

	// Repository without a schema behind it: every query fails.
	db, err := storage.Open(storage.OpenOptions{Dialect: storage.DialectSQLite, DSN: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	repo := storage.NewMovieRepository(db, storage.DialectSQLite)
	builder := retrieval.NewQueryBuilder(storage.DialectSQLite, 10, 50)
	embedder := embedding.NewMockEmbedder(8)
	index, err := retrieval.NewFlatIndex(8)
	require.NoError(t, err)
	retriever := retrieval.NewRetriever(repo, builder, index, embedder, nil, observability.Nop(), retrieval.RetrieverConfig{})

	a := NewAssistant(model, retriever, observability.Nop(), AssistantConfig{})
	reply, err := a.Respond(context.Background(), NewHistory(5), "find Inception")
	require.NoError(t, err)
	assert.Equal(t, unavailableReply, reply)
}

func TestRespond_HistoryIncludedInModelRequest(t *testing.T) {
	model := llm.NewScriptedModel(
		llm.TextCompletion("It is a 2010 science fiction film."),
		llm.TextCompletion("Christopher Nolan."),
	)
	a := newTestAssistant(t, model, true)
	history := NewHistory(5)

	ctx := context.Background()
	_, err := a.Respond(ctx, history, "Tell me about Inception")
	require.NoError(t, err)
	_, err = a.Respond(ctx, history, "Who directed it?")
	require.NoError(t, err)

	require.Len(t, model.Requests, 2)
	second := model.Requests[1]
	// system + prior exchange + current question
	require.Len(t, second, 4)
	assert.Equal(t, llm.RoleSystem, second[0].Role)
	assert.Equal(t, "Tell me about Inception", second[1].Content)
	assert.Equal(t, "It is a 2010 science fiction film.", second[2].Content)
	assert.Equal(t, "Who directed it?", second[3].Content)
}

func TestRespond_HistoryWindowBoundsModelRequest(t *testing.T) {
	script := make([]llm.Completion, 8)
	for i := range script {
		script[i] = llm.TextCompletion("ok")
	}
	model := llm.NewScriptedModel(script...)
	a := newTestAssistant(t, model, true)
	history := NewHistory(2)

	ctx := context.Background()
	for i := 0; i < 8; i++ {
		_, err := a.Respond(ctx, history, "question")
		require.NoError(t, err)
	}

	last := model.Requests[7]
	// system + 2 windowed exchanges + current question
	assert.Len(t, last, 6)
}

func TestFormatMovies(t *testing.T) {
	release := time.Date(2019, time.May, 30, 0, 0, 0, 0, time.UTC)
	movies := []storage.Movie{
		{Title: "Parasite", ReleaseDate: &release, VoteAverage: 8.5, Popularity: 91, Overview: "Class satire."},
		{Title: "Unknown Date", VoteAverage: 7, Popularity: 10},
	}

	out := FormatMovies(movies)
	lines := strings.Split(out, "\n")
	assert.Equal(t, "1. Parasite (May 30, 2019) | rating: 8.5 | popularity: 91.0", lines[0])
	assert.Equal(t, "   Class satire.", lines[1])
	assert.Equal(t, "2. Unknown Date | rating: 7.0 | popularity: 10.0", lines[2])
}
