// Package integration provides integration tests for MovieMind against real
// infrastructure.
package integration

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/moviemind-ai/moviemind/internal/retrieval"
	"github.com/moviemind-ai/moviemind/internal/storage"
)

// setupPostgres starts a disposable Postgres container and returns a
// repository backed by it.
func setupPostgres(t *testing.T) *storage.MovieRepository {
	t.Helper()
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:17-alpine",
		postgres.WithDatabase("moviemind_test"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = container.Terminate(context.Background())
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := storage.Open(storage.OpenOptions{Dialect: storage.DialectPostgres, DSN: dsn})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, storage.EnsureSchema(ctx, db, storage.DialectPostgres))
	return storage.NewMovieRepository(db, storage.DialectPostgres)
}

func skipWithoutDocker(t *testing.T) {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	provider, err := testcontainers.NewDockerProvider()
	if err != nil {
		t.Skip("Docker not available")
	}
	defer provider.Close()
	if _, err := provider.Client().Ping(ctx); err != nil {
		t.Skip("Docker not available")
	}
}

func seedMovies() []storage.Movie {
	date := func(y int, m time.Month, d int) *time.Time {
		v := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
		return &v
	}
	return []storage.Movie{
		{ID: 27205, Title: "Inception", Overview: "Dream heist.", ReleaseDate: date(2010, time.July, 16), Popularity: 83.4, VoteAverage: 8.4, OriginalLanguage: "en"},
		{ID: 157336, Title: "Interstellar", Overview: "Space epic.", ReleaseDate: date(2014, time.November, 5), Popularity: 140.2, VoteAverage: 8.4, OriginalLanguage: "en"},
		{ID: 496243, Title: "Parasite", Overview: "Class satire.", ReleaseDate: date(2019, time.May, 30), Popularity: 91.0, VoteAverage: 8.5, OriginalLanguage: "ko"},
	}
}

func TestPostgres_UpsertIdempotence(t *testing.T) {
	skipWithoutDocker(t)
	repo := setupPostgres(t)
	ctx := context.Background()

	inserted, err := repo.UpsertBatch(ctx, seedMovies())
	require.NoError(t, err)
	assert.Len(t, inserted, 3)

	inserted, err = repo.UpsertBatch(ctx, seedMovies())
	require.NoError(t, err)
	assert.Empty(t, inserted)

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
}

func TestPostgres_StructuredQueries(t *testing.T) {
	skipWithoutDocker(t)
	repo := setupPostgres(t)
	ctx := context.Background()

	_, err := repo.UpsertBatch(ctx, seedMovies())
	require.NoError(t, err)

	builder := retrieval.NewQueryBuilder(storage.DialectPostgres, 10, 50)

	t.Run("year extraction", func(t *testing.T) {
		spec := &retrieval.FilterSpec{Filters: []retrieval.Filter{
			{Column: "release_date", Value: retrieval.Value{Kind: retrieval.KindNumber, Number: 2014}},
		}}
		query, params, err := builder.Build(spec)
		require.NoError(t, err)

		movies, err := repo.Query(ctx, query, params...)
		require.NoError(t, err)
		require.Len(t, movies, 1)
		assert.Equal(t, "Interstellar", movies[0].Title)
	})

	t.Run("case-insensitive title match", func(t *testing.T) {
		spec := &retrieval.FilterSpec{Filters: []retrieval.Filter{
			{Column: "title", Value: retrieval.Value{Kind: retrieval.KindText, Text: "incep"}},
		}}
		query, params, err := builder.Build(spec)
		require.NoError(t, err)

		movies, err := repo.Query(ctx, query, params...)
		require.NoError(t, err)
		require.Len(t, movies, 1)
		assert.Equal(t, "Inception", movies[0].Title)
	})

	t.Run("normalized date equality", func(t *testing.T) {
		spec := &retrieval.FilterSpec{Filters: []retrieval.Filter{
			{Column: "release_date", Value: retrieval.Value{Kind: retrieval.KindText, Text: "30-05-2019"}},
		}}
		query, params, err := builder.Build(spec)
		require.NoError(t, err)

		movies, err := repo.Query(ctx, query, params...)
		require.NoError(t, err)
		require.Len(t, movies, 1)
		assert.Equal(t, "Parasite", movies[0].Title)
	})

	t.Run("ordered with limit", func(t *testing.T) {
		spec := &retrieval.FilterSpec{OrderBy: "popularity", OrderDirection: "desc", Limit: 2}
		query, params, err := builder.Build(spec)
		require.NoError(t, err)

		movies, err := repo.Query(ctx, query, params...)
		require.NoError(t, err)
		require.Len(t, movies, 2)
		assert.Equal(t, "Interstellar", movies[0].Title)
		assert.Equal(t, "Parasite", movies[1].Title)
	})
}
