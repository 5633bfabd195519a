package ingest

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moviemind-ai/moviemind/internal/embedding"
	"github.com/moviemind-ai/moviemind/internal/observability"
	"github.com/moviemind-ai/moviemind/internal/retrieval"
	"github.com/moviemind-ai/moviemind/internal/storage"
)

// fakeFetcher serves fixed pages.
type fakeFetcher struct {
	pages [][]storage.Movie
	calls int
}

func (f *fakeFetcher) FetchPage(ctx context.Context, page int) ([]storage.Movie, error) {
	f.calls++
	if page-1 >= len(f.pages) {
		return nil, nil
	}
	return f.pages[page-1], nil
}

type failingFetcher struct{}

func (failingFetcher) FetchPage(ctx context.Context, page int) ([]storage.Movie, error) {
	return nil, fmt.Errorf("catalog down")
}

func newTestPipeline(t *testing.T, fetcher Fetcher) (*Pipeline, *storage.MovieRepository, *retrieval.FlatIndex) {
	t.Helper()

	db, err := storage.Open(storage.OpenOptions{Dialect: storage.DialectSQLite, DSN: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	db.SetMaxOpenConns(1)
	require.NoError(t, storage.EnsureSchema(context.Background(), db, storage.DialectSQLite))

	repo := storage.NewMovieRepository(db, storage.DialectSQLite)
	embedder := embedding.NewMockEmbedder(8)
	index, err := retrieval.NewFlatIndex(embedder.Dimension())
	require.NoError(t, err)

	return NewPipeline(fetcher, repo, embedder, index, observability.Nop()), repo, index
}

func catalogPages() [][]storage.Movie {
	return [][]storage.Movie{
		{
			{ID: 1, Title: "Inception", Overview: "Dream heist."},
			{ID: 2, Title: "Interstellar", Overview: "Space epic."},
		},
		{
			{ID: 3, Title: "Parasite", Overview: "Class satire."},
		},
	}
}

func TestPipeline_RunFetchesUntilEmptyPage(t *testing.T) {
	fetcher := &fakeFetcher{pages: catalogPages()}
	p, repo, index := newTestPipeline(t, fetcher)

	result, err := p.Run(context.Background(), PipelineConfig{}, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, result.PagesFetched)
	assert.Equal(t, 3, result.Fetched)
	assert.Equal(t, 3, result.Inserted)
	assert.Equal(t, 3, result.Indexed)
	assert.Equal(t, 3, index.Len())

	count, err := repo.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
}

func TestPipeline_RerunIsIdempotent(t *testing.T) {
	p, _, index := newTestPipeline(t, &fakeFetcher{pages: catalogPages()})

	_, err := p.Run(context.Background(), PipelineConfig{}, nil)
	require.NoError(t, err)

	// Same catalog again: nothing new inserted, nothing re-indexed.
	p.fetcher = &fakeFetcher{pages: catalogPages()}
	result, err := p.Run(context.Background(), PipelineConfig{}, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, result.Fetched)
	assert.Equal(t, 0, result.Inserted)
	assert.Equal(t, 0, result.Indexed)
	assert.Equal(t, 3, index.Len())
}

func TestPipeline_MaxPagesBoundsRun(t *testing.T) {
	p, _, _ := newTestPipeline(t, &fakeFetcher{pages: catalogPages()})

	result, err := p.Run(context.Background(), PipelineConfig{MaxPages: 1}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, result.PagesFetched)
	assert.Equal(t, 2, result.Fetched)
}

func TestPipeline_ProgressCallback(t *testing.T) {
	p, _, _ := newTestPipeline(t, &fakeFetcher{pages: catalogPages()})

	var updates []Result
	_, err := p.Run(context.Background(), PipelineConfig{}, func(r Result) {
		updates = append(updates, r)
	})
	require.NoError(t, err)
	require.Len(t, updates, 2)
	assert.Equal(t, 2, updates[0].Fetched)
	assert.Equal(t, 3, updates[1].Fetched)
}

func TestPipeline_FetchErrorStopsRun(t *testing.T) {
	p, repo, _ := newTestPipeline(t, failingFetcher{})

	_, err := p.Run(context.Background(), PipelineConfig{}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "catalog down")

	count, err := repo.Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestPipeline_PersistsIndexWhenConfigured(t *testing.T) {
	path := t.TempDir() + "/movies.index"
	p, _, _ := newTestPipeline(t, &fakeFetcher{pages: catalogPages()})

	_, err := p.Run(context.Background(), PipelineConfig{IndexPath: path}, nil)
	require.NoError(t, err)

	restored, err := retrieval.NewFlatIndex(8)
	require.NoError(t, err)
	require.NoError(t, restored.Restore(path))
	assert.Equal(t, 3, restored.Len())
}
