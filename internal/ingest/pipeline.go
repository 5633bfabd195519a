package ingest

import (
	"context"
	"fmt"
	"sync"

	"github.com/moviemind-ai/moviemind/internal/embedding"
	"github.com/moviemind-ai/moviemind/internal/observability"
	"github.com/moviemind-ai/moviemind/internal/retrieval"
	"github.com/moviemind-ai/moviemind/internal/storage"
)

// Fetcher yields one page of movies. Implemented by CatalogClient.
type Fetcher interface {
	FetchPage(ctx context.Context, page int) ([]storage.Movie, error)
}

// PipelineConfig controls an ingestion run.
type PipelineConfig struct {
	// StartPage is the first catalog page to fetch. Defaults to 1.
	StartPage int

	// MaxPages bounds the run. Zero means fetch until the catalog is
	// exhausted.
	MaxPages int

	// IndexPath is where the vector index is persisted after each batch.
	// Empty disables persistence.
	IndexPath string
}

// Result summarizes an ingestion run.
type Result struct {
	PagesFetched int
	Fetched      int
	Inserted     int
	Indexed      int
}

// ProgressFunc is called after each page with the running result.
type ProgressFunc func(Result)

// Pipeline pulls movies from the catalog API into storage and the vector
// index. Runs are serialized: re-running against the same catalog is safe
// because only newly inserted rows are embedded and indexed.
type Pipeline struct {
	mu       sync.Mutex
	fetcher  Fetcher
	repo     *storage.MovieRepository
	embedder embedding.Embedder
	index    *retrieval.FlatIndex
	logger   *observability.Logger
}

// NewPipeline wires an ingestion pipeline.
func NewPipeline(
	fetcher Fetcher,
	repo *storage.MovieRepository,
	embedder embedding.Embedder,
	index *retrieval.FlatIndex,
	logger *observability.Logger,
) *Pipeline {
	return &Pipeline{
		fetcher:  fetcher,
		repo:     repo,
		embedder: embedder,
		index:    index,
		logger:   logger.WithComponent("ingest"),
	}
}

// Run fetches pages until the catalog is exhausted or MaxPages is reached.
// Each page is committed as one batch: upsert, embed the new rows, add them
// to the index in a single call, then persist the index.
func (p *Pipeline) Run(ctx context.Context, cfg PipelineConfig, progress ProgressFunc) (Result, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	page := cfg.StartPage
	if page <= 0 {
		page = 1
	}

	var result Result
	for {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if cfg.MaxPages > 0 && result.PagesFetched >= cfg.MaxPages {
			break
		}

		movies, err := p.fetcher.FetchPage(ctx, page)
		if err != nil {
			return result, fmt.Errorf("fetch page %d: %w", page, err)
		}
		if len(movies) == 0 {
			break
		}
		result.PagesFetched++
		result.Fetched += len(movies)

		inserted, indexed, err := p.ingestBatch(ctx, movies, cfg.IndexPath)
		if err != nil {
			return result, fmt.Errorf("ingest page %d: %w", page, err)
		}
		result.Inserted += inserted
		result.Indexed += indexed

		p.logger.Info().
			Int("page", page).
			Int("fetched", len(movies)).
			Int("inserted", inserted).
			Msg("Ingested catalog page")

		if progress != nil {
			progress(result)
		}
		page++
	}

	return result, nil
}

// ingestBatch stores one page and indexes only the rows the upsert actually
// inserted, keeping the index free of duplicates across runs.
func (p *Pipeline) ingestBatch(ctx context.Context, movies []storage.Movie, indexPath string) (inserted, indexed int, err error) {
	insertedIDs, err := p.repo.UpsertBatch(ctx, movies)
	if err != nil {
		return 0, 0, err
	}
	if len(insertedIDs) == 0 {
		return 0, 0, nil
	}

	byID := make(map[int64]storage.Movie, len(movies))
	for _, m := range movies {
		byID[m.ID] = m
	}

	texts := make([]string, len(insertedIDs))
	for i, id := range insertedIDs {
		m := byID[id]
		texts[i] = embeddingText(m)
	}

	vectors, err := p.embedder.Embed(ctx, texts)
	if err != nil {
		return len(insertedIDs), 0, fmt.Errorf("embed batch: %w", err)
	}

	if err := p.index.AddVectors(ctx, vectors, insertedIDs); err != nil {
		return len(insertedIDs), 0, fmt.Errorf("index batch: %w", err)
	}

	if indexPath != "" {
		if err := p.index.Persist(indexPath); err != nil {
			return len(insertedIDs), len(insertedIDs), fmt.Errorf("persist index: %w", err)
		}
	}
	return len(insertedIDs), len(insertedIDs), nil
}

// embeddingText is the text embedded for a movie. Title plus overview gives
// the index something to match free-text queries against.
func embeddingText(m storage.Movie) string {
	if m.Overview == "" {
		return m.Title
	}
	return m.Title + " " + m.Overview
}
