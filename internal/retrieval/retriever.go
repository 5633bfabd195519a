package retrieval

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/moviemind-ai/moviemind/internal/cache"
	"github.com/moviemind-ai/moviemind/internal/embedding"
	"github.com/moviemind-ai/moviemind/internal/observability"
	"github.com/moviemind-ai/moviemind/internal/storage"
)

// RetrieverConfig controls fallback and caching behavior.
type RetrieverConfig struct {
	// SemanticFallback runs a semantic search when a structured query
	// returns no rows.
	SemanticFallback bool

	// SemanticK is the neighbor count for semantic searches.
	SemanticK int

	// CacheTTL bounds how long semantic results stay cached. Zero disables
	// caching even when a cache client is present.
	CacheTTL time.Duration
}

// Retriever answers movie queries. Structured filters go through the query
// builder into SQL; free-text queries go through the vector index. The index
// only ever holds IDs, so result rows always come from the catalog store.
type Retriever struct {
	repo     *storage.MovieRepository
	builder  *QueryBuilder
	index    *FlatIndex
	embedder embedding.Embedder
	cache    cache.Client
	logger   *observability.Logger
	cfg      RetrieverConfig
}

// NewRetriever wires a retriever. cache may be nil.
func NewRetriever(
	repo *storage.MovieRepository,
	builder *QueryBuilder,
	index *FlatIndex,
	embedder embedding.Embedder,
	cacheClient cache.Client,
	logger *observability.Logger,
	cfg RetrieverConfig,
) *Retriever {
	if cfg.SemanticK <= 0 {
		cfg.SemanticK = 5
	}
	return &Retriever{
		repo:     repo,
		builder:  builder,
		index:    index,
		embedder: embedder,
		cache:    cacheClient,
		logger:   logger.WithComponent("retriever"),
		cfg:      cfg,
	}
}

// Search runs a structured query built from the filter spec. When the query
// matches nothing and semantic fallback is enabled, the raw user text is
// searched against the vector index instead.
func (r *Retriever) Search(ctx context.Context, spec *FilterSpec, userText string) ([]storage.Movie, error) {
	query, params, err := r.builder.Build(spec)
	if err != nil {
		return nil, err
	}

	r.logger.Debug().
		Str("query", query).
		Int("params", len(params)).
		Msg("Executing structured query")

	movies, err := r.repo.Query(ctx, query, params...)
	if err != nil {
		return nil, err
	}

	if len(movies) == 0 && r.cfg.SemanticFallback && userText != "" {
		r.logger.Debug().Str("text", userText).Msg("Structured query empty, falling back to semantic search")
		return r.SearchSemantic(ctx, userText, r.cfg.SemanticK)
	}
	return movies, nil
}

// SearchSemantic embeds the text and returns the k nearest movies from the
// vector index, closest first.
func (r *Retriever) SearchSemantic(ctx context.Context, text string, k int) ([]storage.Movie, error) {
	if k <= 0 {
		k = r.cfg.SemanticK
	}

	cacheKey := cache.Key("semantic", strconv.Itoa(k), text)
	if ids, ok := r.cachedIDs(ctx, cacheKey); ok {
		return r.repo.GetByIDs(ctx, ids)
	}

	vector, err := r.embedder.EmbedSingle(ctx, text)
	if err != nil {
		return nil, err
	}

	neighbors, err := r.index.Search(ctx, vector, k)
	if err != nil {
		return nil, err
	}

	ids := make([]int64, len(neighbors))
	for i, n := range neighbors {
		ids[i] = n.ID
	}
	r.storeIDs(ctx, cacheKey, ids)

	return r.repo.GetByIDs(ctx, ids)
}

func (r *Retriever) cachedIDs(ctx context.Context, key string) ([]int64, bool) {
	if r.cache == nil || r.cfg.CacheTTL <= 0 {
		return nil, false
	}
	raw, err := r.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, cache.ErrCacheMiss) {
			r.logger.Warn().Err(err).Msg("Semantic cache read failed")
		}
		return nil, false
	}
	var ids []int64
	if err := json.Unmarshal(raw, &ids); err != nil {
		return nil, false
	}
	return ids, true
}

func (r *Retriever) storeIDs(ctx context.Context, key string, ids []int64) {
	if r.cache == nil || r.cfg.CacheTTL <= 0 {
		return
	}
	raw, err := json.Marshal(ids)
	if err != nil {
		return
	}
	if err := r.cache.Set(ctx, key, raw, r.cfg.CacheTTL); err != nil {
		r.logger.Warn().Err(err).Msg("Semantic cache write failed")
	}
}
