// Package app wires configuration into the running services shared by the
// API server and the CLI.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/moviemind-ai/moviemind/internal/cache"
	"github.com/moviemind-ai/moviemind/internal/chat"
	"github.com/moviemind-ai/moviemind/internal/config"
	"github.com/moviemind-ai/moviemind/internal/embedding"
	"github.com/moviemind-ai/moviemind/internal/llm"
	"github.com/moviemind-ai/moviemind/internal/observability"
	"github.com/moviemind-ai/moviemind/internal/retrieval"
	"github.com/moviemind-ai/moviemind/internal/storage"
)

// App holds the wired services.
type App struct {
	Config    *config.Config
	Logger    *observability.Logger
	DB        *sql.DB
	Repo      *storage.MovieRepository
	Index     *retrieval.FlatIndex
	Embedder  embedding.Embedder
	Model     llm.ChatModel
	Cache     cache.Client
	Retriever *retrieval.Retriever
	Assistant *chat.Assistant
	Sessions  *chat.SessionStore
}

// Options tweaks wiring for different entrypoints.
type Options struct {
	// MockModels replaces the OpenAI chat model and embedder with
	// deterministic local ones. Used by the demo command.
	MockModels bool
}

// New wires an App from configuration. The OpenAI API key comes from the
// OPENAI_API_KEY environment variable unless MockModels is set.
func New(cfg *config.Config, logger *observability.Logger, opts Options) (*App, error) {
	a := &App{Config: cfg, Logger: logger}

	dialect := storage.DialectSQLite
	if cfg.Database.Driver == "postgres" {
		dialect = storage.DialectPostgres
	}

	db, err := storage.Open(storage.OpenOptions{
		Dialect:         dialect,
		DSN:             cfg.DatabaseDSN(),
		MaxOpenConns:    cfg.Database.Postgres.MaxOpenConns,
		MaxIdleConns:    cfg.Database.Postgres.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.Postgres.ConnMaxLifetime,
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	a.DB = db

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := storage.EnsureSchema(ctx, db, dialect); err != nil {
		db.Close()
		return nil, err
	}
	a.Repo = storage.NewMovieRepository(db, dialect)

	if err := a.initModels(opts); err != nil {
		db.Close()
		return nil, err
	}

	index, err := retrieval.NewFlatIndex(cfg.Vector.Dimension)
	if err != nil {
		db.Close()
		return nil, err
	}
	if cfg.Vector.IndexPath != "" {
		if err := index.Restore(cfg.Vector.IndexPath); err != nil {
			if errors.Is(err, retrieval.ErrIndexUnavailable) {
				logger.Warn().Err(err).Str("path", cfg.Vector.IndexPath).Msg("Starting with an empty vector index")
			} else {
				db.Close()
				return nil, err
			}
		} else {
			logger.Info().Int("vectors", index.Len()).Msg("Restored vector index")
		}
	}
	a.Index = index

	if err := a.initCache(); err != nil {
		db.Close()
		return nil, err
	}

	cacheTTL := cfg.Chat.CacheTTL
	if !cfg.Chat.CacheResults {
		cacheTTL = 0
	}
	builder := retrieval.NewQueryBuilder(dialect, cfg.Chat.MaxResults, cfg.Chat.ResultCap)
	a.Retriever = retrieval.NewRetriever(a.Repo, builder, index, a.Embedder, a.Cache, logger, retrieval.RetrieverConfig{
		SemanticFallback: cfg.Chat.SemanticFallback,
		SemanticK:        cfg.Chat.SemanticK,
		CacheTTL:         cacheTTL,
	})

	a.Assistant = chat.NewAssistant(a.Model, a.Retriever, logger, chat.AssistantConfig{
		Mode:      chat.Mode(cfg.Chat.Mode),
		SemanticK: cfg.Chat.SemanticK,
	})
	a.Sessions = chat.NewSessionStore(cfg.Chat.HistoryWindow)

	return a, nil
}

func (a *App) initModels(opts Options) error {
	if opts.MockModels {
		a.Embedder = embedding.NewMockEmbedder(a.Config.Vector.Dimension)
		a.Model = llm.NewScriptedModel()
		return nil
	}

	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return fmt.Errorf("OPENAI_API_KEY environment variable is required")
	}

	embedder, err := embedding.NewOpenAIEmbedder(embedding.OpenAIConfig{
		APIKey:    apiKey,
		Model:     a.Config.Embedding.Model,
		BaseURL:   a.Config.LLM.BaseURL,
		Dimension: a.Config.Embedding.Dimension,
	})
	if err != nil {
		return err
	}
	a.Embedder = embedder

	model, err := llm.NewOpenAIModel(llm.OpenAIConfig{
		APIKey:  apiKey,
		Model:   a.Config.LLM.Model,
		BaseURL: a.Config.LLM.BaseURL,
	})
	if err != nil {
		return err
	}
	a.Model = model
	return nil
}

func (a *App) initCache() error {
	if a.Config.Cache.Driver == "redis" {
		client, err := cache.NewRedisClient(cache.RedisConfig{
			Addr:     a.Config.Cache.Redis.Addr,
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       a.Config.Cache.Redis.DB,
			PoolSize: a.Config.Cache.Redis.PoolSize,
		})
		if err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		a.Cache = client
		return nil
	}
	a.Cache = cache.NewMemoryClient(a.Config.Cache.MaxEntries)
	return nil
}

// Close releases held connections.
func (a *App) Close() {
	if a.Cache != nil {
		if err := a.Cache.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Cache close failed")
		}
	}
	if a.DB != nil {
		if err := a.DB.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Database close failed")
		}
	}
}
