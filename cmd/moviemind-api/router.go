// Package main provides the API router setup.
package main

import (
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/moviemind-ai/moviemind/cmd/moviemind-api/handlers"
	"github.com/moviemind-ai/moviemind/cmd/moviemind-api/middleware"
	"github.com/moviemind-ai/moviemind/internal/api/rpc"
	"github.com/moviemind-ai/moviemind/internal/app"
	"github.com/moviemind-ai/moviemind/internal/ingest"
	"github.com/moviemind-ai/moviemind/internal/observability"
)

// NewRouter creates the main API router with all routes configured.
func NewRouter(logger *observability.Logger, application *app.App) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS([]string{"*"}))
	r.Use(chimiddleware.Timeout(application.Config.Server.WriteTimeout))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"healthy","service":"moviemind"}`))
	})

	r.Get("/ready", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := application.DB.PingContext(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status":"unavailable"}`))
			return
		}
		w.Write([]byte(`{"status":"ready"}`))
	})

	chatHandler := handlers.NewChatHandler(logger, application.Assistant, application.Sessions)
	wsHandler := handlers.NewWSHandler(logger, application.Assistant, application.Sessions)
	ingestHandler := handlers.NewIngestHandler(logger, newPipeline(logger, application), ingest.PipelineConfig{
		MaxPages:  application.Config.Catalog.Pages,
		IndexPath: application.Config.Vector.IndexPath,
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/chat", chatHandler.Chat)
		r.Delete("/chat/{sessionId}", chatHandler.ResetSession)
		r.Get("/chat/ws", wsHandler.Chat)
		r.Post("/ingest", ingestHandler.Ingest)
	})

	// Connect endpoint for RPC clients.
	chatService := rpc.NewChatService(logger, application.Assistant, application.Sessions)
	r.Handle(chatService.Handler())

	return r
}

// newPipeline builds the ingestion pipeline when the catalog API key is set.
func newPipeline(logger *observability.Logger, application *app.App) *ingest.Pipeline {
	apiKey := os.Getenv("MOVIE_API_KEY")
	if apiKey == "" {
		logger.Warn().Msg("MOVIE_API_KEY not set, ingestion endpoint disabled")
		return nil
	}

	client, err := ingest.NewCatalogClient(ingest.CatalogConfig{
		BaseURL: application.Config.Catalog.BaseURL,
		APIKey:  apiKey,
	})
	if err != nil {
		logger.Warn().Err(err).Msg("Catalog client unavailable, ingestion endpoint disabled")
		return nil
	}

	return ingest.NewPipeline(client, application.Repo, application.Embedder, application.Index, logger)
}
