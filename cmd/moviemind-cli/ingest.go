package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/moviemind-ai/moviemind/internal/app"
	"github.com/moviemind-ai/moviemind/internal/ingest"
)

var (
	ingestStartPage int
	ingestMaxPages  int
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Load popular movies from the catalog API",
	Long: `Fetch pages of popular movies from the catalog API, store them in the
database, and index them for semantic search.

Re-running is safe: movies already in the catalog are skipped and never
indexed twice. Requires MOVIE_API_KEY and OPENAI_API_KEY.`,
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().IntVar(&ingestStartPage, "start-page", 1, "first catalog page to fetch")
	ingestCmd.Flags().IntVar(&ingestMaxPages, "pages", 0, "number of pages to fetch (default: from config)")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	apiKey := os.Getenv("MOVIE_API_KEY")
	if apiKey == "" {
		return fmt.Errorf("MOVIE_API_KEY environment variable is required")
	}

	application, err := app.New(cfg, logger, app.Options{})
	if err != nil {
		return err
	}
	defer application.Close()

	client, err := ingest.NewCatalogClient(ingest.CatalogConfig{
		BaseURL: cfg.Catalog.BaseURL,
		APIKey:  apiKey,
	})
	if err != nil {
		return err
	}

	maxPages := ingestMaxPages
	if maxPages <= 0 {
		maxPages = cfg.Catalog.Pages
	}

	pipeline := ingest.NewPipeline(client, application.Repo, application.Embedder, application.Index, logger)

	bar := newProgressBar(int64(maxPages), "Ingesting catalog pages")
	result, err := pipeline.Run(cmd.Context(), ingest.PipelineConfig{
		StartPage: ingestStartPage,
		MaxPages:  maxPages,
		IndexPath: cfg.Vector.IndexPath,
	}, func(r ingest.Result) {
		_ = bar.Set64(int64(r.PagesFetched))
	})
	_ = bar.Finish()
	if err != nil {
		return err
	}

	printSuccess("Ingested %d movies across %d pages (%d new, %d indexed)",
		result.Fetched, result.PagesFetched, result.Inserted, result.Indexed)
	return nil
}
