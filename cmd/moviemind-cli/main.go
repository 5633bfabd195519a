// Package main provides the MovieMind CLI entrypoint.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/moviemind-ai/moviemind/internal/config"
	"github.com/moviemind-ai/moviemind/internal/observability"
)

var (
	// Global flags
	cfgFile string
	verbose bool
	noColor bool

	// Configuration and logger
	cfg    *config.Config
	logger *observability.Logger
)

// rootCmd represents the base command.
var rootCmd = &cobra.Command{
	Use:   "moviemind",
	Short: "MovieMind CLI for chatting with and managing the movie catalog",
	Long: `MovieMind is a movie conversation assistant backed by a local catalog.

Use this tool to:
- Chat about movies, with structured catalog lookups when needed
- Ingest popular movies from the catalog API
- Run one-off semantic searches against the vector index

Set OPENAI_API_KEY for chat and search, MOVIE_API_KEY for ingestion.
A .env file in the working directory is loaded automatically.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		_ = godotenv.Load()

		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		level := cfg.Observability.LogLevel
		if !verbose {
			// Keep interactive output clean unless asked otherwise.
			level = "warn"
		}

		logger = observability.NewLogger(observability.LogConfig{
			Level:       level,
			Format:      "console",
			ServiceName: "moviemind-cli",
		})
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path (default: uses env vars)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
