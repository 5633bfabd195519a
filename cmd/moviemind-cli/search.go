package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/moviemind-ai/moviemind/internal/app"
	"github.com/moviemind-ai/moviemind/internal/chat"
)

var searchK int

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Run a one-off semantic search against the vector index",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchK, "results", "k", 5, "number of results")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	application, err := app.New(cfg, logger, app.Options{})
	if err != nil {
		return err
	}
	defer application.Close()

	if application.Index.Len() == 0 {
		return fmt.Errorf("vector index is empty, run \"moviemind ingest\" first")
	}

	query := strings.Join(args, " ")
	s := newSpinner("searching...")
	s.Start()
	movies, err := application.Retriever.SearchSemantic(cmd.Context(), query, searchK)
	s.Stop()
	if err != nil {
		return err
	}

	if len(movies) == 0 {
		fmt.Println("No matches.")
		return nil
	}
	fmt.Println(chat.FormatMovies(movies))
	return nil
}
