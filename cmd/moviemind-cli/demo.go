package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/moviemind-ai/moviemind/internal/app"
	"github.com/moviemind-ai/moviemind/internal/chat"
	"github.com/moviemind-ai/moviemind/internal/retrieval"
	"github.com/moviemind-ai/moviemind/internal/storage"
)

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Seed a tiny catalog and run example queries offline",
	Long: `Run the retrieval stack end to end without any API keys: seed a small
catalog into the configured database, index it with the deterministic local
embedder, and print the results of a few structured and semantic queries.`,
	RunE: runDemo,
}

func init() {
	rootCmd.AddCommand(demoCmd)
}

func demoMovies() []storage.Movie {
	date := func(y int, m time.Month, d int) *time.Time {
		t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
		return &t
	}
	return []storage.Movie{
		{ID: 27205, Title: "Inception", Overview: "A thief enters dreams to plant an idea.", ReleaseDate: date(2010, time.July, 16), Popularity: 83.4, VoteAverage: 8.4, OriginalLanguage: "en"},
		{ID: 157336, Title: "Interstellar", Overview: "Explorers travel through a wormhole to save humanity.", ReleaseDate: date(2014, time.November, 5), Popularity: 140.2, VoteAverage: 8.4, OriginalLanguage: "en"},
		{ID: 496243, Title: "Parasite", Overview: "A poor family schemes its way into a wealthy household.", ReleaseDate: date(2019, time.May, 30), Popularity: 91.0, VoteAverage: 8.5, OriginalLanguage: "ko"},
		{ID: 603, Title: "The Matrix", Overview: "A hacker discovers reality is a simulation.", ReleaseDate: date(1999, time.March, 31), Popularity: 104.6, VoteAverage: 8.2, OriginalLanguage: "en"},
	}
}

func runDemo(cmd *cobra.Command, args []string) error {
	application, err := app.New(cfg, logger, app.Options{MockModels: true})
	if err != nil {
		return err
	}
	defer application.Close()

	ctx := cmd.Context()
	movies := demoMovies()
	inserted, err := application.Repo.UpsertBatch(ctx, movies)
	if err != nil {
		return err
	}
	if len(inserted) > 0 {
		if err := indexDemoMovies(ctx, application, movies, inserted); err != nil {
			return err
		}
	}
	printSuccess("Catalog seeded with %d movies (%d new)", len(movies), len(inserted))

	fmt.Println("\nMovies from 2010:")
	spec := &retrieval.FilterSpec{Filters: []retrieval.Filter{
		{Column: "release_date", Value: retrieval.Value{Kind: retrieval.KindNumber, Number: 2010}},
	}}
	results, err := application.Retriever.Search(ctx, spec, "")
	if err != nil {
		return err
	}
	fmt.Println(chat.FormatMovies(results))

	fmt.Println("\nTop rated, best first:")
	spec = &retrieval.FilterSpec{OrderBy: "vote_average", OrderDirection: "desc", Limit: 3}
	results, err = application.Retriever.Search(ctx, spec, "")
	if err != nil {
		return err
	}
	fmt.Println(chat.FormatMovies(results))

	fmt.Println("\nSemantic neighbors of \"dream heist\":")
	results, err = application.Retriever.SearchSemantic(ctx, "dream heist", 2)
	if err != nil {
		return err
	}
	fmt.Println(chat.FormatMovies(results))

	return nil
}

func indexDemoMovies(ctx context.Context, application *app.App, movies []storage.Movie, insertedIDs []int64) error {
	byID := make(map[int64]storage.Movie, len(movies))
	for _, m := range movies {
		byID[m.ID] = m
	}

	texts := make([]string, len(insertedIDs))
	for i, id := range insertedIDs {
		m := byID[id]
		texts[i] = m.Title + " " + m.Overview
	}

	vectors, err := application.Embedder.Embed(ctx, texts)
	if err != nil {
		return err
	}
	return application.Index.AddVectors(ctx, vectors, insertedIDs)
}
