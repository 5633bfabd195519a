// Package storage provides the movie catalog model and repository.
package storage

import "time"

// Movie is a catalog item. Rows are created by ingestion and are read-only
// to the retrieval path; the unique identifier comes from the upstream
// catalog API.
type Movie struct {
	ID               int64
	Title            string
	Overview         string
	ReleaseDate      *time.Time
	Popularity       float64
	VoteAverage      float64
	Adult            bool
	OriginalLanguage string
}

// Columns lists the movie columns in the order Query scans them.
const Columns = "id, title, overview, release_date, popularity, vote_average, adult, original_language"
