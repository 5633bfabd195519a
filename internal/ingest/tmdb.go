// Package ingest loads movies from a catalog API into the database and the
// vector index.
package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/moviemind-ai/moviemind/internal/retrieval"
	"github.com/moviemind-ai/moviemind/internal/storage"
)

// CatalogClient fetches popular movies from a TMDB-style HTTP API.
type CatalogClient struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	language   string
}

// CatalogConfig holds catalog API settings.
type CatalogConfig struct {
	BaseURL  string
	APIKey   string
	Language string // default "en-US"
	Timeout  time.Duration
}

// NewCatalogClient creates a client for the movie catalog API.
func NewCatalogClient(cfg CatalogConfig) (*CatalogClient, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("catalog base URL is required")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("catalog API key is required")
	}
	if cfg.Language == "" {
		cfg.Language = "en-US"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &CatalogClient{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		language:   cfg.Language,
	}, nil
}

// movieRecord is the catalog API wire format for one movie.
type movieRecord struct {
	ID               int64   `json:"id"`
	Title            string  `json:"title"`
	Overview         string  `json:"overview"`
	ReleaseDate      string  `json:"release_date"`
	Popularity       float64 `json:"popularity"`
	VoteAverage      float64 `json:"vote_average"`
	Adult            bool    `json:"adult"`
	OriginalLanguage string  `json:"original_language"`
}

type popularResponse struct {
	Page         int           `json:"page"`
	Results      []movieRecord `json:"results"`
	TotalPages   int           `json:"total_pages"`
	TotalResults int           `json:"total_results"`
}

// FetchPage retrieves one page of popular movies. An empty slice means the
// catalog has no more pages.
func (c *CatalogClient) FetchPage(ctx context.Context, page int) ([]storage.Movie, error) {
	endpoint := fmt.Sprintf("%s/movie/popular", c.baseURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create catalog request: %w", err)
	}

	query := url.Values{}
	query.Set("api_key", c.apiKey)
	query.Set("language", c.language)
	query.Set("page", strconv.Itoa(page))
	req.URL.RawQuery = query.Encode()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch catalog page %d: %w", page, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("catalog page %d: status %d: %s", page, resp.StatusCode, string(body))
	}

	var parsed popularResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode catalog page %d: %w", page, err)
	}

	movies := make([]storage.Movie, 0, len(parsed.Results))
	for _, rec := range parsed.Results {
		movies = append(movies, rec.toMovie())
	}
	return movies, nil
}

// toMovie converts a wire record to the storage model. A release date that
// does not parse becomes nil rather than failing the page.
func (rec movieRecord) toMovie() storage.Movie {
	m := storage.Movie{
		ID:               rec.ID,
		Title:            rec.Title,
		Overview:         rec.Overview,
		Popularity:       rec.Popularity,
		VoteAverage:      rec.VoteAverage,
		Adult:            rec.Adult,
		OriginalLanguage: rec.OriginalLanguage,
	}
	if normalized, ok := retrieval.NormalizeDate(rec.ReleaseDate); ok {
		if t, err := time.Parse("2006-01-02", normalized); err == nil {
			m.ReleaseDate = &t
		}
	}
	return m
}
