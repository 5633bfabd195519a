package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/moviemind-ai/moviemind/internal/ingest"
	"github.com/moviemind-ai/moviemind/internal/observability"
)

// IngestHandler triggers catalog ingestion runs.
type IngestHandler struct {
	logger   *observability.Logger
	pipeline *ingest.Pipeline
	cfg      ingest.PipelineConfig
}

// NewIngestHandler creates an ingest handler. pipeline may be nil when the
// catalog API is not configured.
func NewIngestHandler(logger *observability.Logger, pipeline *ingest.Pipeline, cfg ingest.PipelineConfig) *IngestHandler {
	return &IngestHandler{
		logger:   logger.WithComponent("ingest-handler"),
		pipeline: pipeline,
		cfg:      cfg,
	}
}

// IngestRequestDTO represents an ingestion trigger.
type IngestRequestDTO struct {
	StartPage int `json:"startPage,omitempty"`
	MaxPages  int `json:"maxPages,omitempty"`
}

// IngestResponseDTO summarizes a completed run.
type IngestResponseDTO struct {
	PagesFetched int `json:"pagesFetched"`
	Fetched      int `json:"fetched"`
	Inserted     int `json:"inserted"`
	Indexed      int `json:"indexed"`
}

// Ingest handles POST /api/v1/ingest. The run is synchronous; callers size
// maxPages accordingly.
func (h *IngestHandler) Ingest(w http.ResponseWriter, r *http.Request) {
	if h.pipeline == nil {
		writeError(w, http.StatusServiceUnavailable, "catalog API is not configured")
		return
	}

	var req IngestRequestDTO
	if r.Body != nil {
		// An empty body means default paging.
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	cfg := h.cfg
	if req.StartPage > 0 {
		cfg.StartPage = req.StartPage
	}
	if req.MaxPages > 0 {
		cfg.MaxPages = req.MaxPages
	}

	result, err := h.pipeline.Run(r.Context(), cfg, nil)
	if err != nil {
		h.logger.Error().Err(err).Msg("Ingestion run failed")
		writeError(w, http.StatusInternalServerError, "ingestion failed")
		return
	}

	writeJSON(w, http.StatusOK, IngestResponseDTO{
		PagesFetched: result.PagesFetched,
		Fetched:      result.Fetched,
		Inserted:     result.Inserted,
		Indexed:      result.Indexed,
	})
}
