package api

import (
	"log/slog"
	"net/http"

	"github.com/dgallion1/paperreview/internal/config"
	"github.com/dgallion1/paperreview/internal/pipeline"
	"github.com/dgallion1/paperreview/internal/review"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Server is the HTTP API server for paperreview.
type Server struct {
	router       chi.Router
	orchestrator *pipeline.Orchestrator
	stats        *review.LLMStats
	providers    []string
	log          *slog.Logger
	cfg          config.Config
}

// NewServer creates and configures the HTTP server. stats may be nil.
func NewServer(orch *pipeline.Orchestrator, stats *review.LLMStats, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		orchestrator: orch,
		stats:        stats,
		providers:    cfg.Providers,
		log:          log,
		cfg:          cfg,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	// Public endpoints.
	r.Get("/health", s.handleHealth)

	// Authenticated endpoints.
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(s.cfg.APIKey, s.log))

		r.Post("/api/sections", s.handleSections)

		r.Post("/api/reviews", s.handleReview)
		r.Post("/api/reviews/batch", s.handleBatchReview)
		r.Get("/api/reviews/{jobID}/status", s.handleReviewStatus)
		r.Get("/api/reviews/{jobID}/report.pdf", s.handleReportPDF)
		r.Get("/api/reviews/{jobID}/report.txt", s.handleReportText)

		r.Get("/api/batches/{batchID}", s.handleBatchStatus)
		r.Get("/api/batches/{batchID}/summary.csv", s.handleBatchSummary)
		r.Get("/api/batches/{batchID}/archive.zip", s.handleBatchArchive)

		r.Get("/api/stored", s.handleListStored)
		r.Get("/api/stored/{docID}", s.handleGetStored)
		r.Delete("/api/stored/{docID}", s.handleDeleteStored)

		r.Get("/api/stats/llm", s.handleLLMStats)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":      "ok",
		"queue_depth": s.orchestrator.QueueDepth(),
	})
}
