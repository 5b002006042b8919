package api

import (
	"context"
	"net/http"

	"github.com/dgallion1/paperreview/internal/pipeline"
	"github.com/go-chi/chi/v5"
)

// reviewGetter is implemented by stores that can load a single review.
type reviewGetter interface {
	GetReview(ctx context.Context, docID string) (*pipeline.StoredReview, error)
}

func (s *Server) store(w http.ResponseWriter) pipeline.ResultStore {
	st := s.orchestrator.Store()
	if st == nil {
		jsonError(w, "no result store configured", http.StatusServiceUnavailable)
	}
	return st
}

// handleListStored lists stored reviews without their sections.
func (s *Server) handleListStored(w http.ResponseWriter, r *http.Request) {
	st := s.store(w)
	if st == nil {
		return
	}
	reviews, err := st.ListReviews(r.Context())
	if err != nil {
		jsonError(w, "failed to list reviews: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if reviews == nil {
		reviews = []pipeline.StoredReview{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"reviews": reviews})
}

func (s *Server) handleGetStored(w http.ResponseWriter, r *http.Request) {
	st := s.store(w)
	if st == nil {
		return
	}
	g, ok := st.(reviewGetter)
	if !ok {
		jsonError(w, "store cannot load single reviews", http.StatusNotImplemented)
		return
	}
	docID := chi.URLParam(r, "docID")
	if !docIDPattern.MatchString(docID) {
		jsonError(w, "invalid doc_id", http.StatusBadRequest)
		return
	}
	rev, err := g.GetReview(r.Context(), docID)
	if err != nil {
		jsonError(w, "failed to load review: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if rev == nil {
		jsonError(w, "review not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, rev)
}

func (s *Server) handleDeleteStored(w http.ResponseWriter, r *http.Request) {
	st := s.store(w)
	if st == nil {
		return
	}
	docID := chi.URLParam(r, "docID")
	if !docIDPattern.MatchString(docID) {
		jsonError(w, "invalid doc_id", http.StatusBadRequest)
		return
	}
	if err := st.DeleteReview(r.Context(), docID); err != nil {
		s.log.Error("delete review failed", "doc_id", docID, "error", err)
		jsonError(w, "failed to delete review: "+err.Error(), http.StatusInternalServerError)
		return
	}
	s.log.Info("deleted review", "doc_id", docID)
	writeJSON(w, http.StatusOK, map[string]any{"deleted": docID})
}
