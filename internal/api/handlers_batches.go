package api

import (
	"bytes"
	"net/http"

	"github.com/dgallion1/paperreview/internal/pipeline"
	"github.com/dgallion1/paperreview/internal/report"
	"github.com/go-chi/chi/v5"
)

// batchJobs resolves the batch in the URL, writing an error when it is
// unknown or, if done is set, still running.
func (s *Server) batchJobs(w http.ResponseWriter, r *http.Request, done bool) (*pipeline.Batch, []*pipeline.Job) {
	batch, jobs := s.orchestrator.GetBatch(chi.URLParam(r, "batchID"))
	if batch == nil {
		jsonError(w, "batch not found", http.StatusNotFound)
		return nil, nil
	}
	if done && !pipeline.BatchDone(jobs) {
		jsonError(w, "batch still processing", http.StatusConflict)
		return nil, nil
	}
	return batch, jobs
}

func (s *Server) handleBatchStatus(w http.ResponseWriter, r *http.Request) {
	batch, jobs := s.batchJobs(w, r, false)
	if batch == nil {
		return
	}
	snaps := make([]pipeline.JobSnapshot, len(jobs))
	for i, j := range jobs {
		snaps[i] = j.Snapshot()
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"batch_id":   batch.ID,
		"created_at": batch.CreatedAt,
		"done":       pipeline.BatchDone(jobs),
		"jobs":       snaps,
	})
}

func (s *Server) handleBatchSummary(w http.ResponseWriter, r *http.Request) {
	batch, jobs := s.batchJobs(w, r, true)
	if batch == nil {
		return
	}
	var buf bytes.Buffer
	if err := report.WriteSummaryCSV(&buf, pipeline.BatchSummary(jobs)); err != nil {
		jsonError(w, "failed to write summary: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", attachment(report.SummaryName))
	w.Write(buf.Bytes())
}

func (s *Server) handleBatchArchive(w http.ResponseWriter, r *http.Request) {
	batch, jobs := s.batchJobs(w, r, true)
	if batch == nil {
		return
	}
	// Buffered so a failure can still be reported as JSON.
	var buf bytes.Buffer
	if err := pipeline.WriteBatchArchive(&buf, jobs); err != nil {
		s.log.Error("archive failed", "batch_id", batch.ID, "error", err)
		jsonError(w, "failed to build archive: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", attachment(report.ArchiveName))
	w.Write(buf.Bytes())
}
