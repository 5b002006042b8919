package api

import (
	"bytes"
	"fmt"
	"net/http"
	"regexp"

	"github.com/dgallion1/paperreview/internal/pipeline"
	"github.com/dgallion1/paperreview/internal/report"
	"github.com/dgallion1/paperreview/internal/sectioner"
	"github.com/go-chi/chi/v5"
)

// docIDPattern limits client doc IDs to characters that are safe as a
// single store key segment.
var docIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,128}$`)

type sectionView struct {
	Title    string `json:"title"`
	Kind     string `json:"kind"`
	Eligible bool   `json:"eligible"`
	Content  string `json:"content"`
}

// handleSections runs parse and sectioning only and answers synchronously.
func (s *Server) handleSections(w http.ResponseWriter, r *http.Request) {
	filename, data, ok := s.singleFile(w, r)
	if !ok {
		return
	}
	defer r.MultipartForm.RemoveAll()

	wcfg := s.orchestrator.WorkerConfig()
	p, err := wcfg.Parser.ForFile(filename)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	doc, err := p.Parse(bytes.NewReader(data), filename)
	if err != nil {
		jsonError(w, "parse: "+err.Error(), http.StatusUnprocessableEntity)
		return
	}
	pipeline.SectionDocument(doc, wcfg.Sectioner)

	sections := make([]sectionView, len(doc.Sections))
	for i, sec := range doc.Sections {
		sections[i] = sectionView{
			Title:    sec.Title,
			Kind:     string(sec.Kind),
			Eligible: sectioner.IsEligibleForReview(sec.Title),
			Content:  sec.Content,
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"filename": filename,
		"title":    doc.Title,
		"lines":    len(doc.Lines),
		"decision": report.DecisionRaw,
		"sections": sections,
	})
}

func (s *Server) handleReview(w http.ResponseWriter, r *http.Request) {
	filename, data, ok := s.singleFile(w, r)
	if !ok {
		return
	}
	defer r.MultipartForm.RemoveAll()

	docID := r.FormValue("doc_id")
	if docID != "" && !docIDPattern.MatchString(docID) {
		jsonError(w, "doc_id may only contain letters, digits, '_' and '-'", http.StatusBadRequest)
		return
	}

	job := pipeline.NewJob(filename, data)
	job.Title = r.FormValue("title")
	if docID != "" {
		job.DocID = docID
	}

	if err := s.orchestrator.Submit(job); err != nil {
		jsonError(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	snap := job.Snapshot()
	writeJSON(w, http.StatusAccepted, map[string]any{
		"job_id":   snap.ID,
		"doc_id":   snap.DocID,
		"status":   snap.Status,
		"poll_url": pollURL(snap.ID),
	})
}

func (s *Server) handleBatchReview(w http.ResponseWriter, r *http.Request) {
	// Room for ten max-size files plus form overhead.
	if err := parseForm(w, r, s.cfg.MaxUploadBytes*10+10<<20); err != nil {
		writeUploadError(w, err)
		return
	}
	defer r.MultipartForm.RemoveAll()

	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		jsonError(w, "at least one file is required", http.StatusBadRequest)
		return
	}

	var (
		jobs    []*pipeline.Job
		results []map[string]any
	)
	for _, fh := range files {
		filename, data, err := s.readUpload(fh)
		if err != nil {
			results = append(results, map[string]any{
				"filename": filename,
				"error":    err.Error(),
			})
			continue
		}
		job := pipeline.NewJob(filename, data)
		jobs = append(jobs, job)
		results = append(results, map[string]any{"filename": filename, "job": job})
	}
	if len(jobs) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "no acceptable files", "jobs": results})
		return
	}

	batch, err := s.orchestrator.SubmitBatch(jobs)
	if err != nil {
		s.log.Warn("batch partially queued", "batch_id", batch.ID, "error", err)
	}

	// Status is read after submission so queue overflow shows up per job.
	for _, res := range results {
		job, ok := res["job"].(*pipeline.Job)
		if !ok {
			continue
		}
		delete(res, "job")
		snap := job.Snapshot()
		res["job_id"] = snap.ID
		res["doc_id"] = snap.DocID
		res["status"] = snap.Status
		res["poll_url"] = pollURL(snap.ID)
	}

	writeJSON(w, http.StatusAccepted, map[string]any{
		"batch_id":    batch.ID,
		"summary_url": fmt.Sprintf("/api/batches/%s/summary.csv", batch.ID),
		"archive_url": fmt.Sprintf("/api/batches/%s/archive.zip", batch.ID),
		"jobs":        results,
	})
}

func (s *Server) handleReviewStatus(w http.ResponseWriter, r *http.Request) {
	job := s.orchestrator.GetJob(chi.URLParam(r, "jobID"))
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, job.Snapshot())
}

// jobReport returns the finished report of the job named in the URL, or
// writes an error and returns nil.
func (s *Server) jobReport(w http.ResponseWriter, r *http.Request) (*report.Report, []byte, string) {
	job := s.orchestrator.GetJob(chi.URLParam(r, "jobID"))
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return nil, nil, ""
	}
	rep, body, ext := job.Result()
	if rep != nil {
		return rep, body, ext
	}
	snap := job.Snapshot()
	if !snap.Status.Terminal() {
		jsonError(w, fmt.Sprintf("report not ready (status %s)", snap.Status), http.StatusConflict)
	} else {
		jsonError(w, fmt.Sprintf("no report for job (status %s)", snap.Status), http.StatusNotFound)
	}
	return nil, nil, ""
}

func (s *Server) handleReportPDF(w http.ResponseWriter, r *http.Request) {
	rep, body, ext := s.jobReport(w, r)
	if rep == nil {
		return
	}
	if ext != ".pdf" {
		var err error
		body, err = report.RenderPDF(rep, s.orchestrator.WorkerConfig().Report)
		if err != nil {
			jsonError(w, "pdf rendering failed: "+err.Error(), http.StatusInternalServerError)
			return
		}
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", attachment(report.ReportFileName(rep.Filename, ".pdf")))
	w.Write(body)
}

func (s *Server) handleReportText(w http.ResponseWriter, r *http.Request) {
	rep, _, _ := s.jobReport(w, r)
	if rep == nil {
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", attachment(report.ReportFileName(rep.Filename, ".txt")))
	w.Write([]byte(report.RenderText(rep, s.orchestrator.WorkerConfig().Report)))
}

func pollURL(jobID string) string {
	return fmt.Sprintf("/api/reviews/%s/status", jobID)
}

func attachment(name string) string {
	return fmt.Sprintf("attachment; filename=%q", name)
}
