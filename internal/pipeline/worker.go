package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dgallion1/paperreview/internal/chunker"
	"github.com/dgallion1/paperreview/internal/doctree"
	"github.com/dgallion1/paperreview/internal/parser"
	"github.com/dgallion1/paperreview/internal/report"
	"github.com/dgallion1/paperreview/internal/review"
	"github.com/dgallion1/paperreview/internal/sectioner"
)

// FullDocumentTitle names the single section used when no header was found.
const FullDocumentTitle = "Full Document"

// Notes written into the batch summary.
const (
	NoteCompleted = "AI Analysis Completed."
	NoteRejected  = "Desk rejected in first pass."
)

// WorkerConfig carries the per-review settings.
type WorkerConfig struct {
	Conference          string
	FirstPass           bool
	MaxConcurrentReview int
	MaxSectionTokens    int
	Parser              parser.Options
	Sectioner           sectioner.Config
	Report              report.Options
}

func (c WorkerConfig) withDefaults() WorkerConfig {
	if c.MaxConcurrentReview <= 0 {
		c.MaxConcurrentReview = 5
	}
	if c.MaxSectionTokens <= 0 {
		c.MaxSectionTokens = chunker.DefaultMaxTokens
	}
	if c.Conference == "" {
		c.Conference = "General Conference"
	}
	return c
}

// Worker processes a single review job.
type Worker struct {
	llm   review.Provider
	store ResultStore
	log   *slog.Logger
	cfg   WorkerConfig
}

// NewWorker creates a worker. store may be nil, which disables duplicate
// detection and persistence.
func NewWorker(llm review.Provider, store ResultStore, log *slog.Logger, cfg WorkerConfig) *Worker {
	return &Worker{
		llm:   llm,
		store: store,
		log:   log,
		cfg:   cfg.withDefaults(),
	}
}

// SectionDocument sections doc. A document without recognizable headers
// becomes one reviewable Full Document section: either nothing was
// assembled, or everything landed in the preamble, which is never reviewed.
func SectionDocument(doc *doctree.Document, cfg sectioner.Config) {
	sectioner.Sectionize(doc, cfg)
	switch {
	case len(doc.Sections) == 0 && len(doc.Lines) > 0:
		doc.Sections = []doctree.Section{{
			Title:   FullDocumentTitle,
			Content: doc.Text(),
			Kind:    doctree.KindFallback,
		}}
	case len(doc.Sections) == 1 && doc.Sections[0].Kind == doctree.KindPreamble:
		doc.Sections[0].Title = FullDocumentTitle
		doc.Sections[0].Kind = doctree.KindFallback
	}
}

// Process runs the full review pipeline for a job.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "doc_id", job.DocID)
	if job.BatchID != "" {
		log = log.With("batch_id", job.BatchID)
	}

	// Phase 1: Parse
	job.SetStatus(StatusParsing, "parsing")
	p, err := w.cfg.Parser.ForFile(job.Filename)
	if err != nil {
		log.Error("unsupported format", "error", err)
		job.AddError(err.Error())
		job.SetStatus(StatusFailed, "parsing")
		return
	}
	doc, err := p.Parse(bytes.NewReader(job.FileData()), job.Filename)
	if err != nil {
		log.Error("parse failed", "error", err)
		job.AddError(fmt.Sprintf("parse: %s", err))
		job.SetStatus(StatusFailed, "parsing")
		return
	}
	if job.Title != "" {
		doc.Title = job.Title
	}

	// Phase 2: Section
	job.SetStatus(StatusSectioning, "sectioning")
	SectionDocument(doc, w.cfg.Sectioner)
	hash := ContentHashHex([]byte(strings.Join(doc.Lines, "\n")))
	job.setDocument(doc.Title, hash)
	log.Info("sectioned document", "lines", len(doc.Lines), "sections", len(doc.Sections))

	if dup, ok := w.checkDuplicate(ctx, log, hash); ok {
		log.Info("duplicate document, skipping", "existing_doc_id", dup)
		job.setDuplicateOf(dup)
		job.SetStatus(StatusDupSkipped, "dedup")
		return
	}

	rep := &report.Report{
		Filename:    job.Filename,
		Title:       doc.Title,
		Decision:    review.DecisionProceed,
		Sections:    make([]report.SectionReport, len(doc.Sections)),
		GeneratedAt: time.Now(),
	}
	eligible := 0
	for i, s := range doc.Sections {
		ok := sectioner.IsEligibleForReview(s.Title)
		rep.Sections[i] = report.SectionReport{Title: s.Title, Eligible: ok}
		if ok {
			eligible++
		} else {
			rep.Sections[i].Status = report.NotReviewed
		}
	}
	job.SetSectionCounts(len(doc.Sections), eligible)

	// Phase 3: Desk-reject check
	if w.cfg.FirstPass {
		job.SetStatus(StatusFirstPass, "first_pass")
		answer, err := w.complete(ctx, log, "first pass", review.FirstPassPrompt(w.cfg.Conference, doc.Title, doc.Text()))
		if err != nil {
			log.Error("first pass failed", "error", err)
			job.AddError(fmt.Sprintf("first pass: %s", err))
			rep.Decision = report.DecisionError
			rep.Notes = fmt.Sprintf("First pass failed: %s", err)
			w.finish(ctx, log, job, rep, StatusFailed)
			return
		}
		rep.FirstPass = answer
		rep.Decision = review.ParseDecision(answer)
		if rep.Decision == review.DecisionReject {
			rep.Notes = NoteRejected
			if reason := review.ReasonLine(answer); reason != "" {
				rep.Notes += " " + reason
			}
			log.Info("desk rejected, skipping section review")
			w.finish(ctx, log, job, rep, StatusRejected)
			return
		}
	}

	// Phase 4: Review eligible sections with bounded concurrency.
	job.SetStatus(StatusReviewing, "reviewing")
	reviewed, failed := w.reviewSections(ctx, log, job, doc, rep)
	log.Info("section review complete", "reviewed", reviewed, "failed", failed)

	status := StatusCompleted
	rep.Notes = NoteCompleted
	switch {
	case failed > 0 && reviewed > 0:
		status = StatusPartial
		rep.Notes = fmt.Sprintf("AI Analysis Completed with %d failed section(s).", failed)
	case failed > 0:
		status = StatusFailed
		rep.Notes = "AI Analysis failed for every section."
	}
	w.finish(ctx, log, job, rep, status)
}

type sectionResult struct {
	idx    int
	review string
	err    error
}

// reviewSections fills rep.Sections for every eligible section. Results are
// written back by index so report order is document order whatever order the
// calls finish in.
func (w *Worker) reviewSections(ctx context.Context, log *slog.Logger, job *Job, doc *doctree.Document, rep *report.Report) (reviewed, failed int) {
	var pending int
	results := make(chan sectionResult, len(doc.Sections))
	sem := make(chan struct{}, w.cfg.MaxConcurrentReview)

	for i, sec := range doc.Sections {
		if !rep.Sections[i].Eligible {
			continue
		}
		content, truncated := chunker.Fit(sec.Content, w.cfg.MaxSectionTokens)
		if truncated {
			rep.Sections[i].Warnings = append(rep.Sections[i].Warnings, "section text was truncated to fit the review budget")
		}
		for _, phrase := range review.DetectInjection(sec.Content) {
			rep.Sections[i].Warnings = append(rep.Sections[i].Warnings, fmt.Sprintf("possible prompt injection in section text: %q", phrase))
		}
		prompt := review.SectionPrompt(doc.Title, sec.Title, review.SectionFocus(sec.Title), content)

		pending++
		sem <- struct{}{}
		go func(i int, prompt string) {
			defer func() { <-sem }()
			text, err := w.complete(ctx, log.With("section", i), "section review", prompt)
			results <- sectionResult{idx: i, review: text, err: err}
		}(i, prompt)
	}

	for range pending {
		r := <-results
		job.IncrSectionsReviewed(r.err == nil)
		sec := &rep.Sections[r.idx]
		if r.err != nil {
			log.Error("section review failed", "section", sec.Title, "error", r.err)
			job.AddError(fmt.Sprintf("section %q: %s", sec.Title, r.err))
			sec.Error = r.err.Error()
			failed++
			continue
		}
		sec.Review = r.review
		sec.Status = review.ParseStatus(r.review)
		reviewed++
	}
	return reviewed, failed
}

// complete calls the LLM, retrying transient failures with backoff.
func (w *Worker) complete(ctx context.Context, log *slog.Logger, what, prompt string) (string, error) {
	return withRetry(ctx, log, what, func() (string, error) {
		return w.llm.Complete(ctx, prompt)
	})
}

// finish renders the report, stores it and sets the final status.
func (w *Worker) finish(ctx context.Context, log *slog.Logger, job *Job, rep *report.Report, status JobStatus) {
	job.SetStatus(StatusRendering, "rendering")
	body, ext := w.render(log, rep)
	job.SetResult(rep, body, ext)

	if w.store != nil {
		job.SetStatus(StatusStoring, "storing")
		if err := w.store.SaveReview(ctx, NewStoredReview(job, rep, status)); err != nil {
			log.Error("store review failed", "error", err)
			job.AddError(fmt.Sprintf("store: %s", err))
		}
	}

	job.SetStatus(status, "done")
	log.Info("review finished", "status", status, "decision", rep.Decision)
}

// render produces the PDF report, or the plain-text report if PDF
// rendering fails.
func (w *Worker) render(log *slog.Logger, rep *report.Report) ([]byte, string) {
	pdf, err := report.RenderPDF(rep, w.cfg.Report)
	if err == nil {
		return pdf, ".pdf"
	}
	log.Warn("pdf render failed, using text report", "error", err)
	return []byte(report.RenderText(rep, w.cfg.Report)), ".txt"
}

// checkDuplicate looks the content hash up in the store. A failed lookup is
// logged and treated as a miss.
func (w *Worker) checkDuplicate(ctx context.Context, log *slog.Logger, hash string) (string, bool) {
	if w.store == nil {
		return "", false
	}
	docID, found, err := w.store.FindByHash(ctx, hash)
	if err != nil {
		log.Warn("dedup check failed, proceeding", "error", err)
		return "", false
	}
	return docID, found
}
