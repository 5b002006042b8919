package pipeline

import (
	"context"
	"time"

	"github.com/dgallion1/paperreview/internal/report"
)

// StoredReview is the persisted form of a finished review.
type StoredReview struct {
	DocID       string                 `json:"doc_id"`
	Filename    string                 `json:"filename"`
	Title       string                 `json:"title"`
	ContentHash string                 `json:"content_hash"`
	Decision    string                 `json:"decision"`
	Notes       string                 `json:"notes"`
	Status      JobStatus              `json:"status"`
	Sections    []report.SectionReport `json:"sections,omitempty"`
	CreatedAt   time.Time              `json:"created_at"`
}

// ResultStore persists reviews and answers duplicate lookups by content hash.
type ResultStore interface {
	SaveReview(ctx context.Context, r StoredReview) error
	FindByHash(ctx context.Context, hash string) (docID string, found bool, err error)
	ListReviews(ctx context.Context) ([]StoredReview, error)
	DeleteReview(ctx context.Context, docID string) error
}

// NewStoredReview builds the persisted record for a job's report.
func NewStoredReview(job *Job, r *report.Report, status JobStatus) StoredReview {
	job.mu.Lock()
	defer job.mu.Unlock()
	return StoredReview{
		DocID:       job.DocID,
		Filename:    r.Filename,
		Title:       r.Title,
		ContentHash: job.ContentHash,
		Decision:    r.Decision,
		Notes:       r.Notes,
		Status:      status,
		Sections:    r.Sections,
		CreatedAt:   job.CreatedAt,
	}
}
