package pipeline

import (
	"crypto/sha256"
	"fmt"
	"sync"
	"time"

	"github.com/dgallion1/paperreview/internal/report"
)

// JobStatus represents the state of a review job.
type JobStatus string

const (
	StatusQueued     JobStatus = "queued"
	StatusParsing    JobStatus = "parsing"
	StatusSectioning JobStatus = "sectioning"
	StatusFirstPass  JobStatus = "first_pass"
	StatusReviewing  JobStatus = "reviewing"
	StatusRendering  JobStatus = "rendering"
	StatusStoring    JobStatus = "storing"
	StatusCompleted  JobStatus = "completed"
	StatusPartial    JobStatus = "partial"
	StatusRejected   JobStatus = "rejected"
	StatusFailed     JobStatus = "failed"
	StatusDupSkipped JobStatus = "duplicate_skipped"
)

// Terminal reports whether no further transitions follow s.
func (s JobStatus) Terminal() bool {
	switch s {
	case StatusCompleted, StatusPartial, StatusRejected, StatusFailed, StatusDupSkipped:
		return true
	}
	return false
}

// Job tracks the state of a single paper review.
type Job struct {
	mu sync.Mutex

	ID      string `json:"job_id"`
	DocID   string `json:"doc_id"`
	BatchID string `json:"batch_id,omitempty"`

	Status   JobStatus `json:"status"`
	Phase    string    `json:"phase"`
	Filename string    `json:"filename"`
	Title    string    `json:"title"`

	Progress Progress `json:"progress"`

	Decision    string    `json:"decision,omitempty"`
	ContentHash string    `json:"content_hash,omitempty"`
	DuplicateOf string    `json:"duplicate_of,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Internal: not serialized.
	fileData   []byte
	report     *report.Report
	reportBody []byte
	reportExt  string
	errors     []string
}

// Progress tracks processing progress.
type Progress struct {
	TotalSections    int      `json:"total_sections"`
	EligibleSections int      `json:"eligible_sections"`
	SectionsReviewed int      `json:"sections_reviewed"`
	SectionsFailed   int      `json:"sections_failed"`
	Errors           []string `json:"errors"`
}

// NewJob returns a queued job for an uploaded file.
func NewJob(filename string, data []byte) *Job {
	now := time.Now()
	return &Job{
		ID:        generateULID(),
		DocID:     generateULID(),
		Status:    StatusQueued,
		Phase:     "queued",
		Filename:  filename,
		CreatedAt: now,
		UpdatedAt: now,
		fileData:  data,
	}
}

// Batch groups jobs uploaded together.
type Batch struct {
	ID        string    `json:"batch_id"`
	JobIDs    []string  `json:"job_ids"`
	CreatedAt time.Time `json:"created_at"`
}

// JobStore is a thread-safe in-memory job and batch registry with TTL eviction.
type JobStore struct {
	mu      sync.Mutex
	jobs    map[string]*Job
	batches map[string]*Batch
	ttl     time.Duration
}

func NewJobStore(ttl time.Duration) *JobStore {
	return &JobStore{
		jobs:    make(map[string]*Job),
		batches: make(map[string]*Batch),
		ttl:     ttl,
	}
}

func (s *JobStore) Put(job *Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = job
}

func (s *JobStore) Get(id string) *Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.jobs[id]
}

func (s *JobStore) PutBatch(b *Batch) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.batches[b.ID] = b
}

func (s *JobStore) GetBatch(id string) *Batch {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.batches[id]
}

// Cleanup removes expired jobs, and batches none of whose jobs remain.
func (s *JobStore) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for id, job := range s.jobs {
		job.mu.Lock()
		updated := job.UpdatedAt
		job.mu.Unlock()
		if now.Sub(updated) > s.ttl {
			delete(s.jobs, id)
		}
	}
	for id, b := range s.batches {
		if now.Sub(b.CreatedAt) <= s.ttl {
			continue
		}
		alive := false
		for _, jid := range b.JobIDs {
			if _, ok := s.jobs[jid]; ok {
				alive = true
				break
			}
		}
		if !alive {
			delete(s.batches, id)
		}
	}
}

// SetStatus updates job status atomically.
func (j *Job) SetStatus(status JobStatus, phase string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Status = status
	j.Phase = phase
	j.UpdatedAt = time.Now()
}

// AddError records an error.
func (j *Job) AddError(err string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.errors = append(j.errors, err)
	j.Progress.Errors = j.errors
	j.UpdatedAt = time.Now()
}

// SetSectionCounts records how many sections were found and how many will be reviewed.
func (j *Job) SetSectionCounts(total, eligible int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.TotalSections = total
	j.Progress.EligibleSections = eligible
	j.UpdatedAt = time.Now()
}

// IncrSectionsReviewed counts one finished section review.
func (j *Job) IncrSectionsReviewed(ok bool) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.SectionsReviewed++
	if !ok {
		j.Progress.SectionsFailed++
	}
	j.UpdatedAt = time.Now()
}

func (j *Job) setDocument(title, hash string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Title = title
	j.ContentHash = hash
	j.UpdatedAt = time.Now()
}

func (j *Job) setDuplicateOf(docID string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.DuplicateOf = docID
}

// SetFileData sets the raw file bytes for processing.
func (j *Job) SetFileData(data []byte) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.fileData = data
}

// FileData returns the raw file bytes.
func (j *Job) FileData() []byte {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.fileData
}

// SetResult attaches the finished report and its rendered bytes. The upload
// itself is no longer needed and is released.
func (j *Job) SetResult(r *report.Report, body []byte, ext string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.report = r
	j.reportBody = body
	j.reportExt = ext
	j.Decision = r.Decision
	j.fileData = nil
	j.UpdatedAt = time.Now()
}

// Result returns the report, its rendered bytes and their extension
// (".pdf" or ".txt"). r is nil until the job has rendered.
func (j *Job) Result() (r *report.Report, body []byte, ext string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.report, j.reportBody, j.reportExt
}

// JobSnapshot is a read-only, JSON-safe copy of job state.
type JobSnapshot struct {
	ID          string    `json:"job_id"`
	DocID       string    `json:"doc_id"`
	BatchID     string    `json:"batch_id,omitempty"`
	Status      JobStatus `json:"status"`
	Phase       string    `json:"phase"`
	Filename    string    `json:"filename"`
	Title       string    `json:"title"`
	Decision    string    `json:"decision,omitempty"`
	DuplicateOf string    `json:"duplicate_of,omitempty"`
	Progress    Progress  `json:"progress"`
}

// Snapshot returns a JSON-safe copy of the job state.
func (j *Job) Snapshot() JobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	errs := make([]string, len(j.errors))
	copy(errs, j.errors)
	return JobSnapshot{
		ID:          j.ID,
		DocID:       j.DocID,
		BatchID:     j.BatchID,
		Status:      j.Status,
		Phase:       j.Phase,
		Filename:    j.Filename,
		Title:       j.Title,
		Decision:    j.Decision,
		DuplicateOf: j.DuplicateOf,
		Progress: Progress{
			TotalSections:    j.Progress.TotalSections,
			EligibleSections: j.Progress.EligibleSections,
			SectionsReviewed: j.Progress.SectionsReviewed,
			SectionsFailed:   j.Progress.SectionsFailed,
			Errors:           errs,
		},
	}
}

// ContentHashHex computes SHA-256 of content and returns hex string.
func ContentHashHex(data []byte) string {
	h := sha256.Sum256(data)
	return fmt.Sprintf("%x", h[:])
}
