package pipeline

import (
	"io"

	"github.com/dgallion1/paperreview/internal/report"
)

// DecisionDuplicate is the summary decision for a skipped re-upload.
const DecisionDuplicate = "DUPLICATE"

// BatchDone reports whether every job has reached a terminal status.
func BatchDone(jobs []*Job) bool {
	for _, j := range jobs {
		if !j.Snapshot().Status.Terminal() {
			return false
		}
	}
	return true
}

// SummaryRow returns the batch summary row for a finished job. Jobs that
// failed before a report existed are reported with the ERROR decision and
// their first error as the note.
func SummaryRow(job *Job) report.SummaryRow {
	if r, _, _ := job.Result(); r != nil {
		return r.Summary()
	}
	snap := job.Snapshot()
	row := report.SummaryRow{Filename: snap.Filename, Decision: report.DecisionError}
	switch {
	case snap.Status == StatusDupSkipped:
		row.Decision = DecisionDuplicate
		row.Notes = "Already reviewed as " + snap.DuplicateOf
	case len(snap.Progress.Errors) > 0:
		row.Notes = snap.Progress.Errors[0]
	default:
		row.Notes = string(snap.Status)
	}
	return row
}

// BatchSummary returns one row per job, in upload order.
func BatchSummary(jobs []*Job) []report.SummaryRow {
	rows := make([]report.SummaryRow, len(jobs))
	for i, j := range jobs {
		rows[i] = SummaryRow(j)
	}
	return rows
}

// WriteBatchArchive writes every rendered report plus the summary CSV as a ZIP.
func WriteBatchArchive(w io.Writer, jobs []*Job) error {
	var entries []report.ArchiveEntry
	for _, j := range jobs {
		r, body, ext := j.Result()
		if r == nil {
			continue
		}
		entries = append(entries, report.ArchiveEntry{Filename: r.Filename, Body: body, Ext: ext})
	}
	return report.WriteArchive(w, entries, BatchSummary(jobs))
}
