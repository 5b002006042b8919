package report

import (
	"encoding/csv"
	"fmt"
	"io"
)

// SummaryRow is one line of the batch summary.
type SummaryRow struct {
	Filename string `json:"filename"`
	Decision string `json:"decision"`
	Notes    string `json:"notes"`
}

// SummaryHeader is the first record of every summary CSV.
var SummaryHeader = []string{"filename", "decision", "notes"}

// WriteSummaryCSV writes the header and one record per row.
func WriteSummaryCSV(w io.Writer, rows []SummaryRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(SummaryHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, row := range rows {
		if err := cw.Write([]string{row.Filename, row.Decision, row.Notes}); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadSummaryCSV parses a summary written by WriteSummaryCSV.
func ReadSummaryCSV(r io.Reader) ([]SummaryRow, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(SummaryHeader)
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}
	rows := make([]SummaryRow, 0, len(records)-1)
	for _, rec := range records[1:] {
		rows = append(rows, SummaryRow{Filename: rec[0], Decision: rec[1], Notes: rec[2]})
	}
	return rows, nil
}
