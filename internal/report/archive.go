package report

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"time"
)

// ArchiveName is the download name of a batch archive.
const ArchiveName = "Batch_Review_Reports.zip"

// SummaryName is the summary's name inside the archive and on disk.
const SummaryName = "Batch_Summary.csv"

// ArchiveEntry is one document's rendered report.
type ArchiveEntry struct {
	Filename string // Original upload name
	Body     []byte // Rendered report
	Ext      string // ".pdf", or ".txt" when PDF rendering failed
}

// ReportFileName names a document's report file: Report_<filename>.pdf.
func ReportFileName(filename, ext string) string {
	if ext == "" {
		ext = ".pdf"
	}
	return "Report_" + filename + ext
}

// ReportNames hands out report file names for one batch. A repeated name
// gets a counter before its extension: "Report_a.pdf (1).pdf".
type ReportNames struct {
	seen map[string]int
}

// Next returns the name for the next report of filename.
func (n *ReportNames) Next(filename, ext string) string {
	if n.seen == nil {
		n.seen = make(map[string]int)
	}
	name := ReportFileName(filename, ext)
	count := n.seen[name]
	n.seen[name]++
	if count == 0 {
		return name
	}
	e := extOf(ext)
	return fmt.Sprintf("%s (%d)%s", name[:len(name)-len(e)], count, e)
}

// WriteArchive writes a ZIP holding every report plus the batch summary.
func WriteArchive(w io.Writer, entries []ArchiveEntry, rows []SummaryRow) error {
	zw := zip.NewWriter(w)
	now := time.Now()

	add := func(name string, body []byte) error {
		fw, err := zw.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Deflate, Modified: now})
		if err != nil {
			return fmt.Errorf("create %s: %w", name, err)
		}
		if _, err := fw.Write(body); err != nil {
			return fmt.Errorf("write %s: %w", name, err)
		}
		return nil
	}

	var names ReportNames
	for _, e := range entries {
		name := names.Next(e.Filename, e.Ext)
		if err := add(name, e.Body); err != nil {
			return err
		}
	}

	var csvBuf bytes.Buffer
	if err := WriteSummaryCSV(&csvBuf, rows); err != nil {
		return err
	}
	if err := add(SummaryName, csvBuf.Bytes()); err != nil {
		return err
	}
	return zw.Close()
}

func extOf(ext string) string {
	if ext == "" {
		return ".pdf"
	}
	return ext
}
