package database

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/dgallion1/paperreview/internal/pipeline"
	"github.com/dgallion1/paperreview/internal/report"
)

func TestSchema_TablesAndCascade(t *testing.T) {
	all := strings.Join(schema, "\n")
	for _, want := range []string{"reviews (", "review_sections (", "ON DELETE CASCADE", "content_hash"} {
		if !strings.Contains(all, want) {
			t.Errorf("schema missing %q", want)
		}
	}
}

// testDB connects to PAPERREVIEW_TEST_DATABASE_URL or skips.
func testDB(t *testing.T) *DB {
	t.Helper()
	url := os.Getenv("PAPERREVIEW_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("PAPERREVIEW_TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	db, err := NewDB(ctx, url)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(db.Close)
	if err := db.Initialize(ctx); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	return db
}

func TestDB_RoundTrip(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	docID := pipeline.NewID()
	hash := pipeline.ContentHashHex([]byte(docID))
	t.Cleanup(func() { db.DeleteReview(context.Background(), docID) })

	in := pipeline.StoredReview{
		DocID:       docID,
		Filename:    "paper.pdf",
		Title:       "Widgets",
		ContentHash: hash,
		Decision:    "PROCEED",
		Notes:       "AI Analysis Completed.",
		Status:      pipeline.StatusPartial,
		Sections: []report.SectionReport{
			{Title: "ABSTRACT", Status: report.NotReviewed},
			{Title: "1. Introduction", Eligible: true, Status: "ACCEPT", Review: "ok", Warnings: []string{"truncated"}},
			{Title: "2. Method", Eligible: true, Error: "timeout"},
		},
		CreatedAt: time.Now().UTC().Truncate(time.Microsecond),
	}
	if err := db.SaveReview(ctx, in); err != nil {
		t.Fatalf("save: %v", err)
	}
	// Saving twice replaces rather than duplicates sections.
	if err := db.SaveReview(ctx, in); err != nil {
		t.Fatalf("second save: %v", err)
	}

	id, found, err := db.FindByHash(ctx, hash)
	if err != nil || !found || id != docID {
		t.Errorf("expected %q, got %q found=%v err=%v", docID, id, found, err)
	}

	got, err := db.GetReview(ctx, docID)
	if err != nil || got == nil {
		t.Fatalf("get: %v %v", got, err)
	}
	if got.Status != pipeline.StatusPartial || !got.CreatedAt.Equal(in.CreatedAt) {
		t.Errorf("unexpected review %+v", got)
	}
	if len(got.Sections) != 3 || got.Sections[1].Warnings[0] != "truncated" || got.Sections[2].Error != "timeout" {
		t.Errorf("unexpected sections %+v", got.Sections)
	}

	if err := db.DeleteReview(ctx, docID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, found, _ := db.FindByHash(ctx, hash); found {
		t.Error("expected review to be gone")
	}
	if r, err := db.GetReview(ctx, docID); err != nil || r != nil {
		t.Errorf("expected nil after delete, got %v %v", r, err)
	}
}
