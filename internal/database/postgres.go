// Package database stores finished reviews in Postgres.
package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dgallion1/paperreview/internal/pipeline"
	"github.com/dgallion1/paperreview/internal/report"
)

// DB represents the database connection
type DB struct {
	Pool *pgxpool.Pool
}

// NewDB connects and pings the database.
func NewDB(ctx context.Context, connStr string) (*DB, error) {
	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{Pool: pool}, nil
}

// Close closes the pool.
func (db *DB) Close() {
	db.Pool.Close()
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS reviews (
		doc_id       TEXT PRIMARY KEY,
		filename     TEXT NOT NULL,
		title        TEXT NOT NULL DEFAULT '',
		content_hash TEXT NOT NULL DEFAULT '',
		decision     TEXT NOT NULL,
		notes        TEXT NOT NULL DEFAULT '',
		status       TEXT NOT NULL,
		created_at   TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS reviews_content_hash_idx ON reviews (content_hash)`,
	`CREATE TABLE IF NOT EXISTS review_sections (
		doc_id   TEXT NOT NULL REFERENCES reviews (doc_id) ON DELETE CASCADE,
		idx      INTEGER NOT NULL,
		title    TEXT NOT NULL,
		eligible BOOLEAN NOT NULL,
		status   TEXT NOT NULL DEFAULT '',
		review   TEXT NOT NULL DEFAULT '',
		error    TEXT NOT NULL DEFAULT '',
		warnings TEXT[] NOT NULL DEFAULT '{}',
		PRIMARY KEY (doc_id, idx)
	)`,
}

// Initialize creates the tables and indices if they do not exist.
func (db *DB) Initialize(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := db.Pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}

// SaveReview upserts a review and replaces its sections in one transaction.
func (db *DB) SaveReview(ctx context.Context, r pipeline.StoredReview) error {
	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO reviews (doc_id, filename, title, content_hash, decision, notes, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (doc_id) DO UPDATE SET
			filename = EXCLUDED.filename,
			title = EXCLUDED.title,
			content_hash = EXCLUDED.content_hash,
			decision = EXCLUDED.decision,
			notes = EXCLUDED.notes,
			status = EXCLUDED.status
	`, r.DocID, r.Filename, r.Title, r.ContentHash, r.Decision, r.Notes, string(r.Status), r.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to store review: %w", err)
	}

	batch := &pgx.Batch{}
	batch.Queue(`DELETE FROM review_sections WHERE doc_id = $1`, r.DocID)
	for i, s := range r.Sections {
		warnings := s.Warnings
		if warnings == nil {
			warnings = []string{}
		}
		batch.Queue(`
			INSERT INTO review_sections (doc_id, idx, title, eligible, status, review, error, warnings)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`, r.DocID, i, s.Title, s.Eligible, s.Status, s.Review, s.Error, warnings)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to store sections: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// FindByHash returns the oldest review with the given content hash.
func (db *DB) FindByHash(ctx context.Context, hash string) (string, bool, error) {
	var docID string
	err := db.Pool.QueryRow(ctx, `
		SELECT doc_id FROM reviews WHERE content_hash = $1
		ORDER BY created_at LIMIT 1
	`, hash).Scan(&docID)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to look up hash: %w", err)
	}
	return docID, true, nil
}

// ListReviews returns every review, newest first, without sections.
func (db *DB) ListReviews(ctx context.Context) ([]pipeline.StoredReview, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT doc_id, filename, title, content_hash, decision, notes, status, created_at
		FROM reviews
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}
	defer rows.Close()

	var out []pipeline.StoredReview
	for rows.Next() {
		r, err := scanReview(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return out, nil
}

// GetReview loads one review with its sections. A missing review is (nil, nil).
func (db *DB) GetReview(ctx context.Context, docID string) (*pipeline.StoredReview, error) {
	row := db.Pool.QueryRow(ctx, `
		SELECT doc_id, filename, title, content_hash, decision, notes, status, created_at
		FROM reviews WHERE doc_id = $1
	`, docID)
	r, err := scanReview(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	rows, err := db.Pool.Query(ctx, `
		SELECT title, eligible, status, review, error, warnings
		FROM review_sections WHERE doc_id = $1
		ORDER BY idx
	`, docID)
	if err != nil {
		return nil, fmt.Errorf("failed to query sections: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var s report.SectionReport
		if err := rows.Scan(&s.Title, &s.Eligible, &s.Status, &s.Review, &s.Error, &s.Warnings); err != nil {
			return nil, fmt.Errorf("failed to scan section: %w", err)
		}
		if len(s.Warnings) == 0 {
			s.Warnings = nil
		}
		r.Sections = append(r.Sections, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return &r, nil
}

// DeleteReview removes a review; its sections go with it.
func (db *DB) DeleteReview(ctx context.Context, docID string) error {
	if _, err := db.Pool.Exec(ctx, `DELETE FROM reviews WHERE doc_id = $1`, docID); err != nil {
		return fmt.Errorf("failed to delete review: %w", err)
	}
	return nil
}

func scanReview(row pgx.Row) (pipeline.StoredReview, error) {
	var r pipeline.StoredReview
	var status string
	err := row.Scan(&r.DocID, &r.Filename, &r.Title, &r.ContentHash, &r.Decision, &r.Notes, &status, &r.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return r, err
		}
		return r, fmt.Errorf("failed to scan review: %w", err)
	}
	r.Status = pipeline.JobStatus(status)
	return r, nil
}

var _ pipeline.ResultStore = (*DB)(nil)
