package pathstore

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/dgallion1/paperreview/internal/pipeline"
	"github.com/dgallion1/paperreview/internal/report"
)

// ReviewStore keeps finished reviews in pathstore:
//
//	reviews/{docID}/meta            document fields and decision
//	reviews/{docID}/sections/{n}    one node per section, n is the report index
//	reviews/by_hash/{hash}/{docID}  duplicate index
type ReviewStore struct {
	c      *Client
	prefix string
}

// NewReviewStore stores reviews under "reviews".
func NewReviewStore(c *Client) *ReviewStore {
	return &ReviewStore{c: c, prefix: "reviews"}
}

const sourcePrefix = "paperreview:"

type reviewMeta struct {
	DocID       string             `json:"doc_id"`
	Filename    string             `json:"filename"`
	Title       string             `json:"title"`
	ContentHash string             `json:"content_hash"`
	Decision    string             `json:"decision"`
	Notes       string             `json:"notes"`
	Status      pipeline.JobStatus `json:"status"`
	Sections    int                `json:"sections"`
	CreatedAt   string             `json:"created_at"`
}

func (s *ReviewStore) metaKey(docID string) string {
	return fmt.Sprintf("%s/%s/meta", s.prefix, docID)
}

func (s *ReviewStore) hashKey(hash, docID string) string {
	return fmt.Sprintf("%s/by_hash/%s/%s", s.prefix, hash, docID)
}

// SaveReview writes the sections first and the meta node last, so a review
// only becomes listable once it is complete.
func (s *ReviewStore) SaveReview(ctx context.Context, r pipeline.StoredReview) error {
	source := sourcePrefix + r.DocID
	for i, sec := range r.Sections {
		key := fmt.Sprintf("%s/%s/sections/%d", s.prefix, r.DocID, i)
		if err := s.c.PutNode(ctx, key, NodeRequest{
			Value:      sec,
			MemoryType: "episodic",
			Salience:   0.3,
			Source:     source,
		}); err != nil {
			return err
		}
	}

	if err := s.c.PutNode(ctx, s.metaKey(r.DocID), NodeRequest{
		Value: reviewMeta{
			DocID:       r.DocID,
			Filename:    r.Filename,
			Title:       r.Title,
			ContentHash: r.ContentHash,
			Decision:    r.Decision,
			Notes:       r.Notes,
			Status:      r.Status,
			Sections:    len(r.Sections),
			CreatedAt:   r.CreatedAt.Format(time.RFC3339),
		},
		MemoryType: "metacognitive",
		Salience:   0.5,
		Source:     source,
	}); err != nil {
		return err
	}

	if r.ContentHash == "" {
		return nil
	}
	return s.c.PutNode(ctx, s.hashKey(r.ContentHash, r.DocID), NodeRequest{
		Value: map[string]any{
			"filename":   r.Filename,
			"created_at": r.CreatedAt.Format(time.RFC3339),
		},
		MemoryType: "metacognitive",
		Salience:   0.1,
		Source:     source,
	})
}

// FindByHash returns the doc ID of an earlier review of the same content.
func (s *ReviewStore) FindByHash(ctx context.Context, hash string) (string, bool, error) {
	children, err := s.c.ListChildren(ctx, fmt.Sprintf("%s/by_hash/%s", s.prefix, hash), 1)
	if err != nil {
		return "", false, err
	}
	if len(children) == 0 {
		return "", false, nil
	}
	return lastSegment(children[0].Key), true, nil
}

// ListReviews returns the meta of every stored review, newest first.
// Sections are not loaded.
func (s *ReviewStore) ListReviews(ctx context.Context) ([]pipeline.StoredReview, error) {
	children, err := s.c.ListChildren(ctx, s.prefix, 0)
	if err != nil {
		return nil, err
	}
	var out []pipeline.StoredReview
	for _, n := range children {
		if lastSegment(n.Key) != "meta" {
			continue
		}
		var m reviewMeta
		if err := json.Unmarshal(n.Value, &m); err != nil {
			return nil, fmt.Errorf("decode %s: %w", n.Key, err)
		}
		created, _ := time.Parse(time.RFC3339, m.CreatedAt)
		out = append(out, pipeline.StoredReview{
			DocID:       m.DocID,
			Filename:    m.Filename,
			Title:       m.Title,
			ContentHash: m.ContentHash,
			Decision:    m.Decision,
			Notes:       m.Notes,
			Status:      m.Status,
			CreatedAt:   created,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// GetReview loads one review with its sections. A missing review is (nil, nil).
func (s *ReviewStore) GetReview(ctx context.Context, docID string) (*pipeline.StoredReview, error) {
	node, err := s.c.GetNode(ctx, s.metaKey(docID))
	if err != nil || node == nil {
		return nil, err
	}
	var m reviewMeta
	if err := json.Unmarshal(node.Value, &m); err != nil {
		return nil, fmt.Errorf("decode meta: %w", err)
	}
	created, _ := time.Parse(time.RFC3339, m.CreatedAt)
	r := &pipeline.StoredReview{
		DocID:       m.DocID,
		Filename:    m.Filename,
		Title:       m.Title,
		ContentHash: m.ContentHash,
		Decision:    m.Decision,
		Notes:       m.Notes,
		Status:      m.Status,
		CreatedAt:   created,
	}

	children, err := s.c.ListChildren(ctx, fmt.Sprintf("%s/%s/sections", s.prefix, docID), 0)
	if err != nil {
		return nil, err
	}
	r.Sections = make([]report.SectionReport, m.Sections)
	for _, n := range children {
		idx, err := strconv.Atoi(lastSegment(n.Key))
		if err != nil || idx < 0 || idx >= m.Sections {
			continue
		}
		if err := json.Unmarshal(n.Value, &r.Sections[idx]); err != nil {
			return nil, fmt.Errorf("decode %s: %w", n.Key, err)
		}
	}
	return r, nil
}

// DeleteReview removes a review and its duplicate-index entry.
func (s *ReviewStore) DeleteReview(ctx context.Context, docID string) error {
	node, err := s.c.GetNode(ctx, s.metaKey(docID))
	if err != nil {
		return err
	}
	if node != nil {
		var m reviewMeta
		if err := json.Unmarshal(node.Value, &m); err == nil && m.ContentHash != "" {
			if err := s.c.DeleteNode(ctx, s.hashKey(m.ContentHash, docID), false); err != nil {
				return err
			}
		}
	}
	return s.c.DeleteNode(ctx, fmt.Sprintf("%s/%s", s.prefix, docID), true)
}

// lastSegment returns the final component of a key path. pathstore reports
// keys dot-separated; slashes are accepted too.
func lastSegment(key string) string {
	if i := strings.LastIndexAny(key, "./"); i >= 0 {
		return key[i+1:]
	}
	return key
}

var _ pipeline.ResultStore = (*ReviewStore)(nil)
