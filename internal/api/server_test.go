package api

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dgallion1/paperreview/internal/config"
	"github.com/dgallion1/paperreview/internal/pipeline"
	"github.com/dgallion1/paperreview/internal/report"
	"github.com/dgallion1/paperreview/internal/review"
)

const testKey = "test-key"

const samplePaper = `Deep Widgets for Everyone
Abstract
We present widgets.
1. Introduction
Widgets matter.
2. Method
We combine widgets.
3. Results
Accuracy improves by 4%.
References
[1] Someone. A paper.
`

// fakeLLM proceeds on the first pass and accepts every section. When gate
// is set, calls block until it is closed.
type fakeLLM struct {
	gate chan struct{}
}

func (f *fakeLLM) Name() string { return "fake" }

func (f *fakeLLM) Complete(ctx context.Context, prompt string) (string, error) {
	if f.gate != nil {
		select {
		case <-f.gate:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if strings.Contains(prompt, "DECISION:") {
		return "DECISION: PROCEED\nREASON: Relevant.", nil
	}
	return "STATUS: ACCEPT\n\nFLAGGED ISSUES (max 4):", nil
}

// memStore is an in-memory result store that can also load single reviews.
type memStore struct {
	mu      sync.Mutex
	reviews map[string]pipeline.StoredReview
}

func newMemStore() *memStore {
	return &memStore{reviews: make(map[string]pipeline.StoredReview)}
}

func (m *memStore) SaveReview(_ context.Context, r pipeline.StoredReview) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reviews[r.DocID] = r
	return nil
}

func (m *memStore) FindByHash(_ context.Context, hash string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, r := range m.reviews {
		if r.ContentHash == hash {
			return id, true, nil
		}
	}
	return "", false, nil
}

func (m *memStore) ListReviews(_ context.Context) ([]pipeline.StoredReview, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []pipeline.StoredReview
	for _, r := range m.reviews {
		r.Sections = nil
		out = append(out, r)
	}
	return out, nil
}

func (m *memStore) GetReview(_ context.Context, docID string) (*pipeline.StoredReview, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.reviews[docID]
	if !ok {
		return nil, nil
	}
	return &r, nil
}

func (m *memStore) DeleteReview(_ context.Context, docID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.reviews, docID)
	return nil
}

func testConfig() config.Config {
	cfg := config.Defaults()
	cfg.APIKey = testKey
	cfg.WorkerCount = 2
	cfg.MaxQueueSize = 10
	cfg.MaxConcurrentReview = 2
	cfg.PDFFallbackPdftotext = false
	return cfg
}

type testServer struct {
	*httptest.Server
	orch *pipeline.Orchestrator
}

func newTestServer(t *testing.T, cfg config.Config, llm review.Provider, store pipeline.ResultStore) *testServer {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	orch := pipeline.NewOrchestrator(cfg, llm, store, log)
	orch.Start(context.Background())
	t.Cleanup(orch.Stop)

	stats := review.NewLLMStats(time.Hour)
	srv := httptest.NewServer(NewServer(orch, stats, log, cfg))
	t.Cleanup(srv.Close)
	return &testServer{Server: srv, orch: orch}
}

type upload struct {
	field, name, body string
}

func multipartBody(t *testing.T, fields map[string]string, files ...upload) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		mw.WriteField(k, v)
	}
	for _, f := range files {
		fw, err := mw.CreateFormFile(f.field, f.name)
		if err != nil {
			t.Fatal(err)
		}
		fw.Write([]byte(f.body))
	}
	mw.Close()
	return &buf, mw.FormDataContentType()
}

func (ts *testServer) do(t *testing.T, method, path string, body io.Reader, contentType string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, ts.URL+path, body)
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Authorization", "Bearer "+testKey)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func (ts *testServer) post(t *testing.T, path string, fields map[string]string, files ...upload) *http.Response {
	t.Helper()
	body, ct := multipartBody(t, fields, files...)
	return ts.do(t, http.MethodPost, path, body, ct)
}

func decode(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return out
}

func waitTerminal(t *testing.T, orch *pipeline.Orchestrator, jobID string) pipeline.JobSnapshot {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if job := orch.GetJob(jobID); job != nil {
			if snap := job.Snapshot(); snap.Status.Terminal() {
				return snap
			}
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("job %s did not finish", jobID)
	return pipeline.JobSnapshot{}
}

func TestHealth_Public(t *testing.T) {
	ts := newTestServer(t, testConfig(), &fakeLLM{}, nil)
	resp, err := http.Get(ts.URL + "/health")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if got := decode(t, resp)["status"]; got != "ok" {
		t.Errorf("expected ok, got %v", got)
	}
}

func TestAuth(t *testing.T) {
	ts := newTestServer(t, testConfig(), &fakeLLM{}, nil)
	tests := []struct {
		name   string
		header string
	}{
		{"missing", ""},
		{"wrong scheme", "Basic " + testKey},
		{"wrong key", "Bearer nope"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, _ := http.NewRequest(http.MethodGet, ts.URL+"/api/stats/llm", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				t.Fatal(err)
			}
			resp.Body.Close()
			if resp.StatusCode != http.StatusUnauthorized {
				t.Errorf("expected 401, got %d", resp.StatusCode)
			}
		})
	}
}

func TestSections(t *testing.T) {
	ts := newTestServer(t, testConfig(), &fakeLLM{}, nil)
	resp := ts.post(t, "/api/sections", nil, upload{"file", "widgets.txt", samplePaper})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var out struct {
		Title    string        `json:"title"`
		Decision string        `json:"decision"`
		Sections []sectionView `json:"sections"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if out.Decision != report.DecisionRaw {
		t.Errorf("expected raw decision, got %q", out.Decision)
	}
	want := []struct {
		title    string
		eligible bool
	}{
		{"Preamble/Introduction", false},
		{"ABSTRACT", false},
		{"1. Introduction", true},
		{"2. Method", true},
		{"3. Results", true},
	}
	if len(out.Sections) != len(want) {
		t.Fatalf("expected %d sections, got %+v", len(want), out.Sections)
	}
	for i, w := range want {
		if out.Sections[i].Title != w.title || out.Sections[i].Eligible != w.eligible {
			t.Errorf("section %d: expected %q eligible=%v, got %+v", i, w.title, w.eligible, out.Sections[i])
		}
	}
	if strings.Contains(out.Sections[4].Content, "Someone") {
		t.Error("expected references to be cut from the last section")
	}
}

func TestUploadRejections(t *testing.T) {
	cfg := testConfig()
	cfg.MaxUploadBytes = 64
	ts := newTestServer(t, cfg, &fakeLLM{}, nil)

	tests := []struct {
		name string
		path string
		file upload
		want int
	}{
		{"unsupported", "/api/reviews", upload{"file", "paper.exe", "MZ"}, http.StatusBadRequest},
		{"too large", "/api/reviews", upload{"file", "paper.txt", strings.Repeat("x", 65)}, http.StatusRequestEntityTooLarge},
		{"empty", "/api/sections", upload{"file", "paper.txt", ""}, http.StatusBadRequest},
		{"wrong field", "/api/sections", upload{"document", "paper.txt", "hello"}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := ts.post(t, tt.path, nil, tt.file)
			if resp.StatusCode != tt.want {
				t.Errorf("expected %d, got %d", tt.want, resp.StatusCode)
			}
			if decode(t, resp)["error"] == nil {
				t.Error("expected error message")
			}
		})
	}
}

func TestReview_Flow(t *testing.T) {
	store := newMemStore()
	ts := newTestServer(t, testConfig(), &fakeLLM{}, store)

	resp := ts.post(t, "/api/reviews", map[string]string{"title": "Deep Widgets", "doc_id": "DOC1"},
		upload{"file", "widgets.txt", samplePaper})
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", resp.StatusCode)
	}
	body := decode(t, resp)
	jobID, _ := body["job_id"].(string)
	if jobID == "" || body["doc_id"] != "DOC1" || body["poll_url"] != "/api/reviews/"+jobID+"/status" {
		t.Fatalf("unexpected response %v", body)
	}

	snap := waitTerminal(t, ts.orch, jobID)
	if snap.Status != pipeline.StatusCompleted {
		t.Fatalf("expected completed, got %q (%v)", snap.Status, snap.Progress.Errors)
	}

	status := decode(t, ts.do(t, http.MethodGet, "/api/reviews/"+jobID+"/status", nil, ""))
	if status["status"] != string(pipeline.StatusCompleted) || status["title"] != "Deep Widgets" {
		t.Errorf("unexpected status %v", status)
	}

	txt := ts.do(t, http.MethodGet, "/api/reviews/"+jobID+"/report.txt", nil, "")
	b, _ := io.ReadAll(txt.Body)
	if txt.StatusCode != http.StatusOK || !strings.Contains(string(b), "1. Introduction") {
		t.Errorf("unexpected text report %d: %s", txt.StatusCode, b)
	}
	if cd := txt.Header.Get("Content-Disposition"); !strings.Contains(cd, "Report_widgets.txt.txt") {
		t.Errorf("unexpected disposition %q", cd)
	}

	pdf := ts.do(t, http.MethodGet, "/api/reviews/"+jobID+"/report.pdf", nil, "")
	b, _ = io.ReadAll(pdf.Body)
	if pdf.StatusCode != http.StatusOK || !bytes.HasPrefix(b, []byte("%PDF")) {
		t.Errorf("expected pdf, got %d %q", pdf.StatusCode, b[:min(len(b), 16)])
	}

	// The finished review is stored and can be read back and deleted.
	list := decode(t, ts.do(t, http.MethodGet, "/api/stored", nil, ""))
	if reviews, _ := list["reviews"].([]any); len(reviews) != 1 {
		t.Fatalf("expected one stored review, got %v", list)
	}
	got := decode(t, ts.do(t, http.MethodGet, "/api/stored/DOC1", nil, ""))
	if got["decision"] != review.DecisionProceed {
		t.Errorf("unexpected stored review %v", got)
	}
	if resp := ts.do(t, http.MethodDelete, "/api/stored/DOC1", nil, ""); resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200 on delete, got %d", resp.StatusCode)
	}
	if resp := ts.do(t, http.MethodGet, "/api/stored/DOC1", nil, ""); resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404 after delete, got %d", resp.StatusCode)
	}
}

func TestReview_NotReady(t *testing.T) {
	llm := &fakeLLM{gate: make(chan struct{})}
	ts := newTestServer(t, testConfig(), llm, nil)

	body := decode(t, ts.post(t, "/api/reviews", nil, upload{"file", "widgets.txt", samplePaper}))
	jobID := body["job_id"].(string)

	resp := ts.do(t, http.MethodGet, "/api/reviews/"+jobID+"/report.txt", nil, "")
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("expected 409 while running, got %d", resp.StatusCode)
	}
	close(llm.gate)
	waitTerminal(t, ts.orch, jobID)

	if resp := ts.do(t, http.MethodGet, "/api/reviews/"+jobID+"/report.txt", nil, ""); resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200 once finished, got %d", resp.StatusCode)
	}
}

func TestReview_UnknownJob(t *testing.T) {
	ts := newTestServer(t, testConfig(), &fakeLLM{}, nil)
	for _, path := range []string{"/api/reviews/nope/status", "/api/reviews/nope/report.pdf", "/api/batches/nope/summary.csv"} {
		if resp := ts.do(t, http.MethodGet, path, nil, ""); resp.StatusCode != http.StatusNotFound {
			t.Errorf("%s: expected 404, got %d", path, resp.StatusCode)
		}
	}
}

func TestBatch_Flow(t *testing.T) {
	ts := newTestServer(t, testConfig(), &fakeLLM{}, nil)

	resp := ts.post(t, "/api/reviews/batch", nil,
		upload{"files", "a.txt", samplePaper},
		upload{"files", "b.md", "# Notes\n\n1. Introduction\n\nShort notes.\n"},
		upload{"files", "c.exe", "MZ"},
	)
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", resp.StatusCode)
	}
	var out struct {
		BatchID string           `json:"batch_id"`
		Jobs    []map[string]any `json:"jobs"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if out.BatchID == "" || len(out.Jobs) != 3 {
		t.Fatalf("unexpected batch response %+v", out)
	}
	if out.Jobs[2]["error"] == nil || out.Jobs[2]["job_id"] != nil {
		t.Errorf("expected unsupported file to be refused, got %v", out.Jobs[2])
	}
	for _, j := range out.Jobs[:2] {
		waitTerminal(t, ts.orch, j["job_id"].(string))
	}

	batch := decode(t, ts.do(t, http.MethodGet, "/api/batches/"+out.BatchID, nil, ""))
	if batch["done"] != true {
		t.Errorf("expected batch done, got %v", batch)
	}

	csvResp := ts.do(t, http.MethodGet, "/api/batches/"+out.BatchID+"/summary.csv", nil, "")
	if csvResp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", csvResp.StatusCode)
	}
	rows, err := report.ReadSummaryCSV(csvResp.Body)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 || rows[0].Filename != "a.txt" || rows[1].Filename != "b.md" {
		t.Errorf("unexpected summary %+v", rows)
	}

	zipResp := ts.do(t, http.MethodGet, "/api/batches/"+out.BatchID+"/archive.zip", nil, "")
	data, _ := io.ReadAll(zipResp.Body)
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("open zip: %v", err)
	}
	names := map[string]bool{}
	for _, f := range zr.File {
		names[f.Name] = true
	}
	if len(zr.File) != 3 || !names[report.SummaryName] {
		t.Errorf("unexpected archive entries %v", names)
	}
}

func TestBatch_StillRunning(t *testing.T) {
	llm := &fakeLLM{gate: make(chan struct{})}
	ts := newTestServer(t, testConfig(), llm, nil)

	out := decode(t, ts.post(t, "/api/reviews/batch", nil, upload{"files", "a.txt", samplePaper}))
	id := out["batch_id"].(string)
	for _, suffix := range []string{"/summary.csv", "/archive.zip"} {
		if resp := ts.do(t, http.MethodGet, "/api/batches/"+id+suffix, nil, ""); resp.StatusCode != http.StatusConflict {
			t.Errorf("%s: expected 409, got %d", suffix, resp.StatusCode)
		}
	}
	close(llm.gate)
}

func TestBatch_NoFiles(t *testing.T) {
	ts := newTestServer(t, testConfig(), &fakeLLM{}, nil)
	if resp := ts.post(t, "/api/reviews/batch", map[string]string{"x": "y"}); resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", resp.StatusCode)
	}
	if resp := ts.post(t, "/api/reviews/batch", nil, upload{"files", "a.exe", "MZ"}); resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 when every file is refused, got %d", resp.StatusCode)
	}
}

func TestStored_NoStore(t *testing.T) {
	ts := newTestServer(t, testConfig(), &fakeLLM{}, nil)
	if resp := ts.do(t, http.MethodGet, "/api/stored", nil, ""); resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", resp.StatusCode)
	}
	if resp := ts.do(t, http.MethodDelete, "/api/stored/x", nil, ""); resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", resp.StatusCode)
	}
}

func TestLLMStats(t *testing.T) {
	ts := newTestServer(t, testConfig(), &fakeLLM{}, nil)
	resp := ts.do(t, http.MethodGet, "/api/stats/llm", nil, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	body := decode(t, resp)
	if provs, _ := body["providers"].([]any); len(provs) != 1 || provs[0] != config.ProviderClaude {
		t.Errorf("unexpected providers %v", body["providers"])
	}
	if _, ok := body["stats"].(map[string]any); !ok {
		t.Errorf("expected stats object, got %v", body["stats"])
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := map[string]string{
		"paper.pdf":              "paper.pdf",
		"../../etc/passwd.txt":   "passwd.txt",
		`C:\Users\me\draft.docx`: "draft.docx",
		"a..b.md":                "a_b.md",
		"":                       "unnamed",
	}
	for in, want := range tests {
		if got := sanitizeFilename(in); got != want {
			t.Errorf("sanitizeFilename(%q): expected %q, got %q", in, want, got)
		}
	}
}

func TestReview_DocIDValidation(t *testing.T) {
	ts := newTestServer(t, testConfig(), &fakeLLM{}, newMemStore())
	tests := []struct {
		docID string
		want  int
	}{
		{"DOC_1-a", http.StatusAccepted},
		{"a.b", http.StatusBadRequest},
		{"a/b", http.StatusBadRequest},
		{"../etc", http.StatusBadRequest},
		{"has space", http.StatusBadRequest},
		{strings.Repeat("x", 129), http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.docID, func(t *testing.T) {
			resp := ts.post(t, "/api/reviews", map[string]string{"doc_id": tt.docID}, upload{"file", "widgets.txt", samplePaper})
			if resp.StatusCode != tt.want {
				t.Errorf("expected %d, got %d", tt.want, resp.StatusCode)
			}
		})
	}

	for _, method := range []string{http.MethodGet, http.MethodDelete} {
		if resp := ts.do(t, method, "/api/stored/a.b", nil, ""); resp.StatusCode != http.StatusBadRequest {
			t.Errorf("%s: expected 400 for dotted doc id, got %d", method, resp.StatusCode)
		}
	}
}
