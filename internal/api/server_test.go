package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/kalambet/snakebite/internal/storage"
)

func newTestHandler(t *testing.T, store *storage.Store) (http.Handler, string) {
	t.Helper()
	pub := t.TempDir()
	return NewHandler(Deps{PublicDir: pub, Store: store}), pub
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest("GET", path, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	h, _ := newTestHandler(t, nil)

	rec := get(t, h, "/health")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body["status"] != "ok" {
		t.Errorf("body = %v", body)
	}
}

func TestSummaryNotGenerated(t *testing.T) {
	h, _ := newTestHandler(t, nil)

	rec := get(t, h, "/api/summary")
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestSummaryServed(t *testing.T) {
	h, pub := newTestHandler(t, nil)
	content := `{"total_records": 7}`
	if err := os.WriteFile(filepath.Join(pub, "summary.json"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	rec := get(t, h, "/api/summary")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}
	if rec.Body.String() != content {
		t.Errorf("body = %q", rec.Body.String())
	}
}

func TestStaticFilesServed(t *testing.T) {
	h, pub := newTestHandler(t, nil)
	if err := os.WriteFile(filepath.Join(pub, "index.html"), []byte("<h1>probe</h1>"), 0o644); err != nil {
		t.Fatal(err)
	}

	rec := get(t, h, "/index.html")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if rec.Body.String() != "<h1>probe</h1>" {
		t.Errorf("body = %q", rec.Body.String())
	}
}

func TestRunsWithoutStore(t *testing.T) {
	h, _ := newTestHandler(t, nil)

	rec := get(t, h, "/api/runs")
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestRunsListed(t *testing.T) {
	store, err := storage.Open(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })

	run := storage.Run{
		ID:        "run-1",
		Kind:      storage.RunValidate,
		StartedAt: time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC),
		Files:     2,
		Records:   10,
		Status:    storage.StatusPassed,
	}
	if err := store.SaveRun(run); err != nil {
		t.Fatal(err)
	}

	h, _ := newTestHandler(t, store)
	rec := get(t, h, "/api/runs")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var views []struct {
		ID     string `json:"id"`
		Kind   string `json:"kind"`
		Status string `json:"status"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&views); err != nil {
		t.Fatal(err)
	}
	if len(views) != 1 || views[0].ID != "run-1" || views[0].Kind != "validate" || views[0].Status != "passed" {
		t.Errorf("views = %+v", views)
	}
}
