// Package api exposes the generated summary artifacts over HTTP and the
// maintainer tooling over MCP.
package api

import (
	"encoding/json"
	"errors"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"

	"github.com/go-chi/chi/v5"

	"github.com/kalambet/snakebite/internal/storage"
)

// Deps holds the dependencies for the HTTP handler.
type Deps struct {
	PublicDir string
	Store     *storage.Store // optional; /api/runs returns 404 when nil
}

// NewHandler builds the serve-command router: health, the machine-readable
// summary, recent runs, and the static public tree (index.html and friends).
func NewHandler(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Get("/health", handleHealth)
	r.Get("/api/summary", handleSummary(deps))
	r.Get("/api/runs", handleRuns(deps))
	r.Handle("/*", http.FileServer(http.Dir(deps.PublicDir)))

	return r
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func handleSummary(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		data, err := os.ReadFile(filepath.Join(deps.PublicDir, "summary.json"))
		if errors.Is(err, fs.ErrNotExist) {
			writeError(w, http.StatusNotFound, "no summary generated yet; run `snakebite aggregate`")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write(data)
	}
}

func handleRuns(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if deps.Store == nil {
			writeError(w, http.StatusNotFound, "run history not available")
			return
		}

		runs, err := deps.Store.GetRecentRuns(20)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}

		type runView struct {
			ID        string `json:"id"`
			Kind      string `json:"kind"`
			StartedAt string `json:"started_at"`
			Files     int    `json:"files"`
			Records   int    `json:"records"`
			Issues    int    `json:"issues"`
			Status    string `json:"status"`
		}
		views := make([]runView, len(runs))
		for i, run := range runs {
			views[i] = runView{
				ID:        run.ID,
				Kind:      run.Kind,
				StartedAt: run.StartedAt.UTC().Format("2006-01-02T15:04:05Z"),
				Files:     run.Files,
				Records:   run.Records,
				Issues:    run.Issues,
				Status:    run.Status,
			}
		}
		writeJSON(w, http.StatusOK, views)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
