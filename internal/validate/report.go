package validate

import (
	"fmt"
	"io"

	"github.com/kalambet/snakebite/internal/schema"
)

// FileReport is the validation outcome for one submission file.
type FileReport struct {
	RelPath string         `json:"path"`
	Records int            `json:"records"`
	Issues  []schema.Issue `json:"issues,omitempty"`
}

// Passed reports whether every line of the file conformed to the schema.
func (fr FileReport) Passed() bool {
	return len(fr.Issues) == 0
}

// Report is the outcome for a whole results tree, ordered by relative path.
type Report struct {
	Files   []FileReport `json:"files"`
	Records int          `json:"records"`
	Failed  int          `json:"failed_files"`
	Issues  int          `json:"issues"`
}

// Passed reports whether every discovered file passed.
func (r *Report) Passed() bool {
	return r.Failed == 0
}

// Write renders the per-file report. Passing files get a single line;
// failing files list every issue, already ordered by line number.
func (r *Report) Write(w io.Writer) {
	for _, fr := range r.Files {
		if fr.Passed() {
			fmt.Fprintf(w, "PASS %s (%d records)\n", fr.RelPath, fr.Records)
			continue
		}
		fmt.Fprintf(w, "FAIL %s\n", fr.RelPath)
		for _, is := range fr.Issues {
			fmt.Fprintf(w, "  %s\n", is)
		}
	}

	switch {
	case len(r.Files) == 0:
		fmt.Fprintln(w, "no .jsonl files found (ok)")
	case r.Passed():
		fmt.Fprintf(w, "validation ok: %d file(s), %d record(s)\n", len(r.Files), r.Records)
	default:
		fmt.Fprintf(w, "validation failed: %d of %d file(s), %d issue(s)\n", r.Failed, len(r.Files), r.Issues)
	}
}
