package validate

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kalambet/snakebite/internal/schema"
)

func record(model string, validBefore, validAfter bool, fixAttempts int) string {
	return fmt.Sprintf(
		`{"model":%q,"valid_before":%t,"valid_after":%t,"error_class":null,"fix_attempts":%d,"file_hash":%q}`,
		model, validBefore, validAfter, fixAttempts, strings.Repeat("a", 64),
	)
}

func writeFile(t *testing.T, root, rel string, lines ...string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	content := strings.Join(lines, "\n")
	if content != "" {
		content += "\n"
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func run(t *testing.T, root string) *Report {
	t.Helper()
	rep, err := Run(context.Background(), root, 2)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	return rep
}

func TestRunAllPass(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "alice/2026-08-01/m1.jsonl",
		record("m1", false, true, 1),
		record("m1", true, true, 0),
	)
	writeFile(t, root, "bob/2026-08-02/m2.jsonl",
		record("m2", true, true, 0),
	)

	rep := run(t, root)
	if !rep.Passed() {
		t.Fatalf("expected pass, got %d failed file(s): %+v", rep.Failed, rep.Files)
	}
	if rep.Records != 3 {
		t.Errorf("Records = %d, want 3", rep.Records)
	}
}

func TestRunEmptyFilePasses(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "alice/2026-08-01/m1.jsonl")

	rep := run(t, root)
	if !rep.Passed() {
		t.Fatalf("empty file should pass: %+v", rep.Files)
	}
	if rep.Files[0].Records != 0 {
		t.Errorf("Records = %d, want 0", rep.Files[0].Records)
	}
}

// One extra field fails the whole file even when everything else is valid,
// and the report names the field.
func TestRunRejectsExtraField(t *testing.T) {
	root := t.TempDir()
	line := `{"model":"m1","valid_before":true,"valid_after":true,"error_class":null,"fix_attempts":0,"file_hash":"` +
		strings.Repeat("b", 64) + `","prompt":"write a snake game"}`
	writeFile(t, root, "alice/2026-08-01/m1.jsonl",
		record("m1", true, true, 0),
		line,
	)

	rep := run(t, root)
	if rep.Passed() {
		t.Fatal("file with extra field should fail")
	}
	fr := rep.Files[0]
	if len(fr.Issues) != 1 {
		t.Fatalf("issues = %v, want exactly one", fr.Issues)
	}
	is := fr.Issues[0]
	if is.Kind != schema.KindUnexpectedField || is.Line != 2 || !strings.Contains(is.Message, `"prompt"`) {
		t.Errorf("issue = %+v, want UnexpectedFieldError on line 2 naming prompt", is)
	}
}

// The validator reports every bad line in one pass so the contributor fixes
// the file in one resubmission.
func TestRunReportsEveryLine(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "alice/2026-08-01/m1.jsonl",
		`not json at all`,
		record("m1", true, true, 0),
		`{"model":"m1","valid_before":true,"valid_after":true,"fix_attempts":-1,"file_hash":"`+strings.Repeat("c", 64)+`"}`,
	)

	rep := run(t, root)
	fr := rep.Files[0]
	if len(fr.Issues) != 2 {
		t.Fatalf("issues = %v, want 2", fr.Issues)
	}
	if fr.Issues[0].Line != 1 || fr.Issues[0].Kind != schema.KindParse {
		t.Errorf("first issue = %+v, want ParseError on line 1", fr.Issues[0])
	}
	if fr.Issues[1].Line != 3 || fr.Issues[1].Kind != schema.KindFieldConstraint {
		t.Errorf("second issue = %+v, want FieldConstraintError on line 3", fr.Issues[1])
	}
}

// A line past the 1MB cap fails its file with a line-level issue; the other
// files (and the other lines of the same file) are still reported normally.
func TestRunOversizedLineFailsOnlyItsFile(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "alice/2026-08-01/m1.jsonl",
		record("m1", true, true, 0),
		`{"model":"m1","error_class":"`+strings.Repeat("x", 2<<20)+`"}`,
		record("m1", false, true, 1),
	)
	writeFile(t, root, "bob/2026-08-02/m2.jsonl",
		record("m2", true, true, 0),
	)

	rep := run(t, root)
	if rep.Failed != 1 {
		t.Fatalf("Failed = %d, want 1: %+v", rep.Failed, rep.Files)
	}

	fr := rep.Files[0]
	if len(fr.Issues) != 1 {
		t.Fatalf("issues = %v, want exactly one", fr.Issues)
	}
	is := fr.Issues[0]
	if is.Kind != schema.KindParse || is.Line != 2 || !strings.Contains(is.Message, "1MB") {
		t.Errorf("issue = %+v, want ParseError on line 2 naming the size limit", is)
	}
	if fr.Records != 2 {
		t.Errorf("Records = %d, want 2 (lines around the bad one still count)", fr.Records)
	}
	if !rep.Files[1].Passed() {
		t.Errorf("unaffected file should pass: %+v", rep.Files[1])
	}
}

func TestRunModelMismatch(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "alice/2026-08-01/m1.jsonl",
		record("m2", true, true, 0),
	)

	rep := run(t, root)
	if rep.Passed() {
		t.Fatal("model mismatch should fail the file")
	}
	is := rep.Files[0].Issues[0]
	if is.Kind != schema.KindModelMismatch {
		t.Errorf("kind = %s, want ModelMismatchError", is.Kind)
	}
	if !strings.Contains(is.Message, `"m2"`) || !strings.Contains(is.Message, `"m1"`) {
		t.Errorf("message should name both labels: %s", is.Message)
	}
}

func TestRunLayoutError(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "stray.jsonl", record("m1", true, true, 0))

	rep := run(t, root)
	if rep.Passed() {
		t.Fatal("misplaced file should fail")
	}
	issues := rep.Files[0].Issues
	if len(issues) != 1 || issues[0].Kind != schema.KindLayout {
		t.Fatalf("issues = %v, want single LayoutError", issues)
	}
	// No model label to compare against, so the schema-valid line itself counts.
	if rep.Files[0].Records != 1 {
		t.Errorf("Records = %d, want 1", rep.Files[0].Records)
	}
}

func TestRunMissingRoot(t *testing.T) {
	_, err := Run(context.Background(), filepath.Join(t.TempDir(), "nope"), 1)
	if err == nil {
		t.Fatal("expected error for missing root")
	}
}

// Report order must not depend on goroutine scheduling.
func TestRunDeterministicOrder(t *testing.T) {
	root := t.TempDir()
	for i := 0; i < 20; i++ {
		writeFile(t, root, fmt.Sprintf("h%02d/2026-08-01/m1.jsonl", i), record("m1", true, true, 0))
	}

	first := run(t, root)
	for trial := 0; trial < 5; trial++ {
		rep := run(t, root)
		for i := range rep.Files {
			if rep.Files[i].RelPath != first.Files[i].RelPath {
				t.Fatalf("file order changed between runs at index %d", i)
			}
		}
	}
}

func TestReportWrite(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "alice/2026-08-01/m1.jsonl", record("m1", true, true, 0))
	writeFile(t, root, "bob/2026-08-01/m1.jsonl", `broken`)

	rep := run(t, root)
	var b strings.Builder
	rep.Write(&b)
	out := b.String()

	if !strings.Contains(out, "PASS alice/2026-08-01/m1.jsonl") {
		t.Errorf("missing PASS line:\n%s", out)
	}
	if !strings.Contains(out, "FAIL bob/2026-08-01/m1.jsonl") {
		t.Errorf("missing FAIL line:\n%s", out)
	}
	if !strings.Contains(out, "validation failed: 1 of 2 file(s)") {
		t.Errorf("missing summary line:\n%s", out)
	}
}

func TestReportWriteEmptyTree(t *testing.T) {
	rep := run(t, t.TempDir())
	var b strings.Builder
	rep.Write(&b)
	if !strings.Contains(b.String(), "no .jsonl files found (ok)") {
		t.Errorf("unexpected output: %s", b.String())
	}
}
