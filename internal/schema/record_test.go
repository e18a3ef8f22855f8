package schema

import (
	"encoding/json"
	"strings"
	"testing"
)

func validLine(t *testing.T, mutate func(m map[string]any)) []byte {
	t.Helper()
	m := map[string]any{
		"model":        "m1",
		"valid_before": false,
		"valid_after":  true,
		"error_class":  "IndentationError",
		"fix_attempts": 1,
		"file_hash":    strings.Repeat("a", 64),
	}
	if mutate != nil {
		mutate(m)
	}
	b, err := json.Marshal(m)
	if err != nil {
		t.Fatal(err)
	}
	return b
}

func kinds(issues []Issue) []ErrorKind {
	out := make([]ErrorKind, len(issues))
	for i, is := range issues {
		out[i] = is.Kind
	}
	return out
}

func hasKind(issues []Issue, kind ErrorKind) bool {
	for _, is := range issues {
		if is.Kind == kind {
			return true
		}
	}
	return false
}

func TestCheckLineValid(t *testing.T) {
	rec, issues := CheckLine(validLine(t, nil))
	if len(issues) != 0 {
		t.Fatalf("unexpected issues: %v", issues)
	}
	if rec.Model != "m1" || rec.ValidBefore || !rec.ValidAfter || rec.FixAttempts != 1 {
		t.Errorf("record not decoded: %+v", rec)
	}
	if rec.ErrorClass == nil || *rec.ErrorClass != "IndentationError" {
		t.Errorf("error_class not decoded: %v", rec.ErrorClass)
	}
	if !rec.NeededRepair() || !rec.Repaired() {
		t.Errorf("derived flags wrong: %+v", rec)
	}
}

func TestCheckLineNullErrorClass(t *testing.T) {
	rec, issues := CheckLine(validLine(t, func(m map[string]any) { m["error_class"] = nil }))
	if len(issues) != 0 {
		t.Fatalf("unexpected issues: %v", issues)
	}
	if rec.ErrorClass != nil {
		t.Errorf("error_class = %v, want nil", *rec.ErrorClass)
	}
}

func TestCheckLineOmittedErrorClass(t *testing.T) {
	_, issues := CheckLine(validLine(t, func(m map[string]any) { delete(m, "error_class") }))
	if len(issues) != 0 {
		t.Fatalf("error_class is optional, got issues: %v", issues)
	}
}

func TestCheckLineParseError(t *testing.T) {
	_, issues := CheckLine([]byte(`{"model": "m1",`))
	if len(issues) != 1 || issues[0].Kind != KindParse {
		t.Fatalf("issues = %v, want single ParseError", issues)
	}
}

func TestCheckLineNotObject(t *testing.T) {
	for _, line := range []string{`[]`, `"record"`, `42`, `null`, `true`} {
		_, issues := CheckLine([]byte(line))
		if len(issues) != 1 || issues[0].Kind != KindSchema {
			t.Errorf("CheckLine(%s) issues = %v, want single SchemaError", line, issues)
		}
	}
}

func TestCheckLineMissingField(t *testing.T) {
	for _, field := range []string{"model", "valid_before", "valid_after", "fix_attempts", "file_hash"} {
		_, issues := CheckLine(validLine(t, func(m map[string]any) { delete(m, field) }))
		if !hasKind(issues, KindMissingField) {
			t.Errorf("missing %q: issues = %v, want MissingFieldError", field, kinds(issues))
			continue
		}
		found := false
		for _, is := range issues {
			if is.Kind == KindMissingField && strings.Contains(is.Message, `"`+field+`"`) {
				found = true
			}
		}
		if !found {
			t.Errorf("missing %q not named in issues: %v", field, issues)
		}
	}
}

// A single extra field rejects the line no matter how valid the rest is, and
// the report names the offender.
func TestCheckLineUnexpectedField(t *testing.T) {
	_, issues := CheckLine(validLine(t, func(m map[string]any) { m["notes"] = "looks fine" }))
	if len(issues) != 1 || issues[0].Kind != KindUnexpectedField {
		t.Fatalf("issues = %v, want single UnexpectedFieldError", issues)
	}
	if !strings.Contains(issues[0].Message, `"notes"`) {
		t.Errorf("offending field not named: %s", issues[0].Message)
	}
}

func TestCheckLineBannedField(t *testing.T) {
	for _, field := range []string{"prompt", "source", "code", "Completion", "OUTPUT"} {
		_, issues := CheckLine(validLine(t, func(m map[string]any) { m[field] = "leaked" }))
		if len(issues) != 1 || issues[0].Kind != KindUnexpectedField {
			t.Errorf("banned %q: issues = %v, want single UnexpectedFieldError", field, issues)
			continue
		}
		if !strings.Contains(issues[0].Message, "banned") || !strings.Contains(issues[0].Message, field) {
			t.Errorf("banned %q not called out: %s", field, issues[0].Message)
		}
	}
}

func TestCheckLineFieldConstraints(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(m map[string]any)
		field  string
	}{
		{"model empty", func(m map[string]any) { m["model"] = "  " }, "model"},
		{"model not string", func(m map[string]any) { m["model"] = 7 }, "model"},
		{"valid_before not bool", func(m map[string]any) { m["valid_before"] = "false" }, "valid_before"},
		{"valid_after not bool", func(m map[string]any) { m["valid_after"] = 1 }, "valid_after"},
		{"fix_attempts negative", func(m map[string]any) { m["fix_attempts"] = -1 }, "fix_attempts"},
		{"fix_attempts fractional", func(m map[string]any) { m["fix_attempts"] = 1.5 }, "fix_attempts"},
		{"fix_attempts string", func(m map[string]any) { m["fix_attempts"] = "2" }, "fix_attempts"},
		{"file_hash short", func(m map[string]any) { m["file_hash"] = strings.Repeat("a", 63) }, "file_hash"},
		{"file_hash long", func(m map[string]any) { m["file_hash"] = strings.Repeat("a", 65) }, "file_hash"},
		{"file_hash uppercase", func(m map[string]any) { m["file_hash"] = strings.Repeat("A", 64) }, "file_hash"},
		{"file_hash non-hex", func(m map[string]any) { m["file_hash"] = strings.Repeat("z", 64) }, "file_hash"},
		{"error_class not string", func(m map[string]any) { m["error_class"] = 3 }, "error_class"},
		{"error_class overlong", func(m map[string]any) { m["error_class"] = strings.Repeat("x", 2001) }, "error_class"},
		{"error_class path leak", func(m map[string]any) { m["error_class"] = "error in /home/user/sample.py" }, "error_class"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, issues := CheckLine(validLine(t, tt.mutate))
			if len(issues) != 1 || issues[0].Kind != KindFieldConstraint {
				t.Fatalf("issues = %v, want single FieldConstraintError", issues)
			}
			if !strings.Contains(issues[0].Message, `"`+tt.field+`"`) {
				t.Errorf("offending field not named: %s", issues[0].Message)
			}
		})
	}
}

// Every problem on a line is reported, not just the first.
func TestCheckLineReportsAllIssues(t *testing.T) {
	_, issues := CheckLine(validLine(t, func(m map[string]any) {
		delete(m, "file_hash")
		m["fix_attempts"] = -3
		m["prompt"] = "leaked"
	}))
	if len(issues) != 3 {
		t.Fatalf("got %d issue(s), want 3: %v", len(issues), issues)
	}
	for _, kind := range []ErrorKind{KindMissingField, KindFieldConstraint, KindUnexpectedField} {
		if !hasKind(issues, kind) {
			t.Errorf("missing %s in %v", kind, kinds(issues))
		}
	}
}
