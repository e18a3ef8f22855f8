package schema

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"
)

// ErrorKind classifies why a submitted line was rejected.
type ErrorKind string

const (
	KindParse           ErrorKind = "ParseError"
	KindSchema          ErrorKind = "SchemaError"
	KindMissingField    ErrorKind = "MissingFieldError"
	KindUnexpectedField ErrorKind = "UnexpectedFieldError"
	KindFieldConstraint ErrorKind = "FieldConstraintError"
	KindModelMismatch   ErrorKind = "ModelMismatchError"
	KindLayout          ErrorKind = "LayoutError"
)

// Issue is a single rejection reason tied to a line of a submission file.
// Line is 1-based; 0 means the issue concerns the file as a whole.
type Issue struct {
	Line    int       `json:"line"`
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
}

func (i Issue) String() string {
	if i.Line == 0 {
		return fmt.Sprintf("%s: %s", i.Kind, i.Message)
	}
	return fmt.Sprintf("line %d: %s: %s", i.Line, i.Kind, i.Message)
}

// Record is one accepted submission line. This is the complete wire schema;
// any key outside this set is grounds for rejection.
type Record struct {
	Model       string  `json:"model"`
	ValidBefore bool    `json:"valid_before"`
	ValidAfter  bool    `json:"valid_after"`
	ErrorClass  *string `json:"error_class,omitempty"`
	FixAttempts int     `json:"fix_attempts"`
	FileHash    string  `json:"file_hash"`
}

// NeededRepair reports whether the sample was syntactically invalid as
// produced and therefore entered the repair loop.
func (r Record) NeededRepair() bool {
	return !r.ValidBefore
}

// Repaired reports whether an invalid sample became valid after repair.
func (r Record) Repaired() bool {
	return !r.ValidBefore && r.ValidAfter
}

const maxErrorClassLen = 2000

var requiredKeys = []string{"model", "valid_before", "valid_after", "fix_attempts", "file_hash"}

var allowedKeys = map[string]bool{
	"model":        true,
	"valid_before": true,
	"valid_after":  true,
	"error_class":  true,
	"fix_attempts": true,
	"file_hash":    true,
}

// Keys that must never appear, lowercased. They would carry prompts or model
// output, which submissions are required to strip before leaving the
// contributor's machine.
var bannedKeys = map[string]bool{
	"source":     true,
	"code":       true,
	"prompt":     true,
	"messages":   true,
	"completion": true,
	"content":    true,
	"input":      true,
	"output":     true,
}

var hashRE = regexp.MustCompile(`^[a-f0-9]{64}$`)

// CheckLine validates a single JSONL line against the submission schema and
// returns every issue found, not just the first. On a clean line it returns
// the decoded Record and an empty issue slice.
func CheckLine(line []byte) (Record, []Issue) {
	var raw any
	if err := json.Unmarshal(line, &raw); err != nil {
		return Record{}, []Issue{{Kind: KindParse, Message: fmt.Sprintf("invalid JSON: %v", err)}}
	}

	obj, ok := raw.(map[string]any)
	if !ok {
		return Record{}, []Issue{{Kind: KindSchema, Message: fmt.Sprintf("value is %s, not an object", jsonTypeName(raw))}}
	}

	var issues []Issue

	// Key-set check first: extras are rejected before any value is looked at,
	// and strict equality (not subset) is what keeps disallowed payloads out.
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		if allowedKeys[k] {
			continue
		}
		if bannedKeys[strings.ToLower(k)] {
			issues = append(issues, Issue{Kind: KindUnexpectedField, Message: fmt.Sprintf("banned field %q present", k)})
			continue
		}
		issues = append(issues, Issue{Kind: KindUnexpectedField, Message: fmt.Sprintf("unexpected field %q", k)})
	}

	for _, k := range requiredKeys {
		if _, ok := obj[k]; !ok {
			issues = append(issues, Issue{Kind: KindMissingField, Message: fmt.Sprintf("missing required field %q", k)})
		}
	}

	var rec Record
	issues = append(issues, checkFields(obj, &rec)...)

	if len(issues) > 0 {
		return Record{}, issues
	}
	return rec, nil
}

// checkFields validates the type and value of every present allow-listed
// field, filling rec as it goes.
func checkFields(obj map[string]any, rec *Record) []Issue {
	var issues []Issue
	constraint := func(field, format string, args ...any) {
		issues = append(issues, Issue{
			Kind:    KindFieldConstraint,
			Message: fmt.Sprintf("field %q: %s", field, fmt.Sprintf(format, args...)),
		})
	}

	if v, ok := obj["model"]; ok {
		s, isStr := v.(string)
		switch {
		case !isStr:
			constraint("model", "must be a string, got %s", jsonTypeName(v))
		case strings.TrimSpace(s) == "":
			constraint("model", "must be non-empty")
		default:
			rec.Model = s
		}
	}

	for _, f := range []struct {
		key string
		dst *bool
	}{
		{"valid_before", &rec.ValidBefore},
		{"valid_after", &rec.ValidAfter},
	} {
		if v, ok := obj[f.key]; ok {
			b, isBool := v.(bool)
			if !isBool {
				constraint(f.key, "must be a boolean, got %s", jsonTypeName(v))
				continue
			}
			*f.dst = b
		}
	}

	if v, ok := obj["fix_attempts"]; ok {
		f, isNum := v.(float64)
		switch {
		case !isNum:
			constraint("fix_attempts", "must be an integer, got %s", jsonTypeName(v))
		case math.Trunc(f) != f:
			constraint("fix_attempts", "must be an integer, got %v", f)
		case f < 0:
			constraint("fix_attempts", "must be >= 0, got %d", int(f))
		default:
			rec.FixAttempts = int(f)
		}
	}

	if v, ok := obj["file_hash"]; ok {
		s, isStr := v.(string)
		switch {
		case !isStr:
			constraint("file_hash", "must be a string, got %s", jsonTypeName(v))
		case !hashRE.MatchString(s):
			constraint("file_hash", "must be 64 lowercase hex chars")
		default:
			rec.FileHash = s
		}
	}

	if v, ok := obj["error_class"]; ok && v != nil {
		s, isStr := v.(string)
		switch {
		case !isStr:
			constraint("error_class", "must be a string or null, got %s", jsonTypeName(v))
		case len([]rune(s)) > maxErrorClassLen:
			constraint("error_class", "exceeds %d characters", maxErrorClassLen)
		case LeaksPath(s):
			constraint("error_class", "contains a filesystem path; sanitize before submitting")
		default:
			rec.ErrorClass = &s
		}
	}

	return issues
}

func jsonTypeName(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case float64:
		return "number"
	case string:
		return "string"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	default:
		return fmt.Sprintf("%T", v)
	}
}
