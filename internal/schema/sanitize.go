package schema

import (
	"regexp"
	"strings"
)

// pathRE matches absolute filesystem paths embedded in error text. Matching
// is intentionally greedy about what counts as a path: leaking a partial one
// is still leaking.
var pathRE = regexp.MustCompile(`(/[^\s:"]+)+`)

const pathPlaceholder = "<path>"

// leakSpans returns the index spans of path matches in s, skipping spans that
// are already behind the sanitizer's placeholder so sanitized text is not
// re-flagged (and re-sanitizing is a no-op).
func leakSpans(s string) [][]int {
	var spans [][]int
	for _, m := range pathRE.FindAllStringIndex(s, -1) {
		if m[0] >= len(pathPlaceholder) && s[m[0]-len(pathPlaceholder):m[0]] == pathPlaceholder {
			continue
		}
		spans = append(spans, m)
	}
	return spans
}

// SanitizeErrorText strips filesystem paths from an error string, keeping
// only the final path segment behind a placeholder, and truncates overlong
// text. Runners call this before writing a record; the validator uses
// LeaksPath to detect submissions that skipped the step.
func SanitizeErrorText(s string) string {
	spans := leakSpans(s)
	if len(spans) > 0 {
		var b strings.Builder
		last := 0
		for _, m := range spans {
			b.WriteString(s[last:m[0]])
			p := s[m[0]:m[1]]
			segs := strings.Split(p, "/")
			b.WriteString(pathPlaceholder + "/" + segs[len(segs)-1])
			last = m[1]
		}
		b.WriteString(s[last:])
		s = b.String()
	}
	if r := []rune(s); len(r) > maxErrorClassLen {
		s = string(r[:maxErrorClassLen-1]) + "…"
	}
	return s
}

// LeaksPath reports whether s contains an absolute filesystem path that is
// not already sanitized.
func LeaksPath(s string) bool {
	return len(leakSpans(s)) > 0
}
