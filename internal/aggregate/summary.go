// Package aggregate folds the accepted submission corpus into per-model and
// global statistics and renders the published artifacts.
package aggregate

import (
	"sort"
	"strings"
)

// ModelStats holds the counters for one model label plus the rates derived
// from them.
type ModelStats struct {
	Total          int            `json:"total"`
	ValidBefore    int            `json:"valid_before"`
	ValidAfter     int            `json:"valid_after"`
	NeededRepair   int            `json:"needed_repair"`
	Repaired       int            `json:"repaired"`
	RepairRate     float64        `json:"repair_rate"`
	AvgFixAttempts float64        `json:"avg_fix_attempts"`
	ErrorClasses   map[string]int `json:"error_classes,omitempty"`
}

// Summary is the aggregation output. It is derived state: rebuilt wholesale
// on every run and fully determined by the corpus, which is why it carries a
// corpus fingerprint instead of a generation timestamp.
type Summary struct {
	Fingerprint    string                `json:"corpus_fingerprint"`
	Files          int                   `json:"files"`
	TotalRecords   int                   `json:"total_records"`
	MalformedLines int                   `json:"malformed_lines"`
	Global         ModelStats            `json:"global"`
	Models         map[string]ModelStats `json:"models"`
	Dates          map[string]int        `json:"dates,omitempty"`
}

// ModelNames returns the model labels sorted lexicographically. All rendered
// artifacts iterate in this order so reruns are byte-identical.
func (s *Summary) ModelNames() []string {
	names := make([]string, 0, len(s.Models))
	for name := range s.Models {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DateKeys returns the date buckets in ascending order.
func (s *Summary) DateKeys() []string {
	keys := make([]string, 0, len(s.Dates))
	for k := range s.Dates {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// TopErrorClasses returns up to n error-class families ordered by count
// descending, ties broken by name.
func (m ModelStats) TopErrorClasses(n int) []string {
	type kv struct {
		name  string
		count int
	}
	pairs := make([]kv, 0, len(m.ErrorClasses))
	for name, count := range m.ErrorClasses {
		pairs = append(pairs, kv{name, count})
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].count != pairs[j].count {
			return pairs[i].count > pairs[j].count
		}
		return pairs[i].name < pairs[j].name
	})
	if len(pairs) > n {
		pairs = pairs[:n]
	}
	out := make([]string, len(pairs))
	for i, p := range pairs {
		out[i] = p.name
	}
	return out
}

// classifyError buckets sanitized error text into a coarse family. The raw
// text varies per checker version; families keep the summary comparable
// across submissions.
func classifyError(s string) string {
	if s == "" {
		return "Unknown"
	}
	l := strings.ToLower(s)
	switch {
	case strings.Contains(l, "indent"):
		return "Indentation"
	case strings.Contains(l, "eof") || strings.Contains(l, "unexpected end"):
		return "EOF"
	case strings.Contains(l, "invalid syntax"):
		return "InvalidSyntax"
	default:
		return "Other"
	}
}
