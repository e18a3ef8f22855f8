package aggregate

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"strings"
)

// WriteArtifacts renders the summary into dir as summary.json, summary.md
// and index.html, overwriting whatever a previous run left there. Output is
// a pure function of the Summary, so unchanged input rewrites identical
// bytes.
func WriteArtifacts(sum *Summary, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	jsonBytes, err := json.MarshalIndent(sum, "", "  ")
	if err != nil {
		return fmt.Errorf("marshalling summary: %w", err)
	}
	jsonBytes = append(jsonBytes, '\n')

	htmlBytes, err := renderHTML(sum)
	if err != nil {
		return fmt.Errorf("rendering index.html: %w", err)
	}

	for name, data := range map[string][]byte{
		"summary.json": jsonBytes,
		"summary.md":   []byte(renderMarkdown(sum)),
		"index.html":   htmlBytes,
	} {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", path, err)
		}
	}
	return nil
}

func pct(n, d int) float64 {
	if d == 0 {
		return 0
	}
	return 100 * float64(n) / float64(d)
}

func renderMarkdown(sum *Summary) string {
	var b strings.Builder

	b.WriteString("# Snakebite community summary\n\n")
	fmt.Fprintf(&b, "Corpus: `%s`\n\n", sum.Fingerprint)
	fmt.Fprintf(&b, "Total records: **%d** across %d file(s)\n\n", sum.TotalRecords, sum.Files)
	if sum.MalformedLines > 0 {
		fmt.Fprintf(&b, "⚠ Malformed lines skipped: **%d**\n\n", sum.MalformedLines)
	}

	b.WriteString("## Per-model stats\n\n")
	b.WriteString("| Model | Records | Syntax valid (before) | Repaired | Repair rate | Avg fix attempts | Top error classes |\n")
	b.WriteString("| --- | ---: | ---: | ---: | ---: | ---: | --- |\n")
	for _, name := range sum.ModelNames() {
		m := sum.Models[name]
		fmt.Fprintf(&b, "| %s | %d | %.1f%% | %d/%d | %.1f%% | %.2f | %s |\n",
			name, m.Total, pct(m.ValidBefore, m.Total),
			m.Repaired, m.NeededRepair, 100*m.RepairRate,
			m.AvgFixAttempts, strings.Join(m.TopErrorClasses(3), ", "))
	}

	g := sum.Global
	b.WriteString("\n## Global\n\n")
	fmt.Fprintf(&b, "- Syntax valid before repair: %d/%d (%.1f%%)\n", g.ValidBefore, g.Total, pct(g.ValidBefore, g.Total))
	fmt.Fprintf(&b, "- Repaired: %d/%d (%.1f%%)\n", g.Repaired, g.NeededRepair, 100*g.RepairRate)
	fmt.Fprintf(&b, "- Average fix attempts: %.2f\n", g.AvgFixAttempts)

	if len(sum.Dates) > 0 {
		b.WriteString("\n## Records per submission date\n\n")
		for _, d := range sum.DateKeys() {
			fmt.Fprintf(&b, "- %s: %d\n", d, sum.Dates[d])
		}
	}

	return b.String()
}

var indexTmpl = template.Must(template.New("index").Parse(`<!doctype html>
<html lang="en">
<head>
  <meta charset="utf-8" />
  <meta name="viewport" content="width=device-width, initial-scale=1" />
  <title>Snakebite community probe</title>
  <style>
    body { font-family: system-ui, -apple-system, Segoe UI, Roboto, sans-serif; max-width: 980px; margin: 32px auto; padding: 0 16px; }
    table { border-collapse: collapse; width: 100%; }
    th, td { border-bottom: 1px solid #ddd; padding: 8px; vertical-align: top; }
    th { text-align: left; background: #f6f6f6; }
    td.num { text-align: right; }
    code { background: #f3f3f3; padding: 1px 4px; border-radius: 4px; }
    .muted { color: #666; }
  </style>
</head>
<body>
  <h1>Snakebite community probe</h1>
  <p class="muted">Corpus <code>{{.Fingerprint}}</code> · Total records: <b>{{.TotalRecords}}</b>{{if .MalformedLines}} · Malformed lines skipped: <b>{{.MalformedLines}}</b>{{end}}</p>

  <p>
    <a href="summary.md">summary.md</a> ·
    <a href="summary.json">summary.json</a>
  </p>

  <h2>Per-model stats</h2>
  <table>
    <thead>
      <tr>
        <th>Model</th>
        <th>Records</th>
        <th>Syntax valid (before)</th>
        <th>Repaired</th>
        <th>Repair rate</th>
        <th>Avg fix attempts</th>
      </tr>
    </thead>
    <tbody>
{{- range .Rows}}
      <tr><td><code>{{.Name}}</code></td><td class="num">{{.Total}}</td><td class="num">{{printf "%.1f%%" .BeforePct}}</td><td class="num">{{.Repaired}}/{{.NeededRepair}}</td><td class="num">{{printf "%.1f%%" .RatePct}}</td><td class="num">{{printf "%.2f" .AvgFix}}</td></tr>
{{- else}}
      <tr><td colspan="6" class="muted">No data yet.</td></tr>
{{- end}}
    </tbody>
  </table>

  <h2>How to contribute</h2>
  <p>See <code>README.md</code> and <code>CONTRIBUTING.md</code> in the repo.</p>
</body>
</html>
`))

type indexRow struct {
	Name         string
	Total        int
	BeforePct    float64
	Repaired     int
	NeededRepair int
	RatePct      float64
	AvgFix       float64
}

func renderHTML(sum *Summary) ([]byte, error) {
	rows := make([]indexRow, 0, len(sum.Models))
	for _, name := range sum.ModelNames() {
		m := sum.Models[name]
		rows = append(rows, indexRow{
			Name:         name,
			Total:        m.Total,
			BeforePct:    pct(m.ValidBefore, m.Total),
			Repaired:     m.Repaired,
			NeededRepair: m.NeededRepair,
			RatePct:      100 * m.RepairRate,
			AvgFix:       m.AvgFixAttempts,
		})
	}

	data := struct {
		*Summary
		Rows []indexRow
	}{sum, rows}

	var buf bytes.Buffer
	if err := indexTmpl.Execute(&buf, data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
