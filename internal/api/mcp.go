package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/kalambet/snakebite/internal/aggregate"
	"github.com/kalambet/snakebite/internal/storage"
	"github.com/kalambet/snakebite/internal/validate"
)

// MCPDeps holds dependencies for the MCP server.
type MCPDeps struct {
	ResultsDir string
	PublicDir  string
	Jobs       int
	Store      *storage.Store // optional; runs are not recorded when nil
}

// NewMCPServer creates an MCP server exposing the maintainer workflow:
// gate a results tree, rebuild the published summary, and read it back.
func NewMCPServer(deps MCPDeps) *server.MCPServer {
	s := server.NewMCPServer(
		"snakebite",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions("snakebite — validate and aggregate community-submitted syntax-error probe results."),
		server.WithRecovery(),
	)

	s.AddTool(
		mcp.NewTool("validate_results",
			mcp.WithDescription("Validate every submitted JSONL file under the results tree against the submission schema. Returns the full per-file report."),
			mcp.WithString("root", mcp.Description("Results root to validate (defaults to the configured results dir)")),
		),
		mcpValidateResults(deps),
	)

	s.AddTool(
		mcp.NewTool("aggregate_results",
			mcp.WithDescription("Rebuild the published summary artifacts (summary.json, summary.md, index.html) from the results tree."),
		),
		mcpAggregateResults(deps),
	)

	s.AddTool(
		mcp.NewTool("get_summary",
			mcp.WithDescription("Return the current machine-readable summary (summary.json)."),
		),
		mcpGetSummary(deps),
	)

	return s
}

func mcpValidateResults(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		root := req.GetString("root", deps.ResultsDir)

		started := time.Now()
		rep, err := validate.Run(ctx, root, deps.Jobs)
		if err != nil {
			return mcpError(fmt.Sprintf("validation aborted: %v", err)), nil
		}
		recordRun(deps.Store, storage.RunValidate, started, len(rep.Files), rep.Records, rep.Issues, rep.Passed())

		var b strings.Builder
		rep.Write(&b)
		return mcpText(b.String()), nil
	}
}

func mcpAggregateResults(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		started := time.Now()
		sum, err := aggregate.Build(deps.ResultsDir)
		if err != nil {
			return mcpError(fmt.Sprintf("aggregation failed: %v", err)), nil
		}
		if err := aggregate.WriteArtifacts(sum, deps.PublicDir); err != nil {
			return mcpError(fmt.Sprintf("writing artifacts: %v", err)), nil
		}
		recordRun(deps.Store, storage.RunAggregate, started, sum.Files, sum.TotalRecords, sum.MalformedLines, true)

		return mcpText(fmt.Sprintf(
			"Aggregated %d record(s) from %d file(s) into %s (%d model(s), %d malformed line(s) skipped)",
			sum.TotalRecords, sum.Files, deps.PublicDir, len(sum.Models), sum.MalformedLines,
		)), nil
	}
}

func mcpGetSummary(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		data, err := os.ReadFile(filepath.Join(deps.PublicDir, "summary.json"))
		if err != nil {
			return mcpError("no summary available; run aggregate_results first"), nil
		}
		// Validate before echoing so a corrupt artifact is caught here.
		var sum aggregate.Summary
		if err := json.Unmarshal(data, &sum); err != nil {
			return mcpError(fmt.Sprintf("summary.json is corrupt: %v", err)), nil
		}
		return mcpText(string(data)), nil
	}
}

func recordRun(store *storage.Store, kind string, started time.Time, files, records, issues int, passed bool) {
	if store == nil {
		return
	}
	status := storage.StatusPassed
	if !passed {
		status = storage.StatusFailed
	}
	run := storage.Run{
		ID:        uuid.New().String(),
		Kind:      kind,
		StartedAt: started,
		Duration:  time.Since(started),
		Files:     files,
		Records:   records,
		Issues:    issues,
		Status:    status,
	}
	// Run history is best-effort; a bookkeeping failure must not fail the tool.
	if err := store.SaveRun(run); err != nil {
		slog.Warn("could not record run", "kind", kind, "error", err)
	}
}

func mcpText(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

func mcpError(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: msg},
		},
		IsError: true,
	}
}
