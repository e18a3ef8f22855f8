package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/kalambet/snakebite/internal/aggregate"
	"github.com/kalambet/snakebite/internal/config"
	"github.com/kalambet/snakebite/internal/storage"
	"github.com/kalambet/snakebite/internal/validate"
)

// exitErr carries a specific process exit code through RunE.
type exitErr struct {
	code int
	err  error
}

func (e *exitErr) Error() string { return e.err.Error() }
func (e *exitErr) Unwrap() error { return e.err }

func exitCode(err error) int {
	var ee *exitErr
	if errors.As(err, &ee) {
		return ee.code
	}
	return 1
}

// Exit codes for the validate contract: 1 means the gate rejected at least
// one file, 2 means the tree itself could not be read.
const (
	exitValidationFailed = 1
	exitIO               = 2
)

// --- validate ---

var validateCmd = &cobra.Command{
	Use:   "validate [root]",
	Short: "Validate submitted JSONL files against the submission schema",
	Long: `Validate every <handle>/<date>/<model>.jsonl file under the results
root. A file passes only when every line conforms to the record schema; any
violation fails the whole file and the report lists every issue found.

Exit codes: 0 all files pass, 1 validation failures, 2 unreadable root.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		root := cfg.Results.Dir
		if len(args) == 1 {
			root = args[0]
		}
		jobs, _ := cmd.Flags().GetInt("jobs")
		if jobs == 0 {
			jobs = cfg.Validate.Jobs
		}

		started := time.Now()
		rep, err := validate.Run(cmd.Context(), root, jobs)
		if err != nil {
			return &exitErr{code: exitIO, err: err}
		}

		rep.Write(os.Stdout)
		recordRun(cfg, storage.RunValidate, started, len(rep.Files), rep.Records, rep.Issues, rep.Passed())

		if !rep.Passed() {
			return &exitErr{
				code: exitValidationFailed,
				err:  fmt.Errorf("%d of %d file(s) failed validation", rep.Failed, len(rep.Files)),
			}
		}
		return nil
	},
}

func init() {
	validateCmd.Flags().Int("jobs", 0, "parallel file checks (default from config)")
}

// --- aggregate ---

var aggregateCmd = &cobra.Command{
	Use:   "aggregate",
	Short: "Roll the accepted corpus into the published summary artifacts",
	Long: `Stream every submission line under the results root, fold the records
into per-model and global statistics, and rewrite summary.json, summary.md
and index.html under the public dir. Malformed lines are skipped and counted,
never fatal; rerunning on an unchanged tree rewrites identical bytes.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		printStep("Aggregating %s...", cfg.Results.Dir)
		started := time.Now()
		sum, err := aggregate.Build(cfg.Results.Dir)
		if err != nil {
			return &exitErr{code: exitIO, err: err}
		}
		if err := aggregate.WriteArtifacts(sum, cfg.Results.PublicDir); err != nil {
			return &exitErr{code: exitIO, err: err}
		}
		recordRun(cfg, storage.RunAggregate, started, sum.Files, sum.TotalRecords, sum.MalformedLines, true)

		if sum.MalformedLines > 0 {
			printWarning("%d malformed line(s) skipped; see summary for the tally", sum.MalformedLines)
		}
		printSuccess("wrote %s/index.html, summary.md, summary.json (%d records, %d models)",
			cfg.Results.PublicDir, sum.TotalRecords, len(sum.Models))
		return nil
	},
}

// --- runs ---

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recent validation and aggregation runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		limit, _ := cmd.Flags().GetInt("limit")

		store, err := storage.Open(cfg.Storage.DataDir)
		if err != nil {
			return fmt.Errorf("opening run history: %w", err)
		}
		defer store.Close()

		runs, err := store.GetRecentRuns(limit)
		if err != nil {
			return err
		}
		if len(runs) == 0 {
			fmt.Println("No runs recorded yet.")
			return nil
		}

		for _, r := range runs {
			status := colorize(colorGreen, r.Status)
			if r.Status == storage.StatusFailed {
				status = colorize(colorRed, r.Status)
			}
			fmt.Printf("%s  %s  %-9s  %s  %d file(s), %d record(s), %d issue(s)\n",
				colorize(colorCyan, r.ID[:8]),
				r.StartedAt.UTC().Format("2006-01-02 15:04:05"),
				r.Kind,
				status,
				r.Files, r.Records, r.Issues,
			)
		}
		return nil
	},
}

func init() {
	runsCmd.Flags().Int("limit", 20, "maximum number of runs to list")
}

// --- config ---

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or update configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		for _, k := range config.ShowAll(cfg) {
			fmt.Printf("  %s = %s\n", colorize(colorBold, k.Key), k.Value)
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]

		if err := config.SetKey(key, value); err != nil {
			return err
		}

		printSuccess("Set %s = %s", key, value)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}

// recordRun appends a row to the run history. Bookkeeping is best-effort:
// the validation report and the summary artifacts are the contract, a
// history write failure only warns.
func recordRun(cfg config.Config, kind string, started time.Time, files, records, issues int, passed bool) {
	store, err := storage.Open(cfg.Storage.DataDir)
	if err != nil {
		printWarning("run history unavailable: %v", err)
		return
	}
	defer store.Close()

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
	if err := store.SaveRun(run); err != nil {
		printWarning("could not record run: %v", err)
	}
}
