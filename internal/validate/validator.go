// Package validate gates untrusted submission files before they join the
// aggregated corpus. A file passes only when every line conforms to the
// record schema; there is no partial acceptance.
package validate

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/kalambet/snakebite/internal/corpus"
	"github.com/kalambet/snakebite/internal/schema"
)

const defaultJobs = 4

// Run validates every submission file under root and returns the full
// report. Files are checked in parallel (each file is independent) but the
// report is ordered by relative path, so output is identical across runs.
// The returned error is reserved for I/O-level failures; schema violations
// are reported, not returned.
func Run(ctx context.Context, root string, jobs int) (*Report, error) {
	files, err := corpus.Walk(root)
	if err != nil {
		return nil, err
	}

	if jobs <= 0 {
		jobs = defaultJobs
	}

	reports := make([]FileReport, len(files))
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)

	for i, f := range files {
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			fr, err := checkFile(f)
			if err != nil {
				return err
			}
			reports[i] = fr
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	rep := &Report{Files: reports}
	for _, fr := range reports {
		rep.Records += fr.Records
		rep.Issues += len(fr.Issues)
		if !fr.Passed() {
			rep.Failed++
		}
	}
	return rep, nil
}

// checkFile collects every issue in one submission file. A file whose path
// violates the layout is still scanned line by line, so one report covers
// everything a contributor has to fix.
func checkFile(f corpus.File) (FileReport, error) {
	fr := FileReport{RelPath: f.RelPath}

	if f.LayoutErr != "" {
		fr.Issues = append(fr.Issues, schema.Issue{Kind: schema.KindLayout, Message: f.LayoutErr})
	}

	err := corpus.EachLine(f.Path, func(n int, line []byte, tooLong bool) error {
		if tooLong {
			fr.Issues = append(fr.Issues, schema.Issue{
				Line:    n,
				Kind:    schema.KindParse,
				Message: "line exceeds the 1MB size limit",
			})
			return nil
		}

		rec, issues := schema.CheckLine(line)
		if len(issues) > 0 {
			for i := range issues {
				issues[i].Line = n
			}
			fr.Issues = append(fr.Issues, issues...)
			return nil
		}

		fr.Records++
		if f.Model != "" && rec.Model != f.Model {
			fr.Issues = append(fr.Issues, schema.Issue{
				Line:    n,
				Kind:    schema.KindModelMismatch,
				Message: fmt.Sprintf("record model %q does not match file label %q", rec.Model, f.Model),
			})
		}
		return nil
	})
	if err != nil {
		return FileReport{}, err
	}
	return fr, nil
}
