package aggregate

import (
	"github.com/kalambet/snakebite/internal/corpus"
	"github.com/kalambet/snakebite/internal/schema"
)

// accumulator gathers raw counters for one grouping before rates are derived.
type accumulator struct {
	total        int
	validBefore  int
	validAfter   int
	repaired     int
	fixAttempts  int
	errorClasses map[string]int
}

func (a *accumulator) add(rec schema.Record) {
	a.total++
	if rec.ValidBefore {
		a.validBefore++
	}
	if rec.ValidAfter {
		a.validAfter++
	}
	if rec.Repaired() {
		a.repaired++
	}
	a.fixAttempts += rec.FixAttempts

	if rec.NeededRepair() {
		text := ""
		if rec.ErrorClass != nil {
			text = *rec.ErrorClass
		}
		if a.errorClasses == nil {
			a.errorClasses = make(map[string]int)
		}
		a.errorClasses[classifyError(text)]++
	}
}

func (a *accumulator) stats() ModelStats {
	st := ModelStats{
		Total:        a.total,
		ValidBefore:  a.validBefore,
		ValidAfter:   a.validAfter,
		NeededRepair: a.total - a.validBefore,
		Repaired:     a.repaired,
		ErrorClasses: a.errorClasses,
	}
	// Rates are defined as 0 when the denominator is 0.
	if st.NeededRepair > 0 {
		st.RepairRate = float64(st.Repaired) / float64(st.NeededRepair)
	}
	if st.Total > 0 {
		st.AvgFixAttempts = float64(a.fixAttempts) / float64(st.Total)
	}
	return st
}

// Build streams every line of every submission file under root into a
// Summary. Lines that fail the record schema are counted as malformed and
// skipped, never fatal: aggregation reports on the corpus, the validator
// gates it. Only a missing or unreadable tree aborts.
func Build(root string) (*Summary, error) {
	files, err := corpus.Walk(root)
	if err != nil {
		return nil, err
	}

	fingerprint, err := corpus.Fingerprint(files)
	if err != nil {
		return nil, err
	}

	sum := &Summary{
		Fingerprint: fingerprint,
		Files:       len(files),
		Models:      make(map[string]ModelStats),
	}

	global := &accumulator{}
	byModel := make(map[string]*accumulator)
	dates := make(map[string]int)

	for _, f := range files {
		err := corpus.EachLine(f.Path, func(_ int, line []byte, tooLong bool) error {
			if tooLong {
				sum.MalformedLines++
				return nil
			}

			rec, issues := schema.CheckLine(line)
			if len(issues) > 0 {
				sum.MalformedLines++
				return nil
			}

			global.add(rec)
			acc := byModel[rec.Model]
			if acc == nil {
				acc = &accumulator{}
				byModel[rec.Model] = acc
			}
			acc.add(rec)

			if f.Date != "" {
				dates[f.Date]++
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	sum.TotalRecords = global.total
	sum.Global = global.stats()
	for model, acc := range byModel {
		sum.Models[model] = acc.stats()
	}
	if len(dates) > 0 {
		sum.Dates = dates
	}
	return sum, nil
}
