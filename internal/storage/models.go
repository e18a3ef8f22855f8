package storage

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// Run kinds.
const (
	RunValidate  = "validate"
	RunAggregate = "aggregate"
)

// Run statuses.
const (
	StatusPassed = "passed"
	StatusFailed = "failed"
)

// Run is one recorded validation or aggregation pass over the results tree.
// The history exists so maintainers can see when the corpus was last gated
// and whether malformed submissions are trending up.
type Run struct {
	ID        string
	Kind      string // "validate" or "aggregate"
	StartedAt time.Time
	Duration  time.Duration
	Files     int
	Records   int
	Issues    int // validation issues, or malformed lines for aggregate runs
	Status    string
}
