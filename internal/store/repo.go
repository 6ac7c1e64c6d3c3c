package store

import (
	"context"
	"errors"
	"time"
)

// ErrAmbiguousID is returned by Get when an id prefix matches several runs.
var ErrAmbiguousID = errors.New("run id prefix matches more than one run")

// ListOpts configures run listing.
type ListOpts struct {
	Limit int // max results (0 = unlimited)
}

// Run is one saved batch classification.
type Run struct {
	ID           string
	Sequence     int64
	CreatedAt    time.Time
	BundleName   string
	BundleSource string
	Capability   string
	Results      []RunResult
}

// RunResult is one classified statement of a run, in input order. Error is
// set, and Label empty, for items that failed in keep-going mode.
type RunResult struct {
	Text       string
	Label      string
	Confidence *float64
	Error      string
}

// Failed counts the results that carry an error.
func (r *Run) Failed() int {
	n := 0
	for _, res := range r.Results {
		if res.Error != "" {
			n++
		}
	}
	return n
}

// RunSummary is a run without its results.
type RunSummary struct {
	ID         string
	Sequence   int64
	CreatedAt  time.Time
	BundleName string
	Capability string
	Items      int
	Failed     int
}

// LabelTotal counts one label across all saved runs.
type LabelTotal struct {
	Label string
	Count int
}

// RunRepo persists batch classification runs.
type RunRepo interface {
	// Save stores the run and its results atomically. It assigns ID,
	// Sequence and, when zero, CreatedAt.
	Save(ctx context.Context, run *Run) error

	// Get returns the run whose id equals or starts with id, or nil if none
	// exists.
	Get(ctx context.Context, id string) (*Run, error)

	// List returns run summaries, newest first.
	List(ctx context.Context, opts ListOpts) ([]RunSummary, error)

	// LabelTotals counts successful results per label across all runs.
	LabelTotals(ctx context.Context) ([]LabelTotal, error)

	// Prune deletes all but the keep most recent runs and reports how many
	// were deleted.
	Prune(ctx context.Context, keep int) (int, error)
}
