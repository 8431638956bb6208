package stats

import (
	"context"

	"cistatus/shared/model"
)

// StatsReader is the slice of the result store the aggregator needs.
type StatsReader interface {
	ReadStats(ctx context.Context, branch string) (model.BranchStats, bool, error)
}

// Aggregator computes the new cumulative counters for a branch given one new
// result. It only reads; the caller commits the returned counters together
// with the build row and owns the per-branch critical section around the
// read-modify-write.
type Aggregator struct {
	reader StatsReader
}

func New(reader StatsReader) *Aggregator {
	return &Aggregator{
		reader: reader,
	}
}

// Record returns the branch counters with the bucket for status bumped by
// one. A branch with no counters row starts from zero.
func (a *Aggregator) Record(ctx context.Context, branch, status string) (model.BranchStats, error) {
	current, _, err := a.reader.ReadStats(ctx, branch)
	if err != nil {
		return model.BranchStats{}, err
	}
	return current.Bump(status), nil
}
