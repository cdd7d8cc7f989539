package engine

import (
	"context"
	"math/rand"
)

// ParallelOptions tunes a concurrent generation run.
type ParallelOptions struct {
	// Workers is the number of independent searchers. Values below 1 fall
	// back to 1.
	Workers int
	// Seed feeds the per-worker random sources. Each worker derives its own
	// source so the attempt diversity that makes restarts effective is
	// preserved.
	Seed int64
}

// ParallelGenerate runs independent generation workers and returns the first
// fully placed result. If the context expires before any worker completes a
// full placement, the best partial result seen so far (fewest unplaced
// courses) is returned instead of blocking. Attempts are fully isolated, so
// workers share nothing but the immutable roster.
func ParallelGenerate(ctx context.Context, roster Roster, opts ParallelOptions) Result {
	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}
	if len(roster) == 0 {
		return Result{Assignment: Assignment{}, FullyPlaced: true}
	}

	results := make(chan Result, workers)
	for i := 0; i < workers; i++ {
		seed := opts.Seed + int64(i)*0x9e3779b9
		go func(seed int64) {
			rng := rand.New(rand.NewSource(seed))
			results <- Generate(rng, roster)
		}(seed)
	}

	var best Result
	seen := 0
	for seen < workers {
		select {
		case <-ctx.Done():
			if best.Assignment == nil {
				best.Assignment = Assignment{}
			}
			return best
		case res := <-results:
			seen++
			if res.FullyPlaced {
				return res
			}
			if best.Assignment == nil || len(res.Unplaced) < len(best.Unplaced) {
				best = res
			}
		}
	}
	return best
}
