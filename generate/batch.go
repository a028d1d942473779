package generate

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"github.com/remeh/sizedwaitgroup"

	"drum-trigger/debug"
)

// BatchResult pairs a job with its outcome
type BatchResult struct {
	Options Options
	Result  *Result
	Err     error
}

// Batch runs the jobs with at most limit in flight (GOMAXPROCS when
// limit <= 0). Results keep the order of jobs; one job failing does not stop
// the others. Jobs not started before ctx ends report ctx.Err().
func Batch(ctx context.Context, jobs []Options, limit int) []BatchResult {
	if limit <= 0 {
		limit = runtime.GOMAXPROCS(0)
	}
	results := make([]BatchResult, len(jobs))
	swg := sizedwaitgroup.New(limit)

	for i, job := range jobs {
		results[i].Options = job
		if err := swg.AddWithContext(ctx); err != nil {
			results[i].Err = err
			continue
		}
		go func(i int, job Options) {
			defer swg.Done()
			res, err := Run(ctx, job)
			results[i].Result, results[i].Err = res, err
			debug.Log("batch", "job finished", "index", i, "output", job.Output, "err", err)
		}(i, job)
	}
	swg.Wait()
	return results
}

// Errors joins the failures of a batch, nil when every job succeeded
func Errors(results []BatchResult) error {
	var errs []error
	for _, r := range results {
		if r.Err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", r.Options.Output, r.Err))
		}
	}
	return errors.Join(errs...)
}
