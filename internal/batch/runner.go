package batch

import (
	"context"
	"strings"
	"time"

	"calcnerd/internal/calc"
	"calcnerd/internal/logging"
	"calcnerd/internal/types"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// Options bound the runner.
type Options struct {
	Concurrency       int     // parallel requests, at least 1
	RequestsPerSecond float64 // 0 disables rate limiting
	Burst             int
}

// Result is the outcome of one request, at the same index as its input.
type Result struct {
	Index    int
	Request  *types.CalculationRequest
	Response *types.CalculationResponse
	Err      error
	Duration time.Duration
}

// Runner sends many requests through one service.
type Runner struct {
	service     calc.Service
	concurrency int
	limiter     *rate.Limiter
}

// NewRunner creates a runner for svc.
func NewRunner(svc calc.Service, opts Options) *Runner {
	r := &Runner{service: svc, concurrency: opts.Concurrency}
	if r.concurrency < 1 {
		r.concurrency = 1
	}
	if opts.RequestsPerSecond > 0 {
		burst := opts.Burst
		if burst < 1 {
			burst = 1
		}
		r.limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), burst)
	}
	return r
}

// Run sends every request and returns results in input order. Individual
// failures are reported in their Result; the returned error is non-nil
// only when ctx ends before all requests were sent.
func (r *Runner) Run(ctx context.Context, reqs []*types.CalculationRequest) ([]Result, error) {
	results := make([]Result, len(reqs))
	timer := logging.StartTimer(logging.CategoryBatch, "batch run")
	defer timer.Stop()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)

	for i, req := range reqs {
		i, req := i, req
		results[i] = Result{Index: i, Request: req}
		if req == nil || strings.TrimSpace(req.Expression) == "" {
			results[i].Err = calc.ErrEmptyExpression
			continue
		}

		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				results[i].Err = err
				return err
			}
			if r.limiter != nil {
				if err := r.limiter.Wait(gctx); err != nil {
					results[i].Err = err
					return err
				}
			}
			start := time.Now()
			id := uuid.NewString()
			resp, err := r.service.Calculate(calc.ContextWithRequestID(gctx, id), req)
			results[i].Response = resp
			results[i].Err = err
			results[i].Duration = time.Since(start)
			logging.BatchDebug("request %d (%s): %s", i+1, id, calc.Kind(err))
			return gctx.Err()
		})
	}

	err := g.Wait()
	failed := 0
	for _, res := range results {
		if res.Err != nil {
			failed++
		}
	}
	logging.Batch("batch finished: %d requests, %d failed", len(reqs), failed)
	return results, err
}
