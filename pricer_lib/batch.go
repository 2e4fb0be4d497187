package pricer

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// BatchResult pairs one input with its result or validation error
type BatchResult struct {
	Params OptionParameters
	Result PricingResult
	Err    error
}

// SolveResult pairs one implied volatility query with its outcome or error
type SolveResult struct {
	Query   ImpliedVolatilityQuery
	Outcome ImpliedVolatilityOutcome
	Err     error
}

// PriceBatch prices every parameter set. Invalid items carry their own error
// and do not abort the batch; the returned error is only set when ctx ends
// before the batch completes.
func (e *Engine) PriceBatch(ctx context.Context, params []OptionParameters) ([]BatchResult, error) {
	results := make([]BatchResult, len(params))
	err := e.run(ctx, len(params), func(i int) {
		r, err := Price(params[i])
		results[i] = BatchResult{Params: params[i], Result: r, Err: err}
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}

// SolveBatch runs Solve for every query with the same error policy as PriceBatch
func (e *Engine) SolveBatch(ctx context.Context, queries []ImpliedVolatilityQuery) ([]SolveResult, error) {
	results := make([]SolveResult, len(queries))
	err := e.run(ctx, len(queries), func(i int) {
		out, err := Solve(queries[i])
		results[i] = SolveResult{Query: queries[i], Outcome: out, Err: err}
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}

// IsParallel reports whether a batch of n items would fan out
func (e *Engine) IsParallel(n int) bool {
	switch e.executionMode {
	case ExecutionModeParallel:
		return n > 1
	case ExecutionModeSequential:
		return false
	}
	return n >= e.parallelThreshold
}

// run calls fn for 0..n-1. Each index is visited by exactly one goroutine, so
// fn may write to its own slot of a shared slice without locking.
func (e *Engine) run(ctx context.Context, n int, fn func(i int)) error {
	if n == 0 {
		return nil
	}

	if !e.IsParallel(n) {
		for i := 0; i < n; i++ {
			if err := ctx.Err(); err != nil {
				return err
			}
			fn(i)
		}
		return nil
	}

	workers := e.workers
	if workers < 1 {
		workers = 1
	}
	chunk := (n + workers - 1) / workers

	g, gctx := errgroup.WithContext(ctx)
	for start := 0; start < n; start += chunk {
		start := start
		end := min(start+chunk, n)
		g.Go(func() error {
			for i := start; i < end; i++ {
				if err := gctx.Err(); err != nil {
					return err
				}
				fn(i)
			}
			return nil
		})
	}
	return g.Wait()
}
