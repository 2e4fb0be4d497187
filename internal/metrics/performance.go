package metrics

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/jwaldner/optpricer/internal/logger"
	pricer "github.com/jwaldner/optpricer/pricer_lib"
)

// Outcome labels besides the solver terminations
const (
	OutcomeOK         = "ok"
	OutcomeDegenerate = "degenerate"
	OutcomeInvalid    = "invalid"
	OutcomeError      = "error"
)

// DefaultSlowThreshold flags calls that take longer than this
const DefaultSlowThreshold = 500 * time.Millisecond

// PerformanceWrapper wraps the pricing engine with performance monitoring
type PerformanceWrapper struct {
	engine        *pricer.Engine
	slowThreshold time.Duration

	mu               sync.Mutex
	totalRequests    int64
	totalDuration    time.Duration
	slowRequestCount int64
	totalIterations  int64
	solveCount       int64
	nonConverged     int64

	calculations *prometheus.CounterVec
	duration     *prometheus.HistogramVec
	iterations   prometheus.Histogram
	batchSize    prometheus.Histogram
}

// NewPerformanceWrapper creates a wrapper around engine and registers its
// collectors with reg. A nil reg leaves the collectors unregistered.
func NewPerformanceWrapper(engine *pricer.Engine, reg prometheus.Registerer) *PerformanceWrapper {
	pw := &PerformanceWrapper{
		engine:        engine,
		slowThreshold: DefaultSlowThreshold,
		calculations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "optpricer",
			Name:      "calculations_total",
			Help:      "Pricing and implied volatility calculations by operation and outcome.",
		}, []string{"operation", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "optpricer",
			Name:      "calculation_duration_seconds",
			Help:      "Wall time of engine calls.",
			Buckets:   prometheus.ExponentialBuckets(1e-6, 4, 12),
		}, []string{"operation"}),
		iterations: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "optpricer",
			Name:      "solver_iterations",
			Help:      "Newton iterations used per implied volatility solve.",
			Buckets:   []float64{1, 2, 3, 5, 8, 13, 21, 34, 55, 100},
		}),
		batchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "optpricer",
			Name:      "batch_size",
			Help:      "Items per batch or sweep request.",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
		}),
	}

	if reg != nil {
		reg.MustRegister(pw.calculations, pw.duration, pw.iterations, pw.batchSize)
	}
	return pw
}

// WithSlowThreshold changes the duration above which a call counts as slow
func (pw *PerformanceWrapper) WithSlowThreshold(d time.Duration) *PerformanceWrapper {
	if d > 0 {
		pw.slowThreshold = d
	}
	return pw
}

// Engine returns the wrapped engine
func (pw *PerformanceWrapper) Engine() *pricer.Engine {
	return pw.engine
}

// Price wraps the engine method with performance monitoring
func (pw *PerformanceWrapper) Price(params pricer.OptionParameters) (pricer.PricingResult, error) {
	start := time.Now()
	result, err := pw.engine.Price(params)
	duration := time.Since(start)

	pw.recordRequest("price", duration)
	pw.calculations.WithLabelValues("price", priceOutcome(params, err)).Inc()

	logger.Verbose.Printf("🧮 CALC: Price(S=%g K=%g T=%g r=%g sigma=%g) took %v", params.S, params.K, params.T, params.R, params.Sigma, duration)
	return result, err
}

// Solve wraps the engine method with performance monitoring
func (pw *PerformanceWrapper) Solve(q pricer.ImpliedVolatilityQuery) (pricer.ImpliedVolatilityOutcome, error) {
	start := time.Now()
	out, err := pw.engine.Solve(q)
	duration := time.Since(start)

	pw.recordRequest("solve", duration)
	pw.recordSolve(out, err)

	logger.Verbose.Printf("🧮 CALC: Solve(price=%g type=%s) -> sigma=%g after %d iterations (%s) took %v",
		q.ObservedPrice, q.OptionType, out.SigmaEstimate, out.IterationsUsed, out.Termination, duration)
	return out, err
}

// PriceBatch wraps the engine method with performance monitoring
func (pw *PerformanceWrapper) PriceBatch(ctx context.Context, params []pricer.OptionParameters) ([]pricer.BatchResult, error) {
	start := time.Now()
	results, err := pw.engine.PriceBatch(ctx, params)
	duration := time.Since(start)

	pw.recordRequest("price_batch", duration)
	pw.batchSize.Observe(float64(len(params)))
	if err != nil {
		pw.calculations.WithLabelValues("price_batch", OutcomeError).Inc()
		return nil, err
	}
	for _, r := range results {
		pw.calculations.WithLabelValues("price_batch", priceOutcome(r.Params, r.Err)).Inc()
	}

	logger.Debug.Printf("📦 BATCH: PriceBatch(%d items, parallel=%t) took %v", len(params), pw.engine.IsParallel(len(params)), duration)
	return results, nil
}

// SolveBatch wraps the engine method with performance monitoring
func (pw *PerformanceWrapper) SolveBatch(ctx context.Context, queries []pricer.ImpliedVolatilityQuery) ([]pricer.SolveResult, error) {
	start := time.Now()
	results, err := pw.engine.SolveBatch(ctx, queries)
	duration := time.Since(start)

	pw.recordRequest("solve_batch", duration)
	pw.batchSize.Observe(float64(len(queries)))
	if err != nil {
		pw.calculations.WithLabelValues("solve_batch", OutcomeError).Inc()
		return nil, err
	}
	for _, r := range results {
		pw.recordSolve(r.Outcome, r.Err)
	}

	logger.Debug.Printf("📦 BATCH: SolveBatch(%d queries, parallel=%t) took %v", len(queries), pw.engine.IsParallel(len(queries)), duration)
	return results, nil
}

// Sweep wraps the engine method with performance monitoring
func (pw *PerformanceWrapper) Sweep(ctx context.Context, base pricer.OptionParameters, spec pricer.SweepSpec) ([]pricer.SweepPoint, error) {
	start := time.Now()
	points, err := pw.engine.Sweep(ctx, base, spec)
	duration := time.Since(start)

	pw.recordRequest("sweep", duration)
	pw.batchSize.Observe(float64(spec.Points))
	pw.calculations.WithLabelValues("sweep", errOutcome(err)).Inc()

	logger.Debug.Printf("📈 SWEEP: %s over [%g, %g] x%d took %v", spec.Parameter, spec.Min, spec.Max, spec.Points, duration)
	return points, err
}

// GreeksCurve wraps the engine method with performance monitoring
func (pw *PerformanceWrapper) GreeksCurve(ctx context.Context, base pricer.OptionParameters, minSpot, maxSpot float64, points int) ([]pricer.GreeksPoint, error) {
	start := time.Now()
	curve, err := pw.engine.GreeksCurve(ctx, base, minSpot, maxSpot, points)
	duration := time.Since(start)

	pw.recordRequest("greeks_curve", duration)
	pw.batchSize.Observe(float64(points))
	pw.calculations.WithLabelValues("greeks_curve", errOutcome(err)).Inc()

	logger.Debug.Printf("📈 GREEKS: spot [%g, %g] x%d took %v", minSpot, maxSpot, points, duration)
	return curve, err
}

// recordRequest updates performance statistics
func (pw *PerformanceWrapper) recordRequest(operation string, duration time.Duration) {
	pw.duration.WithLabelValues(operation).Observe(duration.Seconds())

	pw.mu.Lock()
	defer pw.mu.Unlock()

	pw.totalRequests++
	pw.totalDuration += duration

	if duration > pw.slowThreshold {
		pw.slowRequestCount++
		logger.Warn.Printf("⚠️  SLOW CALC: %s took %v", operation, duration)
	}
}

func (pw *PerformanceWrapper) recordSolve(out pricer.ImpliedVolatilityOutcome, err error) {
	if err != nil {
		pw.calculations.WithLabelValues("solve", errOutcome(err)).Inc()
		return
	}

	pw.calculations.WithLabelValues("solve", string(out.Termination)).Inc()
	pw.iterations.Observe(float64(out.IterationsUsed))

	pw.mu.Lock()
	defer pw.mu.Unlock()

	pw.solveCount++
	pw.totalIterations += int64(out.IterationsUsed)
	if !out.Converged {
		pw.nonConverged++
	}
}

func priceOutcome(p pricer.OptionParameters, err error) string {
	if err != nil {
		return errOutcome(err)
	}
	if p.T <= 0 || p.Sigma <= 0 {
		return OutcomeDegenerate
	}
	return OutcomeOK
}

func errOutcome(err error) string {
	switch {
	case err == nil:
		return OutcomeOK
	case pricer.IsInvalidInput(err):
		return OutcomeInvalid
	default:
		return OutcomeError
	}
}

// Stats is a point-in-time copy of the wrapper counters
type Stats struct {
	TotalRequests    int64
	TotalDuration    time.Duration
	SlowRequestCount int64
	SolveCount       int64
	TotalIterations  int64
	NonConverged     int64
}

// Stats returns the current counters
func (pw *PerformanceWrapper) Stats() Stats {
	pw.mu.Lock()
	defer pw.mu.Unlock()

	return Stats{
		TotalRequests:    pw.totalRequests,
		TotalDuration:    pw.totalDuration,
		SlowRequestCount: pw.slowRequestCount,
		SolveCount:       pw.solveCount,
		TotalIterations:  pw.totalIterations,
		NonConverged:     pw.nonConverged,
	}
}

// GetPerformanceStats returns current performance statistics
func (pw *PerformanceWrapper) GetPerformanceStats() string {
	s := pw.Stats()

	avgDuration := time.Duration(0)
	if s.TotalRequests > 0 {
		avgDuration = time.Duration(int64(s.TotalDuration) / s.TotalRequests)
	}
	avgIterations := 0.0
	if s.SolveCount > 0 {
		avgIterations = float64(s.TotalIterations) / float64(s.SolveCount)
	}

	return fmt.Sprintf(`
📊 Pricing Engine Performance Stats
===================================
Execution Mode:    %s (%d workers)
Total Requests:    %d
Average Duration:  %v
Total Time:        %v
Slow Requests:     %d (>%v)
Slow Request %%:    %.1f%%
IV Solves:         %d
Avg Iterations:    %.2f
Not Converged:     %d
`,
		pw.engine.ExecutionMode(),
		pw.engine.Workers(),
		s.TotalRequests,
		avgDuration,
		s.TotalDuration,
		s.SlowRequestCount,
		pw.slowThreshold,
		float64(s.SlowRequestCount)/float64(max(s.TotalRequests, 1))*100,
		s.SolveCount,
		avgIterations,
		s.NonConverged,
	)
}

// Close logs the final performance report
func (pw *PerformanceWrapper) Close() {
	if pw.Stats().TotalRequests > 0 {
		logger.Info.Printf("📊 Pricing Performance Report:%s", pw.GetPerformanceStats())
	}
}
