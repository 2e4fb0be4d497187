package pricer

import (
	"math"
	"runtime"
)

// ExecutionMode defines how batch calculations are performed
type ExecutionMode string

const (
	ExecutionModeAuto       ExecutionMode = "auto"
	ExecutionModeParallel   ExecutionMode = "parallel"
	ExecutionModeSequential ExecutionMode = "sequential"
)

// DefaultParallelThreshold is the batch size from which auto mode fans out
const DefaultParallelThreshold = 64

// Engine prices options. It holds batch execution settings only; every
// calculation is computed from its arguments and nothing is cached.
type Engine struct {
	executionMode     ExecutionMode
	workers           int
	parallelThreshold int
}

// NewEngine creates an engine in auto mode sized to the available CPUs
func NewEngine() *Engine {
	return &Engine{
		executionMode:     ExecutionModeAuto,
		workers:           runtime.GOMAXPROCS(0),
		parallelThreshold: DefaultParallelThreshold,
	}
}

// NewEngineForced creates engine with forced execution mode
func NewEngineForced(mode string) *Engine {
	e := NewEngine()

	switch ExecutionMode(mode) {
	case ExecutionModeParallel:
		e.executionMode = ExecutionModeParallel
	case ExecutionModeSequential:
		e.executionMode = ExecutionModeSequential
	default:
		e.executionMode = ExecutionModeAuto
	}

	return e
}

// WithWorkers caps the number of goroutines used by parallel batches.
// Values <= 0 keep the GOMAXPROCS default.
func (e *Engine) WithWorkers(n int) *Engine {
	if n > 0 {
		e.workers = n
	}
	return e
}

// WithParallelThreshold sets the batch size from which auto mode goes parallel
func (e *Engine) WithParallelThreshold(n int) *Engine {
	if n > 0 {
		e.parallelThreshold = n
	}
	return e
}

// ExecutionMode returns the configured batch mode
func (e *Engine) ExecutionMode() ExecutionMode {
	return e.executionMode
}

// Workers returns the parallel worker cap
func (e *Engine) Workers() int {
	return e.workers
}

// Price evaluates the closed-form price and Greeks
func (e *Engine) Price(params OptionParameters) (PricingResult, error) {
	return Price(params)
}

// Solve recovers implied volatility for an observed price
func (e *Engine) Solve(q ImpliedVolatilityQuery) (ImpliedVolatilityOutcome, error) {
	return Solve(q)
}

// Price returns the Black-Scholes call/put prices and Greeks.
//
// S and K must be positive. A non-positive T or Sigma is the zero-time or
// zero-volatility limit and yields an all-zero result rather than an error.
func Price(params OptionParameters) (PricingResult, error) {
	if err := params.Validate(); err != nil {
		return PricingResult{}, err
	}

	S, K, T, r, sigma := params.S, params.K, params.T, params.R, params.Sigma
	if T <= 0 || sigma <= 0 {
		return PricingResult{}, nil
	}

	sqrtT := math.Sqrt(T)
	volSqrtT := sigma * sqrtT
	d1, d2 := d1d2(S, K, T, r, sigma)

	nd1, nd2 := normCDF(d1), normCDF(d2)
	nNegD1, nNegD2 := normCDF(-d1), normCDF(-d2)
	pdf := normPDF(d1)

	// discounted strike weighted by the exercise probabilities
	callStrike := discounted(K, r*T, nd2)
	putStrike := discounted(K, r*T, nNegD2)

	// shared time-decay term of both thetas
	decay := -S * pdf * sigma / (2 * sqrtT)

	result := PricingResult{
		CallPrice: S*nd1 - callStrike,
		PutPrice:  putStrike - S*nNegD1,
		DeltaCall: nd1,
		DeltaPut:  nd1 - 1,
		Gamma:     pdf / (S * volSqrtT),
		ThetaCall: decay - r*callStrike,
		ThetaPut:  decay + r*putStrike,
		Vega:      S * sqrtT * pdf,
	}
	if err := result.checkFinite(); err != nil {
		return PricingResult{}, err
	}
	return result, nil
}

// discounted returns K·exp(-rT)·p. A zero p stays zero even when the discount
// factor overflows, and a finite product is recovered in log space.
func discounted(K, rT, p float64) float64 {
	if p == 0 {
		return 0
	}
	if v := K * math.Exp(-rT) * p; !math.IsInf(v, 0) && !math.IsNaN(v) {
		return v
	}
	return math.Exp(math.Log(K) - rT + math.Log(p))
}

// d1d2 returns the standardised moneyness terms of the Black-Scholes formula
func d1d2(S, K, T, r, sigma float64) (float64, float64) {
	volSqrtT := sigma * math.Sqrt(T)
	d1 := (math.Log(S/K) + (r+0.5*sigma*sigma)*T) / volSqrtT
	return d1, d1 - volSqrtT
}
