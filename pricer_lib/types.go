package pricer

import (
	"fmt"
	"strings"
)

// OptionParameters holds the Black-Scholes inputs for a single European option
type OptionParameters struct {
	S     float64 // underlying price
	K     float64 // strike price
	T     float64 // time to expiry in years
	R     float64 // risk-free rate (annual, continuous)
	Sigma float64 // volatility (annual, as a decimal)
}

// PricingResult holds call/put prices and Greeks for one parameter set
type PricingResult struct {
	CallPrice float64
	PutPrice  float64
	DeltaCall float64
	DeltaPut  float64
	Gamma     float64
	ThetaCall float64
	ThetaPut  float64
	Vega      float64
}

// OptionType selects which side of the result a caller is interested in
type OptionType string

const (
	Call OptionType = "call"
	Put  OptionType = "put"
)

// ParseOptionType accepts "call"/"put" in any case, plus the single-letter C/P form
func ParseOptionType(s string) (OptionType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "call", "c":
		return Call, nil
	case "put", "p":
		return Put, nil
	}
	return "", &InputError{Field: "option_type", Reason: fmt.Sprintf("unknown option type %q", s)}
}

// Price picks the call or put price out of a result
func (o OptionType) Price(r PricingResult) float64 {
	if o == Put {
		return r.PutPrice
	}
	return r.CallPrice
}

// Solver defaults
const (
	DefaultTolerance     = 1e-5
	DefaultMaxIterations = 100
	DefaultInitialGuess  = 0.5

	// vegaFloor stops Newton steps once the price no longer responds to volatility
	vegaFloor = 1e-10
	// sigmaFloor keeps the iterate strictly positive
	sigmaFloor = 0.001
)

// ImpliedVolatilityQuery describes one implied volatility inversion.
// Zero-valued solver settings fall back to the package defaults.
type ImpliedVolatilityQuery struct {
	S             float64
	K             float64
	T             float64
	R             float64
	ObservedPrice float64
	OptionType    OptionType

	Tolerance     float64
	MaxIterations int
	InitialGuess  float64
}

// Termination is the terminal state reached by the solver
type Termination string

const (
	TerminationConverged       Termination = "converged"
	TerminationVegaStalled     Termination = "vega_stalled"
	TerminationBudgetExhausted Termination = "budget_exhausted"
)

// ImpliedVolatilityOutcome is the result of a solve. SigmaEstimate is always the
// last iterate; it is only trustworthy when Converged is true.
type ImpliedVolatilityOutcome struct {
	SigmaEstimate  float64
	Converged      bool
	IterationsUsed int
	Termination    Termination
}

func (q ImpliedVolatilityQuery) parameters(sigma float64) OptionParameters {
	return OptionParameters{S: q.S, K: q.K, T: q.T, R: q.R, Sigma: sigma}
}

func (q ImpliedVolatilityQuery) withDefaults() ImpliedVolatilityQuery {
	if !(q.Tolerance > 0) {
		q.Tolerance = DefaultTolerance
	}
	if q.MaxIterations <= 0 {
		q.MaxIterations = DefaultMaxIterations
	}
	if !(q.InitialGuess > 0) {
		q.InitialGuess = DefaultInitialGuess
	}
	if q.OptionType == "" {
		q.OptionType = Call
	}
	return q
}
