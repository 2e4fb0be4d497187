package pricer

import (
	"context"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// SweepParameter names the input varied by a sensitivity sweep
type SweepParameter string

const (
	SweepStockPrice   SweepParameter = "stock_price"
	SweepStrikePrice  SweepParameter = "strike_price"
	SweepTimeToExpiry SweepParameter = "time_to_expiry"
	SweepVolatility   SweepParameter = "volatility"
	SweepRiskFreeRate SweepParameter = "risk_free_rate"
)

// DefaultSweepPoints matches the resolution of the dashboard charts
const DefaultSweepPoints = 100

// SweepSpec describes the grid of a sweep
type SweepSpec struct {
	Parameter SweepParameter
	Min       float64
	Max       float64
	Points    int
}

// SweepPoint is one sample of a price sweep
type SweepPoint struct {
	X         float64
	CallPrice float64
	PutPrice  float64
}

// GreeksPoint is one sample of a Greeks-versus-spot curve
type GreeksPoint struct {
	Spot      float64
	DeltaCall float64
	DeltaPut  float64
	Gamma     float64
	Vega      float64
	ThetaCall float64
	ThetaPut  float64
}

// PayoffPoint is the at-expiry payoff and profit for a terminal spot
type PayoffPoint struct {
	Spot       float64
	CallPayoff float64
	PutPayoff  float64
	CallProfit float64
	PutProfit  float64
}

// ParseSweepParameter accepts the parameter names used on the wire plus a few aliases
func ParseSweepParameter(s string) (SweepParameter, error) {
	switch s {
	case "stock_price", "spot", "S":
		return SweepStockPrice, nil
	case "strike_price", "strike", "K":
		return SweepStrikePrice, nil
	case "time_to_expiry", "time", "T":
		return SweepTimeToExpiry, nil
	case "volatility", "sigma":
		return SweepVolatility, nil
	case "risk_free_rate", "rate", "r":
		return SweepRiskFreeRate, nil
	}
	return "", &InputError{Field: "parameter", Reason: fmt.Sprintf("unknown sweep parameter %q", s)}
}

// DefaultSweepSpec returns the chart range used for a parameter
func DefaultSweepSpec(p SweepParameter) SweepSpec {
	spec := SweepSpec{Parameter: p, Points: DefaultSweepPoints}
	switch p {
	case SweepTimeToExpiry:
		spec.Min, spec.Max = 0.1, 5
	case SweepVolatility:
		spec.Min, spec.Max = 0.05, 0.8
	case SweepRiskFreeRate:
		spec.Min, spec.Max = 0, 0.15
	default:
		spec.Min, spec.Max = 50, 150
	}
	return spec
}

// Validate checks the grid bounds and resolution
func (s SweepSpec) Validate() error {
	if s.Points < 2 {
		return &InputError{Field: "points", Value: float64(s.Points), Reason: "need at least 2 points"}
	}
	if err := mustBeFinite("min", s.Min); err != nil {
		return err
	}
	if err := mustBeFinite("max", s.Max); err != nil {
		return err
	}
	if s.Min > s.Max {
		return &InputError{Field: "min", Value: s.Min, Reason: "min exceeds max"}
	}
	if (s.Parameter == SweepStockPrice || s.Parameter == SweepStrikePrice) && s.Min <= 0 {
		return &InputError{Field: "min", Value: s.Min, Reason: "prices must be positive"}
	}
	return nil
}

// Grid returns Points evenly spaced values from Min to Max inclusive
func (s SweepSpec) Grid() []float64 {
	return floats.Span(make([]float64, s.Points), s.Min, s.Max)
}

func (s SweepSpec) apply(base OptionParameters, x float64) OptionParameters {
	p := base
	switch s.Parameter {
	case SweepStockPrice:
		p.S = x
	case SweepStrikePrice:
		p.K = x
	case SweepTimeToExpiry:
		p.T = x
	case SweepVolatility:
		p.Sigma = x
	case SweepRiskFreeRate:
		p.R = x
	}
	return p
}

// Sweep prices the base parameters across the grid of one input while the
// others stay fixed
func (e *Engine) Sweep(ctx context.Context, base OptionParameters, spec SweepSpec) ([]SweepPoint, error) {
	if _, err := ParseSweepParameter(string(spec.Parameter)); err != nil {
		return nil, err
	}
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	grid := spec.Grid()
	params := make([]OptionParameters, len(grid))
	for i, x := range grid {
		params[i] = spec.apply(base, x)
	}

	batch, err := e.PriceBatch(ctx, params)
	if err != nil {
		return nil, err
	}

	points := make([]SweepPoint, len(batch))
	for i, b := range batch {
		if b.Err != nil {
			return nil, fmt.Errorf("sweep %s=%g: %w", spec.Parameter, grid[i], b.Err)
		}
		points[i] = SweepPoint{X: grid[i], CallPrice: b.Result.CallPrice, PutPrice: b.Result.PutPrice}
	}
	return points, nil
}

// GreeksCurve evaluates the Greeks across a spot grid
func (e *Engine) GreeksCurve(ctx context.Context, base OptionParameters, minSpot, maxSpot float64, points int) ([]GreeksPoint, error) {
	spec := SweepSpec{Parameter: SweepStockPrice, Min: minSpot, Max: maxSpot, Points: points}
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	grid := spec.Grid()
	params := make([]OptionParameters, len(grid))
	for i, x := range grid {
		params[i] = spec.apply(base, x)
	}

	batch, err := e.PriceBatch(ctx, params)
	if err != nil {
		return nil, err
	}

	curve := make([]GreeksPoint, len(batch))
	for i, b := range batch {
		if b.Err != nil {
			return nil, fmt.Errorf("greeks at S=%g: %w", grid[i], b.Err)
		}
		r := b.Result
		curve[i] = GreeksPoint{
			Spot:      grid[i],
			DeltaCall: r.DeltaCall,
			DeltaPut:  r.DeltaPut,
			Gamma:     r.Gamma,
			Vega:      r.Vega,
			ThetaCall: r.ThetaCall,
			ThetaPut:  r.ThetaPut,
		}
	}
	return curve, nil
}

// PayoffDiagram returns the at-expiry payoff of the base strike across a spot
// grid, and the profit net of the premiums priced from base
func PayoffDiagram(base OptionParameters, minSpot, maxSpot float64, points int) ([]PayoffPoint, error) {
	spec := SweepSpec{Parameter: SweepStockPrice, Min: minSpot, Max: maxSpot, Points: points}
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	premium, err := Price(base)
	if err != nil {
		return nil, err
	}

	grid := spec.Grid()
	diagram := make([]PayoffPoint, len(grid))
	for i, s := range grid {
		callPayoff := math.Max(s-base.K, 0)
		putPayoff := math.Max(base.K-s, 0)
		diagram[i] = PayoffPoint{
			Spot:       s,
			CallPayoff: callPayoff,
			PutPayoff:  putPayoff,
			CallProfit: callPayoff - premium.CallPrice,
			PutProfit:  putPayoff - premium.PutPrice,
		}
	}
	return diagram, nil
}
