package pricer

import "fmt"

// Range is a closed interval
type Range struct {
	Min float64 `yaml:"min" json:"min"`
	Max float64 `yaml:"max" json:"max"`
}

// Contains reports whether v lies in [Min, Max]
func (r Range) Contains(v float64) bool {
	return v >= r.Min && v <= r.Max
}

// Ranges are the input bounds offered to interactive callers
type Ranges struct {
	StockPrice   Range `yaml:"stock_price" json:"stock_price"`
	StrikePrice  Range `yaml:"strike_price" json:"strike_price"`
	TimeToExpiry Range `yaml:"time_to_expiry" json:"time_to_expiry"`
	RiskFreeRate Range `yaml:"risk_free_rate" json:"risk_free_rate"`
	Volatility   Range `yaml:"volatility" json:"volatility"`
}

// DefaultRanges returns the slider bounds of the interactive pricer
func DefaultRanges() Ranges {
	return Ranges{
		StockPrice:   Range{Min: 10, Max: 200},
		StrikePrice:  Range{Min: 10, Max: 200},
		TimeToExpiry: Range{Min: 0.1, Max: 5},
		RiskFreeRate: Range{Min: 0, Max: 0.15},
		Volatility:   Range{Min: 0.05, Max: 0.8},
	}
}

type rangeCheck struct {
	field string
	value float64
	rng   Range
}

// Check returns an InputError for the first field outside its range
func (rs Ranges) Check(p OptionParameters) error {
	return checkRanges([]rangeCheck{
		{"S", p.S, rs.StockPrice},
		{"K", p.K, rs.StrikePrice},
		{"T", p.T, rs.TimeToExpiry},
		{"r", p.R, rs.RiskFreeRate},
		{"sigma", p.Sigma, rs.Volatility},
	})
}

// CheckQuery applies the contract ranges to an implied volatility query.
// Volatility is the unknown and is not checked.
func (rs Ranges) CheckQuery(q ImpliedVolatilityQuery) error {
	return checkRanges([]rangeCheck{
		{"S", q.S, rs.StockPrice},
		{"K", q.K, rs.StrikePrice},
		{"T", q.T, rs.TimeToExpiry},
		{"r", q.R, rs.RiskFreeRate},
	})
}

func checkRanges(checks []rangeCheck) error {
	for _, c := range checks {
		if !c.rng.Contains(c.value) {
			return &InputError{
				Field:  c.field,
				Value:  c.value,
				Reason: fmt.Sprintf("%g outside [%g, %g]", c.value, c.rng.Min, c.rng.Max),
			}
		}
	}
	return nil
}
