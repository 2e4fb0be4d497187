package pricer

import "math"

// DisplayMetrics are the derived figures shown next to a price
type DisplayMetrics struct {
	Moneyness     float64
	IntrinsicCall float64
	IntrinsicPut  float64
	TimeValueCall float64
	TimeValuePut  float64
}

// Analyze derives moneyness, intrinsic value and time value from a priced result
func Analyze(params OptionParameters, result PricingResult) DisplayMetrics {
	intrinsicCall := math.Max(0, params.S-params.K)
	intrinsicPut := math.Max(0, params.K-params.S)

	m := DisplayMetrics{
		IntrinsicCall: intrinsicCall,
		IntrinsicPut:  intrinsicPut,
		TimeValueCall: result.CallPrice - intrinsicCall,
		TimeValuePut:  result.PutPrice - intrinsicPut,
	}
	if params.K != 0 {
		m.Moneyness = params.S / params.K
	}
	return m
}

// InTheMoney reports whether the given side would pay out if exercised now
func (m DisplayMetrics) InTheMoney(o OptionType) bool {
	if o == Put {
		return m.IntrinsicPut > 0
	}
	return m.IntrinsicCall > 0
}
