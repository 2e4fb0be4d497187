package services

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	pricer "github.com/jwaldner/optpricer/pricer_lib"
)

func TestFormatValues(t *testing.T) {
	f := NewFormatService(4)

	assert.Equal(t, "$10.4506", f.Currency(10.450583572185565))
	assert.Equal(t, "-$6.4140", f.Currency(-6.414027546438197))
	assert.Equal(t, "$0.0000", f.Currency(-0.00001))
	assert.Equal(t, "0.6368", f.Number(0.6368306511756191))
	assert.Equal(t, "20.00%", f.Percent(0.2))

	assert.Equal(t, "$10.45", NewFormatService(2).Currency(10.450583572185565))
}

func TestFormatNonFiniteValues(t *testing.T) {
	f := NewFormatService(4)

	for _, v := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		assert.Equal(t, NotAvailable, f.Currency(v))
		assert.Equal(t, NotAvailable, f.Number(v))
		assert.Equal(t, NotAvailable, f.Percent(v))
	}
}

func TestFormatVolatilityHidesUnconvergedEstimate(t *testing.T) {
	f := NewFormatService(4)
	assert.Equal(t, "Not found", f.Volatility(pricer.ImpliedVolatilityOutcome{SigmaEstimate: 0.31, Converged: false}))
	assert.Equal(t, "31.25%", f.Volatility(pricer.ImpliedVolatilityOutcome{SigmaEstimate: 0.3125, Converged: true}))
}

func TestFormatPricing(t *testing.T) {
	p := pricer.OptionParameters{S: 100, K: 100, T: 1, R: 0.05, Sigma: 0.2}
	res, err := pricer.Price(p)
	assert.NoError(t, err)

	out := NewFormatService(4).Pricing(res, pricer.Analyze(p, res))
	assert.Equal(t, "$10.4506", out["call_price"].Display)
	assert.Equal(t, "currency", out["call_price"].Type)
	assert.Equal(t, res.CallPrice, out["call_price"].Raw)
	assert.Equal(t, "1.0000", out["moneyness"].Display)
	assert.Equal(t, "$10.4506", out["time_value_call"].Display)

	for field := range out {
		assert.Contains(t, FieldMetadata, field)
	}
}
