package pricer

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func atm() OptionParameters {
	return OptionParameters{S: 100, K: 100, T: 1, R: 0.05, Sigma: 0.2}
}

func TestPriceReferenceScenario(t *testing.T) {
	d1, d2 := d1d2(100, 100, 1, 0.05, 0.2)
	assert.InDelta(t, 0.35, d1, 1e-12)
	assert.InDelta(t, 0.15, d2, 1e-12)

	res, err := Price(atm())
	require.NoError(t, err)

	assert.InDelta(t, 10.450583572185565, res.CallPrice, 1e-9)
	assert.InDelta(t, 5.573526022256971, res.PutPrice, 1e-9)
	assert.InDelta(t, 0.6368306511756191, res.DeltaCall, 1e-10)
	assert.InDelta(t, -0.3631693488243809, res.DeltaPut, 1e-10)
	assert.InDelta(t, 0.018762017345846895, res.Gamma, 1e-10)
	assert.InDelta(t, -6.414027546438197, res.ThetaCall, 1e-9)
	assert.InDelta(t, -1.657880423934626, res.ThetaPut, 1e-9)
	assert.InDelta(t, 37.52403469169379, res.Vega, 1e-8)

	t.Logf("✅ call=%.4f put=%.4f delta=%.4f vega=%.2f", res.CallPrice, res.PutPrice, res.DeltaCall, res.Vega)
}

func TestPriceKnownCases(t *testing.T) {
	tests := []struct {
		name   string
		params OptionParameters
		want   PricingResult
	}{
		{
			name:   "in the money call",
			params: OptionParameters{S: 110, K: 100, T: 1, R: 0.05, Sigma: 0.2},
			want: PricingResult{
				CallPrice: 17.662953740590453, PutPrice: 2.7858961906618482,
				DeltaCall: 0.7957541713095866, DeltaPut: -0.2042458286904134,
				Gamma: 0.012886510906085861, ThetaCall: -6.612035894445982,
				ThetaPut: -1.855888771942412, Vega: 31.185356392727783,
			},
		},
		{
			name:   "out of the money call",
			params: OptionParameters{S: 90, K: 100, T: 1, R: 0.05, Sigma: 0.2},
			want: PricingResult{
				CallPrice: 5.091222078817552, PutPrice: 10.214164528888958,
				DeltaCall: 0.42983173188954316, DeltaPut: -0.5701682681104568,
				Gamma: 0.021819747579660095, ThetaCall: -5.214480797467002,
				ThetaPut: -0.45833367496343147, Vega: 35.34799107904935,
			},
		},
		{
			name:   "short expiry",
			params: OptionParameters{S: 100, K: 100, T: 0.01, R: 0.05, Sigma: 0.2},
			want: PricingResult{
				CallPrice: 0.8229148471651584, PutPrice: 0.7729273450820955,
				DeltaCall: 0.5139601295627583, DeltaPut: -0.48603987043724173,
				Gamma: 0.19934900153612786, ThetaCall: -42.39845521268111,
				ThetaPut: -37.400954587785264, Vega: 3.9869800307225574,
			},
		},
		{
			name:   "high volatility",
			params: OptionParameters{S: 100, K: 100, T: 1, R: 0.05, Sigma: 0.8},
			want: PricingResult{
				CallPrice: 32.82098246699006, PutPrice: 27.94392491706148,
				DeltaCall: 0.678138598836346, DeltaPut: -0.321861401163654,
				Gamma: 0.004480958552284094, ThetaCall: -16.088711238141325,
				ThetaPut: -11.332564115637755, Vega: 35.84766841827275,
			},
		},
		{
			name:   "zero rate",
			params: OptionParameters{S: 100, K: 100, T: 1, R: 0, Sigma: 0.2},
			want: PricingResult{
				CallPrice: 7.965567455405804, PutPrice: 7.965567455405804,
				DeltaCall: 0.539827837277029, DeltaPut: -0.460172162722971,
				Gamma: 0.01984762737385059, ThetaCall: -3.969525474770118,
				ThetaPut: -3.969525474770118, Vega: 39.69525474770118,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Price(tt.params)
			require.NoError(t, err)
			assert.InDelta(t, tt.want.CallPrice, got.CallPrice, 1e-9, "call")
			assert.InDelta(t, tt.want.PutPrice, got.PutPrice, 1e-9, "put")
			assert.InDelta(t, tt.want.DeltaCall, got.DeltaCall, 1e-10, "delta call")
			assert.InDelta(t, tt.want.DeltaPut, got.DeltaPut, 1e-10, "delta put")
			assert.InDelta(t, tt.want.Gamma, got.Gamma, 1e-10, "gamma")
			assert.InDelta(t, tt.want.ThetaCall, got.ThetaCall, 1e-8, "theta call")
			assert.InDelta(t, tt.want.ThetaPut, got.ThetaPut, 1e-8, "theta put")
			assert.InDelta(t, tt.want.Vega, got.Vega, 1e-8, "vega")
		})
	}
}

func TestPutCallParity(t *testing.T) {
	for _, S := range []float64{10, 55, 100, 145, 200} {
		for _, K := range []float64{10, 80, 100, 120, 200} {
			for _, T := range []float64{0.1, 1, 5} {
				for _, r := range []float64{0, 0.05, 0.15} {
					for _, sigma := range []float64{0.05, 0.3, 0.8} {
						res, err := Price(OptionParameters{S: S, K: K, T: T, R: r, Sigma: sigma})
						require.NoError(t, err)

						lhs := res.CallPrice - res.PutPrice
						rhs := S - K*math.Exp(-r*T)
						if math.Abs(lhs-rhs) > 1e-6 {
							t.Fatalf("parity violated S=%g K=%g T=%g r=%g sigma=%g: C-P=%.10f S-Ke^-rT=%.10f",
								S, K, T, r, sigma, lhs, rhs)
						}
					}
				}
			}
		}
	}
}

func TestPriceMonotonicInSpot(t *testing.T) {
	for _, sigma := range []float64{0.05, 0.2, 0.8} {
		prev, err := Price(OptionParameters{S: 10, K: 100, T: 1, R: 0.05, Sigma: sigma})
		require.NoError(t, err)

		for S := 11.0; S <= 200; S++ {
			cur, err := Price(OptionParameters{S: S, K: 100, T: 1, R: 0.05, Sigma: sigma})
			require.NoError(t, err)

			if cur.CallPrice < prev.CallPrice {
				t.Fatalf("call decreased at S=%g sigma=%g: %g -> %g", S, sigma, prev.CallPrice, cur.CallPrice)
			}
			if cur.PutPrice > prev.PutPrice {
				t.Fatalf("put increased at S=%g sigma=%g: %g -> %g", S, sigma, prev.PutPrice, cur.PutPrice)
			}
			prev = cur
		}
	}
}

func TestPriceApproachesIntrinsicNearExpiry(t *testing.T) {
	for _, S := range []float64{80, 100, 120} {
		res, err := Price(OptionParameters{S: S, K: 100, T: 1e-10, R: 0.05, Sigma: 0.2})
		require.NoError(t, err)

		assert.InDelta(t, math.Max(0, S-100), res.CallPrice, 1e-3, "call at S=%g", S)
		assert.InDelta(t, math.Max(0, 100-S), res.PutPrice, 1e-3, "put at S=%g", S)
	}
}

func TestPriceDegenerateInputsReturnZero(t *testing.T) {
	tests := []OptionParameters{
		{S: 100, K: 100, T: 0, R: 0.05, Sigma: 0.2},
		{S: 100, K: 100, T: -1, R: 0.05, Sigma: 0.2},
		{S: 100, K: 100, T: 1, R: 0.05, Sigma: 0},
		{S: 120, K: 100, T: 1, R: 0.05, Sigma: -0.1},
	}

	for _, p := range tests {
		res, err := Price(p)
		require.NoError(t, err, "%+v", p)
		assert.Equal(t, PricingResult{}, res, "%+v", p)
	}
}

func TestPriceRejectsInvalidInput(t *testing.T) {
	tests := []struct {
		name  string
		p     OptionParameters
		field string
	}{
		{"zero spot", OptionParameters{S: 0, K: 100, T: 1, R: 0.05, Sigma: 0.2}, "S"},
		{"negative spot", OptionParameters{S: -5, K: 100, T: 1, R: 0.05, Sigma: 0.2}, "S"},
		{"zero strike", OptionParameters{S: 100, K: 0, T: 1, R: 0.05, Sigma: 0.2}, "K"},
		{"negative strike", OptionParameters{S: 100, K: -1, T: 0, R: 0.05, Sigma: 0}, "K"},
		{"NaN spot", OptionParameters{S: math.NaN(), K: 100, T: 1, R: 0.05, Sigma: 0.2}, "S"},
		{"infinite strike", OptionParameters{S: 100, K: math.Inf(1), T: 1, R: 0.05, Sigma: 0.2}, "K"},
		{"NaN rate", OptionParameters{S: 100, K: 100, T: 1, R: math.NaN(), Sigma: 0.2}, "r"},
		{"infinite volatility", OptionParameters{S: 100, K: 100, T: 1, R: 0.05, Sigma: math.Inf(1)}, "sigma"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Price(tt.p)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidInput))
			assert.Equal(t, PricingResult{}, res)

			var inputErr *InputError
			require.ErrorAs(t, err, &inputErr)
			assert.Equal(t, tt.field, inputErr.Field)
		})
	}
}

func TestPriceIsDeterministic(t *testing.T) {
	p := OptionParameters{S: 123.45, K: 117, T: 0.73, R: 0.031, Sigma: 0.27}
	first, err := Price(p)
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		again, err := Price(p)
		require.NoError(t, err)
		require.Equal(t, first, again)
	}
}

func TestPriceStaysFiniteOutsideUIRanges(t *testing.T) {
	tests := []OptionParameters{
		{S: 1e-6, K: 1e6, T: 30, R: 0.2, Sigma: 3},
		{S: 1e6, K: 1e-6, T: 1e-6, R: -0.02, Sigma: 0.001},
		{S: 100, K: 100, T: 100, R: 0, Sigma: 5},
	}

	for _, p := range tests {
		res, err := Price(p)
		require.NoError(t, err)
		for _, v := range []float64{res.CallPrice, res.PutPrice, res.DeltaCall, res.DeltaPut, res.Gamma, res.ThetaCall, res.ThetaPut, res.Vega} {
			assert.False(t, math.IsNaN(v) || math.IsInf(v, 0), "non-finite output for %+v: %+v", p, res)
		}
		assert.GreaterOrEqual(t, res.CallPrice, 0.0)
		assert.GreaterOrEqual(t, res.PutPrice, 0.0)
	}
}

func TestPriceOverflowIsAnError(t *testing.T) {
	tests := []OptionParameters{
		{S: 100, K: 100, T: 1, R: -1000, Sigma: 0.2},
		{S: 100, K: 100, T: 1e5, R: -0.01, Sigma: 0.2},
	}

	for _, p := range tests {
		res, err := Price(p)
		require.Error(t, err, "%+v", p)
		assert.True(t, IsInvalidInput(err))

		var inputErr *InputError
		require.True(t, errors.As(err, &inputErr))
		assert.Equal(t, "put_price", inputErr.Field)
		assert.Equal(t, PricingResult{}, res)
	}
}

func TestPriceNeverReturnsNonFiniteWithoutError(t *testing.T) {
	for _, r := range []float64{-1000, -100, -10, -1, 0, 1, 10, 100, 1000} {
		for _, T := range []float64{1e-6, 1, 100, 1e5} {
			p := OptionParameters{S: 100, K: 100, T: T, R: r, Sigma: 0.2}
			res, err := Price(p)
			if err != nil {
				assert.True(t, IsInvalidInput(err), "%+v: %v", p, err)
				continue
			}
			for _, v := range []float64{res.CallPrice, res.PutPrice, res.DeltaCall, res.DeltaPut, res.Gamma, res.ThetaCall, res.ThetaPut, res.Vega} {
				assert.False(t, math.IsNaN(v) || math.IsInf(v, 0), "non-finite output for %+v: %+v", p, res)
			}
		}
	}
}

func TestDiscounted(t *testing.T) {
	assert.InDelta(t, 100*math.Exp(-0.05)*0.5, discounted(100, 0.05, 0.5), 1e-12)
	assert.Equal(t, 0.0, discounted(100, -1000, 0))

	// discount factor alone overflows but the weighted product does not
	v := discounted(100, -720, 1e-10)
	assert.False(t, math.IsInf(v, 0))
	assert.InDelta(t, math.Log(100)+720+math.Log(1e-10), math.Log(v), 1e-9)
}

func TestEngineForcedModes(t *testing.T) {
	assert.Equal(t, ExecutionModeParallel, NewEngineForced("parallel").ExecutionMode())
	assert.Equal(t, ExecutionModeSequential, NewEngineForced("sequential").ExecutionMode())
	assert.Equal(t, ExecutionModeAuto, NewEngineForced("gpu").ExecutionMode())

	e := NewEngine().WithWorkers(3).WithParallelThreshold(10)
	assert.Equal(t, 3, e.Workers())
	assert.False(t, e.IsParallel(9))
	assert.True(t, e.IsParallel(10))

	res, err := e.Price(atm())
	require.NoError(t, err)
	assert.InDelta(t, 10.4506, res.CallPrice, 1e-4)
}
