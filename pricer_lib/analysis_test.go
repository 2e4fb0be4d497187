package pricer

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyze(t *testing.T) {
	p := OptionParameters{S: 110, K: 100, T: 1, R: 0.05, Sigma: 0.2}
	res, err := Price(p)
	require.NoError(t, err)

	m := Analyze(p, res)
	assert.InDelta(t, 1.1, m.Moneyness, 1e-15)
	assert.Equal(t, 10.0, m.IntrinsicCall)
	assert.Equal(t, 0.0, m.IntrinsicPut)
	assert.InDelta(t, res.CallPrice-10, m.TimeValueCall, 1e-12)
	assert.Equal(t, res.PutPrice, m.TimeValuePut)
	assert.True(t, m.InTheMoney(Call))
	assert.False(t, m.InTheMoney(Put))
}

func TestAnalyzeOutOfTheMoney(t *testing.T) {
	p := OptionParameters{S: 90, K: 100, T: 1, R: 0.05, Sigma: 0.2}
	res, err := Price(p)
	require.NoError(t, err)

	m := Analyze(p, res)
	assert.InDelta(t, 0.9, m.Moneyness, 1e-15)
	assert.Equal(t, 10.0, m.IntrinsicPut)
	assert.True(t, m.InTheMoney(Put))
	assert.Equal(t, res.CallPrice, m.TimeValueCall)
}

func TestDefaultRangesCheck(t *testing.T) {
	rs := DefaultRanges()
	assert.NoError(t, rs.Check(atm()))
	assert.NoError(t, rs.Check(OptionParameters{S: 10, K: 200, T: 5, R: 0, Sigma: 0.8}))

	tests := []struct {
		p     OptionParameters
		field string
	}{
		{OptionParameters{S: 5, K: 100, T: 1, R: 0.05, Sigma: 0.2}, "S"},
		{OptionParameters{S: 100, K: 250, T: 1, R: 0.05, Sigma: 0.2}, "K"},
		{OptionParameters{S: 100, K: 100, T: 0.05, R: 0.05, Sigma: 0.2}, "T"},
		{OptionParameters{S: 100, K: 100, T: 1, R: 0.2, Sigma: 0.2}, "r"},
		{OptionParameters{S: 100, K: 100, T: 1, R: 0.05, Sigma: math.NaN()}, "sigma"},
	}
	for _, tt := range tests {
		err := rs.Check(tt.p)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrInvalidInput))

		var inputErr *InputError
		require.ErrorAs(t, err, &inputErr)
		assert.Equal(t, tt.field, inputErr.Field)
	}
}

func TestRangesCheckQuerySkipsVolatility(t *testing.T) {
	rs := DefaultRanges()
	assert.NoError(t, rs.CheckQuery(ImpliedVolatilityQuery{S: 100, K: 100, T: 1, R: 0.05, ObservedPrice: 10}))

	err := rs.CheckQuery(ImpliedVolatilityQuery{S: 100, K: 100, T: 9, R: 0.05, ObservedPrice: 10})
	var inputErr *InputError
	require.ErrorAs(t, err, &inputErr)
	assert.Equal(t, "T", inputErr.Field)
	assert.True(t, IsInvalidInput(err))
}
