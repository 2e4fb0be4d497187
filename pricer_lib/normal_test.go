package pricer

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormCDFKnownValues(t *testing.T) {
	tests := []struct {
		x, want float64
	}{
		{0, 0.5},
		{1.96, 0.9750021048517795},
		{-1, 0.15865525393145707},
		{0.35, 0.6368306511756191},
		{0.15, 0.5596176923702425},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, normCDF(tt.x), 1e-12, "x=%g", tt.x)
	}
}

func TestNormCDFTails(t *testing.T) {
	// relative accuracy in the far lower tail, where 1-cdf(-x) would cancel to zero
	got := normCDF(-10)
	assert.InEpsilon(t, 7.619853024160527e-24, got, 1e-9)

	assert.Equal(t, 1.0, normCDF(40))
	assert.Equal(t, 0.0, normCDF(-40))

	for _, x := range []float64{0.1, 1, 3, 6, 8} {
		assert.InDelta(t, 1.0, normCDF(x)+normCDF(-x), 1e-15, "x=%g", x)
	}
}

func TestNormPDF(t *testing.T) {
	assert.InDelta(t, 1/math.Sqrt(2*math.Pi), normPDF(0), 1e-15)
	assert.InDelta(t, 0.3752403469169379, normPDF(0.35), 1e-15)
	assert.Equal(t, normPDF(1.3), normPDF(-1.3))
}
