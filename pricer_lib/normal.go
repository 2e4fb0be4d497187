package pricer

import "gonum.org/v1/gonum/stat/distuv"

// normCDF is the standard normal CDF. distuv evaluates it as 0.5*erfc(-x/sqrt2),
// which keeps full relative precision in the lower tail.
func normCDF(x float64) float64 {
	return distuv.UnitNormal.CDF(x)
}

// normPDF is the standard normal density
func normPDF(x float64) float64 {
	return distuv.UnitNormal.Prob(x)
}
