package main

import (
	"fmt"
	"math"
	"os"

	pricer "github.com/jwaldner/optpricer/pricer_lib"
)

type scenario struct {
	name   string
	params pricer.OptionParameters
	call   float64
	put    float64
	delta  float64
	vega   float64
}

// Reference values computed independently with an erfc-based normal CDF
var scenarios = []scenario{
	{"at the money", pricer.OptionParameters{S: 100, K: 100, T: 1, R: 0.05, Sigma: 0.2}, 10.450583572185565, 5.573526022256971, 0.6368306511756191, 37.52403469169379},
	{"in the money call", pricer.OptionParameters{S: 110, K: 100, T: 1, R: 0.05, Sigma: 0.2}, 17.662953740590453, 2.7858961906618482, 0.7957541713095866, 31.185356392727783},
	{"out of the money call", pricer.OptionParameters{S: 90, K: 100, T: 1, R: 0.05, Sigma: 0.2}, 5.091222078817552, 10.214164528888958, 0.42983173188954316, 35.34799107904935},
	{"short expiry", pricer.OptionParameters{S: 100, K: 100, T: 0.01, R: 0.05, Sigma: 0.2}, 0.8229148471651584, 0.7729273450820955, 0.5139601295627583, 3.9869800307225574},
	{"high volatility", pricer.OptionParameters{S: 100, K: 100, T: 1, R: 0.05, Sigma: 0.8}, 32.82098246699006, 27.94392491706148, 0.678138598836346, 35.84766841827275},
	{"zero rate", pricer.OptionParameters{S: 100, K: 100, T: 1, R: 0, Sigma: 0.2}, 7.965567455405804, 7.965567455405804, 0.539827837277029, 39.69525474770118},
}

const tolerance = 1e-8

var failures int

func check(label string, got, want, tol float64) {
	if math.Abs(got-want) <= tol {
		fmt.Printf("   ✅ %-12s %.10f\n", label, got)
		return
	}
	failures++
	fmt.Printf("   ❌ %-12s got %.10f want %.10f (diff %.2e)\n", label, got, want, math.Abs(got-want))
}

// Verifies the pricing engine and solver against known reference values
func main() {
	fmt.Println("🎯 Verifying Black-Scholes Reference Scenarios")
	fmt.Println("==============================================")

	for _, sc := range scenarios {
		fmt.Printf("\n📊 %s (S=%g K=%g T=%g r=%g σ=%g)\n", sc.name, sc.params.S, sc.params.K, sc.params.T, sc.params.R, sc.params.Sigma)

		res, err := pricer.Price(sc.params)
		if err != nil {
			failures++
			fmt.Printf("   ❌ price failed: %v\n", err)
			continue
		}
		check("call", res.CallPrice, sc.call, tolerance)
		check("put", res.PutPrice, sc.put, tolerance)
		check("delta call", res.DeltaCall, sc.delta, tolerance)
		check("vega", res.Vega, sc.vega, 1e-7)

		parity := sc.params.S - sc.params.K*math.Exp(-sc.params.R*sc.params.T)
		check("parity", res.CallPrice-res.PutPrice, parity, 1e-6)

		for _, typ := range []pricer.OptionType{pricer.Call, pricer.Put} {
			out, err := pricer.Solve(pricer.ImpliedVolatilityQuery{
				S:             sc.params.S,
				K:             sc.params.K,
				T:             sc.params.T,
				R:             sc.params.R,
				ObservedPrice: typ.Price(res),
				OptionType:    typ,
			})
			if err != nil || !out.Converged {
				failures++
				fmt.Printf("   ❌ implied vol (%s) did not converge: %+v %v\n", typ, out, err)
				continue
			}
			check("iv "+string(typ), out.SigmaEstimate, sc.params.Sigma, 1e-3)
		}
	}

	fmt.Println("\n📊 Degenerate and invalid inputs")
	if res, err := pricer.Price(pricer.OptionParameters{S: 100, K: 100, T: 0, R: 0.05, Sigma: 0.2}); err != nil || res != (pricer.PricingResult{}) {
		failures++
		fmt.Printf("   ❌ T=0 should give an all-zero result, got %+v %v\n", res, err)
	} else {
		fmt.Println("   ✅ T=0 gives an all-zero result")
	}
	if _, err := pricer.Price(pricer.OptionParameters{S: -5, K: 100, T: 1, R: 0.05, Sigma: 0.2}); !pricer.IsInvalidInput(err) {
		failures++
		fmt.Printf("   ❌ S=-5 should be rejected, got %v\n", err)
	} else {
		fmt.Println("   ✅ S=-5 rejected")
	}

	fmt.Println()
	if failures > 0 {
		fmt.Printf("❌ %d check(s) failed\n", failures)
		os.Exit(1)
	}
	fmt.Println("✅ All reference checks passed")
}
