package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/jwaldner/optpricer/internal/config"
	"github.com/jwaldner/optpricer/internal/services"
	"github.com/jwaldner/optpricer/internal/utils"
	pricer "github.com/jwaldner/optpricer/pricer_lib"
)

// Prices one contract from the command line and optionally backs out the implied volatility
func main() {
	cfg := config.Load()
	d := cfg.Defaults
	tol, maxIter, guess := cfg.SolverDefaults()

	S := flag.Float64("S", d.StockPrice, "stock price")
	K := flag.Float64("K", d.StrikePrice, "strike price")
	T := flag.Float64("T", d.TimeToExpiry, "time to expiry in years")
	r := flag.Float64("r", d.RiskFreeRate, "risk-free rate")
	sigma := flag.Float64("sigma", d.Volatility, "volatility")
	expiration := flag.String("expiration", "", "expiration date (YYYY-MM-DD), overrides -T")
	marketPrice := flag.Float64("market-price", 0, "observed option price; solves implied volatility when > 0")
	optionType := flag.String("type", d.OptionType, "option type for the implied volatility solve (call or put)")
	flag.Float64Var(&tol, "tolerance", tol, "implied volatility tolerance")
	flag.IntVar(&maxIter, "max-iterations", maxIter, "implied volatility iteration budget")
	flag.Float64Var(&guess, "initial-guess", guess, "implied volatility starting point")
	flag.Parse()

	params := pricer.OptionParameters{S: *S, K: *K, T: *T, R: *r, Sigma: *sigma}
	if *expiration != "" {
		years, err := utils.YearsToExpiration(*expiration, time.Now())
		if err != nil {
			fmt.Fprintf(os.Stderr, "❌ %v\n", err)
			os.Exit(2)
		}
		params.T = years
	}

	format := services.NewFormatService(cfg.Display.Decimals)

	result, err := pricer.Price(params)
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		os.Exit(2)
	}
	metrics := pricer.Analyze(params, result)

	fmt.Printf("📊 Input Parameters:\n")
	fmt.Printf("   Stock Price (S):    %s\n", format.Currency(params.S))
	fmt.Printf("   Strike Price (K):   %s\n", format.Currency(params.K))
	fmt.Printf("   Time to Exp (T):    %.6f years\n", params.T)
	fmt.Printf("   Risk-free Rate (r): %s\n", format.Percent(params.R))
	fmt.Printf("   Volatility (σ):     %s\n", format.Percent(params.Sigma))
	fmt.Println()

	fmt.Printf("💰 Prices:\n")
	fmt.Printf("   Call: %-14s Put: %s\n", format.Currency(result.CallPrice), format.Currency(result.PutPrice))
	fmt.Printf("📐 Greeks:\n")
	fmt.Printf("   Delta call: %s   Delta put: %s\n", format.Number(result.DeltaCall), format.Number(result.DeltaPut))
	fmt.Printf("   Gamma:      %s\n", format.Number(result.Gamma))
	fmt.Printf("   Theta call: %s   Theta put: %s\n", format.Number(result.ThetaCall), format.Number(result.ThetaPut))
	fmt.Printf("   Vega:       %s\n", format.Number(result.Vega))
	fmt.Printf("🔍 Metrics:\n")
	fmt.Printf("   Moneyness (S/K): %s\n", format.Number(metrics.Moneyness))
	fmt.Printf("   Intrinsic call:  %-12s Time value call: %s\n", format.Currency(metrics.IntrinsicCall), format.Currency(metrics.TimeValueCall))
	fmt.Printf("   Intrinsic put:   %-12s Time value put:  %s\n", format.Currency(metrics.IntrinsicPut), format.Currency(metrics.TimeValuePut))

	if *marketPrice <= 0 {
		return
	}

	typ, err := pricer.ParseOptionType(*optionType)
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		os.Exit(2)
	}

	out, err := pricer.Solve(pricer.ImpliedVolatilityQuery{
		S:             params.S,
		K:             params.K,
		T:             params.T,
		R:             params.R,
		ObservedPrice: *marketPrice,
		OptionType:    typ,
		Tolerance:     tol,
		MaxIterations: maxIter,
		InitialGuess:  guess,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		os.Exit(2)
	}

	fmt.Println()
	fmt.Printf("🎯 Implied Volatility (%s at %s):\n", typ, format.Currency(*marketPrice))
	if out.Converged {
		fmt.Printf("   ✅ %s after %d iterations\n", format.Volatility(out), out.IterationsUsed)
		return
	}
	fmt.Printf("   ⚠️  %s: %s after %d iterations (last estimate %.6f, not reliable)\n",
		format.Volatility(out), out.Termination, out.IterationsUsed, out.SigmaEstimate)
	os.Exit(1)
}
