package pricer

import "math"

// Solve inverts the pricing formula for volatility with a damped Newton-Raphson
// iteration on vega.
//
// The iterate starts at InitialGuess and is floored at 0.001 after every step.
// The solve stops when the price error drops below Tolerance, when vega falls
// under 1e-10 or after MaxIterations price evaluations. The last iterate is
// returned in every case; callers must check Converged before using it.
func Solve(q ImpliedVolatilityQuery) (ImpliedVolatilityOutcome, error) {
	if err := mustBePositive("observed_price", q.ObservedPrice); err != nil {
		return ImpliedVolatilityOutcome{}, err
	}
	if q.OptionType != "" && q.OptionType != Call && q.OptionType != Put {
		return ImpliedVolatilityOutcome{}, &InputError{Field: "option_type", Reason: "must be call or put"}
	}
	q = q.withDefaults()

	sigma := q.InitialGuess
	termination := TerminationBudgetExhausted
	i := 0

	for i < q.MaxIterations {
		i++

		result, err := Price(q.parameters(sigma))
		if err != nil {
			return ImpliedVolatilityOutcome{}, err
		}

		diff := q.ObservedPrice - q.OptionType.Price(result)
		if math.Abs(diff) < q.Tolerance {
			return ImpliedVolatilityOutcome{
				SigmaEstimate:  sigma,
				Converged:      true,
				IterationsUsed: i,
				Termination:    TerminationConverged,
			}, nil
		}

		if math.Abs(result.Vega) < vegaFloor {
			termination = TerminationVegaStalled
			break
		}

		sigma = math.Max(sigmaFloor, sigma+diff/result.Vega)
	}

	return ImpliedVolatilityOutcome{
		SigmaEstimate:  sigma,
		Converged:      false,
		IterationsUsed: i,
		Termination:    termination,
	}, nil
}
