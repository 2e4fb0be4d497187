package pricer

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidInput is returned for inputs the model is undefined for
var ErrInvalidInput = errors.New("invalid input")

// InputError names the offending field, or the output that no longer fits in
// a float64 for the given inputs. It unwraps to ErrInvalidInput.
type InputError struct {
	Field  string
	Value  float64
	Reason string
}

func (e *InputError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("invalid input: %s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("invalid input: %s=%g", e.Field, e.Value)
}

func (e *InputError) Unwrap() error {
	return ErrInvalidInput
}

// IsInvalidInput reports whether err was caused by rejected inputs
func IsInvalidInput(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

func mustBePositive(field string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return &InputError{Field: field, Value: v, Reason: "must be finite"}
	}
	if v <= 0 {
		return &InputError{Field: field, Value: v, Reason: "must be positive"}
	}
	return nil
}

func mustBeFinite(field string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return &InputError{Field: field, Value: v, Reason: "must be finite"}
	}
	return nil
}

// Validate rejects a non-positive S or K and any non-finite field
func (p OptionParameters) Validate() error {
	if err := mustBePositive("S", p.S); err != nil {
		return err
	}
	if err := mustBePositive("K", p.K); err != nil {
		return err
	}
	if err := mustBeFinite("T", p.T); err != nil {
		return err
	}
	if err := mustBeFinite("r", p.R); err != nil {
		return err
	}
	return mustBeFinite("sigma", p.Sigma)
}

// checkFinite rejects results that overflowed or lost all precision
func (r PricingResult) checkFinite() error {
	fields := []struct {
		name string
		v    float64
	}{
		{"call_price", r.CallPrice},
		{"put_price", r.PutPrice},
		{"delta_call", r.DeltaCall},
		{"delta_put", r.DeltaPut},
		{"gamma", r.Gamma},
		{"theta_call", r.ThetaCall},
		{"theta_put", r.ThetaPut},
		{"vega", r.Vega},
	}
	for _, f := range fields {
		if math.IsNaN(f.v) || math.IsInf(f.v, 0) {
			return &InputError{Field: f.name, Value: f.v, Reason: "not representable for these inputs"}
		}
	}
	return nil
}
