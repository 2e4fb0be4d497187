package services

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/jwaldner/optpricer/internal/models"
	pricer "github.com/jwaldner/optpricer/pricer_lib"
)

// FormatService renders raw calculation results for display
type FormatService struct {
	decimals int32
}

// NewFormatService creates a formatter rounding to the given number of decimals
func NewFormatService(decimals int32) *FormatService {
	if decimals < 0 {
		decimals = 4
	}
	return &FormatService{decimals: decimals}
}

// FieldMetadata describes every formatted field for table rendering
var FieldMetadata = map[string]models.FieldMetadata{
	"call_price":      {DisplayName: "Call Price", Type: "currency", Sortable: true, Alignment: "right"},
	"put_price":       {DisplayName: "Put Price", Type: "currency", Sortable: true, Alignment: "right"},
	"delta_call":      {DisplayName: "Delta (Call)", Type: "greek", Sortable: true, Alignment: "right"},
	"delta_put":       {DisplayName: "Delta (Put)", Type: "greek", Sortable: true, Alignment: "right"},
	"gamma":           {DisplayName: "Gamma", Type: "greek", Sortable: true, Alignment: "right"},
	"theta_call":      {DisplayName: "Theta (Call)", Type: "greek", Sortable: true, Alignment: "right"},
	"theta_put":       {DisplayName: "Theta (Put)", Type: "greek", Sortable: true, Alignment: "right"},
	"vega":            {DisplayName: "Vega", Type: "greek", Sortable: true, Alignment: "right"},
	"moneyness":       {DisplayName: "Moneyness (S/K)", Type: "ratio", Sortable: true, Alignment: "right"},
	"intrinsic_call":  {DisplayName: "Intrinsic (Call)", Type: "currency", Sortable: true, Alignment: "right"},
	"intrinsic_put":   {DisplayName: "Intrinsic (Put)", Type: "currency", Sortable: true, Alignment: "right"},
	"time_value_call": {DisplayName: "Time Value (Call)", Type: "currency", Sortable: true, Alignment: "right"},
	"time_value_put":  {DisplayName: "Time Value (Put)", Type: "currency", Sortable: true, Alignment: "right"},
}

// NotAvailable is shown for values decimal cannot represent
const NotAvailable = "N/A"

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Currency renders v as dollars, e.g. "$10.4506"
func (f *FormatService) Currency(v float64) string {
	if !finite(v) {
		return NotAvailable
	}
	d := decimal.NewFromFloat(v).Round(f.decimals)
	if d.IsNegative() {
		return "-$" + d.Abs().StringFixed(f.decimals)
	}
	return "$" + d.StringFixed(f.decimals)
}

// Number renders v rounded to the configured decimals
func (f *FormatService) Number(v float64) string {
	if !finite(v) {
		return NotAvailable
	}
	return decimal.NewFromFloat(v).StringFixed(f.decimals)
}

// Percent renders a decimal fraction as a percentage with two decimals
func (f *FormatService) Percent(v float64) string {
	if !finite(v) {
		return NotAvailable
	}
	return decimal.NewFromFloat(v).Mul(decimal.NewFromInt(100)).StringFixed(2) + "%"
}

// Volatility renders a solver outcome; estimates that did not converge are
// never shown as a number
func (f *FormatService) Volatility(out pricer.ImpliedVolatilityOutcome) string {
	if !out.Converged {
		return "Not found"
	}
	return f.Percent(out.SigmaEstimate)
}

// Pricing formats a priced result and its display metrics
func (f *FormatService) Pricing(result pricer.PricingResult, metrics pricer.DisplayMetrics) models.FormattedResult {
	currency := func(v float64) models.FieldValue {
		return models.FieldValue{Raw: v, Display: f.Currency(v), Type: "currency"}
	}
	greek := func(v float64) models.FieldValue {
		return models.FieldValue{Raw: v, Display: f.Number(v), Type: "greek"}
	}

	return models.FormattedResult{
		"call_price":      currency(result.CallPrice),
		"put_price":       currency(result.PutPrice),
		"delta_call":      greek(result.DeltaCall),
		"delta_put":       greek(result.DeltaPut),
		"gamma":           greek(result.Gamma),
		"theta_call":      greek(result.ThetaCall),
		"theta_put":       greek(result.ThetaPut),
		"vega":            greek(result.Vega),
		"moneyness":       {Raw: metrics.Moneyness, Display: f.Number(metrics.Moneyness), Type: "ratio"},
		"intrinsic_call":  currency(metrics.IntrinsicCall),
		"intrinsic_put":   currency(metrics.IntrinsicPut),
		"time_value_call": currency(metrics.TimeValueCall),
		"time_value_put":  currency(metrics.TimeValuePut),
	}
}
