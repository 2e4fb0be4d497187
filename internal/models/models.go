package models

import pricer "github.com/jwaldner/optpricer/pricer_lib"

// FieldValue represents a field with both raw data and formatted display
type FieldValue struct {
	Raw     interface{} `json:"raw"`     // For CSV/sorting: 10.450584
	Display string      `json:"display"` // For UI: "$10.4506"
	Type    string      `json:"type"`    // For CSS: "currency"
}

// FormattedResult maps field names to their formatted values
type FormattedResult map[string]FieldValue

type FieldMetadata struct {
	DisplayName string `json:"display_name"`
	Type        string `json:"type"`
	Sortable    bool   `json:"sortable"`
	Alignment   string `json:"alignment"`
}

type ResponseMetadata struct {
	RequestID      string  `json:"request_id,omitempty"`
	Timestamp      string  `json:"timestamp"`
	ProcessingTime float64 `json:"processing_time"` // milliseconds
	ExecutionMode  string  `json:"execution_mode"`
	Parallel       bool    `json:"parallel"`
	ItemCount      int     `json:"item_count"`
}

// ErrorResponse is the body of every 4xx/5xx reply
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Field   string `json:"field,omitempty"`
}

// ContractRequest holds the inputs shared by every calculation request.
// Either time_to_maturity (years) or expiration_date (YYYY-MM-DD) is required.
type ContractRequest struct {
	StockPrice     float64  `json:"stock_price"`
	StrikePrice    float64  `json:"strike_price"`
	TimeToMaturity *float64 `json:"time_to_maturity,omitempty"`
	ExpirationDate string   `json:"expiration_date,omitempty"`
	RiskFreeRate   float64  `json:"risk_free_rate"`
}

// PriceRequest asks for prices and Greeks of one parameter set
type PriceRequest struct {
	ContractRequest
	Volatility float64 `json:"volatility"`
}

// ImpliedVolatilityRequest asks for the volatility implied by a market price
type ImpliedVolatilityRequest struct {
	ContractRequest
	MarketPrice   float64 `json:"market_price"`
	OptionType    string  `json:"option_type"`
	Tolerance     float64 `json:"tolerance,omitempty"`
	MaxIterations int     `json:"max_iterations,omitempty"`
	InitialGuess  float64 `json:"initial_guess,omitempty"`
}

// ImpliedVolatilityBatchRequest solves many market prices in one call
type ImpliedVolatilityBatchRequest struct {
	Queries []ImpliedVolatilityRequest `json:"queries"`
}

// BatchCalculationRequest for multiple calculations
type BatchCalculationRequest struct {
	Calculations []PriceRequest `json:"calculations"`
}

// SweepRequest varies one parameter of the base contract
type SweepRequest struct {
	PriceRequest
	Parameter string   `json:"parameter"`
	Min       *float64 `json:"min,omitempty"`
	Max       *float64 `json:"max,omitempty"`
	Points    int      `json:"points,omitempty"`
}

// CurveRequest spans a spot range for Greeks curves and payoff diagrams
type CurveRequest struct {
	PriceRequest
	Min    *float64 `json:"min,omitempty"`
	Max    *float64 `json:"max,omitempty"`
	Points int      `json:"points,omitempty"`
}

// Inputs echoes the resolved calculation inputs
type Inputs struct {
	StockPrice     float64 `json:"stock_price"`
	StrikePrice    float64 `json:"strike_price"`
	TimeToMaturity float64 `json:"time_to_maturity"`
	RiskFreeRate   float64 `json:"risk_free_rate"`
	Volatility     float64 `json:"volatility"`
}

// PricingResult is the wire form of pricer.PricingResult
type PricingResult struct {
	CallPrice float64 `json:"call_price"`
	PutPrice  float64 `json:"put_price"`
	DeltaCall float64 `json:"delta_call"`
	DeltaPut  float64 `json:"delta_put"`
	Gamma     float64 `json:"gamma"`
	ThetaCall float64 `json:"theta_call"`
	ThetaPut  float64 `json:"theta_put"`
	Vega      float64 `json:"vega"`
}

// DisplayMetrics is the wire form of pricer.DisplayMetrics
type DisplayMetrics struct {
	Moneyness     float64 `json:"moneyness"`
	IntrinsicCall float64 `json:"intrinsic_call"`
	IntrinsicPut  float64 `json:"intrinsic_put"`
	TimeValueCall float64 `json:"time_value_call"`
	TimeValuePut  float64 `json:"time_value_put"`
}

type PriceData struct {
	Inputs    Inputs          `json:"inputs"`
	Result    PricingResult   `json:"result"`
	Metrics   DisplayMetrics  `json:"metrics"`
	Formatted FormattedResult `json:"formatted"`
}

type PriceResponse struct {
	Success bool             `json:"success"`
	Data    PriceData        `json:"data"`
	Meta    ResponseMetadata `json:"meta"`
}

// ImpliedVolatilityResponse never presents a non-converged estimate as the
// answer: ImpliedVolatility is only set when Converged is true.
type ImpliedVolatilityResponse struct {
	Success           bool             `json:"success"`
	ImpliedVolatility *float64         `json:"implied_volatility"`
	LastEstimate      float64          `json:"last_estimate"`
	Converged         bool             `json:"converged"`
	Iterations        int              `json:"iterations"`
	Termination       string           `json:"termination"`
	Status            string           `json:"status"` // "found" or "not_found"
	OptionType        string           `json:"option_type"`
	Display           string           `json:"display"`
	Meta              ResponseMetadata `json:"meta"`
}

// BatchItem is one entry of a batch reply
type BatchItem struct {
	Index   int             `json:"index"`
	Success bool            `json:"success"`
	Result  *PricingResult  `json:"result,omitempty"`
	Metrics *DisplayMetrics `json:"metrics,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// BatchCalculationResponse for multiple results
type BatchCalculationResponse struct {
	Success           bool             `json:"success"`
	Results           []BatchItem      `json:"results"`
	TotalCalculations int              `json:"total_calculations"`
	Failed            int              `json:"failed"`
	Meta              ResponseMetadata `json:"meta"`
}

// ImpliedVolatilityBatchItem is one entry of a batch solve reply
type ImpliedVolatilityBatchItem struct {
	Index             int      `json:"index"`
	Success           bool     `json:"success"`
	ImpliedVolatility *float64 `json:"implied_volatility"`
	LastEstimate      float64  `json:"last_estimate,omitempty"`
	Converged         bool     `json:"converged"`
	Iterations        int      `json:"iterations,omitempty"`
	Termination       string   `json:"termination,omitempty"`
	Status            string   `json:"status,omitempty"`
	Display           string   `json:"display,omitempty"`
	Error             string   `json:"error,omitempty"`
}

type ImpliedVolatilityBatchResponse struct {
	Success      bool                         `json:"success"`
	Results      []ImpliedVolatilityBatchItem `json:"results"`
	TotalQueries int                          `json:"total_queries"`
	Found        int                          `json:"found"`
	Failed       int                          `json:"failed"`
	Meta         ResponseMetadata             `json:"meta"`
}

type SweepPoint struct {
	X         float64 `json:"x"`
	CallPrice float64 `json:"call_price"`
	PutPrice  float64 `json:"put_price"`
}

type SweepResponse struct {
	Success   bool             `json:"success"`
	Parameter string           `json:"parameter"`
	Points    []SweepPoint     `json:"points"`
	Meta      ResponseMetadata `json:"meta"`
}

type GreeksPoint struct {
	Spot      float64 `json:"spot"`
	DeltaCall float64 `json:"delta_call"`
	DeltaPut  float64 `json:"delta_put"`
	Gamma     float64 `json:"gamma"`
	Vega      float64 `json:"vega"`
	ThetaCall float64 `json:"theta_call"`
	ThetaPut  float64 `json:"theta_put"`
}

type GreeksCurveResponse struct {
	Success bool             `json:"success"`
	Points  []GreeksPoint    `json:"points"`
	Meta    ResponseMetadata `json:"meta"`
}

type PayoffPoint struct {
	Spot       float64 `json:"spot"`
	CallPayoff float64 `json:"call_payoff"`
	PutPayoff  float64 `json:"put_payoff"`
	CallProfit float64 `json:"call_profit"`
	PutProfit  float64 `json:"put_profit"`
}

type PayoffResponse struct {
	Success bool             `json:"success"`
	Strike  float64          `json:"strike"`
	Points  []PayoffPoint    `json:"points"`
	Meta    ResponseMetadata `json:"meta"`
}

func NewInputs(p pricer.OptionParameters) Inputs {
	return Inputs{StockPrice: p.S, StrikePrice: p.K, TimeToMaturity: p.T, RiskFreeRate: p.R, Volatility: p.Sigma}
}

func NewPricingResult(r pricer.PricingResult) PricingResult {
	return PricingResult{
		CallPrice: r.CallPrice,
		PutPrice:  r.PutPrice,
		DeltaCall: r.DeltaCall,
		DeltaPut:  r.DeltaPut,
		Gamma:     r.Gamma,
		ThetaCall: r.ThetaCall,
		ThetaPut:  r.ThetaPut,
		Vega:      r.Vega,
	}
}

func NewDisplayMetrics(m pricer.DisplayMetrics) DisplayMetrics {
	return DisplayMetrics{
		Moneyness:     m.Moneyness,
		IntrinsicCall: m.IntrinsicCall,
		IntrinsicPut:  m.IntrinsicPut,
		TimeValueCall: m.TimeValueCall,
		TimeValuePut:  m.TimeValuePut,
	}
}

func NewSweepPoints(points []pricer.SweepPoint) []SweepPoint {
	out := make([]SweepPoint, len(points))
	for i, p := range points {
		out[i] = SweepPoint{X: p.X, CallPrice: p.CallPrice, PutPrice: p.PutPrice}
	}
	return out
}

func NewGreeksPoints(points []pricer.GreeksPoint) []GreeksPoint {
	out := make([]GreeksPoint, len(points))
	for i, p := range points {
		out[i] = GreeksPoint(p)
	}
	return out
}

func NewPayoffPoints(points []pricer.PayoffPoint) []PayoffPoint {
	out := make([]PayoffPoint, len(points))
	for i, p := range points {
		out[i] = PayoffPoint(p)
	}
	return out
}
