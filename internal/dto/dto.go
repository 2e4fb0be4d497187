package dto

import (
	"github.com/jwaldner/optpricer/internal/models"
	pricer "github.com/jwaldner/optpricer/pricer_lib"
)

// DefaultsData represents the initial state offered to interactive clients
type DefaultsData struct {
	Title                 string                          `json:"title"`
	StockPrice            float64                         `json:"stock_price"`
	StrikePrice           float64                         `json:"strike_price"`
	TimeToMaturity        float64                         `json:"time_to_maturity"`
	RiskFreeRate          float64                         `json:"risk_free_rate"`
	Volatility            float64                         `json:"volatility"`
	MarketPrice           float64                         `json:"market_price"`
	OptionType            string                          `json:"option_type"`
	DefaultExpirationDate string                          `json:"default_expiration_date"`
	Ranges                pricer.Ranges                   `json:"ranges"`
	StrictRanges          bool                            `json:"strict_ranges"`
	SweepParameters       []string                        `json:"sweep_parameters"`
	SweepPoints           int                             `json:"sweep_points"`
	Solver                SolverSettings                  `json:"solver"`
	ExecutionMode         string                          `json:"execution_mode"`
	Workers               int                             `json:"workers"`
	FieldMetadata         map[string]models.FieldMetadata `json:"field_metadata"`
}

// SolverSettings are the implied volatility defaults applied to requests
type SolverSettings struct {
	Tolerance     float64 `json:"tolerance"`
	MaxIterations int     `json:"max_iterations"`
	InitialGuess  float64 `json:"initial_guess"`
}
