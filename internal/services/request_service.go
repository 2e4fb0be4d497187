package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/jwaldner/optpricer/internal/config"
	"github.com/jwaldner/optpricer/internal/models"
	"github.com/jwaldner/optpricer/internal/utils"
	pricer "github.com/jwaldner/optpricer/pricer_lib"
)

// ErrMalformedRequest marks bodies that could not be decoded
var ErrMalformedRequest = errors.New("malformed request")

// maxBodyBytes bounds request bodies; large batches fit comfortably
const maxBodyBytes = 8 << 20

// RequestService handles HTTP request parsing
type RequestService struct {
	tolerance     float64
	maxIterations int
	initialGuess  float64

	strictRanges bool
	ranges       pricer.Ranges

	sweepPoints  int
	maxPoints    int
	maxBatchSize int

	now func() time.Time
}

// NewRequestService creates a new request service from the solver, range and
// sweep settings of cfg
func NewRequestService(cfg *config.Config) *RequestService {
	tol, maxIter, guess := cfg.SolverDefaults()
	return &RequestService{
		tolerance:     tol,
		maxIterations: maxIter,
		initialGuess:  guess,
		strictRanges:  cfg.Engine.StrictRanges,
		ranges:        cfg.Ranges,
		sweepPoints:   cfg.Sweep.Points,
		maxPoints:     cfg.Sweep.MaxPoints,
		maxBatchSize:  cfg.Engine.MaxBatchSize,
		now:           time.Now,
	}
}

// WithClock replaces the clock used to resolve expiration dates
func (s *RequestService) WithClock(now func() time.Time) *RequestService {
	s.now = now
	return s
}

func (s *RequestService) decode(r *http.Request, v interface{}) error {
	if r.Method != http.MethodPost {
		return fmt.Errorf("%w: method not allowed: %s", ErrMalformedRequest, r.Method)
	}

	body := io.LimitReader(r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(v); err != nil {
		return fmt.Errorf("%w: failed to decode request: %v", ErrMalformedRequest, err)
	}
	return nil
}

// ParsePriceRequest parses an HTTP request into pricing parameters
func (s *RequestService) ParsePriceRequest(r *http.Request) (pricer.OptionParameters, error) {
	var req models.PriceRequest
	if err := s.decode(r, &req); err != nil {
		return pricer.OptionParameters{}, err
	}
	return s.PriceParams(req)
}

// PriceParams resolves a decoded price request
func (s *RequestService) PriceParams(req models.PriceRequest) (pricer.OptionParameters, error) {
	p, err := s.contract(req.ContractRequest)
	if err != nil {
		return pricer.OptionParameters{}, err
	}
	p.Sigma = req.Volatility

	if s.strictRanges {
		if err := s.ranges.Check(p); err != nil {
			return pricer.OptionParameters{}, err
		}
	}
	return p, nil
}

// ParseImpliedVolatilityRequest parses an HTTP request into a solver query.
// Omitted solver settings take the configured defaults.
func (s *RequestService) ParseImpliedVolatilityRequest(r *http.Request) (pricer.ImpliedVolatilityQuery, error) {
	var req models.ImpliedVolatilityRequest
	if err := s.decode(r, &req); err != nil {
		return pricer.ImpliedVolatilityQuery{}, err
	}
	return s.Query(req)
}

// Query resolves a decoded implied volatility request, filling solver defaults
func (s *RequestService) Query(req models.ImpliedVolatilityRequest) (pricer.ImpliedVolatilityQuery, error) {
	p, err := s.contract(req.ContractRequest)
	if err != nil {
		return pricer.ImpliedVolatilityQuery{}, err
	}

	optionType := pricer.Call
	if req.OptionType != "" {
		if optionType, err = pricer.ParseOptionType(req.OptionType); err != nil {
			return pricer.ImpliedVolatilityQuery{}, err
		}
	}

	q := pricer.ImpliedVolatilityQuery{
		S:             p.S,
		K:             p.K,
		T:             p.T,
		R:             p.R,
		ObservedPrice: req.MarketPrice,
		OptionType:    optionType,
		Tolerance:     req.Tolerance,
		MaxIterations: req.MaxIterations,
		InitialGuess:  req.InitialGuess,
	}

	// Set defaults
	if q.Tolerance <= 0 {
		q.Tolerance = s.tolerance
	}
	if q.MaxIterations <= 0 {
		q.MaxIterations = s.maxIterations
	}
	if q.InitialGuess <= 0 {
		q.InitialGuess = s.initialGuess
	}

	if s.strictRanges {
		if err := s.ranges.CheckQuery(q); err != nil {
			return pricer.ImpliedVolatilityQuery{}, err
		}
	}
	return q, nil
}

// ParseBatchRequest decodes a batch. Item resolution errors are returned per
// index so one bad entry does not reject the batch.
func (s *RequestService) ParseBatchRequest(r *http.Request) ([]pricer.OptionParameters, map[int]error, error) {
	var req models.BatchCalculationRequest
	if err := s.decode(r, &req); err != nil {
		return nil, nil, err
	}

	if err := s.checkBatchSize("calculations", len(req.Calculations)); err != nil {
		return nil, nil, err
	}

	params := make([]pricer.OptionParameters, len(req.Calculations))
	itemErrs := make(map[int]error)
	for i, c := range req.Calculations {
		p, err := s.PriceParams(c)
		if err != nil {
			itemErrs[i] = err
			continue
		}
		params[i] = p
	}
	return params, itemErrs, nil
}

// ParseImpliedVolatilityBatchRequest decodes a batch of solver queries with
// the same per-index error policy as ParseBatchRequest
func (s *RequestService) ParseImpliedVolatilityBatchRequest(r *http.Request) ([]pricer.ImpliedVolatilityQuery, map[int]error, error) {
	var req models.ImpliedVolatilityBatchRequest
	if err := s.decode(r, &req); err != nil {
		return nil, nil, err
	}

	if err := s.checkBatchSize("queries", len(req.Queries)); err != nil {
		return nil, nil, err
	}

	queries := make([]pricer.ImpliedVolatilityQuery, len(req.Queries))
	itemErrs := make(map[int]error)
	for i, item := range req.Queries {
		q, err := s.Query(item)
		if err != nil {
			itemErrs[i] = err
			continue
		}
		queries[i] = q
	}
	return queries, itemErrs, nil
}

func (s *RequestService) checkBatchSize(field string, n int) error {
	if n == 0 {
		return &pricer.InputError{Field: field, Reason: "at least one item is required"}
	}
	if n > s.maxBatchSize {
		return &pricer.InputError{
			Field:  field,
			Value:  float64(n),
			Reason: "batch exceeds " + strconv.Itoa(s.maxBatchSize) + " items",
		}
	}
	return nil
}

// ParseSweepRequest decodes the base contract and the grid of a sweep
func (s *RequestService) ParseSweepRequest(r *http.Request) (pricer.OptionParameters, pricer.SweepSpec, error) {
	var req models.SweepRequest
	if err := s.decode(r, &req); err != nil {
		return pricer.OptionParameters{}, pricer.SweepSpec{}, err
	}

	base, err := s.PriceParams(req.PriceRequest)
	if err != nil {
		return pricer.OptionParameters{}, pricer.SweepSpec{}, err
	}

	param, err := pricer.ParseSweepParameter(req.Parameter)
	if err != nil {
		return pricer.OptionParameters{}, pricer.SweepSpec{}, err
	}

	spec := pricer.DefaultSweepSpec(param)
	if spec.Points, err = s.points(req.Points); err != nil {
		return pricer.OptionParameters{}, pricer.SweepSpec{}, err
	}
	if req.Min != nil {
		spec.Min = *req.Min
	}
	if req.Max != nil {
		spec.Max = *req.Max
	}
	return base, spec, nil
}

// ParseCurveRequest decodes the base contract and spot range of a Greeks
// curve or payoff diagram
func (s *RequestService) ParseCurveRequest(r *http.Request) (pricer.OptionParameters, pricer.SweepSpec, error) {
	var req models.CurveRequest
	if err := s.decode(r, &req); err != nil {
		return pricer.OptionParameters{}, pricer.SweepSpec{}, err
	}

	base, err := s.PriceParams(req.PriceRequest)
	if err != nil {
		return pricer.OptionParameters{}, pricer.SweepSpec{}, err
	}

	spec := pricer.DefaultSweepSpec(pricer.SweepStockPrice)
	if spec.Points, err = s.points(req.Points); err != nil {
		return pricer.OptionParameters{}, pricer.SweepSpec{}, err
	}
	if req.Min != nil {
		spec.Min = *req.Min
	}
	if req.Max != nil {
		spec.Max = *req.Max
	}
	return base, spec, nil
}

func (s *RequestService) points(requested int) (int, error) {
	if requested == 0 {
		return s.sweepPoints, nil
	}
	if requested > s.maxPoints {
		return 0, &pricer.InputError{
			Field:  "points",
			Value:  float64(requested),
			Reason: "exceeds " + strconv.Itoa(s.maxPoints) + " points",
		}
	}
	return requested, nil
}

// contract resolves time to maturity from either field of the request
func (s *RequestService) contract(c models.ContractRequest) (pricer.OptionParameters, error) {
	p := pricer.OptionParameters{S: c.StockPrice, K: c.StrikePrice, R: c.RiskFreeRate}

	switch {
	case c.TimeToMaturity != nil:
		p.T = *c.TimeToMaturity
	case c.ExpirationDate != "":
		years, err := utils.YearsToExpiration(c.ExpirationDate, s.now())
		if err != nil {
			return pricer.OptionParameters{}, &pricer.InputError{Field: "expiration_date", Reason: err.Error()}
		}
		p.T = years
	default:
		return pricer.OptionParameters{}, &pricer.InputError{
			Field:  "time_to_maturity",
			Reason: "time_to_maturity or expiration_date is required",
		}
	}
	return p, nil
}
