package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jwaldner/optpricer/internal/config"
	"github.com/jwaldner/optpricer/internal/dto"
	"github.com/jwaldner/optpricer/internal/logger"
	"github.com/jwaldner/optpricer/internal/models"
	"github.com/jwaldner/optpricer/internal/services"
	"github.com/jwaldner/optpricer/internal/utils"
	pricer "github.com/jwaldner/optpricer/pricer_lib"
)

// Calculator is the engine surface the HTTP layer needs
type Calculator interface {
	Engine() *pricer.Engine
	Price(params pricer.OptionParameters) (pricer.PricingResult, error)
	Solve(q pricer.ImpliedVolatilityQuery) (pricer.ImpliedVolatilityOutcome, error)
	PriceBatch(ctx context.Context, params []pricer.OptionParameters) ([]pricer.BatchResult, error)
	SolveBatch(ctx context.Context, queries []pricer.ImpliedVolatilityQuery) ([]pricer.SolveResult, error)
	Sweep(ctx context.Context, base pricer.OptionParameters, spec pricer.SweepSpec) ([]pricer.SweepPoint, error)
	GreeksCurve(ctx context.Context, base pricer.OptionParameters, minSpot, maxSpot float64, points int) ([]pricer.GreeksPoint, error)
}

// PricingHandler handles pricing requests - DUMB HTTP layer only
type PricingHandler struct {
	calc     Calculator
	config   *config.Config
	requests *services.RequestService
	format   *services.FormatService
}

// NewPricingHandler creates a handler around calc
func NewPricingHandler(calc Calculator, cfg *config.Config) *PricingHandler {
	return &PricingHandler{
		calc:     calc,
		config:   cfg,
		requests: services.NewRequestService(cfg),
		format:   services.NewFormatService(cfg.Display.Decimals),
	}
}

// WithRequestService replaces the request parser
func (h *PricingHandler) WithRequestService(s *services.RequestService) *PricingHandler {
	h.requests = s
	return h
}

// NewRouter wires the API routes, middleware and the metrics endpoint
func NewRouter(h *PricingHandler, gatherer prometheus.Gatherer) *mux.Router {
	r := mux.NewRouter()
	r.Use(RequestIDMiddleware, CORSMiddleware)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/price", h.PriceHandler).Methods(http.MethodPost, http.MethodOptions)
	api.HandleFunc("/implied-volatility", h.ImpliedVolatilityHandler).Methods(http.MethodPost, http.MethodOptions)
	api.HandleFunc("/implied-volatility/batch", h.ImpliedVolatilityBatchHandler).Methods(http.MethodPost, http.MethodOptions)
	api.HandleFunc("/batch", h.BatchHandler).Methods(http.MethodPost, http.MethodOptions)
	api.HandleFunc("/sweep", h.SweepHandler).Methods(http.MethodPost, http.MethodOptions)
	api.HandleFunc("/greeks-curve", h.GreeksCurveHandler).Methods(http.MethodPost, http.MethodOptions)
	api.HandleFunc("/payoff", h.PayoffHandler).Methods(http.MethodPost, http.MethodOptions)
	api.HandleFunc("/defaults", h.DefaultsHandler).Methods(http.MethodGet)
	api.HandleFunc("/health", h.HealthHandler).Methods(http.MethodGet)

	if gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	}

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, models.ErrorResponse{Error: "not found: " + r.URL.Path})
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, models.ErrorResponse{Error: "method not allowed: " + r.Method})
	})
	return r
}

// PriceHandler prices one contract and returns Greeks, display metrics and formatted fields
func (h *PricingHandler) PriceHandler(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	params, err := h.requests.ParsePriceRequest(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	result, err := h.calc.Price(params)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	metrics := pricer.Analyze(params, result)
	writeJSON(w, http.StatusOK, models.PriceResponse{
		Success: true,
		Data: models.PriceData{
			Inputs:    models.NewInputs(params),
			Result:    models.NewPricingResult(result),
			Metrics:   models.NewDisplayMetrics(metrics),
			Formatted: h.format.Pricing(result, metrics),
		},
		Meta: h.meta(r, start, 1),
	})
}

// ImpliedVolatilityHandler recovers the volatility implied by a market price.
// A solve that does not converge is a 200 with status "not_found".
func (h *PricingHandler) ImpliedVolatilityHandler(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	q, err := h.requests.ParseImpliedVolatilityRequest(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	out, err := h.calc.Solve(q)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	resp := models.ImpliedVolatilityResponse{
		Success:      true,
		LastEstimate: out.SigmaEstimate,
		Converged:    out.Converged,
		Iterations:   out.IterationsUsed,
		Termination:  string(out.Termination),
		Status:       "not_found",
		OptionType:   string(q.OptionType),
		Display:      h.format.Volatility(out),
		Meta:         h.meta(r, start, 1),
	}
	if out.Converged {
		sigma := out.SigmaEstimate
		resp.ImpliedVolatility = &sigma
		resp.Status = "found"
	} else {
		logger.Debug.Printf("🔍 IV not found: price=%g S=%g K=%g T=%g (%s after %d iterations)",
			q.ObservedPrice, q.S, q.K, q.T, out.Termination, out.IterationsUsed)
	}

	writeJSON(w, http.StatusOK, resp)
}

// BatchHandler prices many contracts; invalid entries fail individually
func (h *PricingHandler) BatchHandler(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	params, itemErrs, err := h.requests.ParseBatchRequest(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	// Only price the entries that resolved
	valid := make([]pricer.OptionParameters, 0, len(params))
	index := make([]int, 0, len(params))
	for i, p := range params {
		if _, bad := itemErrs[i]; bad {
			continue
		}
		valid = append(valid, p)
		index = append(index, i)
	}

	batch, err := h.calc.PriceBatch(r.Context(), valid)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	items := make([]models.BatchItem, len(params))
	for i := range items {
		items[i] = models.BatchItem{Index: i}
		if itemErr, bad := itemErrs[i]; bad {
			items[i].Error = itemErr.Error()
		}
	}

	failed := len(itemErrs)
	for j, b := range batch {
		item := &items[index[j]]
		if b.Err != nil {
			item.Error = b.Err.Error()
			failed++
			continue
		}
		result := models.NewPricingResult(b.Result)
		metrics := models.NewDisplayMetrics(pricer.Analyze(b.Params, b.Result))
		item.Success = true
		item.Result = &result
		item.Metrics = &metrics
	}

	writeJSON(w, http.StatusOK, models.BatchCalculationResponse{
		Success:           true,
		Results:           items,
		TotalCalculations: len(items),
		Failed:            failed,
		Meta:              h.meta(r, start, len(items)),
	})
}

// ImpliedVolatilityBatchHandler solves many market prices; invalid entries
// fail individually and non-converged entries report status "not_found"
func (h *PricingHandler) ImpliedVolatilityBatchHandler(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	queries, itemErrs, err := h.requests.ParseImpliedVolatilityBatchRequest(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	valid := make([]pricer.ImpliedVolatilityQuery, 0, len(queries))
	index := make([]int, 0, len(queries))
	for i, q := range queries {
		if _, bad := itemErrs[i]; bad {
			continue
		}
		valid = append(valid, q)
		index = append(index, i)
	}

	batch, err := h.calc.SolveBatch(r.Context(), valid)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	items := make([]models.ImpliedVolatilityBatchItem, len(queries))
	for i := range items {
		items[i] = models.ImpliedVolatilityBatchItem{Index: i}
		if itemErr, bad := itemErrs[i]; bad {
			items[i].Error = itemErr.Error()
		}
	}

	failed, found := len(itemErrs), 0
	for j, b := range batch {
		item := &items[index[j]]
		if b.Err != nil {
			item.Error = b.Err.Error()
			failed++
			continue
		}
		out := b.Outcome
		item.Success = true
		item.LastEstimate = out.SigmaEstimate
		item.Converged = out.Converged
		item.Iterations = out.IterationsUsed
		item.Termination = string(out.Termination)
		item.Display = h.format.Volatility(out)
		item.Status = "not_found"
		if out.Converged {
			sigma := out.SigmaEstimate
			item.ImpliedVolatility = &sigma
			item.Status = "found"
			found++
		}
	}

	writeJSON(w, http.StatusOK, models.ImpliedVolatilityBatchResponse{
		Success:      true,
		Results:      items,
		TotalQueries: len(items),
		Found:        found,
		Failed:       failed,
		Meta:         h.meta(r, start, len(items)),
	})
}

// SweepHandler prices the base contract across one parameter's range
func (h *PricingHandler) SweepHandler(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	base, spec, err := h.requests.ParseSweepRequest(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	points, err := h.calc.Sweep(r.Context(), base, spec)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, models.SweepResponse{
		Success:   true,
		Parameter: string(spec.Parameter),
		Points:    models.NewSweepPoints(points),
		Meta:      h.meta(r, start, len(points)),
	})
}

// GreeksCurveHandler returns the Greeks of the base contract across a spot range
func (h *PricingHandler) GreeksCurveHandler(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	base, spec, err := h.requests.ParseCurveRequest(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	curve, err := h.calc.GreeksCurve(r.Context(), base, spec.Min, spec.Max, spec.Points)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, models.GreeksCurveResponse{
		Success: true,
		Points:  models.NewGreeksPoints(curve),
		Meta:    h.meta(r, start, len(curve)),
	})
}

// PayoffHandler returns the at-expiry payoff and profit of the base contract
func (h *PricingHandler) PayoffHandler(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	base, spec, err := h.requests.ParseCurveRequest(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	diagram, err := pricer.PayoffDiagram(base, spec.Min, spec.Max, spec.Points)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, models.PayoffResponse{
		Success: true,
		Strike:  base.K,
		Points:  models.NewPayoffPoints(diagram),
		Meta:    h.meta(r, start, len(diagram)),
	})
}

// DefaultsHandler returns the initial inputs, ranges and solver settings
func (h *PricingHandler) DefaultsHandler(w http.ResponseWriter, r *http.Request) {
	d := h.config.Defaults
	tol, maxIter, guess := h.config.SolverDefaults()
	engine := h.calc.Engine()

	writeJSON(w, http.StatusOK, dto.DefaultsData{
		Title:                 "Black-Scholes Option Pricer",
		StockPrice:            d.StockPrice,
		StrikePrice:           d.StrikePrice,
		TimeToMaturity:        d.TimeToExpiry,
		RiskFreeRate:          d.RiskFreeRate,
		Volatility:            d.Volatility,
		MarketPrice:           d.MarketPrice,
		OptionType:            d.OptionType,
		DefaultExpirationDate: utils.CalculateNextOptionsExpiration(),
		Ranges:                h.config.Ranges,
		StrictRanges:          h.config.Engine.StrictRanges,
		SweepParameters: []string{
			string(pricer.SweepStockPrice),
			string(pricer.SweepStrikePrice),
			string(pricer.SweepTimeToExpiry),
			string(pricer.SweepVolatility),
			string(pricer.SweepRiskFreeRate),
		},
		SweepPoints:   h.config.Sweep.Points,
		Solver:        dto.SolverSettings{Tolerance: tol, MaxIterations: maxIter, InitialGuess: guess},
		ExecutionMode: string(engine.ExecutionMode()),
		Workers:       engine.Workers(),
		FieldMetadata: services.FieldMetadata,
	})
}

// HealthHandler reports liveness
func (h *PricingHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

func (h *PricingHandler) meta(r *http.Request, start time.Time, items int) models.ResponseMetadata {
	engine := h.calc.Engine()
	return models.ResponseMetadata{
		RequestID:      RequestIDFrom(r.Context()),
		Timestamp:      time.Now().Format(time.RFC3339),
		ProcessingTime: float64(time.Since(start).Microseconds()) / 1000.0,
		ExecutionMode:  string(engine.ExecutionMode()),
		Parallel:       engine.IsParallel(items),
		ItemCount:      items,
	}
}

// statusFor maps request and engine errors to HTTP status codes
func statusFor(err error) int {
	switch {
	case pricer.IsInvalidInput(err), errors.Is(err, services.ErrMalformedRequest):
		return http.StatusBadRequest
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (h *PricingHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	resp := models.ErrorResponse{Error: err.Error()}

	var inputErr *pricer.InputError
	if errors.As(err, &inputErr) {
		resp.Field = inputErr.Field
	}

	if status >= http.StatusInternalServerError {
		logger.Error.Printf("❌ %s %s failed: %v [%s]", r.Method, r.URL.Path, err, RequestIDFrom(r.Context()))
	} else {
		logger.Debug.Printf("⚠️  %s %s rejected: %v", r.Method, r.URL.Path, err)
	}
	writeJSON(w, status, resp)
}

// writeJSON encodes v before sending the status so an encoding failure can
// still become a 500
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	body, err := json.Marshal(v)
	if err != nil {
		logger.Error.Printf("❌ JSON encoding failed: %v", err)
		status = http.StatusInternalServerError
		body, _ = json.Marshal(models.ErrorResponse{Error: "response encoding failed: " + err.Error()})
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(append(body, '\n'))
}
