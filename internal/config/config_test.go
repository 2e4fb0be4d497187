package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pricer "github.com/jwaldner/optpricer/pricer_lib"
)

func missingFile(t *testing.T) string {
	return filepath.Join(t.TempDir(), "absent.yaml")
}

func TestDefaults(t *testing.T) {
	cfg := LoadFrom(missingFile(t))

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "info", cfg.Logging.LogLevel)
	assert.Equal(t, "auto", cfg.Engine.ExecutionMode)
	assert.False(t, cfg.Engine.StrictRanges)
	assert.Equal(t, pricer.DefaultTolerance, cfg.Solver.Tolerance)
	assert.Equal(t, pricer.DefaultMaxIterations, cfg.Solver.MaxIterations)
	assert.Equal(t, pricer.DefaultInitialGuess, cfg.Solver.InitialGuess)
	assert.Equal(t, pricer.DefaultSweepPoints, cfg.Sweep.Points)
	assert.Equal(t, int32(4), cfg.Display.Decimals)
	assert.Equal(t, pricer.DefaultRanges(), cfg.Ranges)
	assert.Equal(t, 100.0, cfg.Defaults.StockPrice)
	assert.Equal(t, 0.2, cfg.Defaults.Volatility)
	assert.Equal(t, 500*time.Millisecond, cfg.SlowThreshold())
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("ENGINE_EXECUTION_MODE", "parallel")
	t.Setenv("ENGINE_WORKERS", "4")
	t.Setenv("ENGINE_STRICT_RANGES", "true")
	t.Setenv("SOLVER_TOLERANCE", "1e-8")
	t.Setenv("SOLVER_MAX_ITERATIONS", "250")

	cfg := LoadFrom(missingFile(t))

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "parallel", cfg.Engine.ExecutionMode)
	assert.Equal(t, 4, cfg.Engine.Workers)
	assert.True(t, cfg.Engine.StrictRanges)
	assert.Equal(t, 1e-8, cfg.Solver.Tolerance)
	assert.Equal(t, 250, cfg.Solver.MaxIterations)

	tol, maxIter, guess := cfg.SolverDefaults()
	assert.Equal(t, 1e-8, tol)
	assert.Equal(t, 250, maxIter)
	assert.Equal(t, pricer.DefaultInitialGuess, guess)

	e := cfg.NewEngine()
	assert.Equal(t, pricer.ExecutionModeParallel, e.ExecutionMode())
	assert.Equal(t, 4, e.Workers())
}

func TestInvalidEnvFallsBack(t *testing.T) {
	t.Setenv("ENGINE_EXECUTION_MODE", "gpu")
	t.Setenv("SOLVER_MAX_ITERATIONS", "many")
	t.Setenv("SOLVER_TOLERANCE", "-1")
	t.Setenv("SWEEP_POINTS", "1")

	cfg := LoadFrom(missingFile(t))

	assert.Equal(t, "auto", cfg.Engine.ExecutionMode)
	assert.Equal(t, pricer.DefaultMaxIterations, cfg.Solver.MaxIterations)
	assert.Equal(t, pricer.DefaultTolerance, cfg.Solver.Tolerance)
	assert.Equal(t, pricer.DefaultSweepPoints, cfg.Sweep.Points)
}

func TestYAMLOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yamlData := `
server:
  port: "7070"
logging:
  log_level: debug
  log_file: test.log
engine:
  execution_mode: sequential
  parallel_threshold: 16
  strict_ranges: true
solver:
  tolerance: 0.000001
  max_iterations: 40
  initial_guess: 0.3
sweep:
  points: 50
display:
  decimals: 2
defaults:
  stock_price: 120
  option_type: put
ranges:
  stock_price: {min: 1, max: 500}
  strike_price: {min: 1, max: 500}
  time_to_expiry: {min: 0.01, max: 10}
  risk_free_rate: {min: -0.01, max: 0.2}
  volatility: {min: 0.01, max: 2}
`
	require.NoError(t, os.WriteFile(path, []byte(yamlData), 0644))

	cfg := LoadFrom(path)

	assert.Equal(t, "7070", cfg.Port)
	assert.Equal(t, "debug", cfg.Logging.LogLevel)
	assert.Equal(t, "test.log", cfg.Logging.LogFile)
	assert.Equal(t, "sequential", cfg.Engine.ExecutionMode)
	assert.Equal(t, 16, cfg.Engine.ParallelThreshold)
	assert.True(t, cfg.Engine.StrictRanges)
	assert.Equal(t, 1e-6, cfg.Solver.Tolerance)
	assert.Equal(t, 40, cfg.Solver.MaxIterations)
	assert.Equal(t, 0.3, cfg.Solver.InitialGuess)
	assert.Equal(t, 50, cfg.Sweep.Points)
	assert.Equal(t, int32(2), cfg.Display.Decimals)
	assert.Equal(t, 120.0, cfg.Defaults.StockPrice)
	assert.Equal(t, 100.0, cfg.Defaults.StrikePrice)
	assert.Equal(t, "put", cfg.Defaults.OptionType)
	assert.Equal(t, pricer.Range{Min: 1, Max: 500}, cfg.Ranges.StockPrice)
	assert.Equal(t, pricer.Range{Min: -0.01, Max: 0.2}, cfg.Ranges.RiskFreeRate)
}

func TestYAMLExplicitZeroValues(t *testing.T) {
	t.Setenv("ENGINE_STRICT_RANGES", "true")
	t.Setenv("DISPLAY_DECIMALS", "6")

	path := filepath.Join(t.TempDir(), "config.yaml")
	yamlData := `
engine:
  strict_ranges: false
display:
  decimals: 0
defaults:
  risk_free_rate: 0
metrics:
  slow_threshold_ms: 50
`
	require.NoError(t, os.WriteFile(path, []byte(yamlData), 0644))

	cfg := LoadFrom(path)
	assert.False(t, cfg.Engine.StrictRanges)
	assert.Equal(t, int32(0), cfg.Display.Decimals)
	assert.Equal(t, 0.0, cfg.Defaults.RiskFreeRate)
	assert.Equal(t, 50*time.Millisecond, cfg.SlowThreshold())

	// absent keys keep the environment values
	cfg = LoadFrom(missingFile(t))
	assert.True(t, cfg.Engine.StrictRanges)
	assert.Equal(t, int32(6), cfg.Display.Decimals)
	assert.Equal(t, 0.05, cfg.Defaults.RiskFreeRate)
}

func TestMalformedYAMLIgnored(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("engine: [not, a, map"), 0644))

	cfg := LoadFrom(path)
	assert.Equal(t, "auto", cfg.Engine.ExecutionMode)
}
