package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"

	pricer "github.com/jwaldner/optpricer/pricer_lib"
)

// DefaultConfigFile is read from the working directory when present
const DefaultConfigFile = "config.yaml"

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	LogLevel   string `yaml:"log_level"`
	LogFile    string `yaml:"log_file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

// EngineConfig represents computation engine configuration
type EngineConfig struct {
	ExecutionMode     string `yaml:"execution_mode"`     // auto, parallel, sequential
	Workers           int    `yaml:"workers"`            // 0 = GOMAXPROCS
	ParallelThreshold int    `yaml:"parallel_threshold"` // batch size where auto goes parallel
	StrictRanges      bool   `yaml:"strict_ranges"`      // reject inputs outside the UI ranges
	MaxBatchSize      int    `yaml:"max_batch_size"`     // largest accepted /api/batch request
}

// SolverConfig holds the implied volatility defaults applied to requests
type SolverConfig struct {
	Tolerance     float64 `yaml:"tolerance"`
	MaxIterations int     `yaml:"max_iterations"`
	InitialGuess  float64 `yaml:"initial_guess"`
}

// SweepConfig controls chart resolution
type SweepConfig struct {
	Points    int `yaml:"points"`
	MaxPoints int `yaml:"max_points"`
}

// DisplayConfig controls formatted output
type DisplayConfig struct {
	Decimals int32 `yaml:"decimals"`
}

// MetricsConfig controls the performance wrapper
type MetricsConfig struct {
	SlowThresholdMs int `yaml:"slow_threshold_ms"`
}

// DefaultsConfig are the initial input values offered to the UI
type DefaultsConfig struct {
	StockPrice   float64 `yaml:"stock_price"`
	StrikePrice  float64 `yaml:"strike_price"`
	TimeToExpiry float64 `yaml:"time_to_expiry"`
	RiskFreeRate float64 `yaml:"risk_free_rate"`
	Volatility   float64 `yaml:"volatility"`
	MarketPrice  float64 `yaml:"market_price"`
	OptionType   string  `yaml:"option_type"`
}

type Config struct {
	// Server settings
	Port string

	// Logging settings
	Logging LoggingConfig `yaml:"logging"`
	// Engine settings
	Engine EngineConfig `yaml:"engine"`
	// Implied volatility solver settings
	Solver SolverConfig `yaml:"solver"`
	// Sensitivity chart settings
	Sweep SweepConfig `yaml:"sweep"`
	// Formatting settings
	Display DisplayConfig `yaml:"display"`
	// Performance monitoring settings
	Metrics MetricsConfig `yaml:"metrics"`
	// UI defaults and ranges
	Defaults DefaultsConfig `yaml:"defaults"`
	Ranges   pricer.Ranges  `yaml:"ranges"`
}

type YAMLConfig struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`

	Logging LoggingConfig `yaml:"logging"`

	// Pointers distinguish an explicit false or zero from an absent key
	Engine struct {
		ExecutionMode     string `yaml:"execution_mode"`
		Workers           int    `yaml:"workers"`
		ParallelThreshold int    `yaml:"parallel_threshold"`
		StrictRanges      *bool  `yaml:"strict_ranges"`
		MaxBatchSize      int    `yaml:"max_batch_size"`
	} `yaml:"engine"`

	Solver SolverConfig `yaml:"solver"`
	Sweep  SweepConfig  `yaml:"sweep"`

	Display struct {
		Decimals *int32 `yaml:"decimals"`
	} `yaml:"display"`

	Metrics  MetricsConfig  `yaml:"metrics"`
	Defaults yamlDefaults   `yaml:"defaults"`
	Ranges   *pricer.Ranges `yaml:"ranges"`
}

type yamlDefaults struct {
	StockPrice   float64  `yaml:"stock_price"`
	StrikePrice  float64  `yaml:"strike_price"`
	TimeToExpiry float64  `yaml:"time_to_expiry"`
	RiskFreeRate *float64 `yaml:"risk_free_rate"`
	Volatility   float64  `yaml:"volatility"`
	MarketPrice  float64  `yaml:"market_price"`
	OptionType   string   `yaml:"option_type"`
}

// Load reads .env, the environment and config.yaml from the working directory
func Load() *Config {
	return LoadFrom(DefaultConfigFile)
}

// LoadFrom builds the config from environment defaults and overlays the YAML file at path
func LoadFrom(path string) *Config {
	// .env only fills variables that are not already set
	_ = godotenv.Load()

	cfg := &Config{
		Port: getEnv("PORT", "8080"),
		Logging: LoggingConfig{
			LogLevel:   getEnv("LOG_LEVEL", "info"),
			LogFile:    getEnv("LOG_FILE", "optpricer.log"),
			MaxSizeMB:  getEnvInt("LOG_MAX_SIZE_MB", 10),
			MaxBackups: getEnvInt("LOG_MAX_BACKUPS", 3),
			MaxAgeDays: getEnvInt("LOG_MAX_AGE_DAYS", 28),
		},

		// Default engine configuration
		Engine: EngineConfig{
			ExecutionMode:     getEnv("ENGINE_EXECUTION_MODE", "auto"),
			Workers:           getEnvInt("ENGINE_WORKERS", 0),
			ParallelThreshold: getEnvInt("ENGINE_PARALLEL_THRESHOLD", pricer.DefaultParallelThreshold),
			StrictRanges:      getEnvBool("ENGINE_STRICT_RANGES", false),
			MaxBatchSize:      getEnvInt("ENGINE_MAX_BATCH_SIZE", 10000),
		},

		Solver: SolverConfig{
			Tolerance:     getEnvFloat("SOLVER_TOLERANCE", pricer.DefaultTolerance),
			MaxIterations: getEnvInt("SOLVER_MAX_ITERATIONS", pricer.DefaultMaxIterations),
			InitialGuess:  getEnvFloat("SOLVER_INITIAL_GUESS", pricer.DefaultInitialGuess),
		},

		Sweep: SweepConfig{
			Points:    getEnvInt("SWEEP_POINTS", pricer.DefaultSweepPoints),
			MaxPoints: getEnvInt("SWEEP_MAX_POINTS", 2000),
		},

		Display: DisplayConfig{
			Decimals: int32(getEnvInt("DISPLAY_DECIMALS", 4)),
		},

		Metrics: MetricsConfig{
			SlowThresholdMs: getEnvInt("METRICS_SLOW_THRESHOLD_MS", 500),
		},

		// Slider defaults of the interactive pricer
		Defaults: DefaultsConfig{
			StockPrice:   100,
			StrikePrice:  100,
			TimeToExpiry: 1,
			RiskFreeRate: 0.05,
			Volatility:   0.2,
			MarketPrice:  10,
			OptionType:   "call",
		},
		Ranges: pricer.DefaultRanges(),
	}

	if yamlCfg := loadYAMLConfig(path); yamlCfg != nil {
		if yamlCfg.Server.Port != "" {
			cfg.Port = yamlCfg.Server.Port
		}

		// Logging configuration from YAML
		if yamlCfg.Logging.LogLevel != "" {
			cfg.Logging.LogLevel = yamlCfg.Logging.LogLevel
		}
		if yamlCfg.Logging.LogFile != "" {
			cfg.Logging.LogFile = yamlCfg.Logging.LogFile
		}
		if yamlCfg.Logging.MaxSizeMB > 0 {
			cfg.Logging.MaxSizeMB = yamlCfg.Logging.MaxSizeMB
		}
		if yamlCfg.Logging.MaxBackups > 0 {
			cfg.Logging.MaxBackups = yamlCfg.Logging.MaxBackups
		}
		if yamlCfg.Logging.MaxAgeDays > 0 {
			cfg.Logging.MaxAgeDays = yamlCfg.Logging.MaxAgeDays
		}

		// Engine configuration from YAML
		if yamlCfg.Engine.ExecutionMode != "" {
			cfg.Engine.ExecutionMode = yamlCfg.Engine.ExecutionMode
		}
		if yamlCfg.Engine.Workers > 0 {
			cfg.Engine.Workers = yamlCfg.Engine.Workers
		}
		if yamlCfg.Engine.ParallelThreshold > 0 {
			cfg.Engine.ParallelThreshold = yamlCfg.Engine.ParallelThreshold
		}
		if yamlCfg.Engine.MaxBatchSize > 0 {
			cfg.Engine.MaxBatchSize = yamlCfg.Engine.MaxBatchSize
		}
		if yamlCfg.Engine.StrictRanges != nil {
			cfg.Engine.StrictRanges = *yamlCfg.Engine.StrictRanges
		}

		if yamlCfg.Solver.Tolerance > 0 {
			cfg.Solver.Tolerance = yamlCfg.Solver.Tolerance
		}
		if yamlCfg.Solver.MaxIterations > 0 {
			cfg.Solver.MaxIterations = yamlCfg.Solver.MaxIterations
		}
		if yamlCfg.Solver.InitialGuess > 0 {
			cfg.Solver.InitialGuess = yamlCfg.Solver.InitialGuess
		}

		if yamlCfg.Sweep.Points > 0 {
			cfg.Sweep.Points = yamlCfg.Sweep.Points
		}
		if yamlCfg.Sweep.MaxPoints > 0 {
			cfg.Sweep.MaxPoints = yamlCfg.Sweep.MaxPoints
		}
		if yamlCfg.Display.Decimals != nil {
			cfg.Display.Decimals = *yamlCfg.Display.Decimals
		}
		if yamlCfg.Metrics.SlowThresholdMs > 0 {
			cfg.Metrics.SlowThresholdMs = yamlCfg.Metrics.SlowThresholdMs
		}

		mergeDefaults(&cfg.Defaults, yamlCfg.Defaults)
		if yamlCfg.Ranges != nil {
			cfg.Ranges = *yamlCfg.Ranges
		}
	}

	cfg.normalize()
	return cfg
}

func mergeDefaults(dst *DefaultsConfig, src yamlDefaults) {
	if src.StockPrice > 0 {
		dst.StockPrice = src.StockPrice
	}
	if src.StrikePrice > 0 {
		dst.StrikePrice = src.StrikePrice
	}
	if src.TimeToExpiry > 0 {
		dst.TimeToExpiry = src.TimeToExpiry
	}
	if src.RiskFreeRate != nil {
		dst.RiskFreeRate = *src.RiskFreeRate
	}
	if src.Volatility > 0 {
		dst.Volatility = src.Volatility
	}
	if src.MarketPrice > 0 {
		dst.MarketPrice = src.MarketPrice
	}
	if src.OptionType != "" {
		dst.OptionType = src.OptionType
	}
}

// normalize replaces unusable values with the built-in defaults
func (c *Config) normalize() {
	switch pricer.ExecutionMode(c.Engine.ExecutionMode) {
	case pricer.ExecutionModeAuto, pricer.ExecutionModeParallel, pricer.ExecutionModeSequential:
	default:
		c.Engine.ExecutionMode = string(pricer.ExecutionModeAuto)
	}
	if c.Engine.MaxBatchSize <= 0 {
		c.Engine.MaxBatchSize = 10000
	}
	if c.Solver.Tolerance <= 0 {
		c.Solver.Tolerance = pricer.DefaultTolerance
	}
	if c.Solver.MaxIterations <= 0 {
		c.Solver.MaxIterations = pricer.DefaultMaxIterations
	}
	if c.Solver.InitialGuess <= 0 {
		c.Solver.InitialGuess = pricer.DefaultInitialGuess
	}
	if c.Sweep.Points < 2 {
		c.Sweep.Points = pricer.DefaultSweepPoints
	}
	if c.Sweep.MaxPoints < c.Sweep.Points {
		c.Sweep.MaxPoints = c.Sweep.Points
	}
	if c.Display.Decimals < 0 {
		c.Display.Decimals = 4
	}
	if c.Metrics.SlowThresholdMs <= 0 {
		c.Metrics.SlowThresholdMs = 500
	}
}

// SolverDefaults returns the tolerance, iteration budget and initial guess
// applied to implied volatility requests that omit them
func (c *Config) SolverDefaults() (float64, int, float64) {
	return c.Solver.Tolerance, c.Solver.MaxIterations, c.Solver.InitialGuess
}

// SlowThreshold is the duration above which a calculation is logged as slow
func (c *Config) SlowThreshold() time.Duration {
	return time.Duration(c.Metrics.SlowThresholdMs) * time.Millisecond
}

// NewEngine builds a pricing engine from the engine section
func (c *Config) NewEngine() *pricer.Engine {
	return pricer.NewEngineForced(c.Engine.ExecutionMode).
		WithWorkers(c.Engine.Workers).
		WithParallelThreshold(c.Engine.ParallelThreshold)
}

func loadYAMLConfig(path string) *YAMLConfig {
	data, err := os.ReadFile(path)
	if err != nil {
		// Missing config file - environment defaults apply
		return nil
	}

	var yamlCfg YAMLConfig
	if err := yaml.Unmarshal(data, &yamlCfg); err != nil {
		// Could not parse config file - silently return nil
		return nil
	}

	return &yamlCfg
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}
