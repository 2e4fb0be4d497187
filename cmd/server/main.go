package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/jwaldner/optpricer/internal/config"
	"github.com/jwaldner/optpricer/internal/handlers"
	"github.com/jwaldner/optpricer/internal/logger"
	"github.com/jwaldner/optpricer/internal/metrics"
)

func main() {
	cfg := config.Load()

	// Initialize proper logging with config level, file path and rotation
	rotation := logger.Rotation{
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
	}
	if err := logger.InitWithRotation(cfg.Logging.LogLevel, cfg.Logging.LogFile, rotation); err != nil {
		log.Fatalf("Failed to initialize logging: %v", err)
	}
	defer logger.Close()
	logger.Always.Printf("🚀 Option pricer starting - Port: %s", cfg.Port)

	if cfg.Logging.LogLevel == "verbose" {
		fmt.Printf("⚠️  VERBOSE LOGGING ENABLED - Every calculation will be logged to %s\n", cfg.Logging.LogFile)
	}

	// Initialize engine based on configuration
	engine := cfg.NewEngine()
	logger.Always.Printf("🔧 EXECUTION MODE: %s (%d workers, parallel from %d items)",
		engine.ExecutionMode(), engine.Workers(), cfg.Engine.ParallelThreshold)
	if cfg.Engine.StrictRanges {
		logger.Always.Printf("📏 STRICT RANGES: inputs outside the configured ranges are rejected")
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	calc := metrics.NewPerformanceWrapper(engine, reg).WithSlowThreshold(cfg.SlowThreshold())
	defer calc.Close()

	// Setup router
	pricingHandler := handlers.NewPricingHandler(calc, cfg)
	r := handlers.NewRouter(pricingHandler, reg)

	srv := &http.Server{
		Addr:              "0.0.0.0:" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start server
	go func() {
		fmt.Printf("🌐 Server starting on http://localhost:%s\n", cfg.Port)
		logger.Always.Printf("🌐 Server starting on http://localhost:%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error.Printf("❌ Server failed: %v", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	logger.Always.Printf("🛑 Shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error.Printf("❌ Shutdown failed: %v", err)
	}
}
