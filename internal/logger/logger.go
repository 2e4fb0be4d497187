package logger

import (
	"io"
	"log"
	"os"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	Info    *log.Logger
	Warn    *log.Logger
	Debug   *log.Logger
	Verbose *log.Logger
	Error   *log.Logger
	Always  *log.Logger // Always logs to file regardless of log level

	// Current log level for filtering
	currentLogLevel string

	// Active rotating file, closed on re-init
	rotator *lumberjack.Logger
)

// Loggers are usable before Init; library code and tests log nowhere by default
func init() {
	setWriters("info", io.Discard, io.Discard)
}

// Rotation controls lumberjack file rotation
type Rotation struct {
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

func Init() error {
	return InitWithLevel("info")
}

func InitWithLevel(logLevel string) error {
	return InitWithConfig(logLevel, "optpricer.log")
}

func InitWithConfig(logLevel, logFilePath string) error {
	return InitWithRotation(logLevel, logFilePath, Rotation{MaxSizeMB: 10, MaxBackups: 3, MaxAgeDays: 28})
}

// InitWithRotation logs to a size-rotated file; errors additionally go to stderr
func InitWithRotation(logLevel, logFilePath string, rot Rotation) error {
	// Probe the path so a bad location fails at startup instead of on first write
	f, err := os.OpenFile(logFilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		return err
	}
	f.Close()

	if rotator != nil {
		rotator.Close()
	}
	rotator = &lumberjack.Logger{
		Filename:   logFilePath,
		MaxSize:    rot.MaxSizeMB,
		MaxBackups: rot.MaxBackups,
		MaxAge:     rot.MaxAgeDays,
	}

	setWriters(logLevel, rotator, io.MultiWriter(os.Stderr, rotator))
	return nil
}

// InitWithWriter sends every enabled level to w
func InitWithWriter(logLevel string, w io.Writer) {
	setWriters(logLevel, w, w)
}

// Close flushes and releases the rotating log file
func Close() error {
	if rotator == nil {
		return nil
	}
	err := rotator.Close()
	rotator = nil
	return err
}

// Level returns the active log level
func Level() string {
	return currentLogLevel
}

func setWriters(logLevel string, out, errOut io.Writer) {
	currentLogLevel = strings.ToLower(strings.TrimSpace(logLevel))

	// Create null writer for disabled log levels
	nullWriter := io.Discard

	Info = log.New(getWriter("info", out, nullWriter), "ℹ️  INFO: ", log.Ldate|log.Ltime)
	Warn = log.New(getWriter("warn", out, nullWriter), "⚠️  WARN: ", log.Ldate|log.Ltime|log.Lshortfile)
	Debug = log.New(getWriter("debug", out, nullWriter), "🐛 DEBUG: ", log.Ldate|log.Ltime|log.Lshortfile)
	Verbose = log.New(getWriter("verbose", out, nullWriter), "🔍 VERBOSE: ", log.Ldate|log.Ltime|log.Lshortfile)
	Error = log.New(errOut, "❌ ERROR: ", log.Ldate|log.Ltime|log.Lshortfile)
	Always = log.New(out, "📝 ALWAYS: ", log.Ldate|log.Ltime) // bypasses level filtering
}

// getWriter returns the appropriate writer based on log level
func getWriter(level string, activeWriter, disabledWriter io.Writer) io.Writer {
	if shouldLog(level) {
		return activeWriter
	}
	return disabledWriter
}

// shouldLog determines if a log level should be active
func shouldLog(level string) bool {
	levels := map[string]int{
		"error":   0,
		"warn":    1,
		"info":    2,
		"debug":   3,
		"verbose": 4,
	}

	currentLevel, exists := levels[currentLogLevel]
	if !exists {
		currentLevel = 2 // default to info
	}

	requiredLevel, exists := levels[level]
	if !exists {
		return false
	}

	return currentLevel >= requiredLevel
}
