package logging

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"testing"

	"github.com/giygas/medicines-web/config"
)

// LoggingService owns the process logger and the file it writes to
type LoggingService struct {
	Logger         *slog.Logger
	rotatingLogger *RotatingLogger
}

// DefaultLoggingService is used by the package-level helpers
var DefaultLoggingService *LoggingService

// Options configures InitLogger
type Options struct {
	LogDir         string // empty means console only
	Env            config.Environment
	Level          string
	RetentionWeeks int
	MaxFileSize    int64
	Verbose        bool // keep info logs on the console in test runs
}

// parseLogLevel maps a LOG_LEVEL value to a slog level, info when unknown
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// GetConsoleLogLevel picks the console level for an environment.
// An explicit level wins everywhere except in tests, which stay quiet unless verbose.
func GetConsoleLogLevel(env config.Environment, level string, verbose bool) slog.Level {
	if env == config.EnvTest {
		if verbose {
			return slog.LevelInfo
		}
		return slog.LevelError
	}

	if level != "" {
		return parseLogLevel(level)
	}

	switch env {
	case config.EnvProduction, config.EnvStaging:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}

// GetFileLogLevel returns the file level: the file always keeps debug records
func GetFileLogLevel() slog.Level {
	return slog.LevelDebug
}

// NewLoggingService builds the console + file logger described by opts.
// When the file cannot be opened it falls back to the console only.
func NewLoggingService(opts Options) *LoggingService {
	consoleHandler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: GetConsoleLogLevel(opts.Env, opts.Level, opts.Verbose),
	})

	if opts.LogDir == "" {
		return &LoggingService{Logger: slog.New(consoleHandler)}
	}

	retention := opts.RetentionWeeks
	if retention <= 0 {
		retention = 4
	}
	maxSize := opts.MaxFileSize
	if maxSize <= 0 {
		maxSize = defaultMaxFileSize
	}

	rotatingLogger := NewRotatingLoggerWithSizeLimit(opts.LogDir, retention, maxSize)
	if err := rotatingLogger.Open(); err != nil {
		logger := slog.New(consoleHandler)
		logger.Error("Failed to initialize rotating logger, logging to console only", "error", err)
		_ = rotatingLogger.Close()
		return &LoggingService{Logger: logger}
	}

	// Console gets text format, file gets JSON format for parsing
	fileHandler := slog.NewJSONHandler(rotatingLogger, &slog.HandlerOptions{
		Level: GetFileLogLevel(),
	})

	return &LoggingService{
		Logger: slog.New(&multiHandler{
			handlers: []slog.Handler{consoleHandler, fileHandler},
		}),
		rotatingLogger: rotatingLogger,
	}
}

// Close flushes and closes the log file, if any
func (s *LoggingService) Close() error {
	if s == nil || s.rotatingLogger == nil {
		return nil
	}
	return s.rotatingLogger.Close()
}

// InitLogger initializes the global logger instance
func InitLogger(opts Options) {
	if DefaultLoggingService != nil {
		if err := DefaultLoggingService.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "failed to close previous logger: %v\n", err)
		}
	}

	DefaultLoggingService = NewLoggingService(opts)
	slog.SetDefault(DefaultLoggingService.Logger)
}

// ResetForTest installs a fresh global logger and closes it when the test ends
func ResetForTest(t testing.TB, logDir string, env config.Environment, level string, retentionWeeks int, maxFileSize int64) {
	t.Helper()

	InitLogger(Options{
		LogDir:         logDir,
		Env:            env,
		Level:          level,
		RetentionWeeks: retentionWeeks,
		MaxFileSize:    maxFileSize,
	})

	t.Cleanup(func() {
		_ = DefaultLoggingService.Close()
		DefaultLoggingService = nil
	})
}

// Package-level functions for direct access

// Logger returns the active logger, slog.Default() before InitLogger
func Logger() *slog.Logger {
	if DefaultLoggingService == nil || DefaultLoggingService.Logger == nil {
		return slog.Default()
	}
	return DefaultLoggingService.Logger
}

func Info(msg string, args ...any) {
	Logger().Info(msg, args...)
}

func Error(msg string, args ...any) {
	Logger().Error(msg, args...)
}

func Warn(msg string, args ...any) {
	Logger().Warn(msg, args...)
}

func Debug(msg string, args ...any) {
	Logger().Debug(msg, args...)
}
