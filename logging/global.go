// Package logging sets up the process-wide slog logger: text on the console,
// JSON in weekly rotating files.
package logging

import (
	"log/slog"
	"os"
	"strings"

	"github.com/giygas/hwi-pipeline/config"
)

type LoggingService struct {
	Logger *slog.Logger
	file   *RotatingLogger
}

var DefaultLoggingService *LoggingService

type Options struct {
	Dir            string
	RetentionWeeks int
	MaxFileSize    int64
	Env            config.Environment
	Level          string
	Verbose        bool
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToLower(s) {
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

// GetConsoleLogLevel picks the console level. Tests stay quiet unless verbose,
// and an explicit level overrides the environment default elsewhere.
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

// GetFileLogLevel is always debug so the files keep the full trail.
func GetFileLogLevel() slog.Level {
	return slog.LevelDebug
}

// InitLogger installs the global logger. When the log directory is unusable
// it falls back to the console alone and returns the error.
func InitLogger(opts Options) error {
	console := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: GetConsoleLogLevel(opts.Env, opts.Level, opts.Verbose),
	})

	service := &LoggingService{}
	var openErr error

	if opts.Dir != "" {
		file := NewRotatingLogger(opts.Dir, opts.RetentionWeeks, opts.MaxFileSize)
		if openErr = file.Open(); openErr == nil {
			service.file = file
		}
	}

	if service.file != nil {
		service.Logger = slog.New(&multiHandler{handlers: []slog.Handler{
			console,
			slog.NewJSONHandler(service.file, &slog.HandlerOptions{Level: GetFileLogLevel()}),
		}})
	} else {
		service.Logger = slog.New(console)
	}

	if previous := DefaultLoggingService; previous != nil {
		_ = previous.Close()
	}
	DefaultLoggingService = service
	slog.SetDefault(service.Logger)

	if openErr != nil {
		service.Logger.Error("Failed to open log directory, logging to console only", "dir", opts.Dir, "error", openErr)
	}
	return openErr
}

// Close releases the log file, if any.
func (s *LoggingService) Close() error {
	if s == nil || s.file == nil {
		return nil
	}
	return s.file.Close()
}

// Close flushes and closes the global logger's file.
func Close() error {
	return DefaultLoggingService.Close()
}

var fallback = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))

func logger() *slog.Logger {
	if DefaultLoggingService == nil || DefaultLoggingService.Logger == nil {
		return fallback
	}
	return DefaultLoggingService.Logger
}

// Package-level functions for direct access

func Info(msg string, args ...any) {
	logger().Info(msg, args...)
}

func Error(msg string, args ...any) {
	logger().Error(msg, args...)
}

func Warn(msg string, args ...any) {
	logger().Warn(msg, args...)
}

func Debug(msg string, args ...any) {
	logger().Debug(msg, args...)
}

// Logger returns the global logger, or a stderr fallback before InitLogger.
func Logger() *slog.Logger {
	return logger()
}
