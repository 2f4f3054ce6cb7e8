// Package logging holds the process-wide zap logger.
// Core packages take an injected *zap.Logger; commands and servers derive
// theirs from here with Named.
package logging

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// Logger is replaced by Initialize; it is never nil
	Logger *zap.Logger

	level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
)

// Config selects level, encoding and destination
type Config struct {
	// Level is one of debug, info, warn, error
	Level string `json:"level"`

	// Format is json or console
	Format string `json:"format"`

	// Output is stdout, stderr or a file path (appended to)
	Output string `json:"output"`

	// Development adds stack traces to error logs
	Development bool `json:"development"`
}

// DefaultConfig logs warnings and above to stderr so stdout stays clean for results
func DefaultConfig() Config {
	return Config{
		Level:  "warn",
		Format: "console",
		Output: "stderr",
	}
}

// Build constructs a logger from cfg without touching the global one
func Build(cfg Config) (*zap.Logger, error) {
	lvl, err := parseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	return build(cfg, zap.NewAtomicLevelAt(lvl))
}

func build(cfg Config, lvl zap.AtomicLevel) (*zap.Logger, error) {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "timestamp"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	var encoder zapcore.Encoder
	switch cfg.Format {
	case "console":
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	case "", "json":
		encoder = zapcore.NewJSONEncoder(encoderConfig)
	default:
		return nil, fmt.Errorf("unknown log format %q", cfg.Format)
	}

	var sink zapcore.WriteSyncer
	switch cfg.Output {
	case "", "stderr":
		sink = zapcore.Lock(os.Stderr)
	case "stdout":
		sink = zapcore.Lock(os.Stdout)
	default:
		file, err := os.OpenFile(cfg.Output, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			return nil, fmt.Errorf("open log output: %w", err)
		}
		sink = zapcore.AddSync(file)
	}

	opts := []zap.Option{zap.AddCaller()}
	if cfg.Development {
		opts = append(opts, zap.Development(), zap.AddStacktrace(zapcore.ErrorLevel))
	}
	return zap.New(zapcore.NewCore(encoder, sink, lvl), opts...), nil
}

// parseLevel treats an empty level as warn
func parseLevel(s string) (zapcore.Level, error) {
	if s == "" {
		return zapcore.WarnLevel, nil
	}
	lvl, err := zapcore.ParseLevel(s)
	if err != nil {
		return lvl, fmt.Errorf("log level: %w", err)
	}
	return lvl, nil
}

// Initialize replaces the global logger. On error the previous logger stays.
func Initialize(cfg Config) error {
	lvl, err := parseLevel(cfg.Level)
	if err != nil {
		return err
	}
	logger, err := build(cfg, level)
	if err != nil {
		return err
	}
	level.SetLevel(lvl)
	Logger = logger
	return nil
}

// SetLevel changes the level of the global logger and every logger derived
// from it, including ones already handed out by Named.
func SetLevel(s string) error {
	lvl, err := parseLevel(s)
	if err != nil {
		return err
	}
	level.SetLevel(lvl)
	return nil
}

// Enabled reports whether the global logger writes at lvl
func Enabled(lvl zapcore.Level) bool {
	return level.Enabled(lvl)
}

// Named returns a child of the global logger for one subsystem
func Named(component string) *zap.Logger {
	return Logger.Named(component)
}

func Sync() {
	if Logger != nil {
		_ = Logger.Sync()
	}
}

// With returns a child of the global logger carrying fields
func With(fields ...zap.Field) *zap.Logger {
	return Logger.With(fields...)
}

func Debug(msg string, fields ...zap.Field) { Logger.Debug(msg, fields...) }

func Info(msg string, fields ...zap.Field) { Logger.Info(msg, fields...) }

func Warn(msg string, fields ...zap.Field) { Logger.Warn(msg, fields...) }

func Error(msg string, fields ...zap.Field) { Logger.Error(msg, fields...) }

func init() {
	_ = Initialize(DefaultConfig())
}
