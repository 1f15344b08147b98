// Package logger builds the zap loggers used across ShipShape and the
// adapters that route gin and gorm logging through them.
package logger

import (
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Config holds logger configuration
type Config struct {
	Level      string // debug, info, warn, error
	Format     string // json, console
	Output     string // stdout, stderr, or file path
	TimeFormat string // Go time layout
	MaxSizeMB  int    // file output: rotate after this many megabytes
	MaxBackups int    // file output: rotated files to keep
}

// DefaultConfig returns a default configuration suitable for development
func DefaultConfig() *Config {
	return &Config{
		Level:      "info",
		Format:     "console",
		Output:     "stdout",
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
		MaxSizeMB:  100,
		MaxBackups: 5,
	}
}

// ProductionConfig returns a configuration suitable for production
func ProductionConfig() *Config {
	cfg := DefaultConfig()
	cfg.Format = "json"
	return cfg
}

// New creates a new zap logger with the given configuration.
// The returned closer releases the rotated log file, if any.
func New(cfg *Config) (*zap.Logger, io.Closer, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	level := parseLevel(cfg.Level)
	encoder := createEncoder(cfg)
	writer, closer := createWriter(cfg)

	core := zapcore.NewCore(encoder, writer, level)
	logger := zap.New(core,
		zap.AddCaller(),
		zap.AddStacktrace(zapcore.ErrorLevel),
	)

	return logger, closer, nil
}

// ConfigForEnvironment returns the base configuration for the given environment
func ConfigForEnvironment(env string) *Config {
	if env == "production" {
		return ProductionConfig()
	}
	return DefaultConfig()
}

// parseLevel converts a string level to zapcore.Level
func parseLevel(level string) zapcore.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// createEncoder creates the appropriate encoder based on format
func createEncoder(cfg *Config) zapcore.Encoder {
	timeFormat := cfg.TimeFormat
	if timeFormat == "" {
		timeFormat = DefaultConfig().TimeFormat
	}
	encoderConfig := zapcore.EncoderConfig{
		TimeKey:        "time",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		FunctionKey:    zapcore.OmitKey,
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.TimeEncoderOfLayout(timeFormat),
		EncodeDuration: zapcore.MillisDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}

	if cfg.Format == "console" {
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		return zapcore.NewConsoleEncoder(encoderConfig)
	}

	return zapcore.NewJSONEncoder(encoderConfig)
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// createWriter creates the appropriate writer based on output. Any value other
// than stdout or stderr is a file path, rotated by lumberjack.
func createWriter(cfg *Config) (zapcore.WriteSyncer, io.Closer) {
	switch strings.ToLower(cfg.Output) {
	case "", "stdout":
		return zapcore.AddSync(os.Stdout), nopCloser{}
	case "stderr":
		return zapcore.AddSync(os.Stderr), nopCloser{}
	default:
		rotator := &lumberjack.Logger{
			Filename:   cfg.Output,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
		}
		return zapcore.AddSync(rotator), rotator
	}
}

// Named creates a named logger
func Named(logger *zap.Logger, name string) *zap.Logger {
	return logger.Named(name)
}

// Sync flushes any buffered log entries
func Sync(logger *zap.Logger) error {
	return logger.Sync()
}
