// Package logging provides the structured logging interface for replytune.
// It wraps zap with JSON/console encoding, optional file rotation, and
// run/request identifiers lifted from the context.
package logging

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// ============================================================================
// Logger Interface
// ============================================================================

// Logger defines the unified logging interface
type Logger interface {
	// Debug logs a debug message
	Debug(msg string, fields ...Field)

	// Info logs an info message
	Info(msg string, fields ...Field)

	// Warn logs a warning message
	Warn(msg string, fields ...Field)

	// Error logs an error message
	Error(msg string, fields ...Field)

	// Fatal logs a fatal message and exits
	Fatal(msg string, fields ...Field)

	// With adds fields to logger context
	With(fields ...Field) Logger

	// WithContext adds run, request and trace IDs from context
	WithContext(ctx context.Context) Logger

	// Sync flushes any buffered log entries
	Sync() error
}

// Field represents a log field
type Field = zapcore.Field

// ============================================================================
// ZapLogger Implementation
// ============================================================================

// ZapLogger wraps zap.Logger to implement Logger interface
type ZapLogger struct {
	logger *zap.Logger
	level  zap.AtomicLevel
}

// NewZapLogger creates a logger from cfg. File output is rotated with lumberjack.
func NewZapLogger(cfg LogConfig) (*ZapLogger, error) {
	level := zap.NewAtomicLevelAt(parseLogLevel(cfg.Level))

	sink, err := buildSink(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to build log sink: %w", err)
	}

	core := zapcore.NewCore(buildEncoder(cfg), sink, level)

	opts := []zap.Option{zap.AddStacktrace(zapcore.ErrorLevel)}
	if cfg.EnableCaller {
		opts = append(opts, zap.AddCaller(), zap.AddCallerSkip(1))
	}
	if cfg.Development {
		opts = append(opts, zap.Development())
	}

	return &ZapLogger{logger: zap.New(core, opts...), level: level}, nil
}

// NewWriterLogger creates a JSON logger writing to w. Used by tests that
// assert on emitted entries.
func NewWriterLogger(w io.Writer, level string) *ZapLogger {
	atomic := zap.NewAtomicLevelAt(parseLogLevel(level))
	core := zapcore.NewCore(buildEncoder(LogConfig{Format: "json"}), zapcore.AddSync(w), atomic)
	return &ZapLogger{logger: zap.New(core), level: atomic}
}

// Debug logs a debug message
func (l *ZapLogger) Debug(msg string, fields ...Field) {
	l.logger.Debug(msg, fields...)
}

// Info logs an info message
func (l *ZapLogger) Info(msg string, fields ...Field) {
	l.logger.Info(msg, fields...)
}

// Warn logs a warning message
func (l *ZapLogger) Warn(msg string, fields ...Field) {
	l.logger.Warn(msg, fields...)
}

// Error logs an error message
func (l *ZapLogger) Error(msg string, fields ...Field) {
	l.logger.Error(msg, fields...)
}

// Fatal logs a fatal message and exits
func (l *ZapLogger) Fatal(msg string, fields ...Field) {
	l.logger.Fatal(msg, fields...)
}

// With adds fields to logger context
func (l *ZapLogger) With(fields ...Field) Logger {
	return &ZapLogger{logger: l.logger.With(fields...), level: l.level}
}

// WithContext adds run, request and trace IDs from context
func (l *ZapLogger) WithContext(ctx context.Context) Logger {
	fields := extractContextFields(ctx)
	if len(fields) == 0 {
		return l
	}
	return l.With(fields...)
}

// SetLevel changes the level of this logger and every logger derived from it
func (l *ZapLogger) SetLevel(level string) {
	l.level.SetLevel(parseLogLevel(level))
}

// Sync flushes any buffered log entries
func (l *ZapLogger) Sync() error {
	return l.logger.Sync()
}

// ============================================================================
// Configuration
// ============================================================================

// LogConfig defines logging configuration
type LogConfig struct {
	// Log level (debug, info, warn, error, fatal)
	Level string

	// Log format (json, console)
	Format string

	// Output (stdout, stderr, file)
	Output string

	// File path (if output is file)
	FilePath string

	// Max file size in MB
	MaxSize int

	// Max backup files
	MaxBackups int

	// Max age in days
	MaxAge int

	// Enable compression of rotated files
	Compress bool

	// Enable development mode
	Development bool

	// Enable caller info
	EnableCaller bool
}

func buildSink(cfg LogConfig) (zapcore.WriteSyncer, error) {
	switch cfg.Output {
	case "", "stdout":
		return zapcore.Lock(os.Stdout), nil
	case "stderr":
		return zapcore.Lock(os.Stderr), nil
	case "file":
		if cfg.FilePath == "" {
			return nil, fmt.Errorf("file output requires a file path")
		}
		return zapcore.AddSync(&lumberjack.Logger{
			Filename:   cfg.FilePath,
			MaxSize:    cfg.MaxSize, // megabytes
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAge, // days
			Compress:   cfg.Compress,
		}), nil
	default:
		return nil, fmt.Errorf("unsupported log output: %s", cfg.Output)
	}
}

// buildEncoder builds zapcore encoder
func buildEncoder(cfg LogConfig) zapcore.Encoder {
	encoderConfig := zapcore.EncoderConfig{
		TimeKey:        "timestamp",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		FunctionKey:    zapcore.OmitKey,
		MessageKey:     "message",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.SecondsDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}

	if cfg.Development {
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		encoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05.000")
	}

	if cfg.Format == "console" {
		return zapcore.NewConsoleEncoder(encoderConfig)
	}
	return zapcore.NewJSONEncoder(encoderConfig)
}

// parseLogLevel parses string log level to zapcore.Level
func parseLogLevel(level string) zapcore.Level {
	switch level {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	case "fatal":
		return zapcore.FatalLevel
	default:
		return zapcore.InfoLevel
	}
}

// ============================================================================
// Context Integration
// ============================================================================

type contextKey string

const (
	traceIDKey   contextKey = "trace_id"
	requestIDKey contextKey = "request_id"
	runIDKey     contextKey = "run_id"
)

// WithTraceID adds trace ID to context
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, traceIDKey, traceID)
}

// WithRequestID adds request ID to context
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// WithRunID adds the training run ID to context
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, runIDKey, runID)
}

// GetTraceID retrieves trace ID from context
func GetTraceID(ctx context.Context) string {
	traceID, _ := ctx.Value(traceIDKey).(string)
	return traceID
}

// GetRequestID retrieves request ID from context
func GetRequestID(ctx context.Context) string {
	requestID, _ := ctx.Value(requestIDKey).(string)
	return requestID
}

// GetRunID retrieves the training run ID from context
func GetRunID(ctx context.Context) string {
	runID, _ := ctx.Value(runIDKey).(string)
	return runID
}

func extractContextFields(ctx context.Context) []Field {
	if ctx == nil {
		return nil
	}

	var fields []Field
	if traceID := GetTraceID(ctx); traceID != "" {
		fields = append(fields, zap.String("trace_id", traceID))
	}
	if requestID := GetRequestID(ctx); requestID != "" {
		fields = append(fields, zap.String("request_id", requestID))
	}
	if runID := GetRunID(ctx); runID != "" {
		fields = append(fields, zap.String("run_id", runID))
	}
	return fields
}

// ============================================================================
// Field Constructors
// ============================================================================

// String creates a string field
func String(key, val string) Field {
	return zap.String(key, val)
}

// Int creates an int field
func Int(key string, val int) Field {
	return zap.Int(key, val)
}

// Int64 creates an int64 field
func Int64(key string, val int64) Field {
	return zap.Int64(key, val)
}

// Float64 creates a float64 field
func Float64(key string, val float64) Field {
	return zap.Float64(key, val)
}

// Bool creates a bool field
func Bool(key string, val bool) Field {
	return zap.Bool(key, val)
}

// Error creates an error field
func Error(err error) Field {
	return zap.Error(err)
}

// Duration creates a duration field
func Duration(key string, val time.Duration) Field {
	return zap.Duration(key, val)
}

// Any creates a field from any value
func Any(key string, val interface{}) Field {
	return zap.Any(key, val)
}

// Strings creates a string array field
func Strings(key string, val []string) Field {
	return zap.Strings(key, val)
}

// ============================================================================
// No-op Logger
// ============================================================================

// NoopLogger is a logger that does nothing
type NoopLogger struct{}

// NewNoopLogger creates a no-op logger
func NewNoopLogger() Logger {
	return &NoopLogger{}
}

func (l *NoopLogger) Debug(msg string, fields ...Field)      {}
func (l *NoopLogger) Info(msg string, fields ...Field)       {}
func (l *NoopLogger) Warn(msg string, fields ...Field)       {}
func (l *NoopLogger) Error(msg string, fields ...Field)      {}
func (l *NoopLogger) Fatal(msg string, fields ...Field)      { os.Exit(1) }
func (l *NoopLogger) With(fields ...Field) Logger            { return l }
func (l *NoopLogger) WithContext(ctx context.Context) Logger { return l }
func (l *NoopLogger) Sync() error                            { return nil }

//Personal.AI order the ending
