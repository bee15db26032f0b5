// Package logger builds the zap loggers used across variantforge.
package logger

import (
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Standard field names for structured logging. Use these instead of raw
// strings so log queries stay consistent.
const (
	FieldComponent   = "component"
	FieldSurface     = "surface"
	FieldRun         = "run_id"
	FieldCombination = "combination"
	FieldIndex       = "index"
	FieldNested      = "nested"
	FieldNestedIndex = "nested_index"
	FieldCount       = "count"
	FieldPlaced      = "placed"
	FieldFailed      = "failed"
	FieldCode        = "code"
	FieldX           = "x"
	FieldY           = "y"
	FieldInstance    = "instance"
	FieldFile        = "file"
	FieldAddress     = "address"
	FieldMessage     = "message_type"
)

// Options controls logger construction.
type Options struct {
	// JSON selects machine-readable output.
	JSON bool
	// Verbose lowers the level from Info to Debug.
	Verbose bool
	// Output receives log lines. Defaults to stderr.
	Output io.Writer
}

// New builds a logger from options.
func New(opts Options) *zap.Logger {
	level := zap.InfoLevel
	if opts.Verbose {
		level = zap.DebugLevel
	}
	out := opts.Output
	if out == nil {
		out = os.Stderr
	}

	var enc zapcore.Encoder
	if opts.JSON {
		cfg := zap.NewProductionEncoderConfig()
		cfg.EncodeTime = zapcore.ISO8601TimeEncoder
		enc = zapcore.NewJSONEncoder(cfg)
	} else {
		cfg := zap.NewDevelopmentEncoderConfig()
		cfg.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		cfg.EncodeCaller = nil
		enc = zapcore.NewConsoleEncoder(cfg)
	}

	core := zapcore.NewCore(enc, zapcore.AddSync(out), level)
	return zap.New(core)
}

// OrNop returns l, or a no-op logger when l is nil.
func OrNop(l *zap.Logger) *zap.Logger {
	if l == nil {
		return zap.NewNop()
	}
	return l
}
