package logger

import (
	"go.uber.org/zap"
)

// Standard field names for structured logging across pbts.
// Use these constants instead of raw strings.
const (
	FieldComponent = "component"
	FieldOperation = "operation"

	// Schema
	FieldFile   = "file"   // schema file path, e.g. "a/b/point.proto"
	FieldNode   = "node"   // fully qualified schema name
	FieldTarget = "target" // reference target name
	FieldCount  = "count"

	// Output
	FieldOutput = "output" // output path relative to the output root
	FieldRoot   = "root"   // output root directory
	FieldSize   = "size"

	// Timing
	FieldDurationMS = "duration_ms"

	// Errors
	FieldError = "error"

	// Inputs
	FieldInput   = "input"
	FieldVersion = "version"
)

// ComponentLogger returns a named logger for a specific component.
//
// Example:
//
//	type Emitter struct {
//	    logger *zap.SugaredLogger
//	}
//
//	func NewEmitter() *Emitter {
//	    return &Emitter{logger: logger.ComponentLogger("typegen.typescript")}
//	}
func ComponentLogger(name string) *zap.SugaredLogger {
	return Logger.Named(name)
}

// ChildLogger creates a child logger with additional context.
//
// Example:
//
//	fileLogger := logger.ChildLogger(baseLogger, logger.FieldFile, file.Path)
func ChildLogger(parent *zap.SugaredLogger, keysAndValues ...interface{}) *zap.SugaredLogger {
	return parent.With(keysAndValues...)
}
