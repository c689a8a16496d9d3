package logger

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// LogRequest logs one served HTTP request
func LogRequest(l Logger, method, path string, statusCode int, duration time.Duration) {
	fields := map[string]interface{}{
		"method":      method,
		"path":        path,
		"status_code": statusCode,
		"duration":    duration,
	}

	switch {
	case statusCode >= 500:
		l.ErrorWithFields("HTTP request server error", fields)
	case statusCode >= 400:
		l.WarnWithFields("HTTP request client error", fields)
	default:
		l.DebugWithFields("HTTP request completed", fields)
	}
}

// LogComponentStart logs when a component starts
func LogComponentStart(component string, config map[string]interface{}) {
	l := GetLogger().WithField("component", component)
	if len(config) > 0 {
		l = l.WithFields(config)
	}
	l.Info("Component started")
}

// LogComponentStop logs when a component stops
func LogComponentStop(component string, reason string) {
	GetLogger().WithFields(map[string]interface{}{
		"component": component,
		"reason":    reason,
	}).Info("Component stopped")
}

// LogMetrics logs counters for a finished operation
func LogMetrics(operation string, metrics map[string]interface{}) {
	fields := map[string]interface{}{
		"operation": operation,
		"type":      "metrics",
	}
	for k, v := range metrics {
		fields[k] = v
	}
	GetLogger().InfoWithFields("Operation metrics", fields)
}

// NewNopLogger creates a logger that discards everything
func NewNopLogger() Logger {
	return &nopLogger{}
}

type nopLogger struct{}

func (n *nopLogger) Debug(msg string)                                          {}
func (n *nopLogger) Info(msg string)                                           {}
func (n *nopLogger) Warn(msg string)                                           {}
func (n *nopLogger) Error(msg string)                                          {}
func (n *nopLogger) Fatal(msg string)                                          {}
func (n *nopLogger) WithField(key string, value interface{}) Logger            { return n }
func (n *nopLogger) WithFields(fields map[string]interface{}) Logger           { return n }
func (n *nopLogger) WithError(err error) Logger                                { return n }
func (n *nopLogger) WithContext(ctx context.Context) Logger                    { return n }
func (n *nopLogger) DebugWithFields(msg string, fields map[string]interface{}) {}
func (n *nopLogger) InfoWithFields(msg string, fields map[string]interface{})  {}
func (n *nopLogger) WarnWithFields(msg string, fields map[string]interface{})  {}
func (n *nopLogger) ErrorWithFields(msg string, fields map[string]interface{}) {}
func (n *nopLogger) GetZerolog() *zerolog.Logger {
	nop := zerolog.Nop()
	return &nop
}
