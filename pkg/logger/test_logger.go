package logger

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
)

// LogMessage represents a captured log message
type LogMessage struct {
	Level   string
	Message string
	Fields  map[string]interface{}
	Error   string
}

// TestLogger captures log messages in memory for assertions
type TestLogger struct {
	mu       *sync.Mutex
	messages *[]LogMessage
	fields   map[string]interface{}
}

// NewTestLogger creates a new test logger
func NewTestLogger() *TestLogger {
	return &TestLogger{
		mu:       &sync.Mutex{},
		messages: &[]LogMessage{},
		fields:   map[string]interface{}{},
	}
}

func (l *TestLogger) Debug(msg string) { l.log("DEBUG", msg, nil) }
func (l *TestLogger) Info(msg string)  { l.log("INFO", msg, nil) }
func (l *TestLogger) Warn(msg string)  { l.log("WARN", msg, nil) }
func (l *TestLogger) Error(msg string) { l.log("ERROR", msg, nil) }
func (l *TestLogger) Fatal(msg string) { l.log("FATAL", msg, nil) }

func (l *TestLogger) DebugWithFields(msg string, fields map[string]interface{}) {
	l.log("DEBUG", msg, fields)
}

func (l *TestLogger) InfoWithFields(msg string, fields map[string]interface{}) {
	l.log("INFO", msg, fields)
}

func (l *TestLogger) WarnWithFields(msg string, fields map[string]interface{}) {
	l.log("WARN", msg, fields)
}

func (l *TestLogger) ErrorWithFields(msg string, fields map[string]interface{}) {
	l.log("ERROR", msg, fields)
}

// WithField returns a child sharing the same message buffer
func (l *TestLogger) WithField(key string, value interface{}) Logger {
	return l.WithFields(map[string]interface{}{key: value})
}

func (l *TestLogger) WithFields(fields map[string]interface{}) Logger {
	merged := make(map[string]interface{}, len(l.fields)+len(fields))
	for k, v := range l.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	return &TestLogger{mu: l.mu, messages: l.messages, fields: merged}
}

func (l *TestLogger) WithError(err error) Logger {
	if err == nil {
		return l
	}
	return l.WithField("error", err.Error())
}

func (l *TestLogger) WithContext(ctx context.Context) Logger { return l }

func (l *TestLogger) GetZerolog() *zerolog.Logger {
	nop := zerolog.Nop()
	return &nop
}

func (l *TestLogger) log(level, msg string, fields map[string]interface{}) {
	all := make(map[string]interface{}, len(l.fields)+len(fields))
	for k, v := range l.fields {
		all[k] = v
	}
	for k, v := range fields {
		all[k] = v
	}
	errMsg, _ := all["error"].(string)

	l.mu.Lock()
	defer l.mu.Unlock()
	*l.messages = append(*l.messages, LogMessage{Level: level, Message: msg, Fields: all, Error: errMsg})
}

// GetMessages returns a copy of all captured messages
func (l *TestLogger) GetMessages() []LogMessage {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]LogMessage, len(*l.messages))
	copy(out, *l.messages)
	return out
}

// GetMessagesByLevel returns all messages of a specific level
func (l *TestLogger) GetMessagesByLevel(level string) []LogMessage {
	var filtered []LogMessage
	for _, msg := range l.GetMessages() {
		if msg.Level == level {
			filtered = append(filtered, msg)
		}
	}
	return filtered
}

// HasMessage checks if a message with the given text was logged
func (l *TestLogger) HasMessage(text string) bool {
	for _, msg := range l.GetMessages() {
		if msg.Message == text {
			return true
		}
	}
	return false
}

// HasError checks if an error was logged
func (l *TestLogger) HasError() bool {
	return len(l.GetMessagesByLevel("ERROR")) > 0
}

// Clear drops all captured messages
func (l *TestLogger) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	*l.messages = (*l.messages)[:0]
}
