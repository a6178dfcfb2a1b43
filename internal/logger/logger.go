package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// VerboseChecker reports whether debug output is enabled
type VerboseChecker interface {
	IsVerbose() bool
}

// Logger writes component-scoped log lines. Debug and Info are only written
// when the verbose checker says so; Warn and Error are always written.
type Logger struct {
	component      string
	verboseChecker VerboseChecker
	fields         []Field

	mu     *sync.Mutex
	writer io.Writer
}

// Field represents a key-value pair for structured logging
type Field struct {
	Key   string
	Value interface{}
}

// New creates a new logger instance
func New(component string, verboseChecker VerboseChecker) *Logger {
	return &Logger{
		component:      component,
		verboseChecker: verboseChecker,
		mu:             &sync.Mutex{},
		writer:         os.Stderr,
	}
}

// NewWithCallback creates a logger whose verbosity is decided by verboseCheck
func NewWithCallback(component string, verboseCheck func() bool) *Logger {
	return New(component, &callbackChecker{callback: verboseCheck})
}

// Nop returns a logger that discards everything
func Nop() *Logger {
	l := New("nop", nil)
	l.writer = io.Discard
	return l
}

// WithComponent returns a logger sharing output and fields under another component name
func (l *Logger) WithComponent(component string) *Logger {
	clone := l.clone()
	clone.component = component
	return clone
}

// With returns a logger that appends fields to every line
func (l *Logger) With(fields ...Field) *Logger {
	clone := l.clone()
	clone.fields = append(clone.fields, fields...)
	return clone
}

// SetOutput redirects log lines, mainly for tests and the TUI
func (l *Logger) SetOutput(w io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.writer = w
}

func (l *Logger) clone() *Logger {
	fields := make([]Field, len(l.fields))
	copy(fields, l.fields)
	return &Logger{
		component:      l.component,
		verboseChecker: l.verboseChecker,
		fields:         fields,
		mu:             l.mu,
		writer:         l.writer,
	}
}

type callbackChecker struct {
	callback func() bool
}

func (c *callbackChecker) IsVerbose() bool {
	if c.callback == nil {
		return false
	}
	return c.callback()
}

func (l *Logger) verbose() bool {
	return l.verboseChecker != nil && l.verboseChecker.IsVerbose()
}

// Debug logs debug messages (only when verbose=true)
func (l *Logger) Debug(msg string, args ...interface{}) {
	if l.verbose() {
		l.write("DEBUG", msg, nil, args...)
	}
}

// Info logs informational messages (only when verbose=true)
func (l *Logger) Info(msg string, args ...interface{}) {
	if l.verbose() {
		l.write("INFO", msg, nil, args...)
	}
}

// Warn logs warning messages (always shown)
func (l *Logger) Warn(msg string, args ...interface{}) {
	l.write("WARN", msg, nil, args...)
}

// Error logs error messages (always shown)
func (l *Logger) Error(msg string, args ...interface{}) {
	l.write("ERROR", msg, nil, args...)
}

// DebugWithFields logs debug message with structured fields
func (l *Logger) DebugWithFields(msg string, fields []Field, args ...interface{}) {
	if l.verbose() {
		l.write("DEBUG", msg, fields, args...)
	}
}

// InfoWithFields logs info message with structured fields
func (l *Logger) InfoWithFields(msg string, fields []Field, args ...interface{}) {
	if l.verbose() {
		l.write("INFO", msg, fields, args...)
	}
}

// WarnWithFields logs a warning with structured fields
func (l *Logger) WarnWithFields(msg string, fields []Field, args ...interface{}) {
	l.write("WARN", msg, fields, args...)
}

func (l *Logger) write(level, msg string, fields []Field, args ...interface{}) {
	timestamp := time.Now().Format("15:04:05.000")
	component := l.component
	if component == "" {
		component = "main"
	}

	formattedMsg := msg
	if len(args) > 0 {
		formattedMsg = fmt.Sprintf(msg, args...)
	}

	all := make([]Field, 0, len(l.fields)+len(fields))
	all = append(all, l.fields...)
	all = append(all, fields...)

	var fieldsStr string
	if len(all) > 0 {
		parts := make([]string, 0, len(all))
		for _, field := range all {
			parts = append(parts, fmt.Sprintf("%s=%v", field.Key, field.Value))
		}
		fieldsStr = " [" + strings.Join(parts, " ") + "]"
	}

	line := fmt.Sprintf("[%s] %s [%s] %s%s\n", timestamp, level, component, formattedMsg, fieldsStr)

	l.mu.Lock()
	defer l.mu.Unlock()
	// Nothing sensible to do if the log sink itself fails.
	_, _ = io.WriteString(l.writer, line)
}

// F builds an arbitrary field
func F(key string, value interface{}) Field {
	return Field{Key: key, Value: value}
}

func Count(value int) Field {
	return Field{Key: "count", Value: value}
}

func Duration(d time.Duration) Field {
	return Field{Key: "duration", Value: d}
}

func Error(err error) Field {
	return Field{Key: "error", Value: err}
}

// File names the uploaded spreadsheet
func File(name string) Field {
	return Field{Key: "file", Value: name}
}

// State names a workflow state
func State(s fmt.Stringer) Field {
	return Field{Key: "state", Value: s.String()}
}

// Status is an HTTP status code
func Status(code int) Field {
	return Field{Key: "status", Value: code}
}

func RequestID(id string) Field {
	return Field{Key: "request_id", Value: id}
}

func Attempt(n int) Field {
	return Field{Key: "attempt", Value: n}
}
