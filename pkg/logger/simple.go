package logger

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"time"
)

// SimpleLogger writes leveled, structured log lines to an io.Writer
type SimpleLogger struct {
	level   LogLevel
	format  Format
	service string
	fields  map[string]interface{}
	out     *syncWriter
	now     func() time.Time
}

type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) writeLine(line []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.w.Write(append(line, '\n'))
}

// Option customizes a SimpleLogger
type Option func(*SimpleLogger)

// WithOutput redirects log output
func WithOutput(w io.Writer) Option {
	return func(l *SimpleLogger) {
		l.out = &syncWriter{w: w}
	}
}

// WithFormat selects text or JSON lines
func WithFormat(f Format) Option {
	return func(l *SimpleLogger) {
		if f == FormatJSON {
			l.format = FormatJSON
		} else {
			l.format = FormatText
		}
	}
}

// WithService stamps every entry with the service name
func WithService(name string) Option {
	return func(l *SimpleLogger) {
		l.service = name
	}
}

// WithClock overrides the timestamp source
func WithClock(now func() time.Time) Option {
	return func(l *SimpleLogger) {
		l.now = now
	}
}

// NewSimpleLogger creates a new simple logger
func NewSimpleLogger(opts ...Option) *SimpleLogger {
	l := &SimpleLogger{
		level:  InfoLevel,
		format: FormatText,
		fields: make(map[string]interface{}),
		out:    &syncWriter{w: os.Stdout},
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// NewFromEnv builds a logger configured from STOREFRONT_LOG_LEVEL and
// STOREFRONT_LOG_FORMAT. Inside Kubernetes the format defaults to JSON.
func NewFromEnv(service string) *SimpleLogger {
	format := FormatText
	if os.Getenv("KUBERNETES_SERVICE_HOST") != "" {
		format = FormatJSON
	}
	if f := os.Getenv("STOREFRONT_LOG_FORMAT"); f != "" {
		format = Format(strings.ToLower(f))
	}

	l := NewSimpleLogger(WithFormat(format), WithService(service))
	l.SetLevel(GetLogLevel())
	return l
}

// NewDefaultLogger creates a new default logger instance
func NewDefaultLogger() Logger {
	return NewSimpleLogger()
}

// Debug logs a debug message
func (l *SimpleLogger) Debug(msg string, fields ...interface{}) {
	if l.level <= DebugLevel {
		l.log(DebugLevel, msg, fields...)
	}
}

// Info logs an info message
func (l *SimpleLogger) Info(msg string, fields ...interface{}) {
	if l.level <= InfoLevel {
		l.log(InfoLevel, msg, fields...)
	}
}

// Warn logs a warning message
func (l *SimpleLogger) Warn(msg string, fields ...interface{}) {
	if l.level <= WarnLevel {
		l.log(WarnLevel, msg, fields...)
	}
}

// Error logs an error message
func (l *SimpleLogger) Error(msg string, fields ...interface{}) {
	if l.level <= ErrorLevel {
		l.log(ErrorLevel, msg, fields...)
	}
}

// SetLevel sets the logging level. Unknown names are ignored.
func (l *SimpleLogger) SetLevel(level string) {
	switch strings.ToUpper(level) {
	case "DEBUG":
		l.level = DebugLevel
	case "INFO":
		l.level = InfoLevel
	case "WARN", "WARNING":
		l.level = WarnLevel
	case "ERROR":
		l.level = ErrorLevel
	}
}

// Level returns the current minimum level
func (l *SimpleLogger) Level() LogLevel {
	return l.level
}

// WithField returns a logger with an additional field
func (l *SimpleLogger) WithField(key string, value interface{}) Logger {
	return l.derive(map[string]interface{}{key: value})
}

// WithFields returns a logger with additional fields
func (l *SimpleLogger) WithFields(fields map[string]interface{}) Logger {
	return l.derive(fields)
}

// With returns a logger with additional fields
func (l *SimpleLogger) With(fields ...Field) Logger {
	extra := make(map[string]interface{}, len(fields))
	for _, f := range fields {
		extra[f.Key] = f.Value
	}
	return l.derive(extra)
}

func (l *SimpleLogger) derive(extra map[string]interface{}) *SimpleLogger {
	newFields := make(map[string]interface{}, len(l.fields)+len(extra))
	for k, v := range l.fields {
		newFields[k] = v
	}
	for k, v := range extra {
		newFields[k] = v
	}

	return &SimpleLogger{
		level:   l.level,
		format:  l.format,
		service: l.service,
		fields:  newFields,
		out:     l.out,
		now:     l.now,
	}
}

// collect merges persistent fields with call-site fields. Call-site fields
// may be key/value pairs, Field values or a map; a trailing key without a
// value is dropped.
func (l *SimpleLogger) collect(args []interface{}) map[string]interface{} {
	merged := make(map[string]interface{}, len(l.fields)+len(args)/2)
	for k, v := range l.fields {
		merged[k] = v
	}

	for i := 0; i < len(args); i++ {
		switch a := args[i].(type) {
		case Field:
			merged[a.Key] = a.Value
		case map[string]interface{}:
			for k, v := range a {
				merged[k] = v
			}
		default:
			if i+1 < len(args) {
				merged[fmt.Sprint(a)] = args[i+1]
				i++
			}
		}
	}

	if err, ok := merged["error"].(error); ok {
		merged["error"] = err.Error()
	}
	return merged
}

// log performs the actual logging
func (l *SimpleLogger) log(level LogLevel, msg string, args ...interface{}) {
	fields := l.collect(args)
	timestamp := l.now().UTC().Format(time.RFC3339)

	if l.format == FormatJSON {
		entry := map[string]interface{}{}
		for k, v := range fields {
			entry[k] = v
		}
		entry["timestamp"] = timestamp
		entry["level"] = level.String()
		entry["message"] = msg
		if l.service != "" {
			entry["service"] = l.service
		}
		data, err := json.Marshal(entry)
		if err != nil {
			data = []byte(fmt.Sprintf(`{"level":"ERROR","message":"unencodable log entry: %s"}`, err))
		}
		l.out.writeLine(data)
		return
	}

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	fmt.Fprintf(&b, "%s [%s]", timestamp, level)
	if l.service != "" {
		fmt.Fprintf(&b, " [%s]", l.service)
	}
	b.WriteString(" ")
	b.WriteString(msg)
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%v", k, fields[k])
	}
	l.out.writeLine([]byte(b.String()))
}

// GetLogLevel gets the current log level from environment
func GetLogLevel() string {
	level := os.Getenv("STOREFRONT_LOG_LEVEL")
	if level == "" {
		level = os.Getenv("LOG_LEVEL")
	}
	if level == "" {
		return "INFO"
	}
	return level
}
