package logger

// Logger interface defines the logging contract
type Logger interface {
	Debug(msg string, fields ...interface{})
	Info(msg string, fields ...interface{})
	Warn(msg string, fields ...interface{})
	Error(msg string, fields ...interface{})
	SetLevel(level string)
	WithField(key string, value interface{}) Logger
	WithFields(fields map[string]interface{}) Logger
	With(fields ...Field) Logger
}

// Field represents a key-value pair for structured logging
type Field struct {
	Key   string
	Value interface{}
}

// LogLevel represents the logging level
type LogLevel int

const (
	DebugLevel LogLevel = iota
	InfoLevel
	WarnLevel
	ErrorLevel
)

func (l LogLevel) String() string {
	switch l {
	case DebugLevel:
		return "DEBUG"
	case InfoLevel:
		return "INFO"
	case WarnLevel:
		return "WARN"
	default:
		return "ERROR"
	}
}

// Format selects the line encoding of SimpleLogger
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)
