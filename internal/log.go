package internal

import (
	"io"
	"log"
	"os"
	"strings"
)

// LogLevel orders verbosity; a logger prints every level at or below its own
type LogLevel int

const (
	LogLevelError LogLevel = iota
	LogLevelWarn
	LogLevelInfo
	LogLevelDebug
	LogLevelTrace
)

var levelNames = map[LogLevel]string{
	LogLevelError: "ERROR",
	LogLevelWarn:  "WARN",
	LogLevelInfo:  "INFO",
	LogLevelDebug: "DEBUG",
	LogLevelTrace: "TRACE",
}

func (l LogLevel) String() string {
	if name, ok := levelNames[l]; ok {
		return name
	}
	return "INFO"
}

// ParseLogLevel accepts the LOG_LEVEL names case-insensitively. Unknown names
// fall back to INFO.
func ParseLogLevel(s string) LogLevel {
	s = strings.ToUpper(strings.TrimSpace(s))
	for level, name := range levelNames {
		if name == s {
			return level
		}
	}
	return LogLevelInfo
}

// Logger writes "[LEVEL] [Component] message" lines
type Logger struct {
	level     LogLevel
	component string
	out       *log.Logger
}

func NewLogger(level LogLevel) *Logger {
	return &Logger{level: level, out: log.Default()}
}

// NewWriterLogger logs to w without timestamps
func NewWriterLogger(level LogLevel, w io.Writer) *Logger {
	return &Logger{level: level, out: log.New(w, "", 0)}
}

// NewDefaultLogger reads LOG_LEVEL from the environment
func NewDefaultLogger() *Logger {
	return NewLogger(ParseLogLevel(os.Getenv("LOG_LEVEL")))
}

// With returns a logger that tags every line with component
func (l *Logger) With(component string) *Logger {
	return &Logger{level: l.level, component: component, out: l.out}
}

func (l *Logger) Error(format string, args ...interface{}) {
	l.logf(LogLevelError, format, args...)
}

func (l *Logger) Warn(format string, args ...interface{}) {
	l.logf(LogLevelWarn, format, args...)
}

func (l *Logger) Info(format string, args ...interface{}) {
	l.logf(LogLevelInfo, format, args...)
}

func (l *Logger) Debug(format string, args ...interface{}) {
	l.logf(LogLevelDebug, format, args...)
}

func (l *Logger) Trace(format string, args ...interface{}) {
	l.logf(LogLevelTrace, format, args...)
}

func (l *Logger) GetLevel() LogLevel {
	return l.level
}

func (l *Logger) logf(level LogLevel, format string, args ...interface{}) {
	if level > l.level {
		return
	}
	prefix := "[" + level.String() + "] "
	if l.component != "" {
		prefix += "[" + l.component + "] "
	}
	l.out.Printf(prefix+format, args...)
}

// DefaultLogger is configured from LOG_LEVEL at startup
var DefaultLogger = NewDefaultLogger()
