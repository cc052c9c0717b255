package internal

import (
	"log"
	"os"
)

// LogLevel represents different logging verbosity levels
type LogLevel int

const (
	LogLevelError LogLevel = iota
	LogLevelWarn
	LogLevelInfo
	LogLevelDebug
)

// Logger provides leveled logging with an optional component prefix
type Logger struct {
	level LogLevel
	name  string
}

// NewLogger creates a new logger with the specified level
func NewLogger(level LogLevel) *Logger {
	return &Logger{level: level}
}

// NewDefaultLogger creates a logger based on LOG_LEVEL environment variable
func NewDefaultLogger() *Logger {
	level := LogLevelInfo // default
	if levelStr := os.Getenv("LOG_LEVEL"); levelStr != "" {
		switch levelStr {
		case "ERROR":
			level = LogLevelError
		case "WARN":
			level = LogLevelWarn
		case "INFO":
			level = LogLevelInfo
		case "DEBUG":
			level = LogLevelDebug
		}
	}
	return &Logger{level: level}
}

// ParseLogLevel maps a level name to a LogLevel, defaulting to info
func ParseLogLevel(s string) LogLevel {
	switch s {
	case "error", "ERROR":
		return LogLevelError
	case "warn", "WARN":
		return LogLevelWarn
	case "debug", "DEBUG":
		return LogLevelDebug
	default:
		return LogLevelInfo
	}
}

// Named returns a logger that prefixes every line with the component name
func (l *Logger) Named(name string) *Logger {
	return &Logger{level: l.level, name: name}
}

func (l *Logger) prefix(tag string) string {
	if l.name != "" {
		return tag + " [" + l.name + "] "
	}
	return tag + " "
}

// Error logs error messages
func (l *Logger) Error(format string, args ...interface{}) {
	if l.level >= LogLevelError {
		log.Printf(l.prefix("[ERROR]")+format, args...)
	}
}

// Warn logs warning messages
func (l *Logger) Warn(format string, args ...interface{}) {
	if l.level >= LogLevelWarn {
		log.Printf(l.prefix("[WARN]")+format, args...)
	}
}

// Info logs info messages
func (l *Logger) Info(format string, args ...interface{}) {
	if l.level >= LogLevelInfo {
		log.Printf(l.prefix("[INFO]")+format, args...)
	}
}

// Debug logs debug messages
func (l *Logger) Debug(format string, args ...interface{}) {
	if l.level >= LogLevelDebug {
		log.Printf(l.prefix("[DEBUG]")+format, args...)
	}
}
