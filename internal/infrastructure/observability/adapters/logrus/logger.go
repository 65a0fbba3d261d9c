package logrus

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/jimcal/jamstack-cms/internal/application/ports"
)

// Logger implements ports.Logger on top of a logrus entry
type Logger struct {
	entry *logrus.Entry
}

// NewLogger creates a logger writing to stderr
func NewLogger(level, format string) ports.Logger {
	return NewLoggerWithOutput(os.Stderr, level, format)
}

// NewLoggerWithOutput creates a logger writing to out
func NewLoggerWithOutput(out io.Writer, level, format string) ports.Logger {
	l := logrus.New()
	l.SetOutput(out)

	if format == "json" {
		l.SetFormatter(&logrus.JSONFormatter{})
	} else {
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, DisableColors: true})
	}

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	l.SetLevel(lvl)

	return &Logger{entry: logrus.NewEntry(l)}
}

// Debug logs debug messages
func (l *Logger) Debug(msg string, fields ...interface{}) {
	l.entry.WithFields(toFields(fields)).Debug(msg)
}

// Info logs informational messages
func (l *Logger) Info(msg string, fields ...interface{}) {
	l.entry.WithFields(toFields(fields)).Info(msg)
}

// Warn logs warning messages
func (l *Logger) Warn(msg string, fields ...interface{}) {
	l.entry.WithFields(toFields(fields)).Warn(msg)
}

// Error logs error messages
func (l *Logger) Error(msg string, fields ...interface{}) {
	l.entry.WithFields(toFields(fields)).Error(msg)
}

// WithFields returns a new Logger with additional fields
func (l *Logger) WithFields(fields map[string]interface{}) ports.Logger {
	return &Logger{entry: l.entry.WithFields(logrus.Fields(fields))}
}

// toFields parses variadic fields (key1, value1, key2, value2, ...)
func toFields(kv []interface{}) logrus.Fields {
	fields := make(logrus.Fields, len(kv)/2)
	for i := 0; i < len(kv)-1; i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			continue
		}

		// errors render as their message, JSONFormatter would print {}
		if err, ok := kv[i+1].(error); ok && err != nil {
			fields[key] = err.Error()
			continue
		}
		fields[key] = kv[i+1]
	}
	return fields
}
