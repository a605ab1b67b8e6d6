package logging

import (
	"fmt"
	"os"
	"strings"
)

// Logger writes operator-facing progress to stderr, keeping stdout free
// for reports and templates.
type Logger struct {
	debug   bool
	noColor bool
}

// New creates a logger. Debug output is suppressed unless debug is true;
// noColor drops the ANSI escapes for non-terminal output.
func New(debug, noColor bool) *Logger {
	return &Logger{
		debug:   debug,
		noColor: noColor,
	}
}

func (l *Logger) emit(color, prefix, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if l.noColor {
		fmt.Fprintf(os.Stderr, "%s %s\n", prefix, msg)
		return
	}
	fmt.Fprintf(os.Stderr, "\033[%sm%s\033[0m %s\n", color, prefix, msg)
}

// Info logs an informational message.
func (l *Logger) Info(format string, args ...interface{}) {
	l.emit("32", "✓", format, args...)
}

// Warn logs a warning message.
func (l *Logger) Warn(format string, args ...interface{}) {
	l.emit("33", "⚠", format, args...)
}

// Error logs an error message.
func (l *Logger) Error(format string, args ...interface{}) {
	l.emit("31", "✗", format, args...)
}

// Debug logs a debug message when debug mode is enabled.
func (l *Logger) Debug(format string, args ...interface{}) {
	if !l.debug {
		return
	}
	l.emit("36", "[DEBUG]", format, args...)
}

// Secret is a string that formats as [REDACTED]. Log call sites wrap any
// value that might hold secret plaintext in Secret so a careless %s can
// never leak it.
type Secret string

// String implements fmt.Stringer, always redacting.
func (s Secret) String() string {
	return "[REDACTED]"
}

// GoString implements fmt.GoStringer for %#v formatting.
func (s Secret) GoString() string {
	return "[REDACTED]"
}

// Redact replaces each known secret in s with [REDACTED]. Values shorter
// than four characters are left alone; replacing them would shred ordinary
// prose.
func Redact(s string, secrets []string) string {
	result := s
	for _, secret := range secrets {
		if len(secret) > 3 {
			result = strings.ReplaceAll(result, secret, "[REDACTED]")
		}
	}
	return result
}
