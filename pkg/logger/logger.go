// Package logger is the leveled, component-prefixed logger every subsystem
// of this SDK shares. It wraps the standard library logger; child loggers
// created with WithComponent share the parent's output and level and differ
// only in the prefix they stamp on each line.
package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"
)

// Level orders log severities from most to least verbose.
type Level int

const (
	DebugLevel Level = iota
	InfoLevel
	WarnLevel
	ErrorLevel
)

// Config selects the minimum level and destination. A nil Output falls
// back to os.Stdout; an unrecognized Level falls back to info. Format is not
// read: every line uses the same plain-text layout.
type Config struct {
	Level  string
	Format string
	Output io.Writer
}

// Logger writes leveled log lines with optional structured fields.
type Logger struct {
	level     Level
	component string
	out       *log.Logger
}

// Field is one key=value pair appended to a log line.
type Field struct {
	Key   string
	Value any
}

// New builds a root Logger from cfg.
func New(cfg Config) *Logger {
	w := cfg.Output
	if w == nil {
		w = os.Stdout
	}
	return &Logger{
		level: parseLevel(cfg.Level),
		out:   log.New(w, "", log.LstdFlags),
	}
}

// WithComponent returns a child logger whose lines are prefixed with
// "[name]". The child shares the parent's level and output.
func (l *Logger) WithComponent(name string) *Logger {
	child := *l
	child.component = name
	return &child
}

// Debug logs at debug level.
func (l *Logger) Debug(msg string, fields ...Field) { l.emit(DebugLevel, "DEBUG", msg, fields) }

// Info logs at info level.
func (l *Logger) Info(msg string, fields ...Field) { l.emit(InfoLevel, "INFO", msg, fields) }

// Warn logs at warn level.
func (l *Logger) Warn(msg string, fields ...Field) { l.emit(WarnLevel, "WARN", msg, fields) }

// Error logs at error level.
func (l *Logger) Error(msg string, fields ...Field) { l.emit(ErrorLevel, "ERROR", msg, fields) }

func (l *Logger) emit(level Level, tag, msg string, fields []Field) {
	if level < l.level {
		return
	}

	var sb strings.Builder
	if l.component != "" {
		sb.WriteString("[")
		sb.WriteString(l.component)
		sb.WriteString("] ")
	}
	sb.WriteString("[")
	sb.WriteString(tag)
	sb.WriteString("] ")
	sb.WriteString(msg)
	for _, f := range fields {
		fmt.Fprintf(&sb, " %s=%v", f.Key, f.Value)
	}
	l.out.Print(sb.String())
}

func parseLevel(level string) Level {
	switch strings.ToLower(level) {
	case "debug":
		return DebugLevel
	case "info":
		return InfoLevel
	case "warn", "warning":
		return WarnLevel
	case "error":
		return ErrorLevel
	default:
		return InfoLevel
	}
}

// String builds a string field.
func String(key, val string) Field { return Field{Key: key, Value: val} }

// Int builds an int field.
func Int(key string, val int) Field { return Field{Key: key, Value: val} }

// Int64 builds an int64 field.
func Int64(key string, val int64) Field { return Field{Key: key, Value: val} }

// Float64 builds a float64 field.
func Float64(key string, val float64) Field { return Field{Key: key, Value: val} }

// Bool builds a bool field.
func Bool(key string, val bool) Field { return Field{Key: key, Value: val} }

// Duration builds a duration field.
func Duration(key string, val time.Duration) Field { return Field{Key: key, Value: val} }

// Error builds an "error" field; a nil error renders as "nil".
func Error(err error) Field {
	if err == nil {
		return Field{Key: "error", Value: "nil"}
	}
	return Field{Key: "error", Value: err.Error()}
}

// Any builds a field from an arbitrary value.
func Any(key string, val any) Field { return Field{Key: key, Value: val} }
