// Package logging wraps log/slog for portsweep. Diagnostics go to stderr (or
// a log file) so that nmap's echoed output on stdout stays readable, and the
// scan loop logs through a small set of run-aware helpers so every record of
// a run carries the same run_id and target keys.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

const (
	logDirPerm  = 0750
	logFilePerm = 0600
)

// LogLevel represents the available log levels.
type LogLevel string

const (
	LevelDebug LogLevel = "debug"
	LevelInfo  LogLevel = "info"
	LevelWarn  LogLevel = "warn"
	LevelError LogLevel = "error"
)

// LogFormat represents the available log formats.
type LogFormat string

const (
	FormatText LogFormat = "text"
	FormatJSON LogFormat = "json"
)

// Config holds logging configuration.
type Config struct {
	Level     LogLevel  `yaml:"level" json:"level"`
	Format    LogFormat `yaml:"format" json:"format"`
	Output    string    `yaml:"output" json:"output"`
	AddSource bool      `yaml:"add_source" json:"add_source"`
}

// DefaultConfig returns the configuration used before the config file is read.
func DefaultConfig() Config {
	return Config{
		Level:  LevelInfo,
		Format: FormatText,
		Output: "stderr",
	}
}

// ParseLevel maps a configured level name to its slog level.
func ParseLevel(level string) (slog.Level, error) {
	switch LogLevel(strings.ToLower(level)) {
	case LevelDebug:
		return slog.LevelDebug, nil
	case LevelInfo:
		return slog.LevelInfo, nil
	case LevelWarn:
		return slog.LevelWarn, nil
	case LevelError:
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("invalid log level: %s", level)
}

// ParseFormat checks a configured format name.
func ParseFormat(format string) (LogFormat, error) {
	switch f := LogFormat(strings.ToLower(format)); f {
	case FormatText, FormatJSON:
		return f, nil
	}
	return FormatText, fmt.Errorf("invalid log format: %s", format)
}

// Logger wraps slog.Logger with the scan loop's helpers.
type Logger struct {
	*slog.Logger
	closer io.Closer
}

// New creates a logger for cfg. Output is "stdout", "stderr" (the default)
// or a file path, which is created and appended to.
func New(cfg Config) (*Logger, error) {
	switch cfg.Output {
	case "stdout":
		return NewWithWriter(cfg, os.Stdout), nil
	case "stderr", "":
		return NewWithWriter(cfg, os.Stderr), nil
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Output), logDirPerm); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	file, err := os.OpenFile(cfg.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePerm)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}

	logger := NewWithWriter(cfg, file)
	logger.closer = file
	return logger, nil
}

// NewWithWriter creates a logger that writes to w, ignoring cfg.Output.
// Unknown levels fall back to info.
func NewWithWriter(cfg Config, w io.Writer) *Logger {
	level, _ := ParseLevel(string(cfg.Level))
	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: cfg.AddSource,
	}

	var handler slog.Handler
	if cfg.Format == FormatJSON {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return &Logger{Logger: slog.New(handler)}
}

// NewDefault creates a stderr text logger at info level.
func NewDefault() *Logger {
	return NewWithWriter(DefaultConfig(), os.Stderr)
}

// Discard returns a logger that drops every record.
func Discard() *Logger {
	return &Logger{Logger: slog.New(slog.DiscardHandler)}
}

// Close releases the log file, if the logger owns one.
func (l *Logger) Close() error {
	if l.closer == nil {
		return nil
	}
	return l.closer.Close()
}

func (l *Logger) with(fields ...any) *Logger {
	return &Logger{Logger: l.With(fields...), closer: l.closer}
}

// WithComponent adds a component field to the logger.
func (l *Logger) WithComponent(component string) *Logger {
	return l.with("component", component)
}

// WithRunID tags every record with the run identifier.
func (l *Logger) WithRunID(runID string) *Logger {
	return l.with("run_id", runID)
}

// WithTarget tags every record with the target being scanned.
func (l *Logger) WithTarget(target string) *Logger {
	return l.with("target", target)
}

// Progress logs the start of the index-th (1-based) of total targets.
func (l *Logger) Progress(index, total int, target string) {
	l.Info("Scanning target", "target", target, "progress", fmt.Sprintf("[%d/%d]", index, total))
}

// HostFound logs a host with open ports reported for target.
func (l *Logger) HostFound(target, host string, openPorts int) {
	l.Info("Host has open ports", "target", target, "host", host, "open_ports", openPorts)
}

// NoOpenPorts logs a target that produced no reportable host.
func (l *Logger) NoOpenPorts(target string) {
	l.Info("No open ports found", "target", target)
}

// TargetFailed logs a target that was skipped because of err.
func (l *Logger) TargetFailed(target, reason string, err error) {
	l.Error("Target failed", "target", target, "reason", reason, "error", err)
}

var defaultLogger = NewDefault()

// SetDefault replaces the process-wide logger.
func SetDefault(logger *Logger) {
	defaultLogger = logger
}

// Default returns the process-wide logger.
func Default() *Logger {
	return defaultLogger
}

// Debug logs at debug level using the default logger.
func Debug(msg string, fields ...any) {
	defaultLogger.Debug(msg, fields...)
}
