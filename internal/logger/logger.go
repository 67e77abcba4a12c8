package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	charmLog "github.com/charmbracelet/log"
)

// LogLevel represents the level of logging
type LogLevel int

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l LogLevel) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

func (l LogLevel) charm() charmLog.Level {
	switch l {
	case LevelDebug:
		return charmLog.DebugLevel
	case LevelWarn:
		return charmLog.WarnLevel
	case LevelError:
		return charmLog.ErrorLevel
	default:
		return charmLog.InfoLevel
	}
}

const timeFormat = "2006-01-02T15:04:05"

// Logger fans messages out to a styled console sink and an optional logfmt
// file sink.
type Logger struct {
	mu             sync.Mutex
	level          LogLevel
	prefix         string
	console        *charmLog.Logger
	consoleEnabled bool
	file           *charmLog.Logger
	closeFile      func() error
	filePath       string
}

// defaultLogger is the package-level logger instance
var defaultLogger *Logger

func init() {
	defaultLogger = New(LevelInfo, os.Stderr, "cardboard")
}

// New creates a new logger instance writing to output.
func New(level LogLevel, output io.Writer, prefix string) *Logger {
	if output == nil {
		output = io.Discard
	}
	return &Logger{
		level:          level,
		prefix:         prefix,
		console:        newSink(output, level, prefix, charmLog.TextFormatter),
		consoleEnabled: true,
	}
}

func newSink(w io.Writer, level LogLevel, prefix string, f charmLog.Formatter) *charmLog.Logger {
	return charmLog.NewWithOptions(w, charmLog.Options{
		Level:           level.charm(),
		Prefix:          prefix,
		ReportTimestamp: true,
		TimeFormat:      timeFormat,
		Formatter:       f,
	})
}

func (l *Logger) setLevel(level LogLevel) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = level
	l.console.SetLevel(level.charm())
	if l.file != nil {
		l.file.SetLevel(level.charm())
	}
}

// openFile attaches a logfmt sink appending to path.
func (l *Logger) openFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create log dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closeFile != nil {
		l.closeFile()
	}
	l.file = newSink(f, l.level, l.prefix, charmLog.LogfmtFormatter)
	l.closeFile = f.Close
	l.filePath = path
	return nil
}

func (l *Logger) close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closeFile == nil {
		return nil
	}
	err := l.closeFile()
	l.file, l.closeFile, l.filePath = nil, nil, ""
	return err
}

// log is the core logging function
func (l *Logger) log(level LogLevel, format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if level < l.level {
		return
	}

	message := fmt.Sprintf(format, args...)
	// Never log tokens, passwords, or auth headers
	if containsSensitive(message) {
		message = "[REDACTED: contains sensitive data]"
	}

	sinks := make([]*charmLog.Logger, 0, 2)
	if l.consoleEnabled {
		sinks = append(sinks, l.console)
	}
	if l.file != nil {
		sinks = append(sinks, l.file)
	}
	for _, sink := range sinks {
		switch level {
		case LevelDebug:
			sink.Debug(message)
		case LevelInfo:
			sink.Info(message)
		case LevelWarn:
			sink.Warn(message)
		default:
			sink.Error(message)
		}
	}
}

// containsSensitive checks if a message contains sensitive information
func containsSensitive(message string) bool {
	lower := strings.ToLower(message)
	sensitiveWords := []string{
		"token", "password", "apikey", "api_key", "credential",
		"secret", "authorization:", "basic ", "bearer ",
	}

	for _, word := range sensitiveWords {
		if strings.Contains(lower, word) {
			return true
		}
	}
	return false
}

// SetLevel sets the logging level for the default logger
func SetLevel(level LogLevel) {
	defaultLogger.setLevel(level)
}

// SetOutput replaces the console sink's writer.
func SetOutput(w io.Writer) {
	defaultLogger.mu.Lock()
	defer defaultLogger.mu.Unlock()
	if w == nil {
		w = io.Discard
	}
	defaultLogger.console = newSink(w, defaultLogger.level, defaultLogger.prefix, charmLog.TextFormatter)
}

// SetConsoleEnabled toggles the console sink. The board turns it off while it
// owns the terminal.
func SetConsoleEnabled(enabled bool) {
	defaultLogger.mu.Lock()
	defer defaultLogger.mu.Unlock()
	defaultLogger.consoleEnabled = enabled
}

// SetVerbose enables DEBUG level and mirrors everything to the debug log file.
func SetVerbose(verbose bool) {
	if verbose {
		defaultLogger.setLevel(LevelDebug)
		if path := DebugLogPath(); path != "" {
			if err := defaultLogger.openFile(path); err != nil {
				Warn("debug log unavailable: %v", err)
			}
		}
		return
	}
	defaultLogger.setLevel(LevelInfo)
	defaultLogger.close()
}

// EnableFile mirrors log output to path, or to DebugLogPath when path is empty.
func EnableFile(path string) error {
	if path == "" {
		path = DebugLogPath()
	}
	if path == "" {
		return fmt.Errorf("unable to determine home directory")
	}
	return defaultLogger.openFile(path)
}

// FilePath returns the active log file, if any.
func FilePath() string {
	defaultLogger.mu.Lock()
	defer defaultLogger.mu.Unlock()
	return defaultLogger.filePath
}

// Close releases the log file.
func Close() error {
	return defaultLogger.close()
}

// DebugLogPath is where verbose and board sessions log to.
func DebugLogPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "cardboard", "debug.log")
}

// Package-level logging functions

// Debug logs debug information (only shown with --verbose)
func Debug(format string, args ...interface{}) {
	defaultLogger.log(LevelDebug, format, args...)
}

// Info logs informational messages
func Info(format string, args ...interface{}) {
	defaultLogger.log(LevelInfo, format, args...)
}

// Warn logs warning messages
func Warn(format string, args ...interface{}) {
	defaultLogger.log(LevelWarn, format, args...)
}

// Error logs error messages
func Error(format string, args ...interface{}) {
	defaultLogger.log(LevelError, format, args...)
}

// HTTP logs HTTP request information (debug level)
func HTTP(method, url string) {
	Debug("HTTP %s %s", method, url)
}

// HTTPResponse logs HTTP response information (debug level)
func HTTPResponse(status int, duration time.Duration) {
	Debug("HTTP response: %d (%v)", status, duration)
}

// Config logs configuration-related information (debug level)
func Config(format string, args ...interface{}) {
	Debug("CONFIG: "+format, args...)
}

// TUI logs TUI-related information (debug level)
func TUI(format string, args ...interface{}) {
	Debug("TUI: "+format, args...)
}

// Backend logs board backend traffic (debug level)
func Backend(format string, args ...interface{}) {
	Debug("BACKEND: "+format, args...)
}

// Keys logs key dispatch (debug level)
func Keys(format string, args ...interface{}) {
	Debug("KEYS: "+format, args...)
}
