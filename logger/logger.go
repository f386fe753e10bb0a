package logger

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// noopFunc is a reusable no-op function to avoid allocations
var noopFunc = func() {}

// Trace returns a function that logs operation duration when called.
// Returns a no-op function when TRACE level is disabled to avoid overhead.
// Usage: defer logger.Trace("operation")()
func Trace(name string) func() {
	l := current()
	if !l.shouldLog(LevelTrace) {
		return noopFunc
	}
	start := time.Now()
	return func() {
		l.logWithLevel(LevelTrace, "%s: %v", name, time.Since(start))
	}
}

// MaxLogLines is the number of lines a log file is trimmed back to
const MaxLogLines = 5000

// Level represents the logging level
type Level int

const (
	LevelTrace Level = iota
	LevelDebug
	LevelInfo
	LevelWarn
	LevelError
)

// String returns the string representation of a log level
func (l Level) String() string {
	switch l {
	case LevelTrace:
		return "TRACE"
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

// ParseLevel parses a string into a Level, defaulting to INFO
func ParseLevel(s string) Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "TRACE":
		return LevelTrace
	case "DEBUG":
		return LevelDebug
	case "INFO":
		return LevelInfo
	case "WARN", "WARNING":
		return LevelWarn
	case "ERROR":
		return LevelError
	default:
		return LevelInfo
	}
}

// Logger is a leveled printf-style logger. When backed by a file it keeps
// the file below MaxLogLines by dropping the oldest lines.
type Logger struct {
	out       io.Writer
	file      *os.File // nil when logging to a plain writer
	lineCount int
	level     Level
	mutex     sync.Mutex
}

var (
	globalMu     sync.RWMutex
	globalLogger *Logger
)

// defaultLogger is used until Install is called
var defaultLogger = New(os.Stderr, LevelWarn)

// New creates a logger writing to w.
func New(w io.Writer, level Level) *Logger {
	return &Logger{out: w, level: level}
}

// OpenFile creates a logger appending to the file at path. Existing lines
// count against MaxLogLines.
func OpenFile(path string, level Level) (*Logger, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	l := &Logger{out: f, file: f, level: level}
	l.countExistingLines()
	return l, nil
}

// Install makes l the global logger used by the package-level functions.
func Install(l *Logger) {
	globalMu.Lock()
	defer globalMu.Unlock()
	globalLogger = l
}

func current() *Logger {
	globalMu.RLock()
	defer globalMu.RUnlock()
	if globalLogger != nil {
		return globalLogger
	}
	return defaultLogger
}

// SetLevel sets the logging level
func (l *Logger) SetLevel(level Level) {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	l.level = level
}

// SetGlobalLevel sets the logging level on the active logger
func SetGlobalLevel(level Level) {
	current().SetLevel(level)
}

func (l *Logger) shouldLog(level Level) bool {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	return level >= l.level
}

func (l *Logger) logWithLevel(level Level, format string, v ...any) {
	if !l.shouldLog(level) {
		return
	}
	msg := fmt.Sprintf("%s [%s] %s\n", time.Now().Format("2006/01/02 15:04:05"), level, fmt.Sprintf(format, v...))
	l.Write([]byte(msg))
}

// Debug logs a debug message
func (l *Logger) Debug(format string, v ...any) { l.logWithLevel(LevelDebug, format, v...) }

// Info logs an info message
func (l *Logger) Info(format string, v ...any) { l.logWithLevel(LevelInfo, format, v...) }

// Warn logs a warning message
func (l *Logger) Warn(format string, v ...any) { l.logWithLevel(LevelWarn, format, v...) }

// Error logs an error message
func (l *Logger) Error(format string, v ...any) { l.logWithLevel(LevelError, format, v...) }

// Package-level logging functions that use the installed logger (or stderr)
func Debug(format string, v ...any) { current().Debug(format, v...) }
func Info(format string, v ...any)  { current().Info(format, v...) }
func Warn(format string, v ...any)  { current().Warn(format, v...) }
func Error(format string, v ...any) { current().Error(format, v...) }

// countExistingLines counts the number of lines already in the log file
func (l *Logger) countExistingLines() {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	l.file.Seek(0, io.SeekStart)
	scanner := bufio.NewScanner(l.file)
	count := 0
	for scanner.Scan() {
		count++
	}
	l.lineCount = count
	l.file.Seek(0, io.SeekEnd)
}

// Write implements io.Writer
func (l *Logger) Write(p []byte) (n int, err error) {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	n, err = l.out.Write(p)
	if err != nil || l.file == nil {
		return n, err
	}

	l.lineCount += strings.Count(string(p), "\n")
	if l.lineCount > MaxLogLines {
		l.rotateLogFile()
	}
	return n, nil
}

// rotateLogFile trims the log file to keep only the last MaxLogLines lines
func (l *Logger) rotateLogFile() {
	l.file.Seek(0, io.SeekStart)
	scanner := bufio.NewScanner(l.file)
	var lines []string
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}

	if len(lines) > MaxLogLines {
		lines = lines[len(lines)-MaxLogLines:]
	}

	l.file.Truncate(0)
	l.file.Seek(0, io.SeekStart)
	for _, line := range lines {
		l.file.WriteString(line + "\n")
	}
	l.lineCount = len(lines)
}

// Close closes the underlying file, if any
func (l *Logger) Close() error {
	if l.file == nil {
		return nil
	}
	return l.file.Close()
}
