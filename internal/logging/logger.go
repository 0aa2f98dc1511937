package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/kingrea/browser-forge/internal/config"
)

// Level represents the severity of a log entry.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	default:
		return "ERROR"
	}
}

// ParseLevel maps config values onto levels. Unknown values mean info.
func ParseLevel(value string) Level {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// Logger appends timestamped lines to .forge/logs/forge.log so a failed build
// can be inspected after the terminal is gone. An optional mirror receives the
// same lines (usually stderr).
type Logger struct {
	mu     sync.Mutex
	file   *os.File
	mirror io.Writer
	level  Level
	now    func() time.Time
}

// Option customizes a Logger.
type Option func(*Logger)

// WithLevel drops entries below level.
func WithLevel(level Level) Option {
	return func(l *Logger) {
		l.level = level
	}
}

// WithMirror copies every line to w.
func WithMirror(w io.Writer) Option {
	return func(l *Logger) {
		l.mirror = w
	}
}

// New creates (or reuses) the log file for the current project directory.
func New(projectDir string, opts ...Option) (*Logger, error) {
	logDir := filepath.Join(projectDir, config.ForgeDir, "logs")
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return nil, fmt.Errorf("logging: ensure log dir: %w", err)
	}
	path := filepath.Join(logDir, "forge.log")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("logging: open log file: %w", err)
	}
	logger := &Logger{file: f, level: LevelInfo, now: time.Now}
	for _, opt := range opts {
		opt(logger)
	}
	return logger, nil
}

// NewWriter logs to w only. Tests use it to capture output.
func NewWriter(w io.Writer, opts ...Option) *Logger {
	logger := &Logger{mirror: w, level: LevelInfo, now: time.Now}
	for _, opt := range opts {
		opt(logger)
	}
	return logger
}

// Close releases the file handle.
func (l *Logger) Close() error {
	if l == nil || l.file == nil {
		return nil
	}
	return l.file.Close()
}

// Printf writes a single timestamped info line.
func (l *Logger) Printf(format string, args ...any) {
	l.log(LevelInfo, format, args...)
}

func (l *Logger) Debugf(format string, args ...any) { l.log(LevelDebug, format, args...) }
func (l *Logger) Infof(format string, args ...any)  { l.log(LevelInfo, format, args...) }
func (l *Logger) Warnf(format string, args ...any)  { l.log(LevelWarn, format, args...) }
func (l *Logger) Errorf(format string, args ...any) { l.log(LevelError, format, args...) }

func (l *Logger) log(level Level, format string, args ...any) {
	if l == nil || level < l.level {
		return
	}
	line := fmt.Sprintf(format, args...)
	line = strings.TrimRight(line, "\n")
	timestamp := l.now().Format(time.RFC3339)
	entry := fmt.Sprintf("[%s] %-5s %s\n", timestamp, level, line)
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file != nil {
		_, _ = io.WriteString(l.file, entry)
	}
	if l.mirror != nil {
		_, _ = io.WriteString(l.mirror, entry)
	}
}
