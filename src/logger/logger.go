package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"

	"market-dashboard/src/models"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Log levels in ascending severity.
const (
	LevelDebug = iota
	LevelInfo
	LevelWarning
	LevelError
	LevelCritical
)

var (
	filesMu sync.Mutex
	files   = map[string]*lumberjack.Logger{}
)

// -----------------------------------------------------------------------------

// Logger provides structured logging functionality
type Logger struct {
	name   string
	logger *log.Logger
	level  int
}

// -----------------------------------------------------------------------------

// NewLogger creates a new Logger instance. A nil config logs everything at INFO and above to stdout.
func NewLogger(config *models.MConfig, name string) *Logger {
	var out io.Writer = os.Stdout
	level := LevelInfo
	if config != nil {
		level = ParseLevel(config.LogLevel)
		if config.LogFile != "" {
			out = io.MultiWriter(os.Stdout, rotatingFile(config.LogFile))
		}
	}
	return &Logger{
		name:   name,
		logger: log.New(out, "", log.LstdFlags),
		level:  level,
	}
}

// -----------------------------------------------------------------------------

// NewLoggerTo creates a Logger writing to w, mostly for tests.
func NewLoggerTo(w io.Writer, level string, name string) *Logger {
	return &Logger{
		name:   name,
		logger: log.New(w, "", log.LstdFlags),
		level:  ParseLevel(level),
	}
}

// -----------------------------------------------------------------------------

// Named returns a logger sharing the same output under another component name.
func (l *Logger) Named(name string) *Logger {
	return &Logger{name: name, logger: l.logger, level: l.level}
}

// -----------------------------------------------------------------------------

// ParseLevel maps a config value onto a level. Unknown values fall back to INFO.
func ParseLevel(s string) int {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return LevelDebug
	case "WARNING", "WARN":
		return LevelWarning
	case "ERROR":
		return LevelError
	case "CRITICAL":
		return LevelCritical
	default:
		return LevelInfo
	}
}

// -----------------------------------------------------------------------------

// rotatingFile returns the shared rotating writer for path.
func rotatingFile(path string) *lumberjack.Logger {
	filesMu.Lock()
	defer filesMu.Unlock()
	if w, ok := files[path]; ok {
		return w
	}
	w := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    25,
		MaxBackups: 10,
		MaxAge:     14,
		Compress:   true,
	}
	files[path] = w
	return w
}

// -----------------------------------------------------------------------------

// CloseFiles flushes and closes every rotating log file.
func CloseFiles() {
	filesMu.Lock()
	defer filesMu.Unlock()
	for path, w := range files {
		_ = w.Close()
		delete(files, path)
	}
}

// -----------------------------------------------------------------------------

func (l *Logger) print(level int, tag string, format string, args ...interface{}) {
	if level < l.level {
		return
	}
	msg := fmt.Sprintf(format, args...)
	l.logger.Printf("[%s] %s: %s", l.name, tag, msg)
}

// -----------------------------------------------------------------------------

// Debug logs diagnostic messages
func (l *Logger) Debug(format string, args ...interface{}) {
	l.print(LevelDebug, "DEBUG", format, args...)
}

// -----------------------------------------------------------------------------

// Warning logs recoverable problems
func (l *Logger) Warning(format string, args ...interface{}) {
	l.print(LevelWarning, "WARNING", format, args...)
}

// -----------------------------------------------------------------------------

// Info logs informational messages
func (l *Logger) Info(format string, args ...interface{}) {
	l.print(LevelInfo, "INFO", format, args...)
}

// -----------------------------------------------------------------------------

// Error logs error messages
func (l *Logger) Error(format string, args ...interface{}) {
	l.print(LevelError, "ERROR", format, args...)
}

// -----------------------------------------------------------------------------

// Critical logs critical errors and exits the application
func (l *Logger) Critical(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	l.logger.Printf("[%s] CRITICAL: %s", l.name, msg)
	os.Exit(1)
}
