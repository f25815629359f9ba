package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
)

type Config struct {
	Level  string `yaml:"level" json:"level"`
	Output string `yaml:"output" json:"output"`
}

type LogLevel int

const (
	DEBUG LogLevel = iota
	INFO
	WARN
	ERROR
)

var levelMap = map[string]LogLevel{
	"debug": DEBUG,
	"info":  INFO,
	"warn":  WARN,
	"error": ERROR,
}

// Logger is a leveled wrapper over the standard logger. A nil *Logger
// discards everything, so libraries can take one optionally.
type Logger struct {
	logger *log.Logger
	level  LogLevel
	closer io.Closer
}

func New(config *Config) (*Logger, error) {
	if config == nil {
		config = &Config{Level: "info", Output: "stderr"}
	}

	level, ok := levelMap[strings.ToLower(config.Level)]
	if !ok {
		level = INFO
	}

	var (
		output io.Writer
		closer io.Closer
	)
	switch config.Output {
	case "", "stderr":
		output = os.Stderr
	case "stdout":
		output = os.Stdout
	default:
		file, err := os.OpenFile(config.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		output = file
		closer = file
	}

	return &Logger{
		logger: log.New(output, "", log.LstdFlags),
		level:  level,
		closer: closer,
	}, nil
}

// NewWriter logs to w at the given level. Used by tests and by callers that
// already own a sink.
func NewWriter(w io.Writer, level LogLevel) *Logger {
	return &Logger{logger: log.New(w, "", 0), level: level}
}

func (l *Logger) logf(level LogLevel, tag, format string, args ...any) {
	if l == nil || l.level > level {
		return
	}
	l.logger.Printf("["+tag+"] "+format, args...)
}

func (l *Logger) Debug(format string, args ...any) { l.logf(DEBUG, "DEBUG", format, args...) }
func (l *Logger) Info(format string, args ...any)  { l.logf(INFO, "INFO", format, args...) }
func (l *Logger) Warn(format string, args ...any)  { l.logf(WARN, "WARN", format, args...) }
func (l *Logger) Error(format string, args ...any) { l.logf(ERROR, "ERROR", format, args...) }

// Enabled reports whether messages at level would be written.
func (l *Logger) Enabled(level LogLevel) bool {
	return l != nil && l.level <= level
}

func (l *Logger) Close() error {
	if l == nil || l.closer == nil {
		return nil
	}
	return l.closer.Close()
}
