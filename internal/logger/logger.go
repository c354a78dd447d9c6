// Package logger provides logging for the sercha-code CLI.
// Debug and Info messages are printed to stderr only when verbose mode is
// enabled via the --verbose flag. Warnings and errors are always printed.
// When a log file is configured, every emitted message is also appended to
// it as JSON, with size based rotation.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	mu      sync.RWMutex
	verbose bool
	output  io.Writer = os.Stderr
	file    *lumberjack.Logger
	log     = newLogger(output, nil)
)

// newLogger builds the zerolog logger for the current outputs (caller must hold lock).
func newLogger(w io.Writer, f io.Writer) zerolog.Logger {
	console := zerolog.ConsoleWriter{
		Out:         w,
		NoColor:     true,
		PartsOrder:  []string{zerolog.LevelFieldName, zerolog.MessageFieldName},
		FormatLevel: func(i any) string { return "[" + strings.ToUpper(fmt.Sprint(i)) + "]" },
	}
	if f == nil {
		return zerolog.New(console).Level(zerolog.DebugLevel)
	}
	return zerolog.New(zerolog.MultiLevelWriter(console, f)).
		Level(zerolog.DebugLevel).
		With().Timestamp().Logger()
}

// rebuild recreates the logger after an output change (caller must hold lock).
func rebuild() {
	if file != nil {
		log = newLogger(output, file)
		return
	}
	log = newLogger(output, nil)
}

// SetVerbose enables or disables verbose logging.
func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	verbose = v
}

// IsVerbose returns true if verbose mode is enabled.
func IsVerbose() bool {
	mu.RLock()
	defer mu.RUnlock()
	return verbose
}

// SetOutput sets the console writer for logs.
// Defaults to os.Stderr. Useful for testing.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
	rebuild()
}

// SetLogFile additionally writes logs as JSON to path, rotating at maxSizeMB.
// An empty path closes any open log file.
func SetLogFile(path string, maxSizeMB int) error {
	mu.Lock()
	defer mu.Unlock()

	if file != nil {
		if err := file.Close(); err != nil {
			return fmt.Errorf("close log file: %w", err)
		}
		file = nil
	}
	if path != "" {
		if maxSizeMB <= 0 {
			maxSizeMB = 10
		}
		file = &lumberjack.Logger{
			Filename:   path,
			MaxSize:    maxSizeMB,
			MaxBackups: 3,
		}
	}
	rebuild()
	return nil
}

// Debug prints a message if verbose mode is enabled.
func Debug(format string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	if verbose {
		log.Debug().Msgf(format, args...)
	}
}

// Section prints a section header if verbose mode is enabled.
func Section(name string) {
	mu.RLock()
	defer mu.RUnlock()
	if verbose {
		fmt.Fprintf(output, "\n=== %s ===\n", name)
	}
}

// Info prints an informational message if verbose mode is enabled.
func Info(format string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	if verbose {
		log.Info().Msgf(format, args...)
	}
}

// Warn prints a warning message.
func Warn(format string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	log.Warn().Msgf(format, args...)
}

// Error prints an error message.
func Error(format string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	log.Error().Msgf(format, args...)
}
