// Package logging configures the process-wide structured logger.
package logging

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

var (
	mu      sync.Mutex
	logFile *os.File
	current = slog.Default()
)

// Init routes slog output to logPath. With debug the records are mirrored to
// stderr and debug level is enabled. An empty logPath logs to stderr only.
func Init(logPath string, debug bool) (*slog.Logger, error) {
	mu.Lock()
	defer mu.Unlock()

	if logFile != nil {
		_ = logFile.Close()
		logFile = nil
	}

	var writers []io.Writer
	if logPath != "" {
		if dir := filepath.Dir(logPath); dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, err
			}
		}
		file, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, err
		}
		logFile = file
		writers = append(writers, logFile)
	}
	if debug || logPath == "" {
		writers = append(writers, os.Stderr)
	}

	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	current = slog.New(slog.NewTextHandler(io.MultiWriter(writers...), &slog.HandlerOptions{Level: level}))
	slog.SetDefault(current)
	return current, nil
}

// Logger returns the logger installed by the last Init.
func Logger() *slog.Logger {
	mu.Lock()
	defer mu.Unlock()
	return current
}

// Close flushes and closes the log file, if one is open.
func Close() error {
	mu.Lock()
	defer mu.Unlock()
	if logFile == nil {
		return nil
	}
	current = slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(current)
	err := logFile.Close()
	logFile = nil
	return err
}
