package logger

import (
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// LogFile returns the path of the diagnostic log, ~/.trainmon/logs/trainmon.log.
func LogFile() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".trainmon", "logs", "trainmon.log"), nil
}

// New builds a file-backed zap logger. Diagnostics go to a file rather
// than stderr so they never interleave with the per-tick reports on the
// console.
func New(debug bool) (*zap.Logger, error) {
	path, err := LogFile()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}

	cfg := zap.NewProductionConfig()
	if debug {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	cfg.OutputPaths = []string{path}
	cfg.ErrorOutputPaths = []string{path}

	return cfg.Build()
}
