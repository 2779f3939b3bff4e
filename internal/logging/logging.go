// Package logging builds the file logger. The terminal belongs to the form,
// so nothing is ever logged to stdout or stderr.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"

	"github.com/alexanderramin/sectors/internal/config"
	"github.com/sirupsen/logrus"
)

// Nop returns a logger that drops everything.
func Nop() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	l.SetLevel(logrus.PanicLevel)
	return l
}

// ParseLevel maps a logging.level value onto a logrus level. It accepts
// exactly the names config validation accepts.
func ParseLevel(level string) (logrus.Level, error) {
	name := config.NormalizeLogLevel(level)
	if !slices.Contains(config.ValidLogLevels(), name) {
		return logrus.InfoLevel, fmt.Errorf("unknown log level %q", level)
	}
	return logrus.ParseLevel(name)
}

// New opens the log file and returns a logger writing JSON lines to it.
// The returned closer must be called on exit. When logging is disabled the
// logger discards everything and the closer is a no-op.
func New(cfg config.LoggingConfig) (*logrus.Logger, io.Closer, error) {
	if !cfg.Enabled {
		return Nop(), io.NopCloser(nil), nil
	}
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, nil, err
	}
	if err := os.MkdirAll(filepath.Dir(cfg.File), 0o700); err != nil {
		return nil, nil, fmt.Errorf("creating log directory: %w", err)
	}
	f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, nil, fmt.Errorf("opening log file: %w", err)
	}

	l := logrus.New()
	l.SetOutput(f)
	l.SetLevel(level)
	l.SetFormatter(&logrus.JSONFormatter{})
	return l, f, nil
}
