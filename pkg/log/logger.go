package log

import (
	"io"
	"log/slog"
	"os"
	"sync"
)

var (
	providerMu sync.RWMutex
	provider   LoggerProvider = NewZerologProvider(os.Stderr, LevelInfo, FormatJSON)
)

// SetProvider replaces the process-wide logger provider.
// Loggers obtained earlier keep writing through the provider they came from.
func SetProvider(p LoggerProvider) {
	if p == nil {
		return
	}
	providerMu.Lock()
	defer providerMu.Unlock()
	provider = p
}

// GetProvider returns the process-wide logger provider.
func GetProvider() LoggerProvider {
	providerMu.RLock()
	defer providerMu.RUnlock()
	return provider
}

// GetLogger returns the default logger of the current provider.
func GetLogger() Logger {
	return GetProvider().GetLogger()
}

// GetLoggerWithName returns a logger tagged with the given component name.
func GetLoggerWithName(name string) Logger {
	return GetProvider().GetLoggerWithName(name)
}

// SetupLogger configures the process-wide provider from textual settings.
// backend is "zerolog" (default) or "slog"; format is "json" or "console".
func SetupLogger(backend, level, format string) error {
	return SetupLoggerTo(os.Stderr, backend, level, format)
}

// SetupLoggerTo is SetupLogger with an explicit destination.
func SetupLoggerTo(w io.Writer, backend, level, format string) error {
	lvl, err := ParseLevel(level)
	if err != nil {
		return err
	}
	switch backend {
	case "slog":
		SetProvider(NewSlogProvider(w, lvl))
	default:
		SetProvider(NewZerologProvider(w, lvl, Format(format)))
	}
	return nil
}

// ToSlogLevel maps a Level onto slog.Level.
func ToSlogLevel(level Level) slog.Level {
	return slog.Level(level)
}

const (
	ErrAttrKey        = "error"
	StacktraceAttrKey = "stacktrace"
)

// ErrAttr is a wrapper to pass err to slog.
func ErrAttr(err error) slog.Attr {
	return slog.Any(ErrAttrKey, err)
}
