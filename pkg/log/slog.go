package log

import (
	"context"
	"io"
	"log/slog"
)

// SlogProvider creates Logger instances backed by log/slog.
// Records carrying an "error" attribute gain the stack trace and the
// stage/record/column of salaryml domain errors.
type SlogProvider struct {
	level  *slog.LevelVar
	logger *slog.Logger
}

// NewSlogProvider returns a provider emitting JSON records in the
// Cloud Logging layout (severity, message, sourceLocation).
func NewSlogProvider(w io.Writer, level Level) *SlogProvider {
	lv := new(slog.LevelVar)
	lv.Set(ToSlogLevel(level))
	ops := slog.HandlerOptions{
		AddSource: true,
		Level:     lv,
		ReplaceAttr: func(groups []string, attr slog.Attr) slog.Attr {
			switch attr.Key {
			case slog.LevelKey:
				attr = slog.Attr{Key: "severity", Value: attr.Value}
			case slog.MessageKey:
				attr = slog.Attr{Key: "message", Value: attr.Value}
			case slog.SourceKey:
				attr = slog.Attr{Key: "logging.googleapis.com/sourceLocation", Value: attr.Value}
			}
			return attr
		},
	}
	handler := wrapErrorDetails(slog.NewJSONHandler(w, &ops))
	return &SlogProvider{level: lv, logger: slog.New(handler)}
}

// GetLogger implements LoggerProvider.GetLogger.
func (p *SlogProvider) GetLogger() Logger {
	return &slogLogger{l: p.logger}
}

// GetLoggerWithName implements LoggerProvider.GetLoggerWithName.
func (p *SlogProvider) GetLoggerWithName(name string) Logger {
	return &slogLogger{l: p.logger.With(ComponentKey, name)}
}

// SetLevel implements LoggerProvider.SetLevel. It applies to every logger
// handed out by this provider, including earlier ones.
func (p *SlogProvider) SetLevel(level Level) {
	p.level.Set(ToSlogLevel(level))
}

type slogLogger struct {
	l *slog.Logger
}

func (s *slogLogger) Debug(msg string, fields ...any) { s.l.Debug(msg, toSlogArgs(fields)...) }
func (s *slogLogger) Info(msg string, fields ...any)  { s.l.Info(msg, toSlogArgs(fields)...) }
func (s *slogLogger) Warn(msg string, fields ...any)  { s.l.Warn(msg, toSlogArgs(fields)...) }
func (s *slogLogger) Error(msg string, fields ...any) { s.l.Error(msg, toSlogArgs(fields)...) }

func (s *slogLogger) With(fields ...any) Logger {
	return &slogLogger{l: s.l.With(toSlogArgs(fields)...)}
}

func (s *slogLogger) Enabled(ctx context.Context, level Level) bool {
	return s.l.Enabled(ctx, ToSlogLevel(level))
}

// toSlogArgs converts error values under the "error" key into ErrAttr so
// that errorDetailHandler can find them.
func toSlogArgs(fields []any) []any {
	fields = normalizeFields(fields)
	args := make([]any, 0, len(fields))
	for i := 0; i+1 < len(fields); i += 2 {
		if err, ok := fields[i+1].(error); ok && fields[i] == ErrAttrKey {
			args = append(args, ErrAttr(err))
			continue
		}
		args = append(args, fields[i], fields[i+1])
	}
	return args
}
