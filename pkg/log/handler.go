package log

import (
	"context"
	"log/slog"

	"github.com/cockroachdb/errors"

	salaryErrors "github.com/YuminosukeSato/salaryml/pkg/errors"
)

// errorDetailHandler は "error" 属性に載ったエラーを展開し、
// スタックトレースとドメインエラーの構造化フィールドを追加する。
//
//	TrainingError → error.stage, error.code
//	DataError     → data.record_index, data.column, error.code
//	EncodingError → data.column
//	NotTrainedError → error.code
type errorDetailHandler struct {
	next slog.Handler
}

func wrapErrorDetails(h slog.Handler) slog.Handler {
	return &errorDetailHandler{next: h}
}

func (h *errorDetailHandler) Enabled(ctx context.Context, l slog.Level) bool {
	return h.next.Enabled(ctx, l)
}

func (h *errorDetailHandler) Handle(ctx context.Context, r slog.Record) error {
	var err error
	r.Attrs(func(a slog.Attr) bool {
		if a.Key != ErrAttrKey {
			return true
		}
		err, _ = a.Value.Any().(error)
		return false
	})
	if err != nil {
		r.AddAttrs(errorDetails(err)...)
	}
	return h.next.Handle(ctx, r)
}

func (h *errorDetailHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &errorDetailHandler{next: h.next.WithAttrs(attrs)}
}

func (h *errorDetailHandler) WithGroup(g string) slog.Handler {
	return &errorDetailHandler{next: h.next.WithGroup(g)}
}

func errorDetails(err error) []slog.Attr {
	var attrs []slog.Attr

	var (
		trainErr *salaryErrors.TrainingError
		dataErr  *salaryErrors.DataError
		encErr   *salaryErrors.EncodingError
		ntErr    *salaryErrors.NotTrainedError
	)
	switch {
	case errors.As(err, &trainErr):
		attrs = append(attrs,
			slog.String(ErrorCodeKey, ErrorTrainingFailed),
			slog.String(ErrorStageKey, trainErr.Stage))
	case errors.As(err, &dataErr):
		attrs = append(attrs, slog.String(ErrorCodeKey, ErrorInvalidInput))
		if dataErr.Record >= 0 {
			attrs = append(attrs, slog.Int(RecordIndexKey, dataErr.Record))
		}
		if dataErr.Field != "" {
			attrs = append(attrs, slog.String(ColumnKey, dataErr.Field))
		}
	case errors.As(err, &encErr):
		attrs = append(attrs,
			slog.String(ErrorCodeKey, ErrorInvalidInput),
			slog.String(ColumnKey, encErr.Field))
	case errors.As(err, &ntErr):
		attrs = append(attrs, slog.String(ErrorCodeKey, ErrorNotTrained))
	}

	// WithStack で付与されたスタックは最外層の SafeDetails に入る
	if details := errors.GetSafeDetails(err).SafeDetails; len(details) > 0 && details[0] != "" {
		attrs = append(attrs, slog.String(StacktraceAttrKey, details[0]))
	}
	return attrs
}
