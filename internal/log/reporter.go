package log

import (
	"context"
	"errors"
	"log/slog"

	"eventbudget/internal/core"
)

// Reporter receives breadcrumbs before risky operations and the failures
// that follow. Mutators report through it instead of a specific telemetry
// backend.
type Reporter interface {
	Breadcrumb(ctx context.Context, category, message string, data LogFields)
	CaptureError(ctx context.Context, err error, operation string, data LogFields)
}

var _ Reporter = (*StructuredLogger)(nil)

// Breadcrumb logs a debug record for the step about to run.
func (sl *StructuredLogger) Breadcrumb(ctx context.Context, category, message string, data LogFields) {
	fields := NewFields().Merge(data).WithComponent(category)
	sl.logger.Logger.Log(ctx, slog.LevelDebug, message, fields.ToSlice()...)
}

// CaptureError logs err with its error type. Domain errors are logged at
// warn level since they are caused by the caller.
func (sl *StructuredLogger) CaptureError(ctx context.Context, err error, operation string, data LogFields) {
	errType := ErrorType(err)
	fields := NewFields().Merge(data).WithError(err).WithOperation(operation)
	fields[FieldErrorType] = errType

	level := slog.LevelError
	if core.IsDomainError(err) {
		level = slog.LevelWarn
	}
	sl.logger.Logger.Log(ctx, level, "operation failed", fields.ToSlice()...)
}

// ErrorType classifies err into one of the ErrorType constants.
func ErrorType(err error) string {
	var (
		validation *core.ValidationError
		notFound   *core.NotFoundError
		conflict   *core.ConflictError
		store      *core.StoreError
	)
	switch {
	case errors.As(err, &validation):
		return ErrorTypeValidation
	case errors.As(err, &notFound):
		return ErrorTypeNotFound
	case errors.As(err, &conflict):
		return ErrorTypeConflict
	case errors.As(err, &store):
		return ErrorTypeDatabase
	default:
		return ErrorTypeInternal
	}
}
