package log

import (
	"context"
	"log/slog"
	"net/http"
)

// StructuredLogger writes the fixed-shape events of the request lifecycle
// and of the record sequence.
type StructuredLogger struct {
	logger *Logger
}

func NewStructuredLogger(l *Logger) *StructuredLogger {
	return &StructuredLogger{logger: l}
}

// statusLevel is Info below 400, Warn for client errors and Error above.
func statusLevel(code int) slog.Level {
	switch {
	case code >= 500:
		return slog.LevelError
	case code >= 400:
		return slog.LevelWarn
	}
	return slog.LevelInfo
}

func (sl *StructuredLogger) LogHTTPStart(ctx context.Context, r *http.Request, clientIP string) {
	f := NewFields().
		WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, r.UserAgent(), r.Referer()).
		WithClientIP(clientIP)
	sl.logger.WithComponent(ComponentHTTP).DebugContext(ctx, "HTTP request started", f.ToSlice()...)
}

func (sl *StructuredLogger) LogHTTPEnd(ctx context.Context, r *http.Request, statusCode int, durationMs int64, clientIP string) {
	f := NewFields().
		WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, "", "").
		WithHTTPResponse(statusCode, durationMs, statusCode < 400).
		WithClientIP(clientIP)
	sl.logger.WithComponent(ComponentHTTP).Log(ctx, statusLevel(statusCode), "HTTP request completed", f.ToSlice()...)
}

// LogRecordAppended logs a record accepted from the entry form. seq is its
// 1-based position.
func (sl *StructuredLogger) LogRecordAppended(ctx context.Context, month string, success, failed int64, seq int) {
	f := NewFields().
		WithRecord(month, success, failed, seq).
		WithOperation(OpAppend)
	sl.logger.WithComponent(ComponentDashboard).InfoContext(ctx, "Record appended", f.ToSlice()...)
}

func (sl *StructuredLogger) LogSubmissionRejected(ctx context.Context, fields []string) {
	f := NewFields().
		WithFieldErrors(fields).
		WithOperation(OpValidate).
		WithErrorType(ErrorTypeValidation)
	sl.logger.WithComponent(ComponentDashboard).WarnContext(ctx, "Submission rejected", f.ToSlice()...)
}

func (sl *StructuredLogger) LogError(ctx context.Context, msg string, err error, component, operation string, fields LogFields) {
	if fields == nil {
		fields = NewFields()
	}
	f := fields.WithError(err).WithOperation(operation)
	sl.logger.WithComponent(component).ErrorContext(ctx, msg, f.ToSlice()...)
}
