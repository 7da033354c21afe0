package log

import (
	"context"
	"log/slog"
	"net/http"
)

type ContextKey string

const LoggerContextKey ContextKey = "logger"

// Middleware puts logger into every request context.
func Middleware(logger *Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := context.WithValue(r.Context(), LoggerContextKey, logger)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// FromContext extracts the request logger, falling back to the slog default.
func FromContext(ctx context.Context) *Logger {
	if logger, ok := ctx.Value(LoggerContextKey).(*Logger); ok {
		return logger
	}
	return &Logger{
		Logger:    slog.Default(),
		component: "unknown",
	}
}

// RequestIDMiddleware adds the request ID to the context logger.
func RequestIDMiddleware(extractRequestID func(*http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger := FromContext(r.Context()).With(FieldRequestID, extractRequestID(r))
			ctx := context.WithValue(r.Context(), LoggerContextKey, logger)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// StructuredLogger logs the recurring events of the HTTP surface.
type StructuredLogger struct {
	logger *Logger
}

func NewStructuredLogger(logger *Logger) *StructuredLogger {
	return &StructuredLogger{logger: logger.WithComponent(ComponentHTTP)}
}

// LogHTTPEnd logs a finished request; 4xx at warn and 5xx at error level.
func (sl *StructuredLogger) LogHTTPEnd(ctx context.Context, r *http.Request, statusCode int, durationMs int64, clientIP string) {
	level := slog.LevelInfo
	if statusCode >= 400 && statusCode < 500 {
		level = slog.LevelWarn
	} else if statusCode >= 500 {
		level = slog.LevelError
	}

	fields := NewFields().
		WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, r.Header.Get("User-Agent")).
		WithHTTPResponse(statusCode, durationMs, statusCode < 400).
		WithClientIP(clientIP).
		ToSlice()

	sl.logger.Logger.Log(ctx, level, "HTTP request completed", sl.logger.fields(fields)...)
}

// LogSubmission logs a delivered expense.
func (sl *StructuredLogger) LogSubmission(ctx context.Context, receipts int, total, delivery string) {
	fields := NewFields().
		WithSubmission(receipts, total, delivery).
		WithOperation(OpSubmit).
		ToSlice()

	sl.logger.WithComponent(ComponentSubmission).InfoContext(ctx, "Expense submitted", fields...)
}

func (sl *StructuredLogger) LogError(ctx context.Context, msg string, err error, component, operation string) {
	fields := NewFields().
		WithError(err).
		WithOperation(operation).
		ToSlice()

	sl.logger.WithComponent(component).ErrorContext(ctx, msg, fields...)
}
