// Package observability provides logging, metrics, and tracing.
package observability

import (
	"context"
	"log/slog"
)

// Logger is the slog instance layers log through. The middleware package
// replaces it at startup with the context-enriching handler.
var Logger = slog.Default()

// SetLogger installs l as the package logger.
func SetLogger(l *slog.Logger) {
	if l != nil {
		Logger = l
	}
}

// RepoLogger provides structured logging for repository operations.
type RepoLogger struct {
	tableName string
}

// NewRepoLogger creates a new RepoLogger for the given table.
func NewRepoLogger(tableName string) *RepoLogger {
	return &RepoLogger{tableName: tableName}
}

// LogWrite logs a mutating repository operation at debug level.
func (l *RepoLogger) LogWrite(ctx context.Context, operation string, attrs ...any) {
	base := []any{
		slog.String("table", l.tableName),
		slog.String("operation", operation),
	}
	Logger.DebugContext(ctx, "repository write", append(base, attrs...)...)
}

// LogError logs a repository error.
func (l *RepoLogger) LogError(ctx context.Context, err error, operation string) {
	Logger.ErrorContext(ctx, "repository error",
		slog.String("table", l.tableName),
		slog.String("operation", operation),
		slog.String("error", err.Error()),
	)
}

// ServiceLogger tags log lines with the emitting service.
type ServiceLogger struct {
	service string
}

// NewServiceLogger creates a ServiceLogger for service.
func NewServiceLogger(service string) *ServiceLogger {
	return &ServiceLogger{service: service}
}

// Info logs an informational service event.
func (l *ServiceLogger) Info(ctx context.Context, msg string, attrs ...any) {
	Logger.InfoContext(ctx, msg, append([]any{slog.String("service", l.service)}, attrs...)...)
}

// Warn logs a degraded but handled condition.
func (l *ServiceLogger) Warn(ctx context.Context, msg string, attrs ...any) {
	Logger.WarnContext(ctx, msg, append([]any{slog.String("service", l.service)}, attrs...)...)
}

// Error logs a failure with its error.
func (l *ServiceLogger) Error(ctx context.Context, msg string, err error, attrs ...any) {
	base := []any{slog.String("service", l.service)}
	if err != nil {
		base = append(base, slog.String("error", err.Error()))
	}
	Logger.ErrorContext(ctx, msg, append(base, attrs...)...)
}
