package logging

import (
	"context"
	"log/slog"

	"renderq/internal/services"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldLane is the standardized structured logging key for worker lane names.
	FieldLane = "lane"
	// FieldShot is the standardized structured logging key for the shot under evaluation.
	FieldShot = "shot"
	// FieldLaunchID is the standardized structured logging key for subprocess launch ids.
	FieldLaunchID = "launch_id"
	// FieldEventType is the standardized structured logging key for machine-readable events.
	FieldEventType = "event_type"
	// FieldErrorHint is the standardized structured logging key for operator next steps.
	FieldErrorHint = "error_hint"
	// FieldErrorKind carries services.Kind of the logged error.
	FieldErrorKind = "error_kind"
	// FieldAlert flags warnings or anomalies that should stand out in structured logs.
	FieldAlert = "alert"
)

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 3)
	if lane, ok := services.LaneFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldLane, lane))
	}
	if shot, ok := services.ShotFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldShot, shot))
	}
	if id, ok := services.LaunchIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldLaunchID, id))
	}
	return fields
}

// WithContext returns a logger augmented with structured fields derived from the supplied context.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(attrsToArgs(fields)...)
}
