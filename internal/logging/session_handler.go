package logging

import (
	"context"
	"log/slog"
	"os"
)

const (
	// FieldSessionID identifies one renderq process run.
	FieldSessionID = "session_id"
	// FieldWorkerPID is the renderq process id. Blender launches log their own
	// child pid under "pid".
	FieldWorkerPID = "worker_pid"
)

// sessionHandler stamps every record with the run's session id and process
// id so records from several worker processes sharing a log directory can be
// told apart.
type sessionHandler struct {
	base  slog.Handler
	attrs []slog.Attr
}

func newSessionIDHandler(base slog.Handler, sessionID string) slog.Handler {
	if base == nil {
		return NoopHandler{}
	}
	return &sessionHandler{
		base: base,
		attrs: []slog.Attr{
			slog.String(FieldSessionID, sessionID),
			slog.Int(FieldWorkerPID, os.Getpid()),
		},
	}
}

func (h *sessionHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.base.Enabled(ctx, level)
}

func (h *sessionHandler) Handle(ctx context.Context, record slog.Record) error {
	record.AddAttrs(h.attrs...)
	return h.base.Handle(ctx, record)
}

func (h *sessionHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &sessionHandler{base: h.base.WithAttrs(attrs), attrs: h.attrs}
}

func (h *sessionHandler) WithGroup(name string) slog.Handler {
	return &sessionHandler{base: h.base.WithGroup(name), attrs: h.attrs}
}
