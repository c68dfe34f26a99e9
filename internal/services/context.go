package services

import "context"

type contextKey string

const (
	laneKey     contextKey = "lane"
	shotKey     contextKey = "shot"
	launchIDKey contextKey = "launch_id"
	sessionKey  contextKey = "session_id"
)

// WithLane annotates context with the worker lane name (render/composite).
func WithLane(ctx context.Context, lane string) context.Context {
	if lane == "" {
		return ctx
	}
	return context.WithValue(ctx, laneKey, lane)
}

// LaneFromContext returns the lane name if present.
func LaneFromContext(ctx context.Context) (string, bool) {
	v := ctx.Value(laneKey)
	if str, ok := v.(string); ok && str != "" {
		return str, true
	}
	return "", false
}

// WithShot annotates context with the display key of the shot being handled.
func WithShot(ctx context.Context, shot string) context.Context {
	if shot == "" {
		return ctx
	}
	return context.WithValue(ctx, shotKey, shot)
}

// ShotFromContext returns the shot key if present.
func ShotFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(shotKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithLaunchID annotates context with a subprocess launch identifier.
func WithLaunchID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, launchIDKey, id)
}

// LaunchIDFromContext extracts the launch identifier if present.
func LaunchIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(launchIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithSessionID annotates context with the daemon session identifier.
func WithSessionID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, sessionKey, id)
}

// SessionIDFromContext extracts the session identifier if present.
func SessionIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(sessionKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}
