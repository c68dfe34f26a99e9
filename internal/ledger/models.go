package ledger

import "time"

// Pass names the kind of Blender job.
type Pass string

const (
	PassRender    Pass = "render"
	PassComposite Pass = "composite"
)

// Status is derived from the finish columns.
type Status string

const (
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Launch is one recorded subprocess launch.
type Launch struct {
	ID         string
	Pass       Pass
	Category   string
	ShotID     string
	Slate      int
	Quality    string
	Background bool
	Command    string
	LogPath    string
	PID        int
	SessionID  string
	StartedAt  time.Time
	FinishedAt *time.Time
	ExitCode   *int
	Error      string
}

// Status reports whether the launch is still running or how it ended.
func (l Launch) Status() Status {
	switch {
	case l.FinishedAt == nil:
		return StatusRunning
	case l.Error == "" && (l.ExitCode == nil || *l.ExitCode == 0):
		return StatusSucceeded
	default:
		return StatusFailed
	}
}

// Duration returns the elapsed run time, measured to now when unfinished.
func (l Launch) Duration(now time.Time) time.Duration {
	end := now
	if l.FinishedAt != nil {
		end = *l.FinishedAt
	}
	return end.Sub(l.StartedAt)
}

// Filter narrows History results. Zero values match everything.
type Filter struct {
	Pass     Pass
	Category string
	ShotID   string
	Limit    int
}
