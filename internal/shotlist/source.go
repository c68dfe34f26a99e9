package shotlist

import (
	"log/slog"

	"renderq/internal/fileutil"
	"renderq/internal/logging"
	"renderq/internal/services"
)

// Source serves the latest successfully loaded shot list and reloads it when
// the file's modification time changes.
type Source struct {
	reloader *fileutil.Reloader[DB]
	static   *DB
	logger   *slog.Logger
}

// Open loads path and returns a reloading Source.
func Open(path string, logger *slog.Logger) (*Source, error) {
	reloader, err := fileutil.NewReloader[DB](path, Load)
	if err != nil {
		if services.Kind(err) == "unknown" {
			err = services.Wrap(services.ErrLoad, component, "open", path, err)
		}
		return nil, err
	}
	return &Source{
		reloader: reloader,
		logger:   logging.NewComponentLogger(logger, component),
	}, nil
}

// NewStaticSource wraps an already parsed DB; Refresh is a no-op.
func NewStaticSource(db *DB) *Source {
	return &Source{logger: logging.NewNop(), static: db}
}

// DB returns the current shot list.
func (s *Source) DB() *DB {
	if s.reloader == nil {
		return s.static
	}
	return s.reloader.Current().Value
}

// Refresh reloads the shot list when it changed on disk. Failures are logged
// and the previous version stays active.
func (s *Source) Refresh() bool {
	if s.reloader == nil {
		return false
	}
	changed, err := s.reloader.Reload()
	if err != nil {
		logging.WarnWithContext(s.logger, "shot list reload failed; keeping previous version", "shot_list_refresh_failed",
			logging.String("path", s.reloader.Path()),
			logging.Error(services.Wrap(services.ErrRefresh, component, "refresh", s.reloader.Path(), err)),
			logging.String(logging.FieldErrorHint, "fix the shot list JSON; workers keep the last good copy"),
			logging.String(logging.FieldImpact, "shot edits are not applied until the file parses"),
		)
		return false
	}
	if changed {
		s.logger.Info("shot list reloaded",
			logging.String("path", s.reloader.Path()),
			logging.Int("shots", s.DB().Len()),
			logging.String(logging.FieldEventType, "shot_list_reloaded"),
		)
	}
	return changed
}
