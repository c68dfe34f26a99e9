package ledger

import (
	"database/sql"
	"fmt"
	"time"
)

const launchColumns = `id, pass, category, shot_id, slate, quality, background, command,
    log_path, pid, session_id, started_at, finished_at, exit_code, error_message`

type scanner interface {
	Scan(dest ...any) error
}

func scanLaunch(row scanner) (*Launch, error) {
	var (
		launch     Launch
		pass       string
		background int
		logPath    sql.NullString
		pid        sql.NullInt64
		sessionID  sql.NullString
		startedAt  string
		finishedAt sql.NullString
		exitCode   sql.NullInt64
		errText    sql.NullString
	)
	if err := row.Scan(
		&launch.ID, &pass, &launch.Category, &launch.ShotID, &launch.Slate, &launch.Quality,
		&background, &launch.Command, &logPath, &pid, &sessionID, &startedAt,
		&finishedAt, &exitCode, &errText,
	); err != nil {
		return nil, err
	}
	launch.Pass = Pass(pass)
	launch.Background = background != 0
	launch.LogPath = logPath.String
	launch.PID = int(pid.Int64)
	launch.SessionID = sessionID.String
	launch.Error = errText.String

	started, err := time.Parse(time.RFC3339Nano, startedAt)
	if err != nil {
		return nil, fmt.Errorf("parse started_at: %w", err)
	}
	launch.StartedAt = started
	if finishedAt.Valid {
		finished, err := time.Parse(time.RFC3339Nano, finishedAt.String)
		if err != nil {
			return nil, fmt.Errorf("parse finished_at: %w", err)
		}
		launch.FinishedAt = &finished
	}
	if exitCode.Valid {
		code := int(exitCode.Int64)
		launch.ExitCode = &code
	}
	return &launch, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nullableInt(value int) any {
	if value == 0 {
		return nil
	}
	return value
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}

// timeLayout is fixed width so lexical ORDER BY matches chronological order.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"
