package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// Store manages launch history backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open creates or connects to the ledger database at path.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("ensure ledger directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Path returns the database file path.
func (s *Store) Path() string { return s.path }

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// RecordStart inserts a launch row.
func (s *Store) RecordStart(ctx context.Context, launch Launch) error {
	if strings.TrimSpace(launch.ID) == "" {
		return errors.New("launch id required")
	}
	started := launch.StartedAt
	if started.IsZero() {
		started = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO launches (
            id, pass, category, shot_id, slate, quality, background,
            command, log_path, pid, session_id, started_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		launch.ID,
		string(launch.Pass),
		launch.Category,
		launch.ShotID,
		launch.Slate,
		launch.Quality,
		boolToInt(launch.Background),
		launch.Command,
		nullableString(launch.LogPath),
		nullableInt(launch.PID),
		nullableString(launch.SessionID),
		started.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("insert launch: %w", err)
	}
	return nil
}

// RecordPID stores the process id once the subprocess has started.
func (s *Store) RecordPID(ctx context.Context, id string, pid int) error {
	_, err := s.db.ExecContext(ctx, `UPDATE launches SET pid = ? WHERE id = ?`, nullableInt(pid), id)
	if err != nil {
		return fmt.Errorf("record pid: %w", err)
	}
	return nil
}

// RecordFinish completes a launch row.
func (s *Store) RecordFinish(ctx context.Context, id string, finished time.Time, exitCode int, errText string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE launches SET finished_at = ?, exit_code = ?, error_message = ? WHERE id = ?`,
		finished.UTC().Format(timeLayout),
		exitCode,
		nullableString(errText),
		id,
	)
	if err != nil {
		return fmt.Errorf("finish launch: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("finish launch: unknown id %s", id)
	}
	return nil
}

// Get returns a launch by id, or nil when absent.
func (s *Store) Get(ctx context.Context, id string) (*Launch, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+launchColumns+` FROM launches WHERE id = ?`, id)
	launch, err := scanLaunch(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get launch: %w", err)
	}
	return launch, nil
}

// History lists launches newest first.
func (s *Store) History(ctx context.Context, filter Filter) ([]Launch, error) {
	var (
		clauses []string
		args    []any
	)
	if filter.Pass != "" {
		clauses = append(clauses, "pass = ?")
		args = append(args, string(filter.Pass))
	}
	if filter.Category != "" {
		clauses = append(clauses, "category = ?")
		args = append(args, filter.Category)
	}
	if filter.ShotID != "" {
		clauses = append(clauses, "shot_id = ?")
		args = append(args, filter.ShotID)
	}
	query := `SELECT ` + launchColumns + ` FROM launches`
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY started_at DESC, id"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var out []Launch
	for rows.Next() {
		launch, err := scanLaunch(rows)
		if err != nil {
			return nil, fmt.Errorf("scan launch: %w", err)
		}
		out = append(out, *launch)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history: %w", err)
	}
	return out, nil
}

// Running lists launches that have not been reaped.
func (s *Store) Running(ctx context.Context) ([]Launch, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+launchColumns+` FROM launches WHERE finished_at IS NULL ORDER BY started_at`)
	if err != nil {
		return nil, fmt.Errorf("query running: %w", err)
	}
	defer rows.Close()

	var out []Launch
	for rows.Next() {
		launch, err := scanLaunch(rows)
		if err != nil {
			return nil, fmt.Errorf("scan launch: %w", err)
		}
		out = append(out, *launch)
	}
	return out, rows.Err()
}

// Prune deletes finished launches older than cutoff.
func (s *Store) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM launches WHERE finished_at IS NOT NULL AND started_at < ?`,
		cutoff.UTC().Format(timeLayout))
	if err != nil {
		return 0, fmt.Errorf("prune launches: %w", err)
	}
	return res.RowsAffected()
}
