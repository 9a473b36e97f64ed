package database

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/leca/ci-smoke/internal/model"
)

// Fixed-width so that string order matches time order.
const timeFormat = "2006-01-02T15:04:05.000000000Z"

// Compile-time check that SQLiteDB implements Database.
var _ Database = (*SQLiteDB)(nil)

// SQLiteDB implements Database backed by SQLite.
type SQLiteDB struct {
	db *sql.DB
}

// NewSQLiteDB opens (or creates) an SQLite database at dsn and runs migrations.
// For in-memory use pass "file::memory:?cache=shared".
func NewSQLiteDB(dsn string) (*SQLiteDB, error) {
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	dsn += sep + "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	if !strings.Contains(dsn, ":memory:") && !strings.Contains(dsn, "mode=memory") {
		dsn += "&_pragma=journal_mode(WAL)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteDB{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLiteDB) Close() error {
	return s.db.Close()
}

func (s *SQLiteDB) CreateRun(run *model.Run) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	sum := run.Summary()
	_, err = tx.Exec(`
		INSERT INTO runs (id, suite, target, started, finished, interrupted, passed, failed, errors, skipped)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Suite, run.Target,
		formatTime(run.Started), formatTime(run.Finished), boolToInt(run.Interrupted),
		sum.Passed, sum.Failed, sum.Errors, sum.Skipped,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO results (run_id, seq, name, status, message, duration_ns, tags)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare result insert: %w", err)
	}
	defer stmt.Close()

	for i, res := range run.Results {
		tags, err := json.Marshal(res.Tags)
		if err != nil {
			return fmt.Errorf("marshal tags: %w", err)
		}
		if res.Tags == nil {
			tags = []byte("[]")
		}
		if _, err := stmt.Exec(run.ID, i, res.Name, string(res.Status), res.Message, int64(res.Duration), string(tags)); err != nil {
			return fmt.Errorf("insert result %s: %w", res.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (s *SQLiteDB) GetRun(id string) (*model.Run, error) {
	row := s.db.QueryRow(`
		SELECT id, suite, target, started, finished, interrupted
		FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if run.Results, err = s.listResults(run.ID); err != nil {
		return nil, err
	}
	return run, nil
}

func (s *SQLiteDB) ListRuns(limit int) ([]*model.Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(`
		SELECT id, suite, target, started, finished, interrupted
		FROM runs
		ORDER BY started DESC, id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}

	var runs []*model.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	for _, run := range runs {
		if run.Results, err = s.listResults(run.ID); err != nil {
			return nil, err
		}
	}
	return runs, nil
}

func (s *SQLiteDB) PruneRuns(keep int) (int, error) {
	if keep < 0 {
		keep = 0
	}
	res, err := s.db.Exec(`
		DELETE FROM runs WHERE id NOT IN (
			SELECT id FROM runs ORDER BY started DESC, id DESC LIMIT ?
		)`, keep)
	if err != nil {
		return 0, fmt.Errorf("prune runs: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

func (s *SQLiteDB) listResults(runID string) ([]model.Result, error) {
	rows, err := s.db.Query(`
		SELECT name, status, message, duration_ns, tags
		FROM results WHERE run_id = ?
		ORDER BY seq ASC`, runID)
	if err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}
	defer rows.Close()

	results := []model.Result{}
	for rows.Next() {
		var (
			res      model.Result
			status   string
			duration int64
			tags     string
		)
		if err := rows.Scan(&res.Name, &status, &res.Message, &duration, &tags); err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		res.Status = model.Status(status)
		res.Duration = time.Duration(duration)
		if err := json.Unmarshal([]byte(tags), &res.Tags); err != nil {
			return nil, fmt.Errorf("unmarshal tags: %w", err)
		}
		if len(res.Tags) == 0 {
			res.Tags = nil
		}
		results = append(results, res)
	}
	return results, rows.Err()
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

type scannable interface {
	Scan(dest ...any) error
}

func scanRun(row scannable) (*model.Run, error) {
	run := &model.Run{}
	var started, finished string
	var interrupted int

	err := row.Scan(&run.ID, &run.Suite, &run.Target, &started, &finished, &interrupted)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan run: %w", err)
	}
	run.Interrupted = interrupted != 0
	if run.Started, err = time.Parse(timeFormat, started); err != nil {
		return nil, fmt.Errorf("parse started: %w", err)
	}
	if run.Finished, err = time.Parse(timeFormat, finished); err != nil {
		return nil, fmt.Errorf("parse finished: %w", err)
	}
	return run, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeFormat)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
