package recorder

import (
	"context"
	"fmt"
	"sync"

	_ "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// Supported drivers.
const (
	DriverMySQL  = "mysql"
	DriverSQLite = "sqlite"
)

func init() {
	sqlx.BindDriver(DriverSQLite, sqlx.QUESTION)
}

// SQL persists bookkeeping to MySQL or SQLite through sqlx.
type SQL struct {
	db *sqlx.DB
	mu sync.Mutex
}

var _ Recorder = (*SQL)(nil)

type runRow struct {
	ID        string `db:"id"`
	Kind      string `db:"kind"`
	StartedAt int64  `db:"started_at"`
}

type sampleRow struct {
	RunID      string `db:"run_id"`
	Path       string `db:"path"`
	Output     string `db:"output"`
	OK         bool   `db:"ok"`
	Message    string `db:"message"`
	Events     int    `db:"events"`
	Skipped    int    `db:"skipped"`
	DurationMS int64  `db:"duration_ms"`
}

type efficiencyRow struct {
	RunID  string  `db:"run_id"`
	Path   string  `db:"path"`
	Width  float64 `db:"width"`
	Region string  `db:"region"`
	Eff    float64 `db:"eff"`
	Err    float64 `db:"err"`
}

// Open connects to the bookkeeping database and creates missing tables.
func Open(ctx context.Context, driver, dsn string) (*SQL, error) {
	if driver != DriverMySQL && driver != DriverSQLite {
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, driver)
	}
	if dsn == "" {
		return nil, ErrNoDSN
	}

	db, err := sqlx.ConnectContext(ctx, driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", driver, err)
	}

	if driver == DriverSQLite {
		if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
			db.Close()
			return nil, fmt.Errorf("set WAL mode: %w", err)
		}
	}

	r := &SQL{db: db}
	if err := r.migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return r, nil
}

// migrate creates the bookkeeping tables. The DDL is valid for MySQL and SQLite.
func (r *SQL) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id          VARCHAR(36) NOT NULL PRIMARY KEY,
			kind        VARCHAR(16) NOT NULL,
			started_at  BIGINT NOT NULL,
			finished_at BIGINT,
			samples     INTEGER,
			failed      INTEGER
		)`,
		`CREATE TABLE IF NOT EXISTS samples (
			run_id      VARCHAR(36) NOT NULL,
			path        VARCHAR(512) NOT NULL,
			output      VARCHAR(512),
			ok          BOOLEAN NOT NULL,
			message     TEXT,
			events      INTEGER,
			skipped     INTEGER,
			duration_ms BIGINT
		)`,
		`CREATE TABLE IF NOT EXISTS efficiencies (
			run_id VARCHAR(36) NOT NULL,
			path   VARCHAR(512) NOT NULL,
			width  DOUBLE NOT NULL,
			region VARCHAR(64) NOT NULL,
			eff    DOUBLE NOT NULL,
			err    DOUBLE NOT NULL
		)`,
	}

	for _, s := range stmts {
		if _, err := r.db.ExecContext(ctx, s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

// StartRun inserts the run header.
func (r *SQL) StartRun(ctx context.Context, run Run) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.NamedExecContext(ctx,
		`INSERT INTO runs (id, kind, started_at) VALUES (:id, :kind, :started_at)`,
		runRow{ID: run.ID.String(), Kind: run.Kind, StartedAt: run.Started.Unix()},
	)
	return err
}

// RecordSample stores the outcome of one sample and, when it succeeded, one
// row per width and region, in a single transaction.
func (r *SQL) RecordSample(ctx context.Context, s *Sample) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	row := sampleRow{
		RunID:      s.RunID.String(),
		Path:       s.Path,
		Output:     s.Output,
		OK:         s.OK,
		DurationMS: s.Duration.Milliseconds(),
	}
	if s.Err != nil {
		row.Message = s.Err.Error()
	}
	if s.Table != nil {
		row.Events, row.Skipped = s.Table.Events, s.Table.Skipped
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.NamedExecContext(ctx,
		`INSERT INTO samples (run_id, path, output, ok, message, events, skipped, duration_ms)
		VALUES (:run_id, :path, :output, :ok, :message, :events, :skipped, :duration_ms)`,
		row,
	); err != nil {
		return fmt.Errorf("insert sample: %w", err)
	}

	if s.Table != nil {
		for _, tr := range s.Table.Rows {
			for j, region := range s.Table.Regions {
				if _, err := tx.NamedExecContext(ctx,
					`INSERT INTO efficiencies (run_id, path, width, region, eff, err)
					VALUES (:run_id, :path, :width, :region, :eff, :err)`,
					efficiencyRow{RunID: row.RunID, Path: s.Path, Width: tr.Width, Region: region, Eff: tr.Effs[j], Err: tr.Errs[j]},
				); err != nil {
					return fmt.Errorf("insert efficiency: %w", err)
				}
			}
		}
	}
	return tx.Commit()
}

// FinishRun stamps the run with its end time and counts.
func (r *SQL) FinishRun(ctx context.Context, sum Summary) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.ExecContext(ctx,
		r.db.Rebind(`UPDATE runs SET finished_at = ?, samples = ?, failed = ? WHERE id = ?`),
		sum.Finished.Unix(), sum.Samples, sum.Failed, sum.RunID.String(),
	)
	return err
}

// DB exposes the connection for queries outside the recorder.
func (r *SQL) DB() *sqlx.DB {
	return r.db
}

// Close releases the connection.
func (r *SQL) Close() error {
	return r.db.Close()
}
