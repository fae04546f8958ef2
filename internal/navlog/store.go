// Package navlog records simulation runs: one row per run and one row per
// agent per tick, in a SQLite database whose schema is managed by embedded
// migrations.
package navlog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/banshee-data/localnav/internal/timeutil"
)

// ErrRunNotFound is returned when a run id is unknown.
var ErrRunNotFound = errors.New("run not found")

// Tick is one agent's outcome for one simulation tick.
type Tick struct {
	Tick        int
	Agent       string
	X, Y        float64
	Heading     float64
	Forward     float64
	Turn        float64
	TurnAngle   float64
	Safe        bool
	Carrying    bool
	Colour      int // -1 when not carrying
	Clusters    int
	RawClusters int
}

// Run describes a recorded run.
type Run struct {
	ID         string
	Name       string
	Seed       uint64
	StartedAt  time.Time
	FinishedAt *time.Time
	Ticks      int
}

// Store is a run database.
type Store struct {
	db    *sql.DB
	clock timeutil.Clock
}

// Open opens (creating if needed) the database at path and migrates it to
// the latest schema.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	// SQLite allows one writer; a single connection also keeps pragmas
	// in effect for every statement.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec("PRAGMA foreign_keys = ON; PRAGMA busy_timeout = 5000;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("configure %s: %w", path, err)
	}

	s := &Store{db: db, clock: timeutil.RealClock{}}
	if err := s.MigrateUp(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// SetClock replaces the clock used for run timestamps.
func (s *Store) SetClock(c timeutil.Clock) { s.clock = c }

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// CreateRun inserts a new run and returns its id.
func (s *Store) CreateRun(ctx context.Context, name string, seed uint64) (string, error) {
	id := uuid.NewString()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (run_id, name, seed, started_at) VALUES (?, ?, ?, ?)`,
		id, name, int64(seed), s.clock.Now().UTC())
	if err != nil {
		return "", fmt.Errorf("create run: %w", err)
	}
	return id, nil
}

// FinishRun stamps the run's finish time and tick count.
func (s *Store) FinishRun(ctx context.Context, runID string, ticks int) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET finished_at = ?, ticks = ? WHERE run_id = ?`,
		s.clock.Now().UTC(), ticks, runID)
	if err != nil {
		return fmt.Errorf("finish run %s: %w", runID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("finish run %s: %w", runID, ErrRunNotFound)
	}
	return nil
}

// GetRun returns the run with the given id.
func (s *Store) GetRun(ctx context.Context, runID string) (Run, error) {
	var (
		r        Run
		seed     int64
		finished sql.NullTime
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT run_id, name, seed, started_at, finished_at, ticks FROM runs WHERE run_id = ?`,
		runID).Scan(&r.ID, &r.Name, &seed, &r.StartedAt, &finished, &r.Ticks)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("get run %s: %w", runID, ErrRunNotFound)
	}
	if err != nil {
		return Run{}, fmt.Errorf("get run %s: %w", runID, err)
	}
	r.Seed = uint64(seed)
	if finished.Valid {
		t := finished.Time
		r.FinishedAt = &t
	}
	return r, nil
}

// RecordTicks inserts one simulation tick's rows for runID in a single
// transaction.
func (s *Store) RecordTicks(ctx context.Context, runID string, ticks []Tick) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("record ticks: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO ticks (
		run_id, tick, agent, x, y, heading, forward, turn, turn_angle,
		safe, carrying, colour, clusters, raw_clusters
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("record ticks: %w", err)
	}
	defer stmt.Close()

	for _, t := range ticks {
		if _, err = stmt.ExecContext(ctx, runID, t.Tick, t.Agent, t.X, t.Y, t.Heading,
			t.Forward, t.Turn, t.TurnAngle, t.Safe, t.Carrying, t.Colour,
			t.Clusters, t.RawClusters); err != nil {
			return fmt.Errorf("record tick %d for %s: %w", t.Tick, t.Agent, err)
		}
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("record ticks: %w", err)
	}
	return nil
}

// Ticks returns every tick recorded for runID, ordered by tick then agent.
func (s *Store) Ticks(ctx context.Context, runID string) ([]Tick, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT tick, agent, x, y, heading, forward, turn,
		turn_angle, safe, carrying, colour, clusters, raw_clusters
		FROM ticks WHERE run_id = ? ORDER BY tick, agent`, runID)
	if err != nil {
		return nil, fmt.Errorf("query ticks: %w", err)
	}
	defer rows.Close()

	var out []Tick
	for rows.Next() {
		var t Tick
		if err := rows.Scan(&t.Tick, &t.Agent, &t.X, &t.Y, &t.Heading, &t.Forward, &t.Turn,
			&t.TurnAngle, &t.Safe, &t.Carrying, &t.Colour, &t.Clusters, &t.RawClusters); err != nil {
			return nil, fmt.Errorf("scan tick: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// Recorder binds a Store to one run.
type Recorder struct {
	store *Store
	runID string
}

// Recorder returns a Recorder that writes ticks to runID.
func (s *Store) Recorder(runID string) *Recorder {
	return &Recorder{store: s, runID: runID}
}

// RunID returns the bound run id.
func (r *Recorder) RunID() string { return r.runID }

// Record writes one simulation tick.
func (r *Recorder) Record(ctx context.Context, ticks []Tick) error {
	return r.store.RecordTicks(ctx, r.runID, ticks)
}
