package patternstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/cbegin/subharmonicon-go/internal/sequencer"
)

var ErrNotFound = errors.New("pattern not found")

// Entry is one stored pattern.
type Entry struct {
	Name         string
	Pattern      sequencer.Pattern
	StepDuration time.Duration
	UpdatedAt    time.Time
}

// Store keeps named sequencer patterns in a SQLite database.
type Store struct {
	db *sql.DB
}

// Open opens or creates the database at path. ":memory:" gives a private
// in-memory bank.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open pattern db: %w", err)
	}
	// One connection keeps ":memory:" databases alive and serializes writers.
	db.SetMaxOpenConns(1)
	if err := createTables(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func createTables(db *sql.DB) error {
	const createPatterns = `
    CREATE TABLE IF NOT EXISTS patterns (
        name TEXT PRIMARY KEY,
        steps TEXT NOT NULL,
        step_ms INTEGER NOT NULL,
        updated_at INTEGER NOT NULL
    );
    `
	if _, err := db.Exec(createPatterns); err != nil {
		return fmt.Errorf("create patterns table: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Save inserts or replaces the pattern stored under name.
func (s *Store) Save(ctx context.Context, name string, p sequencer.Pattern, stepDuration time.Duration) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return errors.New("pattern name is empty")
	}
	steps, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode pattern %q: %w", name, err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO patterns (name, steps, step_ms, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET steps = excluded.steps, step_ms = excluded.step_ms, updated_at = excluded.updated_at
	`, name, string(steps), stepDuration.Milliseconds(), time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("save pattern %q: %w", name, err)
	}
	return nil
}

// Load returns the pattern stored under name, or ErrNotFound.
func (s *Store) Load(ctx context.Context, name string) (Entry, error) {
	row := s.db.QueryRowContext(ctx, "SELECT name, steps, step_ms, updated_at FROM patterns WHERE name = ?", strings.TrimSpace(name))
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	if err != nil {
		return Entry{}, fmt.Errorf("load pattern %q: %w", name, err)
	}
	return e, nil
}

// List returns every stored pattern ordered by name.
func (s *Store) List(ctx context.Context) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT name, steps, step_ms, updated_at FROM patterns ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("list patterns: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("list patterns: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Delete removes the pattern stored under name, or returns ErrNotFound.
func (s *Store) Delete(ctx context.Context, name string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM patterns WHERE name = ?", strings.TrimSpace(name))
	if err != nil {
		return fmt.Errorf("delete pattern %q: %w", name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete pattern %q: %w", name, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(sc scanner) (Entry, error) {
	var (
		e       Entry
		steps   string
		stepMS  int64
		updated int64
	)
	if err := sc.Scan(&e.Name, &steps, &stepMS, &updated); err != nil {
		return Entry{}, err
	}
	if err := json.Unmarshal([]byte(steps), &e.Pattern); err != nil {
		return Entry{}, fmt.Errorf("decode steps of %q: %w", e.Name, err)
	}
	e.StepDuration = time.Duration(stepMS) * time.Millisecond
	e.UpdatedAt = time.UnixMilli(updated)
	return e, nil
}
