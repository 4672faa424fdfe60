// Package store persists one segregation experiment in a DuckDB file:
// the experimental data (windows, samples, presence calls) written once
// at creation, and the mutable frequency matrix that caches computed
// contingency counts.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strconv"

	_ "github.com/marcboeker/go-duckdb"

	"github.com/nroberts67/gamtools-dev/internal/segregation"
)

var (
	// ErrAlreadyExists is returned when creating a store at a path that
	// already holds data.
	ErrAlreadyExists = errors.New("store already exists")

	// ErrNotFound is returned when opening a store that does not exist.
	ErrNotFound = errors.New("store not found")
)

// Store owns the database handle for one experiment. Exactly one Store
// should hold a writable handle to a given file at a time.
type Store struct {
	db        *sql.DB
	path      string
	noWindows int
}

const schema = `
	CREATE TABLE IF NOT EXISTS meta (
		key VARCHAR PRIMARY KEY,
		value VARCHAR
	);

	CREATE TABLE IF NOT EXISTS windows (
		idx INTEGER PRIMARY KEY,
		chrom VARCHAR,
		start BIGINT,
		stop BIGINT
	);

	CREATE TABLE IF NOT EXISTS samples (
		idx INTEGER PRIMARY KEY,
		name VARCHAR
	);

	CREATE TABLE IF NOT EXISTS segmentation (
		window_idx INTEGER,
		sample_idx INTEGER,
		present BOOLEAN,
		PRIMARY KEY (window_idx, sample_idx)
	);

	CREATE TABLE IF NOT EXISTS frequencies (
		row_idx INTEGER,
		col_idx INTEGER,
		n_both BIGINT,
		n_only_a BIGINT,
		n_only_b BIGINT,
		n_neither BIGINT,
		PRIMARY KEY (row_idx, col_idx)
	);
`

// Create creates a new store at path and writes the experimental data
// from the given table. The path must not already exist; an existing
// store is never overwritten.
func Create(path string, table *segregation.Table) (*Store, error) {
	if _, err := os.Stat(path); err == nil {
		return nil, fmt.Errorf("%s: %w", path, ErrAlreadyExists)
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("stat store: %w", err)
	}

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("create duckdb store: %w", err)
	}

	s := &Store{db: db, path: path, noWindows: table.NumWindows()}
	if err := s.writeExperimentalData(table); err != nil {
		db.Close()
		os.Remove(path)
		return nil, err
	}
	return s, nil
}

// Open attaches to an existing store. Returns ErrNotFound if no store
// exists at path.
func Open(path string) (*Store, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s: %w", path, ErrNotFound)
		}
		return nil, fmt.Errorf("stat store: %w", err)
	}

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("open duckdb store: %w", err)
	}

	s := &Store{db: db, path: path}
	if err := s.readMeta(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the database handle. The Store must not be used after
// Close.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the store's file path.
func (s *Store) Path() string { return s.path }

// NumWindows returns the window count the store was sized to.
func (s *Store) NumWindows() int { return s.noWindows }

// Frequencies returns the frequency matrix backed by this store.
func (s *Store) Frequencies() *FrequencyMatrix {
	return &FrequencyMatrix{db: s.db, noWindows: s.noWindows}
}

func (s *Store) writeExperimentalData(table *segregation.Table) error {
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin experimental data write: %w", err)
	}
	defer tx.Rollback()

	for _, kv := range [][2]string{
		{"no_windows", strconv.Itoa(table.NumWindows())},
		{"pseudocount", strconv.FormatInt(table.Pseudocount(), 10)},
	} {
		if _, err := tx.Exec(`INSERT INTO meta (key, value) VALUES (?, ?)`, kv[0], kv[1]); err != nil {
			return fmt.Errorf("insert meta %s: %w", kv[0], err)
		}
	}

	for i, w := range table.Windows() {
		if _, err := tx.Exec(`INSERT INTO windows (idx, chrom, start, stop) VALUES (?, ?, ?, ?)`,
			i, w.Chrom, w.Start, w.Stop); err != nil {
			return fmt.Errorf("insert window %d: %w", i, err)
		}
	}

	for i, name := range table.Samples() {
		if _, err := tx.Exec(`INSERT INTO samples (idx, name) VALUES (?, ?)`, i, name); err != nil {
			return fmt.Errorf("insert sample %d: %w", i, err)
		}
	}

	stmt, err := tx.Prepare(`INSERT INTO segmentation (window_idx, sample_idx, present) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare segmentation insert: %w", err)
	}
	defer stmt.Close()

	for i := 0; i < table.NumWindows(); i++ {
		for j := 0; j < table.NumSamples(); j++ {
			if _, err := stmt.Exec(i, j, table.Present(i, j)); err != nil {
				return fmt.Errorf("insert segmentation (%d, %d): %w", i, j, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit experimental data: %w", err)
	}
	return nil
}

func (s *Store) readMeta() error {
	var value string
	err := s.db.QueryRow(`SELECT value FROM meta WHERE key = 'no_windows'`).Scan(&value)
	if err != nil {
		return fmt.Errorf("read store meta: %w", err)
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("parse no_windows %q: %w", value, err)
	}
	s.noWindows = n
	return nil
}

// LoadTable rebuilds the in-memory segregation table from the
// experimental data record group.
func (s *Store) LoadTable() (*segregation.Table, error) {
	var pseudocount int64
	var value string
	if err := s.db.QueryRow(`SELECT value FROM meta WHERE key = 'pseudocount'`).Scan(&value); err != nil {
		return nil, fmt.Errorf("read pseudocount: %w", err)
	}
	pseudocount, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("parse pseudocount %q: %w", value, err)
	}

	windows, err := s.loadWindows()
	if err != nil {
		return nil, err
	}

	samples, err := s.loadSamples()
	if err != nil {
		return nil, err
	}

	presence := make([][]bool, len(windows))
	for i := range presence {
		presence[i] = make([]bool, len(samples))
	}

	rows, err := s.db.Query(`SELECT window_idx, sample_idx, present FROM segmentation`)
	if err != nil {
		return nil, fmt.Errorf("query segmentation: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var wi, si int
		var present bool
		if err := rows.Scan(&wi, &si, &present); err != nil {
			return nil, fmt.Errorf("scan segmentation: %w", err)
		}
		presence[wi][si] = present
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read segmentation: %w", err)
	}

	return segregation.NewTable(windows, samples, presence, pseudocount)
}

func (s *Store) loadWindows() ([]segregation.Window, error) {
	rows, err := s.db.Query(`SELECT chrom, start, stop FROM windows ORDER BY idx`)
	if err != nil {
		return nil, fmt.Errorf("query windows: %w", err)
	}
	defer rows.Close()

	var windows []segregation.Window
	for rows.Next() {
		var w segregation.Window
		if err := rows.Scan(&w.Chrom, &w.Start, &w.Stop); err != nil {
			return nil, fmt.Errorf("scan window: %w", err)
		}
		windows = append(windows, w)
	}
	return windows, rows.Err()
}

func (s *Store) loadSamples() ([]string, error) {
	rows, err := s.db.Query(`SELECT name FROM samples ORDER BY idx`)
	if err != nil {
		return nil, fmt.Errorf("query samples: %w", err)
	}
	defer rows.Close()

	var samples []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan sample: %w", err)
		}
		samples = append(samples, name)
	}
	return samples, rows.Err()
}
