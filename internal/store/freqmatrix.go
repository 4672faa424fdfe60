package store

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/nroberts67/gamtools-dev/internal/segregation"
)

// ErrRange is returned when a requested region falls outside the window
// index space.
var ErrRange = errors.New("region out of range")

// Range is a half-open interval [Start, Stop) over window indices.
type Range struct {
	Start int
	Stop  int
}

// Len returns the number of indices covered by the range.
func (r Range) Len() int { return r.Stop - r.Start }

// FrequencyMatrix is the persisted (n, n, 2, 2) contingency-count
// cache. Cells are zero-filled logically: a (row, col) key with no
// stored record reads as four zero counts, and a cell counts as cached
// iff its four counts sum nonzero. A legitimately all-zero count is
// therefore indistinguishable from an uncomputed one; callers that need
// the distinction use a nonzero pseudocount.
type FrequencyMatrix struct {
	db        *sql.DB
	noWindows int
}

// NumWindows returns the extent of both matrix axes.
func (m *FrequencyMatrix) NumWindows() int { return m.noWindows }

func (m *FrequencyMatrix) validate(rows, cols Range) error {
	for _, r := range []Range{rows, cols} {
		if r.Start < 0 || r.Start > r.Stop || r.Stop > m.noWindows {
			return fmt.Errorf("[%d, %d) outside [0, %d): %w", r.Start, r.Stop, m.noWindows, ErrRange)
		}
	}
	return nil
}

// IsRegionCached reports whether every cell in the rectangular region
// holds a nonzero-sum count. A single empty cell anywhere in the region
// makes the entire region a miss.
func (m *FrequencyMatrix) IsRegionCached(rows, cols Range) (bool, error) {
	if err := m.validate(rows, cols); err != nil {
		return false, err
	}

	var filled int
	err := m.db.QueryRow(`
		SELECT COUNT(*) FROM frequencies
		WHERE row_idx >= ? AND row_idx < ? AND col_idx >= ? AND col_idx < ?
		  AND n_both + n_only_a + n_only_b + n_neither <> 0
	`, rows.Start, rows.Stop, cols.Start, cols.Stop).Scan(&filled)
	if err != nil {
		return false, fmt.Errorf("count cached cells: %w", err)
	}
	return filled == rows.Len()*cols.Len(), nil
}

// ReadRegion returns the stored block for a region, ordered
// [row][col]. A region with any uncomputed cell is a miss: ok is false
// and the block is nil. A miss is not an error.
func (m *FrequencyMatrix) ReadRegion(rows, cols Range) ([][]segregation.ContingencyCount, bool, error) {
	cached, err := m.IsRegionCached(rows, cols)
	if err != nil {
		return nil, false, err
	}
	if !cached {
		return nil, false, nil
	}

	block := make([][]segregation.ContingencyCount, rows.Len())
	for i := range block {
		block[i] = make([]segregation.ContingencyCount, cols.Len())
	}

	result, err := m.db.Query(`
		SELECT row_idx, col_idx, n_both, n_only_a, n_only_b, n_neither FROM frequencies
		WHERE row_idx >= ? AND row_idx < ? AND col_idx >= ? AND col_idx < ?
	`, rows.Start, rows.Stop, cols.Start, cols.Stop)
	if err != nil {
		return nil, false, fmt.Errorf("query frequencies: %w", err)
	}
	defer result.Close()

	for result.Next() {
		var r, c int
		var count segregation.ContingencyCount
		if err := result.Scan(&r, &c, &count.Both, &count.OnlyA, &count.OnlyB, &count.Neither); err != nil {
			return nil, false, fmt.Errorf("scan frequency cell: %w", err)
		}
		block[r-rows.Start][c-cols.Start] = count
	}
	if err := result.Err(); err != nil {
		return nil, false, fmt.Errorf("read frequencies: %w", err)
	}
	return block, true, nil
}

// WriteRegion overwrites the block for a region unconditionally. Every
// cell is upserted in a single transaction, so a concurrent reader sees
// the fully old or fully new block, never a partial write.
func (m *FrequencyMatrix) WriteRegion(rows, cols Range, block [][]segregation.ContingencyCount) error {
	if err := m.validate(rows, cols); err != nil {
		return err
	}
	if len(block) != rows.Len() {
		return fmt.Errorf("block has %d rows, region has %d: %w", len(block), rows.Len(), ErrRange)
	}
	for i, row := range block {
		if len(row) != cols.Len() {
			return fmt.Errorf("block row %d has %d cells, region has %d: %w", i, len(row), cols.Len(), ErrRange)
		}
	}

	tx, err := m.db.Begin()
	if err != nil {
		return fmt.Errorf("begin region write: %w", err)
	}
	defer tx.Rollback()

	// The block covers every key in the region, so an upsert replaces
	// the old block completely. DuckDB rejects deleting and reinserting
	// the same primary key inside one transaction.
	stmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO frequencies (row_idx, col_idx, n_both, n_only_a, n_only_b, n_neither)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare frequency insert: %w", err)
	}
	defer stmt.Close()

	for i, row := range block {
		for j, count := range row {
			if _, err := stmt.Exec(rows.Start+i, cols.Start+j,
				count.Both, count.OnlyA, count.OnlyB, count.Neither); err != nil {
				return fmt.Errorf("insert frequency cell (%d, %d): %w", rows.Start+i, cols.Start+j, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit region write: %w", err)
	}
	return nil
}
