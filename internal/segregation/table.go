// Package segregation provides the in-memory presence/absence table for a
// multi-sample segregation dataset and the raw 2x2 contingency counting
// between pairs of genomic windows.
package segregation

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a coordinate or chromosome does not
// correspond to any known window.
var ErrNotFound = errors.New("window not found")

// Window is a fixed genomic interval covered by the segregation table.
// Windows are ordered along the genome; their position in that order is
// the integer index used by the frequency cache.
type Window struct {
	Chrom string
	Start int64
	Stop  int64
}

// ContingencyCount is the 2x2 co-segregation tally for one window pair,
// laid out as [[both, onlyA], [onlyB, neither]].
type ContingencyCount struct {
	Both    int64
	OnlyA   int64
	OnlyB   int64
	Neither int64
}

// Sum returns the total of all four cells. A zero sum marks an
// uncomputed cell in the frequency cache.
func (c ContingencyCount) Sum() int64 {
	return c.Both + c.OnlyA + c.OnlyB + c.Neither
}

// Transpose swaps the OnlyA and OnlyB cells, relating Count(i, j) to
// Count(j, i).
func (c ContingencyCount) Transpose() ContingencyCount {
	return ContingencyCount{Both: c.Both, OnlyA: c.OnlyB, OnlyB: c.OnlyA, Neither: c.Neither}
}

type coordKey struct {
	chrom string
	start int64
}

// Table is a read-only presence/absence table: ordered windows (rows)
// by sample identifiers (columns). Row order defines the window index
// space used by the cache and all coordinate lookups.
type Table struct {
	windows     []Window
	samples     []string
	presence    [][]bool // presence[window][sample]
	byCoord     map[coordKey]int
	chromSpans  map[string][2]int
	pseudocount int64
}

// NewTable builds a table from parsed windows, sample names and a
// presence matrix indexed [window][sample]. The window slice order is
// preserved and becomes the index space.
func NewTable(windows []Window, samples []string, presence [][]bool, pseudocount int64) (*Table, error) {
	if len(presence) != len(windows) {
		return nil, fmt.Errorf("presence rows (%d) do not match windows (%d)", len(presence), len(windows))
	}
	for i, row := range presence {
		if len(row) != len(samples) {
			return nil, fmt.Errorf("presence row %d has %d cells, want %d", i, len(row), len(samples))
		}
	}

	t := &Table{
		windows:     windows,
		samples:     samples,
		presence:    presence,
		byCoord:     make(map[coordKey]int, len(windows)),
		chromSpans:  make(map[string][2]int),
		pseudocount: pseudocount,
	}

	for i, w := range windows {
		t.byCoord[coordKey{w.Chrom, w.Start}] = i
		span, ok := t.chromSpans[w.Chrom]
		if !ok {
			t.chromSpans[w.Chrom] = [2]int{i, i + 1}
			continue
		}
		if i+1 > span[1] {
			span[1] = i + 1
		}
		t.chromSpans[w.Chrom] = span
	}

	return t, nil
}

// NumWindows returns the number of windows (the index space size).
func (t *Table) NumWindows() int { return len(t.windows) }

// NumSamples returns the number of samples.
func (t *Table) NumSamples() int { return len(t.samples) }

// Pseudocount returns the constant added to every contingency cell.
func (t *Table) Pseudocount() int64 { return t.pseudocount }

// Windows returns all windows in index order.
func (t *Table) Windows() []Window { return t.windows }

// WindowRange returns the windows for a half-open index range, used as
// axis labels by matrix writers.
func (t *Table) WindowRange(lo, hi int) []Window { return t.windows[lo:hi] }

// Samples returns the sample identifiers in column order.
func (t *Table) Samples() []string { return t.samples }

// Present reports whether window i was detected in sample s.
func (t *Table) Present(i, s int) bool { return t.presence[i][s] }

// Count tallies the 2x2 contingency counts for window pair (i, j)
// across all samples and adds the pseudocount to every cell.
// Count(i, j) equals Count(j, i) with OnlyA and OnlyB swapped.
func (t *Table) Count(i, j int) ContingencyCount {
	var c ContingencyCount
	rowA, rowB := t.presence[i], t.presence[j]
	for s := range rowA {
		switch {
		case rowA[s] && rowB[s]:
			c.Both++
		case rowA[s]:
			c.OnlyA++
		case rowB[s]:
			c.OnlyB++
		default:
			c.Neither++
		}
	}
	c.Both += t.pseudocount
	c.OnlyA += t.pseudocount
	c.OnlyB += t.pseudocount
	c.Neither += t.pseudocount
	return c
}

// ResolveCoordinate maps a (chromosome, start) coordinate to its window
// index. Returns ErrNotFound if the coordinate is not a known window
// boundary.
func (t *Table) ResolveCoordinate(chrom string, start int64) (int, error) {
	idx, ok := t.byCoord[coordKey{chrom, start}]
	if !ok {
		return 0, fmt.Errorf("coordinate %s:%d: %w", chrom, start, ErrNotFound)
	}
	return idx, nil
}

// ChromosomeSpan returns the half-open window index range covered by a
// chromosome.
func (t *Table) ChromosomeSpan(chrom string) (lo, hi int, err error) {
	span, ok := t.chromSpans[chrom]
	if !ok {
		return 0, 0, fmt.Errorf("chromosome %s: %w", chrom, ErrNotFound)
	}
	return span[0], span[1], nil
}

// Chromosomes returns the chromosomes present in the table, in first
// appearance order.
func (t *Table) Chromosomes() []string {
	var chroms []string
	seen := make(map[string]bool)
	for _, w := range t.windows {
		if !seen[w.Chrom] {
			seen[w.Chrom] = true
			chroms = append(chroms, w.Chrom)
		}
	}
	return chroms
}
