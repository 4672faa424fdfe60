// Package experiment ties the segregation table and the persisted
// frequency cache together: it resolves genomic coordinates to window
// indices, serves contingency-count blocks cache-aside, and applies a
// statistic to produce summary matrices.
package experiment

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"

	"github.com/nroberts67/gamtools-dev/internal/segregation"
	"github.com/nroberts67/gamtools-dev/internal/statistic"
	"github.com/nroberts67/gamtools-dev/internal/store"
)

// ErrClosed is returned by operations on a closed experiment.
var ErrClosed = errors.New("experiment is closed")

// Experiment aggregates one segregation dataset and its frequency
// cache, both backed by a single store file. One Experiment owns the
// store handle; it is safe for concurrent use by multiple goroutines.
type Experiment struct {
	store   *store.Store
	table   *segregation.Table
	freqs   *store.FrequencyMatrix
	logger  *zap.Logger
	workers int

	// mu serializes the cache-miss path: compute plus write-back.
	// Cached reads do not take it.
	mu     sync.Mutex
	closed bool
}

// Open attaches to an existing experiment store.
func Open(path string) (*Experiment, error) {
	s, err := store.Open(path)
	if err != nil {
		return nil, err
	}

	table, err := s.LoadTable()
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("load segregation table: %w", err)
	}

	return &Experiment{
		store:  s,
		table:  table,
		freqs:  s.Frequencies(),
		logger: zap.NewNop(),
	}, nil
}

// CreateFromTable creates a new experiment store from an in-memory
// table, sized to the table's window count, then reopens it for normal
// use. Fails if a store already exists at path.
func CreateFromTable(table *segregation.Table, path string) (*Experiment, error) {
	s, err := store.Create(path, table)
	if err != nil {
		return nil, err
	}
	if err := s.Close(); err != nil {
		return nil, fmt.Errorf("close new store: %w", err)
	}
	return Open(path)
}

// Create parses a multibam segregation file and creates an experiment
// store from it.
func Create(multibamPath, storePath string, pseudocount int64) (*Experiment, error) {
	table, err := segregation.OpenMultibam(multibamPath, pseudocount)
	if err != nil {
		return nil, err
	}
	return CreateFromTable(table, storePath)
}

// Close releases the store handle. Further operations on the
// experiment return ErrClosed.
func (e *Experiment) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil
	}
	e.closed = true
	return e.store.Close()
}

// SetLogger sets the logger for cache events.
func (e *Experiment) SetLogger(l *zap.Logger) { e.logger = l }

// SetWorkers sets the number of goroutines used to compute a block.
// Zero or negative means one worker per CPU.
func (e *Experiment) SetWorkers(n int) { e.workers = n }

// Table returns the underlying segregation table.
func (e *Experiment) Table() *segregation.Table { return e.table }

func (e *Experiment) checkOpen() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ErrClosed
	}
	return nil
}

// ResolveCoordinate maps a (chromosome, start) coordinate to its window
// index.
func (e *Experiment) ResolveCoordinate(chrom string, start int64) (int, error) {
	if err := e.checkOpen(); err != nil {
		return 0, err
	}
	return e.table.ResolveCoordinate(chrom, start)
}

// ResolveRegion maps a genomic interval to the half-open window index
// range it spans: the windows whose start coordinate lies in
// [start, stop). The interval's start must be a known window boundary.
func (e *Experiment) ResolveRegion(chrom string, start, stop int64) (store.Range, error) {
	lo, err := e.ResolveCoordinate(chrom, start)
	if err != nil {
		return store.Range{}, err
	}

	_, chromHi, err := e.table.ChromosomeSpan(chrom)
	if err != nil {
		return store.Range{}, err
	}

	hi := lo
	for _, w := range e.table.WindowRange(lo, chromHi) {
		if w.Start >= stop {
			break
		}
		hi++
	}
	return store.Range{Start: lo, Stop: hi}, nil
}

// FrequencyMatrix returns the contingency-count block for a region of
// the window-pair matrix, either from the cache or freshly computed.
// On a miss the whole block is recomputed and written back, even when
// only part of it was missing: hit detection is all-or-nothing, and
// consumers rely on full-block overwrite. Results are deterministic for
// an unchanged table.
func (e *Experiment) FrequencyMatrix(ctx context.Context, rows, cols store.Range) ([][]segregation.ContingencyCount, error) {
	if err := e.checkOpen(); err != nil {
		return nil, err
	}

	block, ok, err := e.freqs.ReadRegion(rows, cols)
	if err != nil {
		return nil, err
	}
	if ok {
		e.logger.Debug("frequency cache hit",
			zap.Ints("rows", []int{rows.Start, rows.Stop}),
			zap.Ints("cols", []int{cols.Start, cols.Stop}))
		return block, nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil, ErrClosed
	}

	// Another caller may have filled the region while we waited.
	block, ok, err = e.freqs.ReadRegion(rows, cols)
	if err != nil {
		return nil, err
	}
	if ok {
		return block, nil
	}

	e.logger.Debug("frequency cache miss, computing block",
		zap.Ints("rows", []int{rows.Start, rows.Stop}),
		zap.Ints("cols", []int{cols.Start, cols.Stop}))

	block, err = e.computeBlock(ctx, rows, cols)
	if err != nil {
		return nil, err
	}
	if err := e.freqs.WriteRegion(rows, cols, block); err != nil {
		return nil, err
	}
	return block, nil
}

// ProcessedMatrix applies a statistic elementwise to the
// contingency-count block for a region, producing a float matrix of the
// same shape. A nil statistic means the default.
func (e *Experiment) ProcessedMatrix(ctx context.Context, rows, cols store.Range, stat statistic.Statistic) (*mat.Dense, error) {
	if rows.Len() == 0 || cols.Len() == 0 {
		// A zero-length range is valid but has no matrix representation.
		return nil, fmt.Errorf("empty region [%d, %d) x [%d, %d)", rows.Start, rows.Stop, cols.Start, cols.Stop)
	}
	if stat == nil {
		stat = statistic.OddsRatio
	}

	block, err := e.FrequencyMatrix(ctx, rows, cols)
	if err != nil {
		return nil, err
	}

	processed := mat.NewDense(rows.Len(), cols.Len(), nil)
	for i, row := range block {
		for j, count := range row {
			processed.Set(i, j, stat(count))
		}
	}
	return processed, nil
}

// ChromosomeMatrix computes the processed matrix for the full index
// range spanned by one chromosome.
func (e *Experiment) ChromosomeMatrix(ctx context.Context, chrom string, stat statistic.Statistic) (*mat.Dense, error) {
	if err := e.checkOpen(); err != nil {
		return nil, err
	}

	lo, hi, err := e.table.ChromosomeSpan(chrom)
	if err != nil {
		return nil, err
	}

	span := store.Range{Start: lo, Stop: hi}
	return e.ProcessedMatrix(ctx, span, span, stat)
}
