package experiment

import (
	"context"
	"runtime"
	"sync"

	"github.com/nroberts67/gamtools-dev/internal/segregation"
	"github.com/nroberts67/gamtools-dev/internal/store"
)

// rowWork is one block row to compute.
type rowWork struct {
	Seq int
	Row int
}

// rowResult holds the counts for one computed block row.
type rowResult struct {
	Seq    int
	Counts []segregation.ContingencyCount
	Err    error
}

// computeBlock computes the full contingency-count block for a region,
// one table row per work item, fanned out over a pool of workers.
// Cancellation is checked between pairs; counting itself is a bounded
// synchronous operation.
func (e *Experiment) computeBlock(ctx context.Context, rows, cols store.Range) ([][]segregation.ContingencyCount, error) {
	workers := e.workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > rows.Len() {
		workers = rows.Len()
	}
	if workers < 1 {
		workers = 1
	}

	items := make(chan rowWork, workers)
	results := make(chan rowResult, workers)

	var wg sync.WaitGroup
	wg.Add(workers)

	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for item := range items {
				results <- rowResult{
					Seq:    item.Seq,
					Counts: e.computeRow(ctx, item.Row, cols),
					Err:    ctx.Err(),
				}
			}
		}()
	}

	go func() {
		defer close(items)
		for seq := 0; seq < rows.Len(); seq++ {
			select {
			case items <- rowWork{Seq: seq, Row: rows.Start + seq}:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	block := make([][]segregation.ContingencyCount, rows.Len())
	received := 0
	var firstErr error
	for r := range results {
		if r.Err != nil && firstErr == nil {
			firstErr = r.Err
		}
		block[r.Seq] = r.Counts
		received++
	}

	if firstErr != nil {
		return nil, firstErr
	}
	if received != rows.Len() {
		// The feeder stopped early: cancellation raced the workers.
		return nil, ctx.Err()
	}
	return block, nil
}

// computeRow computes the counts pairing one table row against every
// column in the range.
func (e *Experiment) computeRow(ctx context.Context, row int, cols store.Range) []segregation.ContingencyCount {
	counts := make([]segregation.ContingencyCount, cols.Len())
	for j := range counts {
		if ctx.Err() != nil {
			return counts
		}
		counts[j] = e.table.Count(row, cols.Start+j)
	}
	return counts
}
