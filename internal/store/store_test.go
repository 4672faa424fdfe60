package store

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/nroberts67/gamtools-dev/internal/segregation"
)

func testTable(t *testing.T) *segregation.Table {
	t.Helper()
	table, err := segregation.NewTable(
		[]segregation.Window{
			{Chrom: "chr1", Start: 0, Stop: 10000},
			{Chrom: "chr1", Start: 10000, Stop: 20000},
			{Chrom: "chr2", Start: 0, Stop: 10000},
		},
		[]string{"NP1", "NP2", "NP3", "NP4"},
		[][]bool{
			{true, true, false, false},
			{true, false, true, false},
			{false, true, true, true},
		},
		0,
	)
	if err != nil {
		t.Fatalf("NewTable: %v", err)
	}
	return table
}

func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "experiment.duckdb")
	s, err := Create(path, testTable(t))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestCreateAndOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "experiment.duckdb")

	s, err := Create(path, testTable(t))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if s.NumWindows() != 3 {
		t.Errorf("NumWindows = %d, want 3", s.NumWindows())
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	// Creating again at the same path must fail, not overwrite.
	if _, err := Create(path, testTable(t)); !errors.Is(err, ErrAlreadyExists) {
		t.Fatalf("second Create error = %v, want ErrAlreadyExists", err)
	}

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer reopened.Close()
	if reopened.NumWindows() != 3 {
		t.Errorf("reopened NumWindows = %d, want 3", reopened.NumWindows())
	}
}

func TestOpenMissing(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "absent.duckdb"))
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("Open error = %v, want ErrNotFound", err)
	}
}

func TestLoadTable(t *testing.T) {
	s := createTestStore(t)

	table, err := s.LoadTable()
	if err != nil {
		t.Fatalf("LoadTable: %v", err)
	}
	if table.NumWindows() != 3 {
		t.Errorf("NumWindows = %d, want 3", table.NumWindows())
	}
	if table.NumSamples() != 4 {
		t.Errorf("NumSamples = %d, want 4", table.NumSamples())
	}

	// Round-tripped presence calls must reproduce the original counts.
	c := table.Count(0, 1)
	want := segregation.ContingencyCount{Both: 1, OnlyA: 1, OnlyB: 1, Neither: 1}
	if c != want {
		t.Errorf("Count(0, 1) = %+v, want %+v", c, want)
	}

	idx, err := table.ResolveCoordinate("chr2", 0)
	if err != nil {
		t.Fatalf("ResolveCoordinate: %v", err)
	}
	if idx != 2 {
		t.Errorf("ResolveCoordinate(chr2, 0) = %d, want 2", idx)
	}
}

func testBlock(rows, cols Range, base int64) [][]segregation.ContingencyCount {
	block := make([][]segregation.ContingencyCount, rows.Len())
	for i := range block {
		block[i] = make([]segregation.ContingencyCount, cols.Len())
		for j := range block[i] {
			block[i][j] = segregation.ContingencyCount{
				Both:    base + int64(i),
				OnlyA:   base + int64(j),
				OnlyB:   base,
				Neither: base + 1,
			}
		}
	}
	return block
}

func TestFrequencyMatrixWriteRead(t *testing.T) {
	m := createTestStore(t).Frequencies()
	rows := Range{0, 2}
	cols := Range{0, 2}

	// Fresh cache: everything is a miss.
	cached, err := m.IsRegionCached(rows, cols)
	if err != nil {
		t.Fatalf("IsRegionCached: %v", err)
	}
	if cached {
		t.Error("fresh cache reported a region as cached")
	}
	if _, ok, err := m.ReadRegion(rows, cols); err != nil || ok {
		t.Fatalf("ReadRegion on fresh cache: ok=%v err=%v, want miss", ok, err)
	}

	block := testBlock(rows, cols, 1)
	if err := m.WriteRegion(rows, cols, block); err != nil {
		t.Fatalf("WriteRegion: %v", err)
	}

	got, ok, err := m.ReadRegion(rows, cols)
	if err != nil {
		t.Fatalf("ReadRegion: %v", err)
	}
	if !ok {
		t.Fatal("ReadRegion missed a freshly written region")
	}
	for i := range block {
		for j := range block[i] {
			if got[i][j] != block[i][j] {
				t.Errorf("cell (%d, %d) = %+v, want %+v", i, j, got[i][j], block[i][j])
			}
		}
	}

	// Sub-ranges of a cached region are hits too.
	sub, ok, err := m.ReadRegion(Range{1, 2}, Range{0, 1})
	if err != nil || !ok {
		t.Fatalf("sub-range read: ok=%v err=%v, want hit", ok, err)
	}
	if sub[0][0] != block[1][0] {
		t.Errorf("sub-range cell = %+v, want %+v", sub[0][0], block[1][0])
	}
}

func TestWriteRegionIdempotent(t *testing.T) {
	m := createTestStore(t).Frequencies()
	rows := Range{0, 2}
	cols := Range{1, 3}
	block := testBlock(rows, cols, 3)

	if err := m.WriteRegion(rows, cols, block); err != nil {
		t.Fatalf("first WriteRegion: %v", err)
	}
	if err := m.WriteRegion(rows, cols, block); err != nil {
		t.Fatalf("second WriteRegion: %v", err)
	}

	cached, err := m.IsRegionCached(rows, cols)
	if err != nil {
		t.Fatalf("IsRegionCached: %v", err)
	}
	if !cached {
		t.Error("region not cached after idempotent rewrite")
	}

	got, ok, err := m.ReadRegion(rows, cols)
	if err != nil || !ok {
		t.Fatalf("ReadRegion: ok=%v err=%v", ok, err)
	}
	if got[0][0] != block[0][0] || got[1][1] != block[1][1] {
		t.Error("rewrite changed stored values")
	}
}

func TestSingleEmptyCellMissesWholeRegion(t *testing.T) {
	m := createTestStore(t).Frequencies()

	// Fill a 2x2 region, then ask about the 3x3 region containing it.
	if err := m.WriteRegion(Range{0, 2}, Range{0, 2}, testBlock(Range{0, 2}, Range{0, 2}, 1)); err != nil {
		t.Fatalf("WriteRegion: %v", err)
	}

	cached, err := m.IsRegionCached(Range{0, 3}, Range{0, 3})
	if err != nil {
		t.Fatalf("IsRegionCached: %v", err)
	}
	if cached {
		t.Error("region with uncomputed cells reported as cached")
	}
	if _, ok, _ := m.ReadRegion(Range{0, 3}, Range{0, 3}); ok {
		t.Error("ReadRegion hit on a partially computed region")
	}

	// An explicitly stored all-zero block still reads as uncomputed:
	// the zero sum is the miss sentinel.
	zero := make([][]segregation.ContingencyCount, 1)
	zero[0] = make([]segregation.ContingencyCount, 1)
	if err := m.WriteRegion(Range{2, 3}, Range{2, 3}, zero); err != nil {
		t.Fatalf("WriteRegion zeros: %v", err)
	}
	if cached, _ := m.IsRegionCached(Range{2, 3}, Range{2, 3}); cached {
		t.Error("all-zero block reported as cached")
	}
}

func TestRegionRangeValidation(t *testing.T) {
	m := createTestStore(t).Frequencies()

	bad := []struct {
		name       string
		rows, cols Range
	}{
		{"negative start", Range{-1, 2}, Range{0, 2}},
		{"stop beyond end", Range{0, 2}, Range{0, 4}},
		{"inverted", Range{2, 1}, Range{0, 2}},
	}
	for _, tt := range bad {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := m.IsRegionCached(tt.rows, tt.cols); !errors.Is(err, ErrRange) {
				t.Errorf("IsRegionCached error = %v, want ErrRange", err)
			}
			if _, _, err := m.ReadRegion(tt.rows, tt.cols); !errors.Is(err, ErrRange) {
				t.Errorf("ReadRegion error = %v, want ErrRange", err)
			}
			if err := m.WriteRegion(tt.rows, tt.cols, nil); !errors.Is(err, ErrRange) {
				t.Errorf("WriteRegion error = %v, want ErrRange", err)
			}
		})
	}

	// Block shape must match the region.
	if err := m.WriteRegion(Range{0, 2}, Range{0, 2}, testBlock(Range{0, 1}, Range{0, 2}, 1)); !errors.Is(err, ErrRange) {
		t.Errorf("short block error = %v, want ErrRange", err)
	}
}

func TestWriteRegionOverwritesBlock(t *testing.T) {
	m := createTestStore(t).Frequencies()
	rows := Range{0, 2}
	cols := Range{0, 2}

	if err := m.WriteRegion(rows, cols, testBlock(rows, cols, 1)); err != nil {
		t.Fatalf("WriteRegion: %v", err)
	}
	replacement := testBlock(rows, cols, 10)
	if err := m.WriteRegion(rows, cols, replacement); err != nil {
		t.Fatalf("overwrite WriteRegion: %v", err)
	}

	got, ok, err := m.ReadRegion(rows, cols)
	if err != nil || !ok {
		t.Fatalf("ReadRegion: ok=%v err=%v", ok, err)
	}
	if got[0][0] != replacement[0][0] {
		t.Errorf("cell (0, 0) = %+v, want overwritten %+v", got[0][0], replacement[0][0])
	}
}
