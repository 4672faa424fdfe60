package segregation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// twoWindowTable is the canonical 4-sample fixture: W1 present in the
// first two samples, W2 in the first and third.
func twoWindowTable(t *testing.T, pseudocount int64) *Table {
	t.Helper()
	table, err := NewTable(
		[]Window{
			{Chrom: "chr1", Start: 0, Stop: 10000},
			{Chrom: "chr1", Start: 10000, Stop: 20000},
		},
		[]string{"NP1", "NP2", "NP3", "NP4"},
		[][]bool{
			{true, true, false, false},
			{true, false, true, false},
		},
		pseudocount,
	)
	require.NoError(t, err)
	return table
}

func TestCount(t *testing.T) {
	table := twoWindowTable(t, 0)

	c := table.Count(0, 1)
	assert.Equal(t, ContingencyCount{Both: 1, OnlyA: 1, OnlyB: 1, Neither: 1}, c)
	assert.Equal(t, int64(4), c.Sum(), "cells should sum to the sample count")
}

func TestCountPseudocount(t *testing.T) {
	raw := twoWindowTable(t, 0).Count(0, 1)
	offset := twoWindowTable(t, 2).Count(0, 1)

	assert.Equal(t, raw.Both+2, offset.Both)
	assert.Equal(t, raw.OnlyA+2, offset.OnlyA)
	assert.Equal(t, raw.OnlyB+2, offset.OnlyB)
	assert.Equal(t, raw.Neither+2, offset.Neither)
}

func TestCountSymmetry(t *testing.T) {
	table, err := NewTable(
		[]Window{
			{Chrom: "chr1", Start: 0, Stop: 100},
			{Chrom: "chr1", Start: 100, Stop: 200},
		},
		[]string{"A", "B", "C", "D", "E"},
		[][]bool{
			{true, true, true, false, false},
			{true, false, false, true, false},
		},
		0,
	)
	require.NoError(t, err)

	ab := table.Count(0, 1)
	ba := table.Count(1, 0)
	assert.Equal(t, ab.Transpose(), ba)
	assert.Equal(t, ab.Both, ba.Both)
	assert.Equal(t, ab.Neither, ba.Neither)
	assert.Equal(t, ab.OnlyA, ba.OnlyB)
	assert.Equal(t, ab.OnlyB, ba.OnlyA)
}

func TestCountSelfPair(t *testing.T) {
	table := twoWindowTable(t, 0)

	c := table.Count(0, 0)
	assert.Equal(t, ContingencyCount{Both: 2, Neither: 2}, c)
}

func TestResolveCoordinate(t *testing.T) {
	table := twoWindowTable(t, 0)

	idx, err := table.ResolveCoordinate("chr1", 10000)
	require.NoError(t, err)
	assert.Equal(t, 1, idx)

	_, err = table.ResolveCoordinate("chr1", 5000)
	assert.ErrorIs(t, err, ErrNotFound, "mid-window coordinate is not a boundary")

	_, err = table.ResolveCoordinate("chr2", 0)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestChromosomeSpan(t *testing.T) {
	table, err := NewTable(
		[]Window{
			{Chrom: "chr1", Start: 0, Stop: 100},
			{Chrom: "chr1", Start: 100, Stop: 200},
			{Chrom: "chr2", Start: 0, Stop: 100},
		},
		[]string{"A"},
		[][]bool{{true}, {false}, {true}},
		0,
	)
	require.NoError(t, err)

	lo, hi, err := table.ChromosomeSpan("chr1")
	require.NoError(t, err)
	assert.Equal(t, 0, lo)
	assert.Equal(t, 2, hi)

	lo, hi, err = table.ChromosomeSpan("chr2")
	require.NoError(t, err)
	assert.Equal(t, 2, lo)
	assert.Equal(t, 3, hi)

	_, _, err = table.ChromosomeSpan("chrX")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.Equal(t, []string{"chr1", "chr2"}, table.Chromosomes())
}

func TestNewTableMismatchedShapes(t *testing.T) {
	_, err := NewTable(
		[]Window{{Chrom: "chr1", Start: 0, Stop: 100}},
		[]string{"A", "B"},
		[][]bool{{true}},
		0,
	)
	assert.Error(t, err, "presence row narrower than sample list")

	_, err = NewTable(
		[]Window{{Chrom: "chr1", Start: 0, Stop: 100}},
		[]string{"A"},
		nil,
		0,
	)
	assert.Error(t, err, "presence rows must match window count")
}
