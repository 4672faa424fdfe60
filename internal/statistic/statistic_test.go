package statistic

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nroberts67/gamtools-dev/internal/segregation"
)

func TestOddsRatio(t *testing.T) {
	// log(both) + log(neither) - log(log(onlyA)) - log(onlyB),
	// nested log included.
	c := segregation.ContingencyCount{Both: 10, OnlyA: 5, OnlyB: 3, Neither: 20}
	want := math.Log(10) + math.Log(20) - math.Log(math.Log(5)) - math.Log(3)
	assert.InDelta(t, want, OddsRatio(c), 1e-12)
}

func TestOddsRatioZeroCells(t *testing.T) {
	// With no pseudocount, empty cells push the score to -Inf or NaN
	// rather than erroring.
	v := OddsRatio(segregation.ContingencyCount{Both: 0, OnlyA: 5, OnlyB: 3, Neither: 20})
	assert.True(t, math.IsInf(v, -1), "zero both cell should give -Inf, got %v", v)

	v = OddsRatio(segregation.ContingencyCount{Both: 10, OnlyA: 0, OnlyB: 3, Neither: 20})
	assert.True(t, math.IsNaN(v), "zero onlyA cell should give NaN, got %v", v)
}

func TestLinkage(t *testing.T) {
	// W1=[1,1,0,0], W2=[1,0,1,0]: pBoth=0.25, pA=pB=0.5, D=0.
	c := segregation.ContingencyCount{Both: 1, OnlyA: 1, OnlyB: 1, Neither: 1}
	assert.InDelta(t, 0.0, Linkage(c), 1e-12)

	// Perfect co-segregation: pBoth=0.5, pA=pB=0.5, D=0.25.
	c = segregation.ContingencyCount{Both: 2, Neither: 2}
	assert.InDelta(t, 0.25, Linkage(c), 1e-12)

	assert.True(t, math.IsNaN(Linkage(segregation.ContingencyCount{})))
}

func TestLookup(t *testing.T) {
	s, err := Lookup("linkage")
	require.NoError(t, err)
	require.NotNil(t, s)

	s, err = Lookup(Default)
	require.NoError(t, err)
	c := segregation.ContingencyCount{Both: 10, OnlyA: 5, OnlyB: 3, Neither: 20}
	assert.Equal(t, OddsRatio(c), s(c))

	_, err = Lookup("chi2")
	assert.Error(t, err)
}
