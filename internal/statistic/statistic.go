// Package statistic turns raw 2x2 contingency counts into summary
// scores. Statistics are plain functions so callers can substitute
// their own; the named registry backs the CLI's --statistic flag.
package statistic

import (
	"fmt"
	"math"

	"github.com/nroberts67/gamtools-dev/internal/segregation"
)

// Statistic maps one contingency count to a single summary value.
type Statistic func(segregation.ContingencyCount) float64

// OddsRatio is the default co-segregation score. It reproduces the
// historical formula exactly, including the nested log on the OnlyA
// term: log(both) + log(neither) - log(log(onlyA)) - log(onlyB).
// With a zero pseudocount, empty cells yield -Inf or NaN terms, which
// propagate into the result unchanged.
func OddsRatio(c segregation.ContingencyCount) float64 {
	return math.Log(float64(c.Both)) + math.Log(float64(c.Neither)) -
		math.Log(math.Log(float64(c.OnlyA))) - math.Log(float64(c.OnlyB))
}

// Linkage is the normalized co-segregation frequency difference
// D = p(both) - p(A) * p(B).
func Linkage(c segregation.ContingencyCount) float64 {
	total := float64(c.Sum())
	if total == 0 {
		return math.NaN()
	}
	pBoth := float64(c.Both) / total
	pA := float64(c.Both+c.OnlyA) / total
	pB := float64(c.Both+c.OnlyB) / total
	return pBoth - pA*pB
}

var registry = map[string]Statistic{
	"oddsratio": OddsRatio,
	"linkage":   Linkage,
}

// Default is the statistic applied when none is named.
const Default = "oddsratio"

// Lookup returns the statistic registered under name.
func Lookup(name string) (Statistic, error) {
	s, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown statistic %q (available: %s)", name, Names())
	}
	return s, nil
}

// Names returns the registered statistic names.
func Names() string {
	return "oddsratio, linkage"
}
