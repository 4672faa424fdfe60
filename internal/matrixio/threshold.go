package matrixio

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"
)

// Thresholds holds per-distance minimum interaction values. The
// threshold for a distance beyond the table is the last one listed.
type Thresholds struct {
	byDistance map[int]float64
	distances  []int // sorted
}

// thresholdHeaderLines is the number of comment lines preceding the
// header row in a thresholds file.
const thresholdHeaderLines = 6

// ReadThresholds reads a whitespace-delimited thresholds table: six
// leading comment lines, then a header row containing a "distance"
// column and one value column, then one row per distance.
func ReadThresholds(r io.Reader) (*Thresholds, error) {
	scanner := bufio.NewScanner(r)

	for i := 0; i < thresholdHeaderLines; i++ {
		if !scanner.Scan() {
			return nil, fmt.Errorf("thresholds file ended inside the %d-line preamble", thresholdHeaderLines)
		}
	}

	if !scanner.Scan() {
		return nil, fmt.Errorf("thresholds file has no header row")
	}
	header := strings.Fields(scanner.Text())
	distCol, valCol := -1, -1
	for i, name := range header {
		if name == "distance" {
			distCol = i
		} else if valCol == -1 {
			valCol = i
		}
	}
	if distCol == -1 || valCol == -1 {
		return nil, fmt.Errorf("thresholds header needs a distance column and a value column, got %q", header)
	}

	t := &Thresholds{byDistance: make(map[int]float64)}
	lineNo := thresholdHeaderLines + 1
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != len(header) {
			return nil, fmt.Errorf("thresholds line %d: %d columns, want %d", lineNo, len(fields), len(header))
		}

		d, err := strconv.Atoi(fields[distCol])
		if err != nil {
			return nil, fmt.Errorf("thresholds line %d: bad distance %q: %w", lineNo, fields[distCol], err)
		}
		v, err := strconv.ParseFloat(fields[valCol], 64)
		if err != nil {
			return nil, fmt.Errorf("thresholds line %d: bad threshold %q: %w", lineNo, fields[valCol], err)
		}
		t.byDistance[d] = v
		t.distances = append(t.distances, d)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read thresholds: %w", err)
	}
	if len(t.distances) == 0 {
		return nil, fmt.Errorf("thresholds file has no data rows")
	}
	sort.Ints(t.distances)
	return t, nil
}

// OpenThresholds reads a thresholds table from a file.
func OpenThresholds(path string) (*Thresholds, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open thresholds file: %w", err)
	}
	defer f.Close()
	return ReadThresholds(f)
}

// At returns the threshold for a distance, falling back to the largest
// listed distance.
func (t *Thresholds) At(distance int) float64 {
	if v, ok := t.byDistance[distance]; ok {
		return v
	}
	return t.byDistance[t.distances[len(t.distances)-1]]
}

// ApplyThreshold zeroes matrix values below the per-diagonal threshold.
// Each diagonal d holds the scores for window pairs d bins apart; a
// value below the threshold for that distance becomes zero. The
// surviving values are written to both symmetric diagonals of a fresh
// matrix; the main diagonal is always zero.
func ApplyThreshold(m *mat.Dense, t *Thresholds) *mat.Dense {
	n, cols := m.Dims()
	if cols < n {
		n = cols
	}
	if n == 0 {
		return m
	}
	out := mat.NewDense(n, n, nil)

	for d := 1; d < n; d++ {
		thresh := t.At(d)
		for i := 0; i+d < n; i++ {
			v := m.At(i, i+d)
			if v < thresh {
				continue
			}
			out.Set(i, i+d, v)
			out.Set(i+d, i, v)
		}
	}
	return out
}
