// Package matrixio reads and writes processed co-segregation matrices
// in the formats downstream tools consume, and applies per-diagonal
// interaction thresholds.
package matrixio

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/nroberts67/gamtools-dev/internal/segregation"
)

// FormatName formats a window as a UCSC-like location string
// "chrom:start-stop".
func FormatName(w segregation.Window) string {
	return fmt.Sprintf("%s:%d-%d", w.Chrom, w.Start, w.Stop)
}

// ParseName parses a UCSC-like location string back into a window.
func ParseName(name string) (segregation.Window, error) {
	chrom, span, ok := strings.Cut(name, ":")
	if !ok {
		return segregation.Window{}, fmt.Errorf("location %q: missing ':'", name)
	}
	startStr, stopStr, ok := strings.Cut(span, "-")
	if !ok {
		return segregation.Window{}, fmt.Errorf("location %q: missing '-'", name)
	}

	start, err := strconv.ParseInt(strings.ReplaceAll(startStr, ",", ""), 10, 64)
	if err != nil {
		return segregation.Window{}, fmt.Errorf("location %q: bad start: %w", name, err)
	}
	stop, err := strconv.ParseInt(strings.ReplaceAll(stopStr, ",", ""), 10, 64)
	if err != nil {
		return segregation.Window{}, fmt.Errorf("location %q: bad stop: %w", name, err)
	}

	return segregation.Window{Chrom: chrom, Start: start, Stop: stop}, nil
}

// NameStrings formats a window list as location strings.
func NameStrings(windows []segregation.Window) []string {
	names := make([]string, len(windows))
	for i, w := range windows {
		names[i] = FormatName(w)
	}
	return names
}
