package segregation

import (
	"bufio"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// ErrFormat is returned for malformed multibam input.
var ErrFormat = errors.New("malformed segregation table")

// OpenMultibam reads a whitespace-delimited multi-sample segregation
// table from a file. Plain and gzip-compressed files are both
// supported; compression is detected from the gzip magic bytes.
func OpenMultibam(path string, pseudocount int64) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open segregation table: %w", err)
	}
	defer f.Close()

	buf := make([]byte, 2)
	if _, err := f.Read(buf); err != nil {
		return nil, fmt.Errorf("read segregation table: %w", err)
	}
	if _, err := f.Seek(0, 0); err != nil {
		return nil, fmt.Errorf("seek segregation table: %w", err)
	}

	var r io.Reader = f
	if buf[0] == 0x1f && buf[1] == 0x8b {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("create gzip reader: %w", err)
		}
		defer gz.Close()
		r = gz
	}

	return ParseMultibam(r, pseudocount)
}

// ParseMultibam parses a multibam-style segregation table. The first
// line holds sample names after the chrom/start/stop columns; each
// subsequent line is one window followed by a 0/1 presence call per
// sample.
func ParseMultibam(r io.Reader, pseudocount int64) (*Table, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 1024*1024), 16*1024*1024)

	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("read header: %w", err)
		}
		return nil, fmt.Errorf("empty input: %w", ErrFormat)
	}

	header := strings.Fields(scanner.Text())
	if len(header) < 4 {
		return nil, fmt.Errorf("line 1: header has %d columns, need chrom/start/stop and at least one sample: %w", len(header), ErrFormat)
	}
	samples := header[3:]

	var (
		windows  []Window
		presence [][]bool
	)

	lineNo := 1
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) != 3+len(samples) {
			return nil, fmt.Errorf("line %d: %d columns, want %d: %w", lineNo, len(fields), 3+len(samples), ErrFormat)
		}

		start, err := strconv.ParseInt(fields[1], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: bad start %q: %w", lineNo, fields[1], ErrFormat)
		}
		stop, err := strconv.ParseInt(fields[2], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: bad stop %q: %w", lineNo, fields[2], ErrFormat)
		}

		row := make([]bool, len(samples))
		for i, cell := range fields[3:] {
			switch cell {
			case "0":
				// absent
			case "1":
				row[i] = true
			default:
				return nil, fmt.Errorf("line %d: presence call %q is not 0 or 1: %w", lineNo, cell, ErrFormat)
			}
		}

		windows = append(windows, Window{Chrom: fields[0], Start: start, Stop: stop})
		presence = append(presence, row)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read segregation table: %w", err)
	}
	if len(windows) == 0 {
		return nil, fmt.Errorf("no windows in input: %w", ErrFormat)
	}

	return NewTable(windows, samples, presence, pseudocount)
}
