package matrixio

import (
	"bufio"
	"compress/gzip"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/nroberts67/gamtools-dev/internal/segregation"
)

// ReadTxt reads a tab-delimited matrix with window location strings on
// both axes, as written by WriteTxt.
func ReadTxt(r io.Reader) (rowWindows, colWindows []segregation.Window, m *mat.Dense, err error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 1024*1024), 64*1024*1024)

	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return nil, nil, nil, fmt.Errorf("read matrix header: %w", err)
		}
		return nil, nil, nil, fmt.Errorf("empty matrix file")
	}

	header := strings.Split(strings.TrimRight(scanner.Text(), "\n"), "\t")
	for _, name := range header[1:] {
		w, err := ParseName(name)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("matrix header: %w", err)
		}
		colWindows = append(colWindows, w)
	}

	var values []float64
	lineNo := 1
	for scanner.Scan() {
		lineNo++
		line := strings.TrimRight(scanner.Text(), "\n")
		if line == "" {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) != len(colWindows)+1 {
			return nil, nil, nil, fmt.Errorf("matrix line %d: %d columns, want %d", lineNo, len(fields), len(colWindows)+1)
		}

		w, err := ParseName(fields[0])
		if err != nil {
			return nil, nil, nil, fmt.Errorf("matrix line %d: %w", lineNo, err)
		}
		rowWindows = append(rowWindows, w)

		for _, field := range fields[1:] {
			if field == "NaN" || field == "" {
				values = append(values, math.NaN())
				continue
			}
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, nil, nil, fmt.Errorf("matrix line %d: bad value %q: %w", lineNo, field, err)
			}
			values = append(values, v)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, nil, fmt.Errorf("read matrix: %w", err)
	}
	if len(rowWindows) == 0 {
		return nil, nil, nil, fmt.Errorf("matrix file has no data rows")
	}

	return rowWindows, colWindows, mat.NewDense(len(rowWindows), len(colWindows), values), nil
}

// ReadFile opens a matrix file, decompressing gzip input transparently.
func ReadFile(path string) (rowWindows, colWindows []segregation.Window, m *mat.Dense, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("open matrix file: %w", err)
	}
	defer f.Close()

	buf := make([]byte, 2)
	if _, err := f.Read(buf); err != nil {
		return nil, nil, nil, fmt.Errorf("read matrix file: %w", err)
	}
	if _, err := f.Seek(0, 0); err != nil {
		return nil, nil, nil, fmt.Errorf("seek matrix file: %w", err)
	}

	var r io.Reader = f
	if buf[0] == 0x1f && buf[1] == 0x8b {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("create gzip reader: %w", err)
		}
		defer gz.Close()
		r = gz
	}
	return ReadTxt(r)
}

// Writer writes a matrix with its axis windows to an output stream.
type Writer func(w io.Writer, rowWindows, colWindows []segregation.Window, m mat.Matrix) error

var outputFormats = map[string]Writer{
	"txt":    WriteTxt,
	"txt.gz": WriteZippedTxt,
	"csv":    WriteCSV,
	"csv.gz": WriteZippedCSV,
	"png":    WritePNG,
}

// WriterFor returns the writer for a format name.
func WriterFor(format string) (Writer, error) {
	w, ok := outputFormats[format]
	if !ok {
		return nil, fmt.Errorf("unsupported output format %q", format)
	}
	return w, nil
}

// DetectFormat determines a matrix file's format from its extension,
// peeling a trailing .gz. "-" means tab-delimited text on a standard
// stream.
func DetectFormat(path string) (string, error) {
	if path == "-" {
		return "txt", nil
	}

	base := filepath.Base(path)
	parts := strings.Split(base, ".")
	if len(parts) == 1 {
		return "", fmt.Errorf("could not determine matrix format: %s has no extension", base)
	}

	ext := parts[len(parts)-1]
	if ext == "gz" && len(parts) > 2 {
		ext = strings.Join(parts[len(parts)-2:], ".")
	}

	if _, ok := outputFormats[ext]; !ok {
		return "", fmt.Errorf("matrix format %q not recognized", ext)
	}
	return ext, nil
}
