package matrixio

import (
	"bufio"
	"compress/gzip"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"math"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/nroberts67/gamtools-dev/internal/segregation"
)

// CheckWindows verifies that the axis window lists match the matrix
// dimensions.
func CheckWindows(m mat.Matrix, rowWindows, colWindows []segregation.Window) error {
	r, c := m.Dims()
	if r != len(rowWindows) || c != len(colWindows) {
		return fmt.Errorf("matrix size (%d x %d) does not match the number of windows supplied (%d x %d)",
			r, c, len(rowWindows), len(colWindows))
	}
	return nil
}

// WriteTxt writes a matrix as tab-delimited text with window location
// strings labelling both axes. NaN values are written as "NaN".
func WriteTxt(w io.Writer, rowWindows, colWindows []segregation.Window, m mat.Matrix) error {
	if err := CheckWindows(m, rowWindows, colWindows); err != nil {
		return err
	}

	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString("\t" + strings.Join(NameStrings(colWindows), "\t") + "\n"); err != nil {
		return err
	}

	rows, cols := m.Dims()
	for i := 0; i < rows; i++ {
		if _, err := bw.WriteString(FormatName(rowWindows[i])); err != nil {
			return err
		}
		for j := 0; j < cols; j++ {
			if _, err := bw.WriteString("\t" + formatValue(m.At(i, j))); err != nil {
				return err
			}
		}
		if err := bw.WriteByte('\n'); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// WriteZippedTxt writes gzip-compressed tab-delimited text.
func WriteZippedTxt(w io.Writer, rowWindows, colWindows []segregation.Window, m mat.Matrix) error {
	gz, err := gzip.NewWriterLevel(w, 5)
	if err != nil {
		return fmt.Errorf("create gzip writer: %w", err)
	}
	if err := WriteTxt(gz, rowWindows, colWindows, m); err != nil {
		gz.Close()
		return err
	}
	return gz.Close()
}

// WriteCSV writes a matrix as an interaction list: one line per
// window pair above the diagonal with a positive score, as
// chrom, Pos_A, Pos_B, dist, interaction. The matrix is assumed
// symmetric and intra-chromosomal; Pos_A and Pos_B are window indices.
func WriteCSV(w io.Writer, rowWindows, colWindows []segregation.Window, m mat.Matrix) error {
	if err := CheckWindows(m, rowWindows, colWindows); err != nil {
		return err
	}
	if len(rowWindows) > 0 {
		chrom := rowWindows[0].Chrom
		for _, win := range rowWindows {
			if win.Chrom != chrom {
				return fmt.Errorf("interaction csv output requires an intra-chromosomal matrix, got %s and %s", chrom, win.Chrom)
			}
		}
	}

	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString("chrom\tPos_A\tPos_B\tdist\tinteraction\n"); err != nil {
		return err
	}

	rows, cols := m.Dims()
	for i := 0; i < rows; i++ {
		for j := i + 1; j < cols; j++ {
			v := m.At(i, j)
			if !(v > 0) {
				continue
			}
			line := fmt.Sprintf("%s\t%d\t%d\t%d\t%s\n",
				rowWindows[i].Chrom, i, j, j-i, formatValue(v))
			if _, err := bw.WriteString(line); err != nil {
				return err
			}
		}
	}
	return bw.Flush()
}

// WriteZippedCSV writes a gzip-compressed interaction list.
func WriteZippedCSV(w io.Writer, rowWindows, colWindows []segregation.Window, m mat.Matrix) error {
	gz, err := gzip.NewWriterLevel(w, 5)
	if err != nil {
		return fmt.Errorf("create gzip writer: %w", err)
	}
	if err := WriteCSV(gz, rowWindows, colWindows, m); err != nil {
		gz.Close()
		return err
	}
	return gz.Close()
}

// WritePNG writes a matrix as a grayscale raster, one pixel per cell,
// with finite values scaled to the full intensity range. NaN and
// infinite cells render black.
func WritePNG(w io.Writer, rowWindows, colWindows []segregation.Window, m mat.Matrix) error {
	if err := CheckWindows(m, rowWindows, colWindows); err != nil {
		return err
	}

	rows, cols := m.Dims()
	lo, hi := math.Inf(1), math.Inf(-1)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			v := m.At(i, j)
			if math.IsNaN(v) || math.IsInf(v, 0) {
				continue
			}
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
	}

	img := image.NewGray(image.Rect(0, 0, cols, rows))
	scale := hi - lo
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			v := m.At(i, j)
			if math.IsNaN(v) || math.IsInf(v, 0) {
				continue
			}
			var level uint8
			if scale > 0 {
				level = uint8(math.Round(255 * (v - lo) / scale))
			} else {
				level = 255
			}
			img.SetGray(j, i, color.Gray{Y: level})
		}
	}
	return png.Encode(w, img)
}

func formatValue(v float64) string {
	if math.IsNaN(v) {
		return "NaN"
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}
