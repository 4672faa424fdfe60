package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/nroberts67/gamtools-dev/internal/matrixio"
)

func newConvertCmd() *cobra.Command {
	var (
		inputFile      string
		outputFile     string
		outputFormat   string
		thresholdsFile string
	)

	cmd := &cobra.Command{
		Use:   "convert",
		Short: "Convert a processed matrix file to a different format",
		Long: `Convert a processed matrix between file formats, optionally discarding
values below a distance-dependent interaction threshold first.`,
		Example: `  gamcoseg convert -i chr1.txt -o chr1.png
  gamcoseg convert -i chr1.txt.gz -o chr1.csv --thresholds thresholds.txt`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if inputFile == "" || outputFile == "" {
				return fmt.Errorf("--input and --output are required")
			}

			rowWindows, colWindows, m, err := matrixio.ReadFile(inputFile)
			if err != nil {
				return err
			}

			if thresholdsFile != "" {
				thresholds, err := matrixio.OpenThresholds(thresholdsFile)
				if err != nil {
					return err
				}
				m = matrixio.ApplyThreshold(m, thresholds)
			}

			format := outputFormat
			if format == "" {
				if format, err = matrixio.DetectFormat(outputFile); err != nil {
					return err
				}
			}
			writer, err := matrixio.WriterFor(format)
			if err != nil {
				return err
			}

			var out io.Writer = os.Stdout
			if outputFile != "-" {
				f, err := os.Create(outputFile)
				if err != nil {
					return fmt.Errorf("create output file: %w", err)
				}
				defer f.Close()
				out = f
			}
			return writer(out, rowWindows, colWindows, m)
		},
	}

	cmd.Flags().StringVarP(&inputFile, "input", "i", "", "Input matrix file (txt or txt.gz)")
	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output matrix file (use '-' for stdout)")
	cmd.Flags().StringVarP(&outputFormat, "output-format", "f", "", "Output format: txt, txt.gz, csv, csv.gz, png (default: from extension)")
	cmd.Flags().StringVar(&thresholdsFile, "thresholds", "", "Interaction thresholds file to apply per diagonal")
	return cmd
}
