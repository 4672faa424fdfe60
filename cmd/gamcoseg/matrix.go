package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"

	"github.com/nroberts67/gamtools-dev/internal/experiment"
	"github.com/nroberts67/gamtools-dev/internal/matrixio"
	"github.com/nroberts67/gamtools-dev/internal/statistic"
	"github.com/nroberts67/gamtools-dev/internal/store"
)

func newMatrixCmd() *cobra.Command {
	var (
		region     string
		region2    string
		statName   string
		outputFile string
	)

	cmd := &cobra.Command{
		Use:   "matrix <store>",
		Short: "Compute a processed co-segregation matrix for a region",
		Long: `Compute the summary statistic matrix for a rectangular region of the
window-pair space. Contingency counts are served from the frequency
cache when present and computed (then cached) otherwise.`,
		Example: `  gamcoseg matrix experiment.duckdb --region chr1:0-500000 -o chr1.txt
  gamcoseg matrix experiment.duckdb --region chr1:0-500000 --region2 chr1:500000-1000000 -o block.txt.gz
  gamcoseg matrix experiment.duckdb --region chr1:0-500000 --statistic linkage -o chr1.csv`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if region == "" {
				return fmt.Errorf("--region is required")
			}
			if statName == "" {
				statName = viper.GetString("statistic")
			}

			exp, err := openExperiment(args[0])
			if err != nil {
				return err
			}
			defer exp.Close()

			rows, err := resolveRegion(exp, region)
			if err != nil {
				return err
			}
			cols := rows
			if region2 != "" {
				if cols, err = resolveRegion(exp, region2); err != nil {
					return err
				}
			}

			stat, err := statistic.Lookup(statName)
			if err != nil {
				return err
			}

			processed, err := exp.ProcessedMatrix(cmd.Context(), rows, cols, stat)
			if err != nil {
				return err
			}

			return writeMatrix(outputFile, exp, rows, cols, processed)
		},
	}

	cmd.Flags().StringVarP(&region, "region", "r", "", "Row region as chrom:start-stop (required)")
	cmd.Flags().StringVar(&region2, "region2", "", "Column region as chrom:start-stop (default: same as --region)")
	cmd.Flags().StringVarP(&statName, "statistic", "s", "", "Statistic to apply: "+statistic.Names())
	cmd.Flags().StringVarP(&outputFile, "output", "o", "-", "Output file; format detected from extension")
	return cmd
}

func newChromCmd() *cobra.Command {
	var (
		statName   string
		outputFile string
	)

	cmd := &cobra.Command{
		Use:     "chrom <store> <chromosome>",
		Short:   "Compute the processed matrix for a whole chromosome",
		Example: `  gamcoseg chrom experiment.duckdb chr19 -o chr19.png`,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if statName == "" {
				statName = viper.GetString("statistic")
			}

			exp, err := openExperiment(args[0])
			if err != nil {
				return err
			}
			defer exp.Close()

			stat, err := statistic.Lookup(statName)
			if err != nil {
				return err
			}

			processed, err := exp.ChromosomeMatrix(cmd.Context(), args[1], stat)
			if err != nil {
				return err
			}

			lo, hi, err := exp.Table().ChromosomeSpan(args[1])
			if err != nil {
				return err
			}
			span := store.Range{Start: lo, Stop: hi}
			return writeMatrix(outputFile, exp, span, span, processed)
		},
	}

	cmd.Flags().StringVarP(&statName, "statistic", "s", "", "Statistic to apply: "+statistic.Names())
	cmd.Flags().StringVarP(&outputFile, "output", "o", "-", "Output file; format detected from extension")
	return cmd
}

func openExperiment(path string) (*experiment.Experiment, error) {
	exp, err := experiment.Open(path)
	if err != nil {
		return nil, err
	}
	exp.SetLogger(logger)
	exp.SetWorkers(viper.GetInt("workers"))
	logger.Debug("opened experiment store",
		zap.String("path", path),
		zap.Int("windows", exp.Table().NumWindows()))
	return exp, nil
}

// resolveRegion turns a chrom:start-stop location string into the
// window index range it spans.
func resolveRegion(exp *experiment.Experiment, region string) (store.Range, error) {
	w, err := matrixio.ParseName(region)
	if err != nil {
		return store.Range{}, err
	}
	return exp.ResolveRegion(w.Chrom, w.Start, w.Stop)
}

func writeMatrix(path string, exp *experiment.Experiment, rows, cols store.Range, m *mat.Dense) error {
	format, err := matrixio.DetectFormat(path)
	if err != nil {
		return err
	}
	writer, err := matrixio.WriterFor(format)
	if err != nil {
		return err
	}

	var out io.Writer = os.Stdout
	if path != "-" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer f.Close()
		out = f
	}

	table := exp.Table()
	rowWindows := table.WindowRange(rows.Start, rows.Stop)
	colWindows := table.WindowRange(cols.Start, cols.Stop)
	return writer(out, rowWindows, colWindows, m)
}
