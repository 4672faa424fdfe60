package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/nroberts67/gamtools-dev/internal/experiment"
)

func newCreateCmd() *cobra.Command {
	var pseudocount int64

	cmd := &cobra.Command{
		Use:   "create <segregation-table> <store>",
		Short: "Create a new experiment store from a segregation table",
		Long: `Create a new experiment store from a whitespace-delimited multi-sample
segregation table. The store holds the experimental data plus an empty
frequency matrix sized to the table's window count. An existing store is
never overwritten.`,
		Example: `  gamcoseg create segregation.multibam experiment.duckdb
  gamcoseg create --pseudocount 1 segregation.multibam.gz experiment.duckdb`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("pseudocount") {
				pseudocount = viper.GetInt64("pseudocount")
			}

			exp, err := experiment.Create(args[0], args[1], pseudocount)
			if err != nil {
				return err
			}
			defer exp.Close()

			table := exp.Table()
			fmt.Printf("Created %s: %d windows, %d samples\n",
				args[1], table.NumWindows(), table.NumSamples())
			return nil
		},
	}

	cmd.Flags().Int64Var(&pseudocount, "pseudocount", 0, "Constant added to every contingency cell")
	return cmd
}
