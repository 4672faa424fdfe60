// Package main provides the gamcoseg command-line tool.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Version information (set at build time)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	verbose bool
	logger  = zap.NewNop()
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:     "gamcoseg",
		Short:   "Co-segregation frequency matrices for GAM experiments",
		Long:    "gamcoseg computes pairwise co-segregation contingency counts between genomic windows, caches them in a persistent store, and derives summary statistic matrices on demand.",
		Version: fmt.Sprintf("%s (%s) built %s", version, commit, date),
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := initConfig(); err != nil {
				return err
			}
			if verbose {
				l, err := zap.NewDevelopment()
				if err != nil {
					return fmt.Errorf("create logger: %w", err)
				}
				logger = l
			}
			return nil
		},
		SilenceUsage: true,
	}

	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	root.AddCommand(newCreateCmd())
	root.AddCommand(newMatrixCmd())
	root.AddCommand(newChromCmd())
	root.AddCommand(newConvertCmd())
	root.AddCommand(newConfigCmd())

	return root
}

// initConfig wires viper to ~/.gamcoseg.yaml and the defaults used when
// a flag is left unset.
func initConfig() error {
	viper.SetDefault("pseudocount", 0)
	viper.SetDefault("workers", 0)
	viper.SetDefault("statistic", "oddsratio")

	home, err := os.UserHomeDir()
	if err != nil {
		return nil // no home directory, defaults only
	}
	viper.AddConfigPath(home)
	viper.SetConfigName(".gamcoseg")
	viper.SetConfigType("yaml")

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}
