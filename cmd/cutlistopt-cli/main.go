package main

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	cfgFile string
	verbose bool
	version = "dev" // set by build flags
)

var rootCmd = &cobra.Command{
	Use:     "cutlistopt-cli",
	Short:   "In-process driver for the guillotine cutting-stock optimizer",
	Long:    `cutlistopt-cli loads calculation requests from YAML files, submits them to an in-process Service, and reports task status.`,
	Version: version,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./cutlistopt.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(submitCmd)
	rootCmd.AddCommand(statusCmd)
}

// Commands are defined in separate files:
// - submitCmd in submit.go
// - statusCmd in status.go

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
