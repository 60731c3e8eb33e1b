// Package main provides statsctl, a command line client for the stats
// engines running against a local result database.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var dbPath string

func main() {
	rootCmd := &cobra.Command{
		Use:   "statsctl",
		Short: "Salmon Run shift statistics from a local result database",
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			if dbPath != "" {
				os.Setenv("DB_PATH", dbPath)
			}
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "database file (overrides DB_PATH)")

	rootCmd.AddCommand(newReportCommand())
	rootCmd.AddCommand(newLeaderboardCommand())
	rootCmd.AddCommand(newRecordsCommand())
	rootCmd.AddCommand(newTotalsCommand())
	rootCmd.AddCommand(newWeaponsCommand())
	rootCmd.AddCommand(newMigrateCommand())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
