// Package cmd implements the metasync command line interface.
package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/civicdata/metasync/internal/config"
	"github.com/civicdata/metasync/pkg/logging"
)

var (
	configFile string
	logLevel   string

	// Version information set by main.
	Version = "dev"
	// Commit is the git commit hash.
	Commit = "unknown"
	// Date is the build date.
	Date = "unknown"
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "metasync",
	Short: "Keep the metadata catalog consistent with the state directory",
	Long: `Metasync reconciles a metadata catalog with the authoritative state
directory. It verifies that persons, post assignments, user accounts,
and contact details in the catalog match the directory, fixes what it
safely can, and reports everything else.

Credentials and endpoints are read from a metasync.yaml config file,
a .env file, or METASYNC_* environment variables.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command with the given context and version info.
func Execute(ctx context.Context, version, commit, date string) error {
	Version = version
	Commit = commit
	Date = date

	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	return err
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default is ./metasync.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
}

// loadConfig loads configuration and applies command line overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, err
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	logging.SetLevel(cfg.LogLevel)
	return cfg, nil
}
