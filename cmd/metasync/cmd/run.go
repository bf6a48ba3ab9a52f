package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/civicdata/metasync"
	"github.com/civicdata/metasync/pkg/reconcile"
)

var (
	runDryRun    bool
	runChecks    []string
	runReportDir string
	runNoReport  bool
)

// runCmd represents the run command.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run consistency checks against the catalog",
	Long: `Run executes the configured consistency checks against the metadata
catalog, remediates what it safely can, and writes a JSON report.

By default all checks run in their registered order. Use --checks to
restrict the run to a subset, and --dry-run to report issues without
modifying the catalog.`,
	Example: `  metasync run
  metasync run --dry-run
  metasync run --checks person_sync,post_assignment
  metasync run --report-dir /var/lib/metasync/reports`,
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().BoolVar(&runDryRun, "dry-run", false, "Report issues without modifying the catalog")
	runCmd.Flags().StringSliceVar(&runChecks, "checks", nil, "Checks to run, comma separated (default: all)")
	runCmd.Flags().StringVar(&runReportDir, "report-dir", "", "Directory for JSON reports (overrides config)")
	runCmd.Flags().BoolVar(&runNoReport, "no-report", false, "Skip writing the JSON report")
}

func runRun(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	opts := []metasync.Option{
		metasync.WithConfig(cfg),
		metasync.WithDryRun(runDryRun),
		metasync.WithChecks(runChecks...),
	}
	if runNoReport {
		opts = append(opts, metasync.WithReportDir(""))
	} else if runReportDir != "" {
		opts = append(opts, metasync.WithReportDir(runReportDir))
	}

	engine, err := metasync.New(opts...)
	if err != nil {
		return err
	}

	report, err := engine.Run(cmd.Context())
	if err != nil {
		return err
	}

	printReport(report)

	if report.Summary.OverallStatus == reconcile.StatusError {
		return fmt.Errorf("%d check(s) failed", report.Summary.Errors)
	}
	return nil
}

func printReport(report *reconcile.Report) {
	for _, check := range report.Checks {
		fmt.Printf("%-20s %-8s %s\n", check.Check, check.Status, check.Message)
	}
	s := report.Summary
	fmt.Printf("\nChecks: %d total, %d successful, %d with warnings, %d failed\n",
		s.TotalChecks, s.Successful, s.Warnings, s.Errors)
	fmt.Printf("Issues: %d found, %d fixed automatically, %d requiring attention\n",
		s.TotalIssues, s.RemediatedIssues, s.ActualIssues)
}
