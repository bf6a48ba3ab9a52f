package reconcile

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/civicdata/metasync/pkg/errors"
)

// Summary carries the run-wide counters of a report.
type Summary struct {
	TotalChecks      int    `json:"total_checks"`
	Successful       int    `json:"successful"`
	Warnings         int    `json:"warnings"`
	Errors           int    `json:"errors"`
	TotalIssues      int    `json:"total_issues"`
	RemediatedIssues int    `json:"remediated_issues"`
	ActualIssues     int    `json:"actual_issues"`
	OverallStatus    Status `json:"overall_status"`
}

// CheckReport is the per-check section of a report. Issues are split
// into those automatically fixed and those still requiring attention,
// and the status reflects only the unresolved ones.
type CheckReport struct {
	Check            string  `json:"check"`
	Title            string  `json:"title"`
	Description      string  `json:"description"`
	Status           Status  `json:"status"`
	Message          string  `json:"message"`
	IssueCount       int     `json:"issue_count"`
	RemediatedCount  int     `json:"remediated_count"`
	ActualCount      int     `json:"actual_count"`
	RemediatedIssues []Issue `json:"remediated_issues"`
	ActualIssues     []Issue `json:"actual_issues"`
	Error            string  `json:"error,omitempty"`
}

// Report is the aggregated outcome of a full reconciliation run.
type Report struct {
	Timestamp time.Time     `json:"timestamp"`
	Database  string        `json:"database"`
	Summary   Summary       `json:"summary"`
	Checks    []CheckReport `json:"checks"`
}

// Aggregate folds the per-check results into a run report. Remediated
// issues do not degrade a check's status: a check whose every issue was
// fixed counts as successful.
func Aggregate(database string, results []*Result) *Report {
	report := &Report{
		Timestamp: time.Now(),
		Database:  database,
		Summary:   Summary{TotalChecks: len(results), OverallStatus: StatusSuccess},
		Checks:    make([]CheckReport, 0, len(results)),
	}
	for _, result := range results {
		remediated := result.Remediated()
		actual := result.Remaining()
		if remediated == nil {
			remediated = []Issue{}
		}
		if actual == nil {
			actual = []Issue{}
		}

		status := StatusSuccess
		switch {
		case result.Err != nil:
			status = StatusError
		case len(actual) > 0:
			status = StatusWarning
		}

		entry := CheckReport{
			Check:            result.Check,
			Title:            result.Title,
			Description:      result.Description,
			Status:           status,
			Message:          result.Message,
			IssueCount:       len(result.Issues),
			RemediatedCount:  len(remediated),
			ActualCount:      len(actual),
			RemediatedIssues: remediated,
			ActualIssues:     actual,
		}
		if result.Err != nil {
			entry.Error = result.Err.Error()
		}
		report.Checks = append(report.Checks, entry)

		report.Summary.TotalIssues += len(result.Issues)
		report.Summary.RemediatedIssues += len(remediated)
		report.Summary.ActualIssues += len(actual)
		switch status {
		case StatusSuccess:
			report.Summary.Successful++
		case StatusWarning:
			report.Summary.Warnings++
		case StatusError:
			report.Summary.Errors++
		}
		if status.Worse(report.Summary.OverallStatus) {
			report.Summary.OverallStatus = status
		}
	}
	return report
}

// FileName returns the report file name for this run's timestamp.
func (r *Report) FileName() string {
	return fmt.Sprintf("metasync_checks_%s.json", r.Timestamp.Format("2006-01-02_15-04-05"))
}

// WriteFile persists the report as indented JSON under dir, creating
// the directory if needed, and returns the written path.
func (r *Report) WriteFile(dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", errors.WrapIO("create report directory", dir, err)
	}
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", errors.WrapParse("json", "report", err)
	}
	path := filepath.Join(dir, r.FileName())
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", errors.WrapIO("write report", path, err)
	}
	return path, nil
}
