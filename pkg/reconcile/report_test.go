package reconcile_test

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/civicdata/metasync/pkg/reconcile"
)

func TestAggregate(t *testing.T) {
	clean := reconcile.NewResult("check1", "Duplicates", "finds duplicate directory ids")
	clean.Finalize()

	fixed := reconcile.NewResult("check3", "Assignments", "syncs post assignments")
	fixed.Add(reconcile.Issue{Type: reconcile.IssueAssignmentAdded, Remediation: reconcile.Remediated()})
	fixed.Finalize()

	open := reconcile.NewResult("check5", "Users", "ensures user accounts")
	open.Add(reconcile.Issue{Type: reconcile.IssueUserCreated, Remediation: reconcile.Remediated()})
	open.Add(reconcile.Issue{Type: reconcile.IssuePersonMissingEmail})
	open.Finalize()

	failed := reconcile.NewResult("check6", "Contacts", "syncs contact details")
	failed.Fail(errors.New("directory unavailable"))

	report := reconcile.Aggregate("PROD", []*reconcile.Result{clean, fixed, open, failed})

	assert.Equal(t, "PROD", report.Database)
	assert.Equal(t, 4, report.Summary.TotalChecks)
	assert.Equal(t, 2, report.Summary.Successful)
	assert.Equal(t, 1, report.Summary.Warnings)
	assert.Equal(t, 1, report.Summary.Errors)
	assert.Equal(t, 3, report.Summary.TotalIssues)
	assert.Equal(t, 2, report.Summary.RemediatedIssues)
	assert.Equal(t, 1, report.Summary.ActualIssues)
	assert.Equal(t, reconcile.StatusError, report.Summary.OverallStatus)

	require.Len(t, report.Checks, 4)

	// A fully remediated check counts as successful.
	assert.Equal(t, reconcile.StatusSuccess, report.Checks[1].Status)
	assert.Equal(t, 1, report.Checks[1].RemediatedCount)
	assert.Zero(t, report.Checks[1].ActualCount)

	assert.Equal(t, reconcile.StatusWarning, report.Checks[2].Status)
	assert.Equal(t, 1, report.Checks[2].ActualCount)
	require.Len(t, report.Checks[2].ActualIssues, 1)
	assert.Equal(t, reconcile.IssuePersonMissingEmail, report.Checks[2].ActualIssues[0].Type)

	assert.Equal(t, reconcile.StatusError, report.Checks[3].Status)
	assert.Equal(t, "directory unavailable", report.Checks[3].Error)
}

func TestAggregateWorstStatusWarning(t *testing.T) {
	open := reconcile.NewResult("check2", "Memberships", "verifies memberships")
	open.Add(reconcile.Issue{Type: reconcile.IssueInvalidMembership})
	open.Finalize()

	report := reconcile.Aggregate("TEST", []*reconcile.Result{open})
	assert.Equal(t, reconcile.StatusWarning, report.Summary.OverallStatus)
}

func TestReportWriteFile(t *testing.T) {
	result := reconcile.NewResult("check1", "Duplicates", "finds duplicate directory ids")
	result.Finalize()
	report := reconcile.Aggregate("TEST", []*reconcile.Result{result})

	dir := filepath.Join(t.TempDir(), "reports")
	path, err := report.WriteFile(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, report.FileName()), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	summary, ok := decoded["summary"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(1), summary["total_checks"])
	assert.Equal(t, "success", summary["overall_status"])

	// Empty issue lists serialize as arrays, not null.
	checks := decoded["checks"].([]any)
	first := checks[0].(map[string]any)
	assert.Equal(t, []any{}, first["actual_issues"])
}
