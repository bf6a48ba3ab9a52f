package reconcile

import "fmt"

// Result is the outcome of one check run.
type Result struct {
	Check       string  `json:"check"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Status      Status  `json:"status"`
	Message     string  `json:"message"`
	Issues      []Issue `json:"issues"`

	// Err holds the failure when the check itself could not complete.
	Err error `json:"-"`
}

// NewResult returns a result in its initial successful state.
func NewResult(check, title, description string) *Result {
	return &Result{
		Check:       check,
		Title:       title,
		Description: description,
		Status:      StatusSuccess,
		Issues:      []Issue{},
	}
}

// Add appends an issue to the result.
func (r *Result) Add(issue Issue) {
	r.Issues = append(r.Issues, issue)
}

// Remediated returns the issues that were automatically fixed.
func (r *Result) Remediated() []Issue {
	var fixed []Issue
	for _, issue := range r.Issues {
		if issue.Fixed() {
			fixed = append(fixed, issue)
		}
	}
	return fixed
}

// Remaining returns the issues still requiring attention, including
// failed remediation attempts.
func (r *Result) Remaining() []Issue {
	var open []Issue
	for _, issue := range r.Issues {
		if !issue.Fixed() {
			open = append(open, issue)
		}
	}
	return open
}

// Fail marks the check as errored. Recorded issues are kept so a
// partially completed check still reports what it found.
func (r *Result) Fail(err error) {
	r.Err = err
	r.Status = StatusError
	r.Message = fmt.Sprintf("Check failed: %v", err)
}

// Finalize derives the status and summary message from the recorded
// issues. A check that already failed keeps its error state.
func (r *Result) Finalize() {
	if r.Status == StatusError {
		return
	}
	total := len(r.Issues)
	if total == 0 {
		r.Status = StatusSuccess
		r.Message = "No issues found"
		return
	}
	fixed := len(r.Remediated())
	open := total - fixed
	if open == 0 {
		r.Status = StatusSuccess
		r.Message = fmt.Sprintf("Fixed %d issue(s) automatically", fixed)
		return
	}
	r.Status = StatusWarning
	r.Message = fmt.Sprintf("Found %d issue(s) (%d automatically fixed, %d requiring attention)", total, fixed, open)
}
