// Package reconcile holds the shared vocabulary of a reconciliation run:
// issues found by checks, per-check results, assignment set math, and the
// aggregated run report.
package reconcile

// Status classifies a check outcome. Statuses order success < warning <
// error; aggregation keeps the worst one seen.
type Status string

// Check statuses.
const (
	StatusSuccess Status = "success"
	StatusWarning Status = "warning"
	StatusError   Status = "error"
)

// Worse reports whether s outranks other in severity.
func (s Status) Worse(other Status) bool {
	return s.rank() > other.rank()
}

func (s Status) rank() int {
	switch s {
	case StatusWarning:
		return 1
	case StatusError:
		return 2
	}
	return 0
}

// IssueType tags what kind of inconsistency an issue describes.
type IssueType string

// Issue types reported by the checks. Types ending in _failed record a
// remediation that was attempted but did not stick.
const (
	IssueDuplicateDirectoryID IssueType = "duplicate_sk_person_id"

	IssueInvalidMembership  IssueType = "invalid_membership"
	IssueMissingPersonLink  IssueType = "missing_person_link"
	IssuePersonDataError    IssueType = "person_data_error"
	IssueMissingPersonData  IssueType = "missing_person_data"
	IssuePersonNameMismatch IssueType = "person_name_mismatch"
	IssuePersonCreated      IssueType = "person_created"
	IssueDirectoryIDSet     IssueType = "person_sk_id_updated"
	IssueProcessingError    IssueType = "processing_error"

	IssueAssignmentAdded        IssueType = "person_assignment_added"
	IssueAssignmentRemoved      IssueType = "person_assignment_removed"
	IssueAssignmentAddFailed    IssueType = "person_assignment_add_failed"
	IssueAssignmentRemoveFailed IssueType = "person_assignment_remove_failed"

	IssueUnoccupiedPost IssueType = "unoccupied_post"

	IssuePersonMissingEmail       IssueType = "person_missing_email"
	IssueUserCreated              IssueType = "user_created"
	IssueUserCreateFailed         IssueType = "user_create_failed"
	IssueUserPersonLinkUpdated    IssueType = "user_person_link_updated"
	IssueUserPersonLinkUpdateFail IssueType = "user_person_link_update_failed"
	IssueAccessLevelUpdated       IssueType = "access_level_updated"
	IssueAccessLevelUpdateFailed  IssueType = "access_level_update_failed"

	IssueContactRetrievalFailed IssueType = "contact_retrieval_failed"
	IssueContactUpdated         IssueType = "contact_details_updated"
	IssueContactUpdateFailed    IssueType = "contact_details_update_failed"
)

// Remediation records whether an automatic fix was tried and stuck.
type Remediation struct {
	Attempted bool `json:"remediation_attempted"`
	Succeeded bool `json:"remediation_success"`
}

// Fixed reports whether the issue was attempted and successfully fixed.
// A failed attempt still needs attention.
func (r Remediation) Fixed() bool {
	return r.Attempted && r.Succeeded
}

// Remediated marks an issue as automatically fixed.
func Remediated() Remediation {
	return Remediation{Attempted: true, Succeeded: true}
}

// RemediationFailed marks an issue whose automatic fix did not stick.
func RemediationFailed() Remediation {
	return Remediation{Attempted: true, Succeeded: false}
}

// Change is one field difference between current and target state.
type Change struct {
	Current string `json:"current"`
	Target  string `json:"target"`
}

// Issue is one inconsistency found by a check. Only the fields relevant
// to the issue type are set.
type Issue struct {
	Type    IssueType `json:"type"`
	Message string    `json:"message"`
	Remediation

	PostUUID          string `json:"post_uuid,omitempty"`
	PostLabel         string `json:"post_label,omitempty"`
	PersonUUID        string `json:"person_uuid,omitempty"`
	PersonName        string `json:"person_name,omitempty"`
	GivenName         string `json:"given_name,omitempty"`
	FamilyName        string `json:"family_name,omitempty"`
	MembershipID      string `json:"membership_id,omitempty"`
	DirectoryPersonID string `json:"sk_person_id,omitempty"`

	UserUUID    string `json:"user_uuid,omitempty"`
	UserLogin   string `json:"user_email,omitempty"`
	AccessLevel string `json:"user_access_level,omitempty"`
	PostsCount  int    `json:"posts_count,omitempty"`

	// Duplicate listings name every colliding record.
	PersonUUIDs []string `json:"person_uuids,omitempty"`
	PersonNames []string `json:"person_names,omitempty"`

	// Differences hold per-field changes for contact updates.
	Differences map[string]Change `json:"differences,omitempty"`
}
