package directory

import "strings"

// Person holds the directory's view of a person. GivenName carries the
// first token of the directory's first name field; any remainder goes to
// AdditionalName.
type Person struct {
	ID             string
	GivenName      string
	AdditionalName string
	FamilyName     string
	Email          string
	Phone          string
}

// FullName renders "Given Family" for log lines and issue reports.
func (p Person) FullName() string {
	return strings.TrimSpace(p.GivenName + " " + p.FamilyName)
}

// Membership links a directory membership to the person holding it.
type Membership struct {
	ID         string
	PersonID   string
	PersonLink string
}

// ContactDetails is the subset of person data compared during contact
// reconciliation.
type ContactDetails struct {
	Email string
	Phone string
}
