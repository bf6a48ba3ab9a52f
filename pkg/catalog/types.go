package catalog

import (
	"strings"

	"github.com/civicdata/metasync/pkg/errors"
)

// Resource type discriminators used in API payloads.
const (
	TypePerson  = "Person"
	TypePost    = "Post"
	TypeUser    = "User"
	TypeDataset = "Dataset"
)

// Status values the catalog accepts on writes. Every update forces the
// resource back to working state; marking for review parks it for a human
// decision instead of deleting it.
const (
	StatusWorking   = "WORKING"
	StatusReviewing = "DELETENEW"
)

// AccessLevel is a user account's permission tier.
type AccessLevel string

// Access levels, lowest to highest.
const (
	AccessReadOnly      AccessLevel = "READ_ONLY"
	AccessEditor        AccessLevel = "EDITOR"
	AccessAdministrator AccessLevel = "ADMINISTRATOR"
)

// ParseAccessLevel normalizes an access level string. The legacy spelling
// "ADMIN" still appears on old accounts and maps to ADMINISTRATOR.
func ParseAccessLevel(s string) (AccessLevel, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "READ_ONLY":
		return AccessReadOnly, nil
	case "EDITOR":
		return AccessEditor, nil
	case "ADMIN", "ADMINISTRATOR":
		return AccessAdministrator, nil
	default:
		return "", &errors.ValidationError{Field: "accessLevel", Value: s, Message: "unknown access level"}
	}
}

// AtLeast reports whether the level grants at least the given tier.
func (l AccessLevel) AtLeast(min AccessLevel) bool {
	return l.rank() >= min.rank()
}

func (l AccessLevel) rank() int {
	switch l {
	case AccessReadOnly:
		return 1
	case AccessEditor:
		return 2
	case AccessAdministrator:
		return 3
	}
	return 0
}

// Person is a catalog person resource.
type Person struct {
	UUID             string         `json:"id,omitempty"`
	Type             string         `json:"_type"`
	GivenName        string         `json:"givenName,omitempty"`
	FamilyName       string         `json:"familyName,omitempty"`
	AdditionalName   string         `json:"additionalName,omitempty"`
	Status           string         `json:"status,omitempty"`
	InCollection     string         `json:"inCollection,omitempty"`
	HoldsPost        []string       `json:"holdsPost,omitempty"`
	CustomProperties map[string]any `json:"customProperties,omitempty"`
}

// User is a catalog user account. IsPerson links the account to a person
// by name in "Family, Given" form.
type User struct {
	UUID        string      `json:"id,omitempty"`
	Type        string      `json:"_type"`
	Login       string      `json:"loginId,omitempty"`
	Name        string      `json:"name,omitempty"`
	IsPerson    string      `json:"isPerson,omitempty"`
	AccessLevel AccessLevel `json:"accessLevel,omitempty"`
}

// PersonLinkName renders the "Family, Given" form used by the isPerson
// field.
func PersonLinkName(givenName, familyName string) string {
	return familyName + ", " + givenName
}

// Operation selects the bulk upload mode.
type Operation string

// Bulk upload operations.
const (
	OperationAdd      Operation = "ADD"
	OperationReplace  Operation = "REPLACE"
	OperationFullLoad Operation = "FULL_LOAD"
)

// Valid reports whether the operation is one the upload endpoint accepts.
func (o Operation) Valid() bool {
	switch o {
	case OperationAdd, OperationReplace, OperationFullLoad:
		return true
	}
	return false
}
