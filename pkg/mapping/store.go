// Package mapping maintains the identity mapping between external IDs and
// catalog asset UUIDs. The file-backed store is the durable variant used
// across runs; the in-memory store is rebuilt from the catalog at startup.
package mapping

import (
	"github.com/google/uuid"

	"github.com/civicdata/metasync/pkg/logging"
)

// Entry records what a single external ID maps to in the catalog.
type Entry struct {
	Type         string
	UUID         string
	InCollection string
}

// Store is the identity mapping contract shared by both variants.
type Store interface {
	// Entry returns the mapping for an external ID if present.
	Entry(externalID string) (Entry, bool)

	// Add inserts or replaces a mapping. It reports false, without
	// storing, when a required value is empty or the UUID is malformed.
	Add(externalID string, entry Entry) bool

	// Remove deletes a mapping, reporting whether it existed.
	Remove(externalID string) bool

	// IDs returns all external IDs in the mapping.
	IDs() []string

	// All returns a copy of every mapping entry.
	All() map[string]Entry

	// IDField names the external ID field this store maps, such as
	// "sk_person_id".
	IDField() string
}

// validEntry checks required values and canonical UUID format, logging the
// reason when the entry is rejected.
func validEntry(idField, externalID string, entry Entry) bool {
	if externalID == "" || entry.Type == "" || entry.UUID == "" {
		logging.Warn().
			Str("id_field", idField).
			Str("external_id", externalID).
			Str("type", entry.Type).
			Str("uuid", entry.UUID).
			Msg("Cannot add mapping entry with empty values")
		return false
	}

	parsed, err := uuid.Parse(entry.UUID)
	if err != nil || parsed.String() != entry.UUID {
		logging.Warn().
			Str("id_field", idField).
			Str("external_id", externalID).
			Str("uuid", entry.UUID).
			Msg("Invalid UUID format for mapping entry")
		return false
	}
	return true
}
