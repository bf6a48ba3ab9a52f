package mapping

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/civicdata/metasync/pkg/errors"
	"github.com/civicdata/metasync/pkg/logging"
)

// FileStore persists the mapping in a CSV file named
// <database>_<scheme>_<prefix>-mapping.csv. Rows are kept sorted by
// external ID so the file diffs cleanly under version control.
type FileStore struct {
	idField string
	path    string
	entries map[string]Entry
}

// FilePath derives the mapping file location for a database and scheme.
func FilePath(dir, database, scheme, prefix string) string {
	return filepath.Join(dir, fmt.Sprintf("%s_%s_%s-mapping.csv", database, scheme, prefix))
}

// NewFileStore opens or creates a file-backed mapping store.
func NewFileStore(dir, database, scheme, prefix, idField string) (*FileStore, error) {
	if database == "" {
		return nil, &errors.ValidationError{Field: "database", Message: "must not be empty"}
	}
	if scheme == "" {
		return nil, &errors.ValidationError{Field: "scheme", Message: "must not be empty"}
	}

	s := &FileStore{
		idField: idField,
		path:    FilePath(dir, database, scheme, prefix),
		entries: make(map[string]Entry),
	}
	logging.Info().Str("path", s.path).Msg("Using mapping file")
	s.load()
	return s, nil
}

// Path returns the location of the backing CSV file.
func (s *FileStore) Path() string {
	return s.path
}

// IDField implements Store.
func (s *FileStore) IDField() string {
	return s.idField
}

// Entry implements Store.
func (s *FileStore) Entry(externalID string) (Entry, bool) {
	entry, ok := s.entries[externalID]
	return entry, ok
}

// Add implements Store. The file is rewritten on every successful change.
func (s *FileStore) Add(externalID string, entry Entry) bool {
	if !validEntry(s.idField, externalID, entry) {
		return false
	}
	s.entries[externalID] = entry
	s.save()
	return true
}

// Remove implements Store.
func (s *FileStore) Remove(externalID string) bool {
	if _, ok := s.entries[externalID]; !ok {
		return false
	}
	delete(s.entries, externalID)
	s.save()
	return true
}

// IDs implements Store.
func (s *FileStore) IDs() []string {
	ids := make([]string, 0, len(s.entries))
	for id := range s.entries {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// All implements Store.
func (s *FileStore) All() map[string]Entry {
	out := make(map[string]Entry, len(s.entries))
	for id, entry := range s.entries {
		out[id] = entry
	}
	return out
}

func (s *FileStore) header() []string {
	return []string{s.idField, "_type", "uuid", "inCollection"}
}

// load reads the CSV file, creating it with a header when missing. Read
// failures are logged and leave the store empty rather than aborting the
// run.
func (s *FileStore) load() {
	file, err := os.Open(s.path)
	if os.IsNotExist(err) {
		s.save()
		return
	}
	if err != nil {
		logging.Warn().Err(err).Str("path", s.path).Msg("Could not read mapping file")
		return
	}
	defer file.Close() //nolint:errcheck

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		logging.Warn().Err(err).Str("path", s.path).Msg("Error parsing mapping file")
		return
	}
	if len(records) == 0 {
		return
	}

	if !equalHeader(records[0], s.header()) {
		logging.Warn().
			Str("path", s.path).
			Strs("expected", s.header()).
			Strs("found", records[0]).
			Msg("Mapping file header mismatch, loading anyway")
	}

	for _, row := range records[1:] {
		if len(row) < 3 {
			logging.Warn().Strs("row", row).Msg("Skipping mapping row with missing columns")
			continue
		}
		entry := Entry{Type: row[1], UUID: row[2]}
		if len(row) > 3 {
			entry.InCollection = row[3]
		}
		s.entries[row[0]] = entry
	}
}

// save rewrites the whole file sorted by external ID.
func (s *FileStore) save() {
	file, err := os.Create(s.path)
	if err != nil {
		logging.Warn().Err(err).Str("path", s.path).Msg("Could not write mapping file")
		return
	}
	defer file.Close() //nolint:errcheck

	writer := csv.NewWriter(file)
	if err := writer.Write(s.header()); err != nil {
		logging.Warn().Err(err).Str("path", s.path).Msg("Could not write mapping header")
		return
	}
	for _, id := range s.IDs() {
		entry := s.entries[id]
		if err := writer.Write([]string{id, entry.Type, entry.UUID, entry.InCollection}); err != nil {
			logging.Warn().Err(err).Str("path", s.path).Msg("Could not write mapping row")
			return
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		logging.Warn().Err(err).Str("path", s.path).Msg("Could not flush mapping file")
	}
}

func equalHeader(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
