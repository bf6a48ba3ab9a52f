package mapping

import (
	"context"
	"fmt"

	"github.com/civicdata/metasync/pkg/logging"
)

// Asset is the slice of a catalog asset the in-memory store needs: its
// identity plus the custom properties that may hold the external ID.
type Asset struct {
	UUID         string
	Type         string
	InCollection string
	Properties   map[string]any
}

// AssetLister supplies the current assets of a scheme, typically via the
// catalog's bulk download endpoint.
type AssetLister interface {
	ListAssets(ctx context.Context, scheme string) ([]Asset, error)
}

// MemoryStore holds the mapping in memory only, rebuilt from the catalog
// on construction. Changes are not persisted anywhere.
type MemoryStore struct {
	idField string
	entries map[string]Entry
}

// NewMemoryStore builds a mapping from the catalog's current assets.
// Assets without the ID field are skipped unless a filter overrides the
// selection. A failed fetch logs and yields an empty store; entries are
// then added as assets are created during the run.
func NewMemoryStore(ctx context.Context, scheme, idField string, lister AssetLister, filter func(Asset) bool) *MemoryStore {
	s := &MemoryStore{
		idField: idField,
		entries: make(map[string]Entry),
	}

	logging.Ctx(ctx).Info().
		Str("scheme", scheme).
		Str("id_field", idField).
		Msg("Fetching mappings from catalog")

	assets, err := lister.ListAssets(ctx, scheme)
	if err != nil {
		logging.Ctx(ctx).Error().Err(err).Str("scheme", scheme).Msg("Error fetching mappings from catalog")
		logging.Ctx(ctx).Warn().Msg("Continuing with empty mapping")
		return s
	}
	if len(assets) == 0 {
		logging.Ctx(ctx).Warn().Str("scheme", scheme).Msg("No assets found in scheme")
		return s
	}

	if filter == nil {
		filter = func(a Asset) bool {
			_, ok := a.Properties[idField]
			return ok
		}
	}

	for _, asset := range assets {
		if !filter(asset) {
			continue
		}
		raw, ok := asset.Properties[idField]
		if !ok || raw == nil {
			continue
		}
		externalID := fmt.Sprintf("%v", raw)
		if asset.UUID == "" || asset.Type == "" {
			logging.Ctx(ctx).Debug().
				Str("external_id", externalID).
				Msg("Asset missing UUID or type, skipping")
			continue
		}
		s.entries[externalID] = Entry{
			Type:         asset.Type,
			UUID:         asset.UUID,
			InCollection: asset.InCollection,
		}
	}

	logging.Ctx(ctx).Info().
		Str("scheme", scheme).
		Int("count", len(s.entries)).
		Msg("Fetched mappings from catalog")
	return s
}

// IDField implements Store.
func (s *MemoryStore) IDField() string {
	return s.idField
}

// Entry implements Store.
func (s *MemoryStore) Entry(externalID string) (Entry, bool) {
	entry, ok := s.entries[externalID]
	return entry, ok
}

// Add implements Store.
func (s *MemoryStore) Add(externalID string, entry Entry) bool {
	if !validEntry(s.idField, externalID, entry) {
		return false
	}
	s.entries[externalID] = entry
	return true
}

// Remove implements Store.
func (s *MemoryStore) Remove(externalID string) bool {
	if _, ok := s.entries[externalID]; !ok {
		return false
	}
	delete(s.entries, externalID)
	return true
}

// IDs implements Store.
func (s *MemoryStore) IDs() []string {
	ids := make([]string, 0, len(s.entries))
	for id := range s.entries {
		ids = append(ids, id)
	}
	return ids
}

// All implements Store.
func (s *MemoryStore) All() map[string]Entry {
	out := make(map[string]Entry, len(s.entries))
	for id, entry := range s.entries {
		out[id] = entry
	}
	return out
}
