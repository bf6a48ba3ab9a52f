package checks

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/civicdata/metasync/pkg/logging"
	"github.com/civicdata/metasync/pkg/reconcile"
)

// UniquePersonID verifies that no two persons share a directory person
// id. Duplicates cannot be resolved automatically because either record
// could be the right one; they are only reported.
type UniquePersonID struct{}

func (c *UniquePersonID) Name() string  { return "unique_person_id" }
func (c *UniquePersonID) Title() string { return "Unique Directory Person ID" }
func (c *UniquePersonID) Description() string {
	return "Checks that all persons have unique sk_person_id values."
}

func (c *UniquePersonID) Run(ctx context.Context, env *Env, result *reconcile.Result) error {
	log := logging.Ctx(ctx)

	rows, err := env.Catalog.Query(ctx, personsWithDirectoryIDQuery)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		log.Info().Msg("no persons with sk_person_id found")
		return nil
	}
	log.Info().Int("persons", len(rows)).Msg("verifying directory person ids")

	groups := map[string][]personRecord{}
	for _, row := range rows {
		directoryID := row.Get("sk_person_id")
		if directoryID == "" {
			continue
		}
		groups[directoryID] = append(groups[directoryID], personRecord{
			UUID:       row.Get("person_uuid"),
			GivenName:  row.Get("given_name"),
			FamilyName: row.Get("family_name"),
		})
	}

	ids := make([]string, 0, len(groups))
	for id := range groups {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, directoryID := range ids {
		persons := groups[directoryID]
		if len(persons) < 2 {
			continue
		}
		uuids := make([]string, 0, len(persons))
		names := make([]string, 0, len(persons))
		urls := make([]string, 0, len(persons))
		for _, p := range persons {
			uuids = append(uuids, p.UUID)
			names = append(names, p.FullName())
			urls = append(urls, env.Catalog.WebURL("persons", p.UUID))
		}
		log.Info().Str("sk_person_id", directoryID).Strs("persons", names).Msg("duplicate directory person id")
		result.Add(reconcile.Issue{
			Type:              reconcile.IssueDuplicateDirectoryID,
			DirectoryPersonID: directoryID,
			PersonUUIDs:       uuids,
			PersonNames:       names,
			Message: fmt.Sprintf("Duplicate sk_person_id '%s' found for %d persons. URLs: %s",
				directoryID, len(persons), strings.Join(urls, ", ")),
		})
	}
	return nil
}

type personRecord struct {
	UUID       string
	GivenName  string
	FamilyName string
}

func (p personRecord) FullName() string {
	return strings.TrimSpace(p.GivenName + " " + p.FamilyName)
}
