package checks

import (
	"context"
	"fmt"
	"strings"

	"github.com/civicdata/metasync/pkg/errors"
	"github.com/civicdata/metasync/pkg/logging"
	"github.com/civicdata/metasync/pkg/reconcile"
)

// PersonSync verifies that every person referenced by a post's
// membership ids exists in the catalog with the directory's name and
// directory id, creating or updating persons as needed. It also builds
// the authoritative post occupancy and the directory email cache that
// the assignment and user checks consume.
type PersonSync struct{}

func (c *PersonSync) Name() string  { return "person_sync" }
func (c *PersonSync) Title() string { return "Person Synchronization" }
func (c *PersonSync) Description() string {
	return "Checks that all posts with membership IDs have the correct persons from the directory."
}

type postMemberships struct {
	UUID          string
	Label         string
	MembershipIDs []string
}

func (c *PersonSync) Run(ctx context.Context, env *Env, result *reconcile.Result) error {
	log := logging.Ctx(ctx)

	posts, err := postsWithMemberships(ctx, env, postsWithMembershipIDsQuery, "membership_id", "second_membership_id")
	if err != nil {
		return err
	}
	if len(posts) == 0 {
		log.Info().Msg("no posts with membership ids found")
		return nil
	}
	log.Info().Int("posts", len(posts)).Msg("verifying post memberships")

	idx := &personIndex{}
	for i, post := range posts {
		log.Info().Str("post", post.Label).Msgf("[%d/%d] %s", i+1, len(posts), post.Label)
		for _, membershipID := range post.MembershipIDs {
			c.syncMembership(ctx, env, result, idx, post, membershipID)
		}
	}
	return nil
}

// syncMembership reconciles one membership of one post. Any failure is
// recorded as an issue for this membership; the remaining memberships
// still get processed.
func (c *PersonSync) syncMembership(ctx context.Context, env *Env, result *reconcile.Result, idx *personIndex, post postMemberships, membershipID string) {
	log := logging.Ctx(ctx)

	person, err := env.Directory.PersonByMembership(ctx, membershipID)
	if err != nil {
		env.FailedPosts[post.UUID] = true
		result.Add(membershipIssue(err, post, membershipID))
		return
	}

	// The directory's full first name is given plus additional.
	givenName := person.GivenName
	if person.AdditionalName != "" {
		givenName += " " + person.AdditionalName
	}
	familyName := person.FamilyName
	if person.ID == "" || givenName == "" || familyName == "" {
		env.FailedPosts[post.UUID] = true
		result.Add(reconcile.Issue{
			Type:         reconcile.IssueMissingPersonData,
			PostUUID:     post.UUID,
			PostLabel:    post.Label,
			MembershipID: membershipID,
			Message:      "Person data is incomplete in the directory",
		})
		return
	}
	if person.Email != "" {
		env.DirectoryEmails[person.ID] = person.Email
	}

	if err := idx.load(ctx, env); err != nil {
		env.FailedPosts[post.UUID] = true
		result.Add(reconcile.Issue{
			Type:         reconcile.IssueProcessingError,
			PostUUID:     post.UUID,
			PostLabel:    post.Label,
			MembershipID: membershipID,
			Message:      fmt.Sprintf("Error processing membership ID %s: %v", membershipID, err),
		})
		return
	}

	personUUID := ""
	if existing, ok := idx.byDirectoryID[person.ID]; ok {
		personUUID = existing.UUID
		if existing.GivenName != givenName || existing.FamilyName != familyName {
			applied, err := env.Apply(ctx, func(ctx context.Context) error {
				return env.Catalog.UpdatePersonName(ctx, existing.UUID, givenName, familyName)
			})
			issue := reconcile.Issue{
				Type:         reconcile.IssuePersonNameMismatch,
				PostUUID:     post.UUID,
				PostLabel:    post.Label,
				MembershipID: membershipID,
				PersonUUID:   existing.UUID,
				Message: fmt.Sprintf("Person name mismatch: %s %s -> %s %s",
					existing.GivenName, existing.FamilyName, givenName, familyName),
			}
			switch {
			case err != nil:
				issue.Remediation = reconcile.RemediationFailed()
				issue.Message += fmt.Sprintf(" (update failed: %v)", err)
				log.Error().Err(err).Str("person", personUUID).Msg("person name update failed")
			case applied:
				issue.Remediation = reconcile.Remediated()
				idx.invalidate()
				log.Info().Str("person", personUUID).Msgf("updated person name to %s %s", givenName, familyName)
			}
			result.Add(issue)
		}
		env.ShouldAssignments = append(env.ShouldAssignments, Assignment{PostUUID: post.UUID, PersonUUID: personUUID})
		return
	}

	// No catalog person carries this directory id yet.
	fullName := givenName + " " + familyName
	if uuid, ok := idx.byName[fullName]; ok {
		personUUID = uuid
		log.Info().Str("person", uuid).Msgf("found existing person %s", fullName)
	} else {
		applied, err := env.Apply(ctx, func(ctx context.Context) error {
			uuid, err := env.Catalog.CreatePerson(ctx, givenName, familyName)
			personUUID = uuid
			return err
		})
		issue := reconcile.Issue{
			Type:         reconcile.IssuePersonCreated,
			PostUUID:     post.UUID,
			PostLabel:    post.Label,
			MembershipID: membershipID,
			GivenName:    givenName,
			FamilyName:   familyName,
		}
		switch {
		case err != nil:
			env.FailedPosts[post.UUID] = true
			issue.Remediation = reconcile.RemediationFailed()
			issue.Message = fmt.Sprintf("Failed to create person %s: %v", fullName, err)
			result.Add(issue)
			return
		case !applied:
			env.FailedPosts[post.UUID] = true
			issue.Message = fmt.Sprintf("Person %s is missing from the catalog", fullName)
			result.Add(issue)
			return
		}
		issue.Remediation = reconcile.Remediated()
		issue.PersonUUID = personUUID
		issue.Message = fmt.Sprintf("Person %s was created in the catalog (Link: %s)",
			fullName, env.Catalog.WebURL("persons", personUUID))
		result.Add(issue)
		idx.invalidate()
		log.Info().Str("person", personUUID).Msgf("created person %s", fullName)
	}

	if !env.DryRun {
		changed, err := env.Catalog.EnsurePersonDirectoryID(ctx, personUUID, person.ID)
		switch {
		case err != nil:
			result.Add(reconcile.Issue{
				Type:              reconcile.IssueProcessingError,
				PostUUID:          post.UUID,
				PostLabel:         post.Label,
				MembershipID:      membershipID,
				PersonUUID:        personUUID,
				DirectoryPersonID: person.ID,
				Message:           fmt.Sprintf("Error processing membership ID %s: %v", membershipID, err),
			})
		case changed:
			result.Add(reconcile.Issue{
				Type:              reconcile.IssueDirectoryIDSet,
				PostUUID:          post.UUID,
				PostLabel:         post.Label,
				MembershipID:      membershipID,
				PersonUUID:        personUUID,
				DirectoryPersonID: person.ID,
				Message:           fmt.Sprintf("Person sk_person_id updated to %s", person.ID),
				Remediation:       reconcile.Remediated(),
			})
			idx.invalidate()
			log.Info().Str("person", personUUID).Msgf("set sk_person_id to %s", person.ID)
		}
	}

	env.ShouldAssignments = append(env.ShouldAssignments, Assignment{PostUUID: post.UUID, PersonUUID: personUUID})
}

// membershipIssue maps a directory resolution failure onto the issue
// kind matching where the resolution broke down.
func membershipIssue(err error, post postMemberships, membershipID string) reconcile.Issue {
	issue := reconcile.Issue{
		PostUUID:     post.UUID,
		PostLabel:    post.Label,
		MembershipID: membershipID,
	}
	switch {
	case errors.IsNotFound(err):
		issue.Type = reconcile.IssueInvalidMembership
		issue.Message = fmt.Sprintf("Invalid membership ID %s - not found in the directory", membershipID)
	case errors.IsValidationError(err):
		issue.Type = reconcile.IssueMissingPersonLink
		issue.Message = "Could not find person link in membership data"
	default:
		issue.Type = reconcile.IssuePersonDataError
		issue.Message = fmt.Sprintf("Could not retrieve person data from the directory: %v", err)
	}
	return issue
}

// postsWithMemberships runs a post/membership query and folds the two
// membership columns into one id list per post.
func postsWithMemberships(ctx context.Context, env *Env, query, primary, secondary string) ([]postMemberships, error) {
	rows, err := env.Catalog.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	posts := make([]postMemberships, 0, len(rows))
	for _, row := range rows {
		post := postMemberships{
			UUID:  row.Get("post_uuid"),
			Label: row.Get("post_label"),
		}
		if id := row.Get(primary); id != "" {
			post.MembershipIDs = append(post.MembershipIDs, id)
		}
		if id := row.Get(secondary); id != "" {
			post.MembershipIDs = append(post.MembershipIDs, id)
		}
		posts = append(posts, post)
	}
	return posts, nil
}

// personIndex caches catalog persons by directory id and by full name
// for the duration of the check. Any write that touches person records
// invalidates it; the next lookup reloads.
type personIndex struct {
	byDirectoryID map[string]personRecord
	byName        map[string]string
}

func (idx *personIndex) load(ctx context.Context, env *Env) error {
	if idx.byDirectoryID != nil {
		return nil
	}
	rows, err := env.Catalog.Query(ctx, personsWithDirectoryIDQuery)
	if err != nil {
		return err
	}
	idx.byDirectoryID = make(map[string]personRecord, len(rows))
	for _, row := range rows {
		idx.byDirectoryID[row.Get("sk_person_id")] = personRecord{
			UUID:       row.Get("person_uuid"),
			GivenName:  row.Get("given_name"),
			FamilyName: row.Get("family_name"),
		}
	}

	rows, err = env.Catalog.Query(ctx, allPersonsQuery)
	if err != nil {
		return err
	}
	idx.byName = make(map[string]string, len(rows))
	for _, row := range rows {
		name := strings.TrimSpace(row.Get("given_name") + " " + row.Get("family_name"))
		idx.byName[name] = row.Get("person_uuid")
	}
	return nil
}

func (idx *personIndex) invalidate() {
	idx.byDirectoryID = nil
	idx.byName = nil
}
