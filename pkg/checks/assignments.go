package checks

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/civicdata/metasync/pkg/logging"
	"github.com/civicdata/metasync/pkg/reconcile"
)

// PostAssignment aligns each person's post assignments with the
// occupancy derived from directory memberships. Only posts carrying
// membership ids are under its control; assignments to any other post
// are left alone. Runs after PersonSync, which provides the
// authoritative occupancy.
type PostAssignment struct{}

func (c *PostAssignment) Name() string  { return "post_assignment" }
func (c *PostAssignment) Title() string { return "Membership-based Post Assignments" }
func (c *PostAssignment) Description() string {
	return "Checks that all posts with membership IDs have the correct person assignments."
}

func (c *PostAssignment) Run(ctx context.Context, env *Env, result *reconcile.Result) error {
	log := logging.Ctx(ctx)

	rows, err := env.Catalog.Query(ctx, currentAssignmentsQuery)
	if err != nil {
		return err
	}
	current := map[string][]string{}
	for _, row := range rows {
		personUUID := row.Get("person_uuid")
		current[personUUID] = append(current[personUUID], row.Get("post_uuid"))
	}
	log.Info().Int("assignments", len(rows)).Msg("loaded current post assignments")

	managedPosts, err := managedPostLabels(ctx, env)
	if err != nil {
		return err
	}
	// Posts whose occupancy could not be derived are off limits in both
	// directions: nothing gets added to them and their current holders
	// keep their assignments.
	managed := func(postUUID string) bool {
		if env.FailedPosts[postUUID] {
			return false
		}
		_, ok := managedPosts[postUUID]
		return ok
	}

	// Only managed posts may be assigned through occupancy data.
	should := map[string][]string{}
	for _, a := range env.ShouldAssignments {
		if a.PersonUUID == "" || !managed(a.PostUUID) {
			continue
		}
		should[a.PersonUUID] = append(should[a.PersonUUID], a.PostUUID)
	}

	names, err := personNames(ctx, env)
	if err != nil {
		return err
	}

	for _, personUUID := range sortedPersonSet(current, should) {
		diff := reconcile.DiffAssignments(current[personUUID], should[personUUID], managed)
		if !diff.Changed() {
			continue
		}
		personName := names[personUUID]

		applied, err := env.Apply(ctx, func(ctx context.Context) error {
			return env.Catalog.SetPersonAssignments(ctx, personUUID, diff.Desired)
		})
		for _, postUUID := range diff.ToAdd {
			result.Add(assignmentIssue(env, personUUID, personName, postUUID, managedPosts[postUUID], applied, err, true))
		}
		for _, postUUID := range diff.ToRemove {
			result.Add(assignmentIssue(env, personUUID, personName, postUUID, managedPosts[postUUID], applied, err, false))
		}
		switch {
		case err != nil:
			log.Error().Err(err).Str("person", personName).Msg("post assignment update failed")
		case applied:
			log.Info().Str("person", personName).
				Int("added", len(diff.ToAdd)).
				Int("removed", len(diff.ToRemove)).
				Msg("updated post assignments")
		}
	}
	return nil
}

func assignmentIssue(env *Env, personUUID, personName, postUUID, postLabel string, applied bool, err error, added bool) reconcile.Issue {
	if postLabel == "" {
		postLabel = "Unknown post"
	}
	issue := reconcile.Issue{
		PostUUID:   postUUID,
		PostLabel:  postLabel,
		PersonUUID: personUUID,
		PersonName: personName,
	}
	switch {
	case err != nil:
		issue.Remediation = reconcile.RemediationFailed()
		if added {
			issue.Type = reconcile.IssueAssignmentAddFailed
			issue.Message = fmt.Sprintf("Failed to assign person %s to post %s", personName, postLabel)
		} else {
			issue.Type = reconcile.IssueAssignmentRemoveFailed
			issue.Message = fmt.Sprintf("Failed to remove assignment of %s from post %s", personName, postLabel)
		}
	case applied:
		issue.Remediation = reconcile.Remediated()
		if added {
			issue.Type = reconcile.IssueAssignmentAdded
			issue.Message = fmt.Sprintf("Person %s has been assigned to post %s", personName, postLabel)
		} else {
			issue.Type = reconcile.IssueAssignmentRemoved
			issue.Message = fmt.Sprintf("Removed assignment of %s from post %s", personName, postLabel)
		}
	default:
		// Dry run: detected but untouched.
		if added {
			issue.Type = reconcile.IssueAssignmentAdded
			issue.Message = fmt.Sprintf("Person %s should be assigned to post %s", personName, postLabel)
		} else {
			issue.Type = reconcile.IssueAssignmentRemoved
			issue.Message = fmt.Sprintf("Person %s should not be assigned to post %s", personName, postLabel)
		}
	}
	return issue
}

// managedPostLabels returns post uuid to label for every post carrying
// an sk_membership_id or sk_second_membership_id custom property.
func managedPostLabels(ctx context.Context, env *Env) (map[string]string, error) {
	posts, err := postsWithMemberships(ctx, env, postsWithSkMembershipIDsQuery, "sk_membership_id", "sk_second_membership_id")
	if err != nil {
		return nil, err
	}
	labels := make(map[string]string, len(posts))
	for _, post := range posts {
		labels[post.UUID] = post.Label
	}
	return labels, nil
}

func personNames(ctx context.Context, env *Env) (map[string]string, error) {
	rows, err := env.Catalog.Query(ctx, allPersonsQuery)
	if err != nil {
		return nil, err
	}
	names := make(map[string]string, len(rows))
	for _, row := range rows {
		names[row.Get("person_uuid")] = strings.TrimSpace(row.Get("given_name") + " " + row.Get("family_name"))
	}
	return names, nil
}

func sortedPersonSet(current, should map[string][]string) []string {
	set := map[string]bool{}
	for personUUID := range current {
		set[personUUID] = true
	}
	for personUUID := range should {
		set[personUUID] = true
	}
	persons := make([]string, 0, len(set))
	for personUUID := range set {
		persons = append(persons, personUUID)
	}
	sort.Strings(persons)
	return persons
}
