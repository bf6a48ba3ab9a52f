package checks

import (
	"context"
	"fmt"
	"strconv"

	"golang.org/x/text/cases"

	"github.com/civicdata/metasync/pkg/catalog"
	"github.com/civicdata/metasync/pkg/logging"
	"github.com/civicdata/metasync/pkg/reconcile"
)

// UserAccounts verifies that every person carrying a directory id has a
// user account whose login is the directory email, linked back to the
// person, with access rights matching post occupancy: EDITOR when the
// person holds posts, READ_ONLY otherwise. Administrators are never
// demoted and accounts are never deleted. Runs after PersonSync, which
// provides the directory email cache.
type UserAccounts struct{}

func (c *UserAccounts) Name() string  { return "user_accounts" }
func (c *UserAccounts) Title() string { return "User Account Synchronization" }
func (c *UserAccounts) Description() string {
	return "Checks that all persons with sk_person_id have the correct user accounts."
}

type userRecord struct {
	UUID         string
	Login        string
	AccessLevel  string
	LinkedPerson string
}

func (c *UserAccounts) Run(ctx context.Context, env *Env, result *reconcile.Result) error {
	log := logging.Ctx(ctx)
	if len(env.DirectoryEmails) == 0 {
		log.Warn().Msg("directory email cache is empty, missing emails cannot be told apart from unchecked ones")
	}

	persons, err := env.Catalog.Query(ctx, personsWithPostCountQuery)
	if err != nil {
		return err
	}
	if len(persons) == 0 {
		log.Info().Msg("no persons with sk_person_id found")
		return nil
	}

	users, err := env.Catalog.Query(ctx, nonServiceUsersQuery)
	if err != nil {
		return err
	}
	log.Info().Int("persons", len(persons)).Int("users", len(users)).Msg("verifying user accounts")

	fold := cases.Fold()
	usersByLogin := make(map[string]userRecord, len(users))
	for _, row := range users {
		login := row.Get("email")
		if login == "" {
			continue
		}
		usersByLogin[fold.String(login)] = userRecord{
			UUID:         row.Get("user_uuid"),
			Login:        login,
			AccessLevel:  row.Get("access_level"),
			LinkedPerson: row.Get("linked_person_uuid"),
		}
	}

	for _, row := range persons {
		personUUID := row.Get("person_uuid")
		directoryID := row.Get("sk_person_id")
		givenName := row.Get("given_name")
		familyName := row.Get("family_name")
		postsCount, _ := strconv.Atoi(row.Get("posts_count"))
		personName := givenName + " " + familyName

		email := env.DirectoryEmails[directoryID]
		if email == "" {
			result.Add(reconcile.Issue{
				Type:              reconcile.IssuePersonMissingEmail,
				PersonUUID:        personUUID,
				GivenName:         givenName,
				FamilyName:        familyName,
				DirectoryPersonID: directoryID,
				PostsCount:        postsCount,
				Message:           fmt.Sprintf("Person %s has no email address in the directory", personName),
			})
			continue
		}

		user, ok := usersByLogin[fold.String(email)]
		if !ok {
			c.createUser(ctx, env, result, row, email, postsCount)
			continue
		}

		if user.LinkedPerson != personUUID {
			applied, err := env.Apply(ctx, func(ctx context.Context) error {
				return env.Catalog.SetUserPersonLink(ctx, user.UUID, givenName, familyName)
			})
			issue := reconcile.Issue{
				PersonUUID: personUUID,
				GivenName:  givenName,
				FamilyName: familyName,
				UserUUID:   user.UUID,
				UserLogin:  user.Login,
			}
			switch {
			case err != nil:
				issue.Type = reconcile.IssueUserPersonLinkUpdateFail
				issue.Remediation = reconcile.RemediationFailed()
				issue.Message = fmt.Sprintf("Failed to link user %s to person %s: %v", user.Login, personName, err)
			case applied:
				issue.Type = reconcile.IssueUserPersonLinkUpdated
				issue.Remediation = reconcile.Remediated()
				issue.Message = fmt.Sprintf("User %s linked to person %s", user.Login, personName)
				log.Info().Str("user", user.Login).Msgf("linked user to %s", personName)
			default:
				issue.Type = reconcile.IssueUserPersonLinkUpdated
				issue.Message = fmt.Sprintf("User %s is not correctly linked to person %s", user.Login, personName)
			}
			result.Add(issue)
		}

		c.alignAccessLevel(ctx, env, result, row, user, postsCount)
	}
	return nil
}

func (c *UserAccounts) createUser(ctx context.Context, env *Env, result *reconcile.Result, person catalog.Row, email string, postsCount int) {
	log := logging.Ctx(ctx)
	givenName := person.Get("given_name")
	familyName := person.Get("family_name")
	personName := givenName + " " + familyName

	level := catalog.AccessReadOnly
	if postsCount > 0 {
		level = catalog.AccessEditor
	}

	userUUID := ""
	applied, err := env.Apply(ctx, func(ctx context.Context) error {
		uuid, err := env.Catalog.CreateUser(ctx, email, givenName, familyName, level)
		userUUID = uuid
		return err
	})
	issue := reconcile.Issue{
		PersonUUID:  person.Get("person_uuid"),
		GivenName:   givenName,
		FamilyName:  familyName,
		UserLogin:   email,
		AccessLevel: string(level),
		PostsCount:  postsCount,
	}
	switch {
	case err != nil:
		issue.Type = reconcile.IssueUserCreateFailed
		issue.Remediation = reconcile.RemediationFailed()
		issue.Message = fmt.Sprintf("Failed to create user %s for person %s: %v", email, personName, err)
	case applied:
		issue.Type = reconcile.IssueUserCreated
		issue.Remediation = reconcile.Remediated()
		issue.UserUUID = userUUID
		issue.Message = fmt.Sprintf("Created user %s with access level %s for person %s", email, level, personName)
		log.Info().Str("user", email).Str("level", string(level)).Msgf("created user for %s", personName)
	default:
		issue.Type = reconcile.IssueUserCreated
		issue.Message = fmt.Sprintf("Person %s has %d posts but no user account with login %s", personName, postsCount, email)
	}
	result.Add(issue)
}

// alignAccessLevel raises an occupied person's user to EDITOR and
// demotes an unoccupied person's EDITOR back to READ_ONLY.
// Administrator accounts are left alone in both directions.
func (c *UserAccounts) alignAccessLevel(ctx context.Context, env *Env, result *reconcile.Result, person catalog.Row, user userRecord, postsCount int) {
	log := logging.Ctx(ctx)

	level, err := catalog.ParseAccessLevel(user.AccessLevel)
	if err != nil {
		log.Warn().Str("user", user.Login).Str("level", user.AccessLevel).Msg("unknown access level")
		return
	}

	var target catalog.AccessLevel
	switch {
	case postsCount > 0 && !level.AtLeast(catalog.AccessEditor):
		target = catalog.AccessEditor
	case postsCount == 0 && level == catalog.AccessEditor:
		target = catalog.AccessReadOnly
	default:
		return
	}

	applied, err := env.Apply(ctx, func(ctx context.Context) error {
		return env.Catalog.SetUserAccessLevel(ctx, user.UUID, target)
	})
	issue := reconcile.Issue{
		PersonUUID:  person.Get("person_uuid"),
		GivenName:   person.Get("given_name"),
		FamilyName:  person.Get("family_name"),
		UserUUID:    user.UUID,
		UserLogin:   user.Login,
		AccessLevel: string(target),
		PostsCount:  postsCount,
	}
	switch {
	case err != nil:
		issue.Type = reconcile.IssueAccessLevelUpdateFailed
		issue.Remediation = reconcile.RemediationFailed()
		issue.Message = fmt.Sprintf("Failed to change access level of user %s from %s to %s: %v", user.Login, level, target, err)
	case applied:
		issue.Type = reconcile.IssueAccessLevelUpdated
		issue.Remediation = reconcile.Remediated()
		issue.Message = fmt.Sprintf("Changed access level of user %s from %s to %s (%d posts)", user.Login, level, target, postsCount)
		log.Info().Str("user", user.Login).Msgf("access level %s -> %s", level, target)
	default:
		issue.Type = reconcile.IssueAccessLevelUpdated
		issue.Message = fmt.Sprintf("User %s has access level %s but should have %s (%d posts)", user.Login, level, target, postsCount)
	}
	result.Add(issue)
}
