package checks

import (
	"context"
	"fmt"
	"strings"

	"github.com/civicdata/metasync/pkg/directory"
	"github.com/civicdata/metasync/pkg/logging"
	"github.com/civicdata/metasync/pkg/reconcile"
)

// ContactDetails aligns the contact custom properties of every person
// carrying a directory id with the directory's data: email, a phone
// markdown link, the person's directory contact page, and a Teams chat
// deep link. The directory cache is invalidated up front so the check
// never works from another check's stale reads.
type ContactDetails struct{}

func (c *ContactDetails) Name() string  { return "contact_details" }
func (c *ContactDetails) Title() string { return "Person Contact Details" }
func (c *ContactDetails) Description() string {
	return "Checks that all persons with sk_person_id have the correct contact details from the directory."
}

// contactKeys are the custom properties under this check's control.
var contactKeys = []string{"email_custom_property", "phone", "state_calendar_website", "teams"}

func (c *ContactDetails) Run(ctx context.Context, env *Env, result *reconcile.Result) error {
	log := logging.Ctx(ctx)
	env.Directory.Invalidate()

	rows, err := env.Catalog.Query(ctx, personsWithContactPropertiesQuery)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		log.Info().Msg("no persons with sk_person_id found")
		return nil
	}
	log.Info().Int("persons", len(rows)).Msg("verifying contact details")

	for i, row := range rows {
		personUUID := row.Get("person_uuid")
		directoryID := row.Get("sk_person_id")
		givenName := strings.TrimSpace(row.Get("given_name"))
		familyName := strings.TrimSpace(row.Get("family_name"))
		personName := givenName + " " + familyName
		if givenName == "" || familyName == "" {
			result.Add(reconcile.Issue{
				Type:              reconcile.IssueMissingPersonData,
				PersonUUID:        personUUID,
				GivenName:         givenName,
				FamilyName:        familyName,
				DirectoryPersonID: directoryID,
				Message:           "Person record is missing a mandatory given or family name",
			})
			continue
		}
		log.Info().Msgf("[%d/%d] %s", i+1, len(rows), personName)

		details, err := env.Directory.ContactDetails(ctx, directoryID)
		if err != nil {
			result.Add(reconcile.Issue{
				Type:              reconcile.IssueContactRetrievalFailed,
				PersonUUID:        personUUID,
				GivenName:         givenName,
				FamilyName:        familyName,
				DirectoryPersonID: directoryID,
				Message:           "Could not retrieve person data from the directory",
			})
			continue
		}

		target := targetContactProperties(env.Directory, directoryID, details, givenName, familyName)
		current := map[string]string{}
		for _, key := range contactKeys {
			current[key] = row.Get(key)
		}
		differences := contactDifferences(current, target)
		if len(differences) == 0 {
			log.Info().Msgf("contact details already correct for %s", personName)
			continue
		}

		applied, err := env.Apply(ctx, func(ctx context.Context) error {
			properties := make(map[string]any, len(target))
			for _, key := range contactKeys {
				if target[key] == "" {
					properties[key] = nil
					continue
				}
				properties[key] = target[key]
			}
			return env.Catalog.UpdatePersonContactProperties(ctx, personUUID, properties)
		})
		issue := reconcile.Issue{
			PersonUUID:        personUUID,
			GivenName:         givenName,
			FamilyName:        familyName,
			DirectoryPersonID: directoryID,
			Differences:       differences,
		}
		switch {
		case err != nil:
			issue.Type = reconcile.IssueContactUpdateFailed
			issue.Remediation = reconcile.RemediationFailed()
			issue.Message = fmt.Sprintf("Failed to update contact details for %s: %v", personName, err)
			log.Error().Err(err).Msgf("failed to update contact details for %s", personName)
		case applied:
			issue.Type = reconcile.IssueContactUpdated
			issue.Remediation = reconcile.Remediated()
			issue.Message = fmt.Sprintf("Updated contact details for %s", personName)
			log.Info().Msgf("updated contact details for %s (Link: %s)", personName, env.Catalog.WebURL("persons", personUUID))
		default:
			issue.Type = reconcile.IssueContactUpdated
			issue.Message = fmt.Sprintf("Contact details for %s differ from the directory", personName)
		}
		result.Add(issue)
	}
	return nil
}

// targetContactProperties renders the custom property values a person
// should carry. Empty string means the property must be cleared.
func targetContactProperties(dir *directory.Cache, directoryID string, details directory.ContactDetails, givenName, familyName string) map[string]string {
	target := map[string]string{
		"email_custom_property":  details.Email,
		"state_calendar_website": fmt.Sprintf("[Kontaktseite im Staatskalender öffnen](%s)", dir.PersonPageURL(directoryID)),
	}
	if details.Phone != "" {
		target["phone"] = fmt.Sprintf("[%s](tel:%s)", details.Phone, telDigits(details.Phone))
	}
	if details.Email != "" {
		target["teams"] = fmt.Sprintf("[Teams-Chat mit %s %s öffnen](msteams://teams.microsoft.com/l/chat/0/0?users=%s)",
			givenName, familyName, details.Email)
	}
	return target
}

// telDigits keeps digits and a leading plus for the tel: link target.
func telDigits(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if (r >= '0' && r <= '9') || r == '+' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// contactDifferences compares current and target values treating unset
// and empty as equal.
func contactDifferences(current, target map[string]string) map[string]reconcile.Change {
	differences := map[string]reconcile.Change{}
	for _, key := range contactKeys {
		if current[key] == target[key] {
			continue
		}
		differences[key] = reconcile.Change{
			Current: orNotSet(current[key]),
			Target:  orNotSet(target[key]),
		}
	}
	if len(differences) == 0 {
		return nil
	}
	return differences
}

func orNotSet(value string) string {
	if value == "" {
		return "(not set)"
	}
	return value
}
