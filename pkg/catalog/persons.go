package catalog

import (
	"context"

	"github.com/civicdata/metasync/pkg/errors"
	"github.com/civicdata/metasync/pkg/logging"
)

// CreatePerson creates a person with the given names and returns its UUID.
func (c *Client) CreatePerson(ctx context.Context, givenName, familyName string) (string, error) {
	created, err := c.CreateResource(ctx, c.RestPath("persons"), map[string]any{
		"givenName":  givenName,
		"familyName": familyName,
	}, TypePerson)
	if err != nil {
		return "", err
	}

	uuid, ok := created["id"].(string)
	if !ok || uuid == "" {
		return "", errors.NewResourceError("create", "person", "", errors.New("response has no id"))
	}

	logging.Ctx(ctx).Info().
		Str("given_name", givenName).
		Str("family_name", familyName).
		Str("uuid", uuid).
		Msg("Created person")
	return uuid, nil
}

// UpdatePersonName sets a person's given and family name.
func (c *Client) UpdatePersonName(ctx context.Context, personUUID, givenName, familyName string) error {
	_, err := c.UpdateResource(ctx, c.RestPath("persons", personUUID), map[string]any{
		"givenName":  givenName,
		"familyName": familyName,
	}, false, TypePerson)
	return err
}

// EnsurePersonDirectoryID makes sure the person carries the given directory
// person ID, reporting whether a write was needed.
func (c *Client) EnsurePersonDirectoryID(ctx context.Context, personUUID, directoryPersonID string) (bool, error) {
	person, err := c.GetResourceIfExists(ctx, c.RestPath("persons", personUUID))
	if err != nil {
		return false, err
	}
	if person == nil {
		return false, errors.NewResourceError("fetch", "person", personUUID, errors.ErrNotFound)
	}

	if current, ok := person["sk_person_id"].(string); ok && current == directoryPersonID {
		return false, nil
	}
	if props, ok := person["customProperties"].(map[string]any); ok {
		if current, ok := props["sk_person_id"].(string); ok && current == directoryPersonID {
			return false, nil
		}
	}

	_, err = c.UpdateResource(ctx, c.RestPath("persons", personUUID), map[string]any{
		"customProperties": map[string]any{"sk_person_id": directoryPersonID},
	}, false, TypePerson)
	if err != nil {
		return false, err
	}
	return true, nil
}

// SetPersonAssignments replaces the full list of posts a person holds in a
// single write.
func (c *Client) SetPersonAssignments(ctx context.Context, personUUID string, postUUIDs []string) error {
	if postUUIDs == nil {
		postUUIDs = []string{}
	}
	_, err := c.UpdateResource(ctx, c.RestPath("persons", personUUID), map[string]any{
		"holdsPost": postUUIDs,
	}, false, TypePerson)
	return err
}

// UpdatePersonContactProperties replaces the person's contact custom
// properties. Nil values clear the corresponding property.
func (c *Client) UpdatePersonContactProperties(ctx context.Context, personUUID string, properties map[string]any) error {
	_, err := c.UpdateResource(ctx, c.RestPath("persons", personUUID), map[string]any{
		"customProperties": properties,
	}, false, TypePerson)
	return err
}
