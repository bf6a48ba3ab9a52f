package catalog

import (
	"context"

	"github.com/civicdata/metasync/pkg/errors"
	"github.com/civicdata/metasync/pkg/logging"
)

// CreateUser creates a user account linked to a person. The isPerson link
// uses the "Family, Given" form the catalog expects.
func (c *Client) CreateUser(ctx context.Context, login, givenName, familyName string, level AccessLevel) (string, error) {
	created, err := c.CreateResource(ctx, c.RestPath("users"), map[string]any{
		"loginId":     login,
		"name":        givenName + " " + familyName,
		"isPerson":    PersonLinkName(givenName, familyName),
		"accessLevel": string(level),
	}, TypeUser)
	if err != nil {
		return "", err
	}

	uuid, ok := created["id"].(string)
	if !ok || uuid == "" {
		return "", errors.NewResourceError("create", "user", login, errors.New("response has no id"))
	}

	logging.Ctx(ctx).Info().
		Str("login", login).
		Str("access_level", string(level)).
		Str("uuid", uuid).
		Msg("Created user")
	return uuid, nil
}

// SetUserAccessLevel changes a user's access level.
func (c *Client) SetUserAccessLevel(ctx context.Context, userUUID string, level AccessLevel) error {
	_, err := c.UpdateResource(ctx, c.RestPath("users", userUUID), map[string]any{
		"accessLevel": string(level),
	}, false, TypeUser)
	return err
}

// SetUserPersonLink points a user account at a person via the isPerson
// field.
func (c *Client) SetUserPersonLink(ctx context.Context, userUUID, givenName, familyName string) error {
	_, err := c.UpdateResource(ctx, c.RestPath("users", userUUID), map[string]any{
		"isPerson": PersonLinkName(givenName, familyName),
	}, false, TypeUser)
	return err
}
