// Package directory reads the authoritative personnel directory over its
// hypermedia API and memoizes lookups for the duration of a run, so each
// membership and person is fetched at most once per run.
package directory

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/civicdata/metasync/pkg/errors"
	"github.com/civicdata/metasync/pkg/logging"
	"github.com/civicdata/metasync/pkg/transport"
)

// Cache is a run-scoped memoizing client for the directory API. Successful
// lookups are cached; failures propagate uncached so a retry within the
// same run hits the network again.
type Cache struct {
	client  *transport.Client
	baseURL string

	mu          sync.RWMutex
	memberships map[string]Membership
	persons     map[string]Person
}

// NewCache creates a directory cache on top of the given transport client.
// baseURL points at the API root, for example "https://directory.example/api".
func NewCache(baseURL string, client *transport.Client) *Cache {
	return &Cache{
		client:      client,
		baseURL:     strings.TrimRight(baseURL, "/"),
		memberships: make(map[string]Membership),
		persons:     make(map[string]Person),
	}
}

// Membership resolves a membership ID to the person holding it.
func (c *Cache) Membership(ctx context.Context, membershipID string) (Membership, error) {
	c.mu.RLock()
	cached, ok := c.memberships[membershipID]
	c.mu.RUnlock()
	if ok {
		logging.Ctx(ctx).Debug().Str("membership", membershipID).Msg("Using cached membership")
		return cached, nil
	}

	var doc document
	url := fmt.Sprintf("%s/memberships/%s", c.baseURL, membershipID)
	if err := c.client.GetJSON(ctx, url, &doc); err != nil {
		return Membership{}, err
	}

	personLink := doc.personLink()
	if personLink == "" {
		return Membership{}, &errors.ValidationError{
			Field:   "membership",
			Value:   membershipID,
			Message: "no person link in membership document",
		}
	}

	m := Membership{
		ID:         membershipID,
		PersonID:   lastPathSegment(personLink),
		PersonLink: personLink,
	}

	c.mu.Lock()
	c.memberships[membershipID] = m
	c.mu.Unlock()

	return m, nil
}

// PersonByID fetches a person's directory record.
func (c *Cache) PersonByID(ctx context.Context, personID string) (Person, error) {
	c.mu.RLock()
	cached, ok := c.persons[personID]
	c.mu.RUnlock()
	if ok {
		logging.Ctx(ctx).Debug().Str("person", personID).Msg("Using cached person")
		return cached, nil
	}

	var doc document
	url := fmt.Sprintf("%s/people/%s", c.baseURL, personID)
	if err := c.client.GetJSON(ctx, url, &doc); err != nil {
		return Person{}, err
	}

	p := parsePerson(personID, doc)

	c.mu.Lock()
	c.persons[personID] = p
	c.mu.Unlock()

	return p, nil
}

// PersonByMembership resolves a membership to the full person record.
func (c *Cache) PersonByMembership(ctx context.Context, membershipID string) (Person, error) {
	m, err := c.Membership(ctx, membershipID)
	if err != nil {
		return Person{}, err
	}
	return c.PersonByID(ctx, m.PersonID)
}

// PersonEmail returns the person's email address, which may be empty.
func (c *Cache) PersonEmail(ctx context.Context, personID string) (string, error) {
	p, err := c.PersonByID(ctx, personID)
	if err != nil {
		return "", err
	}
	return p.Email, nil
}

// ContactDetails returns the person's email and phone.
func (c *Cache) ContactDetails(ctx context.Context, personID string) (ContactDetails, error) {
	p, err := c.PersonByID(ctx, personID)
	if err != nil {
		return ContactDetails{}, err
	}
	return ContactDetails{Email: p.Email, Phone: p.Phone}, nil
}

// Invalidate drops all cached entries. Checks that must not act on stale
// directory state call this before reading.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.memberships = make(map[string]Membership)
	c.persons = make(map[string]Person)
}

// PersonPageURL returns the public contact page for a person, derived from
// the API root by dropping its trailing /api segment.
func (c *Cache) PersonPageURL(personID string) string {
	site := strings.TrimSuffix(c.baseURL, "/api")
	return fmt.Sprintf("%s/person/%s", site, personID)
}
