package directory_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/civicdata/metasync/pkg/directory"
	pkgerrors "github.com/civicdata/metasync/pkg/errors"
	"github.com/civicdata/metasync/pkg/transport"
)

const membershipDoc = `{
	"collection": {
		"items": [{
			"href": "https://directory.example/api/memberships/555",
			"data": [{"name": "title", "value": "Open Data Coordinator"}],
			"links": [
				{"rel": "organisation", "href": "https://directory.example/api/organisations/12"},
				{"rel": "person", "href": "https://directory.example/api/people/77"}
			]
		}]
	}
}`

const personDoc = `{
	"collection": {
		"items": [{
			"href": "https://directory.example/api/people/77",
			"data": [
				{"name": "first_name", "value": " Alice Marie "},
				{"name": "last_name", "value": "Exampleton "},
				{"name": "email", "value": "alice.exampleton@example.org"},
				{"name": "telephone", "value": "+41 61 267 00 00"}
			],
			"links": []
		}]
	}
}`

// newTestCache serves canned membership and person documents and counts
// network hits per path.
func newTestCache(t *testing.T, hits *atomic.Int32) *directory.Cache {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		switch r.URL.Path {
		case "/api/memberships/555":
			_, _ = w.Write([]byte(membershipDoc))
		case "/api/people/77":
			_, _ = w.Write([]byte(personDoc))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)

	client := transport.New("directory", nil,
		transport.WithRateLimitDelay(0),
		transport.WithRetryPolicy(transport.RetryPolicy{MaxAttempts: 1}),
		transport.WithSilentStatuses(404, 410))
	return directory.NewCache(srv.URL+"/api", client)
}

func TestMembership(t *testing.T) {
	var hits atomic.Int32
	cache := newTestCache(t, &hits)

	m, err := cache.Membership(context.Background(), "555")
	require.NoError(t, err)
	assert.Equal(t, "555", m.ID)
	assert.Equal(t, "77", m.PersonID)
	assert.Equal(t, "https://directory.example/api/people/77", m.PersonLink)

	// Second lookup is served from cache.
	_, err = cache.Membership(context.Background(), "555")
	require.NoError(t, err)
	assert.Equal(t, int32(1), hits.Load())
}

func TestPersonByID(t *testing.T) {
	var hits atomic.Int32
	cache := newTestCache(t, &hits)

	p, err := cache.PersonByID(context.Background(), "77")
	require.NoError(t, err)
	assert.Equal(t, "Alice", p.GivenName)
	assert.Equal(t, "Marie", p.AdditionalName)
	assert.Equal(t, "Exampleton", p.FamilyName)
	assert.Equal(t, "alice.exampleton@example.org", p.Email)
	assert.Equal(t, "+41 61 267 00 00", p.Phone)
	assert.Equal(t, "Alice Exampleton", p.FullName())
}

func TestPersonByMembership(t *testing.T) {
	var hits atomic.Int32
	cache := newTestCache(t, &hits)

	p, err := cache.PersonByMembership(context.Background(), "555")
	require.NoError(t, err)
	assert.Equal(t, "77", p.ID)
	assert.Equal(t, int32(2), hits.Load())

	// Every accessor is now answered from cache.
	email, err := cache.PersonEmail(context.Background(), "77")
	require.NoError(t, err)
	assert.Equal(t, "alice.exampleton@example.org", email)

	details, err := cache.ContactDetails(context.Background(), "77")
	require.NoError(t, err)
	assert.Equal(t, "alice.exampleton@example.org", details.Email)
	assert.Equal(t, int32(2), hits.Load())
}

func TestInvalidate(t *testing.T) {
	var hits atomic.Int32
	cache := newTestCache(t, &hits)

	_, err := cache.PersonByID(context.Background(), "77")
	require.NoError(t, err)

	cache.Invalidate()

	_, err = cache.PersonByID(context.Background(), "77")
	require.NoError(t, err)
	assert.Equal(t, int32(2), hits.Load())
}

func TestErrorsAreNotCached(t *testing.T) {
	var hits atomic.Int32
	cache := newTestCache(t, &hits)

	_, err := cache.PersonByID(context.Background(), "missing")
	assert.True(t, pkgerrors.IsNotFound(err))

	_, err = cache.PersonByID(context.Background(), "missing")
	assert.True(t, pkgerrors.IsNotFound(err))
	assert.Equal(t, int32(2), hits.Load())
}

func TestPersonPageURL(t *testing.T) {
	cache := directory.NewCache("https://directory.example/api", nil)
	assert.Equal(t, "https://directory.example/person/77", cache.PersonPageURL("77"))
}
