package catalog_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/civicdata/metasync/pkg/catalog"
)

func TestCreatePerson(t *testing.T) {
	client := newTestCatalog(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/rest/prod/persons", r.URL.Path)

		payload := readJSON(t, r)
		assert.Equal(t, "Person", payload["_type"])
		assert.Equal(t, "Alice", payload["givenName"])
		assert.Equal(t, "Exampleton", payload["familyName"])

		_, _ = w.Write([]byte(`{"id": "p-1"}`))
	})

	uuid, err := client.CreatePerson(context.Background(), "Alice", "Exampleton")
	require.NoError(t, err)
	assert.Equal(t, "p-1", uuid)
}

func TestEnsurePersonDirectoryID(t *testing.T) {
	t.Run("already set is a no-op", func(t *testing.T) {
		client := newTestCatalog(t, func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, http.MethodGet, r.Method, "no write expected")
			_, _ = w.Write([]byte(`{"id": "p-1", "customProperties": {"sk_person_id": "77"}}`))
		})

		changed, err := client.EnsurePersonDirectoryID(context.Background(), "p-1", "77")
		require.NoError(t, err)
		assert.False(t, changed)
	})

	t.Run("missing id is written", func(t *testing.T) {
		var patched bool
		client := newTestCatalog(t, func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet:
				_, _ = w.Write([]byte(`{"id": "p-1"}`))
			case http.MethodPatch:
				patched = true
				payload := readJSON(t, r)
				props := payload["customProperties"].(map[string]any)
				assert.Equal(t, "77", props["sk_person_id"])
				_, _ = w.Write([]byte(`{"id": "p-1"}`))
			}
		})

		changed, err := client.EnsurePersonDirectoryID(context.Background(), "p-1", "77")
		require.NoError(t, err)
		assert.True(t, changed)
		assert.True(t, patched)
	})

	t.Run("missing person fails", func(t *testing.T) {
		client := newTestCatalog(t, func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		})

		_, err := client.EnsurePersonDirectoryID(context.Background(), "p-1", "77")
		assert.Error(t, err)
	})
}

func TestSetPersonAssignments(t *testing.T) {
	t.Run("sends the full post list", func(t *testing.T) {
		client := newTestCatalog(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPatch, r.Method)
			payload := readJSON(t, r)
			assert.Equal(t, []any{"post-1", "post-2"}, payload["holdsPost"])
			_, _ = w.Write([]byte(`{}`))
		})

		err := client.SetPersonAssignments(context.Background(), "p-1", []string{"post-1", "post-2"})
		require.NoError(t, err)
	})

	t.Run("nil clears all assignments", func(t *testing.T) {
		client := newTestCatalog(t, func(w http.ResponseWriter, r *http.Request) {
			payload := readJSON(t, r)
			assert.Equal(t, []any{}, payload["holdsPost"])
			_, _ = w.Write([]byte(`{}`))
		})

		err := client.SetPersonAssignments(context.Background(), "p-1", nil)
		require.NoError(t, err)
	})
}

func TestCreateUser(t *testing.T) {
	client := newTestCatalog(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rest/prod/users", r.URL.Path)

		payload := readJSON(t, r)
		assert.Equal(t, "User", payload["_type"])
		assert.Equal(t, "alice.exampleton@example.org", payload["loginId"])
		assert.Equal(t, "Exampleton, Alice", payload["isPerson"])
		assert.Equal(t, "EDITOR", payload["accessLevel"])

		_, _ = w.Write([]byte(`{"id": "u-1"}`))
	})

	uuid, err := client.CreateUser(context.Background(),
		"alice.exampleton@example.org", "Alice", "Exampleton", catalog.AccessEditor)
	require.NoError(t, err)
	assert.Equal(t, "u-1", uuid)
}

func TestSetUserAccessLevel(t *testing.T) {
	client := newTestCatalog(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rest/prod/users/u-1", r.URL.Path)
		payload := readJSON(t, r)
		assert.Equal(t, "READ_ONLY", payload["accessLevel"])
		_, _ = w.Write([]byte(`{}`))
	})

	err := client.SetUserAccessLevel(context.Background(), "u-1", catalog.AccessReadOnly)
	require.NoError(t, err)
}
