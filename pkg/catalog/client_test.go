package catalog_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/civicdata/metasync/pkg/catalog"
	"github.com/civicdata/metasync/pkg/transport"
)

func newTestCatalog(t *testing.T, handler http.HandlerFunc) *catalog.Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	tc := transport.New("catalog", nil,
		transport.WithRateLimitDelay(0),
		transport.WithRetryPolicy(transport.RetryPolicy{MaxAttempts: 1}),
		transport.WithSilentStatuses(404, 410))
	return catalog.NewClient(srv.URL, "prod", tc)
}

func readJSON(t *testing.T, r *http.Request) map[string]any {
	t.Helper()
	body, err := io.ReadAll(r.Body)
	require.NoError(t, err)
	var payload map[string]any
	require.NoError(t, json.Unmarshal(body, &payload))
	return payload
}

func TestQuery(t *testing.T) {
	client := newTestCatalog(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/api/prod/queries/download", r.URL.Path)
		assert.Equal(t, "JSON", r.URL.Query().Get("format"))

		payload := readJSON(t, r)
		assert.Contains(t, payload["sql"], "person_view")

		_, _ = w.Write([]byte(`[
			{"person_uuid": "abc", "given_name": "Alice", "sk_person_id": "\"77\"", "extra": null},
			{"person_uuid": "def", "given_name": "Bob", "sk_person_id": "\"78\""}
		]`))
	})

	rows, err := client.Query(context.Background(), "SELECT p.id AS person_uuid FROM person_view p")
	require.NoError(t, err)
	require.Len(t, rows, 2)

	// String values arrive quoted and are unquoted on access.
	assert.Equal(t, "77", rows[0].Get("sk_person_id"))
	assert.Equal(t, "Alice", rows[0].Get("given_name"))
	assert.False(t, rows[0].Has("extra"))
	assert.True(t, rows[1].Has("sk_person_id"))
}

func TestRowGetStripsOneQuotePair(t *testing.T) {
	row := catalog.Row{
		"plain":    "42",
		"quoted":   `"42"`,
		"interior": `""quoted" title"`,
		"lone":     `"`,
	}

	assert.Equal(t, "42", row.Get("plain"))
	assert.Equal(t, "42", row.Get("quoted"))
	// Interior quotes belong to the value; only the outer pair goes.
	assert.Equal(t, `"quoted" title`, row.Get("interior"))
	assert.Equal(t, `"`, row.Get("lone"))
	assert.Empty(t, row.Get("absent"))
}

func TestUpdateResource(t *testing.T) {
	t.Run("patch forces type and working status", func(t *testing.T) {
		client := newTestCatalog(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPatch, r.Method)
			assert.Equal(t, "/rest/prod/persons/abc", r.URL.Path)

			payload := readJSON(t, r)
			assert.Equal(t, "Person", payload["_type"])
			assert.Equal(t, "WORKING", payload["status"])
			assert.Equal(t, "Alice", payload["givenName"])

			_, _ = w.Write([]byte(`{"id": "abc"}`))
		})

		updated, err := client.UpdateResource(context.Background(),
			client.RestPath("persons", "abc"),
			map[string]any{"givenName": "Alice"}, false, catalog.TypePerson)
		require.NoError(t, err)
		assert.Equal(t, "abc", updated["id"])
	})

	t.Run("dataset replace preserves collection placement", func(t *testing.T) {
		client := newTestCatalog(t, func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet:
				_, _ = w.Write([]byte(`{"id": "d1", "inCollection": "Open Data"}`))
			case http.MethodPut:
				payload := readJSON(t, r)
				assert.Equal(t, "Open Data", payload["inCollection"])
				assert.Equal(t, "WORKING", payload["status"])
				_, _ = w.Write([]byte(`{"id": "d1"}`))
			default:
				t.Errorf("unexpected method %s", r.Method)
			}
		})

		_, err := client.UpdateResource(context.Background(),
			client.RestPath("datasets", "d1"),
			map[string]any{"label": "Population"}, true, catalog.TypeDataset)
		require.NoError(t, err)
	})

	t.Run("dataset replace fails when resource is gone", func(t *testing.T) {
		client := newTestCatalog(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusGone)
		})

		_, err := client.UpdateResource(context.Background(),
			client.RestPath("datasets", "d1"),
			map[string]any{"label": "Population"}, true, catalog.TypeDataset)
		assert.Error(t, err)
	})
}

func TestGetResourceIfExists(t *testing.T) {
	t.Run("missing resource yields nil without error", func(t *testing.T) {
		client := newTestCatalog(t, func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		})

		resource, err := client.GetResourceIfExists(context.Background(), client.RestPath("persons", "missing"))
		require.NoError(t, err)
		assert.Nil(t, resource)
	})

	t.Run("existing resource is returned", func(t *testing.T) {
		client := newTestCatalog(t, func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"id": "abc", "_type": "Person"}`))
		})

		resource, err := client.GetResourceIfExists(context.Background(), client.RestPath("persons", "abc"))
		require.NoError(t, err)
		assert.Equal(t, "abc", resource["id"])
	})
}

func TestBulkUpload(t *testing.T) {
	t.Run("sends import.json with operation and dry run flags", func(t *testing.T) {
		client := newTestCatalog(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/api/prod/schemes/Directory/upload", r.URL.Path)
			assert.Equal(t, "FULL_LOAD", r.URL.Query().Get("operation"))
			assert.Equal(t, "true", r.URL.Query().Get("dryRun"))

			require.NoError(t, r.ParseMultipartForm(1<<20))
			file, header, err := r.FormFile("import.json")
			require.NoError(t, err)
			defer file.Close() //nolint:errcheck
			assert.Equal(t, "import.json", header.Filename)

			body, err := io.ReadAll(file)
			require.NoError(t, err)
			var assets []map[string]any
			require.NoError(t, json.Unmarshal(body, &assets))
			assert.Len(t, assets, 2)

			_, _ = w.Write([]byte(`{"processed": 2}`))
		})

		result, err := client.BulkUpload(context.Background(), "Directory",
			[]map[string]any{{"label": "a"}, {"label": "b"}}, catalog.OperationFullLoad, true)
		require.NoError(t, err)
		assert.Equal(t, float64(2), result["processed"])
	})

	t.Run("default ADD omits the operation parameter", func(t *testing.T) {
		client := newTestCatalog(t, func(w http.ResponseWriter, r *http.Request) {
			assert.False(t, r.URL.Query().Has("operation"))
			assert.False(t, r.URL.Query().Has("dryRun"))
			_, _ = w.Write([]byte(`{}`))
		})

		_, err := client.BulkUpload(context.Background(), "Directory", nil, catalog.OperationAdd, false)
		require.NoError(t, err)
	})

	t.Run("rejects unknown operations", func(t *testing.T) {
		client := newTestCatalog(t, func(w http.ResponseWriter, _ *http.Request) {
			t.Error("no request expected")
		})

		_, err := client.BulkUpload(context.Background(), "Directory", nil, catalog.Operation("UPSERT"), false)
		assert.Error(t, err)
	})
}

func TestListAssets(t *testing.T) {
	client := newTestCatalog(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/prod/schemes/Directory/download", r.URL.Path)
		assert.Equal(t, "JSON", r.URL.Query().Get("format"))
		_, _ = w.Write([]byte(`[
			{"id": "u1", "_type": "Person", "customProperties": {"sk_person_id": "77"}},
			{"id": "u2", "_type": "Post", "inCollection": "Gov", "label": "Coordinator"}
		]`))
	})

	assets, err := client.ListAssets(context.Background(), "Directory")
	require.NoError(t, err)
	require.Len(t, assets, 2)

	assert.Equal(t, "u1", assets[0].UUID)
	assert.Equal(t, "Person", assets[0].Type)
	assert.Equal(t, "77", assets[0].Properties["sk_person_id"])

	assert.Equal(t, "Gov", assets[1].InCollection)
	assert.Equal(t, "Coordinator", assets[1].Properties["label"])
}

func TestMarkForReview(t *testing.T) {
	client := newTestCatalog(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		payload := readJSON(t, r)
		assert.Equal(t, "DELETENEW", payload["status"])
		_, _ = w.Write([]byte(`{}`))
	})

	err := client.MarkForReview(context.Background(), client.RestPath("datasets", "d1"))
	require.NoError(t, err)
}

func TestParseAccessLevel(t *testing.T) {
	tests := []struct {
		input   string
		want    catalog.AccessLevel
		wantErr bool
	}{
		{"READ_ONLY", catalog.AccessReadOnly, false},
		{"editor", catalog.AccessEditor, false},
		{"ADMIN", catalog.AccessAdministrator, false},
		{"ADMINISTRATOR", catalog.AccessAdministrator, false},
		{" editor ", catalog.AccessEditor, false},
		{"OWNER", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := catalog.ParseAccessLevel(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAccessLevelAtLeast(t *testing.T) {
	assert.True(t, catalog.AccessEditor.AtLeast(catalog.AccessEditor))
	assert.True(t, catalog.AccessAdministrator.AtLeast(catalog.AccessEditor))
	assert.False(t, catalog.AccessReadOnly.AtLeast(catalog.AccessEditor))
}
