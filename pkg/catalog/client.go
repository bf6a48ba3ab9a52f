// Package catalog is the client for the metadata catalog's REST and bulk
// APIs: typed resource CRUD, the declarative query endpoint, scheme
// downloads, and multipart bulk uploads.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/civicdata/metasync/pkg/errors"
	"github.com/civicdata/metasync/pkg/logging"
	"github.com/civicdata/metasync/pkg/mapping"
	"github.com/civicdata/metasync/pkg/transport"
)

// Client talks to one catalog database.
type Client struct {
	transport *transport.Client
	baseURL   string
	database  string
}

// NewClient creates a catalog client. baseURL is the server root without a
// trailing slash; database names the catalog database all paths address.
func NewClient(baseURL, database string, t *transport.Client) *Client {
	return &Client{
		transport: t,
		baseURL:   strings.TrimRight(baseURL, "/"),
		database:  database,
	}
}

// Database returns the catalog database name.
func (c *Client) Database() string {
	return c.database
}

// RestPath joins path segments into a REST path relative to the server
// root, for use with the resource CRUD methods.
func (c *Client) RestPath(segments ...string) string {
	parts := append([]string{"", "rest", c.database}, segments...)
	return strings.Join(parts, "/")
}

// apiURL joins path segments under the database's API root.
func (c *Client) apiURL(segments ...string) string {
	parts := append([]string{c.baseURL, "api", c.database}, segments...)
	return strings.Join(parts, "/")
}

// WebURL returns the browser link for a resource, used in issue messages
// so operators can jump straight to the record.
func (c *Client) WebURL(segments ...string) string {
	parts := append([]string{c.baseURL, "web", c.database}, segments...)
	return strings.Join(parts, "/")
}

// CreateResource creates a resource via POST. The type discriminator is
// forced onto the payload.
func (c *Client) CreateResource(ctx context.Context, path string, data map[string]any, resourceType string) (map[string]any, error) {
	payload := clone(data)
	payload["_type"] = resourceType

	var created map[string]any
	if err := c.transport.PostJSON(ctx, c.baseURL+path, payload, &created); err != nil {
		return nil, errors.NewResourceError("create", resourceType, "", err)
	}
	return created, nil
}

// UpdateResource updates a resource, partially via PATCH or wholesale via
// PUT when replace is set. Every update forces status back to WORKING.
// A wholesale Dataset replace first re-reads the resource to preserve its
// collection placement, and fails if the resource is gone.
func (c *Client) UpdateResource(ctx context.Context, path string, data map[string]any, replace bool, resourceType string) (map[string]any, error) {
	payload := clone(data)
	payload["_type"] = resourceType
	payload["status"] = StatusWorking

	if replace && resourceType == TypeDataset {
		current, err := c.GetResourceIfExists(ctx, path)
		if err != nil {
			return nil, err
		}
		if current == nil {
			return nil, errors.NewResourceError("update", resourceType, path, errors.ErrNotFound)
		}
		if inCollection, ok := current["inCollection"]; ok {
			payload["inCollection"] = inCollection
		}
	}

	var updated map[string]any
	var err error
	if replace {
		err = c.transport.PutJSON(ctx, c.baseURL+path, payload, &updated)
	} else {
		err = c.transport.PatchJSON(ctx, c.baseURL+path, payload, &updated)
	}
	if err != nil {
		return nil, errors.NewResourceError("update", resourceType, path, err)
	}
	return updated, nil
}

// DeleteResource deletes a resource.
func (c *Client) DeleteResource(ctx context.Context, path string) error {
	if err := c.transport.Delete(ctx, c.baseURL+path); err != nil {
		return errors.NewResourceError("delete", "resource", path, err)
	}
	return nil
}

// GetResourceIfExists fetches a resource, returning nil without error when
// the catalog answers 404 or 410.
func (c *Client) GetResourceIfExists(ctx context.Context, path string) (map[string]any, error) {
	var resource map[string]any
	err := c.transport.GetJSON(ctx, c.baseURL+path, &resource)
	if errors.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return resource, nil
}

// MarkForReview parks a resource for human review instead of deleting it.
func (c *Client) MarkForReview(ctx context.Context, path string) error {
	payload := map[string]any{"status": StatusReviewing}
	if err := c.transport.PatchJSON(ctx, c.baseURL+path, payload, nil); err != nil {
		return errors.NewResourceError("mark for review", "resource", path, err)
	}
	return nil
}

// Row is one query result. The query endpoint quotes string values; Get
// strips the quoting so callers see plain values.
type Row map[string]string

// Get returns the unquoted value of a column, empty when absent or null.
// The query endpoint quotes each custom property value exactly once, so
// only one surrounding quote pair is stripped.
func (r Row) Get(column string) string {
	v := r[column]
	if len(v) >= 2 && v[0] == '"' && v[len(v)-1] == '"' {
		return v[1 : len(v)-1]
	}
	return v
}

// Has reports whether the column holds a non-null value.
func (r Row) Has(column string) bool {
	return r[column] != ""
}

// Query runs a SQL query against the declarative query endpoint.
func (c *Client) Query(ctx context.Context, sql string) ([]Row, error) {
	endpoint := c.apiURL("queries", "download") + "?format=JSON"
	logging.Ctx(ctx).Debug().Str("url", endpoint).Msg("Executing catalog query")

	var raw []map[string]any
	if err := c.transport.PutJSON(ctx, endpoint, map[string]string{"sql": sql}, &raw); err != nil {
		return nil, errors.NewResourceError("query", "catalog", "", err)
	}

	rows := make([]Row, len(raw))
	for i, record := range raw {
		row := make(Row, len(record))
		for column, value := range record {
			if value == nil {
				continue
			}
			switch v := value.(type) {
			case string:
				row[column] = v
			default:
				row[column] = fmt.Sprintf("%v", v)
			}
		}
		rows[i] = row
	}
	return rows, nil
}

// BulkUpload uploads assets to a scheme as an import.json multipart file.
// DryRun validates without changing data.
func (c *Client) BulkUpload(ctx context.Context, scheme string, assets []map[string]any, operation Operation, dryRun bool) (map[string]any, error) {
	if !operation.Valid() {
		return nil, &errors.ValidationError{Field: "operation", Value: string(operation), Message: "must be ADD, REPLACE or FULL_LOAD"}
	}

	endpoint := c.apiURL("schemes", url.PathEscape(scheme), "upload")
	params := url.Values{}
	if operation != OperationAdd {
		params.Set("operation", string(operation))
	}
	if dryRun {
		params.Set("dryRun", "true")
	}
	if encoded := params.Encode(); encoded != "" {
		endpoint += "?" + encoded
	}

	body, err := json.Marshal(assets)
	if err != nil {
		return nil, errors.WrapParse("json", "bulk upload body", err)
	}

	logging.Ctx(ctx).Debug().
		Str("scheme", scheme).
		Str("operation", string(operation)).
		Bool("dry_run", dryRun).
		Int("assets", len(assets)).
		Msg("Uploading assets")

	var result map[string]any
	if err := c.transport.UploadFile(ctx, endpoint, "import.json", "import.json", body, &result); err != nil {
		return nil, errors.NewResourceError("upload", "scheme", scheme, err)
	}
	return result, nil
}

// ListAssets downloads all assets of a scheme. It satisfies the asset
// lister contract of the mapping package.
func (c *Client) ListAssets(ctx context.Context, scheme string) ([]mapping.Asset, error) {
	endpoint := c.apiURL("schemes", url.PathEscape(scheme), "download") + "?format=JSON"

	var raw []map[string]any
	if err := c.transport.GetJSON(ctx, endpoint, &raw); err != nil {
		return nil, errors.NewResourceError("download", "scheme", scheme, err)
	}

	assets := make([]mapping.Asset, 0, len(raw))
	for _, record := range raw {
		asset := mapping.Asset{Properties: record}
		if id, ok := record["id"].(string); ok {
			asset.UUID = id
		}
		if t, ok := record["_type"].(string); ok {
			asset.Type = t
		}
		if in, ok := record["inCollection"].(string); ok {
			asset.InCollection = in
		}
		if props, ok := record["customProperties"].(map[string]any); ok {
			merged := make(map[string]any, len(record)+len(props))
			for k, v := range record {
				merged[k] = v
			}
			for k, v := range props {
				merged[k] = v
			}
			asset.Properties = merged
		}
		assets = append(assets, asset)
	}
	return assets, nil
}

func clone(data map[string]any) map[string]any {
	out := make(map[string]any, len(data)+2)
	for k, v := range data {
		out[k] = v
	}
	return out
}
