package checks

import (
	"context"
	"fmt"

	"github.com/civicdata/metasync/pkg/logging"
	"github.com/civicdata/metasync/pkg/reconcile"
)

// PostOccupation reports posts without any assigned person. Vacancies
// need an organizational decision, so nothing is remediated.
type PostOccupation struct{}

func (c *PostOccupation) Name() string  { return "post_occupation" }
func (c *PostOccupation) Title() string { return "Post Occupation" }
func (c *PostOccupation) Description() string {
	return "Checks that all posts are assigned to at least one person."
}

func (c *PostOccupation) Run(ctx context.Context, env *Env, result *reconcile.Result) error {
	rows, err := env.Catalog.Query(ctx, unoccupiedPostsQuery)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		logging.Ctx(ctx).Info().Msg("all posts are occupied")
		return nil
	}
	for _, row := range rows {
		label := row.Get("post_label")
		result.Add(reconcile.Issue{
			Type:      reconcile.IssueUnoccupiedPost,
			PostUUID:  row.Get("post_uuid"),
			PostLabel: label,
			Message:   fmt.Sprintf("Post %s has no person assigned", label),
		})
	}
	return nil
}
