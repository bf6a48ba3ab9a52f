// Package checks implements the consistency checks run against the
// catalog. Each check compares one kind of fact against the personnel
// directory, remediates where it safely can, and records everything it
// found as issues on its result.
package checks

import (
	"context"
	"fmt"

	"github.com/civicdata/metasync/pkg/catalog"
	"github.com/civicdata/metasync/pkg/directory"
	"github.com/civicdata/metasync/pkg/logging"
	"github.com/civicdata/metasync/pkg/reconcile"
)

// Check is one fact-type consistency check.
type Check interface {
	Name() string
	Title() string
	Description() string
	Run(ctx context.Context, env *Env, result *reconcile.Result) error
}

// Assignment pairs a post with the person who should hold it.
type Assignment struct {
	PostUUID   string
	PersonUUID string
}

// Env is the shared state of one reconciliation run. The person sync
// check fills ShouldAssignments and DirectoryEmails; the assignment and
// user checks consume them, so checks must run in registry order.
type Env struct {
	Catalog   *catalog.Client
	Directory *directory.Cache
	DryRun    bool

	// ShouldAssignments is the authoritative post occupancy derived
	// from directory memberships.
	ShouldAssignments []Assignment

	// DirectoryEmails maps directory person ids to email addresses.
	DirectoryEmails map[string]string

	// FailedPosts marks posts whose occupancy could not be derived from
	// the directory. The assignment check leaves them untouched so a
	// lookup failure never removes a valid existing assignment.
	FailedPosts map[string]bool
}

// NewEnv returns a run environment for the given upstream clients.
func NewEnv(cat *catalog.Client, dir *directory.Cache) *Env {
	return &Env{
		Catalog:         cat,
		Directory:       dir,
		DirectoryEmails: map[string]string{},
		FailedPosts:     map[string]bool{},
	}
}

// Apply runs fn unless this is a dry run. It reports whether the change
// was actually applied, so callers can record the issue as detected but
// untouched instead of remediated.
func (e *Env) Apply(ctx context.Context, fn func(context.Context) error) (bool, error) {
	if e.DryRun {
		return false, nil
	}
	if err := fn(ctx); err != nil {
		return false, err
	}
	return true, nil
}

// All returns the full check set in execution order.
func All() []Check {
	return []Check{
		&UniquePersonID{},
		&PersonSync{},
		&PostAssignment{},
		&PostOccupation{},
		&UserAccounts{},
		&ContactDetails{},
	}
}

// Select returns the named checks in registry order. An unknown name is
// an error; an empty selection means all checks.
func Select(names []string) ([]Check, error) {
	all := All()
	if len(names) == 0 {
		return all, nil
	}
	byName := make(map[string]Check, len(all))
	for _, c := range all {
		byName[c.Name()] = c
	}
	wanted := make(map[string]bool, len(names))
	for _, name := range names {
		if _, ok := byName[name]; !ok {
			return nil, fmt.Errorf("unknown check %q", name)
		}
		wanted[name] = true
	}
	var selected []Check
	for _, c := range all {
		if wanted[c.Name()] {
			selected = append(selected, c)
		}
	}
	return selected, nil
}

// Run executes the checks sequentially. A check that panics or returns
// an error is recorded with error status; later checks still run.
func Run(ctx context.Context, env *Env, checks []Check) []*reconcile.Result {
	results := make([]*reconcile.Result, 0, len(checks))
	for _, check := range checks {
		results = append(results, runOne(ctx, env, check))
	}
	return results
}

func runOne(ctx context.Context, env *Env, check Check) (result *reconcile.Result) {
	ctx = logging.WithCheck(ctx, check.Name())
	log := logging.Ctx(ctx)
	log.Info().Str("title", check.Title()).Msg("starting check")

	result = reconcile.NewResult(check.Name(), check.Title(), check.Description())
	defer func() {
		if r := recover(); r != nil {
			result.Fail(fmt.Errorf("panic: %v", r))
		}
		if result.Err == nil {
			result.Finalize()
		}
		log.Info().
			Str("status", string(result.Status)).
			Int("issues", len(result.Issues)).
			Msg(result.Message)
	}()

	if err := check.Run(ctx, env, result); err != nil {
		result.Fail(err)
	}
	return result
}
