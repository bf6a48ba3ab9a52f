// Package metasync keeps a metadata catalog consistent with the
// authoritative personnel directory. An Engine wires the two upstream
// clients together, runs the configured consistency checks in order,
// and writes a JSON report of everything found and fixed.
package metasync

import (
	"context"

	"github.com/civicdata/metasync/pkg/catalog"
	"github.com/civicdata/metasync/pkg/checks"
	"github.com/civicdata/metasync/pkg/directory"
	"github.com/civicdata/metasync/pkg/logging"
	"github.com/civicdata/metasync/pkg/reconcile"
	"github.com/civicdata/metasync/pkg/transport"
)

// Engine runs reconciliation against one catalog database.
type Engine struct {
	cfg       *engineConfig
	catalog   *catalog.Client
	directory *directory.Cache
	checks    []checks.Check
}

// New creates an Engine from the given options. At minimum the
// connection settings must be supplied, either via WithConfig or by
// injecting ready-made clients.
func New(opts ...Option) (*Engine, error) {
	cfg := defaultEngineConfig()
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	e := &Engine{
		cfg:       cfg,
		catalog:   cfg.catalogClient,
		directory: cfg.directoryCache,
	}

	if e.catalog == nil || e.directory == nil {
		if cfg.settings == nil {
			return nil, &configError{"engine needs either WithConfig or injected clients"}
		}
		if err := cfg.settings.Validate(); err != nil {
			return nil, err
		}
	}
	if e.catalog == nil {
		t := transport.New("catalog",
			&transport.BasicAuth{User: cfg.settings.Catalog.User, Password: cfg.settings.Catalog.Password},
			transport.WithSilentStatuses(404, 410))
		e.catalog = catalog.NewClient(cfg.settings.Catalog.BaseURL, cfg.settings.Catalog.Database, t)
	}
	if e.directory == nil {
		t := transport.New("directory",
			&transport.BasicAuth{User: cfg.settings.Directory.User, Password: cfg.settings.Directory.Password},
			transport.WithSilentStatuses(404, 410))
		e.directory = directory.NewCache(cfg.settings.Directory.BaseURL, t)
	}

	selected, err := checks.Select(cfg.checkNames)
	if err != nil {
		return nil, err
	}
	e.checks = selected
	return e, nil
}

// Run executes the configured checks sequentially and writes the run
// report. A failing check degrades the report status but does not fail
// the run; only infrastructure failures, like an unwritable report
// directory, return an error.
func (e *Engine) Run(ctx context.Context) (*reconcile.Report, error) {
	if e.cfg.logger != nil {
		ctx = logging.WithLogger(ctx, e.cfg.logger)
	}
	log := logging.Ctx(ctx)
	log.Info().
		Str("database", e.catalog.Database()).
		Int("checks", len(e.checks)).
		Bool("dry_run", e.cfg.dryRun).
		Msg("reconciliation run starting")

	env := checks.NewEnv(e.catalog, e.directory)
	env.DryRun = e.cfg.dryRun

	results := checks.Run(ctx, env, e.checks)
	report := reconcile.Aggregate(e.catalog.Database(), results)

	if e.cfg.reportDir != "" {
		path, err := report.WriteFile(e.cfg.reportDir)
		if err != nil {
			return report, err
		}
		log.Info().Str("path", path).Msg("report written")
	}

	log.Info().
		Str("status", string(report.Summary.OverallStatus)).
		Int("issues", report.Summary.TotalIssues).
		Int("remediated", report.Summary.RemediatedIssues).
		Msg("reconciliation run finished")
	return report, nil
}

// Checks returns the names of the checks this engine will run.
func (e *Engine) Checks() []string {
	names := make([]string, len(e.checks))
	for i, c := range e.checks {
		names[i] = c.Name()
	}
	return names
}

type configError struct{ msg string }

func (e *configError) Error() string { return e.msg }
