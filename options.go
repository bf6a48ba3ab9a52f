package metasync

import (
	"github.com/rs/zerolog"

	"github.com/civicdata/metasync/internal/config"
	"github.com/civicdata/metasync/pkg/catalog"
	"github.com/civicdata/metasync/pkg/directory"
)

// Option configures an Engine.
type Option func(*engineConfig) error

type engineConfig struct {
	settings       *config.Config
	catalogClient  *catalog.Client
	directoryCache *directory.Cache
	checkNames     []string
	dryRun         bool
	reportDir      string
	logger         *zerolog.Logger
}

func defaultEngineConfig() *engineConfig {
	return &engineConfig{reportDir: "reports"}
}

// WithConfig supplies the connection settings the engine builds its
// clients from. Report and mapping directories are taken from it unless
// overridden.
func WithConfig(cfg *config.Config) Option {
	return func(c *engineConfig) error {
		c.settings = cfg
		if cfg.ReportDir != "" {
			c.reportDir = cfg.ReportDir
		}
		return nil
	}
}

// WithCatalogClient injects a ready-made catalog client, mainly for
// tests.
func WithCatalogClient(client *catalog.Client) Option {
	return func(c *engineConfig) error {
		c.catalogClient = client
		return nil
	}
}

// WithDirectoryCache injects a ready-made directory cache.
func WithDirectoryCache(cache *directory.Cache) Option {
	return func(c *engineConfig) error {
		c.directoryCache = cache
		return nil
	}
}

// WithChecks restricts the run to the named checks. They still execute
// in registry order regardless of the order given here.
func WithChecks(names ...string) Option {
	return func(c *engineConfig) error {
		c.checkNames = names
		return nil
	}
}

// WithDryRun reports what would change without writing to the catalog.
func WithDryRun(enabled bool) Option {
	return func(c *engineConfig) error {
		c.dryRun = enabled
		return nil
	}
}

// WithReportDir sets where run reports are written. An empty string
// disables report files.
func WithReportDir(dir string) Option {
	return func(c *engineConfig) error {
		c.reportDir = dir
		return nil
	}
}

// WithLogger attaches the logger used for the run.
func WithLogger(logger *zerolog.Logger) Option {
	return func(c *engineConfig) error {
		c.logger = logger
		return nil
	}
}
