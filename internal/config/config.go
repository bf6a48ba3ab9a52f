// Package config loads runtime configuration from the environment and an
// optional YAML file. A .env file in the working directory is honored so
// local runs do not need exported credentials.
package config

import (
	stderrors "errors"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/civicdata/metasync/pkg/errors"
)

// Config is the full runtime configuration of a reconciliation run.
type Config struct {
	Catalog   Catalog   `mapstructure:"catalog"`
	Directory Directory `mapstructure:"directory"`

	// ReportDir receives the JSON run reports.
	ReportDir string `mapstructure:"report_dir"`
	// MappingDir holds the CSV identity mapping files.
	MappingDir string `mapstructure:"mapping_dir"`
	// SchemesFile points at the scheme table, see LoadSchemes.
	SchemesFile string `mapstructure:"schemes_file"`
	LogLevel    string `mapstructure:"log_level"`
}

// Catalog holds the metadata catalog connection settings.
type Catalog struct {
	BaseURL  string `mapstructure:"base_url"`
	Database string `mapstructure:"database"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
}

// Directory holds the personnel directory connection settings. BaseURL
// points at the API root, including its /api suffix.
type Directory struct {
	BaseURL  string `mapstructure:"base_url"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
}

// Load reads configuration from the optional config file and the
// environment. Environment variables use the METASYNC_ prefix with
// underscores, for example METASYNC_CATALOG_BASE_URL, and override file
// values.
func Load(file string) (*Config, error) {
	// Missing .env is fine; it only serves local development.
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("METASYNC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("report_dir", "reports")
	v.SetDefault("mapping_dir", "mappings")
	v.SetDefault("log_level", "info")

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, &errors.ConfigError{Component: "config", Message: err.Error(), Err: err}
		}
	} else {
		v.SetConfigName("metasync")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !stderrors.As(err, &notFound) {
				return nil, &errors.ConfigError{Component: "config", Message: err.Error(), Err: err}
			}
		}
	}

	// AutomaticEnv does not surface nested keys through Unmarshal, so
	// bind them explicitly.
	for _, key := range []string{
		"catalog.base_url", "catalog.database", "catalog.user", "catalog.password",
		"directory.base_url", "directory.user", "directory.password",
		"report_dir", "mapping_dir", "schemes_file", "log_level",
	} {
		_ = v.BindEnv(key)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, &errors.ConfigError{Component: "config", Message: err.Error(), Err: err}
	}
	return cfg, nil
}

// Validate checks the settings a run cannot start without.
func (c *Config) Validate() error {
	switch {
	case c.Catalog.BaseURL == "":
		return &errors.ConfigError{Component: "catalog.base_url", Message: "catalog base URL must be set"}
	case c.Catalog.Database == "":
		return &errors.ConfigError{Component: "catalog.database", Message: "catalog database must be set"}
	case c.Directory.BaseURL == "":
		return &errors.ConfigError{Component: "directory.base_url", Message: "directory base URL must be set"}
	}
	return nil
}

// Schemes loads the scheme table referenced by the settings.
func (c *Config) Schemes() ([]Scheme, error) {
	if c.SchemesFile == "" {
		return nil, &errors.ConfigError{Component: "schemes_file", Message: "no schemes file configured"}
	}
	return LoadSchemes(c.SchemesFile)
}

// FromEnv is a convenience for tests and tooling that reads a single
// value with the METASYNC_ prefix applied.
func FromEnv(key string) string {
	return os.Getenv("METASYNC_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_")))
}
