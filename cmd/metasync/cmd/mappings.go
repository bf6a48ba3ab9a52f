package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/civicdata/metasync/internal/config"
	"github.com/civicdata/metasync/pkg/catalog"
	"github.com/civicdata/metasync/pkg/mapping"
	"github.com/civicdata/metasync/pkg/transport"
)

var mappingsRemote bool

// mappingsCmd represents the mappings command.
var mappingsCmd = &cobra.Command{
	Use:   "mappings",
	Short: "Show the configured identity mapping stores",
	Long: `Mappings loads the scheme table and opens the file-backed identity
mapping store of each scheme, printing its location and entry count.
Missing mapping files are created empty.

With --remote the stores are instead built in memory from the catalog's
current assets, showing what the catalog itself maps right now.`,
	RunE: runMappings,
}

func init() {
	rootCmd.AddCommand(mappingsCmd)

	mappingsCmd.Flags().BoolVar(&mappingsRemote, "remote", false, "Build the stores from the catalog's current assets instead of local files")
}

func runMappings(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	schemes, err := cfg.Schemes()
	if err != nil {
		return err
	}

	if mappingsRemote {
		return printRemoteMappings(cmd.Context(), cfg, schemes)
	}

	for _, scheme := range schemes {
		store, err := mapping.NewFileStore(cfg.MappingDir, cfg.Catalog.Database, scheme.Short, scheme.Prefix, scheme.IDField)
		if err != nil {
			return err
		}
		fmt.Printf("%-12s %4d entries  %s\n", scheme.Short, len(store.IDs()), store.Path())
	}
	return nil
}

func printRemoteMappings(ctx context.Context, cfg *config.Config, schemes []config.Scheme) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	t := transport.New("catalog",
		&transport.BasicAuth{User: cfg.Catalog.User, Password: cfg.Catalog.Password},
		transport.WithSilentStatuses(404, 410))
	client := catalog.NewClient(cfg.Catalog.BaseURL, cfg.Catalog.Database, t)

	for _, scheme := range schemes {
		store := mapping.NewMemoryStore(ctx, scheme.Short, scheme.IDField, client, nil)
		fmt.Printf("%-12s %4d entries  (catalog %s)\n", scheme.Short, len(store.IDs()), cfg.Catalog.Database)
	}
	return nil
}
