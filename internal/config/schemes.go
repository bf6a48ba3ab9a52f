package config

import (
	"os"

	"github.com/goccy/go-yaml"

	"github.com/civicdata/metasync/pkg/errors"
)

// Scheme describes one catalog scheme whose assets carry an external
// identity. IDField names the custom property holding the external id;
// Prefix distinguishes mapping files sharing a scheme.
type Scheme struct {
	Name    string `yaml:"name"`
	Short   string `yaml:"short"`
	IDField string `yaml:"id_field"`
	Prefix  string `yaml:"prefix"`
}

// LoadSchemes reads the scheme table from a YAML file:
//
//	schemes:
//	  - name: Datenprodukte
//	    short: DNK
//	    id_field: ODS_ID
//	    prefix: ods
func LoadSchemes(path string) ([]Scheme, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WrapIO("read schemes file", path, err)
	}
	var doc struct {
		Schemes []Scheme `yaml:"schemes"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.WrapParse("yaml", path, err)
	}
	for _, s := range doc.Schemes {
		if s.Name == "" || s.Short == "" {
			return nil, &errors.ConfigError{Component: "schemes", Message: "scheme entries need both name and short"}
		}
	}
	return doc.Schemes, nil
}
