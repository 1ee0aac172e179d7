package catalog

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"ecttool/domain/category"
	"ecttool/domain/core"
)

//go:embed default_catalog.yaml
var defaultCatalog []byte

// file mirrors the YAML layout
type file struct {
	Modes      []category.Mode      `yaml:"modes"`
	Attributes []category.Attribute `yaml:"attributes"`
}

// Loader reads category metadata from a YAML file, or from the built-in
// endometrial cohort catalog when no path is set.
type Loader struct {
	path string
}

// NewLoader creates a loader. An empty path selects the built-in catalog.
func NewLoader(path string) *Loader {
	return &Loader{path: path}
}

// LoadCatalog parses and validates the metadata.
func (l *Loader) LoadCatalog() (*category.Catalog, error) {
	if l.path == "" {
		return Parse(defaultCatalog)
	}
	data, err := os.ReadFile(l.path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", l.path, err)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("catalog %s: %w", l.path, err)
	}
	return c, nil
}

// Default returns the built-in catalog.
func Default() (*category.Catalog, error) {
	return Parse(defaultCatalog)
}

// Parse decodes YAML metadata. Unknown fields are rejected so typos do not
// silently drop a subcategory label.
func Parse(data []byte) (*category.Catalog, error) {
	var f file
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, core.NewInvalidInputError("catalog", err.Error())
	}
	if len(f.Modes) == 0 {
		return nil, core.NewInvalidInputError("catalog", "no survival modes")
	}
	if len(f.Attributes) == 0 {
		return nil, core.NewInvalidInputError("catalog", "no attributes")
	}
	return category.NewCatalog(f.Modes, f.Attributes)
}
