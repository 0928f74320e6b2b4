package catalog

import (
	"embed"
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"
)

// Reference file names, shared by the embedded defaults and REFERENCE_DATA_DIR.
const (
	ProjectionsFile = "climate_projections.yaml"
	FeaturesFile    = "resilience_features.yaml"
	CostsFile       = "cost_data.yaml"
)

//go:embed data/*.yaml
var embedded embed.FS

// Default loads the reference tables embedded in the binary.
func Default() (*Catalog, error) {
	sub, err := fs.Sub(embedded, "data")
	if err != nil {
		return nil, fmt.Errorf("open embedded reference data: %w", err)
	}
	return LoadFS(sub)
}

// Load reads the reference tables from dir. An empty dir selects the embedded
// defaults.
func Load(dir string) (*Catalog, error) {
	if dir == "" {
		return Default()
	}
	return LoadFS(os.DirFS(dir))
}

// LoadFS reads the three reference files from fsys and validates them.
func LoadFS(fsys fs.FS) (*Catalog, error) {
	var projections []ClimateProjection
	if err := decodeFile(fsys, ProjectionsFile, &projections); err != nil {
		return nil, err
	}
	var features []ResilienceFeature
	if err := decodeFile(fsys, FeaturesFile, &features); err != nil {
		return nil, err
	}
	var costs []CostItem
	if err := decodeFile(fsys, CostsFile, &costs); err != nil {
		return nil, err
	}

	c, err := New(projections, features, costs)
	if err != nil {
		return nil, fmt.Errorf("validate reference data: %w", err)
	}
	return c, nil
}

func decodeFile(fsys fs.FS, name string, v any) error {
	b, err := fs.ReadFile(fsys, name)
	if err != nil {
		return fmt.Errorf("read %s: %w", name, err)
	}
	if err := yaml.Unmarshal(b, v); err != nil {
		return fmt.Errorf("unmarshal %s: %w", name, err)
	}
	return nil
}
