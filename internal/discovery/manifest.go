package discovery

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"go.yaml.in/yaml/v3"
)

// ManifestFile is the optional per-category manifest name.
const ManifestFile = "suite.yml"

// Manifest carries per-category overrides.
//
//	exclude: [quick_sort]        # never evaluated
//	include: [/usr/include/apr-1.0]
//	ldflags: [-lapr-1, -lgmp]
type Manifest struct {
	Exclude []string `yaml:"exclude"`
	Include []string `yaml:"include"`
	LDFlags []string `yaml:"ldflags"`
}

// Excludes reports whether name is listed in the manifest's exclude list.
func (m Manifest) Excludes(name string) bool {
	return slices.Contains(m.Exclude, name)
}

// LoadManifest reads <dir>/suite.yml. A missing file yields an empty manifest.
func LoadManifest(dir string) (Manifest, error) {
	path := filepath.Join(dir, ManifestFile)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Manifest{}, nil
		}
		return Manifest{}, fmt.Errorf("read manifest %q: %w", path, err)
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return Manifest{}, fmt.Errorf("parse manifest %q: %w", path, err)
	}
	return m, nil
}
