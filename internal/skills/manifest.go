package skills

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ManifestFileName is the bundle descriptor every custom skill directory
// must carry at its root.
const ManifestFileName = "skill.yaml"

// Manifest describes a custom skill bundle.
type Manifest struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Entrypoint  string `yaml:"entrypoint"`
	Version     string `yaml:"version"`
}

// LoadManifest reads and validates the bundle manifest in dir.
func LoadManifest(dir string) (*Manifest, error) {
	path := filepath.Join(dir, ManifestFileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read skill manifest: %w", err)
	}

	var manifest Manifest
	if err := yaml.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("parse skill manifest: %w", err)
	}

	if strings.TrimSpace(manifest.Name) == "" {
		return nil, fmt.Errorf("skill manifest %s: name is required", path)
	}
	return &manifest, nil
}
