package loader

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Manifest selects and orders the plugins to load.
//
//	plugins:
//	  - guid: dev.mira.example
//	  - guid: dev.mira.experimental
//	    enabled: false
type Manifest struct {
	Plugins []ManifestEntry `yaml:"plugins"`
}

// ManifestEntry is one plugin line. Enabled defaults to true.
type ManifestEntry struct {
	GUID    string `yaml:"guid"`
	Enabled *bool  `yaml:"enabled,omitempty"`
}

// IsEnabled reports whether the entry should load.
func (e ManifestEntry) IsEnabled() bool {
	return e.Enabled == nil || *e.Enabled
}

// LoadManifest reads a manifest file.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	return ParseManifest(data)
}

// ParseManifest parses a manifest from YAML bytes.
func ParseManifest(data []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}

	seen := make(map[string]bool, len(m.Plugins))
	for i, p := range m.Plugins {
		if p.GUID == "" {
			return nil, fmt.Errorf("plugins[%d].guid is required", i)
		}
		if seen[p.GUID] {
			return nil, fmt.Errorf("plugins[%d]: %s listed twice", i, p.GUID)
		}
		seen[p.GUID] = true
	}
	return &m, nil
}

// Enabled returns the enabled GUIDs in manifest order.
func (m *Manifest) Enabled() []string {
	var guids []string
	for _, p := range m.Plugins {
		if p.IsEnabled() {
			guids = append(guids, p.GUID)
		}
	}
	return guids
}
