package cmd

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Manifest is a YAML file of named run presets, so recurring experiment
// configurations don't have to be retyped as flags.
type Manifest struct {
	Runs map[string]RunPreset `yaml:"runs"`
}

// RunPreset names the inputs and layout of one run.
type RunPreset struct {
	ParamFile    string `yaml:"params"`
	ObstacleFile string `yaml:"obstacles"`
	Partitions   int    `yaml:"partitions"`
	OutDir       string `yaml:"out_dir"`
}

// LoadManifest reads and parses a run manifest.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest %s: %w", path, err)
	}
	return &m, nil
}

// Preset looks up a named preset.
func (m *Manifest) Preset(name string) (RunPreset, bool) {
	preset, ok := m.Runs[name]
	return preset, ok
}
