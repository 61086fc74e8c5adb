package ctc

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	gojson "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

// fileOptions is the on-disk form of Options. Unset fields keep their
// zero values, which select the defaults.
type fileOptions struct {
	Topology string `yaml:"topology" json:"topology"`
	Workers  int    `yaml:"workers" json:"workers"`
}

// ParseTopology maps a configuration name to a Topology. The empty string
// selects the default slack topology.
func ParseTopology(s string) (Topology, error) {
	switch strings.ToLower(s) {
	case "", "slack":
		return TopologySlack, nil
	case "exact":
		return TopologyExact, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownTopology, s)
}

// LoadOptions reads Options from a YAML or JSON file, chosen by file
// extension.
func LoadOptions(path string) (Options, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Options{}, fmt.Errorf("read options: %w", err)
	}
	var fo fileOptions
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &fo); err != nil {
			return Options{}, fmt.Errorf("parse yaml options: %w", err)
		}
	case ".json":
		if err := gojson.Unmarshal(data, &fo); err != nil {
			return Options{}, fmt.Errorf("parse json options: %w", err)
		}
	default:
		return Options{}, fmt.Errorf("unsupported options format %q", ext)
	}
	topo, err := ParseTopology(fo.Topology)
	if err != nil {
		return Options{}, err
	}
	return Options{Topology: topo, Workers: fo.Workers}, nil
}
