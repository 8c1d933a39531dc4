package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// fileConfig is the YAML overlay schema. It carries only settings with no
// flag equivalent, so there is no precedence question between file and CLI.
type fileConfig struct {
	Dataset struct {
		Name        string   `yaml:"name"`
		BIDSVersion string   `yaml:"bidsVersion"`
		DatasetType string   `yaml:"datasetType"`
		Authors     []string `yaml:"authors"`
	} `yaml:"dataset"`

	// DirectionHints are appended after the built-in hint table and
	// evaluated in file order.
	DirectionHints []DirHint `yaml:"directionHints"`
}

// ApplyFile loads a YAML overlay and applies it to cfg.
func ApplyFile(cfg *Config, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(raw, &fc); err != nil {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}

	cfg.DatasetName = fc.Dataset.Name
	cfg.BIDSVersion = fc.Dataset.BIDSVersion
	cfg.DatasetType = fc.Dataset.DatasetType
	cfg.DatasetAuthors = fc.Dataset.Authors
	cfg.ExtraHints = fc.DirectionHints
	return nil
}
