package config

import (
	"fmt"
	"os"

	"gymbook/internal/slots"

	"gopkg.in/yaml.v3"
)

// CatalogConfig is the root of catalog.yaml: the candidate daily times offered to members.
type CatalogConfig struct {
	Slots []slots.CandidateSlot `yaml:"slots"`
}

// LoadCatalog loads and validates the candidate slot catalog. An empty path yields the default catalog.
func LoadCatalog(path string) ([]slots.CandidateSlot, error) {
	if path == "" {
		return append([]slots.CandidateSlot(nil), slots.DefaultCatalog...), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}

	var cfg CatalogConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate catalog: %w", err)
	}
	return cfg.Slots, nil
}

// Validate checks that the catalog is non-empty, well formed and has no duplicate times.
func (c *CatalogConfig) Validate() error {
	if len(c.Slots) == 0 {
		return fmt.Errorf("no slots defined")
	}

	seen := make(map[string]bool, len(c.Slots))
	for i, s := range c.Slots {
		if !slots.ValidTime(s.Time) {
			return fmt.Errorf("slot %d: invalid time %q, expected HH:MM", i, s.Time)
		}
		if s.Period == "" {
			return fmt.Errorf("slot %d: period is required", i)
		}
		if seen[s.Time] {
			return fmt.Errorf("slot %d: duplicate time %s", i, s.Time)
		}
		seen[s.Time] = true
	}
	return nil
}
