package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Estimates are per-concept time and difficulty estimates, nominally in
// [0, 1], read from .learnpath/estimates.yml. Concepts without an estimate
// cost the neutral value.
type Estimates struct {
	Durations    map[string]float64 `yaml:"durations,omitempty" json:"durations,omitempty"`
	Difficulties map[string]float64 `yaml:"difficulties,omitempty" json:"difficulties,omitempty"`
}

// LoadEstimates reads the estimates file at root. A missing file yields
// empty estimates.
func LoadEstimates(root string) (*Estimates, error) {
	data, err := os.ReadFile(EstimatesPath(root))
	if err != nil {
		if os.IsNotExist(err) {
			return &Estimates{}, nil
		}
		return nil, fmt.Errorf("reading estimates: %w", err)
	}

	var est Estimates
	if err := yaml.Unmarshal(data, &est); err != nil {
		return nil, fmt.Errorf("parsing estimates: %w", err)
	}
	if err := est.Validate(); err != nil {
		return nil, err
	}
	return &est, nil
}

// Validate rejects negative estimates, which would break search optimality.
func (e *Estimates) Validate() error {
	for c, v := range e.Durations {
		if v < 0 {
			return fmt.Errorf("invalid duration for %q: %v must be >= 0", c, v)
		}
	}
	for c, v := range e.Difficulties {
		if v < 0 {
			return fmt.Errorf("invalid difficulty for %q: %v must be >= 0", c, v)
		}
	}
	return nil
}

// Save writes the estimates file at root.
func (e *Estimates) Save(root string) error {
	data, err := yaml.Marshal(e)
	if err != nil {
		return fmt.Errorf("encoding estimates: %w", err)
	}
	if err := os.WriteFile(EstimatesPath(root), data, 0644); err != nil {
		return fmt.Errorf("writing estimates: %w", err)
	}
	return nil
}
