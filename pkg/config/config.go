// Package config holds workspace-wide tuning parameters for the tenon
// naming core. Parameters can be loaded from an optional YAML file;
// anything left unset falls back to compiled-in defaults.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Shape fix policies, applied after a feature recomputes its shape.
const (
	FixShapeDisabled = "disabled" // never repair
	FixShapeEnabled  = "enabled"  // repair only when validation fails
	FixShapeAlways   = "always"   // repair without validating first
)

// Params contains all tunable parameters of the naming core.
type Params struct {
	// FixShape selects the shape repair policy: disabled, enabled, always.
	FixShape string `yaml:"fixShape"`

	// Tolerance is the linear tolerance (model units) for geometric
	// coincidence tests in sub-shape search.
	Tolerance float64 `yaml:"tolerance"`

	// AngleTolerance is the angular tolerance (radians) for comparing
	// face normals in sub-shape search.
	AngleTolerance float64 `yaml:"angleTolerance"`

	// MinLowerTopoNames is the minimum number of uniquely-identifying
	// lower elements the name synthesizer collects before it stops.
	MinLowerTopoNames int `yaml:"minLowerTopoNames"`

	// MaxLowerTopoNames caps the total candidates the synthesizer will
	// examine before falling back to an index suffix.
	MaxLowerTopoNames int `yaml:"maxLowerTopoNames"`

	// HashThreshold is the encoded-name length above which a synthesized
	// name is replaced by a reference into the string hasher table.
	HashThreshold int `yaml:"hashThreshold"`

	// DisableShapeCache turns off the per-object shape cache. Useful for
	// bisecting cache soundness issues; correctness must not depend on it.
	DisableShapeCache bool `yaml:"disableShapeCache"`
}

// Default returns the compiled-in parameter set.
func Default() Params {
	return Params{
		FixShape:          FixShapeEnabled,
		Tolerance:         1e-6,
		AngleTolerance:    1e-4,
		MinLowerTopoNames: 3,
		MaxLowerTopoNames: 10,
		HashThreshold:     40,
		DisableShapeCache: false,
	}
}

// Load reads parameters from a YAML file, filling unset fields with
// defaults. A missing file is not an error; the defaults are returned.
func Load(path string) (Params, error) {
	p := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return p, nil
		}
		return p, fmt.Errorf("config: reading %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &p); err != nil {
		return Default(), fmt.Errorf("config: parsing %s: %w", path, err)
	}
	return p.normalized(), nil
}

// normalized clamps out-of-range values back to their defaults.
func (p Params) normalized() Params {
	d := Default()
	switch p.FixShape {
	case FixShapeDisabled, FixShapeEnabled, FixShapeAlways:
	default:
		p.FixShape = d.FixShape
	}
	if p.Tolerance <= 0 {
		p.Tolerance = d.Tolerance
	}
	if p.AngleTolerance <= 0 {
		p.AngleTolerance = d.AngleTolerance
	}
	if p.MinLowerTopoNames < 1 {
		p.MinLowerTopoNames = d.MinLowerTopoNames
	}
	if p.MaxLowerTopoNames < p.MinLowerTopoNames {
		p.MaxLowerTopoNames = d.MaxLowerTopoNames
	}
	if p.HashThreshold < 8 {
		p.HashThreshold = d.HashThreshold
	}
	return p
}
