package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/chazu/tenon/pkg/config"
)

func TestDefault(t *testing.T) {
	p := config.Default()

	if p.FixShape != config.FixShapeEnabled {
		t.Errorf("FixShape: got %q, want %q", p.FixShape, config.FixShapeEnabled)
	}
	if p.MinLowerTopoNames != 3 {
		t.Errorf("MinLowerTopoNames: got %d, want 3", p.MinLowerTopoNames)
	}
	if p.MaxLowerTopoNames != 10 {
		t.Errorf("MaxLowerTopoNames: got %d, want 10", p.MaxLowerTopoNames)
	}
	if p.Tolerance <= 0 {
		t.Errorf("Tolerance must be positive, got %v", p.Tolerance)
	}
}

func TestLoadMissingFile(t *testing.T) {
	p, err := config.Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("missing file should not be an error: %v", err)
	}
	if p != config.Default() {
		t.Errorf("missing file should yield defaults, got %+v", p)
	}
}

func TestLoadOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tenon.yaml")
	src := "fixShape: always\nmaxLowerTopoNames: 12\ntolerance: 0.001\n"
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}

	p, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if p.FixShape != config.FixShapeAlways {
		t.Errorf("FixShape: got %q, want always", p.FixShape)
	}
	if p.MaxLowerTopoNames != 12 {
		t.Errorf("MaxLowerTopoNames: got %d, want 12", p.MaxLowerTopoNames)
	}
	if p.Tolerance != 0.001 {
		t.Errorf("Tolerance: got %v, want 0.001", p.Tolerance)
	}
	// Unset fields keep their defaults.
	if p.MinLowerTopoNames != 3 {
		t.Errorf("MinLowerTopoNames: got %d, want default 3", p.MinLowerTopoNames)
	}
}

func TestLoadClampsInvalid(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"bad fix policy", "fixShape: sometimes\n"},
		{"negative tolerance", "tolerance: -1\n"},
		{"max below min", "minLowerTopoNames: 5\nmaxLowerTopoNames: 2\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "tenon.yaml")
			if err := os.WriteFile(path, []byte(tt.src), 0o644); err != nil {
				t.Fatal(err)
			}
			p, err := config.Load(path)
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if p.Tolerance <= 0 {
				t.Errorf("Tolerance not clamped: %v", p.Tolerance)
			}
			if p.MaxLowerTopoNames < p.MinLowerTopoNames {
				t.Errorf("Max %d < Min %d after normalization",
					p.MaxLowerTopoNames, p.MinLowerTopoNames)
			}
			switch p.FixShape {
			case config.FixShapeDisabled, config.FixShapeEnabled, config.FixShapeAlways:
			default:
				t.Errorf("FixShape not clamped: %q", p.FixShape)
			}
		})
	}
}
