package safety

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Overlay extends the built-in rule tables from a YAML file. Overlays are
// additive: they can block more and widen the allowed roots, but the
// built-in hard blocks always remain in force.
type Overlay struct {
	BlockedCommands    []string `yaml:"blocked_commands"`
	BlockedPaths       []string `yaml:"blocked_paths"`
	AllowedRoots       []string `yaml:"allowed_roots"`
	ProtectedProcesses []string `yaml:"protected_processes"`
}

// DefaultOverlayPath returns ~/.forgeai/safety.yaml, or "" when the home
// directory cannot be resolved.
func DefaultOverlayPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".forgeai", "safety.yaml")
}

// LoadOverlay reads an overlay from a YAML file. A missing file is not an
// error: the built-in tables alone apply.
func LoadOverlay(path string) (*Overlay, error) {
	if path == "" {
		path = DefaultOverlayPath()
		if path == "" {
			return &Overlay{}, nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Overlay{}, nil
		}
		return nil, err
	}

	var o Overlay
	if err := yaml.Unmarshal(data, &o); err != nil {
		return nil, err
	}
	return &o, nil
}
