// Package scene handles .toml scene files: which shader to run, which
// function to enter, how to display it and what to feed its in-parameters.
package scene

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"goshade/pkg/builtins"
)

// Scene describes one shader run.
type Scene struct {
	Shader  Shader  `toml:"shader"`
	Display Display `toml:"display"`

	// Inputs are values for declared in-parameters: a bare number for a
	// float, a 3-element array for a vec3.
	Inputs map[string]any `toml:"inputs"`

	// Dir is the directory containing the scene file (set at load time).
	Dir string `toml:"-"`
}

// Shader names the source file and entry function.
type Shader struct {
	Path  string `toml:"path"`
	Entry string `toml:"entry"`
}

// Display configures the preview window.
type Display struct {
	Width  int `toml:"width"`
	Height int `toml:"height"`
	Scale  int `toml:"scale"`
}

// Load parses a scene file and applies defaults.
func Load(path string) (*Scene, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	var s Scene
	if err := toml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}

	s.Dir, err = filepath.Abs(filepath.Dir(path))
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", path, err)
	}

	// Defaults
	if s.Shader.Entry == "" {
		s.Shader.Entry = "main"
	}
	if s.Display.Width == 0 {
		s.Display.Width = 128
	}
	if s.Display.Height == 0 {
		s.Display.Height = 128
	}
	if s.Display.Scale == 0 {
		s.Display.Scale = 2
	}

	return &s, nil
}

// ShaderPath returns the shader source path resolved against the scene
// file's directory.
func (s *Scene) ShaderPath() string {
	if filepath.IsAbs(s.Shader.Path) {
		return s.Shader.Path
	}
	return filepath.Join(s.Dir, s.Shader.Path)
}

// InputValues converts the raw TOML input table into runtime values.
func (s *Scene) InputValues() (map[string]builtins.Value, error) {
	out := make(map[string]builtins.Value, len(s.Inputs))
	for name, raw := range s.Inputs {
		v, err := toValue(raw)
		if err != nil {
			return nil, fmt.Errorf("input %q: %w", name, err)
		}
		out[name] = v
	}
	return out, nil
}

func toValue(raw any) (builtins.Value, error) {
	switch t := raw.(type) {
	case float64:
		return builtins.Float(float32(t)), nil
	case int64:
		return builtins.Float(float32(t)), nil
	case []any:
		if len(t) != 3 {
			return builtins.Value{}, fmt.Errorf("vector needs 3 components, got %d", len(t))
		}
		var c [3]float32
		for i, e := range t {
			switch n := e.(type) {
			case float64:
				c[i] = float32(n)
			case int64:
				c[i] = float32(n)
			default:
				return builtins.Value{}, fmt.Errorf("component %d is %T, not a number", i, e)
			}
		}
		return builtins.NewVec3(c[0], c[1], c[2]), nil
	default:
		return builtins.Value{}, fmt.Errorf("unsupported input type %T", raw)
	}
}
