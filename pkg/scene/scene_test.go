package scene

import (
	"os"
	"path/filepath"
	"testing"

	"goshade/pkg/builtins"
	"goshade/pkg/bytecode"
)

func writeScene(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scene.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeScene(t, `
[shader]
path = "shaders/demo.shd"
entry = "pixel"

[display]
width = 320
height = 240
scale = 1

[inputs]
time_scale = 0.5
light_dir = [0.0, 1.0, 0.0]
steps = 4
`)

	s, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if s.Shader.Path != "shaders/demo.shd" || s.Shader.Entry != "pixel" {
		t.Errorf("shader = %+v", s.Shader)
	}
	if s.Display.Width != 320 || s.Display.Height != 240 || s.Display.Scale != 1 {
		t.Errorf("display = %+v", s.Display)
	}

	want := filepath.Join(filepath.Dir(path), "shaders/demo.shd")
	if s.ShaderPath() != want {
		t.Errorf("ShaderPath() = %q, want %q", s.ShaderPath(), want)
	}

	values, err := s.InputValues()
	if err != nil {
		t.Fatalf("InputValues() error = %v", err)
	}
	if v := values["time_scale"]; v.Kind != bytecode.TypeF32 || v.F != 0.5 {
		t.Errorf("time_scale = %v", v)
	}
	if v := values["steps"]; v.Kind != bytecode.TypeF32 || v.F != 4 {
		t.Errorf("integer input not widened to float: %v", v)
	}
	if v := values["light_dir"]; v.Kind != bytecode.TypeVec3 || v.V != (builtins.Vec3{0, 1, 0}) {
		t.Errorf("light_dir = %v", v)
	}
}

func TestLoadDefaults(t *testing.T) {
	path := writeScene(t, `
[shader]
path = "demo.shd"
`)

	s, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if s.Shader.Entry != "main" {
		t.Errorf("default entry = %q, want main", s.Shader.Entry)
	}
	if s.Display.Width != 128 || s.Display.Height != 128 || s.Display.Scale != 2 {
		t.Errorf("default display = %+v", s.Display)
	}
}

func TestLoadErrors(t *testing.T) {
	t.Run("MissingFile", func(t *testing.T) {
		if _, err := Load(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
			t.Error("expected error for missing file")
		}
	})

	t.Run("MalformedTOML", func(t *testing.T) {
		path := writeScene(t, `[shader`)
		if _, err := Load(path); err == nil {
			t.Error("expected parse error")
		}
	})
}

func TestInputValueErrors(t *testing.T) {
	t.Run("WrongVectorArity", func(t *testing.T) {
		s := &Scene{Inputs: map[string]any{"v": []any{1.0, 2.0}}}
		if _, err := s.InputValues(); err == nil {
			t.Error("expected error for 2-component vector")
		}
	})

	t.Run("NonNumericComponent", func(t *testing.T) {
		s := &Scene{Inputs: map[string]any{"v": []any{1.0, "two", 3.0}}}
		if _, err := s.InputValues(); err == nil {
			t.Error("expected error for string component")
		}
	})

	t.Run("UnsupportedType", func(t *testing.T) {
		s := &Scene{Inputs: map[string]any{"flag": true}}
		if _, err := s.InputValues(); err == nil {
			t.Error("expected error for boolean input")
		}
	})
}
