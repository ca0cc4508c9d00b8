package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/gogpu/vpt"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadAndApply(t *testing.T) {
	path := writeConfig(t, `
[data]
volume = "head.raw"
volume_dimensions = [64, 64, 64]
tf = "bone.tf"
linear = true

[rendering]
camera_position = [-2.0, 0.5, 1.5]
focal_length = 2.0
out_resolution = [640, 480]
output = "head.png"
steps = 200
iterations = 16
anisotropy = 0.3
extinction = 50.0
bounces = 12

[tone_mapping]
tones = [0.1, 0.4, 0.9]
saturation = 0.8
gamma = 1.8
`)

	file, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	opts := vpt.DefaultOptions()
	if err := file.Apply(&opts); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}

	if opts.VolumePath != "head.raw" {
		t.Errorf("VolumePath = %q", opts.VolumePath)
	}
	if opts.VolumeDims != [3]int{64, 64, 64} {
		t.Errorf("VolumeDims = %v", opts.VolumeDims)
	}
	if opts.TFPath != "bone.tf" || !opts.Linear {
		t.Errorf("TFPath = %q, Linear = %v", opts.TFPath, opts.Linear)
	}
	if opts.CameraPosition != [3]float64{-2, 0.5, 1.5} {
		t.Errorf("CameraPosition = %v", opts.CameraPosition)
	}
	if opts.FocalLength != 2 {
		t.Errorf("FocalLength = %v", opts.FocalLength)
	}
	if opts.Width != 640 || opts.Height != 480 {
		t.Errorf("resolution = %dx%d", opts.Width, opts.Height)
	}
	if opts.OutputPath != "head.png" {
		t.Errorf("OutputPath = %q", opts.OutputPath)
	}
	if opts.Steps != 200 || opts.Iterations != 16 || opts.MaxBounces != 12 {
		t.Errorf("Steps = %d, Iterations = %d, MaxBounces = %d", opts.Steps, opts.Iterations, opts.MaxBounces)
	}
	if opts.Anisotropy != 0.3 || opts.Extinction != 50 {
		t.Errorf("Anisotropy = %v, Extinction = %v", opts.Anisotropy, opts.Extinction)
	}
	if opts.Tones != [3]float64{0.1, 0.4, 0.9} || opts.Saturation != 0.8 || opts.Gamma != 1.8 {
		t.Errorf("tone mapping = %v / %v / %v", opts.Tones, opts.Saturation, opts.Gamma)
	}
}

func TestApplyLeavesUnsetKeysAlone(t *testing.T) {
	path := writeConfig(t, `
[rendering]
steps = 7
`)
	file, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	defaults := vpt.DefaultOptions()
	opts := defaults
	if err := file.Apply(&opts); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}

	if opts.Steps != 7 {
		t.Errorf("Steps = %d, want 7", opts.Steps)
	}
	if opts.Extinction != defaults.Extinction {
		t.Errorf("Extinction = %v, want default %v", opts.Extinction, defaults.Extinction)
	}
	if opts.Gamma != defaults.Gamma {
		t.Errorf("Gamma = %v, want default %v", opts.Gamma, defaults.Gamma)
	}
	if opts.Width != defaults.Width || opts.Height != defaults.Height {
		t.Errorf("resolution = %dx%d, want defaults", opts.Width, opts.Height)
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	path := writeConfig(t, `
[rendering]
step_count = 7
`)
	if _, err := Load(path); !errors.Is(err, vpt.ErrBadArguments) {
		t.Fatalf("Load() error = %v, want %v", err, vpt.ErrBadArguments)
	}
}

func TestLoadRejectsBadTOML(t *testing.T) {
	path := writeConfig(t, `[rendering`)
	if _, err := Load(path); !errors.Is(err, vpt.ErrBadArguments) {
		t.Fatalf("Load() error = %v, want %v", err, vpt.ErrBadArguments)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.toml")); !errors.Is(err, vpt.ErrRead) {
		t.Fatalf("Load() error = %v, want %v", err, vpt.ErrRead)
	}
}

func TestApplyValidatesShapes(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"short camera position", "[rendering]\ncamera_position = [1.0, 2.0]\n"},
		{"short mvp matrix", "[rendering]\nmvp_matrix = [1.0, 2.0, 3.0]\n"},
		{"long resolution", "[rendering]\nout_resolution = [1, 2, 3]\n"},
		{"short tones", "[tone_mapping]\ntones = [0.0, 1.0]\n"},
		{"short volume dimensions", "[data]\nvolume_dimensions = [64]\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			file, err := Load(writeConfig(t, tt.content))
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			opts := vpt.DefaultOptions()
			if err := file.Apply(&opts); !errors.Is(err, vpt.ErrBadArguments) {
				t.Fatalf("Apply() error = %v, want %v", err, vpt.ErrBadArguments)
			}
		})
	}
}
