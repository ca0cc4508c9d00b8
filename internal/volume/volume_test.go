package volume

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/gogpu/vpt"
)

func TestNewExplicitDimensions(t *testing.T) {
	tests := []struct {
		name    string
		size    int
		dims    [3]int
		wantErr error
	}{
		{"matching product", 24, [3]int{2, 3, 4}, nil},
		{"product too small", 24, [3]int{2, 3, 3}, vpt.ErrDimensionMismatch},
		{"product too large", 24, [3]int{2, 3, 5}, vpt.ErrDimensionMismatch},
		{"negative dimension", 24, [3]int{-2, 3, 4}, vpt.ErrDimensionMismatch},
		{"partial zero", 24, [3]int{0, 3, 8}, vpt.ErrDimensionMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := New(make([]byte, tt.size), tt.dims)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("New() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}
			if v.Width != tt.dims[0] || v.Height != tt.dims[1] || v.Depth != tt.dims[2] {
				t.Errorf("dimensions = %dx%dx%d, want %v", v.Width, v.Height, v.Depth, tt.dims)
			}
		})
	}
}

func TestNewInferredDimensions(t *testing.T) {
	tests := []struct {
		name     string
		size     int
		wantSide int
		wantErr  error
	}{
		{"one", 1, 1, nil},
		{"eight", 8, 2, nil},
		{"twenty-seven", 27, 3, nil},
		{"64 cubed", 64 * 64 * 64, 64, nil},
		{"not a cube", 28, 0, vpt.ErrAutoSizeFailed},
		{"empty", 0, 0, vpt.ErrAutoSizeFailed},
		{"one below a cube", 63, 0, vpt.ErrAutoSizeFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := New(make([]byte, tt.size), [3]int{})
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("New() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}
			if v.Width != tt.wantSide || v.Height != tt.wantSide || v.Depth != tt.wantSide {
				t.Errorf("inferred %dx%dx%d, want side %d", v.Width, v.Height, v.Depth, tt.wantSide)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.raw"), [3]int{})
	if !errors.Is(err, vpt.ErrRead) {
		t.Fatalf("Load() error = %v, want %v", err, vpt.ErrRead)
	}
}

func TestLoadReadsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vol.raw")
	if err := os.WriteFile(path, make([]byte, 8), 0o644); err != nil {
		t.Fatal(err)
	}
	v, err := Load(path, [3]int{})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if v.Width != 2 {
		t.Errorf("inferred side = %d, want 2", v.Width)
	}
}

func TestSampleNearest(t *testing.T) {
	// 2x2x2 volume: value encodes the corner index.
	data := []byte{0, 36, 73, 109, 146, 182, 219, 255}
	v, err := New(data, [3]int{2, 2, 2})
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		x, y, z float64
		want    float64
	}{
		{0.25, 0.25, 0.25, 0},
		{0.75, 0.25, 0.25, 36.0 / 255},
		{0.25, 0.75, 0.25, 73.0 / 255},
		{0.75, 0.75, 0.75, 1},
		// Clamp-to-edge outside [0,1].
		{-0.5, 0.25, 0.25, 0},
		{1.5, 0.75, 0.75, 1},
	}
	for _, tt := range tests {
		if got := v.SampleNearest(tt.x, tt.y, tt.z); math.Abs(got-tt.want) > 1e-12 {
			t.Errorf("SampleNearest(%v, %v, %v) = %v, want %v", tt.x, tt.y, tt.z, got, tt.want)
		}
	}
}

func TestSampleLinear(t *testing.T) {
	// Uniform volume: filtering must not change the value.
	uniform, err := New([]byte{100, 100, 100, 100, 100, 100, 100, 100}, [3]int{2, 2, 2})
	if err != nil {
		t.Fatal(err)
	}
	for _, c := range []float64{0, 0.3, 0.5, 0.9, 1} {
		if got := uniform.SampleLinear(c, c, c); math.Abs(got-100.0/255) > 1e-9 {
			t.Errorf("SampleLinear(%v) on uniform volume = %v, want %v", c, got, 100.0/255)
		}
	}

	// Gradient along x: the cube center averages both texels.
	grad, err := New([]byte{0, 255, 0, 255, 0, 255, 0, 255}, [3]int{2, 2, 2})
	if err != nil {
		t.Fatal(err)
	}
	if got := grad.SampleLinear(0.5, 0.5, 0.5); math.Abs(got-0.5) > 1e-9 {
		t.Errorf("SampleLinear(center) = %v, want 0.5", got)
	}
	// At texel centers the exact values come through.
	if got := grad.SampleLinear(0.25, 0.5, 0.5); math.Abs(got-0) > 1e-9 {
		t.Errorf("SampleLinear(first texel center) = %v, want 0", got)
	}
	if got := grad.SampleLinear(0.75, 0.5, 0.5); math.Abs(got-1) > 1e-9 {
		t.Errorf("SampleLinear(second texel center) = %v, want 1", got)
	}
}
