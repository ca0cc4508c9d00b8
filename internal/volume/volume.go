// Package volume loads the 3D scalar field and the RGBA transfer function
// and provides the host-side sampling used by the CPU renderer.
package volume

import (
	"math"
	"os"

	"github.com/gogpu/vpt"
)

// Volume is a 3D scalar field of 8-bit samples, X-fastest, then Y, then Z,
// occupying the unit cube [0,1]^3.
type Volume struct {
	Data   []byte
	Width  int
	Height int
	Depth  int
}

// New wraps raw volume data. Explicit dimensions must multiply to the data
// length; all-zero dimensions infer a cube.
func New(data []byte, dims [3]int) (*Volume, error) {
	w, h, d := dims[0], dims[1], dims[2]
	if w == 0 && h == 0 && d == 0 {
		side, err := cubeRoot(len(data))
		if err != nil {
			return nil, err
		}
		w, h, d = side, side, side
	} else if w <= 0 || h <= 0 || d <= 0 {
		return nil, vpt.Wrapf(vpt.ErrDimensionMismatch, "dimensions %dx%dx%d", w, h, d)
	} else if w*h*d != len(data) {
		return nil, vpt.Wrapf(vpt.ErrDimensionMismatch,
			"%dx%dx%d = %d samples, file holds %d", w, h, d, w*h*d, len(data))
	}
	return &Volume{Data: data, Width: w, Height: h, Depth: d}, nil
}

// Load reads a raw volume file.
func Load(path string, dims [3]int) (*Volume, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, vpt.Wrapf(vpt.ErrRead, "volume %s: %v", path, err)
	}
	return New(data, dims)
}

// cubeRoot returns the integer side length whose cube equals n.
func cubeRoot(n int) (int, error) {
	if n > 0 {
		side := int(math.Cbrt(float64(n)))
		// Cbrt can land one off for large n.
		for s := side - 1; s <= side+1; s++ {
			if s > 0 && s*s*s == n {
				return s, nil
			}
		}
	}
	return 0, vpt.Wrapf(vpt.ErrAutoSizeFailed, "%d bytes is not a cube", n)
}

// at returns the raw sample at integer coordinates, clamped to the edges.
func (v *Volume) at(x, y, z int) float64 {
	x = clampIndex(x, v.Width)
	y = clampIndex(y, v.Height)
	z = clampIndex(z, v.Depth)
	return float64(v.Data[(z*v.Height+y)*v.Width+x]) / 255
}

func clampIndex(i, n int) int {
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

// SampleNearest returns the density at normalized coordinates with
// nearest-texel filtering, matching a Nearest GPU sampler with
// clamp-to-edge addressing.
func (v *Volume) SampleNearest(x, y, z float64) float64 {
	return v.at(
		int(math.Floor(x*float64(v.Width))),
		int(math.Floor(y*float64(v.Height))),
		int(math.Floor(z*float64(v.Depth))),
	)
}

// SampleLinear returns the trilinearly filtered density at normalized
// coordinates, texel centers at (i+0.5)/n.
func (v *Volume) SampleLinear(x, y, z float64) float64 {
	fx, ix := splitCoord(x, v.Width)
	fy, iy := splitCoord(y, v.Height)
	fz, iz := splitCoord(z, v.Depth)

	var acc float64
	for dz := 0; dz < 2; dz++ {
		wz := lerpWeight(fz, dz)
		for dy := 0; dy < 2; dy++ {
			wy := lerpWeight(fy, dy)
			for dx := 0; dx < 2; dx++ {
				wx := lerpWeight(fx, dx)
				acc += wx * wy * wz * v.at(ix+dx, iy+dy, iz+dz)
			}
		}
	}
	return acc
}

// splitCoord converts a normalized coordinate to the lower texel index and
// the interpolation fraction toward the next texel.
func splitCoord(c float64, n int) (frac float64, idx int) {
	t := c*float64(n) - 0.5
	f := math.Floor(t)
	return t - f, int(f)
}

func lerpWeight(frac float64, step int) float64 {
	if step == 0 {
		return 1 - frac
	}
	return frac
}
