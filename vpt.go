// Package vpt renders 2D images from 3D scalar volumes using Monte Carlo
// multiple-scattering volumetric path tracing on the GPU.
//
// The renderer traces one photon per output pixel through the unit cube
// [0,1]^3 using delta tracking (Woodcock tracking) against a user-supplied
// RGBA transfer function, accumulates a running mean of path contributions
// across progressive iterations, and maps the result to display space with
// a three-knob artistic tone curve.
//
// The GPU engine lives in internal/render and runs on gogpu/wgpu compute
// pipelines. A CPU implementation of the same state machine is available
// for machines without a usable adapter.
package vpt

// Options holds every renderer setting. Zero values are not meaningful;
// start from DefaultOptions and override.
type Options struct {
	// VolumePath is the raw 8-bit volume file. Required.
	VolumePath string

	// VolumeDims are the explicit volume dimensions (width, height, depth).
	// All zero means infer a cube from the file length.
	VolumeDims [3]int

	// TFPath is the raw RGBA8 transfer function file. Empty selects the
	// built-in black-to-red default.
	TFPath string

	// CameraPosition is the eye point in world space. The camera always
	// looks at the volume center (0.5, 0.5, 0.5).
	CameraPosition [3]float64

	// FocalLength is the projection-plane distance of the perspective
	// projection.
	FocalLength float64

	// MVPInverse, when non-nil, is an explicit row-major inverse
	// model-view-projection matrix and overrides the camera parameters.
	MVPInverse *[16]float64

	// Width and Height are the output resolution in pixels.
	Width  int
	Height int

	// OutputPath is the image file to write. A ".png" suffix selects PNG,
	// anything else portable pixmap (P3).
	OutputPath string

	// Steps is the number of delta-tracking substeps per pixel per
	// iteration.
	Steps int

	// Iterations is the number of progressive render dispatches.
	Iterations int

	// Anisotropy is the Henyey-Greenstein g parameter in (-1, 1).
	Anisotropy float64

	// Extinction is the majorant extinction coefficient of the medium.
	Extinction float64

	// MaxBounces caps scattering events per path; reaching it forces
	// termination through absorption.
	MaxBounces int

	// Linear selects trilinear volume filtering instead of nearest.
	Linear bool

	// Tones are the low/mid/high keys of the tone curve. They must be
	// strictly increasing within [0, 1].
	Tones [3]float64

	// Saturation blends between the luminance axis (0) and the full
	// color (1).
	Saturation float64

	// Gamma is the display gamma applied after keying.
	Gamma float64

	// Seed pins the host random stream used to derive per-iteration GPU
	// seeds. Zero draws a fresh seed.
	Seed int64

	// ForceCPU renders on the host instead of the GPU.
	ForceCPU bool
}

// DefaultOptions returns the renderer defaults.
func DefaultOptions() Options {
	return Options{
		CameraPosition: [3]float64{-1, -1, 1},
		FocalLength:    1.953125,
		Width:          512,
		Height:         512,
		OutputPath:     "output.ppm",
		Steps:          100,
		Iterations:     1,
		Anisotropy:     0,
		Extinction:     100,
		MaxBounces:     8,
		Tones:          [3]float64{0, 0.5, 1},
		Saturation:     1,
		Gamma:          2.2,
	}
}

// Validate reports the first configuration problem, or nil.
func (o *Options) Validate() error {
	if o.VolumePath == "" {
		return wrapf(ErrBadArguments, "no volume provided")
	}
	if o.Width <= 0 || o.Height <= 0 {
		return wrapf(ErrBadArguments, "output resolution %dx%d", o.Width, o.Height)
	}
	if o.Steps < 0 || o.Iterations < 0 || o.MaxBounces < 0 {
		return wrapf(ErrBadArguments, "steps, iterations and bounces must not be negative")
	}
	if o.Extinction < 0 {
		return wrapf(ErrBadArguments, "extinction %g must not be negative", o.Extinction)
	}
	if o.Anisotropy <= -1 || o.Anisotropy >= 1 {
		return wrapf(ErrBadArguments, "anisotropy %g outside (-1, 1)", o.Anisotropy)
	}
	if o.FocalLength <= 0 && o.MVPInverse == nil {
		return wrapf(ErrBadArguments, "focal length %g must be positive", o.FocalLength)
	}
	for _, d := range o.VolumeDims {
		if d < 0 {
			return wrapf(ErrBadArguments, "volume dimensions must not be negative")
		}
	}
	low, mid, high := o.Tones[0], o.Tones[1], o.Tones[2]
	if !(0 <= low && low < mid && mid < high && high <= 1) {
		return wrapf(ErrToneConfig, "tones (%g, %g, %g) must be strictly increasing in [0, 1]", low, mid, high)
	}
	if o.Gamma <= 0 {
		return wrapf(ErrToneConfig, "gamma %g must be positive", o.Gamma)
	}
	return nil
}
