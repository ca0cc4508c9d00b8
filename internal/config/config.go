// Package config reads the TOML configuration file and overlays it onto
// renderer options. Precedence is defaults < config file < command line;
// the command-line overlay lives in cmd/vpt.
package config

import (
	"errors"

	"github.com/BurntSushi/toml"

	"github.com/gogpu/vpt"
)

// File mirrors the configuration file layout. Pointer and slice fields
// distinguish "absent" from zero so the overlay only touches keys the file
// actually sets.
type File struct {
	Data        Data        `toml:"data"`
	Rendering   Rendering   `toml:"rendering"`
	ToneMapping ToneMapping `toml:"tone_mapping"`
}

// Data configures the input volume and transfer function.
type Data struct {
	Volume           string `toml:"volume"`
	VolumeDimensions []int  `toml:"volume_dimensions"`
	TF               string `toml:"tf"`
	Linear           *bool  `toml:"linear"`
}

// Rendering configures the camera and the path-tracing loop.
type Rendering struct {
	CameraPosition []float64 `toml:"camera_position"`
	FocalLength    *float64  `toml:"focal_length"`
	MVPMatrix      []float64 `toml:"mvp_matrix"`
	OutResolution  []int     `toml:"out_resolution"`
	Output         string    `toml:"output"`
	Steps          *int      `toml:"steps"`
	Iterations     *int      `toml:"iterations"`
	Anisotropy     *float64  `toml:"anisotropy"`
	Extinction     *float64  `toml:"extinction"`
	Bounces        *int      `toml:"bounces"`
}

// ToneMapping configures the display mapping curve.
type ToneMapping struct {
	Tones      []float64 `toml:"tones"`
	Saturation *float64  `toml:"saturation"`
	Gamma      *float64  `toml:"gamma"`
}

// Load parses a configuration file.
func Load(path string) (*File, error) {
	var f File
	meta, err := toml.DecodeFile(path, &f)
	if err != nil {
		var parseErr toml.ParseError
		if errors.As(err, &parseErr) {
			return nil, vpt.Wrapf(vpt.ErrBadArguments, "config %s: %v", path, err)
		}
		return nil, vpt.Wrapf(vpt.ErrRead, "config %s: %v", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, vpt.Wrapf(vpt.ErrBadArguments, "config %s: unknown key %s", path, undecoded[0])
	}
	return &f, nil
}

// Apply overlays the file's settings onto opts.
func (f *File) Apply(opts *vpt.Options) error {
	if f.Data.Volume != "" {
		opts.VolumePath = f.Data.Volume
	}
	if f.Data.VolumeDimensions != nil {
		if len(f.Data.VolumeDimensions) != 3 {
			return vpt.Wrapf(vpt.ErrBadArguments, "volume_dimensions needs 3 values, got %d", len(f.Data.VolumeDimensions))
		}
		copy(opts.VolumeDims[:], f.Data.VolumeDimensions)
	}
	if f.Data.TF != "" {
		opts.TFPath = f.Data.TF
	}
	if f.Data.Linear != nil {
		opts.Linear = *f.Data.Linear
	}

	r := &f.Rendering
	if r.CameraPosition != nil {
		if len(r.CameraPosition) != 3 {
			return vpt.Wrapf(vpt.ErrBadArguments, "camera_position needs 3 values, got %d", len(r.CameraPosition))
		}
		copy(opts.CameraPosition[:], r.CameraPosition)
	}
	if r.FocalLength != nil {
		opts.FocalLength = *r.FocalLength
	}
	if r.MVPMatrix != nil {
		if len(r.MVPMatrix) != 16 {
			return vpt.Wrapf(vpt.ErrBadArguments, "mvp_matrix needs 16 values, got %d", len(r.MVPMatrix))
		}
		var m [16]float64
		copy(m[:], r.MVPMatrix)
		opts.MVPInverse = &m
	}
	if r.OutResolution != nil {
		if len(r.OutResolution) != 2 {
			return vpt.Wrapf(vpt.ErrBadArguments, "out_resolution needs 2 values, got %d", len(r.OutResolution))
		}
		opts.Width, opts.Height = r.OutResolution[0], r.OutResolution[1]
	}
	if r.Output != "" {
		opts.OutputPath = r.Output
	}
	if r.Steps != nil {
		opts.Steps = *r.Steps
	}
	if r.Iterations != nil {
		opts.Iterations = *r.Iterations
	}
	if r.Anisotropy != nil {
		opts.Anisotropy = *r.Anisotropy
	}
	if r.Extinction != nil {
		opts.Extinction = *r.Extinction
	}
	if r.Bounces != nil {
		opts.MaxBounces = *r.Bounces
	}

	t := &f.ToneMapping
	if t.Tones != nil {
		if len(t.Tones) != 3 {
			return vpt.Wrapf(vpt.ErrBadArguments, "tones needs 3 values, got %d", len(t.Tones))
		}
		copy(opts.Tones[:], t.Tones)
	}
	if t.Saturation != nil {
		opts.Saturation = *t.Saturation
	}
	if t.Gamma != nil {
		opts.Gamma = *t.Gamma
	}
	return nil
}
