package vpt

import (
	"errors"
	"testing"
)

func TestOptionsValidate(t *testing.T) {
	valid := func() Options {
		o := DefaultOptions()
		o.VolumePath = "volume.raw"
		return o
	}

	tests := []struct {
		name    string
		mutate  func(*Options)
		wantErr error
	}{
		{
			name:   "defaults with volume",
			mutate: func(o *Options) {},
		},
		{
			name:    "missing volume",
			mutate:  func(o *Options) { o.VolumePath = "" },
			wantErr: ErrBadArguments,
		},
		{
			name:    "zero resolution",
			mutate:  func(o *Options) { o.Width = 0 },
			wantErr: ErrBadArguments,
		},
		{
			name:    "negative steps",
			mutate:  func(o *Options) { o.Steps = -1 },
			wantErr: ErrBadArguments,
		},
		{
			name:    "anisotropy at bound",
			mutate:  func(o *Options) { o.Anisotropy = 1 },
			wantErr: ErrBadArguments,
		},
		{
			name:    "negative extinction",
			mutate:  func(o *Options) { o.Extinction = -5 },
			wantErr: ErrBadArguments,
		},
		{
			name:    "tones not increasing",
			mutate:  func(o *Options) { o.Tones = [3]float64{0, 0.5, 0.5} },
			wantErr: ErrToneConfig,
		},
		{
			name:    "tones above one",
			mutate:  func(o *Options) { o.Tones = [3]float64{0, 0.5, 1.5} },
			wantErr: ErrToneConfig,
		},
		{
			name:    "low equals mid",
			mutate:  func(o *Options) { o.Tones = [3]float64{0.5, 0.5, 1} },
			wantErr: ErrToneConfig,
		},
		{
			name:    "zero gamma",
			mutate:  func(o *Options) { o.Gamma = 0 },
			wantErr: ErrToneConfig,
		},
		{
			name:   "explicit matrix skips focal length check",
			mutate: func(o *Options) { o.FocalLength = 0; o.MVPInverse = &[16]float64{} },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := valid()
			tt.mutate(&o)
			err := o.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("Validate() = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, 0},
		{"bad arguments", Wrapf(ErrBadArguments, "x"), 1},
		{"tone config", Wrapf(ErrToneConfig, "x"), 1},
		{"dimension mismatch", Wrapf(ErrDimensionMismatch, "x"), 2},
		{"auto size", Wrapf(ErrAutoSizeFailed, "x"), 2},
		{"tf malformed", Wrapf(ErrTFMalformed, "x"), 2},
		{"read", Wrapf(ErrRead, "x"), 2},
		{"write", Wrapf(ErrWrite, "x"), 3},
		{"device init", Wrapf(ErrDeviceInit, "x"), 4},
		{"device lost", Wrapf(ErrDeviceLost, "x"), 4},
		{"out of memory", Wrapf(ErrOutOfMemory, "x"), 4},
		{"unwrapped flag-parse error", errors.New("flag provided but not defined"), 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExitCode(tt.err); got != tt.want {
				t.Errorf("ExitCode(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}
