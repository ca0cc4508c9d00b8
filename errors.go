package vpt

import (
	"errors"
	"fmt"
)

// Error kinds. Every failure surfaced by the renderer wraps exactly one of
// these so callers can branch with errors.Is and map to an exit code.
var (
	// ErrBadArguments covers unknown flags, malformed values, and a
	// missing volume.
	ErrBadArguments = errors.New("vpt: bad arguments")

	// ErrDimensionMismatch means the explicit volume dimensions do not
	// multiply to the file length.
	ErrDimensionMismatch = errors.New("vpt: volume dimension mismatch")

	// ErrAutoSizeFailed means no cube factorization exists for the volume
	// file length.
	ErrAutoSizeFailed = errors.New("vpt: cannot infer volume dimensions")

	// ErrTFMalformed means the transfer-function file is not a sequence
	// of RGBA8 entries.
	ErrTFMalformed = errors.New("vpt: malformed transfer function")

	// ErrRead is a filesystem error on an input file.
	ErrRead = errors.New("vpt: input read failed")

	// ErrWrite is a filesystem error on the output image.
	ErrWrite = errors.New("vpt: output write failed")

	// ErrToneConfig means the tone keys are not strictly increasing in
	// [0, 1] or gamma is not positive.
	ErrToneConfig = errors.New("vpt: invalid tone mapping configuration")

	// ErrDeviceInit means no usable GPU adapter or a resource/pipeline
	// creation failure during setup.
	ErrDeviceInit = errors.New("vpt: device initialization failed")

	// ErrDeviceLost means the device failed after setup (submit, fence
	// wait, or readback).
	ErrDeviceLost = errors.New("vpt: device lost")

	// ErrOutOfMemory means a device allocation failed.
	ErrOutOfMemory = errors.New("vpt: device out of memory")
)

// wrapf attaches context to an error kind.
func wrapf(kind error, format string, args ...any) error {
	return fmt.Errorf("%w: %s", kind, fmt.Sprintf(format, args...))
}

// Wrapf attaches context to an error kind, preserving it for errors.Is.
func Wrapf(kind error, format string, args ...any) error {
	return wrapf(kind, format, args...)
}

// ExitCode maps an error to the process exit code: 0 success, 1 argument or
// config error, 2 input I/O error, 3 output I/O error, 4 device or runtime
// error.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, ErrBadArguments), errors.Is(err, ErrToneConfig):
		return 1
	case errors.Is(err, ErrDimensionMismatch), errors.Is(err, ErrAutoSizeFailed),
		errors.Is(err, ErrTFMalformed), errors.Is(err, ErrRead):
		return 2
	case errors.Is(err, ErrWrite):
		return 3
	case errors.Is(err, ErrDeviceInit), errors.Is(err, ErrDeviceLost), errors.Is(err, ErrOutOfMemory):
		return 4
	default:
		// Anything unwrapped comes from flag parsing.
		return 1
	}
}
