package volume

import (
	"math"
	"os"

	"github.com/gogpu/vpt"
)

// TransferFunc is an ordered sequence of RGBA8 entries sampled as a 1D
// lookup table indexed by volume density.
type TransferFunc struct {
	Data []byte
}

// DefaultTransferFunc is the built-in black-to-red LUT.
func DefaultTransferFunc() *TransferFunc {
	return &TransferFunc{Data: []byte{0, 0, 0, 255, 255, 0, 0, 255}}
}

// NewTransferFunc wraps raw LUT bytes. The length must be a positive
// multiple of four covering at least two entries.
func NewTransferFunc(data []byte) (*TransferFunc, error) {
	if len(data)%4 != 0 {
		return nil, vpt.Wrapf(vpt.ErrTFMalformed, "%d bytes is not a whole number of RGBA entries", len(data))
	}
	if len(data)/4 < 2 {
		return nil, vpt.Wrapf(vpt.ErrTFMalformed, "%d entries, need at least 2", len(data)/4)
	}
	return &TransferFunc{Data: data}, nil
}

// LoadTransferFunc reads a raw RGBA8 LUT file.
func LoadTransferFunc(path string) (*TransferFunc, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, vpt.Wrapf(vpt.ErrRead, "transfer function %s: %v", path, err)
	}
	return NewTransferFunc(data)
}

// Len returns the number of LUT entries.
func (t *TransferFunc) Len() int {
	return len(t.Data) / 4
}

// Sample linearly interpolates the LUT at the normalized coordinate u,
// returning RGBA components in [0,1]. Texel centers sit at (i+0.5)/len and
// addressing clamps to the edges, matching the GPU sampler.
func (t *TransferFunc) Sample(u float64) [4]float64 {
	n := t.Len()
	pos := u*float64(n) - 0.5
	f := math.Floor(pos)
	frac := pos - f
	i0 := clampIndex(int(f), n)
	i1 := clampIndex(int(f)+1, n)

	var out [4]float64
	for c := 0; c < 4; c++ {
		a := float64(t.Data[i0*4+c]) / 255
		b := float64(t.Data[i1*4+c]) / 255
		out[c] = a + (b-a)*frac
	}
	return out
}
