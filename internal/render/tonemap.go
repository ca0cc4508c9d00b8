package render

import "math"

// toneParams are the display-mapping knobs, validated by the engine:
// 0 <= low < mid < high <= 1 and gamma > 0.
type toneParams struct {
	low, mid, high float32
	saturation     float32
	gamma          float32
}

// invSqrt3 is the component of the normalized (1,1,1) luminance axis.
const invSqrt3 = 0.5773502691896258

// toneMap applies keying, saturation, and gamma to one radiance triple.
// Host mirror of tonemap.wgsl, used by the CPU renderer and the tests.
func (t toneParams) toneMap(radiance [3]float32) [3]float32 {
	span := t.high - t.low
	var c [3]float32
	for i := range c {
		c[i] = (radiance[i] - t.low) / span
	}

	// Blend toward the projection onto the gray axis.
	luma := (c[0] + c[1] + c[2]) * invSqrt3 * invSqrt3
	for i := range c {
		c[i] = luma + (c[i]-luma)*t.saturation
	}

	m := (t.mid - t.low) / span
	e := float32(-math.Log2(float64(m)))
	exp := float64(e / t.gamma)
	for i := range c {
		if c[i] < 0 {
			c[i] = 0
		}
		c[i] = float32(math.Pow(float64(c[i]), exp))
	}
	return c
}

// quantize clamps to [0,1] and rounds to an 8-bit channel value.
func quantize(x float32) byte {
	if x < 0 {
		x = 0
	}
	if x > 1 {
		x = 1
	}
	return byte(x*255 + 0.5)
}
