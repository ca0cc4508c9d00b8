package render

import (
	"math"

	"github.com/gogpu/vpt/internal/geom"
	"github.com/gogpu/vpt/internal/volume"
)

// cpuRenderer runs the same photon state machine as the WGSL kernels on
// the host: reset, delta-tracking advance with Russian-roulette event
// selection, and the tone curve. It serves machines without a usable
// adapter and gives the tests a way to observe every photon.
type cpuRenderer struct {
	width, height int
	invMVP        geom.Matrix4
	vol           *volume.Volume
	tf            *volume.TransferFunc
	linear        bool
	extinction    float32
	anisotropy    float32
	maxBounces    uint32
	steps         uint32
	tones         toneParams

	photons []Photon
}

func newCPURenderer(cfg *frameConfig, invMVP geom.Matrix4) *cpuRenderer {
	return &cpuRenderer{
		width:      cfg.width,
		height:     cfg.height,
		invMVP:     invMVP,
		vol:        cfg.vol,
		tf:         cfg.tf,
		linear:     cfg.linear,
		extinction: cfg.extinction,
		anisotropy: cfg.anisotropy,
		maxBounces: cfg.maxBounces,
		steps:      cfg.steps,
		tones:      cfg.tones,
		photons:    make([]Photon, cfg.width*cfg.height),
	}
}

// ndc returns the jitter-free NDC center of a pixel.
func (r *cpuRenderer) ndc(x, y int) (float32, float32) {
	nx := (float32(x)+0.5)/float32(r.width)*2 - 1
	ny := (float32(y)+0.5)/float32(r.height)*2 - 1
	return nx, ny
}

// cubeEntry is the slab intersection entry time, clamped to zero.
// Zero direction components yield infinities that the min/max chain
// absorbs, matching IEEE semantics on the GPU.
func cubeEntry(origin, dir [3]float32) float32 {
	tNear := float32(math.Inf(-1))
	for a := 0; a < 3; a++ {
		t0 := (0 - origin[a]) / dir[a]
		t1 := (1 - origin[a]) / dir[a]
		lo := minf(t0, t1)
		if lo > tNear {
			tNear = lo
		}
	}
	if tNear < 0 || math.IsNaN(float64(tNear)) {
		return 0
	}
	return tNear
}

// newRay aims the photon along a fresh jittered camera ray.
func (r *cpuRenderer) newRay(p *Photon, ndcX, ndcY float32, rand *rng) {
	jx, jy := rand.square()
	jitterX := (jx*2 - 1) / float32(r.width)
	jitterY := (jy*2 - 1) / float32(r.height)

	near := geom.Unproject(r.invMVP, float64(ndcX), float64(ndcY), -1)
	far := geom.Unproject(r.invMVP, float64(ndcX+jitterX), float64(ndcY+jitterY), 1)
	d := far.Sub(near).Normalize()

	origin := [3]float32{float32(near.X), float32(near.Y), float32(near.Z)}
	dir := [3]float32{float32(d.X), float32(d.Y), float32(d.Z)}
	tNear := cubeEntry(origin, dir)

	for a := 0; a < 3; a++ {
		p.Position[a] = origin[a] + tNear*dir[a]
		p.Direction[a] = dir[a]
	}
	p.Position[3] = 0
	p.Direction[3] = 0
}

// complete folds a finished path into the running mean and restarts the
// photon, preserving the sample count.
func (r *cpuRenderer) complete(p *Photon, ndcX, ndcY float32, contribution [3]float32, rand *rng) {
	p.Samples++
	for a := 0; a < 3; a++ {
		p.Radiance[a] += (contribution[a] - p.Radiance[a]) / float32(p.Samples)
	}
	r.newRay(p, ndcX, ndcY, rand)
	p.Transmittance = [4]float32{1, 1, 1, 0}
	p.Bounces = 0
}

// reset reinitializes every photon, clearing the accumulators.
func (r *cpuRenderer) reset(seed float32) {
	for y := 0; y < r.height; y++ {
		for x := 0; x < r.width; x++ {
			ndcX, ndcY := r.ndc(x, y)
			rand := seedRNG(ndcX, ndcY, seed)
			p := &r.photons[y*r.width+x]
			*p = Photon{}
			r.newRay(p, ndcX, ndcY, &rand)
			p.Transmittance = [4]float32{1, 1, 1, 0}
		}
	}
}

// sampleDensity reads the volume at a photon position.
func (r *cpuRenderer) sampleDensity(pos [3]float32) float64 {
	x, y, z := float64(pos[0]), float64(pos[1]), float64(pos[2])
	if r.linear {
		return r.vol.SampleLinear(x, y, z)
	}
	return r.vol.SampleNearest(x, y, z)
}

func insideCube(pos [3]float32) bool {
	for a := 0; a < 3; a++ {
		if pos[a] < 0 || pos[a] > 1 {
			return false
		}
	}
	return true
}

// sampleHG draws a scattered direction from the Henyey-Greenstein phase
// function, falling back to an isotropic draw for vanishing anisotropy.
func sampleHG(g float32, dir [3]float32, rand *rng) [3]float32 {
	if g > -1e-5 && g < 1e-5 {
		return rand.sphere()
	}
	u := rand.uniform()
	hg := (1 - g*g) / (1 - g + 2*g*u)
	cosTheta := (1 + g*g - hg*hg) / (2 * g)
	s := rand.sphere()
	lambda := cosTheta - (dir[0]*s[0] + dir[1]*s[1] + dir[2]*s[2])

	out := [3]float32{
		s[0] + lambda*dir[0],
		s[1] + lambda*dir[1],
		s[2] + lambda*dir[2],
	}
	norm := float32(math.Sqrt(float64(out[0]*out[0] + out[1]*out[1] + out[2]*out[2])))
	for a := 0; a < 3; a++ {
		out[a] /= norm
	}
	return out
}

// advance runs `steps` delta-tracking substeps on every photon.
func (r *cpuRenderer) advance(seed float32) {
	for y := 0; y < r.height; y++ {
		for x := 0; x < r.width; x++ {
			ndcX, ndcY := r.ndc(x, y)
			rand := seedRNG(ndcX, ndcY, seed)
			r.advancePhoton(&r.photons[y*r.width+x], ndcX, ndcY, &rand)
		}
	}
}

func (r *cpuRenderer) advancePhoton(p *Photon, ndcX, ndcY float32, rand *rng) {
	for i := uint32(0); i < r.steps; i++ {
		dist := rand.exponential(r.extinction)
		for a := 0; a < 3; a++ {
			p.Position[a] += dist * p.Direction[a]
		}
		pos := [3]float32{p.Position[0], p.Position[1], p.Position[2]}

		if !insideCube(pos) {
			// White environment dome.
			contrib := [3]float32{p.Transmittance[0], p.Transmittance[1], p.Transmittance[2]}
			r.complete(p, ndcX, ndcY, contrib, rand)
			continue
		}

		density := r.sampleDensity(pos)
		c := r.tf.Sample(density)

		pNull := 1 - float32(c[3])
		var pScatter float32
		if p.Bounces < r.maxBounces {
			pScatter = float32(c[3]) * float32(max3(c[0], c[1], c[2]))
		}
		pAbsorb := 1 - pNull - pScatter

		u := rand.uniform()
		switch {
		case u < pAbsorb:
			r.complete(p, ndcX, ndcY, [3]float32{}, rand)
		case u < pAbsorb+pScatter:
			for a := 0; a < 3; a++ {
				p.Transmittance[a] *= float32(c[a])
			}
			dir := sampleHG(r.anisotropy, [3]float32{p.Direction[0], p.Direction[1], p.Direction[2]}, rand)
			p.Direction = [4]float32{dir[0], dir[1], dir[2], 0}
			p.Bounces++
		}
		// Null collision: the position advance is the whole event.
	}
}

// tonemap maps every photon's radiance to RGBA8 output.
func (r *cpuRenderer) tonemap() []byte {
	out := make([]byte, r.width*r.height*4)
	for i := range r.photons {
		c := r.tones.toneMap([3]float32{
			r.photons[i].Radiance[0],
			r.photons[i].Radiance[1],
			r.photons[i].Radiance[2],
		})
		out[i*4+0] = quantize(c[0])
		out[i*4+1] = quantize(c[1])
		out[i*4+2] = quantize(c[2])
		out[i*4+3] = 255
	}
	return out
}

func minf(a, b float32) float32 {
	if a < b {
		return a
	}
	return b
}

func max3(a, b, c float64) float64 {
	m := a
	if b > m {
		m = b
	}
	if c > m {
		m = c
	}
	return m
}
