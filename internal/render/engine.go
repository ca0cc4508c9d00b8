// Package render implements the volumetric path-tracing engine: photon
// reset, progressive delta-tracking render passes, and tone mapping, as
// GPU compute dispatches with a host fallback running the same state
// machine.
package render

import (
	"math/rand"
	"time"

	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/vpt"
	"github.com/gogpu/vpt/internal/geom"
	"github.com/gogpu/vpt/internal/volume"
)

// fenceTimeout bounds the wait for the dispatch chain; a device that does
// not signal within it is treated as lost.
const fenceTimeout = 120 * time.Second

// Engine owns the render configuration and, for GPU runs, the device.
type Engine struct {
	opts   vpt.Options
	vol    *volume.Volume
	tf     *volume.TransferFunc
	invMVP geom.Matrix4

	gpu       *gpuContext
	pipelines *pipelineSet
	seedSrc   *rand.Rand
}

// New builds an engine for the validated options and loaded inputs.
// Unless ForceCPU is set, a failed device bring-up is fatal.
func New(opts vpt.Options, vol *volume.Volume, tf *volume.TransferFunc) (*Engine, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	e := &Engine{opts: opts, vol: vol, tf: tf}
	e.invMVP = inverseMVP(&opts)

	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	e.seedSrc = rand.New(rand.NewSource(seed))

	if opts.ForceCPU {
		vpt.Logger().Info("render: using CPU renderer")
		return e, nil
	}

	gpu, err := newGPUContext()
	if err != nil {
		return nil, err
	}
	e.gpu = gpu

	pipelines, err := newPipelineSet(gpu.device)
	if err != nil {
		gpu.Close()
		e.gpu = nil
		return nil, err
	}
	e.pipelines = pipelines
	return e, nil
}

// inverseMVP resolves the unprojection matrix: the explicit matrix when
// given, otherwise the camera parameters.
func inverseMVP(opts *vpt.Options) geom.Matrix4 {
	if opts.MVPInverse != nil {
		return geom.FromValues(*opts.MVPInverse)
	}
	cam := geom.Camera{
		Position:    geom.Vec3(opts.CameraPosition[0], opts.CameraPosition[1], opts.CameraPosition[2]),
		FocalLength: opts.FocalLength,
		Aspect:      float64(opts.Width) / float64(opts.Height),
	}
	return cam.InverseMVP()
}

// frameConfig assembles the per-run parameters, drawing one seed for the
// reset pass and one per render iteration from the host stream.
func (e *Engine) frameConfig() *frameConfig {
	seeds := make([]float32, e.opts.Iterations+1)
	for i := range seeds {
		seeds[i] = e.seedSrc.Float32()
	}
	return &frameConfig{
		width:      e.opts.Width,
		height:     e.opts.Height,
		invMVP:     e.invMVP.Float32Columns(),
		tones:      toneParams{
			low:        float32(e.opts.Tones[0]),
			mid:        float32(e.opts.Tones[1]),
			high:       float32(e.opts.Tones[2]),
			saturation: float32(e.opts.Saturation),
			gamma:      float32(e.opts.Gamma),
		},
		extinction: float32(e.opts.Extinction),
		anisotropy: float32(e.opts.Anisotropy),
		maxBounces: uint32(e.opts.MaxBounces),
		steps:      uint32(e.opts.Steps),
		seeds:      seeds,
		linear:     e.opts.Linear,
		vol:        e.vol,
		tf:         e.tf,
	}
}

// Render produces the tone-mapped image as RGBA pixel data, rows top to
// bottom.
func (e *Engine) Render() ([]byte, error) {
	start := time.Now()
	cfg := e.frameConfig()

	var (
		image []byte
		err   error
	)
	if e.gpu != nil {
		image, err = e.renderGPU(cfg)
	} else {
		image = e.renderCPU(cfg)
	}
	if err != nil {
		return nil, err
	}

	vpt.Logger().Info("render: finished",
		"resolution", e.opts.Width*e.opts.Height,
		"iterations", e.opts.Iterations,
		"duration", time.Since(start))
	return image, nil
}

// renderCPU runs the host implementation of the photon state machine.
func (e *Engine) renderCPU(cfg *frameConfig) []byte {
	r := newCPURenderer(cfg, e.invMVP)
	r.reset(cfg.seeds[0])
	for i := 1; i < len(cfg.seeds); i++ {
		r.advance(cfg.seeds[i])
	}
	return r.tonemap()
}

// renderGPU encodes the full dispatch chain - reset, one advance pass per
// iteration, tone mapping, and the staging copy - into one command
// encoder, submits it once, and blocks on a single fence before readback.
// Pass boundaries order the iterations; the photon buffer is never read
// and written by two dispatches concurrently.
func (e *Engine) renderGPU(cfg *frameConfig) ([]byte, error) {
	res, err := newFrameResources(e.gpu.device, e.gpu.queue, cfg)
	if err != nil {
		return nil, err
	}
	defer res.Destroy()

	resetBind, advanceBinds, toneBind, err := e.createBindGroups(res)
	if err != nil {
		return nil, err
	}
	defer e.destroyBindGroups(resetBind, advanceBinds, toneBind)

	encoder, err := e.gpu.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: "render_encoder"})
	if err != nil {
		return nil, vpt.Wrapf(vpt.ErrDeviceInit, "create command encoder: %v", err)
	}
	if err := encoder.BeginEncoding("render"); err != nil {
		return nil, vpt.Wrapf(vpt.ErrDeviceInit, "begin encoding: %v", err)
	}

	groupsX := (uint32(cfg.width) + workgroupSize - 1) / workgroupSize
	groupsY := (uint32(cfg.height) + workgroupSize - 1) / workgroupSize
	vpt.Logger().Debug("render: dispatch grid", "x", groupsX, "y", groupsY, "iterations", len(advanceBinds))

	resetPass := encoder.BeginComputePass(&hal.ComputePassDescriptor{Label: "reset_pass"})
	resetPass.SetPipeline(e.pipelines.reset)
	resetPass.SetBindGroup(0, resetBind, nil)
	resetPass.Dispatch(groupsX, groupsY, 1)
	resetPass.End()

	for _, bind := range advanceBinds {
		pass := encoder.BeginComputePass(&hal.ComputePassDescriptor{Label: "advance_pass"})
		pass.SetPipeline(e.pipelines.advance)
		pass.SetBindGroup(0, bind, nil)
		pass.Dispatch(groupsX, groupsY, 1)
		pass.End()
	}

	tonePass := encoder.BeginComputePass(&hal.ComputePassDescriptor{Label: "tonemap_pass"})
	tonePass.SetPipeline(e.pipelines.tone)
	tonePass.SetBindGroup(0, toneBind, nil)
	tonePass.Dispatch(groupsX, groupsY, 1)
	tonePass.End()

	encoder.CopyBufferToBuffer(res.imageBuf, res.stagingBuf, []hal.BufferCopy{
		{SrcOffset: 0, DstOffset: 0, Size: res.imageBufSize},
	})

	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return nil, vpt.Wrapf(vpt.ErrDeviceInit, "end encoding: %v", err)
	}
	defer e.gpu.device.FreeCommandBuffer(cmdBuf)

	fence, err := e.gpu.device.CreateFence()
	if err != nil {
		return nil, vpt.Wrapf(vpt.ErrDeviceInit, "create fence: %v", err)
	}
	defer e.gpu.device.DestroyFence(fence)

	if err := e.gpu.queue.Submit([]hal.CommandBuffer{cmdBuf}, fence, 1); err != nil {
		return nil, vpt.Wrapf(vpt.ErrDeviceLost, "submit: %v", err)
	}
	signaled, err := e.gpu.device.Wait(fence, 1, fenceTimeout)
	if err != nil || !signaled {
		return nil, vpt.Wrapf(vpt.ErrDeviceLost, "wait for GPU: signaled=%v err=%v", signaled, err)
	}

	image := make([]byte, res.imageBufSize)
	if err := e.gpu.queue.ReadBuffer(res.stagingBuf, 0, image); err != nil {
		return nil, vpt.Wrapf(vpt.ErrDeviceLost, "readback: %v", err)
	}
	return image, nil
}

// DeviceName reports the selected adapter, or "cpu".
func (e *Engine) DeviceName() string {
	if e.gpu != nil {
		return e.gpu.name
	}
	return "cpu"
}

// Close releases the pipelines and the device.
func (e *Engine) Close() {
	if e.pipelines != nil {
		e.pipelines.Destroy()
		e.pipelines = nil
	}
	if e.gpu != nil {
		e.gpu.Close()
		e.gpu = nil
	}
}
