package render

import (
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/vpt"
)

// workgroupSize is the compute workgroup edge; dispatches cover the output
// with ceil(width/8) x ceil(height/8) groups.
const workgroupSize = 8

// Uniform struct sizes, matching the WGSL layouts.
const (
	cameraUniformSize = 80 // mat4x4<f32> + vec2<u32> + vec2<f32>
	passUniformSize   = 32 // seed, extinction, anisotropy, max_bounces, steps + padding
	toneUniformSize   = 32 // resolution + five tone knobs + padding
)

// pipelineSet holds the three compute pipelines and their layouts.
type pipelineSet struct {
	device hal.Device

	resetModule   hal.ShaderModule
	advanceModule hal.ShaderModule
	toneModule    hal.ShaderModule

	resetBindLayout   hal.BindGroupLayout
	advanceBindLayout hal.BindGroupLayout
	toneBindLayout    hal.BindGroupLayout

	resetPipeLayout   hal.PipelineLayout
	advancePipeLayout hal.PipelineLayout
	tonePipeLayout    hal.PipelineLayout

	reset   hal.ComputePipeline
	advance hal.ComputePipeline
	tone    hal.ComputePipeline
}

// newPipelineSet compiles the kernels and builds the pipelines.
func newPipelineSet(device hal.Device) (*pipelineSet, error) {
	p := &pipelineSet{device: device}
	if err := p.init(); err != nil {
		p.Destroy()
		return nil, err
	}
	return p, nil
}

func (p *pipelineSet) init() error {
	var err error
	if p.resetModule, err = p.createModule("reset", resetShaderWGSL); err != nil {
		return err
	}
	if p.advanceModule, err = p.createModule("advance", advanceShaderWGSL); err != nil {
		return err
	}
	if p.toneModule, err = p.createModule("tonemap", tonemapShaderWGSL); err != nil {
		return err
	}
	if err = p.createLayouts(); err != nil {
		return err
	}
	return p.createPipelines()
}

func (p *pipelineSet) createModule(label, src string) (hal.ShaderModule, error) {
	words, err := compileWGSL(label, src)
	if err != nil {
		return nil, err
	}
	module, err := p.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  label,
		Source: hal.ShaderSource{SPIRV: words},
	})
	if err != nil {
		return nil, vpt.Wrapf(vpt.ErrDeviceInit, "create %s shader module: %v", label, err)
	}
	return module, nil
}

func (p *pipelineSet) createLayouts() error {
	photonAndUniforms := []gputypes.BindGroupLayoutEntry{
		{Binding: 0, Visibility: gputypes.ShaderStageCompute,
			Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeStorage}},
		{Binding: 1, Visibility: gputypes.ShaderStageCompute,
			Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform, MinBindingSize: cameraUniformSize}},
		{Binding: 2, Visibility: gputypes.ShaderStageCompute,
			Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform, MinBindingSize: passUniformSize}},
	}

	resetLayout, err := p.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label:   "reset_bind_layout",
		Entries: photonAndUniforms,
	})
	if err != nil {
		return vpt.Wrapf(vpt.ErrDeviceInit, "create reset bind group layout: %v", err)
	}
	p.resetBindLayout = resetLayout

	advanceEntries := append([]gputypes.BindGroupLayoutEntry{}, photonAndUniforms...)
	advanceEntries = append(advanceEntries,
		gputypes.BindGroupLayoutEntry{Binding: 3, Visibility: gputypes.ShaderStageCompute,
			Texture: &gputypes.TextureBindingLayout{
				SampleType:    gputypes.TextureSampleTypeFloat,
				ViewDimension: gputypes.TextureViewDimension3D,
			}},
		gputypes.BindGroupLayoutEntry{Binding: 4, Visibility: gputypes.ShaderStageCompute,
			Sampler: &gputypes.SamplerBindingLayout{Type: gputypes.SamplerBindingTypeFiltering}},
		gputypes.BindGroupLayoutEntry{Binding: 5, Visibility: gputypes.ShaderStageCompute,
			Texture: &gputypes.TextureBindingLayout{
				SampleType:    gputypes.TextureSampleTypeFloat,
				ViewDimension: gputypes.TextureViewDimension2D,
			}},
		gputypes.BindGroupLayoutEntry{Binding: 6, Visibility: gputypes.ShaderStageCompute,
			Sampler: &gputypes.SamplerBindingLayout{Type: gputypes.SamplerBindingTypeFiltering}},
	)
	advanceLayout, err := p.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label:   "advance_bind_layout",
		Entries: advanceEntries,
	})
	if err != nil {
		return vpt.Wrapf(vpt.ErrDeviceInit, "create advance bind group layout: %v", err)
	}
	p.advanceBindLayout = advanceLayout

	toneLayout, err := p.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "tonemap_bind_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			{Binding: 0, Visibility: gputypes.ShaderStageCompute,
				Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeReadOnlyStorage}},
			{Binding: 1, Visibility: gputypes.ShaderStageCompute,
				Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform, MinBindingSize: toneUniformSize}},
			{Binding: 2, Visibility: gputypes.ShaderStageCompute,
				Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeStorage}},
		},
	})
	if err != nil {
		return vpt.Wrapf(vpt.ErrDeviceInit, "create tonemap bind group layout: %v", err)
	}
	p.toneBindLayout = toneLayout
	return nil
}

func (p *pipelineSet) createPipelines() error {
	specs := []struct {
		label      string
		module     hal.ShaderModule
		bindLayout hal.BindGroupLayout
		pipeLayout *hal.PipelineLayout
		pipeline   *hal.ComputePipeline
	}{
		{"reset", p.resetModule, p.resetBindLayout, &p.resetPipeLayout, &p.reset},
		{"advance", p.advanceModule, p.advanceBindLayout, &p.advancePipeLayout, &p.advance},
		{"tonemap", p.toneModule, p.toneBindLayout, &p.tonePipeLayout, &p.tone},
	}
	for _, spec := range specs {
		layout, err := p.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
			Label:            spec.label + "_pipe_layout",
			BindGroupLayouts: []hal.BindGroupLayout{spec.bindLayout},
		})
		if err != nil {
			return vpt.Wrapf(vpt.ErrDeviceInit, "create %s pipeline layout: %v", spec.label, err)
		}
		*spec.pipeLayout = layout

		pipeline, err := p.device.CreateComputePipeline(&hal.ComputePipelineDescriptor{
			Label:  spec.label + "_pipeline",
			Layout: layout,
			Compute: hal.ComputeState{
				Module:     spec.module,
				EntryPoint: "main",
			},
		})
		if err != nil {
			return vpt.Wrapf(vpt.ErrDeviceInit, "create %s pipeline: %v", spec.label, err)
		}
		*spec.pipeline = pipeline
	}
	return nil
}

// Destroy releases every pipeline resource.
func (p *pipelineSet) Destroy() {
	if p.device == nil {
		return
	}
	for _, pl := range []hal.ComputePipeline{p.reset, p.advance, p.tone} {
		if pl != nil {
			p.device.DestroyComputePipeline(pl)
		}
	}
	for _, l := range []hal.PipelineLayout{p.resetPipeLayout, p.advancePipeLayout, p.tonePipeLayout} {
		if l != nil {
			p.device.DestroyPipelineLayout(l)
		}
	}
	for _, l := range []hal.BindGroupLayout{p.resetBindLayout, p.advanceBindLayout, p.toneBindLayout} {
		if l != nil {
			p.device.DestroyBindGroupLayout(l)
		}
	}
	for _, m := range []hal.ShaderModule{p.resetModule, p.advanceModule, p.toneModule} {
		if m != nil {
			p.device.DestroyShaderModule(m)
		}
	}
}
