package render

import (
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/vpt"
)

// createBindGroups wires the frame resources to the pipeline layouts: one
// group for the reset pass, one per render iteration (each with its own
// seed uniform), and one for the tone-mapping pass.
func (e *Engine) createBindGroups(res *frameResources) (hal.BindGroup, []hal.BindGroup, hal.BindGroup, error) {
	photonEntry := gputypes.BindGroupEntry{
		Binding: 0,
		Resource: gputypes.BufferBinding{
			Buffer: res.photonBuf.NativeHandle(), Offset: 0, Size: res.photonBufSize,
		},
	}
	cameraEntry := gputypes.BindGroupEntry{
		Binding: 1,
		Resource: gputypes.BufferBinding{
			Buffer: res.cameraBuf.NativeHandle(), Offset: 0, Size: cameraUniformSize,
		},
	}
	passEntry := func(i int) gputypes.BindGroupEntry {
		return gputypes.BindGroupEntry{
			Binding: 2,
			Resource: gputypes.BufferBinding{
				Buffer: res.passBufs[i].NativeHandle(), Offset: 0, Size: passUniformSize,
			},
		}
	}
	textureEntries := []gputypes.BindGroupEntry{
		{Binding: 3, Resource: gputypes.TextureViewBinding{TextureView: res.volumeView.NativeHandle()}},
		{Binding: 4, Resource: gputypes.SamplerBinding{Sampler: res.volumeSamp.NativeHandle()}},
		{Binding: 5, Resource: gputypes.TextureViewBinding{TextureView: res.tfView.NativeHandle()}},
		{Binding: 6, Resource: gputypes.SamplerBinding{Sampler: res.tfSamp.NativeHandle()}},
	}

	resetBind, err := e.gpu.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:   "reset_bind",
		Layout:  e.pipelines.resetBindLayout,
		Entries: []gputypes.BindGroupEntry{photonEntry, cameraEntry, passEntry(0)},
	})
	if err != nil {
		return nil, nil, nil, vpt.Wrapf(vpt.ErrDeviceInit, "create reset bind group: %v", err)
	}

	advanceBinds := make([]hal.BindGroup, 0, len(res.passBufs)-1)
	for i := 1; i < len(res.passBufs); i++ {
		entries := []gputypes.BindGroupEntry{photonEntry, cameraEntry, passEntry(i)}
		entries = append(entries, textureEntries...)
		bind, err := e.gpu.device.CreateBindGroup(&hal.BindGroupDescriptor{
			Label:   "advance_bind",
			Layout:  e.pipelines.advanceBindLayout,
			Entries: entries,
		})
		if err != nil {
			e.destroyBindGroups(resetBind, advanceBinds, nil)
			return nil, nil, nil, vpt.Wrapf(vpt.ErrDeviceInit, "create advance bind group %d: %v", i, err)
		}
		advanceBinds = append(advanceBinds, bind)
	}

	toneBind, err := e.gpu.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:  "tonemap_bind",
		Layout: e.pipelines.toneBindLayout,
		Entries: []gputypes.BindGroupEntry{
			photonEntry,
			{Binding: 1, Resource: gputypes.BufferBinding{
				Buffer: res.toneBuf.NativeHandle(), Offset: 0, Size: toneUniformSize,
			}},
			{Binding: 2, Resource: gputypes.BufferBinding{
				Buffer: res.imageBuf.NativeHandle(), Offset: 0, Size: res.imageBufSize,
			}},
		},
	})
	if err != nil {
		e.destroyBindGroups(resetBind, advanceBinds, nil)
		return nil, nil, nil, vpt.Wrapf(vpt.ErrDeviceInit, "create tonemap bind group: %v", err)
	}

	return resetBind, advanceBinds, toneBind, nil
}

func (e *Engine) destroyBindGroups(reset hal.BindGroup, advances []hal.BindGroup, tone hal.BindGroup) {
	if reset != nil {
		e.gpu.device.DestroyBindGroup(reset)
	}
	for _, b := range advances {
		if b != nil {
			e.gpu.device.DestroyBindGroup(b)
		}
	}
	if tone != nil {
		e.gpu.device.DestroyBindGroup(tone)
	}
}
