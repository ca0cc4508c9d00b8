package render

import (
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/vpt"
	"github.com/gogpu/vpt/internal/volume"
)

// frameResources holds every buffer, texture, and sampler of one render.
type frameResources struct {
	device hal.Device

	photonBuf  hal.Buffer
	imageBuf   hal.Buffer
	stagingBuf hal.Buffer
	cameraBuf  hal.Buffer
	toneBuf    hal.Buffer
	passBufs   []hal.Buffer

	volumeTex  hal.Texture
	volumeView hal.TextureView
	volumeSamp hal.Sampler
	tfTex      hal.Texture
	tfView     hal.TextureView
	tfSamp     hal.Sampler

	photonBufSize uint64
	imageBufSize  uint64
}

// newFrameResources allocates and uploads everything the dispatch chain
// binds: the photon G-buffer, the packed output image and its staging
// buffer, the uniforms, and the volume and LUT textures with samplers.
func newFrameResources(device hal.Device, queue hal.Queue, cfg *frameConfig) (*frameResources, error) {
	r := &frameResources{device: device}
	if err := r.init(queue, cfg); err != nil {
		r.Destroy()
		return nil, err
	}
	return r, nil
}

// frameConfig carries the per-run parameters into resource creation.
type frameConfig struct {
	width, height int
	invMVP        [16]float32 // column-major
	tones         toneParams
	extinction    float32
	anisotropy    float32
	maxBounces    uint32
	steps         uint32
	seeds         []float32 // reset seed followed by one per iteration
	linear        bool
	vol           *volume.Volume
	tf            *volume.TransferFunc
}

func (r *frameResources) init(queue hal.Queue, cfg *frameConfig) error {
	pixels := uint64(cfg.width) * uint64(cfg.height)
	r.photonBufSize = pixels * photonStride
	r.imageBufSize = pixels * 4

	var err error
	r.photonBuf, err = r.createBuffer("photons", r.photonBufSize,
		gputypes.BufferUsageStorage|gputypes.BufferUsageCopySrc)
	if err != nil {
		return err
	}
	r.imageBuf, err = r.createBuffer("image", r.imageBufSize,
		gputypes.BufferUsageStorage|gputypes.BufferUsageCopySrc)
	if err != nil {
		return err
	}
	r.stagingBuf, err = r.createBuffer("staging", r.imageBufSize,
		gputypes.BufferUsageMapRead|gputypes.BufferUsageCopyDst)
	if err != nil {
		return err
	}

	r.cameraBuf, err = r.createBuffer("camera_uniforms", cameraUniformSize,
		gputypes.BufferUsageUniform|gputypes.BufferUsageCopyDst)
	if err != nil {
		return err
	}
	queue.WriteBuffer(r.cameraBuf, 0, packCameraUniforms(cfg.invMVP, cfg.width, cfg.height))

	r.toneBuf, err = r.createBuffer("tone_uniforms", toneUniformSize,
		gputypes.BufferUsageUniform|gputypes.BufferUsageCopyDst)
	if err != nil {
		return err
	}
	queue.WriteBuffer(r.toneBuf, 0, packToneUniforms(cfg.tones, cfg.width, cfg.height))

	// One pass-uniform buffer per dispatch: the reset pass and each render
	// iteration get their own seed.
	r.passBufs = make([]hal.Buffer, 0, len(cfg.seeds))
	for _, seed := range cfg.seeds {
		buf, err := r.createBuffer("pass_uniforms", passUniformSize,
			gputypes.BufferUsageUniform|gputypes.BufferUsageCopyDst)
		if err != nil {
			return err
		}
		r.passBufs = append(r.passBufs, buf)
		queue.WriteBuffer(buf, 0, packPassUniforms(seed, cfg))
	}

	if err := r.createVolumeTexture(queue, cfg); err != nil {
		return err
	}
	return r.createTransferTexture(queue, cfg)
}

func (r *frameResources) createBuffer(label string, size uint64, usage gputypes.BufferUsage) (hal.Buffer, error) {
	buf, err := r.device.CreateBuffer(&hal.BufferDescriptor{
		Label: label,
		Size:  size,
		Usage: usage,
	})
	if err != nil {
		return nil, vpt.Wrapf(vpt.ErrOutOfMemory, "create %s buffer (%d bytes): %v", label, size, err)
	}
	return buf, nil
}

func (r *frameResources) createVolumeTexture(queue hal.Queue, cfg *frameConfig) error {
	vol := cfg.vol
	w, h, d := uint32(vol.Width), uint32(vol.Height), uint32(vol.Depth)

	tex, err := r.device.CreateTexture(&hal.TextureDescriptor{
		Label:         "volume",
		Size:          hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: d},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension3D,
		Format:        gputypes.TextureFormatR8Unorm,
		Usage:         gputypes.TextureUsageTextureBinding | gputypes.TextureUsageCopyDst,
	})
	if err != nil {
		return vpt.Wrapf(vpt.ErrOutOfMemory, "create volume texture %dx%dx%d: %v", w, h, d, err)
	}
	r.volumeTex = tex

	view, err := r.device.CreateTextureView(tex, &hal.TextureViewDescriptor{
		Label:         "volume_view",
		Format:        gputypes.TextureFormatR8Unorm,
		Dimension:     gputypes.TextureViewDimension3D,
		Aspect:        gputypes.TextureAspectAll,
		MipLevelCount: 1,
	})
	if err != nil {
		return vpt.Wrapf(vpt.ErrDeviceInit, "create volume texture view: %v", err)
	}
	r.volumeView = view

	queue.WriteTexture(
		&hal.ImageCopyTexture{Texture: tex, MipLevel: 0},
		vol.Data,
		&hal.ImageDataLayout{Offset: 0, BytesPerRow: w, RowsPerImage: h},
		&hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: d},
	)

	r.volumeSamp, err = r.createSampler("volume_sampler", cfg.linear)
	return err
}

func (r *frameResources) createTransferTexture(queue hal.Queue, cfg *frameConfig) error {
	tf := cfg.tf
	n := uint32(tf.Len())

	tex, err := r.device.CreateTexture(&hal.TextureDescriptor{
		Label:         "transfer_function",
		Size:          hal.Extent3D{Width: n, Height: 1, DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        gputypes.TextureFormatRGBA8Unorm,
		Usage:         gputypes.TextureUsageTextureBinding | gputypes.TextureUsageCopyDst,
	})
	if err != nil {
		return vpt.Wrapf(vpt.ErrOutOfMemory, "create transfer-function texture: %v", err)
	}
	r.tfTex = tex

	view, err := r.device.CreateTextureView(tex, &hal.TextureViewDescriptor{
		Label:         "transfer_function_view",
		Format:        gputypes.TextureFormatRGBA8Unorm,
		Dimension:     gputypes.TextureViewDimension2D,
		Aspect:        gputypes.TextureAspectAll,
		MipLevelCount: 1,
	})
	if err != nil {
		return vpt.Wrapf(vpt.ErrDeviceInit, "create transfer-function texture view: %v", err)
	}
	r.tfView = view

	queue.WriteTexture(
		&hal.ImageCopyTexture{Texture: tex, MipLevel: 0},
		tf.Data,
		&hal.ImageDataLayout{Offset: 0, BytesPerRow: n * 4, RowsPerImage: 1},
		&hal.Extent3D{Width: n, Height: 1, DepthOrArrayLayers: 1},
	)

	// The LUT is always interpolated, regardless of the volume filter.
	r.tfSamp, err = r.createSampler("transfer_function_sampler", true)
	return err
}

func (r *frameResources) createSampler(label string, linear bool) (hal.Sampler, error) {
	filter := gputypes.FilterModeNearest
	if linear {
		filter = gputypes.FilterModeLinear
	}
	samp, err := r.device.CreateSampler(&hal.SamplerDescriptor{
		Label:        label,
		AddressModeU: gputypes.AddressModeClampToEdge,
		AddressModeV: gputypes.AddressModeClampToEdge,
		AddressModeW: gputypes.AddressModeClampToEdge,
		MagFilter:    filter,
		MinFilter:    filter,
		MipmapFilter: gputypes.FilterModeNearest,
	})
	if err != nil {
		return nil, vpt.Wrapf(vpt.ErrDeviceInit, "create %s: %v", label, err)
	}
	return samp, nil
}

// Destroy releases every frame resource.
func (r *frameResources) Destroy() {
	if r.device == nil {
		return
	}
	if r.volumeSamp != nil {
		r.device.DestroySampler(r.volumeSamp)
	}
	if r.tfSamp != nil {
		r.device.DestroySampler(r.tfSamp)
	}
	if r.volumeView != nil {
		r.device.DestroyTextureView(r.volumeView)
	}
	if r.tfView != nil {
		r.device.DestroyTextureView(r.tfView)
	}
	if r.volumeTex != nil {
		r.device.DestroyTexture(r.volumeTex)
	}
	if r.tfTex != nil {
		r.device.DestroyTexture(r.tfTex)
	}
	for _, buf := range r.passBufs {
		if buf != nil {
			r.device.DestroyBuffer(buf)
		}
	}
	for _, buf := range []hal.Buffer{r.photonBuf, r.imageBuf, r.stagingBuf, r.cameraBuf, r.toneBuf} {
		if buf != nil {
			r.device.DestroyBuffer(buf)
		}
	}
}

// packCameraUniforms serializes the CameraUniforms WGSL struct.
func packCameraUniforms(invMVP [16]float32, width, height int) []byte {
	buf := make([]byte, cameraUniformSize)
	for i, v := range invMVP {
		putFloat32(buf, i*4, v)
	}
	putUint32(buf, 64, uint32(width))
	putUint32(buf, 68, uint32(height))
	putFloat32(buf, 72, 1/float32(width))
	putFloat32(buf, 76, 1/float32(height))
	return buf
}

// packPassUniforms serializes the PassUniforms WGSL struct.
func packPassUniforms(seed float32, cfg *frameConfig) []byte {
	buf := make([]byte, passUniformSize)
	putFloat32(buf, 0, seed)
	putFloat32(buf, 4, cfg.extinction)
	putFloat32(buf, 8, cfg.anisotropy)
	putUint32(buf, 12, cfg.maxBounces)
	putUint32(buf, 16, cfg.steps)
	return buf
}

// packToneUniforms serializes the ToneUniforms WGSL struct.
func packToneUniforms(t toneParams, width, height int) []byte {
	buf := make([]byte, toneUniformSize)
	putUint32(buf, 0, uint32(width))
	putUint32(buf, 4, uint32(height))
	putFloat32(buf, 8, t.low)
	putFloat32(buf, 12, t.mid)
	putFloat32(buf, 16, t.high)
	putFloat32(buf, 20, t.saturation)
	putFloat32(buf, 24, t.gamma)
	return buf
}
