package render

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	// Import the Vulkan backend so it registers via init().
	_ "github.com/gogpu/wgpu/hal/vulkan"

	"github.com/gogpu/vpt"
)

// AdapterInfo describes one GPU adapter for device listing.
type AdapterInfo struct {
	Name       string
	DeviceType string
	Driver     string
}

// gpuContext owns the HAL instance, device, and queue for one engine.
type gpuContext struct {
	instance hal.Instance
	device   hal.Device
	queue    hal.Queue
	name     string
}

// newGPUContext opens the preferred adapter: a discrete or integrated GPU
// when present, otherwise whatever the backend exposes.
func newGPUContext() (*gpuContext, error) {
	backend, ok := hal.GetBackend(gputypes.BackendVulkan)
	if !ok {
		return nil, vpt.Wrapf(vpt.ErrDeviceInit, "vulkan backend not available")
	}
	instance, err := backend.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return nil, vpt.Wrapf(vpt.ErrDeviceInit, "create instance: %v", err)
	}
	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		return nil, vpt.Wrapf(vpt.ErrDeviceInit, "no GPU adapters found")
	}
	var selected *hal.ExposedAdapter
	for i := range adapters {
		if adapters[i].Info.DeviceType == gputypes.DeviceTypeDiscreteGPU ||
			adapters[i].Info.DeviceType == gputypes.DeviceTypeIntegratedGPU {
			selected = &adapters[i]
			break
		}
	}
	if selected == nil {
		selected = &adapters[0]
	}

	openDev, err := selected.Adapter.Open(gputypes.Features(0), gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		return nil, vpt.Wrapf(vpt.ErrDeviceInit, "open device: %v", err)
	}

	vpt.Logger().Info("render: GPU adapter selected", "name", selected.Info.Name)
	return &gpuContext{
		instance: instance,
		device:   openDev.Device,
		queue:    openDev.Queue,
		name:     selected.Info.Name,
	}, nil
}

// Close releases the device and instance.
func (g *gpuContext) Close() {
	if g.device != nil {
		g.device.Destroy()
		g.device = nil
	}
	if g.instance != nil {
		g.instance.Destroy()
		g.instance = nil
	}
	g.queue = nil
}

// ListAdapters enumerates the adapters visible to the HAL backend.
func ListAdapters() ([]AdapterInfo, error) {
	backend, ok := hal.GetBackend(gputypes.BackendVulkan)
	if !ok {
		return nil, vpt.Wrapf(vpt.ErrDeviceInit, "vulkan backend not available")
	}
	instance, err := backend.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return nil, vpt.Wrapf(vpt.ErrDeviceInit, "create instance: %v", err)
	}
	defer instance.Destroy()

	adapters := instance.EnumerateAdapters(nil)
	infos := make([]AdapterInfo, 0, len(adapters))
	for i := range adapters {
		infos = append(infos, AdapterInfo{
			Name:       adapters[i].Info.Name,
			DeviceType: fmt.Sprintf("%v", adapters[i].Info.DeviceType),
			Driver:     adapters[i].Info.Driver,
		})
	}
	return infos, nil
}
