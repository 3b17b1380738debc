package wgpu

import (
	"errors"
	"fmt"
	"sync"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/graphics/gpucore"
	"github.com/gogpu/wgpu/hal"
)

// DriverName is the registry name of the GPU driver.
const DriverName = "wgpu"

// copyPitchAlignment is the BytesPerRow alignment WebGPU and DX12 require
// for texture to buffer copies.
const copyPitchAlignment = 256

var (
	// ErrNoDevice is returned when the driver is opened through the
	// registry without a host device provider.
	ErrNoDevice = errors.New("wgpu: no device provider set")
	// ErrNotSupported marks surfaces this backend cannot offer: shared
	// texture export, keyed mutexes, and two-plane resources.
	ErrNotSupported = errors.New("wgpu: not supported on this backend")
)

// DeviceProvider is the host handoff protocol: a provider hands out its
// hal device and queue as any-typed values.
type DeviceProvider interface {
	HalDevice() any
	HalQueue() any
}

var (
	providerMu sync.RWMutex
	provider   DeviceProvider
)

// SetDeviceProvider stores the provider the registry factory uses. Hosts
// embedding the graphics stack call this once at startup, before opening a
// device with driver name "wgpu".
func SetDeviceProvider(p DeviceProvider) {
	providerMu.Lock()
	provider = p
	providerMu.Unlock()
}

func init() {
	gpucore.RegisterDriver(DriverName, func(_ gpucore.DriverOptions) (gpucore.Driver, error) {
		providerMu.RLock()
		p := provider
		providerMu.RUnlock()
		if p == nil {
			return nil, ErrNoDevice
		}
		return FromProvider(p)
	})
}

// Driver is the GPU backend running on a host provided hal device.
type Driver struct {
	dev   hal.Device
	queue hal.Queue
}

// FromContextProvider builds a driver from a shared device context, such
// as the one a host window system hands out. The provider must also give
// direct hal access through HalDevice and HalQueue.
func FromContextProvider(p gpucontext.DeviceProvider) (*Driver, error) {
	hp, ok := p.(DeviceProvider)
	if !ok {
		return nil, fmt.Errorf("wgpu: context provider does not expose hal access")
	}
	return FromProvider(hp)
}

// FromProvider builds a driver around a host device provider.
func FromProvider(p DeviceProvider) (*Driver, error) {
	dev, ok := p.HalDevice().(hal.Device)
	if !ok {
		return nil, fmt.Errorf("wgpu: provider device is not a hal.Device")
	}
	q, ok := p.HalQueue().(hal.Queue)
	if !ok {
		return nil, fmt.Errorf("wgpu: provider queue is not a hal.Queue")
	}
	return NewFromHAL(dev, q), nil
}

// NewFromHAL builds a driver around an existing device and queue. The
// caller keeps ownership of both.
func NewFromHAL(dev hal.Device, q hal.Queue) *Driver {
	return &Driver{dev: dev, queue: q}
}

// Name implements gpucore.Driver.
func (d *Driver) Name() string { return DriverName }

// Footprint implements gpucore.Driver with the 256 byte row alignment
// texture to buffer copies require.
func (d *Driver) Footprint(width, height uint32, format gpucore.ColorFormat) (rowPitch, totalBytes uint32) {
	tight := gpucore.TightRowPitch(format, width)
	rowPitch = (tight + copyPitchAlignment - 1) &^ (copyPitchAlignment - 1)
	rows := gpucore.TightRowCount(format, height)
	return rowPitch, rowPitch * rows
}

// OpenSharedTexture implements gpucore.Driver.
func (d *Driver) OpenSharedTexture(gpucore.SharedHandle, bool) (gpucore.DriverTexture, *gpucore.TextureDesc, error) {
	return nil, nil, fmt.Errorf("%w: shared textures", ErrNotSupported)
}

// WrapChromaPlane implements gpucore.Driver.
func (d *Driver) WrapChromaPlane(gpucore.DriverTexture, *gpucore.TextureDesc) (gpucore.DriverTexture, error) {
	return nil, fmt.Errorf("%w: two-plane textures", ErrNotSupported)
}

// CreateSampler implements gpucore.Driver.
func (d *Driver) CreateSampler(info *gpucore.SamplerInfo) (gpucore.DriverSampler, error) {
	return newSampler(d, info)
}

// CreateShader implements gpucore.Driver.
func (d *Driver) CreateShader(src *gpucore.ShaderSource) (gpucore.DriverShader, error) {
	return compileShader(d, src)
}

// CreateProgram implements gpucore.Driver.
func (d *Driver) CreateProgram(vs, ps gpucore.DriverShader) (gpucore.DriverProgram, error) {
	v, ok1 := vs.(*Shader)
	p, ok2 := ps.(*Shader)
	if !ok1 || !ok2 {
		return nil, fmt.Errorf("wgpu: foreign shader object")
	}
	return linkProgram(d, v, p)
}

// Flush implements gpucore.Driver. Work is submitted eagerly; there is
// nothing to flush.
func (d *Driver) Flush() error { return nil }

// Destroy implements gpucore.Driver. The device and queue belong to the
// host and are left alone.
func (d *Driver) Destroy() {
	d.dev = nil
	d.queue = nil
}
