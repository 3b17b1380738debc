// Package backend groups the driver implementations of the graphics
// resource layer.
//
// Each subpackage implements gpucore.Driver and registers itself with the
// driver registry on import:
//
//	import _ "github.com/gogpu/graphics/backend/soft"
//
// # Driver Selection
//
// Drivers are selected by name through graphics.DeviceOptions:
//
//	d, err := graphics.NewDevice(graphics.DeviceOptions{Driver: "wgpu"})
//
// # Available Drivers
//
// - "soft": in-memory driver with simulated reflection (always available)
// - "wgpu": GPU driver over gogpu/wgpu hal, requires a device provider
package backend
