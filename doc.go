// Package graphics is a cross-backend GPU resource core: devices,
// textures, staging surfaces, shaders, and linked programs for real time
// capture and compositing pipelines.
//
// The package is backend agnostic. Concrete backends register themselves
// as drivers (see gpucore.RegisterDriver); backend/soft provides a pure Go
// software driver used by tests and as a CPU fallback, backend/wgpu runs
// on a GPU through the gogpu stack.
//
// # Devices and the graphics context
//
// A Device owns one driver instance and every resource created through it.
// Resource creation and draw-path operations run inside the graphics
// context, a scoped lock acquired with EnterContext and released with
// LeaveContext:
//
//	dev, err := graphics.NewDevice(graphics.DeviceOptions{})
//	if err != nil { ... }
//	defer dev.Destroy()
//
//	dev.EnterContext()
//	tex, err := graphics.NewTexture2D(dev, 256, 256, gpucore.FormatRGBA, 1, data, 0)
//	dev.LeaveContext()
//
// Construction is all or nothing: a creation error leaves no native
// objects allocated and the device unaffected.
//
// # Device loss
//
// Textures created with initial data keep a CPU backup of every face and
// mip level and register with the device's rebuild registry. After the
// backend reports the device lost, NotifyLoss releases every registered
// resource and Rebuild recreates them on a fresh driver in registration
// order.
//
// # Logging
//
// graphics is silent by default. Call SetLogger with a log/slog logger to
// enable output.
package graphics
