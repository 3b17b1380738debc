package graphics

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gogpu/graphics/gpucore"
)

var (
	devicesMu   sync.RWMutex
	liveDevices = map[*Device]struct{}{}
)

// DeviceOptions configure device creation. The zero value selects the
// default driver with an infinite keyed mutex wait.
type DeviceOptions struct {
	// Driver names a registered driver variant. Empty selects "soft".
	Driver string
	// DriverOptions are passed through to the driver factory.
	DriverOptions gpucore.DriverOptions
	// KeyedMutexTimeout bounds the wait when acquiring a keyed mutex on a
	// shared texture. Zero or negative waits without bound.
	KeyedMutexTimeout time.Duration
}

func (o DeviceOptions) applyDefaults() DeviceOptions {
	if o.Driver == "" {
		o.Driver = "soft"
	}
	return o
}

// Device owns a driver instance and every resource created through it.
//
// All resource creation, parameter updates, and draw-path operations must
// run inside the graphics context: between EnterContext and LeaveContext.
// The context is a plain scoped lock and is not reentrant.
type Device struct {
	ctxMu sync.Mutex

	mu        sync.Mutex
	driver    gpucore.Driver
	destroyed bool

	curVertexShader *Shader
	curPixelShader  *Shader
	curProgram      *Program

	// Live linked programs, and the programs referencing each shader.
	// A program that failed to link never appears here.
	programs       map[*Program]struct{}
	shaderPrograms map[*Shader]map[*Program]struct{}

	rebuild rebuildRegistry

	kmTimeout time.Duration
}

// NewDevice opens a registered driver variant and wraps it in a Device.
func NewDevice(opts DeviceOptions) (*Device, error) {
	opts = opts.applyDefaults()
	drv, err := gpucore.OpenDriver(opts.Driver, opts.DriverOptions)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrResourceCreation, err)
	}
	return newDevice(drv, opts), nil
}

// NewDeviceFromDriver adopts an already initialized driver, for example one
// constructed around a host provided GPU device. The device takes ownership
// and destroys the driver on Destroy.
func NewDeviceFromDriver(drv gpucore.Driver, opts DeviceOptions) *Device {
	return newDevice(drv, opts.applyDefaults())
}

func newDevice(drv gpucore.Driver, opts DeviceOptions) *Device {
	d := &Device{
		driver:         drv,
		programs:       map[*Program]struct{}{},
		shaderPrograms: map[*Shader]map[*Program]struct{}{},
		kmTimeout:      opts.KeyedMutexTimeout,
	}
	devicesMu.Lock()
	liveDevices[d] = struct{}{}
	devicesMu.Unlock()
	propagateLogger(d, Logger())
	Logger().Info("graphics: device opened", slog.String("driver", drv.Name()))
	return d
}

// EnterContext acquires the graphics context for the calling goroutine.
// Every resource and draw-path operation must run between EnterContext and
// LeaveContext. The context is not reentrant.
func (d *Device) EnterContext() {
	d.ctxMu.Lock()
}

// LeaveContext releases the graphics context.
func (d *Device) LeaveContext() {
	d.ctxMu.Unlock()
}

// Driver exposes the underlying driver, mainly for backend specific
// interop.
func (d *Device) Driver() gpucore.Driver {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.driver
}

// keyedMutexTimeoutMS converts the configured timeout to the driver's
// millisecond contract, where zero or less waits forever.
func (d *Device) keyedMutexTimeoutMS() int64 {
	if d.kmTimeout <= 0 {
		return 0
	}
	return d.kmTimeout.Milliseconds()
}

func (d *Device) checkAlive() error {
	if d.destroyed {
		return ErrDeviceDestroyed
	}
	return nil
}

// LoadVertexShader makes vs the current vertex stage. Pass nil to clear.
func (d *Device) LoadVertexShader(vs *Shader) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.checkAlive(); err != nil {
		return err
	}
	if vs != nil && vs.kind != gpucore.VertexShader {
		return fmt.Errorf("%w: not a vertex shader", ErrBadParameter)
	}
	d.curVertexShader = vs
	return nil
}

// LoadPixelShader makes ps the current pixel stage. Pass nil to clear.
func (d *Device) LoadPixelShader(ps *Shader) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.checkAlive(); err != nil {
		return err
	}
	if ps != nil && ps.kind != gpucore.PixelShader {
		return fmt.Errorf("%w: not a pixel shader", ErrBadParameter)
	}
	d.curPixelShader = ps
	return nil
}

// VertexShader returns the current vertex stage, nil when none is loaded.
func (d *Device) VertexShader() *Shader {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.curVertexShader
}

// PixelShader returns the current pixel stage, nil when none is loaded.
func (d *Device) PixelShader() *Shader {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.curPixelShader
}

// CurrentProgram returns the most recently activated program.
func (d *Device) CurrentProgram() *Program {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.curProgram
}

// addProgram inserts a freshly linked program into the live set and into
// the reference map of both its shaders.
func (d *Device) addProgram(p *Program) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.programs[p] = struct{}{}
	for _, s := range [2]*Shader{p.vertexShader, p.pixelShader} {
		refs := d.shaderPrograms[s]
		if refs == nil {
			refs = map[*Program]struct{}{}
			d.shaderPrograms[s] = refs
		}
		refs[p] = struct{}{}
	}
}

// removeProgram takes a program out of the live set and clears it as the
// current program if active.
func (d *Device) removeProgram(p *Program) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.programs, p)
	for _, s := range [2]*Shader{p.vertexShader, p.pixelShader} {
		if refs := d.shaderPrograms[s]; refs != nil {
			delete(refs, p)
			if len(refs) == 0 {
				delete(d.shaderPrograms, s)
			}
		}
	}
	if d.curProgram == p {
		d.curProgram = nil
	}
}

// programsReferencing snapshots the programs using a shader in either
// stage.
func (d *Device) programsReferencing(s *Shader) []*Program {
	d.mu.Lock()
	defer d.mu.Unlock()
	refs := d.shaderPrograms[s]
	out := make([]*Program, 0, len(refs))
	for p := range refs {
		out = append(out, p)
	}
	return out
}

// ProgramCount reports the number of live linked programs.
func (d *Device) ProgramCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.programs)
}

// Flush submits any pending driver work.
func (d *Device) Flush() error {
	d.mu.Lock()
	drv := d.driver
	dead := d.destroyed
	d.mu.Unlock()
	if dead {
		return ErrDeviceDestroyed
	}
	return drv.Flush()
}

// Destroy releases every live program, the driver, and the device itself.
// Destroy is idempotent.
func (d *Device) Destroy() {
	d.mu.Lock()
	if d.destroyed {
		d.mu.Unlock()
		return
	}
	d.destroyed = true
	progs := make([]*Program, 0, len(d.programs))
	for p := range d.programs {
		progs = append(progs, p)
	}
	drv := d.driver
	d.mu.Unlock()

	for _, p := range progs {
		p.destroyLocked()
	}
	drv.Destroy()

	devicesMu.Lock()
	delete(liveDevices, d)
	devicesMu.Unlock()
	Logger().Info("graphics: device destroyed", slog.String("driver", drv.Name()))
}
