package soft

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/graphics/gpucore"
)

// DriverName is the registry name of the software driver.
const DriverName = "soft"

// copyPitchAlign is the row alignment of readback placements, matching the
// 256 byte requirement of the hardware backends so pitch handling behaves
// identically everywhere.
const copyPitchAlign = 256

var (
	errClosed       = errors.New("soft: driver closed")
	errNotSoft      = errors.New("soft: foreign native object")
	ErrMutexTimeout = errors.New("soft: keyed mutex wait timed out")
)

func init() {
	gpucore.RegisterDriver(DriverName, func(opts gpucore.DriverOptions) (gpucore.Driver, error) {
		return New(opts), nil
	})
}

// Driver is the software backend.
type Driver struct {
	mu     sync.Mutex
	closed bool
	logger atomic.Pointer[slog.Logger]
}

// New creates a software driver instance.
func New(_ gpucore.DriverOptions) *Driver {
	return &Driver{}
}

// Name implements gpucore.Driver.
func (d *Driver) Name() string { return DriverName }

// SetLogger accepts the logger propagated from the resource layer.
func (d *Driver) SetLogger(l *slog.Logger) {
	d.logger.Store(l)
}

func (d *Driver) log() *slog.Logger {
	if l := d.logger.Load(); l != nil {
		return l
	}
	return slog.New(slog.DiscardHandler)
}

func (d *Driver) checkOpen() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return errClosed
	}
	return nil
}

// Footprint implements gpucore.Driver: rows padded to the copy alignment.
func (d *Driver) Footprint(width, height uint32, format gpucore.ColorFormat) (rowPitch, totalBytes uint32) {
	tight := gpucore.TightRowPitch(format, width)
	rowPitch = (tight + copyPitchAlign - 1) &^ (copyPitchAlign - 1)
	rows := gpucore.TightRowCount(format, height)
	return rowPitch, rowPitch * rows
}

// CreateTexture implements gpucore.Driver.
func (d *Driver) CreateTexture(desc *gpucore.TextureDesc, levelData [][]byte) (gpucore.DriverTexture, error) {
	if err := d.checkOpen(); err != nil {
		return nil, err
	}
	if desc.Format.ResourceFormat() == gputypes.TextureFormatUndefined {
		return nil, fmt.Errorf("soft: format %s has no native mapping", desc.Format)
	}
	t, err := newTexture(d, desc, levelData)
	if err != nil {
		return nil, err
	}
	if desc.Flags.Shared() {
		t.handle = broker.export(t)
	}
	return t, nil
}

// OpenSharedTexture implements gpucore.Driver. The in-process broker keeps
// NT and KM handles in one namespace, so ntHandle carries no extra
// information here.
func (d *Driver) OpenSharedTexture(handle gpucore.SharedHandle, _ bool) (gpucore.DriverTexture, *gpucore.TextureDesc, error) {
	if err := d.checkOpen(); err != nil {
		return nil, nil, err
	}
	return broker.open(d, handle)
}

// WrapTexture implements gpucore.Driver. The native object must be a
// texture created by a soft driver.
func (d *Driver) WrapTexture(native any, desc *gpucore.TextureDesc) (gpucore.DriverTexture, error) {
	if err := d.checkOpen(); err != nil {
		return nil, err
	}
	src, ok := native.(*Texture)
	if !ok {
		return nil, errNotSoft
	}
	return src.wrap(desc), nil
}

// WrapChromaPlane implements gpucore.Driver.
func (d *Driver) WrapChromaPlane(src gpucore.DriverTexture, desc *gpucore.TextureDesc) (gpucore.DriverTexture, error) {
	if err := d.checkOpen(); err != nil {
		return nil, err
	}
	st, ok := src.(*Texture)
	if !ok {
		return nil, errNotSoft
	}
	return st.chromaView(desc)
}

// CreateStagingSurface implements gpucore.Driver.
func (d *Driver) CreateStagingSurface(width, height uint32, format gpucore.ColorFormat) (gpucore.DriverStaging, error) {
	if err := d.checkOpen(); err != nil {
		return nil, err
	}
	rowPitch, total := d.Footprint(width, height, format)
	return &staging{
		width: width, height: height, format: format,
		rowPitch: rowPitch, buf: make([]byte, total),
	}, nil
}

// CreateShader implements gpucore.Driver.
func (d *Driver) CreateShader(src *gpucore.ShaderSource) (gpucore.DriverShader, error) {
	if err := d.checkOpen(); err != nil {
		return nil, err
	}
	return compileShader(src)
}

// CreateProgram implements gpucore.Driver.
func (d *Driver) CreateProgram(vs, ps gpucore.DriverShader) (gpucore.DriverProgram, error) {
	if err := d.checkOpen(); err != nil {
		return nil, err
	}
	v, ok1 := vs.(*Shader)
	p, ok2 := ps.(*Shader)
	if !ok1 || !ok2 {
		return nil, errNotSoft
	}
	return linkProgram(v, p)
}

// CreateSampler implements gpucore.Driver.
func (d *Driver) CreateSampler(info *gpucore.SamplerInfo) (gpucore.DriverSampler, error) {
	if err := d.checkOpen(); err != nil {
		return nil, err
	}
	return &sampler{info: *info}, nil
}

// CopyToStaging implements gpucore.Driver: a synchronous row copy from the
// texture level into the padded staging buffer.
func (d *Driver) CopyToStaging(dst gpucore.DriverStaging, src gpucore.DriverTexture, level uint32) error {
	if err := d.checkOpen(); err != nil {
		return err
	}
	s, ok1 := dst.(*staging)
	t, ok2 := src.(*Texture)
	if !ok1 || !ok2 {
		return errNotSoft
	}
	return s.copyFrom(t, level)
}

// Flush implements gpucore.Driver. The software queue is synchronous.
func (d *Driver) Flush() error { return d.checkOpen() }

// Destroy implements gpucore.Driver.
func (d *Driver) Destroy() {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()
}
