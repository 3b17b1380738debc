package graphics

import (
	"fmt"
	"sync"

	"github.com/gogpu/graphics/gpucore"
)

// StagingSurface is a CPU readable copy destination. Its row pitch comes
// from the driver's placement query and is stable for the surface's
// lifetime; callers must never derive it from per pixel math.
type StagingSurface struct {
	mu        sync.Mutex
	device    *Device
	width     uint32
	height    uint32
	format    gpucore.ColorFormat
	rowPitch  uint32
	drv       gpucore.DriverStaging
	mapped    bool
	destroyed bool
}

// NewStagingSurface creates a staging surface for readbacks of the given
// format.
func NewStagingSurface(d *Device, width, height uint32, format gpucore.ColorFormat) (*StagingSurface, error) {
	if width == 0 || height == 0 {
		return nil, fmt.Errorf("%w: zero staging dimension", ErrBadParameter)
	}
	if format == gpucore.FormatUnknown {
		return nil, fmt.Errorf("%w: unknown staging format", ErrBadParameter)
	}
	return newStagingSurface(d, width, height, format, width, height, format)
}

// NewStagingSurfaceNV12 creates a staging surface laid out for an NV12
// readback: a full resolution luma plane followed by a half height
// interleaved chroma plane at the same pitch. Format reports FormatUnknown
// for planar surfaces.
func NewStagingSurfaceNV12(d *Device, width, height uint32) (*StagingSurface, error) {
	if width == 0 || height == 0 || width%2 != 0 || height%2 != 0 {
		return nil, fmt.Errorf("%w: NV12 staging needs even nonzero dimensions", ErrBadParameter)
	}
	return newStagingSurface(d, width, height, gpucore.FormatUnknown, width, height*3/2, gpucore.FormatR8)
}

// NewStagingSurfaceP010 creates a staging surface laid out for a P010
// readback. Format reports FormatUnknown for planar surfaces.
func NewStagingSurfaceP010(d *Device, width, height uint32) (*StagingSurface, error) {
	if width == 0 || height == 0 || width%2 != 0 || height%2 != 0 {
		return nil, fmt.Errorf("%w: P010 staging needs even nonzero dimensions", ErrBadParameter)
	}
	return newStagingSurface(d, width, height, gpucore.FormatUnknown, width, height*3/2, gpucore.FormatR16)
}

func newStagingSurface(d *Device, width, height uint32, format gpucore.ColorFormat, bufW, bufH uint32, bufFormat gpucore.ColorFormat) (*StagingSurface, error) {
	d.mu.Lock()
	if d.destroyed {
		d.mu.Unlock()
		return nil, ErrDeviceDestroyed
	}
	drv := d.driver
	d.mu.Unlock()

	rowPitch, _ := drv.Footprint(bufW, bufH, bufFormat)
	ds, err := drv.CreateStagingSurface(bufW, bufH, bufFormat)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrResourceCreation, err)
	}
	if dp := ds.RowPitch(); dp != rowPitch {
		// The allocated surface is authoritative.
		rowPitch = dp
	}
	return &StagingSurface{
		device: d, width: width, height: height, format: format,
		rowPitch: rowPitch, drv: ds,
	}, nil
}

// Width returns the surface width in pixels.
func (s *StagingSurface) Width() uint32 { return s.width }

// Height returns the surface height in pixels.
func (s *StagingSurface) Height() uint32 { return s.height }

// Format returns the surface format; planar surfaces report FormatUnknown.
func (s *StagingSurface) Format() gpucore.ColorFormat { return s.format }

// RowPitch returns the padded bytes per row of the mapped data.
func (s *StagingSurface) RowPitch() uint32 { return s.rowPitch }

// Stage copies one mip level of a texture into the surface on the copy
// queue and waits for completion.
func (s *StagingSurface) Stage(t *Texture, level uint32) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.destroyed {
		return fmt.Errorf("%w: staging surface destroyed", ErrBadParameter)
	}
	dt := t.driverTexture()
	if dt == nil {
		return ErrTextureDestroyed
	}
	return s.device.Driver().CopyToStaging(s.drv, dt, level)
}

// Map exposes the staged bytes until Unmap. The data is read only; rows are
// RowPitch bytes apart.
func (s *StagingSurface) Map() (data []byte, rowPitch uint32, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.destroyed {
		return nil, 0, fmt.Errorf("%w: staging surface destroyed", ErrBadParameter)
	}
	if s.mapped {
		return nil, 0, fmt.Errorf("%w: staging surface already mapped", ErrBadParameter)
	}
	data, rowPitch, err = s.drv.Map()
	if err != nil {
		return nil, 0, err
	}
	s.mapped = true
	return data, rowPitch, nil
}

// Unmap invalidates the slice returned by Map.
func (s *StagingSurface) Unmap() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.mapped {
		return
	}
	s.drv.Unmap()
	s.mapped = false
}

// Destroy releases the surface. Idempotent.
func (s *StagingSurface) Destroy() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.destroyed {
		return
	}
	s.destroyed = true
	if s.mapped {
		s.drv.Unmap()
		s.mapped = false
	}
	s.drv.Destroy()
}
