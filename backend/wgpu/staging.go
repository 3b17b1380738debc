package wgpu

import (
	"fmt"
	"time"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/graphics/gpucore"
	"github.com/gogpu/wgpu/hal"
)

const readbackTimeout = 5 * time.Second

// staging is a CPU-readable surface backed by a MapRead buffer. The copy
// target keeps a host mirror so Map never blocks on the GPU; Stage fills
// the mirror synchronously.
type staging struct {
	drv      *Driver
	width    uint32
	height   uint32
	format   gpucore.ColorFormat
	rowPitch uint32

	buf    hal.Buffer
	mirror []byte
	mapped bool
}

// CreateStagingSurface implements gpucore.Driver.
func (d *Driver) CreateStagingSurface(width, height uint32, format gpucore.ColorFormat) (gpucore.DriverStaging, error) {
	rowPitch, total := d.Footprint(width, height, format)
	buf, err := d.dev.CreateBuffer(&hal.BufferDescriptor{
		Label: "graphics_staging",
		Size:  uint64(total),
		Usage: gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("wgpu: create staging buffer: %w", err)
	}
	return &staging{
		drv:      d,
		width:    width,
		height:   height,
		format:   format,
		rowPitch: rowPitch,
		buf:      buf,
		mirror:   make([]byte, total),
	}, nil
}

// CopyToStaging implements gpucore.Driver: it records a texture-to-buffer
// copy, submits it behind a fence and reads the result into the surface's
// host mirror.
func (d *Driver) CopyToStaging(dst gpucore.DriverStaging, src gpucore.DriverTexture, level uint32) error {
	s, ok := dst.(*staging)
	if !ok {
		return fmt.Errorf("wgpu: staging surface from another driver")
	}
	t, ok := src.(*Texture)
	if !ok {
		return fmt.Errorf("wgpu: texture from another driver")
	}

	encoder, err := d.dev.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: "graphics_readback"})
	if err != nil {
		return fmt.Errorf("wgpu: create encoder: %w", err)
	}
	encoder.BeginEncoding("readback")

	oldUsage := gputypes.TextureUsageCopyDst
	if t.desc.Flags&(gpucore.RenderTarget|gpucore.GDICompatible) != 0 {
		oldUsage = gputypes.TextureUsageRenderAttachment
	}
	encoder.TransitionTextures([]hal.TextureBarrier{{
		Texture: t.tex,
		Usage: hal.TextureUsageTransition{
			OldUsage: oldUsage,
			NewUsage: gputypes.TextureUsageCopySrc,
		},
	}})

	w, h := gpucore.LevelDims(t.desc.Width, t.desc.Height, level)
	rows := gpucore.TightRowCount(t.desc.Format, h)
	encoder.CopyTextureToBuffer(t.tex, s.buf, []hal.BufferTextureCopy{{
		BufferLayout: hal.ImageDataLayout{
			Offset:       0,
			BytesPerRow:  s.rowPitch,
			RowsPerImage: rows,
		},
		TextureBase: hal.ImageCopyTexture{Texture: t.tex, MipLevel: level},
		Size:        hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
	}})

	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return fmt.Errorf("wgpu: end encoding: %w", err)
	}
	defer d.dev.FreeCommandBuffer(cmdBuf)

	fence, err := d.dev.CreateFence()
	if err != nil {
		return fmt.Errorf("wgpu: create fence: %w", err)
	}
	defer d.dev.DestroyFence(fence)

	if err := d.queue.Submit([]hal.CommandBuffer{cmdBuf}, fence, 1); err != nil {
		return fmt.Errorf("wgpu: submit readback: %w", err)
	}
	done, err := d.dev.Wait(fence, 1, readbackTimeout)
	if err != nil {
		return fmt.Errorf("wgpu: wait for readback: %w", err)
	}
	if !done {
		return fmt.Errorf("wgpu: readback timed out")
	}
	if err := d.queue.ReadBuffer(s.buf, 0, s.mirror); err != nil {
		return fmt.Errorf("wgpu: read staging buffer: %w", err)
	}
	return nil
}

// RowPitch implements gpucore.DriverStaging.
func (s *staging) RowPitch() uint32 { return s.rowPitch }

// Map implements gpucore.DriverStaging.
func (s *staging) Map() ([]byte, uint32, error) {
	if s.mapped {
		return nil, 0, fmt.Errorf("wgpu: staging surface already mapped")
	}
	s.mapped = true
	return s.mirror, s.rowPitch, nil
}

// Unmap implements gpucore.DriverStaging.
func (s *staging) Unmap() {
	s.mapped = false
}

// Destroy implements gpucore.DriverStaging.
func (s *staging) Destroy() {
	if s.buf != nil {
		s.drv.dev.DestroyBuffer(s.buf)
		s.buf = nil
	}
	s.mirror = nil
}
