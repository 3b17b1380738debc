package wgpu

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/graphics/gpucore"
	"github.com/gogpu/wgpu/hal"
)

// Texture is a GPU texture with its shader and render target views.
type Texture struct {
	drv  *Driver
	desc gpucore.TextureDesc

	tex hal.Texture
	// srv samples through the sRGB-aware view format; srvLinear through
	// the resource format. They alias the same view when the formats are
	// equal.
	srv       hal.TextureView
	srvLinear hal.TextureView
	// rtvs holds one render target view for 2D targets and six per-face
	// views for cubes; rtvsLinear aliases rtvs when the formats agree.
	rtvs       []hal.TextureView
	rtvsLinear []hal.TextureView

	// owned is false for wrapped host textures.
	owned bool
}

// CreateTexture implements gpucore.Driver.
func (d *Driver) CreateTexture(desc *gpucore.TextureDesc, levelData [][]byte) (gpucore.DriverTexture, error) {
	if desc.Flags.Shared() {
		return nil, fmt.Errorf("%w: shared textures", ErrNotSupported)
	}
	if desc.Flags&gpucore.TwoPlane != 0 {
		return nil, fmt.Errorf("%w: two-plane textures", ErrNotSupported)
	}

	resFmt := desc.Format.ResourceFormat()
	viewFmt := desc.Format.ViewFormat()
	var viewFormats []gputypes.TextureFormat
	if viewFmt != resFmt {
		viewFormats = []gputypes.TextureFormat{viewFmt}
	}

	size := hal.Extent3D{Width: desc.Width, Height: desc.Height, DepthOrArrayLayers: 1}
	dimension := gputypes.TextureDimension2D
	switch desc.Kind {
	case gpucore.TextureCube:
		size.DepthOrArrayLayers = 6
	case gpucore.Texture3D:
		dimension = gputypes.TextureDimension3D
		size.DepthOrArrayLayers = desc.Depth
	}

	usage := gputypes.TextureUsageTextureBinding | gputypes.TextureUsageCopyDst | gputypes.TextureUsageCopySrc
	if desc.Flags&(gpucore.RenderTarget|gpucore.GDICompatible) != 0 {
		usage |= gputypes.TextureUsageRenderAttachment
	}

	tex, err := d.dev.CreateTexture(&hal.TextureDescriptor{
		Label:         "graphics_texture",
		Size:          size,
		MipLevelCount: desc.Levels,
		SampleCount:   1,
		Dimension:     dimension,
		Format:        resFmt,
		Usage:         usage,
		ViewFormats:   viewFormats,
	})
	if err != nil {
		return nil, fmt.Errorf("wgpu: create texture: %w", err)
	}

	t := &Texture{drv: d, desc: *desc, tex: tex, owned: true}
	if err := t.initViews(); err != nil {
		t.Destroy()
		return nil, err
	}
	if levelData != nil {
		if err := t.uploadInitial(levelData); err != nil {
			t.Destroy()
			return nil, err
		}
	}
	return t, nil
}

// WrapTexture implements gpucore.Driver: it adopts a host hal.Texture and
// builds views over it without taking ownership.
func (d *Driver) WrapTexture(native any, desc *gpucore.TextureDesc) (gpucore.DriverTexture, error) {
	tex, ok := native.(hal.Texture)
	if !ok {
		return nil, fmt.Errorf("wgpu: native object is not a hal.Texture")
	}
	t := &Texture{drv: d, desc: *desc, tex: tex, owned: false}
	if err := t.initViews(); err != nil {
		t.Destroy()
		return nil, err
	}
	return t, nil
}

// initViews builds the shader view pair and, for render targets, the
// target views. Views over equal formats are aliased, not duplicated.
func (t *Texture) initViews() error {
	d := t.drv
	resFmt := t.desc.Format.ResourceFormat()
	viewFmt := t.desc.Format.ViewFormat()

	srv, err := d.dev.CreateTextureView(t.tex, &hal.TextureViewDescriptor{
		Label:  "graphics_srv",
		Format: viewFmt,
	})
	if err != nil {
		return fmt.Errorf("wgpu: create shader view: %w", err)
	}
	t.srv = srv
	if viewFmt == resFmt {
		t.srvLinear = srv
	} else {
		linear, err := d.dev.CreateTextureView(t.tex, &hal.TextureViewDescriptor{
			Label:  "graphics_srv_linear",
			Format: resFmt,
		})
		if err != nil {
			return fmt.Errorf("wgpu: create linear shader view: %w", err)
		}
		t.srvLinear = linear
	}

	if t.desc.Flags&(gpucore.RenderTarget|gpucore.GDICompatible) == 0 {
		return nil
	}
	faces := t.desc.FaceCount()
	for face := uint32(0); face < faces; face++ {
		rtv, err := d.dev.CreateTextureView(t.tex, &hal.TextureViewDescriptor{
			Label:           "graphics_rtv",
			Format:          viewFmt,
			BaseMipLevel:    0,
			MipLevelCount:   1,
			BaseArrayLayer:  face,
			ArrayLayerCount: 1,
		})
		if err != nil {
			return fmt.Errorf("wgpu: create target view %d: %w", face, err)
		}
		t.rtvs = append(t.rtvs, rtv)
		if viewFmt == resFmt {
			t.rtvsLinear = append(t.rtvsLinear, rtv)
			continue
		}
		linear, err := d.dev.CreateTextureView(t.tex, &hal.TextureViewDescriptor{
			Label:           "graphics_rtv_linear",
			Format:          resFmt,
			BaseMipLevel:    0,
			MipLevelCount:   1,
			BaseArrayLayer:  face,
			ArrayLayerCount: 1,
		})
		if err != nil {
			return fmt.Errorf("wgpu: create linear target view %d: %w", face, err)
		}
		t.rtvsLinear = append(t.rtvsLinear, linear)
	}
	return nil
}

// uploadInitial writes the provided face-major level data. Each level is
// written in one call covering every layer, so the per-level buffer holds
// the faces back to back.
func (t *Texture) uploadInitial(levelData [][]byte) error {
	faces := t.desc.FaceCount()
	for lv := uint32(0); lv < t.desc.Levels; lv++ {
		w, h := gpucore.LevelDims(t.desc.Width, t.desc.Height, lv)
		pitch := gpucore.TightRowPitch(t.desc.Format, w)
		rows := gpucore.TightRowCount(t.desc.Format, h)
		layers := faces
		if t.desc.Kind == gpucore.Texture3D {
			layers = t.desc.Depth
			for i := uint32(0); i < lv; i++ {
				if layers > 1 {
					layers /= 2
				}
			}
		}

		var data []byte
		if t.desc.Kind == gpucore.Texture3D {
			idx := lv
			if int(idx) >= len(levelData) || levelData[idx] == nil {
				continue
			}
			data = levelData[idx]
		} else {
			imageBytes := pitch * rows
			data = make([]byte, imageBytes*layers)
			have := false
			for face := uint32(0); face < faces; face++ {
				idx := face*t.desc.Levels + lv
				if int(idx) < len(levelData) && levelData[idx] != nil {
					copy(data[face*imageBytes:], levelData[idx])
					have = true
				}
			}
			if !have {
				continue
			}
		}

		t.drv.queue.WriteTexture(
			&hal.ImageCopyTexture{Texture: t.tex, MipLevel: lv},
			data,
			&hal.ImageDataLayout{Offset: 0, BytesPerRow: pitch, RowsPerImage: rows},
			&hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: layers},
		)
	}
	return nil
}

// UploadLevel implements gpucore.DriverTexture. Cube faces other than the
// first cannot be addressed individually by this backend's copy origin;
// re-create the texture with full data instead.
func (t *Texture) UploadLevel(face, level uint32, data []byte, rowPitch uint32) error {
	if face != 0 {
		return fmt.Errorf("%w: per-face upload", ErrNotSupported)
	}
	w, h := gpucore.LevelDims(t.desc.Width, t.desc.Height, level)
	pitch := rowPitch
	if pitch == 0 {
		pitch = gpucore.TightRowPitch(t.desc.Format, w)
	}
	rows := gpucore.TightRowCount(t.desc.Format, h)
	t.drv.queue.WriteTexture(
		&hal.ImageCopyTexture{Texture: t.tex, MipLevel: level},
		data,
		&hal.ImageDataLayout{Offset: 0, BytesPerRow: pitch, RowsPerImage: rows},
		&hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
	)
	return nil
}

// SharedHandle implements gpucore.DriverTexture.
func (t *Texture) SharedHandle() gpucore.SharedHandle { return gpucore.InvalidHandle }

// AcquireSync implements gpucore.DriverTexture.
func (t *Texture) AcquireSync(uint64, int64) error {
	return fmt.Errorf("%w: keyed mutex", ErrNotSupported)
}

// ReleaseSync implements gpucore.DriverTexture.
func (t *Texture) ReleaseSync(uint64) error {
	return fmt.Errorf("%w: keyed mutex", ErrNotSupported)
}

// ShaderView returns the view for the requested color space.
func (t *Texture) ShaderView(srgb bool) hal.TextureView {
	if srgb {
		return t.srv
	}
	return t.srvLinear
}

// TargetView returns the render target view of one face.
func (t *Texture) TargetView(face uint32, srgb bool) hal.TextureView {
	views := t.rtvsLinear
	if srgb {
		views = t.rtvs
	}
	if face >= uint32(len(views)) {
		return nil
	}
	return views[face]
}

// Destroy implements gpucore.DriverTexture: views first, then the storage
// when owned. Aliased views are destroyed once.
func (t *Texture) Destroy() {
	d := t.drv
	if d == nil || d.dev == nil {
		return
	}
	for i, v := range t.rtvsLinear {
		if i < len(t.rtvs) && v == t.rtvs[i] {
			continue
		}
		d.dev.DestroyTextureView(v)
	}
	for _, v := range t.rtvs {
		d.dev.DestroyTextureView(v)
	}
	t.rtvs, t.rtvsLinear = nil, nil
	if t.srvLinear != nil && t.srvLinear != t.srv {
		d.dev.DestroyTextureView(t.srvLinear)
	}
	if t.srv != nil {
		d.dev.DestroyTextureView(t.srv)
	}
	t.srv, t.srvLinear = nil, nil
	if t.owned && t.tex != nil {
		d.dev.DestroyTexture(t.tex)
	}
	t.tex = nil
}
