package graphics

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/graphics/gpucore"
)

// Texture is a device texture: 2D, cube, or volume. Construction is all or
// nothing; a creation error leaves no native objects allocated.
//
// When created with initial data, the texture keeps a CPU backup of every
// face and mip level and registers itself with the device loss registry so
// it can recreate itself after a device rebuild.
type Texture struct {
	mu        sync.Mutex
	device    *Device
	desc      gpucore.TextureDesc
	drv       gpucore.DriverTexture
	backup    [][]byte
	token     RebuildToken
	hasToken  bool
	ownsData  bool
	kmHeld    bool
	destroyed bool
}

func validateTextureDesc(desc *gpucore.TextureDesc) error {
	if desc.Width == 0 || desc.Height == 0 || desc.Depth == 0 {
		return fmt.Errorf("%w: zero texture dimension", ErrBadParameter)
	}
	if desc.Format == gpucore.FormatUnknown {
		return fmt.Errorf("%w: unknown texture format", ErrBadParameter)
	}
	if total := gpucore.TotalLevels(desc.Width, desc.Height, desc.Depth); desc.Levels > total {
		return fmt.Errorf("%w: %d mip levels exceed maximum %d", ErrBadParameter, desc.Levels, total)
	}
	if desc.Flags&gpucore.TwoPlane != 0 && desc.Format.PlanarResourceFormat() == gputypes.TextureFormatUndefined {
		return fmt.Errorf("%w: format %s has no two-plane layout", ErrBadParameter, desc.Format)
	}
	return nil
}

// NewTexture2D creates a two dimensional texture. levels of zero requests a
// full mip chain. data, when non-nil, holds one tightly packed slice per
// mip level and enables the CPU backup.
func NewTexture2D(d *Device, width, height uint32, format gpucore.ColorFormat, levels uint32, data [][]byte, flags gpucore.TextureFlags) (*Texture, error) {
	desc := gpucore.TextureDesc{
		Kind: gpucore.Texture2D, Width: width, Height: height, Depth: 1,
		Format: format, Levels: levels, Flags: flags,
	}
	return newTexture(d, desc, data)
}

// NewTextureCube creates a cube texture with six square faces of the given
// edge size. data, when non-nil, holds the faces in order, each face
// contributing one slice per mip level.
func NewTextureCube(d *Device, size uint32, format gpucore.ColorFormat, levels uint32, data [][]byte, flags gpucore.TextureFlags) (*Texture, error) {
	desc := gpucore.TextureDesc{
		Kind: gpucore.TextureCube, Width: size, Height: size, Depth: 1,
		Format: format, Levels: levels, Flags: flags,
	}
	return newTexture(d, desc, data)
}

// NewVolumeTexture creates a three dimensional texture.
func NewVolumeTexture(d *Device, width, height, depth uint32, format gpucore.ColorFormat, levels uint32, data [][]byte, flags gpucore.TextureFlags) (*Texture, error) {
	desc := gpucore.TextureDesc{
		Kind: gpucore.Texture3D, Width: width, Height: height, Depth: depth,
		Format: format, Levels: levels, Flags: flags,
	}
	return newTexture(d, desc, data)
}

func newTexture(d *Device, desc gpucore.TextureDesc, data [][]byte) (*Texture, error) {
	if err := validateTextureDesc(&desc); err != nil {
		return nil, err
	}
	d.mu.Lock()
	if d.destroyed {
		d.mu.Unlock()
		return nil, ErrDeviceDestroyed
	}
	drv := d.driver
	d.mu.Unlock()

	desc.Levels = desc.EffectiveLevels()
	dt, err := drv.CreateTexture(&desc, data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrResourceCreation, err)
	}

	t := &Texture{device: d, desc: desc, drv: dt, ownsData: true}

	if desc.Flags&gpucore.SharedKMTex != 0 {
		// The creating side holds the keyed mutex until destroy.
		if err := dt.AcquireSync(0, d.keyedMutexTimeoutMS()); err != nil {
			dt.Destroy()
			return nil, fmt.Errorf("%w: acquire keyed mutex: %w", ErrResourceCreation, err)
		}
		t.kmHeld = true
	}

	if data != nil {
		t.backup = backupLevels(&desc, data)
		t.token = d.RegisterRebuild(t.releaseForRebuild, t.rebuild)
		t.hasToken = true
	}

	Logger().Debug("graphics: texture created",
		slog.String("format", desc.Format.String()),
		slog.Uint64("width", uint64(desc.Width)),
		slog.Uint64("height", uint64(desc.Height)),
		slog.Uint64("levels", uint64(desc.Levels)))
	return t, nil
}

// backupLevels copies the initial data into the CPU backup. Each face
// contributes one slice per level; level sizes follow the tight packing
// walk with all axes, depth included, halving to a floor of one.
func backupLevels(desc *gpucore.TextureDesc, data [][]byte) [][]byte {
	faces := desc.FaceCount()
	out := make([][]byte, 0, faces*desc.Levels)
	idx := 0
	for face := uint32(0); face < faces; face++ {
		w, h, depth := desc.Width, desc.Height, desc.Depth
		for lv := uint32(0); lv < desc.Levels; lv++ {
			size := gpucore.LevelByteSize(desc.Format, w, h)
			if desc.Kind == gpucore.Texture3D {
				size *= depth
			}
			var cp []byte
			if idx < len(data) && data[idx] != nil {
				cp = make([]byte, size)
				copy(cp, data[idx])
			}
			out = append(out, cp)
			idx++
			if w > 1 {
				w /= 2
			}
			if h > 1 {
				h /= 2
			}
			if depth > 1 {
				depth /= 2
			}
		}
	}
	return out
}

// OpenSharedTexture imports a texture exported by another device through
// its shared handle. ntHandle marks handles obtained from the NT handle
// namespace rather than the legacy KM one. The abstract format is derived
// from the native resource; native formats with no abstract counterpart
// fail with ErrSharedOpen.
func OpenSharedTexture(d *Device, handle gpucore.SharedHandle, ntHandle bool) (*Texture, error) {
	d.mu.Lock()
	if d.destroyed {
		d.mu.Unlock()
		return nil, ErrDeviceDestroyed
	}
	drv := d.driver
	d.mu.Unlock()

	dt, desc, err := drv.OpenSharedTexture(handle, ntHandle)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSharedOpen, err)
	}
	if desc.Format == gpucore.FormatUnknown {
		dt.Destroy()
		return nil, fmt.Errorf("%w: native format has no abstract mapping", ErrSharedOpen)
	}
	t := &Texture{device: d, desc: *desc, drv: dt, ownsData: true}
	if desc.Flags&gpucore.SharedKMTex != 0 {
		if err := dt.AcquireSync(0, d.keyedMutexTimeoutMS()); err != nil {
			dt.Destroy()
			return nil, fmt.Errorf("%w: acquire keyed mutex: %w", ErrSharedOpen, err)
		}
		t.kmHeld = true
	}
	return t, nil
}

// WrapNativeTexture adopts an existing driver texture object without taking
// ownership of its storage.
func WrapNativeTexture(d *Device, native any, desc gpucore.TextureDesc) (*Texture, error) {
	if err := validateTextureDesc(&desc); err != nil {
		return nil, err
	}
	d.mu.Lock()
	if d.destroyed {
		d.mu.Unlock()
		return nil, ErrDeviceDestroyed
	}
	drv := d.driver
	d.mu.Unlock()

	dt, err := drv.WrapTexture(native, &desc)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrResourceCreation, err)
	}
	return &Texture{device: d, desc: desc, drv: dt, ownsData: false}, nil
}

// WrapPlanarChroma builds the chroma plane view of a two-plane texture as
// its own Texture at half resolution with the matching two channel format
// (R8 luma pairs with R8G8 chroma, R16 with RG16). The view shares the
// parent's storage and does not own it.
func (t *Texture) WrapPlanarChroma() (*Texture, error) {
	t.mu.Lock()
	if t.destroyed {
		t.mu.Unlock()
		return nil, ErrTextureDestroyed
	}
	desc := t.desc
	drv := t.drv
	t.mu.Unlock()

	if desc.Flags&gpucore.TwoPlane == 0 {
		return nil, fmt.Errorf("%w: texture is not two-plane", ErrBadParameter)
	}
	var chromaFormat gpucore.ColorFormat
	switch desc.Format {
	case gpucore.FormatR8:
		chromaFormat = gpucore.FormatR8G8
	case gpucore.FormatR16:
		chromaFormat = gpucore.FormatRG16
	default:
		return nil, fmt.Errorf("%w: format %s has no chroma plane", ErrBadParameter, desc.Format)
	}
	cdesc := gpucore.TextureDesc{
		Kind:   gpucore.Texture2D,
		Width:  desc.Width / 2,
		Height: desc.Height / 2,
		Depth:  1,
		Format: chromaFormat,
		Levels: 1,
		Flags:  desc.Flags &^ (gpucore.SharedTex | gpucore.SharedKMTex),
	}
	ct, err := t.device.Driver().WrapChromaPlane(drv, &cdesc)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrResourceCreation, err)
	}
	return &Texture{device: t.device, desc: cdesc, drv: ct, ownsData: false}, nil
}

// Width returns the level zero width.
func (t *Texture) Width() uint32 { return t.desc.Width }

// Height returns the level zero height.
func (t *Texture) Height() uint32 { return t.desc.Height }

// Depth returns the level zero depth, 1 for 2D and cube textures.
func (t *Texture) Depth() uint32 { return t.desc.Depth }

// Format returns the abstract format.
func (t *Texture) Format() gpucore.ColorFormat { return t.desc.Format }

// Levels returns the mip level count.
func (t *Texture) Levels() uint32 { return t.desc.Levels }

// Kind returns the texture shape.
func (t *Texture) Kind() gpucore.TextureKind { return t.desc.Kind }

// Flags returns the creation flags.
func (t *Texture) Flags() gpucore.TextureFlags { return t.desc.Flags }

// HasBackup reports whether the texture keeps a CPU copy of its contents.
func (t *Texture) HasBackup() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.backup != nil
}

// BackupLevel returns the CPU backup of one face and level, nil when the
// texture has no backup. The returned slice aliases the backup; callers
// must not modify it.
func (t *Texture) BackupLevel(face, level uint32) []byte {
	t.mu.Lock()
	defer t.mu.Unlock()
	idx := face*t.desc.Levels + level
	if t.backup == nil || idx >= uint32(len(t.backup)) {
		return nil
	}
	return t.backup[idx]
}

// SharedHandle returns the export handle of a shared texture, or
// InvalidHandle when the texture was created without a shared flag.
func (t *Texture) SharedHandle() gpucore.SharedHandle {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.destroyed || !t.desc.Flags.Shared() {
		return gpucore.InvalidHandle
	}
	return t.drv.SharedHandle()
}

// AcquireSync acquires the keyed mutex of a shared texture, blocking until
// the key is released or the device's configured timeout elapses.
func (t *Texture) AcquireSync(key uint64) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.destroyed {
		return ErrTextureDestroyed
	}
	if t.desc.Flags&gpucore.SharedKMTex == 0 {
		return ErrNotShared
	}
	if err := t.drv.AcquireSync(key, t.device.keyedMutexTimeoutMS()); err != nil {
		return err
	}
	t.kmHeld = true
	return nil
}

// ReleaseSync releases the keyed mutex of a shared texture.
func (t *Texture) ReleaseSync(key uint64) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.destroyed {
		return ErrTextureDestroyed
	}
	if t.desc.Flags&gpucore.SharedKMTex == 0 {
		return ErrNotShared
	}
	if err := t.drv.ReleaseSync(key); err != nil {
		return err
	}
	t.kmHeld = false
	return nil
}

// Update replaces the contents of one face and mip level and refreshes the
// CPU backup when present. data must be tightly packed unless rowPitch is
// nonzero.
func (t *Texture) Update(face, level uint32, data []byte, rowPitch uint32) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.destroyed {
		return ErrTextureDestroyed
	}
	if face >= t.desc.FaceCount() || level >= t.desc.Levels {
		return fmt.Errorf("%w: face %d level %d out of range", ErrBadParameter, face, level)
	}
	if err := t.drv.UploadLevel(face, level, data, rowPitch); err != nil {
		return err
	}
	if t.backup != nil && rowPitch == 0 {
		idx := face*t.desc.Levels + level
		if idx < uint32(len(t.backup)) && t.backup[idx] != nil && len(data) == len(t.backup[idx]) {
			copy(t.backup[idx], data)
		}
	}
	return nil
}

// releaseForRebuild drops the driver texture ahead of a device rebuild,
// keeping the descriptor and backup so rebuild can recreate it.
func (t *Texture) releaseForRebuild() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.destroyed || t.drv == nil {
		return
	}
	if t.kmHeld {
		if err := t.drv.ReleaseSync(0); err != nil {
			Logger().Warn("graphics: release keyed mutex before rebuild", slog.Any("error", err))
		}
		t.kmHeld = false
	}
	t.drv.Destroy()
	t.drv = nil
}

// rebuild recreates the driver texture from the recorded descriptor and
// CPU backup on the device's current driver.
func (t *Texture) rebuild() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.destroyed {
		return nil
	}
	desc := t.desc
	dt, err := t.device.Driver().CreateTexture(&desc, t.backup)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrResourceCreation, err)
	}
	t.drv = dt
	if desc.Flags&gpucore.SharedKMTex != 0 {
		if err := dt.AcquireSync(0, t.device.keyedMutexTimeoutMS()); err != nil {
			dt.Destroy()
			t.drv = nil
			return fmt.Errorf("%w: acquire keyed mutex: %w", ErrResourceCreation, err)
		}
		t.kmHeld = true
	}
	return nil
}

// Destroy releases the texture. The keyed mutex is released before the
// storage handle; views and wrapped bridges go first inside the driver.
// Destroy is idempotent.
func (t *Texture) Destroy() {
	t.mu.Lock()
	if t.destroyed {
		t.mu.Unlock()
		return
	}
	t.destroyed = true
	drv := t.drv
	t.drv = nil
	held := t.kmHeld
	t.kmHeld = false
	hasToken := t.hasToken
	tok := t.token
	t.hasToken = false
	t.mu.Unlock()

	if hasToken {
		t.device.UnregisterRebuild(tok)
	}
	if drv != nil {
		if held {
			if err := drv.ReleaseSync(0); err != nil {
				Logger().Warn("graphics: release keyed mutex on destroy", slog.Any("error", err))
			}
		}
		drv.Destroy()
	}
}

// driverTexture exposes the backend object for program binding.
func (t *Texture) driverTexture() gpucore.DriverTexture {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.drv
}
