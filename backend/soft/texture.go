package soft

import (
	"fmt"
	"sync"

	"github.com/gogpu/graphics/gpucore"
)

// Texture is a software texture: one tightly packed byte buffer per face
// and mip level. Views created by wrapping share the owner's storage.
type Texture struct {
	mu   sync.Mutex
	drv  *Driver
	desc gpucore.TextureDesc

	// levels is indexed face*Levels+level. Volume levels store all depth
	// slices contiguously.
	levels [][]byte
	// chroma is the second plane of a two-plane texture, half resolution
	// with two channels.
	chroma []byte

	handle gpucore.SharedHandle
	km     *keyedMutex

	// view marks wrapped objects that do not own the storage.
	view      bool
	destroyed bool
}

func levelSize(desc *gpucore.TextureDesc, lv uint32) uint32 {
	w, h := gpucore.LevelDims(desc.Width, desc.Height, lv)
	size := gpucore.TightRowPitch(desc.Format, w) * gpucore.TightRowCount(desc.Format, h)
	if desc.Kind == gpucore.Texture3D {
		d := desc.Depth
		for i := uint32(0); i < lv; i++ {
			if d > 1 {
				d /= 2
			}
		}
		size *= d
	}
	return size
}

func newTexture(d *Driver, desc *gpucore.TextureDesc, levelData [][]byte) (*Texture, error) {
	t := &Texture{drv: d, desc: *desc, handle: gpucore.InvalidHandle}
	faces := desc.FaceCount()
	t.levels = make([][]byte, faces*desc.Levels)
	idx := 0
	for face := uint32(0); face < faces; face++ {
		for lv := uint32(0); lv < desc.Levels; lv++ {
			buf := make([]byte, levelSize(desc, lv))
			if levelData != nil && idx < len(levelData) && levelData[idx] != nil {
				if len(levelData[idx]) > len(buf) {
					return nil, fmt.Errorf("soft: level %d data %d bytes exceeds level size %d",
						lv, len(levelData[idx]), len(buf))
				}
				copy(buf, levelData[idx])
			}
			t.levels[face*desc.Levels+lv] = buf
			idx++
		}
	}
	if desc.Flags&gpucore.TwoPlane != 0 {
		bpp := uint32(2)
		if desc.Format == gpucore.FormatR16 {
			bpp = 4
		}
		t.chroma = make([]byte, desc.Width/2*(desc.Height/2)*bpp)
	}
	if desc.Flags&gpucore.SharedKMTex != 0 {
		t.km = newKeyedMutex()
	}
	return t, nil
}

// UploadLevel implements gpucore.DriverTexture.
func (t *Texture) UploadLevel(face, level uint32, data []byte, rowPitch uint32) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.destroyed {
		return fmt.Errorf("soft: texture destroyed")
	}
	idx := face*t.desc.Levels + level
	if idx >= uint32(len(t.levels)) {
		return fmt.Errorf("soft: face %d level %d out of range", face, level)
	}
	dst := t.levels[idx]
	if rowPitch == 0 {
		if len(data) > len(dst) {
			return fmt.Errorf("soft: upload %d bytes exceeds level size %d", len(data), len(dst))
		}
		copy(dst, data)
		return nil
	}
	w, h := gpucore.LevelDims(t.desc.Width, t.desc.Height, level)
	tight := gpucore.TightRowPitch(t.desc.Format, w)
	rows := gpucore.TightRowCount(t.desc.Format, h)
	for r := uint32(0); r < rows; r++ {
		src := data[r*rowPitch:]
		if uint32(len(src)) > tight {
			src = src[:tight]
		}
		copy(dst[r*tight:], src)
	}
	return nil
}

// LevelBytes exposes the storage of one face and level. Hosts embedding
// the software driver read pixels back through it.
func (t *Texture) LevelBytes(face, level uint32) []byte {
	t.mu.Lock()
	defer t.mu.Unlock()
	idx := face*t.desc.Levels + level
	if idx >= uint32(len(t.levels)) {
		return nil
	}
	return t.levels[idx]
}

// ChromaBytes exposes the chroma plane of a two-plane texture.
func (t *Texture) ChromaBytes() []byte {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.chroma
}

// SharedHandle implements gpucore.DriverTexture.
func (t *Texture) SharedHandle() gpucore.SharedHandle {
	return t.handle
}

// AcquireSync implements gpucore.DriverTexture.
func (t *Texture) AcquireSync(key uint64, timeoutMS int64) error {
	if t.km == nil {
		return fmt.Errorf("soft: texture has no keyed mutex")
	}
	return t.km.acquire(key, timeoutMS)
}

// ReleaseSync implements gpucore.DriverTexture.
func (t *Texture) ReleaseSync(key uint64) error {
	if t.km == nil {
		return fmt.Errorf("soft: texture has no keyed mutex")
	}
	return t.km.release(key)
}

// wrap returns a view over the same storage with its own descriptor.
func (t *Texture) wrap(desc *gpucore.TextureDesc) *Texture {
	return &Texture{
		drv: t.drv, desc: *desc, levels: t.levels, chroma: t.chroma,
		handle: gpucore.InvalidHandle, km: t.km, view: true,
	}
}

// chromaView returns the chroma plane of a two-plane texture as its own
// single level view.
func (t *Texture) chromaView(desc *gpucore.TextureDesc) (*Texture, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.chroma == nil {
		return nil, fmt.Errorf("soft: texture has no chroma plane")
	}
	return &Texture{
		drv: t.drv, desc: *desc, levels: [][]byte{t.chroma},
		handle: gpucore.InvalidHandle, view: true,
	}, nil
}

// Destroy implements gpucore.DriverTexture. Views leave the owner's
// storage alone; the owning texture withdraws its broker export.
func (t *Texture) Destroy() {
	t.mu.Lock()
	if t.destroyed {
		t.mu.Unlock()
		return
	}
	t.destroyed = true
	handle := t.handle
	isView := t.view
	t.levels = nil
	t.chroma = nil
	t.mu.Unlock()

	if !isView && handle != gpucore.InvalidHandle {
		broker.withdraw(handle)
	}
}
