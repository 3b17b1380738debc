package graphics

import (
	"encoding/binary"
	"fmt"
	"log/slog"
	"math"
	"sync"

	"github.com/gogpu/graphics/gpucore"
)

// pendingSampler is the one-shot sampler override: set by SetNextSampler,
// consumed by exactly one UpdateParams.
type pendingSampler struct {
	s  *SamplerState
	ok bool
}

// ShaderParam is one entry of a shader's ordered parameter table. Numeric
// parameters hold their value as raw bytes in the block wire layout;
// texture parameters hold a texture reference, a color space flag, and the
// assigned texture unit.
type ShaderParam struct {
	mu sync.Mutex

	name       string
	typ        gpucore.ParamType
	arrayCount uint32
	// textureUnit is assigned monotonically from zero in declaration
	// order across the shader's texture parameters; -1 for numerics.
	textureUnit int

	value      []byte
	defValue   []byte
	curTexture *Texture
	srgb       bool
	next       pendingSampler
	changed    bool
}

// Name returns the declared parameter name.
func (p *ShaderParam) Name() string { return p.name }

// Type returns the declared parameter type.
func (p *ShaderParam) Type() gpucore.ParamType { return p.typ }

// ArrayCount returns the declared element count, zero for scalars.
func (p *ShaderParam) ArrayCount() uint32 { return p.arrayCount }

// TextureUnit returns the unit assigned to a texture parameter, -1 for
// numeric parameters.
func (p *ShaderParam) TextureUnit() int { return p.textureUnit }

func (p *ShaderParam) expectedSize() uint32 {
	n := p.arrayCount
	if n == 0 {
		n = 1
	}
	return p.typ.ByteSize() * n
}

// SetValue stores raw bytes for a numeric parameter. The length must equal
// the declared type size times the element count; a mismatch is logged,
// returns ErrParamSize, and leaves the stored value unchanged.
func (p *ShaderParam) SetValue(data []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.typ == gpucore.ParamTexture {
		return fmt.Errorf("%w: %q is a texture parameter", ErrBadParameter, p.name)
	}
	if want := p.expectedSize(); uint32(len(data)) != want {
		Logger().Error("graphics: parameter size mismatch",
			slog.String("param", p.name),
			slog.String("type", p.typ.String()),
			slog.Int("got", len(data)),
			slog.Uint64("want", uint64(want)))
		return fmt.Errorf("%w: %q expects %d bytes, got %d", ErrParamSize, p.name, want, len(data))
	}
	if p.value == nil {
		p.value = make([]byte, len(data))
	}
	copy(p.value, data)
	p.changed = true
	return nil
}

// SetBool stores a boolean as a 4 byte value.
func (p *ShaderParam) SetBool(v bool) error {
	var b [4]byte
	if v {
		b[0] = 1
	}
	return p.SetValue(b[:])
}

// SetFloat stores a 32 bit float.
func (p *ShaderParam) SetFloat(v float32) error {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], math.Float32bits(v))
	return p.SetValue(b[:])
}

// SetInt stores a 32 bit integer.
func (p *ShaderParam) SetInt(v int32) error {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], uint32(v))
	return p.SetValue(b[:])
}

// SetVec2 stores a two component vector.
func (p *ShaderParam) SetVec2(x, y float32) error {
	return p.SetValue(packFloats(x, y))
}

// SetVec3 stores a three component vector.
func (p *ShaderParam) SetVec3(x, y, z float32) error {
	return p.SetValue(packFloats(x, y, z))
}

// SetVec4 stores a four component vector.
func (p *ShaderParam) SetVec4(x, y, z, w float32) error {
	return p.SetValue(packFloats(x, y, z, w))
}

// SetInt2 stores a two component integer vector.
func (p *ShaderParam) SetInt2(x, y int32) error {
	return p.SetValue(packInts(x, y))
}

// SetInt3 stores a three component integer vector.
func (p *ShaderParam) SetInt3(x, y, z int32) error {
	return p.SetValue(packInts(x, y, z))
}

// SetInt4 stores a four component integer vector.
func (p *ShaderParam) SetInt4(x, y, z, w int32) error {
	return p.SetValue(packInts(x, y, z, w))
}

// SetMatrix stores a column major 4x4 matrix.
func (p *ShaderParam) SetMatrix(m [16]float32) error {
	return p.SetValue(packFloats(m[:]...))
}

// SetTexture binds a texture to the parameter with linear sampling.
func (p *ShaderParam) SetTexture(t *Texture) error {
	return p.SetTextureSRGB(t, false)
}

// SetTextureSRGB binds a texture to the parameter with the given color
// space.
func (p *ShaderParam) SetTextureSRGB(t *Texture, srgb bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.typ != gpucore.ParamTexture {
		return fmt.Errorf("%w: %q is not a texture parameter", ErrBadParameter, p.name)
	}
	p.curTexture = t
	p.srgb = srgb
	p.changed = true
	return nil
}

// SetNextSampler overrides the sampler for the parameter's next draw only.
// Exactly one UpdateParams consumes the override.
func (p *ShaderParam) SetNextSampler(s *SamplerState) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.typ != gpucore.ParamTexture {
		return fmt.Errorf("%w: %q is not a texture parameter", ErrBadParameter, p.name)
	}
	p.next = pendingSampler{s: s, ok: true}
	return nil
}

// SetDefault restores the parameter's declared default value. Parameters
// without a default are left unchanged.
func (p *ShaderParam) SetDefault() error {
	p.mu.Lock()
	def := p.defValue
	p.mu.Unlock()
	if def == nil {
		return nil
	}
	return p.SetValue(def)
}

// takeSnapshot returns the state UpdateParams consumes: the value bytes,
// texture binding, and the one-shot sampler, which is cleared here.
func (p *ShaderParam) takeSnapshot() (value []byte, tex *Texture, srgb bool, sampler pendingSampler) {
	p.mu.Lock()
	defer p.mu.Unlock()
	sampler = p.next
	p.next = pendingSampler{}
	return p.value, p.curTexture, p.srgb, sampler
}

func packFloats(vs ...float32) []byte {
	b := make([]byte, 4*len(vs))
	for i, v := range vs {
		binary.LittleEndian.PutUint32(b[i*4:], math.Float32bits(v))
	}
	return b
}

func packInts(vs ...int32) []byte {
	b := make([]byte, 4*len(vs))
	for i, v := range vs {
		binary.LittleEndian.PutUint32(b[i*4:], uint32(v))
	}
	return b
}
