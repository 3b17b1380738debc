package soft

import (
	"fmt"
	"strings"
	"sync"

	"github.com/gogpu/graphics/gpucore"
)

// Binding is one observed texture binding, exposed for hosts that read the
// software pipeline state back.
type Binding struct {
	Texture *Texture
	SRGB    bool
	Sampler *sampler
}

// Program is a software linked program. Reflection is simulated against
// the shared std140 layout rules, so offsets agree with what the resource
// layer computes up front for drivers that cannot reflect.
type Program struct {
	mu sync.Mutex
	vs *Shader
	ps *Shader

	vsLayout *gpucore.BlockLayout
	psLayout *gpucore.BlockLayout

	attribLocs  map[string]int
	samplerLocs map[string]int

	blocks   map[string][]byte
	bindings map[int]Binding
}

// linkProgram validates the stage pair and builds the reflection tables.
// A numeric parameter declared in both stages with different types is a
// genuine link conflict and fails with the log carried verbatim.
func linkProgram(vs, ps *Shader) (*Program, error) {
	var diags []string
	vsTypes := map[string]gpucore.ParamType{}
	for _, p := range vs.src.Params {
		vsTypes[p.Name] = p.Type
	}
	for _, p := range ps.src.Params {
		if vt, ok := vsTypes[p.Name]; ok && vt != p.Type {
			diags = append(diags, fmt.Sprintf(
				"parameter %q declared as %s in vertex stage and %s in pixel stage",
				p.Name, vt, p.Type))
		}
	}
	if len(diags) > 0 {
		return nil, &gpucore.DiagnosticError{
			Log: strings.Join(diags, "\n"),
			Err: fmt.Errorf("soft: program link failed"),
		}
	}

	p := &Program{
		vs: vs, ps: ps,
		vsLayout:    gpucore.ComputeBlockLayout(gpucore.GlobalsBlockVS, vs.src.Params),
		psLayout:    gpucore.ComputeBlockLayout(gpucore.GlobalsBlockPS, ps.src.Params),
		attribLocs:  map[string]int{},
		samplerLocs: map[string]int{},
		blocks:      map[string][]byte{},
		bindings:    map[int]Binding{},
	}
	for i, a := range vs.src.Attribs {
		if vs.uses(a.Name) {
			p.attribLocs[a.Name] = i
		}
	}
	loc := 0
	for _, s := range [2]*Shader{vs, ps} {
		for _, prm := range s.src.Params {
			if prm.Type != gpucore.ParamTexture {
				continue
			}
			if s.uses(prm.Name) {
				p.samplerLocs[prm.Name] = loc
			}
			loc++
		}
	}
	return p, nil
}

// UniformBlock implements gpucore.DriverProgram. Only the two reserved
// stage globals blocks exist; a stage with no numeric parameters has no
// block.
func (p *Program) UniformBlock(name string) (uint32, bool) {
	switch name {
	case gpucore.GlobalsBlockVS:
		return p.vsLayout.Size, p.vsLayout.Size > 0
	case gpucore.GlobalsBlockPS:
		return p.psLayout.Size, p.psLayout.Size > 0
	default:
		return 0, false
	}
}

// MemberOffset implements gpucore.DriverProgram. Members are addressed by
// their mangled "<block>.<param>" names.
func (p *Program) MemberOffset(block, member string) (uint32, bool) {
	name, ok := strings.CutPrefix(member, block+".")
	if !ok {
		return 0, false
	}
	switch block {
	case gpucore.GlobalsBlockVS:
		return p.vsLayout.MemberOffset(name)
	case gpucore.GlobalsBlockPS:
		return p.psLayout.MemberOffset(name)
	default:
		return 0, false
	}
}

// AttribLocation implements gpucore.DriverProgram.
func (p *Program) AttribLocation(name string) (int, bool) {
	loc, ok := p.attribLocs[name]
	return loc, ok
}

// SamplerLocation implements gpucore.DriverProgram.
func (p *Program) SamplerLocation(name string) (int, bool) {
	loc, ok := p.samplerLocs[name]
	return loc, ok
}

// SetBlockData implements gpucore.DriverProgram.
func (p *Program) SetBlockData(block string, data []byte) error {
	size, ok := p.UniformBlock(block)
	if !ok {
		return fmt.Errorf("soft: no uniform block %q", block)
	}
	if uint32(len(data)) != size {
		return fmt.Errorf("soft: block %q expects %d bytes, got %d", block, size, len(data))
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	buf := p.blocks[block]
	if buf == nil {
		buf = make([]byte, size)
		p.blocks[block] = buf
	}
	copy(buf, data)
	return nil
}

// BlockData returns the last uploaded contents of a globals block.
func (p *Program) BlockData(block string) []byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.blocks[block]
}

// BindTexture implements gpucore.DriverProgram.
func (p *Program) BindTexture(loc int, tex gpucore.DriverTexture, srgb bool, smp gpucore.DriverSampler) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	b := Binding{SRGB: srgb}
	if tex != nil {
		st, ok := tex.(*Texture)
		if !ok {
			return errNotSoft
		}
		b.Texture = st
	}
	if smp != nil {
		ss, ok := smp.(*sampler)
		if !ok {
			return errNotSoft
		}
		b.Sampler = ss
	}
	p.bindings[loc] = b
	return nil
}

// TextureBinding returns the last binding observed at a sampler location.
func (p *Program) TextureBinding(loc int) (Binding, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	b, ok := p.bindings[loc]
	return b, ok
}

// Destroy implements gpucore.DriverProgram.
func (p *Program) Destroy() {
	p.mu.Lock()
	p.blocks = nil
	p.bindings = nil
	p.mu.Unlock()
}
