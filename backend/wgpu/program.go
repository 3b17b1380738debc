package wgpu

import (
	"fmt"
	"strings"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/graphics/gpucore"
	"github.com/gogpu/wgpu/hal"
)

// binding is one resolved texture binding.
type binding struct {
	view hal.TextureView
	smp  hal.Sampler
}

// Program is a linked stage pair. SPIR-V emitted by the toolchain carries
// no reflection the hal surfaces, so the uniform layouts are computed up
// front with the shared std140 rules and backed by real uniform buffers.
type Program struct {
	drv *Driver
	vs  *Shader
	ps  *Shader

	vsLayout *gpucore.BlockLayout
	psLayout *gpucore.BlockLayout
	vsBuf    hal.Buffer
	psBuf    hal.Buffer

	attribLocs  map[string]int
	samplerLocs map[string]int
	bindings    map[int]binding
}

// linkProgram builds the reflection tables and allocates one uniform
// buffer per stage globals block.
func linkProgram(d *Driver, vs, ps *Shader) (*Program, error) {
	var diags []string
	vsTypes := map[string]gpucore.ParamType{}
	for _, prm := range vs.src.Params {
		vsTypes[prm.Name] = prm.Type
	}
	for _, prm := range ps.src.Params {
		if vt, ok := vsTypes[prm.Name]; ok && vt != prm.Type {
			diags = append(diags, fmt.Sprintf(
				"parameter %q declared as %s in vertex stage and %s in pixel stage",
				prm.Name, vt, prm.Type))
		}
	}
	if len(diags) > 0 {
		return nil, &gpucore.DiagnosticError{
			Log: strings.Join(diags, "\n"),
			Err: fmt.Errorf("wgpu: program link failed"),
		}
	}

	p := &Program{
		drv: d, vs: vs, ps: ps,
		vsLayout:    gpucore.ComputeBlockLayout(gpucore.GlobalsBlockVS, vs.src.Params),
		psLayout:    gpucore.ComputeBlockLayout(gpucore.GlobalsBlockPS, ps.src.Params),
		attribLocs:  map[string]int{},
		samplerLocs: map[string]int{},
		bindings:    map[int]binding{},
	}
	for i, a := range vs.src.Attribs {
		p.attribLocs[a.Name] = i
	}
	loc := 0
	for _, s := range [2]*Shader{vs, ps} {
		for _, prm := range s.src.Params {
			if prm.Type != gpucore.ParamTexture {
				continue
			}
			p.samplerLocs[prm.Name] = loc
			loc++
		}
	}

	for _, blk := range [2]struct {
		layout *gpucore.BlockLayout
		buf    *hal.Buffer
		label  string
	}{
		{p.vsLayout, &p.vsBuf, "graphics_globals_vs"},
		{p.psLayout, &p.psBuf, "graphics_globals_ps"},
	} {
		if blk.layout.Size == 0 {
			continue
		}
		buf, err := d.dev.CreateBuffer(&hal.BufferDescriptor{
			Label: blk.label,
			Size:  uint64(blk.layout.Size),
			Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
		})
		if err != nil {
			p.Destroy()
			return nil, fmt.Errorf("wgpu: create uniform buffer: %w", err)
		}
		*blk.buf = buf
	}
	return p, nil
}

// UniformBlock implements gpucore.DriverProgram.
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

// MemberOffset implements gpucore.DriverProgram.
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

// SetBlockData implements gpucore.DriverProgram. The data goes straight to
// the stage's uniform buffer.
func (p *Program) SetBlockData(block string, data []byte) error {
	size, ok := p.UniformBlock(block)
	if !ok {
		return fmt.Errorf("wgpu: no uniform block %q", block)
	}
	if uint32(len(data)) != size {
		return fmt.Errorf("wgpu: block %q expects %d bytes, got %d", block, size, len(data))
	}
	buf := p.vsBuf
	if block == gpucore.GlobalsBlockPS {
		buf = p.psBuf
	}
	p.drv.queue.WriteBuffer(buf, 0, data)
	return nil
}

// BindTexture implements gpucore.DriverProgram. The view held is picked by
// color space at bind time.
func (p *Program) BindTexture(loc int, tex gpucore.DriverTexture, srgb bool, smp gpucore.DriverSampler) error {
	var b binding
	if tex != nil {
		t, ok := tex.(*Texture)
		if !ok {
			return fmt.Errorf("wgpu: texture from another driver")
		}
		b.view = t.ShaderView(srgb)
	}
	if smp != nil {
		s, ok := smp.(*sampler)
		if !ok {
			return fmt.Errorf("wgpu: sampler from another driver")
		}
		b.smp = s.s
	}
	p.bindings[loc] = b
	return nil
}

// Destroy implements gpucore.DriverProgram. The uniform buffers belong to
// the program; the shader modules belong to their shaders.
func (p *Program) Destroy() {
	if p.vsBuf != nil {
		p.drv.dev.DestroyBuffer(p.vsBuf)
		p.vsBuf = nil
	}
	if p.psBuf != nil {
		p.drv.dev.DestroyBuffer(p.psBuf)
		p.psBuf = nil
	}
	p.bindings = nil
}
