package graphics

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/gogpu/graphics/gpucore"
)

// ProgramState tracks the program lifecycle. A program that failed to link
// never enters the device's live set.
type ProgramState uint8

const (
	ProgramUnlinked ProgramState = iota
	ProgramLinking
	ProgramLinked
	ProgramLinkFailed
	ProgramUnlinking
	ProgramDestroyed
)

func (s ProgramState) String() string {
	switch s {
	case ProgramUnlinked:
		return "unlinked"
	case ProgramLinking:
		return "linking"
	case ProgramLinked:
		return "linked"
	case ProgramLinkFailed:
		return "link_failed"
	case ProgramUnlinking:
		return "unlinking"
	case ProgramDestroyed:
		return "destroyed"
	default:
		return "unknown"
	}
}

// progParam is one resolved program parameter: a numeric slot inside a
// stage globals block, or a texture bound through a sampler location.
type progParam struct {
	param *ShaderParam
	// block and offset place a numeric parameter; block is empty for
	// textures and for numerics the reflection did not expose.
	block  string
	offset uint32
	size   uint32
	// samplerLoc is the resolved texture uniform location, -1 when the
	// uniform was optimized out.
	samplerLoc int
	texture    bool
	sampler    *SamplerState
}

// Program is a linked vertex and pixel stage pair. Linking reflects the
// two reserved globals blocks, resolves every parameter and vertex input,
// and registers the program with the device.
type Program struct {
	mu     sync.Mutex
	device *Device
	state  ProgramState

	vertexShader *Shader
	pixelShader  *Shader
	drv          gpucore.DriverProgram

	params []*progParam
	// CPU shadows of the two stage globals blocks, uploaded whole on
	// each UpdateParams.
	vsShadow []byte
	psShadow []byte
}

// LinkProgram links the device's current vertex and pixel shaders. Link
// failures surface the link log verbatim inside a *LinkError; a vertex
// input the linked program does not expose is fatal and returns a
// *AttributeNotFoundError. On any error no native objects remain and the
// device is unaffected.
func LinkProgram(d *Device) (*Program, error) {
	d.mu.Lock()
	if d.destroyed {
		d.mu.Unlock()
		return nil, ErrDeviceDestroyed
	}
	vs, ps := d.curVertexShader, d.curPixelShader
	drv := d.driver
	d.mu.Unlock()

	if vs == nil || ps == nil {
		return nil, fmt.Errorf("%w: program link requires a current vertex and pixel shader", ErrBadParameter)
	}

	p := &Program{device: d, state: ProgramLinking, vertexShader: vs, pixelShader: ps}

	dp, err := drv.CreateProgram(vs.driverShader(), ps.driverShader())
	if err != nil {
		p.state = ProgramLinkFailed
		var diag *gpucore.DiagnosticError
		if errors.As(err, &diag) {
			return nil, &LinkError{Diag: diag.Log, Err: diag.Err}
		}
		return nil, &LinkError{Err: err}
	}
	p.drv = dp

	if size, ok := dp.UniformBlock(gpucore.GlobalsBlockVS); ok && size > 0 {
		p.vsShadow = make([]byte, size)
	}
	if size, ok := dp.UniformBlock(gpucore.GlobalsBlockPS); ok && size > 0 {
		p.psShadow = make([]byte, size)
	}

	if err := p.resolveAttribs(); err != nil {
		p.state = ProgramLinkFailed
		dp.Destroy()
		return nil, err
	}
	p.resolveParams(vs, gpucore.GlobalsBlockVS)
	p.resolveParams(ps, gpucore.GlobalsBlockPS)

	p.state = ProgramLinked
	d.addProgram(p)
	return p, nil
}

// resolveAttribs checks every vertex input declared by the vertex shader
// against the linked program. A missing input is fatal.
func (p *Program) resolveAttribs() error {
	for _, a := range p.vertexShader.Attribs() {
		if _, ok := p.drv.AttribLocation(a.Name); !ok {
			return &AttributeNotFoundError{Name: a.Name}
		}
	}
	return nil
}

// resolveParams maps one stage's parameters to program slots. Texture
// uniforms the reflection cannot find are silently accepted; numeric
// members absent from the block simply get no slot.
func (p *Program) resolveParams(s *Shader, block string) {
	for _, sp := range s.params {
		pp := &progParam{param: sp, samplerLoc: -1}
		if sp.typ == gpucore.ParamTexture {
			pp.texture = true
			if loc, ok := p.drv.SamplerLocation(sp.name); ok {
				pp.samplerLoc = loc
			}
			pp.sampler = s.defaultSamplers[sp]
		} else {
			if off, ok := p.drv.MemberOffset(block, gpucore.MangledName(block, sp.name)); ok {
				pp.block = block
				pp.offset = off
				pp.size = sp.expectedSize()
			}
		}
		p.params = append(p.params, pp)
	}
}

// State returns the lifecycle state.
func (p *Program) State() ProgramState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// VertexShader returns the linked vertex stage.
func (p *Program) VertexShader() *Shader { return p.vertexShader }

// PixelShader returns the linked pixel stage.
func (p *Program) PixelShader() *Shader { return p.pixelShader }

// Activate makes the program the device's current program.
func (p *Program) Activate() error {
	p.mu.Lock()
	if p.state != ProgramLinked {
		st := p.state
		p.mu.Unlock()
		return fmt.Errorf("%w: program is %s", ErrBadParameter, st)
	}
	p.mu.Unlock()

	p.device.mu.Lock()
	defer p.device.mu.Unlock()
	if p.device.destroyed {
		return ErrDeviceDestroyed
	}
	p.device.curProgram = p
	return nil
}

// UpdateParams pushes every parameter's current value to the driver: it
// validates and writes numerics into the stage block shadows, binds
// textures to their sampler locations with the sRGB view when requested,
// consumes any one-shot sampler overrides, and finally uploads both
// globals blocks when non-empty. Call it before every draw; given
// unchanged parameter state the resulting driver state is identical.
func (p *Program) UpdateParams() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state != ProgramLinked {
		return fmt.Errorf("%w: program is %s", ErrBadParameter, p.state)
	}

	for _, pp := range p.params {
		value, tex, srgb, next := pp.param.takeSnapshot()
		if pp.texture {
			if pp.samplerLoc < 0 {
				continue
			}
			sampler := pp.sampler
			if next.ok {
				sampler = next.s
			}
			var dt gpucore.DriverTexture
			if tex != nil {
				dt = tex.driverTexture()
			}
			var ds gpucore.DriverSampler
			if sampler != nil {
				ds = sampler.driverSampler()
			}
			if err := p.drv.BindTexture(pp.samplerLoc, dt, srgb, ds); err != nil {
				return err
			}
			continue
		}
		if pp.block == "" {
			continue
		}
		if uint32(len(value)) != pp.size {
			// Skip only this parameter; the draw proceeds.
			Logger().Error("graphics: parameter size mismatch on update",
				slog.String("param", pp.param.name),
				slog.Int("got", len(value)),
				slog.Uint64("want", uint64(pp.size)))
			continue
		}
		shadow := p.vsShadow
		if pp.block == gpucore.GlobalsBlockPS {
			shadow = p.psShadow
		}
		copy(shadow[pp.offset:pp.offset+pp.size], value)
	}

	if len(p.vsShadow) > 0 {
		if err := p.drv.SetBlockData(gpucore.GlobalsBlockVS, p.vsShadow); err != nil {
			return err
		}
	}
	if len(p.psShadow) > 0 {
		if err := p.drv.SetBlockData(gpucore.GlobalsBlockPS, p.psShadow); err != nil {
			return err
		}
	}
	return nil
}

// Destroy unlinks and releases the program. If active it is cleared as the
// device's current program. Idempotent.
func (p *Program) Destroy() {
	p.mu.Lock()
	if p.state == ProgramDestroyed || p.state == ProgramUnlinking {
		p.mu.Unlock()
		return
	}
	p.state = ProgramUnlinking
	drv := p.drv
	p.drv = nil
	p.mu.Unlock()

	p.device.removeProgram(p)
	if drv != nil {
		drv.Destroy()
	}

	p.mu.Lock()
	p.state = ProgramDestroyed
	p.vsShadow = nil
	p.psShadow = nil
	p.mu.Unlock()
}

// destroyLocked is the device teardown path; the device has already
// emptied its program set.
func (p *Program) destroyLocked() {
	p.Destroy()
}
