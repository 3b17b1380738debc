package graphics

import (
	"errors"
	"fmt"
	"sync"

	"github.com/gogpu/graphics/gpucore"
)

// Shader is one compiled stage plus its ordered parameter table. The table
// preserves declaration order; texture parameters receive monotonically
// increasing units starting at zero in that order.
type Shader struct {
	mu        sync.Mutex
	device    *Device
	kind      gpucore.ShaderKind
	file      string
	drv       gpucore.DriverShader
	destroyed bool

	params     []*ShaderParam
	paramIndex map[string]*ShaderParam
	samplers   []*SamplerState
	// defaultSamplers pairs texture params with the sampler state their
	// declaration names, nil when none.
	defaultSamplers map[*ShaderParam]*SamplerState
	attribs         []gpucore.Attrib

	viewProj *ShaderParam
	world    *ShaderParam
}

// NewShader compiles a shader from its translated source and declaration
// tables. Compile failures surface the toolchain diagnostics verbatim
// inside a *CompileError. Construction is all or nothing.
func NewShader(d *Device, src *gpucore.ShaderSource) (*Shader, error) {
	d.mu.Lock()
	if d.destroyed {
		d.mu.Unlock()
		return nil, ErrDeviceDestroyed
	}
	drv := d.driver
	d.mu.Unlock()

	ds, err := drv.CreateShader(src)
	if err != nil {
		var diag *gpucore.DiagnosticError
		if errors.As(err, &diag) {
			return nil, &CompileError{Kind: src.Kind, File: src.File, Diag: diag.Log, Err: diag.Err}
		}
		return nil, &CompileError{Kind: src.Kind, File: src.File, Err: err}
	}

	s := &Shader{
		device:          d,
		kind:            src.Kind,
		file:            src.File,
		drv:             ds,
		paramIndex:      make(map[string]*ShaderParam, len(src.Params)),
		defaultSamplers: map[*ShaderParam]*SamplerState{},
	}

	samplersByName := map[string]*SamplerState{}
	for _, decl := range src.Samplers {
		ss, err := NewSamplerState(d, decl.Info)
		if err != nil {
			s.destroySamplers()
			ds.Destroy()
			return nil, fmt.Errorf("%w: sampler %q: %w", ErrResourceCreation, decl.Name, err)
		}
		s.samplers = append(s.samplers, ss)
		samplersByName[decl.Name] = ss
	}

	nextUnit := 0
	for _, decl := range src.Params {
		p := &ShaderParam{
			name:        decl.Name,
			typ:         decl.Type,
			arrayCount:  decl.ArrayCount,
			textureUnit: -1,
		}
		if decl.Type == gpucore.ParamTexture {
			p.textureUnit = nextUnit
			nextUnit++
			if ss := samplersByName[decl.SamplerName]; ss != nil {
				s.defaultSamplers[p] = ss
			}
		}
		if decl.DefaultValue != nil {
			p.defValue = make([]byte, len(decl.DefaultValue))
			copy(p.defValue, decl.DefaultValue)
			p.value = make([]byte, len(decl.DefaultValue))
			copy(p.value, decl.DefaultValue)
			p.changed = true
		}
		s.params = append(s.params, p)
		s.paramIndex[decl.Name] = p
	}

	if src.Kind == gpucore.VertexShader {
		s.attribs = append(s.attribs, src.Attribs...)
		s.viewProj = s.paramIndex["ViewProj"]
		s.world = s.paramIndex["World"]
	}
	return s, nil
}

func (s *Shader) destroySamplers() {
	for _, ss := range s.samplers {
		ss.Destroy()
	}
	s.samplers = nil
}

// Kind returns the shader stage.
func (s *Shader) Kind() gpucore.ShaderKind { return s.kind }

// File returns the source file name used in diagnostics.
func (s *Shader) File() string { return s.file }

// ParamCount returns the number of declared parameters.
func (s *Shader) ParamCount() int { return len(s.params) }

// ParamByIndex returns a parameter by its declaration position.
func (s *Shader) ParamByIndex(i int) *ShaderParam {
	if i < 0 || i >= len(s.params) {
		return nil
	}
	return s.params[i]
}

// Param looks up a parameter by name, nil when absent.
func (s *Shader) Param(name string) *ShaderParam {
	return s.paramIndex[name]
}

// ViewProjParam returns the cached "ViewProj" parameter of a vertex
// shader, nil when not declared.
func (s *Shader) ViewProjParam() *ShaderParam { return s.viewProj }

// WorldParam returns the cached "World" parameter of a vertex shader, nil
// when not declared.
func (s *Shader) WorldParam() *ShaderParam { return s.world }

// Attribs returns the vertex input declarations, empty for pixel shaders.
func (s *Shader) Attribs() []gpucore.Attrib { return s.attribs }

func (s *Shader) driverShader() gpucore.DriverShader {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.drv
}

// Destroy releases the shader. Every program still referencing it in
// either stage is destroyed first, then the owned sampler states, then the
// stage object. Idempotent.
func (s *Shader) Destroy() {
	s.mu.Lock()
	if s.destroyed {
		s.mu.Unlock()
		return
	}
	s.destroyed = true
	s.mu.Unlock()

	for _, p := range s.device.programsReferencing(s) {
		p.Destroy()
	}
	s.destroySamplers()
	s.drv.Destroy()
}
