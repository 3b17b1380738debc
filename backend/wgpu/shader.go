package wgpu

import (
	"fmt"

	"github.com/gogpu/graphics/gpucore"
	"github.com/gogpu/naga"
	"github.com/gogpu/wgpu/hal"
)

// Shader is one compiled stage: the SPIR-V module plus the declarations
// the program link resolves against.
type Shader struct {
	drv    *Driver
	src    gpucore.ShaderSource
	module hal.ShaderModule
}

func compileShader(d *Driver, src *gpucore.ShaderSource) (*Shader, error) {
	words, err := compileToSPIRV(src.Source)
	if err != nil {
		return nil, &gpucore.DiagnosticError{Log: err.Error(), Err: err}
	}

	label := "graphics_vs"
	if src.Kind == gpucore.PixelShader {
		label = "graphics_ps"
	}
	module, err := d.dev.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label: label,
		Source: hal.ShaderSource{
			SPIRV: words,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("wgpu: create shader module: %w", err)
	}

	s := &Shader{drv: d, src: *src, module: module}
	s.src.Params = append([]gpucore.ParamDecl(nil), src.Params...)
	s.src.Attribs = append([]gpucore.Attrib(nil), src.Attribs...)
	s.src.Samplers = append([]gpucore.SamplerDecl(nil), src.Samplers...)
	return s, nil
}

// compileToSPIRV compiles WGSL source to little-endian SPIR-V words.
func compileToSPIRV(source string) ([]uint32, error) {
	spirvBytes, err := naga.Compile(source)
	if err != nil {
		return nil, err
	}
	words := make([]uint32, len(spirvBytes)/4)
	for i := range words {
		words[i] = uint32(spirvBytes[i*4]) |
			uint32(spirvBytes[i*4+1])<<8 |
			uint32(spirvBytes[i*4+2])<<16 |
			uint32(spirvBytes[i*4+3])<<24
	}
	return words, nil
}

// Destroy implements gpucore.DriverShader.
func (s *Shader) Destroy() {
	if s.module != nil {
		s.drv.dev.DestroyShaderModule(s.module)
		s.module = nil
	}
}

// sampler wraps a hal sampler state.
type sampler struct {
	drv *Driver
	s   hal.Sampler
}

func (s *sampler) Destroy() {
	if s.s != nil {
		s.drv.dev.DestroySampler(s.s)
		s.s = nil
	}
}
