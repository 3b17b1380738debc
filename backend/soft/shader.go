package soft

import (
	"fmt"
	"strings"

	"github.com/gogpu/graphics/gpucore"
)

// Shader is a software compiled stage: the declarations are validated and
// kept, and the source text stands in for the compiled object. A name
// appearing nowhere in the source is treated as optimized out, mirroring
// what a real compiler's dead code elimination reports through reflection.
type Shader struct {
	src gpucore.ShaderSource
}

// compileShader validates the declarations the way a front end would,
// collecting every diagnostic into one log returned verbatim.
func compileShader(src *gpucore.ShaderSource) (*Shader, error) {
	var diags []string
	seen := map[string]bool{}
	for _, p := range src.Params {
		if p.Type == gpucore.ParamUnknown {
			diags = append(diags, fmt.Sprintf("%s: parameter %q has unknown type", src.File, p.Name))
		}
		if seen[p.Name] {
			diags = append(diags, fmt.Sprintf("%s: parameter %q redeclared", src.File, p.Name))
		}
		seen[p.Name] = true
	}
	for _, line := range strings.Split(src.Source, "\n") {
		if rest, ok := strings.CutPrefix(strings.TrimSpace(line), "#error"); ok {
			diags = append(diags, fmt.Sprintf("%s: error: %s", src.File, strings.TrimSpace(rest)))
		}
	}
	if len(diags) > 0 {
		return nil, &gpucore.DiagnosticError{
			Log: strings.Join(diags, "\n"),
			Err: fmt.Errorf("soft: %s shader compilation failed", src.Kind),
		}
	}
	cp := *src
	cp.Params = append([]gpucore.ParamDecl(nil), src.Params...)
	cp.Attribs = append([]gpucore.Attrib(nil), src.Attribs...)
	cp.Samplers = append([]gpucore.SamplerDecl(nil), src.Samplers...)
	return &Shader{src: cp}, nil
}

// uses reports whether an identifier survives in the stage, i.e. appears
// in the source text.
func (s *Shader) uses(name string) bool {
	return strings.Contains(s.src.Source, name)
}

// Destroy implements gpucore.DriverShader.
func (s *Shader) Destroy() {}

type sampler struct {
	info gpucore.SamplerInfo
}

// Info returns the sampler description.
func (s *sampler) Info() gpucore.SamplerInfo { return s.info }

// Destroy implements gpucore.DriverSampler.
func (s *sampler) Destroy() {}
