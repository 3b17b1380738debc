package gpucore

import (
	"fmt"
	"strconv"
	"strings"
)

// TextureFlags select optional behavior at texture creation.
type TextureFlags uint32

const (
	// BuildMips requests storage for a full mip chain. Drivers allocate
	// the chain but do not fill the tail levels; generation happens on
	// the CPU before creation, as NewTextureFromImage does.
	BuildMips TextureFlags = 1 << iota
	// Dynamic marks textures intended for frequent CPU updates.
	Dynamic
	// RenderTarget makes the texture bindable as a color attachment.
	RenderTarget
	// GDICompatible requests an OS drawing compatible surface.
	GDICompatible
	// TwoPlane stores the texture as a planar luma/chroma resource.
	TwoPlane
	// SharedTex exports the texture through a legacy shared handle.
	SharedTex
	// SharedKMTex exports the texture through a keyed mutex shared handle.
	SharedKMTex
)

// Shared reports whether any shared export flag is present.
func (f TextureFlags) Shared() bool {
	return f&(SharedTex|SharedKMTex) != 0
}

// TextureKind distinguishes the texture shapes a driver can create.
type TextureKind uint8

const (
	Texture2D TextureKind = iota
	TextureCube
	Texture3D
)

// SharedHandle identifies an exported texture across device boundaries.
type SharedHandle uint64

// InvalidHandle is returned when a texture has no shared export.
const InvalidHandle SharedHandle = ^SharedHandle(0)

// ShaderKind distinguishes the two programmable stages.
type ShaderKind uint8

const (
	VertexShader ShaderKind = iota
	PixelShader
)

func (k ShaderKind) String() string {
	if k == VertexShader {
		return "vertex"
	}
	return "pixel"
}

// Reserved uniform block names. The vertex and pixel stage globals of a
// linked program live in blocks with exactly these names; reflection finds
// them by name and numeric parameters resolve through "<block>.<param>".
const (
	GlobalsBlockVS = "type_Globals_VS"
	GlobalsBlockPS = "type_Globals_PS"
)

// MangledName returns the reflected member name of a numeric parameter
// inside a stage globals block.
func MangledName(block, param string) string {
	return block + "." + param
}

// ParamType enumerates shader parameter types.
type ParamType uint8

const (
	ParamUnknown ParamType = iota
	ParamBool
	ParamFloat
	ParamInt
	ParamInt2
	ParamInt3
	ParamInt4
	ParamVec2
	ParamVec3
	ParamVec4
	ParamMatrix4x4
	ParamTexture
	ParamString
)

// ByteSize returns the exact byte count a value of this type must carry.
// Types with no fixed wire size return zero.
func (t ParamType) ByteSize() uint32 {
	switch t {
	case ParamBool, ParamFloat, ParamInt:
		return 4
	case ParamInt2, ParamVec2:
		return 8
	case ParamInt3, ParamVec3:
		return 12
	case ParamInt4, ParamVec4:
		return 16
	case ParamMatrix4x4:
		return 64
	default:
		return 0
	}
}

func (t ParamType) String() string {
	switch t {
	case ParamBool:
		return "bool"
	case ParamFloat:
		return "float"
	case ParamInt:
		return "int"
	case ParamInt2:
		return "int2"
	case ParamInt3:
		return "int3"
	case ParamInt4:
		return "int4"
	case ParamVec2:
		return "vec2"
	case ParamVec3:
		return "vec3"
	case ParamVec4:
		return "vec4"
	case ParamMatrix4x4:
		return "mat4"
	case ParamTexture:
		return "texture"
	case ParamString:
		return "string"
	default:
		return "unknown"
	}
}

// AttribSemantic names the role of a vertex input.
type AttribSemantic uint8

const (
	AttribPosition AttribSemantic = iota
	AttribNormal
	AttribTangent
	AttribColor
	AttribTexcoord
	AttribTarget
)

// Attrib is a vertex input declaration: a semantic plus the index that
// distinguishes multiple inputs of the same semantic (TEXCOORD0,
// TEXCOORD1, ...).
type Attrib struct {
	Name     string
	Semantic AttribSemantic
	Index    uint32
}

// ParseSemantic maps a semantic string such as "POSITION" or "TEXCOORD3"
// to its semantic and index. The digit suffix is only meaningful for
// TEXCOORD; other semantics use index zero.
func ParseSemantic(s string) (AttribSemantic, uint32, error) {
	switch {
	case s == "POSITION":
		return AttribPosition, 0, nil
	case s == "NORMAL":
		return AttribNormal, 0, nil
	case s == "TANGENT":
		return AttribTangent, 0, nil
	case s == "COLOR":
		return AttribColor, 0, nil
	case s == "TARGET":
		return AttribTarget, 0, nil
	case strings.HasPrefix(s, "TEXCOORD"):
		idx := uint64(0)
		if rest := s[len("TEXCOORD"):]; rest != "" {
			var err error
			idx, err = strconv.ParseUint(rest, 10, 32)
			if err != nil {
				return 0, 0, fmt.Errorf("bad texcoord semantic %q", s)
			}
		}
		return AttribTexcoord, uint32(idx), nil
	default:
		return 0, 0, fmt.Errorf("unknown attrib semantic %q", s)
	}
}

// ParamDecl declares one shader parameter in source order.
type ParamDecl struct {
	Name string
	Type ParamType
	// ArrayCount is nonzero for array parameters.
	ArrayCount uint32
	// DefaultValue is the optional initializer, raw bytes in the
	// parameter's wire layout.
	DefaultValue []byte
	// SamplerName names the sampler state a texture parameter binds by
	// default, empty when none.
	SamplerName string
}

// SamplerDecl declares a named sampler state inside a shader.
type SamplerDecl struct {
	Name string
	Info SamplerInfo
}

// ShaderSource is the parsed form a driver consumes: the translated source
// text plus the declaration tables in source order.
type ShaderSource struct {
	Kind     ShaderKind
	Source   string
	Params   []ParamDecl
	Attribs  []Attrib
	Samplers []SamplerDecl
	// File names the origin of the source for diagnostics.
	File string
}

// SamplerInfo describes a sampler state object.
type SamplerInfo struct {
	Filter        SampleFilter
	AddressU      AddressMode
	AddressV      AddressMode
	AddressW      AddressMode
	MaxAnisotropy uint32
	BorderColor   uint32
}

// SampleFilter selects texture filtering.
type SampleFilter uint8

const (
	FilterPoint SampleFilter = iota
	FilterLinear
	FilterAnisotropic
	FilterMinMagPointMipLinear
	FilterMinPointMagLinearMipPoint
	FilterMinPointMagMipLinear
	FilterMinLinearMagMipPoint
	FilterMinLinearMagPointMipLinear
	FilterMinMagLinearMipPoint
)

// AddressMode selects texture coordinate wrapping.
type AddressMode uint8

const (
	AddressClamp AddressMode = iota
	AddressWrap
	AddressMirror
	AddressBorder
	AddressMirrorOnce
)
