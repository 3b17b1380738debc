package gpucore

// TextureDesc describes a texture for driver creation. Depth is 1 for 2D
// and cube textures. Levels of zero requests a full mip chain.
type TextureDesc struct {
	Kind   TextureKind
	Width  uint32
	Height uint32
	Depth  uint32
	Format ColorFormat
	Levels uint32
	Flags  TextureFlags
}

// FaceCount returns the number of faces the texture stores per mip level.
func (d *TextureDesc) FaceCount() uint32 {
	if d.Kind == TextureCube {
		return 6
	}
	return 1
}

// EffectiveLevels resolves the mip level count: zero or BuildMips means a
// full chain.
func (d *TextureDesc) EffectiveLevels() uint32 {
	if d.Levels == 0 || d.Flags&BuildMips != 0 {
		return TotalLevels(d.Width, d.Height, d.Depth)
	}
	return d.Levels
}

// DriverTexture is a backend texture with its views attached. The driver
// owns the view objects; the caller only sees upload, sharing, and
// synchronization.
type DriverTexture interface {
	// UploadLevel replaces the contents of one face and mip level.
	UploadLevel(face, level uint32, data []byte, rowPitch uint32) error
	// SharedHandle returns the export handle, or InvalidHandle when the
	// texture is not shared.
	SharedHandle() SharedHandle
	// AcquireSync acquires the keyed mutex guarding a shared texture.
	// A timeout of zero or less waits without bound.
	AcquireSync(key uint64, timeoutMS int64) error
	// ReleaseSync releases the keyed mutex.
	ReleaseSync(key uint64) error
	Destroy()
}

// DriverStaging is a CPU readable copy destination. The row pitch comes
// from the backend placement query, never from per pixel math.
type DriverStaging interface {
	RowPitch() uint32
	// Map exposes the surface bytes until Unmap. The returned pitch equals
	// RowPitch.
	Map() (data []byte, rowPitch uint32, err error)
	Unmap()
	Destroy()
}

// DriverShader is one compiled stage.
type DriverShader interface {
	Destroy()
}

// DriverProgram is a linked vertex and pixel stage pair exposing the
// reflection surface the resource layer resolves parameters against.
type DriverProgram interface {
	// UniformBlock reports the reflected size of a named uniform block.
	// Absent blocks return ok false.
	UniformBlock(name string) (size uint32, ok bool)
	// MemberOffset reports the reflected offset of a block member by its
	// mangled name.
	MemberOffset(block, member string) (offset uint32, ok bool)
	// AttribLocation resolves a vertex input by name. Missing inputs
	// return ok false and the caller treats that as fatal.
	AttribLocation(name string) (loc int, ok bool)
	// SamplerLocation resolves a texture uniform by name. A missing
	// location is not an error; the parameter may have been optimized
	// out.
	SamplerLocation(name string) (loc int, ok bool)
	// SetBlockData uploads the full contents of a stage globals block.
	SetBlockData(block string, data []byte) error
	// BindTexture binds a texture to a sampler location with the given
	// color space and optional sampler state.
	BindTexture(loc int, tex DriverTexture, srgb bool, sampler DriverSampler) error
	Destroy()
}

// DriverSampler is a backend sampler state object.
type DriverSampler interface {
	Destroy()
}

// Driver is one backend variant. All resource creation is all or nothing:
// a non-nil error means no native objects remain allocated.
type Driver interface {
	Name() string

	CreateTexture(desc *TextureDesc, levelData [][]byte) (DriverTexture, error)
	// OpenSharedTexture imports a texture exported by another device and
	// reports the properties derived from the native resource. ntHandle
	// marks handles of the NT kind; backends whose handle namespace does
	// not split may ignore it.
	OpenSharedTexture(handle SharedHandle, ntHandle bool) (DriverTexture, *TextureDesc, error)
	// WrapTexture adopts an existing native texture object without taking
	// ownership of its storage.
	WrapTexture(native any, desc *TextureDesc) (DriverTexture, error)
	// WrapChromaPlane builds a chroma plane view over a two-plane texture
	// at half resolution. The view does not own the underlying storage.
	WrapChromaPlane(src DriverTexture, desc *TextureDesc) (DriverTexture, error)
	CreateStagingSurface(width, height uint32, format ColorFormat) (DriverStaging, error)
	CreateShader(src *ShaderSource) (DriverShader, error)
	CreateProgram(vs, ps DriverShader) (DriverProgram, error)
	CreateSampler(info *SamplerInfo) (DriverSampler, error)

	// Footprint reports the backend placement of a readback of the given
	// surface: the padded row pitch and the total buffer size. Callers
	// never derive the pitch from per pixel math.
	Footprint(width, height uint32, format ColorFormat) (rowPitch, totalBytes uint32)

	// CopyToStaging records and submits a copy of one texture mip level
	// into a staging surface on the copy queue, then waits for completion.
	CopyToStaging(dst DriverStaging, src DriverTexture, level uint32) error

	// Flush submits any pending work.
	Flush() error
	Destroy()
}

// DiagnosticError carries a toolchain log verbatim. Drivers return it from
// CreateShader and CreateProgram; the resource layer surfaces the log inside
// its typed compile and link errors.
type DiagnosticError struct {
	Log string
	Err error
}

func (e *DiagnosticError) Error() string {
	if e.Log != "" {
		return e.Log
	}
	return e.Err.Error()
}

func (e *DiagnosticError) Unwrap() error { return e.Err }
