package graphics

import (
	"errors"
	"fmt"

	"github.com/gogpu/graphics/gpucore"
)

// Sentinel errors returned by resource operations. Callers match them with
// errors.Is.
var (
	// ErrResourceCreation wraps any failure to allocate a native object.
	// Construction is all or nothing: when an operation returns an error
	// wrapping this sentinel, no native objects remain allocated.
	ErrResourceCreation = errors.New("graphics: resource creation failed")

	// ErrDeviceDestroyed is returned when an operation reaches a device
	// that has already been destroyed.
	ErrDeviceDestroyed = errors.New("graphics: device destroyed")

	// ErrTextureDestroyed is returned when an operation reaches a texture
	// that has already been destroyed.
	ErrTextureDestroyed = errors.New("graphics: texture destroyed")

	// ErrBadParameter is returned for structurally invalid arguments.
	ErrBadParameter = errors.New("graphics: bad parameter")

	// ErrSharedOpen wraps failures to import a texture by shared handle,
	// including native formats with no abstract counterpart.
	ErrSharedOpen = errors.New("graphics: open shared texture failed")

	// ErrNotShared is returned when a shared-texture operation reaches a
	// texture created without a shared export flag.
	ErrNotShared = errors.New("graphics: texture is not shared")

	// ErrParamSize is returned when a value's byte length does not match
	// the declared parameter type. The stored value stays unchanged.
	ErrParamSize = errors.New("graphics: parameter size mismatch")
)

// CompileError reports a failed shader translation or compilation. Diag
// carries the toolchain diagnostics verbatim.
type CompileError struct {
	Kind gpucore.ShaderKind
	File string
	Diag string
	Err  error
}

func (e *CompileError) Error() string {
	if e.Diag != "" {
		return fmt.Sprintf("graphics: compile %s shader %s: %s", e.Kind, e.File, e.Diag)
	}
	return fmt.Sprintf("graphics: compile %s shader %s: %v", e.Kind, e.File, e.Err)
}

func (e *CompileError) Unwrap() error { return e.Err }

// LinkError reports a failed program link. Diag carries the link log
// verbatim.
type LinkError struct {
	Diag string
	Err  error
}

func (e *LinkError) Error() string {
	if e.Diag != "" {
		return fmt.Sprintf("graphics: link program: %s", e.Diag)
	}
	return fmt.Sprintf("graphics: link program: %v", e.Err)
}

func (e *LinkError) Unwrap() error { return e.Err }

// AttributeNotFoundError reports a vertex input declared by the shader that
// the linked program does not expose. This is fatal for program creation.
type AttributeNotFoundError struct {
	Name string
}

func (e *AttributeNotFoundError) Error() string {
	return fmt.Sprintf("graphics: vertex attribute %q not found in linked program", e.Name)
}
