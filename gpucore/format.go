package gpucore

import (
	"github.com/gogpu/gputypes"
)

// ColorFormat is the abstract pixel format used across every driver variant.
//
// Each format maps to exactly three native formats: the resource (storage)
// format, the view format used for sRGB-aware sampling, and the linear view
// format used for explicit linear sampling. The mapping is a pure total
// function: the same ColorFormat always yields the same native triple.
type ColorFormat uint32

const (
	// FormatUnknown is the sentinel for formats with no abstract mapping.
	FormatUnknown ColorFormat = iota
	FormatA8
	FormatR8
	FormatRGBA
	FormatBGRX
	FormatBGRA
	FormatR10G10B10A2
	FormatRGBA16
	FormatR16
	FormatRGBA16F
	FormatRGBA32F
	FormatRG16F
	FormatRG32F
	FormatR16F
	FormatR32F
	FormatDXT1
	FormatDXT3
	FormatDXT5
	FormatR8G8
	FormatRG16

	// Explicitly linear aliases of the sRGB-capable formats. These sample
	// linearly through both views.
	FormatRGBAUnorm
	FormatBGRXUnorm
	FormatBGRAUnorm
)

// String returns the canonical lowercase name of the format.
func (f ColorFormat) String() string {
	switch f {
	case FormatA8:
		return "a8"
	case FormatR8:
		return "r8"
	case FormatRGBA:
		return "rgba"
	case FormatBGRX:
		return "bgrx"
	case FormatBGRA:
		return "bgra"
	case FormatR10G10B10A2:
		return "r10g10b10a2"
	case FormatRGBA16:
		return "rgba16"
	case FormatR16:
		return "r16"
	case FormatRGBA16F:
		return "rgba16f"
	case FormatRGBA32F:
		return "rgba32f"
	case FormatRG16F:
		return "rg16f"
	case FormatRG32F:
		return "rg32f"
	case FormatR16F:
		return "r16f"
	case FormatR32F:
		return "r32f"
	case FormatDXT1:
		return "dxt1"
	case FormatDXT3:
		return "dxt3"
	case FormatDXT5:
		return "dxt5"
	case FormatR8G8:
		return "r8g8"
	case FormatRG16:
		return "rg16"
	case FormatRGBAUnorm:
		return "rgba_unorm"
	case FormatBGRXUnorm:
		return "bgrx_unorm"
	case FormatBGRAUnorm:
		return "bgra_unorm"
	default:
		return "unknown"
	}
}

// BitsPerPixel returns the storage density of the format in bits. Block
// compressed formats report their amortized per-pixel density.
func (f ColorFormat) BitsPerPixel() uint32 {
	switch f {
	case FormatDXT1:
		return 4
	case FormatA8, FormatR8:
		return 8
	case FormatDXT3, FormatDXT5:
		return 8
	case FormatR16, FormatR16F, FormatR8G8:
		return 16
	case FormatRGBA, FormatBGRX, FormatBGRA, FormatR10G10B10A2,
		FormatRG16F, FormatR32F, FormatRG16,
		FormatRGBAUnorm, FormatBGRXUnorm, FormatBGRAUnorm:
		return 32
	case FormatRGBA16, FormatRGBA16F, FormatRG32F:
		return 64
	case FormatRGBA32F:
		return 128
	default:
		return 0
	}
}

// ResourceFormat returns the native storage format for f.
func (f ColorFormat) ResourceFormat() gputypes.TextureFormat {
	switch f {
	case FormatA8, FormatR8:
		return gputypes.TextureFormatR8Unorm
	case FormatRGBA, FormatRGBAUnorm:
		return gputypes.TextureFormatRGBA8Unorm
	case FormatBGRX, FormatBGRA, FormatBGRXUnorm, FormatBGRAUnorm:
		return gputypes.TextureFormatBGRA8Unorm
	case FormatR10G10B10A2:
		return gputypes.TextureFormatRGB10A2Unorm
	case FormatRGBA16:
		return gputypes.TextureFormatRGBA16Unorm
	case FormatR16:
		return gputypes.TextureFormatR16Unorm
	case FormatRGBA16F:
		return gputypes.TextureFormatRGBA16Float
	case FormatRGBA32F:
		return gputypes.TextureFormatRGBA32Float
	case FormatRG16F:
		return gputypes.TextureFormatRG16Float
	case FormatRG32F:
		return gputypes.TextureFormatRG32Float
	case FormatR16F:
		return gputypes.TextureFormatR16Float
	case FormatR32F:
		return gputypes.TextureFormatR32Float
	case FormatDXT1:
		return gputypes.TextureFormatBC1RGBAUnorm
	case FormatDXT3:
		return gputypes.TextureFormatBC2RGBAUnorm
	case FormatDXT5:
		return gputypes.TextureFormatBC3RGBAUnorm
	case FormatR8G8:
		return gputypes.TextureFormatRG8Unorm
	case FormatRG16:
		return gputypes.TextureFormatRG16Unorm
	default:
		return gputypes.TextureFormatUndefined
	}
}

// ViewFormat returns the native format used for sRGB-aware sampling of f.
// Formats without an sRGB variant view through their resource format.
func (f ColorFormat) ViewFormat() gputypes.TextureFormat {
	switch f {
	case FormatRGBA:
		return gputypes.TextureFormatRGBA8UnormSrgb
	case FormatBGRX, FormatBGRA:
		return gputypes.TextureFormatBGRA8UnormSrgb
	case FormatDXT1:
		return gputypes.TextureFormatBC1RGBAUnormSrgb
	case FormatDXT3:
		return gputypes.TextureFormatBC2RGBAUnormSrgb
	case FormatDXT5:
		return gputypes.TextureFormatBC3RGBAUnormSrgb
	default:
		return f.ResourceFormat()
	}
}

// LinearViewFormat returns the native format used for explicit linear
// sampling of f.
func (f ColorFormat) LinearViewFormat() gputypes.TextureFormat {
	return f.ResourceFormat()
}

// Two-plane resource format codes. gputypes has no planar texture formats,
// so the NV12 and P010 storage codes live here, well outside its enum
// range. Backends that allocate planar resources translate them to their
// native equivalents.
const (
	TextureFormatNV12 gputypes.TextureFormat = 0x00010000 + iota
	TextureFormatP010
)

// PlanarResourceFormat returns the native two-plane storage format used when
// a texture of format f is created with the two-plane flag. Only FormatR8
// (NV12 luma) and FormatR16 (P010 luma) have planar counterparts.
func (f ColorFormat) PlanarResourceFormat() gputypes.TextureFormat {
	switch f {
	case FormatR8:
		return TextureFormatNV12
	case FormatR16:
		return TextureFormatP010
	default:
		return gputypes.TextureFormatUndefined
	}
}

// FormatFromNative maps a native texture format back to the abstract
// enumeration. Many-to-one aliasing means the round trip through
// ResourceFormat need not return the original value. Native formats with no
// abstract counterpart return FormatUnknown; callers must handle the
// sentinel explicitly and never treat it as a default format.
func FormatFromNative(nf gputypes.TextureFormat) ColorFormat {
	switch nf {
	case gputypes.TextureFormatR8Unorm:
		return FormatR8
	case gputypes.TextureFormatRGBA8Unorm:
		return FormatRGBA
	case gputypes.TextureFormatRGBA8UnormSrgb:
		return FormatRGBA
	case gputypes.TextureFormatBGRA8Unorm:
		return FormatBGRA
	case gputypes.TextureFormatBGRA8UnormSrgb:
		return FormatBGRA
	case gputypes.TextureFormatRGB10A2Unorm:
		return FormatR10G10B10A2
	case gputypes.TextureFormatRGBA16Unorm:
		return FormatRGBA16
	case gputypes.TextureFormatR16Unorm:
		return FormatR16
	case gputypes.TextureFormatRGBA16Float:
		return FormatRGBA16F
	case gputypes.TextureFormatRGBA32Float:
		return FormatRGBA32F
	case gputypes.TextureFormatRG16Float:
		return FormatRG16F
	case gputypes.TextureFormatRG32Float:
		return FormatRG32F
	case gputypes.TextureFormatR16Float:
		return FormatR16F
	case gputypes.TextureFormatR32Float:
		return FormatR32F
	case gputypes.TextureFormatBC1RGBAUnorm, gputypes.TextureFormatBC1RGBAUnormSrgb:
		return FormatDXT1
	case gputypes.TextureFormatBC2RGBAUnorm, gputypes.TextureFormatBC2RGBAUnormSrgb:
		return FormatDXT3
	case gputypes.TextureFormatBC3RGBAUnorm, gputypes.TextureFormatBC3RGBAUnormSrgb:
		return FormatDXT5
	case gputypes.TextureFormatRG8Unorm:
		return FormatR8G8
	case gputypes.TextureFormatRG16Unorm:
		return FormatRG16
	default:
		return FormatUnknown
	}
}

// TotalLevels returns the length of a full mip chain for the given
// dimensions, i.e. floor(log2(max(w,h,d)))+1, computed by halving so the
// result matches the per-level size walk exactly.
func TotalLevels(width, height, depth uint32) uint32 {
	size := max(width, max(height, depth))
	var n uint32
	for size >= 1 {
		size /= 2
		n++
	}
	return n
}

// LevelDims returns the dimensions of mip level lv for a base size w×h.
// Each axis halves per level with a floor of one.
func LevelDims(w, h, lv uint32) (uint32, uint32) {
	for ; lv > 0; lv-- {
		if w > 1 {
			w /= 2
		}
		if h > 1 {
			h /= 2
		}
	}
	return w, h
}

// LevelByteSize returns the tightly packed byte size of one mip level of the
// given format, bitsPerPixel×w×h/8 with both axes floored at one.
func LevelByteSize(f ColorFormat, w, h uint32) uint32 {
	return f.BitsPerPixel() * w * h / 8
}

// Compressed reports whether the format stores 4x4 blocks.
func (f ColorFormat) Compressed() bool {
	switch f {
	case FormatDXT1, FormatDXT3, FormatDXT5:
		return true
	default:
		return false
	}
}

// TightRowPitch returns the byte length of one tightly packed row (one
// block row for compressed formats) at the given width.
func TightRowPitch(f ColorFormat, w uint32) uint32 {
	switch f {
	case FormatDXT1:
		return max(1, (w+3)/4) * 8
	case FormatDXT3, FormatDXT5:
		return max(1, (w+3)/4) * 16
	default:
		return f.BitsPerPixel() * w / 8
	}
}

// TightRowCount returns the number of rows (block rows for compressed
// formats) at the given height.
func TightRowCount(f ColorFormat, h uint32) uint32 {
	if f.Compressed() {
		return max(1, (h+3)/4)
	}
	return h
}
