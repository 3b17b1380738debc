package ddsfile

import "github.com/gogpu/graphics/gpucore"

// Format is the native pixel format a container resolves to, using the
// DXGI numbering the DX10 extension stores on disk.
type Format uint32

// Formats the decoder understands. The values are the on-disk DXGI codes.
const (
	FormatUnknown           Format = 0
	FormatR32G32B32A32Float Format = 2
	FormatR16G16B16A16Float Format = 10
	FormatR16G16B16A16Unorm Format = 11
	FormatR16G16B16A16Snorm Format = 13
	FormatR32G32Float       Format = 16
	FormatR10G10B10A2Unorm  Format = 24
	FormatR8G8B8A8Unorm     Format = 28
	FormatR8G8B8A8Snorm     Format = 31
	FormatR16G16Float       Format = 34
	FormatR16G16Unorm       Format = 35
	FormatR16G16Snorm       Format = 37
	FormatR32Float          Format = 41
	FormatR8G8Unorm         Format = 49
	FormatR8G8Snorm         Format = 51
	FormatR16Float          Format = 54
	FormatR16Unorm          Format = 56
	FormatR8Unorm           Format = 61
	FormatA8Unorm           Format = 65
	FormatBC1Unorm          Format = 71
	FormatBC2Unorm          Format = 74
	FormatBC3Unorm          Format = 77
	FormatBC4Unorm          Format = 80
	FormatBC4Snorm          Format = 81
	FormatBC5Unorm          Format = 83
	FormatBC5Snorm          Format = 84
	FormatB5G6R5Unorm       Format = 85
	FormatB5G5R5A1Unorm     Format = 86
	FormatB8G8R8A8Unorm     Format = 87
	FormatB8G8R8X8Unorm     Format = 88
	FormatBC6HUF16          Format = 95
	FormatBC6HSF16          Format = 96
	FormatBC7Unorm          Format = 98
	FormatR8G8B8G8Unorm     Format = 68
	FormatG8R8G8B8Unorm     Format = 69
	FormatYUY2              Format = 107
	FormatNV12              Format = 103
	FormatP010              Format = 104
	FormatP016              Format = 105
	Format420Opaque         Format = 106
	FormatNV11              Format = 110
	FormatP8                Format = 113
	FormatA8P8              Format = 114
	FormatB4G4R4A4Unorm     Format = 115
)

// BitsPerPixel returns the storage density of a format in bits, zero for
// formats the decoder does not size.
func (f Format) BitsPerPixel() uint32 {
	switch f {
	case FormatR32G32B32A32Float:
		return 128
	case FormatR16G16B16A16Float, FormatR16G16B16A16Unorm, FormatR16G16B16A16Snorm,
		FormatR32G32Float:
		return 64
	case FormatR10G10B10A2Unorm, FormatR8G8B8A8Unorm, FormatR8G8B8A8Snorm,
		FormatR16G16Float, FormatR16G16Unorm, FormatR16G16Snorm, FormatR32Float,
		FormatB8G8R8A8Unorm, FormatB8G8R8X8Unorm, FormatR8G8B8G8Unorm,
		FormatG8R8G8B8Unorm, FormatYUY2:
		return 32
	case FormatR8G8Unorm, FormatR8G8Snorm, FormatR16Float, FormatR16Unorm,
		FormatB5G6R5Unorm, FormatB5G5R5A1Unorm, FormatB4G4R4A4Unorm:
		return 16
	case FormatR8Unorm, FormatA8Unorm, FormatNV11, FormatP8:
		return 8
	case FormatA8P8:
		return 16
	case FormatNV12, Format420Opaque:
		return 12
	case FormatP010, FormatP016:
		return 24
	case FormatBC1Unorm, FormatBC4Unorm, FormatBC4Snorm:
		return 4
	case FormatBC2Unorm, FormatBC3Unorm, FormatBC5Unorm, FormatBC5Snorm,
		FormatBC6HUF16, FormatBC6HSF16, FormatBC7Unorm:
		return 8
	default:
		return 0
	}
}

// IsPalettized reports formats stored with a palette; the decoder skips
// their 1024 byte palette but cannot produce records for them.
func (f Format) IsPalettized() bool {
	return f == FormatP8 || f == FormatA8P8
}

// ColorFormat maps the native format to the abstract enumeration the
// graphics package consumes, FormatUnknown when no mapping exists.
func (f Format) ColorFormat() gpucore.ColorFormat {
	switch f {
	case FormatR8G8B8A8Unorm:
		return gpucore.FormatRGBA
	case FormatB8G8R8A8Unorm:
		return gpucore.FormatBGRA
	case FormatB8G8R8X8Unorm:
		return gpucore.FormatBGRX
	case FormatR10G10B10A2Unorm:
		return gpucore.FormatR10G10B10A2
	case FormatR16G16B16A16Unorm:
		return gpucore.FormatRGBA16
	case FormatR16G16B16A16Float:
		return gpucore.FormatRGBA16F
	case FormatR32G32B32A32Float:
		return gpucore.FormatRGBA32F
	case FormatR16G16Float:
		return gpucore.FormatRG16F
	case FormatR32G32Float:
		return gpucore.FormatRG32F
	case FormatR16G16Unorm:
		return gpucore.FormatRG16
	case FormatR16Float:
		return gpucore.FormatR16F
	case FormatR32Float:
		return gpucore.FormatR32F
	case FormatR16Unorm:
		return gpucore.FormatR16
	case FormatR8Unorm:
		return gpucore.FormatR8
	case FormatA8Unorm:
		return gpucore.FormatA8
	case FormatR8G8Unorm:
		return gpucore.FormatR8G8
	case FormatBC1Unorm:
		return gpucore.FormatDXT1
	case FormatBC2Unorm:
		return gpucore.FormatDXT3
	case FormatBC3Unorm:
		return gpucore.FormatDXT5
	default:
		return gpucore.FormatUnknown
	}
}
