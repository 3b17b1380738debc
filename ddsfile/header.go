package ddsfile

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
)

// Magic is the little endian "DDS " word every container starts with.
const Magic uint32 = 0x20534444

// On-disk sizes. The header size fields must hold exactly these values.
const (
	headerSize      = 124
	pixelFormatSize = 32
	dx10HeaderSize  = 20
	paletteSize     = 1024
)

// Pixel format flag bits.
const (
	pfFourCC    = 0x00000004
	pfRGB       = 0x00000040
	pfRGBA      = 0x00000041
	pfLuminance = 0x00020000
	pfAlpha     = 0x00000002
	pfPal8      = 0x00000020
	pfBumpDuDv  = 0x00080000
)

// Header flag and caps bits.
const (
	headerFlagVolume = 0x00800000
	headerFlagHeight = 0x00000002

	caps2Cubemap          = 0x00000200
	caps2CubemapPositiveX = 0x00000600
	caps2CubemapNegativeX = 0x00000a00
	caps2CubemapPositiveY = 0x00001200
	caps2CubemapNegativeY = 0x00002200
	caps2CubemapPositiveZ = 0x00004200
	caps2CubemapNegativeZ = 0x00008200
	caps2CubemapAllFaces  = caps2CubemapPositiveX | caps2CubemapNegativeX |
		caps2CubemapPositiveY | caps2CubemapNegativeY |
		caps2CubemapPositiveZ | caps2CubemapNegativeZ
)

// DX10 extension resource dimensions and misc flags.
const (
	dimensionTexture1D = 2
	dimensionTexture2D = 3
	dimensionTexture3D = 4

	miscTextureCube = 0x4
)

// Hardware bounds enforced while decoding.
const (
	maxDimension = 16384
	maxMipLevels = 15
	maxArraySize = 2048
	maxVolumeExt = 2048
)

// pixelFormat is the 32 byte DDS_PIXELFORMAT block.
type pixelFormat struct {
	Size        uint32
	Flags       uint32
	FourCC      uint32
	RGBBitCount uint32
	RBitMask    uint32
	GBitMask    uint32
	BBitMask    uint32
	ABitMask    uint32
}

// fileHeader is the 124 byte DDS_HEADER.
type fileHeader struct {
	Size              uint32
	Flags             uint32
	Height            uint32
	Width             uint32
	PitchOrLinearSize uint32
	Depth             uint32
	MipMapCount       uint32
	Reserved1         [11]uint32
	PixelFormat       pixelFormat
	Caps              uint32
	Caps2             uint32
	Caps3             uint32
	Caps4             uint32
	Reserved2         uint32
}

// dx10Header is the 20 byte extension following a "DX10" fourCC.
type dx10Header struct {
	DXGIFormat        uint32
	ResourceDimension uint32
	MiscFlag          uint32
	ArraySize         uint32
	MiscFlags2        uint32
}

// Dimension is the resource shape of a decoded container.
type Dimension uint8

const (
	Dim1D Dimension = iota + 1
	Dim2D
	Dim3D
)

// AlphaMode is the DX10 miscFlags2 alpha interpretation.
type AlphaMode uint8

const (
	AlphaUnknown AlphaMode = iota
	AlphaStraight
	AlphaPremultiplied
	AlphaOpaque
	AlphaCustom
)

// Metadata describes a decoded container.
type Metadata struct {
	Width     uint32
	Height    uint32
	Depth     uint32
	ArraySize uint32
	MipLevels uint32
	Format    Format
	Dimension Dimension
	Cubemap   bool
	AlphaMode AlphaMode
}

// IsCubemap reports whether the container holds a cube texture.
func (m *Metadata) IsCubemap() bool { return m.Cubemap }

var (
	// ErrNotDDS is returned when the magic word is missing.
	ErrNotDDS = errors.New("ddsfile: not a DDS container")
	// ErrTruncated is returned when the data ends inside a header or the
	// pixel payload.
	ErrTruncated = errors.New("ddsfile: truncated container")
	// ErrUnsupported is returned for containers the decoder cannot
	// express: unknown pixel formats, palettized data, or out of bounds
	// dimensions.
	ErrUnsupported = errors.New("ddsfile: unsupported container")
)

func fourCC(a, b, c, d byte) uint32 {
	return uint32(a) | uint32(b)<<8 | uint32(c)<<16 | uint32(d)<<24
}

var fourCCDX10 = fourCC('D', 'X', '1', '0')

// DecodeHeader parses the container header and returns the metadata plus
// the offset of the pixel data within data.
func DecodeHeader(data []byte) (*Metadata, int, error) {
	if len(data) < 4+headerSize {
		return nil, 0, fmt.Errorf("%w: %d bytes", ErrTruncated, len(data))
	}
	if binary.LittleEndian.Uint32(data) != Magic {
		return nil, 0, ErrNotDDS
	}
	var hdr fileHeader
	if err := binary.Read(bytes.NewReader(data[4:]), binary.LittleEndian, &hdr); err != nil {
		return nil, 0, fmt.Errorf("%w: %w", ErrTruncated, err)
	}
	if hdr.Size != headerSize || hdr.PixelFormat.Size != pixelFormatSize {
		return nil, 0, fmt.Errorf("%w: bad header size %d/%d", ErrUnsupported, hdr.Size, hdr.PixelFormat.Size)
	}

	meta := &Metadata{
		Width:     hdr.Width,
		Height:    hdr.Height,
		Depth:     1,
		ArraySize: 1,
		MipLevels: hdr.MipMapCount,
	}
	if meta.MipLevels == 0 {
		meta.MipLevels = 1
	}

	offset := 4 + headerSize
	if hdr.PixelFormat.Flags&pfFourCC != 0 && hdr.PixelFormat.FourCC == fourCCDX10 {
		if len(data) < offset+dx10HeaderSize {
			return nil, 0, fmt.Errorf("%w: missing DX10 extension", ErrTruncated)
		}
		var ext dx10Header
		if err := binary.Read(bytes.NewReader(data[offset:]), binary.LittleEndian, &ext); err != nil {
			return nil, 0, fmt.Errorf("%w: %w", ErrTruncated, err)
		}
		offset += dx10HeaderSize
		if err := decodeDX10(meta, &hdr, &ext); err != nil {
			return nil, 0, err
		}
	} else {
		if err := decodeLegacy(meta, &hdr); err != nil {
			return nil, 0, err
		}
	}

	if meta.Format.IsPalettized() {
		// Skip the palette; the payload cannot be expressed as records.
		offset += paletteSize
		return nil, 0, fmt.Errorf("%w: palettized format", ErrUnsupported)
	}
	if err := checkBounds(meta); err != nil {
		return nil, 0, err
	}
	return meta, offset, nil
}

func decodeDX10(meta *Metadata, hdr *fileHeader, ext *dx10Header) error {
	if ext.ArraySize == 0 {
		return fmt.Errorf("%w: DX10 array size zero", ErrUnsupported)
	}
	meta.ArraySize = ext.ArraySize
	meta.Format = Format(ext.DXGIFormat)
	if meta.Format == FormatUnknown || meta.Format.BitsPerPixel() == 0 {
		return fmt.Errorf("%w: DXGI format %d", ErrUnsupported, ext.DXGIFormat)
	}
	meta.AlphaMode = AlphaMode(ext.MiscFlags2 & 0x7)

	switch ext.ResourceDimension {
	case dimensionTexture1D:
		if hdr.Flags&headerFlagHeight != 0 && hdr.Height != 1 {
			return fmt.Errorf("%w: 1D texture with height %d", ErrUnsupported, hdr.Height)
		}
		meta.Height = 1
		meta.Dimension = Dim1D
	case dimensionTexture2D:
		// The cube misc flag marks the texture as a cube; the stored
		// array size already counts faces.
		if ext.MiscFlag&miscTextureCube != 0 {
			meta.Cubemap = true
		}
		meta.Dimension = Dim2D
	case dimensionTexture3D:
		if hdr.Flags&headerFlagVolume == 0 {
			return fmt.Errorf("%w: 3D texture without volume flag", ErrUnsupported)
		}
		if ext.ArraySize > 1 {
			return fmt.Errorf("%w: 3D texture array", ErrUnsupported)
		}
		meta.Depth = hdr.Depth
		meta.Dimension = Dim3D
	default:
		return fmt.Errorf("%w: resource dimension %d", ErrUnsupported, ext.ResourceDimension)
	}
	return nil
}

func decodeLegacy(meta *Metadata, hdr *fileHeader) error {
	if hdr.Flags&headerFlagVolume != 0 {
		meta.Depth = hdr.Depth
		meta.Dimension = Dim3D
	} else {
		if hdr.Caps2&caps2Cubemap != 0 {
			// Partial cubes were writable by old tools; they are not
			// loadable.
			if hdr.Caps2&caps2CubemapAllFaces != caps2CubemapAllFaces {
				return fmt.Errorf("%w: cubemap missing faces", ErrUnsupported)
			}
			meta.ArraySize = 6
			meta.Cubemap = true
		}
		meta.Dimension = Dim2D
	}
	meta.Format = legacyFormat(&hdr.PixelFormat)
	if meta.Format == FormatUnknown {
		return fmt.Errorf("%w: legacy pixel format", ErrUnsupported)
	}
	return nil
}

func checkBounds(meta *Metadata) error {
	if meta.MipLevels > maxMipLevels {
		return fmt.Errorf("%w: %d mip levels", ErrUnsupported, meta.MipLevels)
	}
	if meta.ArraySize > maxArraySize {
		return fmt.Errorf("%w: array size %d", ErrUnsupported, meta.ArraySize)
	}
	if meta.Width > maxDimension || meta.Height > maxDimension {
		return fmt.Errorf("%w: %dx%d exceeds %d", ErrUnsupported, meta.Width, meta.Height, maxDimension)
	}
	if meta.Dimension == Dim3D && meta.Depth > maxVolumeExt {
		return fmt.Errorf("%w: depth %d", ErrUnsupported, meta.Depth)
	}
	return nil
}

// isBitMask reports an exact channel mask match.
func (pf *pixelFormat) isBitMask(r, g, b, a uint32) bool {
	return pf.RBitMask == r && pf.GBitMask == g && pf.BBitMask == b && pf.ABitMask == a
}

// legacyFormat resolves a pre-DX10 pixel format block. The match order
// follows the standard disambiguation table; reordering it changes which
// format ambiguous masks resolve to.
func legacyFormat(pf *pixelFormat) Format {
	switch {
	case pf.Flags&pfRGB != 0:
		switch pf.RGBBitCount {
		case 32:
			switch {
			case pf.isBitMask(0x000000ff, 0x0000ff00, 0x00ff0000, 0xff000000):
				return FormatR8G8B8A8Unorm
			case pf.isBitMask(0x00ff0000, 0x0000ff00, 0x000000ff, 0xff000000):
				return FormatB8G8R8A8Unorm
			case pf.isBitMask(0x00ff0000, 0x0000ff00, 0x000000ff, 0):
				return FormatB8G8R8X8Unorm
			case pf.isBitMask(0x3ff00000, 0x000ffc00, 0x000003ff, 0xc0000000):
				// Historic writers swapped red and blue here; the
				// table keeps their meaning.
				return FormatR10G10B10A2Unorm
			case pf.isBitMask(0x0000ffff, 0xffff0000, 0, 0):
				return FormatR16G16Unorm
			case pf.isBitMask(0xffffffff, 0, 0, 0):
				return FormatR32Float
			}
		case 16:
			switch {
			case pf.isBitMask(0x7c00, 0x03e0, 0x001f, 0x8000):
				return FormatB5G5R5A1Unorm
			case pf.isBitMask(0xf800, 0x07e0, 0x001f, 0):
				return FormatB5G6R5Unorm
			case pf.isBitMask(0x0f00, 0x00f0, 0x000f, 0xf000):
				return FormatB4G4R4A4Unorm
			}
		}
	case pf.Flags&pfLuminance != 0:
		switch pf.RGBBitCount {
		case 8:
			if pf.isBitMask(0x000000ff, 0, 0, 0) {
				return FormatR8Unorm
			}
		case 16:
			if pf.isBitMask(0x0000ffff, 0, 0, 0) {
				return FormatR16Unorm
			}
			if pf.isBitMask(0x000000ff, 0, 0, 0x0000ff00) {
				return FormatR8G8Unorm
			}
		}
	case pf.Flags&pfAlpha != 0:
		if pf.RGBBitCount == 8 {
			return FormatA8Unorm
		}
	case pf.Flags&pfPal8 != 0:
		if pf.RGBBitCount == 8 {
			return FormatP8
		}
	case pf.Flags&pfBumpDuDv != 0:
		switch pf.RGBBitCount {
		case 16:
			if pf.isBitMask(0x00ff, 0xff00, 0, 0) {
				return FormatR8G8Snorm
			}
		case 32:
			switch {
			case pf.isBitMask(0x000000ff, 0x0000ff00, 0x00ff0000, 0xff000000):
				return FormatR8G8B8A8Snorm
			case pf.isBitMask(0x0000ffff, 0xffff0000, 0, 0):
				return FormatR16G16Snorm
			}
		}
	case pf.Flags&pfFourCC != 0:
		switch pf.FourCC {
		case fourCC('D', 'X', 'T', '1'):
			return FormatBC1Unorm
		case fourCC('D', 'X', 'T', '2'), fourCC('D', 'X', 'T', '3'):
			return FormatBC2Unorm
		case fourCC('D', 'X', 'T', '4'), fourCC('D', 'X', 'T', '5'):
			return FormatBC3Unorm
		case fourCC('A', 'T', 'I', '1'), fourCC('B', 'C', '4', 'U'):
			return FormatBC4Unorm
		case fourCC('B', 'C', '4', 'S'):
			return FormatBC4Snorm
		case fourCC('A', 'T', 'I', '2'), fourCC('B', 'C', '5', 'U'):
			return FormatBC5Unorm
		case fourCC('B', 'C', '5', 'S'):
			return FormatBC5Snorm
		case fourCC('R', 'G', 'B', 'G'):
			return FormatR8G8B8G8Unorm
		case fourCC('G', 'R', 'G', 'B'):
			return FormatG8R8G8B8Unorm
		case fourCC('Y', 'U', 'Y', '2'):
			return FormatYUY2
		case 36:
			return FormatR16G16B16A16Unorm
		case 110:
			return FormatR16G16B16A16Snorm
		case 111:
			return FormatR16Float
		case 112:
			return FormatR16G16Float
		case 113:
			return FormatR16G16B16A16Float
		case 114:
			return FormatR32Float
		case 115:
			return FormatR32G32Float
		case 116:
			return FormatR32G32B32A32Float
		}
	}
	return FormatUnknown
}
