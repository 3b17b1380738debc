package ddsfile

import (
	"encoding/binary"
	"errors"
	"testing"
)

// ddsParams drive the synthetic container builder.
type ddsParams struct {
	width, height uint32
	depth         uint32
	mips          uint32
	flags         uint32
	caps2         uint32
	pf            pixelFormat
	dx10          *dx10Header
	payload       []byte
}

func buildDDS(p ddsParams) []byte {
	buf := make([]byte, 0, 4+headerSize+dx10HeaderSize+len(p.payload))
	le := binary.LittleEndian

	u32 := func(v uint32) {
		var b [4]byte
		le.PutUint32(b[:], v)
		buf = append(buf, b[:]...)
	}

	u32(Magic)
	u32(headerSize)
	u32(p.flags)
	u32(p.height)
	u32(p.width)
	u32(0) // pitch or linear size
	u32(p.depth)
	u32(p.mips)
	for i := 0; i < 11; i++ {
		u32(0)
	}
	u32(pixelFormatSize)
	u32(p.pf.Flags)
	u32(p.pf.FourCC)
	u32(p.pf.RGBBitCount)
	u32(p.pf.RBitMask)
	u32(p.pf.GBitMask)
	u32(p.pf.BBitMask)
	u32(p.pf.ABitMask)
	u32(0) // caps
	u32(p.caps2)
	u32(0)
	u32(0)
	u32(0)
	if p.dx10 != nil {
		u32(p.dx10.DXGIFormat)
		u32(p.dx10.ResourceDimension)
		u32(p.dx10.MiscFlag)
		u32(p.dx10.ArraySize)
		u32(p.dx10.MiscFlags2)
	}
	return append(buf, p.payload...)
}

func dxt1PixelFormat() pixelFormat {
	return pixelFormat{Flags: pfFourCC, FourCC: fourCC('D', 'X', 'T', '1')}
}

func TestDecodeHeaderLegacyDXT1(t *testing.T) {
	data := buildDDS(ddsParams{width: 8, height: 8, mips: 2, pf: dxt1PixelFormat()})
	meta, offset, err := DecodeHeader(data)
	if err != nil {
		t.Fatalf("DecodeHeader: %v", err)
	}
	if meta.Format != FormatBC1Unorm {
		t.Errorf("format = %d, want BC1", meta.Format)
	}
	if meta.Dimension != Dim2D || meta.Cubemap {
		t.Errorf("dimension = %v cube=%v, want plain 2D", meta.Dimension, meta.Cubemap)
	}
	if meta.MipLevels != 2 || meta.ArraySize != 1 {
		t.Errorf("mips=%d array=%d, want 2/1", meta.MipLevels, meta.ArraySize)
	}
	if offset != 4+headerSize {
		t.Errorf("pixel offset = %d, want %d", offset, 4+headerSize)
	}
}

func TestDecodeHeaderLegacyRGBMasks(t *testing.T) {
	tests := []struct {
		name string
		pf   pixelFormat
		want Format
	}{
		{"bgra8888", pixelFormat{Flags: pfRGB, RGBBitCount: 32,
			RBitMask: 0x00ff0000, GBitMask: 0x0000ff00, BBitMask: 0x000000ff, ABitMask: 0xff000000},
			FormatB8G8R8A8Unorm},
		{"rgba8888", pixelFormat{Flags: pfRGB, RGBBitCount: 32,
			RBitMask: 0x000000ff, GBitMask: 0x0000ff00, BBitMask: 0x00ff0000, ABitMask: 0xff000000},
			FormatR8G8B8A8Unorm},
		{"bgrx8888", pixelFormat{Flags: pfRGB, RGBBitCount: 32,
			RBitMask: 0x00ff0000, GBitMask: 0x0000ff00, BBitMask: 0x000000ff},
			FormatB8G8R8X8Unorm},
		{"b5g6r5", pixelFormat{Flags: pfRGB, RGBBitCount: 16,
			RBitMask: 0xf800, GBitMask: 0x07e0, BBitMask: 0x001f},
			FormatB5G6R5Unorm},
		{"luminance8", pixelFormat{Flags: pfLuminance, RGBBitCount: 8, RBitMask: 0xff},
			FormatR8Unorm},
		{"alpha8", pixelFormat{Flags: pfAlpha, RGBBitCount: 8},
			FormatA8Unorm},
		{"fourcc111", pixelFormat{Flags: pfFourCC, FourCC: 111},
			FormatR16Float},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := buildDDS(ddsParams{width: 4, height: 4, mips: 1, pf: tt.pf})
			meta, _, err := DecodeHeader(data)
			if err != nil {
				t.Fatalf("DecodeHeader: %v", err)
			}
			if meta.Format != tt.want {
				t.Errorf("format = %d, want %d", meta.Format, tt.want)
			}
		})
	}
}

func TestDecodeHeaderLegacyCube(t *testing.T) {
	data := buildDDS(ddsParams{
		width: 4, height: 4, mips: 1, pf: dxt1PixelFormat(),
		caps2: caps2CubemapAllFaces,
	})
	meta, _, err := DecodeHeader(data)
	if err != nil {
		t.Fatalf("DecodeHeader: %v", err)
	}
	if !meta.IsCubemap() || meta.ArraySize != 6 {
		t.Errorf("cube=%v array=%d, want cube with 6 faces", meta.Cubemap, meta.ArraySize)
	}

	// A partial cube is not loadable.
	partial := buildDDS(ddsParams{
		width: 4, height: 4, mips: 1, pf: dxt1PixelFormat(),
		caps2: caps2CubemapPositiveX,
	})
	if _, _, err := DecodeHeader(partial); !errors.Is(err, ErrUnsupported) {
		t.Errorf("partial cube: err = %v, want ErrUnsupported", err)
	}
}

func TestDecodeHeaderDX10CubeKeepsArraySize(t *testing.T) {
	// The misc flag marks the cube; the stored array size already counts
	// the six faces and must not be multiplied again.
	data := buildDDS(ddsParams{
		width: 4, height: 4, mips: 1,
		pf: pixelFormat{Flags: pfFourCC, FourCC: fourCCDX10},
		dx10: &dx10Header{
			DXGIFormat:        uint32(FormatR8G8B8A8Unorm),
			ResourceDimension: dimensionTexture2D,
			MiscFlag:          miscTextureCube,
			ArraySize:         6,
		},
	})
	meta, offset, err := DecodeHeader(data)
	if err != nil {
		t.Fatalf("DecodeHeader: %v", err)
	}
	if !meta.Cubemap {
		t.Error("cube misc flag not honored")
	}
	if meta.ArraySize != 6 {
		t.Errorf("array size = %d, want 6", meta.ArraySize)
	}
	if offset != 4+headerSize+dx10HeaderSize {
		t.Errorf("pixel offset = %d, want %d", offset, 4+headerSize+dx10HeaderSize)
	}
}

func TestDecodeHeaderDX10Volume(t *testing.T) {
	data := buildDDS(ddsParams{
		width: 8, height: 8, depth: 4, mips: 1,
		flags: headerFlagVolume,
		pf:    pixelFormat{Flags: pfFourCC, FourCC: fourCCDX10},
		dx10: &dx10Header{
			DXGIFormat:        uint32(FormatR8Unorm),
			ResourceDimension: dimensionTexture3D,
			ArraySize:         1,
		},
	})
	meta, _, err := DecodeHeader(data)
	if err != nil {
		t.Fatalf("DecodeHeader: %v", err)
	}
	if meta.Dimension != Dim3D || meta.Depth != 4 {
		t.Errorf("dim=%v depth=%d, want 3D depth 4", meta.Dimension, meta.Depth)
	}

	// Missing the volume header flag rejects the container.
	noFlag := buildDDS(ddsParams{
		width: 8, height: 8, depth: 4, mips: 1,
		pf: pixelFormat{Flags: pfFourCC, FourCC: fourCCDX10},
		dx10: &dx10Header{
			DXGIFormat:        uint32(FormatR8Unorm),
			ResourceDimension: dimensionTexture3D,
			ArraySize:         1,
		},
	})
	if _, _, err := DecodeHeader(noFlag); !errors.Is(err, ErrUnsupported) {
		t.Errorf("missing volume flag: err = %v, want ErrUnsupported", err)
	}
}

func TestDecodeHeaderDX10Rejections(t *testing.T) {
	base := func() ddsParams {
		return ddsParams{
			width: 4, height: 4, mips: 1,
			pf: pixelFormat{Flags: pfFourCC, FourCC: fourCCDX10},
		}
	}

	zeroArray := base()
	zeroArray.dx10 = &dx10Header{DXGIFormat: uint32(FormatR8G8B8A8Unorm), ResourceDimension: dimensionTexture2D}
	if _, _, err := DecodeHeader(buildDDS(zeroArray)); !errors.Is(err, ErrUnsupported) {
		t.Errorf("zero array size: err = %v, want ErrUnsupported", err)
	}

	badFormat := base()
	badFormat.dx10 = &dx10Header{DXGIFormat: 9999, ResourceDimension: dimensionTexture2D, ArraySize: 1}
	if _, _, err := DecodeHeader(buildDDS(badFormat)); !errors.Is(err, ErrUnsupported) {
		t.Errorf("unknown DXGI format: err = %v, want ErrUnsupported", err)
	}

	volArray := base()
	volArray.flags = headerFlagVolume
	volArray.depth = 2
	volArray.dx10 = &dx10Header{DXGIFormat: uint32(FormatR8Unorm), ResourceDimension: dimensionTexture3D, ArraySize: 2}
	if _, _, err := DecodeHeader(buildDDS(volArray)); !errors.Is(err, ErrUnsupported) {
		t.Errorf("3D array: err = %v, want ErrUnsupported", err)
	}
}

func TestDecodeHeaderPalettized(t *testing.T) {
	data := buildDDS(ddsParams{
		width: 4, height: 4, mips: 1,
		pf: pixelFormat{Flags: pfPal8, RGBBitCount: 8},
	})
	if _, _, err := DecodeHeader(data); !errors.Is(err, ErrUnsupported) {
		t.Errorf("palettized: err = %v, want ErrUnsupported", err)
	}
}

func TestDecodeHeaderNotDDS(t *testing.T) {
	data := buildDDS(ddsParams{width: 4, height: 4, mips: 1, pf: dxt1PixelFormat()})
	data[0] = 'X'
	if _, _, err := DecodeHeader(data); !errors.Is(err, ErrNotDDS) {
		t.Errorf("bad magic: err = %v, want ErrNotDDS", err)
	}
}

func TestDecodeHeaderTruncated(t *testing.T) {
	data := buildDDS(ddsParams{width: 4, height: 4, mips: 1, pf: dxt1PixelFormat()})
	if _, _, err := DecodeHeader(data[:64]); !errors.Is(err, ErrTruncated) {
		t.Errorf("short header: err = %v, want ErrTruncated", err)
	}

	// A DX10 fourCC with no extension block is truncated too.
	dx10 := buildDDS(ddsParams{
		width: 4, height: 4, mips: 1,
		pf: pixelFormat{Flags: pfFourCC, FourCC: fourCCDX10},
	})
	if _, _, err := DecodeHeader(dx10); !errors.Is(err, ErrTruncated) {
		t.Errorf("missing DX10 block: err = %v, want ErrTruncated", err)
	}
}

func TestDecodeHeaderZeroMipsMeansOne(t *testing.T) {
	data := buildDDS(ddsParams{width: 4, height: 4, pf: dxt1PixelFormat()})
	meta, _, err := DecodeHeader(data)
	if err != nil {
		t.Fatalf("DecodeHeader: %v", err)
	}
	if meta.MipLevels != 1 {
		t.Errorf("mip levels = %d, want 1", meta.MipLevels)
	}
}

func TestDecodeHeaderBounds(t *testing.T) {
	wide := buildDDS(ddsParams{width: maxDimension + 1, height: 4, mips: 1, pf: dxt1PixelFormat()})
	if _, _, err := DecodeHeader(wide); !errors.Is(err, ErrUnsupported) {
		t.Errorf("oversize width: err = %v, want ErrUnsupported", err)
	}
	deep := buildDDS(ddsParams{
		width: 4, height: 4, depth: maxVolumeExt + 1, mips: 1,
		flags: headerFlagVolume, pf: dxt1PixelFormat(),
	})
	if _, _, err := DecodeHeader(deep); !errors.Is(err, ErrUnsupported) {
		t.Errorf("oversize depth: err = %v, want ErrUnsupported", err)
	}
}
