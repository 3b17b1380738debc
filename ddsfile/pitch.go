package ddsfile

import "fmt"

// CPFlags alter ComputePitch for legacy writers and aligned allocators.
type CPFlags uint32

const (
	// CPNone computes tight byte aligned pitches.
	CPNone CPFlags = 0
	// CPLegacyDword rounds rows up to 4 bytes.
	CPLegacyDword CPFlags = 0x1
	// CPParagraph rounds rows up to 16 bytes.
	CPParagraph CPFlags = 0x2
	// CPYMM rounds rows up to 32 bytes.
	CPYMM CPFlags = 0x4
	// CPZMM rounds rows up to 64 bytes.
	CPZMM CPFlags = 0x8
	// CPPage4K rounds rows up to 4096 bytes.
	CPPage4K CPFlags = 0x200
	// CPBadDXTNTails sizes the last block compressed levels the way
	// broken legacy writers did.
	CPBadDXTNTails CPFlags = 0x1000
	// CP24BPP overrides the format density to 24 bits.
	CP24BPP CPFlags = 0x10000
	// CP16BPP overrides the format density to 16 bits.
	CP16BPP CPFlags = 0x20000
	// CP8BPP overrides the format density to 8 bits.
	CP8BPP CPFlags = 0x40000
)

// ComputePitch returns the row and slice pitch of one mip level. Block
// compressed and packed formats take their dedicated branches; everything
// else derives from bits per pixel, with the alignment flags applied in
// fixed precedence: page, 64 byte, 32 byte, 16 byte, then dword. The first
// matching flag wins.
func ComputePitch(fmt_ Format, width, height uint32, flags CPFlags) (rowPitch, slicePitch uint64, err error) {
	w, h := uint64(width), uint64(height)
	switch fmt_ {
	case FormatBC1Unorm, FormatBC4Unorm, FormatBC4Snorm:
		if flags&CPBadDXTNTails != 0 {
			nbw := w >> 2
			nbh := h >> 2
			rowPitch = max(1, nbw*8)
			slicePitch = max(1, rowPitch*nbh)
		} else {
			nbw := max(1, (w+3)/4)
			nbh := max(1, (h+3)/4)
			rowPitch = nbw * 8
			slicePitch = rowPitch * nbh
		}
		return rowPitch, slicePitch, nil

	case FormatBC2Unorm, FormatBC3Unorm, FormatBC5Unorm, FormatBC5Snorm,
		FormatBC6HUF16, FormatBC6HSF16, FormatBC7Unorm:
		if flags&CPBadDXTNTails != 0 {
			nbw := w >> 2
			nbh := h >> 2
			rowPitch = max(1, nbw*16)
			slicePitch = max(1, rowPitch*nbh)
		} else {
			nbw := max(1, (w+3)/4)
			nbh := max(1, (h+3)/4)
			rowPitch = nbw * 16
			slicePitch = rowPitch * nbh
		}
		return rowPitch, slicePitch, nil

	case FormatR8G8B8G8Unorm, FormatG8R8G8B8Unorm, FormatYUY2:
		rowPitch = ((w + 1) >> 1) * 4
		return rowPitch, rowPitch * h, nil

	case FormatNV12, Format420Opaque:
		rowPitch = ((w + 1) >> 1) * 2
		return rowPitch, rowPitch * (h + ((h + 1) >> 1)), nil

	case FormatP010, FormatP016:
		rowPitch = ((w + 1) >> 1) * 4
		return rowPitch, rowPitch * (h + ((h + 1) >> 1)), nil

	case FormatNV11:
		rowPitch = ((w + 3) >> 2) * 4
		// Luma and chroma planes have the same number of rows.
		return rowPitch, rowPitch * h * 2, nil
	}

	var bpp uint64
	switch {
	case flags&CP24BPP != 0:
		bpp = 24
	case flags&CP16BPP != 0:
		bpp = 16
	case flags&CP8BPP != 0:
		bpp = 8
	default:
		bpp = uint64(fmt_.BitsPerPixel())
	}
	if bpp == 0 {
		return 0, 0, fmt.Errorf("%w: cannot size format %d", ErrUnsupported, fmt_)
	}

	if flags&(CPLegacyDword|CPParagraph|CPYMM|CPZMM|CPPage4K) != 0 {
		switch {
		case flags&CPPage4K != 0:
			rowPitch = ((w*bpp + 32767) / 32768) * 4096
		case flags&CPZMM != 0:
			rowPitch = ((w*bpp + 511) / 512) * 64
		case flags&CPYMM != 0:
			rowPitch = ((w*bpp + 255) / 256) * 32
		case flags&CPParagraph != 0:
			rowPitch = ((w*bpp + 127) / 128) * 16
		default:
			rowPitch = ((w*bpp + 31) / 32) * 4
		}
	} else {
		rowPitch = (w*bpp + 7) / 8
	}
	return rowPitch, rowPitch * h, nil
}
