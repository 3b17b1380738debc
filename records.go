package graphics

import (
	"fmt"
	"unsafe"

	"github.com/gogpu/graphics/gpucore"
)

// CreateTextureFromRecords builds a texture from decoded container
// records, the shape produced by the ddsfile package. Array and cube
// containers order records face major (all levels of face 0, then face 1);
// volume containers order them level major with one record per depth
// slice.
//
// Every record's format must equal the container format. For volume
// textures the depth slices of one level must be contiguous in the decode
// buffer; a gap between consecutive slices rejects the container.
func CreateTextureFromRecords(d *Device, meta gpucore.ImageMeta, records []gpucore.ImageRecord, flags gpucore.TextureFlags) (*Texture, error) {
	if want := meta.RecordCount(); uint32(len(records)) != want {
		return nil, fmt.Errorf("%w: %d records, container describes %d", ErrBadParameter, len(records), want)
	}
	for i := range records {
		if records[i].Format != meta.Format {
			return nil, fmt.Errorf("%w: record %d format %s differs from container format %s",
				ErrBadParameter, i, records[i].Format, meta.Format)
		}
	}

	switch meta.Kind {
	case gpucore.Texture3D:
		data, err := packVolumeRecords(&meta, records)
		if err != nil {
			return nil, err
		}
		return NewVolumeTexture(d, meta.Width, meta.Height, meta.Depth, meta.Format, meta.MipLevels, data, flags)
	case gpucore.TextureCube:
		if meta.ArraySize != 6 {
			return nil, fmt.Errorf("%w: cube container with array size %d", ErrBadParameter, meta.ArraySize)
		}
		return NewTextureCube(d, meta.Width, meta.Format, meta.MipLevels, packRecords(records), flags)
	default:
		if meta.ArraySize != 1 {
			return nil, fmt.Errorf("%w: 2D container with array size %d", ErrBadParameter, meta.ArraySize)
		}
		return NewTexture2D(d, meta.Width, meta.Height, meta.Format, meta.MipLevels, packRecords(records), flags)
	}
}

// packRecords repacks each record to a tight row pitch.
func packRecords(records []gpucore.ImageRecord) [][]byte {
	out := make([][]byte, len(records))
	for i := range records {
		out[i] = tightCopy(&records[i])
	}
	return out
}

// packVolumeRecords validates that consecutive depth slices of each level
// are contiguous, then merges them into one tight slice per level.
func packVolumeRecords(meta *gpucore.ImageMeta, records []gpucore.ImageRecord) ([][]byte, error) {
	out := make([][]byte, 0, meta.MipLevels)
	idx := 0
	depth := meta.Depth
	for lv := uint32(0); lv < meta.MipLevels; lv++ {
		var level []byte
		for z := uint32(0); z < depth; z++ {
			rec := &records[idx]
			if z > 0 {
				prev := &records[idx-1]
				if !slicesContiguous(prev, rec) {
					return nil, fmt.Errorf("%w: volume level %d slice %d not contiguous with slice %d",
						ErrBadParameter, lv, z, z-1)
				}
			}
			level = append(level, tightCopy(rec)...)
			idx++
		}
		out = append(out, level)
		if depth > 1 {
			depth /= 2
		}
	}
	return out, nil
}

// slicesContiguous reports whether cur's pixels start exactly one slice
// pitch after prev's inside the same backing array. The comparison is on
// addresses, not slice capacity, so records carved out with three-index
// expressions still qualify.
func slicesContiguous(prev, cur *gpucore.ImageRecord) bool {
	if len(prev.Pixels) == 0 || len(cur.Pixels) == 0 {
		return false
	}
	base := uintptr(unsafe.Pointer(&prev.Pixels[0]))
	return base+uintptr(prev.SlicePitch) == uintptr(unsafe.Pointer(&cur.Pixels[0]))
}

// tightCopy copies a record's pixels into a freshly packed slice, removing
// any row padding.
func tightCopy(rec *gpucore.ImageRecord) []byte {
	tightRow := gpucore.TightRowPitch(rec.Format, rec.Width)
	rows := gpucore.TightRowCount(rec.Format, rec.Height)
	out := make([]byte, tightRow*rows)
	if rec.RowPitch == tightRow {
		copy(out, rec.Pixels)
		return out
	}
	for r := uint32(0); r < rows; r++ {
		src := rec.Pixels[r*rec.RowPitch:]
		if uint32(len(src)) > tightRow {
			src = src[:tightRow]
		}
		copy(out[r*tightRow:], src)
	}
	return out
}
