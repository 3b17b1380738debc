package ddsfile

import (
	"fmt"
	"os"

	"github.com/gogpu/graphics/gpucore"
)

// ImageMeta converts the container metadata to the shape the graphics
// package consumes.
func (m *Metadata) ImageMeta() gpucore.ImageMeta {
	kind := gpucore.Texture2D
	switch {
	case m.Dimension == Dim3D:
		kind = gpucore.Texture3D
	case m.Cubemap:
		kind = gpucore.TextureCube
	}
	return gpucore.ImageMeta{
		Kind:      kind,
		Width:     m.Width,
		Height:    m.Height,
		Depth:     m.Depth,
		Format:    m.Format.ColorFormat(),
		ArraySize: m.ArraySize,
		MipLevels: m.MipLevels,
	}
}

// Decode parses a DDS container and returns its metadata and image
// records. Records alias data; the caller must keep it alive while they
// are in use. Array and cube containers order records item major (every
// level of face zero, then face one); volume containers order them level
// major with one record per depth slice, contiguous within a level.
func Decode(data []byte) (*Metadata, []gpucore.ImageRecord, error) {
	meta, offset, err := DecodeHeader(data)
	if err != nil {
		return nil, nil, err
	}
	if meta.Format.ColorFormat() == gpucore.FormatUnknown {
		return nil, nil, fmt.Errorf("%w: format %d has no abstract mapping", ErrUnsupported, meta.Format)
	}
	records, err := assembleRecords(meta, data, offset)
	if err != nil {
		return nil, nil, err
	}
	return meta, records, nil
}

// Load reads and decodes a DDS file. The records alias the returned
// buffer.
func Load(path string) (*Metadata, []gpucore.ImageRecord, []byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("ddsfile: %w", err)
	}
	meta, records, err := Decode(data)
	if err != nil {
		return nil, nil, nil, err
	}
	return meta, records, data, nil
}

func assembleRecords(meta *Metadata, data []byte, offset int) ([]gpucore.ImageRecord, error) {
	cf := meta.Format.ColorFormat()
	pos := uint64(offset)
	end := uint64(len(data))

	if meta.Dimension == Dim3D {
		records := make([]gpucore.ImageRecord, 0, meta.ImageMeta().RecordCount())
		w, h, d := meta.Width, meta.Height, meta.Depth
		for lv := uint32(0); lv < meta.MipLevels; lv++ {
			rowPitch, slicePitch, err := ComputePitch(meta.Format, w, h, CPNone)
			if err != nil {
				return nil, err
			}
			for z := uint32(0); z < d; z++ {
				if pos+slicePitch > end {
					return nil, fmt.Errorf("%w: pixel data ends at level %d slice %d", ErrTruncated, lv, z)
				}
				records = append(records, gpucore.ImageRecord{
					Width: w, Height: h, Format: cf,
					RowPitch: uint32(rowPitch), SlicePitch: uint32(slicePitch),
					Pixels: data[pos : pos+slicePitch],
				})
				pos += slicePitch
			}
			if w > 1 {
				w /= 2
			}
			if h > 1 {
				h /= 2
			}
			if d > 1 {
				d /= 2
			}
		}
		return records, nil
	}

	records := make([]gpucore.ImageRecord, 0, meta.ArraySize*meta.MipLevels)
	for item := uint32(0); item < meta.ArraySize; item++ {
		w, h := meta.Width, meta.Height
		for lv := uint32(0); lv < meta.MipLevels; lv++ {
			rowPitch, slicePitch, err := ComputePitch(meta.Format, w, h, CPNone)
			if err != nil {
				return nil, err
			}
			if pos+slicePitch > end {
				return nil, fmt.Errorf("%w: pixel data ends at item %d level %d", ErrTruncated, item, lv)
			}
			records = append(records, gpucore.ImageRecord{
				Width: w, Height: h, Format: cf,
				RowPitch: uint32(rowPitch), SlicePitch: uint32(slicePitch),
				Pixels: data[pos : pos+slicePitch],
			})
			pos += slicePitch
			if w > 1 {
				w /= 2
			}
			if h > 1 {
				h /= 2
			}
		}
	}
	return records, nil
}
