package gpucore

// ImageRecord is one decoded subimage at the codec boundary: a single face
// or depth slice of one mip level. Pixels may alias a larger decode buffer;
// RowPitch and SlicePitch describe its layout inside that buffer.
type ImageRecord struct {
	Width      uint32
	Height     uint32
	Format     ColorFormat
	RowPitch   uint32
	SlicePitch uint32
	Pixels     []byte
}

// ImageMeta describes a decoded container: the texture shape and the
// record counts that index into the record list.
type ImageMeta struct {
	Kind      TextureKind
	Width     uint32
	Height    uint32
	Depth     uint32
	Format    ColorFormat
	ArraySize uint32
	MipLevels uint32
}

// RecordCount returns the number of records a container with this
// metadata carries. Volume textures store one record per depth slice with
// the depth halving per level; array and cube textures store ArraySize
// records per level.
func (m ImageMeta) RecordCount() uint32 {
	if m.Kind == Texture3D {
		var n uint32
		d := m.Depth
		for lv := uint32(0); lv < m.MipLevels; lv++ {
			n += d
			if d > 1 {
				d /= 2
			}
		}
		return n
	}
	return m.ArraySize * m.MipLevels
}
