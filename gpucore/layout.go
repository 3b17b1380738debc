package gpucore

// BlockMember is one numeric parameter placed inside a stage globals block.
type BlockMember struct {
	Name   string
	Type   ParamType
	Offset uint32
	Size   uint32
}

// BlockLayout is the computed layout of a stage globals uniform block.
// Every driver places numeric parameters through the same layout so that
// offsets reported by reflection and offsets computed up front agree.
type BlockLayout struct {
	Name    string
	Members []BlockMember
	// Size is the total block size, rounded up to a 16 byte multiple.
	Size uint32
}

// MemberOffset returns the offset of the named member.
func (b *BlockLayout) MemberOffset(name string) (uint32, bool) {
	for i := range b.Members {
		if b.Members[i].Name == name {
			return b.Members[i].Offset, true
		}
	}
	return 0, false
}

func alignmentOf(t ParamType) uint32 {
	switch t {
	case ParamBool, ParamFloat, ParamInt:
		return 4
	case ParamInt2, ParamVec2:
		return 8
	case ParamInt3, ParamInt4, ParamVec3, ParamVec4, ParamMatrix4x4:
		return 16
	default:
		return 0
	}
}

func alignUp(v, a uint32) uint32 {
	return (v + a - 1) &^ (a - 1)
}

// ComputeBlockLayout lays out the numeric parameters of one stage into its
// globals block using std140 rules. Texture and string parameters occupy no
// block space and are skipped. Declaration order is preserved.
func ComputeBlockLayout(name string, params []ParamDecl) *BlockLayout {
	b := &BlockLayout{Name: name}
	var off uint32
	for _, p := range params {
		a := alignmentOf(p.Type)
		if a == 0 {
			continue
		}
		size := p.Type.ByteSize()
		if p.ArrayCount > 0 {
			// std140 array elements round up to vec4 stride.
			stride := alignUp(size, 16)
			a = 16
			size = stride * p.ArrayCount
		}
		off = alignUp(off, a)
		b.Members = append(b.Members, BlockMember{
			Name:   p.Name,
			Type:   p.Type,
			Offset: off,
			Size:   size,
		})
		off += size
	}
	b.Size = alignUp(off, 16)
	return b
}
