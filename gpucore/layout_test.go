package gpucore

import "testing"

func TestComputeBlockLayoutScalarPacking(t *testing.T) {
	params := []ParamDecl{
		{Name: "a", Type: ParamFloat},
		{Name: "b", Type: ParamFloat},
		{Name: "c", Type: ParamVec2},
	}
	b := ComputeBlockLayout(GlobalsBlockVS, params)
	wantOffsets := map[string]uint32{"a": 0, "b": 4, "c": 8}
	for name, want := range wantOffsets {
		got, ok := b.MemberOffset(name)
		if !ok {
			t.Fatalf("member %q missing", name)
		}
		if got != want {
			t.Errorf("offset of %q = %d, want %d", name, got, want)
		}
	}
	if b.Size != 16 {
		t.Errorf("block size = %d, want 16", b.Size)
	}
}

func TestComputeBlockLayoutVec3Alignment(t *testing.T) {
	params := []ParamDecl{
		{Name: "a", Type: ParamFloat},
		{Name: "b", Type: ParamVec3},
		{Name: "c", Type: ParamFloat},
	}
	b := ComputeBlockLayout(GlobalsBlockPS, params)
	if off, _ := b.MemberOffset("b"); off != 16 {
		t.Errorf("vec3 after float at %d, want 16", off)
	}
	// A float may pack into the trailing slot of the vec3.
	if off, _ := b.MemberOffset("c"); off != 28 {
		t.Errorf("trailing float at %d, want 28", off)
	}
	if b.Size != 32 {
		t.Errorf("block size = %d, want 32", b.Size)
	}
}

func TestComputeBlockLayoutArraysRoundToVec4(t *testing.T) {
	params := []ParamDecl{
		{Name: "arr", Type: ParamFloat, ArrayCount: 3},
		{Name: "m", Type: ParamMatrix4x4},
	}
	b := ComputeBlockLayout(GlobalsBlockVS, params)
	if off, _ := b.MemberOffset("arr"); off != 0 {
		t.Errorf("array offset = %d, want 0", off)
	}
	// Three float elements at vec4 stride occupy 48 bytes.
	if off, _ := b.MemberOffset("m"); off != 48 {
		t.Errorf("matrix offset = %d, want 48", off)
	}
	if b.Size != 112 {
		t.Errorf("block size = %d, want 112", b.Size)
	}
}

func TestComputeBlockLayoutSkipsOpaqueTypes(t *testing.T) {
	params := []ParamDecl{
		{Name: "tex", Type: ParamTexture},
		{Name: "f", Type: ParamFloat},
		{Name: "s", Type: ParamString},
	}
	b := ComputeBlockLayout(GlobalsBlockPS, params)
	if len(b.Members) != 1 {
		t.Fatalf("got %d members, want 1", len(b.Members))
	}
	if _, ok := b.MemberOffset("tex"); ok {
		t.Error("texture parameter must occupy no block space")
	}
}

func TestComputeBlockLayoutEmpty(t *testing.T) {
	b := ComputeBlockLayout(GlobalsBlockVS, []ParamDecl{{Name: "tex", Type: ParamTexture}})
	if b.Size != 0 {
		t.Errorf("stage with no numerics has block size %d, want 0", b.Size)
	}
}
