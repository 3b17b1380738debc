package gpucore

import "testing"

func TestParseSemantic(t *testing.T) {
	tests := []struct {
		in      string
		sem     AttribSemantic
		idx     uint32
		wantErr bool
	}{
		{"POSITION", AttribPosition, 0, false},
		{"NORMAL", AttribNormal, 0, false},
		{"TANGENT", AttribTangent, 0, false},
		{"COLOR", AttribColor, 0, false},
		{"TARGET", AttribTarget, 0, false},
		{"TEXCOORD", AttribTexcoord, 0, false},
		{"TEXCOORD0", AttribTexcoord, 0, false},
		{"TEXCOORD7", AttribTexcoord, 7, false},
		{"TEXCOORDX", 0, 0, true},
		{"BINORMAL", 0, 0, true},
		{"position", 0, 0, true},
	}
	for _, tt := range tests {
		sem, idx, err := ParseSemantic(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseSemantic(%q) succeeded, want error", tt.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseSemantic(%q): %v", tt.in, err)
			continue
		}
		if sem != tt.sem || idx != tt.idx {
			t.Errorf("ParseSemantic(%q) = (%v, %d), want (%v, %d)", tt.in, sem, idx, tt.sem, tt.idx)
		}
	}
}

func TestMangledName(t *testing.T) {
	if got := MangledName(GlobalsBlockVS, "World"); got != "type_Globals_VS.World" {
		t.Errorf("MangledName = %q", got)
	}
}

func TestParamTypeByteSize(t *testing.T) {
	tests := []struct {
		typ  ParamType
		want uint32
	}{
		{ParamBool, 4},
		{ParamFloat, 4},
		{ParamInt, 4},
		{ParamInt2, 8},
		{ParamVec2, 8},
		{ParamInt3, 12},
		{ParamVec3, 12},
		{ParamInt4, 16},
		{ParamVec4, 16},
		{ParamMatrix4x4, 64},
		{ParamTexture, 0},
		{ParamString, 0},
		{ParamUnknown, 0},
	}
	for _, tt := range tests {
		if got := tt.typ.ByteSize(); got != tt.want {
			t.Errorf("%s.ByteSize() = %d, want %d", tt.typ, got, tt.want)
		}
	}
}

func TestSharedFlags(t *testing.T) {
	if (BuildMips | RenderTarget).Shared() {
		t.Error("non-shared flags report shared")
	}
	if !SharedTex.Shared() || !SharedKMTex.Shared() {
		t.Error("shared flags must report shared")
	}
}

func TestRecordCountVolume(t *testing.T) {
	m := ImageMeta{Kind: Texture3D, Width: 8, Height: 8, Depth: 4, ArraySize: 1, MipLevels: 4}
	// Depth halves per level: 4+2+1+1.
	if got := m.RecordCount(); got != 8 {
		t.Errorf("RecordCount() = %d, want 8", got)
	}
	cube := ImageMeta{Kind: TextureCube, ArraySize: 6, MipLevels: 3}
	if got := cube.RecordCount(); got != 18 {
		t.Errorf("cube RecordCount() = %d, want 18", got)
	}
}
