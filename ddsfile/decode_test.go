package ddsfile

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/gogpu/graphics/gpucore"
)

func TestDecode2DMipChain(t *testing.T) {
	// 4x4 RGBA with two levels: 64 bytes for level 0, 16 for the 2x2
	// level 1.
	payload := make([]byte, 64+16)
	for i := range payload {
		payload[i] = byte(i)
	}
	data := buildDDS(ddsParams{
		width: 4, height: 4, mips: 2,
		pf: pixelFormat{Flags: pfFourCC, FourCC: fourCCDX10},
		dx10: &dx10Header{
			DXGIFormat:        uint32(FormatR8G8B8A8Unorm),
			ResourceDimension: dimensionTexture2D,
			ArraySize:         1,
		},
		payload: payload,
	})

	meta, records, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if uint32(len(records)) != meta.ImageMeta().RecordCount() {
		t.Fatalf("got %d records, want %d", len(records), meta.ImageMeta().RecordCount())
	}
	if records[0].Width != 4 || records[0].RowPitch != 16 || records[0].SlicePitch != 64 {
		t.Errorf("level 0 = %dx%d pitch %d/%d", records[0].Width, records[0].Height,
			records[0].RowPitch, records[0].SlicePitch)
	}
	if records[1].Width != 2 || records[1].Height != 2 || records[1].SlicePitch != 16 {
		t.Errorf("level 1 = %dx%d pitch %d, want 2x2 pitch 16", records[1].Width,
			records[1].Height, records[1].SlicePitch)
	}
	// Records alias the input buffer.
	if &records[0].Pixels[0] != &data[len(data)-len(payload)] {
		t.Error("level 0 pixels do not alias the container buffer")
	}
	if records[0].Pixels[0] != 0 || records[1].Pixels[0] != 64 {
		t.Error("record payloads out of order")
	}
	if meta.Format.ColorFormat() != gpucore.FormatRGBA {
		t.Errorf("abstract format = %v, want rgba", meta.Format.ColorFormat())
	}
}

func TestDecodeCubeItemMajor(t *testing.T) {
	// 2x2 BC1 cube, one level per face: each face is one 8 byte block.
	payload := make([]byte, 6*8)
	for face := 0; face < 6; face++ {
		for i := 0; i < 8; i++ {
			payload[face*8+i] = byte(face)
		}
	}
	data := buildDDS(ddsParams{
		width: 2, height: 2, mips: 1, pf: dxt1PixelFormat(),
		caps2:   caps2CubemapAllFaces,
		payload: payload,
	})
	meta, records, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got := meta.ImageMeta().Kind; got != gpucore.TextureCube {
		t.Fatalf("kind = %v, want cube", got)
	}
	if len(records) != 6 {
		t.Fatalf("got %d records, want 6", len(records))
	}
	for face := range records {
		if records[face].Pixels[0] != byte(face) {
			t.Errorf("face %d starts with %d", face, records[face].Pixels[0])
		}
	}
}

func TestDecodeVolumeLevelMajor(t *testing.T) {
	// 4x4x2 R8 with two levels: level 0 has two 16 byte slices, level 1
	// one 4 byte slice.
	payload := make([]byte, 16+16+4)
	for i := range payload {
		payload[i] = byte(i)
	}
	data := buildDDS(ddsParams{
		width: 4, height: 4, depth: 2, mips: 2,
		flags: headerFlagVolume,
		pf:    pixelFormat{Flags: pfFourCC, FourCC: fourCCDX10},
		dx10: &dx10Header{
			DXGIFormat:        uint32(FormatR8Unorm),
			ResourceDimension: dimensionTexture3D,
			ArraySize:         1,
		},
		payload: payload,
	})
	meta, records, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	im := meta.ImageMeta()
	if im.Kind != gpucore.Texture3D {
		t.Fatalf("kind = %v, want 3D", im.Kind)
	}
	if uint32(len(records)) != im.RecordCount() {
		t.Fatalf("got %d records, want %d", len(records), im.RecordCount())
	}
	// Both slices of level 0, then the single slice of level 1.
	if records[0].Pixels[0] != 0 || records[1].Pixels[0] != 16 || records[2].Pixels[0] != 32 {
		t.Error("volume records out of order")
	}
	if records[2].Width != 2 || records[2].SlicePitch != 4 {
		t.Errorf("level 1 slice = %dx%d pitch %d", records[2].Width, records[2].Height, records[2].SlicePitch)
	}
}

func TestDecodeTruncatedPayload(t *testing.T) {
	data := buildDDS(ddsParams{
		width: 4, height: 4, mips: 1, pf: dxt1PixelFormat(),
		payload: make([]byte, 4), // one BC1 block needs 8
	})
	if _, _, err := Decode(data); !errors.Is(err, ErrTruncated) {
		t.Errorf("short payload: err = %v, want ErrTruncated", err)
	}
}

func TestDecodeUnmappableFormat(t *testing.T) {
	// BC7 decodes at the container level but has no abstract format.
	data := buildDDS(ddsParams{
		width: 4, height: 4, mips: 1,
		pf: pixelFormat{Flags: pfFourCC, FourCC: fourCCDX10},
		dx10: &dx10Header{
			DXGIFormat:        uint32(FormatBC7Unorm),
			ResourceDimension: dimensionTexture2D,
			ArraySize:         1,
		},
		payload: make([]byte, 16),
	})
	if _, _, err := Decode(data); !errors.Is(err, ErrUnsupported) {
		t.Errorf("unmappable format: err = %v, want ErrUnsupported", err)
	}
}

func TestLoad(t *testing.T) {
	payload := make([]byte, 8)
	data := buildDDS(ddsParams{width: 2, height: 2, mips: 1, pf: dxt1PixelFormat(), payload: payload})
	path := filepath.Join(t.TempDir(), "block.dds")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	meta, records, backing, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if meta.Format != FormatBC1Unorm || len(records) != 1 {
		t.Errorf("meta format %d, %d records", meta.Format, len(records))
	}
	if &records[0].Pixels[0] != &backing[len(backing)-8] {
		t.Error("records do not alias the returned buffer")
	}

	if _, _, _, err := Load(filepath.Join(t.TempDir(), "missing.dds")); err == nil {
		t.Error("missing file did not error")
	}
}
