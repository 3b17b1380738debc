package graphics

import (
	"image"
	"image/color"
	"testing"

	"github.com/gogpu/graphics/gpucore"
)

func TestNewTextureFromImage(t *testing.T) {
	d := newTestDevice(t)
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			img.SetRGBA(x, y, color.RGBA{R: uint8(x * 60), G: uint8(y * 60), A: 255})
		}
	}
	tex, err := NewTextureFromImage(d, img, 0)
	if err != nil {
		t.Fatalf("NewTextureFromImage: %v", err)
	}
	defer tex.Destroy()

	if tex.Format() != gpucore.FormatRGBA || tex.Levels() != 1 {
		t.Fatalf("texture = %v with %d levels", tex.Format(), tex.Levels())
	}
	backup := tex.BackupLevel(0, 0)
	if len(backup) != 64 {
		t.Fatalf("backup = %d bytes, want 64", len(backup))
	}
	// Pixel (1, 0) starts at byte 4: R=60, A=255.
	if backup[4] != 60 || backup[7] != 255 {
		t.Errorf("pixel (1,0) = % x", backup[4:8])
	}
}

func TestNewTextureFromImageBuildMips(t *testing.T) {
	d := newTestDevice(t)
	img := image.NewRGBA(image.Rect(0, 0, 8, 4))
	for i := range img.Pix {
		img.Pix[i] = 128
	}
	tex, err := NewTextureFromImage(d, img, gpucore.BuildMips)
	if err != nil {
		t.Fatalf("NewTextureFromImage: %v", err)
	}
	defer tex.Destroy()

	// 8x4 walks 8x4, 4x2, 2x1, 1x1.
	if tex.Levels() != 4 {
		t.Fatalf("levels = %d, want 4", tex.Levels())
	}
	// The chain was generated on the CPU, so every level has a backup.
	for lv := uint32(0); lv < 4; lv++ {
		w, h := gpucore.LevelDims(8, 4, lv)
		if got := tex.BackupLevel(0, lv); uint32(len(got)) != w*h*4 {
			t.Errorf("level %d backup = %d bytes, want %d", lv, len(got), w*h*4)
		}
	}
	// A constant image downsamples to itself.
	if got := tex.BackupLevel(0, 3); got[0] != 128 || got[3] != 128 {
		t.Errorf("tail level pixel = % x", got)
	}
}

func TestNewTextureFromImageSubImage(t *testing.T) {
	d := newTestDevice(t)
	base := image.NewRGBA(image.Rect(0, 0, 8, 8))
	base.SetRGBA(2, 2, color.RGBA{R: 200, A: 255})
	sub := base.SubImage(image.Rect(2, 2, 6, 6)).(*image.RGBA)

	tex, err := NewTextureFromImage(d, sub, 0)
	if err != nil {
		t.Fatalf("NewTextureFromImage: %v", err)
	}
	defer tex.Destroy()
	if tex.Width() != 4 || tex.Height() != 4 {
		t.Fatalf("dims = %dx%d, want 4x4", tex.Width(), tex.Height())
	}
	// The sub image origin becomes pixel (0, 0) of the repacked data.
	backup := tex.BackupLevel(0, 0)
	if backup[0] != 200 {
		t.Errorf("pixel (0,0) R = %d, want 200", backup[0])
	}
}

func TestNewTextureFromImageEmpty(t *testing.T) {
	d := newTestDevice(t)
	if _, err := NewTextureFromImage(d, image.NewRGBA(image.Rect(0, 0, 0, 4)), 0); err == nil {
		t.Error("empty image accepted")
	}
}
