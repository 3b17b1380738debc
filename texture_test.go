package graphics

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/gogpu/graphics/backend/soft"
	"github.com/gogpu/graphics/gpucore"
)

// fillLevels builds tightly packed level data for a 2D chain, each level
// filled with a distinct byte.
func fillLevels(format gpucore.ColorFormat, w, h, levels uint32, seed byte) [][]byte {
	out := make([][]byte, 0, levels)
	for lv := uint32(0); lv < levels; lv++ {
		lw, lh := gpucore.LevelDims(w, h, lv)
		buf := make([]byte, gpucore.LevelByteSize(format, lw, lh))
		for i := range buf {
			buf[i] = seed + byte(lv)
		}
		out = append(out, buf)
	}
	return out
}

func TestValidateTextureDesc(t *testing.T) {
	d := newTestDevice(t)
	cases := []struct {
		name string
		fn   func() (*Texture, error)
	}{
		{"zero width", func() (*Texture, error) {
			return NewTexture2D(d, 0, 4, gpucore.FormatRGBA, 1, nil, 0)
		}},
		{"unknown format", func() (*Texture, error) {
			return NewTexture2D(d, 4, 4, gpucore.FormatUnknown, 1, nil, 0)
		}},
		{"too many levels", func() (*Texture, error) {
			return NewTexture2D(d, 4, 4, gpucore.FormatRGBA, 9, nil, 0)
		}},
		{"two-plane on packed format", func() (*Texture, error) {
			return NewTexture2D(d, 4, 4, gpucore.FormatRGBA, 1, nil, gpucore.TwoPlane)
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := tc.fn(); !errors.Is(err, ErrBadParameter) {
				t.Errorf("err = %v, want ErrBadParameter", err)
			}
		})
	}
}

func TestTexture2DBackup(t *testing.T) {
	d := newTestDevice(t)
	data := fillLevels(gpucore.FormatRGBA, 8, 8, 4, 0x10)
	tex, err := NewTexture2D(d, 8, 8, gpucore.FormatRGBA, 0, data, 0)
	if err != nil {
		t.Fatalf("NewTexture2D: %v", err)
	}
	defer tex.Destroy()

	if tex.Levels() != 4 {
		t.Fatalf("levels = %d, want 4", tex.Levels())
	}
	if !tex.HasBackup() {
		t.Fatal("texture created with data has no backup")
	}
	for lv := uint32(0); lv < 4; lv++ {
		got := tex.BackupLevel(0, lv)
		if !bytes.Equal(got, data[lv]) {
			t.Errorf("backup level %d differs from initial data", lv)
		}
	}
	// The backup is a copy, not an alias of the caller's slices.
	data[0][0] = 0xFF
	if tex.BackupLevel(0, 0)[0] == 0xFF {
		t.Error("backup aliases caller data")
	}
}

func TestTextureNoDataNoBackup(t *testing.T) {
	d := newTestDevice(t)
	tex, err := NewTexture2D(d, 4, 4, gpucore.FormatRGBA, 1, nil, gpucore.RenderTarget)
	if err != nil {
		t.Fatalf("NewTexture2D: %v", err)
	}
	defer tex.Destroy()
	if tex.HasBackup() {
		t.Error("texture created without data has a backup")
	}
	if tex.BackupLevel(0, 0) != nil {
		t.Error("BackupLevel returned data for a backup-less texture")
	}
}

func TestTextureCubeBackupIndexing(t *testing.T) {
	d := newTestDevice(t)
	// Six faces, two levels each, face major.
	var data [][]byte
	for face := byte(0); face < 6; face++ {
		data = append(data, fillLevels(gpucore.FormatRGBA, 4, 4, 2, face*0x10)...)
	}
	tex, err := NewTextureCube(d, 4, gpucore.FormatRGBA, 2, data, 0)
	if err != nil {
		t.Fatalf("NewTextureCube: %v", err)
	}
	defer tex.Destroy()

	for face := uint32(0); face < 6; face++ {
		for lv := uint32(0); lv < 2; lv++ {
			got := tex.BackupLevel(face, lv)
			want := data[face*2+lv]
			if !bytes.Equal(got, want) {
				t.Errorf("face %d level %d backup differs", face, lv)
			}
		}
	}
}

func TestTextureUpdateRefreshesBackup(t *testing.T) {
	d := newTestDevice(t)
	data := fillLevels(gpucore.FormatRGBA, 4, 4, 1, 1)
	tex, err := NewTexture2D(d, 4, 4, gpucore.FormatRGBA, 1, data, 0)
	if err != nil {
		t.Fatalf("NewTexture2D: %v", err)
	}
	defer tex.Destroy()

	fresh := make([]byte, 64)
	for i := range fresh {
		fresh[i] = 0xAB
	}
	if err := tex.Update(0, 0, fresh, 0); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if tex.BackupLevel(0, 0)[0] != 0xAB {
		t.Error("tight update did not refresh the backup")
	}

	// A strided update reaches the texture but leaves the backup alone:
	// the backup stores tight rows only.
	padded := make([]byte, 4*16)
	for i := range padded {
		padded[i] = 0xCD
	}
	if err := tex.Update(0, 0, padded, 16); err != nil {
		t.Fatalf("strided Update: %v", err)
	}
	if tex.BackupLevel(0, 0)[0] == 0xCD {
		t.Error("strided update overwrote the backup")
	}

	if err := tex.Update(0, 3, fresh, 0); !errors.Is(err, ErrBadParameter) {
		t.Errorf("out of range update: err = %v, want ErrBadParameter", err)
	}
}

func TestSharedTextureRoundTrip(t *testing.T) {
	d := newTestDevice(t)
	data := fillLevels(gpucore.FormatBGRA, 4, 4, 1, 7)
	tex, err := NewTexture2D(d, 4, 4, gpucore.FormatBGRA, 1, data, gpucore.SharedTex)
	if err != nil {
		t.Fatalf("NewTexture2D: %v", err)
	}
	defer tex.Destroy()

	h := tex.SharedHandle()
	if h == gpucore.InvalidHandle {
		t.Fatal("shared texture reports no handle")
	}

	d2 := newTestDevice(t)
	imp, err := OpenSharedTexture(d2, h, false)
	if err != nil {
		t.Fatalf("OpenSharedTexture: %v", err)
	}
	defer imp.Destroy()
	if imp.Format() != gpucore.FormatBGRA {
		t.Errorf("imported format = %v, want bgra", imp.Format())
	}
	if imp.Levels() != 1 {
		t.Errorf("imported levels = %d, want 1", imp.Levels())
	}

	// NT handles resolve through the same namespace on this backend.
	nt, err := OpenSharedTexture(d2, h, true)
	if err != nil {
		t.Fatalf("OpenSharedTexture (NT): %v", err)
	}
	nt.Destroy()
}

func TestSharedHandleOnUnsharedTexture(t *testing.T) {
	d := newTestDevice(t)
	tex, err := NewTexture2D(d, 4, 4, gpucore.FormatRGBA, 1, nil, 0)
	if err != nil {
		t.Fatalf("NewTexture2D: %v", err)
	}
	defer tex.Destroy()
	if h := tex.SharedHandle(); h != gpucore.InvalidHandle {
		t.Errorf("handle = %d, want InvalidHandle", h)
	}
	if err := tex.AcquireSync(0); !errors.Is(err, ErrNotShared) {
		t.Errorf("AcquireSync: err = %v, want ErrNotShared", err)
	}
	if err := tex.ReleaseSync(0); !errors.Is(err, ErrNotShared) {
		t.Errorf("ReleaseSync: err = %v, want ErrNotShared", err)
	}
}

func TestKeyedMutexOwnership(t *testing.T) {
	d, err := NewDevice(DeviceOptions{KeyedMutexTimeout: 50 * time.Millisecond})
	if err != nil {
		t.Fatalf("NewDevice: %v", err)
	}
	t.Cleanup(d.Destroy)

	tex, err := NewTexture2D(d, 4, 4, gpucore.FormatRGBA, 1, nil, gpucore.SharedKMTex)
	if err != nil {
		t.Fatalf("NewTexture2D: %v", err)
	}
	defer tex.Destroy()

	// The creating side holds the mutex; a second acquire times out.
	if err := tex.AcquireSync(0); !errors.Is(err, soft.ErrMutexTimeout) {
		t.Fatalf("double acquire: err = %v, want ErrMutexTimeout", err)
	}
	if err := tex.ReleaseSync(1); err != nil {
		t.Fatalf("ReleaseSync: %v", err)
	}
	if err := tex.AcquireSync(1); err != nil {
		t.Fatalf("reacquire with released key: %v", err)
	}
}

func TestOpenForeignSharedTexture(t *testing.T) {
	d := newTestDevice(t)
	h := soft.ExportForeign()
	if _, err := OpenSharedTexture(d, h, false); !errors.Is(err, ErrSharedOpen) {
		t.Errorf("err = %v, want ErrSharedOpen", err)
	}
}

func TestWrapPlanarChroma(t *testing.T) {
	d := newTestDevice(t)
	tex, err := NewTexture2D(d, 8, 8, gpucore.FormatR8, 1, nil, gpucore.TwoPlane)
	if err != nil {
		t.Fatalf("NewTexture2D: %v", err)
	}
	defer tex.Destroy()

	chroma, err := tex.WrapPlanarChroma()
	if err != nil {
		t.Fatalf("WrapPlanarChroma: %v", err)
	}
	defer chroma.Destroy()
	if chroma.Width() != 4 || chroma.Height() != 4 {
		t.Errorf("chroma dims = %dx%d, want 4x4", chroma.Width(), chroma.Height())
	}
	if chroma.Format() != gpucore.FormatR8G8 {
		t.Errorf("chroma format = %v, want r8g8", chroma.Format())
	}

	flat, err := NewTexture2D(d, 8, 8, gpucore.FormatR8, 1, nil, 0)
	if err != nil {
		t.Fatalf("NewTexture2D: %v", err)
	}
	defer flat.Destroy()
	if _, err := flat.WrapPlanarChroma(); !errors.Is(err, ErrBadParameter) {
		t.Errorf("chroma of flat texture: err = %v, want ErrBadParameter", err)
	}
}

func TestTextureDestroyIdempotent(t *testing.T) {
	d := newTestDevice(t)
	tex, err := NewTexture2D(d, 4, 4, gpucore.FormatRGBA, 1, nil, 0)
	if err != nil {
		t.Fatalf("NewTexture2D: %v", err)
	}
	tex.Destroy()
	tex.Destroy()
	if err := tex.Update(0, 0, make([]byte, 64), 0); !errors.Is(err, ErrTextureDestroyed) {
		t.Errorf("update after destroy: err = %v, want ErrTextureDestroyed", err)
	}
}

func TestDeviceLossRebuild(t *testing.T) {
	d := newTestDevice(t)
	data := fillLevels(gpucore.FormatRGBA, 4, 4, 2, 0x40)
	tex, err := NewTexture2D(d, 4, 4, gpucore.FormatRGBA, 2, data, 0)
	if err != nil {
		t.Fatalf("NewTexture2D: %v", err)
	}
	defer tex.Destroy()

	d.NotifyLoss()
	if err := d.Rebuild(soft.New(gpucore.DriverOptions{})); err != nil {
		t.Fatalf("Rebuild: %v", err)
	}

	// The recreated texture carries the backed up contents.
	st, ok := tex.driverTexture().(*soft.Texture)
	if !ok {
		t.Fatal("rebuilt texture is not a software texture")
	}
	if got := st.LevelBytes(0, 0); !bytes.Equal(got, data[0]) {
		t.Error("rebuilt level 0 differs from backup")
	}
	if got := st.LevelBytes(0, 1); !bytes.Equal(got, data[1]) {
		t.Error("rebuilt level 1 differs from backup")
	}
}

func TestVolumeTextureBackupAndRebuild(t *testing.T) {
	d := newTestDevice(t)
	// 4x4x4 RGBA full chain: depth halves along with width and height,
	// so the levels hold 4, 2 and 1 slices.
	sizes := []int{4 * 4 * 4 * 4, 2 * 2 * 4 * 2, 4}
	data := make([][]byte, len(sizes))
	for lv, n := range sizes {
		data[lv] = make([]byte, n)
		for i := range data[lv] {
			data[lv][i] = byte(lv + 1)
		}
	}
	tex, err := NewVolumeTexture(d, 4, 4, 4, gpucore.FormatRGBA, 0, data, 0)
	if err != nil {
		t.Fatalf("NewVolumeTexture: %v", err)
	}
	defer tex.Destroy()

	for lv, n := range sizes {
		if got := tex.BackupLevel(0, uint32(lv)); len(got) != n {
			t.Errorf("backup level %d holds %d bytes, want %d", lv, len(got), n)
		}
	}

	d.NotifyLoss()
	if err := d.Rebuild(soft.New(gpucore.DriverOptions{})); err != nil {
		t.Fatalf("Rebuild: %v", err)
	}
	st, ok := tex.driverTexture().(*soft.Texture)
	if !ok {
		t.Fatal("rebuilt texture is not a software texture")
	}
	for lv := range sizes {
		if got := st.LevelBytes(0, uint32(lv)); !bytes.Equal(got, data[lv]) {
			t.Errorf("rebuilt level %d differs from backup", lv)
		}
	}
}
