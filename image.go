package graphics

import (
	"fmt"
	"image"
	stddraw "image/draw"

	xdraw "golang.org/x/image/draw"

	"github.com/gogpu/graphics/gpucore"
)

// NewTextureFromImage creates an RGBA texture from a decoded image. When
// flags includes BuildMips the full mip chain is generated on the CPU with
// a bilinear downscale, so the texture carries valid data at every level
// and a complete backup.
func NewTextureFromImage(d *Device, img image.Image, flags gpucore.TextureFlags) (*Texture, error) {
	b := img.Bounds()
	w, h := uint32(b.Dx()), uint32(b.Dy())
	if w == 0 || h == 0 {
		return nil, fmt.Errorf("%w: empty image", ErrBadParameter)
	}

	base := toRGBA(img)
	levels := uint32(1)
	if flags&gpucore.BuildMips != 0 {
		levels = gpucore.TotalLevels(w, h, 1)
	}
	data := rgbaMipChain(base, levels)
	// The chain is generated here; the driver must not regenerate it.
	return NewTexture2D(d, w, h, gpucore.FormatRGBA, levels, data, flags&^gpucore.BuildMips)
}

// toRGBA converts any image to a tightly packed RGBA image anchored at the
// origin.
func toRGBA(img image.Image) *image.RGBA {
	b := img.Bounds()
	if rgba, ok := img.(*image.RGBA); ok && b.Min == (image.Point{}) && rgba.Stride == 4*b.Dx() {
		return rgba
	}
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	stddraw.Draw(dst, dst.Bounds(), img, b.Min, stddraw.Src)
	return dst
}

// rgbaMipChain produces one tightly packed pixel slice per mip level,
// downscaling with a bilinear kernel and halving each axis to a floor of
// one.
func rgbaMipChain(base *image.RGBA, levels uint32) [][]byte {
	out := make([][]byte, 0, levels)
	out = append(out, append([]byte(nil), base.Pix...))

	src := base
	w, h := base.Bounds().Dx(), base.Bounds().Dy()
	for lv := uint32(1); lv < levels; lv++ {
		if w > 1 {
			w /= 2
		}
		if h > 1 {
			h /= 2
		}
		dst := image.NewRGBA(image.Rect(0, 0, w, h))
		xdraw.BiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), xdraw.Src, nil)
		out = append(out, append([]byte(nil), dst.Pix...))
		src = dst
	}
	return out
}
