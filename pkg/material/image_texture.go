package material

import (
	"github.com/chewxy/math32"

	"github.com/df07/go-hitshade/pkg/core"
)

// Filter selects how an ImageTexture reconstructs between texels
type Filter int

const (
	FilterBilinear Filter = iota
	FilterNearest
)

// ImageTexture provides color from a 2D image.
// Texture coordinates use a top-left origin, so v=0 is the first row;
// loaders flip V for formats that store it bottom-up.
type ImageTexture struct {
	Width  int
	Height int
	Pixels []core.Vec3 // Row-major: Pixels[y*Width + x]
	Filter Filter
}

// NewImageTexture creates a new image texture with bilinear filtering
func NewImageTexture(width, height int, pixels []core.Vec3) *ImageTexture {
	return &ImageTexture{
		Width:  width,
		Height: height,
		Pixels: pixels,
	}
}

// Evaluate samples the texture at uv with repeat wrapping
func (t *ImageTexture) Evaluate(uv core.Vec2) core.Vec3 {
	if t.Width == 0 || t.Height == 0 {
		return core.Vec3{}
	}

	u := wrap(uv.X)
	v := wrap(uv.Y)

	if t.Filter == FilterNearest {
		x := min(int(u*float32(t.Width)), t.Width-1)
		y := min(int(v*float32(t.Height)), t.Height-1)
		return t.Pixels[y*t.Width+x]
	}

	// Texel centers sit at half-integer coordinates
	fx := u*float32(t.Width) - 0.5
	fy := v*float32(t.Height) - 0.5
	x0 := math32.Floor(fx)
	y0 := math32.Floor(fy)
	tx := fx - x0
	ty := fy - y0

	ix0 := t.wrapX(int(x0))
	iy0 := t.wrapY(int(y0))
	ix1 := t.wrapX(int(x0) + 1)
	iy1 := t.wrapY(int(y0) + 1)

	c00 := t.Pixels[iy0*t.Width+ix0]
	c10 := t.Pixels[iy0*t.Width+ix1]
	c01 := t.Pixels[iy1*t.Width+ix0]
	c11 := t.Pixels[iy1*t.Width+ix1]

	top := c00.Multiply(1 - tx).Add(c10.Multiply(tx))
	bottom := c01.Multiply(1 - tx).Add(c11.Multiply(tx))
	return top.Multiply(1 - ty).Add(bottom.Multiply(ty))
}

func (t *ImageTexture) wrapX(x int) int {
	x %= t.Width
	if x < 0 {
		x += t.Width
	}
	return x
}

func (t *ImageTexture) wrapY(y int) int {
	y %= t.Height
	if y < 0 {
		y += t.Height
	}
	return y
}

// wrap maps a coordinate into [0, 1)
func wrap(x float32) float32 {
	x -= math32.Floor(x)
	if x >= 1 {
		return 0
	}
	return x
}
