package loaders

import (
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ftrvxmtrx/tga"
	"golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	"golang.org/x/sync/errgroup"

	"github.com/df07/go-hitshade/pkg/core"
	"github.com/df07/go-hitshade/pkg/material"
)

// ImageData contains loaded image data as a Vec3 color array
type ImageData struct {
	Width  int
	Height int
	Pixels []core.Vec3
}

// decoders are chosen by extension. The TGA package registers itself with an
// empty magic string, so image.Decode cannot be trusted to sniff formats.
var decoders = map[string]func(io.Reader) (image.Image, error){
	".png":  png.Decode,
	".jpg":  jpeg.Decode,
	".jpeg": jpeg.Decode,
	".tga":  tga.Decode,
	".bmp":  bmp.Decode,
}

// LoadImage loads a PNG, JPEG, TGA or BMP image and converts it to a Vec3 color array
func LoadImage(filename string) (*ImageData, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("loaders: open image: %w", err)
	}
	defer file.Close()

	decode, ok := decoders[strings.ToLower(filepath.Ext(filename))]
	if !ok {
		return nil, fmt.Errorf("loaders: unsupported image format %q", filepath.Ext(filename))
	}
	img, err := decode(file)
	if err != nil {
		return nil, fmt.Errorf("loaders: decode image %s: %w", filename, err)
	}
	return ImageDataFrom(img), nil
}

// ImageDataFrom converts a decoded image to normalized RGB values
func ImageDataFrom(img image.Image) *ImageData {
	bounds := img.Bounds()
	nrgba, ok := img.(*image.NRGBA)
	if !ok {
		nrgba = image.NewNRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
		draw.Draw(nrgba, nrgba.Bounds(), img, bounds.Min, draw.Src)
		bounds = nrgba.Bounds()
	}

	width, height := bounds.Dx(), bounds.Dy()
	pixels := make([]core.Vec3, width*height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			i := nrgba.PixOffset(x+bounds.Min.X, y+bounds.Min.Y)
			pixels[y*width+x] = core.NewVec3(
				float32(nrgba.Pix[i])/255,
				float32(nrgba.Pix[i+1])/255,
				float32(nrgba.Pix[i+2])/255,
			)
		}
	}

	return &ImageData{Width: width, Height: height, Pixels: pixels}
}

// Texture wraps the image as a bilinear, repeating texture
func (d *ImageData) Texture() *material.ImageTexture {
	return material.NewImageTexture(d.Width, d.Height, d.Pixels)
}

// LoadTextures loads every path concurrently, keeping the input order.
// The first failure cancels the remaining loads.
func LoadTextures(ctx context.Context, paths []string, workers int) ([]*material.ImageTexture, error) {
	textures := make([]*material.ImageTexture, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	if workers > 0 {
		g.SetLimit(workers)
	}

	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			data, err := LoadImage(path)
			if err != nil {
				return err
			}
			textures[i] = data.Texture()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return textures, nil
}
