package renderer

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/webp"
)

func solidImage(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"png", FormatPNG, false},
		{"", FormatPNG, false},
		{"WEBP", FormatWebP, false},
		{".webp", FormatWebP, false},
		{"jpeg", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	assert.Equal(t, FormatWebP, FormatForPath("out/render.webp"))
	assert.Equal(t, FormatPNG, FormatForPath("out/render.bmp"))
}

func TestDownsample(t *testing.T) {
	c := color.RGBA{75, 75, 75, 255}
	img := solidImage(8, 6, c)

	assert.Same(t, img, Downsample(img, 1))

	small := Downsample(img, 2)
	assert.Equal(t, image.Rect(0, 0, 4, 3), small.Bounds())
	assert.Equal(t, c, small.RGBAAt(1, 1))
}

func TestEncode_RoundTrip(t *testing.T) {
	c := color.RGBA{10, 120, 250, 255}
	img := solidImage(4, 4, c)

	var pngBuf bytes.Buffer
	require.NoError(t, Encode(&pngBuf, img, FormatPNG))
	decoded, err := png.Decode(&pngBuf)
	require.NoError(t, err)
	assert.Equal(t, color.RGBAModel.Convert(c), color.RGBAModel.Convert(decoded.At(2, 2)))

	var webpBuf bytes.Buffer
	require.NoError(t, Encode(&webpBuf, img, FormatWebP))
	decoded, err = webp.Decode(&webpBuf)
	require.NoError(t, err)
	assert.Equal(t, color.RGBAModel.Convert(c), color.RGBAModel.Convert(decoded.At(2, 2)))

	assert.Error(t, Encode(&bytes.Buffer{}, img, Format("tiff")))
}

func TestSaveImage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "out.png")
	require.NoError(t, SaveImage(path, solidImage(2, 2, color.RGBA{255, 0, 0, 255}), FormatPNG))
	assert.FileExists(t, path)
}
