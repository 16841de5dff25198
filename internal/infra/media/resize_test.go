package media

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngOf(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, 0, color.NRGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestProcessFitsLargePhotos(t *testing.T) {
	out, err := Resizer{MaxEdge: 40}.Process(bytes.NewReader(pngOf(t, 120, 60)), "image/png")
	require.NoError(t, err)
	cfg, format, err := image.DecodeConfig(out)
	require.NoError(t, err)
	assert.Equal(t, "png", format)
	assert.Equal(t, 40, cfg.Width)
	assert.Equal(t, 20, cfg.Height)
}

func TestProcessKeepsSmallPhotos(t *testing.T) {
	out, err := NewResizer().Process(bytes.NewReader(pngOf(t, 30, 10)), "image/png")
	require.NoError(t, err)
	cfg, _, err := image.DecodeConfig(out)
	require.NoError(t, err)
	assert.Equal(t, 30, cfg.Width)
}

func TestProcessRejectsHugeDimensions(t *testing.T) {
	_, err := Resizer{MaxPixels: 100}.Process(bytes.NewReader(pngOf(t, 20, 20)), "image/png")
	assert.ErrorIs(t, err, ErrImageTooLarge)
}

func TestProcessPassesThroughWebp(t *testing.T) {
	src := strings.NewReader("RIFF....WEBP")
	out, err := NewResizer().Process(src, "image/webp")
	require.NoError(t, err)
	body, _ := io.ReadAll(out)
	assert.Equal(t, "RIFF....WEBP", string(body))
}

func TestProcessRejectsGarbage(t *testing.T) {
	_, err := NewResizer().Process(strings.NewReader("not an image"), "image/jpeg")
	assert.Error(t, err)
}
