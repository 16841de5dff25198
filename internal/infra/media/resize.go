package media

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"

	"github.com/disintegration/imaging"
)

const (
	defaultMaxEdge   = 1600
	defaultMaxPixels = 40_000_000
	jpegQuality      = 85
)

var ErrImageTooLarge = errors.New("media: image dimensions too large")

// Resizer fits uploaded photos into a square bounding box and applies the
// EXIF orientation. Formats it cannot decode pass through untouched.
type Resizer struct {
	MaxEdge   int
	MaxPixels int
}

func NewResizer() Resizer {
	return Resizer{MaxEdge: defaultMaxEdge, MaxPixels: defaultMaxPixels}
}

// Process returns the bytes to store for a photo of the given content type.
func (r Resizer) Process(src io.Reader, contentType string) (io.Reader, error) {
	format, ok := formats[contentType]
	if !ok {
		return src, nil
	}
	raw, err := io.ReadAll(src)
	if err != nil {
		return nil, fmt.Errorf("media: read: %w", err)
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("media: decode header: %w", err)
	}
	if cfg.Width*cfg.Height > r.maxPixels() {
		return nil, ErrImageTooLarge
	}
	img, err := imaging.Decode(bytes.NewReader(raw), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("media: decode: %w", err)
	}
	edge := r.maxEdge()
	if b := img.Bounds(); b.Dx() > edge || b.Dy() > edge {
		img = imaging.Fit(img, edge, edge, imaging.Lanczos)
	}
	var out bytes.Buffer
	if err := imaging.Encode(&out, img, format, imaging.JPEGQuality(jpegQuality)); err != nil {
		return nil, fmt.Errorf("media: encode: %w", err)
	}
	return &out, nil
}

var formats = map[string]imaging.Format{
	"image/jpeg": imaging.JPEG,
	"image/png":  imaging.PNG,
}

func (r Resizer) maxEdge() int {
	if r.MaxEdge <= 0 {
		return defaultMaxEdge
	}
	return r.MaxEdge
}

func (r Resizer) maxPixels() int {
	if r.MaxPixels <= 0 {
		return defaultMaxPixels
	}
	return r.MaxPixels
}
