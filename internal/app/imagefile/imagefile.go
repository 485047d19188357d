// Package imagefile is the codec boundary around the pixellizer: decoding,
// input normalization, output naming and encoding.
package imagefile

import (
	"bytes"
	"fmt"
	"github.com/disintegration/imaging"
	"image"
	"io"
	"path/filepath"
	"pixellize/internal/app/pixellizer"
	"strings"
)

// Suffix is inserted before the extension of generated files.
const Suffix = "-pix"

func Open(path string) (image.Image, error) {
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return img, nil
}

func Decode(r io.Reader) (image.Image, error) {
	img, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return img, nil
}

// Normalize resizes img so that its longest edge is exactly edge pixels,
// which makes the pixel grid look the same whatever the source resolution.
// The result is always an RGB family image.
func Normalize(img image.Image, edge int) (image.Image, error) {
	if edge <= 0 {
		return nil, fmt.Errorf("%w: edge=%d must be positive", pixellizer.ErrInvalidParameter, edge)
	}
	size := img.Bounds().Size()
	if size.X <= 0 || size.Y <= 0 {
		return nil, fmt.Errorf("%w: empty source %dx%d", pixellizer.ErrInvalidDimension, size.X, size.Y)
	}
	target := pixellizer.ScaledSize(float64(edge)/float64(max(size.X, size.Y)), size)
	if target.X <= 0 || target.Y <= 0 {
		return nil, fmt.Errorf("%w: normalized size %dx%d", pixellizer.ErrInvalidDimension, target.X, target.Y)
	}
	return imaging.Resize(img, target.X, target.Y, imaging.Lanczos), nil
}

// OutputPath returns path with Suffix inserted before its extension:
// "photos/cat.jpg" becomes "photos/cat-pix.jpg".
func OutputPath(path string) string {
	ext := filepath.Ext(path)
	if ext == filepath.Base(path) {
		ext = ""
	}
	return strings.TrimSuffix(path, ext) + Suffix + ext
}

// Save encodes img in the format implied by the extension of path.
func Save(img image.Image, path string) error {
	if err := imaging.Save(img, path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}

func EncodePNG(img image.Image) (*bytes.Buffer, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return &buf, nil
}

// Render decodes an image from r, normalizes its longest edge to edge pixels,
// pixellizes it with p and returns the PNG encoding with the result.
func Render(r io.Reader, edge int, p pixellizer.Params) (*bytes.Buffer, *image.Paletted, error) {
	src, err := Decode(r)
	if err != nil {
		return nil, nil, err
	}
	src, err = Normalize(src, edge)
	if err != nil {
		return nil, nil, err
	}
	out, err := pixellizer.Pixellize(src, p)
	if err != nil {
		return nil, nil, fmt.Errorf("pixellize: %w", err)
	}
	buf, err := EncodePNG(out)
	if err != nil {
		return nil, nil, err
	}
	return buf, out, nil
}
