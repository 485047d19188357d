package pixellizer

import (
	"fmt"
	"golang.org/x/image/draw"
	"image"
	"math"
)

// ScaledSize scales both axes of size by the same factor, flooring each one.
func ScaledSize(factor float64, size image.Point) image.Point {
	return image.Point{
		X: int(math.Floor(factor * float64(size.X))),
		Y: int(math.Floor(factor * float64(size.Y))),
	}
}

// Resize resamples img to size with nearest neighbour, so no color outside
// the source is ever produced. A Paletted source gives a Paletted result
// with the same palette; any other source gives RGBA.
func Resize(img image.Image, size image.Point) (image.Image, error) {
	if size.X <= 0 || size.Y <= 0 {
		return nil, fmt.Errorf("%w: target size %dx%d", ErrInvalidDimension, size.X, size.Y)
	}
	src := img.Bounds()
	if src.Empty() {
		return nil, fmt.Errorf("%w: empty source %dx%d", ErrInvalidDimension, src.Dx(), src.Dy())
	}

	rect := image.Rect(0, 0, size.X, size.Y)
	var dst draw.Image
	if p, ok := img.(*image.Paletted); ok {
		dst = image.NewPaletted(rect, p.Palette)
	} else {
		dst = image.NewRGBA(rect)
	}
	draw.NearestNeighbor.Scale(dst, rect, img, src, draw.Src, nil)
	return dst, nil
}
