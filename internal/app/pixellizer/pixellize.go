package pixellizer

import (
	"fmt"
	"image"
	"math"
)

// Params holds every knob of the pixellize pipeline.
type Params struct {
	// Longest edge of the intermediate pixel grid.
	MaxPixels int
	// Block magnification applied to the pixel grid.
	Rescale float64
	// Palette size.
	Colors  int
	Levels  Levels
	Palette PaletteMethod
}

func DefaultParams() Params {
	return Params{
		MaxPixels: 72,
		Rescale:   4.0,
		Colors:    20,
		Levels: Levels{
			Min:   14,
			Max:   181,
			Gamma: 1.51,
		},
		Palette: PaletteMedianCut,
	}
}

func (p Params) Validate() error {
	if p.MaxPixels <= 0 {
		return fmt.Errorf("%w: max pixels=%d must be positive", ErrInvalidParameter, p.MaxPixels)
	}
	if !(p.Rescale > 0) || math.IsInf(p.Rescale, 1) {
		return fmt.Errorf("%w: rescale=%v must be a positive number", ErrInvalidParameter, p.Rescale)
	}
	if p.Colors < 1 || p.Colors > MaxColors {
		return fmt.Errorf("%w: colors=%d must lie in [1,%d]", ErrInvalidParameter, p.Colors, MaxColors)
	}
	return p.Levels.Validate()
}

// GridSize is the size of the pixel grid for a source of the given size:
// the longest edge becomes p.MaxPixels.
func (p Params) GridSize(size image.Point) image.Point {
	return ScaledSize(float64(p.MaxPixels)/float64(max(size.X, size.Y)), size)
}

// FinalSize is the size Pixellize returns for a source of the given size.
func (p Params) FinalSize(size image.Point) image.Point {
	return ScaledSize(p.Rescale, p.GridSize(size))
}

// Pixellize turns img into pixel art: levels, an adaptive palette of
// p.Colors colors, a nearest neighbour shrink to the pixel grid and a block
// upscale by p.Rescale. The result is always Indexed.
func Pixellize(img image.Image, p Params) (*image.Paletted, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	size := img.Bounds().Size()
	if size.X <= 0 || size.Y <= 0 {
		return nil, fmt.Errorf("%w: empty source %dx%d", ErrInvalidDimension, size.X, size.Y)
	}

	leveled, err := Level(img, p.Levels)
	if err != nil {
		return nil, fmt.Errorf("level: %w", err)
	}
	if ModeOf(leveled) != ModeRGB {
		if leveled, err = ToRGB(leveled); err != nil {
			return nil, fmt.Errorf("normalize: %w", err)
		}
	}

	quantized, err := Quantize(leveled, p.Colors, p.Palette)
	if err != nil {
		return nil, fmt.Errorf("quantize: %w", err)
	}

	// The grid is derived from the source image, not the quantized copy.
	grid := p.GridSize(size)
	small, err := Resize(quantized, grid)
	if err != nil {
		return nil, fmt.Errorf("downscale to %dx%d: %w", grid.X, grid.Y, err)
	}

	final := ScaledSize(p.Rescale, small.Bounds().Size())
	large, err := Resize(small, final)
	if err != nil {
		return nil, fmt.Errorf("upscale to %dx%d: %w", final.X, final.Y, err)
	}
	return large.(*image.Paletted), nil
}
