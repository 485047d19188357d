package pixellizer

import (
	"fmt"
	"golang.org/x/image/draw"
	"image"
	"math"
)

// Levels is a brightness remapping curve for the HSV value channel.
// Samples at or below Min become 0, samples at or above Max become 255 and
// the range in between follows t^(1/Gamma).
type Levels struct {
	Min   int
	Max   int
	Gamma float64
}

func (l Levels) Validate() error {
	if l.Min < 0 || l.Min > 255 || l.Max < 0 || l.Max > 255 {
		return fmt.Errorf("%w: levels min=%d max=%d must lie in [0,255]", ErrInvalidParameter, l.Min, l.Max)
	}
	if l.Min >= l.Max {
		return fmt.Errorf("%w: levels min=%d must be below max=%d", ErrInvalidParameter, l.Min, l.Max)
	}
	if !(l.Gamma > 0) || math.IsInf(l.Gamma, 1) {
		return fmt.Errorf("%w: gamma=%v must be a positive number", ErrInvalidParameter, l.Gamma)
	}
	return nil
}

// LevelValue maps one value-channel sample through the curve. l must be valid.
func LevelValue(v uint8, l Levels) uint8 {
	switch {
	case int(v) <= l.Min:
		return 0
	case int(v) >= l.Max:
		return 255
	}
	t := float64(int(v)-l.Min) / float64(l.Max-l.Min)
	nv := math.Round(255 * math.Pow(t, 1/l.Gamma))
	return uint8(max(0, min(255, nv)))
}

// Table returns the curve as a lookup table indexed by input sample.
func (l Levels) Table() [256]uint8 {
	var lut [256]uint8
	for v := range lut {
		lut[v] = LevelValue(uint8(v), l)
	}
	return lut
}

// Level applies the curve to the value channel of img, leaving hue and
// saturation alone. HSV, Gray and Gray16 input keep their image type,
// everything else comes back as RGBA.
func Level(img image.Image, l Levels) (image.Image, error) {
	if err := l.Validate(); err != nil {
		return nil, err
	}

	hsv, err := ToHSV(img)
	if err != nil {
		return nil, err
	}

	lut := l.Table()
	forEachRow(hsv.Rect.Dy(), func(y int) {
		row := hsv.Pix[y*hsv.Stride : y*hsv.Stride+3*hsv.Rect.Dx()]
		for i := 2; i < len(row); i += 3 {
			sample := uint8(math.Round(max(0, min(1, row[i])) * 255))
			row[i] = float64(lut[sample]) / 255
		}
	})

	switch img.(type) {
	case *HSV:
		return hsv, nil
	case *image.Gray:
		out := image.NewGray(hsv.Rect)
		draw.Draw(out, out.Rect, hsv, hsv.Rect.Min, draw.Src)
		return out, nil
	case *image.Gray16:
		out := image.NewGray16(hsv.Rect)
		draw.Draw(out, out.Rect, hsv, hsv.Rect.Min, draw.Src)
		return out, nil
	}
	return ToRGB(hsv)
}
