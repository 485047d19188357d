package pixellizer

import (
	"fmt"
	"github.com/lucasb-eyer/go-colorful"
	"image"
	"image/color"
)

// HSVColor is a hue/saturation/value triple. H is in degrees [0, 360),
// S and V are in [0, 1].
type HSVColor struct {
	H, S, V float64
}

func (c HSVColor) RGBA() (r, g, b, a uint32) {
	r8, g8, b8 := colorful.Hsv(c.H, c.S, c.V).Clamped().RGB255()
	return uint32(r8) * 0x101, uint32(g8) * 0x101, uint32(b8) * 0x101, 0xffff
}

var HSVModel = color.ModelFunc(hsvModel)

func hsvModel(c color.Color) color.Color {
	if _, ok := c.(HSVColor); ok {
		return c
	}
	return hsvFromColor(c)
}

// hsvFromColor drops alpha: the straight (non-premultiplied) RGB samples are
// converted as if the pixel were opaque.
func hsvFromColor(c color.Color) HSVColor {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	h, s, v := colorful.Color{
		R: float64(n.R) / 255.0,
		G: float64(n.G) / 255.0,
		B: float64(n.B) / 255.0,
	}.Hsv()
	return HSVColor{H: h, S: s, V: v}
}

// HSV is an in-memory image whose pixels are HSVColor values, stored as
// three consecutive float64 samples per pixel.
type HSV struct {
	Pix    []float64
	Stride int
	Rect   image.Rectangle
}

func NewHSV(r image.Rectangle) *HSV {
	return &HSV{
		Pix:    make([]float64, 3*r.Dx()*r.Dy()),
		Stride: 3 * r.Dx(),
		Rect:   r,
	}
}

func (p *HSV) ColorModel() color.Model { return HSVModel }

func (p *HSV) Bounds() image.Rectangle { return p.Rect }

func (p *HSV) At(x, y int) color.Color { return p.HSVAt(x, y) }

func (p *HSV) HSVAt(x, y int) HSVColor {
	if !(image.Point{X: x, Y: y}.In(p.Rect)) {
		return HSVColor{}
	}
	i := p.PixOffset(x, y)
	return HSVColor{H: p.Pix[i], S: p.Pix[i+1], V: p.Pix[i+2]}
}

func (p *HSV) SetHSV(x, y int, c HSVColor) {
	if !(image.Point{X: x, Y: y}.In(p.Rect)) {
		return
	}
	i := p.PixOffset(x, y)
	p.Pix[i], p.Pix[i+1], p.Pix[i+2] = c.H, c.S, c.V
}

func (p *HSV) PixOffset(x, y int) int {
	return (y-p.Rect.Min.Y)*p.Stride + (x-p.Rect.Min.X)*3
}

// ToHSV converts an RGB family image to a new HSV image. Indexed images have
// to be expanded with ToRGB first. An HSV source is copied.
func ToHSV(img image.Image) (*HSV, error) {
	switch mode := ModeOf(img); mode {
	case ModeHSV:
		src := img.(*HSV)
		dst := NewHSV(src.Rect)
		forEachRow(src.Rect.Dy(), func(y int) {
			y += src.Rect.Min.Y
			for x := src.Rect.Min.X; x < src.Rect.Max.X; x++ {
				dst.SetHSV(x, y, src.HSVAt(x, y))
			}
		})
		return dst, nil
	case ModeRGB:
	default:
		return nil, fmt.Errorf("%w: cannot convert %s to HSV", ErrUnsupportedMode, mode)
	}

	b := img.Bounds()
	dst := NewHSV(b)
	forEachRow(b.Dy(), func(y int) {
		y += b.Min.Y
		for x := b.Min.X; x < b.Max.X; x++ {
			dst.SetHSV(x, y, hsvFromColor(img.At(x, y)))
		}
	})
	return dst, nil
}

// ToRGB expands HSV, RGB family and Indexed images into a new opaque RGBA
// image with the same bounds. Alpha is dropped, not composited.
func ToRGB(img image.Image) (*image.RGBA, error) {
	mode := ModeOf(img)
	if mode == ModeOther {
		return nil, fmt.Errorf("%w: cannot convert %s to RGB", ErrUnsupportedMode, mode)
	}

	b := img.Bounds()
	dst := image.NewRGBA(b)
	if src, ok := img.(*HSV); ok {
		forEachRow(b.Dy(), func(y int) {
			y += b.Min.Y
			for x := b.Min.X; x < b.Max.X; x++ {
				c := src.HSVAt(x, y)
				r, g, bl := colorful.Hsv(c.H, c.S, c.V).Clamped().RGB255()
				dst.SetRGBA(x, y, color.RGBA{R: r, G: g, B: bl, A: 0xff})
			}
		})
		return dst, nil
	}

	forEachRow(b.Dy(), func(y int) {
		y += b.Min.Y
		for x := b.Min.X; x < b.Max.X; x++ {
			n := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			dst.SetRGBA(x, y, color.RGBA{R: n.R, G: n.G, B: n.B, A: 0xff})
		}
	})
	return dst, nil
}
