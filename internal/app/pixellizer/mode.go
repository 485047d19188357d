package pixellizer

import "image"

// Mode is the color representation of an image buffer.
type Mode int

const (
	ModeOther Mode = iota
	ModeRGB
	ModeHSV
	ModeIndexed
)

func (m Mode) String() string {
	switch m {
	case ModeRGB:
		return "RGB"
	case ModeHSV:
		return "HSV"
	case ModeIndexed:
		return "P"
	default:
		return "other"
	}
}

// ModeOf reports the mode of img from its concrete type. Grayscale, CMYK and
// YCbCr buffers count as RGB family since they expand to RGB without loss.
func ModeOf(img image.Image) Mode {
	switch img.(type) {
	case *image.RGBA, *image.NRGBA, *image.RGBA64, *image.NRGBA64,
		*image.YCbCr, *image.NYCbCrA, *image.CMYK, *image.Gray, *image.Gray16:
		return ModeRGB
	case *HSV:
		return ModeHSV
	case *image.Paletted:
		return ModeIndexed
	default:
		return ModeOther
	}
}
