package pixellizer

import (
	"errors"
	"image"
	"image/color"
	"math"
	"testing"
)

func TestPixellizeDefaultSize(t *testing.T) {
	out, err := Pixellize(gradient(2000, 1000), DefaultParams())
	if err != nil {
		t.Fatal(err)
	}
	if got := out.Bounds().Size(); got != image.Pt(288, 144) {
		t.Fatalf("size = %v, want 288x144", got)
	}
	if len(out.Palette) > 20 {
		t.Fatalf("palette has %d entries, want at most 20", len(out.Palette))
	}
}

func TestPixellizeSizes(t *testing.T) {
	tests := []struct {
		size      image.Point
		maxPixels int
		rescale   float64
		want      image.Point
	}{
		{image.Pt(160, 120), 16, 2, image.Pt(32, 24)},
		{image.Pt(120, 160), 16, 2, image.Pt(24, 32)},
		{image.Pt(100, 100), 10, 1, image.Pt(10, 10)},
		{image.Pt(90, 30), 9, 3.5, image.Pt(31, 10)},
	}
	for _, tt := range tests {
		p := DefaultParams()
		p.MaxPixels = tt.maxPixels
		p.Rescale = tt.rescale
		if got := p.FinalSize(tt.size); got != tt.want {
			t.Errorf("FinalSize(%v) = %v, want %v", tt.size, got, tt.want)
		}
		out, err := Pixellize(gradient(tt.size.X, tt.size.Y), p)
		if err != nil {
			t.Fatalf("%v: %v", tt.size, err)
		}
		if got := out.Bounds().Size(); got != tt.want {
			t.Errorf("Pixellize(%v) size = %v, want %v", tt.size, got, tt.want)
		}
	}
}

func TestPixellizeBlocks(t *testing.T) {
	p := DefaultParams()
	p.MaxPixels = 12
	p.Rescale = 4
	out, err := Pixellize(gradient(120, 60), p)
	if err != nil {
		t.Fatal(err)
	}
	if got := out.Bounds().Size(); got != image.Pt(48, 24) {
		t.Fatalf("size = %v, want 48x24", got)
	}
	for y := range 24 {
		for x := range 48 {
			if out.ColorIndexAt(x, y) != out.ColorIndexAt(x-x%4, y-y%4) {
				t.Fatalf("pixel (%d,%d) breaks its 4x4 block", x, y)
			}
		}
	}
	if got := distinctColors(out); got > p.Colors {
		t.Fatalf("%d distinct colors, want at most %d", got, p.Colors)
	}
}

func TestPixellizeDeterministic(t *testing.T) {
	src := gradient(300, 200)
	for _, method := range []PaletteMethod{PaletteMedianCut, PaletteKMeans, PaletteDominant} {
		t.Run(method.String(), func(t *testing.T) {
			p := DefaultParams()
			p.Palette = method
			a, err := Pixellize(src, p)
			if err != nil {
				t.Fatal(err)
			}
			for run := 1; run < 3; run++ {
				b, err := Pixellize(src, p)
				if err != nil {
					t.Fatal(err)
				}
				if a.Bounds() != b.Bounds() {
					t.Fatalf("run %d: bounds differ: %v vs %v", run, a.Bounds(), b.Bounds())
				}
				for y := a.Rect.Min.Y; y < a.Rect.Max.Y; y++ {
					for x := a.Rect.Min.X; x < a.Rect.Max.X; x++ {
						if a.At(x, y) != b.At(x, y) {
							t.Fatalf("run %d: pixel (%d,%d) differs", run, x, y)
						}
					}
				}
			}
		})
	}
}

func TestPixellizeDoesNotMutateInput(t *testing.T) {
	src := gradient(50, 40)
	orig := append([]uint8(nil), src.Pix...)
	if _, err := Pixellize(src, DefaultParams()); err != nil {
		t.Fatal(err)
	}
	for i := range orig {
		if src.Pix[i] != orig[i] {
			t.Fatalf("input byte %d changed", i)
		}
	}
}

func TestPixellizePalettedInput(t *testing.T) {
	pal := image.NewPaletted(image.Rect(0, 0, 80, 80), color.Palette{color.Black, color.White})
	if _, err := Pixellize(pal, DefaultParams()); !errors.Is(err, ErrUnsupportedMode) {
		t.Fatalf("error = %v, want ErrUnsupportedMode", err)
	}
	rgb, err := ToRGB(pal)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Pixellize(rgb, DefaultParams()); err != nil {
		t.Fatalf("expanded input: %v", err)
	}
}

func TestPixellizeInvalidParameters(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Params)
	}{
		{"zero colors", func(p *Params) { p.Colors = 0 }},
		{"too many colors", func(p *Params) { p.Colors = 257 }},
		{"zero max pixels", func(p *Params) { p.MaxPixels = 0 }},
		{"negative max pixels", func(p *Params) { p.MaxPixels = -72 }},
		{"zero rescale", func(p *Params) { p.Rescale = 0 }},
		{"negative rescale", func(p *Params) { p.Rescale = -4 }},
		{"nan rescale", func(p *Params) { p.Rescale = math.NaN() }},
		{"equal levels", func(p *Params) { p.Levels.Min, p.Levels.Max = 90, 90 }},
		{"inverted levels", func(p *Params) { p.Levels.Min, p.Levels.Max = 181, 14 }},
		{"zero gamma", func(p *Params) { p.Levels.Gamma = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultParams()
			tt.modify(&p)
			if _, err := Pixellize(gradient(100, 50), p); !errors.Is(err, ErrInvalidParameter) {
				t.Fatalf("error = %v, want ErrInvalidParameter", err)
			}
		})
	}
}

func TestPixellizeInvalidDimension(t *testing.T) {
	p := DefaultParams()
	p.MaxPixels = 10

	// 10/1000 of 50 floors to zero rows.
	if _, err := Pixellize(gradient(1000, 50), p); !errors.Is(err, ErrInvalidDimension) {
		t.Errorf("thin grid: error = %v, want ErrInvalidDimension", err)
	}

	p = DefaultParams()
	p.Rescale = 0.01
	if _, err := Pixellize(gradient(100, 100), p); !errors.Is(err, ErrInvalidDimension) {
		t.Errorf("tiny rescale: error = %v, want ErrInvalidDimension", err)
	}

	if _, err := Pixellize(image.NewRGBA(image.Rectangle{}), DefaultParams()); !errors.Is(err, ErrInvalidDimension) {
		t.Errorf("empty image: error = %v, want ErrInvalidDimension", err)
	}
}
