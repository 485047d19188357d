package pixellizer

import (
	"fmt"
	"github.com/cenkalti/dominantcolor"
	"github.com/muesli/clusters"
	"github.com/soniakeys/quant/median"
	"golang.org/x/image/draw"
	"image"
	"image/color"
	"math"
	"strings"
)

// MaxColors is the largest palette an Indexed image can carry.
const MaxColors = 256

// PaletteMethod selects the adaptive palette algorithm used by Quantize.
type PaletteMethod int

const (
	PaletteMedianCut PaletteMethod = iota
	PaletteKMeans
	PaletteDominant
)

func (m PaletteMethod) String() string {
	switch m {
	case PaletteKMeans:
		return "kmeans"
	case PaletteDominant:
		return "dominant"
	default:
		return "median"
	}
}

func ParsePaletteMethod(s string) (PaletteMethod, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "median", "mediancut", "median-cut":
		return PaletteMedianCut, nil
	case "kmeans", "k-means":
		return PaletteKMeans, nil
	case "dominant", "dominantcolor":
		return PaletteDominant, nil
	}
	return 0, fmt.Errorf("%w: unknown palette method %q", ErrInvalidParameter, s)
}

// Quantize reduces img to at most ncols colors picked from its own color
// distribution and maps every pixel to the nearest palette entry.
// The input is normalized to RGB first.
// Every method is deterministic: the same image and ncols give the same
// palette.
func Quantize(img image.Image, ncols int, method PaletteMethod) (*image.Paletted, error) {
	if ncols < 1 || ncols > MaxColors {
		return nil, fmt.Errorf("%w: ncols=%d must lie in [1,%d]", ErrInvalidParameter, ncols, MaxColors)
	}

	rgb, err := ToRGB(img)
	if err != nil {
		return nil, err
	}

	var pal color.Palette
	switch method {
	case PaletteKMeans:
		pal = kmeansPalette(rgb, ncols)
	case PaletteDominant:
		pal = dominantPalette(rgb, ncols)
	}
	if len(pal) == 0 {
		pal = median.Quantizer(ncols).Quantize(make(color.Palette, 0, ncols), rgb)
	}
	if len(pal) > ncols {
		pal = pal[:ncols]
	}

	b := rgb.Bounds()
	out := image.NewPaletted(b, pal)
	draw.Draw(out, b, rgb, b.Min, draw.Src)
	return out, nil
}

const (
	kmeansMaxSamples = 12000
	kmeansMaxRounds  = 16
)

// kmeansPalette refines the median cut palette with Lloyd iterations over a
// subsample of img. Seeding from median cut keeps the result reproducible.
func kmeansPalette(img *image.RGBA, k int) color.Palette {
	b := img.Bounds()
	width, height := b.Dx(), b.Dy()

	// Subsample to keep kmeans tractable on large images.
	step := 1
	if width*height > kmeansMaxSamples {
		step = int(math.Sqrt(float64(width*height)/float64(kmeansMaxSamples))) + 1
	}

	dataset := make(clusters.Observations, 0, min(width*height, kmeansMaxSamples))
	for y := b.Min.Y; y < b.Max.Y; y += step {
		for x := b.Min.X; x < b.Max.X; x += step {
			c := img.RGBAAt(x, y)
			dataset = append(dataset, clusters.Coordinates{
				float64(c.R) / 255.0,
				float64(c.G) / 255.0,
				float64(c.B) / 255.0,
			})
		}
	}
	if len(dataset) == 0 {
		return nil
	}

	seed := median.Quantizer(k).Quantize(make(color.Palette, 0, k), img)
	cc := make(clusters.Clusters, 0, len(seed))
	for _, c := range seed {
		r, g, bl, _ := c.RGBA()
		cc = append(cc, clusters.Cluster{Center: clusters.Coordinates{
			float64(r>>8) / 255.0,
			float64(g>>8) / 255.0,
			float64(bl>>8) / 255.0,
		}})
	}
	if len(cc) == 0 {
		return nil
	}

	assign := make([]int, len(dataset))
	for i := range assign {
		assign[i] = -1
	}
	for round := 0; round < kmeansMaxRounds; round++ {
		cc.Reset()
		moved := 0
		for i, o := range dataset {
			ci := cc.Nearest(o)
			if ci != assign[i] {
				assign[i] = ci
				moved++
			}
			cc[ci].Append(o)
		}
		if moved == 0 {
			break
		}
		// Empty clusters keep their previous center.
		cc.Recenter()
	}

	pal := make(color.Palette, 0, len(cc))
	for _, c := range cc {
		if len(c.Observations) == 0 || len(c.Center) < 3 {
			continue
		}
		pal = appendUnique(pal, color.RGBA{
			R: unit8(c.Center[0]),
			G: unit8(c.Center[1]),
			B: unit8(c.Center[2]),
			A: 0xff,
		})
	}
	return pal
}

func dominantPalette(img *image.RGBA, k int) color.Palette {
	found := dominantcolor.FindWeight(img, k)
	pal := make(color.Palette, 0, len(found))
	for _, c := range found {
		c.RGBA.A = 0xff
		pal = appendUnique(pal, c.RGBA)
	}
	return pal
}

func appendUnique(pal color.Palette, c color.RGBA) color.Palette {
	for _, p := range pal {
		if p == color.Color(c) {
			return pal
		}
	}
	return append(pal, c)
}

func unit8(v float64) uint8 {
	return uint8(max(0, min(255, math.Round(v*255))))
}
