package imaging

import (
	"image"
	"math"
)

// Gradients holds per-pixel Sobel derivatives for the interior of an image.
// Border pixels carry zero.
type Gradients struct {
	W, H int
	Gx   []float64
	Gy   []float64
	Mag  []float64
}

// Sobel computes 3x3 Sobel derivatives and the gradient magnitude.
func Sobel(gray *image.Gray) *Gradients {
	b := gray.Bounds()
	w, h := b.Dx(), b.Dy()
	g := &Gradients{
		W:   w,
		H:   h,
		Gx:  make([]float64, w*h),
		Gy:  make([]float64, w*h),
		Mag: make([]float64, w*h),
	}
	if w < 3 || h < 3 {
		return g
	}
	at := func(x, y int) float64 { return float64(gray.Pix[y*gray.Stride+x]) }
	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			gx := -at(x-1, y-1) + at(x+1, y-1) +
				-2*at(x-1, y) + 2*at(x+1, y) +
				-at(x-1, y+1) + at(x+1, y+1)
			gy := -at(x-1, y-1) - 2*at(x, y-1) - at(x+1, y-1) +
				at(x-1, y+1) + 2*at(x, y+1) + at(x+1, y+1)
			i := y*w + x
			g.Gx[i] = gx
			g.Gy[i] = gy
			g.Mag[i] = math.Hypot(gx, gy)
		}
	}
	return g
}

// MagnitudeVariance returns the variance of the gradient magnitude.
// Handwriting produces high-variance, irregular gradients; blank paper and
// printed blocks stay low.
func (g *Gradients) MagnitudeVariance() float64 {
	n := len(g.Mag)
	if n == 0 {
		return 0
	}
	var sum float64
	for _, m := range g.Mag {
		sum += m
	}
	mean := sum / float64(n)
	var acc float64
	for _, m := range g.Mag {
		d := m - mean
		acc += d * d
	}
	return acc / float64(n)
}
