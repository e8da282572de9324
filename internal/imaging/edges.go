package imaging

import "image"

// EdgeMap produces a binary edge image (0/255) from Sobel magnitude with
// double thresholding and hysteresis: weak edges survive only when
// 8-connected to a strong edge.
func EdgeMap(gray *image.Gray, lo, hi float64) *image.Gray {
	g := Sobel(gray)
	w, h := g.W, g.H
	out := image.NewGray(image.Rect(0, 0, w, h))
	if w == 0 || h == 0 {
		return out
	}

	const (
		none   = 0
		weak   = 1
		strong = 2
	)
	mark := make([]uint8, w*h)
	var stack []int
	for i, m := range g.Mag {
		switch {
		case m >= hi:
			mark[i] = strong
			stack = append(stack, i)
		case m >= lo:
			mark[i] = weak
		}
	}

	// Promote weak edges reachable from strong ones.
	for len(stack) > 0 {
		i := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		x, y := i%w, i/w
		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				nx, ny := x+dx, y+dy
				if nx < 0 || ny < 0 || nx >= w || ny >= h {
					continue
				}
				j := ny*w + nx
				if mark[j] == weak {
					mark[j] = strong
					stack = append(stack, j)
				}
			}
		}
	}

	for i, m := range mark {
		if m == strong {
			out.Pix[(i/w)*out.Stride+i%w] = 255
		}
	}
	return out
}

// Threshold produces a binary image: pixels darker than cutoff become white
// (on). Used for shape analysis on ink-on-paper scans.
func Threshold(gray *image.Gray, cutoff uint8) *image.Gray {
	b := gray.Bounds()
	out := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			if gray.Pix[y*gray.Stride+x] < cutoff {
				out.Pix[y*out.Stride+x] = 255
			}
		}
	}
	return out
}
