package imaging

import (
	"image"
	"math"
)

// Segment is a detected near-horizontal run of edge pixels.
type Segment struct {
	Y      int
	X0, X1 int
}

// Len returns the segment length in pixels.
func (s Segment) Len() int { return s.X1 - s.X0 + 1 }

// HorizontalSegments finds near-horizontal edge runs at least minLen pixels
// long, tolerating gaps up to maxGap. The binary input is first dilated
// vertically by skewTol so an underline drawn a few pixels off-level still
// reads as one run.
func HorizontalSegments(bin *image.Gray, minLen, maxGap, skewTol int) []Segment {
	if skewTol > 1 {
		bin = dilateVertical(bin, skewTol)
	}
	b := bin.Bounds()
	w, h := b.Dx(), b.Dy()
	var segs []Segment
	for y := 0; y < h; y++ {
		runStart := -1
		gap := 0
		lastOn := -1
		flush := func() {
			if runStart >= 0 && lastOn-runStart+1 >= minLen {
				segs = append(segs, Segment{Y: y, X0: runStart, X1: lastOn})
			}
			runStart = -1
			gap = 0
			lastOn = -1
		}
		for x := 0; x < w; x++ {
			if bin.Pix[y*bin.Stride+x] > 0 {
				if runStart < 0 {
					runStart = x
				}
				lastOn = x
				gap = 0
				continue
			}
			if runStart >= 0 {
				gap++
				if gap > maxGap {
					flush()
				}
			}
		}
		flush()
	}
	return segs
}

func dilateVertical(bin *image.Gray, k int) *image.Gray {
	b := bin.Bounds()
	w, h := b.Dx(), b.Dy()
	out := image.NewGray(image.Rect(0, 0, w, h))
	r := k / 2
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			for dy := -r; dy <= r; dy++ {
				ny := y + dy
				if ny < 0 || ny >= h {
					continue
				}
				if bin.Pix[ny*bin.Stride+x] > 0 {
					out.Pix[y*out.Stride+x] = 255
					break
				}
			}
		}
	}
	return out
}

// Circle is one detected circle.
type Circle struct {
	X, Y, R int
	Votes   int
}

// CircleParams tunes the gradient Hough circle search. The defaults favor
// sensitivity over precision, mirroring a stamp hunt on noisy scans.
type CircleParams struct {
	RMin, RMax    int
	EdgeThreshold float64 // minimum gradient magnitude for a voting pixel
	CenterVotes   int     // minimum accumulator votes for a center candidate
	RadiusSupport int     // minimum edge pixels agreeing on the radius
	MinDist       int     // minimum distance between reported centers
}

// DefaultCircleParams returns the loose thresholds used for stamp search.
func DefaultCircleParams(rMin, rMax int) CircleParams {
	return CircleParams{
		RMin:          rMin,
		RMax:          rMax,
		EdgeThreshold: 100,
		CenterVotes:   30,
		RadiusSupport: 40,
		MinDist:       40,
	}
}

// HoughCircles runs a two-stage gradient Hough transform: edge pixels vote
// for centers along their gradient direction, then each surviving center is
// assigned the radius with the strongest edge support.
func HoughCircles(gray *image.Gray, p CircleParams) []Circle {
	g := Sobel(gray)
	w, h := g.W, g.H
	if w == 0 || h == 0 || p.RMax <= 0 || p.RMin > p.RMax {
		return nil
	}

	acc := make([]int, w*h)
	var edges []edgePoint
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := y*w + x
			m := g.Mag[i]
			if m < p.EdgeThreshold {
				continue
			}
			edges = append(edges, edgePoint{x, y})
			// Vote along both gradient directions so dark-on-light and
			// light-on-dark circles both accumulate.
			dx, dy := g.Gx[i]/m, g.Gy[i]/m
			for _, sign := range [2]float64{1, -1} {
				for r := p.RMin; r <= p.RMax; r += 2 {
					cx := x + int(sign*dx*float64(r))
					cy := y + int(sign*dy*float64(r))
					if cx < 0 || cy < 0 || cx >= w || cy >= h {
						break
					}
					acc[cy*w+cx]++
				}
			}
		}
	}

	// Collect center candidates as local maxima above the vote floor.
	var centers []Circle
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := acc[y*w+x]
			if v < p.CenterVotes || !isLocalMax(acc, w, h, x, y) {
				continue
			}
			centers = append(centers, Circle{X: x, Y: y, Votes: v})
		}
	}
	sortCirclesByVotes(centers)

	// Enforce minimum inter-center distance, then fit a radius per center.
	var out []Circle
	for _, c := range centers {
		ok := true
		for _, kept := range out {
			ddx, ddy := c.X-kept.X, c.Y-kept.Y
			if ddx*ddx+ddy*ddy < p.MinDist*p.MinDist {
				ok = false
				break
			}
		}
		if !ok {
			continue
		}
		r, support := bestRadius(edges, c.X, c.Y, p.RMin, p.RMax)
		if support < p.RadiusSupport {
			continue
		}
		c.R = r
		out = append(out, c)
	}
	return out
}

func isLocalMax(acc []int, w, h, x, y int) bool {
	v := acc[y*w+x]
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			if dx == 0 && dy == 0 {
				continue
			}
			nx, ny := x+dx, y+dy
			if nx < 0 || ny < 0 || nx >= w || ny >= h {
				continue
			}
			if acc[ny*w+nx] > v {
				return false
			}
		}
	}
	return true
}

func sortCirclesByVotes(cs []Circle) {
	for i := 1; i < len(cs); i++ {
		for j := i; j > 0 && cs[j].Votes > cs[j-1].Votes; j-- {
			cs[j], cs[j-1] = cs[j-1], cs[j]
		}
	}
}

type edgePoint struct{ x, y int }

func bestRadius(edges []edgePoint, cx, cy, rMin, rMax int) (int, int) {
	hist := make([]int, rMax+2)
	for _, e := range edges {
		dx, dy := float64(e.x-cx), float64(e.y-cy)
		r := int(math.Round(math.Hypot(dx, dy)))
		if r >= rMin && r <= rMax {
			hist[r]++
		}
	}
	best, bestN := 0, 0
	for r := rMin; r <= rMax; r++ {
		// Smooth over ±1 to tolerate rasterization.
		n := hist[r]
		if r > 0 {
			n += hist[r-1]
		}
		n += hist[r+1]
		if n > bestN {
			best, bestN = r, n
		}
	}
	return best, bestN
}
