package imaging

import (
	"image"
	"math"
)

// Contour is one external connected shape in a binary image. Area and
// perimeter describe the filled shape: interior holes (the hollow center of a
// round stamp, loops in handwriting) are closed before measuring.
type Contour struct {
	Bounds    image.Rectangle
	Area      float64 // filled pixel count
	Perimeter float64 // boundary pixel count of the filled shape

	// second-order central moments of the filled shape
	mu20, mu02, mu11 float64
}

// Circularity is 4πA/P²: ~1 for a disk, small for elongated strokes.
// Degenerate shapes with zero perimeter report 0.
func (c Contour) Circularity() float64 {
	if c.Perimeter <= 0 {
		return 0
	}
	return 4 * math.Pi * c.Area / (c.Perimeter * c.Perimeter)
}

// AxisRatio is the major/minor axis ratio of the moment-fit ellipse, always
// ≥1. Near-circular shapes stay close to 1; degenerate shapes report +Inf.
func (c Contour) AxisRatio() float64 {
	tr := c.mu20 + c.mu02
	det := math.Sqrt((c.mu20-c.mu02)*(c.mu20-c.mu02) + 4*c.mu11*c.mu11)
	major := (tr + det) / 2
	minor := (tr - det) / 2
	if minor <= 0 {
		return math.Inf(1)
	}
	return math.Sqrt(major / minor)
}

// AspectRatio is bounding-box width over height.
func (c Contour) AspectRatio() float64 {
	h := c.Bounds.Dy()
	if h == 0 {
		return 0
	}
	return float64(c.Bounds.Dx()) / float64(h)
}

// FindContours labels 8-connected external components of a binary image and
// measures each as a filled shape.
func FindContours(bin *image.Gray) []Contour {
	b := bin.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 {
		return nil
	}
	visited := make([]bool, w*h)
	var out []Contour
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := y*w + x
			if visited[i] || bin.Pix[y*bin.Stride+x] == 0 {
				continue
			}
			comp := traceComponent(bin, visited, x, y, w, h)
			out = append(out, measureFilled(comp, w))
		}
	}
	return out
}

type component struct {
	pixels []int // indices y*w+x
	bounds image.Rectangle
}

func traceComponent(bin *image.Gray, visited []bool, sx, sy, w, h int) component {
	start := sy*w + sx
	visited[start] = true
	stack := []int{start}
	comp := component{bounds: image.Rect(sx, sy, sx+1, sy+1)}
	for len(stack) > 0 {
		i := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		comp.pixels = append(comp.pixels, i)
		x, y := i%w, i/w
		comp.bounds = comp.bounds.Union(image.Rect(x, y, x+1, y+1))
		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				nx, ny := x+dx, y+dy
				if nx < 0 || ny < 0 || nx >= w || ny >= h {
					continue
				}
				j := ny*w + nx
				if !visited[j] && bin.Pix[ny*bin.Stride+nx] > 0 {
					visited[j] = true
					stack = append(stack, j)
				}
			}
		}
	}
	return comp
}

// measureFilled closes interior holes of the component and computes area,
// perimeter and central moments of the resulting solid shape.
func measureFilled(comp component, imgW int) Contour {
	bb := comp.bounds
	// Work on a 1px padded local grid so the outside flood fill can wrap
	// around the shape.
	lw, lh := bb.Dx()+2, bb.Dy()+2
	grid := make([]uint8, lw*lh) // 0 background, 1 shape
	for _, i := range comp.pixels {
		x, y := i%imgW-bb.Min.X+1, i/imgW-bb.Min.Y+1
		grid[y*lw+x] = 1
	}

	// Flood fill the background from the padding border (4-connected).
	const outside = 2
	stack := make([]int, 0, 2*(lw+lh))
	push := func(i int) {
		if grid[i] == 0 {
			grid[i] = outside
			stack = append(stack, i)
		}
	}
	for x := 0; x < lw; x++ {
		push(x)
		push((lh-1)*lw + x)
	}
	for y := 0; y < lh; y++ {
		push(y * lw)
		push(y*lw + lw - 1)
	}
	for len(stack) > 0 {
		i := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		x, y := i%lw, i/lw
		if x > 0 {
			push(i - 1)
		}
		if x < lw-1 {
			push(i + 1)
		}
		if y > 0 {
			push(i - lw)
		}
		if y < lh-1 {
			push(i + lw)
		}
	}

	// Everything not reached from outside belongs to the filled shape.
	var area, perim float64
	var sx, sy float64
	for y := 1; y < lh-1; y++ {
		for x := 1; x < lw-1; x++ {
			if grid[y*lw+x] == outside {
				continue
			}
			area++
			sx += float64(x)
			sy += float64(y)
			if grid[y*lw+x-1] == outside || grid[y*lw+x+1] == outside ||
				grid[(y-1)*lw+x] == outside || grid[(y+1)*lw+x] == outside {
				perim++
			}
		}
	}
	c := Contour{Bounds: bb, Area: area, Perimeter: perim}
	if area == 0 {
		return c
	}
	cx, cy := sx/area, sy/area
	for y := 1; y < lh-1; y++ {
		for x := 1; x < lw-1; x++ {
			if grid[y*lw+x] == outside {
				continue
			}
			dx, dy := float64(x)-cx, float64(y)-cy
			c.mu20 += dx * dx
			c.mu02 += dy * dy
			c.mu11 += dx * dy
		}
	}
	c.mu20 /= area
	c.mu02 /= area
	c.mu11 /= area
	return c
}
