package imaging

import "image"

// Dilate grows the on-regions of a binary image with a k×k square kernel.
func Dilate(bin *image.Gray, k int) *image.Gray {
	return morph(bin, k, true)
}

// Erode shrinks the on-regions of a binary image with a k×k square kernel.
func Erode(bin *image.Gray, k int) *image.Gray {
	return morph(bin, k, false)
}

// Close bridges small gaps: dilate then erode.
func Close(bin *image.Gray, k int) *image.Gray {
	return Erode(Dilate(bin, k), k)
}

// Open removes speckle noise: erode then dilate.
func Open(bin *image.Gray, k int) *image.Gray {
	return Dilate(Erode(bin, k), k)
}

func morph(bin *image.Gray, k int, dilate bool) *image.Gray {
	b := bin.Bounds()
	w, h := b.Dx(), b.Dy()
	out := image.NewGray(image.Rect(0, 0, w, h))
	if k < 2 {
		copy(out.Pix, bin.Pix)
		return out
	}
	r := k / 2
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if kernelHit(bin, x, y, r, w, h, dilate) {
				out.Pix[y*out.Stride+x] = 255
			}
		}
	}
	return out
}

// kernelHit reports whether the output pixel is on. For dilation any on
// neighbor suffices; for erosion every neighbor must be on (pixels outside
// the image count as background).
func kernelHit(bin *image.Gray, x, y, r, w, h int, dilate bool) bool {
	for dy := -r; dy <= r; dy++ {
		for dx := -r; dx <= r; dx++ {
			nx, ny := x+dx, y+dy
			inside := nx >= 0 && ny >= 0 && nx < w && ny < h
			on := inside && bin.Pix[ny*bin.Stride+nx] > 0
			if dilate && on {
				return true
			}
			if !dilate && !on {
				return false
			}
		}
	}
	return !dilate
}

// CountOn returns the number of on-pixels in a binary image.
func CountOn(bin *image.Gray) int {
	b := bin.Bounds()
	n := 0
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			if bin.Pix[y*bin.Stride+x] > 0 {
				n++
			}
		}
	}
	return n
}
