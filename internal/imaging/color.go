package imaging

import "image"

// HSV holds one pixel in the OpenCV-style ranges: hue 0..180 (degrees halved),
// saturation and value 0..255.
type HSV struct {
	H, S, V uint8
}

// RGBToHSV converts one 8-bit RGB triple.
func RGBToHSV(r, g, b uint8) HSV {
	maxc := r
	if g > maxc {
		maxc = g
	}
	if b > maxc {
		maxc = b
	}
	minc := r
	if g < minc {
		minc = g
	}
	if b < minc {
		minc = b
	}
	v := maxc
	delta := int(maxc) - int(minc)
	var s uint8
	if maxc > 0 {
		s = uint8(255 * delta / int(maxc))
	}
	if delta == 0 {
		return HSV{H: 0, S: s, V: v}
	}
	var hue int // degrees
	switch maxc {
	case r:
		hue = (60*(int(g)-int(b)))/delta + 360
	case g:
		hue = (60*(int(b)-int(r)))/delta + 120
	default:
		hue = (60*(int(r)-int(g)))/delta + 240
	}
	hue %= 360
	return HSV{H: uint8(hue / 2), S: s, V: v}
}

// HueRange is an inclusive hue window on the 0..180 scale.
type HueRange struct {
	Lo, Hi uint8
}

// Stamp ink hues. Red wraps the hue circle, so it needs two windows.
var (
	RedLow  = HueRange{Lo: 0, Hi: 10}
	RedHigh = HueRange{Lo: 170, Hi: 180}
	Blue    = HueRange{Lo: 100, Hi: 130}
)

// MaskHue builds a binary mask of pixels whose hue falls in any of the given
// ranges with at least the given saturation and value. Low saturation or value
// rejects washed-out scan noise.
func MaskHue(img *image.NRGBA, ranges []HueRange, minS, minV uint8) *image.Gray {
	b := img.Bounds()
	out := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			i := img.PixOffset(b.Min.X+x, b.Min.Y+y)
			hsv := RGBToHSV(img.Pix[i], img.Pix[i+1], img.Pix[i+2])
			if hsv.S < minS || hsv.V < minV {
				continue
			}
			for _, r := range ranges {
				if hsv.H >= r.Lo && hsv.H <= r.Hi {
					out.Pix[y*out.Stride+x] = 255
					break
				}
			}
		}
	}
	return out
}
