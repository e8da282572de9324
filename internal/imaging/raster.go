package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"

	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	xdraw "golang.org/x/image/draw"
)

// MaxAnalysisWidth bounds the raster handed to the detectors. Phone scans
// often exceed 3000px; the evidence thresholds are calibrated for ~2000px.
const MaxAnalysisWidth = 2000

// Decode decodes an encoded image (png, jpeg or bmp) into an NRGBA raster
// normalized to a zero-origin bounds rectangle.
func Decode(data []byte) (*image.NRGBA, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return toNRGBA(img), nil
}

func toNRGBA(img image.Image) *image.NRGBA {
	b := img.Bounds()
	out := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Bounds(), img, b.Min, draw.Src)
	return out
}

// ResizeMaxWidth scales img down so its width does not exceed maxWidth,
// preserving aspect ratio. Images at or under the limit are returned as-is.
func ResizeMaxWidth(img *image.NRGBA, maxWidth int) *image.NRGBA {
	w := img.Bounds().Dx()
	h := img.Bounds().Dy()
	if maxWidth <= 0 || w <= maxWidth {
		return img
	}
	nh := h * maxWidth / w
	if nh < 1 {
		nh = 1
	}
	out := image.NewNRGBA(image.Rect(0, 0, maxWidth, nh))
	xdraw.ApproxBiLinear.Scale(out, out.Bounds(), img, img.Bounds(), xdraw.Src, nil)
	return out
}

// BottomRegion returns a copy of the lower frac of the image (full width),
// re-based to a zero origin. A frac outside (0,1] yields the whole image.
func BottomRegion(img *image.NRGBA, frac float64) *image.NRGBA {
	b := img.Bounds()
	if frac <= 0 || frac > 1 {
		frac = 1
	}
	top := b.Max.Y - int(float64(b.Dy())*frac)
	if top < b.Min.Y {
		top = b.Min.Y
	}
	r := image.Rect(b.Min.X, top, b.Max.X, b.Max.Y)
	out := image.NewNRGBA(image.Rect(0, 0, r.Dx(), r.Dy()))
	draw.Draw(out, out.Bounds(), img, r.Min, draw.Src)
	return out
}

// ToGray converts a raster to 8-bit grayscale using the standard luminance.
func ToGray(img *image.NRGBA) *image.Gray {
	b := img.Bounds()
	out := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			i := img.PixOffset(b.Min.X+x, b.Min.Y+y)
			r := img.Pix[i]
			g := img.Pix[i+1]
			bl := img.Pix[i+2]
			// BT.601 integer luma.
			out.Pix[y*out.Stride+x] = uint8((299*int(r) + 587*int(g) + 114*int(bl)) / 1000)
		}
	}
	return out
}

// EqualizeHist applies global histogram equalization, stretching contrast
// before the circle search on faded scans.
func EqualizeHist(gray *image.Gray) *image.Gray {
	b := gray.Bounds()
	total := b.Dx() * b.Dy()
	if total == 0 {
		return gray
	}
	var hist [256]int
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			hist[gray.Pix[y*gray.Stride+x]]++
		}
	}
	var lut [256]uint8
	cum := 0
	for i := 0; i < 256; i++ {
		cum += hist[i]
		lut[i] = uint8(cum * 255 / total)
	}
	out := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			out.Pix[y*out.Stride+x] = lut[gray.Pix[y*gray.Stride+x]]
		}
	}
	return out
}
