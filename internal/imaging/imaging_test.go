package imaging

import (
	"image"
	"image/color"
	"testing"
)

func whiteImage(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = 255
	}
	return img
}

func fillDisk(img *image.NRGBA, cx, cy, r int, c color.NRGBA) {
	for y := cy - r; y <= cy+r; y++ {
		for x := cx - r; x <= cx+r; x++ {
			dx, dy := x-cx, y-cy
			if dx*dx+dy*dy <= r*r {
				img.SetNRGBA(x, y, c)
			}
		}
	}
}

func drawRing(img *image.NRGBA, cx, cy, r, thickness int, c color.NRGBA) {
	for y := cy - r - thickness; y <= cy+r+thickness; y++ {
		for x := cx - r - thickness; x <= cx+r+thickness; x++ {
			dx, dy := x-cx, y-cy
			d2 := dx*dx + dy*dy
			inner := (r - thickness) * (r - thickness)
			outer := r * r
			if d2 >= inner && d2 <= outer {
				img.SetNRGBA(x, y, c)
			}
		}
	}
}

var (
	black = color.NRGBA{0, 0, 0, 255}
	red   = color.NRGBA{200, 30, 30, 255}
)

func TestBottomRegion(t *testing.T) {
	img := whiteImage(100, 200)
	region := BottomRegion(img, 0.4)
	if got := region.Bounds().Dy(); got != 80 {
		t.Fatalf("region height = %d, want 80", got)
	}
	if got := region.Bounds().Dx(); got != 100 {
		t.Fatalf("region width = %d, want 100", got)
	}
	if region.Bounds().Min != (image.Point{}) {
		t.Fatalf("region not zero-based: %v", region.Bounds())
	}
}

func TestBottomRegionDegenerateFraction(t *testing.T) {
	img := whiteImage(10, 10)
	if got := BottomRegion(img, 0).Bounds().Dy(); got != 10 {
		t.Fatalf("frac 0 height = %d, want whole image", got)
	}
	if got := BottomRegion(img, 2).Bounds().Dy(); got != 10 {
		t.Fatalf("frac 2 height = %d, want whole image", got)
	}
}

func TestResizeMaxWidth(t *testing.T) {
	img := whiteImage(4000, 2000)
	out := ResizeMaxWidth(img, 2000)
	if out.Bounds().Dx() != 2000 || out.Bounds().Dy() != 1000 {
		t.Fatalf("resized to %v, want 2000x1000", out.Bounds())
	}
	small := whiteImage(500, 300)
	if ResizeMaxWidth(small, 2000) != small {
		t.Fatal("image under the limit should be returned unchanged")
	}
}

func TestThreshold(t *testing.T) {
	img := whiteImage(10, 10)
	img.SetNRGBA(3, 3, black)
	bin := Threshold(ToGray(img), 128)
	if bin.Pix[3*bin.Stride+3] == 0 {
		t.Fatal("dark pixel should be on")
	}
	if bin.Pix[0] != 0 {
		t.Fatal("white pixel should be off")
	}
}

func TestSobelFlatImageHasZeroVariance(t *testing.T) {
	gray := ToGray(whiteImage(50, 50))
	if v := Sobel(gray).MagnitudeVariance(); v != 0 {
		t.Fatalf("flat image variance = %v, want 0", v)
	}
}

func TestSobelStrokesRaiseVariance(t *testing.T) {
	img := whiteImage(100, 100)
	for x := 10; x < 90; x += 7 {
		for y := 10; y < 90; y++ {
			img.SetNRGBA(x, y, black)
		}
	}
	if v := Sobel(ToGray(img)).MagnitudeVariance(); v <= 0 {
		t.Fatalf("striped image variance = %v, want > 0", v)
	}
}

func TestRGBToHSV(t *testing.T) {
	tests := []struct {
		name    string
		r, g, b uint8
		wantH   uint8
		hueTol  uint8
		minS    uint8
	}{
		{"pure red", 255, 0, 0, 0, 1, 250},
		{"pure blue", 0, 0, 255, 120, 2, 250},
		{"stamp red", 200, 30, 30, 0, 3, 180},
		{"gray", 128, 128, 128, 0, 180, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hsv := RGBToHSV(tt.r, tt.g, tt.b)
			diff := int(hsv.H) - int(tt.wantH)
			if diff < 0 {
				diff = -diff
			}
			if diff > int(tt.hueTol) && 180-diff > int(tt.hueTol) {
				t.Fatalf("hue = %d, want %d±%d", hsv.H, tt.wantH, tt.hueTol)
			}
			if hsv.S < tt.minS {
				t.Fatalf("saturation = %d, want >= %d", hsv.S, tt.minS)
			}
		})
	}
}

func TestMaskHue(t *testing.T) {
	img := whiteImage(50, 50)
	fillDisk(img, 25, 25, 10, red)
	mask := MaskHue(img, []HueRange{RedLow, RedHigh}, 60, 50)
	if mask.Pix[25*mask.Stride+25] == 0 {
		t.Fatal("red pixel should be masked on")
	}
	if mask.Pix[0] != 0 {
		t.Fatal("white pixel should be masked off")
	}
	on := CountOn(mask)
	if on < 250 || on > 400 {
		t.Fatalf("masked pixel count = %d, want a 10px disk worth", on)
	}
}

func TestCloseFillsSmallGaps(t *testing.T) {
	bin := image.NewGray(image.Rect(0, 0, 20, 20))
	for x := 2; x < 18; x++ {
		if x == 9 {
			continue // one-pixel gap
		}
		bin.Pix[10*bin.Stride+x] = 255
	}
	closed := Close(bin, 3)
	if closed.Pix[10*closed.Stride+9] == 0 {
		t.Fatal("close should bridge a one-pixel gap")
	}
}

func TestFindContoursDiskIsRound(t *testing.T) {
	img := whiteImage(150, 150)
	fillDisk(img, 75, 75, 40, black)
	contours := FindContours(Threshold(ToGray(img), 128))
	if len(contours) != 1 {
		t.Fatalf("got %d contours, want 1", len(contours))
	}
	c := contours[0]
	wantArea := 3.14159 * 40 * 40
	if c.Area < wantArea*0.95 || c.Area > wantArea*1.05 {
		t.Fatalf("disk area = %v, want ~%v", c.Area, wantArea)
	}
	if circ := c.Circularity(); circ < 0.8 {
		t.Fatalf("disk circularity = %v, want >= 0.8", circ)
	}
	if ar := c.AxisRatio(); ar > 1.1 {
		t.Fatalf("disk axis ratio = %v, want ~1", ar)
	}
}

func TestFindContoursRingFillsToDisk(t *testing.T) {
	img := whiteImage(200, 200)
	drawRing(img, 100, 100, 60, 4, black)
	contours := FindContours(Threshold(ToGray(img), 128))
	if len(contours) != 1 {
		t.Fatalf("got %d contours, want 1", len(contours))
	}
	c := contours[0]
	// The hollow interior must be counted: a filled r=60 disk, not a thin band.
	if c.Area < 10000 {
		t.Fatalf("ring filled area = %v, want >= 10000", c.Area)
	}
	if circ := c.Circularity(); circ < 0.8 {
		t.Fatalf("ring circularity = %v, want >= 0.8", circ)
	}
}

func TestFindContoursSquareVsStroke(t *testing.T) {
	img := whiteImage(300, 100)
	// Solid square.
	for y := 20; y < 70; y++ {
		for x := 20; x < 70; x++ {
			img.SetNRGBA(x, y, black)
		}
	}
	// Long thin stroke.
	for x := 100; x < 280; x++ {
		for y := 48; y < 51; y++ {
			img.SetNRGBA(x, y, black)
		}
	}
	contours := FindContours(Threshold(ToGray(img), 128))
	if len(contours) != 2 {
		t.Fatalf("got %d contours, want 2", len(contours))
	}
	var square, stroke Contour
	for _, c := range contours {
		if c.Bounds.Dx() > 100 {
			stroke = c
		} else {
			square = c
		}
	}
	if circ := square.Circularity(); circ < 0.6 {
		t.Fatalf("square circularity = %v, want >= 0.6", circ)
	}
	if circ := stroke.Circularity(); circ > 0.3 {
		t.Fatalf("stroke circularity = %v, want below 0.3", circ)
	}
	if ar := stroke.AxisRatio(); ar < 5 {
		t.Fatalf("stroke axis ratio = %v, want elongated", ar)
	}
}

func TestHorizontalSegments(t *testing.T) {
	bin := image.NewGray(image.Rect(0, 0, 400, 50))
	for x := 50; x < 320; x++ {
		if x >= 180 && x < 186 {
			continue // gap under the tolerance
		}
		bin.Pix[25*bin.Stride+x] = 255
	}
	segs := HorizontalSegments(bin, 200, 10, 2)
	if len(segs) == 0 {
		t.Fatal("expected one long segment")
	}
	if segs[0].Len() < 200 {
		t.Fatalf("segment length = %d, want >= 200", segs[0].Len())
	}
}

func TestHorizontalSegmentsRejectsShortRuns(t *testing.T) {
	bin := image.NewGray(image.Rect(0, 0, 400, 50))
	for x := 50; x < 120; x++ {
		bin.Pix[25*bin.Stride+x] = 255
	}
	if segs := HorizontalSegments(bin, 200, 10, 2); len(segs) != 0 {
		t.Fatalf("got %d segments from a 70px run, want 0", len(segs))
	}
}

func TestHoughCirclesFindsRing(t *testing.T) {
	img := whiteImage(200, 200)
	drawRing(img, 100, 100, 60, 3, black)
	circles := HoughCircles(ToGray(img), DefaultCircleParams(15, 150))
	if len(circles) == 0 {
		t.Fatal("no circles found on a clean ring")
	}
	c := circles[0]
	if c.R < 53 || c.R > 67 {
		t.Fatalf("radius = %d, want ~60", c.R)
	}
	if dx, dy := c.X-100, c.Y-100; dx*dx+dy*dy > 100 {
		t.Fatalf("center = (%d,%d), want near (100,100)", c.X, c.Y)
	}
}

func TestHoughCirclesEmptyOnBlank(t *testing.T) {
	if circles := HoughCircles(ToGray(whiteImage(100, 100)), DefaultCircleParams(15, 50)); len(circles) != 0 {
		t.Fatalf("got %d circles on a blank image", len(circles))
	}
}

func TestEqualizeHistStretchesContrast(t *testing.T) {
	gray := image.NewGray(image.Rect(0, 0, 10, 10))
	for i := range gray.Pix {
		gray.Pix[i] = 100
		if i%2 == 0 {
			gray.Pix[i] = 110
		}
	}
	eq := EqualizeHist(gray)
	lo, hi := eq.Pix[0], eq.Pix[0]
	for _, p := range eq.Pix {
		if p < lo {
			lo = p
		}
		if p > hi {
			hi = p
		}
	}
	if int(hi)-int(lo) <= 10 {
		t.Fatalf("contrast spread = %d, want stretched beyond input's 10", int(hi)-int(lo))
	}
}
