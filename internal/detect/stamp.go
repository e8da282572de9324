package detect

import (
	"image"
	"log/slog"

	"github.com/MaksimPopov64/ocr-drw/internal/common"
	"github.com/MaksimPopov64/ocr-drw/internal/imaging"
)

// StampDetector looks for an official ink stamp in the bottom strip of the
// page. Signals run in a fixed order and the chain short-circuits on the
// first hit: ink color, then circle geometry, then round-contour shape.
type StampDetector struct {
	cfg    common.DetectConfig
	logger *slog.Logger
}

func NewStampDetector(cfg common.DetectConfig, logger *slog.Logger) *StampDetector {
	if logger == nil {
		logger = slog.Default()
	}
	return &StampDetector{cfg: cfg, logger: logger}
}

// maxAxisRatio accepts slightly elliptical contours the circularity test
// rejects on noisy perimeters.
const maxAxisRatio = 1.3

// Detect evaluates the ordered signal chain. Each signal runs inside a
// recovery guard; a panic counts as a miss and the chain continues. The
// returned evidence reflects exactly which signals ran.
func (d *StampDetector) Detect(img *image.NRGBA) (bool, StampEvidence) {
	var ev StampEvidence
	if img == nil || img.Rect.Dx() == 0 || img.Rect.Dy() == 0 {
		return false, ev
	}

	region := imaging.BottomRegion(img, d.cfg.StampRegionFraction)

	found := false
	d.guarded("color", func() {
		mask := imaging.MaskHue(region,
			[]imaging.HueRange{imaging.RedLow, imaging.RedHigh, imaging.Blue},
			d.cfg.ColorMinSaturation, d.cfg.ColorMinValue)
		// Drop speckle noise, then bridge gaps punched through the ink
		// by text printed inside the stamp.
		mask = imaging.Open(mask, 3)
		mask = imaging.Close(mask, 5)
		ev.ColorPixels = imaging.CountOn(mask)
		ev.ColorHit = ev.ColorPixels >= d.cfg.ColorPixelFloor
		found = ev.ColorHit
	})
	if found {
		d.log(found, ev)
		return true, ev
	}

	// Faded stamps barely register against paper; stretch contrast before
	// the geometric signals.
	gray := imaging.EqualizeHist(imaging.ToGray(region))

	d.guarded("circle", func() {
		params := imaging.DefaultCircleParams(d.cfg.CircleMinRadiusPx, d.cfg.CircleMaxRadiusPx)
		for _, c := range imaging.HoughCircles(gray, params) {
			if c.R >= 20 && c.R <= 120 {
				ev.CircleFound = true
				ev.CircleRadius = c.R
				break
			}
		}
		found = ev.CircleFound
	})
	if found {
		d.log(found, ev)
		return true, ev
	}

	d.guarded("contour", func() {
		// Edges rather than a fixed threshold: light-blue ink that a dark
		// cutoff misses still draws a closed outline, which fills to a
		// measurable shape.
		bin := imaging.EdgeMap(gray, 40, 100)
		for _, c := range imaging.FindContours(bin) {
			if c.Area < d.cfg.StampContourMinArea || c.Area > d.cfg.StampContourMaxArea {
				continue
			}
			circ := c.Circularity()
			if circ > ev.ContourCircularity {
				ev.ContourCircularity = circ
			}
			if circ > d.cfg.CircularityMin || c.AxisRatio() <= maxAxisRatio {
				ev.ContourHit = true
				break
			}
		}
		found = ev.ContourHit
	})

	d.log(found, ev)
	return found, ev
}

func (d *StampDetector) log(found bool, ev StampEvidence) {
	d.logger.Debug("detect.stamp",
		"found", found,
		"color_pixels", ev.ColorPixels,
		"circle", ev.CircleFound,
		"circle_radius", ev.CircleRadius,
		"contour_circularity", ev.ContourCircularity)
}

func (d *StampDetector) guarded(signal string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("detect.stamp.signal_panic", "signal", signal, "panic", r)
		}
	}()
	fn()
}
