package detect

import (
	"image"
	"log/slog"
	"strings"

	"github.com/MaksimPopov64/ocr-drw/internal/common"
	"github.com/MaksimPopov64/ocr-drw/internal/imaging"
)

// signatureKeywords are matched case-insensitively against recognized text.
// Any hit is decisive on its own; the image signals exist for pages where
// recognition lost the caption.
var signatureKeywords = []string{
	"подпись",
	"подписан",
	"signature",
	"исполнитель",
	"заказчик",
	"клиент",
}

// SignatureDetector fuses one text signal and three image signals computed
// over the bottom strip of the page, where signatures live on service acts.
type SignatureDetector struct {
	cfg    common.DetectConfig
	logger *slog.Logger
}

func NewSignatureDetector(cfg common.DetectConfig, logger *slog.Logger) *SignatureDetector {
	if logger == nil {
		logger = slog.Default()
	}
	return &SignatureDetector{cfg: cfg, logger: logger}
}

// Detect evaluates all signals and fuses them: a keyword hit decides alone,
// otherwise at least two of the three image signals must agree. Every signal
// runs inside a recovery guard so one misbehaving computation degrades to a
// miss instead of killing the run. Evidence is always fully populated.
func (d *SignatureDetector) Detect(img *image.NRGBA, text string) (bool, SignatureEvidence) {
	var ev SignatureEvidence

	ev.KeywordHit = d.keywordSignal(text)

	if img != nil && img.Rect.Dx() > 0 && img.Rect.Dy() > 0 {
		region := imaging.BottomRegion(img, d.cfg.SignatureRegionFraction)
		gray := imaging.ToGray(region)

		d.guarded("texture", func() {
			ev.TextureVariance = imaging.Sobel(gray).MagnitudeVariance()
			ev.TextureHit = ev.TextureVariance > d.cfg.GradientVarianceMin
		})
		d.guarded("underline", func() {
			bin := imaging.Threshold(gray, 128)
			segs := imaging.HorizontalSegments(bin, d.cfg.UnderlineMinLengthPx, d.cfg.UnderlineMaxGapPx, 2)
			ev.UnderlineFound = len(segs) > 0
		})
		d.guarded("contour", func() {
			bin := imaging.Threshold(gray, 128)
			for _, c := range imaging.FindContours(bin) {
				if c.Area < d.cfg.SignatureContourMinArea || c.Area > d.cfg.SignatureContourMaxArea {
					continue
				}
				if c.AspectRatio() < 0.7 {
					continue
				}
				if c.Circularity() >= 0.5 {
					continue
				}
				ev.ContourCount++
			}
			ev.ContourHit = ev.ContourCount >= d.cfg.SignatureContourMin
		})
	}

	found := fuseSignature(ev)
	d.logger.Debug("detect.signature",
		"found", found,
		"keyword", ev.KeywordHit,
		"texture_variance", ev.TextureVariance,
		"underline", ev.UnderlineFound,
		"contours", ev.ContourCount)
	return found, ev
}

// ReassessText re-fuses existing image evidence with the keyword signal of
// newly available text. The image signals are not recomputed.
func (d *SignatureDetector) ReassessText(text string, ev SignatureEvidence) (bool, SignatureEvidence) {
	ev.KeywordHit = d.keywordSignal(text)
	found := fuseSignature(ev)
	d.logger.Debug("detect.signature.reassess", "found", found, "keyword", ev.KeywordHit)
	return found, ev
}

func (d *SignatureDetector) keywordSignal(text string) bool {
	lower := strings.ToLower(text)
	for _, kw := range signatureKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

func fuseSignature(ev SignatureEvidence) bool {
	if ev.KeywordHit {
		return true
	}
	votes := 0
	if ev.TextureHit {
		votes++
	}
	if ev.UnderlineFound {
		votes++
	}
	if ev.ContourHit {
		votes++
	}
	return votes >= 2
}

func (d *SignatureDetector) guarded(signal string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("detect.signature.signal_panic", "signal", signal, "panic", r)
		}
	}()
	fn()
}
