package ocr

import (
	"context"
	"log/slog"

	"github.com/MaksimPopov64/ocr-drw/constants"
)

// Extractor drives the two-engine policy: primary first, secondary when the
// primary errors or its output fails the confidence floor. Extraction never
// returns an error to callers; the worst outcome is an empty result.
type Extractor struct {
	primary   Engine
	secondary Engine
	logger    *slog.Logger
}

// NewExtractor wires the policy. secondary may be nil, in which case the
// primary's output stands whatever its quality.
func NewExtractor(primary, secondary Engine, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{primary: primary, secondary: secondary, logger: logger}
}

// Extract produces exactly one Result for the image. The secondary result
// replaces the primary's only when it is actually better: the primary failed
// outright, or the primary's text fell below the floor and the secondary's
// did not.
func (x *Extractor) Extract(ctx context.Context, image []byte) Result {
	text, conf, err := x.recognize(ctx, x.primary, image, false)
	primaryRes := Result{Text: text, Engine: constants.EnginePrimary, Confidence: conf}
	if err != nil {
		x.logger.Warn("ocr.primary.failed", "error", err)
		primaryRes = Result{Engine: constants.EnginePrimary}
	}

	if err == nil && !LowConfidence(primaryRes.Text) {
		return primaryRes
	}
	if x.secondary == nil || !x.secondary.Ready(ctx) {
		x.logger.Info("ocr.secondary.unavailable", "primary_chars", len(primaryRes.Text))
		return primaryRes
	}

	secText, secConf, secErr := x.recognize(ctx, x.secondary, image, true)
	if secErr != nil {
		x.logger.Warn("ocr.secondary.failed", "error", secErr)
		return primaryRes
	}
	secondaryRes := Result{Text: secText, Engine: constants.EngineSecondary, Confidence: secConf}
	if LowConfidence(secondaryRes.Text) && !LowConfidence(primaryRes.Text) {
		return primaryRes
	}
	if secondaryRes.Text == "" {
		return primaryRes
	}
	x.logger.Info("ocr.fallback.used",
		"primary_chars", len(primaryRes.Text),
		"secondary_chars", len(secondaryRes.Text))
	return secondaryRes
}

// recognize runs one engine, retrying once on failure for remote engines
// where a transient network error is the common failure mode.
func (x *Extractor) recognize(ctx context.Context, e Engine, image []byte, retry bool) (string, float32, error) {
	text, conf, err := e.Recognize(ctx, image)
	if err != nil && retry && ctx.Err() == nil {
		x.logger.Debug("ocr.retry", "engine", e.Name(), "error", err)
		text, conf, err = e.Recognize(ctx, image)
	}
	return text, conf, err
}
