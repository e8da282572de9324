// Package pipeline orchestrates one document check end to end: decode,
// extract text, repair it, run the evidence detectors, classify.
package pipeline

import (
	"context"
	"image"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/MaksimPopov64/ocr-drw/constants"
	"github.com/MaksimPopov64/ocr-drw/internal/classify"
	"github.com/MaksimPopov64/ocr-drw/internal/common"
	"github.com/MaksimPopov64/ocr-drw/internal/detect"
	"github.com/MaksimPopov64/ocr-drw/internal/imaging"
	"github.com/MaksimPopov64/ocr-drw/internal/llm"
	"github.com/MaksimPopov64/ocr-drw/internal/ocr"
)

// Request is one document to check.
type Request struct {
	FileName      string
	Image         []byte
	ExpectedClaim string
}

// Processor runs the full pipeline. The text branch and the image branch are
// independent until classification joins them.
type Processor struct {
	extractor  *ocr.Extractor
	normalizer llm.Normalizer
	signatures *detect.SignatureDetector
	stamps     *detect.StampDetector
	classifier *classify.Engine
	logger     *slog.Logger
}

func NewProcessor(
	extractor *ocr.Extractor,
	normalizer llm.Normalizer,
	signatures *detect.SignatureDetector,
	stamps *detect.StampDetector,
	classifier *classify.Engine,
	logger *slog.Logger,
) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{
		extractor:  extractor,
		normalizer: normalizer,
		signatures: signatures,
		stamps:     stamps,
		classifier: classifier,
		logger:     logger,
	}
}

// Process runs one document through the pipeline. The only fatal condition
// is an image that does not decode; every downstream stage degrades instead
// of failing the run.
func (p *Processor) Process(ctx context.Context, req Request) Record {
	rec := Record{
		ID:            uuid.NewString(),
		FileName:      req.FileName,
		ExpectedClaim: req.ExpectedClaim,
		RunStatus:     constants.RunStatusRunning,
		StartedAt:     time.Now(),
	}
	log := p.logger.With("run_id", rec.ID, "file", req.FileName)
	log.Info("pipeline.start", "bytes", len(req.Image))

	img, err := imaging.Decode(req.Image)
	if err != nil {
		rec.RunStatus = constants.RunStatusFailed
		rec.Error = common.NewAppError("DECODE", err.Error(), common.ErrDecode).Error()
		rec.FinishedAt = time.Now()
		log.Error("pipeline.decode_failed", "error", err)
		return rec
	}
	img = imaging.ResizeMaxWidth(img, imaging.MaxAnalysisWidth)

	text, extraction, cleaned := "", ocr.Result{}, false
	var marks detect.Marks

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		extraction = p.extractor.Extract(ctx, req.Image)
		repaired := ocr.CleanRecognitionNoise(extraction.Text)
		norm := p.normalize(ctx, repaired)
		text, cleaned = norm.Text, norm.WasCleaned
	}()
	go func() {
		defer wg.Done()
		marks = p.detectMarks(img, req.Image)
	}()
	wg.Wait()

	// The signature keyword signal needs the final text, which is only
	// known after both branches join. The image signals already ran.
	if !marks.HasSignature {
		marks.HasSignature, marks.SignatureEvidence = p.signatures.ReassessText(text, marks.SignatureEvidence)
	}

	rec.Engine = extraction.Engine
	rec.Confidence = extraction.Confidence
	rec.Text = text
	rec.WasCleaned = cleaned
	rec.Structure = detect.ScanStructure(text)
	rec.Marks = marks
	rec.Decision = p.classifier.Classify(text, req.ExpectedClaim, marks)
	rec.RunStatus = constants.RunStatusDone
	rec.FinishedAt = time.Now()

	log.Info("pipeline.done",
		"status", rec.Decision.Status,
		"engine", rec.Engine,
		"elapsed", rec.FinishedAt.Sub(rec.StartedAt))
	return rec
}

func (p *Processor) normalize(ctx context.Context, text string) llm.NormalizedText {
	if p.normalizer == nil {
		return llm.NormalizedText{Text: text}
	}
	return p.normalizer.Normalize(ctx, text)
}

// detectMarks runs the image-only signals. Signature detection here passes
// empty text; the keyword signal is folded in after the text branch lands.
func (p *Processor) detectMarks(img *image.NRGBA, _ []byte) detect.Marks {
	var m detect.Marks
	m.HasSignature, m.SignatureEvidence = p.signatures.Detect(img, "")
	m.HasStamp, m.StampEvidence = p.stamps.Detect(img)
	return m
}
