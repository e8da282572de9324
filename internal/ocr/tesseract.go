package ocr

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/otiai10/gosseract/v2"

	"github.com/MaksimPopov64/ocr-drw/constants"
)

// TesseractEngine is the primary recognizer. Each call owns a fresh gosseract
// client; the underlying API is not safe for concurrent reuse.
type TesseractEngine struct {
	languages     []string
	clientFactory func() *gosseract.Client
	logger        *slog.Logger
}

// NewTesseractEngine constructs the primary engine. languages follows the
// tesseract convention ("rus+eng"); empty means the library default.
func NewTesseractEngine(languages string, logger *slog.Logger) *TesseractEngine {
	if logger == nil {
		logger = slog.Default()
	}
	var langs []string
	for _, l := range strings.Split(languages, "+") {
		if l = strings.TrimSpace(l); l != "" {
			langs = append(langs, l)
		}
	}
	return &TesseractEngine{
		languages:     langs,
		clientFactory: gosseract.NewClient,
		logger:        logger,
	}
}

func (e *TesseractEngine) Name() string { return "tesseract" }

func (e *TesseractEngine) Kind() constants.EngineKind { return constants.EnginePrimary }

// Ready always answers true: the engine runs in-process.
func (e *TesseractEngine) Ready(ctx context.Context) bool { return true }

// Recognize runs recognition on the encoded image and blends the
// word-box confidence tesseract reports with our own text heuristic.
func (e *TesseractEngine) Recognize(ctx context.Context, image []byte) (string, float32, error) {
	select {
	case <-ctx.Done():
		return "", 0, ctx.Err()
	default:
	}

	c := e.clientFactory()
	defer c.Close()

	if err := c.SetImageFromBytes(image); err != nil {
		return "", 0, fmt.Errorf("set image: %w", err)
	}
	if len(e.languages) > 0 {
		if err := c.SetLanguage(e.languages...); err != nil {
			return "", 0, fmt.Errorf("set languages: %w", err)
		}
	}
	text, err := c.Text()
	if err != nil {
		return "", 0, fmt.Errorf("recognize text: %w", err)
	}
	text = strings.TrimSpace(text)

	conf := blendConfidence(wordConfidence(c), heuristicConfidence(text))
	e.logger.Debug("ocr.tesseract.done",
		"chars", len(text),
		"confidence", conf)
	return text, conf, nil
}

// wordConfidence averages per-word confidences from the recognizer,
// normalized to [0,1]. Zero when the engine reports none.
func wordConfidence(c *gosseract.Client) float32 {
	boxes, err := c.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil || len(boxes) == 0 {
		return 0
	}
	var sum float64
	for _, b := range boxes {
		sum += b.Confidence / 100.0
	}
	return float32(sum / float64(len(boxes)))
}

// blendConfidence weights the engine's own number over the heuristic when
// both exist.
func blendConfidence(engine, heuristic float32) float32 {
	if engine <= 0 {
		return heuristic
	}
	return 0.7*engine + 0.3*heuristic
}
