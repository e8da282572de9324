package ocr

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/MaksimPopov64/ocr-drw/constants"
	"github.com/MaksimPopov64/ocr-drw/internal/llm"
)

// VisionClient is the slice of the model client the fallback engine needs.
type VisionClient interface {
	Ready(ctx context.Context) bool
	GenerateWithImage(ctx context.Context, prompt string, image []byte) (string, error)
}

// visionRead mirrors the JSON shape the transcription prompt asks for.
type visionRead struct {
	Text       string `json:"text"`
	Checkboxes *struct {
		Checked   int `json:"checked"`
		Unchecked int `json:"unchecked"`
	} `json:"checkboxes,omitempty"`
}

const (
	// structuredVisionConfidence applies when the model answered in the
	// requested JSON shape.
	structuredVisionConfidence = 0.6
	// rawVisionConfidence applies when we fall back to the raw reply.
	rawVisionConfidence = 0.3
)

// VisionEngine is the secondary recognizer: a vision-language model asked to
// transcribe the page. Confidence is fixed by response shape rather than
// reported by the model.
type VisionEngine struct {
	client VisionClient
	logger *slog.Logger
}

func NewVisionEngine(client VisionClient, logger *slog.Logger) *VisionEngine {
	if logger == nil {
		logger = slog.Default()
	}
	return &VisionEngine{client: client, logger: logger}
}

func (e *VisionEngine) Name() string { return "vision" }

func (e *VisionEngine) Kind() constants.EngineKind { return constants.EngineSecondary }

func (e *VisionEngine) Ready(ctx context.Context) bool {
	if e.client == nil {
		return false
	}
	return e.client.Ready(ctx)
}

// Recognize asks the model for a structured transcription. A reply matching
// the schema yields its text field at medium confidence; anything else is
// taken verbatim at low confidence rather than discarded.
func (e *VisionEngine) Recognize(ctx context.Context, image []byte) (string, float32, error) {
	raw, err := e.client.GenerateWithImage(ctx, llm.BuildVisionPrompt(), image)
	if err != nil {
		return "", 0, err
	}
	cleaned := llm.StripCodeFence(raw)

	if err := llm.ValidateJSONAgainstSchema(llm.VisionReadSchema(), []byte(cleaned)); err == nil {
		var read visionRead
		if json.Unmarshal([]byte(cleaned), &read) == nil && strings.TrimSpace(read.Text) != "" {
			e.logger.Debug("ocr.vision.structured", "chars", len(read.Text))
			return strings.TrimSpace(read.Text), structuredVisionConfidence, nil
		}
	}

	e.logger.Debug("ocr.vision.raw_fallback", "chars", len(cleaned))
	return strings.TrimSpace(cleaned), rawVisionConfidence, nil
}
