package llm

import (
	"context"
	"log/slog"
	"regexp"
	"strings"
	"unicode/utf8"
)

// MaxNormalizeInput bounds the text sent to the model; anything past it is
// reattached verbatim after the model pass. Keeps latency and cost bounded.
const MaxNormalizeInput = 1500

var reDigitsRun = regexp.MustCompile(`\d{5,}`)

// ModelNormalizer implements Normalizer over a text-generation model.
// Every failure mode degrades to the identity result, never to an error.
type ModelNormalizer struct {
	client TextClient
	logger *slog.Logger
}

func NewModelNormalizer(client TextClient, logger *slog.Logger) *ModelNormalizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &ModelNormalizer{client: client, logger: logger}
}

// Normalize repairs recognition artifacts via the model. On an unreachable
// server, a failed call, or a response that lost protected tokens, the raw
// text comes back with WasCleaned=false.
func (n *ModelNormalizer) Normalize(ctx context.Context, text string) NormalizedText {
	fallback := NormalizedText{Text: text, WasCleaned: false}
	if n.client == nil || strings.TrimSpace(text) == "" {
		return fallback
	}
	if !n.client.Ready(ctx) {
		n.logger.Warn("llm.normalize.skipped", "reason", "model not ready")
		return fallback
	}

	head, tail := text, ""
	if len(text) > MaxNormalizeInput {
		// Back the cut off to a rune boundary so Cyrillic input is never
		// split mid-rune at the seam.
		cut := MaxNormalizeInput
		for cut > 0 && !utf8.RuneStart(text[cut]) {
			cut--
		}
		head, tail = text[:cut], text[cut:]
	}

	prompt := BuildNormalizePrompt(head)
	cleaned, err := n.client.Generate(ctx, prompt)
	if err != nil {
		// One retry on transient failure, then give up quietly.
		cleaned, err = n.client.Generate(ctx, prompt)
	}
	if err != nil {
		n.logger.Warn("llm.normalize.fallback", "error", err)
		return fallback
	}
	cleaned = strings.TrimSpace(cleaned)

	if !plausibleCleanup(head, cleaned) {
		n.logger.Warn("llm.normalize.rejected",
			"reason", "response dropped protected content",
			"in_len", len(head), "out_len", len(cleaned),
		)
		return fallback
	}

	return NormalizedText{Text: cleaned + tail, WasCleaned: true}
}

// plausibleCleanup guards against a model response that deleted too much.
// The cleaned text must keep a meaningful share of the input and every long
// digit run (document numbers must survive normalization).
func plausibleCleanup(in, out string) bool {
	if out == "" || len(out) < len(in)*3/10 {
		return false
	}
	for _, run := range reDigitsRun.FindAllString(in, -1) {
		if !strings.Contains(out, run) {
			return false
		}
	}
	return true
}
