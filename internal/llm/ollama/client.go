// Package ollama is a minimal client for an Ollama server's generate API,
// covering the two calls the pipeline makes: text completion and multimodal
// (image + prompt) completion.
package ollama

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/MaksimPopov64/ocr-drw/internal/llm"
)

type Client struct {
	cfg    Config
	http   *http.Client
	logger *slog.Logger
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	cfg = cfg.withDefaults()
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}
}

// Options are the bounded generation parameters sent with every request.
// Low randomness keeps the model from inventing document content.
type Options struct {
	Temperature   float32 `json:"temperature"`
	TopP          float32 `json:"top_p"`
	TopK          int     `json:"top_k"`
	RepeatPenalty float32 `json:"repeat_penalty"`
	NumPredict    int     `json:"num_predict"`
}

type generateRequest struct {
	Model   string   `json:"model"`
	Prompt  string   `json:"prompt"`
	Images  []string `json:"images,omitempty"`
	Stream  bool     `json:"stream"`
	Options Options  `json:"options"`
}

type generateResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

// Ready reports whether the server answers its tags endpoint. Queried at
// call sites before optional upgrades; a cold server is a missed upgrade,
// not an error.
func (c *Client) Ready(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimRight(c.cfg.BaseURL, "/")+"/api/tags", nil)
	if err != nil {
		return false
	}
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Debug("ollama.ready.unreachable", "url", c.cfg.BaseURL, "error", err)
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// Generate runs a text completion on the configured text model.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	return c.generate(ctx, c.cfg.Model, prompt, nil)
}

// GenerateWithImage runs a multimodal completion on the configured vision
// model with one attached image.
func (c *Client) GenerateWithImage(ctx context.Context, prompt string, image []byte) (string, error) {
	return c.generate(ctx, c.cfg.VisionModel, prompt, []string{base64.StdEncoding.EncodeToString(image)})
}

func (c *Client) generate(ctx context.Context, model, prompt string, images []string) (string, error) {
	start := time.Now()
	body := generateRequest{
		Model:   model,
		Prompt:  prompt,
		Images:  images,
		Stream:  false,
		Options: c.cfg.Options,
	}
	url := strings.TrimRight(c.cfg.BaseURL, "/") + "/api/generate"
	raw, _, err := llm.SendJSON(ctx, c.http, url, body, c.logger)
	if err != nil {
		return "", fmt.Errorf("ollama generate: %w", err)
	}
	var gr generateResponse
	if err := json.Unmarshal(raw, &gr); err != nil {
		return "", fmt.Errorf("decode ollama response: %w", err)
	}
	out := strings.TrimSpace(gr.Response)
	if out == "" {
		return "", fmt.Errorf("ollama returned empty completion")
	}
	c.logger.Debug("ollama.generate.ok",
		"model", model,
		"prompt_len", len(prompt),
		"images", len(images),
		"response_len", len(out),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return out, nil
}
