package ollama

import "time"

// Config for the Ollama client.
type Config struct {
	BaseURL     string // default http://localhost:11434
	Model       string // text model, e.g. "mistral:7b-instruct"
	VisionModel string // multimodal model, e.g. "qwen2.5-vl:7b"
	Timeout     time.Duration
	Options     Options
}

func (c Config) withDefaults() Config {
	if c.BaseURL == "" {
		c.BaseURL = "http://localhost:11434"
	}
	if c.Model == "" {
		c.Model = "mistral:7b-instruct"
	}
	if c.VisionModel == "" {
		c.VisionModel = "qwen2.5-vl:7b"
	}
	if c.Timeout <= 0 {
		c.Timeout = 60 * time.Second
	}
	if c.Options.Temperature <= 0 {
		c.Options.Temperature = 0.1
	}
	if c.Options.TopP <= 0 {
		c.Options.TopP = 0.9
	}
	if c.Options.TopK <= 0 {
		c.Options.TopK = 40
	}
	if c.Options.RepeatPenalty <= 1 {
		c.Options.RepeatPenalty = 1.1
	}
	if c.Options.NumPredict <= 0 {
		c.Options.NumPredict = 2048
	}
	return c
}
