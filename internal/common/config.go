package common

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Server  ServerConfig
	History HistoryConfig
	OCR     OCRConfig
	LLM     LLMConfig
	Detect  DetectConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Addr            string
	ShutdownTimeout time.Duration
}

// HistoryConfig selects and configures the verdict history backend.
type HistoryConfig struct {
	Driver string // "sqlite" | "postgres"
	DSN    string // sqlite path or postgres DSN
}

// OCRConfig holds primary-recognizer configuration.
type OCRConfig struct {
	Languages   string // tesseract language string, e.g. "rus+eng"
	TessdataDir string
}

// LLMConfig holds configuration for the Ollama-served models.
type LLMConfig struct {
	BaseURL       string
	Model         string // text model used for normalization
	VisionModel   string // multimodal model used as secondary extraction engine
	Temperature   float32
	TopP          float32
	TopK          int
	RepeatPenalty float32
	NumPredict    int
	Timeout       time.Duration
}

// DetectConfig carries the evidence-fusion thresholds. The defaults were tuned
// on scanned service acts; deployments with a different scan resolution should
// override them via DETECT_THRESHOLDS_FILE.
type DetectConfig struct {
	SignatureRegionFraction float64 `yaml:"signature_region_fraction"`
	GradientVarianceMin     float64 `yaml:"gradient_variance_min"`
	UnderlineMinLengthPx    int     `yaml:"underline_min_length_px"`
	UnderlineMaxGapPx       int     `yaml:"underline_max_gap_px"`
	SignatureContourMinArea float64 `yaml:"signature_contour_min_area"`
	SignatureContourMaxArea float64 `yaml:"signature_contour_max_area"`
	SignatureContourMin     int     `yaml:"signature_contour_min"`

	StampRegionFraction float64 `yaml:"stamp_region_fraction"`
	ColorMinSaturation  uint8   `yaml:"color_min_saturation"`
	ColorMinValue       uint8   `yaml:"color_min_value"`
	ColorPixelFloor     int     `yaml:"color_pixel_floor"`
	CircleMinRadiusPx   int     `yaml:"circle_min_radius_px"`
	CircleMaxRadiusPx   int     `yaml:"circle_max_radius_px"`
	StampContourMinArea float64 `yaml:"stamp_contour_min_area"`
	StampContourMaxArea float64 `yaml:"stamp_contour_max_area"`
	CircularityMin      float64 `yaml:"circularity_min"`
}

// DefaultDetectConfig returns the compiled-in fusion thresholds.
func DefaultDetectConfig() DetectConfig {
	return DetectConfig{
		SignatureRegionFraction: 0.35,
		GradientVarianceMin:     900,
		UnderlineMinLengthPx:    200,
		UnderlineMaxGapPx:       10,
		SignatureContourMinArea: 100,
		SignatureContourMaxArea: 10000,
		SignatureContourMin:     3,

		StampRegionFraction: 0.40,
		ColorMinSaturation:  60,
		ColorMinValue:       50,
		ColorPixelFloor:     5000,
		CircleMinRadiusPx:   15,
		CircleMaxRadiusPx:   150,
		StampContourMinArea: 1000,
		StampContourMaxArea: 80000,
		CircularityMin:      0.6,
	}
}

// LoadConfig loads configuration from environment variables.
func LoadConfig() *Config {
	cfg := &Config{
		Server: ServerConfig{
			Addr:            getEnv("HTTP_ADDR", ":8080"),
			ShutdownTimeout: getEnvAsDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		History: HistoryConfig{
			Driver: getEnv("HISTORY_DRIVER", "sqlite"),
			DSN:    getEnv("HISTORY_DSN", "./ocr-drw.db"),
		},
		OCR: OCRConfig{
			Languages:   getEnv("OCR_LANGUAGES", "rus+eng"),
			TessdataDir: getEnv("TESSDATA_PREFIX", ""),
		},
		LLM: LLMConfig{
			BaseURL:       getEnv("OLLAMA_URL", "http://localhost:11434"),
			Model:         getEnv("OLLAMA_MODEL", "mistral:7b-instruct"),
			VisionModel:   getEnv("OLLAMA_VISION_MODEL", "qwen2.5-vl:7b"),
			Temperature:   getEnvAsFloat32("OLLAMA_TEMPERATURE", 0.1),
			TopP:          getEnvAsFloat32("OLLAMA_TOP_P", 0.9),
			TopK:          getEnvAsInt("OLLAMA_TOP_K", 40),
			RepeatPenalty: getEnvAsFloat32("OLLAMA_REPEAT_PENALTY", 1.1),
			NumPredict:    getEnvAsInt("OLLAMA_NUM_PREDICT", 2048),
			Timeout:       getEnvAsDuration("OLLAMA_TIMEOUT", 60*time.Second),
		},
		Detect: DefaultDetectConfig(),
	}
	if path := os.Getenv("DETECT_THRESHOLDS_FILE"); path != "" {
		if err := LoadDetectConfigFile(path, &cfg.Detect); err != nil {
			// Bad threshold files are a deployment mistake; fall back to defaults
			// rather than refusing to start.
			slog.Warn("config.detect_thresholds.fallback", "file", path, "error", err)
			cfg.Detect = DefaultDetectConfig()
		}
	}
	return cfg
}

// LoadDetectConfigFile overlays thresholds from a YAML file onto dst.
// Fields absent from the file keep their current values.
func LoadDetectConfigFile(path string, dst *DetectConfig) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read thresholds file: %w", err)
	}
	if err := yaml.Unmarshal(b, dst); err != nil {
		return fmt.Errorf("parse thresholds file: %w", err)
	}
	return nil
}

// Validate validates the loaded configuration.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return NewAppError("CONFIG_ERROR", "HTTP_ADDR is required", ErrInvalidInput)
	}
	switch c.History.Driver {
	case "sqlite", "postgres":
	default:
		return NewAppError("CONFIG_ERROR", "HISTORY_DRIVER must be sqlite or postgres", ErrInvalidInput)
	}
	if c.History.DSN == "" {
		return NewAppError("CONFIG_ERROR", "HISTORY_DSN is required", ErrInvalidInput)
	}
	return nil
}

// Helper functions for environment variable parsing.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat32(key string, defaultValue float32) float32 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 32); err == nil {
			return float32(floatVal)
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
