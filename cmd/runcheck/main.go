// Command runcheck verifies a single scanned document and prints the verdict.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/MaksimPopov64/ocr-drw/constants"
	"github.com/MaksimPopov64/ocr-drw/internal/classify"
	"github.com/MaksimPopov64/ocr-drw/internal/common"
	"github.com/MaksimPopov64/ocr-drw/internal/detect"
	"github.com/MaksimPopov64/ocr-drw/internal/llm"
	"github.com/MaksimPopov64/ocr-drw/internal/llm/ollama"
	"github.com/MaksimPopov64/ocr-drw/internal/ocr"
	"github.com/MaksimPopov64/ocr-drw/internal/pipeline"
)

func main() {
	var (
		expectedClaim = flag.String("claim", "", "expected claim number to verify against")
		noLLM         = flag.Bool("no-llm", false, "skip the model normalization and fallback passes")
		verbose       = flag.Bool("v", false, "debug logging")
	)
	flag.Parse()
	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: runcheck [flags] <image>")
		flag.PrintDefaults()
		os.Exit(2)
	}
	path := flag.Arg(0)

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	if !constants.IsAllowedExt(filepath.Ext(path)) {
		fmt.Fprintf(os.Stderr, "unsupported file type: %s\n", path)
		os.Exit(2)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "read %s: %v\n", path, err)
		os.Exit(1)
	}

	cfg := common.LoadConfig()
	processor := buildProcessor(cfg, *noLLM, logger)

	rec := processor.Process(context.Background(), pipeline.Request{
		FileName:      filepath.Base(path),
		Image:         data,
		ExpectedClaim: *expectedClaim,
	})
	fmt.Print(rec.Flatten())

	if rec.RunStatus == constants.RunStatusFailed {
		os.Exit(1)
	}
}

func buildProcessor(cfg *common.Config, noLLM bool, logger *slog.Logger) *pipeline.Processor {
	primary := ocr.NewTesseractEngine(cfg.OCR.Languages, logger)

	var secondary ocr.Engine
	var normalizer llm.Normalizer
	if !noLLM {
		client := ollama.NewClient(ollama.Config{
			BaseURL:     cfg.LLM.BaseURL,
			Model:       cfg.LLM.Model,
			VisionModel: cfg.LLM.VisionModel,
			Timeout:     cfg.LLM.Timeout,
		}, logger)
		secondary = ocr.NewVisionEngine(client, logger)
		normalizer = llm.NewModelNormalizer(client, logger)
	}

	return pipeline.NewProcessor(
		ocr.NewExtractor(primary, secondary, logger),
		normalizer,
		detect.NewSignatureDetector(cfg.Detect, logger),
		detect.NewStampDetector(cfg.Detect, logger),
		classify.NewEngine(logger),
		logger,
	)
}
