// Command ocr-drwd serves the document verification API over HTTP.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/MaksimPopov64/ocr-drw/internal/classify"
	"github.com/MaksimPopov64/ocr-drw/internal/common"
	"github.com/MaksimPopov64/ocr-drw/internal/detect"
	"github.com/MaksimPopov64/ocr-drw/internal/export"
	"github.com/MaksimPopov64/ocr-drw/internal/history"
	"github.com/MaksimPopov64/ocr-drw/internal/llm"
	"github.com/MaksimPopov64/ocr-drw/internal/llm/ollama"
	"github.com/MaksimPopov64/ocr-drw/internal/ocr"
	"github.com/MaksimPopov64/ocr-drw/internal/pipeline"
	"github.com/MaksimPopov64/ocr-drw/internal/server"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("config invalid", "error", err)
		os.Exit(1)
	}
	if cfg.OCR.TessdataDir != "" {
		os.Setenv("TESSDATA_PREFIX", cfg.OCR.TessdataDir)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := history.Open(ctx, cfg.History)
	if err != nil {
		logger.Error("open history store", "driver", cfg.History.Driver, "error", err)
		os.Exit(1)
	}
	defer store.Close()

	client := ollama.NewClient(ollama.Config{
		BaseURL:     cfg.LLM.BaseURL,
		Model:       cfg.LLM.Model,
		VisionModel: cfg.LLM.VisionModel,
		Timeout:     cfg.LLM.Timeout,
		Options: ollama.Options{
			Temperature:   cfg.LLM.Temperature,
			TopP:          cfg.LLM.TopP,
			TopK:          cfg.LLM.TopK,
			RepeatPenalty: cfg.LLM.RepeatPenalty,
			NumPredict:    cfg.LLM.NumPredict,
		},
	}, logger)

	primary := ocr.NewTesseractEngine(cfg.OCR.Languages, logger)
	secondary := ocr.NewVisionEngine(client, logger)
	extractor := ocr.NewExtractor(primary, secondary, logger)
	normalizer := llm.NewModelNormalizer(client, logger)

	processor := pipeline.NewProcessor(
		extractor,
		normalizer,
		detect.NewSignatureDetector(cfg.Detect, logger),
		detect.NewStampDetector(cfg.Detect, logger),
		classify.NewEngine(logger),
		logger,
	)

	exporter := export.NewService(store, logger)
	api := server.New(processor, store, exporter, client.Ready, logger)

	srv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: api.Router(),
	}
	go func() {
		logger.Info("server.listening", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server.serve", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("server.shutting_down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server.shutdown", "error", err)
	}
	logger.Info("server.stopped")
}
