// Command check-batch verifies every supported image in a directory and
// prints a per-file summary line plus totals.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"sync"

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
		expectedClaim = flag.String("claim", "", "expected claim number applied to every file")
		workers       = flag.Int("workers", runtime.NumCPU(), "parallel pipeline runs")
		noLLM         = flag.Bool("no-llm", false, "skip the model normalization and fallback passes")
	)
	flag.Parse()
	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: check-batch [flags] <directory>")
		flag.PrintDefaults()
		os.Exit(2)
	}
	dir := flag.Arg(0)

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	slog.SetDefault(logger)

	paths, err := collectImages(dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "scan %s: %v\n", dir, err)
		os.Exit(1)
	}
	if len(paths) == 0 {
		fmt.Fprintf(os.Stderr, "no supported images under %s\n", dir)
		os.Exit(1)
	}

	cfg := common.LoadConfig()
	processor := buildProcessor(cfg, *noLLM, logger)

	if *workers < 1 {
		*workers = 1
	}
	if *workers > len(paths) {
		*workers = len(paths)
	}

	results := make([]pipeline.Record, len(paths))
	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < *workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				results[i] = runOne(processor, paths[i], *expectedClaim)
			}
		}()
	}
	for i := range paths {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	counts := map[constants.VerdictStatus]int{}
	failed := 0
	for i, rec := range results {
		if rec.RunStatus == constants.RunStatusFailed {
			failed++
			fmt.Printf("%-40s FAILED  %s\n", filepath.Base(paths[i]), rec.Error)
			continue
		}
		counts[rec.Decision.Status]++
		fmt.Printf("%-40s %-8s claim=%s sig=%v stamp=%v\n",
			filepath.Base(paths[i]), rec.Decision.Status,
			rec.Decision.Metadata.ClaimNumber,
			rec.Marks.HasSignature, rec.Marks.HasStamp)
	}
	fmt.Printf("\ntotal=%d approved=%d rejected=%d review=%d failed=%d\n",
		len(paths),
		counts[constants.StatusApproved],
		counts[constants.StatusRejected],
		counts[constants.StatusReview],
		failed)

	if failed > 0 {
		os.Exit(1)
	}
}

func runOne(p *pipeline.Processor, path, expectedClaim string) pipeline.Record {
	data, err := os.ReadFile(path)
	if err != nil {
		return pipeline.Record{
			FileName:  filepath.Base(path),
			RunStatus: constants.RunStatusFailed,
			Error:     err.Error(),
		}
	}
	return p.Process(context.Background(), pipeline.Request{
		FileName:      filepath.Base(path),
		Image:         data,
		ExpectedClaim: expectedClaim,
	})
}

func collectImages(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if constants.IsAllowedExt(filepath.Ext(e.Name())) {
			paths = append(paths, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(paths)
	return paths, nil
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
