// Package export renders verdict history as an XLSX workbook.
package export

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/MaksimPopov64/ocr-drw/internal/history"
)

// Service produces XLSX bytes for history exports.
type Service struct {
	store  history.Store
	logger *slog.Logger
}

func NewService(store history.Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, logger: logger}
}

// maxExportRows bounds a single export; pagination covers the rest.
const maxExportRows = 10000

// ExportHistoryXLSX returns a workbook with one row per recorded run.
func (s *Service) ExportHistoryXLSX(ctx context.Context) ([]byte, error) {
	start := time.Now()

	recs, err := s.store.List(ctx, maxExportRows, 0)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}

	f := excelize.NewFile()
	const sheet = "Results"
	if index, _ := f.GetSheetIndex(sheet); index == -1 {
		if _, err := f.NewSheet(sheet); err != nil {
			return nil, err
		}
	}
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)
	// Drop the default sheet excelize creates.
	if index, _ := f.GetSheetIndex("Sheet1"); index != -1 {
		_ = f.DeleteSheet("Sheet1")
	}

	headers := []string{
		"Checked At",
		"File",
		"Status",
		"Claim Number",
		"Expected Claim",
		"Document Date",
		"Signature",
		"Stamp",
		"Engine",
		"Confidence",
		"Rationale",
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	row := 2
	for _, r := range recs {
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(sheet, cell, v)
		}
		write(1, r.StartedAt.Format("2006-01-02 15:04:05"))
		write(2, r.FileName)
		write(3, string(r.Decision.Status))
		write(4, r.Decision.Metadata.ClaimNumber)
		write(5, r.ExpectedClaim)
		write(6, r.Decision.Metadata.Date)
		write(7, yesNo(r.Marks.HasSignature))
		write(8, yesNo(r.Marks.HasStamp))
		write(9, string(r.Engine))
		write(10, fmt.Sprintf("%.2f", r.Confidence))
		write(11, truncate(strings.Join(r.Decision.Rationale, "; "), 200))
		row++
	}

	_ = f.SetColWidth(sheet, "A", "A", 20)
	_ = f.SetColWidth(sheet, "B", "B", 32)
	_ = f.SetColWidth(sheet, "C", "C", 12)
	_ = f.SetColWidth(sheet, "K", "K", 60)

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}

	s.logger.Info("export.history.done",
		"rows", len(recs),
		"bytes", buf.Len(),
		"elapsed", time.Since(start))
	return buf.Bytes(), nil
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-1] + "…"
}
