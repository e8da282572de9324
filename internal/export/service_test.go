package export

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/MaksimPopov64/ocr-drw/constants"
	"github.com/MaksimPopov64/ocr-drw/internal/classify"
	"github.com/MaksimPopov64/ocr-drw/internal/detect"
	"github.com/MaksimPopov64/ocr-drw/internal/pipeline"
)

type fixedStore struct {
	recs []pipeline.Record
}

func (f *fixedStore) Save(_ context.Context, _ pipeline.Record) error { return nil }

func (f *fixedStore) Get(_ context.Context, _ string) (pipeline.Record, error) {
	return pipeline.Record{}, nil
}

func (f *fixedStore) List(_ context.Context, _, _ int) ([]pipeline.Record, error) {
	return f.recs, nil
}

func (f *fixedStore) Close() error { return nil }

func TestExportHistoryXLSX(t *testing.T) {
	started := time.Date(2024, 3, 12, 10, 30, 0, 0, time.UTC)
	store := &fixedStore{recs: []pipeline.Record{
		{
			ID:            "r1",
			FileName:      "act-1847896.png",
			ExpectedClaim: "1847896",
			RunStatus:     constants.RunStatusDone,
			Engine:        constants.EnginePrimary,
			Confidence:    0.91,
			Marks:         detect.Marks{HasSignature: true, HasStamp: true},
			Decision: classify.Decision{
				Status:    constants.StatusApproved,
				Rationale: []string{"claim number 1847896 matches", "signature detected", "stamp detected"},
				Metadata:  classify.Metadata{ClaimNumber: "1847896", Date: "12.03.2024"},
			},
			StartedAt:  started,
			FinishedAt: started.Add(3 * time.Second),
		},
		{
			ID:        "r2",
			FileName:  "blank.png",
			RunStatus: constants.RunStatusDone,
			Decision: classify.Decision{
				Status:    constants.StatusRejected,
				Rationale: []string{"no signature detected", "no stamp detected"},
			},
			StartedAt: started.Add(time.Minute),
		},
	}}

	data, err := NewService(store, nil).ExportHistoryXLSX(context.Background())
	if err != nil {
		t.Fatalf("export: %v", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("reopen workbook: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows("Results")
	if err != nil {
		t.Fatalf("read sheet: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want header plus 2 records", len(rows))
	}
	if rows[0][0] != "Checked At" || rows[0][2] != "Status" {
		t.Fatalf("header row wrong: %v", rows[0])
	}
	if rows[1][1] != "act-1847896.png" || rows[1][2] != "APPROVED" || rows[1][3] != "1847896" {
		t.Fatalf("first record row wrong: %v", rows[1])
	}
	if rows[1][6] != "yes" || rows[1][7] != "yes" {
		t.Fatalf("mark columns wrong: %v", rows[1])
	}
	if rows[2][2] != "REJECTED" {
		t.Fatalf("second record row wrong: %v", rows[2])
	}
}

func TestExportEmptyHistory(t *testing.T) {
	data, err := NewService(&fixedStore{}, nil).ExportHistoryXLSX(context.Background())
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("reopen workbook: %v", err)
	}
	defer f.Close()
	rows, err := f.GetRows("Results")
	if err != nil {
		t.Fatalf("read sheet: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("got %d rows, want header only", len(rows))
	}
}
