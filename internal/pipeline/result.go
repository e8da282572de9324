package pipeline

import (
	"fmt"
	"strings"
	"time"

	"github.com/MaksimPopov64/ocr-drw/constants"
	"github.com/MaksimPopov64/ocr-drw/internal/classify"
	"github.com/MaksimPopov64/ocr-drw/internal/detect"
)

// Record is the complete outcome of one pipeline run, as returned to API
// callers and persisted to history.
type Record struct {
	ID            string                    `json:"id"`
	FileName      string                    `json:"file_name"`
	ExpectedClaim string                    `json:"expected_claim,omitempty"`
	RunStatus     constants.RunStatus       `json:"run_status"`
	Error         string                    `json:"error,omitempty"`
	Engine        constants.EngineKind      `json:"engine,omitempty"`
	Confidence    float32                   `json:"confidence"`
	Text          string                    `json:"text,omitempty"`
	WasCleaned    bool                      `json:"was_cleaned"`
	Structure     detect.StructuralFeatures `json:"structure"`
	Marks         detect.Marks              `json:"marks"`
	Decision      classify.Decision         `json:"decision"`
	StartedAt     time.Time                 `json:"started_at"`
	FinishedAt    time.Time                 `json:"finished_at"`
}

// Flatten renders the record as ordered key-value lines for CLI output.
func (r Record) Flatten() string {
	var b strings.Builder
	put := func(k string, v any) {
		fmt.Fprintf(&b, "%-22s %v\n", k+":", v)
	}
	put("id", r.ID)
	put("file", r.FileName)
	put("run_status", r.RunStatus)
	if r.Error != "" {
		put("error", r.Error)
	}
	put("engine", r.Engine)
	put("confidence", fmt.Sprintf("%.2f", r.Confidence))
	put("was_cleaned", r.WasCleaned)
	put("claim_number", r.Decision.Metadata.ClaimNumber)
	if r.ExpectedClaim != "" {
		put("expected_claim", r.ExpectedClaim)
	}
	if r.Decision.Metadata.Date != "" {
		put("date", r.Decision.Metadata.Date)
	}
	put("has_table", r.Structure.HasTable)
	put("has_checkboxes", r.Structure.HasCheckboxes)
	put("has_signature", r.Marks.HasSignature)
	put("has_stamp", r.Marks.HasStamp)
	put("status", r.Decision.Status)
	for i, reason := range r.Decision.Rationale {
		put(fmt.Sprintf("rationale[%d]", i), reason)
	}
	put("elapsed", r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond))
	return b.String()
}
