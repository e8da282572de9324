// Package classify turns extracted text and detector verdicts into a final
// document decision with an ordered, human-readable rationale.
package classify

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/MaksimPopov64/ocr-drw/constants"
	"github.com/MaksimPopov64/ocr-drw/internal/detect"
)

// claimPatterns is an ordered ladder from most to least specific. The first
// pattern that matches wins; the bare-digits fallback only fires when no
// labeled form is present anywhere in the text.
var claimPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)заявк[аеиу][^\d]{0,20}№\s*(\d{5,10})`),
	regexp.MustCompile(`№\s*(\d{5,10})`),
	regexp.MustCompile(`(?i)АКТ[^\d]{0,40}(\d{5,10})`),
	regexp.MustCompile(`\b(\d{6,10})\b`),
}

var datePattern = regexp.MustCompile(`\b(\d{2}\.\d{2}\.\d{4})\b`)

// Metadata is what the classifier could read off the document text.
type Metadata struct {
	ClaimNumber string `json:"claim_number,omitempty"`
	Date        string `json:"date,omitempty"`
}

// Decision is the final verdict for one document.
type Decision struct {
	Status    constants.VerdictStatus `json:"status"`
	Rationale []string                `json:"rationale"`
	Metadata  Metadata                `json:"metadata"`
}

// Engine applies the decision table. It is stateless and safe for
// concurrent use.
type Engine struct {
	logger *slog.Logger
}

func NewEngine(logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{logger: logger}
}

// ExtractClaimNumber walks the pattern ladder over the text and returns the
// first capture, or empty when nothing number-like is present.
func ExtractClaimNumber(text string) string {
	for _, p := range claimPatterns {
		if m := p.FindStringSubmatch(text); m != nil {
			return m[1]
		}
	}
	return ""
}

// ExtractDate returns the first DD.MM.YYYY date in the text, if any.
func ExtractDate(text string) string {
	if m := datePattern.FindStringSubmatch(text); m != nil {
		return m[1]
	}
	return ""
}

// Classify applies the decision table, in precedence order:
//
//	expected claim set and document claim differs  -> REJECTED
//	signature and stamp both present               -> APPROVED
//	neither present                                -> REJECTED
//	exactly one present                            -> REVIEW
//
// A missing document claim never rejects on its own; the mark evidence
// still decides, and the rationale records the gap.
func (e *Engine) Classify(text, expectedClaim string, marks detect.Marks) Decision {
	d := Decision{
		Metadata: Metadata{
			ClaimNumber: ExtractClaimNumber(text),
			Date:        ExtractDate(text),
		},
	}

	expectedClaim = strings.TrimSpace(expectedClaim)
	if expectedClaim != "" {
		switch {
		case d.Metadata.ClaimNumber == "":
			d.Rationale = append(d.Rationale,
				fmt.Sprintf("claim number %s expected but none found in document", expectedClaim))
		case d.Metadata.ClaimNumber != expectedClaim:
			d.Status = constants.StatusRejected
			d.Rationale = append(d.Rationale,
				fmt.Sprintf("claim number mismatch: document has %s, expected %s",
					d.Metadata.ClaimNumber, expectedClaim))
			e.log(d, marks)
			return d
		default:
			d.Rationale = append(d.Rationale,
				fmt.Sprintf("claim number %s matches", expectedClaim))
		}
	}

	switch {
	case marks.HasSignature && marks.HasStamp:
		d.Status = constants.StatusApproved
		d.Rationale = append(d.Rationale, "signature detected", "stamp detected")
	case !marks.HasSignature && !marks.HasStamp:
		d.Status = constants.StatusRejected
		d.Rationale = append(d.Rationale, "no signature detected", "no stamp detected")
	case marks.HasSignature:
		d.Status = constants.StatusReview
		d.Rationale = append(d.Rationale, "signature detected", "no stamp detected")
	default:
		d.Status = constants.StatusReview
		d.Rationale = append(d.Rationale, "no signature detected", "stamp detected")
	}

	e.log(d, marks)
	return d
}

func (e *Engine) log(d Decision, marks detect.Marks) {
	e.logger.Info("classify.decision",
		"status", d.Status,
		"claim", d.Metadata.ClaimNumber,
		"signature", marks.HasSignature,
		"stamp", marks.HasStamp)
}
