package classify

import (
	"strings"
	"testing"

	"github.com/MaksimPopov64/ocr-drw/constants"
	"github.com/MaksimPopov64/ocr-drw/internal/detect"
)

func TestExtractClaimNumber(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"labeled claim", "по заявке № 1847896 от 12.03.2024", "1847896"},
		{"claim word inflected", "Заявка № 250143", "250143"},
		{"bare number sign", "Документ № 98765 прилагается", "98765"},
		{"act heading", "АКТ выполненных работ 1847896", "1847896"},
		{"bare digits fallback", "обращение 1847896 обработано", "1847896"},
		{"labeled wins over bare", "счет 111111 по заявке № 222222", "222222"},
		{"too short", "дом 123", ""},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractClaimNumber(tt.text); got != tt.want {
				t.Fatalf("ExtractClaimNumber(%q) = %q, want %q", tt.text, got, tt.want)
			}
		})
	}
}

func TestExtractDate(t *testing.T) {
	if got := ExtractDate("акт от 12.03.2024 года"); got != "12.03.2024" {
		t.Fatalf("got %q, want 12.03.2024", got)
	}
	if got := ExtractDate("акт без даты"); got != "" {
		t.Fatalf("got %q, want empty", got)
	}
}

func both() detect.Marks    { return detect.Marks{HasSignature: true, HasStamp: true} }
func neither() detect.Marks { return detect.Marks{} }
func sigOnly() detect.Marks { return detect.Marks{HasSignature: true} }

func TestClassifyDecisionTable(t *testing.T) {
	e := NewEngine(nil)
	tests := []struct {
		name          string
		text          string
		expectedClaim string
		marks         detect.Marks
		want          constants.VerdictStatus
	}{
		{"both marks claim matches", "заявка № 1847896", "1847896", both(), constants.StatusApproved},
		{"claim mismatch rejects despite marks", "заявка № 1847896", "999999", both(), constants.StatusRejected},
		{"no marks rejects", "заявка № 1847896", "1847896", neither(), constants.StatusRejected},
		{"one mark reviews", "заявка № 1847896", "1847896", sigOnly(), constants.StatusReview},
		{"stamp only reviews", "", "", detect.Marks{HasStamp: true}, constants.StatusReview},
		{"no expected claim both marks", "какой-то текст", "", both(), constants.StatusApproved},
		{"missing doc claim does not reject alone", "текст без номера", "1847896", both(), constants.StatusApproved},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := e.Classify(tt.text, tt.expectedClaim, tt.marks)
			if d.Status != tt.want {
				t.Fatalf("status = %s, want %s (rationale: %v)", d.Status, tt.want, d.Rationale)
			}
			if len(d.Rationale) == 0 {
				t.Fatal("rationale must never be empty")
			}
		})
	}
}

func TestClassifyRationaleOrder(t *testing.T) {
	e := NewEngine(nil)

	d := e.Classify("заявка № 1847896", "1847896", both())
	if len(d.Rationale) != 3 {
		t.Fatalf("rationale = %v, want claim line plus two mark lines", d.Rationale)
	}
	if !strings.Contains(d.Rationale[0], "1847896") {
		t.Fatalf("claim line must come first, got %v", d.Rationale)
	}
	if d.Rationale[1] != "signature detected" || d.Rationale[2] != "stamp detected" {
		t.Fatalf("mark lines out of order: %v", d.Rationale)
	}

	d = e.Classify("заявка № 111111", "222222", both())
	if len(d.Rationale) != 1 || !strings.Contains(d.Rationale[0], "mismatch") {
		t.Fatalf("mismatch must short-circuit with one line, got %v", d.Rationale)
	}
}

func TestClassifyMetadata(t *testing.T) {
	e := NewEngine(nil)
	d := e.Classify("АКТ № 1847896 от 12.03.2024", "", both())
	if d.Metadata.ClaimNumber != "1847896" {
		t.Fatalf("claim = %q, want 1847896", d.Metadata.ClaimNumber)
	}
	if d.Metadata.Date != "12.03.2024" {
		t.Fatalf("date = %q, want 12.03.2024", d.Metadata.Date)
	}
}
