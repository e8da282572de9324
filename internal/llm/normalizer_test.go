package llm

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"
)

type fakeTextClient struct {
	ready    bool
	response string
	err      error
	calls    int
}

func (f *fakeTextClient) Ready(_ context.Context) bool { return f.ready }

func (f *fakeTextClient) Generate(_ context.Context, _ string) (string, error) {
	f.calls++
	return f.response, f.err
}

func TestNormalizeIdentityWhenClientNil(t *testing.T) {
	n := NewModelNormalizer(nil, nil)
	got := n.Normalize(context.Background(), "сырой текст")
	if got.Text != "сырой текст" || got.WasCleaned {
		t.Fatalf("got %+v, want identity with WasCleaned=false", got)
	}
}

func TestNormalizeIdentityWhenNotReady(t *testing.T) {
	client := &fakeTextClient{ready: false, response: "should not be used"}
	n := NewModelNormalizer(client, nil)
	got := n.Normalize(context.Background(), "сырой текст")
	if got.Text != "сырой текст" || got.WasCleaned {
		t.Fatalf("got %+v, want identity", got)
	}
	if client.calls != 0 {
		t.Fatal("generate must not be called when the model is not ready")
	}
}

func TestNormalizeIdentityOnBlankInput(t *testing.T) {
	client := &fakeTextClient{ready: true, response: "noise"}
	n := NewModelNormalizer(client, nil)
	got := n.Normalize(context.Background(), "   ")
	if got.WasCleaned || client.calls != 0 {
		t.Fatalf("blank input must short-circuit, got %+v after %d calls", got, client.calls)
	}
}

func TestNormalizeRetriesOnceThenFallsBack(t *testing.T) {
	client := &fakeTextClient{ready: true, err: errors.New("connection refused")}
	n := NewModelNormalizer(client, nil)
	got := n.Normalize(context.Background(), "текст для ремонта документа")
	if got.Text != "текст для ремонта документа" || got.WasCleaned {
		t.Fatalf("got %+v, want identity fallback", got)
	}
	if client.calls != 2 {
		t.Fatalf("generate calls = %d, want 2", client.calls)
	}
}

func TestNormalizeAcceptsCleanResponse(t *testing.T) {
	client := &fakeTextClient{ready: true, response: "Акт выполненных работ № 1847896"}
	n := NewModelNormalizer(client, nil)
	got := n.Normalize(context.Background(), "Aкт выпoлненных рабoт № 1847896")
	if !got.WasCleaned {
		t.Fatalf("got %+v, want cleaned", got)
	}
	if got.Text != "Акт выполненных работ № 1847896" {
		t.Fatalf("text = %q", got.Text)
	}
}

func TestNormalizeRejectsResponseThatDropsNumbers(t *testing.T) {
	in := "Акт выполненных работ № 1847896 от 12.03.2024"
	client := &fakeTextClient{ready: true, response: "Акт выполненных работ без номера заявки"}
	n := NewModelNormalizer(client, nil)
	got := n.Normalize(context.Background(), in)
	if got.WasCleaned {
		t.Fatal("response that lost the claim number must be rejected")
	}
	if got.Text != in {
		t.Fatalf("text = %q, want untouched input", got.Text)
	}
}

func TestNormalizeRejectsOverAggressiveResponse(t *testing.T) {
	in := strings.Repeat("содержимое документа ", 20)
	client := &fakeTextClient{ready: true, response: "ок"}
	n := NewModelNormalizer(client, nil)
	if got := n.Normalize(context.Background(), in); got.WasCleaned {
		t.Fatal("a response shrunk below 30% of the input must be rejected")
	}
}

func TestNormalizeReattachesTailBeyondLimit(t *testing.T) {
	head := strings.Repeat("a", MaxNormalizeInput)
	tail := " ХВОСТ ЗА ПРЕДЕЛОМ"
	client := &fakeTextClient{ready: true, response: head}
	n := NewModelNormalizer(client, nil)
	got := n.Normalize(context.Background(), head+tail)
	if !strings.HasSuffix(got.Text, tail) {
		t.Fatalf("tail was lost: ...%q", got.Text[len(got.Text)-30:])
	}
	if !got.WasCleaned {
		t.Fatal("head pass should count as cleaned")
	}
}

// echoTextClient returns the head embedded in the prompt after a JSON
// round trip, the same encoding the HTTP transport applies. A head cut
// mid-rune would come back with U+FFFD replacements.
type echoTextClient struct{}

func (echoTextClient) Ready(_ context.Context) bool { return true }

func (echoTextClient) Generate(_ context.Context, prompt string) (string, error) {
	start := strings.Index(prompt, "TEXT:\n") + len("TEXT:\n")
	end := strings.LastIndex(prompt, "\nCORRECTED TEXT:")
	head := prompt[start:end]
	b, err := json.Marshal(head)
	if err != nil {
		return "", err
	}
	var back string
	if err := json.Unmarshal(b, &back); err != nil {
		return "", err
	}
	return back, nil
}

func TestNormalizeCutsLongCyrillicInputOnRuneBoundary(t *testing.T) {
	// One leading ASCII byte shifts every two-byte Cyrillic rune to an odd
	// offset, so the even limit offset lands inside a rune.
	in := "x" + strings.Repeat("д", 1200)
	if utf8.RuneStart(in[MaxNormalizeInput]) {
		t.Fatal("input does not exercise a mid-rune cut")
	}
	n := NewModelNormalizer(echoTextClient{}, nil)
	got := n.Normalize(context.Background(), in)
	if !got.WasCleaned {
		t.Fatalf("got %+v, want cleaned", got)
	}
	if !utf8.ValidString(got.Text) {
		t.Fatal("normalized output contains invalid UTF-8 at the input limit seam")
	}
	if got.Text != in {
		t.Fatalf("echoed text diverged from input: len %d vs %d", len(got.Text), len(in))
	}
}

func TestStripCodeFence(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"json fence", "```json\n{\"text\": \"ok\"}\n```", `{"text": "ok"}`},
		{"bare fence", "```\n{\"a\": 1}\n```", `{"a": 1}`},
		{"no fence", `{"a": 1}`, `{"a": 1}`},
		{"prose around fence", "Here you go:\n```json\n{}\n```\nEnjoy!", "{}"},
		{"plain text", "просто текст", "просто текст"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StripCodeFence(tt.in); got != tt.want {
				t.Fatalf("StripCodeFence(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestVisionReadSchemaValidation(t *testing.T) {
	schema := VisionReadSchema()
	valid := []byte(`{"text": "АКТ № 1847896", "checkboxes": {"checked": 2, "unchecked": 1}}`)
	if err := ValidateJSONAgainstSchema(schema, valid); err != nil {
		t.Fatalf("valid payload rejected: %v", err)
	}
	minimal := []byte(`{"text": "АКТ"}`)
	if err := ValidateJSONAgainstSchema(schema, minimal); err != nil {
		t.Fatalf("minimal payload rejected: %v", err)
	}
	missing := []byte(`{"checkboxes": {"checked": 2}}`)
	if err := ValidateJSONAgainstSchema(schema, missing); err == nil {
		t.Fatal("payload without text must fail validation")
	}
	notJSON := []byte(`plain prose`)
	if err := ValidateJSONAgainstSchema(schema, notJSON); err == nil {
		t.Fatal("non-JSON payload must fail validation")
	}
}
