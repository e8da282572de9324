package ocr

import (
	"context"
	"errors"
	"testing"

	"github.com/MaksimPopov64/ocr-drw/constants"
)

type fakeVisionClient struct {
	ready    bool
	response string
	err      error
}

func (f *fakeVisionClient) Ready(_ context.Context) bool { return f.ready }

func (f *fakeVisionClient) GenerateWithImage(_ context.Context, _ string, _ []byte) (string, error) {
	return f.response, f.err
}

func TestVisionEngineStructuredResponse(t *testing.T) {
	client := &fakeVisionClient{
		ready:    true,
		response: "```json\n{\"text\": \"АКТ № 1847896\", \"checkboxes\": {\"checked\": 1, \"unchecked\": 2}}\n```",
	}
	e := NewVisionEngine(client, nil)
	text, conf, err := e.Recognize(context.Background(), []byte("img"))
	if err != nil {
		t.Fatalf("recognize: %v", err)
	}
	if text != "АКТ № 1847896" {
		t.Fatalf("text = %q", text)
	}
	if conf != structuredVisionConfidence {
		t.Fatalf("confidence = %v, want %v", conf, structuredVisionConfidence)
	}
}

func TestVisionEngineRawFallback(t *testing.T) {
	client := &fakeVisionClient{ready: true, response: "АКТ выполненных работ, прочитан без структуры"}
	e := NewVisionEngine(client, nil)
	text, conf, err := e.Recognize(context.Background(), []byte("img"))
	if err != nil {
		t.Fatalf("recognize: %v", err)
	}
	if text != "АКТ выполненных работ, прочитан без структуры" {
		t.Fatalf("text = %q", text)
	}
	if conf != rawVisionConfidence {
		t.Fatalf("confidence = %v, want %v", conf, rawVisionConfidence)
	}
}

func TestVisionEnginePropagatesError(t *testing.T) {
	client := &fakeVisionClient{ready: true, err: errors.New("model crashed")}
	e := NewVisionEngine(client, nil)
	if _, _, err := e.Recognize(context.Background(), []byte("img")); err == nil {
		t.Fatal("engine error must propagate to the extractor")
	}
}

func TestVisionEngineReadiness(t *testing.T) {
	if NewVisionEngine(nil, nil).Ready(context.Background()) {
		t.Fatal("engine without a client must not be ready")
	}
	if !NewVisionEngine(&fakeVisionClient{ready: true}, nil).Ready(context.Background()) {
		t.Fatal("engine with a ready client must be ready")
	}
	if e := NewVisionEngine(&fakeVisionClient{ready: true}, nil); e.Kind() != constants.EngineSecondary {
		t.Fatalf("kind = %s", e.Kind())
	}
}
