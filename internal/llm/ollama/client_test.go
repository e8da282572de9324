package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/MaksimPopov64/ocr-drw/internal/llm"
)

func TestReadyAgainstUnreachableServer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	c := NewClient(Config{BaseURL: url}, nil)
	if c.Ready(context.Background()) {
		t.Fatal("closed server must not report ready")
	}
}

func TestReadyAndGenerate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/tags":
			w.WriteHeader(http.StatusOK)
		case "/api/generate":
			var req map[string]any
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				t.Errorf("bad request body: %v", err)
			}
			if req["stream"] != false {
				t.Error("streaming must be disabled")
			}
			if req["model"] == "" {
				t.Error("model missing from request")
			}
			json.NewEncoder(w).Encode(map[string]any{"response": "  починенный текст  ", "done": true})
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL, Model: "test-model"}, nil)
	if !c.Ready(context.Background()) {
		t.Fatal("server with tags endpoint should be ready")
	}
	out, err := c.Generate(context.Background(), "почини текст")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if out != "починенный текст" {
		t.Fatalf("got %q, want trimmed response", out)
	}
}

func TestGenerateEmptyCompletionIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"response": "", "done": true})
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL}, nil)
	if _, err := c.Generate(context.Background(), "prompt"); err == nil {
		t.Fatal("empty completion should surface as an error")
	}
}

func TestGenerateWithImageAttachesPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Model  string   `json:"model"`
			Images []string `json:"images"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if len(req.Images) != 1 || req.Images[0] == "" {
			t.Errorf("expected one base64 image, got %v", req.Images)
		}
		if req.Model != "vision-model" {
			t.Errorf("model = %q, want the vision model", req.Model)
		}
		json.NewEncoder(w).Encode(map[string]any{"response": `{"text": "АКТ"}`, "done": true})
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL, VisionModel: "vision-model"}, nil)
	out, err := c.GenerateWithImage(context.Background(), "transcribe", []byte{0x89, 0x50})
	if err != nil {
		t.Fatalf("generate with image: %v", err)
	}
	if out != `{"text": "АКТ"}` {
		t.Fatalf("got %q", out)
	}
}

// The normalizer built over this client must degrade to identity output when
// the server has gone away.
func TestNormalizerOverDeadServer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	n := llm.NewModelNormalizer(NewClient(Config{BaseURL: url}, nil), nil)
	got := n.Normalize(context.Background(), "сырой текст распознавания")
	if got.Text != "сырой текст распознавания" || got.WasCleaned {
		t.Fatalf("got %+v, want identity with WasCleaned=false", got)
	}
}
