package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/mmichie/ensemble/pkg/ensemble/intent"
	"github.com/mmichie/ensemble/pkg/ensemble/pipeline"
	"github.com/mmichie/ensemble/pkg/ensemble/provider"
	"github.com/mmichie/ensemble/pkg/ensemble/streaming"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type scriptedProvider struct {
	name   string
	model  string
	chunks []string
	err    error
}

func (p *scriptedProvider) GenerateResponse(ctx context.Context, request provider.Request) (provider.Response, error) {
	return provider.Response{Content: strings.Join(p.chunks, ""), Provider: p.name, Model: p.model}, nil
}

func (p *scriptedProvider) GenerateStreamingResponse(ctx context.Context, request provider.Request, handler provider.StreamHandler) error {
	for _, chunk := range p.chunks {
		if err := handler(provider.ResponseChunk{Content: chunk}); err != nil {
			return err
		}
	}
	if p.err != nil {
		return p.err
	}
	return handler(provider.ResponseChunk{IsFinal: true})
}

func (p *scriptedProvider) Name() string  { return p.name }
func (p *scriptedProvider) Model() string { return p.model }

type staticClassifier struct{}

func (staticClassifier) Classify(ctx context.Context, userPrompt string, history provider.History) (intent.Classification, error) {
	return intent.Classification{Intent: intent.Factual, Reasoning: "test"}, nil
}

func testServer(t *testing.T) *Server {
	t.Helper()

	source := provider.NewRegistry()
	source.RegisterInstance("openai", "a", &scriptedProvider{name: "openai", model: "a", chunks: []string{"Hel", "lo"}})
	source.RegisterInstance("gemini", "b", &scriptedProvider{name: "gemini", model: "b", chunks: []string{"World"}})
	source.RegisterInstance("openai", "s", &scriptedProvider{name: "openai", model: "s", chunks: []string{"final answer"}})

	registry, err := pipeline.NewRegistry(map[intent.Intent]pipeline.Config{
		intent.Factual: {
			Name:        "Factual Analysis Pipeline",
			BaseA:       pipeline.ModelRef{Provider: "openai", Model: "a"},
			BaseB:       pipeline.ModelRef{Provider: "gemini", Model: "b"},
			Synthesizer: pipeline.ModelRef{Provider: "openai", Model: "s"},
		},
	})
	if err != nil {
		t.Fatalf("NewRegistry failed: %v", err)
	}

	return New(pipeline.New(source, registry, staticClassifier{}), nil)
}

func postJSON(t *testing.T, handler http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return w
}

func TestHealthz(t *testing.T) {
	s := testServer(t)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
}

func TestStreamEndpoint(t *testing.T) {
	s := testServer(t)

	w := postJSON(t, s.Handler(), "/api/ensemble", `{"prompt": "What is Go?"}`)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("Expected text/event-stream, got %q", ct)
	}

	parser := streaming.NewParser(w.Body)
	var types []string
	var ids []string
	var synthesis strings.Builder
	requestID := ""
	for {
		ev, err := parser.Next(context.Background())
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("Parse failed: %v", err)
		}
		types = append(types, ev.Type)
		ids = append(ids, ev.ID)

		var payload pipeline.Event
		if err := json.Unmarshal([]byte(ev.Data), &payload); err != nil {
			t.Fatalf("Bad event payload %q: %v", ev.Data, err)
		}
		if payload.RequestID != "" {
			requestID = payload.RequestID
		}
		if payload.Type == pipeline.EventSynthesisChunk {
			synthesis.WriteString(payload.Text)
		}
	}

	if len(types) == 0 {
		t.Fatal("Expected events on the stream")
	}
	if got := types[len(types)-1]; got != string(pipeline.EventDone) {
		t.Errorf("Expected the stream to end with done, got %q", got)
	}

	// Frame ids are the run ID plus the frame's position in the stream
	if requestID == "" {
		t.Fatal("Expected the run ID on the event payloads")
	}
	for i, id := range ids {
		want := requestID + "-" + strconv.Itoa(i+1)
		if id != want {
			t.Errorf("Frame %d has id %q, want %q", i, id, want)
		}
	}
	if synthesis.String() != "final answer" {
		t.Errorf("Expected the synthesized response, got %q", synthesis.String())
	}

	terminals := 0
	for _, typ := range types {
		if typ == string(pipeline.EventDone) || typ == string(pipeline.EventError) {
			terminals++
		}
	}
	if terminals != 1 {
		t.Errorf("Expected exactly one terminal event, got %d", terminals)
	}
}

func TestStreamEndpointEmptyPrompt(t *testing.T) {
	s := testServer(t)

	w := postJSON(t, s.Handler(), "/api/ensemble", `{"prompt": "   "}`)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		t.Errorf("Rejection must happen before streaming starts, got content type %q", ct)
	}
}

func TestStreamEndpointBadBody(t *testing.T) {
	s := testServer(t)

	if w := postJSON(t, s.Handler(), "/api/ensemble", `{not json`); w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for malformed body, got %d", w.Code)
	}
}

func TestCompleteEndpoint(t *testing.T) {
	s := testServer(t)

	w := postJSON(t, s.Handler(), "/api/ensemble/complete",
		`{"prompt": "What is Go?", "history": [{"role": "user", "content": "hi"}, {"role": "assistant", "content": "hello"}]}`)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var outcome pipeline.Outcome
	if err := json.Unmarshal(w.Body.Bytes(), &outcome); err != nil {
		t.Fatalf("Bad outcome payload: %v", err)
	}
	if outcome.FinalResponse != "final answer" {
		t.Errorf("Expected final answer, got %q", outcome.FinalResponse)
	}
	if outcome.PipelineName != "Factual Analysis Pipeline" {
		t.Errorf("Unexpected pipeline %q", outcome.PipelineName)
	}
	if outcome.Failed {
		t.Error("Healthy run must not be failed")
	}
}
