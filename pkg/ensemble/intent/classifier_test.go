package intent

import (
	"context"
	"errors"
	"strings"
	"testing"

	aierrors "github.com/mmichie/ensemble/pkg/ensemble/errors"
	"github.com/mmichie/ensemble/pkg/ensemble/provider"
)

// fakeProvider returns canned content or a canned error
type fakeProvider struct {
	content    string
	err        error
	lastPrompt string
}

func (f *fakeProvider) GenerateResponse(ctx context.Context, request provider.Request) (provider.Response, error) {
	f.lastPrompt = request.Prompt
	if f.err != nil {
		return provider.Response{}, f.err
	}
	return provider.Response{Content: f.content}, nil
}

func (f *fakeProvider) GenerateStreamingResponse(ctx context.Context, request provider.Request, handler provider.StreamHandler) error {
	if f.err != nil {
		return f.err
	}
	return provider.SimulateStreaming(ctx, f.content, handler)
}

func (f *fakeProvider) Name() string  { return "fake" }
func (f *fakeProvider) Model() string { return "fake-model" }

func TestClassifyLabelVariants(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    Intent
	}{
		{"plain creative", "The user wants a poem.\nCREATIVE", Creative},
		{"lowercase creative", "Looks artistic to me.\nthis is creative", Creative},
		{"embedded creative", "Some reasoning here.\nClassification: Creative", Creative},
		{"plain factual", "The user wants facts.\nFACTUAL", Factual},
		{"garbage label", "Reasoning goes here.\nBANANA", Factual},
		{"empty output", "", Factual},
		{"whitespace only", "   \n\n  ", Factual},
		{"trailing blank lines", "They want fiction.\nCREATIVE\n\n\n", Creative},
		{"creative only in reasoning", "This could be creative, but really they want data.\nFACTUAL", Factual},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			classifier := NewClassifier(&fakeProvider{content: tt.content})
			got, err := classifier.Classify(context.Background(), "prompt", nil)
			if err != nil {
				t.Fatalf("Classify failed: %v", err)
			}
			if got.Intent != tt.want {
				t.Errorf("Expected intent %v, got %v", tt.want, got.Intent)
			}
		})
	}
}

func TestClassifyReasoningExtraction(t *testing.T) {
	classifier := NewClassifier(&fakeProvider{
		content: "Reasoning: The request asks for verifiable information.\nIt mentions protocols.\nFACTUAL",
	})

	got, err := classifier.Classify(context.Background(), "Explain TCP", nil)
	if err != nil {
		t.Fatalf("Classify failed: %v", err)
	}

	want := "The request asks for verifiable information. It mentions protocols."
	if got.Reasoning != want {
		t.Errorf("Reasoning:\n got %q\nwant %q", got.Reasoning, want)
	}
	if strings.Contains(got.Reasoning, "FACTUAL") {
		t.Error("Label line must not leak into the reasoning")
	}
}

func TestClassifyProviderFailureEscalates(t *testing.T) {
	boom := errors.New("backend down")
	classifier := NewClassifier(&fakeProvider{err: boom})

	_, err := classifier.Classify(context.Background(), "prompt", nil)
	if err == nil {
		t.Fatal("Expected classifier failure to escalate")
	}
	if !errors.Is(err, boom) {
		t.Errorf("Expected wrapped provider error, got %v", err)
	}

	var provErr *aierrors.ProviderError
	if !errors.As(err, &provErr) {
		t.Error("Expected a ProviderError")
	}
}

func TestClassifySendsClassificationPrompt(t *testing.T) {
	fake := &fakeProvider{content: "reason\nFACTUAL"}
	classifier := NewClassifier(fake)

	_, err := classifier.Classify(context.Background(), "Explain TCP congestion control", nil)
	if err != nil {
		t.Fatalf("Classify failed: %v", err)
	}

	if !strings.Contains(fake.lastPrompt, "Explain TCP congestion control") {
		t.Error("Classifier prompt should embed the user request")
	}
	if !strings.Contains(fake.lastPrompt, "FACTUAL or CREATIVE") {
		t.Error("Classifier prompt should instruct the label format")
	}
}
