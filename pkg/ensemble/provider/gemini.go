package provider

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/mmichie/ensemble/pkg/ensemble/config"
	aierrors "github.com/mmichie/ensemble/pkg/ensemble/errors"
)

const (
	defaultGeminiModel = "gemini-1.5-pro"

	geminiRoleUser  = "user"
	geminiRoleModel = "model"
)

// GeminiProvider implements Provider over Google's Gemini API.
// Conversation history is carried as role/parts content records.
type GeminiProvider struct {
	client      *genai.Client
	modelName   string
	temperature float64
	maxTokens   int
}

// GeminiFactory creates Gemini providers
type GeminiFactory struct{}

// Name returns the provider tag
func (f *GeminiFactory) Name() string {
	return "gemini"
}

// Create returns a new Gemini provider
func (f *GeminiFactory) Create(cfg config.Config) (Provider, error) {
	return NewGeminiProvider(context.Background(), cfg)
}

// NewGeminiProvider creates a Gemini provider from explicit configuration
func NewGeminiProvider(ctx context.Context, cfg config.Config) (*GeminiProvider, error) {
	if cfg.APIKey == "" {
		return nil, aierrors.New("gemini", "create", aierrors.ErrInvalidConfig)
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, aierrors.New("gemini", "create",
			fmt.Errorf("failed to create Gemini client: %w", err))
	}

	model := cfg.Model
	if model == "" {
		model = defaultGeminiModel
	}

	return &GeminiProvider{
		client:      client,
		modelName:   model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
	}, nil
}

// Name returns the provider tag
func (p *GeminiProvider) Name() string {
	return "gemini"
}

// Model returns the configured model
func (p *GeminiProvider) Model() string {
	return p.modelName
}

// Close releases the underlying API client
func (p *GeminiProvider) Close() error {
	return p.client.Close()
}

// ToGeminiContents translates neutral history into the Gemini role/parts
// content schema. The mapping is pure and stateless.
func ToGeminiContents(history History) []*genai.Content {
	contents := make([]*genai.Content, 0, len(history))
	for _, turn := range history {
		role := geminiRoleUser
		if turn.Role == RoleAssistant {
			role = geminiRoleModel
		}
		contents = append(contents, &genai.Content{
			Role:  role,
			Parts: []genai.Part{genai.Text(turn.Content)},
		})
	}
	return contents
}

func (p *GeminiProvider) session(request Request) *genai.ChatSession {
	model := p.client.GenerativeModel(p.modelName)

	temperature := p.temperature
	if request.Temperature > 0 {
		temperature = request.Temperature
	}
	if temperature > 0 {
		model.SetTemperature(float32(temperature))
	}

	maxTokens := p.maxTokens
	if request.MaxTokens > 0 {
		maxTokens = request.MaxTokens
	}
	if maxTokens > 0 {
		model.SetMaxOutputTokens(int32(maxTokens))
	}

	session := model.StartChat()
	session.History = ToGeminiContents(request.History)
	return session
}

// GenerateResponse performs a one-shot generation
func (p *GeminiProvider) GenerateResponse(ctx context.Context, request Request) (Response, error) {
	session := p.session(request)

	resp, err := session.SendMessage(ctx, genai.Text(request.Prompt))
	if err != nil {
		return Response{}, aierrors.New("gemini", "generate_response", err)
	}

	content, err := candidateText(resp)
	if err != nil {
		return Response{}, aierrors.New("gemini", "generate_response", err)
	}

	response := Response{
		Content:  content,
		Model:    p.modelName,
		Provider: "gemini",
	}
	if resp.UsageMetadata != nil {
		response.Usage = &UsageInfo{
			PromptTokens:     int(resp.UsageMetadata.PromptTokenCount),
			CompletionTokens: int(resp.UsageMetadata.CandidatesTokenCount),
			TotalTokens:      int(resp.UsageMetadata.TotalTokenCount),
		}
	}
	return response, nil
}

// GenerateStreamingResponse streams a generation through handler
func (p *GeminiProvider) GenerateStreamingResponse(ctx context.Context, request Request, handler StreamHandler) error {
	session := p.session(request)

	iter := session.SendMessageStream(ctx, genai.Text(request.Prompt))
	for {
		resp, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return aierrors.New("gemini", "stream_recv", err)
		}

		text, err := candidateText(resp)
		if err != nil {
			// Chunks without text parts are legal mid-stream
			continue
		}
		if text == "" {
			continue
		}

		if err := handler(ResponseChunk{Content: text}); err != nil {
			return err
		}
	}

	return handler(ResponseChunk{IsFinal: true})
}

// candidateText flattens the first candidate's text parts
func candidateText(resp *genai.GenerateContentResponse) (string, error) {
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", errors.New("no candidates returned from API")
	}

	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			b.WriteString(string(text))
		}
	}
	return b.String(), nil
}
