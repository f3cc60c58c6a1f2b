package provider

import (
	"context"
	"errors"
	"io"

	openai "github.com/sashabaranov/go-openai"

	"github.com/mmichie/ensemble/pkg/ensemble/config"
	aierrors "github.com/mmichie/ensemble/pkg/ensemble/errors"
)

const defaultOpenAIModel = "gpt-4o"

// OpenAIProvider implements Provider over the OpenAI chat completion API.
// Conversation history is carried as flat role/content message pairs.
type OpenAIProvider struct {
	client      *openai.Client
	model       string
	temperature float64
	maxTokens   int
}

// OpenAIFactory creates OpenAI providers
type OpenAIFactory struct{}

// Name returns the provider tag
func (f *OpenAIFactory) Name() string {
	return "openai"
}

// Create returns a new OpenAI provider
func (f *OpenAIFactory) Create(cfg config.Config) (Provider, error) {
	return NewOpenAIProvider(cfg)
}

// NewOpenAIProvider creates an OpenAI provider from explicit configuration
func NewOpenAIProvider(cfg config.Config) (*OpenAIProvider, error) {
	if cfg.APIKey == "" {
		return nil, aierrors.New("openai", "create", aierrors.ErrInvalidConfig)
	}

	model := cfg.Model
	if model == "" {
		model = defaultOpenAIModel
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	return &OpenAIProvider{
		client:      openai.NewClientWithConfig(clientCfg),
		model:       model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
	}, nil
}

// Name returns the provider tag
func (p *OpenAIProvider) Name() string {
	return "openai"
}

// Model returns the configured model
func (p *OpenAIProvider) Model() string {
	return p.model
}

// ToChatMessages translates a prompt plus neutral history into the OpenAI
// role/content message schema. The mapping is pure and stateless.
func ToChatMessages(prompt string, history History) []openai.ChatCompletionMessage {
	messages := make([]openai.ChatCompletionMessage, 0, len(history)+1)
	for _, turn := range history {
		role := openai.ChatMessageRoleUser
		if turn.Role == RoleAssistant {
			role = openai.ChatMessageRoleAssistant
		}
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    role,
			Content: turn.Content,
		})
	}
	return append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: prompt,
	})
}

func (p *OpenAIProvider) chatRequest(request Request) openai.ChatCompletionRequest {
	temperature := p.temperature
	if request.Temperature > 0 {
		temperature = request.Temperature
	}
	maxTokens := p.maxTokens
	if request.MaxTokens > 0 {
		maxTokens = request.MaxTokens
	}

	return openai.ChatCompletionRequest{
		Model:       p.model,
		Messages:    ToChatMessages(request.Prompt, request.History),
		Temperature: float32(temperature),
		MaxTokens:   maxTokens,
	}
}

// GenerateResponse performs a one-shot chat completion
func (p *OpenAIProvider) GenerateResponse(ctx context.Context, request Request) (Response, error) {
	resp, err := p.client.CreateChatCompletion(ctx, p.chatRequest(request))
	if err != nil {
		return Response{}, aierrors.New("openai", "generate_response", err)
	}

	if len(resp.Choices) == 0 {
		return Response{}, aierrors.New("openai", "empty_response",
			errors.New("no choices returned from API"))
	}

	return Response{
		Content:  resp.Choices[0].Message.Content,
		Model:    p.model,
		Provider: "openai",
		Usage: &UsageInfo{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
	}, nil
}

// GenerateStreamingResponse streams a chat completion through handler
func (p *OpenAIProvider) GenerateStreamingResponse(ctx context.Context, request Request, handler StreamHandler) error {
	stream, err := p.client.CreateChatCompletionStream(ctx, p.chatRequest(request))
	if err != nil {
		return aierrors.New("openai", "create_stream", err)
	}
	defer stream.Close()

	for {
		resp, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return aierrors.New("openai", "stream_recv", err)
		}

		if len(resp.Choices) == 0 {
			continue
		}
		delta := resp.Choices[0].Delta.Content
		if delta == "" {
			continue
		}

		if err := handler(ResponseChunk{Content: delta}); err != nil {
			return err
		}
	}

	return handler(ResponseChunk{IsFinal: true})
}
