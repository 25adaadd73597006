package ai

import (
	"context"
	"fmt"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/Vortex-Labs-xyz/email-agent-v1/internal/core/ports/driven"
)

// Ensure OpenAILLM implements LLMService
var _ driven.LLMService = (*OpenAILLM)(nil)

// defaultLLMTimeout bounds one completion call. Generation is the slowest
// external call the agent makes, so it gets more headroom than embeddings.
const defaultLLMTimeout = 120 * time.Second

// OpenAILLM implements LLMService against the OpenAI chat completions API
type OpenAILLM struct {
	llm     llms.Model
	model   string
	timeout time.Duration
}

// NewOpenAILLM creates a new OpenAI chat completion service.
// A timeout of zero selects the default per-call limit.
func NewOpenAILLM(apiKey, model, baseURL string, timeout time.Duration) (driven.LLMService, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}

	if model == "" {
		model = "gpt-4o-mini"
	}
	if timeout <= 0 {
		timeout = defaultLLMTimeout
	}

	opts := []openai.Option{
		openai.WithToken(apiKey),
		openai.WithModel(model),
	}
	if baseURL != "" {
		opts = append(opts, openai.WithBaseURL(baseURL))
	}

	llm, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("create OpenAI client: %w", err)
	}

	return &OpenAILLM{llm: llm, model: model, timeout: timeout}, nil
}

// Complete runs a single system+user prompt and returns the raw response text.
// The call is bounded by the configured timeout whatever the caller's context.
func (o *OpenAILLM) Complete(ctx context.Context, system, user string, opts driven.CompletionOptions) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()
	return generateContent(ctx, o.llm, system, user, opts)
}

// Model returns the model name being used
func (o *OpenAILLM) Model() string {
	return o.model
}

// Ping verifies the LLM service is available
func (o *OpenAILLM) Ping(ctx context.Context) error {
	_, err := o.Complete(ctx, "", "ping", driven.CompletionOptions{MaxTokens: 1})
	return err
}

// Close releases resources held by the LLM service
func (o *OpenAILLM) Close() error {
	return nil
}

// generateContent runs one chat turn through a langchaingo model,
// mapping CompletionOptions onto provider call options.
func generateContent(ctx context.Context, model llms.Model, system, user string, opts driven.CompletionOptions) (string, error) {
	var messages []llms.MessageContent
	if system != "" {
		messages = append(messages, llms.TextParts(llms.ChatMessageTypeSystem, system))
	}
	messages = append(messages, llms.TextParts(llms.ChatMessageTypeHuman, user))

	callOpts := []llms.CallOption{
		llms.WithTemperature(opts.Temperature),
	}
	if opts.JSONMode {
		callOpts = append(callOpts, llms.WithJSONMode())
	}
	if opts.MaxTokens > 0 {
		callOpts = append(callOpts, llms.WithMaxTokens(opts.MaxTokens))
	}

	resp, err := model.GenerateContent(ctx, messages, callOpts...)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no completion choices returned")
	}

	return resp.Choices[0].Content, nil
}
