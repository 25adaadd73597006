package ai

import (
	"context"
	"testing"
	"time"

	"github.com/tmc/langchaingo/llms"

	"github.com/Vortex-Labs-xyz/email-agent-v1/internal/core/domain"
	"github.com/Vortex-Labs-xyz/email-agent-v1/internal/core/ports/driven"
)

// deadlineCapturingModel records the deadline of the context each
// generation call runs under.
type deadlineCapturingModel struct {
	deadline    time.Time
	hadDeadline bool
}

func (m *deadlineCapturingModel) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	m.deadline, m.hadDeadline = ctx.Deadline()
	return &llms.ContentResponse{
		Choices: []*llms.ContentChoice{{Content: "ok"}},
	}, nil
}

func (m *deadlineCapturingModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	m.deadline, m.hadDeadline = ctx.Deadline()
	return "ok", nil
}

func TestOpenAILLM_CompleteBoundsCallDuration(t *testing.T) {
	fake := &deadlineCapturingModel{}
	svc := &OpenAILLM{llm: fake, model: "gpt-4o-mini", timeout: 5 * time.Second}

	before := time.Now()
	out, err := svc.Complete(context.Background(), "system", "user", driven.CompletionOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "ok" {
		t.Errorf("unexpected completion %q", out)
	}

	if !fake.hadDeadline {
		t.Fatal("expected the generation call to carry a deadline")
	}
	if limit := before.Add(6 * time.Second); fake.deadline.After(limit) {
		t.Errorf("deadline %v exceeds the configured timeout", fake.deadline)
	}
}

func TestOpenAILLM_CompleteKeepsEarlierCallerDeadline(t *testing.T) {
	fake := &deadlineCapturingModel{}
	svc := &OpenAILLM{llm: fake, model: "gpt-4o-mini", timeout: time.Hour}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if _, err := svc.Complete(ctx, "", "user", driven.CompletionOptions{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !fake.hadDeadline {
		t.Fatal("expected the generation call to carry a deadline")
	}
	if fake.deadline.After(time.Now().Add(2 * time.Second)) {
		t.Errorf("deadline %v outlives the caller's", fake.deadline)
	}
}

func TestNewOpenAILLM_DefaultTimeout(t *testing.T) {
	svc, err := NewOpenAILLM("sk-test", "gpt-4o-mini", "", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := svc.(*OpenAILLM).timeout; got != defaultLLMTimeout {
		t.Errorf("expected default timeout %v, got %v", defaultLLMTimeout, got)
	}
}

func TestFactory_LLMTimeoutPropagates(t *testing.T) {
	factory := NewFactory()
	factory.LLMTimeout = 42 * time.Second

	svc, err := factory.CreateLLMService(&domain.LLMSettings{
		Provider: domain.AIProviderOpenAI,
		Model:    "gpt-4o-mini",
		APIKey:   "sk-test",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := svc.(*OpenAILLM).timeout; got != 42*time.Second {
		t.Errorf("expected factory timeout on the service, got %v", got)
	}
}

func TestNewOllamaLLM_ConfiguredTimeout(t *testing.T) {
	svc, err := NewOllamaLLM("http://localhost:11434", "llama3", 45*time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := svc.(*OllamaLLM).timeout; got != 45*time.Second {
		t.Errorf("expected configured timeout, got %v", got)
	}
}
