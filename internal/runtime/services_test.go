package runtime

import (
	"context"
	"errors"
	"testing"

	"github.com/Vortex-Labs-xyz/email-agent-v1/internal/core/domain"
	"github.com/Vortex-Labs-xyz/email-agent-v1/internal/core/ports/driven"
)

type stubEmbeddingService struct {
	healthCheckErr error
	closed         bool
}

func (s *stubEmbeddingService) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	return nil, nil
}

func (s *stubEmbeddingService) EmbedQuery(ctx context.Context, query string) ([]float32, error) {
	return nil, nil
}

func (s *stubEmbeddingService) Dimensions() int { return 384 }

func (s *stubEmbeddingService) Model() string { return "stub-embedding" }

func (s *stubEmbeddingService) HealthCheck(ctx context.Context) error { return s.healthCheckErr }

func (s *stubEmbeddingService) Close() error {
	s.closed = true
	return nil
}

type stubLLMService struct {
	pingErr error
	closed  bool
}

func (s *stubLLMService) Complete(ctx context.Context, system, user string, opts driven.CompletionOptions) (string, error) {
	return "", nil
}

func (s *stubLLMService) Model() string { return "stub-llm" }

func (s *stubLLMService) Ping(ctx context.Context) error { return s.pingErr }

func (s *stubLLMService) Close() error {
	s.closed = true
	return nil
}

func newTestServices() (*domain.RuntimeConfig, *Services) {
	config := domain.NewRuntimeConfig("postgres", "gmail")
	return config, NewServices(config)
}

func TestNewServices(t *testing.T) {
	config, services := newTestServices()

	if services == nil {
		t.Fatal("expected non-nil services")
	}
	if services.Config() != config {
		t.Error("expected config to match")
	}
}

func TestServices_EmbeddingService(t *testing.T) {
	config, services := newTestServices()

	if services.EmbeddingService() != nil {
		t.Error("expected nil embedding service before setup")
	}

	stub := &stubEmbeddingService{}
	services.SetEmbeddingService(stub)

	if services.EmbeddingService() == nil {
		t.Error("expected embedding service after set")
	}
	if !config.EmbeddingAvailable() {
		t.Error("expected runtime flag flipped on")
	}

	// Clearing tears down the old client and flips the flag back
	services.SetEmbeddingService(nil)
	if services.EmbeddingService() != nil {
		t.Error("expected nil embedding service after clearing")
	}
	if config.EmbeddingAvailable() {
		t.Error("expected runtime flag flipped off")
	}
	if !stub.closed {
		t.Error("expected old service to be closed")
	}
}

func TestServices_LLMService(t *testing.T) {
	config, services := newTestServices()

	if services.LLMService() != nil {
		t.Error("expected nil LLM service before setup")
	}

	stub := &stubLLMService{}
	services.SetLLMService(stub)

	if services.LLMService() == nil {
		t.Error("expected LLM service after set")
	}
	if !config.LLMAvailable() {
		t.Error("expected runtime flag flipped on")
	}

	services.SetLLMService(nil)
	if services.LLMService() != nil {
		t.Error("expected nil LLM service after clearing")
	}
	if config.LLMAvailable() {
		t.Error("expected runtime flag flipped off")
	}
	if !stub.closed {
		t.Error("expected old service to be closed")
	}
}

func TestServices_ValidateAndSetEmbedding(t *testing.T) {
	_, services := newTestServices()
	ctx := context.Background()

	t.Run("healthy service accepted", func(t *testing.T) {
		stub := &stubEmbeddingService{}
		if err := services.ValidateAndSetEmbedding(ctx, stub); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		if services.EmbeddingService() == nil {
			t.Error("expected embedding service to be set")
		}
	})

	t.Run("unhealthy service rejected and closed", func(t *testing.T) {
		stub := &stubEmbeddingService{healthCheckErr: errors.New("connection refused")}
		if err := services.ValidateAndSetEmbedding(ctx, stub); err == nil {
			t.Error("expected error")
		}
		if !stub.closed {
			t.Error("expected rejected service to be closed")
		}
	})

	t.Run("nil clears without error", func(t *testing.T) {
		if err := services.ValidateAndSetEmbedding(ctx, nil); err != nil {
			t.Errorf("unexpected error for nil service: %v", err)
		}
	})
}

func TestServices_ValidateAndSetLLM(t *testing.T) {
	_, services := newTestServices()
	ctx := context.Background()

	t.Run("healthy service accepted", func(t *testing.T) {
		stub := &stubLLMService{}
		if err := services.ValidateAndSetLLM(ctx, stub); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		if services.LLMService() == nil {
			t.Error("expected LLM service to be set")
		}
	})

	t.Run("unhealthy service rejected and closed", func(t *testing.T) {
		stub := &stubLLMService{pingErr: errors.New("connection refused")}
		if err := services.ValidateAndSetLLM(ctx, stub); err == nil {
			t.Error("expected error")
		}
		if !stub.closed {
			t.Error("expected rejected service to be closed")
		}
	})

	t.Run("nil clears without error", func(t *testing.T) {
		if err := services.ValidateAndSetLLM(ctx, nil); err != nil {
			t.Errorf("unexpected error for nil service: %v", err)
		}
	})
}

func TestServices_Close(t *testing.T) {
	_, services := newTestServices()

	emb := &stubEmbeddingService{}
	llm := &stubLLMService{}
	services.SetEmbeddingService(emb)
	services.SetLLMService(llm)

	if err := services.Close(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if !emb.closed || !llm.closed {
		t.Error("expected both services closed")
	}
}

func TestServices_Replace_ClosesOld(t *testing.T) {
	_, services := newTestServices()

	first := &stubEmbeddingService{}
	second := &stubEmbeddingService{}

	services.SetEmbeddingService(first)
	services.SetEmbeddingService(second)

	if !first.closed {
		t.Error("expected replaced service to be closed")
	}
	if second.closed {
		t.Error("expected active service to remain open")
	}
}
