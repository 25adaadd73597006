package domain

import (
	"testing"
)

func TestNewRuntimeConfig(t *testing.T) {
	config := NewRuntimeConfig("postgres", "gmail")

	if config.SessionBackend != "postgres" {
		t.Errorf("expected postgres, got %s", config.SessionBackend)
	}
	if config.MailProvider != "gmail" {
		t.Errorf("expected gmail, got %s", config.MailProvider)
	}

	// AI services come up later, via settings
	if config.EmbeddingAvailable() || config.LLMAvailable() {
		t.Error("expected AI services to start unavailable")
	}
}

func TestRuntimeConfig_AvailabilityFlags(t *testing.T) {
	config := NewRuntimeConfig("postgres", "mock")

	config.SetEmbeddingAvailable(true)
	if !config.EmbeddingAvailable() {
		t.Error("expected embedding available after set")
	}
	if !config.CanSearchKnowledge() {
		t.Error("expected knowledge search with embedding up")
	}
	if config.CanGenerateResponses() {
		t.Error("expected no response generation without an LLM")
	}

	config.SetLLMAvailable(true)
	if !config.CanGenerateResponses() {
		t.Error("expected response generation with LLM up")
	}

	// Clearing a flag, as a failed hot-reload does, degrades the
	// matching capability
	config.SetEmbeddingAvailable(false)
	if config.CanSearchKnowledge() {
		t.Error("expected knowledge search off after embedding cleared")
	}
	if !config.CanGenerateResponses() {
		t.Error("expected LLM availability unaffected")
	}
}

func TestRuntimeConfig_ConcurrentAccess(t *testing.T) {
	config := NewRuntimeConfig("postgres", "mock")

	done := make(chan struct{}, 2)

	go func() {
		defer func() { done <- struct{}{} }()
		for i := 0; i < 100; i++ {
			config.SetEmbeddingAvailable(i%2 == 0)
			config.SetLLMAvailable(i%2 == 1)
		}
	}()

	go func() {
		defer func() { done <- struct{}{} }()
		for i := 0; i < 100; i++ {
			_ = config.CanSearchKnowledge()
			_ = config.CanGenerateResponses()
		}
	}()

	<-done
	<-done
}
