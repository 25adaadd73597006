package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/Vortex-Labs-xyz/email-agent-v1/internal/core/domain"
	"github.com/Vortex-Labs-xyz/email-agent-v1/internal/core/ports/driven/mocks"
	"github.com/Vortex-Labs-xyz/email-agent-v1/internal/core/ports/driving"
	"github.com/Vortex-Labs-xyz/email-agent-v1/internal/postprocessors"
	"github.com/Vortex-Labs-xyz/email-agent-v1/internal/runtime"
)

const testDimension = 8

// Test helper to create a knowledge service with mocks
func createTestKnowledgeService(t *testing.T) (
	driving.KnowledgeService,
	*mocks.MockKnowledgeStore,
	*mocks.MockKnowledgeIndex,
	*runtime.Services,
) {
	t.Helper()

	store := mocks.NewMockKnowledgeStore()
	index := mocks.NewMockKnowledgeIndex(testDimension)

	embedding := mocks.NewMockEmbeddingService()
	embedding.SetDimensions(testDimension)

	services := runtime.NewServices(domain.NewRuntimeConfig("memory", "mock"))
	services.SetEmbeddingService(embedding)

	svc := NewKnowledgeService(KnowledgeServiceConfig{
		Store:    store,
		Index:    index,
		Pipeline: postprocessors.DefaultPipeline(),
		Services: services,
	})

	return svc, store, index, services
}

func TestKnowledge_AddDocument(t *testing.T) {
	svc, store, index, _ := createTestKnowledgeService(t)
	ctx := context.Background()

	doc, err := svc.AddDocument(ctx, driving.AddDocumentRequest{
		Title:    "Return policy",
		Content:  "Items may be returned within 30 days of purchase.",
		Category: "policy",
		Tags:     []string{"returns"},
	})
	if err != nil {
		t.Fatalf("failed to add document: %v", err)
	}

	if doc.ID == "" {
		t.Error("expected generated document ID")
	}
	if !doc.Active {
		t.Error("expected new document to be active")
	}
	if doc.IndexedAt.IsZero() {
		t.Error("expected indexed timestamp to be set")
	}

	saved, err := store.Get(ctx, doc.ID)
	if err != nil {
		t.Fatalf("document not stored: %v", err)
	}
	if saved.Title != "Return policy" {
		t.Errorf("expected title preserved, got %q", saved.Title)
	}

	count, _ := index.Count(ctx)
	if count == 0 {
		t.Error("expected chunks in the index")
	}
}

func TestKnowledge_AddDocument_Validation(t *testing.T) {
	svc, _, _, _ := createTestKnowledgeService(t)
	ctx := context.Background()

	_, err := svc.AddDocument(ctx, driving.AddDocumentRequest{Title: "", Content: "body"})
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for empty title, got %v", err)
	}

	_, err = svc.AddDocument(ctx, driving.AddDocumentRequest{Title: "title", Content: "   "})
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for blank content, got %v", err)
	}
}

func TestKnowledge_AddDocument_NoEmbeddingService(t *testing.T) {
	svc, store, index, services := createTestKnowledgeService(t)
	services.SetEmbeddingService(nil)
	ctx := context.Background()

	// Document is stored even when indexing is impossible
	doc, err := svc.AddDocument(ctx, driving.AddDocumentRequest{
		Title:   "Shipping",
		Content: "We ship worldwide.",
	})
	if err != nil {
		t.Fatalf("expected document stored despite missing embedding service: %v", err)
	}

	if _, err := store.Get(ctx, doc.ID); err != nil {
		t.Fatalf("document not stored: %v", err)
	}
	if !doc.IndexedAt.IsZero() {
		t.Error("expected no indexed timestamp without embeddings")
	}

	count, _ := index.Count(ctx)
	if count != 0 {
		t.Errorf("expected empty index, got %d chunks", count)
	}
}

func TestKnowledge_Search_ExcludesDeactivated(t *testing.T) {
	svc, _, _, _ := createTestKnowledgeService(t)
	ctx := context.Background()

	kept, err := svc.AddDocument(ctx, driving.AddDocumentRequest{
		Title:   "Refunds",
		Content: "Refunds are issued to the original payment method.",
	})
	if err != nil {
		t.Fatalf("failed to add document: %v", err)
	}

	dropped, err := svc.AddDocument(ctx, driving.AddDocumentRequest{
		Title:   "Old pricing",
		Content: "Legacy pricing no longer applies.",
	})
	if err != nil {
		t.Fatalf("failed to add document: %v", err)
	}

	if err := svc.Deactivate(ctx, dropped.ID); err != nil {
		t.Fatalf("failed to deactivate: %v", err)
	}

	hits, err := svc.Search(ctx, "refund policy", 10)
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(hits) == 0 {
		t.Fatal("expected hits from the active document")
	}
	for _, hit := range hits {
		if hit.Chunk.DocumentID == dropped.ID {
			t.Error("search returned a chunk from a deactivated document")
		}
		if hit.Chunk.DocumentID != kept.ID {
			t.Errorf("unexpected document in hits: %s", hit.Chunk.DocumentID)
		}
	}
}

func TestKnowledge_Search_NoEmbeddingService(t *testing.T) {
	svc, _, _, services := createTestKnowledgeService(t)
	services.SetEmbeddingService(nil)

	_, err := svc.Search(context.Background(), "anything", 3)
	if !errors.Is(err, domain.ErrServiceUnavailable) {
		t.Errorf("expected ErrServiceUnavailable, got %v", err)
	}
}

func TestKnowledge_Search_EmptyQuery(t *testing.T) {
	svc, _, _, _ := createTestKnowledgeService(t)

	_, err := svc.Search(context.Background(), "  ", 3)
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}

func TestKnowledge_SearchContext_Format(t *testing.T) {
	svc, _, _, _ := createTestKnowledgeService(t)
	ctx := context.Background()

	_, err := svc.AddDocument(ctx, driving.AddDocumentRequest{
		Title:   "Support hours",
		Content: "Support is available Monday to Friday, 9am to 5pm.",
	})
	if err != nil {
		t.Fatalf("failed to add document: %v", err)
	}

	formatted, err := svc.SearchContext(ctx, "when is support available", 3)
	if err != nil {
		t.Fatalf("search context failed: %v", err)
	}

	if !strings.HasPrefix(formatted, "Relevant information:\n") {
		t.Errorf("unexpected context header: %q", formatted)
	}
	if !strings.Contains(formatted, "From 'Support hours':") {
		t.Errorf("expected source attribution, got %q", formatted)
	}
	if !strings.Contains(formatted, "Monday to Friday") {
		t.Errorf("expected chunk content, got %q", formatted)
	}
}

func TestKnowledge_SearchContext_EmptyIndex(t *testing.T) {
	svc, _, _, _ := createTestKnowledgeService(t)

	formatted, err := svc.SearchContext(context.Background(), "anything", 3)
	if err != nil {
		t.Fatalf("search context failed: %v", err)
	}
	if formatted != "" {
		t.Errorf("expected empty context, got %q", formatted)
	}
}

func TestKnowledge_DeactivateReactivate(t *testing.T) {
	svc, store, _, _ := createTestKnowledgeService(t)
	ctx := context.Background()

	doc, err := svc.AddDocument(ctx, driving.AddDocumentRequest{
		Title:   "Billing",
		Content: "Invoices are issued monthly.",
	})
	if err != nil {
		t.Fatalf("failed to add document: %v", err)
	}

	if err := svc.Deactivate(ctx, doc.ID); err != nil {
		t.Fatalf("failed to deactivate: %v", err)
	}
	saved, _ := store.Get(ctx, doc.ID)
	if saved.Active {
		t.Error("expected document deactivated")
	}

	if err := svc.Reactivate(ctx, doc.ID); err != nil {
		t.Fatalf("failed to reactivate: %v", err)
	}
	saved, _ = store.Get(ctx, doc.ID)
	if !saved.Active {
		t.Error("expected document reactivated")
	}
}

func TestKnowledge_Deactivate_NotFound(t *testing.T) {
	svc, _, _, _ := createTestKnowledgeService(t)

	err := svc.Deactivate(context.Background(), "missing")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestKnowledge_Rebuild_DropsInactiveChunks(t *testing.T) {
	svc, _, index, _ := createTestKnowledgeService(t)
	ctx := context.Background()

	_, err := svc.AddDocument(ctx, driving.AddDocumentRequest{
		Title:   "Keep",
		Content: "This document stays active.",
	})
	if err != nil {
		t.Fatalf("failed to add document: %v", err)
	}

	dropped, err := svc.AddDocument(ctx, driving.AddDocumentRequest{
		Title:   "Drop",
		Content: "This document gets deactivated.",
	})
	if err != nil {
		t.Fatalf("failed to add document: %v", err)
	}
	if err := svc.Deactivate(ctx, dropped.ID); err != nil {
		t.Fatalf("failed to deactivate: %v", err)
	}

	before, _ := index.Count(ctx)

	indexed, err := svc.Rebuild(ctx)
	if err != nil {
		t.Fatalf("rebuild failed: %v", err)
	}
	if indexed != 1 {
		t.Errorf("expected 1 document reindexed, got %d", indexed)
	}

	after, _ := index.Count(ctx)
	if after >= before {
		t.Errorf("expected rebuild to shrink the index, before=%d after=%d", before, after)
	}
}

func TestKnowledge_Stats(t *testing.T) {
	svc, _, _, _ := createTestKnowledgeService(t)
	ctx := context.Background()

	for _, title := range []string{"A", "B"} {
		_, err := svc.AddDocument(ctx, driving.AddDocumentRequest{
			Title:    title,
			Content:  "Some knowledge content for " + title,
			Category: "faq",
		})
		if err != nil {
			t.Fatalf("failed to add document: %v", err)
		}
	}

	stats, err := svc.Stats(ctx)
	if err != nil {
		t.Fatalf("stats failed: %v", err)
	}

	if stats.TotalDocuments != 2 || stats.ActiveDocuments != 2 {
		t.Errorf("unexpected counts: %+v", stats)
	}
	if stats.IndexedChunks == 0 {
		t.Error("expected indexed chunks")
	}
	if stats.Categories["faq"] != 2 {
		t.Errorf("expected 2 faq documents, got %d", stats.Categories["faq"])
	}
	if stats.Dimension != testDimension {
		t.Errorf("expected dimension %d, got %d", testDimension, stats.Dimension)
	}
}
