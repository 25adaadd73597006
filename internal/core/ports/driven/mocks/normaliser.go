package mocks

import (
	"github.com/Vortex-Labs-xyz/email-agent-v1/internal/core/ports/driven"
)

var (
	_ driven.Normaliser            = (*MockNormaliser)(nil)
	_ driven.NormaliserRegistry    = (*MockNormaliserRegistry)(nil)
	_ driven.PostProcessorPipeline = (*MockPostProcessorPipeline)(nil)
)

// MockNormaliser passes email bodies through unchanged unless a hook is
// set.
type MockNormaliser struct {
	NormaliseFn      func(content, contentType string) string
	SupportedTypesFn func() []string
	PriorityFn       func() int
}

func NewMockNormaliser() *MockNormaliser {
	return &MockNormaliser{}
}

func (m *MockNormaliser) Normalise(content, contentType string) string {
	if m.NormaliseFn != nil {
		return m.NormaliseFn(content, contentType)
	}
	return content
}

func (m *MockNormaliser) SupportedTypes() []string {
	if m.SupportedTypesFn != nil {
		return m.SupportedTypesFn()
	}
	return []string{"text/plain", "text/html"}
}

func (m *MockNormaliser) Priority() int {
	if m.PriorityFn != nil {
		return m.PriorityFn()
	}
	return 100
}

// MockNormaliserRegistry hands out a single normaliser for every
// content type.
type MockNormaliserRegistry struct {
	GetFn      func(contentType string) driven.Normaliser
	normaliser driven.Normaliser
}

func NewMockNormaliserRegistry() *MockNormaliserRegistry {
	return &MockNormaliserRegistry{normaliser: NewMockNormaliser()}
}

func (m *MockNormaliserRegistry) Get(contentType string) driven.Normaliser {
	if m.GetFn != nil {
		return m.GetFn(contentType)
	}
	return m.normaliser
}

func (m *MockNormaliserRegistry) GetAll(contentType string) []driven.Normaliser {
	if n := m.Get(contentType); n != nil {
		return []driven.Normaliser{n}
	}
	return nil
}

func (m *MockNormaliserRegistry) Register(normaliser driven.Normaliser) {
	m.normaliser = normaliser
}

func (m *MockNormaliserRegistry) List() []string {
	if m.normaliser == nil {
		return nil
	}
	return m.normaliser.SupportedTypes()
}

// Test hooks

// SetNormaliser sets the normaliser returned by Get.
func (m *MockNormaliserRegistry) SetNormaliser(n driven.Normaliser) {
	m.normaliser = n
}

// MockPostProcessorPipeline turns content into a single chunk unless a
// hook is set.
type MockPostProcessorPipeline struct {
	ProcessFn func(content string) []driven.Chunk
	AddFn     func(processor driven.PostProcessor)
}

func NewMockPostProcessorPipeline() *MockPostProcessorPipeline {
	return &MockPostProcessorPipeline{}
}

func (m *MockPostProcessorPipeline) Process(content string) []driven.Chunk {
	if m.ProcessFn != nil {
		return m.ProcessFn(content)
	}
	return []driven.Chunk{
		{Content: content, Position: 0, StartOffset: 0, EndOffset: len(content)},
	}
}

func (m *MockPostProcessorPipeline) Add(processor driven.PostProcessor) {
	if m.AddFn != nil {
		m.AddFn(processor)
	}
}

func (m *MockPostProcessorPipeline) List() []string {
	return []string{"mock-pipeline"}
}
