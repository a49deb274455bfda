package plugin_registry

import (
	"fmt"
	"sort"

	"github.com/serisow/autbot/services/llm_service"
	"github.com/serisow/autbot/services/rag_service"
)

// PluginRegistry maps the provider names used in configuration to the
// model backends and embedders that implement them.
type PluginRegistry struct {
	llmServices map[string]llm_service.LLMService
	embedders   map[string]func() rag_service.Embedder
}

func NewPluginRegistry() *PluginRegistry {
	return &PluginRegistry{
		llmServices: make(map[string]llm_service.LLMService),
		embedders:   make(map[string]func() rag_service.Embedder),
	}
}

// RegisterLLMService registers a new LLM service
func (pr *PluginRegistry) RegisterLLMService(name string, service llm_service.LLMService) {
	pr.llmServices[name] = service
}

// GetLLMService returns an LLM service by name
func (pr *PluginRegistry) GetLLMService(name string) (llm_service.LLMService, bool) {
	service, ok := pr.llmServices[name]
	return service, ok
}

// RegisterEmbedder registers a factory; every GetEmbedder call builds a fresh embedder.
func (pr *PluginRegistry) RegisterEmbedder(name string, factory func() rag_service.Embedder) {
	pr.embedders[name] = factory
}

func (pr *PluginRegistry) GetEmbedder(name string) (rag_service.Embedder, error) {
	factory, ok := pr.embedders[name]
	if !ok {
		return nil, fmt.Errorf("unknown embedder: %s (available: %v)", name, sortedKeys(pr.embedders))
	}
	return factory(), nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
