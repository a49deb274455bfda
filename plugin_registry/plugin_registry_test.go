package plugin_registry_test

import (
	"testing"

	"github.com/serisow/autbot/plugin_registry"
	"github.com/serisow/autbot/services/llm_service"
	"github.com/serisow/autbot/services/rag_service"
)

func TestRegisterAndGetLLMService(t *testing.T) {
	registry := plugin_registry.NewPluginRegistry()

	mockLLMService := &llm_service.MockLLMService{}
	registry.RegisterLLMService("mock_llm_service", mockLLMService)

	service, ok := registry.GetLLMService("mock_llm_service")
	if !ok {
		t.Fatal("Expected to retrieve registered LLM service, got false")
	}

	if service != mockLLMService {
		t.Errorf("Expected retrieved service to be the same as registered service")
	}
}

func TestGetUnregisteredLLMService(t *testing.T) {
	registry := plugin_registry.NewPluginRegistry()

	_, ok := registry.GetLLMService("unknown_service")
	if ok {
		t.Fatal("Expected to not find unregistered LLM service, but got true")
	}
}

func TestRegisterAndGetEmbedder(t *testing.T) {
	registry := plugin_registry.NewPluginRegistry()
	registry.RegisterEmbedder("tfidf", func() rag_service.Embedder {
		return rag_service.NewTFIDFEmbedder()
	})

	first, err := registry.GetEmbedder("tfidf")
	if err != nil {
		t.Fatalf("Expected to build registered embedder, got error: %v", err)
	}
	if first.Name() != "tfidf" {
		t.Errorf("Expected embedder name 'tfidf', got '%s'", first.Name())
	}

	second, _ := registry.GetEmbedder("tfidf")
	if first == second {
		t.Errorf("Expected a fresh embedder per call")
	}
}

func TestGetUnregisteredEmbedder(t *testing.T) {
	registry := plugin_registry.NewPluginRegistry()
	registry.RegisterEmbedder("tfidf", func() rag_service.Embedder { return rag_service.NewTFIDFEmbedder() })

	_, err := registry.GetEmbedder("word2vec")
	if err == nil {
		t.Fatal("Expected an error for an unregistered embedder")
	}
	if err.Error() != "unknown embedder: word2vec (available: [tfidf])" {
		t.Errorf("Unexpected error message: %s", err.Error())
	}
}
