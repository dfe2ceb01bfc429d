package factory

import (
	"fmt"
	"strings"

	"virtual-hr-be/pkg/llm"
	"virtual-hr-be/pkg/llm/ollama"
)

// NewLLMProvider builds the generation backend named by LLM_PROVIDER.
func NewLLMProvider(providerType, modelName, baseURL string) (llm.LLMProvider, error) {
	if modelName == "" {
		return nil, fmt.Errorf("LLM model name is required")
	}

	switch strings.ToLower(strings.TrimSpace(providerType)) {
	case "", "ollama":
		return ollama.NewOllamaProvider(baseURL, modelName), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", providerType)
	}
}
