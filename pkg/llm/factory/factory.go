package factory

import (
	"fmt"
	"strings"

	"research-assistant-be/pkg/llm"
	"research-assistant-be/pkg/llm/huggingface"
	"research-assistant-be/pkg/llm/ollama"
)

const staticReply = "Generated content is unavailable in offline mode. This is not medical advice."

func NewLLMProvider(providerType, modelName, baseURL, apiKey string) (llm.LLMProvider, error) {
	switch strings.ToLower(providerType) {
	case "ollama":
		if baseURL == "" {
			baseURL = "http://localhost:11434"
		}
		return ollama.NewOllamaProvider(baseURL, modelName), nil
	case "huggingface", "hf":
		if apiKey == "" {
			return nil, fmt.Errorf("huggingface provider requires an api key")
		}
		return huggingface.NewHuggingFaceProvider(apiKey, "", modelName), nil
	case "static", "offline":
		return llm.NewStaticProvider(staticReply), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", providerType)
	}
}
