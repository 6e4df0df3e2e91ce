package factory

import (
	"fmt"

	"ai-collab-be/internal/config"
	"ai-collab-be/pkg/llm"
	"ai-collab-be/pkg/llm/huggingface"
	"ai-collab-be/pkg/llm/ollama"
)

func NewLLMProvider(cfg config.AIConfig) (llm.LLMProvider, error) {
	switch cfg.LLMProvider {
	case "ollama":
		baseURL := cfg.OllamaBaseURL
		if baseURL == "" {
			baseURL = "http://localhost:11434" // Default
		}
		return ollama.NewOllamaProvider(baseURL, cfg.LLMModel), nil
	case "huggingface":
		if cfg.HuggingFaceKey == "" {
			return nil, fmt.Errorf("huggingface provider requires HUGGINGFACE_API_KEY")
		}
		return huggingface.NewHuggingFaceProvider(cfg.HuggingFaceKey, cfg.HuggingFaceURL, cfg.LLMModel), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.LLMProvider)
	}
}
