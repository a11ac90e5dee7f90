// pkg/llmclient/factory.go
package llmclient

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/kestrelrpa/kestrel-cli/internal/config"
)

// ProviderGemini is the only provider currently wired.
const ProviderGemini = "gemini"

// NewClient creates a TextCompleter for the configured provider.
func NewClient(cfg config.LLMConfig, logger *zap.Logger) (TextCompleter, error) {
	switch cfg.Provider {
	case ProviderGemini:
		return NewGeminiClient(cfg, logger)
	default:
		return nil, fmt.Errorf("unknown or unsupported LLM provider configured: '%s'. Supported: [%s]", cfg.Provider, ProviderGemini)
	}
}
