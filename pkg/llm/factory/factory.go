// Package factory builds llm.Client instances from configuration.
package factory

import (
	"fmt"

	"github.com/franizus/slack-jira-agent/pkg/config"
	"github.com/franizus/slack-jira-agent/pkg/llm"
	"github.com/franizus/slack-jira-agent/pkg/llm/anthropic"
	"github.com/franizus/slack-jira-agent/pkg/llm/google"
	"github.com/franizus/slack-jira-agent/pkg/llm/ollama"
	"github.com/franizus/slack-jira-agent/pkg/llm/openai"
)

// NewClient returns the provider client selected by cfg. An empty provider
// defaults to Google Gemini.
func NewClient(cfg *config.ModelConfig) (llm.Client, error) {
	provider := cfg.Provider
	if provider == "" {
		provider = config.ProviderGoogle
	}

	switch provider {
	case config.ProviderGoogle:
		return google.NewClient(cfg.APIKey, cfg.Name), nil
	case config.ProviderAnthropic:
		return anthropic.NewClient(cfg.APIKey, cfg.Name), nil
	case config.ProviderOpenAI:
		return openai.NewClient(cfg.APIKey, cfg.Name), nil
	case config.ProviderOllama:
		return ollama.NewClient(cfg.Host, cfg.Name), nil
	default:
		return nil, fmt.Errorf("unknown model provider: %s", provider)
	}
}
