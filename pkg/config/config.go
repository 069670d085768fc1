// Package config provides configuration loading, validation, and defaults
// for the slack-jira-agent service. Configuration comes from an optional
// YAML file with environment variables taking precedence.
package config

import (
	"fmt"
	"time"
)

// Model provider identifiers accepted in Config.Model.Provider.
const (
	ProviderGoogle    = "google"
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
	ProviderOllama    = "ollama"
)

// Default model names per provider.
const (
	DefaultGeminiModel    = "gemini-2.5-flash"
	DefaultClaudeModel    = "claude-sonnet-4-20250514"
	DefaultOpenAIModel    = "gpt-4o"
	DefaultOllamaModel    = "qwen2.5-coder:14b"
	DefaultOllamaHost     = "http://localhost:11434"
	DefaultJiraIssueType  = "Task"
	DefaultIssuePriority  = "Medium"
	DefaultHTTPAddr       = ":8080"
	DefaultThreadStatus   = "pensando..."
	DefaultMaxRounds      = 8
	DefaultMaxTokens      = 4096
	DefaultTemperature    = 0.1
	DefaultTokenBudget    = 24000
	DefaultModelTimeout   = 60 * time.Second
	DefaultGatewayTimeout = 120 * time.Second
	DefaultEventRetention = 7 * 24 * time.Hour
)

// SlackConfig holds the Slack Web API credentials.
type SlackConfig struct {
	BotToken      string `yaml:"bot_token"`
	SigningSecret string `yaml:"signing_secret"`
}

// JiraConfig holds the Jira Cloud REST API credentials.
// Domain is the site prefix, e.g. "acme" for acme.atlassian.net.
type JiraConfig struct {
	Domain   string `yaml:"domain"`
	Email    string `yaml:"email"`
	APIToken string `yaml:"api_token"`
}

// ModelConfig selects and tunes the LLM provider.
type ModelConfig struct {
	Provider           string        `yaml:"provider"`
	Name               string        `yaml:"name"`
	APIKey             string        `yaml:"api_key"`
	Host               string        `yaml:"host"` // ollama only
	MaxTokens          int           `yaml:"max_tokens"`
	Temperature        float32       `yaml:"temperature"`
	MaxRounds          int           `yaml:"max_rounds"`
	RequestTimeout     time.Duration `yaml:"request_timeout"`
	ContextTokenBudget int           `yaml:"context_token_budget"`
}

// DevGatewayConfig points at the downstream code-generation service.
// Leaving URL empty disables the development delegation tool.
type DevGatewayConfig struct {
	URL     string        `yaml:"url"`
	Timeout time.Duration `yaml:"timeout"`
}

// StoreConfig configures conversation persistence. An empty Path runs the
// agent without persistence (conversations are not resumable).
type StoreConfig struct {
	Path           string        `yaml:"path"`
	EventRetention time.Duration `yaml:"event_retention"`
}

// HTTPConfig configures the inbound webhook server.
type HTTPConfig struct {
	Addr string `yaml:"addr"`
}

// Config is the root configuration for the service.
type Config struct {
	Slack      SlackConfig      `yaml:"slack"`
	Jira       JiraConfig       `yaml:"jira"`
	Model      ModelConfig      `yaml:"model"`
	DevGateway DevGatewayConfig `yaml:"dev_gateway"`
	Store      StoreConfig      `yaml:"store"`
	HTTP       HTTPConfig       `yaml:"http"`
}

// applyDefaults fills zero values with service defaults.
func (c *Config) applyDefaults() {
	if c.Model.Provider == "" {
		c.Model.Provider = ProviderGoogle
	}
	if c.Model.Name == "" {
		switch c.Model.Provider {
		case ProviderAnthropic:
			c.Model.Name = DefaultClaudeModel
		case ProviderOpenAI:
			c.Model.Name = DefaultOpenAIModel
		case ProviderOllama:
			c.Model.Name = DefaultOllamaModel
		default:
			c.Model.Name = DefaultGeminiModel
		}
	}
	if c.Model.Host == "" {
		c.Model.Host = DefaultOllamaHost
	}
	if c.Model.MaxTokens <= 0 {
		c.Model.MaxTokens = DefaultMaxTokens
	}
	if c.Model.Temperature == 0 {
		c.Model.Temperature = DefaultTemperature
	}
	if c.Model.MaxRounds <= 0 {
		c.Model.MaxRounds = DefaultMaxRounds
	}
	if c.Model.RequestTimeout <= 0 {
		c.Model.RequestTimeout = DefaultModelTimeout
	}
	if c.Model.ContextTokenBudget <= 0 {
		c.Model.ContextTokenBudget = DefaultTokenBudget
	}
	if c.DevGateway.Timeout <= 0 {
		c.DevGateway.Timeout = DefaultGatewayTimeout
	}
	if c.Store.EventRetention <= 0 {
		c.Store.EventRetention = DefaultEventRetention
	}
	if c.HTTP.Addr == "" {
		c.HTTP.Addr = DefaultHTTPAddr
	}
}

// Validate checks that required credentials are present. Missing credentials
// are fatal at startup, not recoverable per request.
func (c *Config) Validate() error {
	if c.Slack.BotToken == "" {
		return fmt.Errorf("slack bot token is required (SLACK_BOT_TOKEN)")
	}
	if c.Slack.SigningSecret == "" {
		return fmt.Errorf("slack signing secret is required (SLACK_SIGNING_SECRET)")
	}
	if c.Jira.Domain == "" || c.Jira.Email == "" || c.Jira.APIToken == "" {
		return fmt.Errorf("jira configuration is incomplete (JIRA_DOMAIN, JIRA_EMAIL, JIRA_API_TOKEN)")
	}
	switch c.Model.Provider {
	case ProviderGoogle, ProviderAnthropic, ProviderOpenAI:
		if c.Model.APIKey == "" {
			return fmt.Errorf("model api key is required for provider %q", c.Model.Provider)
		}
	case ProviderOllama:
		// Local runtime, no key.
	default:
		return fmt.Errorf("unknown model provider %q", c.Model.Provider)
	}
	return nil
}
