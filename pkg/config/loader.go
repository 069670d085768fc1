package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Load reads configuration from an optional YAML file at path, then applies
// environment variable overrides and defaults. An empty path skips the file
// entirely (env-only configuration, the Lambda-style deployment mode).
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	cfg.applyEnv()
	cfg.applyDefaults()
	return cfg, nil
}

// applyEnv overrides file values with environment variables where set.
func (c *Config) applyEnv() {
	setString(&c.Slack.BotToken, "SLACK_BOT_TOKEN")
	setString(&c.Slack.SigningSecret, "SLACK_SIGNING_SECRET")

	setString(&c.Jira.Domain, "JIRA_DOMAIN")
	setString(&c.Jira.Email, "JIRA_EMAIL")
	setString(&c.Jira.APIToken, "JIRA_API_TOKEN")

	setString(&c.Model.Provider, "MODEL_PROVIDER")
	setString(&c.Model.Name, "MODEL_NAME")
	setString(&c.Model.Host, "OLLAMA_HOST")

	// Provider-specific key variables, checked in provider order so the
	// generic MODEL_API_KEY wins when present.
	if v := os.Getenv("GOOGLE_API_KEY"); v != "" && c.Model.APIKey == "" {
		c.Model.APIKey = v
	}
	if v := os.Getenv("ANTHROPIC_API_KEY"); v != "" && c.Model.APIKey == "" {
		c.Model.APIKey = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" && c.Model.APIKey == "" {
		c.Model.APIKey = v
	}
	setString(&c.Model.APIKey, "MODEL_API_KEY")

	setString(&c.DevGateway.URL, "DEV_AGENT_URL")
	setDuration(&c.DevGateway.Timeout, "DEV_AGENT_TIMEOUT")

	setString(&c.Store.Path, "DB_PATH")
	setString(&c.HTTP.Addr, "HTTP_ADDR")
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}
