package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearModelEnv blanks every variable the loader reads so host environment
// leakage cannot flip test outcomes.
func clearModelEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"SLACK_BOT_TOKEN", "SLACK_SIGNING_SECRET",
		"JIRA_DOMAIN", "JIRA_EMAIL", "JIRA_API_TOKEN",
		"MODEL_PROVIDER", "MODEL_NAME", "MODEL_API_KEY", "OLLAMA_HOST",
		"GOOGLE_API_KEY", "ANTHROPIC_API_KEY", "OPENAI_API_KEY",
		"DEV_AGENT_URL", "DEV_AGENT_TIMEOUT", "DB_PATH", "HTTP_ADDR",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearModelEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ProviderGoogle, cfg.Model.Provider)
	assert.Equal(t, DefaultGeminiModel, cfg.Model.Name)
	assert.Equal(t, DefaultMaxRounds, cfg.Model.MaxRounds)
	assert.Equal(t, DefaultMaxTokens, cfg.Model.MaxTokens)
	assert.InDelta(t, DefaultTemperature, cfg.Model.Temperature, 0.001)
	assert.Equal(t, DefaultModelTimeout, cfg.Model.RequestTimeout)
	assert.Equal(t, DefaultGatewayTimeout, cfg.DevGateway.Timeout)
	assert.Equal(t, DefaultEventRetention, cfg.Store.EventRetention)
	assert.Equal(t, DefaultHTTPAddr, cfg.HTTP.Addr)
	assert.Equal(t, DefaultThreadStatus, "pensando...")
}

func TestLoadYAMLFile(t *testing.T) {
	clearModelEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
slack:
  bot_token: xoxb-1
  signing_secret: s3cr3t
jira:
  domain: acme
  email: pm@acme.com
  api_token: tok
model:
  provider: anthropic
  max_rounds: 3
dev_gateway:
  url: http://gateway:9000
  timeout: 45s
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "xoxb-1", cfg.Slack.BotToken)
	assert.Equal(t, "acme", cfg.Jira.Domain)
	assert.Equal(t, ProviderAnthropic, cfg.Model.Provider)
	assert.Equal(t, DefaultClaudeModel, cfg.Model.Name, "provider-specific model default")
	assert.Equal(t, 3, cfg.Model.MaxRounds)
	assert.Equal(t, "http://gateway:9000", cfg.DevGateway.URL)
	assert.Equal(t, 45*time.Second, cfg.DevGateway.Timeout)
}

func TestEnvOverridesFile(t *testing.T) {
	clearModelEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("jira:\n  domain: from-file\n"), 0o600))

	t.Setenv("JIRA_DOMAIN", "from-env")
	t.Setenv("DEV_AGENT_TIMEOUT", "90s")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.Jira.Domain)
	assert.Equal(t, 90*time.Second, cfg.DevGateway.Timeout)
}

func TestProviderKeyFallbacks(t *testing.T) {
	clearModelEnv(t)
	t.Setenv("ANTHROPIC_API_KEY", "ant-key")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "ant-key", cfg.Model.APIKey)

	t.Setenv("MODEL_API_KEY", "generic-key")
	cfg, err = Load("")
	require.NoError(t, err)
	assert.Equal(t, "generic-key", cfg.Model.APIKey, "MODEL_API_KEY wins over provider keys")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Slack: SlackConfig{BotToken: "xoxb", SigningSecret: "s"},
			Jira:  JiraConfig{Domain: "acme", Email: "e@acme.com", APIToken: "t"},
			Model: ModelConfig{Provider: ProviderGoogle, APIKey: "k"},
		}
	}

	require.NoError(t, valid().Validate())

	noToken := valid()
	noToken.Slack.BotToken = ""
	assert.Error(t, noToken.Validate())

	noJira := valid()
	noJira.Jira.APIToken = ""
	assert.Error(t, noJira.Validate())

	noKey := valid()
	noKey.Model.APIKey = ""
	assert.Error(t, noKey.Validate())

	ollama := valid()
	ollama.Model.Provider = ProviderOllama
	ollama.Model.APIKey = ""
	assert.NoError(t, ollama.Validate(), "ollama needs no api key")

	unknown := valid()
	unknown.Model.Provider = "watson"
	assert.Error(t, unknown.Validate())
}
