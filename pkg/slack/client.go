// Package slack implements the Slack surface of the agent: a minimal Web
// API client and the events endpoint handler.
package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/franizus/slack-jira-agent/pkg/config"
	"github.com/franizus/slack-jira-agent/pkg/logx"
)

const defaultAPIBaseURL = "https://slack.com/api"

// Block is a Slack Block Kit block.
type Block map[string]any

// HeaderBlock builds a plain-text header block.
func HeaderBlock(text string) Block {
	return Block{
		"type": "header",
		"text": map[string]any{"type": "plain_text", "text": text},
	}
}

// SectionBlock builds a mrkdwn section block.
func SectionBlock(text string) Block {
	return Block{
		"type": "section",
		"text": map[string]any{"type": "mrkdwn", "text": text},
	}
}

// Client is a minimal Slack Web API client covering the three calls the
// agent needs: users.info, chat.postMessage and assistant.threads.setStatus.
type Client struct {
	token      string
	baseURL    string
	httpClient *http.Client
	logger     *logx.Logger
}

// NewClient creates a Slack client from configuration.
func NewClient(cfg *config.SlackConfig) *Client {
	return &Client{
		token:      cfg.BotToken,
		baseURL:    defaultAPIBaseURL,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		logger:     logx.NewLogger("slack"),
	}
}

type apiResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
	User  *struct {
		Profile struct {
			RealNameNormalized string `json:"real_name_normalized"`
			RealName           string `json:"real_name"`
		} `json:"profile"`
	} `json:"user"`
}

// UserDisplayName resolves a Slack user id to a display name. Lookup
// failures degrade to an empty name instead of failing the request.
func (c *Client) UserDisplayName(ctx context.Context, userID string) string {
	if userID == "" {
		return ""
	}

	endpoint := fmt.Sprintf("%s/users.info?user=%s", c.baseURL, url.QueryEscape(userID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return ""
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("users.info failed for %s: %v", userID, err)
		return ""
	}
	defer resp.Body.Close()

	var parsed apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		c.logger.Warn("failed to decode users.info response: %v", err)
		return ""
	}
	if !parsed.OK || parsed.User == nil {
		c.logger.Warn("users.info returned error for %s: %s", userID, parsed.Error)
		return ""
	}

	if name := parsed.User.Profile.RealNameNormalized; name != "" {
		return name
	}
	return parsed.User.Profile.RealName
}

// PostMessage sends a message to a channel, threaded when threadTS is set.
func (c *Client) PostMessage(ctx context.Context, channel, text, threadTS string, blocks []Block) error {
	payload := map[string]any{
		"channel": channel,
		"text":    text,
	}
	if threadTS != "" {
		payload["thread_ts"] = threadTS
	}
	if len(blocks) > 0 {
		payload["blocks"] = blocks
	}
	return c.post(ctx, "chat.postMessage", payload)
}

// SetThreadStatus sets the assistant thread status shown to the user while
// the agent works. An empty status falls back to the configured default.
func (c *Client) SetThreadStatus(ctx context.Context, channelID, threadTS, status string) error {
	if status == "" {
		status = config.DefaultThreadStatus
	}
	return c.post(ctx, "assistant.threads.setStatus", map[string]any{
		"channel_id": channelID,
		"thread_ts":  threadTS,
		"status":     status,
	})
}

func (c *Client) post(ctx context.Context, method string, payload map[string]any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode %s payload: %w", method, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/"+method, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build %s request: %w", method, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json; charset=utf-8")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("slack %s failed: %w", method, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read %s response: %w", method, err)
	}

	var parsed apiResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", method, err)
	}
	if !parsed.OK {
		return fmt.Errorf("slack %s returned error: %s", method, parsed.Error)
	}
	return nil
}
