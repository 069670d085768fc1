// Package devgateway delegates development tasks to a remote coding agent
// over a Server-Sent Events stream.
package devgateway

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/franizus/slack-jira-agent/pkg/config"
	"github.com/franizus/slack-jira-agent/pkg/logx"
)

// event names emitted by the development gateway.
const (
	eventMessage = "message"
	eventResult  = "result"
	eventError   = "error"
)

// Event is a single parsed SSE event.
type Event struct {
	Event string
	Data  string
	ID    string
}

// Client consumes the development gateway's SSE endpoint.
type Client struct {
	url        string
	httpClient *http.Client
	logger     *logx.Logger
}

// NewClient creates a gateway client. The configured timeout bounds the
// whole stream, not individual reads; delegated tasks can run long.
func NewClient(cfg *config.DevGatewayConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = config.DefaultGatewayTimeout
	}
	return &Client{
		url:        cfg.URL,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logx.NewLogger("devgateway"),
	}
}

type delegateRequest struct {
	Query           string `json:"query"`
	RelatedIssueKey string `json:"relatedIssueKey,omitempty"`
}

// Delegate sends a task to the development agent and consumes the event
// stream until the terminal "result" event. Intermediate "message" events
// are accumulated and prepended to the result so partial progress survives
// in the transcript. A stream that ends without a terminal event is an
// error regardless of how much data arrived.
func (c *Client) Delegate(ctx context.Context, query, relatedIssueKey string) (string, error) {
	payload, err := json.Marshal(delegateRequest{Query: query, RelatedIssueKey: relatedIssueKey})
	if err != nil {
		return "", fmt.Errorf("failed to encode delegate request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to build delegate request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")

	c.logger.Debug("delegating task to %s (related=%s)", c.url, relatedIssueKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("development gateway request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("development gateway returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var progress []string
	reader := bufio.NewReader(resp.Body)
	for {
		event, err := readEvent(reader)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return "", fmt.Errorf("development gateway stream ended without a result event")
			}
			return "", fmt.Errorf("error reading gateway stream: %w", err)
		}
		if event.Data == "" {
			continue
		}

		switch event.Event {
		case eventResult:
			if len(progress) > 0 {
				return strings.Join(progress, "\n") + "\n" + event.Data, nil
			}
			return event.Data, nil
		case eventError:
			return "", fmt.Errorf("development gateway reported an error: %s", event.Data)
		case eventMessage, "":
			progress = append(progress, event.Data)
		}
	}
}

// readEvent reads one SSE event delimited by a blank line. Comment lines
// (leading ':') are skipped; multi-line data fields are joined with '\n'.
func readEvent(reader *bufio.Reader) (Event, error) {
	var event Event
	var data []string

	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			if err == io.EOF && (len(data) > 0 || event.Event != "") {
				// Stream cut mid-event: the dispatching blank line never
				// arrived, so this must not surface as a complete event.
				return Event{}, io.ErrUnexpectedEOF
			}
			return Event{}, err
		}

		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			if len(data) == 0 && event.Event == "" && event.ID == "" {
				continue
			}
			event.Data = strings.Join(data, "\n")
			return event, nil
		}
		if strings.HasPrefix(line, ":") {
			continue
		}

		switch {
		case strings.HasPrefix(line, "data:"):
			data = append(data, strings.TrimSpace(strings.TrimPrefix(line, "data:")))
		case strings.HasPrefix(line, "event:"):
			event.Event = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "id:"):
			event.ID = strings.TrimSpace(strings.TrimPrefix(line, "id:"))
		}
	}
}

// Timeout returns the stream timeout, for callers that need to size their
// own deadlines around a delegation.
func (c *Client) Timeout() time.Duration {
	return c.httpClient.Timeout
}
