// Package jira provides a client for the Jira Cloud REST API v3, including
// Markdown to Atlassian Document Format conversion for issue descriptions.
package jira

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/franizus/slack-jira-agent/pkg/config"
	"github.com/franizus/slack-jira-agent/pkg/logx"
)

// Jira Cloud custom field IDs used by the project workflows.
const (
	fieldUATDeployDate  = "customfield_11942"
	fieldProdDeployDate = "customfield_11896"
	fieldMethodology    = "customfield_12155"
)

// IssueRequest describes an issue to create. Description is Markdown and
// gets converted to ADF before sending.
type IssueRequest struct {
	ProjectKey     string
	Summary        string
	Description    string
	IssueType      string
	AssigneeEmail  string
	UATDeployDate  string
	ProdDeployDate string
	Priority       string
	Methodology    []string
	ParentIssueKey string
}

// Issue is a created Jira issue.
type Issue struct {
	Key string
	URL string
}

// Client talks to one Jira Cloud site using basic auth.
type Client struct {
	baseURL    string
	email      string
	apiToken   string
	httpClient *http.Client
	logger     *logx.Logger
}

// NewClient creates a Jira client from configuration.
func NewClient(cfg *config.JiraConfig) *Client {
	return &Client{
		baseURL:    fmt.Sprintf("https://%s.atlassian.net", cfg.Domain),
		email:      cfg.Email,
		apiToken:   cfg.APIToken,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     logx.NewLogger("jira"),
	}
}

// SearchAccountID resolves a user email to a Jira account ID. The first
// match wins. Returns an error when no user matches.
func (c *Client) SearchAccountID(ctx context.Context, email string) (string, error) {
	searchURL := fmt.Sprintf("%s/rest/api/3/user/search?query=%s", c.baseURL, url.QueryEscape(email))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build user search request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("jira user search failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("jira user search returned %d: %s", resp.StatusCode, string(body))
	}

	var users []struct {
		AccountID string `json:"accountId"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&users); err != nil {
		return "", fmt.Errorf("failed to decode user search response: %w", err)
	}

	if len(users) == 0 {
		return "", fmt.Errorf("no se encontró un usuario con el email: %s", email)
	}
	return users[0].AccountID, nil
}

// CreateIssue resolves the assignee, converts the description to ADF and
// creates the issue. Optional fields are omitted from the request when
// empty so Jira applies its own defaults.
func (c *Client) CreateIssue(ctx context.Context, in *IssueRequest) (*Issue, error) {
	issueType := in.IssueType
	if issueType == "" {
		issueType = "Task"
	}
	priority := in.Priority
	if priority == "" {
		priority = "Medium"
	}

	assigneeID, err := c.SearchAccountID(ctx, in.AssigneeEmail)
	if err != nil {
		return nil, err
	}

	fields := map[string]any{
		"project":     map[string]any{"key": in.ProjectKey},
		"summary":     in.Summary,
		"description": MarkdownToADF(in.Description),
		"issuetype":   map[string]any{"name": issueType},
		"assignee":    map[string]any{"id": assigneeID},
		"priority":    map[string]any{"name": priority},
	}
	if in.UATDeployDate != "" {
		fields[fieldUATDeployDate] = in.UATDeployDate
	}
	if in.ProdDeployDate != "" {
		fields[fieldProdDeployDate] = in.ProdDeployDate
	}
	if len(in.Methodology) > 0 {
		values := make([]map[string]any, len(in.Methodology))
		for i, m := range in.Methodology {
			values[i] = map[string]any{"value": m}
		}
		fields[fieldMethodology] = values
	}
	if in.ParentIssueKey != "" {
		fields["parent"] = map[string]any{"key": in.ParentIssueKey}
	}

	payload, err := json.Marshal(map[string]any{"fields": fields})
	if err != nil {
		return nil, fmt.Errorf("failed to encode issue request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/rest/api/3/issue", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build issue request: %w", err)
	}
	c.setHeaders(req)

	c.logger.Debug("creating issue in project %s (type=%s)", in.ProjectKey, issueType)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error al crear el issue en Jira: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read issue response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("error al crear el issue en Jira: %s", apiErrorMessage(body, resp.StatusCode))
	}

	var created struct {
		Key string `json:"key"`
	}
	if err := json.Unmarshal(body, &created); err != nil {
		return nil, fmt.Errorf("failed to decode issue response: %w", err)
	}

	c.logger.Info("created issue %s", created.Key)

	return &Issue{
		Key: created.Key,
		URL: fmt.Sprintf("%s/browse/%s", c.baseURL, created.Key),
	}, nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.SetBasicAuth(c.email, c.apiToken)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
}

// apiErrorMessage extracts Jira's errorMessages from an error response body,
// falling back to the HTTP status.
func apiErrorMessage(body []byte, statusCode int) string {
	var apiErr struct {
		ErrorMessages []string `json:"errorMessages"`
	}
	if err := json.Unmarshal(body, &apiErr); err == nil && len(apiErr.ErrorMessages) > 0 {
		return strings.Join(apiErr.ErrorMessages, ", ")
	}
	return fmt.Sprintf("HTTP %d", statusCode)
}
