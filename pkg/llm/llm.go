// Package llm provides the interface and request/response types for
// language model client implementations.
package llm

import (
	"context"

	"github.com/franizus/slack-jira-agent/pkg/tools"
)

// CompletionRole represents the role of a message in a completion request.
type CompletionRole string

const (
	// RoleSystem indicates an instruction message.
	RoleSystem CompletionRole = "system"
	// RoleUser indicates a message from the human user. Tool results also
	// ride on user-role messages; each provider client converts them to its
	// native wire shape.
	RoleUser CompletionRole = "user"
	// RoleAssistant indicates a message from the model.
	RoleAssistant CompletionRole = "assistant"
)

// ToolCall represents a tool call made by the model.
type ToolCall struct {
	Parameters map[string]any `json:"parameters"`
	ID         string         `json:"id"`
	Name       string         `json:"name"`
}

// ToolResult answers one ToolCall. Name carries the tool name because some
// providers (Gemini) match results by function name rather than call id.
type ToolResult struct {
	ToolCallID string `json:"tool_call_id"`
	Name       string `json:"name"`
	Content    string `json:"content"`
	IsError    bool   `json:"is_error"`
}

// CompletionMessage represents a message in a completion request.
type CompletionMessage struct {
	Role        CompletionRole
	Content     string
	ToolCalls   []ToolCall
	ToolResults []ToolResult
}

// CompletionRequest represents a request to generate a completion. The full
// tool schema set is bound to every invocation so the model can only request
// tools that exist.
type CompletionRequest struct {
	Messages    []CompletionMessage
	Tools       []tools.ToolDefinition
	MaxTokens   int
	Temperature float32
}

// CompletionResponse is either a final answer (non-empty Content, no
// ToolCalls) or a tool-call request (one or more ToolCalls).
type CompletionResponse struct {
	ToolCalls  []ToolCall
	Content    string
	StopReason string
}

// Client defines the interface for language model interactions.
type Client interface {
	// Complete generates a completion synchronously. The response shape is
	// bounded by the contract; its content is not deterministic.
	Complete(ctx context.Context, in CompletionRequest) (CompletionResponse, error)

	// GetModelName returns the model name for this client.
	GetModelName() string
}

// NewSystemMessage creates a new system message.
func NewSystemMessage(content string) CompletionMessage {
	return CompletionMessage{Role: RoleSystem, Content: content}
}

// NewUserMessage creates a new user message.
func NewUserMessage(content string) CompletionMessage {
	return CompletionMessage{Role: RoleUser, Content: content}
}
