// Package conversation defines the message model shared by the agent loop,
// the model clients, and the persistence layer.
package conversation

import "time"

// Role identifies who produced a message.
type Role string

const (
	// RoleSystem is reserved for instruction prompts. System prompts are
	// rebuilt on every round and never persisted, so stored histories
	// normally contain no system messages.
	RoleSystem Role = "system"
	// RoleHuman is a message typed by the user.
	RoleHuman Role = "human"
	// RoleAssistant is a model response, possibly carrying tool calls.
	RoleAssistant Role = "assistant"
	// RoleTool is the result of exactly one tool call.
	RoleTool Role = "tool"
)

// ToolCall is a structured request emitted by the model naming a tool and
// its arguments. It is answered by exactly one RoleTool message with the
// same ID.
type ToolCall struct {
	Args map[string]any `json:"args"`
	ID   string         `json:"id"`
	Name string         `json:"name"`
}

// Message is a single turn in a conversation.
//
// Invariant: a RoleTool message's ToolCallID refers to a ToolCall emitted by
// an earlier assistant message in the same conversation, and every ToolCall
// is answered before the next model invocation.
type Message struct {
	CreatedAt  time.Time  `json:"created_at"`
	Role       Role       `json:"role"`
	Content    string     `json:"content"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
	// ToolName mirrors the called tool's name on RoleTool messages. Some
	// model APIs (Gemini) match tool results by function name, not call id.
	ToolName string `json:"tool_name,omitempty"`
	// IsError marks a RoleTool message that carries a failure description
	// instead of a result.
	IsError bool `json:"is_error,omitempty"`
}

// NewHumanMessage creates a user-authored message.
func NewHumanMessage(content string) Message {
	return Message{Role: RoleHuman, Content: content, CreatedAt: time.Now().UTC()}
}

// NewAssistantMessage creates a model response message. Callers attach
// ToolCalls afterwards when the model requested tools.
func NewAssistantMessage(content string) Message {
	return Message{Role: RoleAssistant, Content: content, CreatedAt: time.Now().UTC()}
}

// NewToolMessage creates the reply to a single tool call.
func NewToolMessage(callID, toolName, content string, isError bool) Message {
	return Message{
		Role:       RoleTool,
		Content:    content,
		ToolCallID: callID,
		ToolName:   toolName,
		IsError:    isError,
		CreatedAt:  time.Now().UTC(),
	}
}
