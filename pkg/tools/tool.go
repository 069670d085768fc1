// Package tools defines the callable capabilities exposed to the model:
// a schema-described tool contract, argument validation, and a closed
// registry over the concrete tool set.
package tools

import "context"

// Property describes a single field of a tool's input schema.
type Property struct {
	Type        string               `json:"type"`
	Description string               `json:"description,omitempty"`
	Enum        []string             `json:"enum,omitempty"`
	Items       *Property            `json:"items,omitempty"`
	Properties  map[string]*Property `json:"properties,omitempty"`
}

// InputSchema is a JSON-schema-shaped description of a tool's arguments.
type InputSchema struct {
	Type       string              `json:"type"`
	Properties map[string]Property `json:"properties"`
	Required   []string            `json:"required,omitempty"`
}

// ToolDefinition is the schema bound to every model invocation.
type ToolDefinition struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	InputSchema InputSchema `json:"input_schema"`
}

// ExecResult is the outcome of a tool execution.
type ExecResult struct {
	Content string
	IsError bool
}

// Tool is a named, schema-validated unit of work.
type Tool interface {
	// Name returns the tool identifier.
	Name() string
	// Definition returns the tool definition bound to model requests.
	Definition() ToolDefinition
	// Exec executes the tool with already-validated arguments.
	Exec(ctx context.Context, args map[string]any) (*ExecResult, error)
}

func errorResult(msg string) *ExecResult {
	return &ExecResult{Content: msg, IsError: true}
}
