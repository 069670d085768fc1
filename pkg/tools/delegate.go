package tools

import (
	"context"
)

// Delegator is the subset of the development gateway client the tool needs.
type Delegator interface {
	Delegate(ctx context.Context, query, relatedIssueKey string) (string, error)
}

// DelegateTool forwards development tasks to the remote coding agent.
type DelegateTool struct {
	gateway Delegator
}

// NewDelegateTool builds the send_task_to_developement tool backed by the
// given gateway client.
func NewDelegateTool(gateway Delegator) *DelegateTool {
	return &DelegateTool{gateway: gateway}
}

// Name implements Tool. The spelling matches what the system prompt
// announces to the model.
func (t *DelegateTool) Name() string {
	return "send_task_to_developement"
}

// Definition implements Tool.
func (t *DelegateTool) Definition() ToolDefinition {
	return ToolDefinition{
		Name:        t.Name(),
		Description: "Envía una tarea de desarrollo de código al agente de desarrollo. Úsala solo cuando el usuario lo haya confirmado.",
		InputSchema: InputSchema{
			Type: "object",
			Properties: map[string]Property{
				"query": {
					Type:        "string",
					Description: "El markdown completo de la historia, épica o subtarea, o la solicitud de desarrollo.",
				},
				"relatedIssueKey": {
					Type:        "string",
					Description: "Clave del issue de Jira relacionado, si existe.",
				},
			},
			Required: []string{"query"},
		},
	}
}

// Exec implements Tool.
func (t *DelegateTool) Exec(ctx context.Context, args map[string]any) (*ExecResult, error) {
	result, err := t.gateway.Delegate(ctx, stringArg(args, "query"), stringArg(args, "relatedIssueKey"))
	if err != nil {
		return nil, err
	}
	return &ExecResult{Content: result}, nil
}
