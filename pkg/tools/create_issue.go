package tools

import (
	"context"
	"fmt"

	"github.com/franizus/slack-jira-agent/pkg/jira"
)

// IssueCreator is the subset of the Jira client the tool needs.
type IssueCreator interface {
	CreateIssue(ctx context.Context, in *jira.IssueRequest) (*jira.Issue, error)
}

// CreateIssueTool creates Jira issues on behalf of the model.
type CreateIssueTool struct {
	jira IssueCreator
}

// NewCreateIssueTool builds the create_issue tool backed by the given client.
func NewCreateIssueTool(client IssueCreator) *CreateIssueTool {
	return &CreateIssueTool{jira: client}
}

// Name implements Tool.
func (t *CreateIssueTool) Name() string {
	return "create_jira_issue"
}

// Definition implements Tool.
func (t *CreateIssueTool) Definition() ToolDefinition {
	return ToolDefinition{
		Name:        t.Name(),
		Description: "Crea un nuevo issue en Jira con los detalles proporcionados.",
		InputSchema: InputSchema{
			Type: "object",
			Properties: map[string]Property{
				"projectKey": {
					Type:        "string",
					Description: "La clave del proyecto en Jira (ej. 'PROJ').",
				},
				"summary": {
					Type:        "string",
					Description: "Un resumen conciso del issue.",
				},
				"description": {
					Type:        "string",
					Description: "Una descripción detallada del issue en formato Markdown.",
				},
				"issueType": {
					Type:        "string",
					Description: "El tipo de issue (ej. 'Task', 'Bug', 'Story'). Por defecto es 'Task'.",
				},
				"assigneeEmailAddress": {
					Type:        "string",
					Description: "El email del usuario asignado al issue.",
				},
				"uatDeployDate": {
					Type:        "string",
					Description: "Fecha de despliegue a UAT (YYYY-MM-DD).",
				},
				"prodDeployDate": {
					Type:        "string",
					Description: "Fecha de despliegue a producción (YYYY-MM-DD).",
				},
				"priority": {
					Type:        "string",
					Description: "Prioridad del issue. Por defecto es 'Medium'.",
					Enum:        []string{"Highest", "High", "Medium", "Low", "Lowest"},
				},
				"methodology": {
					Type:        "array",
					Description: "Metodologías asociadas al issue.",
					Items:       &Property{Type: "string"},
				},
				"parentIssueKey": {
					Type:        "string",
					Description: "Clave del issue padre para subtareas o historias de una épica.",
				},
			},
			Required: []string{"projectKey", "summary", "description", "assigneeEmailAddress"},
		},
	}
}

// Exec implements Tool.
func (t *CreateIssueTool) Exec(ctx context.Context, args map[string]any) (*ExecResult, error) {
	req := &jira.IssueRequest{
		ProjectKey:     stringArg(args, "projectKey"),
		Summary:        stringArg(args, "summary"),
		Description:    stringArg(args, "description"),
		IssueType:      stringArg(args, "issueType"),
		AssigneeEmail:  stringArg(args, "assigneeEmailAddress"),
		UATDeployDate:  stringArg(args, "uatDeployDate"),
		ProdDeployDate: stringArg(args, "prodDeployDate"),
		Priority:       stringArg(args, "priority"),
		Methodology:    stringSliceArg(args, "methodology"),
		ParentIssueKey: stringArg(args, "parentIssueKey"),
	}

	issue, err := t.jira.CreateIssue(ctx, req)
	if err != nil {
		return nil, err
	}

	return &ExecResult{
		Content: fmt.Sprintf("Issue %s creado exitosamente. URL: %s", issue.Key, issue.URL),
	}, nil
}

func stringArg(args map[string]any, key string) string {
	s, _ := args[key].(string)
	return s
}

func stringSliceArg(args map[string]any, key string) []string {
	raw, ok := args[key].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
