package agent

import (
	"github.com/franizus/slack-jira-agent/pkg/conversation"
	"github.com/franizus/slack-jira-agent/pkg/llm"
)

// buildCompletionMessages converts stored conversation history into the
// provider-neutral completion format. Tool messages become tool results
// attached to user messages; consecutive tool messages collapse into one
// carrier so every tool call round trips as a single turn.
func buildCompletionMessages(systemPrompt string, history []conversation.Message) []llm.CompletionMessage {
	out := make([]llm.CompletionMessage, 0, len(history)+1)
	if systemPrompt != "" {
		out = append(out, llm.NewSystemMessage(systemPrompt))
	}

	for i := range history {
		msg := &history[i]
		switch msg.Role {
		case conversation.RoleHuman:
			out = append(out, llm.NewUserMessage(msg.Content))

		case conversation.RoleAssistant:
			cm := llm.CompletionMessage{
				Role:    llm.RoleAssistant,
				Content: msg.Content,
			}
			for j := range msg.ToolCalls {
				tc := &msg.ToolCalls[j]
				cm.ToolCalls = append(cm.ToolCalls, llm.ToolCall{
					ID:         tc.ID,
					Name:       tc.Name,
					Parameters: tc.Args,
				})
			}
			out = append(out, cm)

		case conversation.RoleTool:
			result := llm.ToolResult{
				ToolCallID: msg.ToolCallID,
				Name:       msg.ToolName,
				Content:    msg.Content,
				IsError:    msg.IsError,
			}
			if n := len(out); n > 0 && out[n-1].Role == llm.RoleUser && len(out[n-1].ToolResults) > 0 {
				out[n-1].ToolResults = append(out[n-1].ToolResults, result)
				continue
			}
			out = append(out, llm.CompletionMessage{
				Role:        llm.RoleUser,
				ToolResults: []llm.ToolResult{result},
			})

		case conversation.RoleSystem:
			out = append(out, llm.NewSystemMessage(msg.Content))
		}
	}

	return out
}
