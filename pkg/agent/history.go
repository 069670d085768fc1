package agent

import (
	"github.com/tiktoken-go/tokenizer"

	"github.com/franizus/slack-jira-agent/pkg/conversation"
)

// perMessageOverhead approximates the framing tokens each message adds on
// top of its content.
const perMessageOverhead = 4

// HistoryTrimmer drops the oldest conversation turns when a thread's token
// count exceeds the configured budget, so long-lived threads keep fitting
// in the model's context window.
type HistoryTrimmer struct {
	codec  tokenizer.Codec
	budget int
}

// NewHistoryTrimmer creates a trimmer with the given token budget. A zero
// or negative budget disables trimming.
func NewHistoryTrimmer(budget int) *HistoryTrimmer {
	codec, err := tokenizer.ForModel(tokenizer.GPT4)
	if err != nil {
		codec = nil
	}
	return &HistoryTrimmer{codec: codec, budget: budget}
}

// Trim removes messages from the front of history until it fits the
// budget. The first message is always kept so the thread's original
// request survives. Tool messages orphaned by a removal are removed with
// their assistant turn, since a tool result without its call is invalid
// for every provider.
func (t *HistoryTrimmer) Trim(history []conversation.Message) []conversation.Message {
	if t.budget <= 0 || len(history) <= 2 {
		return history
	}
	if t.countAll(history) <= t.budget {
		return history
	}

	kept := make([]conversation.Message, len(history))
	copy(kept, history)

	for len(kept) > 2 && t.countAll(kept) > t.budget {
		kept = append(kept[:1], kept[2:]...)
		for len(kept) > 2 && kept[1].Role == conversation.RoleTool {
			kept = append(kept[:1], kept[2:]...)
		}
	}

	// Never present an assistant turn directly after the kept opening
	// message if its tool calls lost their results.
	for len(kept) > 2 && kept[1].Role == conversation.RoleAssistant && len(kept[1].ToolCalls) > 0 && kept[2].Role != conversation.RoleTool {
		kept = append(kept[:1], kept[2:]...)
	}

	return kept
}

func (t *HistoryTrimmer) countAll(messages []conversation.Message) int {
	total := 0
	for i := range messages {
		total += t.count(messages[i].Content) + perMessageOverhead
	}
	return total
}

// count returns the token count of text, approximating with len/4 when the
// tokenizer is unavailable.
func (t *HistoryTrimmer) count(text string) int {
	if t.codec != nil {
		if n, err := t.codec.Count(text); err == nil {
			return n
		}
	}
	return len(text) / 4
}
