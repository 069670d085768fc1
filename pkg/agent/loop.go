// Package agent implements the tool-calling conversation loop that turns
// Slack requests into Jira artifacts.
package agent

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/franizus/slack-jira-agent/pkg/config"
	"github.com/franizus/slack-jira-agent/pkg/conversation"
	"github.com/franizus/slack-jira-agent/pkg/llm"
	"github.com/franizus/slack-jira-agent/pkg/logx"
	"github.com/franizus/slack-jira-agent/pkg/tools"
)

// State identifies where a run is in its lifecycle.
type State string

const (
	// StateAwaitingModel means the run is waiting on a model completion.
	StateAwaitingModel State = "AWAITING_MODEL"
	// StateDispatchingTools means the run is executing requested tools.
	StateDispatchingTools State = "DISPATCHING_TOOLS"
	// StateDone means the run produced a final answer.
	StateDone State = "DONE"
)

// ErrRoundLimit is returned when a run exhausts its model rounds without
// the model producing a final answer.
var ErrRoundLimit = errors.New("maximum model rounds exceeded")

// Runner drives one conversation turn through the model and tool set.
type Runner struct {
	client   llm.Client
	registry *tools.Registry
	metrics  *Metrics
	trimmer  *HistoryTrimmer
	logger   *logx.Logger

	maxRounds      int
	maxTokens      int
	temperature    float32
	requestTimeout time.Duration
}

// NewRunner builds a runner from configuration.
func NewRunner(client llm.Client, registry *tools.Registry, cfg *config.ModelConfig, metrics *Metrics) *Runner {
	return &Runner{
		client:         client,
		registry:       registry,
		metrics:        metrics,
		trimmer:        NewHistoryTrimmer(cfg.ContextTokenBudget),
		logger:         logx.NewLogger("agent"),
		maxRounds:      cfg.MaxRounds,
		maxTokens:      cfg.MaxTokens,
		temperature:    cfg.Temperature,
		requestTimeout: cfg.RequestTimeout,
	}
}

// RunResult is the outcome of one conversation turn.
type RunResult struct {
	// Reply is the model's final answer.
	Reply string
	// NewMessages holds every message this turn appended, starting with
	// the user's input, ready for persistence.
	NewMessages []conversation.Message
	// Rounds is how many model completions the turn used.
	Rounds int
	// State is the terminal state of the run.
	State State
}

// Run appends the user input to the history and iterates the model/tool
// loop until the model answers without tool calls or the round cap hits.
// Every tool call the model makes gets a matching tool result, errors
// included, before the next completion. On error the partial transcript
// comes back in RunResult so callers can persist what happened.
func (r *Runner) Run(ctx context.Context, userName string, history []conversation.Message, input string) (*RunResult, error) {
	result := &RunResult{State: StateAwaitingModel}

	human := conversation.NewHumanMessage(input)
	result.NewMessages = append(result.NewMessages, human)

	transcript := make([]conversation.Message, 0, len(history)+1)
	transcript = append(transcript, history...)
	transcript = append(transcript, human)

	systemPrompt := SystemPrompt(userName)
	toolDefs := r.registry.Definitions()

	for round := 0; round < r.maxRounds; round++ {
		result.State = StateAwaitingModel
		result.Rounds = round + 1

		messages := buildCompletionMessages(systemPrompt, r.trimmer.Trim(transcript))
		req := llm.CompletionRequest{
			Messages:    messages,
			Tools:       toolDefs,
			MaxTokens:   r.maxTokens,
			Temperature: r.temperature,
		}

		r.logger.Info("model call to '%s': %d messages, %d tools (round %d/%d)",
			r.client.GetModelName(), len(messages), len(toolDefs), round+1, r.maxRounds)

		start := time.Now()
		resp, err := r.complete(ctx, req)
		r.metrics.RecordModelCall(time.Since(start))
		if err != nil {
			r.metrics.RecordRun("model_error", result.Rounds)
			return result, fmt.Errorf("model completion failed: %w", err)
		}

		assistant := conversation.NewAssistantMessage(resp.Content)
		for i := range resp.ToolCalls {
			tc := &resp.ToolCalls[i]
			assistant.ToolCalls = append(assistant.ToolCalls, conversation.ToolCall{
				ID:   tc.ID,
				Name: tc.Name,
				Args: tc.Parameters,
			})
		}
		result.NewMessages = append(result.NewMessages, assistant)
		transcript = append(transcript, assistant)

		if len(resp.ToolCalls) == 0 {
			result.State = StateDone
			result.Reply = resp.Content
			r.metrics.RecordRun("ok", result.Rounds)
			return result, nil
		}

		result.State = StateDispatchingTools
		toolMessages := r.dispatchTools(ctx, resp.ToolCalls)
		result.NewMessages = append(result.NewMessages, toolMessages...)
		transcript = append(transcript, toolMessages...)
	}

	r.metrics.RecordRun("round_limit", result.Rounds)
	return result, fmt.Errorf("%w (%d rounds)", ErrRoundLimit, r.maxRounds)
}

// complete runs one model completion under the per-request timeout.
func (r *Runner) complete(ctx context.Context, req llm.CompletionRequest) (llm.CompletionResponse, error) {
	if r.requestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.requestTimeout)
		defer cancel()
	}
	return r.client.Complete(ctx, req)
}

// dispatchTools executes all requested tools concurrently and returns
// their results as tool messages in the model's call order.
func (r *Runner) dispatchTools(ctx context.Context, calls []llm.ToolCall) []conversation.Message {
	r.logger.Info("dispatching %d tool calls", len(calls))

	results := make([]conversation.Message, len(calls))
	var wg sync.WaitGroup
	for i := range calls {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			call := &calls[idx]

			start := time.Now()
			res, err := r.registry.Execute(ctx, call.Name, call.Parameters)
			duration := time.Since(start)

			content := ""
			isError := false
			switch {
			case err != nil:
				content = err.Error()
				isError = true
			case res != nil:
				content = res.Content
				isError = res.IsError
			}
			if isError {
				r.logger.Warn("tool %s failed after %.3fs: %s", call.Name, duration.Seconds(), content)
			} else {
				r.logger.Info("tool %s completed in %.3fs", call.Name, duration.Seconds())
			}
			r.metrics.RecordToolExecution(call.Name, duration, isError)

			results[idx] = conversation.NewToolMessage(call.ID, call.Name, content, isError)
		}(i)
	}
	wg.Wait()

	return results
}
