package agent

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/franizus/slack-jira-agent/pkg/config"
	"github.com/franizus/slack-jira-agent/pkg/conversation"
	"github.com/franizus/slack-jira-agent/pkg/llm"
	"github.com/franizus/slack-jira-agent/pkg/tools"
)

// scriptedClient returns canned responses in order and records requests.
type scriptedClient struct {
	mu        sync.Mutex
	responses []llm.CompletionResponse
	err       error
	requests  []llm.CompletionRequest
}

func (s *scriptedClient) Complete(_ context.Context, req llm.CompletionRequest) (llm.CompletionResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, req)
	if s.err != nil {
		return llm.CompletionResponse{}, s.err
	}
	if len(s.responses) == 0 {
		return llm.CompletionResponse{Content: "sin guion"}, nil
	}
	resp := s.responses[0]
	s.responses = s.responses[1:]
	return resp, nil
}

func (s *scriptedClient) GetModelName() string { return "test-model" }

// recordingTool answers with a fixed result after an optional delay.
type recordingTool struct {
	name  string
	reply string
	delay time.Duration

	mu    sync.Mutex
	calls []map[string]any
}

func (r *recordingTool) Name() string { return r.name }

func (r *recordingTool) Definition() tools.ToolDefinition {
	return tools.ToolDefinition{
		Name: r.name,
		InputSchema: tools.InputSchema{
			Type:       "object",
			Properties: map[string]tools.Property{"query": {Type: "string"}},
		},
	}
}

func (r *recordingTool) Exec(_ context.Context, args map[string]any) (*tools.ExecResult, error) {
	if r.delay > 0 {
		time.Sleep(r.delay)
	}
	r.mu.Lock()
	r.calls = append(r.calls, args)
	r.mu.Unlock()
	return &tools.ExecResult{Content: r.reply}, nil
}

func newTestRunner(client llm.Client, maxRounds int, ts ...tools.Tool) *Runner {
	return NewRunner(client, tools.NewRegistry(ts...), &config.ModelConfig{
		Name:           "test-model",
		MaxRounds:      maxRounds,
		MaxTokens:      1024,
		Temperature:    0.1,
		RequestTimeout: time.Second,
	}, nil)
}

func TestRunDirectAnswer(t *testing.T) {
	client := &scriptedClient{responses: []llm.CompletionResponse{
		{Content: "¿Para qué proyecto es la épica?"},
	}}
	runner := newTestRunner(client, 4)

	result, err := runner.Run(context.Background(), "Ana", nil, "Crea una épica")
	require.NoError(t, err)

	assert.Equal(t, StateDone, result.State)
	assert.Equal(t, 1, result.Rounds)
	assert.Equal(t, "¿Para qué proyecto es la épica?", result.Reply)

	require.Len(t, result.NewMessages, 2)
	assert.Equal(t, conversation.RoleHuman, result.NewMessages[0].Role)
	assert.Equal(t, conversation.RoleAssistant, result.NewMessages[1].Role)
}

func TestRunSystemPromptCarriesUserName(t *testing.T) {
	client := &scriptedClient{responses: []llm.CompletionResponse{{Content: "hola"}}}
	runner := newTestRunner(client, 2)

	_, err := runner.Run(context.Background(), "Francisco", nil, "hola")
	require.NoError(t, err)

	require.NotEmpty(t, client.requests)
	first := client.requests[0].Messages[0]
	assert.Equal(t, llm.RoleSystem, first.Role)
	assert.Contains(t, first.Content, "Francisco")
}

func TestRunToolRoundThenAnswer(t *testing.T) {
	tool := &recordingTool{name: "create_jira_issue", reply: "Issue PROJ-7 creado exitosamente."}
	client := &scriptedClient{responses: []llm.CompletionResponse{
		{ToolCalls: []llm.ToolCall{{
			ID:         "call_1",
			Name:       "create_jira_issue",
			Parameters: map[string]any{"query": "épica"},
		}}},
		{Content: "Creé PROJ-7."},
	}}
	runner := newTestRunner(client, 4, tool)

	result, err := runner.Run(context.Background(), "", nil, "crea el issue")
	require.NoError(t, err)

	assert.Equal(t, StateDone, result.State)
	assert.Equal(t, 2, result.Rounds)
	assert.Equal(t, "Creé PROJ-7.", result.Reply)
	require.Len(t, tool.calls, 1)

	// human, assistant(tool call), tool result, assistant(final)
	require.Len(t, result.NewMessages, 4)
	toolMsg := result.NewMessages[2]
	assert.Equal(t, conversation.RoleTool, toolMsg.Role)
	assert.Equal(t, "call_1", toolMsg.ToolCallID)
	assert.Equal(t, "Issue PROJ-7 creado exitosamente.", toolMsg.Content)

	// The second completion must carry the tool result back to the model.
	secondReq := client.requests[1]
	last := secondReq.Messages[len(secondReq.Messages)-1]
	require.Len(t, last.ToolResults, 1)
	assert.Equal(t, "call_1", last.ToolResults[0].ToolCallID)
}

func TestRunResultsKeepCallOrderDespiteSlowFirstTool(t *testing.T) {
	slow := &recordingTool{name: "create_jira_issue", reply: "lento", delay: 50 * time.Millisecond}
	fast := &recordingTool{name: "send_task_to_developement", reply: "rápido"}
	client := &scriptedClient{responses: []llm.CompletionResponse{
		{ToolCalls: []llm.ToolCall{
			{ID: "call_slow", Name: "create_jira_issue", Parameters: map[string]any{}},
			{ID: "call_fast", Name: "send_task_to_developement", Parameters: map[string]any{}},
		}},
		{Content: "listo"},
	}}
	runner := newTestRunner(client, 4, slow, fast)

	result, err := runner.Run(context.Background(), "", nil, "haz ambas")
	require.NoError(t, err)

	// human, assistant, tool x2, assistant
	require.Len(t, result.NewMessages, 5)
	assert.Equal(t, "call_slow", result.NewMessages[2].ToolCallID)
	assert.Equal(t, "lento", result.NewMessages[2].Content)
	assert.Equal(t, "call_fast", result.NewMessages[3].ToolCallID)
	assert.Equal(t, "rápido", result.NewMessages[3].Content)
}

func TestRunEveryCallGetsAResult(t *testing.T) {
	tool := &recordingTool{name: "create_jira_issue", reply: "ok"}
	client := &scriptedClient{responses: []llm.CompletionResponse{
		{ToolCalls: []llm.ToolCall{
			{ID: "call_1", Name: "create_jira_issue", Parameters: map[string]any{}},
			{ID: "call_2", Name: "no_such_tool", Parameters: map[string]any{}},
		}},
		{Content: "fin"},
	}}
	runner := newTestRunner(client, 4, tool)

	result, err := runner.Run(context.Background(), "", nil, "dos llamadas")
	require.NoError(t, err)

	var toolMsgs []conversation.Message
	for _, m := range result.NewMessages {
		if m.Role == conversation.RoleTool {
			toolMsgs = append(toolMsgs, m)
		}
	}
	require.Len(t, toolMsgs, 2, "unknown tools still get an error result")
	assert.False(t, toolMsgs[0].IsError)
	assert.True(t, toolMsgs[1].IsError)
	assert.Contains(t, toolMsgs[1].Content, "unknown tool")
}

func TestRunRoundLimit(t *testing.T) {
	tool := &recordingTool{name: "create_jira_issue", reply: "ok"}
	loop := llm.CompletionResponse{ToolCalls: []llm.ToolCall{
		{ID: "call", Name: "create_jira_issue", Parameters: map[string]any{}},
	}}
	client := &scriptedClient{responses: []llm.CompletionResponse{loop, loop, loop, loop}}
	runner := newTestRunner(client, 3, tool)

	result, err := runner.Run(context.Background(), "", nil, "nunca termines")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRoundLimit)
	assert.Equal(t, 3, result.Rounds)
	assert.NotEmpty(t, result.NewMessages, "partial transcript survives for persistence")
}

func TestRunModelErrorPropagates(t *testing.T) {
	client := &scriptedClient{err: errors.New("rate limited")}
	runner := newTestRunner(client, 3)

	result, err := runner.Run(context.Background(), "", nil, "hola")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limited")
	require.Len(t, result.NewMessages, 1, "only the human message was appended")
}

func TestRunHistoryIsSentToModel(t *testing.T) {
	client := &scriptedClient{responses: []llm.CompletionResponse{{Content: "sigo aquí"}}}
	runner := newTestRunner(client, 2)

	history := []conversation.Message{
		conversation.NewHumanMessage("mensaje previo"),
		conversation.NewAssistantMessage("respuesta previa"),
	}
	_, err := runner.Run(context.Background(), "", history, "nuevo mensaje")
	require.NoError(t, err)

	msgs := client.requests[0].Messages
	// system + 2 history + new human
	require.Len(t, msgs, 4)
	assert.Equal(t, "mensaje previo", msgs[1].Content)
	assert.Equal(t, "respuesta previa", msgs[2].Content)
	assert.Equal(t, "nuevo mensaje", msgs[3].Content)
}
