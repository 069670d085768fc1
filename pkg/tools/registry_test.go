package tools

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTool struct {
	name    string
	execErr error
	result  *ExecResult
	gotArgs map[string]any
}

func (f *fakeTool) Name() string { return f.name }

func (f *fakeTool) Definition() ToolDefinition {
	return ToolDefinition{
		Name: f.name,
		InputSchema: InputSchema{
			Type: "object",
			Properties: map[string]Property{
				"query": {Type: "string"},
			},
			Required: []string{"query"},
		},
	}
}

func (f *fakeTool) Exec(_ context.Context, args map[string]any) (*ExecResult, error) {
	f.gotArgs = args
	if f.execErr != nil {
		return nil, f.execErr
	}
	return f.result, nil
}

func TestRegistryGet(t *testing.T) {
	reg := NewRegistry(&fakeTool{name: "alpha"}, &fakeTool{name: "beta"})

	tool, err := reg.Get("alpha")
	require.NoError(t, err)
	assert.Equal(t, "alpha", tool.Name())

	_, err = reg.Get("gamma")
	require.Error(t, err)
}

func TestRegistryDefinitionsStableOrder(t *testing.T) {
	reg := NewRegistry(&fakeTool{name: "zeta"}, &fakeTool{name: "alpha"})

	defs := reg.Definitions()
	require.Len(t, defs, 2)
	assert.Equal(t, "alpha", defs[0].Name)
	assert.Equal(t, "zeta", defs[1].Name)
}

func TestRegistryExecuteSuccess(t *testing.T) {
	ft := &fakeTool{name: "alpha", result: &ExecResult{Content: "done"}}
	reg := NewRegistry(ft)

	res, err := reg.Execute(context.Background(), "alpha", map[string]any{"query": "hi"})
	require.NoError(t, err)
	assert.False(t, res.IsError)
	assert.Equal(t, "done", res.Content)
	assert.Equal(t, "hi", ft.gotArgs["query"])
}

func TestRegistryExecuteValidatesBeforeRunning(t *testing.T) {
	ft := &fakeTool{name: "alpha", result: &ExecResult{Content: "done"}}
	reg := NewRegistry(ft)

	res, err := reg.Execute(context.Background(), "alpha", map[string]any{})
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, res.Content, "query")
	assert.Nil(t, ft.gotArgs, "tool must not run on invalid arguments")
}

func TestRegistryExecuteWrapsToolError(t *testing.T) {
	ft := &fakeTool{name: "alpha", execErr: errors.New("backend down")}
	reg := NewRegistry(ft)

	res, err := reg.Execute(context.Background(), "alpha", map[string]any{"query": "hi"})
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, res.Content, "backend down")
}

func TestRegistryExecuteUnknownTool(t *testing.T) {
	reg := NewRegistry()

	res, err := reg.Execute(context.Background(), "missing", nil)
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, res.Content, "unknown tool")
}
