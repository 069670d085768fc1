package tools

import (
	"context"
	"fmt"
	"sort"
)

// Registry holds the fixed tool set for one agent. The set is closed at
// construction time; nothing registers tools afterwards.
type Registry struct {
	tools map[string]Tool
}

// NewRegistry builds a registry from the given tools. Duplicate names keep
// the last tool registered.
func NewRegistry(ts ...Tool) *Registry {
	r := &Registry{tools: make(map[string]Tool, len(ts))}
	for _, t := range ts {
		r.tools[t.Name()] = t
	}
	return r
}

// Get returns the tool registered under name.
func (r *Registry) Get(name string) (Tool, error) {
	t, ok := r.tools[name]
	if !ok {
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
	return t, nil
}

// Definitions returns the definitions of all registered tools in stable
// name order, for binding to model requests.
func (r *Registry) Definitions() []ToolDefinition {
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	defs := make([]ToolDefinition, 0, len(names))
	for _, name := range names {
		defs = append(defs, r.tools[name].Definition())
	}
	return defs
}

// Execute validates args against the tool's schema and runs it. Validation
// failures and execution errors come back as error results so the model can
// read and correct them; only a missing tool is a hard error.
func (r *Registry) Execute(ctx context.Context, name string, args map[string]any) (*ExecResult, error) {
	t, err := r.Get(name)
	if err != nil {
		return errorResult(err.Error()), nil
	}
	if err := ValidateArgs(t.Definition().InputSchema, args); err != nil {
		return errorResult(fmt.Sprintf("invalid arguments for %s: %v", name, err)), nil
	}
	res, err := t.Exec(ctx, args)
	if err != nil {
		return errorResult(fmt.Sprintf("%s failed: %v", name, err)), nil
	}
	return res, nil
}
