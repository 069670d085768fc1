package tools

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSchema() InputSchema {
	return InputSchema{
		Type: "object",
		Properties: map[string]Property{
			"projectKey": {Type: "string"},
			"summary":    {Type: "string"},
			"priority":   {Type: "string", Enum: []string{"High", "Medium", "Low"}},
			"points":     {Type: "number"},
			"labels":     {Type: "array", Items: &Property{Type: "string"}},
			"draft":      {Type: "boolean"},
		},
		Required: []string{"projectKey", "summary"},
	}
}

func TestValidateArgsAcceptsValidInput(t *testing.T) {
	err := ValidateArgs(testSchema(), map[string]any{
		"projectKey": "PROJ",
		"summary":    "Expose comerceCode",
		"priority":   "High",
		"points":     float64(3),
		"labels":     []any{"api", "backend"},
		"draft":      false,
	})
	require.NoError(t, err)
}

func TestValidateArgsMissingRequired(t *testing.T) {
	err := ValidateArgs(testSchema(), map[string]any{"projectKey": "PROJ"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "summary")
}

func TestValidateArgsEmptyRequiredString(t *testing.T) {
	err := ValidateArgs(testSchema(), map[string]any{
		"projectKey": "PROJ",
		"summary":    "",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "summary")
}

func TestValidateArgsUnknownField(t *testing.T) {
	err := ValidateArgs(testSchema(), map[string]any{
		"projectKey": "PROJ",
		"summary":    "s",
		"bogus":      "x",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bogus")
}

func TestValidateArgsTypeMismatch(t *testing.T) {
	err := ValidateArgs(testSchema(), map[string]any{
		"projectKey": "PROJ",
		"summary":    "s",
		"points":     "three",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "points")
}

func TestValidateArgsEnumViolation(t *testing.T) {
	err := ValidateArgs(testSchema(), map[string]any{
		"projectKey": "PROJ",
		"summary":    "s",
		"priority":   "Urgent",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "priority")
}

func TestValidateArgsArrayItemType(t *testing.T) {
	err := ValidateArgs(testSchema(), map[string]any{
		"projectKey": "PROJ",
		"summary":    "s",
		"labels":     []any{"ok", 42},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "labels[1]")
}
