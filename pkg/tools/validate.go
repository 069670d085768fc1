package tools

import "fmt"

// ValidateArgs checks the provided arguments against a tool's input schema
// before any side effect runs. It rejects missing required fields, unknown
// fields, and type mismatches on the top-level properties.
func ValidateArgs(schema InputSchema, args map[string]any) error {
	for _, req := range schema.Required {
		v, ok := args[req]
		if !ok || v == nil {
			return fmt.Errorf("missing required argument %q", req)
		}
		if s, isStr := v.(string); isStr && s == "" {
			return fmt.Errorf("required argument %q is empty", req)
		}
	}
	for name, v := range args {
		prop, ok := schema.Properties[name]
		if !ok {
			return fmt.Errorf("unknown argument %q", name)
		}
		if v == nil {
			continue
		}
		if err := checkType(name, prop, v); err != nil {
			return err
		}
	}
	return nil
}

func checkType(name string, prop Property, v any) error {
	switch prop.Type {
	case "string":
		s, ok := v.(string)
		if !ok {
			return fmt.Errorf("argument %q must be a string", name)
		}
		if len(prop.Enum) > 0 && !containsString(prop.Enum, s) {
			return fmt.Errorf("argument %q must be one of %v", name, prop.Enum)
		}
	case "number", "integer":
		switch v.(type) {
		case float64, float32, int, int64:
		default:
			return fmt.Errorf("argument %q must be a number", name)
		}
	case "boolean":
		if _, ok := v.(bool); !ok {
			return fmt.Errorf("argument %q must be a boolean", name)
		}
	case "array":
		items, ok := v.([]any)
		if !ok {
			return fmt.Errorf("argument %q must be an array", name)
		}
		if prop.Items != nil {
			for i, item := range items {
				if err := checkType(fmt.Sprintf("%s[%d]", name, i), *prop.Items, item); err != nil {
					return err
				}
			}
		}
	case "object":
		if _, ok := v.(map[string]any); !ok {
			return fmt.Errorf("argument %q must be an object", name)
		}
	}
	return nil
}

func containsString(values []string, s string) bool {
	for _, v := range values {
		if v == s {
			return true
		}
	}
	return false
}
