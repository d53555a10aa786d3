package tools

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
)

// ValidateArgs checks args against schema and reports every offending field.
// Extra fields are allowed.
func ValidateArgs(toolName string, schema *JSONSchema, args map[string]any) error {
	if schema == nil {
		return nil
	}

	var fields []FieldError
	for _, name := range schema.Required {
		if v, ok := args[name]; !ok || v == nil {
			fields = append(fields, FieldError{Field: name, Reason: "missing"})
		}
	}

	for name, value := range args {
		prop, ok := schema.Properties[name]
		if !ok || prop == nil || value == nil {
			continue
		}
		if reason := checkValue(value, prop); reason != "" {
			fields = append(fields, FieldError{Field: name, Reason: reason})
		}
	}

	if len(fields) == 0 {
		return nil
	}
	sort.Slice(fields, func(i, j int) bool { return fields[i].Field < fields[j].Field })
	return &SchemaValidationError{Tool: toolName, Fields: fields}
}

func checkValue(value any, prop *JSONSchema) string {
	if prop.Type != "" && !matchesType(value, prop.Type) {
		return "expected " + prop.Type
	}

	if len(prop.Enum) > 0 {
		s, _ := value.(string)
		found := false
		for _, e := range prop.Enum {
			if e == s {
				found = true
				break
			}
		}
		if !found {
			return fmt.Sprintf("must be one of %v", prop.Enum)
		}
	}

	if prop.Minimum != nil || prop.Maximum != nil {
		n, ok := toFloat(value)
		if ok && prop.Minimum != nil && n < *prop.Minimum {
			return fmt.Sprintf("must be >= %g", *prop.Minimum)
		}
		if ok && prop.Maximum != nil && n > *prop.Maximum {
			return fmt.Sprintf("must be <= %g", *prop.Maximum)
		}
	}

	if prop.Type == "array" && prop.Items != nil {
		for i, item := range value.([]any) {
			if reason := checkValue(item, prop.Items); reason != "" {
				return fmt.Sprintf("item %d: %s", i, reason)
			}
		}
	}
	return ""
}

func matchesType(value any, expected string) bool {
	switch expected {
	case "string":
		_, ok := value.(string)
		return ok
	case "number":
		_, ok := toFloat(value)
		return ok
	case "integer":
		n, ok := toFloat(value)
		return ok && n == math.Trunc(n)
	case "boolean":
		_, ok := value.(bool)
		return ok
	case "object":
		_, ok := value.(map[string]any)
		return ok
	case "array":
		_, ok := value.([]any)
		return ok
	}
	return true
}

func toFloat(value any) (float64, bool) {
	switch n := value.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}
