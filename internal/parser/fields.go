package parser

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/DreamCats/opencommands/internal/command"
)

// normalizeList accepts a YAML sequence of strings or a comma-separated string.
func normalizeList(v any) []string {
	switch val := v.(type) {
	case []any:
		var out []string
		for _, item := range val {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case string:
		var out []string
		for _, part := range strings.Split(val, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
		return out
	default:
		return nil
	}
}

// normalizeArgs accepts bare names or structured argument mappings.
// Unrecognized shapes are dropped; structured args without a name are reported.
func normalizeArgs(v any) ([]command.Argument, []string) {
	items, ok := v.([]any)
	if !ok {
		return nil, nil
	}

	var args []command.Argument
	var problems []string
	for i, item := range items {
		switch val := item.(type) {
		case string:
			if strings.TrimSpace(val) == "" {
				problems = append(problems, fmt.Sprintf("argument %d: name is required", i+1))
				continue
			}
			args = append(args, command.Argument{Name: strings.TrimSpace(val)})
		case map[string]any:
			arg := command.Argument{
				Name:        stringValue(val["name"]),
				Required:    boolValue(val["required"]),
				Description: stringValue(val["description"]),
				Default:     stringValue(val["default"]),
			}
			if arg.Name == "" {
				problems = append(problems, fmt.Sprintf("argument %d: name is required", i+1))
				continue
			}
			args = append(args, arg)
		}
	}
	return args, problems
}

func stringValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(val)
	case float64:
		return strconv.FormatFloat(val, 'g', -1, 64)
	default:
		return fmt.Sprint(val)
	}
}

func boolValue(v any) bool {
	switch val := v.(type) {
	case bool:
		return val
	case string:
		b, _ := strconv.ParseBool(strings.TrimSpace(val))
		return b
	default:
		return false
	}
}
