package frontmatter

import (
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Field is a single header entry.
type Field struct {
	Key   string
	Value any
}

// Map is an ordered flow mapping, rendered as {k: v, ...}.
type Map []Field

// Serialize renders header fields and body as a command document.
// Fields whose value is nil, an empty string or an empty list are omitted.
// With no remaining fields only the body is returned.
func Serialize(fields []Field, body string) string {
	var lines []string
	for _, f := range fields {
		if isEmpty(f.Value) {
			continue
		}
		lines = append(lines, f.Key+": "+FormatValue(f.Value))
	}

	body = strings.TrimSpace(body)
	if len(lines) == 0 {
		return body + "\n"
	}

	var sb strings.Builder
	sb.WriteString(Delimiter + "\n")
	sb.WriteString(strings.Join(lines, "\n"))
	sb.WriteString("\n" + Delimiter + "\n")
	if body != "" {
		sb.WriteString("\n")
		sb.WriteString(body)
		sb.WriteString("\n")
	}
	return sb.String()
}

// FormatValue renders a value in single-line YAML flow style.
func FormatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return "null"
	case string:
		return formatString(val)
	case bool:
		return strconv.FormatBool(val)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case uint64:
		return strconv.FormatUint(val, 10)
	case float64:
		return strconv.FormatFloat(val, 'g', -1, 64)
	case time.Time:
		if val.Hour() == 0 && val.Minute() == 0 && val.Second() == 0 && val.Nanosecond() == 0 {
			return val.Format("2006-01-02")
		}
		return val.Format(time.RFC3339)
	case []string:
		items := make([]string, len(val))
		for i, s := range val {
			items[i] = formatString(s)
		}
		return "[" + strings.Join(items, ", ") + "]"
	case []any:
		items := make([]string, len(val))
		for i, item := range val {
			items[i] = FormatValue(item)
		}
		return "[" + strings.Join(items, ", ") + "]"
	case Map:
		items := make([]string, 0, len(val))
		for _, f := range val {
			if f.Value == nil {
				continue
			}
			items = append(items, formatKey(f.Key)+": "+FormatValue(f.Value))
		}
		return "{" + strings.Join(items, ", ") + "}"
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		m := make(Map, 0, len(keys))
		for _, k := range keys {
			m = append(m, Field{Key: k, Value: val[k]})
		}
		return FormatValue(m)
	default:
		return formatString(fmt.Sprint(val))
	}
}

func formatKey(k string) string {
	if needsQuote(k) {
		return strconv.Quote(k)
	}
	return k
}

func formatString(s string) string {
	if needsQuote(s) {
		return strconv.Quote(s)
	}
	return s
}

// needsQuote reports whether s would not read back as the same plain string,
// or contains characters the header pre-processor treats specially.
func needsQuote(s string) bool {
	if s == "" || s != strings.TrimSpace(s) {
		return true
	}
	if strings.ContainsAny(s, ":\n\"[]{},#'\\\t") {
		return true
	}
	if strings.ContainsAny(s[:1], "-?&*!|>%@`") {
		return true
	}
	// YAML breaks lines on U+0085, U+2028 and U+2029 inside a plain scalar.
	for _, r := range s {
		if !strconv.IsPrint(r) {
			return true
		}
	}

	var decoded any
	if err := yaml.Unmarshal([]byte(s), &decoded); err != nil {
		return true
	}
	str, ok := decoded.(string)
	return !ok || str != s
}

func isEmpty(v any) bool {
	if v == nil {
		return true
	}
	if s, ok := v.(string); ok {
		return s == ""
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Map:
		return rv.Len() == 0
	case reflect.Pointer, reflect.Interface:
		return rv.IsNil()
	}
	return false
}
