package normalize

import (
	"encoding/json"
	"fmt"
	"strings"
)

// str renders a scalar provider value as trimmed text. Maps, lists and nil
// yield "".
func str(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case json.Number:
		return t.String()
	case float64, float32, int, int64, int32, bool:
		return fmt.Sprint(t)
	default:
		return ""
	}
}

// firstString returns the first non-empty scalar among keys.
func firstString(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if s := str(m[k]); s != "" {
			return s
		}
	}
	return ""
}

// object returns m[key] when it is a JSON object.
func object(m map[string]any, key string) map[string]any {
	if o, ok := m[key].(map[string]any); ok {
		return o
	}
	return nil
}

// firstEntry returns the first object of the first non-empty list among keys.
// A value that is not a list is ignored.
func firstEntry(m map[string]any, keys ...string) map[string]any {
	for _, k := range keys {
		list, ok := m[k].([]any)
		if !ok || len(list) == 0 {
			continue
		}
		if entry, ok := list[0].(map[string]any); ok {
			return entry
		}
	}
	return nil
}
