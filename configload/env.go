package configload

import (
	"strconv"
	"strings"
)

// envLayer derives a configuration layer from environment variables. Only
// variables whose name starts with prefix are considered; the prefix is
// stripped, the remainder lower-cased and split on "_" to form a nested key
// path, and the string value coerced.
func envLayer(environ []string, prefix string) map[string]any {
	out := map[string]any{}
	if prefix == "" {
		return out
	}
	for _, kv := range environ {
		name, value, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(name, prefix) {
			continue
		}
		rest := strings.ToLower(strings.TrimPrefix(name, prefix))
		if rest == "" {
			continue
		}
		setPath(out, strings.Split(rest, "_"), coerce(value))
	}
	return out
}

// setPath writes v at the nested key path, creating intermediate maps. A
// non-map intermediate value is replaced; environment wins over shape.
func setPath(m map[string]any, path []string, v any) {
	for _, seg := range path[:len(path)-1] {
		child, ok := m[seg].(map[string]any)
		if !ok {
			child = map[string]any{}
			m[seg] = child
		}
		m = child
	}
	m[path[len(path)-1]] = v
}

// coerce applies the ordered coercion rules: boolean literals first, then
// integers, then decimals, otherwise the string as-is.
func coerce(s string) any {
	switch strings.ToLower(s) {
	case "true":
		return true
	case "false":
		return false
	}
	if i, err := strconv.Atoi(s); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return s
}
