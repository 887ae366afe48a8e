package blotato

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sflowg/blotato/runtime/plugin"
	"github.com/spf13/cast"
)

// params is the bound parameter set of one item. Values arrive loosely typed
// (form fields, expression results, JSON), so every accessor coerces.
type params map[string]any

func paramError(format string, args ...any) error {
	return plugin.NewTaskError(fmt.Errorf(format, args...)).WithType(plugin.ErrorTypeUser)
}

// str returns the trimmed string form of name, "" when absent.
// Resource locator values ({"mode": ..., "value": ...}) yield their value.
func (p params) str(name string) string {
	v, ok := p[name]
	if !ok || v == nil {
		return ""
	}
	if locator, ok := v.(map[string]any); ok {
		v = locator["value"]
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(s)
}

func (p params) requiredStr(name string) (string, error) {
	s := p.str(name)
	if s == "" {
		return "", paramError("parameter %q is required", name)
	}
	return s, nil
}

// oneOf returns the value of name when it is one of allowed. An empty value
// returns "" unless required.
func (p params) oneOf(name string, required bool, allowed ...string) (string, error) {
	s := p.str(name)
	if s == "" {
		if required {
			return "", paramError("parameter %q is required (one of %s)", name, strings.Join(allowed, ", "))
		}
		return "", nil
	}
	for _, a := range allowed {
		if s == a {
			return s, nil
		}
	}
	return "", paramError("parameter %q must be one of %s, got %q", name, strings.Join(allowed, ", "), s)
}

// boolean returns the value of name and whether it was set.
func (p params) boolean(name string) (bool, bool, error) {
	v, ok := p[name]
	if !ok || v == nil || v == "" {
		return false, false, nil
	}
	b, err := cast.ToBoolE(v)
	if err != nil {
		return false, false, paramError("parameter %q must be a boolean, got %v", name, v)
	}
	return b, true, nil
}

// boolOr returns the value of name, or def when unset.
func (p params) boolOr(name string, def bool) (bool, error) {
	b, set, err := p.boolean(name)
	if err != nil || !set {
		return def, err
	}
	return b, nil
}

// integer returns the value of name and whether it was set.
func (p params) integer(name string) (int, bool, error) {
	v, ok := p[name]
	if !ok || v == nil || v == "" {
		return 0, false, nil
	}
	i, err := cast.ToIntE(v)
	if err != nil {
		return 0, false, paramError("parameter %q must be an integer, got %v", name, v)
	}
	return i, true, nil
}

// stringList accepts a list or a comma/newline separated string and drops blanks.
func (p params) stringList(name string) []string {
	var raw []string
	switch v := p[name].(type) {
	case nil:
		return []string{}
	case string:
		raw = strings.FieldsFunc(v, func(r rune) bool { return r == ',' || r == '\n' || r == '\r' })
	default:
		raw = cast.ToStringSlice(v)
	}

	out := make([]string, 0, len(raw))
	for _, s := range raw {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// object returns name as a JSON object. A JSON string is decoded.
func (p params) object(name string) (map[string]any, error) {
	switch v := p[name].(type) {
	case nil:
		return nil, nil
	case map[string]any:
		return v, nil
	case string:
		if strings.TrimSpace(v) == "" {
			return nil, nil
		}
		var obj map[string]any
		if err := json.Unmarshal([]byte(v), &obj); err != nil {
			return nil, paramError("parameter %q must be a JSON object: %v", name, err)
		}
		return obj, nil
	default:
		return nil, paramError("parameter %q must be a JSON object, got %T", name, v)
	}
}

// list returns name as a list of objects. A JSON string is decoded; a
// fixedCollection shape {"<key>": [...]} is unwrapped.
func (p params) list(name string) ([]params, error) {
	value := p[name]
	if s, ok := value.(string); ok {
		if strings.TrimSpace(s) == "" {
			return nil, nil
		}
		if err := json.Unmarshal([]byte(s), &value); err != nil {
			return nil, paramError("parameter %q must be a JSON list: %v", name, err)
		}
	}
	if m, ok := value.(map[string]any); ok && len(m) == 1 {
		for _, inner := range m {
			value = inner
		}
	}

	switch v := value.(type) {
	case nil:
		return nil, nil
	case []map[string]any:
		out := make([]params, len(v))
		for i, item := range v {
			out[i] = params(item)
		}
		return out, nil
	case []any:
		out := make([]params, 0, len(v))
		for i, item := range v {
			m, ok := item.(map[string]any)
			if !ok {
				return nil, paramError("parameter %q item %d must be an object, got %T", name, i, item)
			}
			out = append(out, params(m))
		}
		return out, nil
	default:
		return nil, paramError("parameter %q must be a list, got %T", name, v)
	}
}

// setString copies a non-empty string parameter into target under key.
func (p params) setString(target map[string]any, name, key string) {
	if s := p.str(name); s != "" {
		target[key] = s
	}
}

// setBool copies a boolean parameter into target when it is set.
func (p params) setBool(target map[string]any, name string) error {
	b, set, err := p.boolean(name)
	if err != nil {
		return err
	}
	if set {
		target[name] = b
	}
	return nil
}

// setInt copies an integer parameter into target when it is set.
func (p params) setInt(target map[string]any, name string) error {
	i, set, err := p.integer(name)
	if err != nil {
		return err
	}
	if set {
		target[name] = i
	}
	return nil
}
