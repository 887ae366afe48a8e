package node

import (
	"fmt"
	"sort"
	"strings"
)

// DisplayOptions gates a property on the values of other parameters.
//
// Every Show key must currently hold one of its listed values, and no Hide key
// may hold one of its listed values. A missing parameter never satisfies Show.
type DisplayOptions struct {
	Show map[string][]any `json:"show,omitempty" yaml:"show,omitempty"`
	Hide map[string][]any `json:"hide,omitempty" yaml:"hide,omitempty"`
}

// Matches reports whether a property with these options is visible.
// A nil receiver is always visible.
func (o *DisplayOptions) Matches(params map[string]any) bool {
	if o == nil {
		return true
	}

	for name, allowed := range o.Show {
		value, ok := params[name]
		if !ok || !containsValue(allowed, value) {
			return false
		}
	}

	for name, hidden := range o.Hide {
		value, ok := params[name]
		if ok && containsValue(hidden, value) {
			return false
		}
	}

	return true
}

// key renders the options deterministically, for duplicate detection.
func (o *DisplayOptions) key() string {
	if o == nil {
		return ""
	}
	return "show:" + renderRules(o.Show) + ";hide:" + renderRules(o.Hide)
}

func renderRules(rules map[string][]any) string {
	names := make([]string, 0, len(rules))
	for name := range rules {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		values := make([]string, 0, len(rules[name]))
		for _, v := range rules[name] {
			values = append(values, normalize(v))
		}
		sort.Strings(values)
		parts = append(parts, name+"="+strings.Join(values, ","))
	}
	return strings.Join(parts, "&")
}

func containsValue(list []any, value any) bool {
	want := normalize(value)
	for _, v := range list {
		if normalize(v) == want {
			return true
		}
	}
	return false
}

func normalize(v any) string {
	if v == nil {
		return ""
	}
	return fmt.Sprint(v)
}
