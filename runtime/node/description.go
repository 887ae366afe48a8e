// Package node holds the UI form schema a plugin declares to the host.
//
// A Description lists the credential a node needs and the properties the host
// renders as form fields. Properties are gated by DisplayOptions so that the
// resource/operation selectors decide which fields are visible. The host owns
// rendering; this package only carries the declarations and the rules the
// host and plugin both evaluate (visibility, defaults, structural checks).
package node

import (
	"fmt"
	"sort"
	"strings"
)

// PropertyType is the widget kind the host renders for a property.
type PropertyType string

const (
	TypeString          PropertyType = "string"
	TypeNumber          PropertyType = "number"
	TypeBoolean         PropertyType = "boolean"
	TypeOptions         PropertyType = "options"
	TypeMultiOptions    PropertyType = "multiOptions"
	TypeCollection      PropertyType = "collection"
	TypeFixedCollection PropertyType = "fixedCollection"
	TypeDateTime        PropertyType = "dateTime"
	TypeJSON            PropertyType = "json"
	TypeResourceLocator PropertyType = "resourceLocator"
)

// Description is the full schema of one node.
type Description struct {
	Name        string                  `json:"name" yaml:"name"`
	DisplayName string                  `json:"displayName" yaml:"displayName"`
	Version     int                     `json:"version" yaml:"version"`
	Description string                  `json:"description,omitempty" yaml:"description,omitempty"`
	Icon        string                  `json:"icon,omitempty" yaml:"icon,omitempty"`
	Credentials []CredentialDescription `json:"credentials,omitempty" yaml:"credentials,omitempty"`
	Properties  []Property              `json:"properties" yaml:"properties"`
}

// Property is a single form field.
type Property struct {
	Name           string          `json:"name" yaml:"name"`
	DisplayName    string          `json:"displayName" yaml:"displayName"`
	Type           PropertyType    `json:"type" yaml:"type"`
	Default        any             `json:"default,omitempty" yaml:"default,omitempty"`
	Required       bool            `json:"required,omitempty" yaml:"required,omitempty"`
	Description    string          `json:"description,omitempty" yaml:"description,omitempty"`
	Placeholder    string          `json:"placeholder,omitempty" yaml:"placeholder,omitempty"`
	Options        []Option        `json:"options,omitempty" yaml:"options,omitempty"`
	DisplayOptions *DisplayOptions `json:"displayOptions,omitempty" yaml:"displayOptions,omitempty"`
	TypeOptions    *RenderOptions  `json:"typeOptions,omitempty" yaml:"typeOptions,omitempty"`
	// SearchMethod names the plugin list-search method that fills the dropdown.
	SearchMethod string `json:"searchMethod,omitempty" yaml:"searchMethod,omitempty"`
}

// Option is one selectable value of an options property.
type Option struct {
	Name        string `json:"name" yaml:"name"`
	Value       any    `json:"value" yaml:"value"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Action      string `json:"action,omitempty" yaml:"action,omitempty"`
}

// RenderOptions tunes how the host renders a property.
type RenderOptions struct {
	Password       bool     `json:"password,omitempty" yaml:"password,omitempty"`
	Rows           int      `json:"rows,omitempty" yaml:"rows,omitempty"`
	MinValue       *float64 `json:"minValue,omitempty" yaml:"minValue,omitempty"`
	MaxValue       *float64 `json:"maxValue,omitempty" yaml:"maxValue,omitempty"`
	MultipleValues bool     `json:"multipleValues,omitempty" yaml:"multipleValues,omitempty"`
}

// CredentialDescription declares the credential type a node consumes.
type CredentialDescription struct {
	Name        string          `json:"name" yaml:"name"`
	DisplayName string          `json:"displayName" yaml:"displayName"`
	Required    bool            `json:"required" yaml:"required"`
	Properties  []Property      `json:"properties" yaml:"properties"`
	Test        *CredentialTest `json:"test,omitempty" yaml:"test,omitempty"`
}

// CredentialTest is the request the host issues to check a credential.
type CredentialTest struct {
	Method string `json:"method" yaml:"method"`
	Path   string `json:"path" yaml:"path"`
}

// Property returns the first property declared under name.
func (d Description) Property(name string) (Property, bool) {
	for _, p := range d.Properties {
		if p.Name == name {
			return p, true
		}
	}
	return Property{}, false
}

// VisibleProperties returns the properties shown for the current parameter values.
func (d Description) VisibleProperties(params map[string]any) []Property {
	var visible []Property
	for _, p := range d.Properties {
		if p.DisplayOptions.Matches(params) {
			visible = append(visible, p)
		}
	}
	return visible
}

// Defaults returns a copy of params with the declared default of every visible,
// unset property filled in. Selectors are resolved first so that fields gated on
// a defaulted resource or operation are also considered.
func (d Description) Defaults(params map[string]any) map[string]any {
	out := make(map[string]any, len(params))
	for k, v := range params {
		out[k] = v
	}

	// Defaults can unlock more properties, so iterate until stable.
	for {
		changed := false
		for _, p := range d.Properties {
			if p.Default == nil {
				continue
			}
			if _, set := out[p.Name]; set {
				continue
			}
			if !p.DisplayOptions.Matches(out) {
				continue
			}
			out[p.Name] = p.Default
			changed = true
		}
		if !changed {
			return out
		}
	}
}

// Validate checks the structural rules the host relies on.
func (d Description) Validate() error {
	if d.Name == "" {
		return fmt.Errorf("node name is required")
	}

	var problems []string
	seen := make(map[string]bool)
	for i, p := range d.Properties {
		if p.Name == "" {
			problems = append(problems, fmt.Sprintf("property #%d has no name", i))
			continue
		}
		key := p.Name + "|" + p.DisplayOptions.key()
		if seen[key] {
			problems = append(problems, fmt.Sprintf("property %q declared twice for the same display scope", p.Name))
		}
		seen[key] = true

		if (p.Type == TypeOptions || p.Type == TypeMultiOptions) && len(p.Options) == 0 && p.SearchMethod == "" {
			problems = append(problems, fmt.Sprintf("property %q is %s but declares no options", p.Name, p.Type))
		}
		if p.Type == TypeResourceLocator && p.SearchMethod == "" {
			problems = append(problems, fmt.Sprintf("property %q is a resource locator without a search method", p.Name))
		}
	}

	for _, c := range d.Credentials {
		if c.Name == "" {
			problems = append(problems, "credential without a name")
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid description %s:\n  - %s", d.Name, strings.Join(problems, "\n  - "))
	}
	return nil
}

// SearchMethods lists every list-search method referenced by the description.
func (d Description) SearchMethods() []string {
	set := make(map[string]struct{})
	for _, p := range d.Properties {
		if p.SearchMethod != "" {
			set[p.SearchMethod] = struct{}{}
		}
	}
	methods := make([]string, 0, len(set))
	for m := range set {
		methods = append(methods, m)
	}
	sort.Strings(methods)
	return methods
}
