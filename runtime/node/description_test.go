package node

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDescription() Description {
	return Description{
		Name:        "demo",
		DisplayName: "Demo",
		Version:     1,
		Properties: []Property{
			{
				Name: "resource", DisplayName: "Resource", Type: TypeOptions, Default: "post",
				Options: []Option{{Name: "Post", Value: "post"}, {Name: "Media", Value: "media"}},
			},
			{
				Name: "operation", DisplayName: "Operation", Type: TypeOptions, Default: "create",
				Options:        []Option{{Name: "Create", Value: "create"}},
				DisplayOptions: &DisplayOptions{Show: map[string][]any{"resource": {"post"}}},
			},
			{
				Name: "operation", DisplayName: "Operation", Type: TypeOptions, Default: "upload",
				Options:        []Option{{Name: "Upload", Value: "upload"}},
				DisplayOptions: &DisplayOptions{Show: map[string][]any{"resource": {"media"}}},
			},
			{
				Name: "platform", DisplayName: "Platform", Type: TypeOptions, Default: "twitter",
				Options: []Option{{Name: "X", Value: "twitter"}, {Name: "YouTube", Value: "youtube"}},
				DisplayOptions: &DisplayOptions{Show: map[string][]any{
					"resource": {"post"}, "operation": {"create"},
				}},
			},
			{
				Name: "title", DisplayName: "Title", Type: TypeString, Required: true,
				DisplayOptions: &DisplayOptions{Show: map[string][]any{"platform": {"youtube"}}},
			},
			{
				Name: "notify", DisplayName: "Notify", Type: TypeBoolean, Default: true,
				DisplayOptions: &DisplayOptions{
					Show: map[string][]any{"platform": {"youtube"}},
					Hide: map[string][]any{"privacy": {"private"}},
				},
			},
		},
	}
}

func TestDisplayOptions_Matches(t *testing.T) {
	opts := &DisplayOptions{
		Show: map[string][]any{"resource": {"post"}, "count": {1}},
		Hide: map[string][]any{"mode": {"draft"}},
	}

	tests := []struct {
		name   string
		params map[string]any
		want   bool
	}{
		{"all show rules met", map[string]any{"resource": "post", "count": 1}, true},
		{"numeric compared as text", map[string]any{"resource": "post", "count": "1"}, true},
		{"show value mismatch", map[string]any{"resource": "media", "count": 1}, false},
		{"missing show key", map[string]any{"count": 1}, false},
		{"hidden value present", map[string]any{"resource": "post", "count": 1, "mode": "draft"}, false},
		{"other hide value", map[string]any{"resource": "post", "count": 1, "mode": "live"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, opts.Matches(tt.params))
		})
	}

	var none *DisplayOptions
	assert.True(t, none.Matches(nil))
}

func TestDescription_VisibleProperties(t *testing.T) {
	d := testDescription()

	names := func(props []Property) []string {
		out := make([]string, 0, len(props))
		for _, p := range props {
			out = append(out, p.Name)
		}
		return out
	}

	visible := d.VisibleProperties(map[string]any{"resource": "post", "operation": "create", "platform": "youtube"})
	assert.Equal(t, []string{"resource", "operation", "platform", "title", "notify"}, names(visible))

	visible = d.VisibleProperties(map[string]any{"resource": "media"})
	assert.Equal(t, []string{"resource", "operation"}, names(visible))
}

func TestDescription_Defaults(t *testing.T) {
	d := testDescription()

	got := d.Defaults(map[string]any{})
	assert.Equal(t, "post", got["resource"])
	assert.Equal(t, "create", got["operation"])
	assert.Equal(t, "twitter", got["platform"])
	assert.NotContains(t, got, "notify")

	got = d.Defaults(map[string]any{"resource": "media"})
	assert.Equal(t, "upload", got["operation"])
	assert.NotContains(t, got, "platform")

	got = d.Defaults(map[string]any{"platform": "youtube"})
	assert.Equal(t, true, got["notify"])

	input := map[string]any{"resource": "post"}
	d.Defaults(input)
	assert.Len(t, input, 1, "input must not be mutated")
}

func TestDescription_Validate(t *testing.T) {
	require.NoError(t, testDescription().Validate())

	d := testDescription()
	d.Properties = append(d.Properties, d.Properties[1])
	err := d.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"operation" declared twice`)

	d = testDescription()
	d.Properties = append(d.Properties,
		Property{Name: "mode", Type: TypeOptions},
		Property{Name: "account", Type: TypeResourceLocator},
	)
	err = d.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"mode" is options but declares no options`)
	assert.Contains(t, err.Error(), `"account" is a resource locator without a search method`)

	assert.Error(t, Description{}.Validate())
}

func TestProperty_RenderOptionsJSON(t *testing.T) {
	p := Property{
		Name:        "channel",
		DisplayName: "Channel",
		Type:        TypeOptions,
		Options:     []Option{{Name: "News", Value: "news"}},
		TypeOptions: &RenderOptions{Rows: 4, MultipleValues: true},
	}

	b, err := json.Marshal(p)
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(b, &got))
	assert.Equal(t, "options", got["type"])
	assert.Equal(t, map[string]any{"rows": float64(4), "multipleValues": true}, got["typeOptions"])
}

func TestDescription_SearchMethods(t *testing.T) {
	d := Description{Name: "x", Properties: []Property{
		{Name: "a", Type: TypeResourceLocator, SearchMethod: "searchB"},
		{Name: "b", Type: TypeOptions, SearchMethod: "searchA"},
		{Name: "c", Type: TypeResourceLocator, SearchMethod: "searchB"},
	}}
	assert.Equal(t, []string{"searchA", "searchB"}, d.SearchMethods())
}

func TestFilterItems(t *testing.T) {
	items := []ListSearchItem{
		{Name: "zeta", Value: "1"},
		{Name: "Alpha Page", Value: "2"},
		{Name: "beta page", Value: "3"},
	}

	got := FilterItems(items, "PAGE")
	require.Len(t, got, 2)
	assert.Equal(t, "Alpha Page", got[0].Name)
	assert.Equal(t, "beta page", got[1].Name)

	all := FilterItems(items, "  ")
	assert.Equal(t, []string{"1", "2", "3"}, []string{items[0].Value, items[1].Value, items[2].Value})
	assert.Equal(t, "Alpha Page", all[0].Name)
	assert.Equal(t, "zeta", all[2].Name)
}
