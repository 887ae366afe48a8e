package blotato

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Jeffail/gabs/v2"
	"github.com/sflowg/blotato/runtime/node"
	"github.com/sflowg/blotato/runtime/plugin"
	"github.com/spf13/cast"
)

const (
	SearchAccounts    = "searchAccounts"
	SearchSubaccounts = "searchSubaccounts"
	SearchTemplates   = "searchTemplates"
)

// listSearch calls one endpoint and turns its items into dropdown entries.
type listSearch struct {
	build func(p params) (apiRequest, error)
	item  func(item *gabs.Container) (node.ListSearchItem, bool)
	// keys are the request parameters that change the answer.
	keys []string
}

var listSearches = map[string]listSearch{
	SearchAccounts:    {build: buildListAccounts, item: accountItem, keys: []string{"platform"}},
	SearchSubaccounts: {build: buildListSubaccounts, item: subaccountItem, keys: []string{"accountId"}},
	SearchTemplates:   {build: buildListTemplates, item: templateItem},
}

// Search fills the dropdown named by method. Items are cached per method and
// parameters; the filter is applied after the cache.
func (p *BlotatoPlugin) Search(exec *plugin.Execution, method string, req node.ListSearchRequest) (node.ListSearchResult, error) {
	if p.client == nil {
		return node.ListSearchResult{}, fmt.Errorf("blotato plugin is not initialized")
	}
	search, ok := listSearches[method]
	if !ok {
		return node.ListSearchResult{}, plugin.NewTaskError(
			fmt.Errorf("unknown search method %q (valid: %s)", method, strings.Join(searchMethodNames(), ", "))).
			WithType(plugin.ErrorTypeUser)
	}

	in := params(req.Params)
	key := searchCacheKey(method, in, search.keys)

	var items []node.ListSearchItem
	if cached, found := p.cacheGet(key); found {
		items = cached
	} else {
		apiReq, err := search.build(in)
		if err != nil {
			return node.ListSearchResult{}, err
		}
		resp, err := p.client.do(exec, apiReq)
		if err != nil {
			return node.ListSearchResult{}, err
		}

		for _, child := range itemsOf(resp) {
			if item, ok := search.item(child); ok {
				items = append(items, item)
			}
		}
		p.cacheSet(key, items)
	}

	return node.ListSearchResult{Results: node.FilterItems(items, req.Filter)}, nil
}

func (p *BlotatoPlugin) cacheGet(key string) ([]node.ListSearchItem, bool) {
	if p.cache == nil {
		return nil, false
	}
	v, found := p.cache.Get(key)
	if !found {
		return nil, false
	}
	items, ok := v.([]node.ListSearchItem)
	return items, ok
}

func (p *BlotatoPlugin) cacheSet(key string, items []node.ListSearchItem) {
	if p.cache == nil {
		return
	}
	p.cache.SetDefault(key, items)
}

func searchCacheKey(method string, in params, keys []string) string {
	var b strings.Builder
	b.WriteString(method)
	for _, k := range keys {
		b.WriteString("|")
		b.WriteString(k)
		b.WriteString("=")
		b.WriteString(in.str(k))
	}
	return b.String()
}

func searchMethodNames() []string {
	names := make([]string, 0, len(listSearches))
	for name := range listSearches {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// accountItem renders "<fullname> (@username)", falling back to whichever is present.
func accountItem(c *gabs.Container) (node.ListSearchItem, bool) {
	id := idOf(c)
	if id == "" {
		return node.ListSearchItem{}, false
	}
	fullname, _ := c.Path("fullname").Data().(string)
	username, _ := c.Path("username").Data().(string)

	var name string
	switch {
	case fullname != "" && username != "":
		name = fmt.Sprintf("%s (@%s)", fullname, username)
	case username != "":
		name = "@" + username
	case fullname != "":
		name = fullname
	default:
		name = id
	}
	return node.ListSearchItem{Name: name, Value: id}, true
}

func subaccountItem(c *gabs.Container) (node.ListSearchItem, bool) {
	id := idOf(c)
	if id == "" {
		return node.ListSearchItem{}, false
	}
	name, _ := c.Path("name").Data().(string)
	if name == "" {
		name = id
	}
	return node.ListSearchItem{Name: name, Value: id}, true
}

func templateItem(c *gabs.Container) (node.ListSearchItem, bool) {
	id := idOf(c)
	if id == "" {
		return node.ListSearchItem{}, false
	}
	name, _ := c.Path("name").Data().(string)
	if name == "" {
		name = id
	}
	item := node.ListSearchItem{Name: name, Value: id}
	for _, field := range []string{"previewUrl", "url"} {
		if u, _ := c.Path(field).Data().(string); u != "" {
			item.URL = u
			break
		}
	}
	return item, true
}

// idOf returns the id field as a string. Numeric ids are written without an
// exponent, so 12345678 stays "12345678".
func idOf(c *gabs.Container) string {
	return cast.ToString(c.Path("id").Data())
}
