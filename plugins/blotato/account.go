package blotato

import (
	"net/http"
	"net/url"

	"github.com/Jeffail/gabs/v2"
	"github.com/sflowg/blotato/runtime/plugin"
)

// buildListAccounts shapes GET /v2/users/me/accounts, optionally narrowed to one platform.
func buildListAccounts(p params) (apiRequest, error) {
	platform, err := parsePlatform(p, false)
	if err != nil {
		return apiRequest{}, err
	}
	req := apiRequest{Method: http.MethodGet, Path: "/v2/users/me/accounts"}
	if platform != "" {
		req.Query = map[string]string{"platform": string(platform)}
	}
	return req, nil
}

// buildListSubaccounts shapes GET /v2/users/me/accounts/{id}/subaccounts
// (Facebook pages, LinkedIn company pages).
func buildListSubaccounts(p params) (apiRequest, error) {
	accountID, err := p.requiredStr("accountId")
	if err != nil {
		return apiRequest{}, err
	}
	return apiRequest{
		Method: http.MethodGet,
		Path:   "/v2/users/me/accounts/" + url.PathEscape(accountID) + "/subaccounts",
	}, nil
}

func buildMe(params) (apiRequest, error) {
	return apiRequest{Method: http.MethodGet, Path: "/v2/users/me"}, nil
}

func buildListTemplates(params) (apiRequest, error) {
	return apiRequest{Method: http.MethodGet, Path: "/v2/videos/templates"}, nil
}

// reshapeItems returns {items: [...]} whether the API answered with an
// envelope or a bare array.
func reshapeItems(_ params, resp *gabs.Container) plugin.Output {
	items := make([]any, 0)
	for _, child := range itemsOf(resp) {
		items = append(items, child.Data())
	}
	return plugin.Output{"items": items}
}

func reshapeObject(_ params, resp *gabs.Container) plugin.Output {
	if m, ok := resp.Data().(map[string]any); ok {
		return m
	}
	return plugin.Output{"data": resp.Data()}
}

// itemsOf finds the list in a response: a bare array, or the first of
// items/templates/data holding one.
func itemsOf(resp *gabs.Container) []*gabs.Container {
	if _, ok := resp.Data().([]any); ok {
		return resp.Children()
	}
	for _, key := range []string{"items", "templates", "data"} {
		if list := resp.Search(key); list != nil {
			if _, ok := list.Data().([]any); ok {
				return list.Children()
			}
		}
	}
	return nil
}
