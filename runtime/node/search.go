package node

import (
	"sort"
	"strings"
)

// ListSearchRequest is what the host sends when a dropdown asks for items.
type ListSearchRequest struct {
	Filter          string         `json:"filter,omitempty"`
	PaginationToken string         `json:"paginationToken,omitempty"`
	Params          map[string]any `json:"params,omitempty"`
}

// ListSearchItem is one dropdown entry.
type ListSearchItem struct {
	Name  string `json:"name"`
	Value string `json:"value"`
	URL   string `json:"url,omitempty"`
}

// ListSearchResult is the dropdown payload returned to the host.
type ListSearchResult struct {
	Results         []ListSearchItem `json:"results"`
	PaginationToken string           `json:"paginationToken,omitempty"`
}

// FilterItems keeps the items whose name contains filter (case-insensitive)
// and returns them sorted by name. The input slice is not modified.
func FilterItems(items []ListSearchItem, filter string) []ListSearchItem {
	needle := strings.ToLower(strings.TrimSpace(filter))

	out := make([]ListSearchItem, 0, len(items))
	for _, item := range items {
		if needle == "" || strings.Contains(strings.ToLower(item.Name), needle) {
			out = append(out, item)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
	})
	return out
}
