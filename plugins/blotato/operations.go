package blotato

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Jeffail/gabs/v2"
	"github.com/sflowg/blotato/runtime/plugin"
)

const (
	ResourceMedia   = "media"
	ResourcePost    = "post"
	ResourceVisual  = "visual"
	ResourceAccount = "account"
)

type operationKey struct {
	resource  string
	operation string
}

func (k operationKey) String() string {
	return k.resource + "." + k.operation
}

// operation pairs a request builder with the reshaping of its answer.
type operation struct {
	build   func(p params) (apiRequest, error)
	reshape func(p params, resp *gabs.Container) plugin.Output
}

var operations = map[operationKey]operation{
	{ResourceMedia, "upload"}: {build: buildUploadMedia, reshape: reshapeMedia},

	{ResourcePost, "create"}: {build: buildCreatePost, reshape: reshapePostSubmission},
	{ResourcePost, "get"}:    {build: buildGetPost, reshape: reshapePostStatus},

	{ResourceVisual, "create"}: {build: buildCreateVisual, reshape: reshapeVisual},
	{ResourceVisual, "get"}:    {build: buildGetVisual, reshape: reshapeVisual},
	{ResourceVisual, "delete"}: {build: buildDeleteVisual, reshape: reshapeDeletedVisual},

	{ResourceAccount, "list"}:            {build: buildListAccounts, reshape: reshapeItems},
	{ResourceAccount, "listSubaccounts"}: {build: buildListSubaccounts, reshape: reshapeItems},
	{ResourceAccount, "me"}:              {build: buildMe, reshape: reshapeObject},
}

// lookupOperation resolves the resource and operation selectors of p.
func lookupOperation(p params) (operationKey, operation, error) {
	key := operationKey{resource: p.str("resource"), operation: p.str("operation")}

	if _, ok := resourceOperations()[key.resource]; !ok {
		return key, operation{}, plugin.NewTaskError(
			fmt.Errorf("unknown resource %q (valid: %s)", key.resource, strings.Join(resourceNames(), ", "))).
			WithType(plugin.ErrorTypeUser)
	}

	op, ok := operations[key]
	if !ok {
		return key, operation{}, plugin.NewTaskError(
			fmt.Errorf("unknown operation %q for resource %q (valid: %s)",
				key.operation, key.resource, strings.Join(resourceOperations()[key.resource], ", "))).
			WithType(plugin.ErrorTypeUser)
	}
	return key, op, nil
}

// resourceOperations groups the sorted operation names by resource.
func resourceOperations() map[string][]string {
	out := make(map[string][]string)
	for key := range operations {
		out[key.resource] = append(out[key.resource], key.operation)
	}
	for _, ops := range out {
		sort.Strings(ops)
	}
	return out
}

func resourceNames() []string {
	var names []string
	for name := range resourceOperations() {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func reshapePostSubmission(_ params, resp *gabs.Container) plugin.Output {
	return plugin.Output{"postSubmissionId": resp.Path("postSubmissionId").Data()}
}
