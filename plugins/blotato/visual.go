package blotato

import (
	"net/http"
	"net/url"

	"github.com/Jeffail/gabs/v2"
	"github.com/sflowg/blotato/runtime/plugin"
)

// buildCreateVisual shapes POST /v2/videos/from-templates.
func buildCreateVisual(p params) (apiRequest, error) {
	templateID, err := p.requiredStr("templateId")
	if err != nil {
		return apiRequest{}, err
	}

	inputs, err := p.object("inputs")
	if err != nil {
		return apiRequest{}, err
	}
	if inputs == nil {
		inputs = map[string]any{}
	}

	prompt := p.str("prompt")
	if prompt == "" && len(inputs) == 0 {
		return apiRequest{}, paramError("a visual needs a prompt or template inputs")
	}

	render, err := p.boolOr("render", true)
	if err != nil {
		return apiRequest{}, err
	}

	body := map[string]any{
		"templateId": templateID,
		"inputs":     inputs,
		"render":     render,
	}
	if prompt != "" {
		body["prompt"] = prompt
	}

	return apiRequest{Method: http.MethodPost, Path: "/v2/videos/from-templates", Body: body}, nil
}

// buildGetVisual shapes GET /v2/videos/creations/{id}.
func buildGetVisual(p params) (apiRequest, error) {
	id, err := p.requiredStr("visualId")
	if err != nil {
		return apiRequest{}, err
	}
	return apiRequest{Method: http.MethodGet, Path: "/v2/videos/creations/" + url.PathEscape(id)}, nil
}

// buildDeleteVisual shapes DELETE /v2/videos/{id}.
func buildDeleteVisual(p params) (apiRequest, error) {
	id, err := p.requiredStr("visualId")
	if err != nil {
		return apiRequest{}, err
	}
	return apiRequest{Method: http.MethodDelete, Path: "/v2/videos/" + url.PathEscape(id)}, nil
}

// reshapeVisual flattens the {item: {...}} envelope of the visual endpoints.
func reshapeVisual(_ params, resp *gabs.Container) plugin.Output {
	item := resp
	if resp.Exists("item") {
		item = resp.Path("item")
	}

	out := plugin.Output{}
	for _, field := range []string{"id", "status", "mediaUrl", "imageUrls"} {
		if v := item.Path(field).Data(); v != nil {
			out[field] = v
		}
	}
	return out
}

func reshapeDeletedVisual(p params, resp *gabs.Container) plugin.Output {
	id := p.str("visualId")
	if v, ok := resp.Path("id").Data().(string); ok && v != "" {
		id = v
	}
	return plugin.Output{"id": id, "deleted": true}
}
