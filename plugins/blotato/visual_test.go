package blotato

import (
	"net/http"
	"testing"

	"github.com/Jeffail/gabs/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildCreateVisual(t *testing.T) {
	t.Run("json string inputs and default render", func(t *testing.T) {
		req, err := buildCreateVisual(params{
			"templateId": map[string]any{"mode": "list", "value": "tpl-1"},
			"inputs":     `{"title": "Quarterly results", "slides": 5}`,
		})
		require.NoError(t, err)
		assert.Equal(t, http.MethodPost, req.Method)
		assert.Equal(t, "/v2/videos/from-templates", req.Path)
		assert.Equal(t, map[string]any{
			"templateId": "tpl-1",
			"inputs":     map[string]any{"title": "Quarterly results", "slides": float64(5)},
			"render":     true,
		}, req.Body)
	})

	t.Run("prompt only", func(t *testing.T) {
		req, err := buildCreateVisual(params{"templateId": "tpl-1", "prompt": "a cat on a skateboard", "render": "false"})
		require.NoError(t, err)
		assert.Equal(t, map[string]any{
			"templateId": "tpl-1",
			"inputs":     map[string]any{},
			"prompt":     "a cat on a skateboard",
			"render":     false,
		}, req.Body)
	})

	t.Run("errors", func(t *testing.T) {
		_, err := buildCreateVisual(params{"prompt": "x"})
		assert.ErrorContains(t, err, `"templateId" is required`)

		_, err = buildCreateVisual(params{"templateId": "tpl-1"})
		assert.ErrorContains(t, err, "prompt or template inputs")

		_, err = buildCreateVisual(params{"templateId": "tpl-1", "inputs": "[1,2]"})
		assert.ErrorContains(t, err, "must be a JSON object")
	})
}

func TestBuildVisualByID(t *testing.T) {
	get, err := buildGetVisual(params{"visualId": "v 1"})
	require.NoError(t, err)
	assert.Equal(t, http.MethodGet, get.Method)
	assert.Equal(t, "/v2/videos/creations/v%201", get.Path)

	del, err := buildDeleteVisual(params{"visualId": "v1"})
	require.NoError(t, err)
	assert.Equal(t, http.MethodDelete, del.Method)
	assert.Equal(t, "/v2/videos/v1", del.Path)

	_, err = buildDeleteVisual(params{})
	assert.Equal(t, "user_error", errorType(t, err))
}

func TestReshapeVisual(t *testing.T) {
	resp, err := gabs.ParseJSON([]byte(`{"item": {"id": "v1", "status": "done", "mediaUrl": "https://cdn/v.mp4", "imageUrls": ["https://cdn/1.png"], "internal": 1}}`))
	require.NoError(t, err)

	assert.Equal(t, map[string]any{
		"id":        "v1",
		"status":    "done",
		"mediaUrl":  "https://cdn/v.mp4",
		"imageUrls": []any{"https://cdn/1.png"},
	}, reshapeVisual(nil, resp))

	bare, err := gabs.ParseJSON([]byte(`{"id": "v2", "status": "queueing"}`))
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"id": "v2", "status": "queueing"}, reshapeVisual(nil, bare))

	assert.Equal(t, map[string]any{"id": "v3", "deleted": true}, reshapeDeletedVisual(params{"visualId": "v3"}, gabs.New()))
}
