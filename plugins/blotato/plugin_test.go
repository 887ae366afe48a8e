package blotato

import (
	"context"
	"net/http"
	"testing"

	"github.com/sflowg/blotato/runtime"
	"github.com/sflowg/blotato/runtime/node"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigDefaultsAndValidation(t *testing.T) {
	var cfg Config
	require.NoError(t, runtime.InitializeConfig(&cfg, map[string]any{"api_key": "k"}))
	assert.Equal(t, "https://backend.blotato.com", cfg.BaseURL)
	assert.Equal(t, "30s", cfg.Timeout.String())
	assert.Equal(t, "5m0s", cfg.SearchCacheTTL.String())
	assert.Zero(t, cfg.RequestsPerMinute)

	tests := []struct {
		name string
		raw  map[string]any
	}{
		{"missing api key", map[string]any{}},
		{"bad base url", map[string]any{"api_key": "k", "base_url": "backend.blotato.com"}},
		{"timeout too short", map[string]any{"api_key": "k", "timeout": "10ms"}},
		{"rate too high", map[string]any{"api_key": "k", "requests_per_minute": 1000}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var cfg Config
			assert.Error(t, runtime.InitializeConfig(&cfg, tt.raw))
		})
	}
}

func TestRegisterDiscoversTasks(t *testing.T) {
	container := runtime.NewContainer()
	require.NoError(t, container.RegisterPlugin(NodeName, &BlotatoPlugin{}))

	assert.Equal(t, []string{
		"blotato.createPost",
		"blotato.createVisual",
		"blotato.deleteVisual",
		"blotato.execute",
		"blotato.executeBatch",
		"blotato.getPost",
		"blotato.getVisual",
		"blotato.testCredentials",
		"blotato.uploadMedia",
	}, container.TaskNames(NodeName))

	d, ok := container.Description(NodeName)
	require.True(t, ok)
	assert.Equal(t, NodeName, d.Name)
}

func TestDescriptionIsValid(t *testing.T) {
	require.NoError(t, description.Validate())
	assert.Equal(t, []string{SearchAccounts, SearchSubaccounts, SearchTemplates}, description.SearchMethods())

	require.Len(t, description.Credentials, 1)
	assert.Equal(t, CredentialName, description.Credentials[0].Name)
	assert.Equal(t, "/v2/users/me", description.Credentials[0].Test.Path)
}

func TestDescriptionVisibility(t *testing.T) {
	visible := func(in map[string]any) []string {
		var names []string
		for _, p := range description.VisibleProperties(description.Defaults(in)) {
			names = append(names, p.Name)
		}
		return names
	}

	youtube := visible(map[string]any{"platform": "youtube"})
	assert.Contains(t, youtube, "youtubeTitle")
	assert.Contains(t, youtube, "privacyStatus")
	assert.NotContains(t, youtube, "privacyLevel")
	assert.NotContains(t, youtube, "scheduledTime")
	assert.NotContains(t, youtube, "additionalPosts")

	scheduled := visible(map[string]any{"platform": "twitter", "publishMode": "schedule"})
	assert.Contains(t, scheduled, "scheduledTime")
	assert.Contains(t, scheduled, "additionalPosts")

	visual := visible(map[string]any{"resource": "visual", "operation": "get"})
	assert.Contains(t, visual, "visualId")
	assert.NotContains(t, visual, "templateId")
	assert.NotContains(t, visual, "platform")
}

func TestExecute_CreatePost(t *testing.T) {
	api := newFakeAPI(t).on(http.MethodPost, "/v2/posts", http.StatusCreated, map[string]any{"postSubmissionId": "sub-1"})
	p, exec := newTestPlugin(t, api, nil)

	out, err := p.Execute(exec, map[string]any{
		"platform":      "tiktok",
		"accountId":     map[string]any{"mode": "id", "value": "acc-1"},
		"text":          "new video",
		"mediaUrls":     "https://cdn.example.com/v.mp4",
		"publishMode":   "schedule",
		"scheduledTime": "2026-05-01T09:00:00Z",
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"postSubmissionId": "sub-1"}, out)

	got := api.last()
	assert.Equal(t, "test-key", got.APIKey)
	assert.Equal(t, "2026-05-01T09:00:00Z", got.Body["scheduledTime"])

	post := got.Body["post"].(map[string]any)
	assert.Equal(t, "acc-1", post["accountId"])
	target := post["target"].(map[string]any)
	// privacyLevel and the flags come from the declared defaults.
	assert.Equal(t, "SELF_ONLY", target["privacyLevel"])
	assert.Equal(t, false, target["disabledComments"])
}

func TestExecute_Operations(t *testing.T) {
	tests := []struct {
		name   string
		method string
		path   string
		status int
		reply  any
		args   map[string]any
		want   map[string]any
	}{
		{
			name:   "media upload",
			method: http.MethodPost,
			path:   "/v2/media",
			status: http.StatusCreated,
			reply:  map[string]any{"url": "https://database.blotato.com/a.jpg"},
			args:   map[string]any{"resource": "media", "mediaUrl": "https://example.com/a.jpg"},
			want:   map[string]any{"url": "https://database.blotato.com/a.jpg"},
		},
		{
			name:   "post status",
			method: http.MethodGet,
			path:   "/v2/posts/sub-1",
			status: http.StatusOK,
			reply:  map[string]any{"postSubmissionId": "sub-1", "status": "PUBLISHED", "publicUrl": "https://x.com/p/1"},
			args:   map[string]any{"resource": "post", "operation": "get", "postSubmissionId": "sub-1"},
			want:   map[string]any{"postSubmissionId": "sub-1", "status": "PUBLISHED", "publicUrl": "https://x.com/p/1"},
		},
		{
			name:   "visual create",
			method: http.MethodPost,
			path:   "/v2/videos/from-templates",
			status: http.StatusCreated,
			reply:  map[string]any{"item": map[string]any{"id": "v1", "status": "queueing"}},
			args:   map[string]any{"resource": "visual", "templateId": "tpl-1", "prompt": "launch teaser"},
			want:   map[string]any{"id": "v1", "status": "queueing"},
		},
		{
			name:   "visual delete",
			method: http.MethodDelete,
			path:   "/v2/videos/v1",
			status: http.StatusOK,
			reply:  map[string]any{"id": "v1"},
			args:   map[string]any{"resource": "visual", "operation": "delete", "visualId": "v1"},
			want:   map[string]any{"id": "v1", "deleted": true},
		},
		{
			name:   "account list",
			method: http.MethodGet,
			path:   "/v2/users/me/accounts",
			status: http.StatusOK,
			reply:  map[string]any{"items": []any{map[string]any{"id": "a1"}}},
			args:   map[string]any{"resource": "account"},
			want:   map[string]any{"items": []any{map[string]any{"id": "a1"}}},
		},
		{
			name:   "account subaccounts",
			method: http.MethodGet,
			path:   "/v2/users/me/accounts/a1/subaccounts",
			status: http.StatusOK,
			reply:  map[string]any{"items": []any{}},
			args:   map[string]any{"resource": "account", "operation": "listSubaccounts", "accountId": "a1"},
			want:   map[string]any{"items": []any{}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := newFakeAPI(t).on(tt.method, tt.path, tt.status, tt.reply)
			p, exec := newTestPlugin(t, api, nil)

			out, err := p.Execute(exec, tt.args)
			require.NoError(t, err)
			assert.Equal(t, tt.want, out)
			assert.Equal(t, tt.method, api.last().Method)
			assert.Equal(t, tt.path, api.last().Path)
		})
	}
}

func TestExecute_UnknownSelectors(t *testing.T) {
	api := newFakeAPI(t)
	p, exec := newTestPlugin(t, api, nil)

	_, err := p.Execute(exec, map[string]any{"resource": "story"})
	assert.ErrorContains(t, err, "account, media, post, visual")
	assert.Equal(t, "user_error", errorType(t, err))

	_, err = p.Execute(exec, map[string]any{"resource": "post", "operation": "delete"})
	assert.ErrorContains(t, err, "valid: create, get")
	assert.Equal(t, "user_error", errorType(t, err))

	assert.Empty(t, api.calls())
}

func TestExecuteBatch(t *testing.T) {
	items := []map[string]any{
		{"resource": "visual", "operation": "get", "visualId": "v1"},
		{"resource": "visual", "operation": "get"},
		{"resource": "visual", "operation": "get", "visualId": "missing"},
		{"resource": "visual", "operation": "get", "visualId": "v1"},
	}
	newAPI := func() *fakeAPI {
		return newFakeAPI(t).
			on(http.MethodGet, "/v2/videos/creations/v1", http.StatusOK, map[string]any{"item": map[string]any{"id": "v1", "status": "done"}})
	}

	t.Run("continue on fail", func(t *testing.T) {
		api := newAPI()
		p, exec := newTestPlugin(t, api, nil)

		out, err := p.ExecuteBatch(exec, BatchInput{Items: items, ContinueOnFail: true})
		require.NoError(t, err)
		require.Len(t, out.Results, 4)
		assert.Equal(t, 2, out.Failed)

		assert.Equal(t, "v1", out.Results[0]["id"])
		assert.Equal(t, 1, out.Results[1]["index"])
		assert.Equal(t, "user_error", out.Results[1]["type"])
		assert.Equal(t, 2, out.Results[2]["index"])
		assert.Equal(t, "permanent", out.Results[2]["type"])
		assert.Equal(t, http.StatusNotFound, out.Results[2]["status_code"])
		assert.Equal(t, "v1", out.Results[3]["id"])
	})

	t.Run("abort on first failure", func(t *testing.T) {
		api := newAPI()
		p, exec := newTestPlugin(t, api, nil)

		out, err := p.ExecuteBatch(exec, BatchInput{Items: items})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "item 1")
		assert.Equal(t, "user_error", errorType(t, err))
		assert.Len(t, out.Results, 1)
		assert.Len(t, api.calls(), 1)
	})

	t.Run("through the container", func(t *testing.T) {
		api := newAPI()
		p, _ := newTestPlugin(t, api, nil)

		container := runtime.NewContainer()
		require.NoError(t, container.RegisterPlugin(NodeName, p))
		exec := runtime.NewTaskExecution(context.Background(), container)

		_, err := container.GetTask("blotato.executeBatch").Execute(exec, map[string]any{"items": []any{}})
		assert.Equal(t, "user_error", errorType(t, err))

		out, err := container.GetTask("blotato.executeBatch").Execute(exec, map[string]any{
			"items":          []any{map[string]any{"resource": "visual", "operation": "get", "visualId": "v1"}},
			"continueOnFail": "true",
		})
		require.NoError(t, err)
		assert.Equal(t, float64(0), out["failed"])
	})
}

func TestTypedTasks(t *testing.T) {
	api := newFakeAPI(t).
		on(http.MethodPost, "/v2/media", http.StatusCreated, map[string]any{"url": "https://database.blotato.com/b.png"}).
		on(http.MethodPost, "/v2/posts", http.StatusCreated, map[string]any{"postSubmissionId": "sub-9"}).
		on(http.MethodGet, "/v2/posts/sub-9", http.StatusOK, map[string]any{"postSubmissionId": "sub-9", "status": "failed", "errorMessage": "media too large"}).
		on(http.MethodPost, "/v2/videos/from-templates", http.StatusCreated, map[string]any{"item": map[string]any{"id": "v7", "status": "queueing"}}).
		on(http.MethodGet, "/v2/videos/creations/v7", http.StatusOK, map[string]any{"item": map[string]any{"id": "v7", "status": "done", "imageUrls": []any{"https://cdn/1.png"}}}).
		on(http.MethodDelete, "/v2/videos/v7", http.StatusNoContent, nil).
		on(http.MethodGet, "/v2/users/me", http.StatusOK, map[string]any{"id": "u1", "email": "me@example.com"})
	p, exec := newTestPlugin(t, api, nil)

	media, err := p.UploadMedia(exec, UploadMediaInput{URL: "https://example.com/b.png"})
	require.NoError(t, err)
	assert.Equal(t, "https://database.blotato.com/b.png", media.URL)

	post, err := p.CreatePost(exec, CreatePostInput{
		Platform:        "facebook",
		AccountID:       "acc-2",
		Text:            "hello",
		UseNextFreeSlot: true,
		Options:         map[string]any{"pageId": "page-3"},
	})
	require.NoError(t, err)
	assert.Equal(t, "sub-9", post.PostSubmissionID)
	assert.Equal(t, true, api.last().Body["useNextFreeSlot"])

	_, err = p.CreatePost(exec, CreatePostInput{Platform: "twitter", AccountID: "a", Text: "x", ScheduledTime: "2026-01-01T00:00:00Z", UseNextFreeSlot: true})
	assert.Equal(t, "user_error", errorType(t, err))

	status, err := p.GetPost(exec, GetPostInput{PostSubmissionID: "sub-9"})
	require.NoError(t, err)
	assert.Equal(t, GetPostOutput{PostSubmissionID: "sub-9", Status: "failed", ErrorMessage: "media too large"}, status)

	render := false
	visual, err := p.CreateVisual(exec, CreateVisualInput{TemplateID: "tpl", Inputs: map[string]any{"title": "t"}, Render: &render})
	require.NoError(t, err)
	assert.Equal(t, VisualOutput{ID: "v7", Status: "queueing"}, visual)
	assert.Equal(t, false, api.last().Body["render"])

	visual, err = p.GetVisual(exec, VisualIDInput{ID: "v7"})
	require.NoError(t, err)
	assert.Equal(t, []string{"https://cdn/1.png"}, visual.ImageURLs)

	deleted, err := p.DeleteVisual(exec, VisualIDInput{ID: "v7"})
	require.NoError(t, err)
	assert.Equal(t, DeleteVisualOutput{ID: "v7", Deleted: true}, deleted)

	creds, err := p.TestCredentials(exec, TestCredentialsInput{})
	require.NoError(t, err)
	assert.True(t, creds.OK)
	assert.Equal(t, "u1", creds.User["id"])
}

func TestTestCredentials_Rejected(t *testing.T) {
	api := newFakeAPI(t).on(http.MethodGet, "/v2/users/me", http.StatusUnauthorized, map[string]any{"message": "invalid api key"})
	p, exec := newTestPlugin(t, api, nil)

	out, err := p.TestCredentials(exec, TestCredentialsInput{})
	require.NoError(t, err)
	assert.False(t, out.OK)
	assert.Contains(t, out.Message, "invalid api key")
}

func TestExecute_NotInitialized(t *testing.T) {
	p := &BlotatoPlugin{}
	exec := runtime.NewTaskExecution(context.Background(), runtime.NewContainer())

	_, err := p.Execute(exec, map[string]any{"resource": "account", "operation": "me"})
	assert.ErrorContains(t, err, "not initialized")

	_, err = p.Search(exec, SearchTemplates, node.ListSearchRequest{})
	assert.ErrorContains(t, err, "not initialized")
}

func TestSearch_AfterShutdown(t *testing.T) {
	api := newFakeAPI(t).on(http.MethodGet, "/v2/users/me/accounts", http.StatusOK, accountsResponse)
	p, exec := newTestPlugin(t, api, nil)
	require.NoError(t, p.Shutdown(exec))

	_, err := p.Search(exec, SearchAccounts, node.ListSearchRequest{})
	assert.ErrorContains(t, err, "not initialized")
	assert.Empty(t, api.calls())
}
