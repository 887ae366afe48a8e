package blotato

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/sflowg/blotato/runtime/plugin"
)

// Typed shortcuts over Execute for flows that call one operation directly.

type UploadMediaInput struct {
	URL        string `json:"url" validate:"required_without=BinaryData"`
	BinaryData string `json:"binaryData"`
	MimeType   string `json:"mimeType"`
}

type UploadMediaOutput struct {
	URL string `json:"url"`
}

func (p *BlotatoPlugin) UploadMedia(exec *plugin.Execution, input UploadMediaInput) (UploadMediaOutput, error) {
	in := params{"resource": ResourceMedia, "operation": "upload"}
	if input.BinaryData != "" {
		in["mediaSource"] = mediaSourceBinary
		in["binaryData"] = input.BinaryData
		in["mimeType"] = input.MimeType
	} else {
		in["mediaSource"] = mediaSourceURL
		in["mediaUrl"] = input.URL
	}

	out, err := p.run(exec, in)
	if err != nil {
		return UploadMediaOutput{}, err
	}
	url, _ := out["url"].(string)
	return UploadMediaOutput{URL: url}, nil
}

// CreatePostInput carries the fields every platform shares. Platform specific
// fields (pageId, privacyLevel, youtubeTitle, ...) go in Options under their
// node parameter names.
type CreatePostInput struct {
	Platform        string           `json:"platform" validate:"required"`
	AccountID       string           `json:"accountId" validate:"required"`
	Text            string           `json:"text"`
	MediaURLs       []string         `json:"mediaUrls"`
	AdditionalPosts []map[string]any `json:"additionalPosts"`
	ScheduledTime   string           `json:"scheduledTime"`
	UseNextFreeSlot bool             `json:"useNextFreeSlot"`
	Options         map[string]any   `json:"options"`
}

type CreatePostOutput struct {
	PostSubmissionID string `json:"postSubmissionId"`
}

func (p *BlotatoPlugin) CreatePost(exec *plugin.Execution, input CreatePostInput) (CreatePostOutput, error) {
	in := params{}
	for k, v := range input.Options {
		in[k] = v
	}
	in["resource"] = ResourcePost
	in["operation"] = "create"
	in["platform"] = input.Platform
	in["accountId"] = input.AccountID
	in["text"] = input.Text
	in["mediaUrls"] = input.MediaURLs
	if len(input.AdditionalPosts) > 0 {
		in["additionalPosts"] = input.AdditionalPosts
	}

	switch {
	case input.ScheduledTime != "" && input.UseNextFreeSlot:
		return CreatePostOutput{}, paramError("scheduledTime and useNextFreeSlot are mutually exclusive")
	case input.ScheduledTime != "":
		in["publishMode"] = publishSchedule
		in["scheduledTime"] = input.ScheduledTime
	case input.UseNextFreeSlot:
		in["publishMode"] = publishNextFreeSlot
	default:
		in["publishMode"] = publishNow
	}

	out, err := p.run(exec, params(description.Defaults(in)))
	if err != nil {
		return CreatePostOutput{}, err
	}
	id, _ := out["postSubmissionId"].(string)
	if id == "" {
		return CreatePostOutput{}, plugin.NewTaskError(fmt.Errorf("blotato accepted the post without a postSubmissionId")).
			WithType(plugin.ErrorTypePermanent)
	}
	return CreatePostOutput{PostSubmissionID: id}, nil
}

type GetPostInput struct {
	PostSubmissionID string `json:"postSubmissionId" validate:"required"`
}

type GetPostOutput struct {
	PostSubmissionID string `json:"postSubmissionId"`
	Status           string `json:"status"`
	PublicURL        string `json:"publicUrl,omitempty"`
	ErrorMessage     string `json:"errorMessage,omitempty"`
}

func (p *BlotatoPlugin) GetPost(exec *plugin.Execution, input GetPostInput) (GetPostOutput, error) {
	out, err := p.run(exec, params{
		"resource":         ResourcePost,
		"operation":        "get",
		"postSubmissionId": input.PostSubmissionID,
	})
	if err != nil {
		return GetPostOutput{}, err
	}

	result := GetPostOutput{PostSubmissionID: input.PostSubmissionID}
	if id, ok := out["postSubmissionId"].(string); ok && id != "" {
		result.PostSubmissionID = id
	}
	result.Status, _ = out["status"].(string)
	result.PublicURL, _ = out["publicUrl"].(string)
	result.ErrorMessage, _ = out["errorMessage"].(string)
	return result, nil
}

type CreateVisualInput struct {
	TemplateID string         `json:"templateId" validate:"required"`
	Prompt     string         `json:"prompt"`
	Inputs     map[string]any `json:"inputs"`
	Render     *bool          `json:"render"`
}

type VisualOutput struct {
	ID        string   `json:"id"`
	Status    string   `json:"status"`
	MediaURL  string   `json:"mediaUrl,omitempty"`
	ImageURLs []string `json:"imageUrls,omitempty"`
}

func (p *BlotatoPlugin) CreateVisual(exec *plugin.Execution, input CreateVisualInput) (VisualOutput, error) {
	in := params{
		"resource":   ResourceVisual,
		"operation":  "create",
		"templateId": input.TemplateID,
		"prompt":     input.Prompt,
		"render":     true,
	}
	if input.Inputs != nil {
		in["inputs"] = input.Inputs
	}
	if input.Render != nil {
		in["render"] = *input.Render
	}

	out, err := p.run(exec, in)
	if err != nil {
		return VisualOutput{}, err
	}
	return toVisualOutput(out), nil
}

type VisualIDInput struct {
	ID string `json:"id" validate:"required"`
}

func (p *BlotatoPlugin) GetVisual(exec *plugin.Execution, input VisualIDInput) (VisualOutput, error) {
	out, err := p.run(exec, params{"resource": ResourceVisual, "operation": "get", "visualId": input.ID})
	if err != nil {
		return VisualOutput{}, err
	}
	return toVisualOutput(out), nil
}

type DeleteVisualOutput struct {
	ID      string `json:"id"`
	Deleted bool   `json:"deleted"`
}

func (p *BlotatoPlugin) DeleteVisual(exec *plugin.Execution, input VisualIDInput) (DeleteVisualOutput, error) {
	out, err := p.run(exec, params{"resource": ResourceVisual, "operation": "delete", "visualId": input.ID})
	if err != nil {
		return DeleteVisualOutput{}, err
	}
	id, _ := out["id"].(string)
	return DeleteVisualOutput{ID: id, Deleted: true}, nil
}

func toVisualOutput(out map[string]any) VisualOutput {
	v := VisualOutput{}
	v.ID, _ = out["id"].(string)
	v.Status, _ = out["status"].(string)
	v.MediaURL, _ = out["mediaUrl"].(string)
	if urls, ok := out["imageUrls"].([]any); ok {
		for _, u := range urls {
			if s, ok := u.(string); ok {
				v.ImageURLs = append(v.ImageURLs, s)
			}
		}
	}
	return v
}

type TestCredentialsInput struct{}

type TestCredentialsOutput struct {
	OK      bool           `json:"ok"`
	Message string         `json:"message,omitempty"`
	User    map[string]any `json:"user,omitempty"`
}

// TestCredentials calls the credential test endpoint. A rejected key is
// reported in the output; other failures are returned as errors.
func (p *BlotatoPlugin) TestCredentials(exec *plugin.Execution, _ TestCredentialsInput) (TestCredentialsOutput, error) {
	out, err := p.run(exec, params{"resource": ResourceAccount, "operation": "me"})
	if err != nil {
		var taskErr *plugin.TaskError
		if errors.As(err, &taskErr) {
			status, _ := taskErr.Metadata["status_code"].(int)
			if status == http.StatusUnauthorized || status == http.StatusForbidden {
				return TestCredentialsOutput{OK: false, Message: err.Error()}, nil
			}
		}
		return TestCredentialsOutput{}, err
	}
	return TestCredentialsOutput{OK: true, User: out}, nil
}
