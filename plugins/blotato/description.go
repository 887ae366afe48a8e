package blotato

import (
	"net/http"

	"github.com/sflowg/blotato/runtime/node"
)

const (
	NodeName       = "blotato"
	CredentialName = "blotatoApi"
)

// Describe publishes the node form. Every field below the selectors is gated
// on resource, operation and, for posts, platform.
func (p *BlotatoPlugin) Describe() node.Description {
	return description
}

var description = node.Description{
	Name:        NodeName,
	DisplayName: "Blotato",
	Version:     2,
	Description: "Upload media, publish social posts and generate visuals with Blotato",
	Icon:        "file:blotato.svg",
	Credentials: []node.CredentialDescription{{
		Name:        CredentialName,
		DisplayName: "Blotato API",
		Required:    true,
		Properties: []node.Property{{
			Name:        "apiKey",
			DisplayName: "API Key",
			Type:        node.TypeString,
			Required:    true,
			TypeOptions: &node.RenderOptions{Password: true},
		}},
		Test: &node.CredentialTest{Method: http.MethodGet, Path: "/v2/users/me"},
	}},
	Properties: concat(
		selectorProperties(),
		mediaProperties(),
		postProperties(),
		platformProperties(),
		visualProperties(),
		accountProperties(),
	),
}

func concat(groups ...[]node.Property) []node.Property {
	var out []node.Property
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}

// show builds DisplayOptions from name/values pairs.
func show(pairs ...any) *node.DisplayOptions {
	opts := &node.DisplayOptions{Show: map[string][]any{}}
	for i := 0; i+1 < len(pairs); i += 2 {
		name := pairs[i].(string)
		switch v := pairs[i+1].(type) {
		case []string:
			for _, s := range v {
				opts.Show[name] = append(opts.Show[name], s)
			}
		default:
			opts.Show[name] = append(opts.Show[name], v)
		}
	}
	return opts
}

func postCreate(platforms ...Platform) *node.DisplayOptions {
	if len(platforms) == 0 {
		return show("resource", ResourcePost, "operation", "create")
	}
	names := make([]string, len(platforms))
	for i, p := range platforms {
		names[i] = string(p)
	}
	return show("resource", ResourcePost, "operation", "create", "platform", names)
}

func selectorProperties() []node.Property {
	return []node.Property{
		{
			Name:        "resource",
			DisplayName: "Resource",
			Type:        node.TypeOptions,
			Default:     ResourcePost,
			Options: []node.Option{
				{Name: "Account", Value: ResourceAccount},
				{Name: "Media", Value: ResourceMedia},
				{Name: "Post", Value: ResourcePost},
				{Name: "Visual", Value: ResourceVisual},
			},
		},
		{
			Name:           "operation",
			DisplayName:    "Operation",
			Type:           node.TypeOptions,
			Default:        "upload",
			DisplayOptions: show("resource", ResourceMedia),
			Options: []node.Option{
				{Name: "Upload", Value: "upload", Action: "Upload media", Description: "Upload an image or video for use in posts"},
			},
		},
		{
			Name:           "operation",
			DisplayName:    "Operation",
			Type:           node.TypeOptions,
			Default:        "create",
			DisplayOptions: show("resource", ResourcePost),
			Options: []node.Option{
				{Name: "Create", Value: "create", Action: "Create a post", Description: "Publish now, schedule, or queue a post"},
				{Name: "Get", Value: "get", Action: "Get a post", Description: "Get the publishing status of a post"},
			},
		},
		{
			Name:           "operation",
			DisplayName:    "Operation",
			Type:           node.TypeOptions,
			Default:        "create",
			DisplayOptions: show("resource", ResourceVisual),
			Options: []node.Option{
				{Name: "Create", Value: "create", Action: "Create a visual", Description: "Generate a visual from a template"},
				{Name: "Delete", Value: "delete", Action: "Delete a visual"},
				{Name: "Get", Value: "get", Action: "Get a visual", Description: "Get the rendering status of a visual"},
			},
		},
		{
			Name:           "operation",
			DisplayName:    "Operation",
			Type:           node.TypeOptions,
			Default:        "list",
			DisplayOptions: show("resource", ResourceAccount),
			Options: []node.Option{
				{Name: "List", Value: "list", Action: "List connected accounts"},
				{Name: "List Subaccounts", Value: "listSubaccounts", Action: "List pages of an account"},
				{Name: "Me", Value: "me", Action: "Get the current user"},
			},
		},
	}
}

func mediaProperties() []node.Property {
	upload := func(extra ...any) *node.DisplayOptions {
		return show(append([]any{"resource", ResourceMedia, "operation", "upload"}, extra...)...)
	}
	return []node.Property{
		{
			Name:           "mediaSource",
			DisplayName:    "Source",
			Type:           node.TypeOptions,
			Default:        mediaSourceURL,
			DisplayOptions: upload(),
			Options: []node.Option{
				{Name: "URL", Value: mediaSourceURL},
				{Name: "Binary Data", Value: mediaSourceBinary},
			},
		},
		{
			Name:           "mediaUrl",
			DisplayName:    "Media URL",
			Type:           node.TypeString,
			Required:       true,
			Placeholder:    "https://example.com/image.jpg",
			DisplayOptions: upload("mediaSource", mediaSourceURL),
		},
		{
			Name:           "binaryData",
			DisplayName:    "Binary Data",
			Type:           node.TypeString,
			Required:       true,
			Description:    "Base64 encoded file content or a base64 data URI",
			DisplayOptions: upload("mediaSource", mediaSourceBinary),
		},
		{
			Name:           "mimeType",
			DisplayName:    "MIME Type",
			Type:           node.TypeString,
			Description:    "Detected from the content when empty",
			DisplayOptions: upload("mediaSource", mediaSourceBinary),
		},
	}
}

func platformOptions() []node.Option {
	options := make([]node.Option, 0, len(platforms))
	for _, name := range platformNames() {
		options = append(options, node.Option{Name: platforms[Platform(name)].label, Value: name})
	}
	return options
}

func postProperties() []node.Property {
	return []node.Property{
		{
			Name:           "platform",
			DisplayName:    "Platform",
			Type:           node.TypeOptions,
			Required:       true,
			Default:        string(PlatformTwitter),
			DisplayOptions: postCreate(),
			Options:        platformOptions(),
		},
		{
			Name:           "accountId",
			DisplayName:    "Account",
			Type:           node.TypeResourceLocator,
			Required:       true,
			SearchMethod:   SearchAccounts,
			DisplayOptions: postCreate(),
		},
		{
			Name:           "text",
			DisplayName:    "Text",
			Type:           node.TypeString,
			TypeOptions:    &node.RenderOptions{Rows: 4},
			DisplayOptions: postCreate(),
		},
		{
			Name:           "mediaUrls",
			DisplayName:    "Media URLs",
			Type:           node.TypeString,
			Description:    "Comma or newline separated. Upload local files with Media > Upload first.",
			DisplayOptions: postCreate(),
		},
		{
			Name:           "additionalPosts",
			DisplayName:    "Thread Posts",
			Type:           node.TypeFixedCollection,
			Description:    "Posts published as replies, in order",
			TypeOptions:    &node.RenderOptions{MultipleValues: true},
			DisplayOptions: postCreate(PlatformTwitter, PlatformThreads, PlatformBluesky),
		},
		{
			Name:           "publishMode",
			DisplayName:    "Publish",
			Type:           node.TypeOptions,
			Default:        publishNow,
			DisplayOptions: postCreate(),
			Options: []node.Option{
				{Name: "Now", Value: publishNow},
				{Name: "At a Scheduled Time", Value: publishSchedule},
				{Name: "In the Next Free Slot", Value: publishNextFreeSlot},
			},
		},
		{
			Name:           "scheduledTime",
			DisplayName:    "Scheduled Time",
			Type:           node.TypeDateTime,
			Required:       true,
			DisplayOptions: show("resource", ResourcePost, "operation", "create", "publishMode", publishSchedule),
		},
		{
			Name:           "postSubmissionId",
			DisplayName:    "Post Submission ID",
			Type:           node.TypeString,
			Required:       true,
			DisplayOptions: show("resource", ResourcePost, "operation", "get"),
		},
	}
}

func platformProperties() []node.Property {
	return []node.Property{
		// Facebook
		{
			Name:           "pageId",
			DisplayName:    "Page",
			Type:           node.TypeResourceLocator,
			Required:       true,
			SearchMethod:   SearchSubaccounts,
			DisplayOptions: postCreate(PlatformFacebook),
		},
		{
			Name:           "facebookMediaType",
			DisplayName:    "Media Type",
			Type:           node.TypeOptions,
			Default:        "",
			DisplayOptions: postCreate(PlatformFacebook),
			Options: []node.Option{
				{Name: "Default", Value: ""},
				{Name: "Video", Value: "video"},
				{Name: "Reel", Value: "reel"},
			},
		},

		// LinkedIn
		{
			Name:           "pageId",
			DisplayName:    "Company Page",
			Type:           node.TypeResourceLocator,
			Description:    "Leave empty to post to the personal profile",
			SearchMethod:   SearchSubaccounts,
			DisplayOptions: postCreate(PlatformLinkedIn),
		},

		// Instagram
		{
			Name:           "instagramMediaType",
			DisplayName:    "Media Type",
			Type:           node.TypeOptions,
			Default:        "",
			DisplayOptions: postCreate(PlatformInstagram),
			Options: []node.Option{
				{Name: "Post", Value: ""},
				{Name: "Reel", Value: "reel"},
				{Name: "Story", Value: "story"},
			},
		},
		{
			Name:           "altText",
			DisplayName:    "Alt Text",
			Type:           node.TypeString,
			DisplayOptions: postCreate(PlatformInstagram, PlatformPinterest),
		},
		{
			Name:           "collaborators",
			DisplayName:    "Collaborators",
			Type:           node.TypeString,
			Description:    "Up to 3 usernames, comma separated",
			DisplayOptions: postCreate(PlatformInstagram),
		},
		{
			Name:           "shareToFeed",
			DisplayName:    "Share Reel to Feed",
			Type:           node.TypeBoolean,
			Default:        true,
			DisplayOptions: show("resource", ResourcePost, "operation", "create", "platform", string(PlatformInstagram), "instagramMediaType", "reel"),
		},
		{
			Name:           "coverImageUrl",
			DisplayName:    "Cover Image URL",
			Type:           node.TypeString,
			DisplayOptions: postCreate(PlatformInstagram),
		},
		{
			Name:           "audioName",
			DisplayName:    "Audio Name",
			Type:           node.TypeString,
			DisplayOptions: postCreate(PlatformInstagram),
		},

		// TikTok
		{
			Name:           "privacyLevel",
			DisplayName:    "Privacy Level",
			Type:           node.TypeOptions,
			Required:       true,
			Default:        "SELF_ONLY",
			DisplayOptions: postCreate(PlatformTikTok),
			Options: []node.Option{
				{Name: "Only Me", Value: "SELF_ONLY"},
				{Name: "Everyone", Value: "PUBLIC_TO_EVERYONE"},
				{Name: "Friends", Value: "MUTUAL_FOLLOW_FRIENDS"},
				{Name: "Followers", Value: "FOLLOWER_OF_CREATOR"},
			},
		},
		tiktokFlag("disabledComments", "Disable Comments"),
		tiktokFlag("disabledDuet", "Disable Duet"),
		tiktokFlag("disabledStitch", "Disable Stitch"),
		tiktokFlag("isBrandedContent", "Branded Content"),
		tiktokFlag("isYourBrand", "Your Brand"),
		tiktokFlag("isAiGenerated", "AI Generated"),
		{
			Name:           "tiktokTitle",
			DisplayName:    "Title",
			Type:           node.TypeString,
			Description:    "Title of a photo post",
			DisplayOptions: postCreate(PlatformTikTok),
		},
		{
			Name:           "autoAddMusic",
			DisplayName:    "Auto Add Music",
			Type:           node.TypeBoolean,
			DisplayOptions: postCreate(PlatformTikTok),
		},
		{
			Name:           "isDraft",
			DisplayName:    "Save as Draft",
			Type:           node.TypeBoolean,
			DisplayOptions: postCreate(PlatformTikTok),
		},
		{
			Name:           "imageCoverIndex",
			DisplayName:    "Cover Image Index",
			Type:           node.TypeNumber,
			DisplayOptions: postCreate(PlatformTikTok),
		},
		{
			Name:           "videoCoverTimestamp",
			DisplayName:    "Video Cover Timestamp (ms)",
			Type:           node.TypeNumber,
			DisplayOptions: postCreate(PlatformTikTok),
		},

		// Pinterest
		{
			Name:           "boardId",
			DisplayName:    "Board ID",
			Type:           node.TypeString,
			Required:       true,
			DisplayOptions: postCreate(PlatformPinterest),
		},
		{
			Name:           "pinterestTitle",
			DisplayName:    "Pin Title",
			Type:           node.TypeString,
			DisplayOptions: postCreate(PlatformPinterest),
		},
		{
			Name:           "link",
			DisplayName:    "Link",
			Type:           node.TypeString,
			Placeholder:    "https://example.com",
			DisplayOptions: postCreate(PlatformPinterest),
		},

		// Threads
		{
			Name:           "replyControl",
			DisplayName:    "Who Can Reply",
			Type:           node.TypeOptions,
			Default:        "everyone",
			DisplayOptions: postCreate(PlatformThreads),
			Options: []node.Option{
				{Name: "Everyone", Value: "everyone"},
				{Name: "Accounts You Follow", Value: "accounts_you_follow"},
				{Name: "Mentioned Only", Value: "mentioned_only"},
			},
		},

		// YouTube
		{
			Name:           "youtubeTitle",
			DisplayName:    "Video Title",
			Type:           node.TypeString,
			Required:       true,
			DisplayOptions: postCreate(PlatformYouTube),
		},
		{
			Name:           "privacyStatus",
			DisplayName:    "Privacy",
			Type:           node.TypeOptions,
			Required:       true,
			Default:        "private",
			DisplayOptions: postCreate(PlatformYouTube),
			Options: []node.Option{
				{Name: "Private", Value: "private"},
				{Name: "Public", Value: "public"},
				{Name: "Unlisted", Value: "unlisted"},
			},
		},
		{
			Name:           "shouldNotifySubscribers",
			DisplayName:    "Notify Subscribers",
			Type:           node.TypeBoolean,
			Default:        true,
			DisplayOptions: postCreate(PlatformYouTube),
		},
		{
			Name:           "isMadeForKids",
			DisplayName:    "Made for Kids",
			Type:           node.TypeBoolean,
			DisplayOptions: postCreate(PlatformYouTube),
		},
		{
			Name:           "containsSyntheticMedia",
			DisplayName:    "Contains Synthetic Media",
			Type:           node.TypeBoolean,
			DisplayOptions: postCreate(PlatformYouTube),
		},
	}
}

func tiktokFlag(name, displayName string) node.Property {
	return node.Property{
		Name:           name,
		DisplayName:    displayName,
		Type:           node.TypeBoolean,
		Default:        false,
		DisplayOptions: postCreate(PlatformTikTok),
	}
}

func visualProperties() []node.Property {
	return []node.Property{
		{
			Name:           "templateId",
			DisplayName:    "Template",
			Type:           node.TypeResourceLocator,
			Required:       true,
			SearchMethod:   SearchTemplates,
			DisplayOptions: show("resource", ResourceVisual, "operation", "create"),
		},
		{
			Name:           "prompt",
			DisplayName:    "Prompt",
			Type:           node.TypeString,
			TypeOptions:    &node.RenderOptions{Rows: 4},
			DisplayOptions: show("resource", ResourceVisual, "operation", "create"),
		},
		{
			Name:           "inputs",
			DisplayName:    "Template Inputs",
			Type:           node.TypeJSON,
			Default:        "{}",
			DisplayOptions: show("resource", ResourceVisual, "operation", "create"),
		},
		{
			Name:           "render",
			DisplayName:    "Render",
			Type:           node.TypeBoolean,
			Default:        true,
			DisplayOptions: show("resource", ResourceVisual, "operation", "create"),
		},
		{
			Name:           "visualId",
			DisplayName:    "Visual ID",
			Type:           node.TypeString,
			Required:       true,
			DisplayOptions: show("resource", ResourceVisual, "operation", []string{"get", "delete"}),
		},
	}
}

func accountProperties() []node.Property {
	options := append([]node.Option{{Name: "All", Value: ""}}, platformOptions()...)
	return []node.Property{
		{
			Name:           "platform",
			DisplayName:    "Platform",
			Type:           node.TypeOptions,
			Default:        "",
			DisplayOptions: show("resource", ResourceAccount, "operation", "list"),
			Options:        options,
		},
		{
			Name:           "accountId",
			DisplayName:    "Account",
			Type:           node.TypeResourceLocator,
			Required:       true,
			SearchMethod:   SearchAccounts,
			DisplayOptions: show("resource", ResourceAccount, "operation", "listSubaccounts"),
		},
	}
}
