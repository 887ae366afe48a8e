package blotato

import (
	"net/http"
	"net/url"
	"sort"
	"time"

	"github.com/Jeffail/gabs/v2"
	"github.com/sflowg/blotato/runtime/plugin"
)

// Platform is a social network Blotato publishes to.
type Platform string

const (
	PlatformTwitter   Platform = "twitter"
	PlatformLinkedIn  Platform = "linkedin"
	PlatformFacebook  Platform = "facebook"
	PlatformInstagram Platform = "instagram"
	PlatformTikTok    Platform = "tiktok"
	PlatformPinterest Platform = "pinterest"
	PlatformThreads   Platform = "threads"
	PlatformBluesky   Platform = "bluesky"
	PlatformYouTube   Platform = "youtube"
)

// platformRules describes the per-platform differences of a post body.
type platformRules struct {
	label    string
	minMedia int
	maxMedia int // 0 means unlimited
	threads  bool
	// target builds the platform-specific fields of post.target.
	target func(p params) (map[string]any, error)
}

var platforms = map[Platform]platformRules{
	PlatformTwitter:   {label: "X (Twitter)", maxMedia: 4, threads: true, target: noTarget},
	PlatformLinkedIn:  {label: "LinkedIn", maxMedia: 20, target: linkedInTarget},
	PlatformFacebook:  {label: "Facebook", maxMedia: 10, target: facebookTarget},
	PlatformInstagram: {label: "Instagram", minMedia: 1, maxMedia: 10, target: instagramTarget},
	PlatformTikTok:    {label: "TikTok", minMedia: 1, maxMedia: 35, target: tiktokTarget},
	PlatformPinterest: {label: "Pinterest", minMedia: 1, maxMedia: 5, target: pinterestTarget},
	PlatformThreads:   {label: "Threads", maxMedia: 10, threads: true, target: threadsTarget},
	PlatformBluesky:   {label: "Bluesky", maxMedia: 4, threads: true, target: noTarget},
	PlatformYouTube:   {label: "YouTube", minMedia: 1, maxMedia: 1, target: youtubeTarget},
}

// platformNames returns the platform values in a stable order.
func platformNames() []string {
	names := make([]string, 0, len(platforms))
	for p := range platforms {
		names = append(names, string(p))
	}
	sort.Strings(names)
	return names
}

func parsePlatform(p params, required bool) (Platform, error) {
	name, err := p.oneOf("platform", required, platformNames()...)
	return Platform(name), err
}

const (
	publishNow          = "now"
	publishSchedule     = "schedule"
	publishNextFreeSlot = "nextFreeSlot"
)

// buildCreatePost shapes POST /v2/posts:
//
//	{post: {accountId, content: {text, mediaUrls, platform, additionalPosts?}, target: {targetType, ...}},
//	 scheduledTime?, useNextFreeSlot?}
func buildCreatePost(p params) (apiRequest, error) {
	platform, err := parsePlatform(p, true)
	if err != nil {
		return apiRequest{}, err
	}
	rules := platforms[platform]

	accountID, err := p.requiredStr("accountId")
	if err != nil {
		return apiRequest{}, err
	}

	text := p.str("text")
	mediaURLs := p.stringList("mediaUrls")
	if text == "" && len(mediaURLs) == 0 {
		return apiRequest{}, paramError("a %s post needs text or media", rules.label)
	}
	if len(mediaURLs) < rules.minMedia {
		return apiRequest{}, paramError("%s posts need at least %d media URL(s)", rules.label, rules.minMedia)
	}
	if rules.maxMedia > 0 && len(mediaURLs) > rules.maxMedia {
		return apiRequest{}, paramError("%s posts accept at most %d media URL(s), got %d", rules.label, rules.maxMedia, len(mediaURLs))
	}

	content := map[string]any{
		"text":      text,
		"mediaUrls": mediaURLs,
		"platform":  string(platform),
	}

	additional, err := p.list("additionalPosts")
	if err != nil {
		return apiRequest{}, err
	}
	if len(additional) > 0 {
		if !rules.threads {
			return apiRequest{}, paramError("%s does not support threads (additionalPosts)", rules.label)
		}
		posts := make([]map[string]any, 0, len(additional))
		for i, item := range additional {
			itemText := item.str("text")
			itemMedia := item.stringList("mediaUrls")
			if itemText == "" && len(itemMedia) == 0 {
				return apiRequest{}, paramError("additional post %d needs text or media", i+1)
			}
			posts = append(posts, map[string]any{"text": itemText, "mediaUrls": itemMedia})
		}
		content["additionalPosts"] = posts
	}

	target, err := rules.target(p)
	if err != nil {
		return apiRequest{}, err
	}
	target["targetType"] = string(platform)

	body := map[string]any{
		"post": map[string]any{
			"accountId": accountID,
			"content":   content,
			"target":    target,
		},
	}

	if err := applySchedule(p, body); err != nil {
		return apiRequest{}, err
	}

	return apiRequest{Method: http.MethodPost, Path: "/v2/posts", Body: body}, nil
}

var scheduleLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

// applySchedule adds scheduledTime (UTC, RFC 3339) or useNextFreeSlot.
// Times without a zone are taken as UTC.
func applySchedule(p params, body map[string]any) error {
	mode, err := p.oneOf("publishMode", false, publishNow, publishSchedule, publishNextFreeSlot)
	if err != nil {
		return err
	}

	switch mode {
	case publishSchedule:
		raw, err := p.requiredStr("scheduledTime")
		if err != nil {
			return err
		}
		for _, layout := range scheduleLayouts {
			if t, err := time.Parse(layout, raw); err == nil {
				body["scheduledTime"] = t.UTC().Format(time.RFC3339)
				return nil
			}
		}
		return paramError("parameter %q must be an RFC 3339 date-time, got %q", "scheduledTime", raw)
	case publishNextFreeSlot:
		body["useNextFreeSlot"] = true
	}
	return nil
}

func noTarget(params) (map[string]any, error) {
	return map[string]any{}, nil
}

func linkedInTarget(p params) (map[string]any, error) {
	target := map[string]any{}
	p.setString(target, "pageId", "pageId")
	return target, nil
}

func facebookTarget(p params) (map[string]any, error) {
	pageID, err := p.requiredStr("pageId")
	if err != nil {
		return nil, err
	}
	target := map[string]any{"pageId": pageID}

	mediaType, err := p.oneOf("facebookMediaType", false, "video", "reel")
	if err != nil {
		return nil, err
	}
	if mediaType != "" {
		target["mediaType"] = mediaType
	}
	return target, nil
}

func instagramTarget(p params) (map[string]any, error) {
	target := map[string]any{}

	mediaType, err := p.oneOf("instagramMediaType", false, "reel", "story")
	if err != nil {
		return nil, err
	}
	if mediaType != "" {
		target["mediaType"] = mediaType
	}

	p.setString(target, "altText", "altText")
	p.setString(target, "coverImageUrl", "coverImageUrl")
	p.setString(target, "audioName", "audioName")
	if collaborators := p.stringList("collaborators"); len(collaborators) > 0 {
		if len(collaborators) > 3 {
			return nil, paramError("Instagram accepts at most 3 collaborators, got %d", len(collaborators))
		}
		target["collaborators"] = collaborators
	}
	if err := p.setBool(target, "shareToFeed"); err != nil {
		return nil, err
	}
	return target, nil
}

var tiktokPrivacyLevels = []string{
	"SELF_ONLY",
	"PUBLIC_TO_EVERYONE",
	"MUTUAL_FOLLOW_FRIENDS",
	"FOLLOWER_OF_CREATOR",
}

func tiktokTarget(p params) (map[string]any, error) {
	privacy, err := p.oneOf("privacyLevel", true, tiktokPrivacyLevels...)
	if err != nil {
		return nil, err
	}
	target := map[string]any{"privacyLevel": privacy}

	// These flags are mandatory in the TikTok target and default to false.
	for _, flag := range []string{
		"disabledComments",
		"disabledDuet",
		"disabledStitch",
		"isBrandedContent",
		"isYourBrand",
		"isAiGenerated",
	} {
		b, err := p.boolOr(flag, false)
		if err != nil {
			return nil, err
		}
		target[flag] = b
	}

	p.setString(target, "tiktokTitle", "title")
	for _, flag := range []string{"autoAddMusic", "isDraft"} {
		if err := p.setBool(target, flag); err != nil {
			return nil, err
		}
	}
	for _, n := range []string{"imageCoverIndex", "videoCoverTimestamp"} {
		if err := p.setInt(target, n); err != nil {
			return nil, err
		}
	}
	return target, nil
}

func pinterestTarget(p params) (map[string]any, error) {
	boardID, err := p.requiredStr("boardId")
	if err != nil {
		return nil, err
	}
	target := map[string]any{"boardId": boardID}
	p.setString(target, "pinterestTitle", "title")
	p.setString(target, "altText", "altText")

	if link := p.str("link"); link != "" {
		if u, err := url.Parse(link); err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
			return nil, paramError("parameter %q must be an http(s) URL, got %q", "link", link)
		}
		target["link"] = link
	}
	return target, nil
}

func threadsTarget(p params) (map[string]any, error) {
	target := map[string]any{}
	control, err := p.oneOf("replyControl", false, "everyone", "accounts_you_follow", "mentioned_only")
	if err != nil {
		return nil, err
	}
	if control != "" {
		target["replyControl"] = control
	}
	return target, nil
}

func youtubeTarget(p params) (map[string]any, error) {
	title, err := p.requiredStr("youtubeTitle")
	if err != nil {
		return nil, err
	}
	if len([]rune(title)) > 100 {
		return nil, paramError("YouTube titles are limited to 100 characters")
	}

	privacy, err := p.oneOf("privacyStatus", true, "private", "public", "unlisted")
	if err != nil {
		return nil, err
	}

	notify, err := p.boolOr("shouldNotifySubscribers", true)
	if err != nil {
		return nil, err
	}

	target := map[string]any{
		"title":                   title,
		"privacyStatus":           privacy,
		"shouldNotifySubscribers": notify,
	}
	for _, flag := range []string{"isMadeForKids", "containsSyntheticMedia"} {
		if err := p.setBool(target, flag); err != nil {
			return nil, err
		}
	}
	return target, nil
}

// buildGetPost shapes GET /v2/posts/{postSubmissionId}.
func buildGetPost(p params) (apiRequest, error) {
	id, err := p.requiredStr("postSubmissionId")
	if err != nil {
		return apiRequest{}, err
	}
	return apiRequest{Method: http.MethodGet, Path: "/v2/posts/" + url.PathEscape(id)}, nil
}

// reshapePostStatus keeps the status fields of a post submission.
func reshapePostStatus(_ params, resp *gabs.Container) plugin.Output {
	out := plugin.Output{}
	for _, field := range []string{"postSubmissionId", "status", "publicUrl", "errorMessage"} {
		if v := resp.Path(field).Data(); v != nil {
			out[field] = v
		}
	}
	return out
}
