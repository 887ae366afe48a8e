package blotato

import (
	"encoding/base64"
	"net/http"
	"net/url"
	"strings"

	"github.com/Jeffail/gabs/v2"
	"github.com/gabriel-vasile/mimetype"
	"github.com/sflowg/blotato/runtime/plugin"
)

const (
	mediaSourceURL    = "url"
	mediaSourceBinary = "binary"
)

// buildUploadMedia shapes POST /v2/media. Blotato fetches the URL itself; binary
// payloads are sent inline as a data URI.
func buildUploadMedia(p params) (apiRequest, error) {
	source, err := p.oneOf("mediaSource", false, mediaSourceURL, mediaSourceBinary)
	if err != nil {
		return apiRequest{}, err
	}

	var mediaURL string
	switch source {
	case mediaSourceBinary:
		mediaURL, err = dataURI(p)
	default:
		mediaURL, err = httpURL(p, "mediaUrl")
	}
	if err != nil {
		return apiRequest{}, err
	}

	return apiRequest{
		Method: http.MethodPost,
		Path:   "/v2/media",
		Body:   map[string]any{"url": mediaURL},
	}, nil
}

func httpURL(p params, name string) (string, error) {
	raw, err := p.requiredStr(name)
	if err != nil {
		return "", err
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return "", paramError("parameter %q must be an http(s) URL, got %q", name, raw)
	}
	return raw, nil
}

// dataURI builds data:<mime>;base64,<payload> from binaryData. The MIME type
// is sniffed from the payload unless mimeType is given.
func dataURI(p params) (string, error) {
	payload, err := p.requiredStr("binaryData")
	if err != nil {
		return "", err
	}

	// Accept a data URI as-is after checking the payload decodes.
	if strings.HasPrefix(payload, "data:") {
		if i := strings.Index(payload, ";base64,"); i > 0 {
			if _, err := base64.StdEncoding.DecodeString(payload[i+len(";base64,"):]); err == nil {
				return payload, nil
			}
		}
		return "", paramError("parameter %q is not a base64 data URI", "binaryData")
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", paramError("parameter %q must be base64 encoded: %v", "binaryData", err)
	}
	if len(data) == 0 {
		return "", paramError("parameter %q is empty", "binaryData")
	}

	mime := p.str("mimeType")
	if mime == "" {
		mime = mimetype.Detect(data).String()
	}
	// Parameters such as charset are not part of the data URI media type here.
	if i := strings.Index(mime, ";"); i > 0 {
		mime = strings.TrimSpace(mime[:i])
	}

	return "data:" + mime + ";base64," + payload, nil
}

func reshapeMedia(_ params, resp *gabs.Container) plugin.Output {
	return plugin.Output{"url": resp.Path("url").Data()}
}
