package blotato

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/Jeffail/gabs/v2"
	"github.com/go-resty/resty/v2"
	"github.com/sflowg/blotato/runtime/plugin"
	"golang.org/x/time/rate"
)

const apiKeyHeader = "blotato-api-key"

// apiRequest is the request shape an operation builder produces.
type apiRequest struct {
	Method string
	Path   string
	Query  map[string]string
	Body   map[string]any
}

// client sends apiRequests to the Blotato API. Retries are left to the host.
type client struct {
	http    *resty.Client
	limiter *rate.Limiter
	logger  *slog.Logger
}

func newClient(cfg Config, logger *slog.Logger) *client {
	c := &client{
		http: resty.New().
			SetBaseURL(cfg.BaseURL).
			SetTimeout(cfg.Timeout).
			SetRetryCount(0).
			SetHeader(apiKeyHeader, cfg.APIKey).
			SetHeader("Accept", "application/json").
			SetDebug(cfg.Debug),
		logger: logger,
	}
	if cfg.RequestsPerMinute > 0 {
		c.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.RequestsPerMinute)), 1)
	}
	return c
}

// do executes req and parses the JSON answer. An empty body parses to an empty object.
func (c *client) do(ctx context.Context, req apiRequest) (*gabs.Container, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, plugin.NewTaskError(fmt.Errorf("waiting for request slot: %w", err)).
				WithType(plugin.ErrorTypeTransient).
				WithRetryHint(true, "")
		}
	}

	r := c.http.R().
		SetContext(ctx).
		SetQueryParams(req.Query)
	if req.Body != nil {
		r.SetHeader("Content-Type", "application/json").SetBody(req.Body)
	}

	started := time.Now()
	resp, err := r.Execute(req.Method, req.Path)
	if err != nil {
		c.logger.WarnContext(ctx, "Blotato request failed",
			"method", req.Method,
			"path", req.Path,
			"error", err)
		taskErr := plugin.NewTaskError(fmt.Errorf("blotato %s %s: %w", req.Method, req.Path, err)).
			WithType(plugin.ErrorTypeTransient).
			WithRetryHint(true, "")
		if errors.Is(err, context.Canceled) {
			taskErr.WithRetryHint(false, "")
		}
		return nil, taskErr
	}

	c.logger.DebugContext(ctx, "Blotato request",
		"method", req.Method,
		"path", req.Path,
		"status", resp.StatusCode(),
		"duration_ms", time.Since(started).Milliseconds())

	if resp.IsError() {
		return nil, upstreamError(req, resp)
	}

	body := resp.Body()
	if len(body) == 0 {
		return gabs.New(), nil
	}
	parsed, err := gabs.ParseJSON(body)
	if err != nil {
		return nil, plugin.NewTaskError(fmt.Errorf("blotato %s %s: invalid JSON response: %w", req.Method, req.Path, err)).
			WithType(plugin.ErrorTypePermanent).
			WithMetadata("status_code", resp.StatusCode())
	}
	return parsed, nil
}

// upstreamError turns a non-2xx answer into a TaskError. 408, 429 and 5xx are
// transient; everything else is permanent.
func upstreamError(req apiRequest, resp *resty.Response) error {
	status := resp.StatusCode()
	message := resp.Status()
	var detail any = string(resp.Body())

	if parsed, err := gabs.ParseJSON(resp.Body()); err == nil {
		detail = parsed.Data()
		for _, path := range []string{"message", "error.message", "error"} {
			if s, ok := parsed.Path(path).Data().(string); ok && s != "" {
				message = s
				break
			}
		}
	}

	taskErr := plugin.NewTaskError(fmt.Errorf("blotato %s %s returned %d: %s", req.Method, req.Path, status, message)).
		WithMetadata("status_code", status).
		WithMetadata("body", detail)

	switch {
	case status == http.StatusTooManyRequests || status == http.StatusRequestTimeout || status >= 500:
		taskErr.WithType(plugin.ErrorTypeTransient).
			WithRetryHint(true, resp.Header().Get("Retry-After"))
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		taskErr.WithType(plugin.ErrorTypeUser).WithRetryHint(false, "")
	default:
		taskErr.WithType(plugin.ErrorTypePermanent).WithRetryHint(false, "")
	}
	return taskErr
}
