package blotato

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/sflowg/blotato/runtime/plugin"
)

// Config holds the Blotato plugin configuration with declarative tags
type Config struct {
	APIKey            string        `yaml:"api_key" validate:"required"`
	BaseURL           string        `yaml:"base_url" default:"https://backend.blotato.com" validate:"required,url_format"`
	Timeout           time.Duration `yaml:"timeout" default:"30s" validate:"gte=1s"`
	RequestsPerMinute int           `yaml:"requests_per_minute" default:"0" validate:"gte=0,lte=600"`
	SearchCacheTTL    time.Duration `yaml:"search_cache_ttl" default:"5m" validate:"gte=0"`
	Debug             bool          `yaml:"debug" default:"false"`
}

// BlotatoPlugin turns node parameters into Blotato API calls.
type BlotatoPlugin struct {
	Config Config // Exported so the host can set it during initialization
	client *client
	cache  *cache.Cache
	logger *slog.Logger
}

// Initialize implements the plugin.Initializer interface.
// Config is already validated by the framework before this is called.
func (p *BlotatoPlugin) Initialize(exec *plugin.Execution) error {
	if p.logger == nil {
		p.logger = slog.Default().With("plugin", NodeName)
	}
	p.client = newClient(p.Config, p.logger)
	if p.Config.SearchCacheTTL > 0 {
		p.cache = cache.New(p.Config.SearchCacheTTL, 2*p.Config.SearchCacheTTL)
	}

	p.logger.InfoContext(exec, "Blotato plugin initialized",
		"base_url", p.Config.BaseURL,
		"timeout", p.Config.Timeout,
		"requests_per_minute", p.Config.RequestsPerMinute,
		"search_cache_ttl", p.Config.SearchCacheTTL)
	return nil
}

// Shutdown implements the plugin.Shutdowner interface
func (p *BlotatoPlugin) Shutdown(exec *plugin.Execution) error {
	if p.cache != nil {
		p.cache.Flush()
	}
	p.client = nil
	return nil
}

// Execute runs one item: the resource and operation parameters select the
// request builder, unset visible fields take their declared defaults.
func (p *BlotatoPlugin) Execute(exec *plugin.Execution, args plugin.Input) (plugin.Output, error) {
	return p.run(exec, params(description.Defaults(args)))
}

// BatchInput is a list of items, each shaped like the Execute input.
type BatchInput struct {
	Items          []map[string]any `json:"items" validate:"required,min=1"`
	ContinueOnFail bool             `json:"continueOnFail"`
}

type BatchOutput struct {
	Results []map[string]any `json:"results"`
	Failed  int              `json:"failed"`
}

// ExecuteBatch runs items in order. With ContinueOnFail a failed item yields
// {error, index} in its slot; otherwise the first failure aborts the batch.
func (p *BlotatoPlugin) ExecuteBatch(exec *plugin.Execution, input BatchInput) (BatchOutput, error) {
	out := BatchOutput{Results: make([]map[string]any, 0, len(input.Items))}

	for i, item := range input.Items {
		if err := exec.Err(); err != nil {
			return out, fmt.Errorf("batch stopped before item %d: %w", i, err)
		}

		result, err := p.Execute(exec, item)
		if err != nil {
			if !input.ContinueOnFail {
				return out, fmt.Errorf("item %d: %w", i, err)
			}
			out.Failed++
			out.Results = append(out.Results, failedItem(i, err))
			p.logger.WarnContext(exec, "Batch item failed", "index", i, "error", err)
			continue
		}
		out.Results = append(out.Results, result)
	}
	return out, nil
}

func failedItem(index int, err error) map[string]any {
	failed := map[string]any{"error": err.Error(), "index": index}
	var taskErr *plugin.TaskError
	if errors.As(err, &taskErr) {
		if t := taskErr.GetType(); t != "" {
			failed["type"] = t
		}
		if status, ok := taskErr.Metadata["status_code"]; ok {
			failed["status_code"] = status
		}
	}
	return failed
}

// run resolves the operation, sends its request and reshapes the answer.
func (p *BlotatoPlugin) run(ctx context.Context, in params) (plugin.Output, error) {
	if p.client == nil {
		return nil, fmt.Errorf("blotato plugin is not initialized")
	}

	key, op, err := lookupOperation(in)
	if err != nil {
		return nil, err
	}

	req, err := op.build(in)
	if err != nil {
		return nil, err
	}

	resp, err := p.client.do(ctx, req)
	if err != nil {
		return nil, err
	}

	p.logger.DebugContext(ctx, "Blotato operation completed", "operation", key.String())
	return op.reshape(in, resp), nil
}
