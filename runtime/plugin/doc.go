// Package plugin is the import surface for plugin authors.
//
// Plugins import this package and runtime/node, never the runtime package
// itself. A plugin is a struct with an exported Config field and task methods:
//
//	type Config struct {
//	    APIKey  string        `yaml:"api_key" validate:"required"`
//	    Timeout time.Duration `yaml:"timeout" default:"30s" validate:"gte=1s"`
//	}
//
//	type MyPlugin struct {
//	    Config Config
//	}
//
//	// Task: myplugin.send
//	func (p *MyPlugin) Send(exec *plugin.Execution, args plugin.Input) (plugin.Output, error)
//
//	// Typed task: myplugin.lookup; input decoded from args and validated
//	func (p *MyPlugin) Lookup(exec *plugin.Execution, in LookupInput) (LookupOutput, error)
//
// The host applies `default` tags, merges the plugins.<name> section of
// flow-config.yaml and runs `validate` tags before Initialize is called.
//
// Optional capabilities:
//   - Initializer / Shutdowner for lifecycle hooks
//   - Describer to publish a node.Description (UI form schema)
//   - ListSearcher to fill dropdowns from the remote API
//
// Execution implements context.Context; pass it to anything that blocks.
// Return a *TaskError to classify failures (ErrorTypeUser, ErrorTypeTransient,
// ErrorTypePermanent); the host maps the type to retry decisions and HTTP status.
package plugin
