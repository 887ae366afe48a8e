package runtime

import "github.com/sflowg/blotato/runtime/node"

// Task is a unit of work a flow step (or the node API) can invoke.
type Task interface {
	Execute(exec *Execution, args map[string]any) (map[string]any, error)
}

// Initializer interface allows plugins to perform startup initialization.
// Config is already set and validated on the plugin struct when Initialize runs.
type Initializer interface {
	Initialize(exec *Execution) error
}

// Shutdowner interface allows plugins to release resources during graceful shutdown.
type Shutdowner interface {
	Shutdown(exec *Execution) error
}

// Describer is implemented by plugins that publish a UI form schema.
type Describer interface {
	Describe() node.Description
}

// ListSearcher is implemented by plugins whose dropdowns are filled from the
// remote API rather than from static options.
type ListSearcher interface {
	Search(exec *Execution, method string, req node.ListSearchRequest) (node.ListSearchResult, error)
}

// ExpressionEvaluator evaluates flow expressions against the execution values.
type ExpressionEvaluator interface {
	Eval(expression string, values map[string]any) (any, error)
}

// ValueStore manages execution state storage and retrieval.
type ValueStore interface {
	Set(key string, value any)
	Get(key string) (any, bool)
	All() map[string]any
}
