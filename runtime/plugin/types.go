package plugin

import "github.com/sflowg/blotato/runtime"

// Execution is the runtime context passed to every task method.
type Execution = runtime.Execution

// Input is the map-based task input.
type Input = map[string]any

// Output is the map-based task output. It is stored under <step>.result.
type Output = map[string]any

type (
	Initializer  = runtime.Initializer
	Shutdowner   = runtime.Shutdowner
	Describer    = runtime.Describer
	ListSearcher = runtime.ListSearcher
	TaskError    = runtime.TaskError
)

const (
	ErrorTypeTransient = runtime.ErrorTypeTransient
	ErrorTypePermanent = runtime.ErrorTypePermanent
	ErrorTypeUser      = runtime.ErrorTypeUser
)

// NewTaskError wraps err so metadata can be attached.
func NewTaskError(err error) *TaskError {
	return runtime.NewTaskError(err)
}
