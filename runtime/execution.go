package runtime

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

var _ context.Context = &Execution{}

// ResponseDescriptor captures the response a flow's return step produced.
// The HTTP handler dispatches it to the matching ResponseHandler.
type ResponseDescriptor struct {
	HandlerName string
	Args        map[string]any
}

// Execution is the state of one flow run or one direct task call.
// It implements context.Context; string keys resolve against the value store.
type Execution struct {
	ID                 string
	Store              ValueStore
	Flow               *Flow
	Container          *Container
	ResponseDescriptor *ResponseDescriptor
	ctx                context.Context
}

func (e *Execution) Deadline() (deadline time.Time, ok bool) {
	return e.ctx.Deadline()
}

func (e *Execution) Done() <-chan struct{} {
	return e.ctx.Done()
}

func (e *Execution) Err() error {
	return e.ctx.Err()
}

func (e *Execution) Value(key any) any {
	k, ok := key.(string)
	if !ok {
		return e.ctx.Value(key)
	}

	v, _ := e.Store.Get(k)
	return v
}

// WithContext returns a shallow copy of the Execution with a new embedded
// context. The value store is shared with the parent.
func (e *Execution) WithContext(ctx context.Context) *Execution {
	copy := *e
	copy.ctx = ctx
	return &copy
}

func (e *Execution) AddValue(k string, v any) {
	e.Store.Set(k, v)
}

// Values returns the full value tree for expression evaluation.
func (e *Execution) Values() map[string]any {
	return e.Store.All()
}

// NewExecution prepares a flow run. Global properties are applied first and
// flow properties override them; ${VAR} and ${VAR:default} are resolved.
func NewExecution(ctx context.Context, flow *Flow, container *Container, globalProperties map[string]any) (*Execution, error) {
	exec := NewTaskExecution(ctx, container)
	exec.Flow = flow

	for k, v := range globalProperties {
		resolved, err := ResolveEnvVar(v)
		if err != nil {
			return nil, fmt.Errorf("property %s: %w", k, err)
		}
		exec.AddValue("properties."+k, resolved)
	}

	for k, v := range flow.Properties {
		resolved, err := ResolveEnvVar(v)
		if err != nil {
			return nil, fmt.Errorf("flow %s property %s: %w", flow.ID, k, err)
		}
		exec.AddValue("properties."+k, resolved)
	}

	return exec, nil
}

// NewTaskExecution prepares an execution that is not bound to a flow:
// lifecycle hooks, direct node API task calls and list searches.
func NewTaskExecution(ctx context.Context, container *Container) *Execution {
	if ctx == nil {
		ctx = context.Background()
	}
	return &Execution{
		ID:        uuid.New().String(),
		Store:     NewValueStore(),
		Container: container,
		ctx:       ctx,
	}
}

// envVarPattern matches ${VAR} and ${VAR:default} syntax
var envVarPattern = regexp.MustCompile(`^\$\{([A-Z_][A-Z0-9_]*)(:[^}]*)?\}$`)

// ResolveEnvVar resolves a ${VAR} / ${VAR:default} string against the
// environment. Nested maps and slices are resolved recursively; other values
// are returned unchanged.
func ResolveEnvVar(value any) (any, error) {
	switch v := value.(type) {
	case string:
		return resolveEnvString(v)
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, item := range v {
			resolved, err := ResolveEnvVar(item)
			if err != nil {
				return nil, err
			}
			out[k] = resolved
		}
		return out, nil
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			resolved, err := ResolveEnvVar(item)
			if err != nil {
				return nil, err
			}
			out[i] = resolved
		}
		return out, nil
	default:
		return value, nil
	}
}

func resolveEnvString(s string) (any, error) {
	matches := envVarPattern.FindStringSubmatch(s)
	if matches == nil {
		return s, nil
	}

	varName := matches[1]
	defaultPart := matches[2]

	if envValue, exists := os.LookupEnv(varName); exists {
		return envValue, nil
	}

	if defaultPart != "" {
		return strings.TrimPrefix(defaultPart, ":"), nil
	}

	return nil, fmt.Errorf("required environment variable not set: %s", varName)
}
